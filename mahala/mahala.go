package mahala

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// Sentinel errors for the mahala package.
// Use errors.Is to check: errors.Is(err, mahala.ErrDimensionMismatch)
var (
	ErrDimensionMismatch  = errors.New("mahala: vector dimensions do not match")
	ErrSingularCovariance = errors.New("mahala: covariance matrix is singular")
	ErrEmptyInput         = errors.New("mahala: no vectors provided")
)

// DefaultRidge is the regularization added to the covariance diagonal
// before inversion.
const DefaultRidge = 1e-6

// Model holds the inverse covariance used to scale distances between
// vectors of one population.
type Model struct {
	dim      int
	inv      *mat.SymDense // nil means identity (Euclidean)
	degraded bool
}

// Identity returns a model that measures plain Euclidean distance for
// vectors of the given dimension. The model is not flagged as degraded.
func Identity(dim int) *Model {
	return &Model{dim: dim}
}

// NewModel estimates a covariance model from the sample vectors.
// ridge is added to the covariance diagonal before inversion; zero
// selects DefaultRidge.
//
// With fewer than two vectors, or when the regularized covariance is
// singular, the returned model falls back to the identity and reports
// Degraded() == true. Empty input returns ErrEmptyInput; vectors of
// inconsistent length return ErrDimensionMismatch.
func NewModel(rows [][]float64, ridge float64) (*Model, error) {
	dim, err := checkRows(rows)
	if err != nil {
		return nil, err
	}
	if len(rows) < 2 {
		return &Model{dim: dim, degraded: true}, nil
	}

	inv, err := InverseCovariance(rows, ridge)
	if errors.Is(err, ErrSingularCovariance) {
		return &Model{dim: dim, degraded: true}, nil
	}
	if err != nil {
		return nil, err
	}
	return &Model{dim: dim, inv: inv}, nil
}

// FromInverse builds a model around a caller-supplied inverse
// covariance, such as one precomputed from a reference population.
func FromInverse(inv *mat.SymDense) (*Model, error) {
	if inv == nil {
		return nil, ErrEmptyInput
	}
	n := inv.SymmetricDim()
	if n == 0 {
		return nil, ErrEmptyInput
	}
	return &Model{dim: n, inv: inv}, nil
}

// Dim returns the vector dimension the model applies to.
func (m *Model) Dim() int {
	return m.dim
}

// Degraded reports whether the model fell back to Euclidean distance
// because no usable covariance could be estimated.
func (m *Model) Degraded() bool {
	return m.degraded
}

// Distance returns the Mahalanobis distance sqrt((a-b)ᵀ Σ⁻¹ (a-b))
// between a and b. Under an identity or degraded model this is the
// Euclidean distance. Vectors whose lengths disagree with each other
// or with the model return ErrDimensionMismatch.
//
// The result is always >= 0 and is exactly 0 iff a == b elementwise.
func (m *Model) Distance(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	if len(a) != m.dim {
		return 0, fmt.Errorf("%w: vectors have %d weights, model expects %d",
			ErrDimensionMismatch, len(a), m.dim)
	}
	if m.inv == nil {
		return euclidean(a, b), nil
	}

	delta := mat.NewVecDense(len(a), nil)
	for i := range a {
		delta.SetVec(i, a[i]-b[i])
	}

	var scaled mat.VecDense
	scaled.MulVec(m.inv, delta)
	d2 := mat.Dot(delta, &scaled)

	// Floating point can produce a tiny negative for near-equal vectors.
	return math.Sqrt(math.Max(d2, 0)), nil
}

// Euclidean returns the plain Euclidean distance between a and b.
func Euclidean(a, b []float64) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("%w: %d vs %d", ErrDimensionMismatch, len(a), len(b))
	}
	return euclidean(a, b), nil
}

func euclidean(a, b []float64) float64 {
	var d2 float64
	for i := range a {
		d := a[i] - b[i]
		d2 += d * d
	}
	return math.Sqrt(d2)
}

// Covariance returns the ridge-regularized sample covariance of rows.
// Zero ridge selects DefaultRidge.
func Covariance(rows [][]float64, ridge float64) (*mat.SymDense, error) {
	dim, err := checkRows(rows)
	if err != nil {
		return nil, err
	}
	if ridge == 0 {
		ridge = DefaultRidge
	}

	cov := mat.NewSymDense(dim, nil)
	if len(rows) >= 2 {
		data := mat.NewDense(len(rows), dim, nil)
		for i, row := range rows {
			data.SetRow(i, row)
		}
		stat.CovarianceMatrix(cov, data, nil)
	} else {
		// A single vector has no spread; fall back to the identity so
		// the matrix stays positive definite.
		for i := 0; i < dim; i++ {
			cov.SetSym(i, i, 1)
		}
	}

	for i := 0; i < dim; i++ {
		cov.SetSym(i, i, cov.At(i, i)+ridge)
	}
	return cov, nil
}

// InverseCovariance returns the inverse of the ridge-regularized
// sample covariance of rows. A covariance that cannot be factorized
// returns ErrSingularCovariance.
func InverseCovariance(rows [][]float64, ridge float64) (*mat.SymDense, error) {
	cov, err := Covariance(rows, ridge)
	if err != nil {
		return nil, err
	}

	var chol mat.Cholesky
	if !chol.Factorize(cov) {
		return nil, ErrSingularCovariance
	}
	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSingularCovariance, err)
	}
	return &inv, nil
}

// checkRows validates shape and returns the shared dimension.
func checkRows(rows [][]float64) (int, error) {
	if len(rows) == 0 {
		return 0, ErrEmptyInput
	}
	dim := len(rows[0])
	if dim == 0 {
		return 0, fmt.Errorf("%w: zero-length vectors", ErrEmptyInput)
	}
	for i, row := range rows {
		if len(row) != dim {
			return 0, fmt.Errorf("%w: row 0 has %d weights, row %d has %d",
				ErrDimensionMismatch, dim, i, len(row))
		}
	}
	return dim, nil
}
