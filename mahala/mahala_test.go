package mahala

import (
	"errors"
	"math"
	"testing"
)

func TestEuclideanKnownValue(t *testing.T) {
	// Identity covariance: d([1,0], [0,1]) = sqrt(2).
	m := Identity(2)
	d, err := m.Distance([]float64{1, 0}, []float64{0, 1})
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	if math.Abs(d-math.Sqrt2) > 1e-12 {
		t.Errorf("distance = %v, want sqrt(2)", d)
	}
}

func TestDistanceSelfIsZero(t *testing.T) {
	rows := [][]float64{
		{1, 2, 3},
		{2, 2.5, 4},
		{3, 4, 5},
		{4, 5, 7},
	}
	m, err := NewModel(rows, 0)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	for _, row := range rows {
		d, err := m.Distance(row, row)
		if err != nil {
			t.Fatalf("Distance failed: %v", err)
		}
		if d != 0 {
			t.Errorf("self-distance = %v, want exactly 0", d)
		}
	}
}

func TestDistanceSymmetric(t *testing.T) {
	rows := [][]float64{
		{1, 2},
		{2, 2.5},
		{3, 4},
		{4, 5},
	}
	m, err := NewModel(rows, 0)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	for i := range rows {
		for j := range rows {
			ab, err := m.Distance(rows[i], rows[j])
			if err != nil {
				t.Fatalf("Distance failed: %v", err)
			}
			ba, err := m.Distance(rows[j], rows[i])
			if err != nil {
				t.Fatalf("Distance failed: %v", err)
			}
			if ab != ba {
				t.Errorf("d(%d,%d) = %v, d(%d,%d) = %v, want equal", i, j, ab, j, i, ba)
			}
			if ab < 0 {
				t.Errorf("d(%d,%d) = %v, want >= 0", i, j, ab)
			}
		}
	}
}

func TestDistancePositiveForDistinctVectors(t *testing.T) {
	rows := [][]float64{
		{1, 2},
		{2, 2.5},
		{3, 4},
		{4, 5},
	}
	m, err := NewModel(rows, 0)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	d, err := m.Distance(rows[0], rows[3])
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	if d <= 0 {
		t.Errorf("distance = %v, want > 0", d)
	}
}

func TestDistanceDimensionMismatch(t *testing.T) {
	m := Identity(3)

	tests := []struct {
		name string
		a, b []float64
	}{
		{"a shorter", []float64{1, 2}, []float64{1, 2, 3}},
		{"b shorter", []float64{1, 2, 3}, []float64{1, 2}},
		{"both wrong for model", []float64{1, 2}, []float64{3, 4}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Distance(tt.a, tt.b)
			if err == nil {
				t.Fatal("Distance should fail on dimension mismatch")
			}
			if !errors.Is(err, ErrDimensionMismatch) {
				t.Errorf("error should wrap ErrDimensionMismatch, got %v", err)
			}
		})
	}
}

func TestEuclideanDimensionMismatch(t *testing.T) {
	_, err := Euclidean([]float64{1}, []float64{1, 2})
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("error should wrap ErrDimensionMismatch, got %v", err)
	}
}

func TestNewModelEmptyInput(t *testing.T) {
	_, err := NewModel(nil, 0)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("error should wrap ErrEmptyInput, got %v", err)
	}

	_, err = NewModel([][]float64{{}}, 0)
	if !errors.Is(err, ErrEmptyInput) {
		t.Errorf("zero-length vectors: error should wrap ErrEmptyInput, got %v", err)
	}
}

func TestNewModelInconsistentRows(t *testing.T) {
	_, err := NewModel([][]float64{{1, 2}, {1, 2, 3}}, 0)
	if !errors.Is(err, ErrDimensionMismatch) {
		t.Errorf("error should wrap ErrDimensionMismatch, got %v", err)
	}
}

func TestNewModelSingleVectorDegrades(t *testing.T) {
	m, err := NewModel([][]float64{{1, 2, 3}}, 0)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	if !m.Degraded() {
		t.Error("single-vector model should be degraded")
	}

	// Degraded model measures Euclidean distance.
	d, err := m.Distance([]float64{1, 0, 0}, []float64{0, 1, 0})
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	if math.Abs(d-math.Sqrt2) > 1e-12 {
		t.Errorf("degraded distance = %v, want sqrt(2)", d)
	}
}

func TestNewModelHealthyPopulationNotDegraded(t *testing.T) {
	rows := [][]float64{
		{1.0, 2.0},
		{2.0, 2.5},
		{3.0, 4.0},
		{4.0, 5.0},
	}
	m, err := NewModel(rows, 0)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	if m.Degraded() {
		t.Error("well-spread population should not degrade")
	}
}

func TestCovarianceRidgeOnDiagonal(t *testing.T) {
	rows := [][]float64{{1, 2}, {3, 4}}
	cov, err := Covariance(rows, 0.1)
	if err != nil {
		t.Fatalf("Covariance failed: %v", err)
	}
	if cov.At(0, 0) <= 0.1 {
		t.Errorf("cov[0][0] = %v, want > ridge 0.1", cov.At(0, 0))
	}
	if cov.At(1, 1) <= 0.1 {
		t.Errorf("cov[1][1] = %v, want > ridge 0.1", cov.At(1, 1))
	}
}

func TestInverseCovarianceShape(t *testing.T) {
	rows := [][]float64{
		{1, 2},
		{2, 4.1},
		{3, 5.9},
	}
	inv, err := InverseCovariance(rows, 0)
	if err != nil {
		t.Fatalf("InverseCovariance failed: %v", err)
	}
	if inv.SymmetricDim() != 2 {
		t.Errorf("inverse dim = %d, want 2", inv.SymmetricDim())
	}
}

func TestMahalanobisDiffersFromEuclidean(t *testing.T) {
	// Strongly correlated population: the covariance-scaled distance
	// must differ from the raw Euclidean one.
	rows := [][]float64{
		{1, 2},
		{2, 2.5},
		{3, 4},
		{4, 5},
		{5, 6.5},
	}
	m, err := NewModel(rows, 0)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	if m.Degraded() {
		t.Fatal("model unexpectedly degraded")
	}

	d, err := m.Distance(rows[0], rows[4])
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	e, _ := Euclidean(rows[0], rows[4])
	if math.Abs(d-e) < 1e-9 {
		t.Errorf("mahalanobis %v == euclidean %v for correlated data", d, e)
	}
}

func TestFromInverse(t *testing.T) {
	inv, err := InverseCovariance([][]float64{{1, 2}, {2, 3}, {4, 2}}, 0)
	if err != nil {
		t.Fatalf("InverseCovariance failed: %v", err)
	}
	m, err := FromInverse(inv)
	if err != nil {
		t.Fatalf("FromInverse failed: %v", err)
	}
	if m.Dim() != 2 {
		t.Errorf("dim = %d, want 2", m.Dim())
	}
	if m.Degraded() {
		t.Error("caller-supplied model should not be degraded")
	}

	if _, err := FromInverse(nil); !errors.Is(err, ErrEmptyInput) {
		t.Errorf("nil inverse: error should wrap ErrEmptyInput, got %v", err)
	}
}

func TestNewModelDefaultRidge(t *testing.T) {
	// Identical vectors have zero covariance; the default ridge alone
	// must keep the matrix invertible, so the model stays exact.
	rows := [][]float64{
		{1, 1},
		{1, 1},
		{1, 1},
	}
	m, err := NewModel(rows, 0)
	if err != nil {
		t.Fatalf("NewModel failed: %v", err)
	}
	d, err := m.Distance(rows[0], rows[1])
	if err != nil {
		t.Fatalf("Distance failed: %v", err)
	}
	if d != 0 {
		t.Errorf("distance between identical vectors = %v, want 0", d)
	}
}
