package fit

import (
	"context"
	"fmt"
	"math"
	"math/rand"

	"github.com/sky-flux/meld"
)

// Errors wrap meld.ErrInsufficientData so advisors can classify them
// without importing this package.
var (
	ErrNoReviews     = fmt.Errorf("fit: no review logs provided: %w", meld.ErrInsufficientData)
	ErrTooFewReviews = fmt.Errorf("fit: too few cross-day reviews to train: %w", meld.ErrInsufficientData)
)

// Config configures training. Zero values are replaced with defaults:
// Epochs=5, MiniBatchSize=512, LearningRate=0.04, MaxSeqLen=64,
// MinCrossDay=MiniBatchSize.
type Config struct {
	Epochs        int     `json:"epochs"`
	MiniBatchSize int     `json:"mini_batch_size"`
	LearningRate  float64 `json:"learning_rate"`
	MaxSeqLen     int     `json:"max_seq_len"`
	MinCrossDay   int     `json:"min_cross_day"` // minimum cross-day reviews to attempt a fit
}

// Fitter trains FSRS-6 parameters from one deck's review logs. It
// implements meld.Optimizer.
type Fitter struct {
	epochs        int
	miniBatchSize int
	learningRate  float64
	maxSeqLen     int
	minCrossDay   int
}

var _ meld.Optimizer = (*Fitter)(nil)

// New creates a Fitter with the given config.
func New(cfg Config) *Fitter {
	f := &Fitter{
		epochs:        cfg.Epochs,
		miniBatchSize: cfg.MiniBatchSize,
		learningRate:  cfg.LearningRate,
		maxSeqLen:     cfg.MaxSeqLen,
		minCrossDay:   cfg.MinCrossDay,
	}
	if f.epochs == 0 {
		f.epochs = 5
	}
	if f.miniBatchSize == 0 {
		f.miniBatchSize = 512
	}
	if f.learningRate == 0 {
		f.learningRate = 0.04
	}
	if f.maxSeqLen == 0 {
		f.maxSeqLen = 64
	}
	if f.minCrossDay == 0 {
		f.minCrossDay = f.miniBatchSize
	}
	return f
}

// Optimize trains the 21 FSRS-6 weights from the deck's review logs,
// starting at the defaults. It is deterministic: the minibatch shuffle
// is seeded, so identical logs always produce identical weights.
//
// Returns ErrNoReviews for empty input and ErrTooFewReviews when the
// logs hold fewer than MinCrossDay cross-day reviews; both wrap
// meld.ErrInsufficientData. Context cancellation is honored at batch
// boundaries and surfaces the context error.
func (f *Fitter) Optimize(ctx context.Context, logs []meld.ReviewLog) (meld.ParameterVector, error) {
	if len(logs) == 0 {
		return nil, ErrNoReviews
	}

	seqs := sequences(logs, f.maxSeqLen)
	crossDay := countCrossDay(seqs)
	if crossDay < f.minCrossDay {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewReviews, crossDay, f.minCrossDay)
	}

	batches := int(math.Ceil(float64(crossDay) / float64(f.miniBatchSize)))
	sched := &cosineSchedule{lrMax: f.learningRate, tMax: batches * f.epochs}
	opt := &adam{}
	rng := rand.New(rand.NewSource(42))
	cardIDs := sortedCardIDs(seqs)

	w := defaultWeights
	best := w
	bestLoss := batchLoss(w, seqs)

	for epoch := 0; epoch < f.epochs; epoch++ {
		rng.Shuffle(len(cardIDs), func(i, j int) {
			cardIDs[i], cardIDs[j] = cardIDs[j], cardIDs[i]
		})

		batch := make(map[int64][]sample)
		batchCrossDay := 0
		step := func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			w = clampWeights(opt.update(w, gradient(w, batch), sched.lr()))
			sched.advance()
			batch = make(map[int64][]sample)
			batchCrossDay = 0
			return nil
		}

		for _, cardID := range cardIDs {
			seq := seqs[cardID]
			batch[cardID] = seq
			for _, s := range seq {
				if s.elapsed >= 1 {
					batchCrossDay++
				}
			}
			if batchCrossDay >= f.miniBatchSize {
				if err := step(); err != nil {
					return nil, err
				}
			}
		}
		// Remainder at end of epoch.
		if batchCrossDay > 0 {
			if err := step(); err != nil {
				return nil, err
			}
		}

		if epochLoss := batchLoss(w, seqs); epochLoss < bestLoss {
			bestLoss = epochLoss
			best = w
		}
	}

	return meld.ParameterVector(best[:]), nil
}

// Loss returns the average BCE loss of the given weights over the
// logs' cross-day reviews, for comparing fitted against default
// parameters. Vectors of other FSRS versions are not supported.
func (f *Fitter) Loss(params meld.ParameterVector, logs []meld.ReviewLog) (float64, error) {
	if params.Dim() != Dim {
		return 0, fmt.Errorf("fit: expected %d weights, got %d", Dim, params.Dim())
	}
	var w [Dim]float64
	copy(w[:], params)
	return batchLoss(w, sequences(logs, f.maxSeqLen)), nil
}

// Defaults returns the FSRS-6 default parameter vector.
func Defaults() meld.ParameterVector {
	w := defaultWeights
	return meld.ParameterVector(w[:])
}
