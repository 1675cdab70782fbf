package fit

import (
	"context"
	"errors"
	"math/rand"
	"testing"
	"time"

	"github.com/sky-flux/meld"
)

func TestNewDefaults(t *testing.T) {
	f := New(Config{})
	if f.epochs != 5 {
		t.Errorf("epochs = %d, want 5", f.epochs)
	}
	if f.miniBatchSize != 512 {
		t.Errorf("miniBatchSize = %d, want 512", f.miniBatchSize)
	}
	if f.learningRate != 0.04 {
		t.Errorf("learningRate = %f, want 0.04", f.learningRate)
	}
	if f.maxSeqLen != 64 {
		t.Errorf("maxSeqLen = %d, want 64", f.maxSeqLen)
	}
	if f.minCrossDay != 512 {
		t.Errorf("minCrossDay = %d, want miniBatchSize 512", f.minCrossDay)
	}
}

func TestNewCustom(t *testing.T) {
	f := New(Config{Epochs: 2, MiniBatchSize: 64, LearningRate: 0.1, MaxSeqLen: 8, MinCrossDay: 16})
	if f.epochs != 2 || f.miniBatchSize != 64 || f.learningRate != 0.1 || f.maxSeqLen != 8 || f.minCrossDay != 16 {
		t.Errorf("config not applied: %+v", f)
	}
}

func TestOptimizeEmptyLogs(t *testing.T) {
	f := New(Config{})
	_, err := f.Optimize(context.Background(), nil)
	if !errors.Is(err, ErrNoReviews) {
		t.Errorf("error should wrap ErrNoReviews, got %v", err)
	}
	if !errors.Is(err, meld.ErrInsufficientData) {
		t.Errorf("error should wrap meld.ErrInsufficientData, got %v", err)
	}
}

func TestOptimizeTooFewReviews(t *testing.T) {
	// 3 reviews, 2 of them cross-day: far under the minimum.
	logs := []meld.ReviewLog{
		logAt(1, meld.Good, base),
		logAt(1, meld.Good, base.Add(24*time.Hour)),
		logAt(1, meld.Good, base.Add(72*time.Hour)),
	}
	f := New(Config{})
	_, err := f.Optimize(context.Background(), logs)
	if !errors.Is(err, ErrTooFewReviews) {
		t.Errorf("error should wrap ErrTooFewReviews, got %v", err)
	}
	if !errors.Is(err, meld.ErrInsufficientData) {
		t.Errorf("error should wrap meld.ErrInsufficientData, got %v", err)
	}
}

// trainingLogs builds a deterministic synthetic deck with daily review
// chains and occasional lapses.
func trainingLogs(numCards, reviewsPerCard int, seed int64) []meld.ReviewLog {
	rng := rand.New(rand.NewSource(seed))
	var logs []meld.ReviewLog
	for i := 0; i < numCards; i++ {
		cardID := int64(i + 1)
		now := base
		gap := 24 * time.Hour
		for j := 0; j < reviewsPerCard; j++ {
			rating := meld.Good
			switch p := rng.Float64(); {
			case p < 0.2:
				rating = meld.Again
			case p < 0.3:
				rating = meld.Hard
			case p > 0.92:
				rating = meld.Easy
			}
			logs = append(logs, meld.ReviewLog{CardID: cardID, Rating: rating, ReviewedAt: now})
			now = now.Add(gap)
			if rating == meld.Again {
				gap = 24 * time.Hour
			} else {
				gap *= 2
			}
		}
	}
	return logs
}

func TestOptimizeProducesValidVector(t *testing.T) {
	logs := trainingLogs(60, 8, 7)
	f := New(Config{Epochs: 2, MiniBatchSize: 32, MinCrossDay: 32})

	params, err := f.Optimize(context.Background(), logs)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}
	if params.Dim() != Dim {
		t.Fatalf("got %d weights, want %d", params.Dim(), Dim)
	}
	for i, w := range params {
		if w < lowerBounds[i] || w > upperBounds[i] {
			t.Errorf("w[%d] = %v, out of bounds [%v, %v]", i, w, lowerBounds[i], upperBounds[i])
		}
	}
}

func TestOptimizeDeterministic(t *testing.T) {
	logs := trainingLogs(60, 8, 11)
	f := New(Config{Epochs: 2, MiniBatchSize: 32, MinCrossDay: 32})

	first, err := f.Optimize(context.Background(), logs)
	if err != nil {
		t.Fatalf("first Optimize failed: %v", err)
	}
	second, err := f.Optimize(context.Background(), logs)
	if err != nil {
		t.Fatalf("second Optimize failed: %v", err)
	}
	if !first.Equal(second) {
		t.Error("identical logs produced different parameters")
	}
}

func TestOptimizeDoesNotIncreaseLoss(t *testing.T) {
	logs := trainingLogs(80, 8, 3)
	f := New(Config{Epochs: 3, MiniBatchSize: 32, MinCrossDay: 32})

	params, err := f.Optimize(context.Background(), logs)
	if err != nil {
		t.Fatalf("Optimize failed: %v", err)
	}

	before, err := f.Loss(Defaults(), logs)
	if err != nil {
		t.Fatalf("Loss failed: %v", err)
	}
	after, err := f.Loss(params, logs)
	if err != nil {
		t.Fatalf("Loss failed: %v", err)
	}
	// Best-epoch tracking guarantees the fit never ends worse than the
	// starting point by more than numeric noise.
	if after > before+1e-9 {
		t.Errorf("loss after fit = %v, before = %v; fit made things worse", after, before)
	}
}

func TestOptimizeCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	logs := trainingLogs(60, 8, 5)
	f := New(Config{Epochs: 2, MiniBatchSize: 32, MinCrossDay: 32})
	_, err := f.Optimize(ctx, logs)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}

func TestLossRejectsOtherDimensions(t *testing.T) {
	f := New(Config{})
	if _, err := f.Loss(make(meld.ParameterVector, 17), nil); err == nil {
		t.Error("Loss should reject non-FSRS-6 vectors")
	}
}

func TestDefaultsWithinBounds(t *testing.T) {
	d := Defaults()
	if d.Dim() != Dim {
		t.Fatalf("Defaults dim = %d, want %d", d.Dim(), Dim)
	}
	for i, w := range d {
		if w < lowerBounds[i] || w > upperBounds[i] {
			t.Errorf("default w[%d] = %v, out of bounds", i, w)
		}
	}
}

func TestDefaultsCopies(t *testing.T) {
	d := Defaults()
	d[0] = 99
	if Defaults()[0] == 99 {
		t.Error("Defaults aliases the package-level array")
	}
}
