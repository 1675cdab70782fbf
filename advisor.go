package meld

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sky-flux/meld/mahala"
)

// HistorySource provides read-only access to the host's decks and
// review history.
type HistorySource interface {
	// Decks returns a snapshot of the decks to analyze.
	Decks(ctx context.Context) ([]Deck, error)
	// ReviewLogs returns the review history of every card in the deck.
	ReviewLogs(ctx context.Context, deckID int64) ([]ReviewLog, error)
}

// Optimizer fits a parameter vector to one deck's review history.
type Optimizer interface {
	Optimize(ctx context.Context, logs []ReviewLog) (ParameterVector, error)
}

// PresetGuard isolates a deck's scheduling preset for the duration of
// an optimizer call. Acquire snapshots and mutates host state as the
// host requires; the returned restore puts the original state back and
// is invoked on every exit path, including optimizer failure.
type PresetGuard interface {
	Acquire(ctx context.Context, deckID int64) (restore func() error, err error)
}

// NopGuard is the PresetGuard for optimizers that are pure functions
// of the review history and never touch host preset state. With a
// NopGuard the Advisor may optimize decks concurrently.
type NopGuard struct{}

// Acquire implements PresetGuard with no side effects.
func (NopGuard) Acquire(context.Context, int64) (func() error, error) {
	return func() error { return nil }, nil
}

// Defaults applied by NewAdvisor for zero-valued Config fields.
const (
	DefaultThreshold       = 2.5
	DefaultOptimizeTimeout = 10 * time.Minute
)

// Config configures an Advisor.
// Zero values produce sensible defaults; see field comments.
type Config struct {
	Threshold       float64       // merge-candidate cutoff, inclusive; zero → DefaultThreshold
	OptimizeTimeout time.Duration // per-deck optimizer budget; zero → DefaultOptimizeTimeout
	Workers         int           // bounded optimize parallelism; zero → 1
	Ridge           float64       // covariance regularization; zero → mahala.DefaultRidge
	Logger          *slog.Logger  // nil → slog.Default()
}

// Advisor runs the deck-merge analysis pipeline: snapshot decks, fit a
// parameter vector per deck, compute pairwise distances within each
// dimension group, and build a Report.
type Advisor struct {
	source HistorySource
	opt    Optimizer
	guard  PresetGuard
	cfg    Config
	log    *slog.Logger

	mu    sync.Mutex
	state RunState
}

// NewAdvisor creates an Advisor. A nil guard selects NopGuard. Invalid
// config values return an error.
func NewAdvisor(source HistorySource, opt Optimizer, guard PresetGuard, cfg Config) (*Advisor, error) {
	if source == nil {
		return nil, errors.New("meld: nil HistorySource")
	}
	if opt == nil {
		return nil, errors.New("meld: nil Optimizer")
	}
	if guard == nil {
		guard = NopGuard{}
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Threshold < 0 {
		return nil, fmt.Errorf("meld: threshold %f must be positive", cfg.Threshold)
	}
	if cfg.OptimizeTimeout == 0 {
		cfg.OptimizeTimeout = DefaultOptimizeTimeout
	}
	if cfg.OptimizeTimeout < 0 {
		return nil, fmt.Errorf("meld: optimize timeout %s must be positive", cfg.OptimizeTimeout)
	}
	if cfg.Workers == 0 {
		cfg.Workers = 1
	}
	if cfg.Workers < 0 {
		return nil, fmt.Errorf("meld: workers %d must be positive", cfg.Workers)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	return &Advisor{
		source: source,
		opt:    opt,
		guard:  guard,
		cfg:    cfg,
		log:    cfg.Logger,
	}, nil
}

// State returns the current pipeline state. Zero before the first Run.
func (a *Advisor) State() RunState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

func (a *Advisor) setState(s RunState) {
	a.mu.Lock()
	a.state = s
	a.mu.Unlock()
}

// fitted pairs a deck snapshot with its fitted parameter vector.
type fitted struct {
	deck   Deck
	params ParameterVector
}

// Run executes the full pipeline and returns the report.
//
// Per-deck optimization failures (too little data, per-deck timeout)
// do not abort the run; the affected decks appear in
// Report.Unavailable. Host access failures and context cancellation
// abort the run with the advisor in StateFailed.
func (a *Advisor) Run(ctx context.Context) (*Report, error) {
	a.setState(StateCollecting)
	decks, err := a.source.Decks(ctx)
	if err != nil {
		a.setState(StateFailed)
		return nil, fmt.Errorf("%w: %v", ErrHostUnavailable, err)
	}
	a.log.Info("collected deck snapshot", "decks", len(decks))

	a.setState(StateOptimizing)
	ok, unavailable, err := a.optimizeAll(ctx, decks)
	if err != nil {
		a.setState(StateFailed)
		return nil, err
	}

	a.setState(StateComparing)
	if err := ctx.Err(); err != nil {
		a.setState(StateFailed)
		return nil, err
	}
	results, neighbors, degraded, err := a.compare(ok)
	if err != nil {
		a.setState(StateFailed)
		return nil, err
	}

	a.setState(StateReporting)
	report := buildReport(a.cfg.Threshold, ok, neighbors, unavailable, results, degraded)

	a.setState(StateDone)
	a.log.Info("run complete",
		"decks", len(report.Decks),
		"unavailable", len(report.Unavailable),
		"degraded", report.Degraded)
	return report, nil
}

// optimizeAll fits every deck with a bounded worker pool. When the
// guard mutates host preset state (anything but NopGuard), fitting is
// strictly serialized regardless of Config.Workers: concurrent
// mutation of a shared preset structure is not safe.
func (a *Advisor) optimizeAll(ctx context.Context, decks []Deck) ([]fitted, []UnavailableDeck, error) {
	workers := a.cfg.Workers
	if _, pure := a.guard.(NopGuard); !pure {
		workers = 1
	}
	if workers > len(decks) {
		workers = len(decks)
	}
	if workers < 1 {
		workers = 1
	}

	type outcome struct {
		idx    int
		params ParameterVector
		err    error
	}

	jobs := make(chan int)
	outcomes := make(chan outcome, len(decks))
	var wg sync.WaitGroup

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				params, err := a.optimizeDeck(ctx, decks[idx])
				outcomes <- outcome{idx: idx, params: params, err: err}
			}
		}()
	}

feed:
	for i := range decks {
		// Cancellation is coarse-grained: between decks.
		select {
		case <-ctx.Done():
			break feed
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()
	close(outcomes)

	fittedByIdx := make(map[int]ParameterVector, len(decks))
	errByIdx := make(map[int]error, len(decks))
	for o := range outcomes {
		if o.err != nil {
			errByIdx[o.idx] = o.err
		} else {
			fittedByIdx[o.idx] = o.params
		}
	}

	// Host failures and cancellation are fatal; data failures are not.
	for _, err := range errByIdx {
		if errors.Is(err, ErrHostUnavailable) {
			return nil, nil, err
		}
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var ok []fitted
	var unavailable []UnavailableDeck
	for i, deck := range decks {
		if params, found := fittedByIdx[i]; found {
			ok = append(ok, fitted{deck: deck, params: params})
			continue
		}
		err := errByIdx[i]
		a.log.Warn("deck unavailable", "deck", deck.Name, "err", err)
		unavailable = append(unavailable, UnavailableDeck{Deck: deck, Reason: err.Error(), err: err})
	}
	return ok, unavailable, nil
}

// optimizeDeck fits one deck under the preset guard and the per-deck
// timeout. The guard's restore runs on every exit path; a restore
// failure outranks the optimizer result because it leaves host state
// dirty.
func (a *Advisor) optimizeDeck(ctx context.Context, deck Deck) (ParameterVector, error) {
	logs, err := a.source.ReviewLogs(ctx, deck.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: review logs for deck %q: %v", ErrHostUnavailable, deck.Name, err)
	}

	restore, err := a.guard.Acquire(ctx, deck.ID)
	if err != nil {
		return nil, fmt.Errorf("%w: preset guard for deck %q: %v", ErrHostUnavailable, deck.Name, err)
	}

	octx, cancel := context.WithTimeout(ctx, a.cfg.OptimizeTimeout)
	params, optErr := a.opt.Optimize(octx, logs)
	cancel()

	if rerr := restore(); rerr != nil {
		return nil, fmt.Errorf("%w: restoring preset for deck %q: %v", ErrHostUnavailable, deck.Name, rerr)
	}

	switch {
	case optErr == nil:
		return params, nil
	case errors.Is(optErr, context.DeadlineExceeded) && ctx.Err() == nil:
		return nil, fmt.Errorf("%w: deck %q after %s", ErrOptimizeTimeout, deck.Name, a.cfg.OptimizeTimeout)
	default:
		return nil, optErr
	}
}

// compare computes pairwise distances once per unordered pair, within
// groups of identical parameter dimension. It returns the raw distance
// results, per-deck neighbor lists keyed by deck ID, and whether any
// group's covariance model degraded to Euclidean.
func (a *Advisor) compare(decks []fitted) ([]DistanceResult, map[int64][]Neighbor, bool, error) {
	groups := make(map[int][]fitted)
	for _, f := range decks {
		groups[f.params.Dim()] = append(groups[f.params.Dim()], f)
	}

	var results []DistanceResult
	neighbors := make(map[int64][]Neighbor, len(decks))
	degraded := false

	for dim, group := range groups {
		if len(group) < 2 {
			continue
		}

		rows := make([][]float64, len(group))
		for i, f := range group {
			rows[i] = f.params
		}
		model, err := mahala.NewModel(rows, a.cfg.Ridge)
		if err != nil {
			return nil, nil, false, err
		}
		if model.Degraded() {
			a.log.Warn("covariance unavailable, falling back to euclidean distance", "dim", dim)
			degraded = true
		}

		for i := 0; i < len(group); i++ {
			for j := i + 1; j < len(group); j++ {
				d, err := model.Distance(group[i].params, group[j].params)
				if err != nil {
					// Dimension mismatch inside a group is a grouping bug.
					return nil, nil, false, err
				}
				results = append(results, DistanceResult{
					A:        group[i].deck.ID,
					B:        group[j].deck.ID,
					Distance: d,
				})
				neighbors[group[i].deck.ID] = append(neighbors[group[i].deck.ID], Neighbor{
					DeckID:         group[j].deck.ID,
					Name:           group[j].deck.Name,
					Distance:       d,
					MergeCandidate: d <= a.cfg.Threshold,
				})
				neighbors[group[j].deck.ID] = append(neighbors[group[j].deck.ID], Neighbor{
					DeckID:         group[i].deck.ID,
					Name:           group[i].deck.Name,
					Distance:       d,
					MergeCandidate: d <= a.cfg.Threshold,
				})
			}
		}
	}

	for id := range neighbors {
		ns := neighbors[id]
		sort.Slice(ns, func(i, j int) bool {
			if ns[i].Distance != ns[j].Distance {
				return ns[i].Distance < ns[j].Distance
			}
			return strings.ToLower(ns[i].Name) < strings.ToLower(ns[j].Name)
		})
	}
	return results, neighbors, degraded, nil
}
