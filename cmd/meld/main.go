// Command meld analyzes an Anki collection and reports which decks
// have close enough fitted FSRS parameters to share one scheduling
// preset.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"time"

	"github.com/sky-flux/meld"
	"github.com/sky-flux/meld/ankihost"
	"github.com/sky-flux/meld/fit"
)

func main() {
	var (
		configPath = flag.String("config", "meld.yaml", "config file path")
		collection = flag.String("collection", "", "Anki collection file (collection.anki2)")
		threshold  = flag.Float64("threshold", 0, "merge-candidate distance cutoff, inclusive")
		workers    = flag.Int("workers", 0, "concurrent deck optimizations")
		timeout    = flag.Duration("timeout", 0, "per-deck optimization budget")
		allDecks   = flag.Bool("all-decks", false, "include parent decks, not only leaves")
		asJSON     = flag.Bool("json", false, "emit the report as JSON")
	)
	flag.Parse()

	explicit := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			explicit = true
		}
	})

	cfg, err := loadConfig(*configPath, explicit)
	if err != nil {
		fmt.Fprintln(os.Stderr, "meld:", err)
		os.Exit(1)
	}

	// Flags win over file and env.
	if *collection != "" {
		cfg.Collection = *collection
	}
	if *threshold != 0 {
		cfg.Threshold = *threshold
	}
	if *workers != 0 {
		cfg.Workers = *workers
	}
	if *timeout != 0 {
		cfg.Timeout = duration(*timeout)
	}
	if *allDecks {
		cfg.LeafOnly = false
	}

	if cfg.Collection == "" {
		fmt.Fprintln(os.Stderr, "meld: no collection file given (flag -collection, config, or MELD_COLLECTION)")
		os.Exit(2)
	}

	logger := newLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	report, err := run(ctx, cfg, logger)
	if err != nil {
		logger.Error("run failed", "err", err)
		os.Exit(1)
	}

	if *asJSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(report); err != nil {
			logger.Error("encode report", "err", err)
			os.Exit(1)
		}
		return
	}
	fmt.Print(renderReport(report))
}

func run(ctx context.Context, cfg config, logger *slog.Logger) (*meld.Report, error) {
	col, err := ankihost.Open(cfg.Collection)
	if err != nil {
		return nil, err
	}
	defer col.Close()

	var source meld.HistorySource = col
	if cfg.LeafOnly {
		source = leafSource{col}
	}

	fitter := fit.New(fit.Config{
		Epochs:        cfg.Fit.Epochs,
		MiniBatchSize: cfg.Fit.MiniBatchSize,
		LearningRate:  cfg.Fit.LearningRate,
		MinCrossDay:   cfg.Fit.MinCrossDay,
	})

	// The native fitter never touches preset state, so no guard is
	// needed and decks may fit in parallel.
	adv, err := meld.NewAdvisor(source, fitter, nil, meld.Config{
		Threshold:       cfg.Threshold,
		OptimizeTimeout: time.Duration(cfg.Timeout),
		Workers:         cfg.Workers,
		Logger:          logger,
	})
	if err != nil {
		return nil, err
	}

	start := time.Now()
	report, err := adv.Run(ctx)
	if err != nil {
		return nil, err
	}
	logger.Info("analysis finished", "elapsed", time.Since(start).Round(time.Millisecond))
	return report, nil
}

// leafSource narrows a collection's deck snapshot to leaf decks.
type leafSource struct {
	*ankihost.Collection
}

func (s leafSource) Decks(ctx context.Context) ([]meld.Deck, error) {
	decks, err := s.Collection.Decks(ctx)
	if err != nil {
		return nil, err
	}
	return ankihost.LeafDecks(decks), nil
}

func newLogger(level string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
