package ankihost

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sky-flux/meld"
)

// PresetScope is a meld.PresetGuard over a legacy-schema collection.
// Acquire snapshots the col row's decks and dconf JSON, points the
// deck at a scratch clone of its preset, and hands back a restore that
// writes the snapshot back verbatim. One acquisition at a time: the
// preset structure is a single shared document, so concurrent scopes
// would clobber each other's snapshots.
type PresetScope struct {
	db *sql.DB
	mu sync.Mutex
}

var _ meld.PresetGuard = (*PresetScope)(nil)

// NewPresetScope opens the collection read-write for preset isolation.
func NewPresetScope(path string) (*PresetScope, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("ankihost: collection %q: %w", path, err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ankihost: open collection: %w", err)
	}
	return &PresetScope{db: db}, nil
}

// Close closes the database connection.
func (p *PresetScope) Close() error {
	if p.db != nil {
		return p.db.Close()
	}
	return nil
}

// Acquire isolates the deck's preset. The returned restore must be
// called exactly once; it puts the original decks and dconf documents
// back even if the optimizer failed in between.
func (p *PresetScope) Acquire(ctx context.Context, deckID int64) (func() error, error) {
	p.mu.Lock()

	restore, err := p.isolate(ctx, deckID)
	if err != nil {
		p.mu.Unlock()
		return nil, err
	}
	return func() error {
		defer p.mu.Unlock()
		return restore()
	}, nil
}

func (p *PresetScope) isolate(ctx context.Context, deckID int64) (func() error, error) {
	var origDecks, origDconf string
	err := p.db.QueryRowContext(ctx, `SELECT decks, dconf FROM col`).Scan(&origDecks, &origDconf)
	if err != nil {
		return nil, fmt.Errorf("ankihost: read col: %w", err)
	}

	var decks map[string]map[string]any
	if err := json.Unmarshal([]byte(origDecks), &decks); err != nil {
		return nil, fmt.Errorf("ankihost: decode col decks: %w", err)
	}
	var dconf map[string]map[string]any
	if err := json.Unmarshal([]byte(origDconf), &dconf); err != nil {
		return nil, fmt.Errorf("ankihost: decode col dconf: %w", err)
	}

	deckKey := fmt.Sprintf("%d", deckID)
	deck, ok := decks[deckKey]
	if !ok {
		return nil, fmt.Errorf("ankihost: deck %d not in collection", deckID)
	}
	confID, ok := deck["conf"].(float64)
	if !ok {
		return nil, fmt.Errorf("ankihost: deck %d has no preset assignment", deckID)
	}
	confKey := fmt.Sprintf("%d", int64(confID))
	conf, ok := dconf[confKey]
	if !ok {
		return nil, fmt.Errorf("ankihost: preset %s not in collection", confKey)
	}

	// Clone the preset under a fresh ID and point the deck at it.
	scratchID := int64(1)
	for key := range dconf {
		var id int64
		if _, err := fmt.Sscanf(key, "%d", &id); err == nil && id >= scratchID {
			scratchID = id + 1
		}
	}
	scratch := make(map[string]any, len(conf)+1)
	for k, v := range conf {
		scratch[k] = v
	}
	scratch["id"] = scratchID
	if name, ok := conf["name"].(string); ok {
		scratch["name"] = name + " (scratch)"
	}
	dconf[fmt.Sprintf("%d", scratchID)] = scratch
	deck["conf"] = scratchID

	if err := p.writeCol(ctx, decks, dconf); err != nil {
		return nil, err
	}

	return func() error {
		// Restore the snapshot verbatim, whatever the optimizer did.
		_, err := p.db.Exec(`UPDATE col SET decks = ?, dconf = ?`, origDecks, origDconf)
		if err != nil {
			return fmt.Errorf("ankihost: restore col: %w", err)
		}
		return nil
	}, nil
}

func (p *PresetScope) writeCol(ctx context.Context, decks, dconf map[string]map[string]any) error {
	decksJSON, err := json.Marshal(decks)
	if err != nil {
		return fmt.Errorf("ankihost: encode col decks: %w", err)
	}
	dconfJSON, err := json.Marshal(dconf)
	if err != nil {
		return fmt.Errorf("ankihost: encode col dconf: %w", err)
	}
	if _, err := p.db.ExecContext(ctx, `UPDATE col SET decks = ?, dconf = ?`,
		string(decksJSON), string(dconfJSON)); err != nil {
		return fmt.Errorf("ankihost: write col: %w", err)
	}
	return nil
}
