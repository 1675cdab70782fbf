package ankihost

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/sky-flux/meld"
)

// hierarchySep separates deck name components in the modern schema;
// the legacy schema and all meld output use "::".
const hierarchySep = "\x1f"

// Collection is a read-only handle on an Anki collection database.
// It implements meld.HistorySource.
type Collection struct {
	db *sql.DB
}

var _ meld.HistorySource = (*Collection)(nil)

// Open opens the collection file read-only. The file must exist; meld
// never creates or migrates host databases.
func Open(path string) (*Collection, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("ankihost: collection %q: %w", path, err)
	}
	db, err := sql.Open("sqlite3", "file:"+path+"?mode=ro&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ankihost: open collection: %w", err)
	}
	return &Collection{db: db}, nil
}

// Close closes the database connection.
func (c *Collection) Close() error {
	if c.db != nil {
		return c.db.Close()
	}
	return nil
}

// Decks returns a snapshot of all decks with their card IDs, ordered
// by deck ID. Deck hierarchy separators are normalized to "::".
func (c *Collection) Decks(ctx context.Context) ([]meld.Deck, error) {
	decks, err := c.deckEntries(ctx)
	if err != nil {
		return nil, err
	}

	for i := range decks {
		cards, err := c.cardIDs(ctx, decks[i].ID)
		if err != nil {
			return nil, err
		}
		decks[i].Cards = cards
	}
	return decks, nil
}

// deckEntries reads id/name pairs from the decks table (modern
// schema), falling back to the col row's decks JSON (legacy schema).
func (c *Collection) deckEntries(ctx context.Context) ([]meld.Deck, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id, name FROM decks ORDER BY id`)
	if err != nil {
		return c.legacyDeckEntries(ctx)
	}
	defer rows.Close()

	var decks []meld.Deck
	for rows.Next() {
		var d meld.Deck
		if err := rows.Scan(&d.ID, &d.Name); err != nil {
			return nil, fmt.Errorf("ankihost: scan deck: %w", err)
		}
		d.Name = strings.ReplaceAll(d.Name, hierarchySep, "::")
		decks = append(decks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ankihost: read decks: %w", err)
	}
	return decks, nil
}

func (c *Collection) legacyDeckEntries(ctx context.Context) ([]meld.Deck, error) {
	var raw string
	err := c.db.QueryRowContext(ctx, `SELECT decks FROM col`).Scan(&raw)
	if err != nil {
		return nil, fmt.Errorf("ankihost: read col decks: %w", err)
	}

	var entries map[string]struct {
		Name string `json:"name"`
	}
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, fmt.Errorf("ankihost: decode col decks: %w", err)
	}

	decks := make([]meld.Deck, 0, len(entries))
	for id, entry := range entries {
		deckID, err := strconv.ParseInt(id, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("ankihost: deck id %q: %w", id, err)
		}
		decks = append(decks, meld.Deck{ID: deckID, Name: entry.Name})
	}
	sort.Slice(decks, func(i, j int) bool { return decks[i].ID < decks[j].ID })
	return decks, nil
}

func (c *Collection) cardIDs(ctx context.Context, deckID int64) ([]int64, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT id FROM cards WHERE did = ? ORDER BY id`, deckID)
	if err != nil {
		return nil, fmt.Errorf("ankihost: cards for deck %d: %w", deckID, err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("ankihost: scan card: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ReviewLogs returns the chronological review history of the deck's
// cards. Suspended cards are excluded, matching the host's own
// optimization scope. Only genuine answer events (ease 1..4) are
// returned; manual reschedules carry ease 0 and are skipped.
func (c *Collection) ReviewLogs(ctx context.Context, deckID int64) ([]meld.ReviewLog, error) {
	rows, err := c.db.QueryContext(ctx, `
		SELECT r.id, r.cid, r.ease, r.lastIvl
		FROM revlog r
		JOIN cards c ON r.cid = c.id
		WHERE c.did = ? AND c.queue != -1 AND r.ease BETWEEN 1 AND 4
		ORDER BY r.id`, deckID)
	if err != nil {
		return nil, fmt.Errorf("ankihost: revlog for deck %d: %w", deckID, err)
	}
	defer rows.Close()

	var logs []meld.ReviewLog
	for rows.Next() {
		var (
			id, cid int64
			ease    int
			lastIvl int64
		)
		if err := rows.Scan(&id, &cid, &ease, &lastIvl); err != nil {
			return nil, fmt.Errorf("ankihost: scan revlog: %w", err)
		}
		logs = append(logs, meld.ReviewLog{
			CardID:     cid,
			Rating:     meld.Rating(ease),
			ReviewedAt: time.UnixMilli(id),
			Elapsed:    elapsedInterval(lastIvl),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ankihost: read revlog: %w", err)
	}
	return logs, nil
}

// elapsedInterval decodes revlog.lastIvl: negative values are seconds,
// positive values are days.
func elapsedInterval(lastIvl int64) time.Duration {
	if lastIvl < 0 {
		return time.Duration(-lastIvl) * time.Second
	}
	return time.Duration(lastIvl) * 24 * time.Hour
}

// LeafDecks filters a deck snapshot down to leaf decks: any deck that
// is an ancestor of another deck in the slice is dropped. Review logs
// of a parent's own cards stay reachable through the parent only when
// it has no children, which is what per-deck fitting wants.
func LeafDecks(decks []meld.Deck) []meld.Deck {
	ancestors := make(map[string]bool)
	for _, d := range decks {
		parts := strings.Split(d.Name, "::")
		for i := 1; i < len(parts); i++ {
			ancestors[strings.Join(parts[:i], "::")] = true
		}
	}

	var leaves []meld.Deck
	for _, d := range decks {
		if !ancestors[d.Name] {
			leaves = append(leaves, d)
		}
	}
	return leaves
}
