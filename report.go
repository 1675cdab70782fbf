package meld

import (
	"math"
	"sort"
	"strings"
	"time"
)

// DistanceResult is the computed distance between one unordered deck
// pair. Distance is symmetric and self-distance is zero, so each pair
// is computed and stored exactly once.
type DistanceResult struct {
	A        int64   `json:"a"`
	B        int64   `json:"b"`
	Distance float64 `json:"distance"`
}

// Neighbor is another deck at a computed distance.
type Neighbor struct {
	DeckID         int64   `json:"deck_id"`
	Name           string  `json:"name"`
	Distance       float64 `json:"distance"`
	MergeCandidate bool    `json:"merge_candidate"`
}

// DeckReport is one deck's entry in the report: its fitted parameters
// and its neighbors in ascending distance order.
type DeckReport struct {
	Deck      Deck            `json:"deck"`
	Params    ParameterVector `json:"params"`
	Neighbors []Neighbor      `json:"neighbors,omitempty"`
}

// UnavailableDeck is a deck excluded from comparison because its
// parameters could not be fitted.
type UnavailableDeck struct {
	Deck   Deck   `json:"deck"`
	Reason string `json:"reason"`

	err error
}

// Err returns the underlying per-deck failure, for errors.Is checks
// against ErrInsufficientData or ErrOptimizeTimeout.
func (u UnavailableDeck) Err() error {
	return u.err
}

// Report is the display-ready result of an advisor run. It is a pure
// data structure for a presentation layer to render; building it has
// no side effects and is deterministic for identical inputs.
type Report struct {
	GeneratedAt time.Time         `json:"generated_at"`
	Threshold   float64           `json:"threshold"`
	Degraded    bool              `json:"degraded"` // Euclidean fallback was taken for some group
	Decks       []DeckReport      `json:"decks"`
	Unavailable []UnavailableDeck `json:"unavailable,omitempty"`

	results []DistanceResult
}

// buildReport assembles the report. Decks are ordered by
// case-insensitive name, matching host deck-list presentation.
func buildReport(threshold float64, decks []fitted, neighbors map[int64][]Neighbor,
	unavailable []UnavailableDeck, results []DistanceResult, degraded bool) *Report {

	entries := make([]DeckReport, 0, len(decks))
	for _, f := range decks {
		entries = append(entries, DeckReport{
			Deck:      f.deck,
			Params:    f.params.Clone(),
			Neighbors: neighbors[f.deck.ID],
		})
	}
	sort.Slice(entries, func(i, j int) bool {
		return strings.ToLower(entries[i].Deck.Name) < strings.ToLower(entries[j].Deck.Name)
	})
	sort.Slice(unavailable, func(i, j int) bool {
		return strings.ToLower(unavailable[i].Deck.Name) < strings.ToLower(unavailable[j].Deck.Name)
	})

	return &Report{
		GeneratedAt: time.Now(),
		Threshold:   threshold,
		Degraded:    degraded,
		Decks:       entries,
		Unavailable: unavailable,
		results:     results,
	}
}

// Results returns the raw pairwise distances, one entry per unordered
// deck pair that shares a parameter dimension.
func (r *Report) Results() []DistanceResult {
	out := make([]DistanceResult, len(r.results))
	copy(out, r.results)
	return out
}

// Candidates returns every unordered pair whose distance is at or
// under the threshold, ascending by distance.
func (r *Report) Candidates() []DistanceResult {
	var out []DistanceResult
	for _, res := range r.results {
		if res.Distance <= r.Threshold {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

// Matrix returns the full symmetric distance matrix over r.Decks, in
// report order. The diagonal is zero; cells across different parameter
// dimensions (and for that reason never compared) are NaN.
func (r *Report) Matrix() [][]float64 {
	index := make(map[int64]int, len(r.Decks))
	for i, d := range r.Decks {
		index[d.Deck.ID] = i
	}

	m := make([][]float64, len(r.Decks))
	for i := range m {
		m[i] = make([]float64, len(r.Decks))
		for j := range m[i] {
			if i == j {
				m[i][j] = 0
			} else {
				m[i][j] = math.NaN()
			}
		}
	}
	for _, res := range r.results {
		i, okA := index[res.A]
		j, okB := index[res.B]
		if !okA || !okB {
			continue
		}
		m[i][j] = res.Distance
		m[j][i] = res.Distance
	}
	return m
}
