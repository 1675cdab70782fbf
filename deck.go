package meld

// Deck identifies a deck and the cards it contained when the snapshot
// was taken. A snapshot is immutable for the duration of a run.
type Deck struct {
	ID    int64   `json:"id"`
	Name  string  `json:"name"`
	Cards []int64 `json:"cards,omitempty"`
}
