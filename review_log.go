package meld

import "time"

// ReviewLog records a single review event for a card. It is read-only
// input owned by the host; meld never mutates review history.
type ReviewLog struct {
	CardID     int64
	Rating     Rating
	ReviewedAt time.Time
	Elapsed    time.Duration // since the previous review of the card; 0 for the first
}
