package meld

import "errors"

// Sentinel errors for the meld package.
// Use errors.Is to check: errors.Is(err, meld.ErrInsufficientData)
var (
	ErrInsufficientData = errors.New("meld: insufficient review data to fit deck parameters")
	ErrOptimizeTimeout  = errors.New("meld: deck optimization timed out")
	ErrHostUnavailable  = errors.New("meld: host collection unavailable")
)
