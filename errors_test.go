package meld

import (
	"errors"
	"fmt"
	"testing"
)

func TestSentinelErrors(t *testing.T) {
	sentinels := []error{
		ErrInsufficientData,
		ErrOptimizeTimeout,
		ErrHostUnavailable,
	}
	for _, err := range sentinels {
		if err == nil {
			t.Error("sentinel error is nil")
		}
	}
}

func TestSentinelErrorsIsCheck(t *testing.T) {
	// Wrapping with fmt.Errorf %w preserves errors.Is chain.
	wrapped := fmt.Errorf("deck %q: %w", "Tiny", ErrInsufficientData)
	if !errors.Is(wrapped, ErrInsufficientData) {
		t.Error("errors.Is(wrapped, ErrInsufficientData) = false, want true")
	}
	if errors.Is(wrapped, ErrOptimizeTimeout) {
		t.Error("errors.Is(wrapped, ErrOptimizeTimeout) = true, want false")
	}
}

func TestSentinelErrorPrefix(t *testing.T) {
	for _, err := range []error{ErrInsufficientData, ErrOptimizeTimeout, ErrHostUnavailable} {
		const prefix = "meld: "
		msg := err.Error()
		if len(msg) < len(prefix) || msg[:len(prefix)] != prefix {
			t.Errorf("%v should start with %q, got %q", err, prefix, msg)
		}
	}
}
