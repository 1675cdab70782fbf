package main

import (
	"fmt"
	"strings"

	"github.com/sky-flux/meld"
)

// renderReport formats the report as an aligned text table: one row
// per deck with its nearest neighbor, then the unavailable decks.
func renderReport(r *meld.Report) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Merge candidates at distance <= %.4f", r.Threshold)
	if r.Degraded {
		b.WriteString("  (degraded: euclidean fallback)")
	}
	b.WriteString("\n\n")

	if len(r.Decks) == 0 {
		b.WriteString("No decks with fitted parameters.\n")
	} else {
		nameW := len("Deck")
		nearW := len("Nearest")
		for _, d := range r.Decks {
			nameW = max(nameW, len(d.Deck.Name))
			if len(d.Neighbors) > 0 {
				nearW = max(nearW, len(d.Neighbors[0].Name))
			}
		}

		fmt.Fprintf(&b, "%-*s  %-*s  %9s  %s\n", nameW, "Deck", nearW, "Nearest", "Distance", "Merge?")
		for _, d := range r.Decks {
			if len(d.Neighbors) == 0 {
				fmt.Fprintf(&b, "%-*s  %-*s  %9s  %s\n", nameW, d.Deck.Name, nearW, "-", "-", "-")
				continue
			}
			n := d.Neighbors[0]
			merge := "no"
			if n.MergeCandidate {
				merge = "yes"
			}
			fmt.Fprintf(&b, "%-*s  %-*s  %9.4f  %s\n", nameW, d.Deck.Name, nearW, n.Name, n.Distance, merge)
		}
	}

	if len(r.Unavailable) > 0 {
		b.WriteString("\nUnavailable:\n")
		for _, u := range r.Unavailable {
			fmt.Fprintf(&b, "  %s: %s\n", u.Deck.Name, u.Reason)
		}
	}
	return b.String()
}
