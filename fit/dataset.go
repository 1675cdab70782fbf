package fit

import (
	"sort"

	"github.com/sky-flux/meld"
)

// sample is one review event prepared for training.
type sample struct {
	rating  meld.Rating
	elapsed float64 // days since the previous review; 0 for the first
	label   float64 // 0 if Again, 1 otherwise
}

// sequences groups review logs by card into chronological training
// sequences, truncated to maxSeqLen reviews per card. Elapsed days are
// recomputed from the timestamps so unordered input is handled.
func sequences(logs []meld.ReviewLog, maxSeqLen int) map[int64][]sample {
	if len(logs) == 0 {
		return nil
	}

	byCard := make(map[int64][]meld.ReviewLog)
	for _, l := range logs {
		byCard[l.CardID] = append(byCard[l.CardID], l)
	}

	out := make(map[int64][]sample, len(byCard))
	for cardID, cardLogs := range byCard {
		sort.Slice(cardLogs, func(i, j int) bool {
			return cardLogs[i].ReviewedAt.Before(cardLogs[j].ReviewedAt)
		})
		if len(cardLogs) > maxSeqLen {
			cardLogs = cardLogs[:maxSeqLen]
		}

		seq := make([]sample, len(cardLogs))
		for i, l := range cardLogs {
			var elapsed float64
			if i > 0 {
				elapsed = l.ReviewedAt.Sub(cardLogs[i-1].ReviewedAt).Hours() / 24
			}
			label := 1.0
			if l.Rating == meld.Again {
				label = 0
			}
			seq[i] = sample{rating: l.Rating, elapsed: elapsed, label: label}
		}
		out[cardID] = seq
	}
	return out
}

// countCrossDay counts reviews with at least one day elapsed since the
// previous review. First reviews never count.
func countCrossDay(seqs map[int64][]sample) int {
	n := 0
	for _, seq := range seqs {
		for _, s := range seq {
			if s.elapsed >= 1 {
				n++
			}
		}
	}
	return n
}

// sortedCardIDs returns the card IDs in ascending order, for a
// deterministic shuffle base.
func sortedCardIDs(seqs map[int64][]sample) []int64 {
	ids := make([]int64, 0, len(seqs))
	for id := range seqs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}
