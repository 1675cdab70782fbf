package fit

import "math"

const (
	bceClamp = 1e-7
	gradEps  = 1e-5
)

// bceLoss computes binary cross-entropy -[y*ln(p) + (1-y)*ln(1-p)],
// with the prediction clamped away from 0 and 1 to avoid log(0).
func bceLoss(pred, y float64) float64 {
	p := math.Max(bceClamp, math.Min(pred, 1-bceClamp))
	return -(y*math.Log(p) + (1-y)*math.Log(1-p))
}

// batchLoss computes the average BCE loss over all cross-day reviews
// in seqs, replaying each card's history through the FSRS-6 memory
// model under the given weights. Returns 0 when there are no
// cross-day reviews.
func batchLoss(w [Dim]float64, seqs map[int64][]sample) float64 {
	m := newModel(w)

	var total float64
	var count int
	for _, seq := range seqs {
		var st memory
		for _, rev := range seq {
			if st.seen && rev.elapsed >= 1 {
				total += bceLoss(m.retrievability(rev.elapsed, st.stability), rev.label)
				count++
			}
			st = m.review(st, rev.rating, rev.elapsed)
		}
	}

	if count == 0 {
		return 0
	}
	return total / float64(count)
}

// gradient computes dL/dw via central differences:
// (L(w[i]+ε) - L(w[i]-ε)) / (2ε).
func gradient(w [Dim]float64, seqs map[int64][]sample) [Dim]float64 {
	var g [Dim]float64
	for i := 0; i < Dim; i++ {
		plus, minus := w, w
		plus[i] += gradEps
		minus[i] -= gradEps
		g[i] = (batchLoss(plus, seqs) - batchLoss(minus, seqs)) / (2 * gradEps)
	}
	return g
}
