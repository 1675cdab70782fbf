package fit

import (
	"math"

	"github.com/sky-flux/meld"
)

// model wraps an FSRS-6 weight vector with the derived forgetting
// curve constants.
type model struct {
	w      [Dim]float64
	decay  float64 // -w[20]
	factor float64 // 0.9^(1/decay) - 1
}

func newModel(w [Dim]float64) model {
	decay := -w[20]
	return model{w: w, decay: decay, factor: math.Pow(0.9, 1/decay) - 1}
}

// memory is the per-card memory state replayed during training.
// The zero value means "never reviewed".
type memory struct {
	stability  float64
	difficulty float64
	seen       bool
}

// retrievability computes R(t, S) = (1 + FACTOR * t / S) ^ DECAY.
func (m model) retrievability(elapsedDays, stability float64) float64 {
	return math.Pow(1+m.factor*elapsedDays/stability, m.decay)
}

// review applies one review to the memory state. elapsedDays is the
// time since the previous review; same-day reviews (< 1 day) use the
// short-term stability rule.
func (m model) review(st memory, r meld.Rating, elapsedDays float64) memory {
	if !st.seen {
		return memory{
			stability:  m.initialStability(r),
			difficulty: clampDifficulty(m.initialDifficulty(r)),
			seen:       true,
		}
	}

	var s float64
	switch {
	case elapsedDays < 1:
		s = m.shortTermStability(st.stability, r)
	case r == meld.Again:
		s = m.forgetStability(st.difficulty, st.stability,
			m.retrievability(elapsedDays, st.stability))
	default:
		s = m.recallStability(st.difficulty, st.stability,
			m.retrievability(elapsedDays, st.stability), r)
	}
	return memory{
		stability:  s,
		difficulty: m.nextDifficulty(st.difficulty, r),
		seen:       true,
	}
}

// initialStability returns S₀(G) = clamp_s(w[G-1]).
func (m model) initialStability(r meld.Rating) float64 {
	return clampStability(m.w[r-1])
}

// initialDifficulty returns the unclamped D₀(G) = w[4] - e^(w[5]*(G-1)) + 1.
func (m model) initialDifficulty(r meld.Rating) float64 {
	return m.w[4] - math.Exp(m.w[5]*float64(r-1)) + 1
}

// shortTermStability computes the same-day review stability.
// SInc = e^(w[17]*(G-3+w[18])) * S^(-w[19]); for Good/Easy SInc >= 1.
func (m model) shortTermStability(stability float64, r meld.Rating) float64 {
	sInc := math.Exp(m.w[17]*(float64(r)-3+m.w[18])) * math.Pow(stability, -m.w[19])
	if r == meld.Good || r == meld.Easy {
		sInc = math.Max(sInc, 1)
	}
	return clampStability(stability * sInc)
}

// recallStability computes stability after a successful cross-day
// recall (Hard/Good/Easy).
// S'_r = S * (1 + e^w[8] * (11-D) * S^(-w[9]) * (e^((1-R)*w[10]) - 1) * hardPenalty * easyBonus)
func (m model) recallStability(d, s, retr float64, r meld.Rating) float64 {
	hardPenalty := 1.0
	if r == meld.Hard {
		hardPenalty = m.w[15]
	}
	easyBonus := 1.0
	if r == meld.Easy {
		easyBonus = m.w[16]
	}
	return s * (1 + math.Exp(m.w[8])*
		(11-d)*
		math.Pow(s, -m.w[9])*
		(math.Exp((1-retr)*m.w[10])-1)*
		hardPenalty*easyBonus)
}

// forgetStability computes stability after a cross-day Again.
// S'_f = min(long, short)
// long = w[11] * D^(-w[12]) * ((S+1)^w[13] - 1) * e^((1-R)*w[14])
// short = S / e^(w[17] * w[18])
func (m model) forgetStability(d, s, retr float64) float64 {
	long := m.w[11] *
		math.Pow(d, -m.w[12]) *
		(math.Pow(s+1, m.w[13]) - 1) *
		math.Exp((1-retr)*m.w[14])
	short := s / math.Exp(m.w[17]*m.w[18])
	return math.Min(long, short)
}

// nextDifficulty computes the updated difficulty after a review:
// linear damping of ΔD = -w[6]*(G-3), then mean reversion toward
// the unclamped D₀(Easy) with weight w[7].
func (m model) nextDifficulty(difficulty float64, r meld.Rating) float64 {
	deltaD := -m.w[6] * (float64(r) - 3)
	damped := difficulty + (10-difficulty)*deltaD/9
	reverted := m.w[7]*m.initialDifficulty(meld.Easy) + (1-m.w[7])*damped
	return clampDifficulty(reverted)
}

func clampStability(s float64) float64 {
	return math.Max(s, 0.001)
}

func clampDifficulty(d float64) float64 {
	return math.Min(math.Max(d, 1), 10)
}
