package fit

import "math"

// adam implements the Adam update rule with bias correction:
//
//	m[i] = β1·m[i] + (1-β1)·g[i]
//	v[i] = β2·v[i] + (1-β2)·g[i]²
//	m̂[i] = m[i] / (1 - β1^t)
//	v̂[i] = v[i] / (1 - β2^t)
//	w[i] = w[i] - lr · m̂[i] / (√v̂[i] + ε)
//
// with standard constants β1=0.9, β2=0.999, ε=1e-8.
type adam struct {
	m, v [Dim]float64
	step int
}

const (
	adamBeta1 = 0.9
	adamBeta2 = 0.999
	adamEps   = 1e-8
)

// update applies one Adam step at the given learning rate and returns
// the updated weights. Zero-gradient coordinates are left untouched.
func (a *adam) update(w, g [Dim]float64, lr float64) [Dim]float64 {
	a.step++
	mCorr := 1 - math.Pow(adamBeta1, float64(a.step))
	vCorr := 1 - math.Pow(adamBeta2, float64(a.step))

	for i := 0; i < Dim; i++ {
		if g[i] == 0 {
			continue
		}
		a.m[i] = adamBeta1*a.m[i] + (1-adamBeta1)*g[i]
		a.v[i] = adamBeta2*a.v[i] + (1-adamBeta2)*g[i]*g[i]
		w[i] -= lr * (a.m[i] / mCorr) / (math.Sqrt(a.v[i]/vCorr) + adamEps)
	}
	return w
}

// cosineSchedule anneals the learning rate over tMax steps:
//
//	lr_t = 0.5 * lr_max * (1 + cos(π * t / T_max))
type cosineSchedule struct {
	lrMax float64
	tMax  int
	t     int
}

// lr returns the learning rate for the current step.
func (cs *cosineSchedule) lr() float64 {
	return 0.5 * cs.lrMax * (1 + math.Cos(math.Pi*float64(cs.t)/float64(cs.tMax)))
}

// advance moves the schedule forward one step.
func (cs *cosineSchedule) advance() {
	cs.t++
}
