package meld

// ParameterVector is an ordered FSRS weight vector fitted to one
// deck's review history. Released optimizer versions produce 17
// (FSRS-4.5), 19 (FSRS-5) or 21 (FSRS-6) weights; vectors are only
// ever compared against vectors of the same length.
type ParameterVector []float64

// Dim returns the number of weights.
func (p ParameterVector) Dim() int {
	return len(p)
}

// Known reports whether the vector length matches a released FSRS
// parameter count.
func (p ParameterVector) Known() bool {
	switch len(p) {
	case 17, 19, 21:
		return true
	}
	return false
}

// Clone returns an independent copy of the vector.
func (p ParameterVector) Clone() ParameterVector {
	if p == nil {
		return nil
	}
	out := make(ParameterVector, len(p))
	copy(out, p)
	return out
}

// Equal reports whether p and q have identical length and weights.
func (p ParameterVector) Equal(q ParameterVector) bool {
	if len(p) != len(q) {
		return false
	}
	for i := range p {
		if p[i] != q[i] {
			return false
		}
	}
	return true
}
