package meld

import "fmt"

// RunState tracks the pipeline stage of an advisor run.
type RunState int

const (
	StateCollecting RunState = iota + 1 // Taking deck snapshots from the host.
	StateOptimizing                     // Fitting per-deck parameter vectors.
	StateComparing                      // Computing pairwise distances.
	StateReporting                      // Assembling the report.
	StateDone                           // Terminal: report available.
	StateFailed                         // Terminal: unrecoverable error.
)

var stateNames = [...]string{
	StateCollecting: "Collecting",
	StateOptimizing: "Optimizing",
	StateComparing:  "Comparing",
	StateReporting:  "Reporting",
	StateDone:       "Done",
	StateFailed:     "Failed",
}

func (s RunState) isValid() bool {
	return s >= StateCollecting && s <= StateFailed
}

// String returns the name of the state. For invalid values it returns
// "RunState(n)".
func (s RunState) String() string {
	if s.isValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("RunState(%d)", int(s))
}
