package model

import "fmt"

// InvariantError reports a physical invariant violation detected while
// stepping the kernel: a non-physical reservoir fraction, negative overflow,
// an out-of-range curve query, or a mass balance failure. These always
// indicate a bug or bad input data, never a regulatory condition — those are
// costs, not errors (see Scenario.Cost*).
type InvariantError struct {
	NodeID   int
	NodeName string
	Timestep int
	Reason   string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated at node %d (%s), t=%d: %s", e.NodeID, e.NodeName, e.Timestep, e.Reason)
}
