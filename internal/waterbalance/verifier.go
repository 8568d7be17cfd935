// Package waterbalance implements the system-wide mass balance check, kept
// separate from each node's own per-node check (model.Node.CheckWaterBalance)
// because the two catch different classes of bug: the per-node check can
// pass at every node while water still leaks or is double-counted at the
// graph's edges, so the whole-system sum is checked independently.
package waterbalance

import (
	"fmt"

	"herss/internal/model"
)

// Report is the outcome of a Global check: the four summed quantities and
// the signed residual between them, regardless of whether the residual was
// within tolerance.
type Report struct {
	StartWaterMm3  float64
	EndWaterMm3    float64
	InflowMm3      float64
	OutgoingMm3    float64
	ResidualMm3    float64
	ToleranceMm3   float64
}

// WithinTolerance reports whether ResidualMm3 is within +-ToleranceMm3.
func (r Report) WithinTolerance() bool {
	return r.ResidualMm3 <= r.ToleranceMm3 && r.ResidualMm3 >= -r.ToleranceMm3
}

// defaultToleranceMm3 matches the original's hardcoded check.
const defaultToleranceMm3 = 1e-4

// Global sums every node's start/end water (reservoirs and channels;
// powerstations contribute zero) and every node's local (boundary) inflow
// across the whole run, then compares against the total leaving the system
// at its single outfall — the last node's TotOutflow series, since the
// graph is built in topological order and the outfall is always the final
// index.
func Global(nodes []*model.Node) (Report, error) {
	if len(nodes) == 0 {
		return Report{}, fmt.Errorf("waterbalance: no nodes")
	}

	var startWater, endWater, inflow float64
	for _, n := range nodes {
		startWater += n.GetStartWaterMm3()
		endWater += n.GetEndWaterMm3()

		// Only externally supplied (boundary) inflow counts here —
		// UpInflow is water already accounted for at whichever upstream
		// node pushed it, so including it too would double-count every
		// internal transfer.
		sc := n.Scenario
		for t := 0; t < sc.Stps; t++ {
			inflow += float64(sc.DT) * sc.Inflow[t] / 1e6
		}
	}

	outfall := nodes[len(nodes)-1]
	sc := outfall.Scenario
	var outgoing float64
	for t := 0; t < sc.Stps; t++ {
		outgoing += float64(sc.DT) * sc.TotOutflow[t] / 1e6
	}

	residual := startWater + inflow - outgoing - endWater
	return Report{
		StartWaterMm3: startWater,
		EndWaterMm3:   endWater,
		InflowMm3:     inflow,
		OutgoingMm3:   outgoing,
		ResidualMm3:   residual,
		ToleranceMm3:  defaultToleranceMm3,
	}, nil
}

// PerNode runs every node's own CheckWaterBalance, the complementary half
// of the whole-system Global check: a node can balance internally while
// Global still catches a leak or double-count at how nodes are wired
// together, so callers normally run both.
func PerNode(nodes []*model.Node, toleranceMm3 float64) error {
	for _, n := range nodes {
		if err := n.CheckWaterBalance(toleranceMm3); err != nil {
			return fmt.Errorf("waterbalance: node %d (%s): %w", n.ID, n.Name, err)
		}
	}
	return nil
}

// Check runs Global and turns an out-of-tolerance residual into an error,
// for callers that just want a pass/fail gate ahead of writing output.
func Check(nodes []*model.Node) error {
	r, err := Global(nodes)
	if err != nil {
		return err
	}
	if !r.WithinTolerance() {
		return fmt.Errorf("waterbalance: global residual %v Mm3 exceeds tolerance %v (start=%v end=%v inflow=%v outgoing=%v)",
			r.ResidualMm3, r.ToleranceMm3, r.StartWaterMm3, r.EndWaterMm3, r.InflowMm3, r.OutgoingMm3)
	}
	return nil
}
