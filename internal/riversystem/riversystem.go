// Package riversystem owns the node graph and drives the timestep loop that
// the model package's node variants step through. It is the Go analogue of
// the original's Herss + Riversystem pairing: graph construction and
// downstream-pointer resolution from topology, the simulate loop itself,
// the end-of-run remaining-water propagation pass, and the batch/what-if
// setters for repeated-run callers that want to mutate one run's inputs
// without re-parsing any files.
package riversystem

import (
	"fmt"

	"herss/internal/model"
)

// RiverSystem holds the full node graph in topological order: node i's
// every downstream link (reservoir outlets, channel/powerstation primary
// link) targets an index j > i. This ordering is what lets Simulate push
// flow downstream within a single timestep without a second pass.
type RiverSystem struct {
	Nodes []*model.Node

	// RestPrice values the water left in storage at the end of the run,
	// per the value function VF = profit + remaining_Euro.
	RestPrice float64
}

// New wraps an already-built, already-validated node slice. Callers
// (normally the ingest package) are responsible for constructing nodes in
// topological order and resolving every downstream index within [0,
// len(nodes)) and strictly greater than the node's own index.
func New(nodes []*model.Node, restPrice float64) (*RiverSystem, error) {
	if len(nodes) == 0 {
		return nil, fmt.Errorf("riversystem: no nodes")
	}
	for i, n := range nodes {
		if n.ID != i {
			return nil, fmt.Errorf("riversystem: node at index %d has id %d, indices and ids must match topological order", i, n.ID)
		}
	}
	return &RiverSystem{Nodes: nodes, RestPrice: restPrice}, nil
}

// Simulate runs the full horizon. Every node is first reset for a fresh
// run (reservoirs re-seeded from their initial fraction, channels re-seeded
// from their initial cell state, upstream-inflow accumulators zeroed), then
// stepped timestep-by-timestep in index order — this nested loop order
// (outer over time, inner over nodes) is load-bearing: reversing it would
// break the single-pass downstream push that stepTunnel/stepHatch/etc.
// depend on, since it relies on every node already having handled its own
// timestep t before any downstream neighbour is asked to handle the same t.
func (rs *RiverSystem) Simulate() error {
	for _, n := range rs.Nodes {
		if err := n.ResetForRun(); err != nil {
			return fmt.Errorf("riversystem: reset node %d (%s): %w", n.ID, n.Name, err)
		}
	}

	stps := rs.Nodes[0].Scenario.Stps
	for t := 0; t < stps; t++ {
		for _, n := range rs.Nodes {
			if err := n.Step(t, rs.Nodes); err != nil {
				return fmt.Errorf("riversystem: step t=%d: %w", t, err)
			}
		}
	}

	for _, n := range rs.Nodes {
		if err := n.CalcAdjustmentCosts(); err != nil {
			return fmt.Errorf("riversystem: adjustment costs for node %d (%s): %w", n.ID, n.Name, err)
		}
	}

	rs.propagateRemainingWater()
	return nil
}

// propagateRemainingWater runs once after the timestep loop: each node's
// own unused-at-end-of-run water (RemainingAvailableMm3) plus whatever
// remaining water it inherited from its own upstream neighbours
// (UpstreamRemainingAvailableMm3) is pushed into its primary downstream
// neighbour's UpstreamRemainingAvailableMm3. Because reservoirs can have up
// to four distinct downstream outlets but only one of them carries the
// "primary" designation for this purpose (DownstreamPrimary), unused
// reservoir water is valued at the powerstation immediately below its
// tunnel, matching the original's accounting.
func (rs *RiverSystem) propagateRemainingWater() {
	for _, n := range rs.Nodes {
		total := n.RemainingAvailableMm3 + n.UpstreamRemainingAvailableMm3
		idx := n.DownstreamPrimary()
		if n.Kind == model.KindReservoir {
			idx = rs.reservoirPrimaryDownstream(n)
		}
		if idx < 0 || idx >= len(rs.Nodes) {
			continue
		}
		rs.Nodes[idx].UpstreamRemainingAvailableMm3 += total
	}
}

func (rs *RiverSystem) reservoirPrimaryDownstream(n *model.Node) int {
	if n.Reservoir.TunnelInUse {
		return n.Reservoir.TunnelDownstream
	}
	return n.Reservoir.OverflowDownstream
}

// CalcValueFunction returns profit (sum of every node's per-timestep
// Profit) plus the Euro value of remaining water sitting unused at the end
// of the run, valued at each powerstation's local energy equivalent and
// RestPrice: VF = profit + sum(local_energy_equivalent_kWh_per_m3 *
// upstream_remaining_Mm3 * 1e6/1e3) * RestPrice. The 1e6/1e3 factor
// converts Mm3 to m3 and kWh to MWh.
func (rs *RiverSystem) CalcValueFunction() float64 {
	var profit float64
	var remainingMWh float64
	for _, n := range rs.Nodes {
		sc := n.Scenario
		for t := 0; t < sc.Stps; t++ {
			profit += sc.Profit[t]
		}
		if n.Kind == model.KindPowerstation {
			remainingMWh += n.Powerstation.LocalEnergyEquivalent * n.UpstreamRemainingAvailableMm3 * 1e6 / 1e3
		}
	}
	return profit + remainingMWh*rs.RestPrice
}

// CheckWaterBalance runs every node's own per-node mass-balance self-check.
func (rs *RiverSystem) CheckWaterBalance(toleranceMm3 float64) error {
	for _, n := range rs.Nodes {
		if err := n.CheckWaterBalance(toleranceMm3); err != nil {
			return err
		}
	}
	return nil
}

// byID looks a node up by its declared id, used by the setters below which
// the ingest layer and callers address by topology id rather than slice
// index (the two coincide by construction, but staying explicit keeps this
// package's public API independent of that internal invariant).
func (rs *RiverSystem) byID(id int) (*model.Node, error) {
	if id < 0 || id >= len(rs.Nodes) {
		return nil, fmt.Errorf("riversystem: no node with id %d", id)
	}
	return rs.Nodes[id], nil
}

// SetReservoirInitialFraction overrides a reservoir's starting fill
// fraction ahead of the next Simulate() call, for repeated-run callers that
// want to sweep initial conditions without re-parsing topology files.
func (rs *RiverSystem) SetReservoirInitialFraction(nodeID int, fraction float64) error {
	n, err := rs.byID(nodeID)
	if err != nil {
		return err
	}
	if n.Kind != model.KindReservoir {
		return fmt.Errorf("riversystem: node %d is not a reservoir", nodeID)
	}
	n.Reservoir.InitialFraction = fraction
	return nil
}

// SetAction overrides one node's control signal at one timestep.
func (rs *RiverSystem) SetAction(nodeID, t int, action float64) error {
	n, err := rs.byID(nodeID)
	if err != nil {
		return err
	}
	if t < 0 || t >= n.Scenario.Stps {
		return fmt.Errorf("riversystem: timestep %d out of range [0,%d)", t, n.Scenario.Stps)
	}
	n.Scenario.Action[t] = action
	return nil
}

// GetAction returns one node's control signal at one timestep.
func (rs *RiverSystem) GetAction(nodeID, t int) (float64, error) {
	n, err := rs.byID(nodeID)
	if err != nil {
		return 0, err
	}
	if t < 0 || t >= n.Scenario.Stps {
		return 0, fmt.Errorf("riversystem: timestep %d out of range [0,%d)", t, n.Scenario.Stps)
	}
	return n.Scenario.Action[t], nil
}

// SetInflowAt overrides one node's local inflow at one timestep.
func (rs *RiverSystem) SetInflowAt(nodeID, t int, inflowM3s float64) error {
	n, err := rs.byID(nodeID)
	if err != nil {
		return err
	}
	if t < 0 || t >= n.Scenario.Stps {
		return fmt.Errorf("riversystem: timestep %d out of range [0,%d)", t, n.Scenario.Stps)
	}
	n.Scenario.Inflow[t] = inflowM3s
	return nil
}

// GetInflowAt returns one node's local inflow at one timestep.
func (rs *RiverSystem) GetInflowAt(nodeID, t int) (float64, error) {
	n, err := rs.byID(nodeID)
	if err != nil {
		return 0, err
	}
	if t < 0 || t >= n.Scenario.Stps {
		return 0, fmt.Errorf("riversystem: timestep %d out of range [0,%d)", t, n.Scenario.Stps)
	}
	return n.Scenario.Inflow[t], nil
}

// SetPrice overrides one node's spot price at one timestep. Price is
// tracked per-node (each node's Scenario carries its own copy) rather than
// globally, mirroring the original file format where the price series is
// broadcast to every node at load time but can drift per-node thereafter
// through this setter.
func (rs *RiverSystem) SetPrice(nodeID, t int, price float64) error {
	n, err := rs.byID(nodeID)
	if err != nil {
		return err
	}
	if t < 0 || t >= n.Scenario.Stps {
		return fmt.Errorf("riversystem: timestep %d out of range [0,%d)", t, n.Scenario.Stps)
	}
	n.Scenario.Price[t] = price
	return nil
}

// NodeByID exposes read-only lookup for report writers and handlers that
// need to walk a single node's trajectory without the whole graph.
func (rs *RiverSystem) NodeByID(id int) (*model.Node, error) {
	return rs.byID(id)
}
