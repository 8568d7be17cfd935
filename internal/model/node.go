package model

// Kind tags which variant a Node holds. The original simulator used a
// virtual base class (Node) with Reservoir/Channel/Powerstation subclasses;
// Go has no virtual dispatch, so the tagged-variant plus integer-index
// downstream links replace both the inheritance and the pointer chasing.
type Kind int

const (
	KindReservoir Kind = iota
	KindChannel
	KindPowerstation
)

func (k Kind) String() string {
	switch k {
	case KindReservoir:
		return "reservoir"
	case KindChannel:
		return "channel"
	case KindPowerstation:
		return "powerstation"
	default:
		return "unknown"
	}
}

// Node is one vertex of the river system graph: an id, a name, shared
// water-accounting fields, and exactly one populated variant. Downstream
// links are array indices into the RiverSystem's node slice rather than
// pointers, so that "push Q downstream" is just
// nodes[idx].Scenario.UpInflow[t] += Q.
type Node struct {
	ID   int
	Name string
	Kind Kind

	Scenario *Scenario

	Reservoir    *Reservoir
	Channel      *Channel
	Powerstation *Powerstation

	// RemainingAvailableMm3 and UpstreamRemainingAvailableMm3 support the
	// value-function calculation: how much water is left unused at the end
	// of the run, valued at each powerstation's local energy equivalent.
	// Both are reset to zero at the start of every Simulate() run and
	// populated by the end-of-run propagation pass, not during stepping.
	RemainingAvailableMm3         float64
	UpstreamRemainingAvailableMm3 float64
}

// NewNode wraps a Scenario and variant into a Node. The variant argument
// must be a *Reservoir, *Channel, or *Powerstation; NewNode panics on any
// other type since that indicates a programming error in the caller (graph
// construction), not a data error.
func NewNode(id int, name string, scenario *Scenario, variant interface{}) *Node {
	n := &Node{ID: id, Name: name, Scenario: scenario}
	switch v := variant.(type) {
	case *Reservoir:
		n.Kind = KindReservoir
		n.Reservoir = v
	case *Channel:
		n.Kind = KindChannel
		n.Channel = v
	case *Powerstation:
		n.Kind = KindPowerstation
		n.Powerstation = v
	default:
		panic("model: NewNode given an unsupported variant type")
	}
	return n
}

// Step advances this node by one timestep. nodes is the full graph so the
// node can push flow into its downstream neighbours' UpInflow accumulators
// for timestep t; RiverSystem guarantees nodes run in topological (index)
// order so every push lands before the receiving node's own Step runs.
func (n *Node) Step(t int, nodes []*Node) error {
	switch n.Kind {
	case KindReservoir:
		return n.Reservoir.step(n, t, nodes)
	case KindChannel:
		return n.Channel.step(n, t, nodes)
	case KindPowerstation:
		return n.Powerstation.step(n, t, nodes)
	default:
		return &InvariantError{NodeID: n.ID, NodeName: n.Name, Timestep: t, Reason: "node has no populated variant"}
	}
}

// ResetForRun re-initializes per-run mutable state (reservoir storage,
// channel cell array, powerstation transient fields) and the shared
// remaining-water accumulators, ahead of a fresh Simulate() call.
func (n *Node) ResetForRun() error {
	n.RemainingAvailableMm3 = 0
	n.UpstreamRemainingAvailableMm3 = 0
	n.Scenario.ResetUpInflow()
	n.Scenario.ResetConditionalFields()
	switch n.Kind {
	case KindReservoir:
		return n.Reservoir.initReservoir()
	case KindChannel:
		n.Channel.setStartState()
	case KindPowerstation:
		n.Powerstation.resetForRun()
	}
	return nil
}

// GetStartWaterMm3 and GetEndWaterMm3 report the water stored in this node
// at the first and last timestep, used by the global water balance check.
// Powerstations store no water, so both return 0 for that variant.
func (n *Node) GetStartWaterMm3() float64 {
	switch n.Kind {
	case KindReservoir:
		return n.Reservoir.getStartWaterMm3(n.Scenario)
	case KindChannel:
		return n.Channel.getStartWaterMm3()
	default:
		return 0
	}
}

func (n *Node) GetEndWaterMm3() float64 {
	switch n.Kind {
	case KindReservoir:
		return n.Reservoir.getEndWaterMm3(n.Scenario)
	case KindChannel:
		return n.Channel.getEndWaterMm3()
	default:
		return 0
	}
}

// CheckWaterBalance runs this node's own mass-balance self-check (source and
// channel conservation, not the system-wide check in the waterbalance
// package) and returns a descriptive error on failure.
func (n *Node) CheckWaterBalance(toleranceMm3 float64) error {
	switch n.Kind {
	case KindReservoir:
		return n.Reservoir.checkWaterBalance(n, toleranceMm3)
	case KindChannel:
		return n.Channel.checkWaterBalance(n, toleranceMm3)
	default:
		return nil
	}
}

// CalcAdjustmentCosts runs the post-run daily adjustment-count penalty pass.
// A no-op for any node that isn't a Powerstation.
func (n *Node) CalcAdjustmentCosts() error {
	if n.Kind != KindPowerstation {
		return nil
	}
	return n.Powerstation.calcAdjustmentCosts(n)
}

// DownstreamPrimary returns the index of the node that receives this node's
// TotOutflow (reservoirs: -1, since their outflow is split across up to
// four outlets rather than one primary link; channels and powerstations
// each have exactly one). Used by the end-of-run remaining-water
// propagation to find the neighbour that inherits a node's unused water.
func (n *Node) DownstreamPrimary() int {
	switch n.Kind {
	case KindChannel:
		return n.Channel.DownstreamIdx
	case KindPowerstation:
		return n.Powerstation.DownstreamIdx
	default:
		return -1
	}
}
