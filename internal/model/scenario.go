// Package model implements the node graph of the simulation kernel: the
// per-node trajectory buffers (Scenario) and the three node variants
// (Reservoir, Channel, Powerstation) that mutate them one timestep at a
// time.
package model

// Scenario owns every per-timestep trajectory buffer for one node across
// the simulation horizon. Each node owns exactly one Scenario exclusively;
// nothing else writes into it except the owning node's Step and the
// upstream push-writes into UpInflow, which are safe because the
// downstream node has not yet run for timestep t (see riversystem package).
type Scenario struct {
	Stps int
	DT   int // seconds per timestep

	// Inputs, populated once before simulation.
	Inflow []float64 // local inflow, m3/s
	Action []float64 // operator control signal, node-type specific meaning
	Price  []float64 // Euro/MWh
	Year   []int
	Month  []int
	Day    []int
	Hour   []int

	RestPrice float64

	// Computed during simulation.
	UpInflow     []float64 // accumulated from upstream pushes this timestep, m3/s
	TotOutflow   []float64 // m3/s leaving the node toward its primary downstream
	ResMm3       []float64 // reservoir storage, Mm3
	ResMasl      []float64 // reservoir level, metres above sea level
	ResFraction  []float64 // reservoir fill fraction in [0,1], 0=LRW 1=HRW

	OverflowMm3       []float64
	TunnelFlowM3s     []float64
	HatchFlowM3s      []float64
	OverflowM3s       []float64
	AutoQminM3s       []float64
	ChannelStorageMm3 []float64

	Hbrutto []float64
	Hnetto  []float64
	PowerMWh []float64

	Income       []float64
	Cost         []float64
	CostQmin     []float64
	CostLRW      []float64
	StartStopCost []float64
	AdjustCost   []float64
	Profit       []float64
}

// NewScenario allocates a Scenario sized for stps timesteps. Accumulator
// fields (UpInflow, Inflow) are pre-zeroed; all other computed fields start
// at zero value (0.0), which for this kernel doubles as "not yet computed"
// since every field gets written during Step before it's read downstream.
func NewScenario(stps, dt int) *Scenario {
	s := &Scenario{Stps: stps, DT: dt}
	mk := func() []float64 { return make([]float64, stps) }
	s.Inflow = mk()
	s.Action = mk()
	s.Price = mk()
	s.Year = make([]int, stps)
	s.Month = make([]int, stps)
	s.Day = make([]int, stps)
	s.Hour = make([]int, stps)

	s.UpInflow = mk()
	s.TotOutflow = mk()
	s.ResMm3 = mk()
	s.ResMasl = mk()
	s.ResFraction = mk()
	s.OverflowMm3 = mk()
	s.TunnelFlowM3s = mk()
	s.HatchFlowM3s = mk()
	s.OverflowM3s = mk()
	s.AutoQminM3s = mk()
	s.ChannelStorageMm3 = mk()
	s.Hbrutto = mk()
	s.Hnetto = mk()
	s.PowerMWh = mk()
	s.Income = mk()
	s.Cost = mk()
	s.CostQmin = mk()
	s.CostLRW = mk()
	s.StartStopCost = mk()
	s.AdjustCost = mk()
	s.Profit = mk()
	return s
}

// ResetUpInflow zeroes the accumulator that upstream nodes push into. Called
// once per node at the start of every Simulate() run.
func (s *Scenario) ResetUpInflow() {
	for i := range s.UpInflow {
		s.UpInflow[i] = 0
	}
}

// ResetConditionalFields zeroes trajectory buffers that Step only writes
// when a condition holds (a penalty threshold crossed, an auto-qmin floor
// engaged), so a second Simulate() run over the same Scenario after a
// parameter sweep doesn't retain a stale value at a timestep the new inputs
// no longer trigger it at.
func (s *Scenario) ResetConditionalFields() {
	for i := range s.CostLRW {
		s.CostLRW[i] = 0
		s.CostQmin[i] = 0
		s.AdjustCost[i] = 0
		s.AutoQminM3s[i] = 0
	}
}

// m3sToMm3 converts a flow rate (m3/s) integrated over dt seconds into a
// volume in million cubic metres.
func m3sToMm3(flowM3s float64, dtSeconds int) float64 {
	return flowM3s * float64(dtSeconds) / 1e6
}

// mwhFromWatts converts instantaneous power (W) integrated over dt seconds
// into energy (MWh).
func mwhFromWatts(watts float64, dtSeconds int) float64 {
	return watts / 1e6 * float64(dtSeconds) / 3600.0
}

// mm3ToM3s is the inverse of m3sToMm3: a volume moved over dt seconds,
// expressed as the constant flow rate that would produce it.
func mm3ToM3s(volMm3 float64, dtSeconds int) float64 {
	return volMm3 * 1e6 / float64(dtSeconds)
}
