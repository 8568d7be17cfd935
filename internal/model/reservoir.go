package model

import (
	"fmt"

	"herss/internal/curve"
	"herss/internal/qmin"
)

// Reservoir holds a storage volume between two level curves (HRW/LRW) and
// up to four prioritized outlets, evaluated in a fixed order every
// timestep: tunnel (to a powerstation), hatch, automatic minimum-discharge
// release, overflow. Overflow is the only outlet that is always active —
// the original requires an OVERFLOW_CURVE and downstream id on every
// reservoir, the other three are individually optional.
type Reservoir struct {
	Name string

	HRW, LRW          float64 // masl
	ResPenaltyPerHour float64 // Euro/hour while below LRW
	InitialFraction   float64 // [0,1], 0=LRW 1=HRW, used to seed ResMm3 on InitReservoir

	LevelToVolume *curve.Curve // masl -> Mm3
	VolumeToLevel *curve.Curve // Mm3 -> masl

	OverflowLevelToFlow *curve.Curve // masl -> m3/s
	OverflowDownstream  int

	HatchInUse         bool
	HatchDownstream    int
	HatchMinQ, HatchMaxQ float64 // m3/s at action=0 and action=1
	HatchMasl          float64  // hatch only opens above this level

	TunnelInUse      bool
	TunnelDownstream int // index of the powerstation node fed by the tunnel

	AutoQminInUse      bool
	AutoQminDownstream int
	AutoQminSchedule   *qmin.Schedule

	// fillingAtLRWMm3, fillingAtHRWMm3, fillingAtHatchMm3 are derived from
	// the level curve by initReservoir and held fixed for the run.
	fillingAtLRWMm3   float64
	fillingAtHatchMm3 float64
	fillingAtHRWMm3   float64

	// Mutable run state.
	resMm3  float64
	resMasl float64
}

// initReservoir seeds resMm3 from InitialFraction and precomputes the three
// filling thresholds used by the outlet caps. Called once per Simulate()
// run, mirroring the original's InitReservoir().
func (r *Reservoir) initReservoir() error {
	lrwMm3, err := r.LevelToVolume.Eval(r.LRW)
	if err != nil {
		return fmt.Errorf("reservoir %s: LRW %v outside level curve domain: %w", r.Name, r.LRW, err)
	}
	hrwMm3, err := r.LevelToVolume.Eval(r.HRW)
	if err != nil {
		return fmt.Errorf("reservoir %s: HRW %v outside level curve domain: %w", r.Name, r.HRW, err)
	}
	r.fillingAtLRWMm3 = lrwMm3
	r.fillingAtHRWMm3 = hrwMm3
	if r.HatchInUse {
		hatchMm3, err := r.LevelToVolume.Eval(r.HatchMasl)
		if err != nil {
			return fmt.Errorf("reservoir %s: hatch level %v outside level curve domain: %w", r.Name, r.HatchMasl, err)
		}
		r.fillingAtHatchMm3 = hatchMm3
	}

	r.resMm3 = lrwMm3 + r.InitialFraction*(hrwMm3-lrwMm3)
	masl, err := r.VolumeToLevel.Eval(r.resMm3)
	if err != nil {
		return fmt.Errorf("reservoir %s: initial filling %v Mm3 outside volume curve domain: %w", r.Name, r.resMm3, err)
	}
	r.resMasl = masl
	return nil
}

func (r *Reservoir) getStartWaterMm3(sc *Scenario) float64 {
	return r.fillingAtLRWMm3 + r.InitialFraction*(r.fillingAtHRWMm3-r.fillingAtLRWMm3)
}

func (r *Reservoir) getEndWaterMm3(sc *Scenario) float64 {
	last := len(sc.ResFraction) - 1
	return r.fillingAtLRWMm3 + sc.ResFraction[last]*(r.fillingAtHRWMm3-r.fillingAtLRWMm3)
}

// step runs the eight-part per-timestep sequence: add local and upstream
// inflow, then drain through tunnel, hatch, auto-qmin and overflow in that
// fixed order, recomputing resMasl from the volume curve after each
// subtraction so every outlet's cap sees an up-to-date level.
func (r *Reservoir) step(n *Node, t int, nodes []*Node) error {
	sc := n.Scenario
	dt := sc.DT

	r.resMm3 += m3sToMm3(sc.Inflow[t], dt)
	r.resMm3 += m3sToMm3(sc.UpInflow[t], dt)
	if err := r.refreshLevel(n, t); err != nil {
		return err
	}

	if err := r.stepTunnel(n, t, nodes); err != nil {
		return err
	}
	if err := r.stepHatch(n, t, nodes); err != nil {
		return err
	}
	if err := r.stepAutoQmin(n, t, nodes); err != nil {
		return err
	}
	if err := r.stepOverflow(n, t, nodes); err != nil {
		return err
	}

	if r.resMasl < r.LRW {
		sc.CostLRW[t] = r.ResPenaltyPerHour * float64(dt) / 3600
	}
	sc.Cost[t] = sc.CostQmin[t] + sc.CostLRW[t]
	sc.Profit[t] = -sc.Cost[t]

	sc.ResMm3[t] = r.resMm3
	sc.ResMasl[t] = r.resMasl
	sc.ResFraction[t] = (r.resMm3 - r.fillingAtLRWMm3) / (r.fillingAtHRWMm3 - r.fillingAtLRWMm3)
	if sc.ResFraction[t] < -1 {
		return &InvariantError{NodeID: n.ID, NodeName: n.Name, Timestep: t,
			Reason: fmt.Sprintf("reservoir fraction %v below -1", sc.ResFraction[t])}
	}

	remaining := r.resMm3 - r.fillingAtLRWMm3
	if remaining < 0 {
		remaining = 0
	}
	n.RemainingAvailableMm3 = remaining
	return nil
}

func (r *Reservoir) refreshLevel(n *Node, t int) error {
	masl, err := r.VolumeToLevel.Eval(r.resMm3)
	if err != nil {
		return &InvariantError{NodeID: n.ID, NodeName: n.Name, Timestep: t,
			Reason: fmt.Sprintf("storage %v Mm3 outside volume curve domain: %v", r.resMm3, err)}
	}
	r.resMasl = masl
	return nil
}

// stepTunnel resolves the downstream powerstation's turbine discharge from
// its own action signal and pushes that flow, in m3/s, directly into the
// powerstation's UpInflow — an assignment, not an accumulation, since a
// tunnel is a powerstation's sole water source.
func (r *Reservoir) stepTunnel(n *Node, t int, nodes []*Node) error {
	if !r.TunnelInUse {
		return nil
	}
	ps := nodes[r.TunnelDownstream]
	if ps.Kind != KindPowerstation {
		return &InvariantError{NodeID: n.ID, NodeName: n.Name, Timestep: t,
			Reason: fmt.Sprintf("tunnel downstream node %d is not a powerstation", r.TunnelDownstream)}
	}
	ps.Powerstation.startOfStepMasl = r.resMasl
	ps.Powerstation.upstreamResMm3 = r.resMm3

	flowM3s, err := ps.Powerstation.getTunnelFlow(ps, t)
	if err != nil {
		return err
	}
	ps.Scenario.UpInflow[t] = flowM3s
	n.Scenario.TunnelFlowM3s[t] = flowM3s

	r.resMm3 -= m3sToMm3(flowM3s, n.Scenario.DT)
	if err := r.refreshLevel(n, t); err != nil {
		return err
	}
	ps.Powerstation.endOfStepMasl = r.resMasl
	return nil
}

// stepHatch opens proportionally to the action signal once the level is
// above HatchMasl, capped so storage cannot fall below the hatch's own
// trigger level within a single timestep.
func (r *Reservoir) stepHatch(n *Node, t int, nodes []*Node) error {
	if !r.HatchInUse {
		return nil
	}
	sc := n.Scenario
	var flowM3s float64
	if r.resMasl > r.HatchMasl {
		flowM3s = r.HatchMinQ + sc.Action[t]*(r.HatchMaxQ-r.HatchMinQ)
	}
	volMm3 := m3sToMm3(flowM3s, sc.DT)
	maxMm3 := r.resMm3 - r.fillingAtHatchMm3
	if volMm3 > maxMm3 {
		volMm3 = maxMm3
	}
	if volMm3 < 0 {
		volMm3 = 0
	}
	flowM3s = mm3ToM3s(volMm3, sc.DT)

	if r.HatchDownstream != n.ID {
		nodes[r.HatchDownstream].Scenario.UpInflow[t] += flowM3s
	}
	sc.HatchFlowM3s[t] = flowM3s

	r.resMm3 -= volMm3
	return r.refreshLevel(n, t)
}

// stepAutoQmin releases the schedule's seasonal minimum discharge
// unconditionally, regardless of reservoir level; the schedule itself
// returns 0 outside any configured period.
func (r *Reservoir) stepAutoQmin(n *Node, t int, nodes []*Node) error {
	if !r.AutoQminInUse {
		return nil
	}
	sc := n.Scenario
	flowM3s, _ := r.AutoQminSchedule.Required(sc.Month[t], sc.Day[t])
	if r.AutoQminDownstream != n.ID {
		nodes[r.AutoQminDownstream].Scenario.UpInflow[t] += flowM3s
	}
	sc.AutoQminM3s[t] = flowM3s

	r.resMm3 -= m3sToMm3(flowM3s, sc.DT)
	return r.refreshLevel(n, t)
}

// stepOverflow releases overflow only while the level is above the overflow
// curve's domain minimum; at or below it the overflow is zero. The release
// is capped so storage cannot fall below the HRW filling threshold in one
// step, and a negative cap (storage already below the HRW filling while the
// level is above the curve's minimum) is an invariant violation, not a
// silently-clamped zero.
func (r *Reservoir) stepOverflow(n *Node, t int, nodes []*Node) error {
	sc := n.Scenario
	var volMm3 float64
	if r.resMasl > r.OverflowLevelToFlow.Xmin() {
		flowM3s, err := r.OverflowLevelToFlow.Eval(r.resMasl)
		if err != nil {
			return &InvariantError{NodeID: n.ID, NodeName: n.Name, Timestep: t,
				Reason: fmt.Sprintf("overflow curve lookup at masl=%v: %v", r.resMasl, err)}
		}
		volMm3 = m3sToMm3(flowM3s, sc.DT)
		maxMm3 := r.resMm3 - r.fillingAtHRWMm3
		if volMm3 > maxMm3 {
			volMm3 = maxMm3
		}
		if volMm3 < 0 {
			return &InvariantError{NodeID: n.ID, NodeName: n.Name, Timestep: t,
				Reason: fmt.Sprintf("overflow volume %v Mm3 negative after HRW cap", volMm3)}
		}
	}
	flowM3s := mm3ToM3s(volMm3, sc.DT)
	if r.OverflowDownstream != n.ID {
		nodes[r.OverflowDownstream].Scenario.UpInflow[t] += flowM3s
	}
	sc.OverflowM3s[t] = flowM3s
	sc.OverflowMm3[t] = volMm3

	r.resMm3 -= volMm3
	return r.refreshLevel(n, t)
}

// checkWaterBalance verifies start + inflow - outflow - delta storage nets
// to zero within tolerance, summed across the whole run. Inflow here is
// local inflow plus pushed upstream inflow; outflow is the sum of all four
// outlets over the run.
func (r *Reservoir) checkWaterBalance(n *Node, toleranceMm3 float64) error {
	sc := n.Scenario
	start := r.getStartWaterMm3(sc)
	end := r.getEndWaterMm3(sc)

	var inflowMm3, outflowMm3 float64
	for t := 0; t < sc.Stps; t++ {
		inflowMm3 += m3sToMm3(sc.Inflow[t], sc.DT)
		inflowMm3 += m3sToMm3(sc.UpInflow[t], sc.DT)
		outflowMm3 += m3sToMm3(sc.TunnelFlowM3s[t], sc.DT)
		outflowMm3 += m3sToMm3(sc.HatchFlowM3s[t], sc.DT)
		outflowMm3 += m3sToMm3(sc.AutoQminM3s[t], sc.DT)
		outflowMm3 += sc.OverflowMm3[t]
	}

	balance := start + inflowMm3 - outflowMm3 - end
	if balance > toleranceMm3 || balance < -toleranceMm3 {
		return &InvariantError{NodeID: n.ID, NodeName: n.Name, Timestep: sc.Stps - 1,
			Reason: fmt.Sprintf("water balance residual %v Mm3 exceeds tolerance %v", balance, toleranceMm3)}
	}
	return nil
}
