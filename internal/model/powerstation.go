package model

import (
	"fmt"
	"math"

	"herss/internal/curve"
)

const gravity = 9.80665 // m/s2, matches the source's GRAVITY constant

// Powerstation converts discharge delivered through a reservoir's tunnel
// into power, net of headloss, and prices it against the timestep's spot
// price. It has no storage of its own: everything it receives it passes on
// downstream in the same timestep.
type Powerstation struct {
	Name string

	DownstreamIdx int

	TurbineEfficiencyCurve *curve.Curve // discharge m3/s -> efficiency, percent
	StaticGenEfficiency    float64      // fraction, applied on top of the turbine curve
	HeadlossCoef           float64      // headloss = HeadlossCoef * Q^2
	PowstatMasl            float64      // turbine centerline elevation

	MinDischarge, MaxDischarge float64
	AutoQmin                   float64 // floor enforced under GetTunnelFlow, 0 disables
	StartStopCost              float64 // Euro per start/stop event, split 50/50 across the transition
	LocalEnergyEquivalent      float64 // kWh per m3, used by the value-function remaining-water term

	MaxAdjustmentsPerDay int     // -1 disables the daily adjustment-count penalty
	AdjustmentPenalty    float64 // Euro charged once per day when exceeded
	InitPowerMWh         float64 // fictitious t=-1 output, for the first start/stop comparison

	// Set by the upstream reservoir's stepTunnel immediately before
	// getTunnelFlow and step run, since headwater level is this
	// powerstation's Hbrutto input but is owned by the reservoir.
	startOfStepMasl float64
	endOfStepMasl   float64
	upstreamResMm3  float64
}

func (p *Powerstation) resetForRun() {
	p.startOfStepMasl = 0
	p.endOfStepMasl = 0
	p.upstreamResMm3 = 0
}

// getTunnelFlow resolves the action signal into a discharge request: below
// a 1% action deadband the gate is treated as closed, otherwise discharge
// scales linearly between MinDischarge and MaxDischarge. An auto-qmin floor
// is applied on top if configured, and the request is rejected to zero if
// the reservoir does not hold enough water to honour it this timestep —
// the original's gate against running a turbine dry.
func (p *Powerstation) getTunnelFlow(n *Node, t int) (float64, error) {
	sc := n.Scenario
	a := sc.Action[t]
	if a < 0 {
		return 0, &InvariantError{NodeID: n.ID, NodeName: n.Name, Timestep: t,
			Reason: fmt.Sprintf("action signal %v is negative", a)}
	}

	var flowM3s float64
	if a >= 0.01 {
		flowM3s = p.MinDischarge + a*(p.MaxDischarge-p.MinDischarge)
	}
	if p.AutoQmin > 0 && flowM3s < p.AutoQmin {
		flowM3s = p.AutoQmin
		sc.AutoQminM3s[t] = flowM3s
	}

	volMm3 := m3sToMm3(flowM3s, sc.DT)
	if volMm3 > p.upstreamResMm3 {
		flowM3s = 0
	}
	return flowM3s, nil
}

// step computes headloss, net head, generated power, and income/cost for
// this timestep, then passes the discharge on to the downstream node
// unchanged — a powerstation is a lossless conduit for water, only power
// is produced or consumed here.
func (p *Powerstation) step(n *Node, t int, nodes []*Node) error {
	sc := n.Scenario
	dt := sc.DT
	Q := sc.UpInflow[t]

	headloss := p.HeadlossCoef * Q * Q
	Hbrutto := (p.startOfStepMasl+p.endOfStepMasl)/2 - p.PowstatMasl
	Hnetto := Hbrutto - headloss

	sc.Hbrutto[t] = Hbrutto
	sc.Hnetto[t] = Hnetto

	var powerMWh float64
	if Q >= p.MinDischarge && Q > 0 {
		etaPercent, err := p.TurbineEfficiencyCurve.Eval(Q)
		if err != nil {
			return &InvariantError{NodeID: n.ID, NodeName: n.Name, Timestep: t,
				Reason: fmt.Sprintf("turbine efficiency lookup at Q=%v: %v", Q, err)}
		}
		eta := etaPercent / 100
		powerWatts := eta * 1000 * gravity * Hnetto * Q
		powerMWh = mwhFromWatts(powerWatts, dt) * p.StaticGenEfficiency
	}

	sc.PowerMWh[t] = powerMWh
	sc.Income[t] = powerMWh * sc.Price[t]

	prevPowerMWh := p.InitPowerMWh
	if t > 0 {
		prevPowerMWh = sc.PowerMWh[t-1]
	}
	var startStopCost float64
	if isRunning(prevPowerMWh) != isRunning(powerMWh) {
		startStopCost = p.StartStopCost / 2
	}
	sc.StartStopCost[t] = startStopCost
	sc.Cost[t] = startStopCost
	sc.Profit[t] = sc.Income[t] - sc.Cost[t]

	sc.TotOutflow[t] = Q
	if p.DownstreamIdx != n.ID {
		nodes[p.DownstreamIdx].Scenario.UpInflow[t] += Q
	}
	return nil
}

func isRunning(powerMWh float64) bool {
	return powerMWh >= 0.001
}

// calcAdjustmentCosts runs once after the full timestep loop and charges
// AdjustmentPenalty on any calendar day where the output changed by more
// than the noise floor more times than MaxAdjustmentsPerDay allows. Day
// boundaries are detected from the scenario's own year/month/day fields
// rather than a fixed (t+1)%24==0 stride, so the penalty applies correctly
// regardless of the run's timestep length.
func (p *Powerstation) calcAdjustmentCosts(n *Node) error {
	if p.MaxAdjustmentsPerDay < 0 {
		return nil
	}
	sc := n.Scenario
	count := 0
	for t := 1; t < sc.Stps; t++ {
		if math.Abs(sc.PowerMWh[t]-sc.PowerMWh[t-1]) > 0.1 {
			count++
		}
		if dayEnds(sc, t) {
			if count > p.MaxAdjustmentsPerDay {
				sc.AdjustCost[t] = p.AdjustmentPenalty
				sc.Cost[t] += p.AdjustmentPenalty
				sc.Profit[t] -= p.AdjustmentPenalty
			}
			count = 0
		}
	}
	return nil
}

func dayEnds(sc *Scenario, t int) bool {
	if t == sc.Stps-1 {
		return true
	}
	return sc.Year[t] != sc.Year[t+1] || sc.Month[t] != sc.Month[t+1] || sc.Day[t] != sc.Day[t+1]
}
