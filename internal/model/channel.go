package model

import (
	"fmt"

	"herss/internal/qmin"
)

// Channel delays and decays flow through a chain of Traveltime storage
// cells: each cell receives its upstream neighbour's decayed outflow from
// the previous timestep, so a pulse entering the channel takes Traveltime
// steps to reach the end, shrinking by Decay at every cell on the way.
// Traveltime == 0 degenerates to pure pass-through, used for short reaches
// where delay is negligible relative to the simulation's timestep.
type Channel struct {
	Name string

	Traveltime int
	Decay      float64 // fraction of a cell's content leaving per timestep, (0,1]

	DownstreamIdx int

	QminInUse bool
	QminSchedule *qmin.Schedule

	InitWaterflowM3 []float64 // length Traveltime, seed state for each run

	waterflowM3 []float64 // mutable run state, length Traveltime
}

func (c *Channel) setStartState() {
	if c.Traveltime == 0 {
		return
	}
	c.waterflowM3 = make([]float64, c.Traveltime)
	copy(c.waterflowM3, c.InitWaterflowM3)
}

func (c *Channel) getStartWaterMm3() float64 {
	var total float64
	for _, w := range c.InitWaterflowM3 {
		total += w
	}
	return total / 1e6
}

// EndWaterflowM3 returns a copy of the final per-cell storage, used by
// state-file writers that want to seed a follow-on run from where this one
// ended.
func (c *Channel) EndWaterflowM3() []float64 {
	return append([]float64(nil), c.waterflowM3...)
}

func (c *Channel) getEndWaterMm3() float64 {
	var total float64
	for _, w := range c.waterflowM3 {
		total += w
	}
	return total / 1e6
}

// step either passes local plus upstream inflow straight through
// (Traveltime == 0) or advances every cell by one timestep: cell 0 receives
// this timestep's local plus upstream inflow, every other cell receives the decayed content its
// upstream neighbour held BEFORE this timestep's update, and the outflow
// leaving the channel is the last cell's pre-update content decayed.
// Reading every cell's "before" value up front (rather than mutating in
// place as the loop goes) keeps the computation order-independent.
func (c *Channel) step(n *Node, t int, nodes []*Node) error {
	sc := n.Scenario
	dt := sc.DT

	if c.Traveltime == 0 {
		outflow := sc.UpInflow[t] + sc.Inflow[t]
		sc.TotOutflow[t] = outflow
		if c.DownstreamIdx != n.ID {
			nodes[c.DownstreamIdx].Scenario.UpInflow[t] += outflow
		}
		sc.ChannelStorageMm3[t] = 0
		return c.applyQminPenalty(sc, t, outflow)
	}

	T := c.Traveltime
	outflowM3s := c.waterflowM3[T-1] * c.Decay / float64(dt)

	in := make([]float64, T)
	out := make([]float64, T)
	in[0] = (sc.UpInflow[t] + sc.Inflow[t]) * float64(dt)
	for s := 1; s < T; s++ {
		in[s] = c.waterflowM3[s-1] * c.Decay
	}
	for s := 0; s < T; s++ {
		out[s] = c.waterflowM3[s] * c.Decay
	}
	for s := 0; s < T; s++ {
		c.waterflowM3[s] += in[s] - out[s]
		if c.waterflowM3[s] < 0 {
			return &InvariantError{NodeID: n.ID, NodeName: n.Name, Timestep: t,
				Reason: fmt.Sprintf("cell %d went negative (%v m3)", s, c.waterflowM3[s])}
		}
	}

	sc.TotOutflow[t] = outflowM3s
	if c.DownstreamIdx != n.ID {
		nodes[c.DownstreamIdx].Scenario.UpInflow[t] += outflowM3s
	}

	var storage float64
	for _, w := range c.waterflowM3 {
		storage += w
	}
	sc.ChannelStorageMm3[t] = storage / 1e6

	return c.applyQminPenalty(sc, t, outflowM3s)
}

func (c *Channel) applyQminPenalty(sc *Scenario, t int, outflowM3s float64) error {
	if !c.QminInUse {
		return nil
	}
	required, penaltyPerHour := c.QminSchedule.Required(sc.Month[t], sc.Day[t])
	if outflowM3s < required {
		sc.CostQmin[t] = penaltyPerHour * float64(sc.DT) / 3600
	}
	sc.Cost[t] = sc.CostQmin[t]
	sc.Profit[t] = -sc.Cost[t]
	return nil
}

func (c *Channel) checkWaterBalance(n *Node, toleranceMm3 float64) error {
	sc := n.Scenario
	start := c.getStartWaterMm3()
	end := c.getEndWaterMm3()

	var inflowMm3, outflowMm3 float64
	for t := 0; t < sc.Stps; t++ {
		inflowMm3 += m3sToMm3(sc.UpInflow[t]+sc.Inflow[t], sc.DT)
		outflowMm3 += m3sToMm3(sc.TotOutflow[t], sc.DT)
	}

	balance := start + inflowMm3 - outflowMm3 - end
	if balance > toleranceMm3 || balance < -toleranceMm3 {
		return &InvariantError{NodeID: n.ID, NodeName: n.Name, Timestep: sc.Stps - 1,
			Reason: fmt.Sprintf("water balance residual %v Mm3 exceeds tolerance %v", balance, toleranceMm3)}
	}
	return nil
}
