package waterbalance

import (
	"testing"

	"herss/internal/model"
)

func buildChain(t *testing.T, stps int) []*model.Node {
	t.Helper()
	dt := 3600

	sc0 := model.NewScenario(stps, dt)
	n0 := model.NewNode(0, "source", sc0, &model.Channel{Name: "source", DownstreamIdx: 1})

	sc1 := model.NewScenario(stps, dt)
	n1 := model.NewNode(1, "mid", sc1, &model.Channel{Name: "mid", Traveltime: 2, Decay: 0.9, DownstreamIdx: 2, InitWaterflowM3: []float64{0, 0}})

	sc2 := model.NewScenario(stps, dt)
	n2 := model.NewNode(2, "outfall", sc2, &model.Channel{Name: "outfall", DownstreamIdx: 2})

	nodes := []*model.Node{n0, n1, n2}
	for _, n := range nodes {
		if err := n.ResetForRun(); err != nil {
			t.Fatalf("ResetForRun: %v", err)
		}
	}
	return nodes
}

func TestGlobalBalancesAClosedChain(t *testing.T) {
	nodes := buildChain(t, 5)
	for ts := 0; ts < 5; ts++ {
		nodes[0].Scenario.Inflow[ts] = 10
		for _, n := range nodes {
			if err := n.Step(ts, nodes); err != nil {
				t.Fatalf("Step %d on node %s: %v", ts, n.Name, err)
			}
		}
	}

	report, err := Global(nodes)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	if !report.WithinTolerance() {
		t.Errorf("expected a closed chain to balance within tolerance, got residual %v", report.ResidualMm3)
	}
	if err := Check(nodes); err != nil {
		t.Errorf("Check: %v", err)
	}
	if err := PerNode(nodes, 1e-6); err != nil {
		t.Errorf("PerNode: %v", err)
	}
}

func TestPerNodeCatchesAnIndividualNodeImbalance(t *testing.T) {
	nodes := buildChain(t, 3)
	for ts := 0; ts < 3; ts++ {
		nodes[0].Scenario.Inflow[ts] = 10
		for _, n := range nodes {
			if err := n.Step(ts, nodes); err != nil {
				t.Fatalf("Step %d: %v", ts, err)
			}
		}
	}
	// Corrupt node 1's own outflow bookkeeping after the fact, independent
	// of the graph-level wiring Global checks.
	nodes[1].Scenario.TotOutflow[2] += 1000
	if err := PerNode(nodes, 1e-6); err == nil {
		t.Error("expected PerNode to catch the corrupted node's own imbalance")
	}
}

func TestGlobalRejectsNoNodes(t *testing.T) {
	if _, err := Global(nil); err == nil {
		t.Error("expected an error for an empty node slice")
	}
}

func TestGlobalDoesNotDoubleCountUpInflow(t *testing.T) {
	// A single source node with zero external inflow but nonzero UpInflow
	// (as if pushed by an upstream neighbour outside this slice) must not
	// contribute that UpInflow to the external-inflow sum, since it isn't
	// a system boundary input.
	nodes := buildChain(t, 3)
	for ts := 0; ts < 3; ts++ {
		nodes[0].Scenario.UpInflow[ts] = 999 // simulate an external push with no matching Inflow
		for _, n := range nodes {
			if err := n.Step(ts, nodes); err != nil {
				t.Fatalf("Step %d: %v", ts, err)
			}
		}
	}
	report, err := Global(nodes)
	if err != nil {
		t.Fatalf("Global: %v", err)
	}
	// Every UpInflow[t]=999 unit pushed in at node 0 flows straight through
	// to the outfall (source and mid are pass-through/near-lossless), so it
	// must show up in OutgoingMm3 without an equal amount counted in
	// InflowMm3 — if UpInflow were double-counted as external inflow too,
	// the residual would spuriously balance instead of reflecting the
	// missing external-inflow term.
	if report.InflowMm3 != 0 {
		t.Errorf("expected InflowMm3 to ignore UpInflow pushes and stay 0, got %v", report.InflowMm3)
	}
}
