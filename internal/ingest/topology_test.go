package ingest

import (
	"testing"

	"herss/internal/model"
	"herss/internal/presets"
)

const sampleTopology = `NODE RESERVOIR 0 res
HRW 100
LRW 10
RES_PENALTY 500
INIT_FRACTION 0.5
RESERVOIR_CURVE 3 0 0 50 500 100 1000
OVERFLOW_CURVE 1 2 90 0 100 50
OUTLET_TUNNEL 1
END_NODE
NODE PSTATION 1 ps
DOWNSTREAM 2
TURBINE_CURVE 3 0 0 50 90 100 95
STATIC_GEN_EFFICIENCY 0.98
HEADLOSS_COEF 0.0001
MIN_DISCHARGE 5
MAX_DISCHARGE 50
START_STOP_COST 1000
LOCAL_ENERGY_EQUIVALENT 0.5
MAX_ADJUSTMENTS_PER_DAY -1
END_NODE
NODE CHANNEL 2 outfall
DOWNSTREAM 2
TRAVELTIME 0
DECAY 1
END_NODE
`

func TestReadTopologyFileParsesAllThreeKinds(t *testing.T) {
	path := writeTempFile(t, sampleTopology)
	topo, err := ReadTopologyFile(path)
	if err != nil {
		t.Fatalf("ReadTopologyFile: %v", err)
	}
	if len(topo.Nodes) != 3 {
		t.Fatalf("expected 3 node blocks, got %d", len(topo.Nodes))
	}
	if topo.Nodes[0].kind != "RESERVOIR" || topo.Nodes[1].kind != "PSTATION" || topo.Nodes[2].kind != "CHANNEL" {
		t.Errorf("unexpected kinds: %v %v %v", topo.Nodes[0].kind, topo.Nodes[1].kind, topo.Nodes[2].kind)
	}
	if topo.Nodes[0].hrw != 100 || topo.Nodes[0].lrw != 10 {
		t.Errorf("unexpected reservoir HRW/LRW: %v/%v", topo.Nodes[0].hrw, topo.Nodes[0].lrw)
	}
	if topo.Nodes[1].maxAdjustmentsPerDay != -1 {
		t.Errorf("expected maxAdjustmentsPerDay -1, got %d", topo.Nodes[1].maxAdjustmentsPerDay)
	}
}

func TestReadTopologyFileRejectsUnknownKeyword(t *testing.T) {
	path := writeTempFile(t, `NODE RESERVOIR 0 res
BOGUS_KEYWORD 1
END_NODE
`)
	if _, err := ReadTopologyFile(path); err == nil {
		t.Error("expected an error for an unrecognized keyword inside a node block")
	}
}

func TestReadTopologyFileRejectsUnterminatedBlock(t *testing.T) {
	path := writeTempFile(t, `NODE RESERVOIR 0 res
HRW 100
`)
	if _, err := ReadTopologyFile(path); err == nil {
		t.Error("expected an error for a node block missing END_NODE")
	}
}

func TestTopologyBuildProducesARunnableGraph(t *testing.T) {
	path := writeTempFile(t, sampleTopology)
	topo, err := ReadTopologyFile(path)
	if err != nil {
		t.Fatalf("ReadTopologyFile: %v", err)
	}
	nodes, err := topo.Build(4, 3600)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	if nodes[0].Kind != model.KindReservoir || nodes[1].Kind != model.KindPowerstation || nodes[2].Kind != model.KindChannel {
		t.Errorf("unexpected node kinds: %v %v %v", nodes[0].Kind, nodes[1].Kind, nodes[2].Kind)
	}
	for _, n := range nodes {
		if err := n.ResetForRun(); err != nil {
			t.Fatalf("ResetForRun node %d: %v", n.ID, err)
		}
	}
	for ts := 0; ts < 4; ts++ {
		for _, n := range nodes {
			if err := n.Step(ts, nodes); err != nil {
				t.Fatalf("Step %d on node %d: %v", ts, n.ID, err)
			}
		}
	}
}

func TestTopologyBuildResolvesCurveRefsFromLibrary(t *testing.T) {
	path := writeTempFile(t, `NODE RESERVOIR 0 res
HRW 100
LRW 10
RES_PENALTY 500
INIT_FRACTION 0.5
RESERVOIR_CURVE_REF basin-a
OVERFLOW_CURVE_REF 1 spillway-a
END_NODE
NODE PSTATION 1 ps
DOWNSTREAM 1
TURBINE_CURVE_REF francis-small
STATIC_GEN_EFFICIENCY 0.98
HEADLOSS_COEF 0.0001
MIN_DISCHARGE 5
MAX_DISCHARGE 50
START_STOP_COST 1000
LOCAL_ENERGY_EQUIVALENT 0.5
MAX_ADJUSTMENTS_PER_DAY -1
END_NODE
`)
	topo, err := ReadTopologyFile(path)
	if err != nil {
		t.Fatalf("ReadTopologyFile: %v", err)
	}

	lib := &presets.CurveLibrary{Curves: []presets.Curve{
		{Name: "basin-a", X: []float64{0, 50, 100}, Y: []float64{0, 500, 1000}},
		{Name: "spillway-a", X: []float64{90, 100}, Y: []float64{0, 50}},
		{Name: "francis-small", X: []float64{0, 50, 100}, Y: []float64{0, 90, 95}},
	}}

	nodes, err := topo.Build(2, 3600, lib)
	if err != nil {
		t.Fatalf("Build with curve library: %v", err)
	}
	if nodes[0].Reservoir.LevelToVolume == nil || nodes[1].Powerstation.TurbineEfficiencyCurve == nil {
		t.Fatal("expected curves resolved from the library to be wired into the node variants")
	}
}

func TestTopologyBuildRejectsUnresolvableCurveRef(t *testing.T) {
	path := writeTempFile(t, `NODE RESERVOIR 0 res
HRW 100
LRW 10
RES_PENALTY 500
INIT_FRACTION 0.5
RESERVOIR_CURVE_REF missing-curve
OVERFLOW_CURVE 0 1 90 0
END_NODE
`)
	topo, err := ReadTopologyFile(path)
	if err != nil {
		t.Fatalf("ReadTopologyFile: %v", err)
	}
	if _, err := topo.Build(2, 3600, &presets.CurveLibrary{}); err == nil {
		t.Error("expected an error when a curve ref isn't found in the supplied library")
	}
}

func TestTopologyBuildRejectsOutOfOrderIDs(t *testing.T) {
	path := writeTempFile(t, `NODE RESERVOIR 1 res
HRW 100
LRW 10
RES_PENALTY 500
INIT_FRACTION 0.5
RESERVOIR_CURVE 2 0 0 100 1000
OVERFLOW_CURVE 0 1 90 0
END_NODE
`)
	topo, err := ReadTopologyFile(path)
	if err != nil {
		t.Fatalf("ReadTopologyFile: %v", err)
	}
	if _, err := topo.Build(2, 3600); err == nil {
		t.Error("expected an error when the first node's id isn't 0")
	}
}
