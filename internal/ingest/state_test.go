package ingest

import (
	"path/filepath"
	"testing"

	"herss/internal/curve"
	"herss/internal/model"
)

func buildStateTestNodes(t *testing.T) []*model.Node {
	t.Helper()
	levelToVolume, err := curve.New([]float64{0, 50, 100}, []float64{0, 500, 1000})
	if err != nil {
		t.Fatalf("levelToVolume: %v", err)
	}
	volumeToLevel, err := curve.New([]float64{0, 500, 1000}, []float64{0, 50, 100})
	if err != nil {
		t.Fatalf("volumeToLevel: %v", err)
	}
	overflow, err := curve.New([]float64{90, 100}, []float64{0, 50})
	if err != nil {
		t.Fatalf("overflow curve: %v", err)
	}
	r := &model.Reservoir{
		Name: "res", HRW: 100, LRW: 10, ResPenaltyPerHour: 500,
		InitialFraction: 0.2, LevelToVolume: levelToVolume, VolumeToLevel: volumeToLevel,
		OverflowLevelToFlow: overflow, OverflowDownstream: 1,
	}
	resSc := model.NewScenario(2, 3600)
	resNode := model.NewNode(0, "res", resSc, r)

	c := &model.Channel{Name: "outfall", DownstreamIdx: 1}
	outSc := model.NewScenario(2, 3600)
	outNode := model.NewNode(1, "outfall", outSc, c)

	return []*model.Node{resNode, outNode}
}

func TestReadStateFileParsesReservoirAndChannelLines(t *testing.T) {
	path := writeTempFile(t, `NODE RESERVOIR 0 res 0.75
NODE CHANNEL 1 mid 10.5 20.25
`)
	st, err := ReadStateFile(path)
	if err != nil {
		t.Fatalf("ReadStateFile: %v", err)
	}
	if st.ReservoirFraction[0] != 0.75 {
		t.Errorf("expected reservoir 0 fraction 0.75, got %v", st.ReservoirFraction[0])
	}
	if len(st.ChannelWaterflow[1]) != 2 || st.ChannelWaterflow[1][1] != 20.25 {
		t.Errorf("unexpected channel 1 cells: %v", st.ChannelWaterflow[1])
	}
}

func TestStateApplyOverridesInitialFraction(t *testing.T) {
	nodes := buildStateTestNodes(t)
	st := &State{ReservoirFraction: map[int]float64{0: 0.9}, ChannelWaterflow: map[int][]float64{}}
	st.Apply(nodes)
	if nodes[0].Reservoir.InitialFraction != 0.9 {
		t.Errorf("expected InitialFraction overridden to 0.9, got %v", nodes[0].Reservoir.InitialFraction)
	}
}

func TestWriteStateFileRoundTripsReservoirFraction(t *testing.T) {
	nodes := buildStateTestNodes(t)
	for _, n := range nodes {
		if err := n.ResetForRun(); err != nil {
			t.Fatalf("ResetForRun: %v", err)
		}
	}
	for ts := 0; ts < 2; ts++ {
		for _, n := range nodes {
			if err := n.Step(ts, nodes); err != nil {
				t.Fatalf("Step %d: %v", ts, err)
			}
		}
	}
	path := filepath.Join(t.TempDir(), "state_out.txt")
	if err := WriteStateFile(path, nodes); err != nil {
		t.Fatalf("WriteStateFile: %v", err)
	}
	st, err := ReadStateFile(path)
	if err != nil {
		t.Fatalf("ReadStateFile: %v", err)
	}
	if _, ok := st.ReservoirFraction[0]; !ok {
		t.Error("expected a reservoir fraction line for node 0 in the written state file")
	}
}
