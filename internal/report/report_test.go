package report

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"herss/internal/curve"
	"herss/internal/model"
)

func buildReservoirMatrixTestNodes(t *testing.T) []*model.Node {
	t.Helper()
	levelToVolume, err := curve.New([]float64{0, 50, 100}, []float64{0, 500, 1000})
	if err != nil {
		t.Fatalf("levelToVolume: %v", err)
	}
	volumeToLevel, err := curve.New([]float64{0, 500, 1000}, []float64{0, 50, 100})
	if err != nil {
		t.Fatalf("volumeToLevel: %v", err)
	}
	overflow, err := curve.New([]float64{90, 100}, []float64{0, 200})
	if err != nil {
		t.Fatalf("overflow curve: %v", err)
	}
	r := &model.Reservoir{
		Name: "basin-a", HRW: 100, LRW: 10, ResPenaltyPerHour: 500,
		InitialFraction: 0.5, LevelToVolume: levelToVolume, VolumeToLevel: volumeToLevel,
		OverflowLevelToFlow: overflow, OverflowDownstream: 1,
	}
	sc := model.NewScenario(3, 3600)
	n := model.NewNode(0, "basin-a", sc, r)

	outSc := model.NewScenario(3, 3600)
	out := model.NewNode(1, "outfall", outSc, &model.Channel{Name: "outfall", DownstreamIdx: 1})

	nodes := []*model.Node{n, out}
	for _, node := range nodes {
		if err := node.ResetForRun(); err != nil {
			t.Fatalf("ResetForRun: %v", err)
		}
	}
	for ts := 0; ts < sc.Stps; ts++ {
		sc.Year[ts], sc.Month[ts], sc.Day[ts], sc.Hour[ts] = 2024, 1, 1, ts
		outSc.Year[ts], outSc.Month[ts], outSc.Day[ts], outSc.Hour[ts] = 2024, 1, 1, ts
		for _, node := range nodes {
			if err := node.Step(ts, nodes); err != nil {
				t.Fatalf("Step %d: %v", ts, err)
			}
		}
	}
	return nodes
}

func buildReportTestNodes(t *testing.T) []*model.Node {
	t.Helper()
	sc := model.NewScenario(3, 3600)
	n := model.NewNode(0, "outfall", sc, &model.Channel{Name: "outfall", DownstreamIdx: 0})
	if err := n.ResetForRun(); err != nil {
		t.Fatalf("ResetForRun: %v", err)
	}
	nodes := []*model.Node{n}
	for ts := 0; ts < sc.Stps; ts++ {
		sc.UpInflow[ts] = 5
		sc.Year[ts], sc.Month[ts], sc.Day[ts], sc.Hour[ts] = 2024, 1, 1, ts
		if err := n.Step(ts, nodes); err != nil {
			t.Fatalf("Step %d: %v", ts, err)
		}
	}
	return nodes
}

func TestWriteNodeOutputCreatesOneFilePerNode(t *testing.T) {
	nodes := buildReportTestNodes(t)
	dir := t.TempDir()
	if err := WriteNodeOutput(dir, nodes); err != nil {
		t.Fatalf("WriteNodeOutput: %v", err)
	}
	path := filepath.Join(dir, "0_outfall.txt")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("expected output file %s, got error: %v", path, err)
	}
	if !strings.HasPrefix(string(data), "# t year month day hour") {
		t.Errorf("expected a header comment line, got %q", string(data)[:40])
	}
}

func TestWriteSystemReportIncludesValueFunction(t *testing.T) {
	nodes := buildReportTestNodes(t)
	path := filepath.Join(t.TempDir(), "system.txt")
	if err := WriteSystemReport(path, nodes, 42.5); err != nil {
		t.Fatalf("WriteSystemReport: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if !strings.Contains(string(data), "42.5") {
		t.Errorf("expected the value function to appear in the report, got %q", string(data))
	}
	if !strings.Contains(string(data), "outfall") {
		t.Errorf("expected the node name to appear in the report, got %q", string(data))
	}
}

func TestBuildLedgerCoversEveryTimestep(t *testing.T) {
	nodes := buildReportTestNodes(t)
	rows := BuildLedger(nodes)
	if len(rows) != nodes[0].Scenario.Stps {
		t.Fatalf("expected %d ledger rows, got %d", nodes[0].Scenario.Stps, len(rows))
	}
	for t2, r := range rows {
		if r.Timestep != t2 {
			t.Errorf("row %d: expected timestep %d, got %d", t2, t2, r.Timestep)
		}
		if r.UpInflowM3s != 5 {
			t.Errorf("row %d: expected up_inflow 5, got %v", t2, r.UpInflowM3s)
		}
	}
}

func TestWriteReservoirMatrixIncludesOneColumnPerReservoir(t *testing.T) {
	nodes := buildReservoirMatrixTestNodes(t)
	path := filepath.Join(t.TempDir(), "reservoirs_out.txt")
	if err := WriteReservoirMatrix(path, nodes); err != nil {
		t.Fatalf("WriteReservoirMatrix: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != nodes[0].Scenario.Stps+1 {
		t.Fatalf("expected %d lines (header + %d rows), got %d", nodes[0].Scenario.Stps+1, nodes[0].Scenario.Stps, len(lines))
	}
	if !strings.Contains(lines[0], "basin-a_fraction") {
		t.Errorf("expected a basin-a_fraction column in the header, got %q", lines[0])
	}
	if strings.Contains(lines[0], "outfall") {
		t.Errorf("expected the non-reservoir outfall node to be skipped, got %q", lines[0])
	}
}

func TestWriteReservoirMatrixWithNoReservoirsWritesHeaderOnly(t *testing.T) {
	sc := model.NewScenario(2, 3600)
	n := model.NewNode(0, "outfall", sc, &model.Channel{Name: "outfall", DownstreamIdx: 0})
	if err := n.ResetForRun(); err != nil {
		t.Fatalf("ResetForRun: %v", err)
	}
	path := filepath.Join(t.TempDir(), "reservoirs_out.txt")
	if err := WriteReservoirMatrix(path, []*model.Node{n}); err != nil {
		t.Fatalf("WriteReservoirMatrix: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 1 {
		t.Errorf("expected a single header-only line, got %d lines", len(lines))
	}
}

func TestWriteLedgerCSVRoundTripsRowCount(t *testing.T) {
	nodes := buildReportTestNodes(t)
	rows := BuildLedger(nodes)
	path := filepath.Join(t.TempDir(), "ledger.csv")
	if err := WriteLedgerCSV(path, rows); err != nil {
		t.Fatalf("WriteLedgerCSV: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	// header + one row per timestep
	if len(lines) != len(rows)+1 {
		t.Errorf("expected %d lines (header + %d rows), got %d", len(rows)+1, len(rows), len(lines))
	}
	if !strings.HasPrefix(lines[0], "node_id,node_name,node_kind") {
		t.Errorf("expected a CSV header row, got %q", lines[0])
	}
}
