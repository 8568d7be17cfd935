package riversystem

import (
	"testing"

	"herss/internal/curve"
	"herss/internal/model"
)

// buildTestSystem wires a reservoir feeding a powerstation through a
// tunnel, draining into a pass-through outfall channel — the minimal graph
// that exercises a tunnel push, turbine physics, and the outfall used by
// the global water balance check.
func buildTestSystem(t *testing.T, stps int) *RiverSystem {
	t.Helper()
	dt := 3600

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
	eff, err := curve.New([]float64{0, 50, 100}, []float64{0, 90, 95})
	if err != nil {
		t.Fatalf("efficiency curve: %v", err)
	}

	reservoir := &model.Reservoir{
		Name:                "res",
		HRW:                 100,
		LRW:                 10,
		ResPenaltyPerHour:   500,
		InitialFraction:     0.5,
		LevelToVolume:       levelToVolume,
		VolumeToLevel:       volumeToLevel,
		OverflowLevelToFlow: overflow,
		OverflowDownstream:  2,
		TunnelInUse:         true,
		TunnelDownstream:    1,
	}
	resSc := model.NewScenario(stps, dt)
	resNode := model.NewNode(0, "res", resSc, reservoir)

	ps := &model.Powerstation{
		Name:                   "ps",
		DownstreamIdx:          2,
		TurbineEfficiencyCurve: eff,
		StaticGenEfficiency:    0.98,
		HeadlossCoef:           0.0001,
		MinDischarge:           5,
		MaxDischarge:           50,
		StartStopCost:          1000,
		LocalEnergyEquivalent:  0.5,
		MaxAdjustmentsPerDay:   -1,
	}
	psSc := model.NewScenario(stps, dt)
	psNode := model.NewNode(1, "ps", psSc, ps)

	outfall := &model.Channel{Name: "outfall", DownstreamIdx: 2}
	outSc := model.NewScenario(stps, dt)
	outNode := model.NewNode(2, "outfall", outSc, outfall)

	for t := 0; t < stps; t++ {
		psSc.Action[t] = 0.6
		psSc.Price[t] = 30
	}

	rs, err := New([]*model.Node{resNode, psNode, outNode}, 20)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return rs
}

func TestSimulateRunsWithoutError(t *testing.T) {
	rs := buildTestSystem(t, 6)
	if err := rs.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	psNode, _ := rs.NodeByID(1)
	var totalPower float64
	for _, p := range psNode.Scenario.PowerMWh {
		totalPower += p
	}
	if totalPower <= 0 {
		t.Errorf("expected nonzero total power generated, got %v", totalPower)
	}
}

func TestSimulateIsOrderIndependentAcrossRuns(t *testing.T) {
	rs := buildTestSystem(t, 4)
	if err := rs.Simulate(); err != nil {
		t.Fatalf("first Simulate: %v", err)
	}
	first := rs.CalcValueFunction()

	if err := rs.Simulate(); err != nil {
		t.Fatalf("second Simulate: %v", err)
	}
	second := rs.CalcValueFunction()

	if first != second {
		t.Errorf("expected identical value function across repeated runs of the same inputs, got %v vs %v", first, second)
	}
}

func TestCheckWaterBalancePasses(t *testing.T) {
	rs := buildTestSystem(t, 6)
	if err := rs.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	if err := rs.CheckWaterBalance(1e-6); err != nil {
		t.Errorf("expected per-node water balance to hold, got %v", err)
	}
}

func TestSetAndGetActionRoundTrip(t *testing.T) {
	rs := buildTestSystem(t, 4)
	if err := rs.SetAction(1, 2, 0.75); err != nil {
		t.Fatalf("SetAction: %v", err)
	}
	got, err := rs.GetAction(1, 2)
	if err != nil {
		t.Fatalf("GetAction: %v", err)
	}
	if got != 0.75 {
		t.Errorf("expected action 0.75, got %v", got)
	}
}

func TestSetReservoirInitialFractionRejectsNonReservoir(t *testing.T) {
	rs := buildTestSystem(t, 4)
	if err := rs.SetReservoirInitialFraction(1, 0.5); err == nil {
		t.Error("expected an error setting initial fraction on a non-reservoir node")
	}
}

func TestNewRejectsEmptyOrMisorderedNodes(t *testing.T) {
	if _, err := New(nil, 10); err == nil {
		t.Error("expected an error constructing a RiverSystem with no nodes")
	}

	sc := model.NewScenario(2, 3600)
	bad := model.NewNode(5, "bad", sc, &model.Channel{Name: "bad", DownstreamIdx: 0})
	if _, err := New([]*model.Node{bad}, 10); err == nil {
		t.Error("expected an error when a node's id doesn't match its slice index")
	}
}

func TestCalcValueFunctionIncludesRemainingWater(t *testing.T) {
	rs := buildTestSystem(t, 4)
	if err := rs.Simulate(); err != nil {
		t.Fatalf("Simulate: %v", err)
	}
	vf := rs.CalcValueFunction()

	var totalProfit float64
	for _, n := range rs.Nodes {
		for t := 0; t < n.Scenario.Stps; t++ {
			totalProfit += n.Scenario.Profit[t]
		}
	}
	psNode, _ := rs.NodeByID(1)
	wantVF := totalProfit + psNode.Powerstation.LocalEnergyEquivalent*psNode.UpstreamRemainingAvailableMm3*1e6/1e3*rs.RestPrice

	if diff := vf - wantVF; diff > 1e-9 || diff < -1e-9 {
		t.Errorf("expected value function %v (profit + remaining water term), got %v", wantVF, vf)
	}
}
