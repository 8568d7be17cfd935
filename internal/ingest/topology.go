package ingest

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"herss/internal/curve"
	"herss/internal/model"
	"herss/internal/presets"
	"herss/internal/qmin"
)

// Topology is the parsed, not-yet-wired contents of a topology file: one
// entry per NODE block, in file order. File order is required to already
// be topological (every downstream idnr greater than its own), the same
// requirement the original placed on node ordering implicitly by assigning
// idnrs in a strictly increasing pass over the file.
type Topology struct {
	Nodes []*nodeBlock
}

type nodeBlock struct {
	id   int
	name string
	kind string // "RESERVOIR", "CHANNEL", "PSTATION"

	// Reservoir fields.
	hrw, lrw, resPenaltyPerHour float64
	initFraction                float64
	reservoirCurveMasl, reservoirCurveMm3 []float64
	reservoirCurveRef string
	overflowDownstream int
	overflowCurveMasl, overflowCurveM3s []float64
	overflowCurveRef string

	hatchInUse                bool
	hatchDownstream           int
	hatchMinQ, hatchMaxQ, hatchMasl float64

	tunnelInUse      bool
	tunnelDownstream int

	autoQminInUse      bool
	autoQminDownstream int
	autoQminPeriods    []qmin.Period

	// Channel fields.
	traveltime      int
	decay           float64
	channelDownstream int
	channelQminInUse bool
	channelQminPeriods []qmin.Period
	initWaterflowM3 []float64

	// Powerstation fields.
	psDownstream           int
	turbineCurveQ, turbineCurveEff []float64
	turbineCurveRef        string
	staticGenEfficiency    float64
	headlossCoef           float64
	powstatMasl            float64
	minDischarge, maxDischarge float64
	autoQmin               float64
	startStopCost          float64
	localEnergyEquivalent  float64
	maxAdjustmentsPerDay   int
	adjustmentPenalty      float64
	initPowerMWh           float64
}

// ReadTopologyFile parses the full topology file into raw per-node blocks.
func ReadTopologyFile(path string) (*Topology, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, newParseError(path, 0, fmt.Errorf("open topology file: %w", err))
	}
	defer f.Close()

	lr := newLineReader(f)
	top := &Topology{}

	fields, err := lr.next()
	for err == nil {
		if fields[0] != "NODE" {
			return nil, newParseError(path, lr.lineNo, fmt.Errorf("expected NODE, got %q", fields[0]))
		}
		kind, ferr := field(fields, 1, lr.lineNo, "NODE kind")
		if ferr != nil {
			return nil, ferr
		}
		idStr, ferr := field(fields, 2, lr.lineNo, "NODE id")
		if ferr != nil {
			return nil, ferr
		}
		id, aerr := strconv.Atoi(idStr)
		if aerr != nil {
			return nil, fmt.Errorf("ingest: topology file %s: line %d: bad node id %q: %w", path, lr.lineNo, idStr, aerr)
		}
		name := ""
		if len(fields) > 3 {
			name = fields[3]
		}

		nb := &nodeBlock{id: id, name: name, kind: kind}
		switch kind {
		case "RESERVOIR":
			err = parseReservoirBlock(lr, nb)
		case "CHANNEL":
			err = parseChannelBlock(lr, nb)
		case "PSTATION":
			err = parsePowerstationBlock(lr, nb)
		default:
			err = newParseError(path, lr.lineNo, fmt.Errorf("unknown node kind %q", kind))
		}
		if err != nil {
			return nil, err
		}
		top.Nodes = append(top.Nodes, nb)

		fields, err = lr.next()
	}
	if err != io.EOF {
		return nil, err
	}
	return top, nil
}

// readPointList consumes "<n> <x0> <y0> <x1> <y1> ..." from a single
// already-tokenized line.
func readPointList(fields []string, start int, lineNo int, context string) ([]float64, []float64, error) {
	nStr, err := field(fields, start, lineNo, context+" count")
	if err != nil {
		return nil, nil, err
	}
	n, err := strconv.Atoi(nStr)
	if err != nil {
		return nil, nil, fmt.Errorf("ingest: %s: line %d: bad point count %q: %w", context, lineNo, nStr, err)
	}
	xs := make([]float64, n)
	ys := make([]float64, n)
	for i := 0; i < n; i++ {
		xStr, err := field(fields, start+1+2*i, lineNo, context+" x")
		if err != nil {
			return nil, nil, err
		}
		yStr, err := field(fields, start+2+2*i, lineNo, context+" y")
		if err != nil {
			return nil, nil, err
		}
		xs[i], err = strconv.ParseFloat(xStr, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("ingest: %s: line %d: bad x %q: %w", context, lineNo, xStr, err)
		}
		ys[i], err = strconv.ParseFloat(yStr, 64)
		if err != nil {
			return nil, nil, fmt.Errorf("ingest: %s: line %d: bad y %q: %w", context, lineNo, yStr, err)
		}
	}
	return xs, ys, nil
}

func readQminPeriods(fields []string, start int, lineNo int, context string) ([]qmin.Period, error) {
	nStr, err := field(fields, start, lineNo, context+" count")
	if err != nil {
		return nil, err
	}
	n, err := strconv.Atoi(nStr)
	if err != nil {
		return nil, fmt.Errorf("ingest: %s: line %d: bad period count %q: %w", context, lineNo, nStr, err)
	}
	periods := make([]qmin.Period, n)
	idx := start + 1
	for i := 0; i < n; i++ {
		vals := make([]float64, 6)
		raw := make([]string, 6)
		for j := 0; j < 6; j++ {
			raw[j], err = field(fields, idx, lineNo, context+" period field")
			if err != nil {
				return nil, err
			}
			idx++
		}
		for j, s := range raw {
			vals[j], err = strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("ingest: %s: line %d: bad value %q: %w", context, lineNo, s, err)
			}
		}
		periods[i] = qmin.Period{
			StartMonth: int(vals[0]), StartDay: int(vals[1]),
			EndMonth: int(vals[2]), EndDay: int(vals[3]),
			MinDischargeM3s: vals[4], PenaltyCostPerHour: vals[5],
		}
	}
	return periods, nil
}

func parseReservoirBlock(lr *lineReader, nb *nodeBlock) error {
	for {
		fields, err := lr.next()
		if err != nil {
			return fmt.Errorf("ingest: reservoir %d: %w", nb.id, err)
		}
		switch fields[0] {
		case "END_NODE":
			return nil
		case "HRW":
			nb.hrw, err = parseField(fields, 1, lr.lineNo, "HRW")
		case "LRW":
			nb.lrw, err = parseField(fields, 1, lr.lineNo, "LRW")
		case "RES_PENALTY":
			nb.resPenaltyPerHour, err = parseField(fields, 1, lr.lineNo, "RES_PENALTY")
		case "INIT_FRACTION":
			nb.initFraction, err = parseField(fields, 1, lr.lineNo, "INIT_FRACTION")
		case "RESERVOIR_CURVE":
			nb.reservoirCurveMasl, nb.reservoirCurveMm3, err = readPointList(fields, 1, lr.lineNo, "RESERVOIR_CURVE")
		case "RESERVOIR_CURVE_REF":
			nb.reservoirCurveRef, err = field(fields, 1, lr.lineNo, "RESERVOIR_CURVE_REF")
		case "OVERFLOW_CURVE":
			var ds string
			ds, err = field(fields, 1, lr.lineNo, "OVERFLOW_CURVE downstream")
			if err == nil {
				nb.overflowDownstream, err = strconv.Atoi(ds)
			}
			if err == nil {
				nb.overflowCurveMasl, nb.overflowCurveM3s, err = readPointList(fields, 2, lr.lineNo, "OVERFLOW_CURVE")
			}
		case "OVERFLOW_CURVE_REF":
			var ds string
			ds, err = field(fields, 1, lr.lineNo, "OVERFLOW_CURVE_REF downstream")
			if err == nil {
				nb.overflowDownstream, err = strconv.Atoi(ds)
			}
			if err == nil {
				nb.overflowCurveRef, err = field(fields, 2, lr.lineNo, "OVERFLOW_CURVE_REF name")
			}
		case "OUTLET_HATCH":
			nb.hatchInUse = true
			err = parseFields(fields, lr.lineNo, "OUTLET_HATCH", &nb.hatchDownstream, &nb.hatchMinQ, &nb.hatchMaxQ, &nb.hatchMasl)
		case "OUTLET_TUNNEL":
			nb.tunnelInUse = true
			var ds string
			ds, err = field(fields, 1, lr.lineNo, "OUTLET_TUNNEL downstream")
			if err == nil {
				nb.tunnelDownstream, err = strconv.Atoi(ds)
			}
		case "OUTLET_AUTO_QMIN":
			nb.autoQminInUse = true
			var ds string
			ds, err = field(fields, 1, lr.lineNo, "OUTLET_AUTO_QMIN downstream")
			if err == nil {
				nb.autoQminDownstream, err = strconv.Atoi(ds)
			}
			if err == nil {
				nb.autoQminPeriods, err = readQminPeriods(fields, 2, lr.lineNo, "OUTLET_AUTO_QMIN")
			}
		default:
			err = fmt.Errorf("ingest: reservoir %d: line %d: unknown keyword %q", nb.id, lr.lineNo, fields[0])
		}
		if err != nil {
			return err
		}
	}
}

func parseChannelBlock(lr *lineReader, nb *nodeBlock) error {
	for {
		fields, err := lr.next()
		if err != nil {
			return fmt.Errorf("ingest: channel %d: %w", nb.id, err)
		}
		switch fields[0] {
		case "END_NODE":
			return nil
		case "TRAVELTIME":
			var s string
			s, err = field(fields, 1, lr.lineNo, "TRAVELTIME")
			if err == nil {
				nb.traveltime, err = strconv.Atoi(s)
			}
		case "DECAY":
			nb.decay, err = parseField(fields, 1, lr.lineNo, "DECAY")
		case "DOWNSTREAM":
			var s string
			s, err = field(fields, 1, lr.lineNo, "DOWNSTREAM")
			if err == nil {
				nb.channelDownstream, err = strconv.Atoi(s)
			}
		case "QMIN":
			nb.channelQminInUse = true
			nb.channelQminPeriods, err = readQminPeriods(fields, 1, lr.lineNo, "QMIN")
		case "INIT_WATERFLOW":
			nb.initWaterflowM3 = make([]float64, len(fields)-1)
			for i, s := range fields[1:] {
				nb.initWaterflowM3[i], err = strconv.ParseFloat(s, 64)
				if err != nil {
					break
				}
			}
		default:
			err = fmt.Errorf("ingest: channel %d: line %d: unknown keyword %q", nb.id, lr.lineNo, fields[0])
		}
		if err != nil {
			return err
		}
	}
}

func parsePowerstationBlock(lr *lineReader, nb *nodeBlock) error {
	for {
		fields, err := lr.next()
		if err != nil {
			return fmt.Errorf("ingest: powerstation %d: %w", nb.id, err)
		}
		switch fields[0] {
		case "END_NODE":
			return nil
		case "DOWNSTREAM":
			var s string
			s, err = field(fields, 1, lr.lineNo, "DOWNSTREAM")
			if err == nil {
				nb.psDownstream, err = strconv.Atoi(s)
			}
		case "TURBINE_CURVE":
			nb.turbineCurveQ, nb.turbineCurveEff, err = readPointList(fields, 1, lr.lineNo, "TURBINE_CURVE")
		case "TURBINE_CURVE_REF":
			nb.turbineCurveRef, err = field(fields, 1, lr.lineNo, "TURBINE_CURVE_REF")
		case "STATIC_GEN_EFFICIENCY":
			nb.staticGenEfficiency, err = parseField(fields, 1, lr.lineNo, "STATIC_GEN_EFFICIENCY")
		case "HEADLOSS_COEF":
			nb.headlossCoef, err = parseField(fields, 1, lr.lineNo, "HEADLOSS_COEF")
		case "POWSTAT_MASL":
			nb.powstatMasl, err = parseField(fields, 1, lr.lineNo, "POWSTAT_MASL")
		case "MIN_DISCHARGE":
			nb.minDischarge, err = parseField(fields, 1, lr.lineNo, "MIN_DISCHARGE")
		case "MAX_DISCHARGE":
			nb.maxDischarge, err = parseField(fields, 1, lr.lineNo, "MAX_DISCHARGE")
		case "AUTO_QMIN":
			nb.autoQmin, err = parseField(fields, 1, lr.lineNo, "AUTO_QMIN")
		case "START_STOP_COST":
			nb.startStopCost, err = parseField(fields, 1, lr.lineNo, "START_STOP_COST")
		case "LOCAL_ENERGY_EQUIVALENT":
			nb.localEnergyEquivalent, err = parseField(fields, 1, lr.lineNo, "LOCAL_ENERGY_EQUIVALENT")
		case "MAX_ADJUSTMENTS_PER_DAY":
			var s string
			s, err = field(fields, 1, lr.lineNo, "MAX_ADJUSTMENTS_PER_DAY")
			if err == nil {
				nb.maxAdjustmentsPerDay, err = strconv.Atoi(s)
			}
		case "ADJUSTMENT_PENALTY":
			nb.adjustmentPenalty, err = parseField(fields, 1, lr.lineNo, "ADJUSTMENT_PENALTY")
		case "INIT_POWER":
			nb.initPowerMWh, err = parseField(fields, 1, lr.lineNo, "INIT_POWER")
		default:
			err = fmt.Errorf("ingest: powerstation %d: line %d: unknown keyword %q", nb.id, lr.lineNo, fields[0])
		}
		if err != nil {
			return err
		}
	}
}

// parseFields fills dests in order from fields[1:], dispatching on each
// dest's pointer type (*int or *float64). Small helper to avoid repeating
// the same "parse N positional fields of known type" boilerplate across
// outlet keyword lines.
func parseFields(fields []string, lineNo int, context string, dests ...interface{}) error {
	for i, d := range dests {
		s, err := field(fields, i+1, lineNo, context)
		if err != nil {
			return err
		}
		switch v := d.(type) {
		case *int:
			n, err := strconv.Atoi(s)
			if err != nil {
				return fmt.Errorf("ingest: %s: line %d: bad int %q: %w", context, lineNo, s, err)
			}
			*v = n
		case *float64:
			n, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return fmt.Errorf("ingest: %s: line %d: bad float %q: %w", context, lineNo, s, err)
			}
			*v = n
		}
	}
	return nil
}

// Build converts the parsed topology into a runnable node graph: curve
// construction, qmin schedules, and downstream index resolution. stps and
// dtSeconds size every node's Scenario. lib is optional (pass none, or a
// single *presets.CurveLibrary) and is only consulted when a node block uses
// a _REF keyword instead of inlining its curve's points.
func (t *Topology) Build(stps, dtSeconds int, lib ...*presets.CurveLibrary) ([]*model.Node, error) {
	var curveLib *presets.CurveLibrary
	if len(lib) > 0 {
		curveLib = lib[0]
	}
	nodes := make([]*model.Node, len(t.Nodes))
	for i, nb := range t.Nodes {
		if nb.id != i {
			return nil, fmt.Errorf("ingest: topology: node %q declares id %d but is at file position %d; topology must list nodes in ascending id order", nb.name, nb.id, i)
		}
		sc := model.NewScenario(stps, dtSeconds)

		var variant interface{}
		var err error
		switch nb.kind {
		case "RESERVOIR":
			variant, err = buildReservoir(nb, curveLib)
		case "CHANNEL":
			variant, err = buildChannel(nb)
		case "PSTATION":
			variant, err = buildPowerstation(nb, curveLib)
		default:
			err = fmt.Errorf("unknown node kind %q", nb.kind)
		}
		if err != nil {
			return nil, fmt.Errorf("ingest: building node %d (%s): %w", nb.id, nb.name, err)
		}
		nodes[i] = model.NewNode(nb.id, nb.name, sc, variant)
	}
	return nodes, nil
}

// resolveCurveRef looks up a named curve in lib, erroring if the node block
// referenced one but no library was supplied or the name isn't in it.
func resolveCurveRef(lib *presets.CurveLibrary, ref, context string) ([]float64, []float64, error) {
	if lib == nil {
		return nil, nil, fmt.Errorf("%s: references curve %q but no curve library was supplied", context, ref)
	}
	c, ok := lib.ByName(ref)
	if !ok {
		return nil, nil, fmt.Errorf("%s: curve %q not found in curve library", context, ref)
	}
	return c.X, c.Y, nil
}

func buildReservoir(nb *nodeBlock, lib *presets.CurveLibrary) (*model.Reservoir, error) {
	reservoirMasl, reservoirMm3 := nb.reservoirCurveMasl, nb.reservoirCurveMm3
	if nb.reservoirCurveRef != "" {
		var err error
		reservoirMasl, reservoirMm3, err = resolveCurveRef(lib, nb.reservoirCurveRef, "reservoir curve")
		if err != nil {
			return nil, err
		}
	}
	overflowMasl, overflowM3s := nb.overflowCurveMasl, nb.overflowCurveM3s
	if nb.overflowCurveRef != "" {
		var err error
		overflowMasl, overflowM3s, err = resolveCurveRef(lib, nb.overflowCurveRef, "overflow curve")
		if err != nil {
			return nil, err
		}
	}

	levelToVolume, err := curve.New(reservoirMasl, reservoirMm3)
	if err != nil {
		return nil, fmt.Errorf("reservoir curve (level->volume): %w", err)
	}
	volumeToLevel, err := curve.New(reservoirMm3, reservoirMasl)
	if err != nil {
		return nil, fmt.Errorf("reservoir curve (volume->level), requires strictly ascending volumes: %w", err)
	}
	overflowCurve, err := curve.New(overflowMasl, overflowM3s)
	if err != nil {
		return nil, fmt.Errorf("overflow curve: %w", err)
	}

	r := &model.Reservoir{
		Name:                nb.name,
		HRW:                 nb.hrw,
		LRW:                 nb.lrw,
		ResPenaltyPerHour:   nb.resPenaltyPerHour,
		InitialFraction:     nb.initFraction,
		LevelToVolume:       levelToVolume,
		VolumeToLevel:       volumeToLevel,
		OverflowLevelToFlow: overflowCurve,
		OverflowDownstream:  nb.overflowDownstream,
		HatchInUse:          nb.hatchInUse,
		HatchDownstream:     nb.hatchDownstream,
		HatchMinQ:           nb.hatchMinQ,
		HatchMaxQ:           nb.hatchMaxQ,
		HatchMasl:           nb.hatchMasl,
		TunnelInUse:         nb.tunnelInUse,
		TunnelDownstream:    nb.tunnelDownstream,
		AutoQminInUse:       nb.autoQminInUse,
		AutoQminDownstream:  nb.autoQminDownstream,
	}
	if nb.autoQminInUse {
		sched, err := qmin.NewSchedule(nb.autoQminPeriods)
		if err != nil {
			return nil, fmt.Errorf("auto-qmin schedule: %w", err)
		}
		r.AutoQminSchedule = sched
	}
	return r, nil
}

func buildChannel(nb *nodeBlock) (*model.Channel, error) {
	if nb.traveltime != len(nb.initWaterflowM3) && nb.traveltime != 0 {
		return nil, fmt.Errorf("channel: TRAVELTIME %d but INIT_WATERFLOW has %d values", nb.traveltime, len(nb.initWaterflowM3))
	}
	c := &model.Channel{
		Name:            nb.name,
		Traveltime:      nb.traveltime,
		Decay:           nb.decay,
		DownstreamIdx:   nb.channelDownstream,
		QminInUse:       nb.channelQminInUse,
		InitWaterflowM3: nb.initWaterflowM3,
	}
	if nb.channelQminInUse {
		sched, err := qmin.NewSchedule(nb.channelQminPeriods)
		if err != nil {
			return nil, fmt.Errorf("channel qmin schedule: %w", err)
		}
		c.QminSchedule = sched
	}
	return c, nil
}

func buildPowerstation(nb *nodeBlock, lib *presets.CurveLibrary) (*model.Powerstation, error) {
	turbineQ, turbineEff := nb.turbineCurveQ, nb.turbineCurveEff
	if nb.turbineCurveRef != "" {
		var err error
		turbineQ, turbineEff, err = resolveCurveRef(lib, nb.turbineCurveRef, "turbine efficiency curve")
		if err != nil {
			return nil, err
		}
	}
	turbineCurve, err := curve.New(turbineQ, turbineEff)
	if err != nil {
		return nil, fmt.Errorf("turbine efficiency curve: %w", err)
	}
	return &model.Powerstation{
		Name:                   nb.name,
		DownstreamIdx:          nb.psDownstream,
		TurbineEfficiencyCurve: turbineCurve,
		StaticGenEfficiency:    nb.staticGenEfficiency,
		HeadlossCoef:           nb.headlossCoef,
		PowstatMasl:            nb.powstatMasl,
		MinDischarge:           nb.minDischarge,
		MaxDischarge:           nb.maxDischarge,
		AutoQmin:               nb.autoQmin,
		StartStopCost:          nb.startStopCost,
		LocalEnergyEquivalent:  nb.localEnergyEquivalent,
		MaxAdjustmentsPerDay:   nb.maxAdjustmentsPerDay,
		AdjustmentPenalty:      nb.adjustmentPenalty,
		InitPowerMWh:           nb.initPowerMWh,
	}, nil
}
