package ingest

import (
	"fmt"

	"herss/internal/runconfig"
)

// DiagnosticReport summarizes a run's input files without building a full
// node graph: node counts by kind, declared timestep count, and which node
// ids the inflow/action files actually cover. Intended for a CLI
// "diagnose" subcommand that sanity-checks a dataset before a potentially
// long simulation run, mirroring GlobalConfig::Diagnose/checkNrSteps.
type DiagnosticReport struct {
	Stps int

	NrReservoirs   int
	NrChannels     int
	NrPowerstations int

	InflowNodeIDs []int
	ActionNodeIDs []int
}

// Diagnose performs a lightweight pre-flight check of every file a run
// config names, returning a human-readable summary and a non-nil error on
// the first structural problem found (missing file, malformed header,
// inconsistent node ordering).
func Diagnose(cfg *runconfig.Config) (*DiagnosticReport, error) {
	prices, err := ReadPriceFile(cfg.PriceFile)
	if err != nil {
		return nil, fmt.Errorf("diagnose: %w", err)
	}

	topology, err := ReadTopologyFile(cfg.TopologyFile)
	if err != nil {
		return nil, fmt.Errorf("diagnose: %w", err)
	}

	report := &DiagnosticReport{Stps: len(prices.Price)}
	for i, nb := range topology.Nodes {
		if nb.id != i {
			return nil, fmt.Errorf("diagnose: node %q declares id %d at file position %d, ids must ascend in file order", nb.name, nb.id, i)
		}
		switch nb.kind {
		case "RESERVOIR":
			report.NrReservoirs++
		case "CHANNEL":
			report.NrChannels++
		case "PSTATION":
			report.NrPowerstations++
		}
	}

	inflow, err := ReadInflowFile(cfg.InflowFile)
	if err != nil {
		return nil, fmt.Errorf("diagnose: %w", err)
	}
	report.InflowNodeIDs = inflow.NodeIDs
	if inflow.Stps() != report.Stps {
		return nil, newParseError(cfg.InflowFile, 0, fmt.Errorf("diagnose: inflow file has %d timesteps, price file has %d", inflow.Stps(), report.Stps))
	}

	action, err := ReadActionFile(cfg.ActionFile)
	if err != nil {
		return nil, fmt.Errorf("diagnose: %w", err)
	}
	report.ActionNodeIDs = action.NodeIDs
	if action.Stps() != report.Stps {
		return nil, newParseError(cfg.ActionFile, 0, fmt.Errorf("diagnose: action file has %d timesteps, price file has %d", action.Stps(), report.Stps))
	}

	return report, nil
}

func (r *DiagnosticReport) String() string {
	return fmt.Sprintf("stps=%d reservoirs=%d channels=%d powerstations=%d inflow_nodes=%v action_nodes=%v",
		r.Stps, r.NrReservoirs, r.NrChannels, r.NrPowerstations, r.InflowNodeIDs, r.ActionNodeIDs)
}
