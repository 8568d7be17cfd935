package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"herss/internal/ingest"
	"herss/internal/report"
	"herss/internal/runconfig"
	"herss/internal/waterbalance"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	switch os.Args[1] {
	case "simulate":
		cmdSimulate(os.Args[2:])
	case "diagnose":
		cmdDiagnose(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("usage:")
	fmt.Println("  cli simulate --config examples/run.yaml --out results/")
	fmt.Println("  cli diagnose --config examples/run.yaml")
	fmt.Println("")
	fmt.Println("notes:")
	fmt.Println("  - simulate runs the full horizon, writes per-node text output plus a ledger.csv, and checks the global water balance")
	fmt.Println("  - diagnose parses every input file and reports node/timestep counts without running the simulation")
}

func cmdSimulate(args []string) {
	fs := flag.NewFlagSet("simulate", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to run config YAML")
	outDir := fs.String("out", "results", "Output directory")
	skipBalance := fs.Bool("skip-balance-check", false, "Skip the global water balance check")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}

	cfg, err := runconfig.Load(*cfgPath)
	if err != nil {
		fail(err)
	}

	rs, err := ingest.LoadRiverSystem(cfg)
	if err != nil {
		fail(err)
	}

	if err := rs.Simulate(); err != nil {
		fail(err)
	}

	if !*skipBalance {
		if err := waterbalance.PerNode(rs.Nodes, 1e-4); err != nil {
			fail(err)
		}
		if err := waterbalance.Check(rs.Nodes); err != nil {
			fail(err)
		}
	}

	if err := os.MkdirAll(*outDir, 0o755); err != nil {
		fail(err)
	}
	if err := report.WriteNodeOutput(*outDir, rs.Nodes); err != nil {
		fail(err)
	}

	vf := rs.CalcValueFunction()
	if err := report.WriteSystemReport(filepath.Join(*outDir, fmt.Sprintf("riversystem_%s_output.txt", cfg.SystemName)), rs.Nodes, vf); err != nil {
		fail(err)
	}

	ledger := report.BuildLedger(rs.Nodes)
	if err := report.WriteLedgerCSV(filepath.Join(*outDir, "ledger.csv"), ledger); err != nil {
		fail(err)
	}

	reservoirMatrixPath := filepath.Join(*outDir, fmt.Sprintf("reservoirs_%s_out.txt", cfg.SystemName))
	if err := report.WriteReservoirMatrix(reservoirMatrixPath, rs.Nodes); err != nil {
		fail(err)
	}

	if err := ingest.WriteOutState(cfg, rs.Nodes); err != nil {
		fail(err)
	}

	fmt.Printf("Simulated %d nodes, %d timesteps. Value function = %.2f\n", len(rs.Nodes), rs.Nodes[0].Scenario.Stps, vf)
	fmt.Printf("Wrote output to %s\n", *outDir)
}

func cmdDiagnose(args []string) {
	fs := flag.NewFlagSet("diagnose", flag.ExitOnError)
	cfgPath := fs.String("config", "", "Path to run config YAML")
	_ = fs.Parse(args)

	if *cfgPath == "" {
		fmt.Println("--config is required")
		os.Exit(2)
	}

	cfg, err := runconfig.Load(*cfgPath)
	if err != nil {
		fail(err)
	}

	report, err := ingest.Diagnose(cfg)
	if err != nil {
		fail(err)
	}
	fmt.Println(report.String())
}

func fail(err error) {
	fmt.Fprintln(os.Stderr, "error:", err)
	os.Exit(1)
}
