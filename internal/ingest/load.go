package ingest

import (
	"fmt"

	"herss/internal/model"
	"herss/internal/presets"
	"herss/internal/riversystem"
	"herss/internal/runconfig"
)

// LoadRiverSystem reads every file a run config names and assembles a
// ready-to-simulate RiverSystem: topology defines the graph shape and
// curves, the price file defines the horizon length and supplies the
// common timestamp/price series every node's Scenario is seeded with, and
// the inflow/action files overlay per-node, per-timestep values onto
// whichever node ids they declare in their headers.
func LoadRiverSystem(cfg *runconfig.Config) (*riversystem.RiverSystem, error) {
	prices, err := ReadPriceFile(cfg.PriceFile)
	if err != nil {
		return nil, err
	}
	stps := len(prices.Price)
	if stps == 0 {
		return nil, fmt.Errorf("ingest: price file %s declares zero timesteps", cfg.PriceFile)
	}

	topology, err := ReadTopologyFile(cfg.TopologyFile)
	if err != nil {
		return nil, err
	}

	var curveLib *presets.CurveLibrary
	if cfg.CurveLibraryFile != "" {
		curveLib, err = presets.LoadCurveLibrary(cfg.CurveLibraryFile)
		if err != nil {
			return nil, err
		}
	}
	nodes, err := topology.Build(stps, cfg.DTSeconds, curveLib)
	if err != nil {
		return nil, err
	}

	inflow, err := ReadInflowFile(cfg.InflowFile)
	if err != nil {
		return nil, err
	}
	action, err := ReadActionFile(cfg.ActionFile)
	if err != nil {
		return nil, err
	}

	for _, n := range nodes {
		sc := n.Scenario
		copy(sc.Year, prices.Year)
		copy(sc.Month, prices.Month)
		copy(sc.Day, prices.Day)
		copy(sc.Hour, prices.Hour)
		copy(sc.Price, prices.Price)
		sc.RestPrice = prices.RestPrice

		if col := inflow.ColumnFor(n.ID); col >= 0 {
			copy(sc.Inflow, inflow.Values[col])
		}
		if col := action.ColumnFor(n.ID); col >= 0 {
			copy(sc.Action, action.Values[col])
		}
	}

	if cfg.StartStateFile != "" {
		state, err := ReadStateFile(cfg.StartStateFile)
		if err != nil {
			return nil, fmt.Errorf("ingest: start state file: %w", err)
		}
		state.Apply(nodes)
	}

	return riversystem.New(nodes, prices.RestPrice)
}

// WriteOutState writes the run's final state to cfg.OutStateFile, if set.
func WriteOutState(cfg *runconfig.Config, nodes []*model.Node) error {
	if cfg.OutStateFile == "" {
		return nil
	}
	return WriteStateFile(cfg.OutStateFile, nodes)
}
