package main

import (
	"flag"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"herss/internal/ingest"
	"herss/internal/model"
	"herss/internal/presets"
)

func main() {
	var (
		glob       = flag.String("glob", "examples/topologies/*.txt", "Glob pattern of topology files to catalogue")
		outputPath = flag.String("output", "", "Output presets file path (default: presets.DefaultPath())")
		seedFile   = flag.String("seed", "", "Path to an existing presets file to use as seed for descriptions")
		dtSeconds  = flag.Int("dt", 3600, "DT_SECONDS recorded for each discovered preset")
	)
	flag.Parse()

	if *outputPath == "" {
		*outputPath = presets.DefaultPath()
	}

	var seedDescriptions map[string]string
	if *seedFile != "" {
		if lib, err := presets.Load(*seedFile); err == nil {
			seedDescriptions = make(map[string]string, len(lib.Presets))
			for _, p := range lib.Presets {
				seedDescriptions[p.Name] = p.Description
			}
			fmt.Printf("Loaded %d existing preset descriptions from seed file\n", len(seedDescriptions))
		}
	}

	matches, err := filepath.Glob(*glob)
	if err != nil {
		log.Fatalf("Failed to glob %q: %v", *glob, err)
	}

	lib := &presets.Library{}
	for _, path := range matches {
		preset, err := describeTopology(path, *dtSeconds, seedDescriptions)
		if err != nil {
			fmt.Printf("  skipping %s: %v\n", path, err)
			continue
		}
		lib.Presets = append(lib.Presets, preset)
		fmt.Printf("  found: %s (%s)\n", preset.Name, preset.Description)
	}

	if err := presets.Save(lib, *outputPath); err != nil {
		log.Fatalf("Failed to save presets: %v", err)
	}
	fmt.Printf("Saved %d presets to %s\n", len(lib.Presets), *outputPath)
}

func describeTopology(path string, dtSeconds int, seedDescriptions map[string]string) (presets.Preset, error) {
	topo, err := ingest.ReadTopologyFile(path)
	if err != nil {
		return presets.Preset{}, err
	}
	nodes, err := topo.Build(1, dtSeconds)
	if err != nil {
		return presets.Preset{}, err
	}

	var reservoirs, channels, powerstations int
	for _, n := range nodes {
		switch n.Kind {
		case model.KindReservoir:
			reservoirs++
		case model.KindChannel:
			channels++
		case model.KindPowerstation:
			powerstations++
		}
	}

	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	description := seedDescriptions[name]
	if description == "" {
		description = fmt.Sprintf("%d reservoirs, %d channels, %d powerstations", reservoirs, channels, powerstations)
	}

	return presets.Preset{
		Name:         name,
		Description:  description,
		TopologyFile: path,
		DTSeconds:    dtSeconds,
	}, nil
}
