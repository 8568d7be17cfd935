// Package runconfig loads the YAML run manifest that names every input
// file a simulation needs plus the global parameters (timestep length,
// rest price, system name) that don't belong to any one node. It plays the
// role the original's GlobalConfig struct and its ACTIONFILE/INFLOWFILE/...
// keyword file played, but as a single structured YAML document instead of
// a line-oriented keyword/value file, following this codebase's existing
// convention of loading run parameters through gopkg.in/yaml.v3 rather than
// a bespoke parser.
package runconfig

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the on-disk run manifest shape.
type Config struct {
	SystemName string `yaml:"system_name"`

	InputDir  string `yaml:"input_dir"`
	OutputDir string `yaml:"output_dir"`

	TopologyFile   string `yaml:"topology_file"`
	PriceFile      string `yaml:"price_file"`
	InflowFile     string `yaml:"inflow_file"`
	ActionFile     string `yaml:"action_file"`
	StartStateFile string `yaml:"start_state_file"`
	OutStateFile   string `yaml:"out_state_file"`

	// CurveLibraryFile optionally names a JSON curve catalogue (see the
	// presets package's CurveLibrary) that the topology file's _REF
	// keywords resolve named turbine/overflow/reservoir curves against,
	// instead of every topology inlining its own points.
	CurveLibraryFile string `yaml:"curve_library_file"`

	DTSeconds     int  `yaml:"dt_seconds"`
	WriteNodeFiles bool `yaml:"write_node_files"`

	// PresetFile optionally names a bundled topology preset (see the
	// presets package). It is parsed but not used when loading a run:
	// the run's inputs come from TopologyFile and the other file fields.
	PresetFile string `yaml:"preset_file"`
}

// Load reads and validates a run manifest, resolving InputDir/OutputDir
// against every file field the way GlobalConfig::SetDirectoriesAndFilenames
// did.
func Load(path string) (*Config, error) {
	c, err := LoadUnchecked(path)
	if err != nil {
		return nil, err
	}
	c.resolveDirectories()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// LoadUnchecked parses the manifest without validating or resolving
// directories, for callers that want to inspect the raw document.
func LoadUnchecked(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(raw, &c); err != nil {
		return nil, fmt.Errorf("runconfig: parse %s: %w", path, err)
	}
	return &c, nil
}

func (c *Config) resolveDirectories() {
	join := func(name string) string {
		if name == "" || filepath.IsAbs(name) {
			return name
		}
		return filepath.Join(c.InputDir, name)
	}
	c.TopologyFile = join(c.TopologyFile)
	c.PriceFile = join(c.PriceFile)
	c.InflowFile = join(c.InflowFile)
	c.ActionFile = join(c.ActionFile)
	c.StartStateFile = join(c.StartStateFile)
	c.CurveLibraryFile = join(c.CurveLibraryFile)

	if c.OutStateFile != "" && !filepath.IsAbs(c.OutStateFile) {
		c.OutStateFile = filepath.Join(c.OutputDir, c.OutStateFile)
	}
}

// Validate checks every field the original's readGlobalFile treated as
// mandatory (topology, price, inflow, action files; system name; dt).
// StartStateFile and OutStateFile are optional: a run with no state file
// simply initializes every reservoir from its topology-declared fraction
// and every channel from its topology-declared seed values.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("runconfig: config is nil")
	}
	if c.SystemName == "" {
		return errors.New("runconfig: system_name is required")
	}
	if c.TopologyFile == "" {
		return errors.New("runconfig: topology_file is required")
	}
	if c.PriceFile == "" {
		return errors.New("runconfig: price_file is required")
	}
	if c.InflowFile == "" {
		return errors.New("runconfig: inflow_file is required")
	}
	if c.ActionFile == "" {
		return errors.New("runconfig: action_file is required")
	}
	if c.DTSeconds <= 0 {
		return errors.New("runconfig: dt_seconds must be positive")
	}
	return nil
}
