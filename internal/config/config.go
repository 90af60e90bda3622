// Package config handles pipeline configuration.
package config

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config describes where pubgraph reads its CSV inputs and writes its graphs.
type Config struct {
	InputDir       string    `yaml:"input_dir" json:"input_dir"`
	OutputDir      string    `yaml:"output_dir" json:"output_dir"`
	Datasets       []Dataset `yaml:"datasets" json:"datasets"`
	CombinedOutput string    `yaml:"combined_output" json:"combined_output"`
	DBPath         string    `yaml:"db_path,omitempty" json:"db_path,omitempty"` // Optional SQLite export
	LogMode        string    `yaml:"log_mode,omitempty" json:"log_mode,omitempty"`
}

// Dataset names one input CSV and the JSON file its graph is written to.
type Dataset struct {
	Name   string `yaml:"name" json:"name"`
	Input  string `yaml:"input" json:"input"`
	Output string `yaml:"output" json:"output"`
}

const (
	// ProjectConfigFile is looked up in the project root when no config path is given.
	ProjectConfigFile = "pubgraph.yml"

	DefaultInputDir       = "scripts/data/raw"
	DefaultOutputDir      = "public/data"
	DefaultCombinedOutput = "combined.json"
	DefaultLogMode        = "dev"

	// CombinedName is the dataset name reserved for the union of all inputs.
	CombinedName = "combined"
)

// Environment variables that override file configuration.
const (
	EnvInputDir  = "PUBGRAPH_INPUT_DIR"
	EnvOutputDir = "PUBGRAPH_OUTPUT_DIR"
	EnvDBPath    = "PUBGRAPH_DB"
	EnvLogMode   = "PUBGRAPH_LOG_MODE"
)

// ValidLogModes lists the supported log_mode values.
var ValidLogModes = []string{"dev", "prod"}

// ErrNoDatasets is returned by Validate when no input datasets are configured.
var ErrNoDatasets = errors.New("no datasets configured")

// Default returns the configuration matching the fixed layout of the
// medium-articles project: two raw CSVs in, three JSON graphs out.
func Default() *Config {
	return &Config{
		InputDir:  DefaultInputDir,
		OutputDir: DefaultOutputDir,
		Datasets: []Dataset{
			{Name: "dataset1", Input: "medium_articles_dataset1.csv", Output: "dataset1.json"},
			{Name: "dataset2", Input: "medium_articles_dataset2.csv", Output: "dataset2.json"},
		},
		CombinedOutput: DefaultCombinedOutput,
		LogMode:        DefaultLogMode,
	}
}

// Load reads configuration from path on top of the defaults.
// If path is empty, pubgraph.yml in root and then the global config file are
// tried. A missing file is not an error.
func Load(root, path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		path = findConfigFile(root)
		if path == "" {
			return cfg, nil
		}
	}

	data, err := os.ReadFile(ExpandPath(path))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, errors.Wrap(err, "reading config")
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}

	return cfg, nil
}

// findConfigFile returns the first existing config file candidate, or "".
func findConfigFile(root string) string {
	candidates := []string{GlobalConfigPath()}
	if root != "" {
		candidates = append([]string{filepath.Join(root, ProjectConfigFile)}, candidates...)
	}

	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && !info.IsDir() {
			return p
		}
	}
	return ""
}

// ApplyEnv overrides configuration values from environment variables.
func (c *Config) ApplyEnv() {
	if v := os.Getenv(EnvInputDir); v != "" {
		c.InputDir = v
	}
	if v := os.Getenv(EnvOutputDir); v != "" {
		c.OutputDir = v
	}
	if v := os.Getenv(EnvDBPath); v != "" {
		c.DBPath = v
	}
	if v := os.Getenv(EnvLogMode); v != "" {
		c.LogMode = v
	}
}

// Validate checks that the configuration can drive a pipeline run.
func (c *Config) Validate() error {
	if len(c.Datasets) == 0 {
		return ErrNoDatasets
	}
	if c.OutputDir == "" {
		return errors.New("output_dir is required")
	}
	if c.CombinedOutput == "" {
		return errors.New("combined_output is required")
	}

	outputs := map[string]bool{c.CombinedOutput: true}
	names := make(map[string]bool, len(c.Datasets))
	for i, ds := range c.Datasets {
		if ds.Name == "" {
			return errors.Errorf("dataset %d: name is required", i)
		}
		if ds.Input == "" || ds.Output == "" {
			return errors.Errorf("dataset %q: input and output are required", ds.Name)
		}
		if ds.Name == CombinedName {
			return errors.Errorf("dataset name %q is reserved for the combined graph", ds.Name)
		}
		if names[ds.Name] {
			return errors.Errorf("duplicate dataset name %q", ds.Name)
		}
		if outputs[ds.Output] {
			return errors.Errorf("duplicate output file %q", ds.Output)
		}
		names[ds.Name] = true
		outputs[ds.Output] = true
	}

	return ValidateLogMode(c.LogMode)
}

// ValidateLogMode checks that the log mode value is valid.
func ValidateLogMode(mode string) error {
	if mode == "" {
		return nil // Empty defaults to "dev"
	}

	for _, valid := range ValidLogModes {
		if strings.EqualFold(mode, valid) {
			return nil
		}
	}

	return errors.Errorf("invalid log_mode: %s (valid: %v)", mode, ValidLogModes)
}

// Resolve returns a copy of the configuration with every relative path made
// absolute against root. Dataset inputs are relative to InputDir and outputs
// to OutputDir.
func (c *Config) Resolve(root string) *Config {
	out := *c
	out.InputDir = resolvePath(root, c.InputDir)
	out.OutputDir = resolvePath(root, c.OutputDir)
	out.CombinedOutput = resolvePath(out.OutputDir, c.CombinedOutput)
	if c.DBPath != "" {
		out.DBPath = resolvePath(root, c.DBPath)
	}

	out.Datasets = make([]Dataset, len(c.Datasets))
	for i, ds := range c.Datasets {
		out.Datasets[i] = Dataset{
			Name:   ds.Name,
			Input:  resolvePath(out.InputDir, ds.Input),
			Output: resolvePath(out.OutputDir, ds.Output),
		}
	}
	return &out
}

func resolvePath(base, path string) string {
	path = ExpandPath(path)
	if filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}

// Save writes configuration as YAML to path.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return errors.Wrap(err, "encoding config")
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrap(err, "writing config")
	}

	return nil
}

// ErrConfigExists is returned by Init when the target file is already present.
var ErrConfigExists = errors.New("config file already exists")

// Init writes the default configuration to path, creating parent
// directories. An existing file is left untouched unless force is set.
func Init(path string, force bool) (*Config, error) {
	if _, err := os.Stat(path); err == nil && !force {
		return nil, errors.Wrap(ErrConfigExists, path)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "creating config directory")
	}

	cfg := Default()
	if err := cfg.Save(path); err != nil {
		return nil, err
	}
	return cfg, nil
}

// ExpandPath expands ~ to the user's home directory.
// Returns the original path unchanged if it doesn't start with ~.
func ExpandPath(path string) string {
	if len(path) == 0 || path[0] != '~' {
		return path
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return path // Return original if we can't get home directory
	}

	return filepath.Join(home, path[1:])
}
