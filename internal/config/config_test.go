package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if len(cfg.Datasets) != 2 {
		t.Fatalf("len(Datasets) = %d, want 2", len(cfg.Datasets))
	}

	tests := []struct {
		name string
		got  string
		want string
	}{
		{"InputDir", cfg.InputDir, "scripts/data/raw"},
		{"OutputDir", cfg.OutputDir, "public/data"},
		{"CombinedOutput", cfg.CombinedOutput, "combined.json"},
		{"Dataset1 input", cfg.Datasets[0].Input, "medium_articles_dataset1.csv"},
		{"Dataset1 output", cfg.Datasets[0].Output, "dataset1.json"},
		{"Dataset2 input", cfg.Datasets[1].Input, "medium_articles_dataset2.csv"},
		{"Dataset2 output", cfg.Datasets[1].Output, "dataset2.json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("%s = %q, want %q", tt.name, tt.got, tt.want)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())

	cfg, err := Load(t.TempDir(), "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.OutputDir != DefaultOutputDir {
		t.Errorf("OutputDir = %q, want default", cfg.OutputDir)
	}

	cfg, err = Load("", filepath.Join(t.TempDir(), "nope.yml"))
	if err != nil {
		t.Fatalf("Load() explicit missing path error = %v", err)
	}
	if len(cfg.Datasets) != 2 {
		t.Errorf("len(Datasets) = %d, want 2", len(cfg.Datasets))
	}
}

func TestLoad_ProjectFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	root := t.TempDir()

	content := `input_dir: raw
output_dir: out
combined_output: all.json
datasets:
  - name: tech
    input: tech.csv
    output: tech.json
db_path: graphs.db
`
	if err := os.WriteFile(filepath.Join(root, ProjectConfigFile), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(root, "")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.InputDir != "raw" || cfg.OutputDir != "out" {
		t.Errorf("dirs = %q, %q; want raw, out", cfg.InputDir, cfg.OutputDir)
	}
	if len(cfg.Datasets) != 1 || cfg.Datasets[0].Name != "tech" {
		t.Errorf("Datasets = %+v, want single tech dataset", cfg.Datasets)
	}
	if cfg.DBPath != "graphs.db" {
		t.Errorf("DBPath = %q, want graphs.db", cfg.DBPath)
	}
	// Unset keys keep their defaults
	if cfg.LogMode != DefaultLogMode {
		t.Errorf("LogMode = %q, want %q", cfg.LogMode, DefaultLogMode)
	}
}

func TestSave_Roundtrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), ProjectConfigFile)

	cfg := Default()
	cfg.Datasets = append(cfg.Datasets, Dataset{Name: "archive", Input: "archive.csv", Output: "archive.json"})
	cfg.DBPath = ".cache/graphs.db"
	cfg.LogMode = "prod"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load("", path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(got.Datasets) != 3 || got.Datasets[2] != cfg.Datasets[2] {
		t.Errorf("Datasets = %+v, want %+v", got.Datasets, cfg.Datasets)
	}
	if got.DBPath != cfg.DBPath || got.LogMode != "prod" {
		t.Errorf("DBPath, LogMode = %q, %q", got.DBPath, got.LogMode)
	}
	if got.CombinedOutput != DefaultCombinedOutput {
		t.Errorf("CombinedOutput = %q", got.CombinedOutput)
	}
}

func TestInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ProjectConfigFile)

	if _, err := Init(path, false); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	got, err := Load("", path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if err := got.Validate(); err != nil {
		t.Errorf("written config does not validate: %v", err)
	}
	if len(got.Datasets) != 2 || got.Datasets[0].Input != "medium_articles_dataset1.csv" {
		t.Errorf("Datasets = %+v, want defaults", got.Datasets)
	}

	if _, err := Init(path, false); !errors.Is(err, ErrConfigExists) {
		t.Errorf("second Init() error = %v, want ErrConfigExists", err)
	}
	if _, err := Init(path, true); err != nil {
		t.Errorf("Init(force) error = %v", err)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yml")
	if err := os.WriteFile(path, []byte("datasets: [unclosed"), 0644); err != nil {
		t.Fatal(err)
	}

	if _, err := Load("", path); err == nil {
		t.Error("Load() expected error for invalid YAML")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv(EnvInputDir, "/env/in")
	t.Setenv(EnvOutputDir, "/env/out")
	t.Setenv(EnvDBPath, "/env/graphs.db")
	t.Setenv(EnvLogMode, "prod")

	cfg := Default()
	cfg.ApplyEnv()

	if cfg.InputDir != "/env/in" {
		t.Errorf("InputDir = %q", cfg.InputDir)
	}
	if cfg.OutputDir != "/env/out" {
		t.Errorf("OutputDir = %q", cfg.OutputDir)
	}
	if cfg.DBPath != "/env/graphs.db" {
		t.Errorf("DBPath = %q", cfg.DBPath)
	}
	if cfg.LogMode != "prod" {
		t.Errorf("LogMode = %q", cfg.LogMode)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(c *Config) {}, false},
		{"no datasets", func(c *Config) { c.Datasets = nil }, true},
		{"missing output dir", func(c *Config) { c.OutputDir = "" }, true},
		{"missing dataset name", func(c *Config) { c.Datasets[0].Name = "" }, true},
		{"missing dataset input", func(c *Config) { c.Datasets[1].Input = "" }, true},
		{"duplicate name", func(c *Config) { c.Datasets[1].Name = c.Datasets[0].Name }, true},
		{"reserved combined name", func(c *Config) { c.Datasets[1].Name = CombinedName }, true},
		{"output clashes with combined", func(c *Config) { c.Datasets[0].Output = c.CombinedOutput }, true},
		{"prod log mode", func(c *Config) { c.LogMode = "prod" }, false},
		{"unknown log mode", func(c *Config) { c.LogMode = "verbose" }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestValidate_NoDatasetsSentinel(t *testing.T) {
	cfg := Default()
	cfg.Datasets = nil
	if err := cfg.Validate(); !errors.Is(err, ErrNoDatasets) {
		t.Errorf("Validate() error = %v, want ErrNoDatasets", err)
	}
}

func TestResolve(t *testing.T) {
	cfg := Default()
	cfg.DBPath = "cache/graphs.db"

	got := cfg.Resolve("/project")

	if got.InputDir != "/project/scripts/data/raw" {
		t.Errorf("InputDir = %q", got.InputDir)
	}
	if got.OutputDir != "/project/public/data" {
		t.Errorf("OutputDir = %q", got.OutputDir)
	}
	if got.CombinedOutput != "/project/public/data/combined.json" {
		t.Errorf("CombinedOutput = %q", got.CombinedOutput)
	}
	if got.DBPath != "/project/cache/graphs.db" {
		t.Errorf("DBPath = %q", got.DBPath)
	}
	if got.Datasets[0].Input != "/project/scripts/data/raw/medium_articles_dataset1.csv" {
		t.Errorf("Datasets[0].Input = %q", got.Datasets[0].Input)
	}
	if got.Datasets[1].Output != "/project/public/data/dataset2.json" {
		t.Errorf("Datasets[1].Output = %q", got.Datasets[1].Output)
	}

	// Original is untouched
	if cfg.Datasets[0].Input != "medium_articles_dataset1.csv" {
		t.Errorf("Resolve mutated receiver: %q", cfg.Datasets[0].Input)
	}
}

func TestResolve_AbsolutePathsKept(t *testing.T) {
	cfg := Default()
	cfg.OutputDir = "/abs/out"
	cfg.Datasets[0].Input = "/data/a.csv"

	got := cfg.Resolve("/project")
	if got.OutputDir != "/abs/out" {
		t.Errorf("OutputDir = %q", got.OutputDir)
	}
	if got.Datasets[0].Input != "/data/a.csv" {
		t.Errorf("Datasets[0].Input = %q", got.Datasets[0].Input)
	}
}

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("Cannot get home directory")
	}

	tests := []struct {
		input string
		want  string
	}{
		{"~/Documents", filepath.Join(home, "Documents")},
		{"/absolute/path", "/absolute/path"},
		{"relative/path", "relative/path"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			if got := ExpandPath(tt.input); got != tt.want {
				t.Errorf("ExpandPath(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
