package main

import (
	"path/filepath"

	"github.com/matsen/pubgraph/internal/config"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var configInitForce bool

func init() {
	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing config file")
	configCmd.AddCommand(configInitCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show the effective configuration",
	Long: `Show the configuration a build would use, after the config file,
.env and environment overrides are applied. Paths are shown as configured,
not resolved.

Examples:
  pubgraph config
  pubgraph config init`,
	Args: cobra.NoArgs,
	RunE: runConfig,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the default pubgraph.yml",
	Long: `Write the default configuration to pubgraph.yml in the project root,
or to the path given by --config.`,
	Args: cobra.NoArgs,
	RunE: runConfigInit,
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg := mustLoadConfig(mustProjectRoot())

	if !humanOutput {
		return outputJSON(cfg)
	}

	outputHuman("input_dir:       %s\n", cfg.InputDir)
	outputHuman("output_dir:      %s\n", cfg.OutputDir)
	outputHuman("combined_output: %s\n", cfg.CombinedOutput)
	outputHuman("db_path:         %s\n", cfg.DBPath)
	outputHuman("log_mode:        %s\n", cfg.LogMode)
	outputHuman("datasets:\n")
	for _, ds := range cfg.Datasets {
		outputHuman("  %s: %s -> %s\n", ds.Name, ds.Input, ds.Output)
	}
	return nil
}

// ConfigInitResponse is the JSON response for config init.
type ConfigInitResponse struct {
	Path   string         `json:"path"`
	Config *config.Config `json:"config"`
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := configPath
	if path == "" {
		path = filepath.Join(mustProjectRoot(), config.ProjectConfigFile)
	}
	path = config.ExpandPath(path)

	cfg, err := config.Init(path, configInitForce)
	if err != nil {
		if errors.Is(err, config.ErrConfigExists) {
			exitWithError(ExitConfigError, "%s already exists\n\nUse --force to overwrite it.", path)
		}
		exitWithError(ExitError, "writing config: %v", err)
	}

	if humanOutput {
		outputHuman("Wrote %s\n", path)
		return nil
	}
	return outputJSON(ConfigInitResponse{Path: path, Config: cfg})
}
