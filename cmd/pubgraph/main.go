// Package main provides the pubgraph CLI entry point.
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/matsen/pubgraph/internal/config"
	"github.com/matsen/pubgraph/internal/logger"
	"github.com/spf13/cobra"
)

// Version is set at build time via ldflags
var Version = "dev"

// Persistent flags
var (
	humanOutput bool
	configPath  string
	logMode     string
	rootDir     string
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		// Print the error since we have SilenceErrors: true
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(ExitError)
	}
}

var rootCmd = &cobra.Command{
	Use:   "pubgraph",
	Short: "Build publication graphs from article metadata CSVs",
	Long: `pubgraph turns raw article-metadata CSV files into JSON graphs for the
publication network visualization.

Each publication becomes a node sized by its article count; every pair of
publications is linked, weighted by how many calendar days both published on.

Running pubgraph with no subcommand is the same as 'pubgraph build'.
All commands output JSON by default; use --human for readable output.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBuild,
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&humanOutput, "human", false, "Use human-readable output instead of JSON")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: pubgraph.yml in the project root, then ~/.config/pubgraph/config.yml)")
	rootCmd.PersistentFlags().StringVar(&logMode, "log-mode", "", "Log mode: dev or prod")
	rootCmd.PersistentFlags().StringVar(&rootDir, "root", "", "Project root (default: current directory)")
	addBuildFlags(rootCmd)
	rootCmd.Version = Version
}

// mustProjectRoot returns the absolute project root, exits on error.
func mustProjectRoot() string {
	root := rootDir
	if root == "" {
		cwd, err := os.Getwd()
		if err != nil {
			exitWithError(ExitError, "getting current directory: %v", err)
		}
		root = cwd
	}

	abs, err := filepath.Abs(config.ExpandPath(root))
	if err != nil {
		exitWithError(ExitError, "resolving project root: %v", err)
	}
	return abs
}

// mustLoadConfig loads .env, the config file and environment overrides, exits on error.
func mustLoadConfig(root string) *config.Config {
	_ = godotenv.Load(filepath.Join(root, ".env"))

	cfg, err := config.Load(root, configPath)
	if err != nil {
		exitWithError(ExitConfigError, "loading config: %v", err)
	}
	cfg.ApplyEnv()
	if logMode != "" {
		cfg.LogMode = logMode
	}

	if err := cfg.Validate(); err != nil {
		exitWithError(ExitConfigError, "invalid config: %v", err)
	}
	return cfg
}

// mustNewLogger builds the logger for mode, exits on error.
func mustNewLogger(mode string) *logger.Logger {
	log, err := logger.New(mode)
	if err != nil {
		exitWithError(ExitError, "creating logger: %v", err)
	}
	return log
}
