package main

import (
	"github.com/matsen/pubgraph/internal/article"
	"github.com/matsen/pubgraph/internal/metrics"
	"github.com/matsen/pubgraph/internal/pipeline"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var buildOutputDir string
var buildDBPath string

func init() {
	addBuildFlags(buildCmd)
	rootCmd.AddCommand(buildCmd)
}

// addBuildFlags registers the build flags on cmd; the root command runs a
// build too.
func addBuildFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&buildOutputDir, "output-dir", "o", "", "Directory for the JSON graphs (default: public/data)")
	cmd.Flags().StringVar(&buildDBPath, "db", "", "Also export the graphs to this SQLite database")
}

var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build the dataset and combined graphs",
	Long: `Load each configured CSV, clean it, aggregate per-publication metrics and
write its graph as JSON. The cleaned datasets are then concatenated, exact
duplicate rows removed, and the combined graph is written as well.

Nothing is written unless every graph builds.

Examples:
  # Default layout: scripts/data/raw/*.csv -> public/data/*.json
  pubgraph build

  # Another project root and output directory
  pubgraph build --root ~/src/medium-viz --output-dir /tmp/graphs

  # Also export to SQLite for 'pubgraph links'
  pubgraph build --db .cache/graphs.db`,
	Args: cobra.NoArgs,
	RunE: runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	root := mustProjectRoot()
	cfg := mustLoadConfig(root)
	if buildOutputDir != "" {
		cfg.OutputDir = buildOutputDir
	}
	if buildDBPath != "" {
		cfg.DBPath = buildDBPath
	}

	log := mustNewLogger(cfg.LogMode)
	result, err := pipeline.New(cfg.Resolve(root), log).Run()
	log.Sync()
	if err != nil {
		exitWithError(buildExitCode(err), "%v", err)
	}

	if humanOutput {
		for _, r := range result.Reports {
			outputHuman("%s: kept %d of %d rows (%d dropped for bad dates)\n",
				r.Source, r.Kept, r.Rows, r.DroppedBadDate)
		}
		for _, out := range result.Outputs {
			outputHuman("%s: %d publications, %d links from %d records -> %s\n",
				out.Dataset, out.Nodes, out.Links, out.Records, out.Path)
		}
		if result.DBPath != "" {
			outputHuman("Exported to %s\n", result.DBPath)
		}
		return nil
	}

	return outputJSON(result)
}

// buildExitCode maps pipeline errors caused by bad input to ExitDataError.
func buildExitCode(err error) int {
	var aggErr *metrics.AggregationError
	switch {
	case errors.Is(err, article.ErrMissingColumn),
		errors.Is(err, article.ErrEmptyFile),
		errors.As(err, &aggErr):
		return ExitDataError
	default:
		return ExitError
	}
}
