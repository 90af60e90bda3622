package main

import (
	"fmt"
	"os"

	"github.com/matsen/pubgraph/internal/article"
	"github.com/matsen/pubgraph/internal/metrics"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var inspectHead int

func init() {
	inspectCmd.Flags().IntVar(&inspectHead, "head", 0, "Also print the schema and first N cleaned rows (human output)")
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <csv>",
	Short: "Clean one CSV and show its per-publication metrics",
	Long: `Load and clean a single CSV exactly as 'pubgraph build' does, then print
what cleaning did and the metrics of every publication.

Examples:
  pubgraph inspect scripts/data/raw/medium_articles_dataset1.csv
  pubgraph inspect --human --head 5 articles.csv`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

// InspectResponse is the JSON response for the inspect command.
type InspectResponse struct {
	Report       article.LoadReport           `json:"report"`
	Articles     int                          `json:"articles"`
	Publications []metrics.PublicationMetrics `json:"publications"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	ds, report, err := article.Load(args[0])
	if err != nil {
		exitWithError(ExitDataError, "%v", err)
	}

	ms, err := metrics.Calculate(ds)
	if err != nil {
		var aggErr *metrics.AggregationError
		if errors.As(err, &aggErr) {
			fmt.Fprintln(os.Stderr, aggErr.Diagnostics)
		}
		exitWithError(ExitDataError, "%v", err)
	}

	if !humanOutput {
		return outputJSON(InspectResponse{Report: report, Articles: metrics.Total(ms), Publications: ms})
	}

	outputHuman("%s\n", report.Source)
	outputHuman("  rows: %d, kept: %d, dropped (bad date): %d\n", report.Rows, report.Kept, report.DroppedBadDate)
	outputHuman("  missing: claps %d, responses %d, reading_time %d\n",
		report.ClapsMissing, report.ResponsesMissing, report.ReadingTimeMissing)
	outputHuman("  fill: claps %.2f, reading_time %.2f\n", report.ClapsFill, report.ReadingTimeFill)
	outputHuman("  %d articles across %d publications\n\n", metrics.Total(ms), len(ms))

	outputHuman("%s  %8s  %10s  %9s  %8s\n", padRight("PUBLICATION", PublicationColWidth), "ARTICLES", "AVG CLAPS", "AVG RESP", "AVG READ")
	for _, m := range ms {
		outputHuman("%s  %8d  %10.2f  %9.2f  %8.2f\n",
			padRight(m.Publication, PublicationColWidth), m.ClapsCount, m.ClapsMean, m.ResponsesMean, m.ReadingTimeMean)
	}

	if inspectHead > 0 {
		outputHuman("\n%s", ds.Describe(inspectHead))
	}
	return nil
}
