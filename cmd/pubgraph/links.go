package main

import (
	"github.com/matsen/pubgraph/internal/config"
	"github.com/matsen/pubgraph/internal/storage"
	"github.com/matsen/pubgraph/internal/viz"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

var linksDBPath string
var linksLimit int

func init() {
	linksCmd.Flags().StringVar(&linksDBPath, "db", "", "SQLite export to read (default: db_path from config)")
	linksCmd.Flags().IntVarP(&linksLimit, "limit", "n", 10, "Maximum number of links (0 for all)")
	rootCmd.AddCommand(linksCmd)
}

var linksCmd = &cobra.Command{
	Use:   "links [dataset]",
	Short: "Show the strongest links of an exported graph",
	Long: `Read graphs back from the SQLite export written by 'pubgraph build --db'.

Without a dataset, lists the exported graphs. With a dataset, prints its
heaviest links first.

Examples:
  pubgraph links --db .cache/graphs.db
  pubgraph links combined --db .cache/graphs.db --limit 5`,
	Args: cobra.MaximumNArgs(1),
	RunE: runLinks,
}

// LinksResponse is the JSON response for the links command.
type LinksResponse struct {
	Dataset string             `json:"dataset"`
	Graph   *storage.GraphMeta `json:"graph"`
	Links   []viz.Link         `json:"links"`
}

func runLinks(cmd *cobra.Command, args []string) error {
	root := mustProjectRoot()
	dbPath := linksDBPath
	if dbPath == "" {
		dbPath = mustLoadConfig(root).Resolve(root).DBPath
	}
	if dbPath == "" {
		exitWithError(ExitConfigError, "no database configured\n\nRun 'pubgraph build --db <path>' first, or set db_path in pubgraph.yml.")
	}

	db, err := storage.OpenDB(config.ExpandPath(dbPath))
	if err != nil {
		exitWithError(ExitError, "opening database: %v", err)
	}
	defer db.Close()

	if len(args) == 0 {
		graphs, err := db.ListGraphs()
		if err != nil {
			exitWithError(ExitError, "listing graphs: %v", err)
		}
		if !humanOutput {
			return outputJSON(graphs)
		}
		if len(graphs) == 0 {
			outputHuman("No graphs exported\n")
		}
		for _, g := range graphs {
			outputHuman("%s: %d records, %d dates (run %s, %s)\n",
				g.Dataset, g.Records, g.UniqueDates, g.RunID, g.BuiltAt.Format("2006-01-02 15:04"))
		}
		return nil
	}

	dataset := args[0]
	meta, err := db.GetGraph(dataset)
	if err != nil {
		if errors.Is(err, storage.ErrGraphNotFound) {
			exitWithError(ExitDataError, "no graph exported for %q", dataset)
		}
		exitWithError(ExitError, "reading graph: %v", err)
	}

	links, err := db.TopLinks(dataset, linksLimit)
	if err != nil {
		exitWithError(ExitError, "reading links: %v", err)
	}

	if !humanOutput {
		return outputJSON(LinksResponse{Dataset: dataset, Graph: meta, Links: links})
	}

	for i, l := range links {
		outputHuman("%3d. [%.3f] %s <-> %s (%d common dates)\n",
			i+1, l.Weight, truncateString(l.Source, PublicationColWidth), truncateString(l.Target, PublicationColWidth), l.CommonDates)
	}
	return nil
}
