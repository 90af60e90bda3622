// Package pipeline runs the load, aggregate and graph stages over every
// configured dataset and their combination, then writes the graphs.
package pipeline

import (
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/matsen/pubgraph/internal/article"
	"github.com/matsen/pubgraph/internal/config"
	"github.com/matsen/pubgraph/internal/logger"
	"github.com/matsen/pubgraph/internal/metrics"
	"github.com/matsen/pubgraph/internal/storage"
	"github.com/matsen/pubgraph/internal/viz"
	"github.com/pkg/errors"
)

// CombinedName is the dataset name of the union of all inputs.
const CombinedName = config.CombinedName

// Output describes one written graph.
type Output struct {
	Dataset     string `json:"dataset"`
	Path        string `json:"path"`
	Records     int    `json:"records"`
	UniqueDates int    `json:"unique_dates"`
	Nodes       int    `json:"nodes"`
	Links       int    `json:"links"`
}

// Result summarizes a pipeline run.
type Result struct {
	RunID   string               `json:"run_id"`
	Outputs []Output             `json:"outputs"`
	Reports []article.LoadReport `json:"reports"`
	DBPath  string               `json:"db_path,omitempty"`
}

// Pipeline turns configured CSV inputs into JSON graphs.
type Pipeline struct {
	cfg *config.Config
	log *logger.Logger
	now func() time.Time
}

// Option customizes a Pipeline.
type Option func(*Pipeline)

// WithClock overrides the time source used for export metadata.
func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

// New creates a pipeline for a resolved configuration (see config.Resolve).
func New(cfg *config.Config, log *logger.Logger, opts ...Option) *Pipeline {
	if log == nil {
		log = logger.Nop()
	}
	p := &Pipeline{cfg: cfg, log: log, now: time.Now}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// built is a graph waiting to be written.
type built struct {
	name  string
	path  string
	graph *viz.GraphData
	stats viz.Stats
}

// Run processes every dataset and the combined dataset.
// Nothing is written unless every graph builds successfully.
func (p *Pipeline) Run() (*Result, error) {
	runID := uuid.NewString()
	log := p.log.With("run_id", runID)

	result := &Result{RunID: runID, DBPath: p.cfg.DBPath}

	graphs, reports, err := p.buildAll(log)
	result.Reports = reports
	if err != nil {
		log.Error("an error occurred", "error", err)
		return result, err
	}

	if err := p.write(log, runID, graphs); err != nil {
		log.Error("an error occurred", "error", err)
		return result, err
	}

	for _, b := range graphs {
		result.Outputs = append(result.Outputs, Output{
			Dataset:     b.name,
			Path:        b.path,
			Records:     b.stats.Records,
			UniqueDates: b.stats.UniqueDates,
			Nodes:       len(b.graph.Nodes),
			Links:       len(b.graph.Links),
		})
	}

	log.Info("processing completed successfully", "outputs", len(result.Outputs))
	return result, nil
}

// buildAll builds the graph of each dataset followed by the combined graph.
func (p *Pipeline) buildAll(log *logger.Logger) ([]built, []article.LoadReport, error) {
	var (
		graphs  []built
		reports []article.LoadReport
		cleaned []*article.Dataset
	)

	for _, ds := range p.cfg.Datasets {
		log.Info("processing dataset", "dataset", ds.Name, "input", ds.Input)

		data, report, err := article.Load(ds.Input)
		if err != nil {
			return nil, reports, errors.Wrapf(err, "loading dataset %s", ds.Name)
		}
		data.Name = ds.Name
		reports = append(reports, report)
		logReport(log, ds.Name, report)

		b, err := p.buildGraph(log, data, ds.Output)
		if err != nil {
			return nil, reports, err
		}
		graphs = append(graphs, b)
		cleaned = append(cleaned, data)
	}

	log.Info("processing combined dataset", "datasets", len(cleaned))
	combined := article.Combine(CombinedName, cleaned...)
	b, err := p.buildGraph(log, combined, p.cfg.CombinedOutput)
	if err != nil {
		return nil, reports, err
	}
	graphs = append(graphs, b)

	return graphs, reports, nil
}

// buildGraph aggregates a cleaned dataset and builds its graph.
func (p *Pipeline) buildGraph(log *logger.Logger, ds *article.Dataset, path string) (built, error) {
	ms, err := metrics.Calculate(ds)
	if err != nil {
		var aggErr *metrics.AggregationError
		if errors.As(err, &aggErr) {
			log.Error("error in calculate publication metrics",
				"dataset", ds.Name,
				"error", aggErr.Err,
				"diagnostics", aggErr.Diagnostics)
		}
		return built{}, err
	}

	g, stats, err := viz.BuildGraph(ds, ms)
	if err != nil {
		return built{}, errors.Wrapf(err, "building graph for %s", ds.Name)
	}

	log.Debug("graph built",
		"dataset", ds.Name,
		"records", stats.Records,
		"publications", len(g.Nodes),
		"links", len(g.Links),
		"unique_dates", stats.UniqueDates)

	return built{name: ds.Name, path: path, graph: g, stats: stats}, nil
}

// write creates the output directories and writes every graph, plus the
// optional SQLite export.
func (p *Pipeline) write(log *logger.Logger, runID string, graphs []built) error {
	if err := os.MkdirAll(p.cfg.OutputDir, 0755); err != nil {
		return errors.Wrap(err, "creating output directory")
	}

	for _, b := range graphs {
		if err := os.MkdirAll(filepath.Dir(b.path), 0755); err != nil {
			return errors.Wrapf(err, "creating directory for %s", b.name)
		}
		if err := viz.WriteJSON(b.path, b.graph); err != nil {
			return errors.Wrapf(err, "writing %s", b.name)
		}
		log.Info("graph written", "dataset", b.name, "path", b.path)
	}

	if p.cfg.DBPath == "" {
		return nil
	}
	return p.export(log, runID, graphs)
}

// export stores every graph in the SQLite database at cfg.DBPath.
func (p *Pipeline) export(log *logger.Logger, runID string, graphs []built) error {
	if err := os.MkdirAll(filepath.Dir(p.cfg.DBPath), 0755); err != nil {
		return errors.Wrap(err, "creating database directory")
	}

	db, err := storage.OpenDB(p.cfg.DBPath)
	if err != nil {
		return errors.Wrap(err, "opening export database")
	}
	defer db.Close()

	builtAt := p.now()
	for _, b := range graphs {
		meta := storage.GraphMeta{
			Dataset:     b.name,
			RunID:       runID,
			BuiltAt:     builtAt,
			Records:     b.stats.Records,
			UniqueDates: b.stats.UniqueDates,
		}
		if err := db.SaveGraph(meta, b.graph); err != nil {
			return errors.Wrapf(err, "exporting %s", b.name)
		}
	}

	log.Info("graphs exported", "db", p.cfg.DBPath, "graphs", len(graphs))
	return nil
}

func logReport(log *logger.Logger, name string, r article.LoadReport) {
	log.Info("dataset cleaned",
		"dataset", name,
		"rows", r.Rows,
		"kept", r.Kept,
		"dropped_bad_date", r.DroppedBadDate,
		"claps_fill", r.ClapsFill,
		"reading_time_fill", r.ReadingTimeFill)

	if r.ClapsUndefined {
		log.Warn("claps has no numeric values, filled with 0", "dataset", name)
	}
	if r.ReadingTimeUndefined {
		log.Warn("reading_time has no numeric values, filled with 0", "dataset", name)
	}
}
