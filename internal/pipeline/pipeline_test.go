package pipeline

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matsen/pubgraph/internal/article"
	"github.com/matsen/pubgraph/internal/config"
	"github.com/matsen/pubgraph/internal/logger"
	"github.com/matsen/pubgraph/internal/storage"
	"github.com/matsen/pubgraph/internal/viz"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const dataset1CSV = `title,publication,date,claps,responses,reading_time
Intro to Pandas,Towards Data Science,2019-05-30,120,2,5
Design Systems,UX Collective,2019-05-30,80,,4
Hiring,The Startup,2019-05-31,n/a,1,6
Scaling Teams,The Startup,2019-06-01,40,0,
Broken Row,The Startup,garbage,10,0,3
`

const dataset2CSV = `title,publication,date,claps,responses,reading_time
Color Theory,UX Collective,2019-06-01,60,3,7
Funding,The Startup,2019-06-02,200,5,8
`

// setupProject writes the default input layout under a temp project root and
// returns the resolved configuration.
func setupProject(t *testing.T, csv1, csv2 string) *config.Config {
	t.Helper()
	root := t.TempDir()
	cfg := config.Default().Resolve(root)

	require.NoError(t, os.MkdirAll(cfg.InputDir, 0755))
	require.NoError(t, os.WriteFile(cfg.Datasets[0].Input, []byte(csv1), 0644))
	require.NoError(t, os.WriteFile(cfg.Datasets[1].Input, []byte(csv2), 0644))
	return cfg
}

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.DebugLevel)
	return &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestRun_WritesAllOutputs(t *testing.T) {
	cfg := setupProject(t, dataset1CSV, dataset2CSV)

	result, err := New(cfg, nil).Run()
	require.NoError(t, err)
	require.Len(t, result.Outputs, 3)
	assert.NotEmpty(t, result.RunID)

	names := []string{"dataset1", "dataset2", "combined"}
	files := []string{"dataset1.json", "dataset2.json", "combined.json"}
	for i, out := range result.Outputs {
		assert.Equal(t, names[i], out.Dataset)
		assert.Equal(t, filepath.Join(cfg.OutputDir, files[i]), out.Path)
		assert.FileExists(t, out.Path)
	}

	g1, err := viz.ReadJSON(result.Outputs[0].Path)
	require.NoError(t, err)
	assert.Len(t, g1.Nodes, 3)
	assert.Len(t, g1.Links, 3)
	assert.Equal(t, 4, result.Outputs[0].Records)
	assert.Equal(t, 3, result.Outputs[0].UniqueDates)

	// Towards Data Science and UX Collective share 2019-05-30.
	assert.Equal(t, viz.Link{Source: "Towards Data Science", Target: "UX Collective", CommonDates: 1, Weight: 1.0 / 3}, g1.Links[0])

	startup := g1.Nodes[2]
	assert.Equal(t, "The Startup", startup.ID)
	assert.Equal(t, 2, startup.ArticleCount)
	// Missing claps filled with the file mean (120+40+80+10)/4 = 62.5
	assert.Equal(t, 51.25, startup.AvgClaps)

	combined, err := viz.ReadJSON(result.Outputs[2].Path)
	require.NoError(t, err)
	assert.Equal(t, 6, result.Outputs[2].Records)
	assert.Len(t, combined.Nodes, 3)
	assert.Equal(t, 4, result.Outputs[2].UniqueDates)

	require.Len(t, result.Reports, 2)
	assert.Equal(t, 1, result.Reports[0].DroppedBadDate)
}

func TestRun_CombinedDropsFullDuplicates(t *testing.T) {
	cfg := setupProject(t, dataset1CSV, dataset1CSV)

	result, err := New(cfg, nil).Run()
	require.NoError(t, err)

	assert.Equal(t, result.Outputs[0].Records, result.Outputs[2].Records)

	g1, err := viz.ReadJSON(result.Outputs[0].Path)
	require.NoError(t, err)
	combined, err := viz.ReadJSON(result.Outputs[2].Path)
	require.NoError(t, err)
	assert.Equal(t, g1, combined)
}

func TestRun_EmptyInputs(t *testing.T) {
	header := "publication,date,claps,responses,reading_time\n"
	cfg := setupProject(t, header+"A,garbage,1,0,1\n", header)

	result, err := New(cfg, nil).Run()
	require.NoError(t, err)

	for _, out := range result.Outputs {
		data, err := os.ReadFile(out.Path)
		require.NoError(t, err)
		assert.JSONEq(t, `{"nodes": [], "links": []}`, string(data))
		assert.Equal(t, 0, out.UniqueDates)
	}
}

func TestRun_CreatesNestedOutputDir(t *testing.T) {
	cfg := setupProject(t, dataset1CSV, dataset2CSV)
	cfg.OutputDir = filepath.Join(cfg.OutputDir, "deep", "er")
	cfg.CombinedOutput = filepath.Join(cfg.OutputDir, "combined.json")

	_, err := New(cfg, nil).Run()
	require.NoError(t, err)
	assert.FileExists(t, cfg.CombinedOutput)
}

func TestRun_FailureWritesNothing(t *testing.T) {
	// Second input lacks reading_time; the first dataset must not be written.
	cfg := setupProject(t, dataset1CSV, "publication,date,claps,responses\nP,2020-01-01,1,0\n")
	log, logs := observedLogger()

	result, err := New(cfg, log).Run()
	require.Error(t, err)
	assert.True(t, errors.Is(err, article.ErrMissingColumn))
	assert.Empty(t, result.Outputs)

	_, statErr := os.Stat(cfg.OutputDir)
	assert.True(t, os.IsNotExist(statErr), "output dir should not be created on failure")

	failures := logs.FilterMessage("an error occurred").All()
	require.Len(t, failures, 1)
	assert.NotEmpty(t, failures[0].ContextMap()["run_id"])
}

func TestRun_MissingInputFile(t *testing.T) {
	cfg := setupProject(t, dataset1CSV, dataset2CSV)
	require.NoError(t, os.Remove(cfg.Datasets[1].Input))

	_, err := New(cfg, nil).Run()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading dataset dataset2")
}

func TestRun_LogsStagesAndFillWarnings(t *testing.T) {
	header := "publication,date,claps,responses,reading_time\n"
	cfg := setupProject(t, header+"P,2020-01-01,,,\n", dataset2CSV)
	log, logs := observedLogger()

	_, err := New(cfg, log).Run()
	require.NoError(t, err)

	assert.Len(t, logs.FilterMessage("processing dataset").All(), 2)
	assert.Len(t, logs.FilterMessage("processing combined dataset").All(), 1)
	assert.Len(t, logs.FilterMessage("processing completed successfully").All(), 1)
	assert.Len(t, logs.FilterMessage("claps has no numeric values, filled with 0").All(), 1)
	assert.Len(t, logs.FilterMessage("reading_time has no numeric values, filled with 0").All(), 1)
}

func TestRun_ExportsToSQLite(t *testing.T) {
	cfg := setupProject(t, dataset1CSV, dataset2CSV)
	cfg.DBPath = filepath.Join(filepath.Dir(cfg.OutputDir), "cache", "graphs.db")
	builtAt := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	result, err := New(cfg, nil, WithClock(func() time.Time { return builtAt })).Run()
	require.NoError(t, err)
	assert.Equal(t, cfg.DBPath, result.DBPath)

	db, err := storage.OpenDB(cfg.DBPath)
	require.NoError(t, err)
	defer db.Close()

	graphs, err := db.ListGraphs()
	require.NoError(t, err)
	require.Len(t, graphs, 3)
	for _, g := range graphs {
		assert.Equal(t, result.RunID, g.RunID)
		assert.Equal(t, builtAt, g.BuiltAt)
	}

	stored, err := db.LoadGraph(CombinedName)
	require.NoError(t, err)
	written, err := viz.ReadJSON(result.Outputs[2].Path)
	require.NoError(t, err)
	assert.Equal(t, written, stored)
}
