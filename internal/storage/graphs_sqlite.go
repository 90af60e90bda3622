package storage

import (
	"database/sql"
	"time"

	"github.com/matsen/pubgraph/internal/viz"
	"github.com/pkg/errors"
)

// GraphMeta describes one exported graph.
type GraphMeta struct {
	Dataset     string    `json:"dataset"`
	RunID       string    `json:"run_id"`
	BuiltAt     time.Time `json:"built_at"`
	Records     int       `json:"records"`
	UniqueDates int       `json:"unique_dates"`
}

// ErrGraphNotFound is returned when no graph was exported for a dataset.
var ErrGraphNotFound = errors.New("graph not found")

// SaveGraph replaces the stored graph for meta.Dataset.
func (d *DB) SaveGraph(meta GraphMeta, g *viz.GraphData) (err error) {
	tx, err := d.db.Begin()
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range []string{"graphs", "graph_nodes", "graph_links"} {
		if _, err = tx.Exec("DELETE FROM "+table+" WHERE dataset = ?", meta.Dataset); err != nil {
			return errors.Wrapf(err, "clearing %s", table)
		}
	}

	_, err = tx.Exec(`
		INSERT INTO graphs (dataset, run_id, built_at, records, unique_dates)
		VALUES (?, ?, ?, ?, ?)
	`, meta.Dataset, meta.RunID, meta.BuiltAt.Unix(), meta.Records, meta.UniqueDates)
	if err != nil {
		return errors.Wrap(err, "inserting graph")
	}

	nodeStmt, err := tx.Prepare(`
		INSERT INTO graph_nodes (dataset, position, id, name, article_count, avg_claps, avg_responses, avg_reading_time)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.Wrap(err, "preparing node insert")
	}
	defer nodeStmt.Close()

	for i, n := range g.Nodes {
		_, err = nodeStmt.Exec(meta.Dataset, i, n.ID, n.Name, n.ArticleCount, n.AvgClaps, n.AvgResponses, n.AvgReadingTime)
		if err != nil {
			return errors.Wrapf(err, "inserting node %s", n.ID)
		}
	}

	linkStmt, err := tx.Prepare(`
		INSERT INTO graph_links (dataset, position, source, target, common_dates, weight)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return errors.Wrap(err, "preparing link insert")
	}
	defer linkStmt.Close()

	for i, l := range g.Links {
		_, err = linkStmt.Exec(meta.Dataset, i, l.Source, l.Target, l.CommonDates, l.Weight)
		if err != nil {
			return errors.Wrapf(err, "inserting link %s-%s", l.Source, l.Target)
		}
	}

	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing graph")
	}
	return nil
}

// GetGraph returns the metadata of the graph stored for dataset.
func (d *DB) GetGraph(dataset string) (*GraphMeta, error) {
	var meta GraphMeta
	var builtAt int64
	err := d.db.QueryRow(`
		SELECT dataset, run_id, built_at, records, unique_dates FROM graphs WHERE dataset = ?
	`, dataset).Scan(&meta.Dataset, &meta.RunID, &builtAt, &meta.Records, &meta.UniqueDates)
	if err == sql.ErrNoRows {
		return nil, errors.Wrap(ErrGraphNotFound, dataset)
	}
	if err != nil {
		return nil, errors.Wrap(err, "querying graph")
	}
	meta.BuiltAt = time.Unix(builtAt, 0).UTC()
	return &meta, nil
}

// ListGraphs returns metadata for every stored graph, ordered by dataset.
func (d *DB) ListGraphs() ([]GraphMeta, error) {
	rows, err := d.db.Query(`
		SELECT dataset, run_id, built_at, records, unique_dates FROM graphs ORDER BY dataset
	`)
	if err != nil {
		return nil, errors.Wrap(err, "querying graphs")
	}
	defer rows.Close()

	var out []GraphMeta
	for rows.Next() {
		var meta GraphMeta
		var builtAt int64
		if err := rows.Scan(&meta.Dataset, &meta.RunID, &builtAt, &meta.Records, &meta.UniqueDates); err != nil {
			return nil, errors.Wrap(err, "scanning graph")
		}
		meta.BuiltAt = time.Unix(builtAt, 0).UTC()
		out = append(out, meta)
	}
	return out, rows.Err()
}

// LoadGraph reads a stored graph back with its original node and link order.
func (d *DB) LoadGraph(dataset string) (*viz.GraphData, error) {
	if _, err := d.GetGraph(dataset); err != nil {
		return nil, err
	}

	g := &viz.GraphData{Nodes: []viz.Node{}, Links: []viz.Link{}}

	rows, err := d.db.Query(`
		SELECT id, name, article_count, avg_claps, avg_responses, avg_reading_time
		FROM graph_nodes WHERE dataset = ? ORDER BY position
	`, dataset)
	if err != nil {
		return nil, errors.Wrap(err, "querying nodes")
	}
	defer rows.Close()

	for rows.Next() {
		var n viz.Node
		if err := rows.Scan(&n.ID, &n.Name, &n.ArticleCount, &n.AvgClaps, &n.AvgResponses, &n.AvgReadingTime); err != nil {
			return nil, errors.Wrap(err, "scanning node")
		}
		g.Nodes = append(g.Nodes, n)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	links, err := d.queryLinks(`
		SELECT source, target, common_dates, weight
		FROM graph_links WHERE dataset = ? ORDER BY position
	`, dataset)
	if err != nil {
		return nil, err
	}
	g.Links = append(g.Links, links...)

	return g, nil
}

// TopLinks returns the strongest links of a dataset, heaviest first.
// A limit of 0 or less returns every link.
func (d *DB) TopLinks(dataset string, limit int) ([]viz.Link, error) {
	if _, err := d.GetGraph(dataset); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = -1 // SQLite: no limit
	}
	return d.queryLinks(`
		SELECT source, target, common_dates, weight
		FROM graph_links WHERE dataset = ?
		ORDER BY weight DESC, position
		LIMIT ?
	`, dataset, limit)
}

func (d *DB) queryLinks(query string, args ...interface{}) ([]viz.Link, error) {
	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying links")
	}
	defer rows.Close()

	links := []viz.Link{}
	for rows.Next() {
		var l viz.Link
		if err := rows.Scan(&l.Source, &l.Target, &l.CommonDates, &l.Weight); err != nil {
			return nil, errors.Wrap(err, "scanning link")
		}
		links = append(links, l)
	}
	return links, rows.Err()
}
