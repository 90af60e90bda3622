// Package storage exports built graphs to SQLite for ad-hoc querying.
package storage

import (
	"database/sql"

	"github.com/pkg/errors"
	_ "modernc.org/sqlite"
)

// DB wraps a SQLite database connection.
type DB struct {
	db *sql.DB
}

// OpenDB opens or creates a SQLite database at the given path.
func OpenDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.Wrap(err, "opening database")
	}

	db.SetMaxOpenConns(1) // SQLite doesn't support concurrent writes

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, errors.Wrap(err, "creating schema")
	}

	return &DB{db: db}, nil
}

// Close closes the database connection.
func (d *DB) Close() error {
	return d.db.Close()
}

// createSchema creates the database schema if it doesn't exist.
func createSchema(db *sql.DB) error {
	schema := `
		-- One row per exported graph
		CREATE TABLE IF NOT EXISTS graphs (
			dataset TEXT PRIMARY KEY,
			run_id TEXT NOT NULL,
			built_at INTEGER NOT NULL,
			records INTEGER NOT NULL,
			unique_dates INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS graph_nodes (
			dataset TEXT NOT NULL,
			position INTEGER NOT NULL,
			id TEXT NOT NULL,
			name TEXT NOT NULL,
			article_count INTEGER NOT NULL,
			avg_claps REAL NOT NULL,
			avg_responses REAL NOT NULL,
			avg_reading_time REAL NOT NULL,
			PRIMARY KEY (dataset, id)
		);

		CREATE TABLE IF NOT EXISTS graph_links (
			dataset TEXT NOT NULL,
			position INTEGER NOT NULL,
			source TEXT NOT NULL,
			target TEXT NOT NULL,
			common_dates INTEGER NOT NULL,
			weight REAL NOT NULL,
			PRIMARY KEY (dataset, source, target)
		);

		CREATE INDEX IF NOT EXISTS idx_graph_links_weight ON graph_links(dataset, weight DESC);
	`

	_, err := db.Exec(schema)
	return err
}
