// Package runstore persists projection run records to sqlite so batches can
// be compared across parameter sweeps.
package runstore

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

const schema = `
	CREATE TABLE IF NOT EXISTS projection_runs (
		run_id        TEXT PRIMARY KEY,
		created_at    TIMESTAMP NOT NULL,
		mesh_path     TEXT,
		cloud_path    TEXT,
		num_points    INTEGER,
		num_triangles INTEGER,
		alpha_std     DOUBLE,
		thickness     DOUBLE,
		seed          BIGINT,
		mean_dist     DOUBLE,
		max_dist      DOUBLE,
		p95_dist      DOUBLE,
		duration_ms   BIGINT
	);
`

// Run is one recorded projection batch.
type Run struct {
	ID           string
	CreatedAt    time.Time
	MeshPath     string
	CloudPath    string
	NumPoints    int
	NumTriangles int
	AlphaStd     float64
	Thickness    float64
	Seed         int64
	MeanDist     float64
	MaxDist      float64
	P95Dist      float64
	DurationMs   int64
}

// Store wraps the sqlite handle.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the run database at path and ensures the schema
// exists.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("runstore: creating schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

// Insert records a run. A missing ID gets a fresh UUID and a zero CreatedAt
// gets the current time; both are written back to r.
func (s *Store) Insert(r *Run) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO projection_runs (
			run_id, created_at, mesh_path, cloud_path, num_points, num_triangles,
			alpha_std, thickness, seed, mean_dist, max_dist, p95_dist, duration_ms
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.CreatedAt, r.MeshPath, r.CloudPath, r.NumPoints, r.NumTriangles,
		r.AlphaStd, r.Thickness, r.Seed, r.MeanDist, r.MaxDist, r.P95Dist, r.DurationMs)
	if err != nil {
		return fmt.Errorf("runstore: inserting run %s: %w", r.ID, err)
	}
	return nil
}

// Get returns the run with the given ID.
func (s *Store) Get(id string) (*Run, error) {
	row := s.db.QueryRow(`
		SELECT run_id, created_at, mesh_path, cloud_path, num_points, num_triangles,
		       alpha_std, thickness, seed, mean_dist, max_dist, p95_dist, duration_ms
		FROM projection_runs WHERE run_id = ?`, id)
	var r Run
	err := row.Scan(&r.ID, &r.CreatedAt, &r.MeshPath, &r.CloudPath, &r.NumPoints,
		&r.NumTriangles, &r.AlphaStd, &r.Thickness, &r.Seed, &r.MeanDist,
		&r.MaxDist, &r.P95Dist, &r.DurationMs)
	if err != nil {
		return nil, fmt.Errorf("runstore: run %s: %w", id, err)
	}
	return &r, nil
}

// List returns up to limit runs, newest first. limit <= 0 means no limit.
func (s *Store) List(limit int) ([]Run, error) {
	if limit <= 0 {
		limit = -1
	}
	rows, err := s.db.Query(`
		SELECT run_id, created_at, mesh_path, cloud_path, num_points, num_triangles,
		       alpha_std, thickness, seed, mean_dist, max_dist, p95_dist, duration_ms
		FROM projection_runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("runstore: listing runs: %w", err)
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		if err := rows.Scan(&r.ID, &r.CreatedAt, &r.MeshPath, &r.CloudPath,
			&r.NumPoints, &r.NumTriangles, &r.AlphaStd, &r.Thickness, &r.Seed,
			&r.MeanDist, &r.MaxDist, &r.P95Dist, &r.DurationMs); err != nil {
			return nil, fmt.Errorf("runstore: scanning run: %w", err)
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}
