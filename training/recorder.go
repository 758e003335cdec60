package training

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// Recorder persists training runs and their per-step metrics in a SQLite
// database so runs can be compared after the fact.
type Recorder struct {
	db    *sql.DB
	runID string
}

// NewRecorder opens (or creates) the database at path and registers a new
// training run for the given equation.
func NewRecorder(path, equationName string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	schema := `
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		equation TEXT NOT NULL,
		started_at TIMESTAMP NOT NULL
	);
	CREATE TABLE IF NOT EXISTS metrics (
		run_id TEXT NOT NULL,
		step INTEGER NOT NULL,
		name TEXT NOT NULL,
		value REAL NOT NULL,
		FOREIGN KEY (run_id) REFERENCES runs(id)
	);
	CREATE INDEX IF NOT EXISTS idx_metrics_run_step ON metrics(run_id, step);
	`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}

	runID := uuid.NewString()
	_, err = db.Exec(`INSERT INTO runs (id, equation, started_at) VALUES (?, ?, ?)`,
		runID, equationName, time.Now().UTC())
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to register run: %w", err)
	}

	return &Recorder{db: db, runID: runID}, nil
}

// RunID returns the identifier of the current run.
func (r *Recorder) RunID() string {
	return r.runID
}

// Record stores all metrics for one training step.
func (r *Recorder) Record(step int, metrics map[string]float64) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO metrics (run_id, step, name, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for name, value := range metrics {
		if _, err := stmt.Exec(r.runID, step, name, value); err != nil {
			return fmt.Errorf("failed to record metric %s: %w", name, err)
		}
	}
	return tx.Commit()
}

// History returns the recorded values of one metric for the current run,
// ordered by step.
func (r *Recorder) History(name string) (steps []int, values []float64, err error) {
	rows, err := r.db.Query(
		`SELECT step, value FROM metrics WHERE run_id = ? AND name = ? ORDER BY step`,
		r.runID, name)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query metrics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var step int
		var value float64
		if err := rows.Scan(&step, &value); err != nil {
			return nil, nil, fmt.Errorf("failed to scan metric row: %w", err)
		}
		steps = append(steps, step)
		values = append(values, value)
	}
	return steps, values, rows.Err()
}

// Close closes the underlying database.
func (r *Recorder) Close() error {
	return r.db.Close()
}
