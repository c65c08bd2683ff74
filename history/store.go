// Package history records conversion jobs in a SQLite database.
//
// The pure Go modernc.org/sqlite driver is used, so the ledger works with
// CGO disabled.
package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// DriverName is the database/sql driver used by the store.
const DriverName = "sqlite"

// ErrNotFound is returned when a job does not exist.
var ErrNotFound = errors.New("history: job not found")

// Status is the lifecycle state of a job.
type Status string

const (
	StatusPending    Status = "pending"
	StatusProcessing Status = "processing"
	StatusCompleted  Status = "completed"
	StatusFailed     Status = "failed"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusProcessing, StatusCompleted, StatusFailed:
		return true
	}
	return false
}

// Job is one recorded conversion.
type Job struct {
	ID             int64     `json:"id"`
	RunID          string    `json:"run_id"`
	Status         Status    `json:"status"`
	TemplatePath   string    `json:"template_path"`
	MappingPath    string    `json:"mapping_path"`
	OutputPath     string    `json:"output_path"`
	PairCount      int       `json:"pair_count"`
	PageCount      int       `json:"page_count"`
	ImagesInserted int       `json:"images_inserted"`
	Error          string    `json:"error,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Outcome is the final tally of a job.
type Outcome struct {
	Success        bool
	PairCount      int
	PageCount      int
	ImagesInserted int
	Error          string
}

const schema = `
CREATE TABLE IF NOT EXISTS jobs (
	id              INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id          TEXT NOT NULL,
	status          TEXT NOT NULL,
	template_path   TEXT NOT NULL,
	mapping_path    TEXT NOT NULL,
	output_path     TEXT NOT NULL,
	pair_count      INTEGER NOT NULL DEFAULT 0,
	page_count      INTEGER NOT NULL DEFAULT 0,
	images_inserted INTEGER NOT NULL DEFAULT 0,
	error           TEXT NOT NULL DEFAULT '',
	created_at      TEXT NOT NULL,
	updated_at      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_jobs_run_id ON jobs(run_id);
CREATE INDEX IF NOT EXISTS idx_jobs_created_at ON jobs(created_at);
`

const jobColumns = `id, run_id, status, template_path, mapping_path, output_path,
	pair_count, page_count, images_inserted, error, created_at, updated_at`

// Store is a job ledger.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

// Open opens or creates the ledger at path.
func Open(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("history: creating directory: %w", err)
		}
	}
	db, err := sql.Open(DriverName, path)
	if err != nil {
		return nil, fmt.Errorf("history: opening %s: %w", path, err)
	}
	// One connection serializes writers and keeps pragmas in effect.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: configuring %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: migrating %s: %w", path, err)
	}
	return &Store{db: db, now: time.Now}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) timestamp() string {
	return s.now().UTC().Format(time.RFC3339Nano)
}

// Create records a pending job and fills in its ID and timestamps.
func (s *Store) Create(ctx context.Context, job *Job) error {
	ts := s.timestamp()
	if job.Status == "" {
		job.Status = StatusPending
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO jobs (run_id, status, template_path, mapping_path, output_path, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		job.RunID, string(job.Status), job.TemplatePath, job.MappingPath, job.OutputPath, ts, ts)
	if err != nil {
		return fmt.Errorf("history: creating job: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("history: creating job: %w", err)
	}
	job.ID = id
	job.CreatedAt, _ = time.Parse(time.RFC3339Nano, ts)
	job.UpdatedAt = job.CreatedAt
	return nil
}

// UpdateStatus moves a job to status.
func (s *Store) UpdateStatus(ctx context.Context, id int64, status Status) error {
	if !status.Valid() {
		return fmt.Errorf("history: invalid status %q", status)
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), s.timestamp(), id)
	if err != nil {
		return fmt.Errorf("history: updating job %d: %w", id, err)
	}
	return affected(res, id)
}

// Finish stores the outcome of a job and marks it completed or failed.
func (s *Store) Finish(ctx context.Context, id int64, out Outcome) error {
	status := StatusCompleted
	if !out.Success {
		status = StatusFailed
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE jobs SET status = ?, pair_count = ?, page_count = ?, images_inserted = ?, error = ?, updated_at = ?
		 WHERE id = ?`,
		string(status), out.PairCount, out.PageCount, out.ImagesInserted, out.Error, s.timestamp(), id)
	if err != nil {
		return fmt.Errorf("history: finishing job %d: %w", id, err)
	}
	return affected(res, id)
}

// Get returns one job.
func (s *Store) Get(ctx context.Context, id int64) (*Job, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+jobColumns+` FROM jobs WHERE id = ?`, id)
	job, err := scanJob(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("history: reading job %d: %w", id, err)
	}
	return job, nil
}

// List returns the most recent jobs first. A limit of zero or less
// returns every job.
func (s *Store) List(ctx context.Context, limit int) ([]*Job, error) {
	query := `SELECT ` + jobColumns + ` FROM jobs ORDER BY id DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("history: listing jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("history: listing jobs: %w", err)
		}
		jobs = append(jobs, job)
	}
	return jobs, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanJob(sc scanner) (*Job, error) {
	var (
		job              Job
		status           string
		created, updated string
	)
	err := sc.Scan(&job.ID, &job.RunID, &status, &job.TemplatePath, &job.MappingPath, &job.OutputPath,
		&job.PairCount, &job.PageCount, &job.ImagesInserted, &job.Error, &created, &updated)
	if err != nil {
		return nil, err
	}
	job.Status = Status(status)
	if job.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("created_at: %w", err)
	}
	if job.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("updated_at: %w", err)
	}
	return &job, nil
}

func affected(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return nil
}
