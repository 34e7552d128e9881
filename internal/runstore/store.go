// Package runstore persists training runs and their metric series in SQLite.
//
// Each run owns any number of named series; a series is a sequence of
// (step, value) points. Values may be NaN or infinite, matching what the
// numeric layer produces when a loss diverges.
package runstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

var ErrNotFound = errors.New("runstore: not found")

// Run is one recorded training run.
type Run struct {
	ID        string
	Name      string
	CreatedAt time.Time
	Seed      int64
	Steps     int
	Notes     string
}

// Point is a single measurement within a series.
type Point struct {
	Series string
	Step   int
	Value  float64
}

// SeriesInfo summarises one series of a run.
type SeriesInfo struct {
	Name  string
	Count int
}

// Store wraps the SQLite database holding runs and points.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	seed       INTEGER NOT NULL,
	steps      INTEGER NOT NULL DEFAULT 0,
	notes      TEXT NOT NULL DEFAULT ''
);
CREATE TABLE IF NOT EXISTS points (
	run_id TEXT NOT NULL,
	series TEXT NOT NULL,
	step   INTEGER NOT NULL,
	value  REAL,
	PRIMARY KEY (run_id, series, step)
);
`

// Open opens (creating if needed) the run database at path.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("runstore: empty database path")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// SQLite allows a single writer; one pooled connection avoids
	// SQLITE_BUSY when handlers append concurrently.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("runstore: init schema: %w", err)
	}
	return &Store{db: db}, nil
}

// OpenMemory opens a private in-memory store, mainly for tests.
func OpenMemory() (*Store, error) {
	return Open(":memory:")
}

func (s *Store) Close() error {
	return s.db.Close()
}

// CreateRun registers a new run and returns it with a fresh ID.
func (s *Store) CreateRun(ctx context.Context, name string, seed int64, notes string) (Run, error) {
	if name == "" {
		return Run{}, errors.New("runstore: empty run name")
	}
	r := Run{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: time.Now().UTC().Truncate(time.Second),
		Seed:      seed,
		Notes:     notes,
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, name, created_at, seed, steps, notes) VALUES (?, ?, ?, ?, 0, ?)`,
		r.ID, r.Name, r.CreatedAt.Unix(), r.Seed, r.Notes)
	if err != nil {
		return Run{}, err
	}
	return r, nil
}

// GetRun returns a run by ID, or ErrNotFound.
func (s *Store) GetRun(ctx context.Context, id string) (Run, error) {
	var (
		r       Run
		created int64
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_at, seed, steps, notes FROM runs WHERE id = ?`, id).
		Scan(&r.ID, &r.Name, &created, &r.Seed, &r.Steps, &r.Notes)
	if errors.Is(err, sql.ErrNoRows) {
		return Run{}, ErrNotFound
	}
	if err != nil {
		return Run{}, err
	}
	r.CreatedAt = time.Unix(created, 0).UTC()
	return r, nil
}

// ListRuns returns all runs, newest first.
func (s *Store) ListRuns(ctx context.Context) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_at, seed, steps, notes FROM runs ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var runs []Run
	for rows.Next() {
		var (
			r       Run
			created int64
		)
		if err := rows.Scan(&r.ID, &r.Name, &created, &r.Seed, &r.Steps, &r.Notes); err != nil {
			return nil, err
		}
		r.CreatedAt = time.Unix(created, 0).UTC()
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// DeleteRun removes a run and all of its points.
func (s *Store) DeleteRun(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM points WHERE run_id = ?`, id); err != nil {
		return err
	}
	return tx.Commit()
}

// AppendPoints records points for a run inside one transaction.
// Re-recording an existing (series, step) pair overwrites its value, so a
// resumed run can replay its tail safely.
func (s *Store) AppendPoints(ctx context.Context, runID string, points []Point) error {
	if len(points) == 0 {
		return nil
	}
	for i := range points {
		if points[i].Series == "" {
			return fmt.Errorf("runstore: point %d has empty series name", i)
		}
		if points[i].Step < 0 {
			return fmt.Errorf("runstore: point %d has negative step %d", i, points[i].Step)
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := runExists(ctx, tx, runID); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO points (run_id, series, step, value) VALUES (?, ?, ?, ?)
		 ON CONFLICT (run_id, series, step) DO UPDATE SET value = excluded.value`)
	if err != nil {
		return err
	}
	defer func() { _ = stmt.Close() }()

	maxStep := -1
	for _, p := range points {
		if _, err := stmt.ExecContext(ctx, runID, p.Series, p.Step, bindValue(p.Value)); err != nil {
			return err
		}
		if p.Step > maxStep {
			maxStep = p.Step
		}
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE runs SET steps = max(steps, ?) WHERE id = ?`, maxStep+1, runID); err != nil {
		return err
	}
	return tx.Commit()
}

// Series returns the values of one series ordered by step.
// It returns ErrNotFound if the run or the series does not exist.
func (s *Store) Series(ctx context.Context, runID, name string) ([]float64, error) {
	if err := runExists(ctx, s.db, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT value FROM points WHERE run_id = ? AND series = ? ORDER BY step`, runID, name)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var values []float64
	for rows.Next() {
		var v sql.NullFloat64
		if err := rows.Scan(&v); err != nil {
			return nil, err
		}
		values = append(values, scanValue(v))
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, ErrNotFound
	}
	return values, nil
}

// ListSeries returns the series recorded for a run, sorted by name.
func (s *Store) ListSeries(ctx context.Context, runID string) ([]SeriesInfo, error) {
	if err := runExists(ctx, s.db, runID); err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT series, COUNT(*) FROM points WHERE run_id = ? GROUP BY series ORDER BY series`, runID)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var infos []SeriesInfo
	for rows.Next() {
		var info SeriesInfo
		if err := rows.Scan(&info.Name, &info.Count); err != nil {
			return nil, err
		}
		infos = append(infos, info)
	}
	return infos, rows.Err()
}

type rowQuerier interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func runExists(ctx context.Context, q rowQuerier, id string) error {
	var one int
	err := q.QueryRowContext(ctx, `SELECT 1 FROM runs WHERE id = ?`, id).Scan(&one)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return err
}

// SQLite has no NaN value; store it as NULL and map it back on scan.
func bindValue(v float64) any {
	if math.IsNaN(v) {
		return nil
	}
	return v
}

func scanValue(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
