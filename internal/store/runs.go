package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/automata/idgen"
)

// Run statuses.
const (
	RunRunning = "running"
	RunDone    = "done"
	RunFailed  = "failed"
)

// Run is one ingest attempt.
type Run struct {
	ID         string `json:"id"`
	StartedAt  int64  `json:"started_at"`
	FinishedAt int64  `json:"finished_at,omitempty"`
	Status     string `json:"status"`
	Error      string `json:"error,omitempty"`
	Inserted   int    `json:"inserted"`
	Skipped    int    `json:"skipped"`
}

// BeginRun records a new running ingest and returns its id.
func (s *Store) BeginRun(ctx context.Context) (string, error) {
	gen := s.NewID
	if gen == nil {
		gen = idgen.Default
	}
	id := gen()
	_, err := s.DB.ExecContext(ctx, `
		INSERT INTO ingest_runs (id, started_at, status) VALUES (?,?,?)`,
		id, time.Now().UnixMilli(), RunRunning,
	)
	if err != nil {
		return "", fmt.Errorf("store: begin run: %w", err)
	}
	return id, nil
}

// FinishRun closes a run. A nil runErr marks it done with the counts of rep;
// otherwise it is marked failed with the error text. rep may be nil.
func (s *Store) FinishRun(ctx context.Context, id string, rep *LoadReport, runErr error) error {
	status, msg := RunDone, ""
	if runErr != nil {
		status, msg = RunFailed, runErr.Error()
	}
	var inserted, skipped int
	if rep != nil {
		inserted, skipped = rep.TotalInserted(), rep.TotalSkipped()
	}
	res, err := s.DB.ExecContext(ctx, `
		UPDATE ingest_runs SET finished_at=?, status=?, error=?, inserted=?, skipped=?
		WHERE id=?`,
		time.Now().UnixMilli(), status, msg, inserted, skipped, id,
	)
	if err != nil {
		return fmt.Errorf("store: finish run: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("store: finish run: unknown run %q", id)
	}
	return nil
}

// LastRun returns the most recent run, or nil when none was recorded.
func (s *Store) LastRun(ctx context.Context) (*Run, error) {
	return s.scanRun(s.DB.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, status, error, inserted, skipped
		FROM ingest_runs ORDER BY started_at DESC, id DESC LIMIT 1`))
}

// LastCompletedRun returns the most recent run with status done, or nil.
func (s *Store) LastCompletedRun(ctx context.Context) (*Run, error) {
	return s.scanRun(s.DB.QueryRowContext(ctx, `
		SELECT id, started_at, finished_at, status, error, inserted, skipped
		FROM ingest_runs WHERE status = ? ORDER BY started_at DESC, id DESC LIMIT 1`, RunDone))
}

func (s *Store) scanRun(row *sql.Row) (*Run, error) {
	r := &Run{}
	var finished sql.NullInt64
	err := row.Scan(&r.ID, &r.StartedAt, &finished, &r.Status, &r.Error, &r.Inserted, &r.Skipped)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan run: %w", err)
	}
	r.FinishedAt = finished.Int64
	return r, nil
}
