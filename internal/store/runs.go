package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// RunRecord is one persisted pipeline invocation.
type RunRecord struct {
	ID         string
	Catalog    string
	OutputPath string
	Inputs     []string
	Status     RunStatus
	Error      string
	StartedAt  time.Time
	FinishedAt time.Time
}

// Elapsed returns the run duration, measured to now while still running.
func (r RunRecord) Elapsed() time.Duration {
	end := r.FinishedAt
	if end.IsZero() {
		end = time.Now()
	}
	if r.StartedAt.IsZero() {
		return 0
	}
	return end.Sub(r.StartedAt)
}

const runColumns = "id, catalog, output_path, inputs_json, status, error_message, started_at, finished_at"

// StartRun records a run in the running state.
func (s *Store) StartRun(ctx context.Context, id, catalog, outputPath string, inputs []string) error {
	if id == "" {
		return errors.New("run id is required")
	}
	inputsJSON, err := json.Marshal(inputs)
	if err != nil {
		return fmt.Errorf("marshal run inputs: %w", err)
	}
	_, err = s.exec(ctx,
		`INSERT INTO runs (id, catalog, output_path, inputs_json, status, started_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, nullableString(catalog), outputPath, string(inputsJSON), RunStatusRunning, formatTime(time.Now()),
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun moves a running run to completed, or to failed when runErr is non-nil.
func (s *Store) FinishRun(ctx context.Context, id string, runErr error) error {
	status := RunStatusCompleted
	message := ""
	if runErr != nil {
		status = RunStatusFailed
		message = runErr.Error()
	}
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE id = ? AND status = ?`,
		status, nullableString(message), formatTime(time.Now()), id, RunStatusRunning,
	)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("finish run %s: not running", id)
	}
	return nil
}

// GetRun fetches a run by ID. A missing run returns nil without error.
func (s *Store) GetRun(ctx context.Context, id string) (*RunRecord, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	return run, nil
}

// ListRuns returns the most recent runs first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	return runs, rows.Err()
}

// FailStaleRuns marks runs left in the running state by a crashed process as
// failed and returns how many were updated.
func (s *Store) FailStaleRuns(ctx context.Context, reason string) (int64, error) {
	res, err := s.exec(ctx,
		`UPDATE runs SET status = ?, error_message = ?, finished_at = ? WHERE status = ?`,
		RunStatusFailed, nullableString(reason), formatTime(time.Now()), RunStatusRunning,
	)
	if err != nil {
		return 0, fmt.Errorf("fail stale runs: %w", err)
	}
	return res.RowsAffected()
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*RunRecord, error) {
	var (
		run        RunRecord
		catalog    sql.NullString
		inputsJSON string
		status     string
		errMessage sql.NullString
		startedRaw sql.NullString
		finished   sql.NullString
	)
	if err := scanner.Scan(&run.ID, &catalog, &run.OutputPath, &inputsJSON, &status, &errMessage, &startedRaw, &finished); err != nil {
		return nil, err
	}
	if inputsJSON != "" {
		if err := json.Unmarshal([]byte(inputsJSON), &run.Inputs); err != nil {
			return nil, fmt.Errorf("decode run inputs: %w", err)
		}
	}
	run.Catalog = catalog.String
	run.Status = RunStatus(status)
	run.Error = errMessage.String
	run.StartedAt = parseTime(startedRaw)
	run.FinishedAt = parseTime(finished)
	return &run, nil
}
