// Package sqlite contains SQLite implementations of repository interfaces.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/example/goapgit/internal/ports/secondary"
)

// RunRepository implements secondary.RunRepository with SQLite.
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new SQLite run repository.
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

// Create persists a finished run and its steps in one transaction.
func (r *RunRepository) Create(ctx context.Context, run *secondary.RunRecord) error {
	startedAt, err := parseTimestamp(run.StartedAt)
	if err != nil {
		return fmt.Errorf("invalid started_at: %w", err)
	}
	finishedAt, err := parseTimestamp(run.FinishedAt)
	if err != nil {
		return fmt.Errorf("invalid finished_at: %w", err)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // no-op after commit

	_, err = tx.ExecContext(ctx,
		"INSERT INTO runs (id, repo_path, branch, dry_run, replanned, status, error, initial_cost, final_cost, executed_count, payload, started_at, finished_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		run.ID, run.RepoPath, nullString(run.Branch), run.DryRun, run.Replanned, run.Status, nullString(run.Error),
		run.InitialCost, run.FinalCost, run.ExecutedCount, nullString(run.Payload), startedAt, finishedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create run: %w", err)
	}

	for _, step := range run.Steps {
		_, err = tx.ExecContext(ctx,
			"INSERT INTO run_steps (run_id, seq, action, status, error, output) VALUES (?, ?, ?, ?, ?, ?)",
			run.ID, step.Seq, step.Action, step.Status, nullString(step.Error), nullString(step.Output),
		)
		if err != nil {
			return fmt.Errorf("failed to create run step %d: %w", step.Seq, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetByID retrieves a run and its steps by ID.
func (r *RunRepository) GetByID(ctx context.Context, id string) (*secondary.RunRecord, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+runColumns+" FROM runs WHERE id = ?",
		id,
	)
	record, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("run %s not found", id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run: %w", err)
	}

	steps, err := r.listSteps(ctx, id)
	if err != nil {
		return nil, err
	}
	record.Steps = steps
	return record, nil
}

// List retrieves runs matching the given filters, newest first. Steps are not loaded.
func (r *RunRepository) List(ctx context.Context, filters secondary.RunFilters) ([]*secondary.RunRecord, error) {
	query := "SELECT " + runColumns + " FROM runs WHERE 1=1"
	args := []any{}

	if filters.RepoPath != "" {
		query += " AND repo_path = ?"
		args = append(args, filters.RepoPath)
	}

	query += " ORDER BY started_at DESC, id"

	if filters.Limit > 0 {
		query += " LIMIT ?"
		args = append(args, filters.Limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*secondary.RunRecord
	for rows.Next() {
		record, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate runs: %w", err)
	}
	return runs, nil
}

func (r *RunRepository) listSteps(ctx context.Context, runID string) ([]*secondary.RunStepRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT seq, action, status, error, output FROM run_steps WHERE run_id = ? ORDER BY seq",
		runID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list run steps: %w", err)
	}
	defer rows.Close()

	var steps []*secondary.RunStepRecord
	for rows.Next() {
		var (
			step   secondary.RunStepRecord
			errMsg sql.NullString
			output sql.NullString
		)
		if err := rows.Scan(&step.Seq, &step.Action, &step.Status, &errMsg, &output); err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}
		step.Error = errMsg.String
		step.Output = output.String
		steps = append(steps, &step)
	}
	return steps, rows.Err()
}

const runColumns = "id, repo_path, branch, dry_run, replanned, status, error, initial_cost, final_cost, executed_count, payload, started_at, finished_at"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*secondary.RunRecord, error) {
	var (
		branch     sql.NullString
		errMsg     sql.NullString
		payload    sql.NullString
		startedAt  time.Time
		finishedAt time.Time
	)
	record := &secondary.RunRecord{}
	err := row.Scan(&record.ID, &record.RepoPath, &branch, &record.DryRun, &record.Replanned, &record.Status, &errMsg,
		&record.InitialCost, &record.FinalCost, &record.ExecutedCount, &payload, &startedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	record.Branch = branch.String
	record.Error = errMsg.String
	record.Payload = payload.String
	record.StartedAt = startedAt.UTC().Format(time.RFC3339)
	record.FinishedAt = finishedAt.UTC().Format(time.RFC3339)
	return record, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Now().UTC(), nil
	}
	return time.Parse(time.RFC3339, s)
}

// Ensure RunRepository implements the interface
var _ secondary.RunRepository = (*RunRepository)(nil)
