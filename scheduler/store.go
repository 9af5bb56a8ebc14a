package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"goflare.io/loyalty/driver"
	"goflare.io/loyalty/models"
	"goflare.io/loyalty/models/enum"
)

// Store persists the job registry shared by all worker processes.
type Store interface {
	// Upsert registers a job run entry. Idempotent by name: an existing row
	// gets the new schedule while last start and outcome survive.
	Upsert(ctx context.Context, run *models.JobRun) error

	List(ctx context.Context) ([]*models.JobRun, error)

	MarkRunning(ctx context.Context, name string, at time.Time) error

	MarkFinished(ctx context.Context, name string, outcome enum.JobOutcome, nextRunAt time.Time) error
}

type store struct {
	conn driver.PostgresPool
}

func NewStore(conn driver.PostgresPool) Store {
	return &store{conn: conn}
}

func (s *store) Upsert(ctx context.Context, run *models.JobRun) error {
	const query = `
    INSERT INTO job_runs (name, schedule, last_outcome, next_run_at, updated_at)
    VALUES (@name, @schedule, @last_outcome, @next_run_at, NOW())
    ON CONFLICT (name) DO UPDATE SET
        schedule = @schedule,
        next_run_at = @next_run_at,
        updated_at = NOW()
    `

	args := pgx.NamedArgs{
		"name":         run.Name,
		"schedule":     run.Schedule,
		"last_outcome": run.LastOutcome,
		"next_run_at":  run.NextRunAt,
	}

	if _, err := s.conn.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("failed to upsert job run: %w", err)
	}

	return nil
}

func (s *store) List(ctx context.Context) ([]*models.JobRun, error) {
	const query = `
    SELECT name, schedule, last_start_at, last_outcome, next_run_at, updated_at
    FROM job_runs
    `

	rows, err := s.conn.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list job runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.JobRun
	for rows.Next() {
		var run models.JobRun
		if err = rows.Scan(
			&run.Name,
			&run.Schedule,
			&run.LastStartAt,
			&run.LastOutcome,
			&run.NextRunAt,
			&run.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan job run: %w", err)
		}
		runs = append(runs, &run)
	}

	return runs, rows.Err()
}

func (s *store) MarkRunning(ctx context.Context, name string, at time.Time) error {
	const query = `
    UPDATE job_runs
    SET last_start_at = @at, last_outcome = @outcome, updated_at = NOW()
    WHERE name = @name
    `

	args := pgx.NamedArgs{
		"name":    name,
		"at":      at,
		"outcome": enum.JobOutcomeRunning,
	}

	if _, err := s.conn.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("failed to mark job running: %w", err)
	}

	return nil
}

func (s *store) MarkFinished(ctx context.Context, name string, outcome enum.JobOutcome, nextRunAt time.Time) error {
	const query = `
    UPDATE job_runs
    SET last_outcome = @outcome, next_run_at = @next_run_at, updated_at = NOW()
    WHERE name = @name
    `

	args := pgx.NamedArgs{
		"name":        name,
		"outcome":     outcome,
		"next_run_at": nextRunAt,
	}

	if _, err := s.conn.Exec(ctx, query, args); err != nil {
		return fmt.Errorf("failed to mark job finished: %w", err)
	}

	return nil
}
