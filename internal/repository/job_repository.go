package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/santoshjammi/payrecon/internal/domain"
)

const jobColumns = `id, status, source_dataset, target_dataset, progress, progress_message,
	total_rows, processed_rows, result_ref, error_message, metadata,
	created_at, updated_at, started_at, completed_at`

// jobRepository implements JobRepository on Postgres.
type jobRepository struct {
	pool *pgxpool.Pool
}

// NewJobRepository wires a job repository backed by pgxpool.
func NewJobRepository(pool *pgxpool.Pool) JobRepository {
	return &jobRepository{pool: pool}
}

func (r *jobRepository) Create(ctx context.Context, job domain.Job) (domain.Job, error) {
	metadata, err := json.Marshal(job.Metadata)
	if err != nil {
		return domain.Job{}, fmt.Errorf("failed to marshal job metadata: %w", err)
	}

	_, err = r.pool.Exec(
		ctx,
		`INSERT INTO comparison_jobs (
			id, status, source_dataset, target_dataset, progress, progress_message,
			total_rows, processed_rows, result_ref, error_message, metadata,
			created_at, updated_at, started_at, completed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		job.ID,
		string(job.Status),
		job.SourceDataset,
		job.TargetDataset,
		job.Progress,
		job.ProgressMessage,
		job.TotalRows,
		job.ProcessedRows,
		nullableString(job.ResultRef),
		nullableString(job.Error),
		metadata,
		job.CreatedAt,
		job.UpdatedAt,
		job.StartedAt,
		job.CompletedAt,
	)
	if err != nil {
		return domain.Job{}, fmt.Errorf("failed to create job: %w", err)
	}

	return job, nil
}

func (r *jobRepository) GetByID(ctx context.Context, id uuid.UUID) (domain.Job, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+jobColumns+` FROM comparison_jobs WHERE id = $1`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
		}
		return domain.Job{}, fmt.Errorf("failed to get job: %w", err)
	}
	return job, nil
}

// Update loads the job under a row lock, applies the lifecycle rules, and
// writes the new snapshot back in one transaction.
func (r *jobRepository) Update(ctx context.Context, id uuid.UUID, update domain.JobUpdate) (domain.Job, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Job{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	row := tx.QueryRow(ctx, `SELECT `+jobColumns+` FROM comparison_jobs WHERE id = $1 FOR UPDATE`, id)
	job, err := scanJob(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Job{}, fmt.Errorf("job %s: %w", id, domain.ErrNotFound)
		}
		return domain.Job{}, fmt.Errorf("failed to load job for update: %w", err)
	}

	job.Apply(update)

	metadata, err := json.Marshal(job.Metadata)
	if err != nil {
		return domain.Job{}, fmt.Errorf("failed to marshal job metadata: %w", err)
	}

	_, err = tx.Exec(
		ctx,
		`UPDATE comparison_jobs SET
			status = $2, progress = $3, progress_message = $4,
			total_rows = $5, processed_rows = $6, result_ref = $7,
			error_message = $8, metadata = $9, updated_at = $10,
			started_at = $11, completed_at = $12
		WHERE id = $1`,
		job.ID,
		string(job.Status),
		job.Progress,
		job.ProgressMessage,
		job.TotalRows,
		job.ProcessedRows,
		nullableString(job.ResultRef),
		nullableString(job.Error),
		metadata,
		job.UpdatedAt,
		job.StartedAt,
		job.CompletedAt,
	)
	if err != nil {
		return domain.Job{}, fmt.Errorf("failed to update job: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Job{}, fmt.Errorf("failed to commit job update: %w", err)
	}

	return job, nil
}

func (r *jobRepository) List(ctx context.Context, limit int) ([]domain.Job, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.pool.Query(
		ctx,
		`SELECT `+jobColumns+` FROM comparison_jobs ORDER BY updated_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	jobs := []domain.Job{}
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return jobs, nil
}

func (r *jobRepository) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM comparison_jobs WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("failed to delete job: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanJob(row pgx.Row) (domain.Job, error) {
	var (
		job         domain.Job
		status      string
		resultRef   pgtype.Text
		errMessage  pgtype.Text
		metadata    []byte
		startedAt   pgtype.Timestamptz
		completedAt pgtype.Timestamptz
	)

	err := row.Scan(
		&job.ID,
		&status,
		&job.SourceDataset,
		&job.TargetDataset,
		&job.Progress,
		&job.ProgressMessage,
		&job.TotalRows,
		&job.ProcessedRows,
		&resultRef,
		&errMessage,
		&metadata,
		&job.CreatedAt,
		&job.UpdatedAt,
		&startedAt,
		&completedAt,
	)
	if err != nil {
		return domain.Job{}, err
	}

	job.Status = domain.JobStatus(status)
	if resultRef.Valid {
		job.ResultRef = resultRef.String
	}
	if errMessage.Valid {
		job.Error = errMessage.String
	}
	if startedAt.Valid {
		t := startedAt.Time
		job.StartedAt = &t
	}
	if completedAt.Valid {
		t := completedAt.Time
		job.CompletedAt = &t
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &job.Metadata); err != nil {
			return domain.Job{}, fmt.Errorf("failed to unmarshal job metadata: %w", err)
		}
	}

	return job, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
