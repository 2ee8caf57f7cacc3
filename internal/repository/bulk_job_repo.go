package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"sessionhub-backend/internal/models"
)

type BulkJobRepo struct {
	pool *pgxpool.Pool
}

func NewBulkJobRepo(pool *pgxpool.Pool) *BulkJobRepo {
	return &BulkJobRepo{pool: pool}
}

func (r *BulkJobRepo) Create(ctx context.Context, job *models.BulkJob) error {
	job.ID = uuid.New()
	if job.Status == "" {
		job.Status = "processing"
	}

	query := `INSERT INTO bulk_jobs (id, file_name, status)
		VALUES ($1, $2, $3) RETURNING created_at`

	return r.pool.QueryRow(ctx, query, job.ID, job.FileName, job.Status).Scan(&job.CreatedAt)
}

// Finish writes the job's final counters, status and row errors.
func (r *BulkJobRepo) Finish(ctx context.Context, job *models.BulkJob) error {
	errorsJSON, err := marshalOrEmptyArray(job.RowErrors)
	if err != nil {
		return fmt.Errorf("failed to marshal row errors: %w", err)
	}

	now := time.Now()
	job.CompletedAt = &now

	_, err = r.pool.Exec(ctx,
		`UPDATE bulk_jobs SET status = $1, processed = $2, successful = $3, failed = $4,
		 row_errors = $5, error_message = $6, completed_at = $7 WHERE id = $8`,
		job.Status, job.Processed, job.Successful, job.Failed,
		errorsJSON, job.ErrorMessage, job.CompletedAt, job.ID,
	)
	return err
}

func (r *BulkJobRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.BulkJob, error) {
	job := &models.BulkJob{}
	var errorsJSON []byte

	query := `SELECT id, file_name, status, processed, successful, failed,
		row_errors, error_message, created_at, completed_at
		FROM bulk_jobs WHERE id = $1`

	err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID, &job.FileName, &job.Status, &job.Processed, &job.Successful, &job.Failed,
		&errorsJSON, &job.ErrorMessage, &job.CreatedAt, &job.CompletedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(errorsJSON, &job.RowErrors); err != nil {
		return nil, fmt.Errorf("failed to unmarshal row errors for %s: %w", id, err)
	}
	return job, nil
}

func (r *BulkJobRepo) List(ctx context.Context, limit, offset int) ([]*models.BulkJob, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, file_name, status, processed, successful, failed,
		 row_errors, error_message, created_at, completed_at
		 FROM bulk_jobs ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*models.BulkJob
	for rows.Next() {
		job := &models.BulkJob{}
		var errorsJSON []byte
		err := rows.Scan(
			&job.ID, &job.FileName, &job.Status, &job.Processed, &job.Successful, &job.Failed,
			&errorsJSON, &job.ErrorMessage, &job.CreatedAt, &job.CompletedAt,
		)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(errorsJSON, &job.RowErrors); err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}
	return jobs, nil
}
