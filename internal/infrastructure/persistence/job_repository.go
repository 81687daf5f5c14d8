package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/utils"
)

// Job represents a persisted queue job record
type Job struct {
	ID           string
	Queue        string
	Payload      string
	Status       string
	RetryCount   int
	ErrorMessage string
	ScheduledAt  time.Time
	ProcessedAt  sql.NullTime
}

// Job status constants
const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusSucceeded  = "succeeded"
	JobStatusFailed     = "failed"
)

// JobRepository handles database operations for the job queue
type JobRepository struct {
	db *sql.DB
}

// NewJobRepository creates a new JobRepository
func NewJobRepository(db *sql.DB) *JobRepository {
	return &JobRepository{db: db}
}

// Enqueue inserts a new pending job
func (r *JobRepository) Enqueue(ctx context.Context, exec Executor, queue string, payload interface{}) (string, error) {
	id := utils.GenerateID()

	payloadJSON, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job payload: %w", err)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, queue, payload, status, retry_count, scheduled_at)
		VALUES (?, ?, ?, ?, 0, NOW())
	`, constants.TableJob)

	_, err = exec.ExecContext(ctx, query, id, queue, payloadJSON, JobStatusPending)
	if err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}

	return id, nil
}

// GetPending retrieves pending jobs for a queue ordered by schedule time
func (r *JobRepository) GetPending(ctx context.Context, queue string, limit int) ([]Job, error) {
	query := fmt.Sprintf(`
		SELECT id, queue, payload, retry_count
		FROM %s
		WHERE queue = ? AND status = ?
		ORDER BY scheduled_at ASC
		LIMIT ?
	`, constants.TableJob)

	rows, err := r.db.QueryContext(ctx, query, queue, JobStatusPending, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending jobs: %w", err)
	}
	defer rows.Close()

	var jobs []Job
	for rows.Next() {
		var j Job
		if err := rows.Scan(&j.ID, &j.Queue, &j.Payload, &j.RetryCount); err != nil {
			log.Printf("⚠️ Failed to scan job row: %v", err)
			continue
		}
		jobs = append(jobs, j)
	}

	return jobs, nil
}

// Claim attempts to lock a specific pending job for processing.
// Returns an empty ID when another worker already claimed it.
func (r *JobRepository) Claim(ctx context.Context, exec Executor, id string) (string, error) {
	query := fmt.Sprintf(`
		SELECT id FROM %s
		WHERE id = ? AND status = ?
		FOR UPDATE SKIP LOCKED
	`, constants.TableJob)

	var claimedID string
	err := exec.QueryRowContext(ctx, query, id, JobStatusPending).Scan(&claimedID)
	if err == sql.ErrNoRows {
		return "", nil // Already claimed
	}
	if err != nil {
		return "", err
	}
	return claimedID, nil
}

// UpdateStatus updates the status and related fields of a job
func (r *JobRepository) UpdateStatus(ctx context.Context, exec Executor, id string, status string, errMessage string) error {
	var query string
	var args []interface{}

	switch status {
	case JobStatusSucceeded:
		query = fmt.Sprintf(`
			UPDATE %s
			SET status = ?, processed_at = NOW()
			WHERE id = ?
		`, constants.TableJob)
		args = []interface{}{status, id}
	case JobStatusFailed:
		query = fmt.Sprintf(`
			UPDATE %s
			SET status = ?, error_message = ?, processed_at = NOW()
			WHERE id = ?
		`, constants.TableJob)
		args = []interface{}{status, errMessage, id}
	case JobStatusProcessing:
		query = fmt.Sprintf(`
			UPDATE %s
			SET status = ?
			WHERE id = ?
		`, constants.TableJob)
		args = []interface{}{status, id}
	default:
		return fmt.Errorf("unsupported status update: %s", status)
	}

	_, err := exec.ExecContext(ctx, query, args...)
	return err
}

// IncrementRetry returns a failed attempt to the pending state with an
// updated retry count
func (r *JobRepository) IncrementRetry(ctx context.Context, exec Executor, id string, newCount int, errMessage string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET status = ?, retry_count = ?, error_message = ?
		WHERE id = ?
	`, constants.TableJob)

	_, err := exec.ExecContext(ctx, query, JobStatusPending, newCount, errMessage, id)
	return err
}

// CleanupProcessed deletes old succeeded jobs
func (r *JobRepository) CleanupProcessed(ctx context.Context, cutoff time.Time) (int64, error) {
	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE status = ? AND processed_at < ?
	`, constants.TableJob)

	result, err := r.db.ExecContext(ctx, query, JobStatusSucceeded, cutoff)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
