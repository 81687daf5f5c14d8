package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/utils"
)

// RunRepository handles database operations for playbook runs
type RunRepository struct {
	db *sql.DB
}

// NewRunRepository creates a new RunRepository
func NewRunRepository(db *sql.DB) *RunRepository {
	return &RunRepository{db: db}
}

const runColumns = `id, project_id, playbook_key, status, rules_hash, scope_type,
	total_items, processed_items, succeeded_items, failed_items, drafts_reused, ai_generated,
	error_message, requested_by, started_at, finished_at, created_at, updated_at`

// Insert creates a new QUEUED run and returns its ID
func (r *RunRepository) Insert(ctx context.Context, exec Executor, run *models.PlaybookRun) (string, error) {
	if run.ID == "" {
		run.ID = utils.GenerateID()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, playbook_key, status, rules_hash, scope_type, total_items, requested_by, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
	`, constants.TablePlaybookRun)

	_, err := exec.ExecContext(ctx, query,
		run.ID, run.ProjectID, run.PlaybookKey, run.Status, run.RulesHash,
		run.ScopeType, run.TotalItems, run.RequestedBy,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}
	return run.ID, nil
}

// GetByID retrieves a run, or nil when absent
func (r *RunRepository) GetByID(ctx context.Context, projectID, runID string) (*models.PlaybookRun, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND project_id = ? LIMIT 1", runColumns, constants.TablePlaybookRun)

	run, err := r.scanRun(r.db.QueryRowContext(ctx, query, runID, projectID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return run, err
}

// ListByProject retrieves runs for a project, newest first
func (r *RunRepository) ListByProject(ctx context.Context, projectID string, limit int) ([]*models.PlaybookRun, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE project_id = ? ORDER BY created_at DESC LIMIT ?", runColumns, constants.TablePlaybookRun)

	rows, err := r.db.QueryContext(ctx, query, projectID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.PlaybookRun
	for rows.Next() {
		run, err := r.scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// HasActiveRun reports whether the project has a QUEUED or RUNNING run for
// the playbook. This backs the duplicate-run idempotency guard.
func (r *RunRepository) HasActiveRun(ctx context.Context, exec Executor, projectID, playbookKey string) (bool, error) {
	query := fmt.Sprintf(`
		SELECT EXISTS(SELECT 1 FROM %s WHERE project_id = ? AND playbook_key = ? AND status IN (?, ?))
	`, constants.TablePlaybookRun)

	var exists bool
	err := exec.QueryRowContext(ctx, query, projectID, playbookKey, constants.RunStatusQueued, constants.RunStatusRunning).Scan(&exists)
	return exists, err
}

// MarkRunning transitions QUEUED -> RUNNING. Returns false when the run was
// no longer QUEUED (e.g. canceled between claim and start).
func (r *RunRepository) MarkRunning(ctx context.Context, runID string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET status = ?, started_at = NOW(), updated_at = NOW()
		WHERE id = ? AND status = ?
	`, constants.TablePlaybookRun)

	res, err := r.db.ExecContext(ctx, query, constants.RunStatusRunning, runID, constants.RunStatusQueued)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// MarkCanceled transitions QUEUED -> CANCELED. Returns false when the run
// already left the QUEUED state.
func (r *RunRepository) MarkCanceled(ctx context.Context, projectID, runID string) (bool, error) {
	query := fmt.Sprintf(`
		UPDATE %s SET status = ?, finished_at = NOW(), updated_at = NOW()
		WHERE id = ? AND project_id = ? AND status = ?
	`, constants.TablePlaybookRun)

	res, err := r.db.ExecContext(ctx, query, constants.RunStatusCanceled, runID, projectID, constants.RunStatusQueued)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n > 0, err
}

// UpdateProgress refreshes the per-item counters while a run executes
func (r *RunRepository) UpdateProgress(ctx context.Context, runID string, processed, succeeded, failed, reused, generated int) error {
	query := fmt.Sprintf(`
		UPDATE %s SET processed_items = ?, succeeded_items = ?, failed_items = ?,
			drafts_reused = ?, ai_generated = ?, updated_at = NOW()
		WHERE id = ?
	`, constants.TablePlaybookRun)

	_, err := r.db.ExecContext(ctx, query, processed, succeeded, failed, reused, generated, runID)
	return err
}

// MarkFinished transitions RUNNING -> SUCCEEDED or FAILED
func (r *RunRepository) MarkFinished(ctx context.Context, runID, status, errMessage string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET status = ?, error_message = ?, finished_at = NOW(), updated_at = NOW()
		WHERE id = ?
	`, constants.TablePlaybookRun)

	_, err := r.db.ExecContext(ctx, query, status, errMessage, runID)
	return err
}

func (r *RunRepository) scanRun(row Scannable) (*models.PlaybookRun, error) {
	var run models.PlaybookRun
	var errMessage sql.NullString
	var startedAt, finishedAt sql.NullTime
	var createdRaw, updatedRaw []byte

	err := row.Scan(&run.ID, &run.ProjectID, &run.PlaybookKey, &run.Status, &run.RulesHash,
		&run.ScopeType, &run.TotalItems, &run.ProcessedItems, &run.SucceededItems,
		&run.FailedItems, &run.DraftsReused, &run.AiGenerated, &errMessage,
		&run.RequestedBy, &startedAt, &finishedAt, &createdRaw, &updatedRaw)
	if err != nil {
		return nil, err
	}

	run.ErrorMessage = errMessage.String
	run.StartedAt = nullTimePtr(startedAt)
	run.FinishedAt = nullTimePtr(finishedAt)
	run.CreatedAt = parseTime(createdRaw)
	run.UpdatedAt = parseTime(updatedRaw)
	return &run, nil
}
