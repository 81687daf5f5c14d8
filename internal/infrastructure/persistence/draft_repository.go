package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/utils"
)

// DraftRepository handles database operations for AI suggestion drafts
type DraftRepository struct {
	db *sql.DB
}

// NewDraftRepository creates a new DraftRepository
func NewDraftRepository(db *sql.DB) *DraftRepository {
	return &DraftRepository{db: db}
}

const draftColumns = `id, project_id, playbook_key, scope_type, scope_id, handle, field,
	work_key, current_value, suggested_value, status, model, run_id, applied_at, created_at, updated_at`

// Insert creates a new draft and returns its ID
func (r *DraftRepository) Insert(ctx context.Context, exec Executor, d *models.Draft) (string, error) {
	if d.ID == "" {
		d.ID = utils.GenerateID()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, playbook_key, scope_type, scope_id, handle, field, work_key, current_value, suggested_value, status, model, run_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
	`, constants.TablePlaybookDraft)

	_, err := exec.ExecContext(ctx, query,
		d.ID, d.ProjectID, d.PlaybookKey, d.ScopeType, d.ScopeID, d.Handle, d.Field,
		d.WorkKey, d.CurrentValue, d.SuggestedValue, d.Status, d.Model, d.RunID,
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert draft: %w", err)
	}
	return d.ID, nil
}

// GetByID retrieves a draft, or nil when absent
func (r *DraftRepository) GetByID(ctx context.Context, projectID, draftID string) (*models.Draft, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ? AND project_id = ? LIMIT 1", draftColumns, constants.TablePlaybookDraft)

	d, err := r.scanDraft(r.db.QueryRowContext(ctx, query, draftID, projectID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

// GetReadyByWorkKey retrieves a reusable draft for the work key, or nil.
// This is the draft-reuse cache lookup: a hit means no AI call is needed.
func (r *DraftRepository) GetReadyByWorkKey(ctx context.Context, projectID, workKey string) (*models.Draft, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s WHERE project_id = ? AND work_key = ? AND status = ? LIMIT 1
	`, draftColumns, constants.TablePlaybookDraft)

	d, err := r.scanDraft(r.db.QueryRowContext(ctx, query, projectID, workKey, constants.DraftStatusReady))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return d, err
}

// CountReadyByWorkKeys counts how many of the given work keys have a ready
// draft. Used by estimates to price reuse without loading draft bodies.
func (r *DraftRepository) CountReadyByWorkKeys(ctx context.Context, projectID string, workKeys []string) (int, error) {
	if len(workKeys) == 0 {
		return 0, nil
	}

	count := 0
	query := fmt.Sprintf(`
		SELECT EXISTS(SELECT 1 FROM %s WHERE project_id = ? AND work_key = ? AND status = ?)
	`, constants.TablePlaybookDraft)

	for _, key := range workKeys {
		var exists bool
		if err := r.db.QueryRowContext(ctx, query, projectID, key, constants.DraftStatusReady).Scan(&exists); err != nil {
			return 0, err
		}
		if exists {
			count++
		}
	}
	return count, nil
}

// ListByProject retrieves drafts filtered by optional playbook key and status
func (r *DraftRepository) ListByProject(ctx context.Context, projectID, playbookKey, status string, limit int) ([]*models.Draft, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE project_id = ?", draftColumns, constants.TablePlaybookDraft)
	args := []interface{}{projectID}

	if playbookKey != "" {
		query += " AND playbook_key = ?"
		args = append(args, playbookKey)
	}
	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}
	query += " ORDER BY created_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query drafts: %w", err)
	}
	defer rows.Close()

	var drafts []*models.Draft
	for rows.Next() {
		d, err := r.scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, d)
	}
	return drafts, rows.Err()
}

// MarkApplied transitions ready -> applied
func (r *DraftRepository) MarkApplied(ctx context.Context, draftID string) error {
	return r.setStatus(ctx, draftID, constants.DraftStatusApplied, true)
}

// MarkStale transitions ready -> stale when the source content drifted
func (r *DraftRepository) MarkStale(ctx context.Context, draftID string) error {
	return r.setStatus(ctx, draftID, constants.DraftStatusStale, false)
}

// MarkRejected transitions ready -> rejected
func (r *DraftRepository) MarkRejected(ctx context.Context, draftID string) error {
	return r.setStatus(ctx, draftID, constants.DraftStatusRejected, false)
}

func (r *DraftRepository) setStatus(ctx context.Context, draftID, status string, applied bool) error {
	var query string
	if applied {
		query = fmt.Sprintf("UPDATE %s SET status = ?, applied_at = NOW(), updated_at = NOW() WHERE id = ? AND status = ?", constants.TablePlaybookDraft)
	} else {
		query = fmt.Sprintf("UPDATE %s SET status = ?, updated_at = NOW() WHERE id = ? AND status = ?", constants.TablePlaybookDraft)
	}

	res, err := r.db.ExecContext(ctx, query, status, draftID, constants.DraftStatusReady)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *DraftRepository) scanDraft(row Scannable) (*models.Draft, error) {
	var d models.Draft
	var runID sql.NullString
	var appliedAt sql.NullTime
	var createdRaw, updatedRaw []byte

	err := row.Scan(&d.ID, &d.ProjectID, &d.PlaybookKey, &d.ScopeType, &d.ScopeID,
		&d.Handle, &d.Field, &d.WorkKey, &d.CurrentValue, &d.SuggestedValue,
		&d.Status, &d.Model, &runID, &appliedAt, &createdRaw, &updatedRaw)
	if err != nil {
		return nil, err
	}

	d.RunID = runID.String
	d.AppliedAt = nullTimePtr(appliedAt)
	d.CreatedAt = parseTime(createdRaw)
	d.UpdatedAt = parseTime(updatedRaw)
	return &d, nil
}
