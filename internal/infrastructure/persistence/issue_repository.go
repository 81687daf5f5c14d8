package persistence

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/utils"
)

// IssueRepository handles database operations for detected issues
type IssueRepository struct {
	db *sql.DB
}

// NewIssueRepository creates a new IssueRepository
func NewIssueRepository(db *sql.DB) *IssueRepository {
	return &IssueRepository{db: db}
}

// Upsert writes an issue keyed by (project, playbook, scope_type, scope_id).
// Re-detecting an already-open issue refreshes it; re-detecting a fixed one
// reopens it.
func (r *IssueRepository) Upsert(ctx context.Context, i *models.Issue) (string, error) {
	if i.ID == "" {
		i.ID = utils.GenerateID()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, crawl_result_id, playbook_key, scope_type, scope_id, handle, severity, field, message, status, detected_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE
			crawl_result_id = VALUES(crawl_result_id),
			handle = VALUES(handle),
			severity = VALUES(severity),
			message = VALUES(message),
			status = VALUES(status),
			detected_at = NOW(),
			resolved_at = NULL
	`, constants.TableIssue)

	_, err := r.db.ExecContext(ctx, query,
		i.ID, i.ProjectID, i.CrawlResultID, i.PlaybookKey, i.ScopeType, i.ScopeID,
		i.Handle, i.Severity, i.Field, i.Message, i.Status,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert issue: %w", err)
	}
	return i.ID, nil
}

// Resolve marks an open issue as fixed
func (r *IssueRepository) Resolve(ctx context.Context, projectID, playbookKey, scopeType, scopeID string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET status = ?, resolved_at = NOW()
		WHERE project_id = ? AND playbook_key = ? AND scope_type = ? AND scope_id = ? AND status = ?
	`, constants.TableIssue)

	_, err := r.db.ExecContext(ctx, query, constants.IssueStatusFixed, projectID, playbookKey, scopeType, scopeID, constants.IssueStatusOpen)
	return err
}

// ResolveByScope closes all open issues for entities that vanished from the
// storefront (any playbook)
func (r *IssueRepository) ResolveByScope(ctx context.Context, projectID, scopeType string, scopeIDs []string) error {
	if len(scopeIDs) == 0 {
		return nil
	}

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(scopeIDs)), ",")
	query := fmt.Sprintf(`
		UPDATE %s SET status = ?, resolved_at = NOW()
		WHERE project_id = ? AND scope_type = ? AND status = ? AND scope_id IN (%s)
	`, constants.TableIssue, placeholders)

	args := []interface{}{constants.IssueStatusFixed, projectID, scopeType, constants.IssueStatusOpen}
	for _, id := range scopeIDs {
		args = append(args, id)
	}

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// ListOpenByPlaybook retrieves open issues for one playbook, oldest first.
// Limit 0 means no limit.
func (r *IssueRepository) ListOpenByPlaybook(ctx context.Context, projectID, playbookKey string, limit int) ([]*models.Issue, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, crawl_result_id, playbook_key, scope_type, scope_id, handle, severity, field, message, status, detected_at, resolved_at
		FROM %s WHERE project_id = ? AND playbook_key = ? AND status = ?
		ORDER BY detected_at ASC
	`, constants.TableIssue)
	args := []interface{}{projectID, playbookKey, constants.IssueStatusOpen}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	return r.queryIssues(ctx, query, args...)
}

// CountOpenByPlaybook returns open issue counts per playbook key
func (r *IssueRepository) CountOpenByPlaybook(ctx context.Context, projectID string) (map[string]int, error) {
	query := fmt.Sprintf(`
		SELECT playbook_key, COUNT(*) FROM %s
		WHERE project_id = ? AND status = ?
		GROUP BY playbook_key
	`, constants.TableIssue)

	rows, err := r.db.QueryContext(ctx, query, projectID, constants.IssueStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to count open issues: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var key string
		var n int
		if err := rows.Scan(&key, &n); err != nil {
			return nil, err
		}
		counts[key] = n
	}
	return counts, rows.Err()
}

// WorkQueueRow is one aggregated bundle row before catalog enrichment
type WorkQueueRow struct {
	PlaybookKey string
	ScopeType   string
	Severity    string
	OpenCount   int
}

// AggregateOpen groups open issues into work queue bundles
func (r *IssueRepository) AggregateOpen(ctx context.Context, projectID string) ([]WorkQueueRow, error) {
	query := fmt.Sprintf(`
		SELECT playbook_key, scope_type, severity, COUNT(*)
		FROM %s WHERE project_id = ? AND status = ?
		GROUP BY playbook_key, scope_type, severity
	`, constants.TableIssue)

	rows, err := r.db.QueryContext(ctx, query, projectID, constants.IssueStatusOpen)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate open issues: %w", err)
	}
	defer rows.Close()

	var result []WorkQueueRow
	for rows.Next() {
		var w WorkQueueRow
		if err := rows.Scan(&w.PlaybookKey, &w.ScopeType, &w.Severity, &w.OpenCount); err != nil {
			return nil, err
		}
		result = append(result, w)
	}
	return result, rows.Err()
}

// SampleHandles returns up to limit handles of open issues for a bundle
func (r *IssueRepository) SampleHandles(ctx context.Context, projectID, playbookKey string, limit int) ([]string, error) {
	query := fmt.Sprintf(`
		SELECT handle FROM %s
		WHERE project_id = ? AND playbook_key = ? AND status = ?
		ORDER BY detected_at ASC LIMIT ?
	`, constants.TableIssue)

	rows, err := r.db.QueryContext(ctx, query, projectID, playbookKey, constants.IssueStatusOpen, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var handles []string
	for rows.Next() {
		var h string
		if err := rows.Scan(&h); err != nil {
			return nil, err
		}
		handles = append(handles, h)
	}
	return handles, rows.Err()
}

// Dismiss marks an issue dismissed by ID
func (r *IssueRepository) Dismiss(ctx context.Context, projectID, issueID string) error {
	query := fmt.Sprintf(`
		UPDATE %s SET status = ?, resolved_at = NOW()
		WHERE id = ? AND project_id = ? AND status = ?
	`, constants.TableIssue)

	res, err := r.db.ExecContext(ctx, query, constants.IssueStatusDismissed, issueID, projectID, constants.IssueStatusOpen)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

func (r *IssueRepository) queryIssues(ctx context.Context, query string, args ...interface{}) ([]*models.Issue, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query issues: %w", err)
	}
	defer rows.Close()

	var issues []*models.Issue
	for rows.Next() {
		var i models.Issue
		var detectedRaw []byte
		var resolvedAt sql.NullTime

		err := rows.Scan(&i.ID, &i.ProjectID, &i.CrawlResultID, &i.PlaybookKey, &i.ScopeType,
			&i.ScopeID, &i.Handle, &i.Severity, &i.Field, &i.Message, &i.Status,
			&detectedRaw, &resolvedAt)
		if err != nil {
			return nil, err
		}

		i.DetectedAt = parseTime(detectedRaw)
		i.ResolvedAt = nullTimePtr(resolvedAt)
		issues = append(issues, &i)
	}
	return issues, rows.Err()
}
