package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/utils"
)

// CrawlRepository handles database operations for crawl snapshots
type CrawlRepository struct {
	db *sql.DB
}

// NewCrawlRepository creates a new CrawlRepository
func NewCrawlRepository(db *sql.DB) *CrawlRepository {
	return &CrawlRepository{db: db}
}

// Upsert writes a crawl snapshot keyed by (project, scope_type, scope_id),
// replacing any previous snapshot of the same entity
func (r *CrawlRepository) Upsert(ctx context.Context, c *models.CrawlResult) (string, error) {
	if c.ID == "" {
		c.ID = utils.GenerateID()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, scope_type, scope_id, handle, title, description, body, url, seo_title, seo_description, crawled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NOW())
		ON DUPLICATE KEY UPDATE
			handle = VALUES(handle),
			title = VALUES(title),
			description = VALUES(description),
			body = VALUES(body),
			url = VALUES(url),
			seo_title = VALUES(seo_title),
			seo_description = VALUES(seo_description),
			crawled_at = NOW()
	`, constants.TableCrawlResult)

	_, err := r.db.ExecContext(ctx, query,
		c.ID, c.ProjectID, c.ScopeType, c.ScopeID, c.Handle, c.Title, c.Description,
		c.Body, c.URL, c.SeoTitle, c.SeoDescription,
	)
	if err != nil {
		return "", fmt.Errorf("failed to upsert crawl result: %w", err)
	}
	return c.ID, nil
}

// ListByProject retrieves crawl results for a project, optionally filtered by
// scope type. Limit 0 means no limit.
func (r *CrawlRepository) ListByProject(ctx context.Context, projectID, scopeType string, limit int) ([]*models.CrawlResult, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, scope_type, scope_id, handle, title, description, body, url, seo_title, seo_description, crawled_at
		FROM %s WHERE project_id = ?
	`, constants.TableCrawlResult)
	args := []interface{}{projectID}

	if scopeType != "" {
		query += " AND scope_type = ?"
		args = append(args, scopeType)
	}
	query += " ORDER BY crawled_at DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query crawl results: %w", err)
	}
	defer rows.Close()

	var results []*models.CrawlResult
	for rows.Next() {
		c, err := r.scanCrawlResult(rows)
		if err != nil {
			return nil, err
		}
		results = append(results, c)
	}
	return results, rows.Err()
}

// GetByScope retrieves one snapshot by its natural key, or nil
func (r *CrawlRepository) GetByScope(ctx context.Context, projectID, scopeType, scopeID string) (*models.CrawlResult, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, scope_type, scope_id, handle, title, description, body, url, seo_title, seo_description, crawled_at
		FROM %s WHERE project_id = ? AND scope_type = ? AND scope_id = ? LIMIT 1
	`, constants.TableCrawlResult)

	c, err := r.scanCrawlResult(r.db.QueryRowContext(ctx, query, projectID, scopeType, scopeID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return c, err
}

// DeleteMissing removes snapshots of a scope type whose scope_id is not in
// the surviving set, returning the removed scope IDs so their issues can be
// closed. An empty survivors set removes everything for the scope type.
func (r *CrawlRepository) DeleteMissing(ctx context.Context, projectID, scopeType string, survivors []string) ([]string, error) {
	query := fmt.Sprintf("SELECT scope_id FROM %s WHERE project_id = ? AND scope_type = ?", constants.TableCrawlResult)
	rows, err := r.db.QueryContext(ctx, query, projectID, scopeType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	surviving := make(map[string]bool, len(survivors))
	for _, s := range survivors {
		surviving[s] = true
	}

	var removed []string
	for rows.Next() {
		var scopeID string
		if err := rows.Scan(&scopeID); err != nil {
			return nil, err
		}
		if !surviving[scopeID] {
			removed = append(removed, scopeID)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	del := fmt.Sprintf("DELETE FROM %s WHERE project_id = ? AND scope_type = ? AND scope_id = ?", constants.TableCrawlResult)
	for _, scopeID := range removed {
		if _, err := r.db.ExecContext(ctx, del, projectID, scopeType, scopeID); err != nil {
			return nil, fmt.Errorf("failed to delete stale crawl result %s: %w", scopeID, err)
		}
	}
	return removed, nil
}

func (r *CrawlRepository) scanCrawlResult(row Scannable) (*models.CrawlResult, error) {
	var c models.CrawlResult
	var crawledRaw []byte

	err := row.Scan(&c.ID, &c.ProjectID, &c.ScopeType, &c.ScopeID, &c.Handle, &c.Title,
		&c.Description, &c.Body, &c.URL, &c.SeoTitle, &c.SeoDescription, &crawledRaw)
	if err != nil {
		return nil, err
	}

	c.CrawledAt = parseTime(crawledRaw)
	return &c, nil
}
