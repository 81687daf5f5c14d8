package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/utils"
)

// ProjectRepository handles database operations for projects
type ProjectRepository struct {
	db *sql.DB
}

// NewProjectRepository creates a new ProjectRepository
func NewProjectRepository(db *sql.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

// Insert creates a new project and returns its ID
func (r *ProjectRepository) Insert(ctx context.Context, p *models.Project) (string, error) {
	if p.ID == "" {
		p.ID = utils.GenerateID()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, shop_domain, plan, owner_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, NOW(), NOW())
	`, constants.TableProject)

	_, err := r.db.ExecContext(ctx, query, p.ID, p.Name, p.ShopDomain, p.Plan, p.OwnerID)
	if err != nil {
		return "", fmt.Errorf("failed to insert project: %w", err)
	}
	return p.ID, nil
}

// GetByID retrieves a project, or nil when absent
func (r *ProjectRepository) GetByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, name, shop_domain, plan, owner_id, created_at, updated_at
		FROM %s WHERE id = ? LIMIT 1
	`, constants.TableProject)

	return r.scanProject(r.db.QueryRowContext(ctx, query, id))
}

// ListByOwner retrieves all projects owned by a user
func (r *ProjectRepository) ListByOwner(ctx context.Context, ownerID string) ([]*models.Project, error) {
	query := fmt.Sprintf(`
		SELECT id, name, shop_domain, plan, owner_id, created_at, updated_at
		FROM %s WHERE owner_id = ? ORDER BY created_at DESC
	`, constants.TableProject)

	rows, err := r.db.QueryContext(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query projects: %w", err)
	}
	defer rows.Close()

	var projects []*models.Project
	for rows.Next() {
		p, err := r.scanProject(rows)
		if err != nil {
			return nil, err
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

// Update replaces the mutable project fields
func (r *ProjectRepository) Update(ctx context.Context, p *models.Project) error {
	query := fmt.Sprintf(`
		UPDATE %s SET name = ?, shop_domain = ?, plan = ?, updated_at = NOW() WHERE id = ?
	`, constants.TableProject)

	res, err := r.db.ExecContext(ctx, query, p.Name, p.ShopDomain, p.Plan, p.ID)
	if err != nil {
		return fmt.Errorf("failed to update project: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// Delete removes a project row
func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE id = ?", constants.TableProject)
	_, err := r.db.ExecContext(ctx, query, id)
	return err
}

func (r *ProjectRepository) scanProject(row Scannable) (*models.Project, error) {
	var p models.Project
	var createdRaw, updatedRaw []byte

	err := row.Scan(&p.ID, &p.Name, &p.ShopDomain, &p.Plan, &p.OwnerID, &createdRaw, &updatedRaw)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	p.CreatedAt = parseTime(createdRaw)
	p.UpdatedAt = parseTime(updatedRaw)
	return &p, nil
}
