package persistence

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/utils"
)

// IntegrationRepository handles database operations for storefront integrations
type IntegrationRepository struct {
	db *sql.DB
}

// NewIntegrationRepository creates a new IntegrationRepository
func NewIntegrationRepository(db *sql.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

// Upsert creates or replaces the integration for (project, provider).
// A project has at most one integration per provider.
func (r *IntegrationRepository) Upsert(ctx context.Context, i *models.Integration) (string, error) {
	if i.ID == "" {
		i.ID = utils.GenerateID()
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, project_id, provider, shop_domain, access_token, status, connected_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, NOW(), NOW())
		ON DUPLICATE KEY UPDATE
			shop_domain = VALUES(shop_domain),
			access_token = VALUES(access_token),
			status = VALUES(status),
			connected_at = VALUES(connected_at),
			updated_at = NOW()
	`, constants.TableIntegration)

	_, err := r.db.ExecContext(ctx, query, i.ID, i.ProjectID, i.Provider, i.ShopDomain, i.AccessToken, i.Status, i.ConnectedAt)
	if err != nil {
		return "", fmt.Errorf("failed to upsert integration: %w", err)
	}
	return i.ID, nil
}

// GetByProject retrieves the integration for a project and provider, or nil
func (r *IntegrationRepository) GetByProject(ctx context.Context, projectID, provider string) (*models.Integration, error) {
	query := fmt.Sprintf(`
		SELECT id, project_id, provider, shop_domain, access_token, status, connected_at, created_at, updated_at
		FROM %s WHERE project_id = ? AND provider = ? LIMIT 1
	`, constants.TableIntegration)

	var i models.Integration
	var connectedAt sql.NullTime
	var createdRaw, updatedRaw []byte

	err := r.db.QueryRowContext(ctx, query, projectID, provider).Scan(
		&i.ID, &i.ProjectID, &i.Provider, &i.ShopDomain, &i.AccessToken, &i.Status,
		&connectedAt, &createdRaw, &updatedRaw,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	i.ConnectedAt = nullTimePtr(connectedAt)
	i.CreatedAt = parseTime(createdRaw)
	i.UpdatedAt = parseTime(updatedRaw)
	return &i, nil
}

// UpdateStatus transitions the integration status
func (r *IntegrationRepository) UpdateStatus(ctx context.Context, id, status string) error {
	query := fmt.Sprintf("UPDATE %s SET status = ?, updated_at = NOW() WHERE id = ?", constants.TableIntegration)
	_, err := r.db.ExecContext(ctx, query, status, id)
	return err
}
