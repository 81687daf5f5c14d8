package services

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/infrastructure/persistence"
	"github.com/engineo/backend/pkg/auth"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/errors"
)

// ProjectService handles project CRUD and ownership checks
type ProjectService struct {
	projects *persistence.ProjectRepository
}

// NewProjectService creates a new ProjectService
func NewProjectService(db *database.Connection) *ProjectService {
	return &ProjectService{
		projects: persistence.NewProjectRepository(db.DB()),
	}
}

// Create registers a new project on the free plan
func (s *ProjectService) Create(ctx context.Context, user *auth.UserSession, name, shopDomain string) (*models.Project, error) {
	if name == "" {
		return nil, errors.NewValidationError("name", "project name is required")
	}
	if shopDomain == "" {
		return nil, errors.NewValidationError("shop_domain", "shop domain is required")
	}

	project := &models.Project{
		Name:       name,
		ShopDomain: shopDomain,
		Plan:       constants.PlanFree,
		OwnerID:    user.ID,
	}
	if _, err := s.projects.Insert(ctx, project); err != nil {
		return nil, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// Get loads a project the user may access. Admins see every project;
// members see their own.
func (s *ProjectService) Get(ctx context.Context, user *auth.UserSession, projectID string) (*models.Project, error) {
	project, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if project == nil {
		return nil, errors.NewNotFoundError("Project", projectID)
	}
	if project.OwnerID != user.ID && !user.IsAdmin() {
		return nil, errors.NewPermissionError("access", "project")
	}
	return project, nil
}

// List returns all projects owned by the user
func (s *ProjectService) List(ctx context.Context, user *auth.UserSession) ([]*models.Project, error) {
	return s.projects.ListByOwner(ctx, user.ID)
}

// Update renames a project or changes its plan
func (s *ProjectService) Update(ctx context.Context, user *auth.UserSession, projectID, name, plan string) (*models.Project, error) {
	project, err := s.Get(ctx, user, projectID)
	if err != nil {
		return nil, err
	}

	if name != "" {
		project.Name = name
	}
	if plan != "" {
		// Plan changes are an admin operation until billing lands
		if !user.IsAdmin() {
			return nil, errors.NewPermissionError("change plan of", "project")
		}
		if !isValidPlan(plan) {
			return nil, errors.NewValidationError("plan", "unknown plan: "+plan)
		}
		project.Plan = plan
	}

	if err := s.projects.Update(ctx, project); err != nil {
		if err == sql.ErrNoRows {
			return nil, errors.NewNotFoundError("Project", projectID)
		}
		return nil, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

// Delete removes a project and everything under it (FK cascade)
func (s *ProjectService) Delete(ctx context.Context, user *auth.UserSession, projectID string) error {
	if _, err := s.Get(ctx, user, projectID); err != nil {
		return err
	}
	return s.projects.Delete(ctx, projectID)
}

func isValidPlan(plan string) bool {
	switch plan {
	case constants.PlanFree, constants.PlanStarter, constants.PlanGrowth, constants.PlanScale:
		return true
	}
	return false
}
