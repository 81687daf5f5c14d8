package services

import (
	"context"
	"time"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/infrastructure/persistence"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/errors"
)

// UnlimitedQuota marks plans without a generation cap
const UnlimitedQuota = -1

// planQuotas maps plan names to monthly AI generation caps
var planQuotas = map[string]int{
	constants.PlanFree:    25,
	constants.PlanStarter: 500,
	constants.PlanGrowth:  5000,
	constants.PlanScale:   UnlimitedQuota,
}

// EntitlementsService enforces per-plan AI generation quotas. Quotas count
// generations, not tokens; draft reuse is always free.
type EntitlementsService struct {
	projects *persistence.ProjectRepository
	usage    *persistence.UsageRepository
}

// NewEntitlementsService creates a new EntitlementsService
func NewEntitlementsService(db *database.Connection) *EntitlementsService {
	return &EntitlementsService{
		projects: persistence.NewProjectRepository(db.DB()),
		usage:    persistence.NewUsageRepository(db.DB()),
	}
}

// QuotaLimit returns the monthly generation cap for a plan
func QuotaLimit(plan string) int {
	if limit, ok := planQuotas[plan]; ok {
		return limit
	}
	return planQuotas[constants.PlanFree]
}

// PeriodStart returns the start of the current billing period (calendar month, UTC)
func PeriodStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}

// Remaining returns how many generations the project has left this period.
// UnlimitedQuota means no cap.
func (s *EntitlementsService) Remaining(ctx context.Context, project *models.Project) (int, error) {
	limit := QuotaLimit(project.Plan)
	if limit == UnlimitedQuota {
		return UnlimitedQuota, nil
	}

	used, err := s.usage.CountGenerationsSince(ctx, project.ID, PeriodStart(time.Now()))
	if err != nil {
		return 0, err
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	return remaining, nil
}

// CheckGenerations fails with a quota error when the project cannot afford
// the requested number of new generations
func (s *EntitlementsService) CheckGenerations(ctx context.Context, project *models.Project, requested int) error {
	remaining, err := s.Remaining(ctx, project)
	if err != nil {
		return err
	}
	if remaining == UnlimitedQuota {
		return nil
	}
	if requested > remaining {
		return errors.NewQuotaError(project.Plan, requested, remaining)
	}
	return nil
}
