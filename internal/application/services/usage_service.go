package services

import (
	"context"
	"time"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/infrastructure/persistence"
)

// UsageService reports AI consumption for the current billing period
type UsageService struct {
	usage    *persistence.UsageRepository
	projects *persistence.ProjectRepository
}

// NewUsageService creates a new UsageService
func NewUsageService(db *database.Connection) *UsageService {
	return &UsageService{
		usage:    persistence.NewUsageRepository(db.DB()),
		projects: persistence.NewProjectRepository(db.DB()),
	}
}

// Summary returns period totals, the per-playbook breakdown, and the quota
// position for the project's plan
func (s *UsageService) Summary(ctx context.Context, project *models.Project) (*models.UsageSummary, error) {
	summary, err := s.usage.SummarizeSince(ctx, project.ID, PeriodStart(time.Now()))
	if err != nil {
		return nil, err
	}

	summary.QuotaLimit = QuotaLimit(project.Plan)
	if summary.QuotaLimit == UnlimitedQuota {
		summary.QuotaRemaining = UnlimitedQuota
	} else {
		summary.QuotaRemaining = summary.QuotaLimit - summary.Generations
		if summary.QuotaRemaining < 0 {
			summary.QuotaRemaining = 0
		}
	}
	return summary, nil
}
