package services

import (
	"context"
	"sort"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/infrastructure/persistence"
	"github.com/engineo/backend/pkg/constants"
)

// sampleHandleCount is how many example handles a bundle carries
const sampleHandleCount = 5

// WorkQueueService shapes open issues into actionable bundles, one bundle
// per playbook and scope type
type WorkQueueService struct {
	issues    *persistence.IssueRepository
	playbooks *PlaybookService
}

// NewWorkQueueService creates a new WorkQueueService
func NewWorkQueueService(db *database.Connection, playbooks *PlaybookService) *WorkQueueService {
	return &WorkQueueService{
		issues:    persistence.NewIssueRepository(db.DB()),
		playbooks: playbooks,
	}
}

// Bundles aggregates the project's open issues into work queue entries.
// Issues whose playbook left the catalog are skipped; they surface again
// in the raw issue list.
func (s *WorkQueueService) Bundles(ctx context.Context, projectID string) ([]models.WorkQueueBundle, error) {
	rows, err := s.issues.AggregateOpen(ctx, projectID)
	if err != nil {
		return nil, err
	}

	bundles := make([]models.WorkQueueBundle, 0, len(rows))
	for _, row := range rows {
		p, err := s.playbooks.Get(row.PlaybookKey)
		if err != nil {
			continue
		}

		handles, err := s.issues.SampleHandles(ctx, projectID, row.PlaybookKey, sampleHandleCount)
		if err != nil {
			return nil, err
		}

		bundles = append(bundles, models.WorkQueueBundle{
			PlaybookKey:   row.PlaybookKey,
			Title:         p.Title,
			ScopeType:     row.ScopeType,
			Severity:      p.Severity,
			OpenCount:     row.OpenCount,
			SampleHandles: handles,
		})
	}

	// Most urgent first: critical before warning before info, bigger
	// bundles before smaller ones within a severity
	sort.Slice(bundles, func(i, j int) bool {
		ri, rj := severityRank(bundles[i].Severity), severityRank(bundles[j].Severity)
		if ri != rj {
			return ri < rj
		}
		if bundles[i].OpenCount != bundles[j].OpenCount {
			return bundles[i].OpenCount > bundles[j].OpenCount
		}
		return bundles[i].PlaybookKey < bundles[j].PlaybookKey
	})
	return bundles, nil
}

func severityRank(severity string) int {
	switch severity {
	case constants.SeverityCritical:
		return 0
	case constants.SeverityWarning:
		return 1
	case constants.SeverityInfo:
		return 2
	default:
		return 3
	}
}

// ListIssues returns the raw open issues behind one playbook bundle
func (s *WorkQueueService) ListIssues(ctx context.Context, projectID, playbookKey string, limit int) ([]*models.Issue, error) {
	return s.issues.ListOpenByPlaybook(ctx, projectID, playbookKey, limit)
}

// DismissIssue marks one issue dismissed so it leaves the queue
func (s *WorkQueueService) DismissIssue(ctx context.Context, projectID, issueID string) error {
	return s.issues.Dismiss(ctx, projectID, issueID)
}
