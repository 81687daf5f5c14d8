package services

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/engineo/backend/internal/domain/events"
	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/internal/domain/ports"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/infrastructure/persistence"
	"github.com/engineo/backend/pkg/constants"
)

// CrawlSummary is the outcome of one crawl over one project
type CrawlSummary struct {
	ProjectID   string    `json:"project_id"`
	Crawled     int       `json:"crawled"`
	Removed     int       `json:"removed"`
	IssuesFound int       `json:"issues_found"`
	StartedAt   time.Time `json:"started_at"`
	Duration    string    `json:"duration"`
}

// CrawlService snapshots storefront content and runs the issue audit over
// the snapshot. Crawl results are the only input the rule engine sees.
type CrawlService struct {
	crawls       *persistence.CrawlRepository
	issues       *persistence.IssueRepository
	integrations *IntegrationService
	playbooks    *PlaybookService
	eventBus     *EventBus
}

// NewCrawlService creates a new CrawlService
func NewCrawlService(db *database.Connection, integrations *IntegrationService, playbooks *PlaybookService, eventBus *EventBus) *CrawlService {
	return &CrawlService{
		crawls:       persistence.NewCrawlRepository(db.DB()),
		issues:       persistence.NewIssueRepository(db.DB()),
		integrations: integrations,
		playbooks:    playbooks,
		eventBus:     eventBus,
	}
}

// Crawl snapshots every supported scope type and audits the result
func (s *CrawlService) Crawl(ctx context.Context, projectID string) (*CrawlSummary, error) {
	client, err := s.integrations.Client(ctx, projectID)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	summary := &CrawlSummary{ProjectID: projectID, StartedAt: start}

	for _, scopeType := range constants.ValidScopeTypes {
		crawled, removed, err := s.crawlScope(ctx, client, projectID, scopeType)
		if err != nil {
			s.integrations.MarkError(ctx, projectID)
			return nil, fmt.Errorf("crawl failed for %s: %w", scopeType, err)
		}
		summary.Crawled += crawled
		summary.Removed += removed
	}

	found, err := s.Audit(ctx, projectID)
	if err != nil {
		return nil, err
	}
	summary.IssuesFound = found
	summary.Duration = time.Since(start).String()

	log.Printf("✅ Crawl finished for project %s: %d entities, %d removed, %d open issues in %s",
		projectID, summary.Crawled, summary.Removed, summary.IssuesFound, summary.Duration)

	s.eventBus.PublishAsync(events.CrawlCompleted, CrawlCompletedPayload{
		ProjectID:   projectID,
		Crawled:     summary.Crawled,
		Removed:     summary.Removed,
		IssuesFound: summary.IssuesFound,
	})

	return summary, nil
}

// crawlScope snapshots one scope type and prunes entities that disappeared
// from the store since the last crawl
func (s *CrawlService) crawlScope(ctx context.Context, client ports.Storefront, projectID, scopeType string) (int, int, error) {
	entities, err := client.ListEntities(ctx, scopeType)
	if err != nil {
		return 0, 0, err
	}

	survivors := make([]string, 0, len(entities))
	for i := range entities {
		e := &entities[i]
		result := &models.CrawlResult{
			ProjectID:      projectID,
			ScopeType:      e.ScopeType,
			ScopeID:        e.ScopeID,
			Handle:         e.Handle,
			Title:          e.Title,
			Description:    e.Description,
			Body:           e.Body,
			URL:            e.URL,
			SeoTitle:       e.SeoTitle,
			SeoDescription: e.SeoDescription,
		}
		if _, err := s.crawls.Upsert(ctx, result); err != nil {
			return 0, 0, err
		}
		survivors = append(survivors, e.ScopeID)
	}

	removed, err := s.crawls.DeleteMissing(ctx, projectID, scopeType, survivors)
	if err != nil {
		return 0, 0, err
	}

	// Issues on deleted entities resolve automatically
	if len(removed) > 0 {
		if err := s.issues.ResolveByScope(ctx, projectID, scopeType, removed); err != nil {
			return 0, 0, err
		}
	}

	return len(entities), len(removed), nil
}

// Audit evaluates every catalog rule against the current snapshot, opening
// and resolving issues as needed. Returns the number of open issues found.
func (s *CrawlService) Audit(ctx context.Context, projectID string) (int, error) {
	found := 0

	for _, summary := range s.playbooksList() {
		p := summary
		results, err := s.crawls.ListByProject(ctx, projectID, p.ScopeType, 0)
		if err != nil {
			return 0, err
		}

		for _, c := range results {
			matched, err := s.playbooks.Matches(p, c)
			if err != nil {
				// A broken rule must not sink the whole audit
				log.Printf("⚠️ Audit rule error for %s on %s/%s: %v", p.Key, c.ScopeType, c.Handle, err)
				continue
			}

			if matched {
				issue := &models.Issue{
					ProjectID:     projectID,
					CrawlResultID: c.ID,
					PlaybookKey:   p.Key,
					ScopeType:     c.ScopeType,
					ScopeID:       c.ScopeID,
					Handle:        c.Handle,
					Severity:      p.Severity,
					Field:         p.Field,
					Message:       p.IssueMessage,
					Status:        constants.IssueStatusOpen,
				}
				if _, err := s.issues.Upsert(ctx, issue); err != nil {
					return 0, err
				}
				found++
			} else {
				if err := s.issues.Resolve(ctx, projectID, p.Key, c.ScopeType, c.ScopeID); err != nil {
					return 0, err
				}
			}
		}
	}

	return found, nil
}

// LatestSnapshot returns the stored crawl results for a project
func (s *CrawlService) LatestSnapshot(ctx context.Context, projectID, scopeType string, limit int) ([]*models.CrawlResult, error) {
	return s.crawls.ListByProject(ctx, projectID, scopeType, limit)
}

func (s *CrawlService) playbooksList() []*models.Playbook {
	list := make([]*models.Playbook, 0, len(s.playbooks.ordered))
	for i := range s.playbooks.ordered {
		list = append(list, &s.playbooks.ordered[i])
	}
	return list
}
