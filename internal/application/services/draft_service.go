package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log"

	"github.com/engineo/backend/internal/domain/events"
	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/internal/domain/ports"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/infrastructure/persistence"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/errors"
)

// DraftService manages pre-generated suggestions and the human apply path.
// Applying a draft never calls the AI: the suggestion was generated during
// a run and only gets written back here.
type DraftService struct {
	drafts       *persistence.DraftRepository
	crawls       *persistence.CrawlRepository
	issues       *persistence.IssueRepository
	integrations *IntegrationService
	playbooks    *PlaybookService
	eventBus     *EventBus
}

// NewDraftService creates a new DraftService
func NewDraftService(db *database.Connection, integrations *IntegrationService, playbooks *PlaybookService, eventBus *EventBus) *DraftService {
	return &DraftService{
		drafts:       persistence.NewDraftRepository(db.DB()),
		crawls:       persistence.NewCrawlRepository(db.DB()),
		issues:       persistence.NewIssueRepository(db.DB()),
		integrations: integrations,
		playbooks:    playbooks,
		eventBus:     eventBus,
	}
}

// ComputeWorkKey fingerprints one unit of AI work. Equal keys mean equal
// prompts over equal content, so a ready draft with the same key is reused
// instead of generating again.
func ComputeWorkKey(projectID string, p *models.Playbook, c *models.CrawlResult) string {
	content := sha256.Sum256([]byte(c.FieldValue(p.Field) + "\x00" + c.Title + "\x00" + c.Description))
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%s|%d|%s",
		projectID, p.Key, c.ScopeType, c.ScopeID, p.Field, p.PromptVersion,
		hex.EncodeToString(content[:]))
	return hex.EncodeToString(h.Sum(nil))
}

// List returns the project's drafts, optionally filtered
func (s *DraftService) List(ctx context.Context, projectID, playbookKey, status string, limit int) ([]*models.Draft, error) {
	return s.drafts.ListByProject(ctx, projectID, playbookKey, status, limit)
}

// Get returns one draft
func (s *DraftService) Get(ctx context.Context, projectID, draftID string) (*models.Draft, error) {
	draft, err := s.drafts.GetByID(ctx, projectID, draftID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if draft == nil {
		return nil, errors.NewNotFoundError("Draft", draftID)
	}
	return draft, nil
}

// Apply writes a ready draft back to the storefront. The live entity is
// re-read first: if the handle is gone or the source content drifted since
// generation, the draft goes stale instead of overwriting fresh content.
func (s *DraftService) Apply(ctx context.Context, projectID, draftID string) (*models.Draft, error) {
	draft, err := s.Get(ctx, projectID, draftID)
	if err != nil {
		return nil, err
	}
	if draft.Status != constants.DraftStatusReady {
		return nil, errors.NewStaleDraftError(draft.ID)
	}

	client, err := s.integrations.Client(ctx, projectID)
	if err != nil {
		return nil, err
	}

	live, err := client.GetEntityByHandle(ctx, draft.ScopeType, draft.Handle)
	if err != nil {
		return nil, fmt.Errorf("failed to verify live entity: %w", err)
	}
	if live == nil {
		if err := s.drafts.MarkStale(ctx, draft.ID); err != nil {
			return nil, err
		}
		return nil, errors.NewHandleNotFoundError(draft.ScopeType, draft.Handle)
	}

	if liveFieldValue(live, draft.Field) != draft.CurrentValue {
		if err := s.drafts.MarkStale(ctx, draft.ID); err != nil {
			return nil, err
		}
		return nil, errors.NewStaleDraftError(draft.ID)
	}

	if err := client.UpdateEntityField(ctx, draft.ScopeType, draft.ScopeID, draft.Field, draft.SuggestedValue); err != nil {
		return nil, fmt.Errorf("storefront update failed: %w", err)
	}

	if err := s.drafts.MarkApplied(ctx, draft.ID); err != nil {
		return nil, err
	}

	// The issue this draft fixes closes immediately rather than waiting for
	// the next crawl
	if err := s.issues.Resolve(ctx, projectID, draft.PlaybookKey, draft.ScopeType, draft.ScopeID); err != nil {
		log.Printf("⚠️ Failed to resolve issue after apply of draft %s: %v", draft.ID, err)
	}
	s.refreshSnapshot(ctx, projectID, draft)

	log.Printf("✅ Applied draft %s (%s %s.%s)", draft.ID, draft.PlaybookKey, draft.Handle, draft.Field)

	s.eventBus.PublishAsync(events.DraftApplied, DraftAppliedPayload{
		ProjectID:   projectID,
		DraftID:     draft.ID,
		PlaybookKey: draft.PlaybookKey,
		ScopeType:   draft.ScopeType,
		ScopeID:     draft.ScopeID,
	})

	return s.Get(ctx, projectID, draftID)
}

// Reject marks a ready draft rejected
func (s *DraftService) Reject(ctx context.Context, projectID, draftID string) error {
	draft, err := s.Get(ctx, projectID, draftID)
	if err != nil {
		return err
	}
	if draft.Status != constants.DraftStatusReady {
		return errors.NewStaleDraftError(draft.ID)
	}
	return s.drafts.MarkRejected(ctx, draft.ID)
}

// refreshSnapshot updates the stored crawl row so the audit sees the applied
// value without a full re-crawl
func (s *DraftService) refreshSnapshot(ctx context.Context, projectID string, draft *models.Draft) {
	c, err := s.crawls.GetByScope(ctx, projectID, draft.ScopeType, draft.ScopeID)
	if err != nil || c == nil {
		return
	}

	switch draft.Field {
	case "seo_title":
		c.SeoTitle = draft.SuggestedValue
	case "seo_description":
		c.SeoDescription = draft.SuggestedValue
	case "title":
		c.Title = draft.SuggestedValue
	case "description":
		c.Description = draft.SuggestedValue
	case "body":
		c.Body = draft.SuggestedValue
	default:
		return
	}

	if _, err := s.crawls.Upsert(ctx, c); err != nil {
		log.Printf("⚠️ Failed to refresh crawl snapshot after apply: %v", err)
	}
}

func liveFieldValue(e *ports.StorefrontEntity, field string) string {
	switch field {
	case "seo_title":
		return e.SeoTitle
	case "seo_description":
		return e.SeoDescription
	case "title":
		return e.Title
	case "description":
		return e.Description
	case "body":
		return e.Body
	}
	return ""
}
