package services

import (
	"context"
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/infrastructure/persistence"
	"github.com/engineo/backend/pkg/errors"
	"github.com/engineo/backend/pkg/expression"
)

//go:embed catalog.yaml
var catalogYAML []byte

// PlaybookService owns the playbook catalog and rule evaluation.
// The catalog is compiled into the binary; a deploy is the only way rules
// change, which is what makes the rules hash a meaningful staleness check.
type PlaybookService struct {
	playbooks map[string]*models.Playbook
	ordered   []models.Playbook
	hashes    map[string]string
	engine    *expression.Engine
	issueRepo *persistence.IssueRepository
	crawlRepo *persistence.CrawlRepository
}

// NewPlaybookService loads the embedded catalog and precomputes rule hashes
func NewPlaybookService(db *database.Connection) (*PlaybookService, error) {
	var catalog models.PlaybookCatalog
	if err := yaml.Unmarshal(catalogYAML, &catalog); err != nil {
		return nil, fmt.Errorf("failed to parse playbook catalog: %w", err)
	}

	s := &PlaybookService{
		playbooks: make(map[string]*models.Playbook),
		ordered:   catalog.Playbooks,
		hashes:    make(map[string]string),
		engine:    expression.NewEngine(),
		issueRepo: persistence.NewIssueRepository(db.DB()),
		crawlRepo: persistence.NewCrawlRepository(db.DB()),
	}

	ruleEnv := (&models.CrawlResult{}).RuleEnv()
	for i := range catalog.Playbooks {
		p := &catalog.Playbooks[i]
		if _, dup := s.playbooks[p.Key]; dup {
			return nil, fmt.Errorf("duplicate playbook key in catalog: %s", p.Key)
		}
		if err := s.engine.Validate(p.Rule, ruleEnv); err != nil {
			return nil, fmt.Errorf("invalid rule for playbook %s: %w", p.Key, err)
		}
		s.playbooks[p.Key] = p
		s.hashes[p.Key] = computeRulesHash(p)
	}

	return s, nil
}

// computeRulesHash fingerprints everything that affects what a playbook
// detects and generates. Estimates and runs carry this hash; a mismatch
// after a deploy invalidates them.
func computeRulesHash(p *models.Playbook) string {
	h := sha256.New()
	fmt.Fprintf(h, "%s|%s|%s|%s|%d|%d|%s",
		p.Key, p.ScopeType, p.Field, p.Rule, p.PromptVersion, p.MaxLength, p.PromptTemplate)
	return hex.EncodeToString(h.Sum(nil))
}

// Get returns a playbook by key
func (s *PlaybookService) Get(key string) (*models.Playbook, error) {
	p, ok := s.playbooks[key]
	if !ok {
		return nil, errors.NewNotFoundError("Playbook", key)
	}
	return p, nil
}

// RulesHash returns the current hash for a playbook key
func (s *PlaybookService) RulesHash(key string) (string, error) {
	h, ok := s.hashes[key]
	if !ok {
		return "", errors.NewNotFoundError("Playbook", key)
	}
	return h, nil
}

// List returns all catalog playbooks with open issue counts for the project
func (s *PlaybookService) List(ctx context.Context, projectID string) ([]models.PlaybookSummary, error) {
	counts, err := s.issueRepo.CountOpenByPlaybook(ctx, projectID)
	if err != nil {
		return nil, err
	}

	summaries := make([]models.PlaybookSummary, 0, len(s.ordered))
	for _, p := range s.ordered {
		summaries = append(summaries, models.PlaybookSummary{
			Playbook:   p,
			OpenIssues: counts[p.Key],
		})
	}
	return summaries, nil
}

// Matches evaluates a playbook's detection rule against one crawl result
func (s *PlaybookService) Matches(p *models.Playbook, c *models.CrawlResult) (bool, error) {
	if p.ScopeType != c.ScopeType {
		return false, nil
	}

	out, err := s.engine.Evaluate(p.Rule, c.RuleEnv())
	if err != nil {
		return false, fmt.Errorf("rule evaluation failed for %s: %w", p.Key, err)
	}

	matched, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("rule for %s did not return a boolean", p.Key)
	}
	return matched, nil
}

// Preview returns the affected entities a run of this playbook would touch
func (s *PlaybookService) Preview(ctx context.Context, projectID, key string, limit int) ([]models.PreviewItem, error) {
	p, err := s.Get(key)
	if err != nil {
		return nil, err
	}

	matches, err := s.AffectedResults(ctx, projectID, p)
	if err != nil {
		return nil, err
	}

	items := make([]models.PreviewItem, 0, len(matches))
	for _, c := range matches {
		if limit > 0 && len(items) >= limit {
			break
		}
		items = append(items, models.PreviewItem{
			ScopeType:    c.ScopeType,
			ScopeID:      c.ScopeID,
			Handle:       c.Handle,
			Title:        c.Title,
			Field:        p.Field,
			CurrentValue: c.FieldValue(p.Field),
		})
	}
	return items, nil
}

// AffectedResults evaluates the rule over the project's crawl snapshot and
// returns every matching result
func (s *PlaybookService) AffectedResults(ctx context.Context, projectID string, p *models.Playbook) ([]*models.CrawlResult, error) {
	results, err := s.crawlRepo.ListByProject(ctx, projectID, p.ScopeType, 0)
	if err != nil {
		return nil, err
	}

	var matches []*models.CrawlResult
	for _, c := range results {
		ok, err := s.Matches(p, c)
		if err != nil {
			return nil, err
		}
		if ok {
			matches = append(matches, c)
		}
	}
	return matches, nil
}

// RenderPrompt fills the playbook prompt template with entity content
func (s *PlaybookService) RenderPrompt(p *models.Playbook, c *models.CrawlResult) string {
	replacer := strings.NewReplacer(
		"{{title}}", c.Title,
		"{{description}}", c.Description,
		"{{body}}", c.Body,
		"{{handle}}", c.Handle,
		"{{seo_title}}", c.SeoTitle,
		"{{seo_description}}", c.SeoDescription,
	)
	return replacer.Replace(p.PromptTemplate)
}
