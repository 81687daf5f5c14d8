package services

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/expression"
)

// newTestPlaybookService builds a catalog-backed service without a database.
// Repos stay nil; tests only exercise rule evaluation and hashing.
func newTestPlaybookService(t *testing.T) *PlaybookService {
	t.Helper()

	var catalog models.PlaybookCatalog
	require.NoError(t, yaml.Unmarshal(catalogYAML, &catalog))

	s := &PlaybookService{
		playbooks: make(map[string]*models.Playbook),
		ordered:   catalog.Playbooks,
		hashes:    make(map[string]string),
		engine:    expression.NewEngine(),
	}
	for i := range catalog.Playbooks {
		p := &catalog.Playbooks[i]
		s.playbooks[p.Key] = p
		s.hashes[p.Key] = computeRulesHash(p)
	}
	return s
}

func TestCatalogIsWellFormed(t *testing.T) {
	var catalog models.PlaybookCatalog
	require.NoError(t, yaml.Unmarshal(catalogYAML, &catalog))
	require.NotEmpty(t, catalog.Playbooks)

	seen := make(map[string]bool)
	engine := expression.NewEngine()
	env := (&models.CrawlResult{ScopeType: constants.ScopeProduct}).RuleEnv()

	for _, p := range catalog.Playbooks {
		assert.False(t, seen[p.Key], "duplicate key %s", p.Key)
		seen[p.Key] = true

		assert.True(t, constants.IsValidScopeType(p.ScopeType), "bad scope for %s", p.Key)
		assert.NotEmpty(t, p.Rule, "empty rule for %s", p.Key)
		assert.NotEmpty(t, p.PromptTemplate, "empty prompt for %s", p.Key)
		assert.Greater(t, p.PromptVersion, 0, "prompt version missing for %s", p.Key)

		// Every rule must evaluate to a boolean against a crawl env
		out, err := engine.Evaluate(p.Rule, env)
		require.NoError(t, err, "rule for %s does not compile", p.Key)
		_, isBool := out.(bool)
		assert.True(t, isBool, "rule for %s is not boolean", p.Key)
	}
}

func TestMatchesMissingSeoTitle(t *testing.T) {
	s := newTestPlaybookService(t)
	p, err := s.Get("missing_seo_title")
	require.NoError(t, err)

	missing := &models.CrawlResult{ScopeType: constants.ScopeProduct, Handle: "blue-shirt", Title: "Blue Shirt"}
	ok, err := s.Matches(p, missing)
	assert.NoError(t, err)
	assert.True(t, ok)

	present := &models.CrawlResult{ScopeType: constants.ScopeProduct, Handle: "red-shirt", SeoTitle: "Red Shirt | Store"}
	ok, err = s.Matches(p, present)
	assert.NoError(t, err)
	assert.False(t, ok)

	// Scope mismatch never matches regardless of field values
	wrongScope := &models.CrawlResult{ScopeType: constants.ScopePage, Handle: "about"}
	ok, err = s.Matches(p, wrongScope)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestMatchesThinDescription(t *testing.T) {
	s := newTestPlaybookService(t)
	p, err := s.Get("thin_product_description")
	require.NoError(t, err)

	thin := &models.CrawlResult{ScopeType: constants.ScopeProduct, Body: "Short."}
	ok, err := s.Matches(p, thin)
	assert.NoError(t, err)
	assert.True(t, ok)

	// Long in bytes but nearly wordless markup still counts as thin
	markupOnly := &models.CrawlResult{ScopeType: constants.ScopeProduct,
		Body: "<div><img src=\"" + strings.Repeat("x", 400) + "\"></div>"}
	ok, err = s.Matches(p, markupOnly)
	assert.NoError(t, err)
	assert.True(t, ok)

	long := &models.CrawlResult{ScopeType: constants.ScopeProduct,
		Body: strings.Repeat("Breathable organic cotton with a relaxed fit. ", 10)}
	ok, err = s.Matches(p, long)
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestComputeRulesHash(t *testing.T) {
	p := &models.Playbook{
		Key:            "missing_seo_title",
		ScopeType:      constants.ScopeProduct,
		Field:          "seo_title",
		Rule:           `seo_title == ""`,
		PromptVersion:  2,
		MaxLength:      60,
		PromptTemplate: "Write an SEO title for {{title}}",
	}

	// Deterministic for identical inputs
	assert.Equal(t, computeRulesHash(p), computeRulesHash(p))

	// Bumping the prompt version changes the hash
	bumped := *p
	bumped.PromptVersion = 3
	assert.NotEqual(t, computeRulesHash(p), computeRulesHash(&bumped))

	// Editing the rule changes the hash
	edited := *p
	edited.Rule = `seo_title == "" || len(seo_title) < 10`
	assert.NotEqual(t, computeRulesHash(p), computeRulesHash(&edited))
}

func TestRenderPrompt(t *testing.T) {
	s := newTestPlaybookService(t)

	p := &models.Playbook{
		PromptTemplate: "Title: {{title}}\nBody: {{body}}\nCurrent: {{seo_title}}",
	}
	c := &models.CrawlResult{
		Title:    "Blue Shirt",
		Body:     "Soft cotton tee.",
		SeoTitle: "",
	}

	prompt := s.RenderPrompt(p, c)
	assert.Equal(t, "Title: Blue Shirt\nBody: Soft cotton tee.\nCurrent: ", prompt)
}
