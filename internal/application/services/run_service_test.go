package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/errors"
)

// Apply only accepts the hash from a current estimate. An omitted hash is
// just as stale as a wrong one; both force the client back through estimate.
func TestApplyRejectsStaleOrMissingRulesHash(t *testing.T) {
	s := &RunService{playbooks: newTestPlaybookService(t)}
	project := &models.Project{ID: "proj-1", Plan: "free"}

	_, err := s.Apply(context.Background(), project, "missing_seo_title", "", "user-1")
	assert.True(t, errors.IsConflict(err))
	assert.Equal(t, "PLAYBOOK_RULES_CHANGED", errors.GetErrorCode(err))

	_, err = s.Apply(context.Background(), project, "missing_seo_title", "not-the-current-hash", "user-1")
	assert.True(t, errors.IsConflict(err))
	assert.Equal(t, "PLAYBOOK_RULES_CHANGED", errors.GetErrorCode(err))
}

func TestEstimateTokensPerItem(t *testing.T) {
	p := &models.Playbook{
		PromptTemplate: "Write an SEO title for {{title}}",
		MaxLength:      60,
	}

	tokens := estimateTokensPerItem(p)
	assert.Greater(t, tokens, 100, "estimate always carries the fixed overhead")
}
