package services

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/constants"
)

func TestComputeWorkKey(t *testing.T) {
	p := &models.Playbook{
		Key:           "missing_seo_title",
		Field:         "seo_title",
		PromptVersion: 2,
	}
	c := &models.CrawlResult{
		ScopeType:   constants.ScopeProduct,
		ScopeID:     "123",
		Title:       "Blue Shirt",
		Description: "Soft cotton tee",
	}

	key := ComputeWorkKey("proj-1", p, c)
	assert.Len(t, key, 64)

	// Same inputs produce the same key, which is what makes reuse safe
	assert.Equal(t, key, ComputeWorkKey("proj-1", p, c))

	// A different project never shares keys
	assert.NotEqual(t, key, ComputeWorkKey("proj-2", p, c))

	// Content drift invalidates the key
	drifted := *c
	drifted.Title = "Blue Shirt v2"
	assert.NotEqual(t, key, ComputeWorkKey("proj-1", p, &drifted))

	// A prompt version bump invalidates the key
	bumped := *p
	bumped.PromptVersion = 3
	assert.NotEqual(t, key, ComputeWorkKey("proj-1", &bumped, c))

	// Fields outside the fingerprint do not affect the key
	cosmetic := *c
	cosmetic.URL = "https://shop.example.com/products/blue-shirt"
	assert.Equal(t, key, ComputeWorkKey("proj-1", p, &cosmetic))
}
