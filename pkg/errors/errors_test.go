package errors

import (
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDomainConflictCodes(t *testing.T) {
	rulesChanged := NewRulesChangedError("missing_seo_title")
	assert.Equal(t, http.StatusConflict, rulesChanged.HTTPStatus())
	assert.Equal(t, "PLAYBOOK_RULES_CHANGED", rulesChanged.Code())
	assert.True(t, IsConflict(rulesChanged))

	inProgress := NewRunInProgressError("missing_seo_title")
	assert.Equal(t, "RUN_IN_PROGRESS", inProgress.Code())

	stale := NewStaleDraftError("draft-1")
	assert.Equal(t, "DRAFT_STALE", stale.Code())

	// Plain conflicts keep the generic code
	generic := NewConflictError("Run", "only queued runs can be canceled")
	assert.Equal(t, "CONFLICT", generic.Code())
	assert.Equal(t, "only queued runs can be canceled", generic.Error())
}

func TestQuotaError(t *testing.T) {
	err := NewQuotaError("free", 30, 5)
	assert.Equal(t, http.StatusPaymentRequired, err.HTTPStatus())
	assert.Equal(t, "PLAN_LIMIT_REACHED", err.Code())
	assert.True(t, IsQuota(err))
	assert.False(t, IsQuota(NewNotFoundError("Run", "r1")))
	assert.Contains(t, err.Error(), "30 generations requested, 5 remaining")
}

func TestGetHTTPStatusFallsBackTo500(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, GetHTTPStatus(NewNotFoundError("Draft", "d1")))
	assert.Equal(t, http.StatusInternalServerError, GetHTTPStatus(fmt.Errorf("boom")))
	assert.Equal(t, "UNKNOWN_ERROR", GetErrorCode(fmt.Errorf("boom")))
}

func TestWrappedErrorsStillMatch(t *testing.T) {
	wrapped := fmt.Errorf("apply failed: %w", NewStaleDraftError("draft-1"))
	assert.True(t, IsConflict(wrapped))
	assert.Equal(t, http.StatusConflict, GetHTTPStatus(wrapped))
	assert.Equal(t, "DRAFT_STALE", GetErrorCode(wrapped))
}

func TestHandleNotFoundMessage(t *testing.T) {
	err := NewHandleNotFoundError("page", "old-about-us")
	assert.Equal(t, http.StatusBadRequest, err.HTTPStatus())
	assert.Contains(t, err.Error(), "page not found with handle 'old-about-us'")
}
