package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/engineo/backend/pkg/constants"
)

func TestQuotaLimit(t *testing.T) {
	assert.Equal(t, 25, QuotaLimit(constants.PlanFree))
	assert.Equal(t, 500, QuotaLimit(constants.PlanStarter))
	assert.Equal(t, 5000, QuotaLimit(constants.PlanGrowth))
	assert.Equal(t, UnlimitedQuota, QuotaLimit(constants.PlanScale))

	// Unknown plans fall back to the free cap
	assert.Equal(t, 25, QuotaLimit("enterprise"))
	assert.Equal(t, 25, QuotaLimit(""))
}

func TestPeriodStart(t *testing.T) {
	now := time.Date(2026, 8, 29, 15, 42, 7, 0, time.UTC)
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), PeriodStart(now))

	// Non-UTC input is normalized before truncation
	loc := time.FixedZone("UTC+10", 10*3600)
	early := time.Date(2026, 9, 1, 5, 0, 0, 0, loc) // still Aug 31 in UTC
	assert.Equal(t, time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC), PeriodStart(early))

	first := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, first, PeriodStart(first))
}
