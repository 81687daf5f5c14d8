package services

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/engineo/backend/internal/infrastructure/persistence"
	"github.com/engineo/backend/pkg/constants"
)

// Bundles come back most urgent first regardless of the aggregation's
// GROUP BY order: critical before warning, bigger bundles first within a
// severity. Issues whose playbook left the catalog drop out.
func TestBundlesOrderedBySeverityThenCount(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	s := &WorkQueueService{
		issues:    persistence.NewIssueRepository(db),
		playbooks: newTestPlaybookService(t),
	}

	mock.ExpectQuery("SELECT playbook_key, scope_type, severity").
		WithArgs("proj-1", constants.IssueStatusOpen).
		WillReturnRows(sqlmock.NewRows([]string{"playbook_key", "scope_type", "severity", "count"}).
			AddRow("seo_title_too_long", constants.ScopeProduct, constants.SeverityWarning, 3).
			AddRow("missing_seo_title", constants.ScopeProduct, constants.SeverityCritical, 2).
			AddRow("retired_playbook", constants.ScopeProduct, constants.SeverityInfo, 7).
			AddRow("thin_product_description", constants.ScopeProduct, constants.SeverityWarning, 9))

	// One sample lookup per surviving bundle, in aggregation order
	for _, key := range []string{"seo_title_too_long", "missing_seo_title", "thin_product_description"} {
		mock.ExpectQuery("SELECT handle FROM").
			WithArgs("proj-1", key, constants.IssueStatusOpen, sampleHandleCount).
			WillReturnRows(sqlmock.NewRows([]string{"handle"}).AddRow(key + "-example"))
	}

	bundles, err := s.Bundles(context.Background(), "proj-1")
	require.NoError(t, err)
	require.Len(t, bundles, 3)

	assert.Equal(t, "missing_seo_title", bundles[0].PlaybookKey)
	assert.Equal(t, "thin_product_description", bundles[1].PlaybookKey)
	assert.Equal(t, "seo_title_too_long", bundles[2].PlaybookKey)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSeverityRank(t *testing.T) {
	assert.Less(t, severityRank(constants.SeverityCritical), severityRank(constants.SeverityWarning))
	assert.Less(t, severityRank(constants.SeverityWarning), severityRank(constants.SeverityInfo))
	assert.Less(t, severityRank(constants.SeverityInfo), severityRank("unknown"))
}
