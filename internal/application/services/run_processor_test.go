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

func runRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "project_id", "playbook_key", "status", "rules_hash", "scope_type",
		"total_items", "processed_items", "succeeded_items", "failed_items",
		"drafts_reused", "ai_generated", "error_message", "requested_by",
		"started_at", "finished_at", "created_at", "updated_at",
	})
}

// A run can be left in RUNNING when a worker dies or a transient error
// aborts an attempt after the start transition. The retrying job must
// resume that run and drive it to a terminal state instead of skipping it,
// or the stuck run would block every future apply of the playbook.
func TestExecuteRunResumesRunningRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	playbooks := newTestPlaybookService(t)
	playbooks.crawlRepo = persistence.NewCrawlRepository(db)

	rp := &RunProcessor{
		runs:      persistence.NewRunRepository(db),
		projects:  persistence.NewProjectRepository(db),
		playbooks: playbooks,
		eventBus:  NewEventBus(),
	}

	hash, err := playbooks.RulesHash("missing_seo_title")
	require.NoError(t, err)

	// The start transition finds the run already out of QUEUED
	mock.ExpectExec("UPDATE "+constants.TablePlaybookRun).
		WithArgs(constants.RunStatusRunning, "run-1", constants.RunStatusQueued).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// It is RUNNING from the earlier attempt, so execution resumes
	mock.ExpectQuery("SELECT (.+) FROM "+constants.TablePlaybookRun).
		WithArgs("run-1", "proj-1").
		WillReturnRows(runRows().AddRow(
			"run-1", "proj-1", "missing_seo_title", constants.RunStatusRunning, hash,
			constants.ScopeProduct, 0, 0, 0, 0, 0, 0, nil, "user-1",
			nil, nil, "2026-08-29 12:00:00", "2026-08-29 12:00:00"))

	mock.ExpectQuery("SELECT (.+) FROM "+constants.TableProject).
		WithArgs("proj-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "name", "shop_domain", "plan", "owner_id", "created_at", "updated_at"}).
			AddRow("proj-1", "Test Store", "test.myshopify.com", "free", "user-1",
				"2026-08-29 12:00:00", "2026-08-29 12:00:00"))

	// Crawl snapshot has no affected entities left
	mock.ExpectQuery("SELECT (.+) FROM "+constants.TableCrawlResult).
		WithArgs("proj-1", constants.ScopeProduct).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "project_id", "scope_type", "scope_id", "handle", "title",
			"description", "body", "url", "seo_title", "seo_description", "crawled_at"}))

	mock.ExpectExec("UPDATE "+constants.TablePlaybookRun).
		WithArgs(0, 0, 0, 0, 0, "run-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// The resumed run reaches a terminal state
	mock.ExpectExec("UPDATE "+constants.TablePlaybookRun).
		WithArgs(constants.RunStatusSucceeded, "", "run-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	mock.ExpectQuery("SELECT (.+) FROM "+constants.TablePlaybookRun).
		WithArgs("run-1", "proj-1").
		WillReturnRows(runRows().AddRow(
			"run-1", "proj-1", "missing_seo_title", constants.RunStatusSucceeded, hash,
			constants.ScopeProduct, 0, 0, 0, 0, 0, 0, nil, "user-1",
			nil, nil, "2026-08-29 12:00:00", "2026-08-29 12:00:00"))

	err = rp.ExecuteRun(context.Background(), "proj-1", "run-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExecuteRunSkipsCanceledRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	rp := &RunProcessor{
		runs:      persistence.NewRunRepository(db),
		playbooks: newTestPlaybookService(t),
		eventBus:  NewEventBus(),
	}

	mock.ExpectExec("UPDATE "+constants.TablePlaybookRun).
		WithArgs(constants.RunStatusRunning, "run-1", constants.RunStatusQueued).
		WillReturnResult(sqlmock.NewResult(0, 0))

	mock.ExpectQuery("SELECT (.+) FROM "+constants.TablePlaybookRun).
		WithArgs("run-1", "proj-1").
		WillReturnRows(runRows().AddRow(
			"run-1", "proj-1", "missing_seo_title", constants.RunStatusCanceled, "h",
			constants.ScopeProduct, 0, 0, 0, 0, 0, 0, nil, "user-1",
			nil, nil, "2026-08-29 12:00:00", "2026-08-29 12:00:00"))

	// No playbook lookup, no item processing, no finish transition
	err = rp.ExecuteRun(context.Background(), "proj-1", "run-1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
