package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/engineo/backend/pkg/constants"
)

func TestHasActiveRun(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRunRepository(db)

	// Test Case 1: a queued run exists for the playbook
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("proj-1", "missing_seo_title", constants.RunStatusQueued, constants.RunStatusRunning).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	active, err := repo.HasActiveRun(context.Background(), db, "proj-1", "missing_seo_title")
	assert.NoError(t, err)
	assert.True(t, active)

	// Test Case 2: no active run
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("proj-1", "missing_seo_description", constants.RunStatusQueued, constants.RunStatusRunning).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	active, err = repo.HasActiveRun(context.Background(), db, "proj-1", "missing_seo_description")
	assert.NoError(t, err)
	assert.False(t, active)
}

func TestMarkCanceledOnlyQueued(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRunRepository(db)

	// Test Case 1: run is still QUEUED, cancel succeeds
	mock.ExpectExec("UPDATE "+constants.TablePlaybookRun).
		WithArgs(constants.RunStatusCanceled, "run-1", "proj-1", constants.RunStatusQueued).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := repo.MarkCanceled(context.Background(), "proj-1", "run-1")
	assert.NoError(t, err)
	assert.True(t, ok)

	// Test Case 2: run already left QUEUED, no rows updated
	mock.ExpectExec("UPDATE "+constants.TablePlaybookRun).
		WithArgs(constants.RunStatusCanceled, "run-2", "proj-1", constants.RunStatusQueued).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err = repo.MarkCanceled(context.Background(), "proj-1", "run-2")
	assert.NoError(t, err)
	assert.False(t, ok)
}

func TestMarkRunningRequiresQueued(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewRunRepository(db)

	mock.ExpectExec("UPDATE "+constants.TablePlaybookRun).
		WithArgs(constants.RunStatusRunning, "run-1", constants.RunStatusQueued).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := repo.MarkRunning(context.Background(), "run-1")
	assert.NoError(t, err)
	assert.False(t, ok)
}
