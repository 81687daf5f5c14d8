package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/engineo/backend/pkg/constants"
)

func draftRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "project_id", "playbook_key", "scope_type", "scope_id", "handle", "field",
		"work_key", "current_value", "suggested_value", "status", "model", "run_id",
		"applied_at", "created_at", "updated_at",
	})
}

func TestGetReadyByWorkKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDraftRepository(db)
	now := time.Now()

	// Test Case 1: cache hit returns the ready draft
	rows := draftRows().AddRow(
		"draft-1", "proj-1", "missing_seo_title", constants.ScopeProduct, "123", "blue-shirt", "seo_title",
		"abc123", "", "Blue Shirt | Soft Cotton Tee", constants.DraftStatusReady, "gemini-2.0-flash", nil,
		nil, now, now,
	)
	mock.ExpectQuery("SELECT .+ FROM "+constants.TablePlaybookDraft).
		WithArgs("proj-1", "abc123", constants.DraftStatusReady).
		WillReturnRows(rows)

	draft, err := repo.GetReadyByWorkKey(context.Background(), "proj-1", "abc123")
	assert.NoError(t, err)
	assert.NotNil(t, draft)
	assert.Equal(t, "draft-1", draft.ID)
	assert.Equal(t, "Blue Shirt | Soft Cotton Tee", draft.SuggestedValue)

	// Test Case 2: cache miss returns nil without error
	mock.ExpectQuery("SELECT .+ FROM "+constants.TablePlaybookDraft).
		WithArgs("proj-1", "missing-key", constants.DraftStatusReady).
		WillReturnRows(draftRows())

	draft, err = repo.GetReadyByWorkKey(context.Background(), "proj-1", "missing-key")
	assert.NoError(t, err)
	assert.Nil(t, draft)
}

func TestMarkAppliedRequiresReady(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDraftRepository(db)

	// Test Case 1: ready draft transitions to applied
	mock.ExpectExec("UPDATE "+constants.TablePlaybookDraft).
		WithArgs(constants.DraftStatusApplied, "draft-1", constants.DraftStatusReady).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err = repo.MarkApplied(context.Background(), "draft-1")
	assert.NoError(t, err)

	// Test Case 2: draft already applied, transition is rejected
	mock.ExpectExec("UPDATE "+constants.TablePlaybookDraft).
		WithArgs(constants.DraftStatusApplied, "draft-2", constants.DraftStatusReady).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = repo.MarkApplied(context.Background(), "draft-2")
	assert.Equal(t, sql.ErrNoRows, err)
}

func TestCountReadyByWorkKeys(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewDraftRepository(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("proj-1", "key-1", constants.DraftStatusReady).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("proj-1", "key-2", constants.DraftStatusReady).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("proj-1", "key-3", constants.DraftStatusReady).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	count, err := repo.CountReadyByWorkKeys(context.Background(), "proj-1", []string{"key-1", "key-2", "key-3"})
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	// Empty key list short-circuits without touching the database
	count, err = repo.CountReadyByWorkKeys(context.Background(), "proj-1", nil)
	assert.NoError(t, err)
	assert.Equal(t, 0, count)
}
