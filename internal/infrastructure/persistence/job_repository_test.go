package persistence

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"

	"github.com/engineo/backend/pkg/constants"
)

func TestGetPendingSkipsUnscannableRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobRepository(db)

	// The first row carries a corrupt retry_count; the rest of the batch
	// must still come back
	rows := sqlmock.NewRows([]string{"id", "queue", "payload", "retry_count"}).
		AddRow("job-1", constants.JobQueuePlaybookRuns, `{"run_id":"run-1"}`, "not-a-number").
		AddRow("job-2", constants.JobQueuePlaybookRuns, `{"run_id":"run-2"}`, 1)

	mock.ExpectQuery("SELECT id, queue, payload, retry_count").
		WithArgs(constants.JobQueuePlaybookRuns, JobStatusPending, 10).
		WillReturnRows(rows)

	jobs, err := repo.GetPending(context.Background(), constants.JobQueuePlaybookRuns, 10)
	assert.NoError(t, err)
	assert.Len(t, jobs, 1)
	assert.Equal(t, "job-2", jobs[0].ID)
	assert.Equal(t, 1, jobs[0].RetryCount)
}

func TestClaimAlreadyTakenJob(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	repo := NewJobRepository(db)

	mock.ExpectQuery("SELECT id FROM").
		WithArgs("job-1", JobStatusPending).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	claimed, err := repo.Claim(context.Background(), db, "job-1")
	assert.NoError(t, err)
	assert.Empty(t, claimed, "a job claimed elsewhere yields an empty ID")
}
