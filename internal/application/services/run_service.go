package services

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"os"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/infrastructure/persistence"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/errors"
)

// runJobPayload is what a queued playbook run job carries
type runJobPayload struct {
	ProjectID string `json:"project_id"`
	RunID     string `json:"run_id"`
}

// RunService creates, lists, and cancels playbook runs. Execution itself
// happens in the RunProcessor; apply only queues the work.
type RunService struct {
	db           *database.Connection
	runs         *persistence.RunRepository
	jobs         *persistence.JobRepository
	txManager    *persistence.TransactionManager
	playbooks    *PlaybookService
	drafts       *persistence.DraftRepository
	entitlements *EntitlementsService
	processor    *RunProcessor
	inline       bool
}

// NewRunService creates a new RunService. ENGINEO_INLINE_RUNS=true makes
// apply execute the run synchronously instead of queueing it, which keeps
// single-process deployments and tests simple.
func NewRunService(db *database.Connection, txManager *persistence.TransactionManager, playbooks *PlaybookService, entitlements *EntitlementsService) *RunService {
	return &RunService{
		db:           db,
		runs:         persistence.NewRunRepository(db.DB()),
		jobs:         persistence.NewJobRepository(db.DB()),
		txManager:    txManager,
		playbooks:    playbooks,
		drafts:       persistence.NewDraftRepository(db.DB()),
		entitlements: entitlements,
		inline:       os.Getenv("ENGINEO_INLINE_RUNS") == "true",
	}
}

// SetProcessor wires the executor after construction (breaks the cycle
// between service and processor)
func (s *RunService) SetProcessor(p *RunProcessor) {
	s.processor = p
}

// Estimate projects what applying a playbook would do: affected entities,
// how many drafts can be reused, how many new generations are needed, and
// whether the plan quota allows it
func (s *RunService) Estimate(ctx context.Context, project *models.Project, playbookKey string) (*models.Estimate, error) {
	p, err := s.playbooks.Get(playbookKey)
	if err != nil {
		return nil, err
	}
	hash, _ := s.playbooks.RulesHash(playbookKey)

	affected, err := s.playbooks.AffectedResults(ctx, project.ID, p)
	if err != nil {
		return nil, err
	}

	workKeys := make([]string, 0, len(affected))
	for _, c := range affected {
		workKeys = append(workKeys, ComputeWorkKey(project.ID, p, c))
	}

	reusable, err := s.drafts.CountReadyByWorkKeys(ctx, project.ID, workKeys)
	if err != nil {
		return nil, err
	}
	newGenerations := len(affected) - reusable

	remaining, err := s.entitlements.Remaining(ctx, project)
	if err != nil {
		return nil, err
	}
	allowed := remaining == UnlimitedQuota || newGenerations <= remaining

	return &models.Estimate{
		PlaybookKey:     playbookKey,
		RulesHash:       hash,
		AffectedItems:   len(affected),
		ReusableDrafts:  reusable,
		NewGenerations:  newGenerations,
		EstimatedTokens: newGenerations * estimateTokensPerItem(p),
		Allowed:         allowed,
		QuotaRemaining:  remaining,
	}, nil
}

// estimateTokensPerItem prices one generation from the prompt and output size.
// Rough 4-chars-per-token heuristic; estimates are advisory.
func estimateTokensPerItem(p *models.Playbook) int {
	return len(p.PromptTemplate)/4 + p.MaxLength/4 + 100
}

// Apply queues a playbook run. The caller supplies the rules hash from its
// estimate; a mismatch means the catalog changed under the client and the
// run is refused. One active run per project and playbook.
func (s *RunService) Apply(ctx context.Context, project *models.Project, playbookKey, rulesHash, requestedBy string) (*models.PlaybookRun, error) {
	p, err := s.playbooks.Get(playbookKey)
	if err != nil {
		return nil, err
	}

	currentHash, _ := s.playbooks.RulesHash(playbookKey)
	if rulesHash != currentHash {
		return nil, errors.NewRulesChangedError(playbookKey)
	}

	estimate, err := s.Estimate(ctx, project, playbookKey)
	if err != nil {
		return nil, err
	}
	if !estimate.Allowed {
		return nil, errors.NewQuotaError(project.Plan, estimate.NewGenerations, estimate.QuotaRemaining)
	}

	run := &models.PlaybookRun{
		ProjectID:   project.ID,
		PlaybookKey: playbookKey,
		Status:      constants.RunStatusQueued,
		RulesHash:   currentHash,
		ScopeType:   p.ScopeType,
		TotalItems:  estimate.AffectedItems,
		RequestedBy: requestedBy,
	}

	// The active-run check, the run row, and the queue job commit together
	// so a crash cannot leave a run without its job
	err = s.txManager.WithTransaction(func(tx *sql.Tx) error {
		active, err := s.runs.HasActiveRun(ctx, tx, project.ID, playbookKey)
		if err != nil {
			return err
		}
		if active {
			return errors.NewRunInProgressError(playbookKey)
		}

		if _, err := s.runs.Insert(ctx, tx, run); err != nil {
			return err
		}

		if s.inline {
			return nil
		}
		_, err = s.jobs.Enqueue(ctx, tx, constants.JobQueuePlaybookRuns, runJobPayload{
			ProjectID: project.ID,
			RunID:     run.ID,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	log.Printf("📋 Queued run %s (%s) for project %s: %d items, %d reusable, %d to generate",
		run.ID, playbookKey, project.ID, estimate.AffectedItems, estimate.ReusableDrafts, estimate.NewGenerations)

	if s.inline && s.processor != nil {
		if err := s.processor.ExecuteRun(ctx, project.ID, run.ID); err != nil {
			log.Printf("⚠️ Inline run %s failed: %v", run.ID, err)
			// No queue job retries the inline path, so the run must not be
			// left in RUNNING or it would block every future apply
			if ferr := s.runs.MarkFinished(ctx, run.ID, constants.RunStatusFailed, err.Error()); ferr != nil {
				log.Printf("⚠️ Failed to mark inline run %s as failed: %v", run.ID, ferr)
			}
		}
		return s.Get(ctx, project.ID, run.ID)
	}

	return run, nil
}

// Get returns one run
func (s *RunService) Get(ctx context.Context, projectID, runID string) (*models.PlaybookRun, error) {
	run, err := s.runs.GetByID(ctx, projectID, runID)
	if err != nil {
		return nil, fmt.Errorf("database error: %w", err)
	}
	if run == nil {
		return nil, errors.NewNotFoundError("Run", runID)
	}
	return run, nil
}

// List returns the project's run history, newest first
func (s *RunService) List(ctx context.Context, projectID string, limit int) ([]*models.PlaybookRun, error) {
	return s.runs.ListByProject(ctx, projectID, limit)
}

// Cancel aborts a run that has not started. Running and finished runs
// cannot be canceled.
func (s *RunService) Cancel(ctx context.Context, projectID, runID string) (*models.PlaybookRun, error) {
	run, err := s.Get(ctx, projectID, runID)
	if err != nil {
		return nil, err
	}

	canceled, err := s.runs.MarkCanceled(ctx, projectID, runID)
	if err != nil {
		return nil, err
	}
	if !canceled {
		return nil, errors.NewConflictError("Run",
			fmt.Sprintf("run %s is %s; only queued runs can be canceled", runID, run.Status))
	}

	return s.Get(ctx, projectID, runID)
}
