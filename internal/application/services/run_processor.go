package services

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/engineo/backend/internal/domain/events"
	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/internal/domain/ports"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/infrastructure/persistence"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/errors"
)

// MaxRetryAttempts caps how often a failed run job is retried
const MaxRetryAttempts = 5

// RunProcessor executes queued playbook runs. It polls the job table,
// claims jobs with row locks so multiple instances can share the queue,
// and drives each run to a terminal state.
//
// All AI generation in the system happens here. Reused drafts are free;
// each fresh generation is billed in the same transaction that stores the
// draft it produced.
type RunProcessor struct {
	db           *database.Connection
	runs         *persistence.RunRepository
	jobs         *persistence.JobRepository
	drafts       *persistence.DraftRepository
	usage        *persistence.UsageRepository
	projects     *persistence.ProjectRepository
	txManager    *persistence.TransactionManager
	playbooks    *PlaybookService
	entitlements *EntitlementsService
	generator    ports.AnswerGenerator
	eventBus     *EventBus

	// Worker control
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// NewRunProcessor creates a new RunProcessor
func NewRunProcessor(db *database.Connection, txManager *persistence.TransactionManager, playbooks *PlaybookService, entitlements *EntitlementsService, generator ports.AnswerGenerator, eventBus *EventBus) *RunProcessor {
	return &RunProcessor{
		db:           db,
		runs:         persistence.NewRunRepository(db.DB()),
		jobs:         persistence.NewJobRepository(db.DB()),
		drafts:       persistence.NewDraftRepository(db.DB()),
		usage:        persistence.NewUsageRepository(db.DB()),
		projects:     persistence.NewProjectRepository(db.DB()),
		txManager:    txManager,
		playbooks:    playbooks,
		entitlements: entitlements,
		generator:    generator,
		eventBus:     eventBus,
		stopCh:       make(chan struct{}),
	}
}

// StartWorker starts the background worker that processes queued runs
func (rp *RunProcessor) StartWorker(interval time.Duration) {
	rp.wg.Add(1)
	go func() {
		defer rp.wg.Done()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		log.Printf("📤 Run worker started with %v interval", interval)

		for {
			select {
			case <-rp.stopCh:
				log.Printf("📤 Run worker stopping...")
				return
			case <-ticker.C:
				if err := rp.ProcessQueue(context.Background()); err != nil {
					log.Printf("⚠️ Run worker error: %v", err)
				}
			}
		}
	}()
}

// StopWorker stops the background worker gracefully
func (rp *RunProcessor) StopWorker() {
	rp.stopOnce.Do(func() {
		close(rp.stopCh)
	})
	rp.wg.Wait()
	log.Printf("📤 Run worker stopped")
}

// ProcessQueue drains pending run jobs
func (rp *RunProcessor) ProcessQueue(ctx context.Context) error {
	jobs, err := rp.jobs.GetPending(ctx, constants.JobQueuePlaybookRuns, 10)
	if err != nil {
		return err
	}

	if len(jobs) > 0 {
		log.Printf("🔄 Processing %d pending run jobs", len(jobs))
	}

	for _, j := range jobs {
		if err := rp.processJob(ctx, j); err != nil {
			log.Printf("⚠️ Failed to process run job %s: %v", j.ID, err)
		}
	}
	return nil
}

// processJob claims one job, executes its run, and records the outcome
func (rp *RunProcessor) processJob(ctx context.Context, j persistence.Job) error {
	var payload runJobPayload
	if err := json.Unmarshal([]byte(j.Payload), &payload); err != nil {
		return rp.failJob(ctx, j.ID, fmt.Sprintf("invalid payload: %v", err))
	}

	// Claim under a row lock so concurrent workers skip each other
	tx, err := rp.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	claimedID, err := rp.jobs.Claim(ctx, tx, j.ID)
	if err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("failed to claim job: %w", err)
	}
	if claimedID == "" {
		_ = tx.Rollback()
		return nil // Another worker got it
	}
	if err := rp.jobs.UpdateStatus(ctx, tx, j.ID, persistence.JobStatusProcessing, ""); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}

	execErr := rp.ExecuteRun(ctx, payload.ProjectID, payload.RunID)
	if execErr == nil {
		return rp.jobs.UpdateStatus(ctx, rp.db, j.ID, persistence.JobStatusSucceeded, "")
	}

	newCount := j.RetryCount + 1
	if newCount >= MaxRetryAttempts {
		log.Printf("❌ Run job %s exhausted retries: %v", j.ID, execErr)
		if err := rp.failJob(ctx, j.ID, fmt.Sprintf("max retries exceeded: %v", execErr)); err != nil {
			return err
		}
		rp.finishRun(ctx, payload.ProjectID, payload.RunID, constants.RunStatusFailed, execErr.Error())
		return nil
	}

	log.Printf("⚠️ Run job %s failed (attempt %d/%d): %v", j.ID, newCount, MaxRetryAttempts, execErr)
	return rp.jobs.IncrementRetry(ctx, rp.db, j.ID, newCount, execErr.Error())
}

func (rp *RunProcessor) failJob(ctx context.Context, jobID, message string) error {
	return rp.jobs.UpdateStatus(ctx, rp.db, jobID, persistence.JobStatusFailed, message)
}

// ExecuteRun drives one run from QUEUED to a terminal state
func (rp *RunProcessor) ExecuteRun(ctx context.Context, projectID, runID string) error {
	started, err := rp.runs.MarkRunning(ctx, runID)
	if err != nil {
		return err
	}

	run, err := rp.runs.GetByID(ctx, projectID, runID)
	if err != nil {
		return err
	}
	if run == nil {
		return fmt.Errorf("run %s not found after start", runID)
	}
	if !started {
		if run.Status != constants.RunStatusRunning {
			// Canceled or already finished
			log.Printf("⏭️ Run %s is %s, skipping", runID, run.Status)
			return nil
		}
		// A previous attempt failed after starting the run. The job claim
		// lock guarantees no other worker owns it, so pick it back up and
		// drive it to a terminal state. Already-generated items are safe:
		// their drafts are found again by work key and counted as reused.
		log.Printf("🔄 Resuming run %s after a failed attempt", runID)
	}

	p, err := rp.playbooks.Get(run.PlaybookKey)
	if err != nil {
		rp.finishRun(ctx, projectID, runID, constants.RunStatusFailed, "playbook no longer in catalog")
		return nil
	}

	// A deploy between queue and execution may have changed the rules
	currentHash, _ := rp.playbooks.RulesHash(run.PlaybookKey)
	if run.RulesHash != currentHash {
		rp.finishRun(ctx, projectID, runID, constants.RunStatusFailed, "playbook rules changed since the run was queued")
		return nil
	}

	project, err := rp.projects.GetByID(ctx, projectID)
	if err != nil || project == nil {
		return fmt.Errorf("project %s not found", projectID)
	}

	affected, err := rp.playbooks.AffectedResults(ctx, projectID, p)
	if err != nil {
		return fmt.Errorf("failed to evaluate affected items: %w", err)
	}

	var processed, succeeded, failed, reused, generated int
	var quotaHit bool

	for _, c := range affected {
		processed++

		err := rp.processItem(ctx, project, run, p, c, &reused, &generated)
		if err != nil {
			if errors.IsQuota(err) {
				quotaHit = true
				log.Printf("⚠️ Run %s stopped at item %d/%d: plan limit reached", runID, processed, len(affected))
				break
			}
			failed++
			log.Printf("⚠️ Run %s item %s/%s failed: %v", runID, c.ScopeType, c.Handle, err)
		} else {
			succeeded++
		}

		if err := rp.runs.UpdateProgress(ctx, runID, processed, succeeded, failed, reused, generated); err != nil {
			log.Printf("⚠️ Failed to update progress for run %s: %v", runID, err)
		}
	}

	_ = rp.runs.UpdateProgress(ctx, runID, processed, succeeded, failed, reused, generated)

	switch {
	case quotaHit:
		rp.finishRun(ctx, projectID, runID, constants.RunStatusFailed, "plan limit reached during run")
	case failed > 0 && succeeded == 0:
		rp.finishRun(ctx, projectID, runID, constants.RunStatusFailed, "all items failed")
	default:
		rp.finishRun(ctx, projectID, runID, constants.RunStatusSucceeded, "")
	}

	log.Printf("✅ Run %s finished: %d processed, %d reused, %d generated, %d failed",
		runID, processed, reused, generated, failed)
	return nil
}

// processItem produces a ready draft for one affected entity, reusing an
// existing draft when the work key matches
func (rp *RunProcessor) processItem(ctx context.Context, project *models.Project, run *models.PlaybookRun, p *models.Playbook, c *models.CrawlResult, reused, generated *int) error {
	workKey := ComputeWorkKey(project.ID, p, c)

	existing, err := rp.drafts.GetReadyByWorkKey(ctx, project.ID, workKey)
	if err != nil {
		return err
	}
	if existing != nil {
		*reused++
		return nil
	}

	// Per-item quota check: concurrent runs of other playbooks may have
	// consumed the budget since the apply-time estimate
	if err := rp.entitlements.CheckGenerations(ctx, project, 1); err != nil {
		return err
	}

	result, err := rp.generator.Generate(ctx, ports.GenerationRequest{
		Prompt:    rp.playbooks.RenderPrompt(p, c),
		MaxLength: p.MaxLength,
	})
	if err != nil {
		return fmt.Errorf("generation failed: %w", err)
	}

	draft := &models.Draft{
		ProjectID:      project.ID,
		PlaybookKey:    p.Key,
		ScopeType:      c.ScopeType,
		ScopeID:        c.ScopeID,
		Handle:         c.Handle,
		Field:          p.Field,
		WorkKey:        workKey,
		CurrentValue:   c.FieldValue(p.Field),
		SuggestedValue: result.Text,
		Status:         constants.DraftStatusReady,
		Model:          result.Model,
		RunID:          run.ID,
	}

	// Draft and its usage event commit atomically: billed work always has
	// its draft, stored drafts are always billed
	err = rp.txManager.WithTransaction(func(tx *sql.Tx) error {
		if _, err := rp.drafts.Insert(ctx, tx, draft); err != nil {
			return err
		}
		_, err := rp.usage.Insert(ctx, tx, &models.AiUsageEvent{
			ProjectID:    project.ID,
			RunID:        run.ID,
			PlaybookKey:  p.Key,
			Model:        result.Model,
			Operation:    constants.UsageOpGeneration,
			InputTokens:  result.InputTokens,
			OutputTokens: result.OutputTokens,
		})
		return err
	})
	if err != nil {
		return err
	}

	*generated++
	return nil
}

// finishRun records the terminal state and publishes the completion event
func (rp *RunProcessor) finishRun(ctx context.Context, projectID, runID, status, errMessage string) {
	if err := rp.runs.MarkFinished(ctx, runID, status, errMessage); err != nil {
		log.Printf("⚠️ Failed to finish run %s: %v", runID, err)
		return
	}

	run, err := rp.runs.GetByID(ctx, projectID, runID)
	if err != nil || run == nil {
		return
	}
	rp.eventBus.PublishAsync(events.RunCompleted, RunCompletedPayload{
		ProjectID:   projectID,
		RunID:       runID,
		PlaybookKey: run.PlaybookKey,
		Status:      status,
	})
}

// CleanupJobs removes old succeeded queue jobs
func (rp *RunProcessor) CleanupJobs(ctx context.Context, olderThan time.Duration) (int64, error) {
	return rp.jobs.CleanupProcessed(ctx, time.Now().Add(-olderThan))
}
