package services

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/infrastructure/persistence"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/errors"
)

// SchedulerService runs recurring crawls and playbook applies
type SchedulerService struct {
	schedules *persistence.ScheduleRepository
	projects  *persistence.ProjectRepository
	crawls    *CrawlService
	runs      *RunService
	playbooks *PlaybookService
	stopChan  chan struct{}
	wg        sync.WaitGroup
	mu        sync.Mutex
	running   bool
	stopped   bool // Prevents double-close of stopChan
}

// NewSchedulerService creates a new scheduler service
func NewSchedulerService(db *database.Connection, crawls *CrawlService, runs *RunService, playbooks *PlaybookService) *SchedulerService {
	return &SchedulerService{
		schedules: persistence.NewScheduleRepository(db.DB()),
		projects:  persistence.NewProjectRepository(db.DB()),
		crawls:    crawls,
		runs:      runs,
		playbooks: playbooks,
		stopChan:  make(chan struct{}),
	}
}

// CreateTask validates and stores a recurring task
func (s *SchedulerService) CreateTask(ctx context.Context, projectID, taskType, playbookKey, cronExpr, timezone string) (*models.ScheduledTask, error) {
	switch taskType {
	case constants.TaskTypeCrawl:
	case constants.TaskTypePlaybook:
		if _, err := s.playbooks.Get(playbookKey); err != nil {
			return nil, err
		}
	default:
		return nil, errors.NewValidationError("task_type", "unknown task type: "+taskType)
	}

	nextRun, err := s.calculateNextRun(cronExpr, timezone)
	if err != nil {
		return nil, errors.NewValidationError("cron_expr", err.Error())
	}

	task := &models.ScheduledTask{
		ProjectID:   projectID,
		TaskType:    taskType,
		PlaybookKey: playbookKey,
		CronExpr:    cronExpr,
		Timezone:    timezone,
		Enabled:     true,
		NextRunAt:   &nextRun,
	}
	if _, err := s.schedules.Insert(ctx, task); err != nil {
		return nil, fmt.Errorf("failed to create scheduled task: %w", err)
	}
	return task, nil
}

// ListTasks returns a project's scheduled tasks
func (s *SchedulerService) ListTasks(ctx context.Context, projectID string) ([]*models.ScheduledTask, error) {
	return s.schedules.ListByProject(ctx, projectID)
}

// DeleteTask removes a scheduled task
func (s *SchedulerService) DeleteTask(ctx context.Context, projectID, taskID string) error {
	return s.schedules.Delete(ctx, projectID, taskID)
}

// Start begins the scheduler background loop
func (s *SchedulerService) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	log.Println("⏰ Scheduler service starting...")

	ticker := time.NewTicker(time.Duration(constants.ScheduleCheckInterval) * time.Second)
	defer ticker.Stop()

	// Run immediately on start
	s.runPendingTasks()

	for {
		select {
		case <-ticker.C:
			s.runPendingTasks()
		case <-s.stopChan:
			log.Println("⏰ Scheduler service stopping...")
			s.wg.Wait() // Wait for running tasks to complete
			log.Println("⏰ Scheduler service stopped")
			return
		}
	}
}

// Stop gracefully stops the scheduler
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	if !s.running || s.stopped {
		s.mu.Unlock()
		return
	}
	s.running = false
	s.stopped = true
	s.mu.Unlock()

	close(s.stopChan)
}

// runPendingTasks finds and executes all due tasks
func (s *SchedulerService) runPendingTasks() {
	tasks, err := s.schedules.ListEnabled(context.Background())
	if err != nil {
		log.Printf("⚠️ Scheduler failed to list tasks: %v", err)
		return
	}

	now := time.Now().UTC()
	for _, task := range tasks {
		if !s.isTaskDue(task, now) {
			continue
		}

		s.wg.Add(1)
		go func(t models.ScheduledTask) {
			defer s.wg.Done()
			s.executeTask(&t)
		}(*task)
	}
}

// isTaskDue checks if a scheduled task should run now
func (s *SchedulerService) isTaskDue(task *models.ScheduledTask, now time.Time) bool {
	if task.NextRunAt != nil && !now.Before(*task.NextRunAt) {
		return true
	}

	// Never-run tasks without a computed next run start immediately
	if task.NextRunAt == nil && task.LastRunAt == nil {
		return true
	}

	return false
}

// executeTask runs a single scheduled task with safety guards
func (s *SchedulerService) executeTask(task *models.ScheduledTask) {
	log.Printf("⏰ Starting scheduled %s task %s for project %s", task.TaskType, task.ID, task.ProjectID)

	// 1. Atomically acquire execution lock
	acquired, err := s.schedules.AcquireLock(context.Background(), task.ID)
	if err != nil {
		log.Printf("⚠️ Failed to acquire lock for task %s: %v", task.ID, err)
		return
	}
	if !acquired {
		log.Printf("⏭️ Task %s is already running, skipping", task.ID)
		return
	}

	// 2. Ensure cleanup on exit (panic recovery)
	defer func() {
		if r := recover(); r != nil {
			log.Printf("🔥 Panic in scheduled task %s: %v", task.ID, r)
		}
		if err := s.schedules.ReleaseLock(context.Background(), task.ID); err != nil {
			log.Printf("⚠️ Failed to release lock for task %s: %v", task.ID, err)
		}
	}()

	// 3. Create timeout context
	timeout := time.Duration(constants.ScheduleMaxRuntimeMin) * time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	// 4. Execute
	startTime := time.Now()
	execErr := s.executeTaskLogic(ctx, task)
	duration := time.Since(startTime)

	if execErr != nil {
		log.Printf("❌ Scheduled task %s failed after %v: %v", task.ID, duration, execErr)
	} else {
		log.Printf("✅ Scheduled task %s completed in %v", task.ID, duration)
	}

	// 5. Record execution and compute the next run
	s.scheduleNextRun(task, startTime)
}

// executeTaskLogic dispatches on the task type
func (s *SchedulerService) executeTaskLogic(ctx context.Context, task *models.ScheduledTask) error {
	project, err := s.projects.GetByID(ctx, task.ProjectID)
	if err != nil {
		return err
	}
	if project == nil {
		return fmt.Errorf("project %s not found", task.ProjectID)
	}

	switch task.TaskType {
	case constants.TaskTypeCrawl:
		_, err := s.crawls.Crawl(ctx, project.ID)
		return err
	case constants.TaskTypePlaybook:
		hash, err := s.playbooks.RulesHash(task.PlaybookKey)
		if err != nil {
			return err
		}
		_, err = s.runs.Apply(ctx, project, task.PlaybookKey, hash, "scheduler")
		if errors.IsConflict(err) {
			// A run is already active; the next tick will try again
			log.Printf("⏭️ Scheduled apply of %s skipped: %v", task.PlaybookKey, err)
			return nil
		}
		return err
	}
	return fmt.Errorf("unknown task type: %s", task.TaskType)
}

// scheduleNextRun records last_run_at and the computed next run time
func (s *SchedulerService) scheduleNextRun(task *models.ScheduledTask, lastRun time.Time) {
	nextRun, err := s.calculateNextRun(task.CronExpr, task.Timezone)
	if err != nil {
		log.Printf("⚠️ Failed to calculate next run for task %s: %v", task.ID, err)
		return
	}

	if err := s.schedules.UpdateRunTimes(context.Background(), task.ID, lastRun.UTC(), nextRun); err != nil {
		log.Printf("⚠️ Failed to update run times for task %s: %v", task.ID, err)
	}
}

// calculateNextRun parses the cron expression and returns the next execution time
func (s *SchedulerService) calculateNextRun(cronExpr, timezone string) (time.Time, error) {
	loc := time.UTC
	if timezone != "" {
		var err error
		loc, err = time.LoadLocation(timezone)
		if err != nil {
			log.Printf("⚠️ Invalid timezone %s, falling back to UTC", timezone)
			loc = time.UTC
		}
	}

	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(cronExpr)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid cron expression: %w", err)
	}

	now := time.Now().In(loc)
	return schedule.Next(now).UTC(), nil
}
