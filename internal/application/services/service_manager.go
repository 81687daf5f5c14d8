package services

import (
	"context"
	"fmt"
	"time"

	"github.com/engineo/backend/internal/domain/ports"
	"github.com/engineo/backend/internal/infrastructure/ai"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/infrastructure/persistence"
)

// ServiceManager orchestrates all services with dependency injection
type ServiceManager struct {
	db *database.Connection

	TxManager    *persistence.TransactionManager
	EventBus     *EventBus
	Auth         *AuthService
	Projects     *ProjectService
	Integrations *IntegrationService
	Playbooks    *PlaybookService
	Crawls       *CrawlService
	WorkQueue    *WorkQueueService
	Entitlements *EntitlementsService
	Usage        *UsageService
	Drafts       *DraftService
	Runs         *RunService
	Processor    *RunProcessor
	Scheduler    *SchedulerService
}

// NewServiceManager creates a new service manager with all dependencies wired
func NewServiceManager(db *database.Connection, generator ports.AnswerGenerator) (*ServiceManager, error) {
	sm := &ServiceManager{db: db}

	// Initialize services in dependency order
	sm.TxManager = persistence.NewTransactionManager(db)
	sm.EventBus = NewEventBus()

	playbooks, err := NewPlaybookService(db)
	if err != nil {
		return nil, fmt.Errorf("failed to load playbook catalog: %w", err)
	}
	sm.Playbooks = playbooks

	sm.Auth = NewAuthService(db)
	sm.Projects = NewProjectService(db)
	sm.Integrations = NewIntegrationService(db)
	sm.Crawls = NewCrawlService(db, sm.Integrations, sm.Playbooks, sm.EventBus)
	sm.WorkQueue = NewWorkQueueService(db, sm.Playbooks)
	sm.Entitlements = NewEntitlementsService(db)
	sm.Usage = NewUsageService(db)
	sm.Drafts = NewDraftService(db, sm.Integrations, sm.Playbooks, sm.EventBus)

	sm.Runs = NewRunService(db, sm.TxManager, sm.Playbooks, sm.Entitlements)
	sm.Processor = NewRunProcessor(db, sm.TxManager, sm.Playbooks, sm.Entitlements, generator, sm.EventBus)
	sm.Runs.SetProcessor(sm.Processor)

	sm.Scheduler = NewSchedulerService(db, sm.Crawls, sm.Runs, sm.Playbooks)

	return sm, nil
}

// NewServiceManagerWithGemini wires the default Gemini generator from the
// environment
func NewServiceManagerWithGemini(ctx context.Context, db *database.Connection) (*ServiceManager, error) {
	generator, err := ai.NewGeminiGenerator(ctx)
	if err != nil {
		return nil, err
	}
	return NewServiceManager(db, generator)
}

// StartWorkers launches the run worker and the scheduler
func (sm *ServiceManager) StartWorkers(pollInterval time.Duration) {
	sm.Processor.StartWorker(pollInterval)
	go sm.Scheduler.Start()
}

// StopWorkers stops background processing gracefully
func (sm *ServiceManager) StopWorkers() {
	sm.Scheduler.Stop()
	sm.Processor.StopWorker()
}
