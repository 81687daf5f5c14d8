package main

import (
	"context"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/engineo/backend/internal/application/services"
	"github.com/engineo/backend/internal/bootstrap"
	"github.com/engineo/backend/internal/infrastructure/database"
	"github.com/engineo/backend/internal/interfaces/middleware"
	"github.com/engineo/backend/internal/interfaces/rest"
)

const workerPollInterval = 5 * time.Second

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	port := os.Getenv("PORT")
	if port == "" {
		port = "3001"
	}

	// Initialize database connection
	db, err := database.GetInstance()
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	log.Println("✅ Database connection established")

	// Initialize core schema
	if err := bootstrap.InitializeSchema(db); err != nil {
		log.Fatalf("Failed to initialize schema: %v", err)
	}

	// Initialize service manager
	svcMgr, err := services.NewServiceManagerWithGemini(context.Background(), db)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	log.Println("🔧 Service manager initialized")

	// Initialize system data (admin account)
	if err := bootstrap.InitializeSystemData(db); err != nil {
		log.Fatalf("Failed to initialize system data: %v", err)
	}

	// Background workers: run queue processor and scheduler
	svcMgr.StartWorkers(workerPollInterval)

	// Create Gin router
	router := gin.Default()
	router.Use(middleware.Cors())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// Debug/pprof endpoints for goroutine debugging
	// Goroutine stacks: http://localhost:3001/debug/pprof/goroutine?debug=2
	debug := router.Group("/debug/pprof")
	{
		debug.GET("/goroutine", gin.WrapH(http.DefaultServeMux))
		debug.GET("/heap", gin.WrapH(http.DefaultServeMux))
		debug.GET("/profile", gin.WrapH(http.DefaultServeMux))
		debug.GET("/trace", gin.WrapH(http.DefaultServeMux))
	}

	// Initialize handlers
	authHandler := rest.NewAuthHandler(svcMgr)
	projectHandler := rest.NewProjectHandler(svcMgr)
	integrationHandler := rest.NewIntegrationHandler(svcMgr)
	crawlHandler := rest.NewCrawlHandler(svcMgr)
	workQueueHandler := rest.NewWorkQueueHandler(svcMgr)
	playbookHandler := rest.NewPlaybookHandler(svcMgr)
	draftHandler := rest.NewDraftHandler(svcMgr)
	usageHandler := rest.NewUsageHandler(svcMgr)
	scheduleHandler := rest.NewScheduleHandler(svcMgr)

	// Initialize middleware
	requireAuth := middleware.RequireAuth(svcMgr.Auth)

	// API routes
	api := router.Group("/api")
	{
		// Auth routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", authHandler.Register)
			auth.POST("/login", authHandler.Login)
			auth.POST("/logout", requireAuth, authHandler.Logout)
			auth.GET("/me", requireAuth, authHandler.GetMe)
			auth.POST("/change-password", requireAuth, authHandler.ChangePassword)
		}

		// Project routes and everything scoped under a project
		projects := api.Group("/projects")
		projects.Use(requireAuth)
		{
			projects.POST("", projectHandler.Create)
			projects.GET("", projectHandler.List)
			projects.GET("/:projectId", projectHandler.Get)
			projects.PATCH("/:projectId", projectHandler.Update)
			projects.DELETE("/:projectId", projectHandler.Delete)

			// Storefront integration
			projects.POST("/:projectId/integrations/shopify", integrationHandler.Connect)
			projects.GET("/:projectId/integrations/shopify", integrationHandler.Get)
			projects.DELETE("/:projectId/integrations/shopify", integrationHandler.Disconnect)

			// Crawl and audit
			projects.POST("/:projectId/crawl", crawlHandler.Crawl)
			projects.GET("/:projectId/crawl/results", crawlHandler.ListResults)
			projects.POST("/:projectId/audit", crawlHandler.Audit)

			// Work queue
			projects.GET("/:projectId/work-queue", workQueueHandler.Bundles)
			projects.GET("/:projectId/work-queue/:playbookKey/issues", workQueueHandler.ListIssues)
			projects.POST("/:projectId/issues/:issueId/dismiss", workQueueHandler.DismissIssue)

			// Playbooks and runs
			projects.GET("/:projectId/automation-playbooks", playbookHandler.List)
			projects.GET("/:projectId/automation-playbooks/:playbookKey/preview", playbookHandler.Preview)
			projects.POST("/:projectId/automation-playbooks/:playbookKey/estimate", playbookHandler.Estimate)
			projects.POST("/:projectId/automation-playbooks/:playbookKey/apply", playbookHandler.Apply)
			projects.GET("/:projectId/runs", playbookHandler.ListRuns)
			projects.GET("/:projectId/runs/:runId", playbookHandler.GetRun)
			projects.POST("/:projectId/runs/:runId/cancel", playbookHandler.CancelRun)

			// Drafts
			projects.GET("/:projectId/drafts", draftHandler.List)
			projects.GET("/:projectId/drafts/:draftId", draftHandler.Get)
			projects.POST("/:projectId/drafts/:draftId/apply", draftHandler.Apply)
			projects.POST("/:projectId/drafts/:draftId/reject", draftHandler.Reject)

			// Schedules
			projects.POST("/:projectId/schedules", scheduleHandler.Create)
			projects.GET("/:projectId/schedules", scheduleHandler.List)
			projects.DELETE("/:projectId/schedules/:scheduleId", scheduleHandler.Delete)
		}

		// AI usage reporting
		ai := api.Group("/ai")
		ai.Use(requireAuth)
		{
			ai.GET("/projects/:projectId/usage/summary", usageHandler.Summary)
		}
	}

	// HTTP server with graceful shutdown
	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("🚀 EngineO backend listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server error: %v", err)
		}
	}()

	// Wait for interrupt
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("🛑 Shutting down...")

	svcMgr.StopWorkers()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Forced shutdown: %v", err)
	}

	if err := db.Close(); err != nil {
		log.Printf("⚠️ Failed to close database: %v", err)
	}
	log.Println("👋 Server stopped")
}
