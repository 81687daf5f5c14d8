package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/engineo/backend/internal/application/services"
	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/auth"
)

type WorkQueueHandler struct {
	svcMgr *services.ServiceManager
}

func NewWorkQueueHandler(svcMgr *services.ServiceManager) *WorkQueueHandler {
	return &WorkQueueHandler{
		svcMgr: svcMgr,
	}
}

func (h *WorkQueueHandler) resolve(c *gin.Context) (*models.Project, bool) {
	return ResolveProject(c, func(user *auth.UserSession, projectID string) (*models.Project, error) {
		return h.svcMgr.Projects.Get(c.Request.Context(), user, projectID)
	})
}

// Bundles handles GET /api/projects/:projectId/work-queue
func (h *WorkQueueHandler) Bundles(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	HandleGetEnvelope(c, "bundles", func() (interface{}, error) {
		return h.svcMgr.WorkQueue.Bundles(c.Request.Context(), project.ID)
	})
}

// ListIssues handles GET /api/projects/:projectId/work-queue/:playbookKey/issues
func (h *WorkQueueHandler) ListIssues(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	limit := QueryIntDefault(c, "limit", 100)
	HandleGetEnvelope(c, "issues", func() (interface{}, error) {
		return h.svcMgr.WorkQueue.ListIssues(c.Request.Context(), project.ID, c.Param("playbookKey"), limit)
	})
}

// DismissIssue handles POST /api/projects/:projectId/issues/:issueId/dismiss
func (h *WorkQueueHandler) DismissIssue(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	HandleDeleteEnvelope(c, "Issue dismissed", func() error {
		return h.svcMgr.WorkQueue.DismissIssue(c.Request.Context(), project.ID, c.Param("issueId"))
	})
}
