package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/engineo/backend/internal/application/services"
	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/auth"
	"github.com/engineo/backend/pkg/constants"
)

type PlaybookHandler struct {
	svcMgr *services.ServiceManager
}

func NewPlaybookHandler(svcMgr *services.ServiceManager) *PlaybookHandler {
	return &PlaybookHandler{
		svcMgr: svcMgr,
	}
}

// ApplyRequest carries the rules hash from the client's estimate so the
// server can refuse stale applies. The hash is mandatory: apply without a
// fresh estimate is not a supported flow.
type ApplyRequest struct {
	RulesHash string `json:"rules_hash" binding:"required"`
}

func (h *PlaybookHandler) resolve(c *gin.Context) (*models.Project, bool) {
	return ResolveProject(c, func(user *auth.UserSession, projectID string) (*models.Project, error) {
		return h.svcMgr.Projects.Get(c.Request.Context(), user, projectID)
	})
}

// List handles GET /api/projects/:projectId/automation-playbooks
func (h *PlaybookHandler) List(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	HandleGetEnvelope(c, "playbooks", func() (interface{}, error) {
		return h.svcMgr.Playbooks.List(c.Request.Context(), project.ID)
	})
}

// Preview handles GET /api/projects/:projectId/automation-playbooks/:playbookKey/preview
func (h *PlaybookHandler) Preview(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	limit := QueryIntDefault(c, "limit", 50)
	HandleGetEnvelope(c, "items", func() (interface{}, error) {
		return h.svcMgr.Playbooks.Preview(c.Request.Context(), project.ID, c.Param("playbookKey"), limit)
	})
}

// Estimate handles POST /api/projects/:projectId/automation-playbooks/:playbookKey/estimate
func (h *PlaybookHandler) Estimate(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	HandleGetEnvelope(c, "estimate", func() (interface{}, error) {
		return h.svcMgr.Runs.Estimate(c.Request.Context(), project, c.Param("playbookKey"))
	})
}

// Apply handles POST /api/projects/:projectId/automation-playbooks/:playbookKey/apply
func (h *PlaybookHandler) Apply(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	user := GetUserFromContext(c)

	var req ApplyRequest
	if !BindJSON(c, &req) {
		return
	}

	run, err := h.svcMgr.Runs.Apply(c.Request.Context(), project, c.Param("playbookKey"), req.RulesHash, user.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		constants.FieldMessage: "Run queued",
		"run":                  run,
	})
}

// ListRuns handles GET /api/projects/:projectId/runs
func (h *PlaybookHandler) ListRuns(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	limit := QueryIntDefault(c, "limit", 50)
	HandleGetEnvelope(c, "runs", func() (interface{}, error) {
		return h.svcMgr.Runs.List(c.Request.Context(), project.ID, limit)
	})
}

// GetRun handles GET /api/projects/:projectId/runs/:runId
func (h *PlaybookHandler) GetRun(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	HandleGetEnvelope(c, "run", func() (interface{}, error) {
		return h.svcMgr.Runs.Get(c.Request.Context(), project.ID, c.Param("runId"))
	})
}

// CancelRun handles POST /api/projects/:projectId/runs/:runId/cancel
func (h *PlaybookHandler) CancelRun(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	run, err := h.svcMgr.Runs.Cancel(c.Request.Context(), project.ID, c.Param("runId"))
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Run canceled",
		"run":                  run,
	})
}
