package rest

import (
	"github.com/gin-gonic/gin"

	"github.com/engineo/backend/internal/application/services"
	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/auth"
)

type UsageHandler struct {
	svcMgr *services.ServiceManager
}

func NewUsageHandler(svcMgr *services.ServiceManager) *UsageHandler {
	return &UsageHandler{
		svcMgr: svcMgr,
	}
}

func (h *UsageHandler) resolve(c *gin.Context) (*models.Project, bool) {
	return ResolveProject(c, func(user *auth.UserSession, projectID string) (*models.Project, error) {
		return h.svcMgr.Projects.Get(c.Request.Context(), user, projectID)
	})
}

// Summary handles GET /api/ai/projects/:projectId/usage/summary
func (h *UsageHandler) Summary(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	HandleGetEnvelope(c, "summary", func() (interface{}, error) {
		return h.svcMgr.Usage.Summary(c.Request.Context(), project)
	})
}
