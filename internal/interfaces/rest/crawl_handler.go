package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/engineo/backend/internal/application/services"
	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/auth"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/errors"
)

type CrawlHandler struct {
	svcMgr *services.ServiceManager
}

func NewCrawlHandler(svcMgr *services.ServiceManager) *CrawlHandler {
	return &CrawlHandler{
		svcMgr: svcMgr,
	}
}

func (h *CrawlHandler) resolve(c *gin.Context) (*models.Project, bool) {
	return ResolveProject(c, func(user *auth.UserSession, projectID string) (*models.Project, error) {
		return h.svcMgr.Projects.Get(c.Request.Context(), user, projectID)
	})
}

// Crawl handles POST /api/projects/:projectId/crawl
func (h *CrawlHandler) Crawl(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	summary, err := h.svcMgr.Crawls.Crawl(c.Request.Context(), project.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Crawl completed",
		"summary":              summary,
	})
}

// ListResults handles GET /api/projects/:projectId/crawl/results
func (h *CrawlHandler) ListResults(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	scopeType := c.Query("scope_type")
	if scopeType != "" && !constants.IsValidScopeType(scopeType) {
		RespondAppError(c, errors.NewValidationError("scope_type", "unknown scope type: "+scopeType))
		return
	}
	limit := QueryIntDefault(c, "limit", 100)

	HandleGetEnvelope(c, "results", func() (interface{}, error) {
		return h.svcMgr.Crawls.LatestSnapshot(c.Request.Context(), project.ID, scopeType, limit)
	})
}

// Audit handles POST /api/projects/:projectId/audit, re-running detection
// rules over the stored snapshot without hitting the store
func (h *CrawlHandler) Audit(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	found, err := h.svcMgr.Crawls.Audit(c.Request.Context(), project.ID)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Audit completed",
		"issues_found":         found,
	})
}
