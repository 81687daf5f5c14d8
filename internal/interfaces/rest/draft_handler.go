package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/engineo/backend/internal/application/services"
	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/auth"
	"github.com/engineo/backend/pkg/constants"
)

type DraftHandler struct {
	svcMgr *services.ServiceManager
}

func NewDraftHandler(svcMgr *services.ServiceManager) *DraftHandler {
	return &DraftHandler{
		svcMgr: svcMgr,
	}
}

func (h *DraftHandler) resolve(c *gin.Context) (*models.Project, bool) {
	return ResolveProject(c, func(user *auth.UserSession, projectID string) (*models.Project, error) {
		return h.svcMgr.Projects.Get(c.Request.Context(), user, projectID)
	})
}

// List handles GET /api/projects/:projectId/drafts
func (h *DraftHandler) List(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	limit := QueryIntDefault(c, "limit", 100)
	HandleGetEnvelope(c, "drafts", func() (interface{}, error) {
		return h.svcMgr.Drafts.List(c.Request.Context(), project.ID, c.Query("playbook_key"), c.Query("status"), limit)
	})
}

// Get handles GET /api/projects/:projectId/drafts/:draftId
func (h *DraftHandler) Get(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	HandleGetEnvelope(c, "draft", func() (interface{}, error) {
		return h.svcMgr.Drafts.Get(c.Request.Context(), project.ID, c.Param("draftId"))
	})
}

// Apply handles POST /api/projects/:projectId/drafts/:draftId/apply
func (h *DraftHandler) Apply(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	draft, err := h.svcMgr.Drafts.Apply(c.Request.Context(), project.ID, c.Param("draftId"))
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Draft applied",
		"draft":                draft,
	})
}

// Reject handles POST /api/projects/:projectId/drafts/:draftId/reject
func (h *DraftHandler) Reject(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	HandleDeleteEnvelope(c, "Draft rejected", func() error {
		return h.svcMgr.Drafts.Reject(c.Request.Context(), project.ID, c.Param("draftId"))
	})
}
