package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/engineo/backend/internal/application/services"
	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/auth"
	"github.com/engineo/backend/pkg/constants"
)

type IntegrationHandler struct {
	svcMgr *services.ServiceManager
}

func NewIntegrationHandler(svcMgr *services.ServiceManager) *IntegrationHandler {
	return &IntegrationHandler{
		svcMgr: svcMgr,
	}
}

// ConnectRequest represents the Shopify connection body
type ConnectRequest struct {
	ShopDomain  string `json:"shop_domain" binding:"required"`
	AccessToken string `json:"access_token" binding:"required"`
}

func (h *IntegrationHandler) resolve(c *gin.Context) (*models.Project, bool) {
	return ResolveProject(c, func(user *auth.UserSession, projectID string) (*models.Project, error) {
		return h.svcMgr.Projects.Get(c.Request.Context(), user, projectID)
	})
}

// Connect handles POST /api/projects/:projectId/integrations/shopify
func (h *IntegrationHandler) Connect(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	var req ConnectRequest
	if !BindJSON(c, &req) {
		return
	}

	integration, err := h.svcMgr.Integrations.Connect(c.Request.Context(), project.ID, req.ShopDomain, req.AccessToken)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Shop connected",
		"integration":          integration,
	})
}

// Get handles GET /api/projects/:projectId/integrations/shopify
func (h *IntegrationHandler) Get(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	HandleGetEnvelope(c, "integration", func() (interface{}, error) {
		return h.svcMgr.Integrations.Get(c.Request.Context(), project.ID)
	})
}

// Disconnect handles DELETE /api/projects/:projectId/integrations/shopify
func (h *IntegrationHandler) Disconnect(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	HandleDeleteEnvelope(c, "Shop disconnected", func() error {
		return h.svcMgr.Integrations.Disconnect(c.Request.Context(), project.ID)
	})
}
