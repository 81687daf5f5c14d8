package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/engineo/backend/internal/application/services"
	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/auth"
	"github.com/engineo/backend/pkg/constants"
)

type ProjectHandler struct {
	svcMgr *services.ServiceManager
}

func NewProjectHandler(svcMgr *services.ServiceManager) *ProjectHandler {
	return &ProjectHandler{
		svcMgr: svcMgr,
	}
}

// CreateProjectRequest represents the project creation body
type CreateProjectRequest struct {
	Name       string `json:"name" binding:"required"`
	ShopDomain string `json:"shop_domain" binding:"required"`
}

// UpdateProjectRequest represents the project update body
type UpdateProjectRequest struct {
	Name string `json:"name"`
	Plan string `json:"plan"`
}

func (h *ProjectHandler) resolve(c *gin.Context) (*models.Project, bool) {
	return ResolveProject(c, func(user *auth.UserSession, projectID string) (*models.Project, error) {
		return h.svcMgr.Projects.Get(c.Request.Context(), user, projectID)
	})
}

// Create handles POST /api/projects
func (h *ProjectHandler) Create(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var req CreateProjectRequest
	if !BindJSON(c, &req) {
		return
	}

	project, err := h.svcMgr.Projects.Create(c.Request.Context(), user, req.Name, req.ShopDomain)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Project created",
		"project":              project,
	})
}

// List handles GET /api/projects
func (h *ProjectHandler) List(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondError(c, http.StatusUnauthorized, "User not found")
		return
	}

	HandleGetEnvelope(c, "projects", func() (interface{}, error) {
		return h.svcMgr.Projects.List(c.Request.Context(), user)
	})
}

// Get handles GET /api/projects/:projectId
func (h *ProjectHandler) Get(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"project": project})
}

// Update handles PATCH /api/projects/:projectId
func (h *ProjectHandler) Update(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var req UpdateProjectRequest
	if !BindJSON(c, &req) {
		return
	}

	project, err := h.svcMgr.Projects.Update(c.Request.Context(), user, c.Param("projectId"), req.Name, req.Plan)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		constants.FieldMessage: "Project updated",
		"project":              project,
	})
}

// Delete handles DELETE /api/projects/:projectId
func (h *ProjectHandler) Delete(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondError(c, http.StatusUnauthorized, "User not found")
		return
	}

	HandleDeleteEnvelope(c, "Project deleted", func() error {
		return h.svcMgr.Projects.Delete(c.Request.Context(), user, c.Param("projectId"))
	})
}
