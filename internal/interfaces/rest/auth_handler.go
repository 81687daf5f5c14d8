package rest

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/engineo/backend/internal/application/services"
	"github.com/engineo/backend/pkg/auth"
	"github.com/engineo/backend/pkg/constants"
)

type AuthHandler struct {
	svcMgr *services.ServiceManager
}

func NewAuthHandler(svcMgr *services.ServiceManager) *AuthHandler {
	return &AuthHandler{
		svcMgr: svcMgr,
	}
}

// RegisterRequest represents the signup request body
type RegisterRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest represents login request body
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// ChangePasswordRequest represents the password change body
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required"`
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if !BindJSON(c, &req) {
		return
	}

	user, err := h.svcMgr.Auth.Register(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Account created",
		"user":                 user,
	})
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if !BindJSON(c, &req) {
		return
	}

	if !auth.IsValidEmail(req.Email) {
		RespondError(c, http.StatusBadRequest, "Invalid email format")
		return
	}

	result, err := h.svcMgr.Auth.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP(), c.Request.UserAgent())
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"token":      result.Token,
		"user":       result.User,
		"expires_at": result.ExpiresAt.Format(time.RFC3339),
	})
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	tokenString, exists := c.Get(constants.ContextKeyToken)
	if !exists {
		RespondError(c, http.StatusUnauthorized, "No token provided")
		return
	}

	HandleDeleteEnvelope(c, "Logged out successfully", func() error {
		return h.svcMgr.Auth.Logout(c.Request.Context(), tokenString.(string))
	})
}

// GetMe handles GET /api/auth/me
func (h *AuthHandler) GetMe(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondError(c, http.StatusUnauthorized, "User not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": user})
}

// ChangePassword handles POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondError(c, http.StatusUnauthorized, "User not found")
		return
	}

	var req ChangePasswordRequest
	if !BindJSON(c, &req) {
		return
	}

	HandleDeleteEnvelope(c, "Password updated", func() error {
		return h.svcMgr.Auth.ChangePassword(c.Request.Context(), user.ID, req.CurrentPassword, req.NewPassword)
	})
}
