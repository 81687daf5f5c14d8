package rest

import (
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/auth"
	"github.com/engineo/backend/pkg/constants"
	"github.com/engineo/backend/pkg/errors"
)

// GetUserFromContext extracts the authenticated user from gin.Context
func GetUserFromContext(c *gin.Context) *auth.UserSession {
	userInterface, exists := c.Get(constants.ContextKeyUser)
	if !exists {
		return nil
	}
	user := userInterface.(auth.UserSession)
	return &user
}

// RespondAppError sends a standardised JSON error response using pkg/errors
func RespondAppError(c *gin.Context, err error) {
	code := errors.GetHTTPStatus(err)
	errorCode := errors.GetErrorCode(err)
	message := err.Error()

	if code >= 500 {
		log.Printf("❌ ERROR [%d] %s %s: %s", code, c.Request.Method, c.Request.URL.Path, message)
	}

	c.JSON(code, gin.H{
		constants.ResponseError: message,
		constants.FieldMessage:  message,
		"code":                  errorCode,
		"data":                  nil,
	})
}

// RespondError sends a plain error with an explicit status
func RespondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{
		constants.ResponseError: message,
		constants.FieldMessage:  message,
		"data":                  nil,
	})
}

// BindJSON binds JSON and returns true if successful. If failed, it sends bad request error.
func BindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		RespondAppError(c, errors.NewValidationError("body", err.Error()))
		return false
	}
	return true
}

// HandleGetEnvelope executes a read action and returns the result wrapped in a JSON key
// Response: { [key]: result }
func HandleGetEnvelope(c *gin.Context, key string, action func() (interface{}, error)) {
	result, err := action()
	if err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{key: result})
}

// HandleDeleteEnvelope executes a delete/side-effect action and returns a message
// Response: { message: successMsg }
func HandleDeleteEnvelope(c *gin.Context, successMsg string, action func() error) {
	if err := action(); err != nil {
		RespondAppError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{constants.FieldMessage: successMsg})
}

// QueryIntDefault reads an integer query parameter with a fallback
func QueryIntDefault(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return fallback
	}
	return n
}

// ResolveProject loads the project from the :projectId path parameter and
// enforces ownership. Every project-scoped handler goes through this.
func ResolveProject(c *gin.Context, getter func(user *auth.UserSession, projectID string) (*models.Project, error)) (*models.Project, bool) {
	user := GetUserFromContext(c)
	if user == nil {
		RespondError(c, http.StatusUnauthorized, "User not authenticated")
		return nil, false
	}

	project, err := getter(user, c.Param("projectId"))
	if err != nil {
		RespondAppError(c, err)
		return nil, false
	}
	return project, true
}
