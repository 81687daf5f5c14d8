package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/engineo/backend/internal/application/services"
	"github.com/engineo/backend/internal/domain/models"
	"github.com/engineo/backend/pkg/auth"
	"github.com/engineo/backend/pkg/constants"
)

type ScheduleHandler struct {
	svcMgr *services.ServiceManager
}

func NewScheduleHandler(svcMgr *services.ServiceManager) *ScheduleHandler {
	return &ScheduleHandler{
		svcMgr: svcMgr,
	}
}

// CreateScheduleRequest represents the scheduled task creation body
type CreateScheduleRequest struct {
	TaskType    string `json:"task_type" binding:"required"`
	PlaybookKey string `json:"playbook_key"`
	CronExpr    string `json:"cron_expr" binding:"required"`
	Timezone    string `json:"timezone"`
}

func (h *ScheduleHandler) resolve(c *gin.Context) (*models.Project, bool) {
	return ResolveProject(c, func(user *auth.UserSession, projectID string) (*models.Project, error) {
		return h.svcMgr.Projects.Get(c.Request.Context(), user, projectID)
	})
}

// Create handles POST /api/projects/:projectId/schedules
func (h *ScheduleHandler) Create(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	var req CreateScheduleRequest
	if !BindJSON(c, &req) {
		return
	}

	task, err := h.svcMgr.Scheduler.CreateTask(c.Request.Context(), project.ID, req.TaskType, req.PlaybookKey, req.CronExpr, req.Timezone)
	if err != nil {
		RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		constants.FieldMessage: "Schedule created",
		"schedule":             task,
	})
}

// List handles GET /api/projects/:projectId/schedules
func (h *ScheduleHandler) List(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	HandleGetEnvelope(c, "schedules", func() (interface{}, error) {
		return h.svcMgr.Scheduler.ListTasks(c.Request.Context(), project.ID)
	})
}

// Delete handles DELETE /api/projects/:projectId/schedules/:scheduleId
func (h *ScheduleHandler) Delete(c *gin.Context) {
	project, ok := h.resolve(c)
	if !ok {
		return
	}

	HandleDeleteEnvelope(c, "Schedule deleted", func() error {
		return h.svcMgr.Scheduler.DeleteTask(c.Request.Context(), project.ID, c.Param("scheduleId"))
	})
}
