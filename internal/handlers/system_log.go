package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/runclub/backend/internal/middleware"
	"github.com/runclub/backend/internal/services"
	"github.com/runclub/backend/pkg/response"
	"gorm.io/gorm"
)

type SystemLogHandler struct {
	systemLogService *services.SystemLogService
}

func NewSystemLogHandler(db *gorm.DB) *SystemLogHandler {
	return &SystemLogHandler{
		systemLogService: services.NewSystemLogService(db),
	}
}

type activityQuery struct {
	Limit int `form:"limit" binding:"omitempty,min=1,max=100"`
}

// Activity returns the audited actions of the current user, newest first
// GET /api/user/activity
func (h *SystemLogHandler) Activity(c *gin.Context) {
	var q activityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "limit must be between 1 and 100")
		return
	}

	logs, err := h.systemLogService.RecentForUser(c.Request.Context(), middleware.GetUserID(c), q.Limit)
	if err != nil {
		apiError(c, err)
		return
	}
	response.Success(c, logs)
}
