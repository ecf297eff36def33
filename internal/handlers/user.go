package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/runclub/backend/internal/config"
	"github.com/runclub/backend/internal/middleware"
	"github.com/runclub/backend/internal/models"
	"github.com/runclub/backend/internal/services"
	"github.com/runclub/backend/pkg/logger"
	"github.com/runclub/backend/pkg/response"
	"gorm.io/gorm"
)

type UserHandler struct {
	runService *services.RunService
	logService *services.SystemLogService
}

func NewUserHandler(db *gorm.DB, cfg *config.Config) *UserHandler {
	return &UserHandler{
		runService: services.NewRunService(db, cfg.App.Location()),
		logService: services.NewSystemLogService(db),
	}
}

// StatusInfo describes where a member stands in the status tiers.
type StatusInfo struct {
	RunCount      int                `json:"runCount"`
	Status        models.UserStatus  `json:"status"`
	Next          *models.UserStatus `json:"nextStatus,omitempty"`
	RunsUntilNext int                `json:"runsUntilNext,omitempty"`
}

func statusInfo(u *models.User) StatusInfo {
	info := StatusInfo{RunCount: u.RunCount, Status: u.Status()}
	if next, ok := models.NextUserStatus(u.RunCount); ok {
		info.Next = &next
		info.RunsUntilNext = next.MinRuns - u.RunCount
	}
	return info
}

// Dashboard returns the signed-in user's runs and status
// GET /dashboard
func (h *UserHandler) Dashboard(c *gin.Context) {
	user := middleware.GetUser(c)
	runs, err := h.runService.ListUserRuns(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		logger.FromContext(c).Error().Err(err).Msg("load dashboard failed")
		c.JSON(http.StatusInternalServerError, response.ActionResult{Error: services.GenericRetryMessage})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"user":   user,
		"status": statusInfo(user),
		"runs":   runs,
	})
}

// Profile returns the signed-in user with status and recent activity
// GET /profile
func (h *UserHandler) Profile(c *gin.Context) {
	user := middleware.GetUser(c)
	activity, err := h.logService.RecentForUser(c.Request.Context(), user.ID, 10)
	if err != nil {
		logger.FromContext(c).Warn().Err(err).Msg("load recent activity failed")
		activity = []models.SystemLog{}
	}

	c.JSON(http.StatusOK, gin.H{
		"user":           user,
		"status":         statusInfo(user),
		"recentActivity": activity,
	})
}

// UserRuns returns the runs the user organizes and participates in
// GET /api/user/runs
func (h *UserHandler) UserRuns(c *gin.Context) {
	runs, err := h.runService.ListUserRuns(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		apiError(c, err)
		return
	}
	response.Success(c, runs)
}

// Status returns the user's status tier
// GET /api/user/status
func (h *UserHandler) Status(c *gin.Context) {
	response.Success(c, statusInfo(middleware.GetUser(c)))
}

// Statuses lists every status tier
// GET /api/user/statuses
func (h *UserHandler) Statuses(c *gin.Context) {
	response.Success(c, models.UserStatuses)
}
