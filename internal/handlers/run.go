package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/runclub/backend/internal/config"
	"github.com/runclub/backend/internal/middleware"
	"github.com/runclub/backend/internal/services"
	"github.com/runclub/backend/pkg/logger"
	"github.com/runclub/backend/pkg/response"
	"gorm.io/gorm"
)

const (
	msgRunCreated = "Run created successfully!"
	msgRunJoined  = "You joined the run successfully!"
	msgRunLeft    = "You left the run."
)

type RunHandler struct {
	runService *services.RunService
	loginPath  string
}

func NewRunHandler(db *gorm.DB, cfg *config.Config) *RunHandler {
	return &RunHandler{
		runService: services.NewRunService(db, cfg.App.Location()),
		loginPath:  cfg.Auth.LoginPath,
	}
}

type runIDRequest struct {
	RunID string `json:"runId" form:"runId"`
}

// ListingPage returns the data behind the runs listing page
// GET /runs-listing
func (h *RunHandler) ListingPage(c *gin.Context) {
	runs, err := h.runService.ListRuns(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		logger.FromContext(c).Error().Err(err).Msg("list runs failed")
		c.JSON(http.StatusInternalServerError, response.ActionResult{Error: services.GenericRetryMessage})
		return
	}

	var user interface{}
	if u := middleware.GetUser(c); u != nil {
		user = u
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs, "user": user})
}

// CreateAction handles the create-run form
// POST /runs/create
func (h *RunHandler) CreateAction(c *gin.Context) {
	var fields services.RunFields
	if err := c.ShouldBind(&fields); err != nil {
		response.ActionFail(c, http.StatusBadRequest, response.ActionResult{Error: "Invalid form submission"})
		return
	}

	run, err := h.runService.CreateRun(c.Request.Context(), middleware.GetUserID(c), &fields)
	if err != nil {
		h.failAction(c, err, &fields)
		return
	}

	logger.FromContext(c).Info().Str("run_id", run.ID).Uint("organizer_id", run.OrganizerID).Msg("run created")
	response.ActionOK(c, msgRunCreated, run.ID)
}

// JoinAction handles the join form
// POST /runs/join
func (h *RunHandler) JoinAction(c *gin.Context) {
	var req runIDRequest
	if err := c.ShouldBind(&req); err != nil {
		response.ActionFail(c, http.StatusBadRequest, response.ActionResult{Error: "Invalid form submission"})
		return
	}

	if err := h.runService.JoinRun(c.Request.Context(), middleware.GetUserID(c), req.RunID); err != nil {
		h.failAction(c, err, nil)
		return
	}
	response.ActionOK(c, msgRunJoined, "")
}

// LeaveAction handles the leave form
// POST /runs/leave
func (h *RunHandler) LeaveAction(c *gin.Context) {
	var req runIDRequest
	if err := c.ShouldBind(&req); err != nil {
		response.ActionFail(c, http.StatusBadRequest, response.ActionResult{Error: "Invalid form submission"})
		return
	}

	if err := h.runService.LeaveRun(c.Request.Context(), middleware.GetUserID(c), req.RunID); err != nil {
		h.failAction(c, err, nil)
		return
	}
	response.ActionOK(c, msgRunLeft, "")
}

func (h *RunHandler) failAction(c *gin.Context, err error, fields *services.RunFields) {
	if errors.Is(err, services.ErrUnauthenticated) {
		c.Redirect(http.StatusFound, h.loginPath)
		return
	}

	var verr *services.ValidationError
	if errors.As(err, &verr) {
		result := response.ActionResult{
			Error: verr.First().Message,
			Field: verr.First().Field,
		}
		if fields != nil {
			result.ValidationErrors = verr.Errors
			result.Values = fields.Echo()
		}
		response.ActionFail(c, http.StatusBadRequest, result)
		return
	}

	if status, msg, ok := runErrorStatus(err); ok {
		response.ActionFail(c, status, response.ActionResult{Error: msg})
		return
	}

	logger.FromContext(c).Error().Err(err).Msg("run action failed")
	result := response.ActionResult{Error: services.GenericRetryMessage}
	if fields != nil {
		result.Values = fields.Echo()
	}
	response.ActionFail(c, http.StatusInternalServerError, result)
}

// runErrorStatus maps workflow sentinels to a status and display message.
func runErrorStatus(err error) (int, string, bool) {
	switch {
	case errors.Is(err, services.ErrRunNotFound):
		return http.StatusNotFound, "Run not found", true
	case errors.Is(err, services.ErrRunFull):
		return http.StatusBadRequest, "This run is full", true
	case errors.Is(err, services.ErrAlreadyJoined):
		return http.StatusBadRequest, "You have already joined this run", true
	case errors.Is(err, services.ErrRunInPast):
		return http.StatusBadRequest, "Cannot join a run that has already started", true
	case errors.Is(err, services.ErrUnauthenticated):
		return http.StatusUnauthorized, "Not authenticated", true
	}
	return 0, "", false
}

// apiError writes err in the API envelope.
func apiError(c *gin.Context, err error) {
	var verr *services.ValidationError
	if errors.As(err, &verr) {
		data := gin.H{"field": verr.First().Field, "validationErrors": verr.Errors}
		if verr.Values != nil {
			data["values"] = verr.Values.Echo()
		}
		c.JSON(http.StatusBadRequest, response.Response{
			Code:    400,
			Message: verr.First().Message,
			Data:    data,
		})
		return
	}
	if status, msg, ok := runErrorStatus(err); ok {
		c.JSON(status, response.Response{Code: status, Message: msg})
		return
	}
	logger.FromContext(c).Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	var perr *services.PersistenceError
	if errors.As(err, &perr) && perr.Values != nil {
		c.JSON(http.StatusInternalServerError, response.Response{
			Code:    500,
			Message: services.GenericRetryMessage,
			Data:    gin.H{"values": perr.Values.Echo()},
		})
		return
	}
	response.ServerError(c, services.GenericRetryMessage)
}

// ListRuns returns all runs
// GET /api/runs
func (h *RunHandler) ListRuns(c *gin.Context) {
	runs, err := h.runService.ListRuns(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		apiError(c, err)
		return
	}
	response.Success(c, runs)
}

// GetRun returns one run
// GET /api/runs/:id
func (h *RunHandler) GetRun(c *gin.Context) {
	run, err := h.runService.GetRun(c.Request.Context(), middleware.GetUserID(c), c.Param("id"))
	if err != nil {
		apiError(c, err)
		return
	}
	response.Success(c, run)
}

// CreateRun creates a run from a JSON body
// POST /api/runs
func (h *RunHandler) CreateRun(c *gin.Context) {
	var fields services.RunFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}

	run, err := h.runService.CreateRun(c.Request.Context(), middleware.GetUserID(c), &fields)
	if err != nil {
		apiError(c, err)
		return
	}

	view, err := h.runService.GetRun(c.Request.Context(), middleware.GetUserID(c), run.ID)
	if err != nil {
		apiError(c, err)
		return
	}
	response.Created(c, view)
}

// JoinRun adds the current user to a run
// POST /api/runs/:id/join
func (h *RunHandler) JoinRun(c *gin.Context) {
	if err := h.runService.JoinRun(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		apiError(c, err)
		return
	}
	response.Success(c, gin.H{"message": msgRunJoined})
}

// LeaveRun removes the current user from a run
// POST /api/runs/:id/leave
func (h *RunHandler) LeaveRun(c *gin.Context) {
	if err := h.runService.LeaveRun(c.Request.Context(), middleware.GetUserID(c), c.Param("id")); err != nil {
		apiError(c, err)
		return
	}
	response.Success(c, gin.H{"message": msgRunLeft})
}
