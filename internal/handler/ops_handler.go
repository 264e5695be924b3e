package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/lms-recur/internal/models"
	"github.com/noah-isme/lms-recur/internal/service"
	appErrors "github.com/noah-isme/lms-recur/pkg/errors"
	"github.com/noah-isme/lms-recur/pkg/response"
)

type cycleRunner interface {
	Run(ctx context.Context) (*models.CycleSummary, error)
	Latest() *models.CycleSummary
}

type settingsManager interface {
	Save(ctx context.Context, form service.SettingsForm) (*models.RecurringSetting, error)
}

type settingReader interface {
	FindByCourseID(ctx context.Context, courseID int64) (*models.RecurringSetting, error)
}

// OpsHandler exposes the internal operator endpoints.
type OpsHandler struct {
	cycles   cycleRunner
	settings settingsManager
	store    settingReader
}

// NewOpsHandler builds a new handler.
func NewOpsHandler(cycles cycleRunner, settings settingsManager, store settingReader) *OpsHandler {
	return &OpsHandler{cycles: cycles, settings: settings, store: store}
}

// TriggerCycle runs one batch cycle synchronously and returns its summary.
func (h *OpsHandler) TriggerCycle(c *gin.Context) {
	summary, err := h.cycles.Run(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// LatestCycle returns the summary of the most recent cycle, if any ran.
func (h *OpsHandler) LatestCycle(c *gin.Context) {
	summary := h.cycles.Latest()
	if summary == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "no cycle has run yet"))
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// GetSettings returns the recurrence settings row for a course.
func (h *OpsHandler) GetSettings(c *gin.Context) {
	courseID, err := strconv.ParseInt(c.Param("courseID"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}
	setting, err := h.store.FindByCourseID(c.Request.Context(), courseID)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "settings not found"))
		return
	}
	response.JSON(c, http.StatusOK, setting, nil)
}

// SaveSettings upserts the recurrence settings for a course from form values.
func (h *OpsHandler) SaveSettings(c *gin.Context) {
	courseID, err := strconv.ParseInt(c.Param("courseID"), 10, 64)
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid course id"))
		return
	}

	var form service.SettingsForm
	if err := c.ShouldBindJSON(&form); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid settings payload"))
		return
	}
	if form.CourseID == 0 {
		form.CourseID = courseID
	}
	if form.CourseID != courseID {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "course id mismatch between path and body"))
		return
	}

	setting, err := h.settings.Save(c.Request.Context(), form)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, setting, nil)
}
