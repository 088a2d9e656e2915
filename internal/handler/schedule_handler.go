package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripsync/tripsync-api/internal/service"
	appErrors "github.com/tripsync/tripsync-api/pkg/errors"
	"github.com/tripsync/tripsync-api/pkg/response"
)

// ScheduleHandler serves the bucketed day-by-day schedule and its exports.
type ScheduleHandler struct {
	schedule *service.ScheduleService
	exports  *service.ExportService
}

// NewScheduleHandler constructs the handler. exports may be nil when the
// export feature is disabled.
func NewScheduleHandler(schedule *service.ScheduleService, exports *service.ExportService) *ScheduleHandler {
	return &ScheduleHandler{schedule: schedule, exports: exports}
}

// Get godoc
// @Summary Day-by-day arrival and departure schedule for an event
// @Description Buckets cover the event span plus one travel day on each side.
// @Tags schedule
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope{data=[]models.DayBucket}
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/schedule [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	buckets, err := h.schedule.DayBuckets(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, buckets, nil)
}

// Export godoc
// @Summary Download the schedule as CSV or PDF
// @Tags schedule
// @Security BearerAuth
// @Produce application/octet-stream
// @Param id path string true "Event ID"
// @Param format query string true "Export format" Enums(csv, pdf)
// @Success 200 {file} file "Rendered document"
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/schedule/export [get]
func (h *ScheduleHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if h.exports == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "exports are disabled"))
		return
	}
	format := service.ExportFormat(c.DefaultQuery("format", "csv"))
	result, err := h.exports.Schedule(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.FileName+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Content)
}
