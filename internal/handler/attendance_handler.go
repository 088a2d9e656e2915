package handler

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tripsync/tripsync-api/internal/models"
	"github.com/tripsync/tripsync-api/internal/realtime"
	"github.com/tripsync/tripsync-api/internal/service"
	appErrors "github.com/tripsync/tripsync-api/pkg/errors"
	"github.com/tripsync/tripsync-api/pkg/response"
)

// AttendanceHandler manages travel plan submissions and the live stream.
type AttendanceHandler struct {
	attendance *service.AttendanceService
	users      *service.UserService
	hub        *realtime.Hub
}

// NewAttendanceHandler constructs the handler. hub may be nil when live
// updates are disabled.
func NewAttendanceHandler(attendance *service.AttendanceService, users *service.UserService, hub *realtime.Hub) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance, users: users, hub: hub}
}

// Upsert godoc
// @Summary Submit or replace the caller's travel plan for an event
// @Tags attendance
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path string true "Event ID"
// @Param payload body service.UpsertScheduleRequest true "Travel plan"
// @Success 200 {object} response.Envelope{data=models.AttendanceRecord}
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /events/{id}/attendance [put]
func (h *AttendanceHandler) Upsert(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.UpsertScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid request body"))
		return
	}
	record, err := h.attendance.Upsert(c.Request.Context(), c.Param("id"), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// Get godoc
// @Summary Fetch the caller's own travel plan for an event
// @Tags attendance
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope{data=models.AttendanceRecord}
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/attendance/me [get]
func (h *AttendanceHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	record, err := h.attendance.Get(c.Request.Context(), c.Param("id"), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, record, nil)
}

// List godoc
// @Summary List every travel plan for an event
// @Tags attendance
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 200 {object} response.Envelope{data=[]models.AttendanceEntry}
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/attendance [get]
func (h *AttendanceHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	entries, err := h.attendance.List(c.Request.Context(), c.Param("id"), h.users)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, entries, nil)
}

// Delete godoc
// @Summary Withdraw the caller's travel plan for an event
// @Tags attendance
// @Security BearerAuth
// @Produce json
// @Param id path string true "Event ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/attendance [delete]
func (h *AttendanceHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if err := h.attendance.Delete(c.Request.Context(), c.Param("id"), claims.UserID); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Stream godoc
// @Summary Live attendance snapshots over server-sent events
// @Description Emits the current attendance set immediately, then a fresh
// @Description snapshot whenever a travel plan changes.
// @Tags attendance
// @Security BearerAuth
// @Produce text/event-stream
// @Param id path string true "Event ID"
// @Success 200 {string} string "SSE stream"
// @Failure 404 {object} response.Envelope
// @Router /events/{id}/attendance/stream [get]
func (h *AttendanceHandler) Stream(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	if h.hub == nil {
		response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "live updates are disabled"))
		return
	}

	snapshots, unsubscribe, err := h.hub.Subscribe(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer unsubscribe()

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")

	c.Stream(func(w io.Writer) bool {
		select {
		case <-c.Request.Context().Done():
			return false
		case snapshot, ok := <-snapshots:
			if !ok {
				return false
			}
			c.SSEvent("attendance", encodeSnapshot(snapshot))
			return true
		}
	})
}

func encodeSnapshot(entries []models.AttendanceEntry) string {
	if entries == nil {
		entries = []models.AttendanceEntry{}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return "[]"
	}
	return string(payload)
}
