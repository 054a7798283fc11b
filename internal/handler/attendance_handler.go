package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/webcapz/campus-portal-api/internal/service"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
	"github.com/webcapz/campus-portal-api/pkg/response"
)

// AttendanceHandler wires the per-course attendance endpoints.
type AttendanceHandler struct {
	attendance *service.CourseAttendanceService
}

// NewAttendanceHandler creates a new handler.
func NewAttendanceHandler(attendance *service.CourseAttendanceService) *AttendanceHandler {
	return &AttendanceHandler{attendance: attendance}
}

// Scan godoc
// @Summary Mark course attendance
// @Description Mark the calling student present from a scanned course code
// @Tags Attendance
// @Accept json
// @Produce json
// @Param payload body service.MarkAttendanceRequest true "Scanned code"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/scan [post]
func (h *AttendanceHandler) Scan(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.MarkAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid attendance payload"))
		return
	}

	record, err := h.attendance.MarkByCode(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, record)
}

// GenerateCode godoc
// @Summary Generate course attendance code
// @Description Generate a fresh attendance code for a course
// @Tags Attendance
// @Produce json
// @Param id path string true "Course ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/attendance-code [post]
func (h *AttendanceHandler) GenerateCode(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	code, err := h.attendance.GenerateCode(c.Request.Context(), claims.UserID, claims.Role, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"code": code}, nil)
}

// ListMine godoc
// @Summary My attendance
// @Description List the calling student's attendance history
// @Tags Attendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /attendance/me [get]
func (h *AttendanceHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	records, err := h.attendance.ListForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, records, nil)
}

// ListForCourse godoc
// @Summary Course attendance for a day
// @Tags Attendance
// @Produce json
// @Param id path string true "Course ID"
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /courses/{id}/attendance [get]
func (h *AttendanceHandler) ListForCourse(c *gin.Context) {
	date := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		date = parsed
	}

	records, err := h.attendance.ListForCourse(c.Request.Context(), c.Param("id"), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, records, nil)
}
