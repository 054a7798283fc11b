package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/webcapz/campus-portal-api/internal/service"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
	"github.com/webcapz/campus-portal-api/pkg/response"
)

// ReportHandler serves downloadable attendance exports.
type ReportHandler struct {
	reports *service.ReportService
}

// NewReportHandler creates a new handler.
func NewReportHandler(reports *service.ReportService) *ReportHandler {
	return &ReportHandler{reports: reports}
}

func reportDate(c *gin.Context) (time.Time, error) {
	raw := c.Query("date")
	if raw == "" {
		return time.Now().UTC(), nil
	}
	parsed, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD")
	}
	return parsed, nil
}

// GeneralAttendanceCSV godoc
// @Summary General attendance CSV
// @Description Download the day's general attendance as CSV
// @Tags Reports
// @Produce text/csv
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/general-attendance/csv [get]
func (h *ReportHandler) GeneralAttendanceCSV(c *gin.Context) {
	date, err := reportDate(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	data, filename, err := h.reports.GeneralAttendanceCSV(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "text/csv", data)
}

// GeneralAttendancePDF godoc
// @Summary General attendance PDF
// @Description Download the day's general attendance as PDF
// @Tags Reports
// @Produce application/pdf
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {file} binary
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /reports/general-attendance/pdf [get]
func (h *ReportHandler) GeneralAttendancePDF(c *gin.Context) {
	date, err := reportDate(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	data, filename, err := h.reports.GeneralAttendancePDF(c.Request.Context(), date)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
