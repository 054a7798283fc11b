package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webcapz/campus-portal-api/internal/service"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
	"github.com/webcapz/campus-portal-api/pkg/response"
)

// GeneralAttendanceHandler wires the building-wide check-in endpoints.
type GeneralAttendanceHandler struct {
	sessions *service.GeneralAttendanceService
}

// NewGeneralAttendanceHandler creates a new handler.
func NewGeneralAttendanceHandler(sessions *service.GeneralAttendanceService) *GeneralAttendanceHandler {
	return &GeneralAttendanceHandler{sessions: sessions}
}

// CheckIn godoc
// @Summary Check in
// @Description Open a general attendance session from a scanned site code
// @Tags GeneralAttendance
// @Accept json
// @Produce json
// @Param payload body service.CheckInRequest true "Scanned code"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 410 {object} response.Envelope
// @Security BearerAuth
// @Router /general-attendance/check-in [post]
func (h *GeneralAttendanceHandler) CheckIn(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CheckInRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid check-in payload"))
		return
	}

	session, err := h.sessions.CheckIn(c.Request.Context(), claims.UserID, claims.Role, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, session)
}

// CheckOut godoc
// @Summary Check out
// @Description Close the caller's open session once the minimum stay has elapsed
// @Tags GeneralAttendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 412 {object} response.Envelope
// @Security BearerAuth
// @Router /general-attendance/check-out [post]
func (h *GeneralAttendanceHandler) CheckOut(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	session, err := h.sessions.CheckOut(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, session, nil)
}

// Today godoc
// @Summary Today's session state
// @Description Report whether the caller is checked in, checked out, or neither
// @Tags GeneralAttendance
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /general-attendance/today [get]
func (h *GeneralAttendanceHandler) Today(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	status, err := h.sessions.Today(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, status, nil)
}
