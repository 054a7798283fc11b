package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webcapz/campus-portal-api/internal/service"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
	"github.com/webcapz/campus-portal-api/pkg/response"
)

// QRCodeHandler manages the site-wide QR codes used for general check-in.
type QRCodeHandler struct {
	codes *service.QRCodeService
}

// NewQRCodeHandler creates a new handler.
func NewQRCodeHandler(codes *service.QRCodeService) *QRCodeHandler {
	return &QRCodeHandler{codes: codes}
}

// Create godoc
// @Summary Create QR code
// @Description Mint a new site QR code for general attendance
// @Tags QRCodes
// @Accept json
// @Produce json
// @Param payload body service.CreateQRCodeRequest true "Code details"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Security BearerAuth
// @Router /qr-codes [post]
func (h *QRCodeHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	var req service.CreateQRCodeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid QR code payload"))
		return
	}

	code, err := h.codes.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, code)
}

// List godoc
// @Summary List QR codes
// @Tags QRCodes
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /qr-codes [get]
func (h *QRCodeHandler) List(c *gin.Context) {
	codes, err := h.codes.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, codes, nil)
}

type setActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetActive godoc
// @Summary Activate or retire a QR code
// @Tags QRCodes
// @Accept json
// @Produce json
// @Param id path string true "QR code ID"
// @Param payload body setActiveRequest true "Desired state"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /qr-codes/{id}/active [patch]
func (h *QRCodeHandler) SetActive(c *gin.Context) {
	var req setActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "is_active is required"))
		return
	}

	code, err := h.codes.SetActive(c.Request.Context(), c.Param("id"), *req.IsActive)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, code, nil)
}
