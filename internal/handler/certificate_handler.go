package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/webcapz/campus-portal-api/internal/service"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
	"github.com/webcapz/campus-portal-api/pkg/response"
)

// CertificateHandler wires issuance, verification, and PDF download.
type CertificateHandler struct {
	certificates *service.CertificateService
}

// NewCertificateHandler creates a new handler.
func NewCertificateHandler(certificates *service.CertificateService) *CertificateHandler {
	return &CertificateHandler{certificates: certificates}
}

// Issue godoc
// @Summary Issue certificate
// @Description Issue a completion certificate for a student and course
// @Tags Certificates
// @Accept json
// @Produce json
// @Param payload body service.IssueCertificateRequest true "Certificate details"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /certificates [post]
func (h *CertificateHandler) Issue(c *gin.Context) {
	var req service.IssueCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid certificate payload"))
		return
	}

	cert, err := h.certificates.Issue(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, cert)
}

// List godoc
// @Summary List certificates
// @Tags Certificates
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /certificates [get]
func (h *CertificateHandler) List(c *gin.Context) {
	certs, err := h.certificates.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, certs, nil)
}

// ListMine godoc
// @Summary My certificates
// @Tags Certificates
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /certificates/me [get]
func (h *CertificateHandler) ListMine(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	certs, err := h.certificates.ListForStudent(c.Request.Context(), claims.UserID)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, certs, nil)
}

// Verify godoc
// @Summary Verify certificate
// @Description Public lookup of a certificate by its number
// @Tags Certificates
// @Produce json
// @Param number path string true "Certificate number"
// @Success 200 {object} response.Envelope
// @Router /verify/{number} [get]
func (h *CertificateHandler) Verify(c *gin.Context) {
	result, err := h.certificates.Verify(c.Request.Context(), c.Param("number"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, result, nil)
}

// DownloadPDF godoc
// @Summary Download certificate PDF
// @Tags Certificates
// @Produce application/pdf
// @Param id path string true "Certificate ID"
// @Success 200 {file} binary
// @Failure 404 {object} response.Envelope
// @Security BearerAuth
// @Router /certificates/{id}/pdf [get]
func (h *CertificateHandler) DownloadPDF(c *gin.Context) {
	data, filename, err := h.certificates.RenderPDF(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, "application/pdf", data)
}
