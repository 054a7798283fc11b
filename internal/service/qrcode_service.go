package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/webcapz/campus-portal-api/internal/models"
	"github.com/webcapz/campus-portal-api/internal/repository"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
)

type generalCodeAdminRepository interface {
	CreateCode(ctx context.Context, qr *models.GeneralQRCode) error
	ListCodes(ctx context.Context) ([]models.GeneralQRCode, error)
	FindCodeByID(ctx context.Context, id string) (*models.GeneralQRCode, error)
	SetCodeActive(ctx context.Context, id string, active bool) error
}

type generalCodeGenerator interface {
	GenerateGeneralCode() (string, error)
}

// CreateQRCodeRequest names a new general attendance code.
type CreateQRCodeRequest struct {
	Name        string  `json:"name" validate:"required"`
	Description *string `json:"description,omitempty"`
}

// QRCodeService manages the admin-owned general attendance codes. Codes are
// toggled inactive rather than deleted, so history keeps its references.
type QRCodeService struct {
	repo      generalCodeAdminRepository
	generator generalCodeGenerator
	validator *validator.Validate
	logger    *zap.Logger
}

// NewQRCodeService constructs the service.
func NewQRCodeService(repo generalCodeAdminRepository, generator generalCodeGenerator, validate *validator.Validate, logger *zap.Logger) *QRCodeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &QRCodeService{repo: repo, generator: generator, validator: validate, logger: logger}
}

// Create mints a new general code. The random value can collide with an
// existing code, so creation retries a few times on duplicates.
func (s *QRCodeService) Create(ctx context.Context, callerID string, req CreateQRCodeRequest) (*models.GeneralQRCode, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid qr code payload")
	}

	var lastErr error
	for attempt := 0; attempt < 3; attempt++ {
		value, err := s.generator.GenerateGeneralCode()
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to generate code")
		}

		qr := &models.GeneralQRCode{
			Code:        value,
			Name:        req.Name,
			Description: req.Description,
			IsActive:    true,
			CreatedBy:   &callerID,
		}
		if err := s.repo.CreateCode(ctx, qr); err != nil {
			if errors.Is(err, repository.ErrDuplicate) {
				lastErr = err
				continue
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store qr code")
		}

		s.logger.Info("general qr code created", zap.String("qr_code_id", qr.ID), zap.String("name", qr.Name))
		return qr, nil
	}

	return nil, appErrors.Wrap(lastErr, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mint a unique code")
}

// List returns all general codes, newest first.
func (s *QRCodeService) List(ctx context.Context) ([]models.GeneralQRCode, error) {
	codes, err := s.repo.ListCodes(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list qr codes")
	}
	return codes, nil
}

// SetActive toggles a code's active flag and returns the updated row.
func (s *QRCodeService) SetActive(ctx context.Context, id string, active bool) (*models.GeneralQRCode, error) {
	qr, err := s.repo.FindCodeByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "qr code not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load qr code")
	}

	if err := s.repo.SetCodeActive(ctx, qr.ID, active); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update qr code")
	}

	qr.IsActive = active
	return qr, nil
}
