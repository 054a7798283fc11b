package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webcapz/campus-portal-api/internal/models"
	"github.com/webcapz/campus-portal-api/internal/repository"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
)

type generalAttendanceRepository interface {
	FindOpenSession(ctx context.Context, userID string, date time.Time) (*models.GeneralAttendance, error)
	FindLatestForDate(ctx context.Context, userID string, date time.Time) (*models.GeneralAttendance, error)
	CreateCheckIn(ctx context.Context, session *models.GeneralAttendance) error
	SetCheckOut(ctx context.Context, id string, checkOut time.Time) error
}

type generalCodeValidator interface {
	ValidateGeneralCode(ctx context.Context, code string) (*models.GeneralQRCode, error)
}

// CheckInRequest carries the scanned general attendance code.
type CheckInRequest struct {
	Code string `json:"code" validate:"required"`
}

// Today's session status values.
const (
	SessionStatusNone       = "not_checked_in"
	SessionStatusCheckedIn  = "checked_in"
	SessionStatusCheckedOut = "checked_out"
)

// TodayStatus summarises the caller's general attendance for the current day.
type TodayStatus struct {
	Status        string                    `json:"status"`
	Session       *models.GeneralAttendance `json:"session,omitempty"`
	CanCheckOut   bool                      `json:"can_check_out"`
	RemainingWait string                    `json:"remaining_wait,omitempty"`
}

// GeneralAttendanceService runs the building-level check-in and check-out
// state machine. A user holds at most one open session per calendar day and
// may not close it before the minimum dwell has elapsed.
type GeneralAttendanceService struct {
	repo      generalAttendanceRepository
	codes     generalCodeValidator
	dwell     time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	nowFn     func() time.Time
}

// NewGeneralAttendanceService constructs the service.
func NewGeneralAttendanceService(repo generalAttendanceRepository, codes generalCodeValidator, dwell time.Duration, validate *validator.Validate, logger *zap.Logger) *GeneralAttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GeneralAttendanceService{
		repo:      repo,
		codes:     codes,
		dwell:     dwell,
		validator: validate,
		logger:    logger,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// CheckIn opens a session for the caller against a valid general code.
func (s *GeneralAttendanceService) CheckIn(ctx context.Context, userID string, role models.UserRole, req CheckInRequest) (*models.GeneralAttendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid check-in payload")
	}

	code, err := s.codes.ValidateGeneralCode(ctx, req.Code)
	if err != nil {
		return nil, err
	}

	now := s.nowFn()
	today := dateOnly(now)

	if _, err := s.repo.FindOpenSession(ctx, userID, today); err == nil {
		return nil, appErrors.Clone(appErrors.ErrAlreadyCheckedIn, "you already have an open session for today")
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up open session")
	}

	session := &models.GeneralAttendance{
		ID:             uuid.NewString(),
		QRCodeID:       code.ID,
		UserID:         userID,
		UserType:       role,
		AttendanceDate: today,
		CheckInTime:    now,
		CreatedAt:      now,
	}

	if err := s.repo.CreateCheckIn(ctx, session); err != nil {
		// A concurrent check-in can slip past the lookup; the partial unique
		// index turns it into a duplicate here.
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyCheckedIn, "you already have an open session for today")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-in")
	}

	s.logger.Info("general check-in recorded",
		zap.String("user_id", userID),
		zap.String("qr_code_id", code.ID),
	)

	return session, nil
}

// CheckOut closes the caller's open session for today. The session must have
// been open for at least the minimum dwell; an exact match passes.
func (s *GeneralAttendanceService) CheckOut(ctx context.Context, userID string) (*models.GeneralAttendance, error) {
	now := s.nowFn()
	today := dateOnly(now)

	session, err := s.repo.FindOpenSession(ctx, userID, today)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no open session for today")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up open session")
	}

	elapsed := now.Sub(session.CheckInTime)
	if elapsed < s.dwell {
		remaining := s.dwell - elapsed
		return nil, appErrors.Clone(appErrors.ErrCheckOutTooEarly,
			fmt.Sprintf("you can check out in %s", formatRemaining(remaining)))
	}

	if err := s.repo.SetCheckOut(ctx, session.ID, now); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			// The session was closed between the lookup and the update.
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no open session for today")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record check-out")
	}

	checkOut := now
	session.CheckOutTime = &checkOut

	s.logger.Info("general check-out recorded",
		zap.String("user_id", userID),
		zap.Duration("dwell", elapsed),
	)

	return session, nil
}

// Today reports the caller's current session state for the day.
func (s *GeneralAttendanceService) Today(ctx context.Context, userID string) (*TodayStatus, error) {
	now := s.nowFn()
	today := dateOnly(now)

	session, err := s.repo.FindLatestForDate(ctx, userID, today)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &TodayStatus{Status: SessionStatusNone}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up today's session")
	}

	if session.CheckOutTime != nil {
		return &TodayStatus{Status: SessionStatusCheckedOut, Session: session}, nil
	}

	status := &TodayStatus{Status: SessionStatusCheckedIn, Session: session}
	elapsed := now.Sub(session.CheckInTime)
	if elapsed >= s.dwell {
		status.CanCheckOut = true
	} else {
		status.RemainingWait = formatRemaining(s.dwell - elapsed)
	}
	return status, nil
}

func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func formatRemaining(d time.Duration) string {
	d = d.Round(time.Minute)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	if h > 0 {
		return fmt.Sprintf("%dh %dm", h, m)
	}
	return fmt.Sprintf("%dm", m)
}
