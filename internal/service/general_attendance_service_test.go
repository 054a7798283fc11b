package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webcapz/campus-portal-api/internal/models"
	"github.com/webcapz/campus-portal-api/internal/repository"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
)

type mockSessionRepo struct {
	open       map[string]*models.GeneralAttendance
	latest     map[string]*models.GeneralAttendance
	created    *models.GeneralAttendance
	createErr  error
	checkedOut []string
}

func (m *mockSessionRepo) FindOpenSession(ctx context.Context, userID string, date time.Time) (*models.GeneralAttendance, error) {
	if s, ok := m.open[userID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) FindLatestForDate(ctx context.Context, userID string, date time.Time) (*models.GeneralAttendance, error) {
	if s, ok := m.latest[userID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockSessionRepo) CreateCheckIn(ctx context.Context, session *models.GeneralAttendance) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = session
	return nil
}

func (m *mockSessionRepo) SetCheckOut(ctx context.Context, id string, checkOut time.Time) error {
	m.checkedOut = append(m.checkedOut, id)
	return nil
}

type mockSessionCodes struct {
	code *models.GeneralQRCode
	err  error
}

func (m *mockSessionCodes) ValidateGeneralCode(ctx context.Context, code string) (*models.GeneralQRCode, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.code, nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestGeneralAttendanceCheckIn(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	repo := &mockSessionRepo{}
	codes := &mockSessionCodes{code: &models.GeneralQRCode{ID: "q1", IsActive: true}}
	svc := NewGeneralAttendanceService(repo, codes, 3*time.Hour, validator.New(), zap.NewNop())
	svc.nowFn = fixedClock(now)

	session, err := svc.CheckIn(context.Background(), "u1", models.RoleStaff, CheckInRequest{Code: "WEBCAPZ-GEN-AAAA1111"})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "q1", session.QRCodeID)
	assert.Equal(t, models.RoleStaff, session.UserType)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), session.AttendanceDate)
	assert.Nil(t, session.CheckOutTime)
}

func TestGeneralAttendanceCheckInRejectsOpenSession(t *testing.T) {
	now := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	repo := &mockSessionRepo{open: map[string]*models.GeneralAttendance{
		"u1": {ID: "s1", UserID: "u1", CheckInTime: now.Add(-time.Hour)},
	}}
	codes := &mockSessionCodes{code: &models.GeneralQRCode{ID: "q1", IsActive: true}}
	svc := NewGeneralAttendanceService(repo, codes, 3*time.Hour, validator.New(), zap.NewNop())
	svc.nowFn = fixedClock(now)

	_, err := svc.CheckIn(context.Background(), "u1", models.RoleStaff, CheckInRequest{Code: "WEBCAPZ-GEN-AAAA1111"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyCheckedIn.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestGeneralAttendanceCheckInDuplicateRace(t *testing.T) {
	repo := &mockSessionRepo{createErr: fmt.Errorf("create check-in: %w", repository.ErrDuplicate)}
	codes := &mockSessionCodes{code: &models.GeneralQRCode{ID: "q1", IsActive: true}}
	svc := NewGeneralAttendanceService(repo, codes, 3*time.Hour, validator.New(), zap.NewNop())

	_, err := svc.CheckIn(context.Background(), "u1", models.RoleStudent, CheckInRequest{Code: "WEBCAPZ-GEN-AAAA1111"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyCheckedIn.Code, appErrors.FromError(err).Code)
}

func TestGeneralAttendanceCheckInPropagatesCodeErrors(t *testing.T) {
	repo := &mockSessionRepo{}
	codes := &mockSessionCodes{err: appErrors.Clone(appErrors.ErrInactiveCode, "general attendance code has been deactivated")}
	svc := NewGeneralAttendanceService(repo, codes, 3*time.Hour, validator.New(), zap.NewNop())

	_, err := svc.CheckIn(context.Background(), "u1", models.RoleStaff, CheckInRequest{Code: "WEBCAPZ-GEN-BBBB2222"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInactiveCode.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestGeneralAttendanceCheckOutAtExactDwell(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	repo := &mockSessionRepo{open: map[string]*models.GeneralAttendance{
		"u1": {ID: "s1", UserID: "u1", CheckInTime: now.Add(-3 * time.Hour)},
	}}
	svc := NewGeneralAttendanceService(repo, &mockSessionCodes{}, 3*time.Hour, validator.New(), zap.NewNop())
	svc.nowFn = fixedClock(now)

	session, err := svc.CheckOut(context.Background(), "u1")
	require.NoError(t, err)
	require.NotNil(t, session.CheckOutTime)
	assert.Equal(t, now, *session.CheckOutTime)
	assert.Contains(t, repo.checkedOut, "s1")
}

func TestGeneralAttendanceCheckOutTooEarly(t *testing.T) {
	now := time.Date(2026, 8, 31, 12, 0, 0, 0, time.UTC)
	repo := &mockSessionRepo{open: map[string]*models.GeneralAttendance{
		"u1": {ID: "s1", UserID: "u1", CheckInTime: now.Add(-90 * time.Minute)},
	}}
	svc := NewGeneralAttendanceService(repo, &mockSessionCodes{}, 3*time.Hour, validator.New(), zap.NewNop())
	svc.nowFn = fixedClock(now)

	_, err := svc.CheckOut(context.Background(), "u1")
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrCheckOutTooEarly.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "1h 30m")
	assert.Empty(t, repo.checkedOut)
}

func TestGeneralAttendanceCheckOutWithoutSession(t *testing.T) {
	svc := NewGeneralAttendanceService(&mockSessionRepo{}, &mockSessionCodes{}, 3*time.Hour, validator.New(), zap.NewNop())

	_, err := svc.CheckOut(context.Background(), "u1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestGeneralAttendanceToday(t *testing.T) {
	now := time.Date(2026, 8, 31, 10, 0, 0, 0, time.UTC)
	checkOut := now.Add(-time.Hour)

	t.Run("no session", func(t *testing.T) {
		svc := NewGeneralAttendanceService(&mockSessionRepo{}, &mockSessionCodes{}, 3*time.Hour, validator.New(), zap.NewNop())
		svc.nowFn = fixedClock(now)

		status, err := svc.Today(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, SessionStatusNone, status.Status)
	})

	t.Run("open before dwell", func(t *testing.T) {
		repo := &mockSessionRepo{latest: map[string]*models.GeneralAttendance{
			"u1": {ID: "s1", CheckInTime: now.Add(-time.Hour)},
		}}
		svc := NewGeneralAttendanceService(repo, &mockSessionCodes{}, 3*time.Hour, validator.New(), zap.NewNop())
		svc.nowFn = fixedClock(now)

		status, err := svc.Today(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, SessionStatusCheckedIn, status.Status)
		assert.False(t, status.CanCheckOut)
		assert.Equal(t, "2h 0m", status.RemainingWait)
	})

	t.Run("open past dwell", func(t *testing.T) {
		repo := &mockSessionRepo{latest: map[string]*models.GeneralAttendance{
			"u1": {ID: "s1", CheckInTime: now.Add(-4 * time.Hour)},
		}}
		svc := NewGeneralAttendanceService(repo, &mockSessionCodes{}, 3*time.Hour, validator.New(), zap.NewNop())
		svc.nowFn = fixedClock(now)

		status, err := svc.Today(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, SessionStatusCheckedIn, status.Status)
		assert.True(t, status.CanCheckOut)
		assert.Empty(t, status.RemainingWait)
	})

	t.Run("closed", func(t *testing.T) {
		repo := &mockSessionRepo{latest: map[string]*models.GeneralAttendance{
			"u1": {ID: "s1", CheckInTime: now.Add(-5 * time.Hour), CheckOutTime: &checkOut},
		}}
		svc := NewGeneralAttendanceService(repo, &mockSessionCodes{}, 3*time.Hour, validator.New(), zap.NewNop())
		svc.nowFn = fixedClock(now)

		status, err := svc.Today(context.Background(), "u1")
		require.NoError(t, err)
		assert.Equal(t, SessionStatusCheckedOut, status.Status)
	})
}
