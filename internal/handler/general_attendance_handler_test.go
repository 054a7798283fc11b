package handler

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webcapz/campus-portal-api/internal/middleware"
	"github.com/webcapz/campus-portal-api/internal/models"
	"github.com/webcapz/campus-portal-api/internal/service"
)

type fakeSessionRepo struct {
	open    *models.GeneralAttendance
	latest  *models.GeneralAttendance
	created *models.GeneralAttendance
}

func (f *fakeSessionRepo) FindOpenSession(context.Context, string, time.Time) (*models.GeneralAttendance, error) {
	if f.open == nil {
		return nil, sql.ErrNoRows
	}
	return f.open, nil
}

func (f *fakeSessionRepo) FindLatestForDate(context.Context, string, time.Time) (*models.GeneralAttendance, error) {
	if f.latest == nil {
		return nil, sql.ErrNoRows
	}
	return f.latest, nil
}

func (f *fakeSessionRepo) CreateCheckIn(_ context.Context, session *models.GeneralAttendance) error {
	f.created = session
	return nil
}

func (f *fakeSessionRepo) SetCheckOut(context.Context, string, time.Time) error {
	return nil
}

type fakeCodeValidator struct {
	code *models.GeneralQRCode
	err  error
}

func (f *fakeCodeValidator) ValidateGeneralCode(context.Context, string) (*models.GeneralQRCode, error) {
	return f.code, f.err
}

func newSessionHandler(repo *fakeSessionRepo, codes *fakeCodeValidator) *GeneralAttendanceHandler {
	svc := service.NewGeneralAttendanceService(repo, codes, 3*time.Hour, nil, nil)
	return NewGeneralAttendanceHandler(svc)
}

func authedContext(t *testing.T, rec *httptest.ResponseRecorder, method, target string, body interface{}) *gin.Context {
	t.Helper()
	c, _ := gin.CreateTestContext(rec)
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	c.Request.Header.Set("Content-Type", "application/json")
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "u1", Role: models.RoleStudent})
	return c
}

func TestGeneralAttendanceCheckInSuccess(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeSessionRepo{}
	handler := newSessionHandler(repo, &fakeCodeValidator{code: &models.GeneralQRCode{ID: "qr1", IsActive: true}})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodPost, "/general-attendance/check-in", gin.H{"code": "WEBCAPZ-GEN-ABCD1234"})

	handler.CheckIn(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, "u1", repo.created.UserID)
}

func TestGeneralAttendanceCheckInRejectsEmptyBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSessionHandler(&fakeSessionRepo{}, &fakeCodeValidator{})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodPost, "/general-attendance/check-in", nil)

	handler.CheckIn(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGeneralAttendanceCheckInRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSessionHandler(&fakeSessionRepo{}, &fakeCodeValidator{})

	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodPost, "/general-attendance/check-in", bytes.NewReader(nil))

	handler.CheckIn(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestGeneralAttendanceCheckOutNoSession(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSessionHandler(&fakeSessionRepo{}, &fakeCodeValidator{})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodPost, "/general-attendance/check-out", nil)

	handler.CheckOut(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestGeneralAttendanceCheckOutTooEarly(t *testing.T) {
	gin.SetMode(gin.TestMode)
	now := time.Now().UTC()
	repo := &fakeSessionRepo{open: &models.GeneralAttendance{
		ID:          "ga1",
		UserID:      "u1",
		CheckInTime: now.Add(-30 * time.Minute),
	}}
	handler := newSessionHandler(repo, &fakeCodeValidator{})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodPost, "/general-attendance/check-out", nil)

	handler.CheckOut(c)

	assert.Equal(t, http.StatusPreconditionFailed, rec.Code)
}

func TestGeneralAttendanceToday(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newSessionHandler(&fakeSessionRepo{}, &fakeCodeValidator{})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodGet, "/general-attendance/today", nil)

	handler.Today(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data service.TodayStatus `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, service.SessionStatusNone, envelope.Data.Status)
}
