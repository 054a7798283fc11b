package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webcapz/campus-portal-api/internal/models"
	"github.com/webcapz/campus-portal-api/internal/service"
)

type fakeCodeRepo struct {
	codes   map[string]*models.GeneralQRCode
	created *models.GeneralQRCode
}

func (f *fakeCodeRepo) CreateCode(_ context.Context, qr *models.GeneralQRCode) error {
	f.created = qr
	return nil
}

func (f *fakeCodeRepo) ListCodes(context.Context) ([]models.GeneralQRCode, error) {
	out := make([]models.GeneralQRCode, 0, len(f.codes))
	for _, qr := range f.codes {
		out = append(out, *qr)
	}
	return out, nil
}

func (f *fakeCodeRepo) FindCodeByID(_ context.Context, id string) (*models.GeneralQRCode, error) {
	if qr, ok := f.codes[id]; ok {
		return qr, nil
	}
	return nil, sql.ErrNoRows
}

func (f *fakeCodeRepo) SetCodeActive(_ context.Context, id string, active bool) error {
	if qr, ok := f.codes[id]; ok {
		qr.IsActive = active
		return nil
	}
	return sql.ErrNoRows
}

type fakeCodeGenerator struct{ value string }

func (f *fakeCodeGenerator) GenerateGeneralCode() (string, error) {
	return f.value, nil
}

func newQRCodeHandler(repo *fakeCodeRepo) *QRCodeHandler {
	svc := service.NewQRCodeService(repo, &fakeCodeGenerator{value: "WEBCAPZ-GEN-TESTCODE"}, nil, nil)
	return NewQRCodeHandler(svc)
}

func TestQRCodeCreate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeCodeRepo{codes: map[string]*models.GeneralQRCode{}}
	handler := newQRCodeHandler(repo)

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodPost, "/qr-codes", gin.H{"name": "Main entrance"})

	handler.Create(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	require.NotNil(t, repo.created)
	assert.Equal(t, "WEBCAPZ-GEN-TESTCODE", repo.created.Code)
	assert.True(t, repo.created.IsActive)
}

func TestQRCodeCreateRequiresName(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newQRCodeHandler(&fakeCodeRepo{codes: map[string]*models.GeneralQRCode{}})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodPost, "/qr-codes", gin.H{"description": "missing name"})

	handler.Create(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestQRCodeSetActive(t *testing.T) {
	gin.SetMode(gin.TestMode)
	repo := &fakeCodeRepo{codes: map[string]*models.GeneralQRCode{
		"qr1": {ID: "qr1", Code: "WEBCAPZ-GEN-TESTCODE", IsActive: true},
	}}
	handler := newQRCodeHandler(repo)

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodPatch, "/qr-codes/qr1/active", gin.H{"is_active": false})
	c.Params = gin.Params{{Key: "id", Value: "qr1"}}

	handler.SetActive(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var envelope struct {
		Data models.GeneralQRCode `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.False(t, envelope.Data.IsActive)
}

func TestQRCodeSetActiveUnknown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := newQRCodeHandler(&fakeCodeRepo{codes: map[string]*models.GeneralQRCode{}})

	rec := httptest.NewRecorder()
	c := authedContext(t, rec, http.MethodPatch, "/qr-codes/missing/active", gin.H{"is_active": true})
	c.Params = gin.Params{{Key: "id", Value: "missing"}}

	handler.SetActive(c)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}
