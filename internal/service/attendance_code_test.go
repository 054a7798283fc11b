package service

import (
	"context"
	"database/sql"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webcapz/campus-portal-api/internal/models"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
)

type mockGeneralCodeReader struct {
	codes map[string]*models.GeneralQRCode
}

func (m *mockGeneralCodeReader) FindCodeByCode(ctx context.Context, code string) (*models.GeneralQRCode, error) {
	if qr, ok := m.codes[code]; ok {
		return qr, nil
	}
	return nil, sql.ErrNoRows
}

func TestCodeValidatorParseCourseCode(t *testing.T) {
	v := NewCodeValidator("WEBCAPZ", "WEBCAPZ-GEN-", nil)

	courseID, err := v.ParseCourseCode("WEBCAPZ-abc123-2026-08-31-K3J9")
	require.NoError(t, err)
	assert.Equal(t, "abc123", courseID)
}

func TestCodeValidatorParseCourseCodeRejectsWrongPrefix(t *testing.T) {
	v := NewCodeValidator("WEBCAPZ", "WEBCAPZ-GEN-", nil)

	_, err := v.ParseCourseCode("OTHER-abc123-2026-08-31-K3J9")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMalformedCode.Code, appErrors.FromError(err).Code)
}

func TestCodeValidatorParseCourseCodeRejectsShortShape(t *testing.T) {
	v := NewCodeValidator("WEBCAPZ", "WEBCAPZ-GEN-", nil)

	_, err := v.ParseCourseCode("WEBCAPZ-abc123-leftover")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMalformedCode.Code, appErrors.FromError(err).Code)
}

func TestCodeValidatorParseCourseCodeRejectsEmptyCourseSegment(t *testing.T) {
	v := NewCodeValidator("WEBCAPZ", "WEBCAPZ-GEN-", nil)

	_, err := v.ParseCourseCode("WEBCAPZ--2026-08-31-K3J9")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMalformedCode.Code, appErrors.FromError(err).Code)
}

func TestCodeValidatorCourseCodeRoundTrip(t *testing.T) {
	v := NewCodeValidator("WEBCAPZ", "WEBCAPZ-GEN-", nil)

	code := v.GenerateCourseCode("abc123", time.Date(2026, 8, 31, 9, 30, 0, 0, time.UTC))
	courseID, err := v.ParseCourseCode(code)
	require.NoError(t, err)
	assert.Equal(t, "abc123", courseID)
}

func TestCodeValidatorValidateGeneralCode(t *testing.T) {
	reader := &mockGeneralCodeReader{codes: map[string]*models.GeneralQRCode{
		"WEBCAPZ-GEN-AAAA1111": {ID: "q1", Code: "WEBCAPZ-GEN-AAAA1111", IsActive: true},
		"WEBCAPZ-GEN-BBBB2222": {ID: "q2", Code: "WEBCAPZ-GEN-BBBB2222", IsActive: false},
	}}
	v := NewCodeValidator("WEBCAPZ", "WEBCAPZ-GEN-", reader)

	qr, err := v.ValidateGeneralCode(context.Background(), "WEBCAPZ-GEN-AAAA1111")
	require.NoError(t, err)
	assert.Equal(t, "q1", qr.ID)

	_, err = v.ValidateGeneralCode(context.Background(), "not-a-code")
	assert.Equal(t, appErrors.ErrMalformedCode.Code, appErrors.FromError(err).Code)

	_, err = v.ValidateGeneralCode(context.Background(), "WEBCAPZ-GEN-MISSING0")
	assert.Equal(t, appErrors.ErrUnknownCode.Code, appErrors.FromError(err).Code)

	_, err = v.ValidateGeneralCode(context.Background(), "WEBCAPZ-GEN-BBBB2222")
	assert.Equal(t, appErrors.ErrInactiveCode.Code, appErrors.FromError(err).Code)
}

func TestCodeValidatorGenerateGeneralCode(t *testing.T) {
	v := NewCodeValidator("WEBCAPZ", "WEBCAPZ-GEN-", nil)

	code, err := v.GenerateGeneralCode()
	require.NoError(t, err)
	require.True(t, strings.HasPrefix(code, "WEBCAPZ-GEN-"))

	suffix := strings.TrimPrefix(code, "WEBCAPZ-GEN-")
	assert.Len(t, suffix, generalCodeRandomLength)
	for _, r := range suffix {
		assert.Contains(t, generalCodeCharset, string(r))
	}
}
