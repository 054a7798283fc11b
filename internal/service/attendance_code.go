package service

import (
	"context"
	"crypto/rand"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/webcapz/campus-portal-api/internal/models"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
)

type generalCodeReader interface {
	FindCodeByCode(ctx context.Context, code string) (*models.GeneralQRCode, error)
}

const generalCodeRandomLength = 8

const generalCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// CodeValidator parses and validates the two attendance code families.
//
// Course codes carry their course id positionally and are never stored
// server-side; general codes are admin-managed rows that must exist and be
// active. The two families fail differently on purpose: a course code can
// only be malformed or point at a missing course, a general code can also
// be unknown or retired.
type CodeValidator struct {
	coursePrefix  string
	generalPrefix string
	codes         generalCodeReader
}

// NewCodeValidator constructs a validator for the configured prefixes.
func NewCodeValidator(coursePrefix, generalPrefix string, codes generalCodeReader) *CodeValidator {
	return &CodeValidator{coursePrefix: coursePrefix, generalPrefix: generalPrefix, codes: codes}
}

// ParseCourseCode extracts the embedded course id from a scanned course code.
// Shape: <prefix>-<courseID>-<date>-<suffix>. Only the prefix, the minimum
// segment count, and a non-empty course segment are checked; the date and
// suffix segments are carried for display and never verified.
func (v *CodeValidator) ParseCourseCode(code string) (string, error) {
	parts := strings.Split(strings.TrimSpace(code), "-")
	if len(parts) < 4 || parts[0] != v.coursePrefix {
		return "", appErrors.Clone(appErrors.ErrMalformedCode, "not a course attendance code")
	}
	if parts[1] == "" {
		return "", appErrors.Clone(appErrors.ErrMalformedCode, "course attendance code is missing its course segment")
	}
	return parts[1], nil
}

// IsGeneralCode reports whether the raw string belongs to the general family.
func (v *CodeValidator) IsGeneralCode(code string) bool {
	return strings.HasPrefix(strings.TrimSpace(code), v.generalPrefix)
}

// ValidateGeneralCode resolves a scanned general code to its stored row.
// Checks run shape first, then existence, then active state, so callers can
// distinguish a typo from a retired code.
func (v *CodeValidator) ValidateGeneralCode(ctx context.Context, code string) (*models.GeneralQRCode, error) {
	trimmed := strings.TrimSpace(code)
	if !strings.HasPrefix(trimmed, v.generalPrefix) {
		return nil, appErrors.Clone(appErrors.ErrMalformedCode, "not a general attendance code")
	}

	stored, err := v.codes.FindCodeByCode(ctx, trimmed)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrUnknownCode, "general attendance code does not exist")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up attendance code")
	}

	if !stored.IsActive {
		return nil, appErrors.Clone(appErrors.ErrInactiveCode, "general attendance code has been deactivated")
	}

	return stored, nil
}

// GenerateCourseCode builds a course attendance code for the given day.
// The suffix is the millisecond timestamp in base 36, which keeps codes
// unique within a day without another table.
func (v *CodeValidator) GenerateCourseCode(courseID string, now time.Time) string {
	return fmt.Sprintf("%s-%s-%s-%s",
		v.coursePrefix,
		courseID,
		now.Format("2006-01-02"),
		strings.ToUpper(strconv.FormatInt(now.UnixMilli(), 36)),
	)
}

// GenerateGeneralCode builds a fresh general attendance code value.
func (v *CodeValidator) GenerateGeneralCode() (string, error) {
	buf := make([]byte, generalCodeRandomLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate code suffix: %w", err)
	}
	for i, b := range buf {
		buf[i] = generalCodeCharset[int(b)%len(generalCodeCharset)]
	}
	return v.generalPrefix + string(buf), nil
}
