package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/webcapz/campus-portal-api/internal/models"
	"github.com/webcapz/campus-portal-api/internal/repository"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
	"github.com/webcapz/campus-portal-api/pkg/export"
)

type certificateRepository interface {
	Create(ctx context.Context, cert *models.Certificate) error
	FindByNumber(ctx context.Context, number string) (*models.CertificateDetail, error)
	FindByID(ctx context.Context, id string) (*models.CertificateDetail, error)
	List(ctx context.Context) ([]models.CertificateDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.CertificateDetail, error)
}

type certificateStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
}

type certificateCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type verificationCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

type certificateRenderer interface {
	RenderCertificate(doc export.CertificateDocument) ([]byte, error)
}

// IssueCertificateRequest identifies the student and course to certify.
type IssueCertificateRequest struct {
	StudentID string  `json:"student_id" validate:"required"`
	CourseID  string  `json:"course_id" validate:"required"`
	Grade     *string `json:"grade,omitempty"`
}

// VerificationResult is the public answer for a certificate number.
type VerificationResult struct {
	Valid       bool   `json:"valid"`
	Number      string `json:"number"`
	StudentName string `json:"student_name,omitempty"`
	CourseName  string `json:"course_name,omitempty"`
	Grade       string `json:"grade,omitempty"`
	IssueDate   string `json:"issue_date,omitempty"`
}

// CertificateService issues course certificates and answers public
// verification lookups. Verification results are cached since certificates
// never change after issue.
type CertificateService struct {
	repo      certificateRepository
	students  certificateStudentReader
	courses   certificateCourseReader
	cache     verificationCache
	renderer  certificateRenderer
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
	nowFn     func() time.Time
}

// NewCertificateService constructs the service.
func NewCertificateService(repo certificateRepository, students certificateStudentReader, courses certificateCourseReader, cache verificationCache, renderer certificateRenderer, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *CertificateService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CertificateService{
		repo:      repo,
		students:  students,
		courses:   courses,
		cache:     cache,
		renderer:  renderer,
		cacheTTL:  cacheTTL,
		validator: validate,
		logger:    logger,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// Issue creates a certificate for a student and course.
func (s *CertificateService) Issue(ctx context.Context, req IssueCertificateRequest) (*models.Certificate, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid certificate payload")
	}

	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	now := s.nowFn()
	cert := &models.Certificate{
		CertificateNumber: certificateNumber(now),
		StudentID:         req.StudentID,
		CourseID:          req.CourseID,
		Grade:             req.Grade,
		IssueDate:         dateOnly(now),
	}

	if err := s.repo.Create(ctx, cert); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "certificate number collision, retry")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store certificate")
	}

	s.logger.Info("certificate issued",
		zap.String("certificate_number", cert.CertificateNumber),
		zap.String("student_id", cert.StudentID),
	)

	return cert, nil
}

// Verify answers a public lookup by certificate number. An unknown number is
// a valid=false answer, not an error, and negative answers are not cached.
func (s *CertificateService) Verify(ctx context.Context, number string) (*VerificationResult, error) {
	key := "verify:certificate:" + number

	var cached VerificationResult
	if s.cache != nil {
		if err := s.cache.Get(ctx, key, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("certificate verify cache read failed", zap.Error(err))
		}
	}

	detail, err := s.repo.FindByNumber(ctx, number)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return &VerificationResult{Valid: false, Number: number}, nil
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to look up certificate")
	}

	result := &VerificationResult{
		Valid:       true,
		Number:      detail.CertificateNumber,
		StudentName: detail.StudentName,
		CourseName:  detail.CourseName,
		IssueDate:   detail.IssueDate.Format("2006-01-02"),
	}
	if detail.Grade != nil {
		result.Grade = *detail.Grade
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, result, s.cacheTTL); err != nil {
			s.logger.Warn("certificate verify cache write failed", zap.Error(err))
		}
	}

	return result, nil
}

// List returns all certificates with student and course context.
func (s *CertificateService) List(ctx context.Context) ([]models.CertificateDetail, error) {
	certs, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	return certs, nil
}

// ListForStudent returns the calling student's certificates.
func (s *CertificateService) ListForStudent(ctx context.Context, userID string) ([]models.CertificateDetail, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student record for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}
	certs, err := s.repo.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list certificates")
	}
	return certs, nil
}

// RenderPDF produces the printable document for a certificate.
func (s *CertificateService) RenderPDF(ctx context.Context, id string) ([]byte, string, error) {
	detail, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "certificate not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load certificate")
	}

	doc := export.CertificateDocument{
		Number:      detail.CertificateNumber,
		StudentName: detail.StudentName,
		CourseName:  detail.CourseName,
		IssueDate:   detail.IssueDate.Format("2006-01-02"),
	}
	if detail.Grade != nil {
		doc.Grade = *detail.Grade
	}

	payload, err := s.renderer.RenderCertificate(doc)
	if err != nil {
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render certificate")
	}

	filename := fmt.Sprintf("certificate-%s.pdf", detail.CertificateNumber)
	return payload, filename, nil
}

// certificateNumber derives a display number from the issue timestamp,
// keeping the last eight digits of the millisecond clock.
func certificateNumber(now time.Time) string {
	return fmt.Sprintf("CERT-%08d", now.UnixMilli()%100000000)
}
