package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/webcapz/campus-portal-api/internal/models"
	"github.com/webcapz/campus-portal-api/internal/repository"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
)

type examRepository interface {
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	List(ctx context.Context) ([]models.Exam, error)
	ListByCourse(ctx context.Context, courseID string) ([]models.Exam, error)
	Create(ctx context.Context, exam *models.Exam) error
	CreateResult(ctx context.Context, result *models.ExamResult) error
	ListResultsByStudent(ctx context.Context, studentID string) ([]models.ExamResultDetail, error)
	ListResultsByExam(ctx context.Context, examID string) ([]models.ExamResultDetail, error)
}

type examCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type examStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.StudentDetail, error)
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
}

// CreateExamRequest describes a new exam for a course.
type CreateExamRequest struct {
	CourseID        string     `json:"course_id" validate:"required"`
	Title           string     `json:"title" validate:"required"`
	ExamDate        *time.Time `json:"exam_date,omitempty"`
	DurationMinutes *int       `json:"duration_minutes,omitempty" validate:"omitempty,min=1"`
	TotalMarks      *int       `json:"total_marks,omitempty" validate:"omitempty,min=1"`
}

// RecordResultRequest records a percentage score for a student.
type RecordResultRequest struct {
	ExamID    string  `json:"exam_id" validate:"required"`
	StudentID string  `json:"student_id" validate:"required"`
	Score     float64 `json:"score" validate:"min=0,max=100"`
}

// ExamService manages exams and their results. Letter grades are derived
// from the percentage score at record time and stored with the result.
type ExamService struct {
	repo      examRepository
	courses   examCourseReader
	students  examStudentReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService constructs the service.
func NewExamService(repo examRepository, courses examCourseReader, students examStudentReader, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, courses: courses, students: students, validator: validate, logger: logger}
}

// Create stores a new exam.
func (s *ExamService) Create(ctx context.Context, req CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}

	if _, err := s.courses.FindByID(ctx, req.CourseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	exam := &models.Exam{
		CourseID:        req.CourseID,
		Title:           req.Title,
		ExamDate:        req.ExamDate,
		DurationMinutes: req.DurationMinutes,
		TotalMarks:      req.TotalMarks,
	}
	if err := s.repo.Create(ctx, exam); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store exam")
	}
	return exam, nil
}

// List returns all exams, optionally scoped to a course.
func (s *ExamService) List(ctx context.Context, courseID string) ([]models.Exam, error) {
	var (
		exams []models.Exam
		err   error
	)
	if courseID != "" {
		exams, err = s.repo.ListByCourse(ctx, courseID)
	} else {
		exams, err = s.repo.List(ctx)
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}
	return exams, nil
}

// RecordResult stores a student's score with its derived letter grade.
func (s *ExamService) RecordResult(ctx context.Context, req RecordResultRequest) (*models.ExamResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid result payload")
	}

	if _, err := s.repo.FindByID(ctx, req.ExamID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}
	if _, err := s.students.FindByID(ctx, req.StudentID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	result := &models.ExamResult{
		ExamID:    req.ExamID,
		StudentID: req.StudentID,
		Score:     req.Score,
		Grade:     gradeFor(req.Score),
	}
	if err := s.repo.CreateResult(ctx, result); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrConflict, "result already recorded for this student")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store result")
	}

	s.logger.Info("exam result recorded",
		zap.String("exam_id", result.ExamID),
		zap.String("student_id", result.StudentID),
		zap.String("grade", result.Grade),
	)
	return result, nil
}

// ListResultsForExam returns all results for one exam.
func (s *ExamService) ListResultsForExam(ctx context.Context, examID string) ([]models.ExamResultDetail, error) {
	results, err := s.repo.ListResultsByExam(ctx, examID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	return results, nil
}

// ListResultsForStudent returns the calling student's results.
func (s *ExamService) ListResultsForStudent(ctx context.Context, userID string) ([]models.ExamResultDetail, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student record for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}
	results, err := s.repo.ListResultsByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list results")
	}
	return results, nil
}

// gradeFor maps a percentage score to its letter grade.
func gradeFor(score float64) string {
	switch {
	case score >= 90:
		return "A"
	case score >= 80:
		return "B"
	case score >= 70:
		return "C"
	case score >= 60:
		return "D"
	default:
		return "F"
	}
}
