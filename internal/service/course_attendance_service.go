package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webcapz/campus-portal-api/internal/models"
	"github.com/webcapz/campus-portal-api/internal/repository"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
)

type courseAttendanceRepository interface {
	Exists(ctx context.Context, studentID, courseID string, date time.Time) (bool, error)
	Create(ctx context.Context, record *models.Attendance) error
	ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error)
	ListByCourseAndDate(ctx context.Context, courseID string, date time.Time) ([]models.Attendance, error)
}

type attendanceStudentReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error)
}

type attendanceCourseReader interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
}

type attendanceStaffReader interface {
	FindByUserID(ctx context.Context, userID string) (*models.StaffDetail, error)
}

type courseCodeParser interface {
	ParseCourseCode(code string) (string, error)
	GenerateCourseCode(courseID string, now time.Time) string
}

// MarkAttendanceRequest carries the scanned course attendance code.
type MarkAttendanceRequest struct {
	Code string `json:"code" validate:"required"`
}

// CourseAttendanceService marks per-course attendance from scanned codes.
// Marking is once per student, course, and day; repeat scans are rejected
// without touching the stored row.
type CourseAttendanceService struct {
	repo      courseAttendanceRepository
	students  attendanceStudentReader
	courses   attendanceCourseReader
	staff     attendanceStaffReader
	codes     courseCodeParser
	validator *validator.Validate
	logger    *zap.Logger
	nowFn     func() time.Time
}

// NewCourseAttendanceService constructs the service.
func NewCourseAttendanceService(repo courseAttendanceRepository, students attendanceStudentReader, courses attendanceCourseReader, staff attendanceStaffReader, codes courseCodeParser, validate *validator.Validate, logger *zap.Logger) *CourseAttendanceService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseAttendanceService{
		repo:      repo,
		students:  students,
		courses:   courses,
		staff:     staff,
		codes:     codes,
		validator: validate,
		logger:    logger,
		nowFn:     func() time.Time { return time.Now().UTC() },
	}
}

// MarkByCode records attendance for the calling student from a scanned code.
// The course id embedded in the code must resolve to an existing course; the
// code string itself is not checked against any stored record.
func (s *CourseAttendanceService) MarkByCode(ctx context.Context, userID string, req MarkAttendanceRequest) (*models.Attendance, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid attendance payload")
	}

	courseID, err := s.codes.ParseCourseCode(req.Code)
	if err != nil {
		return nil, err
	}

	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student record for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}

	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	now := s.nowFn()
	today := dateOnly(now)

	marked, err := s.repo.Exists(ctx, student.ID, courseID, today)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing attendance")
	}
	if marked {
		return nil, appErrors.Clone(appErrors.ErrAlreadyMarked, "attendance already recorded for this course today")
	}

	record := &models.Attendance{
		ID:             uuid.NewString(),
		StudentID:      student.ID,
		CourseID:       courseID,
		AttendanceDate: today,
		Status:         models.AttendancePresent,
		QRCode:         req.Code,
		CreatedAt:      now,
	}

	if err := s.repo.Create(ctx, record); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, appErrors.Clone(appErrors.ErrAlreadyMarked, "attendance already recorded for this course today")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record attendance")
	}

	s.logger.Info("course attendance recorded",
		zap.String("student_id", student.ID),
		zap.String("course_id", courseID),
	)

	return record, nil
}

// GenerateCode produces a fresh course attendance code. Admins may mint a
// code for any course; instructors only for courses assigned to them.
func (s *CourseAttendanceService) GenerateCode(ctx context.Context, userID string, role models.UserRole, courseID string) (string, error) {
	course, err := s.courses.FindByID(ctx, courseID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if role != models.RoleAdmin {
		staff, err := s.staff.FindByUserID(ctx, userID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return "", appErrors.Clone(appErrors.ErrForbidden, "no staff record for this account")
			}
			return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load staff record")
		}
		if course.InstructorID == nil || *course.InstructorID != staff.ID {
			return "", appErrors.Clone(appErrors.ErrForbidden, "course is not assigned to you")
		}
	}

	return s.codes.GenerateCourseCode(courseID, s.nowFn()), nil
}

// ListForStudent returns the calling student's attendance history.
func (s *CourseAttendanceService) ListForStudent(ctx context.Context, userID string) ([]models.Attendance, error) {
	student, err := s.students.FindByUserID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "no student record for this account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student record")
	}

	records, err := s.repo.ListByStudent(ctx, student.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}

// ListForCourse returns a course's attendance for one day.
func (s *CourseAttendanceService) ListForCourse(ctx context.Context, courseID string, date time.Time) ([]models.Attendance, error) {
	if _, err := s.courses.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	records, err := s.repo.ListByCourseAndDate(ctx, courseID, dateOnly(date))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list attendance")
	}
	return records, nil
}
