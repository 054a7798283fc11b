package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/webcapz/campus-portal-api/internal/models"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
)

type courseRepository interface {
	FindByID(ctx context.Context, id string) (*models.Course, error)
	List(ctx context.Context) ([]models.Course, error)
	ListByInstructor(ctx context.Context, staffID string) ([]models.Course, error)
	Create(ctx context.Context, course *models.Course) error
	Update(ctx context.Context, course *models.Course) error
	AssignInstructor(ctx context.Context, courseID, staffID string) error
	ListSchedules(ctx context.Context, courseID string) ([]models.ClassSchedule, error)
	CreateSchedule(ctx context.Context, schedule *models.ClassSchedule) error
}

type courseStaffReader interface {
	FindByID(ctx context.Context, id string) (*models.StaffDetail, error)
}

// CreateCourseRequest describes a new course.
type CreateCourseRequest struct {
	Name          string  `json:"name" validate:"required"`
	Description   *string `json:"description,omitempty"`
	DurationWeeks *int    `json:"duration_weeks,omitempty" validate:"omitempty,min=1"`
	MaxStudents   *int    `json:"max_students,omitempty" validate:"omitempty,min=1"`
	InstructorID  *string `json:"instructor_id,omitempty"`
}

// UpdateCourseRequest carries the mutable course fields.
type UpdateCourseRequest struct {
	Name          *string `json:"name,omitempty"`
	Description   *string `json:"description,omitempty"`
	DurationWeeks *int    `json:"duration_weeks,omitempty" validate:"omitempty,min=1"`
	MaxStudents   *int    `json:"max_students,omitempty" validate:"omitempty,min=1"`
}

// CreateScheduleRequest adds a weekly slot to a course.
type CreateScheduleRequest struct {
	DayOfWeek int     `json:"day_of_week" validate:"min=0,max=6"`
	StartTime string  `json:"start_time" validate:"required"`
	EndTime   string  `json:"end_time" validate:"required"`
	Room      *string `json:"room,omitempty"`
}

// CourseService manages courses and their weekly schedules.
type CourseService struct {
	repo      courseRepository
	staff     courseStaffReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewCourseService constructs the service.
func NewCourseService(repo courseRepository, staff courseStaffReader, validate *validator.Validate, logger *zap.Logger) *CourseService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CourseService{repo: repo, staff: staff, validator: validate, logger: logger}
}

// Create stores a new course. Course ids end up embedded in hyphen-delimited
// attendance codes, so they are generated without hyphens.
func (s *CourseService) Create(ctx context.Context, req CreateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	if req.InstructorID != nil {
		if _, err := s.staff.FindByID(ctx, *req.InstructorID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
		}
	}

	course := &models.Course{
		ID:            strings.ReplaceAll(uuid.NewString(), "-", ""),
		Name:          req.Name,
		Description:   req.Description,
		DurationWeeks: req.DurationWeeks,
		MaxStudents:   req.MaxStudents,
		InstructorID:  req.InstructorID,
	}

	if err := s.repo.Create(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store course")
	}

	s.logger.Info("course created", zap.String("course_id", course.ID), zap.String("name", course.Name))
	return course, nil
}

// Get returns a single course.
func (s *CourseService) Get(ctx context.Context, id string) (*models.Course, error) {
	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	return course, nil
}

// List returns all courses.
func (s *CourseService) List(ctx context.Context) ([]models.Course, error) {
	courses, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// ListForInstructor returns the courses assigned to a staff member.
func (s *CourseService) ListForInstructor(ctx context.Context, staffID string) ([]models.Course, error) {
	courses, err := s.repo.ListByInstructor(ctx, staffID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list courses")
	}
	return courses, nil
}

// Update applies the provided fields to an existing course.
func (s *CourseService) Update(ctx context.Context, id string, req UpdateCourseRequest) (*models.Course, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid course payload")
	}

	course, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	if req.Name != nil {
		course.Name = *req.Name
	}
	if req.Description != nil {
		course.Description = req.Description
	}
	if req.DurationWeeks != nil {
		course.DurationWeeks = req.DurationWeeks
	}
	if req.MaxStudents != nil {
		course.MaxStudents = req.MaxStudents
	}

	if err := s.repo.Update(ctx, course); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update course")
	}
	return course, nil
}

// AssignInstructor links a staff member to a course.
func (s *CourseService) AssignInstructor(ctx context.Context, courseID, staffID string) error {
	if _, err := s.repo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}
	if _, err := s.staff.FindByID(ctx, staffID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "instructor not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load instructor")
	}

	if err := s.repo.AssignInstructor(ctx, courseID, staffID); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to assign instructor")
	}
	return nil
}

// ListSchedules returns a course's weekly slots.
func (s *CourseService) ListSchedules(ctx context.Context, courseID string) ([]models.ClassSchedule, error) {
	if _, err := s.repo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	schedules, err := s.repo.ListSchedules(ctx, courseID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list schedules")
	}
	return schedules, nil
}

// AddSchedule appends a weekly slot to a course.
func (s *CourseService) AddSchedule(ctx context.Context, courseID string, req CreateScheduleRequest) (*models.ClassSchedule, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid schedule payload")
	}

	if _, err := s.repo.FindByID(ctx, courseID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "course not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load course")
	}

	schedule := &models.ClassSchedule{
		CourseID:  courseID,
		DayOfWeek: req.DayOfWeek,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,
		Room:      req.Room,
	}
	if err := s.repo.CreateSchedule(ctx, schedule); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store schedule")
	}
	return schedule, nil
}
