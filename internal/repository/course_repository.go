package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/webcapz/campus-portal-api/internal/models"
)

// CourseRepository handles persistence of courses and class schedules.
type CourseRepository struct {
	db *sqlx.DB
}

// NewCourseRepository constructs the repository.
func NewCourseRepository(db *sqlx.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

const courseColumns = `id, name, description, duration_weeks, max_students, instructor_id, created_at, updated_at`

// FindByID returns a course by identifier.
func (r *CourseRepository) FindByID(ctx context.Context, id string) (*models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1 LIMIT 1`, courseColumns)
	var course models.Course
	if err := r.db.GetContext(ctx, &course, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find course by id: %w", err)
	}
	return &course, nil
}

// List returns all courses, newest first.
func (r *CourseRepository) List(ctx context.Context) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses ORDER BY created_at DESC`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query); err != nil {
		return nil, fmt.Errorf("list courses: %w", err)
	}
	return courses, nil
}

// ListByInstructor returns courses taught by a staff record.
func (r *CourseRepository) ListByInstructor(ctx context.Context, staffID string) ([]models.Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE instructor_id = $1 ORDER BY name`, courseColumns)
	var courses []models.Course
	if err := r.db.SelectContext(ctx, &courses, query, staffID); err != nil {
		return nil, fmt.Errorf("list instructor courses: %w", err)
	}
	return courses, nil
}

// Create inserts a new course.
func (r *CourseRepository) Create(ctx context.Context, course *models.Course) error {
	if course.ID == "" {
		course.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	course.CreatedAt = now
	course.UpdatedAt = now

	const query = `INSERT INTO courses (id, name, description, duration_weeks, max_students, instructor_id, created_at, updated_at)
        VALUES (:id, :name, :description, :duration_weeks, :max_students, :instructor_id, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("create course: %w", err)
	}
	return nil
}

// Update updates mutable course fields.
func (r *CourseRepository) Update(ctx context.Context, course *models.Course) error {
	course.UpdatedAt = time.Now().UTC()
	const query = `UPDATE courses SET name = :name, description = :description, duration_weeks = :duration_weeks,
        max_students = :max_students, instructor_id = :instructor_id, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, course); err != nil {
		return fmt.Errorf("update course: %w", err)
	}
	return nil
}

// AssignInstructor sets the course's instructor reference.
func (r *CourseRepository) AssignInstructor(ctx context.Context, courseID, staffID string) error {
	const query = `UPDATE courses SET instructor_id = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, courseID, staffID, time.Now().UTC()); err != nil {
		return fmt.Errorf("assign instructor: %w", err)
	}
	return nil
}

// Count returns the number of courses.
func (r *CourseRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM courses`); err != nil {
		return 0, fmt.Errorf("count courses: %w", err)
	}
	return total, nil
}

// ListSchedules returns the weekly schedule slots for a course.
func (r *CourseRepository) ListSchedules(ctx context.Context, courseID string) ([]models.ClassSchedule, error) {
	const query = `SELECT id, course_id, day_of_week, start_time, end_time, room, created_at
        FROM class_schedules WHERE course_id = $1 ORDER BY day_of_week, start_time`
	var schedules []models.ClassSchedule
	if err := r.db.SelectContext(ctx, &schedules, query, courseID); err != nil {
		return nil, fmt.Errorf("list class schedules: %w", err)
	}
	return schedules, nil
}

// CreateSchedule inserts a weekly schedule slot.
func (r *CourseRepository) CreateSchedule(ctx context.Context, schedule *models.ClassSchedule) error {
	if schedule.ID == "" {
		schedule.ID = uuid.NewString()
	}
	schedule.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO class_schedules (id, course_id, day_of_week, start_time, end_time, room, created_at)
        VALUES (:id, :course_id, :day_of_week, :start_time, :end_time, :room, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, schedule); err != nil {
		return fmt.Errorf("create class schedule: %w", err)
	}
	return nil
}
