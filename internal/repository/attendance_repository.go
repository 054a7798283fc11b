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

// AttendanceRepository handles per-course attendance rows.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository constructs the repository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Exists reports whether an attendance row already exists for the student,
// course, and date.
func (r *AttendanceRepository) Exists(ctx context.Context, studentID, courseID string, date time.Time) (bool, error) {
	const query = `SELECT 1 FROM attendance WHERE student_id = $1 AND course_id = $2 AND attendance_date = $3 LIMIT 1`
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, studentID, courseID, date.Format("2006-01-02")); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check attendance: %w", err)
	}
	return true, nil
}

// Create inserts an attendance row.
func (r *AttendanceRepository) Create(ctx context.Context, record *models.Attendance) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	record.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO attendance (id, student_id, course_id, attendance_date, status, qr_code, created_at)
        VALUES (:id, :student_id, :course_id, :attendance_date, :status, :qr_code, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, record); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create attendance: %w", ErrDuplicate)
		}
		return fmt.Errorf("create attendance: %w", err)
	}
	return nil
}

// ListByStudent returns a student's attendance history, newest first.
func (r *AttendanceRepository) ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error) {
	const query = `SELECT id, student_id, course_id, attendance_date, status, qr_code, created_at
        FROM attendance WHERE student_id = $1 ORDER BY attendance_date DESC, created_at DESC`
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, studentID); err != nil {
		return nil, fmt.Errorf("list student attendance: %w", err)
	}
	return records, nil
}

// ListByCourseAndDate returns a course's attendance rows for one day.
func (r *AttendanceRepository) ListByCourseAndDate(ctx context.Context, courseID string, date time.Time) ([]models.Attendance, error) {
	const query = `SELECT id, student_id, course_id, attendance_date, status, qr_code, created_at
        FROM attendance WHERE course_id = $1 AND attendance_date = $2 ORDER BY created_at`
	var records []models.Attendance
	if err := r.db.SelectContext(ctx, &records, query, courseID, date.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("list course attendance: %w", err)
	}
	return records, nil
}
