package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/webcapz/campus-portal-api/internal/models"
)

// ProvisionRecord is the full user graph created in one transaction: the
// user row plus the role-appropriate domain record and its course links.
type ProvisionRecord struct {
	User          models.User
	Student       *models.Student
	Staff         *models.Staff
	EnrollCourses []string
	AssignCourses []string
}

// ProvisioningRepository persists new user graphs atomically. The original
// portal issued each write independently and could strand an identity
// without a domain record; here the whole graph commits or none of it does.
type ProvisioningRepository struct {
	db *sqlx.DB
}

// NewProvisioningRepository constructs the repository.
func NewProvisioningRepository(db *sqlx.DB) *ProvisioningRepository {
	return &ProvisioningRepository{db: db}
}

// Provision inserts the user, domain record, and course links in a single
// transaction. A duplicate email surfaces as ErrDuplicate.
func (r *ProvisioningRepository) Provision(ctx context.Context, record *ProvisionRecord) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin provisioning tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	now := time.Now().UTC()
	user := &record.User
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	const userQuery = `INSERT INTO users (id, email, password_hash, full_name, role, active, phone, address, created_at, updated_at)
        VALUES (:id, :email, :password_hash, :full_name, :role, :active, :phone, :address, :created_at, :updated_at)`
	if _, err := tx.NamedExecContext(ctx, userQuery, user); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert user %s: %w", user.Email, ErrDuplicate)
		}
		return fmt.Errorf("insert user: %w", err)
	}

	if record.Student != nil {
		student := record.Student
		if student.ID == "" {
			student.ID = uuid.NewString()
		}
		student.UserID = user.ID
		if student.EnrollmentDate.IsZero() {
			student.EnrollmentDate = now
		}
		student.CreatedAt = now
		student.UpdatedAt = now

		const studentQuery = `INSERT INTO students (id, user_id, student_number, enrollment_date, registered_by, created_at, updated_at)
            VALUES (:id, :user_id, :student_number, :enrollment_date, :registered_by, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, studentQuery, student); err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("insert student: %w", ErrDuplicate)
			}
			return fmt.Errorf("insert student: %w", err)
		}

		const enrollQuery = `INSERT INTO student_courses (id, student_id, course_id, enrollment_date, status, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)`
		for _, courseID := range record.EnrollCourses {
			if _, err := tx.ExecContext(ctx, enrollQuery, uuid.NewString(), student.ID, courseID, now, models.EnrollmentStatusActive, now); err != nil {
				return fmt.Errorf("enroll course %s: %w", courseID, err)
			}
		}
	}

	if record.Staff != nil {
		staff := record.Staff
		if staff.ID == "" {
			staff.ID = uuid.NewString()
		}
		staff.UserID = user.ID
		if staff.HireDate.IsZero() {
			staff.HireDate = now
		}
		staff.CreatedAt = now
		staff.UpdatedAt = now

		const staffQuery = `INSERT INTO staff (id, user_id, department, position, hire_date, created_at, updated_at)
            VALUES (:id, :user_id, :department, :position, :hire_date, :created_at, :updated_at)`
		if _, err := tx.NamedExecContext(ctx, staffQuery, staff); err != nil {
			return fmt.Errorf("insert staff: %w", err)
		}

		const assignQuery = `UPDATE courses SET instructor_id = $2, updated_at = $3 WHERE id = $1`
		for _, courseID := range record.AssignCourses {
			if _, err := tx.ExecContext(ctx, assignQuery, courseID, staff.ID, now); err != nil {
				return fmt.Errorf("assign instructor to course %s: %w", courseID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit provisioning tx: %w", err)
	}
	return nil
}
