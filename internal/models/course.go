package models

import "time"

// Course is a taught course with an optional instructor.
type Course struct {
	ID            string    `db:"id" json:"id"`
	Name          string    `db:"name" json:"name"`
	Description   *string   `db:"description" json:"description,omitempty"`
	DurationWeeks *int      `db:"duration_weeks" json:"duration_weeks,omitempty"`
	MaxStudents   *int      `db:"max_students" json:"max_students,omitempty"`
	InstructorID  *string   `db:"instructor_id" json:"instructor_id,omitempty"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	UpdatedAt     time.Time `db:"updated_at" json:"updated_at"`
}

// ClassSchedule is a weekly time slot for a course. DayOfWeek runs 0-6
// starting Sunday.
type ClassSchedule struct {
	ID        string    `db:"id" json:"id"`
	CourseID  string    `db:"course_id" json:"course_id"`
	DayOfWeek int       `db:"day_of_week" json:"day_of_week"`
	StartTime string    `db:"start_time" json:"start_time"`
	EndTime   string    `db:"end_time" json:"end_time"`
	Room      *string   `db:"room" json:"room,omitempty"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// EnrollmentStatus is the lifecycle state of a course enrollment.
type EnrollmentStatus string

const (
	EnrollmentStatusActive   EnrollmentStatus = "active"
	EnrollmentStatusInactive EnrollmentStatus = "inactive"
)

// Enrollment links a student to a course.
type Enrollment struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	CourseID       string           `db:"course_id" json:"course_id"`
	EnrollmentDate time.Time        `db:"enrollment_date" json:"enrollment_date"`
	Status         EnrollmentStatus `db:"status" json:"status"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// EnrollmentDetail adds course and student context to an enrollment.
type EnrollmentDetail struct {
	Enrollment
	CourseName    string `db:"course_name" json:"course_name"`
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
}
