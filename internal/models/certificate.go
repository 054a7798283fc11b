package models

import "time"

// Certificate is an issued course-completion certificate. Immutable once
// issued; publicly queryable by number only.
type Certificate struct {
	ID                string    `db:"id" json:"id"`
	CertificateNumber string    `db:"certificate_number" json:"certificate_number"`
	StudentID         string    `db:"student_id" json:"student_id"`
	CourseID          string    `db:"course_id" json:"course_id"`
	Grade             *string   `db:"grade" json:"grade,omitempty"`
	IssueDate         time.Time `db:"issue_date" json:"issue_date"`
	CreatedAt         time.Time `db:"created_at" json:"created_at"`
}

// CertificateDetail carries the fields exposed by public verification.
type CertificateDetail struct {
	Certificate
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
	CourseName    string `db:"course_name" json:"course_name"`
}

// Notification is a message addressed to a user.
type Notification struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Title     string    `db:"title" json:"title"`
	Message   string    `db:"message" json:"message"`
	Read      bool      `db:"read" json:"read"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
