package models

import "time"

// Student is the domain record owned by a user with the student role.
type Student struct {
	ID             string    `db:"id" json:"id"`
	UserID         string    `db:"user_id" json:"user_id"`
	StudentNumber  string    `db:"student_number" json:"student_number"`
	EnrollmentDate time.Time `db:"enrollment_date" json:"enrollment_date"`
	RegisteredBy   *string   `db:"registered_by" json:"registered_by,omitempty"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time `db:"updated_at" json:"updated_at"`
}

// StudentDetail joins the student row with its user profile.
type StudentDetail struct {
	Student
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}

// Staff is the domain record owned by a user with the staff or instructor role.
type Staff struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	Department *string   `db:"department" json:"department,omitempty"`
	Position   string    `db:"position" json:"position"`
	HireDate   time.Time `db:"hire_date" json:"hire_date"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// StaffDetail joins the staff row with its user profile.
type StaffDetail struct {
	Staff
	FullName string `db:"full_name" json:"full_name"`
	Email    string `db:"email" json:"email"`
}
