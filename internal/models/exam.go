package models

import "time"

// Exam belongs to a course.
type Exam struct {
	ID              string     `db:"id" json:"id"`
	CourseID        string     `db:"course_id" json:"course_id"`
	Title           string     `db:"title" json:"title"`
	ExamDate        *time.Time `db:"exam_date" json:"exam_date,omitempty"`
	DurationMinutes *int       `db:"duration_minutes" json:"duration_minutes,omitempty"`
	TotalMarks      *int       `db:"total_marks" json:"total_marks,omitempty"`
	CreatedAt       time.Time  `db:"created_at" json:"created_at"`
}

// ExamResult records a student's score and derived letter grade for an exam.
type ExamResult struct {
	ID        string    `db:"id" json:"id"`
	ExamID    string    `db:"exam_id" json:"exam_id"`
	StudentID string    `db:"student_id" json:"student_id"`
	Score     float64   `db:"score" json:"score"`
	Grade     string    `db:"grade" json:"grade"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ExamResultDetail adds exam and student context to a result.
type ExamResultDetail struct {
	ExamResult
	ExamTitle     string `db:"exam_title" json:"exam_title"`
	CourseName    string `db:"course_name" json:"course_name"`
	StudentName   string `db:"student_name" json:"student_name"`
	StudentNumber string `db:"student_number" json:"student_number"`
}
