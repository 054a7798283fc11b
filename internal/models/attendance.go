package models

import "time"

// AttendanceStatus is the per-course attendance status.
type AttendanceStatus string

const (
	AttendancePresent AttendanceStatus = "present"
	AttendanceAbsent  AttendanceStatus = "absent"
	AttendanceLate    AttendanceStatus = "late"
)

// Attendance is one per-course attendance row. At most one row exists per
// (student, course, date); the raw code string used to mark it is kept.
type Attendance struct {
	ID             string           `db:"id" json:"id"`
	StudentID      string           `db:"student_id" json:"student_id"`
	CourseID       string           `db:"course_id" json:"course_id"`
	AttendanceDate time.Time        `db:"attendance_date" json:"attendance_date"`
	Status         AttendanceStatus `db:"status" json:"status"`
	QRCode         string           `db:"qr_code" json:"qr_code"`
	CreatedAt      time.Time        `db:"created_at" json:"created_at"`
}

// GeneralQRCode is a long-lived admin-managed attendance code. Codes never
// expire by date; they are only toggled inactive, never deleted.
type GeneralQRCode struct {
	ID          string    `db:"id" json:"id"`
	Code        string    `db:"code" json:"code"`
	Name        string    `db:"name" json:"name"`
	Description *string   `db:"description" json:"description,omitempty"`
	IsActive    bool      `db:"is_active" json:"is_active"`
	CreatedBy   *string   `db:"created_by" json:"created_by,omitempty"`
	CreatedAt   time.Time `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time `db:"updated_at" json:"updated_at"`
}

// GeneralAttendance is one check-in event against a general QR code. A row
// with a NULL check_out_time is an open session; a user holds at most one
// open session per calendar date.
type GeneralAttendance struct {
	ID             string     `db:"id" json:"id"`
	QRCodeID       string     `db:"qr_code_id" json:"qr_code_id"`
	UserID         string     `db:"user_id" json:"user_id"`
	UserType       UserRole   `db:"user_type" json:"user_type"`
	AttendanceDate time.Time  `db:"attendance_date" json:"attendance_date"`
	CheckInTime    time.Time  `db:"check_in_time" json:"check_in_time"`
	CheckOutTime   *time.Time `db:"check_out_time" json:"check_out_time,omitempty"`
	CreatedAt      time.Time  `db:"created_at" json:"created_at"`
}

// GeneralAttendanceRecord adds reporting context to a check-in event.
type GeneralAttendanceRecord struct {
	GeneralAttendance
	UserName string `db:"user_name" json:"user_name"`
	CodeName string `db:"code_name" json:"code_name"`
}
