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

// GeneralAttendanceRepository handles general QR codes and their check-in
// events.
type GeneralAttendanceRepository struct {
	db *sqlx.DB
}

// NewGeneralAttendanceRepository constructs the repository.
func NewGeneralAttendanceRepository(db *sqlx.DB) *GeneralAttendanceRepository {
	return &GeneralAttendanceRepository{db: db}
}

const qrCodeColumns = `id, code, name, description, is_active, created_by, created_at, updated_at`

// FindCodeByCode returns a general QR code row by its exact code string.
func (r *GeneralAttendanceRepository) FindCodeByCode(ctx context.Context, code string) (*models.GeneralQRCode, error) {
	query := fmt.Sprintf(`SELECT %s FROM general_qr_codes WHERE code = $1 LIMIT 1`, qrCodeColumns)
	var qr models.GeneralQRCode
	if err := r.db.GetContext(ctx, &qr, query, code); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find qr code: %w", err)
	}
	return &qr, nil
}

// FindCodeByID returns a general QR code row by identifier.
func (r *GeneralAttendanceRepository) FindCodeByID(ctx context.Context, id string) (*models.GeneralQRCode, error) {
	query := fmt.Sprintf(`SELECT %s FROM general_qr_codes WHERE id = $1 LIMIT 1`, qrCodeColumns)
	var qr models.GeneralQRCode
	if err := r.db.GetContext(ctx, &qr, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find qr code by id: %w", err)
	}
	return &qr, nil
}

// CreateCode persists a new general QR code.
func (r *GeneralAttendanceRepository) CreateCode(ctx context.Context, qr *models.GeneralQRCode) error {
	if qr.ID == "" {
		qr.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	qr.CreatedAt = now
	qr.UpdatedAt = now
	const query = `INSERT INTO general_qr_codes (id, code, name, description, is_active, created_by, created_at, updated_at)
        VALUES (:id, :code, :name, :description, :is_active, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, qr); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create qr code: %w", ErrDuplicate)
		}
		return fmt.Errorf("create qr code: %w", err)
	}
	return nil
}

// ListCodes returns all general QR codes, newest first.
func (r *GeneralAttendanceRepository) ListCodes(ctx context.Context) ([]models.GeneralQRCode, error) {
	query := fmt.Sprintf(`SELECT %s FROM general_qr_codes ORDER BY created_at DESC`, qrCodeColumns)
	var codes []models.GeneralQRCode
	if err := r.db.SelectContext(ctx, &codes, query); err != nil {
		return nil, fmt.Errorf("list qr codes: %w", err)
	}
	return codes, nil
}

// SetCodeActive toggles the active flag. Codes are never deleted.
func (r *GeneralAttendanceRepository) SetCodeActive(ctx context.Context, id string, active bool) error {
	const query = `UPDATE general_qr_codes SET is_active = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, active, time.Now().UTC()); err != nil {
		return fmt.Errorf("set qr code active: %w", err)
	}
	return nil
}

const generalAttendanceColumns = `id, qr_code_id, user_id, user_type, attendance_date, check_in_time, check_out_time, created_at`

// FindOpenSession returns the open (not checked out) row for the user and
// date, or sql.ErrNoRows when none exists.
func (r *GeneralAttendanceRepository) FindOpenSession(ctx context.Context, userID string, date time.Time) (*models.GeneralAttendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM general_attendance
        WHERE user_id = $1 AND attendance_date = $2 AND check_out_time IS NULL
        ORDER BY check_in_time DESC LIMIT 1`, generalAttendanceColumns)
	var session models.GeneralAttendance
	if err := r.db.GetContext(ctx, &session, query, userID, date.Format("2006-01-02")); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find open session: %w", err)
	}
	return &session, nil
}

// FindLatestForDate returns the most recent row for the user and date by
// check-in time, open or closed.
func (r *GeneralAttendanceRepository) FindLatestForDate(ctx context.Context, userID string, date time.Time) (*models.GeneralAttendance, error) {
	query := fmt.Sprintf(`SELECT %s FROM general_attendance
        WHERE user_id = $1 AND attendance_date = $2
        ORDER BY check_in_time DESC LIMIT 1`, generalAttendanceColumns)
	var session models.GeneralAttendance
	if err := r.db.GetContext(ctx, &session, query, userID, date.Format("2006-01-02")); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find latest session: %w", err)
	}
	return &session, nil
}

// CreateCheckIn inserts a new open session row. The partial unique index on
// (user_id, attendance_date) WHERE check_out_time IS NULL rejects a second
// open session; that surfaces as ErrDuplicate.
func (r *GeneralAttendanceRepository) CreateCheckIn(ctx context.Context, session *models.GeneralAttendance) error {
	if session.ID == "" {
		session.ID = uuid.NewString()
	}
	session.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO general_attendance (id, qr_code_id, user_id, user_type, attendance_date, check_in_time, check_out_time, created_at)
        VALUES (:id, :qr_code_id, :user_id, :user_type, :attendance_date, :check_in_time, :check_out_time, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, session); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create check-in: %w", ErrDuplicate)
		}
		return fmt.Errorf("create check-in: %w", err)
	}
	return nil
}

// SetCheckOut closes an open session. Only rows still open are updated so a
// session cannot be checked out twice.
func (r *GeneralAttendanceRepository) SetCheckOut(ctx context.Context, id string, checkOut time.Time) error {
	const query = `UPDATE general_attendance SET check_out_time = $2 WHERE id = $1 AND check_out_time IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, checkOut)
	if err != nil {
		return fmt.Errorf("set check-out: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("set check-out result: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListByDate returns all check-in events for a date with reporting context.
func (r *GeneralAttendanceRepository) ListByDate(ctx context.Context, date time.Time) ([]models.GeneralAttendanceRecord, error) {
	const query = `SELECT ga.id, ga.qr_code_id, ga.user_id, ga.user_type, ga.attendance_date, ga.check_in_time, ga.check_out_time, ga.created_at,
        u.full_name AS user_name, q.name AS code_name
        FROM general_attendance ga
        JOIN users u ON u.id = ga.user_id
        JOIN general_qr_codes q ON q.id = ga.qr_code_id
        WHERE ga.attendance_date = $1
        ORDER BY ga.check_in_time DESC`
	var records []models.GeneralAttendanceRecord
	if err := r.db.SelectContext(ctx, &records, query, date.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("list general attendance: %w", err)
	}
	return records, nil
}

// CountForDate returns the number of check-in events for a date.
func (r *GeneralAttendanceRepository) CountForDate(ctx context.Context, date time.Time) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM general_attendance WHERE attendance_date = $1`, date.Format("2006-01-02")); err != nil {
		return 0, fmt.Errorf("count general attendance: %w", err)
	}
	return total, nil
}
