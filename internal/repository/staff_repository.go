package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/webcapz/campus-portal-api/internal/models"
)

// StaffRepository handles persistence of staff domain records.
type StaffRepository struct {
	db *sqlx.DB
}

// NewStaffRepository constructs the repository.
func NewStaffRepository(db *sqlx.DB) *StaffRepository {
	return &StaffRepository{db: db}
}

const staffDetailQuery = `SELECT st.id, st.user_id, st.department, st.position, st.hire_date, st.created_at, st.updated_at,
        u.full_name, u.email
        FROM staff st
        JOIN users u ON u.id = st.user_id`

// FindByID returns a staff record with profile context.
func (r *StaffRepository) FindByID(ctx context.Context, id string) (*models.StaffDetail, error) {
	query := staffDetailQuery + ` WHERE st.id = $1 LIMIT 1`
	var staff models.StaffDetail
	if err := r.db.GetContext(ctx, &staff, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find staff by id: %w", err)
	}
	return &staff, nil
}

// FindByUserID returns the staff record owned by a user.
func (r *StaffRepository) FindByUserID(ctx context.Context, userID string) (*models.StaffDetail, error) {
	query := staffDetailQuery + ` WHERE st.user_id = $1 LIMIT 1`
	var staff models.StaffDetail
	if err := r.db.GetContext(ctx, &staff, query, userID); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find staff by user id: %w", err)
	}
	return &staff, nil
}

// List returns all staff records with profile context.
func (r *StaffRepository) List(ctx context.Context) ([]models.StaffDetail, error) {
	query := staffDetailQuery + ` ORDER BY st.created_at DESC`
	var staff []models.StaffDetail
	if err := r.db.SelectContext(ctx, &staff, query); err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	return staff, nil
}

// Count returns the number of staff records.
func (r *StaffRepository) Count(ctx context.Context) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM staff`); err != nil {
		return 0, fmt.Errorf("count staff: %w", err)
	}
	return total, nil
}
