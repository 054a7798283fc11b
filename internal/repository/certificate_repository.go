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

// CertificateRepository handles persistence of issued certificates.
type CertificateRepository struct {
	db *sqlx.DB
}

// NewCertificateRepository constructs the repository.
func NewCertificateRepository(db *sqlx.DB) *CertificateRepository {
	return &CertificateRepository{db: db}
}

const certificateDetailQuery = `SELECT c.id, c.certificate_number, c.student_id, c.course_id, c.grade, c.issue_date, c.created_at,
        u.full_name AS student_name, s.student_number, co.name AS course_name
        FROM certificates c
        JOIN students s ON s.id = c.student_id
        JOIN users u ON u.id = s.user_id
        JOIN courses co ON co.id = c.course_id`

// Create inserts a certificate row. Certificates are immutable once issued.
func (r *CertificateRepository) Create(ctx context.Context, cert *models.Certificate) error {
	if cert.ID == "" {
		cert.ID = uuid.NewString()
	}
	cert.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO certificates (id, certificate_number, student_id, course_id, grade, issue_date, created_at)
        VALUES (:id, :certificate_number, :student_id, :course_id, :grade, :issue_date, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, cert); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create certificate: %w", ErrDuplicate)
		}
		return fmt.Errorf("create certificate: %w", err)
	}
	return nil
}

// FindByNumber returns a certificate with verification context by its
// public number.
func (r *CertificateRepository) FindByNumber(ctx context.Context, number string) (*models.CertificateDetail, error) {
	query := certificateDetailQuery + ` WHERE c.certificate_number = $1 LIMIT 1`
	var cert models.CertificateDetail
	if err := r.db.GetContext(ctx, &cert, query, number); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find certificate by number: %w", err)
	}
	return &cert, nil
}

// FindByID returns a certificate with context by identifier.
func (r *CertificateRepository) FindByID(ctx context.Context, id string) (*models.CertificateDetail, error) {
	query := certificateDetailQuery + ` WHERE c.id = $1 LIMIT 1`
	var cert models.CertificateDetail
	if err := r.db.GetContext(ctx, &cert, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find certificate by id: %w", err)
	}
	return &cert, nil
}

// List returns all certificates with context, newest first.
func (r *CertificateRepository) List(ctx context.Context) ([]models.CertificateDetail, error) {
	query := certificateDetailQuery + ` ORDER BY c.created_at DESC`
	var certs []models.CertificateDetail
	if err := r.db.SelectContext(ctx, &certs, query); err != nil {
		return nil, fmt.Errorf("list certificates: %w", err)
	}
	return certs, nil
}

// ListByStudent returns a student's certificates.
func (r *CertificateRepository) ListByStudent(ctx context.Context, studentID string) ([]models.CertificateDetail, error) {
	query := certificateDetailQuery + ` WHERE c.student_id = $1 ORDER BY c.issue_date DESC`
	var certs []models.CertificateDetail
	if err := r.db.SelectContext(ctx, &certs, query, studentID); err != nil {
		return nil, fmt.Errorf("list student certificates: %w", err)
	}
	return certs, nil
}
