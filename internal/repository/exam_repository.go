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

// ExamRepository handles persistence of exams and exam results.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs the repository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

const examColumns = `id, course_id, title, exam_date, duration_minutes, total_marks, created_at`

// FindByID returns an exam by identifier.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	query := fmt.Sprintf(`SELECT %s FROM exams WHERE id = $1 LIMIT 1`, examColumns)
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find exam by id: %w", err)
	}
	return &exam, nil
}

// List returns all exams, soonest first.
func (r *ExamRepository) List(ctx context.Context) ([]models.Exam, error) {
	query := fmt.Sprintf(`SELECT %s FROM exams ORDER BY exam_date NULLS LAST, created_at DESC`, examColumns)
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query); err != nil {
		return nil, fmt.Errorf("list exams: %w", err)
	}
	return exams, nil
}

// ListByCourse returns the exams for a course.
func (r *ExamRepository) ListByCourse(ctx context.Context, courseID string) ([]models.Exam, error) {
	query := fmt.Sprintf(`SELECT %s FROM exams WHERE course_id = $1 ORDER BY exam_date NULLS LAST`, examColumns)
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, courseID); err != nil {
		return nil, fmt.Errorf("list course exams: %w", err)
	}
	return exams, nil
}

// Create inserts a new exam.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam) error {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	exam.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO exams (id, course_id, title, exam_date, duration_minutes, total_marks, created_at)
        VALUES (:id, :course_id, :title, :exam_date, :duration_minutes, :total_marks, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}
	return nil
}

// CreateResult inserts an exam result.
func (r *ExamRepository) CreateResult(ctx context.Context, result *models.ExamResult) error {
	if result.ID == "" {
		result.ID = uuid.NewString()
	}
	result.CreatedAt = time.Now().UTC()
	const query = `INSERT INTO exam_results (id, exam_id, student_id, score, grade, created_at)
        VALUES (:id, :exam_id, :student_id, :score, :grade, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, result); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("create exam result: %w", ErrDuplicate)
		}
		return fmt.Errorf("create exam result: %w", err)
	}
	return nil
}

const examResultDetailQuery = `SELECT er.id, er.exam_id, er.student_id, er.score, er.grade, er.created_at,
        e.title AS exam_title, c.name AS course_name, u.full_name AS student_name, s.student_number
        FROM exam_results er
        JOIN exams e ON e.id = er.exam_id
        JOIN courses c ON c.id = e.course_id
        JOIN students s ON s.id = er.student_id
        JOIN users u ON u.id = s.user_id`

// ListResultsByStudent returns a student's exam results with context.
func (r *ExamRepository) ListResultsByStudent(ctx context.Context, studentID string) ([]models.ExamResultDetail, error) {
	query := examResultDetailQuery + ` WHERE er.student_id = $1 ORDER BY er.created_at DESC`
	var results []models.ExamResultDetail
	if err := r.db.SelectContext(ctx, &results, query, studentID); err != nil {
		return nil, fmt.Errorf("list student exam results: %w", err)
	}
	return results, nil
}

// ListResultsByExam returns the results recorded for an exam.
func (r *ExamRepository) ListResultsByExam(ctx context.Context, examID string) ([]models.ExamResultDetail, error) {
	query := examResultDetailQuery + ` WHERE er.exam_id = $1 ORDER BY u.full_name`
	var results []models.ExamResultDetail
	if err := r.db.SelectContext(ctx, &results, query, examID); err != nil {
		return nil, fmt.Errorf("list exam results: %w", err)
	}
	return results, nil
}
