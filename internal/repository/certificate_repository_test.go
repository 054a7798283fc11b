package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/webcapz/campus-portal-api/internal/models"
)

func certificateRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{"id", "certificate_number", "student_id", "course_id", "grade", "issue_date", "created_at", "student_name", "student_number", "course_name"})
}

func TestCertificateRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCertificateRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO certificates")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	cert := &models.Certificate{
		CertificateNumber: "CERT-00001234",
		StudentID:         "st-1",
		CourseID:          "course-1",
		IssueDate:         time.Now().UTC(),
	}
	require.NoError(t, repo.Create(context.Background(), cert))
	require.NotEmpty(t, cert.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRepositoryCreateDuplicateNumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCertificateRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO certificates")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Certificate{CertificateNumber: "CERT-00001234"})
	require.True(t, errors.Is(err, ErrDuplicate))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRepositoryFindByNumber(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCertificateRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.certificate_number = $1")).
		WithArgs("CERT-00001234").
		WillReturnRows(certificateRows().
			AddRow("cert-1", "CERT-00001234", "st-1", "course-1", "A", time.Now(), time.Now(), "Jane Doe", "STU00000042", "Web Development"))

	cert, err := repo.FindByNumber(context.Background(), "CERT-00001234")
	require.NoError(t, err)
	require.Equal(t, "Jane Doe", cert.StudentName)
	require.Equal(t, "Web Development", cert.CourseName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRepositoryFindByNumberMissing(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCertificateRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.certificate_number = $1")).
		WithArgs("CERT-99999999").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.FindByNumber(context.Background(), "CERT-99999999")
	require.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestCertificateRepositoryListByStudent(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewCertificateRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE c.student_id = $1")).
		WithArgs("st-1").
		WillReturnRows(certificateRows().
			AddRow("cert-1", "CERT-00001234", "st-1", "course-1", nil, time.Now(), time.Now(), "Jane Doe", "STU00000042", "Web Development"))

	certs, err := repo.ListByStudent(context.Background(), "st-1")
	require.NoError(t, err)
	require.Len(t, certs, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
