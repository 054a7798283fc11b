package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/require"

	"github.com/webcapz/campus-portal-api/internal/models"
)

func TestAttendanceRepositoryExists(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM attendance WHERE student_id = $1 AND course_id = $2 AND attendance_date = $3")).
		WithArgs("st-1", "course-1", "2026-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"1"}).AddRow(1))

	exists, err := repo.Exists(context.Background(), "st-1", "course-1", date)
	require.NoError(t, err)
	require.True(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryExistsFalse(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM attendance")).
		WithArgs("st-1", "course-1", "2026-03-14").
		WillReturnRows(sqlmock.NewRows([]string{"1"}))

	exists, err := repo.Exists(context.Background(), "st-1", "course-1", date)
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO attendance")).
		WillReturnError(&pq.Error{Code: "23505"})

	err := repo.Create(context.Background(), &models.Attendance{
		StudentID: "st-1",
		CourseID:  "course-1",
		Status:    models.AttendancePresent,
	})
	require.True(t, errors.Is(err, ErrDuplicate))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAttendanceRepositoryListByCourseAndDate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewAttendanceRepository(db)
	date := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "student_id", "course_id", "attendance_date", "status", "qr_code", "created_at"}).
		AddRow("att-1", "st-1", "course-1", date, "present", "WEBCAPZ-course-1-2026-03-14-ABC", time.Now())
	mock.ExpectQuery(regexp.QuoteMeta("FROM attendance")).
		WithArgs("course-1", "2026-03-14").
		WillReturnRows(rows)

	records, err := repo.ListByCourseAndDate(context.Background(), "course-1", date)
	require.NoError(t, err)
	require.Len(t, records, 1)
	require.Equal(t, models.AttendancePresent, records[0].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}
