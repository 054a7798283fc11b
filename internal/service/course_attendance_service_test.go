package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webcapz/campus-portal-api/internal/models"
	"github.com/webcapz/campus-portal-api/internal/repository"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
)

type mockCourseAttendanceRepo struct {
	existing  map[string]bool
	created   *models.Attendance
	createErr error
	records   []models.Attendance
}

func (m *mockCourseAttendanceRepo) Exists(ctx context.Context, studentID, courseID string, date time.Time) (bool, error) {
	return m.existing[studentID+courseID], nil
}

func (m *mockCourseAttendanceRepo) Create(ctx context.Context, record *models.Attendance) error {
	if m.createErr != nil {
		return m.createErr
	}
	m.created = record
	return nil
}

func (m *mockCourseAttendanceRepo) ListByStudent(ctx context.Context, studentID string) ([]models.Attendance, error) {
	return m.records, nil
}

func (m *mockCourseAttendanceRepo) ListByCourseAndDate(ctx context.Context, courseID string, date time.Time) ([]models.Attendance, error) {
	return m.records, nil
}

type mockAttendanceStudents struct {
	students map[string]*models.StudentDetail
}

func (m *mockAttendanceStudents) FindByUserID(ctx context.Context, userID string) (*models.StudentDetail, error) {
	if s, ok := m.students[userID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

type mockAttendanceCourses struct {
	courses map[string]*models.Course
}

func (m *mockAttendanceCourses) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

type mockAttendanceStaff struct {
	staff map[string]*models.StaffDetail
}

func (m *mockAttendanceStaff) FindByUserID(ctx context.Context, userID string) (*models.StaffDetail, error) {
	if s, ok := m.staff[userID]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func newCourseAttendanceFixture(repo *mockCourseAttendanceRepo) *CourseAttendanceService {
	students := &mockAttendanceStudents{students: map[string]*models.StudentDetail{
		"u1": {Student: models.Student{ID: "st1", UserID: "u1"}},
	}}
	courses := &mockAttendanceCourses{courses: map[string]*models.Course{
		"abc123": {ID: "abc123", Name: "Web Development"},
	}}
	staff := &mockAttendanceStaff{staff: map[string]*models.StaffDetail{
		"u2": {Staff: models.Staff{ID: "staff1", UserID: "u2", Position: "Instructor"}},
		"u3": {Staff: models.Staff{ID: "staff2", UserID: "u3", Position: "Instructor"}},
	}}
	codes := NewCodeValidator("WEBCAPZ", "WEBCAPZ-GEN-", nil)
	return NewCourseAttendanceService(repo, students, courses, staff, codes, validator.New(), zap.NewNop())
}

func TestCourseAttendanceMarkByCode(t *testing.T) {
	repo := &mockCourseAttendanceRepo{}
	svc := newCourseAttendanceFixture(repo)
	svc.nowFn = fixedClock(time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC))

	record, err := svc.MarkByCode(context.Background(), "u1", MarkAttendanceRequest{Code: "WEBCAPZ-abc123-2026-08-31-K3J9"})
	require.NoError(t, err)
	require.NotNil(t, repo.created)
	assert.Equal(t, "st1", record.StudentID)
	assert.Equal(t, "abc123", record.CourseID)
	assert.Equal(t, models.AttendancePresent, record.Status)
	assert.Equal(t, "WEBCAPZ-abc123-2026-08-31-K3J9", record.QRCode)
	assert.Equal(t, time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC), record.AttendanceDate)
}

func TestCourseAttendanceMarkByCodeMalformed(t *testing.T) {
	repo := &mockCourseAttendanceRepo{}
	svc := newCourseAttendanceFixture(repo)

	_, err := svc.MarkByCode(context.Background(), "u1", MarkAttendanceRequest{Code: "GIBBERISH"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrMalformedCode.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestCourseAttendanceMarkByCodeUnknownCourse(t *testing.T) {
	repo := &mockCourseAttendanceRepo{}
	svc := newCourseAttendanceFixture(repo)

	// Well-formed code pointing at a course that does not exist: the code
	// string itself is never checked against storage, only the course id.
	_, err := svc.MarkByCode(context.Background(), "u1", MarkAttendanceRequest{Code: "WEBCAPZ-nothere-2026-08-31-K3J9"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseAttendanceMarkByCodeAlreadyMarked(t *testing.T) {
	repo := &mockCourseAttendanceRepo{existing: map[string]bool{"st1abc123": true}}
	svc := newCourseAttendanceFixture(repo)

	_, err := svc.MarkByCode(context.Background(), "u1", MarkAttendanceRequest{Code: "WEBCAPZ-abc123-2026-08-31-K3J9"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyMarked.Code, appErrors.FromError(err).Code)
	assert.Nil(t, repo.created)
}

func TestCourseAttendanceMarkByCodeDuplicateRace(t *testing.T) {
	repo := &mockCourseAttendanceRepo{createErr: fmt.Errorf("create attendance: %w", repository.ErrDuplicate)}
	svc := newCourseAttendanceFixture(repo)

	_, err := svc.MarkByCode(context.Background(), "u1", MarkAttendanceRequest{Code: "WEBCAPZ-abc123-2026-08-31-K3J9"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrAlreadyMarked.Code, appErrors.FromError(err).Code)
}

func TestCourseAttendanceGenerateCode(t *testing.T) {
	repo := &mockCourseAttendanceRepo{}
	svc := newCourseAttendanceFixture(repo)
	instructor := "staff1"
	svc.courses.(*mockAttendanceCourses).courses["abc123"].InstructorID = &instructor

	t.Run("assigned instructor", func(t *testing.T) {
		code, err := svc.GenerateCode(context.Background(), "u2", models.RoleInstructor, "abc123")
		require.NoError(t, err)

		courseID, err := NewCodeValidator("WEBCAPZ", "WEBCAPZ-GEN-", nil).ParseCourseCode(code)
		require.NoError(t, err)
		assert.Equal(t, "abc123", courseID)
	})

	t.Run("admin bypasses assignment check", func(t *testing.T) {
		code, err := svc.GenerateCode(context.Background(), "admin-user", models.RoleAdmin, "abc123")
		require.NoError(t, err)
		assert.Contains(t, code, "WEBCAPZ-abc123-")
	})

	t.Run("other instructor forbidden", func(t *testing.T) {
		_, err := svc.GenerateCode(context.Background(), "u3", models.RoleInstructor, "abc123")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	})

	t.Run("no staff record forbidden", func(t *testing.T) {
		_, err := svc.GenerateCode(context.Background(), "ghost", models.RoleInstructor, "abc123")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	})

	t.Run("unknown course", func(t *testing.T) {
		_, err := svc.GenerateCode(context.Background(), "u2", models.RoleInstructor, "nope")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
	})
}
