package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/webcapz/campus-portal-api/internal/models"
	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
)

type mockCourseRepo struct {
	courses   map[string]*models.Course
	schedules []models.ClassSchedule
	assigned  map[string]string
}

func (m *mockCourseRepo) FindByID(ctx context.Context, id string) (*models.Course, error) {
	if c, ok := m.courses[id]; ok {
		return c, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCourseRepo) List(ctx context.Context) ([]models.Course, error) { return nil, nil }

func (m *mockCourseRepo) ListByInstructor(ctx context.Context, staffID string) ([]models.Course, error) {
	return nil, nil
}

func (m *mockCourseRepo) Create(ctx context.Context, course *models.Course) error {
	if m.courses == nil {
		m.courses = make(map[string]*models.Course)
	}
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseRepo) Update(ctx context.Context, course *models.Course) error {
	m.courses[course.ID] = course
	return nil
}

func (m *mockCourseRepo) AssignInstructor(ctx context.Context, courseID, staffID string) error {
	if m.assigned == nil {
		m.assigned = make(map[string]string)
	}
	m.assigned[courseID] = staffID
	return nil
}

func (m *mockCourseRepo) ListSchedules(ctx context.Context, courseID string) ([]models.ClassSchedule, error) {
	return m.schedules, nil
}

func (m *mockCourseRepo) CreateSchedule(ctx context.Context, schedule *models.ClassSchedule) error {
	schedule.ID = "sch1"
	m.schedules = append(m.schedules, *schedule)
	return nil
}

type mockCourseStaff struct {
	staff map[string]*models.StaffDetail
}

func (m *mockCourseStaff) FindByID(ctx context.Context, id string) (*models.StaffDetail, error) {
	if s, ok := m.staff[id]; ok {
		return s, nil
	}
	return nil, sql.ErrNoRows
}

func courseFixture(repo *mockCourseRepo) *CourseService {
	staff := &mockCourseStaff{staff: map[string]*models.StaffDetail{
		"staff1": {Staff: models.Staff{ID: "staff1", UserID: "u2"}},
	}}
	return NewCourseService(repo, staff, validator.New(), zap.NewNop())
}

func TestCourseCreateGeneratesHyphenFreeID(t *testing.T) {
	repo := &mockCourseRepo{}
	svc := courseFixture(repo)

	course, err := svc.Create(context.Background(), CreateCourseRequest{Name: "Algorithms"})
	require.NoError(t, err)
	assert.NotEmpty(t, course.ID)
	assert.NotContains(t, course.ID, "-")
	assert.Contains(t, repo.courses, course.ID)
}

func TestCourseCreateUnknownInstructor(t *testing.T) {
	svc := courseFixture(&mockCourseRepo{})

	instructor := "ghost"
	_, err := svc.Create(context.Background(), CreateCourseRequest{Name: "Algorithms", InstructorID: &instructor})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseUpdateAppliesPartialFields(t *testing.T) {
	desc := "old"
	repo := &mockCourseRepo{courses: map[string]*models.Course{
		"c1": {ID: "c1", Name: "Algorithms", Description: &desc},
	}}
	svc := courseFixture(repo)

	name := "Advanced Algorithms"
	course, err := svc.Update(context.Background(), "c1", UpdateCourseRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "Advanced Algorithms", course.Name)
	require.NotNil(t, course.Description)
	assert.Equal(t, "old", *course.Description)
}

func TestCourseAssignInstructor(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{"c1": {ID: "c1"}}}
	svc := courseFixture(repo)

	require.NoError(t, svc.AssignInstructor(context.Background(), "c1", "staff1"))
	assert.Equal(t, "staff1", repo.assigned["c1"])

	err := svc.AssignInstructor(context.Background(), "c1", "ghost")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCourseAddScheduleValidatesDay(t *testing.T) {
	repo := &mockCourseRepo{courses: map[string]*models.Course{"c1": {ID: "c1"}}}
	svc := courseFixture(repo)

	_, err := svc.AddSchedule(context.Background(), "c1", CreateScheduleRequest{DayOfWeek: 7, StartTime: "09:00", EndTime: "10:30"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	schedule, err := svc.AddSchedule(context.Background(), "c1", CreateScheduleRequest{DayOfWeek: 2, StartTime: "09:00", EndTime: "10:30"})
	require.NoError(t, err)
	assert.Equal(t, "c1", schedule.CourseID)
	require.Len(t, repo.schedules, 1)
}

func TestCourseGetNotFound(t *testing.T) {
	svc := courseFixture(&mockCourseRepo{})

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
