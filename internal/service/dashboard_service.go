package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/webcapz/campus-portal-api/pkg/errors"
)

type dashboardStudentCounter interface {
	Count(ctx context.Context) (int, error)
}

type dashboardStaffCounter interface {
	Count(ctx context.Context) (int, error)
}

type dashboardCourseCounter interface {
	Count(ctx context.Context) (int, error)
}

type dashboardAttendanceCounter interface {
	CountForDate(ctx context.Context, date time.Time) (int, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
}

const dashboardStatsCacheKey = "dashboard:stats"

// DashboardStats aggregates the portal's headline numbers.
type DashboardStats struct {
	Students       int       `json:"students"`
	Staff          int       `json:"staff"`
	Courses        int       `json:"courses"`
	CheckedInToday int       `json:"checked_in_today"`
	GeneratedAt    time.Time `json:"generated_at"`
}

// DashboardService serves the admin dashboard counters, cached briefly to
// keep the landing page off the hot query path.
type DashboardService struct {
	students   dashboardStudentCounter
	staff      dashboardStaffCounter
	courses    dashboardCourseCounter
	attendance dashboardAttendanceCounter
	cache      statsCache
	cacheTTL   time.Duration
	logger     *zap.Logger
	nowFn      func() time.Time
}

// NewDashboardService constructs the service.
func NewDashboardService(students dashboardStudentCounter, staff dashboardStaffCounter, courses dashboardCourseCounter, attendance dashboardAttendanceCounter, cache statsCache, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		students:   students,
		staff:      staff,
		courses:    courses,
		attendance: attendance,
		cache:      cache,
		cacheTTL:   cacheTTL,
		logger:     logger,
		nowFn:      func() time.Time { return time.Now().UTC() },
	}
}

// Stats returns the dashboard counters, from cache when fresh.
func (s *DashboardService) Stats(ctx context.Context) (*DashboardStats, error) {
	var cached DashboardStats
	if s.cache != nil {
		if err := s.cache.Get(ctx, dashboardStatsCacheKey, &cached); err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	now := s.nowFn()
	stats := &DashboardStats{GeneratedAt: now}

	var err error
	if stats.Students, err = s.students.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count students")
	}
	if stats.Staff, err = s.staff.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count staff")
	}
	if stats.Courses, err = s.courses.Count(ctx); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count courses")
	}
	if stats.CheckedInToday, err = s.attendance.CountForDate(ctx, dateOnly(now)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count attendance")
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardStatsCacheKey, stats, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}

	return stats, nil
}
