package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockCounter struct {
	value int
	calls int
}

func (m *mockCounter) Count(context.Context) (int, error) {
	m.calls++
	return m.value, nil
}

type mockDateCounter struct {
	value    int
	lastDate time.Time
}

func (m *mockDateCounter) CountForDate(_ context.Context, date time.Time) (int, error) {
	m.lastDate = date
	return m.value, nil
}

func TestDashboardStats(t *testing.T) {
	students := &mockCounter{value: 120}
	staff := &mockCounter{value: 14}
	courses := &mockCounter{value: 9}
	attendance := &mockDateCounter{value: 42}
	cache := &fakeCache{}

	svc := NewDashboardService(students, staff, courses, attendance, cache, time.Minute, nil)
	svc.nowFn = fixedClock(time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC))

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 120, stats.Students)
	assert.Equal(t, 14, stats.Staff)
	assert.Equal(t, 9, stats.Courses)
	assert.Equal(t, 42, stats.CheckedInToday)
	assert.Equal(t, dateOnly(svc.nowFn()), attendance.lastDate)
	assert.Contains(t, cache.entries, "dashboard:stats")
}

func TestDashboardStatsCacheHit(t *testing.T) {
	students := &mockCounter{value: 120}
	cache := &fakeCache{}

	svc := NewDashboardService(students, &mockCounter{}, &mockCounter{}, &mockDateCounter{}, cache, time.Minute, nil)
	svc.nowFn = fixedClock(time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC))

	_, err := svc.Stats(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, students.calls)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 120, stats.Students)
	assert.Equal(t, 1, students.calls)
}

func TestDashboardStatsWithoutCache(t *testing.T) {
	svc := NewDashboardService(&mockCounter{value: 1}, &mockCounter{}, &mockCounter{}, &mockDateCounter{}, nil, time.Minute, nil)

	stats, err := svc.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Students)
}
