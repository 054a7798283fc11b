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

type mockCleanupUsers struct {
	users      map[string]*models.User
	incomplete []models.User
	deleted    []string
}

func (m *mockCleanupUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockCleanupUsers) ListIncomplete(ctx context.Context) ([]models.User, error) {
	return m.incomplete, nil
}

func (m *mockCleanupUsers) Delete(ctx context.Context, id string) (bool, error) {
	m.deleted = append(m.deleted, id)
	return true, nil
}

func cleanupFixture() *mockCleanupUsers {
	return &mockCleanupUsers{users: map[string]*models.User{
		"admin1":  {ID: "admin1", Email: "admin@example.com", Role: models.RoleAdmin},
		"staff1":  {ID: "staff1", Email: "staff@example.com", Role: models.RoleStaff},
		"target1": {ID: "target1", Email: "target@example.com", Role: models.RoleStudent},
	}}
}

func TestCleanupIncomplete(t *testing.T) {
	users := cleanupFixture()
	users.incomplete = []models.User{
		{ID: "orphan1", Email: "orphan1@example.com", Role: models.RoleStudent},
		{ID: "orphan2", Email: "orphan2@example.com", Role: models.RoleInstructor},
	}
	svc := NewCleanupService(users, validator.New(), zap.NewNop())

	result, err := svc.Run(context.Background(), "admin1", CleanupRequest{Action: CleanupActionIncomplete})
	require.NoError(t, err)
	assert.Equal(t, 2, result.Deleted)
	assert.Equal(t, []string{"Deleted: orphan1@example.com", "Deleted: orphan2@example.com"}, result.Details)
	assert.Equal(t, []string{"orphan1", "orphan2"}, users.deleted)
}

func TestCleanupDeleteUser(t *testing.T) {
	users := cleanupFixture()
	svc := NewCleanupService(users, validator.New(), zap.NewNop())

	result, err := svc.Run(context.Background(), "admin1", CleanupRequest{Action: CleanupActionDeleteUser, UserID: "target1"})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, []string{"Deleted: target@example.com"}, result.Details)
}

func TestCleanupDeleteUserRejectsSelf(t *testing.T) {
	users := cleanupFixture()
	svc := NewCleanupService(users, validator.New(), zap.NewNop())

	_, err := svc.Run(context.Background(), "admin1", CleanupRequest{Action: CleanupActionDeleteUser, UserID: "admin1"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, users.deleted)
}

func TestCleanupRejectsNonAdmin(t *testing.T) {
	users := cleanupFixture()
	svc := NewCleanupService(users, validator.New(), zap.NewNop())

	_, err := svc.Run(context.Background(), "staff1", CleanupRequest{Action: CleanupActionIncomplete})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestCleanupDeleteUserRequiresID(t *testing.T) {
	svc := NewCleanupService(cleanupFixture(), validator.New(), zap.NewNop())

	_, err := svc.Run(context.Background(), "admin1", CleanupRequest{Action: CleanupActionDeleteUser})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
