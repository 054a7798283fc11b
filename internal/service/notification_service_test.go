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

type mockNotificationRepo struct {
	created []models.Notification
	read    map[string]string
}

func (m *mockNotificationRepo) Create(ctx context.Context, n *models.Notification) error {
	n.ID = "n1"
	m.created = append(m.created, *n)
	return nil
}

func (m *mockNotificationRepo) ListByUser(ctx context.Context, userID string) ([]models.Notification, error) {
	return nil, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id, userID string) error {
	if m.read == nil || m.read[id] != userID {
		return sql.ErrNoRows
	}
	return nil
}

type mockNotificationUsers struct {
	users map[string]*models.User
}

func (m *mockNotificationUsers) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func notificationFixture(repo *mockNotificationRepo) *NotificationService {
	users := &mockNotificationUsers{users: map[string]*models.User{"u1": {ID: "u1"}}}
	return NewNotificationService(repo, users, validator.New(), zap.NewNop())
}

func TestNotificationSend(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := notificationFixture(repo)

	n, err := svc.Send(context.Background(), SendNotificationRequest{UserID: "u1", Title: "Exam moved", Message: "Room 204, same time"})
	require.NoError(t, err)
	assert.False(t, n.Read)
	require.Len(t, repo.created, 1)
	assert.Equal(t, "u1", repo.created[0].UserID)
}

func TestNotificationSendUnknownUser(t *testing.T) {
	svc := notificationFixture(&mockNotificationRepo{})

	_, err := svc.Send(context.Background(), SendNotificationRequest{UserID: "ghost", Title: "t", Message: "m"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestNotificationMarkReadScopedToOwner(t *testing.T) {
	repo := &mockNotificationRepo{read: map[string]string{"n1": "u1"}}
	svc := notificationFixture(repo)

	require.NoError(t, svc.MarkRead(context.Background(), "n1", "u1"))

	err := svc.MarkRead(context.Background(), "n1", "someone-else")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
