package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesisflow/thesisflow-api/internal/models"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
)

type mockNotificationRepo struct {
	notifications []models.Notification
	notification  *models.Notification
	findErr       error
	unread        int
	markedID      string
	markedAllFor  string
	listLimit     int
}

func (m *mockNotificationRepo) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	m.listLimit = limit
	return m.notifications, nil
}

func (m *mockNotificationRepo) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.notification, nil
}

func (m *mockNotificationRepo) UnreadCount(ctx context.Context, userID string) (int, error) {
	return m.unread, nil
}

func (m *mockNotificationRepo) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	m.markedID = id
	return nil
}

func (m *mockNotificationRepo) MarkAllRead(ctx context.Context, userID string, readAt time.Time) error {
	m.markedAllFor = userID
	return nil
}

func TestNotificationMarkReadOwnershipCheck(t *testing.T) {
	repo := &mockNotificationRepo{notification: &models.Notification{ID: "n1", UserID: "user-1"}}
	svc := NewNotificationService(repo, nil, nil)

	err := svc.MarkRead(context.Background(), "user-2", "n1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.markedID)

	err = svc.MarkRead(context.Background(), "user-1", "n1")
	require.NoError(t, err)
	assert.Equal(t, "n1", repo.markedID)
}

func TestNotificationMarkReadNotFound(t *testing.T) {
	repo := &mockNotificationRepo{findErr: sql.ErrNoRows}
	svc := NewNotificationService(repo, nil, nil)

	err := svc.MarkRead(context.Background(), "user-1", "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestNotificationMarkAllRead(t *testing.T) {
	repo := &mockNotificationRepo{}
	svc := NewNotificationService(repo, nil, nil)

	require.NoError(t, svc.MarkAllRead(context.Background(), "user-1"))
	assert.Equal(t, "user-1", repo.markedAllFor)
}

func TestNotificationUnreadCountWithoutCache(t *testing.T) {
	repo := &mockNotificationRepo{unread: 7}
	svc := NewNotificationService(repo, nil, nil)

	count, err := svc.UnreadCount(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 7, count)
}

func TestNotificationListPassesLimit(t *testing.T) {
	repo := &mockNotificationRepo{notifications: []models.Notification{{ID: "n1"}}}
	svc := NewNotificationService(repo, nil, nil)

	notifications, err := svc.List(context.Background(), "user-1", 5)
	require.NoError(t, err)
	assert.Len(t, notifications, 1)
	assert.Equal(t, 5, repo.listLimit)
}
