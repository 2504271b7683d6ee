package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesisflow/thesisflow-api/internal/models"
)

func TestNotificationListForUserCapsLimit(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "user_id", "type", "title", "message", "icon", "color", "action_url",
		"related_thesis_id", "related_message_id", "read_at", "created_at",
	}).AddRow("n1", "u1", models.NotificationThesisSubmitted, "New Thesis Submitted", "msg", "📝", "yellow", "/theses/t1", "t1", nil, nil, now)

	// limit 0 falls back to 20
	mock.ExpectQuery("SELECT id, user_id, type, .+ FROM notifications WHERE user_id = \\$1 ORDER BY created_at DESC LIMIT 20").
		WithArgs("u1").
		WillReturnRows(rows)

	notifications, err := repo.ListForUser(context.Background(), "u1", 0)
	require.NoError(t, err)
	require.Len(t, notifications, 1)
	assert.Equal(t, "New Thesis Submitted", notifications[0].Title)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// MarkRead only touches unread rows, so re-marking is a no-op.
func TestNotificationMarkRead(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read_at = $2 WHERE id = $1 AND read_at IS NULL")).
		WithArgs("n1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkRead(context.Background(), "n1", time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationMarkAllRead(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE notifications SET read_at = $2 WHERE user_id = $1 AND read_at IS NULL")).
		WithArgs("u1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 5))

	require.NoError(t, repo.MarkAllRead(context.Background(), "u1", time.Now()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewNotificationRepository(db)

	mock.ExpectExec("INSERT INTO notifications").WillReturnResult(sqlmock.NewResult(1, 1))

	thesisID := "t1"
	notification := &models.Notification{
		UserID:          "u1",
		Type:            models.NotificationThesisApproved,
		Title:           "Thesis Approved",
		Message:         "msg",
		Icon:            "✅",
		Color:           "green",
		ActionURL:       "/theses/t1",
		RelatedThesisID: &thesisID,
	}
	require.NoError(t, repo.Create(context.Background(), notification))
	assert.NotEmpty(t, notification.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
