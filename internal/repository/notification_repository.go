package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/thesisflow/thesisflow-api/internal/models"
)

// NotificationRepository manages persistence for in-app notifications.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs a NotificationRepository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// ListForUser returns the newest notifications for a recipient.
func (r *NotificationRepository) ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := fmt.Sprintf(`SELECT id, user_id, type, title, message, icon, color, action_url,
        related_thesis_id, related_message_id, read_at, created_at
        FROM notifications WHERE user_id = $1 ORDER BY created_at DESC LIMIT %d`, limit)
	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return notifications, nil
}

// FindByID fetches a notification by ID.
func (r *NotificationRepository) FindByID(ctx context.Context, id string) (*models.Notification, error) {
	const query = `SELECT id, user_id, type, title, message, icon, color, action_url,
        related_thesis_id, related_message_id, read_at, created_at
        FROM notifications WHERE id = $1`
	var notification models.Notification
	if err := r.db.GetContext(ctx, &notification, query, id); err != nil {
		return nil, err
	}
	return &notification, nil
}

// UnreadCount counts a recipient's unread notifications.
func (r *NotificationRepository) UnreadCount(ctx context.Context, userID string) (int, error) {
	const query = `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND read_at IS NULL`
	var total int
	if err := r.db.GetContext(ctx, &total, query, userID); err != nil {
		return 0, fmt.Errorf("count unread notifications: %w", err)
	}
	return total, nil
}

// Create inserts a notification record.
func (r *NotificationRepository) Create(ctx context.Context, notification *models.Notification) error {
	if err := insertNotification(ctx, r.db, notification); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// MarkRead sets read_at once; re-marking a read notification is a no-op.
func (r *NotificationRepository) MarkRead(ctx context.Context, id string, readAt time.Time) error {
	const query = `UPDATE notifications SET read_at = $2 WHERE id = $1 AND read_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, id, readAt); err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return nil
}

// MarkAllRead sets read_at on every unread notification for the recipient.
func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string, readAt time.Time) error {
	const query = `UPDATE notifications SET read_at = $2 WHERE user_id = $1 AND read_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, userID, readAt); err != nil {
		return fmt.Errorf("mark all notifications read: %w", err)
	}
	return nil
}

// insertNotification writes a notification row through any executor, letting
// transition transactions and standalone creates share one insert path.
func insertNotification(ctx context.Context, ext sqlx.ExtContext, notification *models.Notification) error {
	if notification.ID == "" {
		notification.ID = uuid.NewString()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, user_id, type, title, message, icon, color,
        action_url, related_thesis_id, related_message_id, read_at, created_at)
        VALUES (:id, :user_id, :type, :title, :message, :icon, :color,
        :action_url, :related_thesis_id, :related_message_id, :read_at, :created_at)`
	_, err := sqlx.NamedExecContext(ctx, ext, query, notification)
	return err
}
