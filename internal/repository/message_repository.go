package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/thesisflow/thesisflow-api/internal/models"
)

// MessageRepository manages persistence for thesis chat messages.
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository constructs a MessageRepository.
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// ListByThesis returns a thesis's messages oldest first, with author identity.
func (r *MessageRepository) ListByThesis(ctx context.Context, thesisID string) ([]models.MessageDetail, error) {
	const query = `SELECT m.id, m.thesis_id, m.user_id, m.body, m.read_at, m.created_at,
        u.name AS author_name, u.email AS author_email, u.role AS author_role
        FROM messages m JOIN users u ON u.id = m.user_id
        WHERE m.thesis_id = $1 ORDER BY m.created_at ASC`
	var messages []models.MessageDetail
	if err := r.db.SelectContext(ctx, &messages, query, thesisID); err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	return messages, nil
}

// Create inserts a new message record.
func (r *MessageRepository) Create(ctx context.Context, message *models.Message) error {
	if message.ID == "" {
		message.ID = uuid.NewString()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO messages (id, thesis_id, user_id, body, read_at, created_at)
        VALUES (:id, :thesis_id, :user_id, :body, :read_at, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, message); err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// MarkReadForReader marks every unread message on the thesis that was sent by
// someone other than the reader. Re-marking already-read messages is a no-op.
func (r *MessageRepository) MarkReadForReader(ctx context.Context, thesisID, readerID string, readAt time.Time) error {
	const query = `UPDATE messages SET read_at = $3
        WHERE thesis_id = $1 AND user_id <> $2 AND read_at IS NULL`
	if _, err := r.db.ExecContext(ctx, query, thesisID, readerID, readAt); err != nil {
		return fmt.Errorf("mark messages read: %w", err)
	}
	return nil
}

// UnreadCount counts messages on the thesis addressed to the reader that have
// not been read yet.
func (r *MessageRepository) UnreadCount(ctx context.Context, thesisID, readerID string) (int, error) {
	const query = `SELECT COUNT(*) FROM messages
        WHERE thesis_id = $1 AND user_id <> $2 AND read_at IS NULL`
	var total int
	if err := r.db.GetContext(ctx, &total, query, thesisID, readerID); err != nil {
		return 0, fmt.Errorf("count unread messages: %w", err)
	}
	return total, nil
}
