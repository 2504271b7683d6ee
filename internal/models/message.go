package models

import "time"

// Message is a chat entry scoped to one thesis. Messages are append-only;
// the only mutation is the idempotent read-marking.
type Message struct {
	ID        string     `db:"id" json:"id"`
	ThesisID  string     `db:"thesis_id" json:"thesis_id"`
	UserID    string     `db:"user_id" json:"user_id"`
	Body      string     `db:"body" json:"body"`
	ReadAt    *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

// IsRead reports whether the message has been read.
func (m *Message) IsRead() bool {
	return m.ReadAt != nil
}

// MessageDetail carries a message with its author's identity for chat views.
type MessageDetail struct {
	Message
	AuthorName  string   `db:"author_name" json:"author_name"`
	AuthorEmail string   `db:"author_email" json:"author_email"`
	AuthorRole  UserRole `db:"author_role" json:"author_role"`
}
