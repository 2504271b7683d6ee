package models

import "time"

// Notification types emitted by workflow transitions and message sends.
const (
	NotificationThesisSubmitted = "thesis_submitted"
	NotificationThesisApproved  = "thesis_approved"
	NotificationThesisRejected  = "thesis_rejected"
	NotificationThesisReturned  = "thesis_returned"
	NotificationNewMessage      = "new_message"
)

// Notification is a fire-and-forget event record addressed to one user.
// Created exclusively as a side effect of a thesis or message state change;
// mutated only by read-marking.
type Notification struct {
	ID               string     `db:"id" json:"id"`
	UserID           string     `db:"user_id" json:"user_id"`
	Type             string     `db:"type" json:"type"`
	Title            string     `db:"title" json:"title"`
	Message          string     `db:"message" json:"message"`
	Icon             string     `db:"icon" json:"icon"`
	Color            string     `db:"color" json:"color"`
	ActionURL        string     `db:"action_url" json:"action_url"`
	RelatedThesisID  *string    `db:"related_thesis_id" json:"related_thesis_id,omitempty"`
	RelatedMessageID *string    `db:"related_message_id" json:"related_message_id,omitempty"`
	ReadAt           *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt        time.Time  `db:"created_at" json:"created_at"`
}

// IsRead reports whether the notification has been read.
func (n *Notification) IsRead() bool {
	return n.ReadAt != nil
}
