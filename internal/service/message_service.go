package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/thesisflow/thesisflow-api/internal/models"
	"github.com/thesisflow/thesisflow-api/internal/policy"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
)

const maxMessageLength = 5000

type messageRepository interface {
	ListByThesis(ctx context.Context, thesisID string) ([]models.MessageDetail, error)
	Create(ctx context.Context, message *models.Message) error
	MarkReadForReader(ctx context.Context, thesisID, readerID string, readAt time.Time) error
	UnreadCount(ctx context.Context, thesisID, readerID string) (int, error)
}

type messageNotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
}

type messageThesisRepository interface {
	FindByID(ctx context.Context, id string) (*models.ThesisDetail, error)
}

// MessageService handles the per-thesis conversation between student and
// supervisor.
type MessageService struct {
	repo          messageRepository
	notifications messageNotificationRepository
	theses        messageThesisRepository
	logger        *zap.Logger
	now           func() time.Time
}

// NewMessageService constructs a MessageService.
func NewMessageService(repo messageRepository, notifications messageNotificationRepository, theses messageThesisRepository, logger *zap.Logger) *MessageService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MessageService{
		repo:          repo,
		notifications: notifications,
		theses:        theses,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// List returns the thesis conversation oldest first. Reading the conversation
// marks the counterpart's messages read in the same request.
func (s *MessageService) List(ctx context.Context, actor models.Actor, thesisID string) ([]models.MessageDetail, error) {
	if _, err := s.viewableThesis(ctx, actor, thesisID); err != nil {
		return nil, err
	}

	if err := s.repo.MarkReadForReader(ctx, thesisID, actor.ID, s.now()); err != nil {
		s.logger.Warn("failed to mark messages read", zap.String("thesis_id", thesisID), zap.Error(err))
	}

	messages, err := s.repo.ListByThesis(ctx, thesisID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list messages")
	}
	return messages, nil
}

// Create posts a message on the thesis and notifies the counterpart: the
// supervisor when a student writes, the student otherwise.
func (s *MessageService) Create(ctx context.Context, actor models.Actor, thesisID, body string) (*models.Message, error) {
	detail, err := s.viewableThesis(ctx, actor, thesisID)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(body) == "" {
		return nil, appErrors.Validation("message body is required", map[string]string{
			"body": "body must not be empty",
		})
	}
	if len([]rune(body)) > maxMessageLength {
		return nil, appErrors.Validation("message body is too long", map[string]string{
			"body": fmt.Sprintf("body must not exceed %d characters", maxMessageLength),
		})
	}

	message := &models.Message{
		ThesisID:  thesisID,
		UserID:    actor.ID,
		Body:      body,
		CreatedAt: s.now(),
	}
	if err := s.repo.Create(ctx, message); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create message")
	}

	recipientID := detail.SupervisorID
	if actor.ID != detail.StudentID {
		recipientID = detail.StudentID
	}
	notification := &models.Notification{
		UserID:           recipientID,
		Type:             models.NotificationNewMessage,
		Title:            "New Message",
		Message:          fmt.Sprintf("%s sent a message about %q", actor.Name, detail.Title),
		Icon:             "💬",
		Color:            "blue",
		ActionURL:        "/theses/" + thesisID,
		RelatedThesisID:  &detail.ID,
		RelatedMessageID: &message.ID,
	}
	if err := s.notifications.Create(ctx, notification); err != nil {
		// The message itself is committed; a lost notification is logged, not
		// surfaced.
		s.logger.Warn("failed to create message notification",
			zap.String("thesis_id", thesisID), zap.String("message_id", message.ID), zap.Error(err))
	}

	return message, nil
}

// UnreadCount counts messages on the thesis the actor has not read yet.
func (s *MessageService) UnreadCount(ctx context.Context, actor models.Actor, thesisID string) (int, error) {
	if _, err := s.viewableThesis(ctx, actor, thesisID); err != nil {
		return 0, err
	}
	count, err := s.repo.UnreadCount(ctx, thesisID, actor.ID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread messages")
	}
	return count, nil
}

func (s *MessageService) viewableThesis(ctx context.Context, actor models.Actor, thesisID string) (*models.ThesisDetail, error) {
	detail, err := s.theses.FindByID(ctx, thesisID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "thesis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thesis")
	}
	if !policy.CanView(actor, detail.Thesis) {
		return nil, appErrors.ErrForbidden
	}
	return detail, nil
}
