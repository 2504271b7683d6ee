package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/thesisflow/thesisflow-api/internal/models"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
)

type notificationRepository interface {
	ListForUser(ctx context.Context, userID string, limit int) ([]models.Notification, error)
	FindByID(ctx context.Context, id string) (*models.Notification, error)
	UnreadCount(ctx context.Context, userID string) (int, error)
	MarkRead(ctx context.Context, id string, readAt time.Time) error
	MarkAllRead(ctx context.Context, userID string, readAt time.Time) error
}

// NotificationService exposes a user's in-app notification feed.
type NotificationService struct {
	repo   notificationRepository
	cache  *CacheService
	logger *zap.Logger
	now    func() time.Time
}

// NewNotificationService constructs a NotificationService.
func NewNotificationService(repo notificationRepository, cache *CacheService, logger *zap.Logger) *NotificationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NotificationService{
		repo:   repo,
		cache:  cache,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// List returns the recipient's newest notifications, capped at 20 by default.
func (s *NotificationService) List(ctx context.Context, userID string, limit int) ([]models.Notification, error) {
	notifications, err := s.repo.ListForUser(ctx, userID, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notifications")
	}
	return notifications, nil
}

// UnreadCount returns the recipient's unread notification count. The count is
// cached for a short window since the frontend polls it.
func (s *NotificationService) UnreadCount(ctx context.Context, userID string) (int, error) {
	key := "notifications:unread:" + userID

	var cached int
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return cached, nil
	}

	count, err := s.repo.UnreadCount(ctx, userID)
	if err != nil {
		return 0, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}
	if err := s.cache.Set(ctx, key, count, 30*time.Second); err != nil {
		s.logger.Warn("failed to cache unread count", zap.String("user_id", userID), zap.Error(err))
	}
	return count, nil
}

// MarkRead marks one of the recipient's notifications read. Recipients can
// only mark their own notifications.
func (s *NotificationService) MarkRead(ctx context.Context, userID, notificationID string) error {
	notification, err := s.repo.FindByID(ctx, notificationID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "notification not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notification")
	}
	if notification.UserID != userID {
		return appErrors.ErrForbidden
	}
	if err := s.repo.MarkRead(ctx, notificationID, s.now()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notification read")
	}
	s.invalidateUnread(ctx, userID)
	return nil
}

// MarkAllRead marks every unread notification for the recipient read.
func (s *NotificationService) MarkAllRead(ctx context.Context, userID string) error {
	if err := s.repo.MarkAllRead(ctx, userID, s.now()); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to mark notifications read")
	}
	s.invalidateUnread(ctx, userID)
	return nil
}

func (s *NotificationService) invalidateUnread(ctx context.Context, userID string) {
	if err := s.cache.Invalidate(ctx, "notifications:unread:"+userID); err != nil {
		s.logger.Warn("failed to invalidate unread count cache", zap.String("user_id", userID), zap.Error(err))
	}
}
