package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/thesisflow/thesisflow-api/internal/models"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
)

type dashboardThesisRepository interface {
	List(ctx context.Context, filter models.ThesisFilter) ([]models.ThesisDetail, int, error)
	StatusCounts(ctx context.Context, studentID, supervisorID string) (map[models.ThesisStatus]int, error)
	DistinctStudentCount(ctx context.Context, supervisorID string) (int, error)
	CountCreatedSince(ctx context.Context, since time.Time) (int, error)
}

type dashboardUserRepository interface {
	Count(ctx context.Context) (int, error)
}

type dashboardNotificationRepository interface {
	UnreadCount(ctx context.Context, userID string) (int, error)
}

// Dashboard is the role-dependent summary rendered on the landing page.
type Dashboard struct {
	Role                models.UserRole              `json:"role"`
	StatusCounts        map[models.ThesisStatus]int  `json:"status_counts"`
	TotalTheses         int                          `json:"total_theses"`
	PendingApprovals    int                          `json:"pending_approvals"`
	SupervisedStudents  int                          `json:"supervised_students,omitempty"`
	TotalUsers          int                          `json:"total_users,omitempty"`
	CreatedLast30Days   int                          `json:"created_last_30_days,omitempty"`
	UnreadNotifications int                          `json:"unread_notifications"`
	RecentTheses        []models.ThesisDetail        `json:"recent_theses"`
	GeneratedAt         time.Time                    `json:"generated_at"`
}

// DashboardService assembles per-role summaries, cached briefly per user.
type DashboardService struct {
	theses        dashboardThesisRepository
	users         dashboardUserRepository
	notifications dashboardNotificationRepository
	cache         *CacheService
	cacheTTL      time.Duration
	logger        *zap.Logger
	now           func() time.Time
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(theses dashboardThesisRepository, users dashboardUserRepository, notifications dashboardNotificationRepository, cache *CacheService, cacheTTL time.Duration, logger *zap.Logger) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		theses:        theses,
		users:         users,
		notifications: notifications,
		cache:         cache,
		cacheTTL:      cacheTTL,
		logger:        logger,
		now:           func() time.Time { return time.Now().UTC() },
	}
}

// Get builds the dashboard for the actor's role. Students see their own
// theses, supervisors their supervision load, admins system-wide totals.
func (s *DashboardService) Get(ctx context.Context, actor models.Actor) (*Dashboard, error) {
	key := "dashboard:" + actor.ID

	var cached Dashboard
	if hit, err := s.cache.Get(ctx, key, &cached); err == nil && hit {
		return &cached, nil
	}

	var studentID, supervisorID string
	switch actor.Role {
	case models.RoleStudent:
		studentID = actor.ID
	case models.RoleSupervisor:
		supervisorID = actor.ID
	case models.RoleAdmin:
	default:
		return nil, appErrors.ErrForbidden
	}

	counts, err := s.theses.StatusCounts(ctx, studentID, supervisorID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to aggregate theses")
	}
	total := 0
	for _, count := range counts {
		total += count
	}

	unread, err := s.notifications.UnreadCount(ctx, actor.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count unread notifications")
	}

	recent, _, err := s.theses.List(ctx, models.ThesisFilter{
		StudentID:    studentID,
		SupervisorID: supervisorID,
		Page:         1,
		PageSize:     5,
	})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list recent theses")
	}

	dashboard := &Dashboard{
		Role:                actor.Role,
		StatusCounts:        counts,
		TotalTheses:         total,
		PendingApprovals:    counts[models.StatusPendingApproval],
		UnreadNotifications: unread,
		RecentTheses:        recent,
		GeneratedAt:         s.now(),
	}

	switch actor.Role {
	case models.RoleSupervisor:
		students, err := s.theses.DistinctStudentCount(ctx, actor.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count supervised students")
		}
		dashboard.SupervisedStudents = students
	case models.RoleAdmin:
		users, err := s.users.Count(ctx)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count users")
		}
		dashboard.TotalUsers = users

		created, err := s.theses.CountCreatedSince(ctx, s.now().AddDate(0, 0, -30))
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count recent theses")
		}
		dashboard.CreatedLast30Days = created
	}

	if err := s.cache.Set(ctx, key, dashboard, s.cacheTTL); err != nil {
		s.logger.Warn("failed to cache dashboard", zap.String("user_id", actor.ID), zap.Error(err))
	}
	return dashboard, nil
}
