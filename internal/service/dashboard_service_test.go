package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesisflow/thesisflow-api/internal/models"
)

type mockDashboardThesisRepo struct {
	counts       map[models.ThesisStatus]int
	students     int
	createdSince int
	listFilter   models.ThesisFilter
	recent       []models.ThesisDetail

	statusStudentID    string
	statusSupervisorID string
}

func (m *mockDashboardThesisRepo) List(ctx context.Context, filter models.ThesisFilter) ([]models.ThesisDetail, int, error) {
	m.listFilter = filter
	return m.recent, len(m.recent), nil
}

func (m *mockDashboardThesisRepo) StatusCounts(ctx context.Context, studentID, supervisorID string) (map[models.ThesisStatus]int, error) {
	m.statusStudentID = studentID
	m.statusSupervisorID = supervisorID
	return m.counts, nil
}

func (m *mockDashboardThesisRepo) DistinctStudentCount(ctx context.Context, supervisorID string) (int, error) {
	return m.students, nil
}

func (m *mockDashboardThesisRepo) CountCreatedSince(ctx context.Context, since time.Time) (int, error) {
	return m.createdSince, nil
}

type mockUserCounter struct{ total int }

func (m *mockUserCounter) Count(ctx context.Context) (int, error) {
	return m.total, nil
}

type mockUnreadCounter struct{ unread int }

func (m *mockUnreadCounter) UnreadCount(ctx context.Context, userID string) (int, error) {
	return m.unread, nil
}

func TestDashboardForStudent(t *testing.T) {
	theses := &mockDashboardThesisRepo{
		counts: map[models.ThesisStatus]int{
			models.StatusDraft:           1,
			models.StatusPendingApproval: 1,
			models.StatusApproved:        2,
		},
		recent: []models.ThesisDetail{{Thesis: models.Thesis{ID: "t1"}}},
	}
	svc := NewDashboardService(theses, &mockUserCounter{}, &mockUnreadCounter{unread: 4}, nil, 0, nil)

	dashboard, err := svc.Get(context.Background(), models.Actor{ID: "student-1", Role: models.RoleStudent})
	require.NoError(t, err)

	assert.Equal(t, "student-1", theses.statusStudentID)
	assert.Empty(t, theses.statusSupervisorID)
	assert.Equal(t, 4, dashboard.TotalTheses)
	assert.Equal(t, 1, dashboard.PendingApprovals)
	assert.Equal(t, 4, dashboard.UnreadNotifications)
	assert.Len(t, dashboard.RecentTheses, 1)
	assert.Equal(t, 5, theses.listFilter.PageSize)
	assert.Zero(t, dashboard.TotalUsers)
	assert.Zero(t, dashboard.SupervisedStudents)
}

func TestDashboardForSupervisor(t *testing.T) {
	theses := &mockDashboardThesisRepo{
		counts:   map[models.ThesisStatus]int{models.StatusPendingApproval: 3},
		students: 6,
	}
	svc := NewDashboardService(theses, &mockUserCounter{}, &mockUnreadCounter{}, nil, 0, nil)

	dashboard, err := svc.Get(context.Background(), models.Actor{ID: "supervisor-1", Role: models.RoleSupervisor})
	require.NoError(t, err)

	assert.Equal(t, "supervisor-1", theses.statusSupervisorID)
	assert.Equal(t, 3, dashboard.PendingApprovals)
	assert.Equal(t, 6, dashboard.SupervisedStudents)
}

func TestDashboardForAdmin(t *testing.T) {
	theses := &mockDashboardThesisRepo{
		counts:       map[models.ThesisStatus]int{models.StatusDefended: 10},
		createdSince: 2,
	}
	svc := NewDashboardService(theses, &mockUserCounter{total: 42}, &mockUnreadCounter{}, nil, 0, nil)

	dashboard, err := svc.Get(context.Background(), models.Actor{ID: "admin-1", Role: models.RoleAdmin})
	require.NoError(t, err)

	assert.Empty(t, theses.statusStudentID)
	assert.Empty(t, theses.statusSupervisorID)
	assert.Equal(t, 42, dashboard.TotalUsers)
	assert.Equal(t, 2, dashboard.CreatedLast30Days)
}
