package service

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesisflow/thesisflow-api/internal/models"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
)

type mockExportThesisRepo struct {
	listFilter models.ThesisFilter
	theses     []models.ThesisDetail
}

func (m *mockExportThesisRepo) List(ctx context.Context, filter models.ThesisFilter) ([]models.ThesisDetail, int, error) {
	m.listFilter = filter
	return m.theses, len(m.theses), nil
}

func registerFixture() []models.ThesisDetail {
	submitted := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	return []models.ThesisDetail{
		{
			Thesis: models.Thesis{
				ID:           "t1",
				Title:        "Graph Coloring",
				Type:         models.TypeMaster,
				FieldOfStudy: "CS",
				Status:       models.StatusPendingApproval,
				AcademicYear: "2025/2026",
				SubmittedAt:  &submitted,
			},
			StudentName:    "Ana Novak",
			SupervisorName: "Prof. Horvat",
		},
	}
}

func TestExportCSVScopesSupervisor(t *testing.T) {
	repo := &mockExportThesisRepo{theses: registerFixture()}
	svc := NewExportService(repo, nil)

	payload, err := svc.ThesisRegisterCSV(context.Background(), models.Actor{ID: "supervisor-1", Role: models.RoleSupervisor}, models.ThesisFilter{})
	require.NoError(t, err)

	assert.Equal(t, "supervisor-1", repo.listFilter.SupervisorID)
	assert.Equal(t, 1, repo.listFilter.Page)
	assert.Equal(t, 100, repo.listFilter.PageSize)

	out := string(payload)
	assert.Contains(t, out, "Title,Type,Student,Supervisor,Field of Study,Status,Academic Year,Submitted,Approved")
	assert.Contains(t, out, "Graph Coloring,Master,Ana Novak,Prof. Horvat,CS")
	assert.Contains(t, out, "2026-02-01")
}

func TestExportAdminUnscoped(t *testing.T) {
	repo := &mockExportThesisRepo{theses: registerFixture()}
	svc := NewExportService(repo, nil)

	_, err := svc.ThesisRegisterCSV(context.Background(), models.Actor{ID: "admin-1", Role: models.RoleAdmin}, models.ThesisFilter{})
	require.NoError(t, err)
	assert.Empty(t, repo.listFilter.SupervisorID)
	assert.Empty(t, repo.listFilter.StudentID)
}

func TestExportForbiddenForStudents(t *testing.T) {
	svc := NewExportService(&mockExportThesisRepo{}, nil)

	_, err := svc.ThesisRegisterCSV(context.Background(), models.Actor{ID: "student-1", Role: models.RoleStudent}, models.ThesisFilter{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestExportPDFRenders(t *testing.T) {
	repo := &mockExportThesisRepo{theses: registerFixture()}
	svc := NewExportService(repo, nil)

	payload, err := svc.ThesisRegisterPDF(context.Background(), models.Actor{ID: "admin-1", Role: models.RoleAdmin}, models.ThesisFilter{})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(payload, []byte("%PDF")))
}
