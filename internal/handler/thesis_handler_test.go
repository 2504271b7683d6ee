package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesisflow/thesisflow-api/internal/middleware"
	"github.com/thesisflow/thesisflow-api/internal/models"
	"github.com/thesisflow/thesisflow-api/internal/service"
	"github.com/thesisflow/thesisflow-api/internal/workflow"
)

type fakeThesisRepo struct {
	detail     *models.ThesisDetail
	applied    *models.Thesis
	appliedCmd *workflow.Command
}

func (f *fakeThesisRepo) List(ctx context.Context, filter models.ThesisFilter) ([]models.ThesisDetail, int, error) {
	return []models.ThesisDetail{*f.detail}, 1, nil
}

func (f *fakeThesisRepo) FindByID(ctx context.Context, id string) (*models.ThesisDetail, error) {
	copied := *f.detail
	return &copied, nil
}

func (f *fakeThesisRepo) FindByIDIncludingDeleted(ctx context.Context, id string) (*models.ThesisDetail, error) {
	return f.FindByID(ctx, id)
}

func (f *fakeThesisRepo) Create(ctx context.Context, thesis *models.Thesis) error { return nil }
func (f *fakeThesisRepo) Update(ctx context.Context, thesis *models.Thesis) error { return nil }

func (f *fakeThesisRepo) ApplyTransition(ctx context.Context, thesis *models.Thesis, cmd workflow.Command) error {
	f.applied = thesis
	f.appliedCmd = &cmd
	return nil
}

func (f *fakeThesisRepo) SoftDelete(ctx context.Context, id string) error  { return nil }
func (f *fakeThesisRepo) Restore(ctx context.Context, id string) error     { return nil }
func (f *fakeThesisRepo) ForceDelete(ctx context.Context, id string) error { return nil }

type fakeSupervisorLookup struct{}

func (f *fakeSupervisorLookup) FindByID(ctx context.Context, id string) (*models.User, error) {
	return &models.User{ID: id, Role: models.RoleSupervisor}, nil
}

type envelope struct {
	Data  map[string]interface{} `json:"data"`
	Error map[string]interface{} `json:"error"`
}

func newThesisTestHandler(detail *models.ThesisDetail) (*ThesisHandler, *fakeThesisRepo) {
	repo := &fakeThesisRepo{detail: detail}
	svc := service.NewThesisService(repo, &fakeSupervisorLookup{}, nil, nil, nil, nil)
	return NewThesisHandler(svc), repo
}

func draftDetail() *models.ThesisDetail {
	return &models.ThesisDetail{
		Thesis: models.Thesis{
			ID:           "t1",
			StudentID:    "student-1",
			SupervisorID: "supervisor-1",
			Title:        "Graph Coloring",
			Type:         models.TypeMaster,
			Status:       models.StatusDraft,
		},
	}
}

func testContext(t *testing.T, method, target string, body string, claims *models.JWTClaims) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	c.Request = httptest.NewRequest(method, target, reader)
	if body != "" {
		c.Request.Header.Set("Content-Type", "application/json")
	}
	c.Params = gin.Params{{Key: "id", Value: "t1"}}
	if claims != nil {
		c.Set(middleware.ContextUserKey, claims)
	}
	return c, rec
}

func studentClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "student-1", Name: "Ana Novak", Role: models.RoleStudent}
}

func supervisorClaims() *models.JWTClaims {
	return &models.JWTClaims{UserID: "supervisor-1", Name: "Prof. Horvat", Role: models.RoleSupervisor}
}

func TestThesisHandlerSubmit(t *testing.T) {
	handler, repo := newThesisTestHandler(draftDetail())

	c, rec := testContext(t, http.MethodPost, "/theses/t1/submit", "", studentClaims())
	handler.Submit(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var res envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, string(models.StatusPendingApproval), res.Data["status"])
	require.NotNil(t, repo.appliedCmd)
	assert.Equal(t, "supervisor-1", repo.appliedCmd.RecipientID)
}

func TestThesisHandlerSubmitWrongStatus(t *testing.T) {
	detail := draftDetail()
	detail.Status = models.StatusApproved
	handler, repo := newThesisTestHandler(detail)

	c, rec := testContext(t, http.MethodPost, "/theses/t1/submit", "", studentClaims())
	handler.Submit(c)

	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Nil(t, repo.applied)
}

// Unauthenticated requests get the same 403 as a role mismatch.
func TestThesisHandlerSubmitUnauthenticated(t *testing.T) {
	handler, _ := newThesisTestHandler(draftDetail())

	c, rec := testContext(t, http.MethodPost, "/theses/t1/submit", "", nil)
	handler.Submit(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	var res envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, "AUTHENTICATION_REQUIRED", res.Error["code"])
}

func TestThesisHandlerRejectWithoutBody(t *testing.T) {
	detail := draftDetail()
	detail.Status = models.StatusPendingApproval
	handler, repo := newThesisTestHandler(detail)

	c, rec := testContext(t, http.MethodPost, "/theses/t1/reject", "", supervisorClaims())
	handler.Reject(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	var res envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	assert.Equal(t, string(models.StatusRejected), res.Data["status"])
	require.NotNil(t, repo.appliedCmd)
	assert.Equal(t, "student-1", repo.appliedCmd.RecipientID)
}

func TestThesisHandlerReturnRequiresNotes(t *testing.T) {
	detail := draftDetail()
	detail.Status = models.StatusPendingApproval
	handler, repo := newThesisTestHandler(detail)

	c, rec := testContext(t, http.MethodPost, "/theses/t1/return-for-corrections", `{"notes":""}`, supervisorClaims())
	handler.ReturnForCorrections(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Nil(t, repo.applied)

	c, rec = testContext(t, http.MethodPost, "/theses/t1/return-for-corrections", `{"notes":"fix chapter 3"}`, supervisorClaims())
	handler.ReturnForCorrections(c)

	assert.Equal(t, http.StatusOK, rec.Code)
	require.NotNil(t, repo.applied)
	assert.Equal(t, models.StatusReturnedForCorrections, repo.applied.Status)
}

func TestThesisHandlerGetForbidden(t *testing.T) {
	handler, _ := newThesisTestHandler(draftDetail())

	claims := &models.JWTClaims{UserID: "student-9", Role: models.RoleStudent}
	c, rec := testContext(t, http.MethodGet, "/theses/t1", "", claims)
	handler.Get(c)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestThesisHandlerListRejectsUnknownStatus(t *testing.T) {
	handler, _ := newThesisTestHandler(draftDetail())

	c, rec := testContext(t, http.MethodGet, "/theses?status=bogus", "", studentClaims())
	handler.List(c)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
