package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesisflow/thesisflow-api/internal/models"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
	"github.com/thesisflow/thesisflow-api/pkg/storage"
)

type mockDocumentRepo struct {
	documents []models.DocumentDetail
	document  *models.Document
	findErr   error
	count     int
	created   *models.Document
	createErr error
	deletedID string
}

func (m *mockDocumentRepo) ListByThesis(ctx context.Context, thesisID string) ([]models.DocumentDetail, error) {
	return m.documents, nil
}

func (m *mockDocumentRepo) FindByID(ctx context.Context, id string) (*models.Document, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.document, nil
}

func (m *mockDocumentRepo) CountByThesis(ctx context.Context, thesisID string) (int, error) {
	return m.count, nil
}

func (m *mockDocumentRepo) Create(ctx context.Context, document *models.Document) error {
	if m.createErr != nil {
		return m.createErr
	}
	document.ID = "d1"
	m.created = document
	return nil
}

func (m *mockDocumentRepo) Delete(ctx context.Context, id string) error {
	m.deletedID = id
	return nil
}

func newDocumentService(t *testing.T, repo *mockDocumentRepo, detail *models.ThesisDetail) *DocumentService {
	t.Helper()
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	return NewDocumentService(repo, &mockThesisLookup{detail: detail}, store, DocumentConfig{}, nil)
}

func TestDocumentUpload(t *testing.T) {
	repo := &mockDocumentRepo{count: 2}
	svc := newDocumentService(t, repo, thesisDetail(models.StatusDraft))

	content := "dummy pdf bytes"
	document, err := svc.Upload(context.Background(), models.Actor{ID: "student-1", Role: models.RoleStudent}, "t1", UploadDocumentRequest{
		OriginalName: "Thesis Draft.pdf",
		Size:         int64(len(content)),
		MimeType:     "application/pdf",
		Description:  "second revision",
		Content:      strings.NewReader(content),
	})
	require.NoError(t, err)

	assert.Equal(t, 3, document.Version)
	assert.Equal(t, "pdf", document.Extension)
	assert.Equal(t, "Thesis Draft.pdf", document.OriginalName)
	assert.NotEqual(t, "Thesis Draft.pdf", document.Filename)
	assert.True(t, strings.HasSuffix(document.Filename, ".pdf"))
	assert.Equal(t, "student-1", document.UploadedBy)
}

func TestDocumentUploadRejectsExtension(t *testing.T) {
	repo := &mockDocumentRepo{}
	svc := newDocumentService(t, repo, thesisDetail(models.StatusDraft))

	_, err := svc.Upload(context.Background(), models.Actor{ID: "student-1", Role: models.RoleStudent}, "t1", UploadDocumentRequest{
		OriginalName: "malware.exe",
		Size:         10,
		Content:      strings.NewReader("x"),
	})
	require.Error(t, err)

	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Contains(t, appErr.Fields, "file")
	assert.Nil(t, repo.created)
}

func TestDocumentUploadRejectsOversize(t *testing.T) {
	repo := &mockDocumentRepo{}
	svc := newDocumentService(t, repo, thesisDetail(models.StatusDraft))

	_, err := svc.Upload(context.Background(), models.Actor{ID: "student-1", Role: models.RoleStudent}, "t1", UploadDocumentRequest{
		OriginalName: "big.pdf",
		Size:         51 << 20,
		Content:      strings.NewReader("x"),
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

// Upload follows thesis update rights: the owning student only while the
// thesis is editable, the assigned supervisor never, admins always.
func TestDocumentUploadRequiresUpdateRights(t *testing.T) {
	cases := []struct {
		name    string
		actor   models.Actor
		status  models.ThesisStatus
		allowed bool
	}{
		{"owner on draft", models.Actor{ID: "student-1", Role: models.RoleStudent}, models.StatusDraft, true},
		{"owner on returned", models.Actor{ID: "student-1", Role: models.RoleStudent}, models.StatusReturnedForCorrections, true},
		{"owner after approval", models.Actor{ID: "student-1", Role: models.RoleStudent}, models.StatusApproved, false},
		{"assigned supervisor", models.Actor{ID: "supervisor-1", Role: models.RoleSupervisor}, models.StatusDraft, false},
		{"other student", models.Actor{ID: "student-9", Role: models.RoleStudent}, models.StatusDraft, false},
		{"admin after approval", models.Actor{ID: "admin-1", Role: models.RoleAdmin}, models.StatusApproved, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockDocumentRepo{}
			svc := newDocumentService(t, repo, thesisDetail(tc.status))

			_, err := svc.Upload(context.Background(), tc.actor, "t1", UploadDocumentRequest{
				OriginalName: "a.pdf",
				Size:         5,
				Content:      strings.NewReader("abcde"),
			})
			if tc.allowed {
				require.NoError(t, err)
				assert.NotNil(t, repo.created)
			} else {
				require.Error(t, err)
				assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
				assert.Nil(t, repo.created)
			}
		})
	}
}

// Delete is gated the same way as upload: update rights on the thesis.
func TestDocumentDeletePermissions(t *testing.T) {
	document := &models.Document{ID: "d1", ThesisID: "t1", UploadedBy: "student-1", Path: "t1/abc.pdf"}

	cases := []struct {
		name    string
		actor   models.Actor
		status  models.ThesisStatus
		allowed bool
	}{
		{"owner on draft", models.Actor{ID: "student-1", Role: models.RoleStudent}, models.StatusDraft, true},
		{"owner after approval", models.Actor{ID: "student-1", Role: models.RoleStudent}, models.StatusApproved, false},
		{"admin", models.Actor{ID: "admin-1", Role: models.RoleAdmin}, models.StatusApproved, true},
		{"assigned supervisor", models.Actor{ID: "supervisor-1", Role: models.RoleSupervisor}, models.StatusApproved, false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &mockDocumentRepo{document: document}
			svc := newDocumentService(t, repo, thesisDetail(tc.status))

			err := svc.Delete(context.Background(), tc.actor, "t1", "d1")
			if tc.allowed {
				require.NoError(t, err)
				assert.Equal(t, "d1", repo.deletedID)
			} else {
				require.Error(t, err)
				assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
				assert.Empty(t, repo.deletedID)
			}
		})
	}
}

func TestDocumentDeleteRejectsThesisMismatch(t *testing.T) {
	repo := &mockDocumentRepo{document: &models.Document{ID: "d1", ThesisID: "other-thesis"}}
	svc := newDocumentService(t, repo, thesisDetail(models.StatusDraft))

	err := svc.Delete(context.Background(), models.Actor{ID: "admin-1", Role: models.RoleAdmin}, "t1", "d1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDocumentFormattedSize(t *testing.T) {
	cases := []struct {
		size     int64
		expected string
	}{
		{512, "512 B"},
		{2048, "2 KB"},
		{1048576, "1 MB"},
		{1572864, "1.50 MB"},
	}
	for _, tc := range cases {
		document := models.Document{Size: tc.size}
		assert.Equal(t, tc.expected, document.FormattedSize())
	}
}
