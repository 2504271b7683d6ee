package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thesisflow/thesisflow-api/internal/models"
)

func TestDocumentListByThesis(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "thesis_id", "uploaded_by", "filename", "original_name", "path",
		"size", "mime_type", "extension", "description", "version", "created_at", "updated_at",
		"uploader_name",
	}).AddRow("d1", "t1", "s1", "abc.pdf", "draft.pdf", "t1/abc.pdf",
		1024, "application/pdf", "pdf", "", 2, now, now,
		"Ana Novak")

	mock.ExpectQuery("SELECT d.id, d.thesis_id, .+ FROM documents d JOIN users u").
		WithArgs("t1").
		WillReturnRows(rows)

	documents, err := repo.ListByThesis(context.Background(), "t1")
	require.NoError(t, err)
	require.Len(t, documents, 1)
	assert.Equal(t, "Ana Novak", documents[0].UploaderName)
	assert.Equal(t, 2, documents[0].Version)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentCountByThesis(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM documents WHERE thesis_id = $1")).
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	count, err := repo.CountByThesis(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentCreate(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec("INSERT INTO documents").WillReturnResult(sqlmock.NewResult(1, 1))

	document := &models.Document{
		ThesisID:     "t1",
		UploadedBy:   "s1",
		Filename:     "abc.pdf",
		OriginalName: "draft.pdf",
		Path:         "t1/abc.pdf",
		Size:         1024,
		MimeType:     "application/pdf",
		Extension:    "pdf",
		Version:      1,
	}
	require.NoError(t, repo.Create(context.Background(), document))
	assert.NotEmpty(t, document.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDocumentDelete(t *testing.T) {
	db, mock, cleanup := newMock(t)
	defer cleanup()
	repo := NewDocumentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM documents WHERE id = $1")).
		WithArgs("d1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.Delete(context.Background(), "d1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
