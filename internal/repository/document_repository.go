package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/thesisflow/thesisflow-api/internal/models"
)

// DocumentRepository manages persistence for document metadata rows.
type DocumentRepository struct {
	db *sqlx.DB
}

// NewDocumentRepository constructs a DocumentRepository.
func NewDocumentRepository(db *sqlx.DB) *DocumentRepository {
	return &DocumentRepository{db: db}
}

// ListByThesis returns a thesis's documents newest first, with uploader names.
func (r *DocumentRepository) ListByThesis(ctx context.Context, thesisID string) ([]models.DocumentDetail, error) {
	const query = `SELECT d.id, d.thesis_id, d.uploaded_by, d.filename, d.original_name, d.path,
        d.size, d.mime_type, d.extension, d.description, d.version, d.created_at, d.updated_at,
        u.name AS uploader_name
        FROM documents d JOIN users u ON u.id = d.uploaded_by
        WHERE d.thesis_id = $1 ORDER BY d.created_at DESC`
	var documents []models.DocumentDetail
	if err := r.db.SelectContext(ctx, &documents, query, thesisID); err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return documents, nil
}

// FindByID fetches a document by ID.
func (r *DocumentRepository) FindByID(ctx context.Context, id string) (*models.Document, error) {
	const query = `SELECT id, thesis_id, uploaded_by, filename, original_name, path, size,
        mime_type, extension, description, version, created_at, updated_at
        FROM documents WHERE id = $1`
	var document models.Document
	if err := r.db.GetContext(ctx, &document, query, id); err != nil {
		return nil, err
	}
	return &document, nil
}

// CountByThesis returns how many documents a thesis has; the next upload's
// version number is this count plus one.
func (r *DocumentRepository) CountByThesis(ctx context.Context, thesisID string) (int, error) {
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM documents WHERE thesis_id = $1", thesisID); err != nil {
		return 0, fmt.Errorf("count documents: %w", err)
	}
	return total, nil
}

// Create inserts a new document record.
func (r *DocumentRepository) Create(ctx context.Context, document *models.Document) error {
	if document.ID == "" {
		document.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if document.CreatedAt.IsZero() {
		document.CreatedAt = now
	}
	document.UpdatedAt = now
	const query = `INSERT INTO documents (id, thesis_id, uploaded_by, filename, original_name,
        path, size, mime_type, extension, description, version, created_at, updated_at)
        VALUES (:id, :thesis_id, :uploaded_by, :filename, :original_name,
        :path, :size, :mime_type, :extension, :description, :version, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, document); err != nil {
		return fmt.Errorf("create document: %w", err)
	}
	return nil
}

// Delete removes a document row.
func (r *DocumentRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, "DELETE FROM documents WHERE id = $1", id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}
