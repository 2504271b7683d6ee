package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/thesisflow/thesisflow-api/internal/models"
	"github.com/thesisflow/thesisflow-api/internal/policy"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
)

type documentRepository interface {
	ListByThesis(ctx context.Context, thesisID string) ([]models.DocumentDetail, error)
	FindByID(ctx context.Context, id string) (*models.Document, error)
	CountByThesis(ctx context.Context, thesisID string) (int, error)
	Create(ctx context.Context, document *models.Document) error
	Delete(ctx context.Context, id string) error
}

type documentThesisRepository interface {
	FindByID(ctx context.Context, id string) (*models.ThesisDetail, error)
}

type blobStorage interface {
	SaveStream(relPath string, r io.Reader) (string, error)
	Open(relPath string) (*os.File, error)
	Delete(relPath string) error
}

// UploadDocumentRequest describes a document upload. Content is streamed, not
// buffered; Size comes from the multipart header and is validated before any
// bytes hit disk.
type UploadDocumentRequest struct {
	OriginalName string
	Size         int64
	MimeType     string
	Description  string
	Content      io.Reader
}

// DocumentConfig carries upload constraints.
type DocumentConfig struct {
	MaxFileSizeBytes  int64
	AllowedExtensions []string
}

// DocumentService manages thesis attachments: metadata rows paired with blobs
// on local storage.
type DocumentService struct {
	repo    documentRepository
	theses  documentThesisRepository
	storage blobStorage
	config  DocumentConfig
	logger  *zap.Logger
}

// NewDocumentService constructs a DocumentService.
func NewDocumentService(repo documentRepository, theses documentThesisRepository, storage blobStorage, config DocumentConfig, logger *zap.Logger) *DocumentService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.MaxFileSizeBytes <= 0 {
		config.MaxFileSizeBytes = 50 << 20
	}
	if len(config.AllowedExtensions) == 0 {
		config.AllowedExtensions = []string{"pdf", "doc", "docx", "txt", "zip", "rar"}
	}
	return &DocumentService{repo: repo, theses: theses, storage: storage, config: config, logger: logger}
}

// List returns a thesis's documents for actors allowed to view the thesis.
func (s *DocumentService) List(ctx context.Context, actor models.Actor, thesisID string) ([]models.DocumentDetail, error) {
	if _, err := s.viewableThesis(ctx, actor, thesisID); err != nil {
		return nil, err
	}
	documents, err := s.repo.ListByThesis(ctx, thesisID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list documents")
	}
	return documents, nil
}

// Upload stores a new document version for the thesis. Requires update rights
// on the thesis, so students attach files while the thesis is editable and
// admins always can.
func (s *DocumentService) Upload(ctx context.Context, actor models.Actor, thesisID string, req UploadDocumentRequest) (*models.Document, error) {
	if _, err := s.editableThesis(ctx, actor, thesisID); err != nil {
		return nil, err
	}

	ext := strings.ToLower(strings.TrimPrefix(path.Ext(req.OriginalName), "."))
	if !s.extensionAllowed(ext) {
		return nil, appErrors.Validation("unsupported file type", map[string]string{
			"file": fmt.Sprintf("extension %q is not allowed", ext),
		})
	}
	if req.Size <= 0 || req.Size > s.config.MaxFileSizeBytes {
		return nil, appErrors.Validation("file too large", map[string]string{
			"file": fmt.Sprintf("file size must be between 1 byte and %d bytes", s.config.MaxFileSizeBytes),
		})
	}

	count, err := s.repo.CountByThesis(ctx, thesisID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count documents")
	}

	storedName := uuid.NewString() + "." + ext
	relPath := path.Join(thesisID, storedName)
	if _, err := s.storage.SaveStream(relPath, io.LimitReader(req.Content, s.config.MaxFileSizeBytes)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store document")
	}

	document := &models.Document{
		ThesisID:     thesisID,
		UploadedBy:   actor.ID,
		Filename:     storedName,
		OriginalName: req.OriginalName,
		Path:         relPath,
		Size:         req.Size,
		MimeType:     req.MimeType,
		Extension:    ext,
		Description:  req.Description,
		Version:      count + 1,
	}
	if err := s.repo.Create(ctx, document); err != nil {
		// Row insert failed after the blob was written. Remove the blob so no
		// orphan file survives the failed upload.
		if cleanupErr := s.storage.Delete(relPath); cleanupErr != nil {
			s.logger.Error("orphan blob left after failed document insert",
				zap.String("path", relPath), zap.Error(cleanupErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save document")
	}
	return document, nil
}

// Download opens the blob for a document the actor may view. The caller must
// close the returned file.
func (s *DocumentService) Download(ctx context.Context, actor models.Actor, thesisID, documentID string) (*models.Document, *os.File, error) {
	if _, err := s.viewableThesis(ctx, actor, thesisID); err != nil {
		return nil, nil, err
	}
	document, err := s.fetchForThesis(ctx, thesisID, documentID)
	if err != nil {
		return nil, nil, err
	}
	file, err := s.storage.Open(document.Path)
	if err != nil {
		if os.IsNotExist(err) {
			s.logger.Error("document blob missing for existing row",
				zap.String("document_id", document.ID), zap.String("path", document.Path))
			return nil, nil, appErrors.Clone(appErrors.ErrNotFound, "document file is missing")
		}
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open document")
	}
	return document, file, nil
}

// Delete removes a document's blob and row. Gated on update rights on the
// parent thesis, same as upload.
func (s *DocumentService) Delete(ctx context.Context, actor models.Actor, thesisID, documentID string) error {
	if _, err := s.editableThesis(ctx, actor, thesisID); err != nil {
		return err
	}
	document, err := s.fetchForThesis(ctx, thesisID, documentID)
	if err != nil {
		return err
	}

	// Blob first, row second. A failed blob delete aborts so the row keeps
	// pointing at the still-present file; a failed row delete after a
	// successful blob delete is logged as an inconsistency.
	if err := s.storage.Delete(document.Path); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document file")
	}
	if err := s.repo.Delete(ctx, document.ID); err != nil {
		s.logger.Error("document row survived blob deletion",
			zap.String("document_id", document.ID), zap.String("path", document.Path), zap.Error(err))
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete document")
	}
	return nil
}

func (s *DocumentService) extensionAllowed(ext string) bool {
	for _, allowed := range s.config.AllowedExtensions {
		if ext == strings.ToLower(strings.TrimSpace(allowed)) {
			return true
		}
	}
	return false
}

func (s *DocumentService) fetchForThesis(ctx context.Context, thesisID, documentID string) (*models.Document, error) {
	document, err := s.repo.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load document")
	}
	if document.ThesisID != thesisID {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "document not found")
	}
	return document, nil
}

func (s *DocumentService) viewableThesis(ctx context.Context, actor models.Actor, thesisID string) (*models.ThesisDetail, error) {
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

func (s *DocumentService) editableThesis(ctx context.Context, actor models.Actor, thesisID string) (*models.ThesisDetail, error) {
	detail, err := s.theses.FindByID(ctx, thesisID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "thesis not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load thesis")
	}
	if !policy.CanUpdate(actor, detail.Thesis) {
		return nil, appErrors.ErrForbidden
	}
	return detail, nil
}
