package handler

import (
	"mime"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thesisflow/thesisflow-api/internal/service"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
	"github.com/thesisflow/thesisflow-api/pkg/response"
)

// DocumentHandler wires HTTP endpoints to the document service.
type DocumentHandler struct {
	service *service.DocumentService
}

// NewDocumentHandler creates a new handler.
func NewDocumentHandler(svc *service.DocumentService) *DocumentHandler {
	return &DocumentHandler{service: svc}
}

// List godoc
// @Summary List thesis documents
// @Description List a thesis's documents newest first
// @Tags Documents
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /theses/{id}/documents [get]
func (h *DocumentHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	documents, err := h.service.List(c.Request.Context(), claims.Actor(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, documents, nil)
}

// Upload godoc
// @Summary Upload thesis document
// @Description Attach a file to the thesis as the next document version
// @Tags Documents
// @Accept mpfd
// @Produce json
// @Param id path string true "Thesis ID"
// @Param file formData file true "Document file"
// @Param description formData string false "Description"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /theses/{id}/documents [post]
func (h *DocumentHandler) Upload(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Validation("file is required", map[string]string{
			"file": "multipart file field is missing",
		}))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload"))
		return
	}
	defer file.Close() //nolint:errcheck

	document, err := h.service.Upload(c.Request.Context(), claims.Actor(), c.Param("id"), service.UploadDocumentRequest{
		OriginalName: fileHeader.Filename,
		Size:         fileHeader.Size,
		MimeType:     fileHeader.Header.Get("Content-Type"),
		Description:  c.PostForm("description"),
		Content:      file,
	})
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, document)
}

// Download godoc
// @Summary Download thesis document
// @Description Stream the document blob with its original filename
// @Tags Documents
// @Produce octet-stream
// @Param id path string true "Thesis ID"
// @Param documentId path string true "Document ID"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /theses/{id}/documents/{documentId}/download [get]
func (h *DocumentHandler) Download(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	document, file, err := h.service.Download(c.Request.Context(), claims.Actor(), c.Param("id"), c.Param("documentId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer file.Close() //nolint:errcheck

	contentType := document.MimeType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	extraHeaders := map[string]string{
		"Content-Disposition": mime.FormatMediaType("attachment", map[string]string{
			"filename": document.OriginalName,
		}),
	}
	c.DataFromReader(http.StatusOK, document.Size, contentType, file, extraHeaders)
}

// Delete godoc
// @Summary Delete thesis document
// @Description Remove a document's file and metadata
// @Tags Documents
// @Produce json
// @Param id path string true "Thesis ID"
// @Param documentId path string true "Document ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /theses/{id}/documents/{documentId} [delete]
func (h *DocumentHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.Actor(), c.Param("id"), c.Param("documentId")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
