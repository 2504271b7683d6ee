package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/thesisflow/thesisflow-api/internal/models"
	"github.com/thesisflow/thesisflow-api/internal/service"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
	"github.com/thesisflow/thesisflow-api/pkg/response"
)

// ExportHandler wires HTTP endpoints to the export service.
type ExportHandler struct {
	service *service.ExportService
}

// NewExportHandler creates a new handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{service: svc}
}

// ThesisRegisterCSV godoc
// @Summary Export thesis register as CSV
// @Description Download the thesis register scoped to the current user's role
// @Tags Exports
// @Produce text/csv
// @Param status query string false "Filter by status"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/theses/csv [get]
func (h *ExportHandler) ThesisRegisterCSV(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	filter, ok := exportFilter(c)
	if !ok {
		return
	}

	payload, err := h.service.ThesisRegisterCSV(c.Request.Context(), claims.Actor(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := "thesis-register-" + time.Now().UTC().Format("2006-01-02") + ".csv"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "text/csv", payload)
}

// ThesisRegisterPDF godoc
// @Summary Export thesis register as PDF
// @Description Download the thesis register scoped to the current user's role
// @Tags Exports
// @Produce application/pdf
// @Param status query string false "Filter by status"
// @Success 200 {file} binary
// @Failure 403 {object} response.Envelope
// @Router /exports/theses/pdf [get]
func (h *ExportHandler) ThesisRegisterPDF(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	filter, ok := exportFilter(c)
	if !ok {
		return
	}

	payload, err := h.service.ThesisRegisterPDF(c.Request.Context(), claims.Actor(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	filename := "thesis-register-" + time.Now().UTC().Format("2006-01-02") + ".pdf"
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", payload)
}

func exportFilter(c *gin.Context) (models.ThesisFilter, bool) {
	filter := models.ThesisFilter{Search: c.Query("search")}
	if raw := c.Query("status"); raw != "" {
		status := models.ThesisStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Validation("invalid status filter", map[string]string{
				"status": "unknown status value",
			}))
			return filter, false
		}
		filter.Status = &status
	}
	return filter, true
}
