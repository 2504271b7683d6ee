package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/thesisflow/thesisflow-api/internal/models"
	"github.com/thesisflow/thesisflow-api/internal/service"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
	"github.com/thesisflow/thesisflow-api/pkg/response"
)

// ThesisHandler wires HTTP endpoints to the thesis service.
type ThesisHandler struct {
	service *service.ThesisService
}

// NewThesisHandler creates a new handler.
func NewThesisHandler(svc *service.ThesisService) *ThesisHandler {
	return &ThesisHandler{service: svc}
}

// List godoc
// @Summary List theses
// @Description List theses visible to the current user, filtered and paginated
// @Tags Theses
// @Produce json
// @Param status query string false "Filter by status"
// @Param search query string false "Search in title"
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /theses [get]
func (h *ThesisHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	filter := models.ThesisFilter{
		Search: c.Query("search"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.ThesisStatus(raw)
		if !status.Valid() {
			response.Error(c, appErrors.Validation("invalid status filter", map[string]string{
				"status": "unknown status value",
			}))
			return
		}
		filter.Status = &status
	}
	filter.Page, _ = strconv.Atoi(c.DefaultQuery("page", "1"))
	filter.PageSize, _ = strconv.Atoi(c.DefaultQuery("page_size", "15"))

	theses, pagination, err := h.service.List(c.Request.Context(), claims.Actor(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, theses, pagination)
}

// Get godoc
// @Summary Get thesis
// @Description Fetch one thesis with participant details
// @Tags Theses
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /theses/{id} [get]
func (h *ThesisHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	detail, err := h.service.Get(c.Request.Context(), claims.Actor(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Create thesis
// @Description Register a new thesis in draft for the current student
// @Tags Theses
// @Accept json
// @Produce json
// @Param payload body service.CreateThesisRequest true "Thesis payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /theses [post]
func (h *ThesisHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	var req service.CreateThesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid thesis payload"))
		return
	}

	thesis, err := h.service.Create(c.Request.Context(), claims.Actor(), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, thesis)
}

// Update godoc
// @Summary Update thesis
// @Description Update the content fields of a thesis
// @Tags Theses
// @Accept json
// @Produce json
// @Param id path string true "Thesis ID"
// @Param payload body service.UpdateThesisRequest true "Thesis payload"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /theses/{id} [put]
func (h *ThesisHandler) Update(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	var req service.UpdateThesisRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid thesis payload"))
		return
	}

	thesis, err := h.service.Update(c.Request.Context(), claims.Actor(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, thesis, nil)
}

// Delete godoc
// @Summary Delete thesis
// @Description Soft-delete a thesis
// @Tags Theses
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /theses/{id} [delete]
func (h *ThesisHandler) Delete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	if err := h.service.Delete(c.Request.Context(), claims.Actor(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}

// Submit godoc
// @Summary Submit thesis
// @Description Move a draft thesis to pending approval and notify the supervisor
// @Tags Workflow
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /theses/{id}/submit [post]
func (h *ThesisHandler) Submit(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	detail, err := h.service.Submit(c.Request.Context(), claims.Actor(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Approve godoc
// @Summary Approve thesis
// @Description Move a pending thesis to approved and notify the student
// @Tags Workflow
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Router /theses/{id}/approve [post]
func (h *ThesisHandler) Approve(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	detail, err := h.service.Approve(c.Request.Context(), claims.Actor(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Reject godoc
// @Summary Reject thesis
// @Description Reject a thesis with optional supervisor notes and notify the student
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Thesis ID"
// @Param payload body service.TransitionNotesRequest false "Supervisor notes"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /theses/{id}/reject [post]
func (h *ThesisHandler) Reject(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	var req service.TransitionNotesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	detail, err := h.service.Reject(c.Request.Context(), claims.Actor(), c.Param("id"), req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// ReturnForCorrections godoc
// @Summary Return thesis for corrections
// @Description Send a thesis back to the student with mandatory notes
// @Tags Workflow
// @Accept json
// @Produce json
// @Param id path string true "Thesis ID"
// @Param payload body service.TransitionNotesRequest true "Supervisor notes"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /theses/{id}/return-for-corrections [post]
func (h *ThesisHandler) ReturnForCorrections(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	var req service.TransitionNotesRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
			return
		}
	}

	detail, err := h.service.ReturnForCorrections(c.Request.Context(), claims.Actor(), c.Param("id"), req.Notes)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// Restore godoc
// @Summary Restore thesis
// @Description Clear the soft-delete marker on a thesis
// @Tags Theses
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /theses/{id}/restore [post]
func (h *ThesisHandler) Restore(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	detail, err := h.service.Restore(c.Request.Context(), claims.Actor(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, detail, nil)
}

// ForceDelete godoc
// @Summary Permanently delete thesis
// @Description Remove a thesis and its attachments permanently
// @Tags Theses
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 204 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /theses/{id}/force [delete]
func (h *ThesisHandler) ForceDelete(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	if err := h.service.ForceDelete(c.Request.Context(), claims.Actor(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}

	response.NoContent(c)
}
