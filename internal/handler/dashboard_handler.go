package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thesisflow/thesisflow-api/internal/service"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
	"github.com/thesisflow/thesisflow-api/pkg/response"
)

// DashboardHandler wires HTTP endpoints to the dashboard service.
type DashboardHandler struct {
	service *service.DashboardService
}

// NewDashboardHandler creates a new handler.
func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: svc}
}

// Get godoc
// @Summary Get dashboard
// @Description Role-dependent summary: status counts, unread notifications and recent theses
// @Tags Dashboard
// @Produce json
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /dashboard [get]
func (h *DashboardHandler) Get(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	dashboard, err := h.service.Get(c.Request.Context(), claims.Actor())
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, dashboard, nil)
}
