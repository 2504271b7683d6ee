package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/thesisflow/thesisflow-api/internal/service"
	appErrors "github.com/thesisflow/thesisflow-api/pkg/errors"
	"github.com/thesisflow/thesisflow-api/pkg/response"
)

// MessageHandler wires HTTP endpoints to the message service.
type MessageHandler struct {
	service *service.MessageService
}

// NewMessageHandler creates a new handler.
func NewMessageHandler(svc *service.MessageService) *MessageHandler {
	return &MessageHandler{service: svc}
}

// List godoc
// @Summary List thesis messages
// @Description List the thesis conversation oldest first; marks the counterpart's messages read
// @Tags Messages
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /theses/{id}/messages [get]
func (h *MessageHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	messages, err := h.service.List(c.Request.Context(), claims.Actor(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, messages, nil)
}

// Create godoc
// @Summary Post thesis message
// @Description Post a message on the thesis and notify the counterpart
// @Tags Messages
// @Accept json
// @Produce json
// @Param id path string true "Thesis ID"
// @Param payload body object true "Message body"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /theses/{id}/messages [post]
func (h *MessageHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	var payload struct {
		Body string `json:"body"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid message payload"))
		return
	}

	message, err := h.service.Create(c.Request.Context(), claims.Actor(), c.Param("id"), payload.Body)
	if err != nil {
		response.Error(c, err)
		return
	}

	response.Created(c, message)
}

// UnreadCount godoc
// @Summary Count unread thesis messages
// @Description Count messages on the thesis the current user has not read
// @Tags Messages
// @Produce json
// @Param id path string true "Thesis ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /theses/{id}/messages/unread-count [get]
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrAuthRequired)
		return
	}

	count, err := h.service.UnreadCount(c.Request.Context(), claims.Actor(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}

	response.JSON(c, http.StatusOK, gin.H{"unread_count": count}, nil)
}
