package messages

import (
	"context"
	"net/http"

	"github.com/chris/skill-swap/pkg/mapping"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/go-chi/chi/v5"
)

// MessageService is the part of the announcements service the handlers use.
type MessageService interface {
	CreateMessage(ctx context.Context, adminID, title, body, msgType string) (*models.SystemMessage, error)
	ListActive(ctx context.Context) ([]models.SystemMessage, error)
}

// MessagesHandler serves system message routes.
type MessagesHandler struct {
	Messages MessageService
}

// NewMessagesHandler creates a new MessagesHandler.
func NewMessagesHandler(messages MessageService) *MessagesHandler {
	return &MessagesHandler{Messages: messages}
}

// Routes mounts the read handlers.
func (h *MessagesHandler) Routes(r chi.Router) {
	r.Get("/api/system-messages", h.ListMessages)
}

// AdminRoutes mounts the write handlers. The caller guards them.
func (h *MessagesHandler) AdminRoutes(r chi.Router) {
	r.Post("/api/system-messages/create", h.CreateMessage)
}

// NewMessage is the body of CreateMessage.
type NewMessage struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (h *MessagesHandler) ListMessages(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.Messages.ListActive(r.Context())
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, msgs)
}

func (h *MessagesHandler) CreateMessage(w http.ResponseWriter, r *http.Request) {
	adminID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	var body NewMessage
	if err := mapping.DecodeJSON(r, &body); err != nil {
		mapping.WriteError(w, err)
		return
	}

	msg, err := h.Messages.CreateMessage(r.Context(), adminID, body.Title, body.Message, body.Type)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusCreated, msg)
}
