package requests

import (
	"context"
	"net/http"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/mapping"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/swaps"
	"github.com/go-chi/chi/v5"
)

// SwapService is the part of the swap lifecycle the handlers use.
type SwapService interface {
	CreateRequest(ctx context.Context, in swaps.CreateInput) (*models.SwapRequest, error)
	GetRequest(ctx context.Context, requestID string) (*models.SwapRequest, error)
	ListRequests(ctx context.Context, userID string, scope swaps.Scope) ([]models.SwapRequestView, error)
	UpdateStatus(ctx context.Context, requestID, byUserID string, status models.RequestStatus, responseMessage string) (*models.SwapRequest, error)
}

// RequestsHandler serves swap request routes.
type RequestsHandler struct {
	Swaps SwapService
}

// NewRequestsHandler creates a new RequestsHandler.
func NewRequestsHandler(svc SwapService) *RequestsHandler {
	return &RequestsHandler{Swaps: svc}
}

// Routes mounts the handlers on an authenticated router.
func (h *RequestsHandler) Routes(r chi.Router) {
	r.Get("/api/me/swap-requests", h.ListMyRequests)
	r.Post("/api/swap-requests", h.CreateRequest)
	r.Get("/api/swap-requests/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.GetRequestById(w, r, chi.URLParam(r, "id"))
	})
	r.Put("/api/swap-requests/{id}/update", func(w http.ResponseWriter, r *http.Request) {
		h.UpdateRequestStatus(w, r, chi.URLParam(r, "id"))
	})
}

// NewSwapRequest is the body of CreateRequest.
type NewSwapRequest struct {
	ReceiverID         string `json:"receiver_id"`
	OfferedSkillName   string `json:"offered_skill_name"`
	RequestedSkillName string `json:"requested_skill_name"`
	Message            string `json:"message"`
}

// StatusUpdate is the body of UpdateRequestStatus.
type StatusUpdate struct {
	Status          models.RequestStatus `json:"status"`
	ResponseMessage string               `json:"response_message"`
}

// CreateRequest opens a swap request from the caller.
func (h *RequestsHandler) CreateRequest(w http.ResponseWriter, r *http.Request) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	var body NewSwapRequest
	if err := mapping.DecodeJSON(r, &body); err != nil {
		mapping.WriteError(w, err)
		return
	}

	req, err := h.Swaps.CreateRequest(r.Context(), swaps.CreateInput{
		SenderID:           userID,
		ReceiverID:         body.ReceiverID,
		OfferedSkillName:   body.OfferedSkillName,
		RequestedSkillName: body.RequestedSkillName,
		Message:            body.Message,
	})
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusCreated, req)
}

// ListMyRequests returns the caller's requests. The optional type parameter
// is sent, received or all.
func (h *RequestsHandler) ListMyRequests(w http.ResponseWriter, r *http.Request) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	scope := string(swaps.ScopeAll)
	if err := mapping.BindQuery(r, "type", &scope); err != nil {
		mapping.WriteError(w, err)
		return
	}

	views, err := h.Swaps.ListRequests(r.Context(), userID, swaps.Scope(scope))
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, views)
}

// GetRequestById returns a request to one of its two parties.
func (h *RequestsHandler) GetRequestById(w http.ResponseWriter, r *http.Request, requestID string) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}

	req, err := h.Swaps.GetRequest(r.Context(), requestID)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	if userID != req.SenderId && userID != req.ReceiverId {
		mapping.WriteError(w, apperr.New(apperr.ErrForbidden, "user %s is not a party to swap request %s", userID, requestID))
		return
	}
	mapping.WriteJSON(w, http.StatusOK, req)
}

// UpdateRequestStatus accepts, rejects or cancels a pending request.
func (h *RequestsHandler) UpdateRequestStatus(w http.ResponseWriter, r *http.Request, requestID string) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	var body StatusUpdate
	if err := mapping.DecodeJSON(r, &body); err != nil {
		mapping.WriteError(w, err)
		return
	}

	req, err := h.Swaps.UpdateStatus(r.Context(), requestID, userID, body.Status, body.ResponseMessage)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, req)
}
