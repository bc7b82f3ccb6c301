package users

import (
	"context"
	"net/http"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/mapping"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/go-chi/chi/v5"
)

// UserService is the part of the user directory the handlers use.
type UserService interface {
	CreateProfile(ctx context.Context, userID, email, name, location string) (*models.User, error)
	GetProfile(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error)
	ListPublicUsers(ctx context.Context, limit int) ([]models.User, error)
}

// UsersHandler serves profile routes.
type UsersHandler struct {
	Users UserService
}

// NewUsersHandler creates a new UsersHandler.
func NewUsersHandler(users UserService) *UsersHandler {
	return &UsersHandler{Users: users}
}

// Routes mounts the handlers on an authenticated router.
func (h *UsersHandler) Routes(r chi.Router) {
	r.Get("/api/me", h.GetMe)
	r.Post("/api/me", h.CreateMe)
	r.Put("/api/me/update", h.UpdateMe)
	r.Get("/api/users", h.ListUsers)
	r.Get("/api/users/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.GetUserById(w, r, chi.URLParam(r, "id"))
	})
}

// NewProfile is the body of CreateMe.
type NewProfile struct {
	Email    string `json:"email"`
	Name     string `json:"name"`
	Location string `json:"location"`
}

// CreateMe registers the caller's profile.
func (h *UsersHandler) CreateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	var body NewProfile
	if err := mapping.DecodeJSON(r, &body); err != nil {
		mapping.WriteError(w, err)
		return
	}

	user, err := h.Users.CreateProfile(r.Context(), userID, body.Email, body.Name, body.Location)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusCreated, user)
}

// GetMe returns the caller's own profile.
func (h *UsersHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	user, err := h.Users.GetProfile(r.Context(), userID)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, user)
}

// UpdateMe applies a partial profile update.
func (h *UsersHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	var upd models.ProfileUpdate
	if err := mapping.DecodeJSON(r, &upd); err != nil {
		mapping.WriteError(w, err)
		return
	}

	user, err := h.Users.UpdateProfile(r.Context(), userID, upd)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, user)
}

// ListUsers returns public profiles, capped by the optional limit parameter.
func (h *UsersHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	var limit int
	if err := mapping.BindQuery(r, "limit", &limit); err != nil {
		mapping.WriteError(w, err)
		return
	}

	users, err := h.Users.ListPublicUsers(r.Context(), limit)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, users)
}

// GetUserById returns a profile. Private profiles are only visible to their owner.
func (h *UsersHandler) GetUserById(w http.ResponseWriter, r *http.Request, userID string) {
	callerID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}

	user, err := h.Users.GetProfile(r.Context(), userID)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	if user.ProfileVisibility == models.VisibilityPrivate && callerID != userID {
		mapping.WriteError(w, apperr.New(apperr.ErrNotFound, "user %s not found", userID))
		return
	}
	mapping.WriteJSON(w, http.StatusOK, user)
}
