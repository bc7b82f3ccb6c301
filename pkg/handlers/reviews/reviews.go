package reviews

import (
	"context"
	"net/http"

	"github.com/chris/skill-swap/pkg/mapping"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/reputation"
	"github.com/go-chi/chi/v5"
)

// ReviewService is the part of the reputation engine the handlers use.
type ReviewService interface {
	CreateReview(ctx context.Context, in reputation.ReviewInput) (*models.Review, error)
	ListReviews(ctx context.Context, userID string, asReviewee bool) ([]models.Review, error)
	Moderate(ctx context.Context, reviewID string, approved bool) (*models.Review, error)
	MarkHelpful(ctx context.Context, reviewID, voterID string) (int64, error)
}

// ReviewsHandler serves review routes.
type ReviewsHandler struct {
	Reviews ReviewService
}

// NewReviewsHandler creates a new ReviewsHandler.
func NewReviewsHandler(reviews ReviewService) *ReviewsHandler {
	return &ReviewsHandler{Reviews: reviews}
}

// Routes mounts the handlers open to every authenticated user.
func (h *ReviewsHandler) Routes(r chi.Router) {
	r.Get("/api/me/reviews", h.ListMyReviews)
	r.Post("/api/reviews", h.CreateReview)
	r.Get("/api/reviews/{id}", func(w http.ResponseWriter, r *http.Request) {
		h.ListUserReviews(w, r, chi.URLParam(r, "id"))
	})
	r.Post("/api/reviews/{id}/helpful", func(w http.ResponseWriter, r *http.Request) {
		h.MarkReviewHelpful(w, r, chi.URLParam(r, "id"))
	})
}

// AdminRoutes mounts the moderation handlers. The caller guards them.
func (h *ReviewsHandler) AdminRoutes(r chi.Router) {
	r.Put("/api/reviews/{id}/moderation", func(w http.ResponseWriter, r *http.Request) {
		h.ModerateReview(w, r, chi.URLParam(r, "id"))
	})
}

// NewReview is the body of CreateReview.
type NewReview struct {
	RevieweeID    string `json:"reviewee_id"`
	TransactionID string `json:"transaction_id"`
	Rating        int    `json:"rating"`
	Title         string `json:"title"`
	Comment       string `json:"comment"`
}

// Moderation is the body of ModerateReview.
type Moderation struct {
	Approved bool `json:"approved"`
}

// HelpfulVotes is the response of MarkReviewHelpful.
type HelpfulVotes struct {
	ReviewID     string `json:"review_id"`
	HelpfulVotes int64  `json:"helpful_votes"`
}

func (h *ReviewsHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	var body NewReview
	if err := mapping.DecodeJSON(r, &body); err != nil {
		mapping.WriteError(w, err)
		return
	}

	review, err := h.Reviews.CreateReview(r.Context(), reputation.ReviewInput{
		ReviewerID:    userID,
		RevieweeID:    body.RevieweeID,
		TransactionID: body.TransactionID,
		Rating:        body.Rating,
		Title:         body.Title,
		Comment:       body.Comment,
	})
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusCreated, review)
}

// ListMyReviews returns the reviews the caller wrote, or received when the
// as parameter is "reviewee".
func (h *ReviewsHandler) ListMyReviews(w http.ResponseWriter, r *http.Request) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	as := "reviewer"
	if err := mapping.BindQuery(r, "as", &as); err != nil {
		mapping.WriteError(w, err)
		return
	}

	reviews, err := h.Reviews.ListReviews(r.Context(), userID, as == "reviewee")
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, reviews)
}

// ListUserReviews returns the public reviews a user received.
func (h *ReviewsHandler) ListUserReviews(w http.ResponseWriter, r *http.Request, userID string) {
	reviews, err := h.Reviews.ListReviews(r.Context(), userID, true)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, reviews)
}

func (h *ReviewsHandler) MarkReviewHelpful(w http.ResponseWriter, r *http.Request, reviewID string) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	votes, err := h.Reviews.MarkHelpful(r.Context(), reviewID, userID)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, HelpfulVotes{ReviewID: reviewID, HelpfulVotes: votes})
}

func (h *ReviewsHandler) ModerateReview(w http.ResponseWriter, r *http.Request, reviewID string) {
	var body Moderation
	if err := mapping.DecodeJSON(r, &body); err != nil {
		mapping.WriteError(w, err)
		return
	}

	review, err := h.Reviews.Moderate(r.Context(), reviewID, body.Approved)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, review)
}
