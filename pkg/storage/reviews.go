package storage

import (
	"context"

	"github.com/chris/skill-swap/pkg/models"
)

// ReviewStore defines the interface for managing reviews.
type ReviewStore interface {
	// CreateReview stores a review. It fails with a conflict if the review ID exists.
	CreateReview(ctx context.Context, review *models.Review) error

	// GetReview retrieves a review by its ID.
	GetReview(ctx context.Context, reviewID string) (*models.Review, error)

	// ListReviewsByReviewee returns every review targeting the user.
	ListReviewsByReviewee(ctx context.Context, userID string) ([]models.Review, error)

	// ListReviewsByReviewer returns every review written by the user.
	ListReviewsByReviewer(ctx context.Context, userID string) ([]models.Review, error)

	// SetReviewApproval sets the moderation approval flag of a review.
	SetReviewApproval(ctx context.Context, reviewID string, approved bool) error

	// AddHelpfulVote records voterID's helpful vote on a review and returns
	// the new total. A second vote by the same user is a conflict.
	AddHelpfulVote(ctx context.Context, reviewID, voterID string) (int64, error)
}
