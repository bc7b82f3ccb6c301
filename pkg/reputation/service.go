// Package reputation records reviews of swap partners and keeps each user's
// aggregate rating in line with their approved reviews.
package reputation

import (
	"context"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/events"
	"github.com/chris/skill-swap/pkg/metrics"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage"
	"github.com/chris/skill-swap/pkg/telemetry"
)

const (
	MinRating = 1
	MaxRating = 5
)

// Store is the storage the reputation engine needs.
type Store interface {
	storage.ReviewStore
	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)
	SetRating(ctx context.Context, userID string, avg float64, count int, computedAt time.Time) error
}

// Service implements the reputation engine.
type Service struct {
	store     Store
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new Service.
func NewService(store Store, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = &events.NoOpPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, publisher: publisher, logger: logger, now: time.Now}
}

// ReviewInput holds the fields of a new review.
type ReviewInput struct {
	ReviewerID    string
	RevieweeID    string
	TransactionID string
	Rating        int
	Title         string
	Comment       string
}

// CreateReview stores the reviewer's review of the other participant of a
// transaction and recomputes the reviewee's rating. Each participant may
// review a transaction once.
func (s *Service) CreateReview(ctx context.Context, in ReviewInput) (*models.Review, error) {
	ctx, span := telemetry.Start(ctx, "reputation.CreateReview")
	defer span.End()

	switch {
	case in.Rating < MinRating || in.Rating > MaxRating:
		return nil, apperr.New(apperr.ErrInvalidArgument, "rating must be between %d and %d", MinRating, MaxRating)
	case in.ReviewerID == "" || in.RevieweeID == "" || in.TransactionID == "":
		return nil, apperr.New(apperr.ErrInvalidArgument, "reviewer, reviewee and transaction are required")
	case in.ReviewerID == in.RevieweeID:
		return nil, apperr.New(apperr.ErrInvalidArgument, "cannot review yourself")
	}

	tx, err := s.store.GetTransaction(ctx, in.TransactionID)
	if err != nil {
		return nil, err
	}
	if _, ok := tx.ParticipantOf(in.ReviewerID); !ok {
		return nil, apperr.New(apperr.ErrForbidden, "user %s is not a participant of transaction %s", in.ReviewerID, in.TransactionID)
	}
	if _, ok := tx.ParticipantOf(in.RevieweeID); !ok {
		return nil, apperr.New(apperr.ErrForbidden, "user %s is not a participant of transaction %s", in.RevieweeID, in.TransactionID)
	}
	if tx.Status != models.TransactionInProgress && tx.Status != models.TransactionCompleted {
		return nil, apperr.New(apperr.ErrInvalidTransition, "cannot review a %s transaction", tx.Status)
	}

	now := s.now().UTC()
	review := &models.Review{
		ReviewId:      models.ReviewID(in.TransactionID, in.ReviewerID),
		ReviewerId:    in.ReviewerID,
		RevieweeId:    in.RevieweeID,
		TransactionId: in.TransactionID,
		Rating:        in.Rating,
		Title:         strings.TrimSpace(in.Title),
		Comment:       strings.TrimSpace(in.Comment),
		IsPublic:      true,
		IsVerified:    true,
		IsApproved:    true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	switch err := s.store.CreateReview(ctx, review); {
	case errors.Is(err, apperr.ErrConflict):
		// A retry of a call whose recompute failed finishes that work.
		stored, getErr := s.store.GetReview(ctx, review.ReviewId)
		if getErr != nil || !sameReview(stored, review) {
			return nil, err
		}
		review = stored
		s.logger.Info("review already stored, finishing recompute", "review_id", review.ReviewId)
	case err != nil:
		return nil, err
	default:
		metrics.ReviewCreated()
		s.logger.Info("review created", "review_id", review.ReviewId, "reviewee_id", review.RevieweeId, "rating", review.Rating)
	}

	if err := s.recompute(ctx, review.RevieweeId, review); err != nil {
		return nil, err
	}

	err = s.publisher.Publish(ctx, events.Event{
		Type:       events.ReviewCreated,
		OccurredAt: now,
		Payload: events.ReviewPayload{
			ReviewID:      review.ReviewId,
			ReviewerID:    review.ReviewerId,
			RevieweeID:    review.RevieweeId,
			TransactionID: review.TransactionId,
			Rating:        review.Rating,
		},
	})
	if err != nil {
		s.logger.Error("failed to publish event", "type", events.ReviewCreated, "review_id", review.ReviewId, "error", err)
	}
	return review, nil
}

// sameReview reports whether stored holds the content of a new review.
func sameReview(stored, review *models.Review) bool {
	return stored.ReviewerId == review.ReviewerId &&
		stored.RevieweeId == review.RevieweeId &&
		stored.TransactionId == review.TransactionId &&
		stored.Rating == review.Rating &&
		stored.Title == review.Title &&
		stored.Comment == review.Comment
}

// RecomputeRating sets the user's rating to the mean of their approved
// reviews, rounded to one decimal. A user with no approved reviews keeps
// the rating they have.
func (s *Service) RecomputeRating(ctx context.Context, userID string) error {
	return s.recompute(ctx, userID, nil)
}

// recompute is RecomputeRating with a review just written by the caller.
// The by-reviewee index may not reflect that write yet, so include replaces
// the listed copy or is added when missing.
func (s *Service) recompute(ctx context.Context, userID string, include *models.Review) error {
	// Taken before the read so a slower, older computation cannot win.
	computedAt := s.now()

	reviews, err := s.store.ListReviewsByReviewee(ctx, userID)
	if err != nil {
		return err
	}
	if include != nil {
		reviews = mergeReview(reviews, *include)
	}

	var sum, count int
	for _, r := range reviews {
		if r.IsApproved {
			sum += r.Rating
			count++
		}
	}
	if count == 0 {
		return nil
	}

	avg := roundTenth(float64(sum) / float64(count))
	if err := s.store.SetRating(ctx, userID, avg, count, computedAt); err != nil {
		return err
	}
	s.logger.Info("rating recomputed", "user_id", userID, "rating_avg", avg, "rating_count", count)
	return nil
}

func mergeReview(reviews []models.Review, r models.Review) []models.Review {
	for i := range reviews {
		if reviews[i].ReviewId == r.ReviewId {
			reviews[i] = r
			return reviews
		}
	}
	return append(reviews, r)
}

func roundTenth(v float64) float64 {
	return math.Round(v*10) / 10
}

// ListReviews returns the reviews the user received, public ones only, or
// the reviews the user wrote when asReviewee is false.
func (s *Service) ListReviews(ctx context.Context, userID string, asReviewee bool) ([]models.Review, error) {
	if !asReviewee {
		return s.store.ListReviewsByReviewer(ctx, userID)
	}

	received, err := s.store.ListReviewsByReviewee(ctx, userID)
	if err != nil {
		return nil, err
	}
	public := received[:0]
	for _, r := range received {
		if r.IsPublic {
			public = append(public, r)
		}
	}
	return public, nil
}

// Moderate approves or withdraws a review and recomputes the reviewee's rating.
func (s *Service) Moderate(ctx context.Context, reviewID string, approved bool) (*models.Review, error) {
	if err := s.store.SetReviewApproval(ctx, reviewID, approved); err != nil {
		return nil, err
	}
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	review.IsApproved = approved

	s.logger.Info("review moderated", "review_id", reviewID, "approved", approved)
	if err := s.recompute(ctx, review.RevieweeId, review); err != nil {
		return nil, err
	}
	return review, nil
}

// MarkHelpful counts voterID's helpful vote on a review and returns the new
// total. Each user votes once per review and authors cannot vote on their own.
func (s *Service) MarkHelpful(ctx context.Context, reviewID, voterID string) (int64, error) {
	review, err := s.store.GetReview(ctx, reviewID)
	if err != nil {
		return 0, err
	}
	if review.ReviewerId == voterID {
		return 0, apperr.New(apperr.ErrForbidden, "cannot vote on your own review")
	}
	return s.store.AddHelpfulVote(ctx, reviewID, voterID)
}
