package memory

import (
	"context"
	"slices"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
)

func (s *Store) CreateReview(ctx context.Context, review *models.Review) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.reviews[review.ReviewId]; ok {
		return apperr.New(apperr.ErrConflict, "review %s already exists", review.ReviewId)
	}
	stored := *review
	stored.HelpfulVoters = append([]string(nil), review.HelpfulVoters...)
	s.reviews[review.ReviewId] = &stored
	return nil
}

func (s *Store) GetReview(ctx context.Context, reviewID string) (*models.Review, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[reviewID]
	if !ok {
		return nil, apperr.New(apperr.ErrNotFound, "review %s not found", reviewID)
	}
	out := *r
	return &out, nil
}

func (s *Store) ListReviewsByReviewee(ctx context.Context, userID string) ([]models.Review, error) {
	return s.filterReviews(func(r *models.Review) bool { return r.RevieweeId == userID }), nil
}

func (s *Store) ListReviewsByReviewer(ctx context.Context, userID string) ([]models.Review, error) {
	return s.filterReviews(func(r *models.Review) bool { return r.ReviewerId == userID }), nil
}

func (s *Store) filterReviews(keep func(*models.Review) bool) []models.Review {
	s.mu.Lock()
	defer s.mu.Unlock()

	reviews := []models.Review{}
	for _, r := range s.reviews {
		if keep(r) {
			reviews = append(reviews, *r)
		}
	}
	sortByCreated(reviews, func(r *models.Review) time.Time { return r.CreatedAt })
	return reviews
}

func (s *Store) SetReviewApproval(ctx context.Context, reviewID string, approved bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[reviewID]
	if !ok {
		return apperr.New(apperr.ErrNotFound, "review %s not found", reviewID)
	}
	r.IsApproved = approved
	r.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *Store) AddHelpfulVote(ctx context.Context, reviewID, voterID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.reviews[reviewID]
	if !ok {
		return 0, apperr.New(apperr.ErrNotFound, "review %s not found", reviewID)
	}
	if slices.Contains(r.HelpfulVoters, voterID) {
		return 0, apperr.New(apperr.ErrConflict, "user %s already marked review %s helpful", voterID, reviewID)
	}
	r.HelpfulVoters = append(r.HelpfulVoters, voterID)
	r.HelpfulVotes++
	return r.HelpfulVotes, nil
}
