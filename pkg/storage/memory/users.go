package memory

import (
	"context"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
)

func (s *Store) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.UserId]; ok {
		return nil, apperr.New(apperr.ErrConflict, "user %s already exists", user.UserId)
	}
	stored := *user
	s.users[user.UserId] = &stored
	out := stored
	return &out, nil
}

func (s *Store) GetUser(ctx context.Context, userID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, apperr.New(apperr.ErrNotFound, "user %s not found", userID)
	}
	out := *u
	return &out, nil
}

func (s *Store) UpdateUser(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return nil, apperr.New(apperr.ErrNotFound, "user %s not found", userID)
	}
	if upd.Name != nil {
		u.Name = *upd.Name
	}
	if upd.Location != nil {
		u.Location = *upd.Location
	}
	if upd.ProfilePhoto != nil {
		u.ProfilePhoto = *upd.ProfilePhoto
	}
	if upd.Availability != nil {
		u.Availability = *upd.Availability
	}
	if upd.ProfileVisibility != nil {
		u.ProfileVisibility = *upd.ProfileVisibility
	}
	u.UpdatedAt = time.Now().UTC()

	out := *u
	return &out, nil
}

func (s *Store) ListPublicUsers(ctx context.Context, limit int) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	users := []models.User{}
	for _, u := range s.users {
		if u.ProfileVisibility == models.VisibilityPublic && !u.BanActive(now) {
			users = append(users, *u)
		}
	}
	sortByCreated(users, func(u *models.User) time.Time { return u.CreatedAt })
	if limit < 0 {
		limit = 0
	}
	if len(users) > limit {
		users = users[:limit]
	}
	return users, nil
}

func (s *Store) SetRating(ctx context.Context, userID string, avg float64, count int, computedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.users[userID]
	if !ok {
		return apperr.New(apperr.ErrNotFound, "user %s not found", userID)
	}
	ts := computedAt.UnixNano()
	if u.RatingComputedAt >= ts {
		return nil
	}
	u.RatingAvg = avg
	u.RatingCount = count
	u.RatingComputedAt = ts
	return nil
}
