// Package users is the user directory: profiles, visibility, ban state and
// the aggregate rating.
package users

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage"
)

// DefaultListLimit caps ListPublicUsers when no limit is given.
const DefaultListLimit = 50

const defaultAvailability = "weekends"

// Service implements the user directory operations.
type Service struct {
	store  storage.UserStore
	logger *slog.Logger
	now    func() time.Time
}

// NewService creates a new Service. A nil logger uses slog.Default().
func NewService(store storage.UserStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, logger: logger, now: time.Now}
}

// CreateProfile registers a public profile with zeroed counters and rating.
func (s *Service) CreateProfile(ctx context.Context, userID, email, name, location string) (*models.User, error) {
	if userID == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "user id is required")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "name is required")
	}

	now := s.now().UTC()
	user, err := s.store.CreateUser(ctx, &models.User{
		UserId:            userID,
		Email:             email,
		Name:              name,
		Location:          location,
		Availability:      defaultAvailability,
		ProfileVisibility: models.VisibilityPublic,
		Role:              "user",
		CreatedAt:         now,
		UpdatedAt:         now,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("profile created", "user_id", userID)
	return user, nil
}

// GetProfile returns the profile of userID.
func (s *Service) GetProfile(ctx context.Context, userID string) (*models.User, error) {
	return s.store.GetUser(ctx, userID)
}

// UpdateProfile applies the non-nil fields of upd.
func (s *Service) UpdateProfile(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error) {
	if upd.Name != nil && strings.TrimSpace(*upd.Name) == "" {
		return nil, apperr.New(apperr.ErrInvalidArgument, "name cannot be empty")
	}
	if v := upd.ProfileVisibility; v != nil && *v != models.VisibilityPublic && *v != models.VisibilityPrivate {
		return nil, apperr.New(apperr.ErrInvalidArgument, "invalid profile visibility %q", *v)
	}
	return s.store.UpdateUser(ctx, userID, upd)
}

// ListPublicUsers returns up to limit public, unbanned profiles. A
// non-positive limit means DefaultListLimit.
func (s *Service) ListPublicUsers(ctx context.Context, limit int) ([]models.User, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	return s.store.ListPublicUsers(ctx, limit)
}

// RequireActive returns the user, failing with Forbidden while a ban is in force.
func (s *Service) RequireActive(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.BanActive(s.now()) {
		return nil, apperr.New(apperr.ErrForbidden, "user %s is banned", userID)
	}
	return user, nil
}
