package storage

import (
	"context"
	"time"

	"github.com/chris/skill-swap/pkg/models"
)

// UserStore defines the interface for managing user profiles.
type UserStore interface {
	// CreateUser stores a new profile. It fails with a conflict if the user exists.
	CreateUser(ctx context.Context, user *models.User) (*models.User, error)

	// GetUser retrieves a profile by user ID.
	GetUser(ctx context.Context, userID string) (*models.User, error)

	// UpdateUser applies the non-nil fields of upd and returns the updated profile.
	UpdateUser(ctx context.Context, userID string, upd models.ProfileUpdate) (*models.User, error)

	// ListPublicUsers returns up to limit public, unbanned profiles.
	ListPublicUsers(ctx context.Context, limit int) ([]models.User, error)

	// SetRating stores an aggregate rating unless a rating computed at or after
	// computedAt is already stored.
	SetRating(ctx context.Context, userID string, avg float64, count int, computedAt time.Time) error
}
