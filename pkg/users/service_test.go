package users

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateProfile(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), nil)

	user, err := svc.CreateProfile(ctx, "alice", "alice@example.com", "Alice", "Lisbon")
	require.NoError(t, err)
	assert.Equal(t, models.VisibilityPublic, user.ProfileVisibility)
	assert.Equal(t, "weekends", user.Availability)
	assert.Zero(t, user.RatingAvg)
	assert.Zero(t, user.PendingRequests)

	_, err = svc.CreateProfile(ctx, "alice", "alice@example.com", "Alice", "")
	assert.True(t, errors.Is(err, apperr.ErrConflict))

	_, err = svc.CreateProfile(ctx, "bob", "bob@example.com", " ", "")
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), nil)
	_, err := svc.CreateProfile(ctx, "alice", "", "Alice", "")
	require.NoError(t, err)

	private := models.VisibilityPrivate
	location := "Porto"
	user, err := svc.UpdateProfile(ctx, "alice", models.ProfileUpdate{Location: &location, ProfileVisibility: &private})
	require.NoError(t, err)
	assert.Equal(t, "Porto", user.Location)
	assert.Equal(t, "Alice", user.Name)

	users, err := svc.ListPublicUsers(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, users)

	bogus := models.Visibility("friends")
	_, err = svc.UpdateProfile(ctx, "alice", models.ProfileUpdate{ProfileVisibility: &bogus})
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))

	_, err = svc.UpdateProfile(ctx, "nobody", models.ProfileUpdate{Location: &location})
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}

func TestRequireActive(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store, nil)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)
	for _, u := range []*models.User{
		{UserId: "active"},
		{UserId: "lapsed", IsBanned: true, BannedUntil: &past},
		{UserId: "banned", IsBanned: true, BannedUntil: &future},
		{UserId: "forever", IsBanned: true},
	} {
		_, err := store.CreateUser(ctx, u)
		require.NoError(t, err)
	}

	_, err := svc.RequireActive(ctx, "active")
	assert.NoError(t, err)
	_, err = svc.RequireActive(ctx, "lapsed")
	assert.NoError(t, err)
	_, err = svc.RequireActive(ctx, "banned")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	_, err = svc.RequireActive(ctx, "forever")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))
	_, err = svc.RequireActive(ctx, "ghost")
	assert.True(t, errors.Is(err, apperr.ErrNotFound))
}
