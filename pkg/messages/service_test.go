package messages

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateMessage(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), nil)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	msg, err := svc.CreateMessage(ctx, "admin", " Maintenance window ", "Down for an hour", "")
	require.NoError(t, err)
	assert.Equal(t, "Maintenance window", msg.Title)
	assert.Equal(t, TypeAnnouncement, msg.Type)
	assert.Equal(t, "normal", msg.Priority)
	assert.True(t, msg.IsActive)
	assert.Equal(t, now.Add(7*24*time.Hour), msg.ShowUntil)

	_, err = svc.CreateMessage(ctx, "admin", "", "body", "")
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))

	_, err = svc.CreateMessage(ctx, "admin", "title", "body", "spam")
	assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))
}

func TestListActive(t *testing.T) {
	ctx := context.Background()
	svc := NewService(memory.New(), nil)
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	svc.now = func() time.Time { return now }

	_, err := svc.CreateMessage(ctx, "admin", "Old", "old news", TypeWarning)
	require.NoError(t, err)

	now = now.Add(6 * 24 * time.Hour)
	fresh, err := svc.CreateMessage(ctx, "admin", "New", "new feature", TypeFeatureUpdate)
	require.NoError(t, err)

	msgs, err := svc.ListActive(ctx)
	require.NoError(t, err)
	assert.Len(t, msgs, 2)

	now = now.Add(24 * time.Hour)
	msgs, err = svc.ListActive(ctx)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	assert.Equal(t, fresh.MessageId, msgs[0].MessageId)
}
