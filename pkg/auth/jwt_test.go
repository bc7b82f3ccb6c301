package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify(t *testing.T) {
	svc := NewJWTService("secret", time.Hour)

	t.Run("Valid Token", func(t *testing.T) {
		token, err := svc.GenerateToken("user1")
		require.NoError(t, err)

		userID, err := svc.Verify(context.Background(), token)

		assert.NoError(t, err)
		assert.Equal(t, "user1", userID)
	})

	t.Run("Wrong Secret", func(t *testing.T) {
		token, err := NewJWTService("other", time.Hour).GenerateToken("user1")
		require.NoError(t, err)

		_, err = svc.Verify(context.Background(), token)

		assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))
	})

	t.Run("Expired", func(t *testing.T) {
		token, err := NewJWTService("secret", -time.Minute).GenerateToken("user1")
		require.NoError(t, err)

		_, err = svc.Verify(context.Background(), token)

		assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))
	})

	t.Run("Missing", func(t *testing.T) {
		_, err := svc.Verify(context.Background(), "")
		assert.True(t, errors.Is(err, apperr.ErrUnauthenticated))
	})
}

func TestUserIDContext(t *testing.T) {
	_, ok := UserID(context.Background())
	assert.False(t, ok)

	id, ok := UserID(WithUserID(context.Background(), "user1"))
	assert.True(t, ok)
	assert.Equal(t, "user1", id)
}
