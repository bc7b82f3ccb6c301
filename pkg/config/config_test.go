package config

import (
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseEnvDefaults(t *testing.T) {
	t.Setenv("JWT_SECRET", "secret")

	var cfg Config
	require.NoError(t, ParseEnv(&cfg))

	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, BackendMemory, cfg.StoreBackend)
	assert.Equal(t, "skillswap.events", cfg.AMQPExchange)
	assert.Equal(t, time.Minute, cfg.ExpirySweepInterval)
	assert.False(t, cfg.SeedSkills)
	assert.NoError(t, cfg.Validate())
}

func TestParseEnvInvalidDuration(t *testing.T) {
	t.Setenv("EXPIRY_SWEEP_INTERVAL", "soon")

	var cfg Config
	err := ParseEnv(&cfg)

	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parse env:")
}

func TestValidate(t *testing.T) {
	t.Run("Missing Secret", func(t *testing.T) {
		cfg := &Config{StoreBackend: BackendMemory}
		assert.EqualError(t, cfg.Validate(), "JWT_SECRET is required")
	})

	t.Run("DynamoDB Needs Tables", func(t *testing.T) {
		cfg := &Config{StoreBackend: BackendDynamoDB, JWTSecret: "s", UsersTable: "users"}
		err := cfg.Validate()
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "DYNAMODB_SKILLS_TABLE_NAME")
		assert.NotContains(t, err.Error(), "DYNAMODB_USERS_TABLE_NAME")
	})

	t.Run("Unknown Backend", func(t *testing.T) {
		cfg := &Config{StoreBackend: "postgres", JWTSecret: "s"}
		assert.Error(t, cfg.Validate())
	})
}

func TestSlogLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, (&Config{LogLevel: "debug"}).SlogLevel())
	assert.Equal(t, slog.LevelInfo, (&Config{LogLevel: "loud"}).SlogLevel())
}
