// Package config loads service configuration from the environment.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/chris/skill-swap/pkg/storage/dynamodb"
	"github.com/joho/godotenv"
)

// Store backends.
const (
	BackendMemory   = "memory"
	BackendDynamoDB = "dynamodb"
)

// Config is the environment-derived configuration shared by every entrypoint.
type Config struct {
	HTTPPort     string `env:"HTTP_PORT" envDefault:"8080"`
	StoreBackend string `env:"STORE_BACKEND" envDefault:"memory"`
	LogLevel     string `env:"LOG_LEVEL" envDefault:"info"`

	UsersTable        string `env:"DYNAMODB_USERS_TABLE_NAME"`
	SkillsTable       string `env:"DYNAMODB_SKILLS_TABLE_NAME"`
	UserSkillsTable   string `env:"DYNAMODB_USER_SKILLS_TABLE_NAME"`
	SwapRequestsTable string `env:"DYNAMODB_SWAP_REQUESTS_TABLE_NAME"`
	TransactionsTable string `env:"DYNAMODB_TRANSACTIONS_TABLE_NAME"`
	ReviewsTable      string `env:"DYNAMODB_REVIEWS_TABLE_NAME"`
	MessagesTable     string `env:"DYNAMODB_MESSAGES_TABLE_NAME"`

	SQSQueueURL string `env:"SQS_QUEUE_URL"`

	AMQPURL      string `env:"AMQP_URL"`
	AMQPExchange string `env:"AMQP_EXCHANGE" envDefault:"skillswap.events"`

	JWTSecret string `env:"JWT_SECRET"`

	ExpirySweepInterval time.Duration `env:"EXPIRY_SWEEP_INTERVAL" envDefault:"1m"`
	OTLPEndpoint        string        `env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	SeedSkills          bool          `env:"SEED_SKILLS" envDefault:"false"`
}

// Load reads an optional .env file, then parses the environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Tables returns the DynamoDB table names.
func (c *Config) Tables() dynamodb.Tables {
	return dynamodb.Tables{
		Users:        c.UsersTable,
		Skills:       c.SkillsTable,
		UserSkills:   c.UserSkillsTable,
		SwapRequests: c.SwapRequestsTable,
		Transactions: c.TransactionsTable,
		Reviews:      c.ReviewsTable,
		Messages:     c.MessagesTable,
	}
}

// ValidateStore checks the settings the chosen store backend needs.
func (c *Config) ValidateStore() error {
	switch c.StoreBackend {
	case BackendMemory:
		return nil
	case BackendDynamoDB:
		t := c.Tables()
		var missing []string
		for name, v := range map[string]string{
			"DYNAMODB_USERS_TABLE_NAME":         t.Users,
			"DYNAMODB_SKILLS_TABLE_NAME":        t.Skills,
			"DYNAMODB_USER_SKILLS_TABLE_NAME":   t.UserSkills,
			"DYNAMODB_SWAP_REQUESTS_TABLE_NAME": t.SwapRequests,
			"DYNAMODB_TRANSACTIONS_TABLE_NAME":  t.Transactions,
			"DYNAMODB_REVIEWS_TABLE_NAME":       t.Reviews,
			"DYNAMODB_MESSAGES_TABLE_NAME":      t.Messages,
		} {
			if v == "" {
				missing = append(missing, name)
			}
		}
		if len(missing) > 0 {
			sort.Strings(missing)
			return fmt.Errorf("dynamodb backend requires %s", strings.Join(missing, ", "))
		}
		return nil
	}
	return fmt.Errorf("unknown STORE_BACKEND %q", c.StoreBackend)
}

// Validate checks everything the HTTP server needs.
func (c *Config) Validate() error {
	if c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required")
	}
	return c.ValidateStore()
}

// SlogLevel maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}
