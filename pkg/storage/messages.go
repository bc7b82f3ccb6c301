package storage

import (
	"context"
	"time"

	"github.com/chris/skill-swap/pkg/models"
)

// MessageStore defines the interface for platform announcements.
type MessageStore interface {
	CreateMessage(ctx context.Context, msg *models.SystemMessage) error
	ListActiveMessages(ctx context.Context, now time.Time) ([]models.SystemMessage, error)
}
