package events

import (
	"context"
)

// Publisher defines the interface for announcing lifecycle events.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}
