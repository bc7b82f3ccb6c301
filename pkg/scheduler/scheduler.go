package scheduler

import (
	"context"
	"time"
)

// ExpiryMessage is the queue payload asking a worker to expire a swap request.
type ExpiryMessage struct {
	RequestID string    `json:"request_id"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Scheduler defines the interface for a component that schedules swap request
// expiry for later processing.
type Scheduler interface {
	// ScheduleExpiry enqueues the request for expiry at or shortly after expiresAt.
	ScheduleExpiry(ctx context.Context, requestID string, expiresAt time.Time) error
}
