package storage

import (
	"context"

	"github.com/chris/skill-swap/pkg/models"
)

// CounterStore atomically adjusts named numeric fields on records.
type CounterStore interface {
	// IncrementCounter adds delta to the counter and returns the new value.
	// Decrements are floored at zero. The record must exist.
	IncrementCounter(ctx context.Context, c models.Counter, delta int64) (int64, error)
}
