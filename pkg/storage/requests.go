package storage

import (
	"context"
	"time"

	"github.com/chris/skill-swap/pkg/models"
)

// SwapRequestReader defines the interface for reading swap requests.
type SwapRequestReader interface {
	// GetSwapRequest retrieves a request by its ID.
	GetSwapRequest(ctx context.Context, requestID string) (*models.SwapRequest, error)

	// ListSwapRequestsBySender returns every request the user sent.
	ListSwapRequestsBySender(ctx context.Context, userID string) ([]models.SwapRequest, error)

	// ListSwapRequestsByReceiver returns every request the user received.
	ListSwapRequestsByReceiver(ctx context.Context, userID string) ([]models.SwapRequest, error)

	// ListOverdueSwapRequests returns pending requests whose expiry is at or before now.
	ListOverdueSwapRequests(ctx context.Context, now time.Time) ([]models.SwapRequest, error)
}

// SwapRequestManager defines the interface for the request state machine writes.
type SwapRequestManager interface {
	// CreateSwapRequest stores a pending request and increments the receiver's
	// pending_requests counter in one atomic step.
	CreateSwapRequest(ctx context.Context, req *models.SwapRequest) error

	// CloseSwapRequest moves a pending request to req.Status, recording the
	// response fields, and releases the receiver's pending_requests counter. When
	// tx is non-nil it is created and linked to the request in the same atomic
	// step. It fails with an invalid transition if the request is no longer pending.
	CloseSwapRequest(ctx context.Context, req *models.SwapRequest, tx *models.Transaction) error
}

// SwapRequestStore combines the reader and manager interfaces.
type SwapRequestStore interface {
	SwapRequestReader
	SwapRequestManager
}
