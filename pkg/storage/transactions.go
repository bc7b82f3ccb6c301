package storage

import (
	"context"
	"time"

	"github.com/chris/skill-swap/pkg/models"
)

// TransactionReader defines the interface for reading transaction data.
type TransactionReader interface {
	// GetTransaction retrieves a transaction by its ID.
	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)

	// ListTransactionsByParticipant returns the transactions in which the user holds the given slot.
	ListTransactionsByParticipant(ctx context.Context, p models.Participant, userID string) ([]models.Transaction, error)
}

// TransactionManager defines the interface for advancing transactions.
type TransactionManager interface {
	// ConfirmTransaction sets the slot's confirmation flag on an in-progress
	// transaction whose other slot has not confirmed yet, and returns the
	// transaction as stored after the write. It fails with a conflict when the
	// other slot confirmed in the meantime.
	ConfirmTransaction(ctx context.Context, txID string, p models.Participant, at time.Time) (*models.Transaction, error)

	// CompleteTransaction records the last confirmation: it sets the slot's
	// flag, moves the transaction to completed and increments both
	// participants' swap counters in one atomic step. It requires the other
	// slot to be confirmed already and reports false when the transaction is
	// not in progress with the other slot confirmed.
	CompleteTransaction(ctx context.Context, tx *models.Transaction, p models.Participant, at time.Time) (bool, error)

	// DisputeTransaction flags an in-progress transaction as disputed.
	DisputeTransaction(ctx context.Context, txID, reason string, at time.Time) error

	// CancelTransaction cancels an in-progress transaction.
	CancelTransaction(ctx context.Context, txID string, at time.Time) error
}

// TransactionStore combines the reader and manager interfaces.
type TransactionStore interface {
	TransactionReader
	TransactionManager
}
