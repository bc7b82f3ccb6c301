package memory

import (
	"context"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
)

func (s *Store) GetTransaction(ctx context.Context, txID string) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[txID]
	if !ok {
		return nil, apperr.New(apperr.ErrNotFound, "transaction %s not found", txID)
	}
	out := *tx
	return &out, nil
}

func (s *Store) ListTransactionsByParticipant(ctx context.Context, p models.Participant, userID string) ([]models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	txs := []models.Transaction{}
	for _, tx := range s.transactions {
		if (p == models.User1 && tx.User1Id == userID) || (p == models.User2 && tx.User2Id == userID) {
			txs = append(txs, *tx)
		}
	}
	sortByCreated(txs, func(tx *models.Transaction) time.Time { return tx.CreatedAt })
	return txs, nil
}

func (s *Store) ConfirmTransaction(ctx context.Context, txID string, p models.Participant, at time.Time) (*models.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[txID]
	if !ok || tx.Status != models.TransactionInProgress {
		return nil, apperr.New(apperr.ErrInvalidTransition, "transaction %s is not in progress", txID)
	}
	if tx.Confirmed(p.Other()) {
		return nil, apperr.New(apperr.ErrConflict, "transaction %s was confirmed by %s", txID, p.Other())
	}
	setConfirmed(tx, p)
	tx.CompletionPercentage = 50
	tx.UpdatedAt = at

	out := *tx
	return &out, nil
}

func (s *Store) CompleteTransaction(ctx context.Context, tx *models.Transaction, p models.Participant, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.transactions[tx.TransactionId]
	if !ok {
		return false, apperr.New(apperr.ErrNotFound, "transaction %s not found", tx.TransactionId)
	}
	if stored.Status != models.TransactionInProgress || !stored.Confirmed(p.Other()) {
		return false, nil
	}
	u1, ok1 := s.users[stored.User1Id]
	u2, ok2 := s.users[stored.User2Id]
	if !ok1 || !ok2 {
		return false, apperr.New(apperr.ErrNotFound, "participant of transaction %s not found", tx.TransactionId)
	}

	end := at
	setConfirmed(stored, p)
	stored.Status = models.TransactionCompleted
	stored.ActualEndDate = &end
	stored.CompletionPercentage = 100
	stored.UpdatedAt = at
	for _, u := range []*models.User{u1, u2} {
		u.SuccessfulSwaps++
		u.TotalSwaps++
	}
	return true, nil
}

func setConfirmed(tx *models.Transaction, p models.Participant) {
	if p == models.User1 {
		tx.User1Confirmed = true
	} else {
		tx.User2Confirmed = true
	}
}

func (s *Store) DisputeTransaction(ctx context.Context, txID, reason string, at time.Time) error {
	return s.leaveInProgress(txID, at, func(tx *models.Transaction) {
		tx.Status = models.TransactionDisputed
		tx.IsDisputed = true
		tx.DisputeReason = reason
	})
}

func (s *Store) CancelTransaction(ctx context.Context, txID string, at time.Time) error {
	return s.leaveInProgress(txID, at, func(tx *models.Transaction) {
		tx.Status = models.TransactionCancelled
	})
}

func (s *Store) leaveInProgress(txID string, at time.Time, apply func(*models.Transaction)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, ok := s.transactions[txID]
	if !ok || tx.Status != models.TransactionInProgress {
		return apperr.New(apperr.ErrInvalidTransition, "transaction %s is not in progress", txID)
	}
	apply(tx)
	tx.UpdatedAt = at
	return nil
}
