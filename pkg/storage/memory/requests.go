package memory

import (
	"context"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/models"
)

func (s *Store) CreateSwapRequest(ctx context.Context, req *models.SwapRequest) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.requests[req.RequestId]; ok {
		return apperr.New(apperr.ErrConflict, "swap request %s already exists", req.RequestId)
	}
	v, err := s.counter(models.Counter{Entity: models.EntityUser, ID: req.ReceiverId, Field: models.FieldPendingRequests})
	if err != nil {
		return err
	}
	addFloored(v, 1)

	stored := *req
	s.requests[req.RequestId] = &stored
	return nil
}

func (s *Store) GetSwapRequest(ctx context.Context, requestID string) (*models.SwapRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.requests[requestID]
	if !ok {
		return nil, apperr.New(apperr.ErrNotFound, "swap request %s not found", requestID)
	}
	out := *r
	return &out, nil
}

func (s *Store) ListSwapRequestsBySender(ctx context.Context, userID string) ([]models.SwapRequest, error) {
	return s.filterRequests(func(r *models.SwapRequest) bool { return r.SenderId == userID }), nil
}

func (s *Store) ListSwapRequestsByReceiver(ctx context.Context, userID string) ([]models.SwapRequest, error) {
	return s.filterRequests(func(r *models.SwapRequest) bool { return r.ReceiverId == userID }), nil
}

func (s *Store) ListOverdueSwapRequests(ctx context.Context, now time.Time) ([]models.SwapRequest, error) {
	return s.filterRequests(func(r *models.SwapRequest) bool { return r.Overdue(now) }), nil
}

func (s *Store) filterRequests(keep func(*models.SwapRequest) bool) []models.SwapRequest {
	s.mu.Lock()
	defer s.mu.Unlock()

	reqs := []models.SwapRequest{}
	for _, r := range s.requests {
		if keep(r) {
			reqs = append(reqs, *r)
		}
	}
	sortByCreated(reqs, func(r *models.SwapRequest) time.Time { return r.CreatedAt })
	return reqs
}

func (s *Store) CloseSwapRequest(ctx context.Context, req *models.SwapRequest, tx *models.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.requests[req.RequestId]
	if !ok || stored.Status != models.RequestPending {
		return apperr.New(apperr.ErrInvalidTransition, "swap request %s is no longer pending", req.RequestId)
	}
	if tx != nil {
		if _, exists := s.transactions[tx.TransactionId]; exists {
			return apperr.New(apperr.ErrConflict, "transaction %s already exists", tx.TransactionId)
		}
	}

	stored.Status = req.Status
	stored.ResponseMessage = req.ResponseMessage
	stored.UpdatedAt = req.UpdatedAt
	if req.RespondedAt != nil {
		at := *req.RespondedAt
		stored.RespondedAt = &at
	}
	if tx != nil {
		stored.TransactionId = tx.TransactionId
		created := *tx
		s.transactions[tx.TransactionId] = &created
	}

	if v, err := s.counter(models.Counter{Entity: models.EntityUser, ID: stored.ReceiverId, Field: models.FieldPendingRequests}); err == nil {
		addFloored(v, -1)
	}
	return nil
}
