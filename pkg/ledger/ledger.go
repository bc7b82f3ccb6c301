// Package ledger is the transaction ledger: it tracks the exchange spawned by
// an accepted swap request through confirmation, dispute or cancellation.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/events"
	"github.com/chris/skill-swap/pkg/metrics"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage"
	"github.com/chris/skill-swap/pkg/telemetry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// SwapDuration is how long an exchange is expected to take.
const SwapDuration = 14 * 24 * time.Hour

// NewFromRequest builds the transaction for an accepted request. The sender
// takes the user1 slot and the receiver user2.
func NewFromRequest(req *models.SwapRequest, now time.Time) *models.Transaction {
	return &models.Transaction{
		TransactionId:   uuid.New().String(),
		BarterRequestId: req.RequestId,
		User1Id:         req.SenderId,
		User2Id:         req.ReceiverId,
		User1Skill:      req.OfferedSkillName,
		User2Skill:      req.RequestedSkillName,
		Status:          models.TransactionInProgress,
		StartDate:       now,
		ExpectedEndDate: now.Add(SwapDuration),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}

// Service implements the transaction ledger operations.
type Service struct {
	store     storage.TransactionStore
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new Service. A nil publisher drops events and a nil
// logger uses slog.Default().
func NewService(store storage.TransactionStore, publisher events.Publisher, logger *slog.Logger) *Service {
	if publisher == nil {
		publisher = &events.NoOpPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, publisher: publisher, logger: logger, now: time.Now}
}

// participant loads the transaction and resolves the caller's slot.
func (s *Service) participant(ctx context.Context, txID, userID string) (*models.Transaction, models.Participant, error) {
	tx, err := s.store.GetTransaction(ctx, txID)
	if err != nil {
		return nil, "", err
	}
	p, ok := tx.ParticipantOf(userID)
	if !ok {
		return nil, "", apperr.New(apperr.ErrForbidden, "user %s is not a participant of transaction %s", userID, txID)
	}
	return tx, p, nil
}

// Get returns the transaction as seen by one of its participants.
func (s *Service) Get(ctx context.Context, txID, userID string) (*models.TransactionView, error) {
	tx, p, err := s.participant(ctx, txID, userID)
	if err != nil {
		return nil, err
	}
	return &models.TransactionView{Transaction: *tx, UserRole: p}, nil
}

// ListForUser returns every transaction the user takes part in, newest first,
// tagged with the user's slot.
func (s *Service) ListForUser(ctx context.Context, userID string) ([]models.TransactionView, error) {
	var asUser1, asUser2 []models.Transaction

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		asUser1, err = s.store.ListTransactionsByParticipant(gctx, models.User1, userID)
		return err
	})
	g.Go(func() error {
		var err error
		asUser2, err = s.store.ListTransactionsByParticipant(gctx, models.User2, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := make([]models.TransactionView, 0, len(asUser1)+len(asUser2))
	for _, tx := range asUser1 {
		views = append(views, models.TransactionView{Transaction: tx, UserRole: models.User1})
	}
	for _, tx := range asUser2 {
		views = append(views, models.TransactionView{Transaction: tx, UserRole: models.User2})
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views, nil
}

// confirmAttempts bounds how often Confirm re-reads a transaction whose
// other slot confirmed between the read and the write.
const confirmAttempts = 3

// Confirm records that userID considers the exchange done. The second
// confirmation completes the transaction and credits both users' swap
// counters in the same atomic write. Confirming again is a no-op.
func (s *Service) Confirm(ctx context.Context, txID, userID string) (*models.Transaction, error) {
	ctx, span := telemetry.Start(ctx, "ledger.Confirm")
	defer span.End()

	for attempt := 1; ; attempt++ {
		tx, p, err := s.participant(ctx, txID, userID)
		if err != nil {
			return nil, err
		}

		switch {
		case tx.Status != models.TransactionInProgress:
			if tx.Confirmed(p) {
				return tx, nil
			}
			return nil, apperr.New(apperr.ErrInvalidTransition, "transaction %s is %s", txID, tx.Status)
		case tx.Confirmed(p.Other()):
			return s.complete(ctx, tx, p)
		case tx.Confirmed(p):
			return tx, nil
		}

		updated, err := s.store.ConfirmTransaction(ctx, txID, p, s.now().UTC())
		if errors.Is(err, apperr.ErrConflict) && attempt < confirmAttempts {
			continue
		}
		if err != nil {
			return nil, err
		}
		s.logger.Info("transaction confirmed", "transaction_id", txID, "user_id", userID, "slot", p)
		return updated, nil
	}
}

// complete records p's confirmation as the last one.
func (s *Service) complete(ctx context.Context, tx *models.Transaction, p models.Participant) (*models.Transaction, error) {
	done, err := s.store.CompleteTransaction(ctx, tx, p, s.now().UTC())
	if err != nil {
		return nil, err
	}

	if done {
		metrics.TransactionCompleted()
		s.logger.Info("transaction completed", "transaction_id", tx.TransactionId, "slot", p)
		s.publish(ctx, events.TransactionCompleted, tx, "")
	}
	return s.store.GetTransaction(ctx, tx.TransactionId)
}

// Dispute flags an in-progress transaction as disputed with the given reason.
func (s *Service) Dispute(ctx context.Context, txID, userID, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		return apperr.New(apperr.ErrInvalidArgument, "dispute reason is required")
	}

	tx, _, err := s.participant(ctx, txID, userID)
	if err != nil {
		return err
	}
	if tx.Status != models.TransactionInProgress {
		return apperr.New(apperr.ErrInvalidTransition, "transaction %s is %s", txID, tx.Status)
	}

	if err := s.store.DisputeTransaction(ctx, txID, reason, s.now().UTC()); err != nil {
		return err
	}

	s.logger.Info("transaction disputed", "transaction_id", txID, "user_id", userID)
	s.publish(ctx, events.TransactionDisputed, tx, userID)
	return nil
}

// Cancel cancels an in-progress transaction on behalf of a participant.
func (s *Service) Cancel(ctx context.Context, txID, userID string) error {
	tx, _, err := s.participant(ctx, txID, userID)
	if err != nil {
		return err
	}
	if tx.Status != models.TransactionInProgress {
		return apperr.New(apperr.ErrInvalidTransition, "transaction %s is %s", txID, tx.Status)
	}

	if err := s.store.CancelTransaction(ctx, txID, s.now().UTC()); err != nil {
		return err
	}

	s.logger.Info("transaction cancelled", "transaction_id", txID, "user_id", userID)
	s.publish(ctx, events.TransactionCancelled, tx, userID)
	return nil
}

func (s *Service) publish(ctx context.Context, t events.Type, tx *models.Transaction, by string) {
	status := strings.TrimPrefix(string(t), "transaction.")
	err := s.publisher.Publish(ctx, events.Event{
		Type:       t,
		OccurredAt: s.now().UTC(),
		Payload: events.TransactionPayload{
			TransactionID: tx.TransactionId,
			User1ID:       tx.User1Id,
			User2ID:       tx.User2Id,
			Status:        status,
			ByUserID:      by,
		},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		s.logger.Error("failed to publish event", "type", t, "transaction_id", tx.TransactionId, "error", err)
	}
}
