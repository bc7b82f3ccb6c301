// Package swaps is the swap request state machine: pending requests move
// exactly once to accepted, rejected, cancelled or expired.
package swaps

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/events"
	"github.com/chris/skill-swap/pkg/ledger"
	"github.com/chris/skill-swap/pkg/metrics"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/scheduler"
	"github.com/chris/skill-swap/pkg/storage"
	"github.com/chris/skill-swap/pkg/telemetry"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// ExpiryWindow is how long a request stays pending without an answer.
const ExpiryWindow = 7 * 24 * time.Hour

// Scope selects which side of a user's requests ListRequests returns.
type Scope string

const (
	ScopeSent     Scope = "sent"
	ScopeReceived Scope = "received"
	ScopeAll      Scope = "all"
)

// Store is the storage the swap lifecycle needs.
type Store interface {
	storage.SwapRequestStore
	GetUser(ctx context.Context, userID string) (*models.User, error)
	GetSkill(ctx context.Context, skillID string) (*models.Skill, error)
}

// Service implements the swap request lifecycle.
type Service struct {
	store     Store
	scheduler scheduler.Scheduler
	publisher events.Publisher
	logger    *slog.Logger
	now       func() time.Time
}

// NewService creates a new Service. Nil collaborators fall back to no-op
// implementations and slog.Default().
func NewService(store Store, sched scheduler.Scheduler, publisher events.Publisher, logger *slog.Logger) *Service {
	if sched == nil {
		sched = scheduler.NoOpScheduler{}
	}
	if publisher == nil {
		publisher = &events.NoOpPublisher{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, scheduler: sched, publisher: publisher, logger: logger, now: time.Now}
}

// CreateInput holds the fields of a new swap request.
type CreateInput struct {
	SenderID           string
	ReceiverID         string
	OfferedSkillName   string
	RequestedSkillName string
	Message            string
}

// CreateRequest opens a pending request from sender to receiver and bumps the
// receiver's pending_requests counter in the same write.
func (s *Service) CreateRequest(ctx context.Context, in CreateInput) (*models.SwapRequest, error) {
	ctx, span := telemetry.Start(ctx, "swaps.CreateRequest")
	defer span.End()

	in.OfferedSkillName = strings.TrimSpace(in.OfferedSkillName)
	in.RequestedSkillName = strings.TrimSpace(in.RequestedSkillName)
	switch {
	case in.SenderID == "" || in.ReceiverID == "":
		return nil, apperr.New(apperr.ErrInvalidArgument, "sender and receiver are required")
	case in.SenderID == in.ReceiverID:
		return nil, apperr.New(apperr.ErrInvalidArgument, "cannot send a swap request to yourself")
	case in.OfferedSkillName == "" || in.RequestedSkillName == "":
		return nil, apperr.New(apperr.ErrInvalidArgument, "offered and requested skills are required")
	}

	for _, id := range []string{in.SenderID, in.ReceiverID} {
		if err := s.requireActive(ctx, id); err != nil {
			return nil, err
		}
	}
	for _, name := range []string{in.OfferedSkillName, in.RequestedSkillName} {
		if _, err := s.store.GetSkill(ctx, models.SkillID(name)); err != nil {
			return nil, err
		}
	}

	now := s.now().UTC()
	req := &models.SwapRequest{
		RequestId:          uuid.New().String(),
		SenderId:           in.SenderID,
		ReceiverId:         in.ReceiverID,
		OfferedSkillName:   in.OfferedSkillName,
		RequestedSkillName: in.RequestedSkillName,
		Message:            in.Message,
		Status:             models.RequestPending,
		CreatedAt:          now,
		UpdatedAt:          now,
		ExpiresAt:          now.Add(ExpiryWindow),
	}
	if err := s.store.CreateSwapRequest(ctx, req); err != nil {
		return nil, err
	}

	s.logger.Info("swap request created", "request_id", req.RequestId, "sender_id", req.SenderId, "receiver_id", req.ReceiverId)
	if err := s.scheduler.ScheduleExpiry(ctx, req.RequestId, req.ExpiresAt); err != nil {
		s.logger.Error("failed to schedule swap request expiry", "request_id", req.RequestId, "error", err)
	}
	s.publish(ctx, events.SwapRequested, req)
	return req, nil
}

func (s *Service) requireActive(ctx context.Context, userID string) error {
	u, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return err
	}
	if u.BanActive(s.now()) {
		return apperr.New(apperr.ErrForbidden, "user %s is banned", userID)
	}
	return nil
}

// GetRequest returns a request, expiring it first if it is overdue.
func (s *Service) GetRequest(ctx context.Context, requestID string) (*models.SwapRequest, error) {
	req, err := s.store.GetSwapRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if err := s.expireIfOverdue(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// ListRequests returns the user's requests in the given scope, newest first,
// each tagged with the user's side of it. Overdue requests are expired on the way.
func (s *Service) ListRequests(ctx context.Context, userID string, scope Scope) ([]models.SwapRequestView, error) {
	if scope == "" {
		scope = ScopeAll
	}
	if scope != ScopeSent && scope != ScopeReceived && scope != ScopeAll {
		return nil, apperr.New(apperr.ErrInvalidArgument, "invalid scope %q", scope)
	}

	var sent, received []models.SwapRequest
	g, gctx := errgroup.WithContext(ctx)
	if scope != ScopeReceived {
		g.Go(func() error {
			var err error
			sent, err = s.store.ListSwapRequestsBySender(gctx, userID)
			return err
		})
	}
	if scope != ScopeSent {
		g.Go(func() error {
			var err error
			received, err = s.store.ListSwapRequestsByReceiver(gctx, userID)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	views := make([]models.SwapRequestView, 0, len(sent)+len(received))
	for _, r := range sent {
		views = append(views, models.SwapRequestView{SwapRequest: r, Type: models.RoleSent})
	}
	for _, r := range received {
		views = append(views, models.SwapRequestView{SwapRequest: r, Type: models.RoleReceived})
	}
	for i := range views {
		if err := s.expireIfOverdue(ctx, &views[i].SwapRequest); err != nil {
			return nil, err
		}
	}
	sort.SliceStable(views, func(i, j int) bool {
		return views[i].CreatedAt.After(views[j].CreatedAt)
	})
	return views, nil
}

// UpdateStatus answers a pending request. The receiver may accept or reject
// it and the sender may cancel it. Accepting creates the transaction, links it
// to the request and releases the pending counter in a single write.
func (s *Service) UpdateStatus(ctx context.Context, requestID, byUserID string, status models.RequestStatus, responseMessage string) (*models.SwapRequest, error) {
	ctx, span := telemetry.Start(ctx, "swaps.UpdateStatus")
	defer span.End()

	if status != models.RequestAccepted && status != models.RequestRejected && status != models.RequestCancelled {
		return nil, apperr.New(apperr.ErrInvalidArgument, "invalid status %q", status)
	}

	req, err := s.store.GetSwapRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if byUserID != req.SenderId && byUserID != req.ReceiverId {
		return nil, apperr.New(apperr.ErrForbidden, "user %s is not a party to swap request %s", byUserID, requestID)
	}
	if err := s.expireIfOverdue(ctx, req); err != nil {
		return nil, err
	}
	if req.Status != models.RequestPending {
		return nil, apperr.New(apperr.ErrInvalidTransition, "swap request %s is %s", requestID, req.Status)
	}
	if status == models.RequestCancelled && byUserID != req.SenderId {
		return nil, apperr.New(apperr.ErrForbidden, "only the sender can cancel swap request %s", requestID)
	}
	if status != models.RequestCancelled && byUserID != req.ReceiverId {
		return nil, apperr.New(apperr.ErrForbidden, "only the receiver can %s swap request %s", strings.TrimSuffix(string(status), "ed"), requestID)
	}

	now := s.now().UTC()
	closed := *req
	closed.Status = status
	closed.ResponseMessage = responseMessage
	closed.UpdatedAt = now
	closed.RespondedAt = &now

	var tx *models.Transaction
	if status == models.RequestAccepted {
		tx = ledger.NewFromRequest(req, now)
		closed.TransactionId = tx.TransactionId
	}
	if err := s.store.CloseSwapRequest(ctx, &closed, tx); err != nil {
		return nil, err
	}

	metrics.SwapTransition(string(status))
	s.logger.Info("swap request closed", "request_id", requestID, "status", status, "by_user_id", byUserID, "transaction_id", closed.TransactionId)
	s.publish(ctx, transitionEvent(status), &closed)
	return &closed, nil
}

// Expire moves an overdue pending request to expired. It is idempotent: a
// request that is already terminal or not yet due is left alone.
func (s *Service) Expire(ctx context.Context, requestID string) error {
	req, err := s.store.GetSwapRequest(ctx, requestID)
	if err != nil {
		return err
	}
	return s.expireIfOverdue(ctx, req)
}

// expireIfOverdue expires req in the store when it is overdue and updates
// req in place to the stored outcome.
func (s *Service) expireIfOverdue(ctx context.Context, req *models.SwapRequest) error {
	now := s.now().UTC()
	if !req.Overdue(now) {
		return nil
	}

	expired := *req
	expired.Status = models.RequestExpired
	expired.UpdatedAt = now
	err := s.store.CloseSwapRequest(ctx, &expired, nil)
	if errors.Is(err, apperr.ErrInvalidTransition) {
		// Someone else closed it first; report what they stored.
		current, getErr := s.store.GetSwapRequest(ctx, req.RequestId)
		if getErr != nil {
			return getErr
		}
		*req = *current
		return nil
	}
	if err != nil {
		return err
	}

	*req = expired
	metrics.SwapTransition(string(models.RequestExpired))
	metrics.RequestsExpired(1)
	s.logger.Info("swap request expired", "request_id", req.RequestId)
	s.publish(ctx, events.SwapExpired, req)
	return nil
}

// Sweep expires every overdue pending request and returns how many it
// examined. Running it again finds nothing left to do.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	ctx, span := telemetry.Start(ctx, "swaps.Sweep")
	defer span.End()

	metrics.ExpirySweep()
	overdue, err := s.store.ListOverdueSwapRequests(ctx, s.now().UTC())
	if err != nil {
		return 0, err
	}

	var errs []error
	for i := range overdue {
		if err := s.expireIfOverdue(ctx, &overdue[i]); err != nil {
			s.logger.Error("failed to expire swap request", "request_id", overdue[i].RequestId, "error", err)
			errs = append(errs, err)
		}
	}
	if len(overdue) > 0 {
		s.logger.Info("expiry sweep finished", "overdue", len(overdue), "failed", len(errs))
	}
	return len(overdue), errors.Join(errs...)
}

// ListOverdue returns the pending requests whose expiry has passed.
func (s *Service) ListOverdue(ctx context.Context) ([]models.SwapRequest, error) {
	return s.store.ListOverdueSwapRequests(ctx, s.now().UTC())
}

func transitionEvent(status models.RequestStatus) events.Type {
	switch status {
	case models.RequestAccepted:
		return events.SwapAccepted
	case models.RequestRejected:
		return events.SwapRejected
	case models.RequestExpired:
		return events.SwapExpired
	}
	return events.SwapCancelled
}

func (s *Service) publish(ctx context.Context, t events.Type, req *models.SwapRequest) {
	err := s.publisher.Publish(ctx, events.Event{
		Type:       t,
		OccurredAt: s.now().UTC(),
		Payload: events.SwapPayload{
			RequestID:     req.RequestId,
			SenderID:      req.SenderId,
			ReceiverID:    req.ReceiverId,
			Status:        string(req.Status),
			TransactionID: req.TransactionId,
		},
	})
	if err != nil {
		s.logger.Error("failed to publish event", "type", t, "request_id", req.RequestId, "error", err)
	}
}
