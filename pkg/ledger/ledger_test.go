package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/events"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// acceptedSwap stores alice and bob plus an accepted request between them and
// returns the spawned transaction.
func acceptedSwap(t *testing.T, store *memory.Store) *models.Transaction {
	t.Helper()
	ctx := context.Background()
	now := time.Now().UTC()

	for _, id := range []string{"alice", "bob"} {
		_, err := store.CreateUser(ctx, &models.User{UserId: id})
		require.NoError(t, err)
	}

	req := &models.SwapRequest{
		RequestId:          "req1",
		SenderId:           "alice",
		ReceiverId:         "bob",
		OfferedSkillName:   "Guitar",
		RequestedSkillName: "Spanish",
		Status:             models.RequestPending,
		CreatedAt:          now,
		ExpiresAt:          now.Add(time.Hour),
	}
	require.NoError(t, store.CreateSwapRequest(ctx, req))

	tx := NewFromRequest(req, now)
	req.Status = models.RequestAccepted
	require.NoError(t, store.CloseSwapRequest(ctx, req, tx))
	return tx
}

// failingCompletion fails the first completion attempts with an outage.
type failingCompletion struct {
	*memory.Store
	failures int
}

func (f *failingCompletion) CompleteTransaction(ctx context.Context, tx *models.Transaction, p models.Participant, at time.Time) (bool, error) {
	if f.failures > 0 {
		f.failures--
		return false, apperr.New(apperr.ErrUnavailable, "dynamodb throttled")
	}
	return f.Store.CompleteTransaction(ctx, tx, p, at)
}

func TestNewFromRequest(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)
	tx := NewFromRequest(&models.SwapRequest{
		RequestId:          "req1",
		SenderId:           "alice",
		ReceiverId:         "bob",
		OfferedSkillName:   "Guitar",
		RequestedSkillName: "Spanish",
	}, now)

	assert.NotEmpty(t, tx.TransactionId)
	assert.Equal(t, "req1", tx.BarterRequestId)
	assert.Equal(t, "alice", tx.User1Id)
	assert.Equal(t, "bob", tx.User2Id)
	assert.Equal(t, "Guitar", tx.User1Skill)
	assert.Equal(t, "Spanish", tx.User2Skill)
	assert.Equal(t, models.TransactionInProgress, tx.Status)
	assert.Equal(t, now.Add(14*24*time.Hour), tx.ExpectedEndDate)
	assert.False(t, tx.User1Confirmed)
	assert.False(t, tx.User2Confirmed)
	assert.Zero(t, tx.CompletionPercentage)
}

func TestConfirm(t *testing.T) {
	ctx := context.Background()

	t.Run("Both Confirm Completes Once", func(t *testing.T) {
		store := memory.New()
		pub := &events.RecordingPublisher{}
		svc := NewService(store, pub, nil)
		tx := acceptedSwap(t, store)

		got, err := svc.Confirm(ctx, tx.TransactionId, "alice")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionInProgress, got.Status)
		assert.Equal(t, 50, got.CompletionPercentage)

		got, err = svc.Confirm(ctx, tx.TransactionId, "alice")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionInProgress, got.Status)

		got, err = svc.Confirm(ctx, tx.TransactionId, "bob")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionCompleted, got.Status)
		assert.Equal(t, 100, got.CompletionPercentage)
		assert.NotNil(t, got.ActualEndDate)

		_, err = svc.Confirm(ctx, tx.TransactionId, "bob")
		require.NoError(t, err)

		for _, id := range []string{"alice", "bob"} {
			u, _ := store.GetUser(ctx, id)
			assert.Equal(t, int64(1), u.SuccessfulSwaps, id)
			assert.Equal(t, int64(1), u.TotalSwaps, id)
		}
		assert.Equal(t, []events.Type{events.TransactionCompleted}, pub.Types())
	})

	t.Run("Concurrent Confirmations", func(t *testing.T) {
		store := memory.New()
		svc := NewService(store, nil, nil)
		tx := acceptedSwap(t, store)

		var wg sync.WaitGroup
		for _, id := range []string{"alice", "bob", "alice", "bob"} {
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				_, _ = svc.Confirm(ctx, tx.TransactionId, id)
			}(id)
		}
		wg.Wait()

		got, err := store.GetTransaction(ctx, tx.TransactionId)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionCompleted, got.Status)

		alice, _ := store.GetUser(ctx, "alice")
		assert.Equal(t, int64(1), alice.SuccessfulSwaps)
	})

	t.Run("Failed Completion Leaves No Partial State", func(t *testing.T) {
		store := memory.New()
		svc := NewService(&failingCompletion{Store: store, failures: 1}, nil, nil)
		tx := acceptedSwap(t, store)

		_, err := svc.Confirm(ctx, tx.TransactionId, "alice")
		require.NoError(t, err)

		_, err = svc.Confirm(ctx, tx.TransactionId, "bob")
		assert.True(t, errors.Is(err, apperr.ErrUnavailable))

		stored, err := store.GetTransaction(ctx, tx.TransactionId)
		require.NoError(t, err)
		assert.Equal(t, models.TransactionInProgress, stored.Status)
		assert.True(t, stored.User1Confirmed)
		assert.False(t, stored.User2Confirmed)
		bob, _ := store.GetUser(ctx, "bob")
		assert.Zero(t, bob.SuccessfulSwaps)

		got, err := svc.Confirm(ctx, tx.TransactionId, "bob")
		require.NoError(t, err)
		assert.Equal(t, models.TransactionCompleted, got.Status)
		assert.True(t, got.User2Confirmed)
		bob, _ = store.GetUser(ctx, "bob")
		assert.Equal(t, int64(1), bob.SuccessfulSwaps)
	})

	t.Run("Outsider Forbidden", func(t *testing.T) {
		store := memory.New()
		svc := NewService(store, nil, nil)
		tx := acceptedSwap(t, store)

		_, err := svc.Confirm(ctx, tx.TransactionId, "mallory")
		assert.True(t, errors.Is(err, apperr.ErrForbidden))
	})

	t.Run("Unknown Transaction", func(t *testing.T) {
		svc := NewService(memory.New(), nil, nil)

		_, err := svc.Confirm(ctx, "missing", "alice")
		assert.True(t, errors.Is(err, apperr.ErrNotFound))
	})

	t.Run("Disputed Cannot Be Confirmed", func(t *testing.T) {
		store := memory.New()
		svc := NewService(store, nil, nil)
		tx := acceptedSwap(t, store)

		require.NoError(t, svc.Dispute(ctx, tx.TransactionId, "bob", "never showed up"))

		_, err := svc.Confirm(ctx, tx.TransactionId, "alice")
		assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))
	})
}

func TestDisputeAndCancel(t *testing.T) {
	ctx := context.Background()

	t.Run("Dispute", func(t *testing.T) {
		store := memory.New()
		pub := &events.RecordingPublisher{}
		svc := NewService(store, pub, nil)
		tx := acceptedSwap(t, store)

		err := svc.Dispute(ctx, tx.TransactionId, "alice", " ")
		assert.True(t, errors.Is(err, apperr.ErrInvalidArgument))

		err = svc.Dispute(ctx, tx.TransactionId, "mallory", "spam")
		assert.True(t, errors.Is(err, apperr.ErrForbidden))

		require.NoError(t, svc.Dispute(ctx, tx.TransactionId, "alice", "lessons cut short"))
		got, _ := store.GetTransaction(ctx, tx.TransactionId)
		assert.Equal(t, models.TransactionDisputed, got.Status)
		assert.True(t, got.IsDisputed)
		assert.Equal(t, "lessons cut short", got.DisputeReason)

		err = svc.Dispute(ctx, tx.TransactionId, "bob", "again")
		assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))
		assert.Equal(t, []events.Type{events.TransactionDisputed}, pub.Types())
	})

	t.Run("Cancel", func(t *testing.T) {
		store := memory.New()
		svc := NewService(store, nil, nil)
		tx := acceptedSwap(t, store)

		require.NoError(t, svc.Cancel(ctx, tx.TransactionId, "bob"))
		got, _ := store.GetTransaction(ctx, tx.TransactionId)
		assert.Equal(t, models.TransactionCancelled, got.Status)

		err := svc.Cancel(ctx, tx.TransactionId, "bob")
		assert.True(t, errors.Is(err, apperr.ErrInvalidTransition))
	})
}

func TestListForUser(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewService(store, nil, nil)
	tx := acceptedSwap(t, store)

	views, err := svc.ListForUser(ctx, "bob")
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, tx.TransactionId, views[0].TransactionId)
	assert.Equal(t, models.User2, views[0].UserRole)

	view, err := svc.Get(ctx, tx.TransactionId, "alice")
	require.NoError(t, err)
	assert.Equal(t, models.User1, view.UserRole)

	_, err = svc.Get(ctx, tx.TransactionId, "mallory")
	assert.True(t, errors.Is(err, apperr.ErrForbidden))

	views, err = svc.ListForUser(ctx, "carol")
	require.NoError(t, err)
	assert.Empty(t, views)
}
