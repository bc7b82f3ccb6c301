package transactions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/auth"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockLedger struct {
	mock.Mock
}

func (m *mockLedger) Get(ctx context.Context, txID, userID string) (*models.TransactionView, error) {
	args := m.Called(ctx, txID, userID)
	view, _ := args.Get(0).(*models.TransactionView)
	return view, args.Error(1)
}

func (m *mockLedger) ListForUser(ctx context.Context, userID string) ([]models.TransactionView, error) {
	args := m.Called(ctx, userID)
	views, _ := args.Get(0).([]models.TransactionView)
	return views, args.Error(1)
}

func (m *mockLedger) Confirm(ctx context.Context, txID, userID string) (*models.Transaction, error) {
	args := m.Called(ctx, txID, userID)
	tx, _ := args.Get(0).(*models.Transaction)
	return tx, args.Error(1)
}

func (m *mockLedger) Dispute(ctx context.Context, txID, userID, reason string) error {
	return m.Called(ctx, txID, userID, reason).Error(0)
}

func (m *mockLedger) Cancel(ctx context.Context, txID, userID string) error {
	return m.Called(ctx, txID, userID).Error(0)
}

func serve(h *TransactionsHandler, method, path, userID, body string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	h.Routes(router)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if userID != "" {
		req = req.WithContext(auth.WithUserID(req.Context(), userID))
	}
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestGetTransactionById(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockLedger := new(mockLedger)
		mockLedger.On("Get", mock.Anything, "tx1", "alice").Return(&models.TransactionView{
			Transaction: models.Transaction{TransactionId: "tx1", User1Id: "alice", User2Id: "bob"},
			UserRole:    models.User1,
		}, nil)

		rr := serve(NewTransactionsHandler(mockLedger), http.MethodGet, "/api/transactions/tx1", "alice", "")

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"user_role":"user1"`)
		mockLedger.AssertExpectations(t)
	})

	t.Run("Not A Participant", func(t *testing.T) {
		mockLedger := new(mockLedger)
		mockLedger.On("Get", mock.Anything, "tx1", "mallory").Return(nil, apperr.New(apperr.ErrForbidden, "not a participant"))

		rr := serve(NewTransactionsHandler(mockLedger), http.MethodGet, "/api/transactions/tx1", "mallory", "")

		assert.Equal(t, http.StatusForbidden, rr.Code)
		mockLedger.AssertExpectations(t)
	})

	t.Run("Anonymous", func(t *testing.T) {
		mockLedger := new(mockLedger)

		rr := serve(NewTransactionsHandler(mockLedger), http.MethodGet, "/api/transactions/tx1", "", "")

		assert.Equal(t, http.StatusUnauthorized, rr.Code)
		mockLedger.AssertNotCalled(t, "Get", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestConfirmTransactionById(t *testing.T) {
	mockLedger := new(mockLedger)
	mockLedger.On("Confirm", mock.Anything, "tx1", "bob").Return(&models.Transaction{
		TransactionId: "tx1",
		Status:        models.TransactionCompleted,
	}, nil)

	rr := serve(NewTransactionsHandler(mockLedger), http.MethodPost, "/api/transactions/tx1/confirm", "bob", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"status":"completed"`)
	mockLedger.AssertExpectations(t)
}

func TestDisputeTransactionById(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockLedger := new(mockLedger)
		mockLedger.On("Dispute", mock.Anything, "tx1", "alice", "no show").Return(nil)

		rr := serve(NewTransactionsHandler(mockLedger), http.MethodPost, "/api/transactions/tx1/dispute", "alice", `{"reason":"no show"}`)

		assert.Equal(t, http.StatusNoContent, rr.Code)
		mockLedger.AssertExpectations(t)
	})

	t.Run("Invalid Body", func(t *testing.T) {
		mockLedger := new(mockLedger)

		rr := serve(NewTransactionsHandler(mockLedger), http.MethodPost, "/api/transactions/tx1/dispute", "alice", `{`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		mockLedger.AssertNotCalled(t, "Dispute", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCancelTransactionById(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		mockLedger := new(mockLedger)
		mockLedger.On("Cancel", mock.Anything, "tx1", "alice").Return(nil)

		rr := serve(NewTransactionsHandler(mockLedger), http.MethodPost, "/api/transactions/tx1/cancel", "alice", "")

		assert.Equal(t, http.StatusNoContent, rr.Code)
		mockLedger.AssertExpectations(t)
	})

	t.Run("Not Cancellable", func(t *testing.T) {
		mockLedger := new(mockLedger)
		mockLedger.On("Cancel", mock.Anything, "tx1", "alice").Return(apperr.New(apperr.ErrInvalidTransition, "transaction tx1 is completed"))

		rr := serve(NewTransactionsHandler(mockLedger), http.MethodPost, "/api/transactions/tx1/cancel", "alice", "")

		assert.Equal(t, http.StatusConflict, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalid_transition")
		mockLedger.AssertExpectations(t)
	})
}

func TestListMyTransactions(t *testing.T) {
	mockLedger := new(mockLedger)
	mockLedger.On("ListForUser", mock.Anything, "alice").Return(nil, apperr.New(apperr.ErrUnavailable, "store down"))

	rr := serve(NewTransactionsHandler(mockLedger), http.MethodGet, "/api/me/transactions", "alice", "")

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
	mockLedger.AssertExpectations(t)
}
