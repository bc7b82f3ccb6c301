package requests

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/chris/skill-swap/pkg/apperr"
	"github.com/chris/skill-swap/pkg/auth"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/chris/skill-swap/pkg/swaps"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
)

type mockSwaps struct {
	mock.Mock
}

func (m *mockSwaps) CreateRequest(ctx context.Context, in swaps.CreateInput) (*models.SwapRequest, error) {
	args := m.Called(ctx, in)
	req, _ := args.Get(0).(*models.SwapRequest)
	return req, args.Error(1)
}

func (m *mockSwaps) GetRequest(ctx context.Context, requestID string) (*models.SwapRequest, error) {
	args := m.Called(ctx, requestID)
	req, _ := args.Get(0).(*models.SwapRequest)
	return req, args.Error(1)
}

func (m *mockSwaps) ListRequests(ctx context.Context, userID string, scope swaps.Scope) ([]models.SwapRequestView, error) {
	args := m.Called(ctx, userID, scope)
	views, _ := args.Get(0).([]models.SwapRequestView)
	return views, args.Error(1)
}

func (m *mockSwaps) UpdateStatus(ctx context.Context, requestID, byUserID string, status models.RequestStatus, responseMessage string) (*models.SwapRequest, error) {
	args := m.Called(ctx, requestID, byUserID, status, responseMessage)
	req, _ := args.Get(0).(*models.SwapRequest)
	return req, args.Error(1)
}

func serve(h *RequestsHandler, method, path, userID, body string) *httptest.ResponseRecorder {
	router := chi.NewRouter()
	h.Routes(router)

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req = req.WithContext(auth.WithUserID(req.Context(), userID))
	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, req)
	return rr
}

func TestCreateRequest(t *testing.T) {
	t.Run("Sender Is Caller", func(t *testing.T) {
		mockSwaps := new(mockSwaps)
		mockSwaps.On("CreateRequest", mock.Anything, swaps.CreateInput{
			SenderID:           "alice",
			ReceiverID:         "bob",
			OfferedSkillName:   "Guitar",
			RequestedSkillName: "Spanish",
			Message:            "hi",
		}).Return(&models.SwapRequest{RequestId: "r1", Status: models.RequestPending}, nil)

		body := `{"receiver_id":"bob","offered_skill_name":"Guitar","requested_skill_name":"Spanish","message":"hi"}`
		rr := serve(NewRequestsHandler(mockSwaps), http.MethodPost, "/api/swap-requests", "alice", body)

		assert.Equal(t, http.StatusCreated, rr.Code)
		assert.Contains(t, rr.Body.String(), `"request_id":"r1"`)
		mockSwaps.AssertExpectations(t)
	})

	t.Run("Self Swap", func(t *testing.T) {
		mockSwaps := new(mockSwaps)
		mockSwaps.On("CreateRequest", mock.Anything, mock.Anything).Return(nil, apperr.New(apperr.ErrInvalidArgument, "cannot send a swap request to yourself"))

		rr := serve(NewRequestsHandler(mockSwaps), http.MethodPost, "/api/swap-requests", "alice", `{"receiver_id":"alice"}`)

		assert.Equal(t, http.StatusBadRequest, rr.Code)
		assert.Contains(t, rr.Body.String(), "invalid_argument")
	})
}

func TestListMyRequests(t *testing.T) {
	t.Run("Defaults To All", func(t *testing.T) {
		mockSwaps := new(mockSwaps)
		mockSwaps.On("ListRequests", mock.Anything, "bob", swaps.ScopeAll).Return([]models.SwapRequestView{}, nil)

		rr := serve(NewRequestsHandler(mockSwaps), http.MethodGet, "/api/me/swap-requests", "bob", "")

		assert.Equal(t, http.StatusOK, rr.Code)
		mockSwaps.AssertExpectations(t)
	})

	t.Run("Scope From Query", func(t *testing.T) {
		mockSwaps := new(mockSwaps)
		mockSwaps.On("ListRequests", mock.Anything, "bob", swaps.ScopeSent).Return([]models.SwapRequestView{}, nil)

		rr := serve(NewRequestsHandler(mockSwaps), http.MethodGet, "/api/me/swap-requests?type=sent", "bob", "")

		assert.Equal(t, http.StatusOK, rr.Code)
		mockSwaps.AssertExpectations(t)
	})
}

func TestGetRequestById(t *testing.T) {
	req := &models.SwapRequest{RequestId: "r1", SenderId: "alice", ReceiverId: "bob"}

	mockSwaps := new(mockSwaps)
	mockSwaps.On("GetRequest", mock.Anything, "r1").Return(req, nil)
	h := NewRequestsHandler(mockSwaps)

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/api/swap-requests/r1", "bob", "").Code)
	assert.Equal(t, http.StatusForbidden, serve(h, http.MethodGet, "/api/swap-requests/r1", "carol", "").Code)
}

func TestUpdateRequestStatus(t *testing.T) {
	t.Run("Accept", func(t *testing.T) {
		mockSwaps := new(mockSwaps)
		mockSwaps.On("UpdateStatus", mock.Anything, "r1", "bob", models.RequestAccepted, "Deal").Return(&models.SwapRequest{
			RequestId: "r1", Status: models.RequestAccepted, TransactionId: "tx1",
		}, nil)

		rr := serve(NewRequestsHandler(mockSwaps), http.MethodPut, "/api/swap-requests/r1/update", "bob", `{"status":"accepted","response_message":"Deal"}`)

		assert.Equal(t, http.StatusOK, rr.Code)
		assert.Contains(t, rr.Body.String(), `"transaction_id":"tx1"`)
		mockSwaps.AssertExpectations(t)
	})

	t.Run("Already Closed", func(t *testing.T) {
		mockSwaps := new(mockSwaps)
		mockSwaps.On("UpdateStatus", mock.Anything, "r1", "bob", models.RequestRejected, "").Return(nil, apperr.New(apperr.ErrInvalidTransition, "swap request r1 is accepted"))

		rr := serve(NewRequestsHandler(mockSwaps), http.MethodPut, "/api/swap-requests/r1/update", "bob", `{"status":"rejected"}`)

		assert.Equal(t, http.StatusConflict, rr.Code)
		mockSwaps.AssertExpectations(t)
	})
}
