package transactions

import (
	"context"
	"net/http"

	"github.com/chris/skill-swap/pkg/mapping"
	"github.com/chris/skill-swap/pkg/models"
	"github.com/go-chi/chi/v5"
)

// LedgerService is the part of the transaction ledger the handlers use.
type LedgerService interface {
	Get(ctx context.Context, txID, userID string) (*models.TransactionView, error)
	ListForUser(ctx context.Context, userID string) ([]models.TransactionView, error)
	Confirm(ctx context.Context, txID, userID string) (*models.Transaction, error)
	Dispute(ctx context.Context, txID, userID, reason string) error
	Cancel(ctx context.Context, txID, userID string) error
}

// TransactionsHandler holds the dependencies for transaction routes.
type TransactionsHandler struct {
	Ledger LedgerService
}

// NewTransactionsHandler creates a new TransactionsHandler.
func NewTransactionsHandler(ledger LedgerService) *TransactionsHandler {
	return &TransactionsHandler{Ledger: ledger}
}

// Routes mounts the handlers on an authenticated router.
func (h *TransactionsHandler) Routes(r chi.Router) {
	r.Get("/api/me/transactions", h.ListMyTransactions)
	r.Route("/api/transactions/{id}", func(r chi.Router) {
		r.Get("/", func(w http.ResponseWriter, r *http.Request) {
			h.GetTransactionById(w, r, chi.URLParam(r, "id"))
		})
		r.Post("/confirm", func(w http.ResponseWriter, r *http.Request) {
			h.ConfirmTransactionById(w, r, chi.URLParam(r, "id"))
		})
		r.Post("/dispute", func(w http.ResponseWriter, r *http.Request) {
			h.DisputeTransactionById(w, r, chi.URLParam(r, "id"))
		})
		r.Post("/cancel", func(w http.ResponseWriter, r *http.Request) {
			h.CancelTransactionById(w, r, chi.URLParam(r, "id"))
		})
	})
}

// Dispute is the body of DisputeTransactionById.
type Dispute struct {
	Reason string `json:"reason"`
}

func (h *TransactionsHandler) ListMyTransactions(w http.ResponseWriter, r *http.Request) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}

	views, err := h.Ledger.ListForUser(r.Context(), userID)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, views)
}

// GetTransactionById handles the logic for retrieving a transaction by its ID.
func (h *TransactionsHandler) GetTransactionById(w http.ResponseWriter, r *http.Request, transactionId string) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}

	view, err := h.Ledger.Get(r.Context(), transactionId, userID)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, view)
}

// ConfirmTransactionById records the caller's confirmation.
func (h *TransactionsHandler) ConfirmTransactionById(w http.ResponseWriter, r *http.Request, transactionId string) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}

	tx, err := h.Ledger.Confirm(r.Context(), transactionId, userID)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	mapping.WriteJSON(w, http.StatusOK, tx)
}

func (h *TransactionsHandler) DisputeTransactionById(w http.ResponseWriter, r *http.Request, transactionId string) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}
	var body Dispute
	if err := mapping.DecodeJSON(r, &body); err != nil {
		mapping.WriteError(w, err)
		return
	}

	if err := h.Ledger.Dispute(r.Context(), transactionId, userID, body.Reason); err != nil {
		mapping.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CancelTransactionById handles the logic for cancelling a transaction.
func (h *TransactionsHandler) CancelTransactionById(w http.ResponseWriter, r *http.Request, transactionId string) {
	userID, err := mapping.UserID(r)
	if err != nil {
		mapping.WriteError(w, err)
		return
	}

	if err := h.Ledger.Cancel(r.Context(), transactionId, userID); err != nil {
		mapping.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
