package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/iho/opsledger/internal/adapter/http/dto"
	"github.com/iho/opsledger/internal/usecase"
)

// BalanceService reads account balances.
type BalanceService interface {
	Balance(ctx context.Context, accountID string, asOf time.Time) (*usecase.AccountBalance, error)
}

// VerifyService replays stored balance snapshots.
type VerifyService interface {
	ReconcileAccount(ctx context.Context, accountID string) (*usecase.ReconciliationResult, error)
}

// LedgerHandler handles account balance reads.
type LedgerHandler struct {
	balances BalanceService
	verifier VerifyService
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(balances BalanceService, verifier VerifyService) *LedgerHandler {
	return &LedgerHandler{balances: balances, verifier: verifier}
}

// Balance returns an account's balance at the end of ?as_of (default today).
func (h *LedgerHandler) Balance(w http.ResponseWriter, r *http.Request) {
	asOf, err := parseDateQuery(r, "as_of")
	if err != nil {
		writeError(w, err)
		return
	}

	balance, err := h.balances.Balance(r.Context(), chi.URLParam(r, "id"), asOf)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.BalanceFromUseCase(balance))
}

// Verify reports snapshots whose stored balances disagree with the ledger.
// It answers 200 either way; is_reconciled carries the verdict.
func (h *LedgerHandler) Verify(w http.ResponseWriter, r *http.Request) {
	result, err := h.verifier.ReconcileAccount(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.VerifyFromResult(result))
}
