package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/iho/opsledger/internal/adapter/http/dto"
	"github.com/iho/opsledger/internal/usecase"
)

// BillService is the bill use case consumed by BillHandler.
type BillService interface {
	PayBill(ctx context.Context, billID string, input usecase.PayBillInput) (*usecase.PayBillOutput, error)
}

// BillHandler handles payable bill HTTP requests.
type BillHandler struct {
	bills BillService
}

// NewBillHandler creates a new BillHandler.
func NewBillHandler(bills BillService) *BillHandler {
	return &BillHandler{bills: bills}
}

// Pay pays a bill.
func (h *BillHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req dto.PayBillRequest
	if err := dto.Decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	input, err := req.ToUseCaseInput(actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	out, err := h.bills.PayBill(r.Context(), chi.URLParam(r, "id"), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PayBillFromOutput(out))
}
