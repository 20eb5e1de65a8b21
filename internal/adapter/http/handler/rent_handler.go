package handler

import (
	"context"
	"net/http"

	"github.com/iho/opsledger/internal/adapter/http/dto"
	"github.com/iho/opsledger/internal/usecase"
)

// RentService is the rent use case consumed by RentHandler.
type RentService interface {
	PayRent(ctx context.Context, input usecase.PayRentInput) (*usecase.PayRentOutput, error)
}

// RentHandler handles rent payment HTTP requests.
type RentHandler struct {
	rent RentService
}

// NewRentHandler creates a new RentHandler.
func NewRentHandler(rent RentService) *RentHandler {
	return &RentHandler{rent: rent}
}

// Pay records a monthly rent payment.
func (h *RentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	var req dto.PayRentRequest
	if err := dto.Decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	input, err := req.ToUseCaseInput(actorFrom(r))
	if err != nil {
		writeError(w, err)
		return
	}

	out, err := h.rent.PayRent(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.PayRentFromOutput(out))
}
