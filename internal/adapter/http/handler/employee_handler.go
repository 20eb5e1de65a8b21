package handler

import (
	"context"
	"net/http"

	"github.com/iho/opsledger/internal/adapter/http/dto"
	"github.com/iho/opsledger/internal/usecase"
)

// EmployeeService is the onboarding use case consumed by EmployeeHandler.
type EmployeeService interface {
	CreateEmployee(ctx context.Context, input usecase.CreateEmployeeInput) (*usecase.CreateEmployeeOutput, error)
}

// EmployeeHandler handles employee onboarding HTTP requests.
type EmployeeHandler struct {
	employees EmployeeService
}

// NewEmployeeHandler creates a new EmployeeHandler.
func NewEmployeeHandler(employees EmployeeService) *EmployeeHandler {
	return &EmployeeHandler{employees: employees}
}

// Create onboards an employee. Mail routing that could not be set up is
// reported in the body, not as an error.
func (h *EmployeeHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateEmployeeRequest
	if err := dto.Decode(r, &req); err != nil {
		writeError(w, err)
		return
	}

	out, err := h.employees.CreateEmployee(r.Context(), req.ToUseCaseInput(actorFrom(r)))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, dto.EmployeeFromOutput(out))
}
