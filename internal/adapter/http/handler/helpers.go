package handler

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/iho/opsledger/internal/adapter/http/dto"
	"github.com/iho/opsledger/internal/domain"
)

// ActorHeader names the operator on whose behalf a request runs.
const ActorHeader = "X-Actor"

const defaultActor = "api"

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// writeError writes err with the status of its kind. Internal errors hide
// their message.
func writeError(w http.ResponseWriter, err error) {
	status := mapDomainError(err)

	resp := dto.ErrorResponse{Error: string(domain.KindOf(err))}
	if typed := domain.AsError(err); typed != nil {
		resp.Reason = typed.Reason()
		if status != http.StatusInternalServerError {
			resp.Message = typed.Message()
		}
	}

	writeJSON(w, status, resp)
}

// mapDomainError maps domain error kinds to HTTP status codes.
func mapDomainError(err error) int {
	switch domain.KindOf(err) {
	case domain.KindValidation:
		return http.StatusBadRequest
	case domain.KindNotFound:
		return http.StatusNotFound
	case domain.KindBusiness:
		return http.StatusUnprocessableEntity
	case domain.KindDuplicate:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// actorFrom returns the acting operator of r.
func actorFrom(r *http.Request) string {
	if actor := r.Header.Get(ActorHeader); actor != "" {
		return actor
	}
	return defaultActor
}

// parseDateQuery parses an optional YYYY-MM-DD query parameter.
func parseDateQuery(r *http.Request, key string) (time.Time, error) {
	return dto.ParseDate(r.URL.Query().Get(key))
}
