package httpapi

import (
	"encoding/json"
	"net/http"

	"tierd/internal/domain"
	"tierd/internal/engine"
	"tierd/pkg/types"
)

// writeJSONError writes a consistent JSON error payload.
func writeJSONError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, types.ErrorResponse{Error: msg, Code: status})
}

// writeError maps err through the domain taxonomy. Busy and capacity rejections are
// counted as backpressure.
func writeError(w http.ResponseWriter, err error) {
	body := engine.ErrorBody(err)
	switch domain.KindOf(err) {
	case domain.KindBusy:
		IncrementBackpressure("busy")
	case domain.KindInsufficientCapacity:
		IncrementBackpressure("capacity")
	}
	writeJSON(w, body.Code, body)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
