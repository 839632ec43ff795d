package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/vasitum/interviewsched/internal/scheduling"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP statuses. Internal
// details never leak: anything unclassified becomes a generic 500.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case scheduling.IsNotFound(err):
		http.Error(w, err.Error(), http.StatusNotFound)
	case scheduling.IsConflict(err):
		http.Error(w, err.Error(), http.StatusConflict)
	case scheduling.IsValidation(err):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case scheduling.IsTransient(err):
		http.Error(w, "temporarily unavailable, please retry", http.StatusServiceUnavailable)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
