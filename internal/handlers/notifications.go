package handlers

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/vasitum/interviewsched/internal/notify"
)

type NotificationHandler struct {
	pipeline *notify.Pipeline
	logger   *slog.Logger
}

func NewNotificationHandler(pipeline *notify.Pipeline, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{pipeline: pipeline, logger: logger}
}

// List serves notification history filtered by recipient email or slot
// id. Exactly one filter is required.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	email := strings.TrimSpace(q.Get("email"))
	rawSlot := strings.TrimSpace(q.Get("slot_id"))

	switch {
	case email != "" && rawSlot == "":
		items, err := h.pipeline.ByEmail(r.Context(), email)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"notifications": items})
	case rawSlot != "" && email == "":
		slotID, ok := parseID(w, rawSlot)
		if !ok {
			return
		}
		items, err := h.pipeline.BySlot(r.Context(), slotID)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"notifications": items})
	default:
		http.Error(w, "exactly one of email or slot_id is required", http.StatusBadRequest)
	}
}

// ProcessPending triggers an immediate pending sweep, handy for ops and
// local development instead of waiting for the ticker.
func (h *NotificationHandler) ProcessPending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	count, err := h.pipeline.SweepPending(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"processed": count})
}

func (h *NotificationHandler) RetryFailed(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	count, err := h.pipeline.RetryFailed(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"retried": count})
}
