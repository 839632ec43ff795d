package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vasitum/interviewsched/internal/booking"
)

type SlotHandler struct {
	arbiter *booking.Arbiter
	logger  *slog.Logger
}

func NewSlotHandler(arbiter *booking.Arbiter, logger *slog.Logger) *SlotHandler {
	return &SlotHandler{arbiter: arbiter, logger: logger}
}

// ListAvailable serves cursor-paginated available slots. Query params:
// from, to (RFC 3339, both optional), cursor, limit.
func (h *SlotHandler) ListAvailable(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	from, ok := parseTimeParam(w, q.Get("from"), "from")
	if !ok {
		return
	}
	to, ok := parseTimeParam(w, q.Get("to"), "to")
	if !ok {
		return
	}
	limit := 0
	if raw := strings.TrimSpace(q.Get("limit")); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = n
	}

	page, err := h.arbiter.ListAvailable(r.Context(), from, to, q.Get("cursor"), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (h *SlotHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := parseID(w, r.URL.Query().Get("id"))
	if !ok {
		return
	}
	slot, err := h.arbiter.Get(r.Context(), id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

// ByInterviewer lists one interviewer's slots regardless of status.
func (h *SlotHandler) ByInterviewer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	q := r.URL.Query()
	id, ok := parseID(w, q.Get("interviewer_id"))
	if !ok {
		return
	}
	from, ok := parseTimeParam(w, q.Get("from"), "from")
	if !ok {
		return
	}
	to, ok := parseTimeParam(w, q.Get("to"), "to")
	if !ok {
		return
	}

	slots, err := h.arbiter.ListByInterviewer(r.Context(), id, from, to)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"slots": slots})
}

type bookRequest struct {
	SlotID         int64  `json:"slot_id"`
	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`
}

func (h *SlotHandler) Book(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.SlotID <= 0 {
		http.Error(w, "slot_id is required", http.StatusBadRequest)
		return
	}

	slot, err := h.arbiter.Book(r.Context(), req.SlotID, req.CandidateName, req.CandidateEmail)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func (h *SlotHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.SlotID <= 0 {
		http.Error(w, "slot_id is required", http.StatusBadRequest)
		return
	}

	slot, err := h.arbiter.Update(r.Context(), req.SlotID, req.CandidateName, req.CandidateEmail)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

type cancelRequest struct {
	SlotID int64 `json:"slot_id"`
}

func (h *SlotHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req cancelRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.SlotID <= 0 {
		http.Error(w, "slot_id is required", http.StatusBadRequest)
		return
	}

	slot, err := h.arbiter.Cancel(r.Context(), req.SlotID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, slot)
}

func parseTimeParam(w http.ResponseWriter, raw, name string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, true
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		http.Error(w, "invalid "+name, http.StatusBadRequest)
		return time.Time{}, false
	}
	return t, true
}
