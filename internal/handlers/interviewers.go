package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/vasitum/interviewsched/internal/generator"
	"github.com/vasitum/interviewsched/internal/model"
	"github.com/vasitum/interviewsched/internal/store"
)

type InterviewerHandler struct {
	store  store.Store
	gen    *generator.Generator
	logger *slog.Logger
}

func NewInterviewerHandler(st store.Store, gen *generator.Generator, logger *slog.Logger) *InterviewerHandler {
	return &InterviewerHandler{store: st, gen: gen, logger: logger}
}

type templateRequest struct {
	DayOfWeek int    `json:"day_of_week"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
}

type createInterviewerRequest struct {
	Name                 string            `json:"name"`
	Email                string            `json:"email"`
	MaxInterviewsPerWeek int               `json:"max_interviews_per_week"`
	Templates            []templateRequest `json:"templates"`
}

type interviewerResponse struct {
	Interviewer    model.Interviewer            `json:"interviewer"`
	Templates      []model.AvailabilityTemplate `json:"templates,omitempty"`
	SlotsGenerated int                          `json:"slots_generated"`
}

// Create registers an interviewer with their weekly availability and
// immediately materializes slots for the coming window.
func (h *InterviewerHandler) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		h.list(w, r)
		return
	}

	var req createInterviewerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	if req.Name == "" {
		http.Error(w, "name is required", http.StatusBadRequest)
		return
	}
	if req.Email == "" || !strings.Contains(req.Email, "@") {
		http.Error(w, "a valid email is required", http.StatusBadRequest)
		return
	}
	if req.MaxInterviewsPerWeek <= 0 {
		http.Error(w, "max_interviews_per_week must be positive", http.StatusBadRequest)
		return
	}

	templates, err := buildTemplates(req.Templates)
	if err != nil {
		writeError(w, err)
		return
	}

	iv := model.Interviewer{
		Name:                 req.Name,
		Email:                req.Email,
		MaxInterviewsPerWeek: req.MaxInterviewsPerWeek,
	}

	ctx := r.Context()
	if err := h.store.CreateInterviewer(ctx, &iv, templates); err != nil {
		writeError(w, err)
		return
	}

	generated, err := h.gen.ForInterviewer(ctx, iv.ID)
	if err != nil {
		// Registration succeeded; report it, slots can be regenerated later.
		h.logger.Error("initial slot generation failed", "interviewer_id", iv.ID, "err", err)
	}

	active, err := h.store.ListActiveTemplates(ctx, iv.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	h.logger.Info("interviewer registered", "interviewer_id", iv.ID, "slots_generated", generated)
	writeJSON(w, http.StatusCreated, interviewerResponse{
		Interviewer:    iv,
		Templates:      active,
		SlotsGenerated: generated,
	})
}

func (h *InterviewerHandler) list(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	interviewers, err := h.store.ListInterviewers(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"interviewers": interviewers})
}

func (h *InterviewerHandler) Get(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	id, ok := parseID(w, r.URL.Query().Get("id"))
	if !ok {
		return
	}

	ctx := r.Context()
	iv, err := h.store.GetInterviewer(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	templates, err := h.store.ListActiveTemplates(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, interviewerResponse{Interviewer: iv, Templates: templates})
}

type updateInterviewerRequest struct {
	ID                   int64              `json:"id"`
	Name                 string             `json:"name"`
	Email                string             `json:"email"`
	MaxInterviewsPerWeek int                `json:"max_interviews_per_week"`
	Templates            *[]templateRequest `json:"templates,omitempty"`
}

// Update rewrites the interviewer record and, when a template set is
// included, replaces the active templates and fills in any newly opened
// slots.
func (h *InterviewerHandler) Update(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost && r.Method != http.MethodPut {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req updateInterviewerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid json body", http.StatusBadRequest)
		return
	}
	if req.ID <= 0 {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}

	ctx := r.Context()
	iv, err := h.store.GetInterviewer(ctx, req.ID)
	if err != nil {
		writeError(w, err)
		return
	}

	if name := strings.TrimSpace(req.Name); name != "" {
		iv.Name = name
	}
	if email := strings.TrimSpace(req.Email); email != "" {
		if !strings.Contains(email, "@") {
			http.Error(w, "a valid email is required", http.StatusBadRequest)
			return
		}
		iv.Email = email
	}
	if req.MaxInterviewsPerWeek != 0 {
		if req.MaxInterviewsPerWeek < 0 {
			http.Error(w, "max_interviews_per_week must be positive", http.StatusBadRequest)
			return
		}
		iv.MaxInterviewsPerWeek = req.MaxInterviewsPerWeek
	}

	if err := h.store.UpdateInterviewer(ctx, &iv); err != nil {
		writeError(w, err)
		return
	}

	var generated int
	if req.Templates != nil {
		templates, err := buildTemplates(*req.Templates)
		if err != nil {
			writeError(w, err)
			return
		}
		if err := h.store.ReplaceTemplates(ctx, iv.ID, templates); err != nil {
			writeError(w, err)
			return
		}
		generated, err = h.gen.ForInterviewer(ctx, iv.ID)
		if err != nil {
			h.logger.Error("slot regeneration failed", "interviewer_id", iv.ID, "err", err)
		}
	}

	active, err := h.store.ListActiveTemplates(ctx, iv.ID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, interviewerResponse{
		Interviewer:    iv,
		Templates:      active,
		SlotsGenerated: generated,
	})
}

// GenerateSlots forces a generation pass, for one interviewer when id is
// given, otherwise for everyone.
func (h *InterviewerHandler) GenerateSlots(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	raw := strings.TrimSpace(r.URL.Query().Get("id"))
	if raw == "" {
		count, err := h.gen.ForAll(ctx)
		if err != nil && count == 0 {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]int{"slots_generated": count})
		return
	}

	id, ok := parseID(w, raw)
	if !ok {
		return
	}
	count, err := h.gen.ForInterviewer(ctx, id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"slots_generated": count})
}

func buildTemplates(reqs []templateRequest) ([]model.AvailabilityTemplate, error) {
	templates := make([]model.AvailabilityTemplate, 0, len(reqs))
	for _, t := range reqs {
		tpl := model.AvailabilityTemplate{
			DayOfWeek: time.Weekday(t.DayOfWeek),
			StartTime: strings.TrimSpace(t.StartTime),
			EndTime:   strings.TrimSpace(t.EndTime),
			Active:    true,
		}
		if err := generator.ValidateTemplate(tpl); err != nil {
			return nil, err
		}
		templates = append(templates, tpl)
	}
	return templates, nil
}

func parseID(w http.ResponseWriter, raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}
