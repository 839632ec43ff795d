// Package generator materializes bookable slots from weekly availability
// templates over a rolling two-week horizon. Generation is idempotent:
// a (interviewer, start, end) triple that already exists is skipped, so
// re-running after a template change only fills the gaps.
package generator

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"time"

	"github.com/vasitum/interviewsched/internal/model"
	"github.com/vasitum/interviewsched/internal/notify"
	"github.com/vasitum/interviewsched/internal/scheduling"
	"github.com/vasitum/interviewsched/internal/store"
)

const EventSlotsGenerated = "interview.slots.generated.v1"

type Generator struct {
	store    store.Store
	pipeline *notify.Pipeline
	logger   *slog.Logger
	now      func() time.Time
}

type Option func(*Generator)

func WithClock(now func() time.Time) Option {
	return func(g *Generator) { g.now = now }
}

func New(st store.Store, pipeline *notify.Pipeline, logger *slog.Logger, opts ...Option) *Generator {
	g := &Generator{
		store:    st,
		pipeline: pipeline,
		logger:   logger,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type generatedEvent struct {
	InterviewerID int64     `json:"interviewer_id"`
	SlotsCreated  int       `json:"slots_created"`
	WindowStart   time.Time `json:"window_start"`
	WindowEnd     time.Time `json:"window_end"`
}

// ForInterviewer generates slots for one interviewer and returns how many
// were created. A generation alert is enqueued only when at least one new
// slot appeared.
func (g *Generator) ForInterviewer(ctx context.Context, interviewerID int64) (int, error) {
	iv, err := g.store.GetInterviewer(ctx, interviewerID)
	if err != nil {
		return 0, err
	}
	templates, err := g.store.ListActiveTemplates(ctx, iv.ID)
	if err != nil {
		return 0, err
	}

	now := g.now()
	windowStart := now
	// The horizon is calendar days, aligned to midnight: today plus the
	// rest of the two-week window. Aligning the day loop and the de-dup
	// snapshot to the same boundary is what keeps re-runs idempotent.
	dayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	windowEnd := dayStart.AddDate(0, 0, int(scheduling.Horizon/(24*time.Hour)))

	existing, err := g.store.ListSlotsByInterviewer(ctx, iv.ID, windowStart, windowEnd)
	if err != nil {
		return 0, err
	}
	taken := make(map[[2]int64]struct{}, len(existing))
	for _, s := range existing {
		taken[[2]int64{s.StartTime.Unix(), s.EndTime.Unix()}] = struct{}{}
	}

	var slots []model.Slot
	for day := dayStart; day.Before(windowEnd); day = day.AddDate(0, 0, 1) {
		for _, tpl := range templates {
			if tpl.DayOfWeek != day.Weekday() {
				continue
			}
			start, err := atClockTime(day, tpl.StartTime)
			if err != nil {
				return 0, err
			}
			end, err := atClockTime(day, tpl.EndTime)
			if err != nil {
				return 0, err
			}
			// Chunk as long as a slot can start inside the window. The
			// last slot may run past the template end.
			for cur := start; cur.Before(end); cur = cur.Add(scheduling.SlotDuration) {
				slotEnd := cur.Add(scheduling.SlotDuration)
				if !cur.After(now) {
					continue
				}
				key := [2]int64{cur.Unix(), slotEnd.Unix()}
				if _, ok := taken[key]; ok {
					continue
				}
				taken[key] = struct{}{}
				slots = append(slots, model.Slot{
					InterviewerID: iv.ID,
					StartTime:     cur,
					EndTime:       slotEnd,
					Status:        model.SlotAvailable,
				})
			}
		}
	}

	if len(slots) == 0 {
		g.logger.Info("no new slots to generate", "interviewer_id", iv.ID)
		return 0, nil
	}

	if err := g.store.InsertSlots(ctx, slots); err != nil {
		return 0, err
	}

	alert := notify.NewSlotGenerationAlert(iv, len(slots))
	if err := g.pipeline.Enqueue(ctx, &alert); err != nil {
		// The slots exist regardless; the alert is best effort.
		g.logger.Error("failed to enqueue generation alert", "interviewer_id", iv.ID, "err", err)
	}

	payload, _ := json.Marshal(generatedEvent{
		InterviewerID: iv.ID,
		SlotsCreated:  len(slots),
		WindowStart:   windowStart,
		WindowEnd:     windowEnd,
	})
	if err := g.store.InsertOutboxEvent(ctx, store.OutboxEvent{
		AggregateType: "interviewer",
		AggregateID:   strconv.FormatInt(iv.ID, 10),
		EventType:     EventSlotsGenerated,
		Payload:       payload,
	}); err != nil {
		g.logger.Error("failed to record generation event", "interviewer_id", iv.ID, "err", err)
	}

	g.logger.Info("slots generated", "interviewer_id", iv.ID, "count", len(slots))
	return len(slots), nil
}

// ForAll runs generation for every interviewer and returns the total
// number of slots created. One interviewer's failure does not stop the
// rest; the first error is reported after the loop completes.
func (g *Generator) ForAll(ctx context.Context) (int, error) {
	interviewers, err := g.store.ListInterviewers(ctx)
	if err != nil {
		return 0, err
	}

	var total int
	var firstErr error
	for _, iv := range interviewers {
		n, err := g.ForInterviewer(ctx, iv.ID)
		if err != nil {
			g.logger.Error("generation failed", "interviewer_id", iv.ID, "err", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		total += n
	}
	return total, firstErr
}

// atClockTime combines a date with an "HH:MM" clock time in the date's
// location.
func atClockTime(day time.Time, hhmm string) (time.Time, error) {
	t, err := time.Parse("15:04", hhmm)
	if err != nil {
		return time.Time{}, scheduling.Validation("invalid template time %q: %v", hhmm, err)
	}
	return time.Date(day.Year(), day.Month(), day.Day(), t.Hour(), t.Minute(), 0, 0, day.Location()), nil
}

// ValidateTemplate rejects malformed availability windows before they are
// persisted.
func ValidateTemplate(tpl model.AvailabilityTemplate) error {
	if tpl.DayOfWeek < time.Sunday || tpl.DayOfWeek > time.Saturday {
		return scheduling.Validation("invalid day of week %d", tpl.DayOfWeek)
	}
	start, err := time.Parse("15:04", tpl.StartTime)
	if err != nil {
		return scheduling.Validation("invalid start time %q", tpl.StartTime)
	}
	end, err := time.Parse("15:04", tpl.EndTime)
	if err != nil {
		return scheduling.Validation("invalid end time %q", tpl.EndTime)
	}
	if !end.After(start) {
		return scheduling.Validation("template end %s must be after start %s", tpl.EndTime, tpl.StartTime)
	}
	return nil
}
