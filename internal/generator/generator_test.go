package generator

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vasitum/interviewsched/internal/model"
	"github.com/vasitum/interviewsched/internal/notify"
	"github.com/vasitum/interviewsched/internal/scheduling"
	"github.com/vasitum/interviewsched/internal/store/memory"
)

// Wednesday. The two-week horizon ahead of it contains exactly two
// occurrences of every other weekday.
var testNow = time.Date(2026, 1, 7, 8, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

type okSender struct{}

func (okSender) Send(string, string, string) error { return nil }

func newTestGen(t *testing.T, templates ...model.AvailabilityTemplate) (*memory.Store, *Generator, model.Interviewer) {
	t.Helper()
	st := memory.New(memory.WithClock(testClock))
	iv := model.Interviewer{
		Name:                 "Jordan Blake",
		Email:                "jordan@vasitum.test",
		MaxInterviewsPerWeek: 10,
	}
	if err := st.CreateInterviewer(context.Background(), &iv, templates); err != nil {
		t.Fatalf("CreateInterviewer failed: %v", err)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := notify.NewPipeline(st, okSender{}, logger, notify.WithClock(testClock))
	gen := New(st, pipeline, logger, WithClock(testClock))
	return st, gen, iv
}

func TestGenerateFullDay(t *testing.T) {
	st, gen, iv := newTestGen(t, model.AvailabilityTemplate{
		DayOfWeek: time.Monday,
		StartTime: "09:00",
		EndTime:   "17:00",
	})

	ctx := context.Background()
	count, err := gen.ForInterviewer(ctx, iv.ID)
	if err != nil {
		t.Fatalf("ForInterviewer failed: %v", err)
	}
	// 8 one-hour slots per monday, two mondays in the horizon.
	if count != 16 {
		t.Fatalf("count = %d, want 16", count)
	}

	slots, err := st.ListSlotsByInterviewer(ctx, iv.ID, testNow, testNow.Add(scheduling.Horizon))
	if err != nil {
		t.Fatalf("ListSlotsByInterviewer failed: %v", err)
	}
	if len(slots) != 16 {
		t.Fatalf("stored %d slots, want 16", len(slots))
	}
	for _, s := range slots {
		if s.Status != model.SlotAvailable {
			t.Fatalf("slot %d status = %s", s.ID, s.Status)
		}
		if s.EndTime.Sub(s.StartTime) != scheduling.SlotDuration {
			t.Fatalf("slot %d duration = %v", s.ID, s.EndTime.Sub(s.StartTime))
		}
		if s.StartTime.Weekday() != time.Monday {
			t.Fatalf("slot %d on %s", s.ID, s.StartTime.Weekday())
		}
	}

	events := st.OutboxEvents()
	if len(events) != 1 || events[0].EventType != EventSlotsGenerated {
		t.Fatalf("unexpected outbox events: %+v", events)
	}
}

func TestGenerateIsIdempotent(t *testing.T) {
	_, gen, iv := newTestGen(t, model.AvailabilityTemplate{
		DayOfWeek: time.Monday,
		StartTime: "09:00",
		EndTime:   "17:00",
	})

	ctx := context.Background()
	if _, err := gen.ForInterviewer(ctx, iv.ID); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	count, err := gen.ForInterviewer(ctx, iv.ID)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("second run created %d slots, want 0", count)
	}
}

func TestGenerateBoundsHorizonToCalendarDays(t *testing.T) {
	// Template on the current weekday with a mid-morning clock. The horizon
	// covers fourteen calendar days starting today, so only two wednesdays
	// qualify; a wall-clock window would also admit the fifteenth day and
	// stage slots the de-dup snapshot never sees, breaking re-runs.
	st, gen, iv := newTestGen(t, model.AvailabilityTemplate{
		DayOfWeek: time.Wednesday,
		StartTime: "09:00",
		EndTime:   "17:00",
	})

	ctx := context.Background()
	count, err := gen.ForInterviewer(ctx, iv.ID)
	if err != nil {
		t.Fatalf("ForInterviewer failed: %v", err)
	}
	if count != 16 {
		t.Fatalf("count = %d, want 16", count)
	}

	horizonEnd := time.Date(2026, 1, 21, 0, 0, 0, 0, time.UTC)
	slots, err := st.ListSlotsByInterviewer(ctx, iv.ID, testNow, testNow.Add(30*24*time.Hour))
	if err != nil {
		t.Fatalf("ListSlotsByInterviewer failed: %v", err)
	}
	if len(slots) != 16 {
		t.Fatalf("stored %d slots, want 16", len(slots))
	}
	for _, s := range slots {
		if !s.StartTime.Before(horizonEnd) {
			t.Fatalf("slot starting %v is past the horizon end %v", s.StartTime, horizonEnd)
		}
	}

	// Every staged slot was inside the snapshot, so a re-run finds them all.
	again, err := gen.ForInterviewer(ctx, iv.ID)
	if err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	if again != 0 {
		t.Fatalf("second run created %d slots, want 0", again)
	}
	slots, err = st.ListSlotsByInterviewer(ctx, iv.ID, testNow, testNow.Add(30*24*time.Hour))
	if err != nil {
		t.Fatalf("ListSlotsByInterviewer failed: %v", err)
	}
	if len(slots) != 16 {
		t.Fatalf("stored %d slots after re-run, want 16", len(slots))
	}
}

func TestGeneratePartialWindowOverhangs(t *testing.T) {
	st, gen, iv := newTestGen(t, model.AvailabilityTemplate{
		DayOfWeek: time.Monday,
		StartTime: "09:00",
		EndTime:   "10:30",
	})

	ctx := context.Background()
	count, err := gen.ForInterviewer(ctx, iv.ID)
	if err != nil {
		t.Fatalf("ForInterviewer failed: %v", err)
	}
	// Two slots per monday: 09:00-10:00 and 10:00-11:00. The second one
	// runs past the template end rather than being dropped.
	if count != 4 {
		t.Fatalf("count = %d, want 4", count)
	}

	slots, err := st.ListSlotsByInterviewer(ctx, iv.ID, testNow, testNow.Add(scheduling.Horizon))
	if err != nil {
		t.Fatalf("ListSlotsByInterviewer failed: %v", err)
	}
	wantEnd := time.Date(2026, 1, 12, 11, 0, 0, 0, time.UTC)
	found := false
	for _, s := range slots {
		if s.EndTime.Equal(wantEnd) {
			found = true
		}
	}
	if !found {
		t.Fatalf("missing overhanging 10:00-11:00 slot, got %+v", slots)
	}
}

func TestGenerateSkipsPastSlotsToday(t *testing.T) {
	// Template on the current weekday; the 07:00 slot is already past at
	// the 08:00 clock and must not appear.
	st, gen, iv := newTestGen(t, model.AvailabilityTemplate{
		DayOfWeek: time.Wednesday,
		StartTime: "07:00",
		EndTime:   "10:00",
	})

	ctx := context.Background()
	if _, err := gen.ForInterviewer(ctx, iv.ID); err != nil {
		t.Fatalf("ForInterviewer failed: %v", err)
	}
	slots, err := st.ListSlotsByInterviewer(ctx, iv.ID, testNow.Add(-24*time.Hour), testNow.Add(24*time.Hour))
	if err != nil {
		t.Fatalf("ListSlotsByInterviewer failed: %v", err)
	}
	for _, s := range slots {
		if !s.StartTime.After(testNow) {
			t.Fatalf("generated past slot starting %v", s.StartTime)
		}
	}
	if len(slots) != 1 {
		t.Fatalf("got %d slots today, want 1 (09:00 only)", len(slots))
	}
}

func TestGenerationAlertOnlyWhenSlotsCreated(t *testing.T) {
	st, gen, iv := newTestGen(t, model.AvailabilityTemplate{
		DayOfWeek: time.Monday,
		StartTime: "09:00",
		EndTime:   "11:00",
	})

	ctx := context.Background()
	if _, err := gen.ForInterviewer(ctx, iv.ID); err != nil {
		t.Fatalf("first run failed: %v", err)
	}
	alerts, err := st.ListNotificationsByEmail(ctx, iv.Email)
	if err != nil {
		t.Fatalf("ListNotificationsByEmail failed: %v", err)
	}
	if len(alerts) != 1 || alerts[0].Type != model.SlotGenerationAlert {
		t.Fatalf("unexpected alerts after first run: %+v", alerts)
	}

	// An idempotent re-run creates nothing and must stay silent.
	if _, err := gen.ForInterviewer(ctx, iv.ID); err != nil {
		t.Fatalf("second run failed: %v", err)
	}
	alerts, err = st.ListNotificationsByEmail(ctx, iv.Email)
	if err != nil {
		t.Fatalf("ListNotificationsByEmail failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("got %d alerts after re-run, want 1", len(alerts))
	}
}

func TestGenerateUnknownInterviewer(t *testing.T) {
	_, gen, _ := newTestGen(t)
	if _, err := gen.ForInterviewer(context.Background(), 999); !scheduling.IsNotFound(err) {
		t.Fatalf("got %v, want not found", err)
	}
}

func TestValidateTemplate(t *testing.T) {
	good := model.AvailabilityTemplate{DayOfWeek: time.Tuesday, StartTime: "09:00", EndTime: "12:00"}
	if err := ValidateTemplate(good); err != nil {
		t.Fatalf("valid template rejected: %v", err)
	}

	bad := []model.AvailabilityTemplate{
		{DayOfWeek: 7, StartTime: "09:00", EndTime: "12:00"},
		{DayOfWeek: time.Tuesday, StartTime: "9am", EndTime: "12:00"},
		{DayOfWeek: time.Tuesday, StartTime: "09:00", EndTime: "nope"},
		{DayOfWeek: time.Tuesday, StartTime: "12:00", EndTime: "09:00"},
		{DayOfWeek: time.Tuesday, StartTime: "12:00", EndTime: "12:00"},
	}
	for i, tpl := range bad {
		if err := ValidateTemplate(tpl); !scheduling.IsValidation(err) {
			t.Fatalf("case %d: got %v, want validation error", i, err)
		}
	}
}
