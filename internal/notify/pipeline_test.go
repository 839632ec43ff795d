package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/vasitum/interviewsched/internal/model"
	"github.com/vasitum/interviewsched/internal/store/memory"
)

var testNow = time.Date(2026, 1, 7, 8, 0, 0, 0, time.UTC)

func testClock() time.Time { return testNow }

// fakeSender records sends and fails for recipients in failFor.
type fakeSender struct {
	sent    []string
	failFor map[string]bool
}

func (f *fakeSender) Send(to, subject, body string) error {
	if f.failFor[to] {
		return errors.New("smtp connection refused")
	}
	f.sent = append(f.sent, to)
	return nil
}

func newTestPipeline(t *testing.T, sender *fakeSender) (*memory.Store, *Pipeline) {
	t.Helper()
	st := memory.New(memory.WithClock(testClock))
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return st, NewPipeline(st, sender, logger, WithClock(testClock))
}

func enqueue(t *testing.T, p *Pipeline, email string, scheduledFor time.Time) model.Notification {
	t.Helper()
	n := model.Notification{
		RecipientEmail: email,
		Subject:        "Interview Reminder - Tomorrow",
		Content:        "reminder body",
		Type:           model.InterviewReminder,
		ScheduledFor:   scheduledFor,
	}
	if err := p.Enqueue(context.Background(), &n); err != nil {
		t.Fatalf("Enqueue failed: %v", err)
	}
	return n
}

func TestEnqueueDefaultsScheduleToNow(t *testing.T) {
	_, p := newTestPipeline(t, &fakeSender{})
	n := enqueue(t, p, "a@example.com", time.Time{})
	if n.Status != model.NotificationPending {
		t.Fatalf("status = %s, want PENDING", n.Status)
	}
	if !n.ScheduledFor.Equal(testNow) {
		t.Fatalf("scheduled_for = %v, want %v", n.ScheduledFor, testNow)
	}
}

func TestSweepDeliversOnlyDue(t *testing.T) {
	sender := &fakeSender{}
	_, p := newTestPipeline(t, sender)

	enqueue(t, p, "due@example.com", testNow.Add(-time.Minute))
	enqueue(t, p, "later@example.com", testNow.Add(time.Hour))

	count, err := p.SweepPending(context.Background())
	if err != nil {
		t.Fatalf("SweepPending failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("processed %d, want 1", count)
	}
	if len(sender.sent) != 1 || sender.sent[0] != "due@example.com" {
		t.Fatalf("sent to %v", sender.sent)
	}
}

func TestSweepIsolatesFailures(t *testing.T) {
	sender := &fakeSender{failFor: map[string]bool{"broken@example.com": true}}
	st, p := newTestPipeline(t, sender)

	enqueue(t, p, "broken@example.com", testNow.Add(-time.Minute))
	enqueue(t, p, "fine@example.com", testNow.Add(-time.Minute))

	ctx := context.Background()
	if _, err := p.SweepPending(ctx); err != nil {
		t.Fatalf("SweepPending failed: %v", err)
	}

	// The failure is recorded and does not block the second delivery.
	if len(sender.sent) != 1 || sender.sent[0] != "fine@example.com" {
		t.Fatalf("sent to %v", sender.sent)
	}

	failed, err := st.ListNotificationsByEmail(ctx, "broken@example.com")
	if err != nil {
		t.Fatalf("ListNotificationsByEmail failed: %v", err)
	}
	if len(failed) != 1 {
		t.Fatalf("got %d notifications, want 1", len(failed))
	}
	n := failed[0]
	if n.Status != model.NotificationFailed || n.RetryCount != 1 || n.ErrorMessage == "" {
		t.Fatalf("failed notification not recorded: %+v", n)
	}

	ok, err := st.ListNotificationsByEmail(ctx, "fine@example.com")
	if err != nil {
		t.Fatalf("ListNotificationsByEmail failed: %v", err)
	}
	if ok[0].Status != model.NotificationSent || ok[0].SentAt == nil {
		t.Fatalf("delivered notification not marked sent: %+v", ok[0])
	}
}

func TestRetryRecoversFailed(t *testing.T) {
	sender := &fakeSender{failFor: map[string]bool{"flaky@example.com": true}}
	st, p := newTestPipeline(t, sender)

	enqueue(t, p, "flaky@example.com", testNow.Add(-time.Minute))
	ctx := context.Background()
	if _, err := p.SweepPending(ctx); err != nil {
		t.Fatalf("SweepPending failed: %v", err)
	}

	// The outage clears; the retry cycle delivers.
	sender.failFor = nil
	count, err := p.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("RetryFailed failed: %v", err)
	}
	if count != 1 {
		t.Fatalf("retried %d, want 1", count)
	}

	items, err := st.ListNotificationsByEmail(ctx, "flaky@example.com")
	if err != nil {
		t.Fatalf("ListNotificationsByEmail failed: %v", err)
	}
	if items[0].Status != model.NotificationSent || items[0].SentAt == nil {
		t.Fatalf("retried notification not sent: %+v", items[0])
	}
}

func TestRetryStopsAtMaxRetries(t *testing.T) {
	sender := &fakeSender{failFor: map[string]bool{"dead@example.com": true}}
	st, p := newTestPipeline(t, sender)

	enqueue(t, p, "dead@example.com", testNow.Add(-time.Minute))
	ctx := context.Background()
	if _, err := p.SweepPending(ctx); err != nil {
		t.Fatalf("SweepPending failed: %v", err)
	}

	// Two more retry cycles exhaust the budget of three attempts.
	for i := 0; i < 2; i++ {
		count, err := p.RetryFailed(ctx)
		if err != nil {
			t.Fatalf("retry cycle %d failed: %v", i, err)
		}
		if count != 1 {
			t.Fatalf("retry cycle %d processed %d, want 1", i, count)
		}
	}

	count, err := p.RetryFailed(ctx)
	if err != nil {
		t.Fatalf("final retry cycle failed: %v", err)
	}
	if count != 0 {
		t.Fatalf("exhausted notification still retried %d times", count)
	}

	items, err := st.ListNotificationsByEmail(ctx, "dead@example.com")
	if err != nil {
		t.Fatalf("ListNotificationsByEmail failed: %v", err)
	}
	if items[0].Status != model.NotificationFailed || items[0].RetryCount != 3 {
		t.Fatalf("expected permanently failed with 3 attempts: %+v", items[0])
	}
}
