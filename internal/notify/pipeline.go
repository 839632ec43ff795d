// Package notify is the notification pipeline: a durable queue of
// outbound messages with scheduled delivery and bounded retry. Messages
// are always enqueued Pending and delivered by sweeps, never sent inline
// on the booking path.
package notify

import (
	"context"
	"log/slog"
	"time"

	"github.com/vasitum/interviewsched/internal/email"
	"github.com/vasitum/interviewsched/internal/model"
	"github.com/vasitum/interviewsched/internal/scheduling"
	"github.com/vasitum/interviewsched/internal/store"
)

type Pipeline struct {
	store      store.NotificationStore
	sender     email.Sender
	logger     *slog.Logger
	maxRetries int
	now        func() time.Time
}

type Option func(*Pipeline)

func WithClock(now func() time.Time) Option {
	return func(p *Pipeline) { p.now = now }
}

func WithMaxRetries(n int) Option {
	return func(p *Pipeline) { p.maxRetries = n }
}

func NewPipeline(st store.NotificationStore, sender email.Sender, logger *slog.Logger, opts ...Option) *Pipeline {
	p := &Pipeline{
		store:      st,
		sender:     sender,
		logger:     logger,
		maxRetries: scheduling.MaxRetries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Enqueue persists the notification as Pending. ScheduledFor defaults to
// now when unset, so unscheduled messages are picked up by the next sweep.
func (p *Pipeline) Enqueue(ctx context.Context, n *model.Notification) error {
	n.Status = model.NotificationPending
	if n.ScheduledFor.IsZero() {
		n.ScheduledFor = p.now()
	}
	return p.store.InsertNotification(ctx, n)
}

// SweepPending attempts delivery of every Pending notification whose
// scheduled time has arrived. A failed item is marked Failed and the
// sweep moves on; one bad recipient never blocks the batch. Status is
// persisted after the delivery attempt, so a crash in between can cause
// an apparent double-send on the next sweep (accepted risk).
func (p *Pipeline) SweepPending(ctx context.Context) (int, error) {
	now := p.now()
	due, err := p.store.ListDueNotifications(ctx, now)
	if err != nil {
		return 0, err
	}

	for i := range due {
		n := due[i]
		if err := p.sender.Send(n.RecipientEmail, n.Subject, n.Content); err != nil {
			n.Status = model.NotificationFailed
			n.RetryCount++
			n.ErrorMessage = err.Error()
			p.logger.Error("notification delivery failed", "notification_id", n.ID, "type", n.Type, "err", err)
		} else {
			sentAt := p.now()
			n.Status = model.NotificationSent
			n.SentAt = &sentAt
		}
		if err := p.store.UpdateNotification(ctx, &n); err != nil {
			p.logger.Error("notification status update failed", "notification_id", n.ID, "err", err)
		}
	}

	p.logger.Info("processed pending notifications", "count", len(due))
	return len(due), nil
}

// RetryFailed re-attempts delivery of Failed notifications that have not
// exhausted the retry budget. Exhausted ones stay Failed permanently and
// are only visible via queries.
func (p *Pipeline) RetryFailed(ctx context.Context) (int, error) {
	failed, err := p.store.ListFailedNotifications(ctx, p.maxRetries)
	if err != nil {
		return 0, err
	}

	for i := range failed {
		n := failed[i]
		if err := p.sender.Send(n.RecipientEmail, n.Subject, n.Content); err != nil {
			n.RetryCount++
			p.logger.Error("notification retry failed", "notification_id", n.ID, "retry_count", n.RetryCount, "err", err)
		} else {
			sentAt := p.now()
			n.Status = model.NotificationSent
			n.SentAt = &sentAt
		}
		if err := p.store.UpdateNotification(ctx, &n); err != nil {
			p.logger.Error("notification status update failed", "notification_id", n.ID, "err", err)
		}
	}

	p.logger.Info("retried failed notifications", "count", len(failed))
	return len(failed), nil
}

func (p *Pipeline) ByEmail(ctx context.Context, recipientEmail string) ([]model.Notification, error) {
	return p.store.ListNotificationsByEmail(ctx, recipientEmail)
}

func (p *Pipeline) BySlot(ctx context.Context, slotID int64) ([]model.Notification, error) {
	return p.store.ListNotificationsBySlot(ctx, slotID)
}
