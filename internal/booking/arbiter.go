// Package booking arbitrates slot state transitions. All mutations run
// inside a store transaction that locks the slot row first and the
// interviewer row second, so concurrent requests on the same slot
// serialize and the weekly quota check cannot race its own write.
package booking

import (
	"context"
	"encoding/json"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/vasitum/interviewsched/internal/model"
	"github.com/vasitum/interviewsched/internal/notify"
	"github.com/vasitum/interviewsched/internal/scheduling"
	"github.com/vasitum/interviewsched/internal/store"
)

const (
	EventSlotBooked    = "interview.slot.booked.v1"
	EventSlotCancelled = "interview.slot.cancelled.v1"

	defaultPageSize = 20
)

type Arbiter struct {
	store  store.Store
	logger *slog.Logger
	now    func() time.Time
}

type Option func(*Arbiter)

func WithClock(now func() time.Time) Option {
	return func(a *Arbiter) { a.now = now }
}

func NewArbiter(st store.Store, logger *slog.Logger, opts ...Option) *Arbiter {
	a := &Arbiter{
		store:  st,
		logger: logger,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

type slotEvent struct {
	SlotID         int64     `json:"slot_id"`
	InterviewerID  int64     `json:"interviewer_id"`
	CandidateEmail string    `json:"candidate_email,omitempty"`
	StartTime      time.Time `json:"start_time"`
	EndTime        time.Time `json:"end_time"`
}

// Book assigns the slot to the candidate. Exactly one of any set of
// concurrent callers wins; the rest get a Conflict. A confirmation is
// enqueued immediately and a reminder is scheduled 24h before the
// interview when that moment is still in the future.
func (a *Arbiter) Book(ctx context.Context, slotID int64, candidateName, candidateEmail string) (model.Slot, error) {
	candidateName = strings.TrimSpace(candidateName)
	candidateEmail = strings.TrimSpace(candidateEmail)
	if candidateName == "" {
		return model.Slot{}, scheduling.Validation("candidate name is required")
	}
	if candidateEmail == "" || !strings.Contains(candidateEmail, "@") {
		return model.Slot{}, scheduling.Validation("a valid candidate email is required")
	}

	var booked model.Slot
	err := a.store.InTx(ctx, func(tx store.Tx) error {
		slot, err := tx.GetSlotForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if slot.Status != model.SlotAvailable {
			return scheduling.Conflict("slot is no longer available")
		}

		now := a.now()
		if !slot.StartTime.After(now) {
			return scheduling.Conflict("cannot book past slots")
		}

		iv, err := tx.LockInterviewer(ctx, slot.InterviewerID)
		if err != nil {
			return err
		}
		weekStart := WeekStart(slot.StartTime)
		count, err := tx.CountBookedInWeek(ctx, iv.ID, weekStart, weekStart.AddDate(0, 0, 7))
		if err != nil {
			return err
		}
		if count >= iv.MaxInterviewsPerWeek {
			return scheduling.Conflict("interviewer has reached maximum interviews for this week")
		}

		bookedAt := now
		slot.Status = model.SlotBooked
		slot.CandidateName = candidateName
		slot.CandidateEmail = candidateEmail
		slot.BookedAt = &bookedAt
		if err := tx.UpdateSlot(ctx, &slot); err != nil {
			return err
		}

		confirmation := notify.NewBookingConfirmation(slot, iv)
		confirmation.Status = model.NotificationPending
		confirmation.ScheduledFor = now
		if err := tx.InsertNotification(ctx, &confirmation); err != nil {
			return err
		}
		remindAt := slot.StartTime.Add(-scheduling.ReminderLead)
		if remindAt.After(now) {
			reminder := notify.NewInterviewReminder(slot, iv, remindAt)
			reminder.Status = model.NotificationPending
			if err := tx.InsertNotification(ctx, &reminder); err != nil {
				return err
			}
		}

		payload, _ := json.Marshal(slotEvent{
			SlotID:         slot.ID,
			InterviewerID:  slot.InterviewerID,
			CandidateEmail: slot.CandidateEmail,
			StartTime:      slot.StartTime,
			EndTime:        slot.EndTime,
		})
		if err := tx.InsertOutboxEvent(ctx, store.OutboxEvent{
			AggregateType: "interview_slot",
			AggregateID:   strconv.FormatInt(slot.ID, 10),
			EventType:     EventSlotBooked,
			Payload:       payload,
		}); err != nil {
			return err
		}

		booked = slot
		return nil
	})
	if err != nil {
		return model.Slot{}, err
	}

	a.logger.Info("slot booked",
		"slot_id", booked.ID,
		"interviewer_id", booked.InterviewerID,
		"start_time", booked.StartTime,
	)
	return booked, nil
}

// Update rewrites the candidate details on a booked slot. No notification
// is produced; the booking itself did not move.
func (a *Arbiter) Update(ctx context.Context, slotID int64, candidateName, candidateEmail string) (model.Slot, error) {
	candidateName = strings.TrimSpace(candidateName)
	candidateEmail = strings.TrimSpace(candidateEmail)
	if candidateName == "" {
		return model.Slot{}, scheduling.Validation("candidate name is required")
	}
	if candidateEmail == "" || !strings.Contains(candidateEmail, "@") {
		return model.Slot{}, scheduling.Validation("a valid candidate email is required")
	}

	var updated model.Slot
	err := a.store.InTx(ctx, func(tx store.Tx) error {
		slot, err := tx.GetSlotForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if slot.Status != model.SlotBooked {
			return scheduling.Conflict("only booked slots can be updated")
		}
		slot.CandidateName = candidateName
		slot.CandidateEmail = candidateEmail
		if err := tx.UpdateSlot(ctx, &slot); err != nil {
			return err
		}
		updated = slot
		return nil
	})
	if err != nil {
		return model.Slot{}, err
	}

	a.logger.Info("booking updated", "slot_id", updated.ID)
	return updated, nil
}

// Cancel releases a booked slot back to Available and notifies the
// candidate who held it. The freed slot is immediately rebookable.
func (a *Arbiter) Cancel(ctx context.Context, slotID int64) (model.Slot, error) {
	var cancelled model.Slot
	err := a.store.InTx(ctx, func(tx store.Tx) error {
		slot, err := tx.GetSlotForUpdate(ctx, slotID)
		if err != nil {
			return err
		}
		if slot.Status != model.SlotBooked {
			return scheduling.Conflict("only booked slots can be cancelled")
		}

		priorName := slot.CandidateName
		priorEmail := slot.CandidateEmail

		slot.Status = model.SlotAvailable
		slot.CandidateName = ""
		slot.CandidateEmail = ""
		slot.BookedAt = nil
		if err := tx.UpdateSlot(ctx, &slot); err != nil {
			return err
		}

		iv, err := tx.LockInterviewer(ctx, slot.InterviewerID)
		if err != nil {
			return err
		}
		notice := notify.NewCancellationNotice(slot, iv, priorName, priorEmail)
		notice.Status = model.NotificationPending
		notice.ScheduledFor = a.now()
		if err := tx.InsertNotification(ctx, &notice); err != nil {
			return err
		}

		payload, _ := json.Marshal(slotEvent{
			SlotID:        slot.ID,
			InterviewerID: slot.InterviewerID,
			StartTime:     slot.StartTime,
			EndTime:       slot.EndTime,
		})
		if err := tx.InsertOutboxEvent(ctx, store.OutboxEvent{
			AggregateType: "interview_slot",
			AggregateID:   strconv.FormatInt(slot.ID, 10),
			EventType:     EventSlotCancelled,
			Payload:       payload,
		}); err != nil {
			return err
		}

		cancelled = slot
		return nil
	})
	if err != nil {
		return model.Slot{}, err
	}

	a.logger.Info("booking cancelled", "slot_id", cancelled.ID)
	return cancelled, nil
}

func (a *Arbiter) Get(ctx context.Context, slotID int64) (model.Slot, error) {
	return a.store.GetSlot(ctx, slotID)
}

// ListByInterviewer returns an interviewer's slots in [from, to),
// clamped to the rolling generation window. Zero bounds default to it.
func (a *Arbiter) ListByInterviewer(ctx context.Context, interviewerID int64, from, to time.Time) ([]model.Slot, error) {
	from, to, err := a.window(from, to)
	if err != nil {
		return nil, err
	}
	now := a.now()
	if from.Before(now) {
		from = now
	}
	if horizonEnd := now.Add(scheduling.Horizon); to.After(horizonEnd) {
		to = horizonEnd
	}
	if _, err := a.store.GetInterviewer(ctx, interviewerID); err != nil {
		return nil, err
	}
	return a.store.ListSlotsByInterviewer(ctx, interviewerID, from, to)
}

// Page is one page of available slots. NextCursor is opaque; feed it back
// unchanged to continue.
type Page struct {
	Slots      []model.Slot `json:"slots"`
	NextCursor string       `json:"next_cursor,omitempty"`
	HasNext    bool         `json:"has_next"`
	HasPrev    bool         `json:"has_prev"`
}

// ListAvailable pages through Available slots in [from, to) ordered by
// id. It fetches limit+1 rows to decide HasNext without a count query.
func (a *Arbiter) ListAvailable(ctx context.Context, from, to time.Time, cursor string, limit int) (Page, error) {
	from, to, err := a.window(from, to)
	if err != nil {
		return Page{}, err
	}
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > scheduling.MaxPageSize {
		limit = scheduling.MaxPageSize
	}
	afterID := DecodeCursor(cursor)

	slots, err := a.store.ListAvailableSlots(ctx, from, to, afterID, limit+1)
	if err != nil {
		return Page{}, err
	}

	page := Page{HasPrev: afterID > 0}
	if len(slots) > limit {
		slots = slots[:limit]
		page.HasNext = true
	}
	page.Slots = slots
	if page.HasNext {
		page.NextCursor = EncodeCursor(slots[len(slots)-1].ID)
	}
	return page, nil
}

func (a *Arbiter) window(from, to time.Time) (time.Time, time.Time, error) {
	if from.IsZero() {
		from = a.now()
	}
	if to.IsZero() {
		to = from.Add(scheduling.Horizon)
	}
	if !to.After(from) {
		return time.Time{}, time.Time{}, scheduling.Validation("time window end must be after start")
	}
	return from, to, nil
}
