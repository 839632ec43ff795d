// Package store defines the persistence contracts consumed by the core.
// Two drivers exist: postgres (production) and memory (tests and
// dependency-free runs). Timestamp stamping and version increments happen
// inside the drivers' write paths, never in the core.
package store

import (
	"context"
	"time"

	"github.com/vasitum/interviewsched/internal/model"
)

type Store interface {
	InterviewerStore
	SlotStore
	NotificationStore

	// InTx runs fn inside a transaction. Row locks taken through Tx are
	// held until fn returns; a blocked acquisition times out and surfaces
	// as a Transient error instead of hanging.
	InTx(ctx context.Context, fn func(tx Tx) error) error

	// InsertOutboxEvent records a domain event outside a transaction
	// (used by the generator after its batch insert).
	InsertOutboxEvent(ctx context.Context, evt OutboxEvent) error
}

type InterviewerStore interface {
	// CreateInterviewer persists the interviewer and its templates,
	// assigning IDs. A duplicate email yields a Conflict error.
	CreateInterviewer(ctx context.Context, iv *model.Interviewer, templates []model.AvailabilityTemplate) error
	GetInterviewer(ctx context.Context, id int64) (model.Interviewer, error)
	GetInterviewerByEmail(ctx context.Context, email string) (model.Interviewer, error)
	ListInterviewers(ctx context.Context) ([]model.Interviewer, error)
	UpdateInterviewer(ctx context.Context, iv *model.Interviewer) error
	ListActiveTemplates(ctx context.Context, interviewerID int64) ([]model.AvailabilityTemplate, error)
	// ReplaceTemplates soft-deactivates the interviewer's active templates
	// and inserts the given set as the new active ones.
	ReplaceTemplates(ctx context.Context, interviewerID int64, templates []model.AvailabilityTemplate) error
}

type SlotStore interface {
	// InsertSlots batch-persists generated slots.
	InsertSlots(ctx context.Context, slots []model.Slot) error
	GetSlot(ctx context.Context, id int64) (model.Slot, error)
	ListSlotsByInterviewer(ctx context.Context, interviewerID int64, from, to time.Time) ([]model.Slot, error)
	// ListAvailableSlots returns Available slots with start time in
	// [from, to) and id > afterID, ordered by id ascending, at most limit.
	ListAvailableSlots(ctx context.Context, from, to time.Time, afterID int64, limit int) ([]model.Slot, error)
}

type NotificationStore interface {
	InsertNotification(ctx context.Context, n *model.Notification) error
	UpdateNotification(ctx context.Context, n *model.Notification) error
	ListDueNotifications(ctx context.Context, now time.Time) ([]model.Notification, error)
	ListFailedNotifications(ctx context.Context, maxRetries int) ([]model.Notification, error)
	ListNotificationsByEmail(ctx context.Context, email string) ([]model.Notification, error)
	ListNotificationsBySlot(ctx context.Context, slotID int64) ([]model.Notification, error)
}

// Tx is the transactional surface used by the booking arbiter. Lock order
// is fixed: slot first, then interviewer. Both drivers enforce exclusivity
// per row, so operations on different slots never contend.
type Tx interface {
	GetSlotForUpdate(ctx context.Context, id int64) (model.Slot, error)
	// LockInterviewer serializes the weekly quota check-then-write for one
	// interviewer and returns the current record.
	LockInterviewer(ctx context.Context, id int64) (model.Interviewer, error)
	UpdateSlot(ctx context.Context, s *model.Slot) error
	CountBookedInWeek(ctx context.Context, interviewerID int64, weekStart, weekEnd time.Time) (int, error)
	InsertNotification(ctx context.Context, n *model.Notification) error
	InsertOutboxEvent(ctx context.Context, evt OutboxEvent) error
}

// OutboxEvent is the domain event envelope written alongside state
// changes; a publisher drains it to Kafka when configured. The topic name
// equals EventType.
type OutboxEvent struct {
	AggregateType string
	AggregateID   string
	EventType     string
	Payload       []byte
}
