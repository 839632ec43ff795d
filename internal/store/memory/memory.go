// Package memory is an in-process store driver. It backs the test suite
// and STORE_DRIVER=memory runs, and mirrors the postgres driver's locking
// contract: per-row exclusive locks with a bounded acquisition wait.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/vasitum/interviewsched/internal/model"
	"github.com/vasitum/interviewsched/internal/scheduling"
	"github.com/vasitum/interviewsched/internal/store"
)

const defaultLockTimeout = 5 * time.Second

type Store struct {
	mu            sync.RWMutex
	interviewers  map[int64]model.Interviewer
	templates     map[int64]model.AvailabilityTemplate
	slots         map[int64]model.Slot
	notifications map[int64]model.Notification
	events        []store.OutboxEvent

	nextInterviewerID  int64
	nextTemplateID     int64
	nextSlotID         int64
	nextNotificationID int64

	locks       *rowLocks
	lockTimeout time.Duration
	now         func() time.Time
}

type Option func(*Store)

// WithClock injects the time source used for write-path stamping.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLockTimeout bounds how long a row lock acquisition may block.
func WithLockTimeout(d time.Duration) Option {
	return func(s *Store) { s.lockTimeout = d }
}

func New(opts ...Option) *Store {
	s := &Store{
		interviewers:  make(map[int64]model.Interviewer),
		templates:     make(map[int64]model.AvailabilityTemplate),
		slots:         make(map[int64]model.Slot),
		notifications: make(map[int64]model.Notification),
		locks:         newRowLocks(),
		lockTimeout:   defaultLockTimeout,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

var _ store.Store = (*Store)(nil)

func (s *Store) CreateInterviewer(ctx context.Context, iv *model.Interviewer, templates []model.AvailabilityTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.interviewers {
		if existing.Email == iv.Email {
			return scheduling.Conflict("interviewer with email %s already exists", iv.Email)
		}
	}

	now := s.now()
	s.nextInterviewerID++
	iv.ID = s.nextInterviewerID
	iv.CreatedAt = now
	iv.UpdatedAt = now
	s.interviewers[iv.ID] = *iv

	for i := range templates {
		s.nextTemplateID++
		templates[i].ID = s.nextTemplateID
		templates[i].InterviewerID = iv.ID
		templates[i].Active = true
		templates[i].CreatedAt = now
		s.templates[templates[i].ID] = templates[i]
	}
	return nil
}

func (s *Store) GetInterviewer(ctx context.Context, id int64) (model.Interviewer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	iv, ok := s.interviewers[id]
	if !ok {
		return model.Interviewer{}, scheduling.NotFound("interviewer not found")
	}
	return iv, nil
}

func (s *Store) GetInterviewerByEmail(ctx context.Context, email string) (model.Interviewer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, iv := range s.interviewers {
		if iv.Email == email {
			return iv, nil
		}
	}
	return model.Interviewer{}, scheduling.NotFound("interviewer not found")
}

func (s *Store) ListInterviewers(ctx context.Context) ([]model.Interviewer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Interviewer, 0, len(s.interviewers))
	for _, iv := range s.interviewers {
		out = append(out, iv)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) UpdateInterviewer(ctx context.Context, iv *model.Interviewer) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interviewers[iv.ID]; !ok {
		return scheduling.NotFound("interviewer not found")
	}
	for id, existing := range s.interviewers {
		if id != iv.ID && existing.Email == iv.Email {
			return scheduling.Conflict("interviewer with email %s already exists", iv.Email)
		}
	}
	iv.UpdatedAt = s.now()
	s.interviewers[iv.ID] = *iv
	return nil
}

func (s *Store) ListActiveTemplates(ctx context.Context, interviewerID int64) ([]model.AvailabilityTemplate, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.AvailabilityTemplate
	for _, t := range s.templates {
		if t.InterviewerID == interviewerID && t.Active {
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ReplaceTemplates(ctx context.Context, interviewerID int64, templates []model.AvailabilityTemplate) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.interviewers[interviewerID]; !ok {
		return scheduling.NotFound("interviewer not found")
	}
	for id, t := range s.templates {
		if t.InterviewerID == interviewerID && t.Active {
			t.Active = false
			s.templates[id] = t
		}
	}
	now := s.now()
	for i := range templates {
		s.nextTemplateID++
		templates[i].ID = s.nextTemplateID
		templates[i].InterviewerID = interviewerID
		templates[i].Active = true
		templates[i].CreatedAt = now
		s.templates[templates[i].ID] = templates[i]
	}
	return nil
}

func (s *Store) InsertSlots(ctx context.Context, slots []model.Slot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	for i := range slots {
		s.nextSlotID++
		slots[i].ID = s.nextSlotID
		if slots[i].Status == "" {
			slots[i].Status = model.SlotAvailable
		}
		slots[i].Version = 1
		slots[i].CreatedAt = now
		slots[i].UpdatedAt = now
		s.slots[slots[i].ID] = slots[i]
	}
	return nil
}

func (s *Store) GetSlot(ctx context.Context, id int64) (model.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	slot, ok := s.slots[id]
	if !ok {
		return model.Slot{}, scheduling.NotFound("interview slot not found")
	}
	return slot, nil
}

func (s *Store) ListSlotsByInterviewer(ctx context.Context, interviewerID int64, from, to time.Time) ([]model.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Slot
	for _, slot := range s.slots {
		if slot.InterviewerID != interviewerID {
			continue
		}
		if slot.StartTime.Before(from) || !slot.StartTime.Before(to) {
			continue
		}
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (s *Store) ListAvailableSlots(ctx context.Context, from, to time.Time, afterID int64, limit int) ([]model.Slot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Slot
	for _, slot := range s.slots {
		if slot.Status != model.SlotAvailable || slot.ID <= afterID {
			continue
		}
		if slot.StartTime.Before(from) || !slot.StartTime.Before(to) {
			continue
		}
		out = append(out, slot)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Store) InsertNotification(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.insertNotificationLocked(n)
	return nil
}

func (s *Store) insertNotificationLocked(n *model.Notification) {
	now := s.now()
	s.nextNotificationID++
	n.ID = s.nextNotificationID
	if n.Status == "" {
		n.Status = model.NotificationPending
	}
	if n.ScheduledFor.IsZero() {
		n.ScheduledFor = now
	}
	n.CreatedAt = now
	s.notifications[n.ID] = *n
}

func (s *Store) UpdateNotification(ctx context.Context, n *model.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.notifications[n.ID]; !ok {
		return scheduling.NotFound("notification not found")
	}
	s.notifications[n.ID] = *n
	return nil
}

func (s *Store) ListDueNotifications(ctx context.Context, now time.Time) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Notification
	for _, n := range s.notifications {
		if n.Status == model.NotificationPending && !n.ScheduledFor.After(now) {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListFailedNotifications(ctx context.Context, maxRetries int) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Notification
	for _, n := range s.notifications {
		if n.Status == model.NotificationFailed && n.RetryCount < maxRetries {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) ListNotificationsByEmail(ctx context.Context, email string) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Notification
	for _, n := range s.notifications {
		if n.RecipientEmail == email {
			out = append(out, n)
		}
	}
	// Newest first; fall back to id for stable order under a fixed clock.
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (s *Store) ListNotificationsBySlot(ctx context.Context, slotID int64) ([]model.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Notification
	for _, n := range s.notifications {
		if n.SlotID == slotID {
			out = append(out, n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) InsertOutboxEvent(ctx context.Context, evt store.OutboxEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
	return nil
}

// OutboxEvents returns a snapshot of recorded events, for tests.
func (s *Store) OutboxEvents() []store.OutboxEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]store.OutboxEvent, len(s.events))
	copy(out, s.events)
	return out
}

// InTx runs fn with row-lock semantics. Writes apply immediately; the
// arbiter performs all validation before its first write, so there is no
// partial state to roll back on error.
func (s *Store) InTx(ctx context.Context, fn func(tx store.Tx) error) error {
	tx := &memTx{s: s}
	defer tx.releaseAll()
	return fn(tx)
}

type memTx struct {
	s        *Store
	releases []func()
}

func (tx *memTx) releaseAll() {
	for i := len(tx.releases) - 1; i >= 0; i-- {
		tx.releases[i]()
	}
	tx.releases = nil
}

func (tx *memTx) GetSlotForUpdate(ctx context.Context, id int64) (model.Slot, error) {
	release, err := tx.s.locks.acquire(ctx, fmt.Sprintf("slot:%d", id), tx.s.lockTimeout)
	if err != nil {
		return model.Slot{}, scheduling.Transient("slot lock wait timed out", err)
	}
	tx.releases = append(tx.releases, release)
	return tx.s.GetSlot(ctx, id)
}

func (tx *memTx) LockInterviewer(ctx context.Context, id int64) (model.Interviewer, error) {
	release, err := tx.s.locks.acquire(ctx, fmt.Sprintf("interviewer:%d", id), tx.s.lockTimeout)
	if err != nil {
		return model.Interviewer{}, scheduling.Transient("interviewer lock wait timed out", err)
	}
	tx.releases = append(tx.releases, release)
	return tx.s.GetInterviewer(ctx, id)
}

func (tx *memTx) UpdateSlot(ctx context.Context, slot *model.Slot) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	if _, ok := tx.s.slots[slot.ID]; !ok {
		return scheduling.NotFound("interview slot not found")
	}
	slot.Version++
	slot.UpdatedAt = tx.s.now()
	tx.s.slots[slot.ID] = *slot
	return nil
}

func (tx *memTx) CountBookedInWeek(ctx context.Context, interviewerID int64, weekStart, weekEnd time.Time) (int, error) {
	tx.s.mu.RLock()
	defer tx.s.mu.RUnlock()
	count := 0
	for _, slot := range tx.s.slots {
		if slot.InterviewerID != interviewerID || slot.Status != model.SlotBooked {
			continue
		}
		if !slot.StartTime.Before(weekStart) && slot.StartTime.Before(weekEnd) {
			count++
		}
	}
	return count, nil
}

func (tx *memTx) InsertNotification(ctx context.Context, n *model.Notification) error {
	return tx.s.InsertNotification(ctx, n)
}

func (tx *memTx) InsertOutboxEvent(ctx context.Context, evt store.OutboxEvent) error {
	return tx.s.InsertOutboxEvent(ctx, evt)
}
