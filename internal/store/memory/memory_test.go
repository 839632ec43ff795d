package memory

import (
	"context"
	"testing"
	"time"

	"github.com/vasitum/interviewsched/internal/model"
	"github.com/vasitum/interviewsched/internal/scheduling"
	"github.com/vasitum/interviewsched/internal/store"
)

func seedInterviewerAndSlot(t *testing.T, st *Store) (model.Interviewer, model.Slot) {
	t.Helper()
	ctx := context.Background()
	iv := model.Interviewer{Name: "Jordan", Email: "jordan@vasitum.test", MaxInterviewsPerWeek: 5}
	if err := st.CreateInterviewer(ctx, &iv, nil); err != nil {
		t.Fatalf("CreateInterviewer failed: %v", err)
	}
	slots := []model.Slot{{
		InterviewerID: iv.ID,
		StartTime:     time.Date(2026, 1, 8, 9, 0, 0, 0, time.UTC),
		EndTime:       time.Date(2026, 1, 8, 10, 0, 0, 0, time.UTC),
		Status:        model.SlotAvailable,
	}}
	if err := st.InsertSlots(ctx, slots); err != nil {
		t.Fatalf("InsertSlots failed: %v", err)
	}
	return iv, slots[0]
}

func TestSlotLockTimesOut(t *testing.T) {
	st := New(WithLockTimeout(50 * time.Millisecond))
	_, slot := seedInterviewerAndSlot(t, st)

	ctx := context.Background()
	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- st.InTx(ctx, func(tx store.Tx) error {
			if _, err := tx.GetSlotForUpdate(ctx, slot.ID); err != nil {
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()

	<-held
	err := st.InTx(ctx, func(tx store.Tx) error {
		_, err := tx.GetSlotForUpdate(ctx, slot.ID)
		return err
	})
	if !scheduling.IsTransient(err) {
		t.Fatalf("got %v, want transient lock timeout", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("holding transaction failed: %v", err)
	}

	// The lock is free again once the holder returns.
	err = st.InTx(ctx, func(tx store.Tx) error {
		_, err := tx.GetSlotForUpdate(ctx, slot.ID)
		return err
	})
	if err != nil {
		t.Fatalf("lock not released: %v", err)
	}
}

func TestLockRespectsContextCancellation(t *testing.T) {
	st := New(WithLockTimeout(10 * time.Second))
	_, slot := seedInterviewerAndSlot(t, st)

	bg := context.Background()
	held := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)

	go func() {
		done <- st.InTx(bg, func(tx store.Tx) error {
			if _, err := tx.GetSlotForUpdate(bg, slot.ID); err != nil {
				return err
			}
			close(held)
			<-release
			return nil
		})
	}()

	<-held
	ctx, cancel := context.WithTimeout(bg, 50*time.Millisecond)
	defer cancel()
	err := st.InTx(ctx, func(tx store.Tx) error {
		_, err := tx.GetSlotForUpdate(ctx, slot.ID)
		return err
	})
	if !scheduling.IsTransient(err) {
		t.Fatalf("got %v, want transient error on cancelled wait", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("holding transaction failed: %v", err)
	}
}

func TestCountBookedInWeek(t *testing.T) {
	st := New()
	ctx := context.Background()
	iv := model.Interviewer{Name: "Jordan", Email: "jordan@vasitum.test", MaxInterviewsPerWeek: 5}
	if err := st.CreateInterviewer(ctx, &iv, nil); err != nil {
		t.Fatalf("CreateInterviewer failed: %v", err)
	}

	weekStart := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	mk := func(start time.Time, status model.SlotStatus) model.Slot {
		return model.Slot{
			InterviewerID: iv.ID,
			StartTime:     start,
			EndTime:       start.Add(time.Hour),
			Status:        status,
		}
	}
	slots := []model.Slot{
		mk(weekStart.Add(9*time.Hour), model.SlotBooked),                  // monday, counts
		mk(weekStart.AddDate(0, 0, 6).Add(18*time.Hour), model.SlotBooked), // sunday evening, counts
		mk(weekStart.Add(11*time.Hour), model.SlotAvailable),              // not booked
		mk(weekStart.AddDate(0, 0, 7), model.SlotBooked),                  // next monday, out of range
	}
	if err := st.InsertSlots(ctx, slots); err != nil {
		t.Fatalf("InsertSlots failed: %v", err)
	}

	err := st.InTx(ctx, func(tx store.Tx) error {
		count, err := tx.CountBookedInWeek(ctx, iv.ID, weekStart, weekStart.AddDate(0, 0, 7))
		if err != nil {
			return err
		}
		if count != 2 {
			t.Fatalf("count = %d, want 2", count)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}
}

func TestUpdateSlotBumpsVersion(t *testing.T) {
	st := New()
	_, slot := seedInterviewerAndSlot(t, st)

	ctx := context.Background()
	err := st.InTx(ctx, func(tx store.Tx) error {
		s, err := tx.GetSlotForUpdate(ctx, slot.ID)
		if err != nil {
			return err
		}
		s.Status = model.SlotBooked
		return tx.UpdateSlot(ctx, &s)
	})
	if err != nil {
		t.Fatalf("InTx failed: %v", err)
	}

	got, err := st.GetSlot(ctx, slot.ID)
	if err != nil {
		t.Fatalf("GetSlot failed: %v", err)
	}
	if got.Version != 2 {
		t.Fatalf("version = %d, want 2", got.Version)
	}
}

func TestDuplicateInterviewerEmail(t *testing.T) {
	st := New()
	ctx := context.Background()
	first := model.Interviewer{Name: "A", Email: "same@vasitum.test", MaxInterviewsPerWeek: 3}
	if err := st.CreateInterviewer(ctx, &first, nil); err != nil {
		t.Fatalf("CreateInterviewer failed: %v", err)
	}
	second := model.Interviewer{Name: "B", Email: "same@vasitum.test", MaxInterviewsPerWeek: 3}
	if err := st.CreateInterviewer(ctx, &second, nil); !scheduling.IsConflict(err) {
		t.Fatalf("got %v, want conflict", err)
	}
}

func TestReplaceTemplatesDeactivatesOldSet(t *testing.T) {
	st := New()
	ctx := context.Background()
	iv := model.Interviewer{Name: "Jordan", Email: "jordan@vasitum.test", MaxInterviewsPerWeek: 5}
	templates := []model.AvailabilityTemplate{
		{DayOfWeek: time.Monday, StartTime: "09:00", EndTime: "12:00"},
	}
	if err := st.CreateInterviewer(ctx, &iv, templates); err != nil {
		t.Fatalf("CreateInterviewer failed: %v", err)
	}

	next := []model.AvailabilityTemplate{
		{DayOfWeek: time.Friday, StartTime: "13:00", EndTime: "17:00"},
	}
	if err := st.ReplaceTemplates(ctx, iv.ID, next); err != nil {
		t.Fatalf("ReplaceTemplates failed: %v", err)
	}

	active, err := st.ListActiveTemplates(ctx, iv.ID)
	if err != nil {
		t.Fatalf("ListActiveTemplates failed: %v", err)
	}
	if len(active) != 1 || active[0].DayOfWeek != time.Friday {
		t.Fatalf("unexpected active templates: %+v", active)
	}
}
