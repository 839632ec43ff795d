package postgres

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/vasitum/interviewsched/internal/model"
	"github.com/vasitum/interviewsched/internal/scheduling"
)

const slotColumns = `id, interviewer_id, start_time, end_time, status,
	COALESCE(candidate_name, ''), COALESCE(candidate_email, ''), booked_at,
	version, created_at, updated_at`

func scanSlot(row pgx.Row) (model.Slot, error) {
	var s model.Slot
	err := row.Scan(
		&s.ID,
		&s.InterviewerID,
		&s.StartTime,
		&s.EndTime,
		&s.Status,
		&s.CandidateName,
		&s.CandidateEmail,
		&s.BookedAt,
		&s.Version,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	return s, err
}

func (s *Store) InsertSlots(ctx context.Context, slots []model.Slot) error {
	if len(slots) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, slot := range slots {
		batch.Queue(`
			INSERT INTO interview_slots (interviewer_id, start_time, end_time, status)
			VALUES ($1, $2, $3, $4)
		`, slot.InterviewerID, slot.StartTime, slot.EndTime, model.SlotAvailable)
	}
	return s.pool.SendBatch(ctx, batch).Close()
}

func (s *Store) GetSlot(ctx context.Context, id int64) (model.Slot, error) {
	slot, err := scanSlot(s.pool.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM interview_slots
		WHERE id = $1
	`, id))
	if err != nil {
		if isNoRows(err) {
			return model.Slot{}, scheduling.NotFound("interview slot not found")
		}
		return model.Slot{}, err
	}
	return slot, nil
}

func (s *Store) ListSlotsByInterviewer(ctx context.Context, interviewerID int64, from, to time.Time) ([]model.Slot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM interview_slots
		WHERE interviewer_id = $1
			AND start_time >= $2
			AND start_time < $3
		ORDER BY start_time
	`, interviewerID, from, to)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func (s *Store) ListAvailableSlots(ctx context.Context, from, to time.Time, afterID int64, limit int) ([]model.Slot, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+slotColumns+`
		FROM interview_slots
		WHERE status = $1
			AND start_time >= $2
			AND start_time < $3
			AND id > $4
		ORDER BY id
		LIMIT $5
	`, model.SlotAvailable, from, to, afterID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectSlots(rows)
}

func collectSlots(rows pgx.Rows) ([]model.Slot, error) {
	var out []model.Slot
	for rows.Next() {
		slot, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, slot)
	}
	return out, rows.Err()
}

func (tx *pgTx) GetSlotForUpdate(ctx context.Context, id int64) (model.Slot, error) {
	slot, err := scanSlot(tx.tx.QueryRow(ctx, `
		SELECT `+slotColumns+`
		FROM interview_slots
		WHERE id = $1
		FOR UPDATE
	`, id))
	if err != nil {
		if isNoRows(err) {
			return model.Slot{}, scheduling.NotFound("interview slot not found")
		}
		if isLockTimeout(err) {
			return model.Slot{}, scheduling.Transient("slot lock wait timed out", err)
		}
		return model.Slot{}, err
	}
	return slot, nil
}

func (tx *pgTx) LockInterviewer(ctx context.Context, id int64) (model.Interviewer, error) {
	var iv model.Interviewer
	err := tx.tx.QueryRow(ctx, `
		SELECT `+interviewerColumns+`
		FROM interviewers
		WHERE id = $1
		FOR UPDATE
	`, id).Scan(&iv.ID, &iv.Name, &iv.Email, &iv.MaxInterviewsPerWeek, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return model.Interviewer{}, scheduling.NotFound("interviewer not found")
		}
		if isLockTimeout(err) {
			return model.Interviewer{}, scheduling.Transient("interviewer lock wait timed out", err)
		}
		return model.Interviewer{}, err
	}
	return iv, nil
}

func (tx *pgTx) UpdateSlot(ctx context.Context, slot *model.Slot) error {
	err := tx.tx.QueryRow(ctx, `
		UPDATE interview_slots
		SET status = $2,
			candidate_name = NULLIF($3, ''),
			candidate_email = NULLIF($4, ''),
			booked_at = $5,
			version = version + 1,
			updated_at = now()
		WHERE id = $1
		RETURNING version, updated_at
	`, slot.ID, slot.Status, slot.CandidateName, slot.CandidateEmail, slot.BookedAt).
		Scan(&slot.Version, &slot.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return scheduling.NotFound("interview slot not found")
		}
		return err
	}
	return nil
}

func (tx *pgTx) CountBookedInWeek(ctx context.Context, interviewerID int64, weekStart, weekEnd time.Time) (int, error) {
	var count int
	err := tx.tx.QueryRow(ctx, `
		SELECT COUNT(*)
		FROM interview_slots
		WHERE interviewer_id = $1
			AND status = $2
			AND start_time >= $3
			AND start_time < $4
	`, interviewerID, model.SlotBooked, weekStart, weekEnd).Scan(&count)
	return count, err
}
