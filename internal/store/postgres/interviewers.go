package postgres

import (
	"context"
	"time"

	"github.com/vasitum/interviewsched/internal/model"
	"github.com/vasitum/interviewsched/internal/scheduling"
)

func (s *Store) CreateInterviewer(ctx context.Context, iv *model.Interviewer, templates []model.AvailabilityTemplate) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return scheduling.Transient("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	err = tx.QueryRow(ctx, `
		INSERT INTO interviewers (name, email, max_interviews_per_week)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at
	`, iv.Name, iv.Email, iv.MaxInterviewsPerWeek).Scan(&iv.ID, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return scheduling.Conflict("interviewer with email %s already exists", iv.Email)
		}
		return err
	}

	for i := range templates {
		templates[i].InterviewerID = iv.ID
		templates[i].Active = true
		err = tx.QueryRow(ctx, `
			INSERT INTO availability_templates (interviewer_id, day_of_week, start_time, end_time, active)
			VALUES ($1, $2, $3, $4, true)
			RETURNING id, created_at
		`, iv.ID, int(templates[i].DayOfWeek), templates[i].StartTime, templates[i].EndTime).
			Scan(&templates[i].ID, &templates[i].CreatedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

const interviewerColumns = `id, name, email, max_interviews_per_week, created_at, updated_at`

func (s *Store) GetInterviewer(ctx context.Context, id int64) (model.Interviewer, error) {
	var iv model.Interviewer
	err := s.pool.QueryRow(ctx, `
		SELECT `+interviewerColumns+`
		FROM interviewers
		WHERE id = $1
	`, id).Scan(&iv.ID, &iv.Name, &iv.Email, &iv.MaxInterviewsPerWeek, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return model.Interviewer{}, scheduling.NotFound("interviewer not found")
		}
		return model.Interviewer{}, err
	}
	return iv, nil
}

func (s *Store) GetInterviewerByEmail(ctx context.Context, email string) (model.Interviewer, error) {
	var iv model.Interviewer
	err := s.pool.QueryRow(ctx, `
		SELECT `+interviewerColumns+`
		FROM interviewers
		WHERE email = $1
	`, email).Scan(&iv.ID, &iv.Name, &iv.Email, &iv.MaxInterviewsPerWeek, &iv.CreatedAt, &iv.UpdatedAt)
	if err != nil {
		if isNoRows(err) {
			return model.Interviewer{}, scheduling.NotFound("interviewer not found")
		}
		return model.Interviewer{}, err
	}
	return iv, nil
}

func (s *Store) ListInterviewers(ctx context.Context) ([]model.Interviewer, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT `+interviewerColumns+`
		FROM interviewers
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Interviewer
	for rows.Next() {
		var iv model.Interviewer
		if err := rows.Scan(&iv.ID, &iv.Name, &iv.Email, &iv.MaxInterviewsPerWeek, &iv.CreatedAt, &iv.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (s *Store) UpdateInterviewer(ctx context.Context, iv *model.Interviewer) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE interviewers
		SET name = $2,
			email = $3,
			max_interviews_per_week = $4,
			updated_at = now()
		WHERE id = $1
	`, iv.ID, iv.Name, iv.Email, iv.MaxInterviewsPerWeek)
	if err != nil {
		if isUniqueViolation(err) {
			return scheduling.Conflict("interviewer with email %s already exists", iv.Email)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return scheduling.NotFound("interviewer not found")
	}
	return nil
}

func (s *Store) ListActiveTemplates(ctx context.Context, interviewerID int64) ([]model.AvailabilityTemplate, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, interviewer_id, day_of_week, start_time, end_time, active, created_at
		FROM availability_templates
		WHERE interviewer_id = $1 AND active
		ORDER BY id
	`, interviewerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.AvailabilityTemplate
	for rows.Next() {
		var t model.AvailabilityTemplate
		var day int
		if err := rows.Scan(&t.ID, &t.InterviewerID, &day, &t.StartTime, &t.EndTime, &t.Active, &t.CreatedAt); err != nil {
			return nil, err
		}
		t.DayOfWeek = time.Weekday(day)
		out = append(out, t)
	}
	return out, rows.Err()
}

func (s *Store) ReplaceTemplates(ctx context.Context, interviewerID int64, templates []model.AvailabilityTemplate) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return scheduling.Transient("begin transaction", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `
		UPDATE availability_templates
		SET active = false
		WHERE interviewer_id = $1 AND active
	`, interviewerID); err != nil {
		return err
	}

	for i := range templates {
		templates[i].InterviewerID = interviewerID
		templates[i].Active = true
		err = tx.QueryRow(ctx, `
			INSERT INTO availability_templates (interviewer_id, day_of_week, start_time, end_time, active)
			VALUES ($1, $2, $3, $4, true)
			RETURNING id, created_at
		`, interviewerID, int(templates[i].DayOfWeek), templates[i].StartTime, templates[i].EndTime).
			Scan(&templates[i].ID, &templates[i].CreatedAt)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}
