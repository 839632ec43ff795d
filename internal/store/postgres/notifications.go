package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/vasitum/interviewsched/internal/model"
	"github.com/vasitum/interviewsched/internal/scheduling"
	"github.com/vasitum/interviewsched/internal/store"
	otelx "github.com/vasitum/interviewsched/libs/otel"
)

const notificationColumns = `id, recipient_email, subject, content, type, status,
	created_at, scheduled_for, sent_at, retry_count, COALESCE(error_message, ''),
	COALESCE(slot_id, 0), COALESCE(interviewer_id, 0)`

func scanNotification(row pgx.Row) (model.Notification, error) {
	var n model.Notification
	err := row.Scan(
		&n.ID,
		&n.RecipientEmail,
		&n.Subject,
		&n.Content,
		&n.Type,
		&n.Status,
		&n.CreatedAt,
		&n.ScheduledFor,
		&n.SentAt,
		&n.RetryCount,
		&n.ErrorMessage,
		&n.SlotID,
		&n.InterviewerID,
	)
	return n, err
}

const insertNotificationSQL = `
	INSERT INTO notifications
		(recipient_email, subject, content, type, status, scheduled_for, slot_id, interviewer_id)
	VALUES ($1, $2, $3, $4, $5, COALESCE($6, now()), NULLIF($7, 0), NULLIF($8, 0))
	RETURNING id, status, created_at, scheduled_for
`

func insertNotificationArgs(n *model.Notification) []any {
	status := n.Status
	if status == "" {
		status = model.NotificationPending
	}
	var scheduledFor *time.Time
	if !n.ScheduledFor.IsZero() {
		scheduledFor = &n.ScheduledFor
	}
	return []any{n.RecipientEmail, n.Subject, n.Content, n.Type, status, scheduledFor, n.SlotID, n.InterviewerID}
}

func (s *Store) InsertNotification(ctx context.Context, n *model.Notification) error {
	return s.pool.QueryRow(ctx, insertNotificationSQL, insertNotificationArgs(n)...).
		Scan(&n.ID, &n.Status, &n.CreatedAt, &n.ScheduledFor)
}

func (tx *pgTx) InsertNotification(ctx context.Context, n *model.Notification) error {
	return tx.tx.QueryRow(ctx, insertNotificationSQL, insertNotificationArgs(n)...).
		Scan(&n.ID, &n.Status, &n.CreatedAt, &n.ScheduledFor)
}

func (s *Store) UpdateNotification(ctx context.Context, n *model.Notification) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE notifications
		SET status = $2,
			sent_at = $3,
			retry_count = $4,
			error_message = NULLIF($5, '')
		WHERE id = $1
	`, n.ID, n.Status, n.SentAt, n.RetryCount, n.ErrorMessage)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return scheduling.NotFound("notification not found")
	}
	return nil
}

func (s *Store) ListDueNotifications(ctx context.Context, now time.Time) ([]model.Notification, error) {
	return s.listNotifications(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE status = $1 AND scheduled_for <= $2
		ORDER BY id
	`, model.NotificationPending, now)
}

func (s *Store) ListFailedNotifications(ctx context.Context, maxRetries int) ([]model.Notification, error) {
	return s.listNotifications(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE status = $1 AND retry_count < $2
		ORDER BY id
	`, model.NotificationFailed, maxRetries)
}

func (s *Store) ListNotificationsByEmail(ctx context.Context, email string) ([]model.Notification, error) {
	return s.listNotifications(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE recipient_email = $1
		ORDER BY created_at DESC, id DESC
	`, email)
}

func (s *Store) ListNotificationsBySlot(ctx context.Context, slotID int64) ([]model.Notification, error) {
	return s.listNotifications(ctx, `
		SELECT `+notificationColumns+`
		FROM notifications
		WHERE slot_id = $1
		ORDER BY id
	`, slotID)
}

func (s *Store) listNotifications(ctx context.Context, sql string, args ...any) ([]model.Notification, error) {
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Notification
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	return out, rows.Err()
}

const insertOutboxSQL = `
	INSERT INTO outbox_events (event_id, aggregate_type, aggregate_id, event_type, payload, traceparent, tracestate)
	VALUES ($1, $2, $3, $4, $5, $6, $7)
`

func (s *Store) InsertOutboxEvent(ctx context.Context, evt store.OutboxEvent) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := s.pool.Exec(ctx, insertOutboxSQL,
		uuid.NewString(), evt.AggregateType, evt.AggregateID, evt.EventType, evt.Payload, traceparent, tracestate)
	return err
}

func (tx *pgTx) InsertOutboxEvent(ctx context.Context, evt store.OutboxEvent) error {
	traceparent, tracestate := otelx.TraceContextStrings(ctx)
	_, err := tx.tx.Exec(ctx, insertOutboxSQL,
		uuid.NewString(), evt.AggregateType, evt.AggregateID, evt.EventType, evt.Payload, traceparent, tracestate)
	return err
}
