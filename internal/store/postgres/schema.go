package postgres

const schema = `
CREATE TABLE IF NOT EXISTS interviewers (
	id                      BIGSERIAL PRIMARY KEY,
	name                    TEXT        NOT NULL,
	email                   TEXT        NOT NULL UNIQUE,
	max_interviews_per_week INT         NOT NULL CHECK (max_interviews_per_week > 0),
	created_at              TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at              TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS availability_templates (
	id             BIGSERIAL PRIMARY KEY,
	interviewer_id BIGINT      NOT NULL REFERENCES interviewers(id),
	day_of_week    INT         NOT NULL CHECK (day_of_week BETWEEN 0 AND 6),
	start_time     TEXT        NOT NULL,
	end_time       TEXT        NOT NULL,
	active         BOOLEAN     NOT NULL DEFAULT true,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_templates_interviewer_active
	ON availability_templates (interviewer_id) WHERE active;

CREATE TABLE IF NOT EXISTS interview_slots (
	id              BIGSERIAL PRIMARY KEY,
	interviewer_id  BIGINT      NOT NULL REFERENCES interviewers(id),
	start_time      TIMESTAMPTZ NOT NULL,
	end_time        TIMESTAMPTZ NOT NULL,
	status          TEXT        NOT NULL DEFAULT 'AVAILABLE',
	candidate_name  TEXT,
	candidate_email TEXT,
	booked_at       TIMESTAMPTZ,
	version         BIGINT      NOT NULL DEFAULT 1,
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	CHECK (start_time < end_time)
);

CREATE INDEX IF NOT EXISTS idx_slots_interviewer_start
	ON interview_slots (interviewer_id, start_time);
CREATE INDEX IF NOT EXISTS idx_slots_status_start
	ON interview_slots (status, start_time);

CREATE TABLE IF NOT EXISTS notifications (
	id              BIGSERIAL PRIMARY KEY,
	recipient_email TEXT        NOT NULL,
	subject         TEXT        NOT NULL,
	content         TEXT        NOT NULL,
	type            TEXT        NOT NULL,
	status          TEXT        NOT NULL DEFAULT 'PENDING',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	scheduled_for   TIMESTAMPTZ NOT NULL DEFAULT now(),
	sent_at         TIMESTAMPTZ,
	retry_count     INT         NOT NULL DEFAULT 0,
	error_message   TEXT,
	slot_id         BIGINT,
	interviewer_id  BIGINT
);

CREATE INDEX IF NOT EXISTS idx_notifications_status_scheduled
	ON notifications (status, scheduled_for);
CREATE INDEX IF NOT EXISTS idx_notifications_recipient
	ON notifications (recipient_email, created_at DESC);

CREATE TABLE IF NOT EXISTS outbox_events (
	id             BIGSERIAL PRIMARY KEY,
	event_id       TEXT        NOT NULL,
	aggregate_type TEXT        NOT NULL,
	aggregate_id   TEXT        NOT NULL,
	event_type     TEXT        NOT NULL,
	payload        JSONB       NOT NULL,
	traceparent    TEXT,
	tracestate     TEXT,
	created_at     TIMESTAMPTZ NOT NULL DEFAULT now(),
	published_at   TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_outbox_unpublished
	ON outbox_events (id) WHERE published_at IS NULL;
`
