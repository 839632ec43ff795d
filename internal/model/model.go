package model

import "time"

type SlotStatus string

const (
	SlotAvailable SlotStatus = "AVAILABLE"
	SlotBooked    SlotStatus = "BOOKED"
	// SlotCancelled is defined for forward compatibility; no operation
	// currently transitions a slot into it.
	SlotCancelled SlotStatus = "CANCELLED"
)

type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "PENDING"
	NotificationSent      NotificationStatus = "SENT"
	NotificationFailed    NotificationStatus = "FAILED"
	NotificationCancelled NotificationStatus = "CANCELLED"
)

type NotificationType string

const (
	BookingConfirmation NotificationType = "BOOKING_CONFIRMATION"
	InterviewReminder   NotificationType = "INTERVIEW_REMINDER"
	CancellationNotice  NotificationType = "CANCELLATION_NOTICE"
	SlotGenerationAlert NotificationType = "SLOT_GENERATION_ALERT"
	BookingUpdate       NotificationType = "BOOKING_UPDATE"
)

type Interviewer struct {
	ID                   int64     `json:"id"`
	Name                 string    `json:"name"`
	Email                string    `json:"email"`
	MaxInterviewsPerWeek int       `json:"max_interviews_per_week"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

// AvailabilityTemplate is a recurring weekly window. Times are local
// clock times in "HH:MM" form; the service runs on a single implicit
// timezone. Deactivation is soft so generated slots keep provenance.
type AvailabilityTemplate struct {
	ID            int64        `json:"id"`
	InterviewerID int64        `json:"interviewer_id"`
	DayOfWeek     time.Weekday `json:"day_of_week"`
	StartTime     string       `json:"start_time"`
	EndTime       string       `json:"end_time"`
	Active        bool         `json:"active"`
	CreatedAt     time.Time    `json:"created_at"`
}

// Slot is a single bookable one-hour interview window.
//
// Version counts mutations and is a staleness signal for read-then-display
// clients; booking mutual exclusion is the store's row lock, not this field.
type Slot struct {
	ID             int64      `json:"id"`
	InterviewerID  int64      `json:"interviewer_id"`
	StartTime      time.Time  `json:"start_time"`
	EndTime        time.Time  `json:"end_time"`
	Status         SlotStatus `json:"status"`
	CandidateName  string     `json:"candidate_name,omitempty"`
	CandidateEmail string     `json:"candidate_email,omitempty"`
	BookedAt       *time.Time `json:"booked_at,omitempty"`
	Version        int64      `json:"version"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type Notification struct {
	ID             int64              `json:"id"`
	RecipientEmail string             `json:"recipient_email"`
	Subject        string             `json:"subject"`
	Content        string             `json:"content"`
	Type           NotificationType   `json:"type"`
	Status         NotificationStatus `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
	ScheduledFor   time.Time          `json:"scheduled_for"`
	SentAt         *time.Time         `json:"sent_at,omitempty"`
	RetryCount     int                `json:"retry_count"`
	ErrorMessage   string             `json:"error_message,omitempty"`
	SlotID         int64              `json:"slot_id,omitempty"`
	InterviewerID  int64              `json:"interviewer_id,omitempty"`
}
