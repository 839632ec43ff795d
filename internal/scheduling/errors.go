// Package scheduling holds the domain constants and the error taxonomy
// shared by the generator, the booking arbiter and the notification
// pipeline.
package scheduling

import (
	"errors"
	"fmt"
	"time"
)

const (
	// Horizon is the rolling window slots are generated and listed over.
	Horizon = 14 * 24 * time.Hour

	// SlotDuration is fixed by generation policy.
	SlotDuration = time.Hour

	// ReminderLead is how long before a booked slot the reminder fires.
	ReminderLead = 24 * time.Hour

	// MaxRetries bounds automatic redelivery of failed notifications.
	MaxRetries = 3

	// MaxPageSize is the hard ceiling on paginated listings.
	MaxPageSize = 100
)

type Kind int

const (
	KindNotFound Kind = iota + 1
	KindConflict
	KindValidation
	KindTransient
	KindInternal
)

// Error carries a Kind so callers can tell "someone else just took it"
// (Conflict) apart from "invalid slot id" (NotFound).
type Error struct {
	Kind Kind
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Msg + ": " + e.Err.Error()
	}
	return e.Msg
}

func (e *Error) Unwrap() error { return e.Err }

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Msg: fmt.Sprintf(format, args...)}
}

func Conflict(format string, args ...any) error {
	return &Error{Kind: KindConflict, Msg: fmt.Sprintf(format, args...)}
}

func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Msg: fmt.Sprintf(format, args...)}
}

func Transient(msg string, err error) error {
	return &Error{Kind: KindTransient, Msg: msg, Err: err}
}

func Internal(msg string, err error) error {
	return &Error{Kind: KindInternal, Msg: msg, Err: err}
}

func kindOf(err error) Kind {
	var se *Error
	if errors.As(err, &se) {
		return se.Kind
	}
	return 0
}

func IsNotFound(err error) bool   { return kindOf(err) == KindNotFound }
func IsConflict(err error) bool   { return kindOf(err) == KindConflict }
func IsValidation(err error) bool { return kindOf(err) == KindValidation }
func IsTransient(err error) bool  { return kindOf(err) == KindTransient }
