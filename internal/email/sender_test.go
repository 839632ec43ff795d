package email

import (
	"strings"
	"testing"
)

func TestBuildMessage(t *testing.T) {
	msg := buildMessage("no-reply@interviewsched.local", "amina@example.com", "Interview Booking Confirmation", "Dear Amina,\n\nSee you soon.")

	for _, want := range []string{
		"From: no-reply@interviewsched.local\r\n",
		"To: amina@example.com\r\n",
		"Subject: Interview Booking Confirmation\r\n",
		"Content-Type: text/plain; charset=utf-8\r\n",
	} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}

	// Headers and body separated by a blank line.
	if !strings.Contains(msg, "\r\n\r\nDear Amina,") {
		t.Fatalf("body not separated from headers:\n%s", msg)
	}
}

func TestNewSMTPSenderDefaults(t *testing.T) {
	s := NewSMTPSender(" mailpit ", " 1025 ", "")
	if s.addr != "mailpit:1025" {
		t.Fatalf("addr = %q", s.addr)
	}
	if s.from != "no-reply@interviewsched.local" {
		t.Fatalf("from = %q", s.from)
	}
}

func TestNoopSenderAlwaysSucceeds(t *testing.T) {
	s := NewNoopSender(nil)
	if err := s.Send("anyone@example.com", "subject", "body"); err != nil {
		t.Fatalf("noop send failed: %v", err)
	}
}
