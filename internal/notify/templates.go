package notify

import (
	"fmt"
	"time"

	"github.com/vasitum/interviewsched/internal/model"
)

const (
	dateLayout = "January 02, 2006"
	timeLayout = "03:04 PM"
)

func NewBookingConfirmation(slot model.Slot, iv model.Interviewer) model.Notification {
	content := fmt.Sprintf(`Dear %s,

Your interview has been successfully scheduled!

Interview Details:
- Interviewer: %s
- Date: %s
- Time: %s

Please make sure to join the interview on time. If you need to reschedule or cancel,
please contact us as soon as possible.

Best regards,
Interview Scheduler Team
`, slot.CandidateName, iv.Name, slot.StartTime.Format(dateLayout), slot.StartTime.Format(timeLayout))

	return model.Notification{
		RecipientEmail: slot.CandidateEmail,
		Subject:        "Interview Booking Confirmation",
		Content:        content,
		Type:           model.BookingConfirmation,
		SlotID:         slot.ID,
		InterviewerID:  iv.ID,
	}
}

func NewInterviewReminder(slot model.Slot, iv model.Interviewer, remindAt time.Time) model.Notification {
	content := fmt.Sprintf(`Dear %s,

This is a friendly reminder about your upcoming interview scheduled for tomorrow.

Interview Details:
- Interviewer: %s
- Date: %s
- Time: %s

Please make sure you are prepared and join on time.

Best regards,
Interview Scheduler Team
`, slot.CandidateName, iv.Name, slot.StartTime.Format(dateLayout), slot.StartTime.Format(timeLayout))

	return model.Notification{
		RecipientEmail: slot.CandidateEmail,
		Subject:        "Interview Reminder - Tomorrow",
		Content:        content,
		Type:           model.InterviewReminder,
		ScheduledFor:   remindAt,
		SlotID:         slot.ID,
		InterviewerID:  iv.ID,
	}
}

// NewCancellationNotice addresses the candidate who held the booking
// before it was cleared, so the prior name and email are passed in.
func NewCancellationNotice(slot model.Slot, iv model.Interviewer, candidateName, candidateEmail string) model.Notification {
	content := fmt.Sprintf(`Dear %s,

We regret to inform you that your interview has been cancelled.

Cancelled Interview Details:
- Interviewer: %s
- Date: %s
- Time: %s

Please feel free to book another available slot at your convenience.

Best regards,
Interview Scheduler Team
`, candidateName, iv.Name, slot.StartTime.Format(dateLayout), slot.StartTime.Format(timeLayout))

	return model.Notification{
		RecipientEmail: candidateEmail,
		Subject:        "Interview Cancellation Notice",
		Content:        content,
		Type:           model.CancellationNotice,
		SlotID:         slot.ID,
		InterviewerID:  iv.ID,
	}
}

func NewSlotGenerationAlert(iv model.Interviewer, slotsGenerated int) model.Notification {
	content := fmt.Sprintf(`Dear %s,

New interview slots have been generated for you.

Details:
- Number of new slots: %d
- Generated for the next 2 weeks

You can view and manage your slots through the admin panel.

Best regards,
Interview Scheduler Team
`, iv.Name, slotsGenerated)

	return model.Notification{
		RecipientEmail: iv.Email,
		Subject:        "New Interview Slots Generated",
		Content:        content,
		Type:           model.SlotGenerationAlert,
		InterviewerID:  iv.ID,
	}
}
