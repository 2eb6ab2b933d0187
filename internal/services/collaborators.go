package services

import (
	"context"
	"log"

	"github.com/google/uuid"
	"github.com/saeid-a/CoachBooking/internal/models"
)

// Calendar owns calendar events; sessions only keep the event id.
type Calendar interface {
	CreateEvent(ctx context.Context, event models.CalendarEvent) (uuid.UUID, error)
	UpdateEvent(ctx context.Context, id uuid.UUID, patch models.CalendarEventPatch) error
}

// Notifier delivers user alerts. Callers never fail an operation because of it.
type Notifier interface {
	Notify(ctx context.Context, input models.NotificationInput) error
}

// Messenger creates conversations between accounts.
type Messenger interface {
	CreateConversation(ctx context.Context, initiator models.AccountID, input models.ConversationInput) error
}

// dispatcher runs the advisory side effects that follow a committed change.
// Every method logs and swallows the collaborator's error.
type dispatcher struct {
	calendar  Calendar
	notifier  Notifier
	messenger Messenger
}

func (d dispatcher) notify(ctx context.Context, input models.NotificationInput) {
	if d.notifier == nil || input.UserID <= 0 {
		return
	}
	if input.Priority == "" {
		input.Priority = models.PriorityNormal
	}
	if err := d.notifier.Notify(ctx, input); err != nil {
		log.Printf("notification to user %d (%s) failed: %v", input.UserID, input.Title, err)
	}
}

func (d dispatcher) updateCalendar(ctx context.Context, eventID uuid.UUID, patch models.CalendarEventPatch) {
	if d.calendar == nil || eventID == uuid.Nil {
		return
	}
	if err := d.calendar.UpdateEvent(ctx, eventID, patch); err != nil {
		log.Printf("calendar event %s update failed: %v", eventID, err)
	}
}

func (d dispatcher) cancelCalendarEvent(ctx context.Context, eventID uuid.UUID) {
	status := models.CalendarEventCancelled
	d.updateCalendar(ctx, eventID, models.CalendarEventPatch{Status: &status})
}

func (d dispatcher) createConversation(
	ctx context.Context,
	initiator models.AccountID,
	input models.ConversationInput,
) {
	if d.messenger == nil {
		return
	}
	if err := d.messenger.CreateConversation(ctx, initiator, input); err != nil {
		log.Printf("conversation %q for user %d failed: %v", input.Name, initiator, err)
	}
}

func stringPtr(value string) *string {
	return &value
}
