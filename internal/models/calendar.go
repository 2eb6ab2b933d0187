package models

import (
	"time"

	"github.com/google/uuid"
)

type CalendarEventStatus string

const (
	CalendarEventConfirmed CalendarEventStatus = "confirmed"
	CalendarEventCancelled CalendarEventStatus = "cancelled"
)

type CalendarEvent struct {
	ID          uuid.UUID           `json:"id"`
	OwnerID     AccountID           `json:"owner_id"`
	Title       string              `json:"title"`
	Description *string             `json:"description"`
	StartAt     time.Time           `json:"start_at"`
	EndAt       time.Time           `json:"end_at"`
	AttendeeIDs []AccountID         `json:"attendee_ids"`
	Visibility  string              `json:"visibility"`
	Status      CalendarEventStatus `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
}

// CalendarEventPatch carries only the fields that change; nil means keep.
type CalendarEventPatch struct {
	Title       *string
	Description *string
	StartAt     *time.Time
	EndAt       *time.Time
	Status      *CalendarEventStatus
}
