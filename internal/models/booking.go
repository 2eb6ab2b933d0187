package models

import "time"

type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingCancelled BookingStatus = "cancelled"
)

// Occupies reports whether a booking in this status holds slot capacity.
func (s BookingStatus) Occupies() bool {
	return s == BookingPending || s == BookingConfirmed
}

type Booking struct {
	ID              int64           `json:"id"`
	CoachID         AccountID       `json:"coach_id"`
	MemberID        MemberProfileID `json:"member_id"`
	RequestedDate   time.Time       `json:"requested_date"`
	RequestedTime   string          `json:"requested_time"`
	DurationMinutes int             `json:"duration_minutes"`
	Notes           *string         `json:"notes"`
	Status          BookingStatus   `json:"status"`
	SessionID       *int64          `json:"session_id"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

type BookingDetail struct {
	Booking
	Coach   *Party   `json:"coach,omitempty"`
	Member  *Party   `json:"member,omitempty"`
	Session *Session `json:"session,omitempty"`
}
