package models

import (
	"time"

	"github.com/google/uuid"
)

type SessionStatus string

const (
	SessionScheduled SessionStatus = "scheduled"
	SessionCompleted SessionStatus = "completed"
	SessionCancelled SessionStatus = "cancelled"
)

func (s SessionStatus) Terminal() bool {
	return s == SessionCompleted || s == SessionCancelled
}

// CanTransition lists the only edges of the session lifecycle.
func (s SessionStatus) CanTransition(next SessionStatus) bool {
	return s == SessionScheduled && next.Terminal()
}

const DefaultSessionType = "coaching"

type Session struct {
	ID                 int64           `json:"id"`
	CoachID            AccountID       `json:"coach_id"`
	MemberID           MemberProfileID `json:"member_id"`
	CalendarEventID    uuid.UUID       `json:"calendar_event_id"`
	Type               string          `json:"type"`
	DurationMinutes    int             `json:"duration_minutes"`
	ScheduledAt        time.Time       `json:"scheduled_at"`
	Status             SessionStatus   `json:"status"`
	CoachNotes         *string         `json:"coach_notes"`
	MemberNotes        *string         `json:"member_notes"`
	Outcomes           *string         `json:"outcomes"`
	CancellationReason *string         `json:"cancellation_reason"`
	CompletedAt        *time.Time      `json:"completed_at"`
	CancelledAt        *time.Time      `json:"cancelled_at"`
	Rating             *int            `json:"rating"`
	RatingFeedback     *string         `json:"rating_feedback"`
	RemindedAt         *time.Time      `json:"-"`
	CreatedAt          time.Time       `json:"created_at"`
	UpdatedAt          time.Time       `json:"updated_at"`
}

func (s Session) EndsAt() time.Time {
	return s.ScheduledAt.Add(time.Duration(s.DurationMinutes) * time.Minute)
}
