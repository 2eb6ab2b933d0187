package models

import "time"

type NotificationCategory string

const (
	NotificationBooking  NotificationCategory = "booking"
	NotificationSession  NotificationCategory = "session"
	NotificationRating   NotificationCategory = "rating"
	NotificationReminder NotificationCategory = "reminder"
)

type NotificationPriority string

const (
	PriorityLow    NotificationPriority = "low"
	PriorityNormal NotificationPriority = "normal"
	PriorityHigh   NotificationPriority = "high"
)

type NotificationInput struct {
	UserID      AccountID
	Title       string
	Message     string
	Category    NotificationCategory
	Priority    NotificationPriority
	ActionURL   *string
	ActionLabel *string
}

type Notification struct {
	ID          int64                `json:"id"`
	UserID      AccountID            `json:"user_id"`
	Title       string               `json:"title"`
	Message     string               `json:"message"`
	Category    NotificationCategory `json:"category"`
	Priority    NotificationPriority `json:"priority"`
	ActionURL   *string              `json:"action_url,omitempty"`
	ActionLabel *string              `json:"action_label,omitempty"`
	ReadAt      *time.Time           `json:"read_at"`
	CreatedAt   time.Time            `json:"created_at"`
}
