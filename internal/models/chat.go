package models

import "time"

type ConversationType string

const (
	ConversationDirect ConversationType = "direct"
	ConversationGroup  ConversationType = "group"
)

type ConversationInput struct {
	Type           ConversationType
	Name           string
	ParticipantIDs []AccountID
}

type Conversation struct {
	ID             int64            `json:"id"`
	Type           ConversationType `json:"type"`
	Name           *string          `json:"name"`
	CreatedBy      AccountID        `json:"created_by"`
	ParticipantIDs []AccountID      `json:"participant_ids"`
	CreatedAt      time.Time        `json:"created_at"`
	UpdatedAt      time.Time        `json:"updated_at"`
}
