package services

import (
	"context"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachBooking/internal/models"
	"github.com/saeid-a/CoachBooking/internal/repository"
)

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

type conversationLister interface {
	ListForParticipant(ctx context.Context, participantID models.AccountID) ([]models.Conversation, error)
}

// ChatService creates conversations for the booking flow and lists them for
// their participants. Messages themselves live in the chat product.
type ChatService struct {
	db            txBeginner
	conversations conversationLister
}

func NewChatService(db txBeginner, conversations conversationLister) *ChatService {
	return &ChatService{db: db, conversations: conversations}
}

func (s *ChatService) CreateConversation(
	ctx context.Context,
	initiator models.AccountID,
	input models.ConversationInput,
) error {
	_, err := s.StartConversation(ctx, initiator, input)
	return err
}

// StartConversation inserts the conversation and its participants in one
// transaction. The initiator is always a participant.
func (s *ChatService) StartConversation(
	ctx context.Context,
	initiator models.AccountID,
	input models.ConversationInput,
) (*models.Conversation, error) {
	if initiator <= 0 {
		return nil, ErrInvalidInput
	}

	participants := make([]models.AccountID, 0, len(input.ParticipantIDs)+1)
	participants = append(participants, initiator)
	for _, id := range input.ParticipantIDs {
		if id <= 0 {
			return nil, ErrInvalidInput
		}
		if !slices.Contains(participants, id) {
			participants = append(participants, id)
		}
	}
	if len(participants) < 2 {
		return nil, ErrInvalidInput
	}

	conversationType := input.Type
	if conversationType == "" {
		conversationType = models.ConversationGroup
	}
	if conversationType != models.ConversationGroup && conversationType != models.ConversationDirect {
		return nil, ErrInvalidInput
	}
	if conversationType == models.ConversationDirect && len(participants) != 2 {
		return nil, ErrInvalidInput
	}

	var name *string
	if trimmed := strings.TrimSpace(input.Name); trimmed != "" {
		name = &trimmed
	}

	tx, err := s.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	txConversationRepo := repository.NewConversationRepository(tx)
	conversation, err := txConversationRepo.Create(ctx, initiator, conversationType, name)
	if err != nil {
		return nil, err
	}
	if err := txConversationRepo.AddParticipants(ctx, conversation.ID, participants); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	slices.Sort(participants)
	conversation.ParticipantIDs = participants
	return conversation, nil
}

func (s *ChatService) ListConversations(ctx context.Context, caller models.Caller) ([]models.Conversation, error) {
	if caller.AccountID <= 0 {
		return nil, ErrForbidden
	}
	return s.conversations.ListForParticipant(ctx, caller.AccountID)
}
