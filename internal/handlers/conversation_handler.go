package handlers

import (
	"context"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachBooking/internal/models"
)

type conversationApplicationService interface {
	StartConversation(ctx context.Context, initiator models.AccountID, input models.ConversationInput) (*models.Conversation, error)
	ListConversations(ctx context.Context, caller models.Caller) ([]models.Conversation, error)
}

type ConversationHandler struct {
	service conversationApplicationService
}

func NewConversationHandler(service conversationApplicationService) *ConversationHandler {
	return &ConversationHandler{service: service}
}

type startConversationRequest struct {
	Type           string  `json:"type" validate:"omitempty,oneof=direct group"`
	Name           string  `json:"name" validate:"max=120"`
	ParticipantIDs []int64 `json:"participant_ids" validate:"required,min=1,max=50,dive,gt=0"`
}

func (h *ConversationHandler) ListConversations(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	conversations, err := h.service.ListConversations(c.Context(), caller)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"conversations": conversations})
}

func (h *ConversationHandler) StartConversation(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	var req startConversationRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	participants := make([]models.AccountID, 0, len(req.ParticipantIDs))
	for _, id := range req.ParticipantIDs {
		participants = append(participants, models.AccountID(id))
	}

	conversation, err := h.service.StartConversation(c.Context(), caller.AccountID, models.ConversationInput{
		Type:           models.ConversationType(req.Type),
		Name:           strings.TrimSpace(req.Name),
		ParticipantIDs: participants,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"conversation": conversation})
}
