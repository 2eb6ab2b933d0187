package handlers

import (
	"context"
	"net/http"
	"testing"

	"github.com/saeid-a/CoachBooking/internal/models"
	"github.com/saeid-a/CoachBooking/internal/services"
)

type stubConversationService struct {
	conversation  *models.Conversation
	conversations []models.Conversation
	err           error
	lastInitiator models.AccountID
	lastInput     models.ConversationInput
}

func (s *stubConversationService) StartConversation(_ context.Context, initiator models.AccountID, input models.ConversationInput) (*models.Conversation, error) {
	s.lastInitiator = initiator
	s.lastInput = input
	return s.conversation, s.err
}

func (s *stubConversationService) ListConversations(_ context.Context, _ models.Caller) ([]models.Conversation, error) {
	return s.conversations, s.err
}

func TestStartConversationUsesCallerAsInitiator(t *testing.T) {
	service := &stubConversationService{conversation: &models.Conversation{ID: 4}}
	handler := NewConversationHandler(service)

	app := appWithCaller(coachCaller)
	app.Post("/api/v1/conversations", handler.StartConversation)

	resp := doJSON(t, app, http.MethodPost, "/api/v1/conversations", `{"type":"direct","participant_ids":[42]}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("expected 201, got %d", resp.StatusCode)
	}
	if service.lastInitiator != 7 {
		t.Fatalf("expected initiator 7, got %d", service.lastInitiator)
	}
	if service.lastInput.Type != models.ConversationDirect || len(service.lastInput.ParticipantIDs) != 1 {
		t.Fatalf("unexpected input: %+v", service.lastInput)
	}
}

func TestStartConversationValidation(t *testing.T) {
	handler := NewConversationHandler(&stubConversationService{})

	app := appWithCaller(coachCaller)
	app.Post("/api/v1/conversations", handler.StartConversation)

	for _, body := range []string{
		`{"type":"channel","participant_ids":[42]}`,
		`{"participant_ids":[]}`,
		`{"participant_ids":[0]}`,
	} {
		resp := doJSON(t, app, http.MethodPost, "/api/v1/conversations", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d", body, resp.StatusCode)
		}
	}
}

func TestListConversations(t *testing.T) {
	service := &stubConversationService{conversations: []models.Conversation{{ID: 1}}}
	handler := NewConversationHandler(service)

	app := appWithCaller(memberCaller)
	app.Get("/api/v1/conversations", handler.ListConversations)

	resp := doJSON(t, app, http.MethodGet, "/api/v1/conversations", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	service.err = services.ErrForbidden
	resp = doJSON(t, app, http.MethodGet, "/api/v1/conversations", "")
	if resp.StatusCode != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", resp.StatusCode)
	}
}
