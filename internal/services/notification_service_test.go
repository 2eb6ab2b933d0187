package services

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachBooking/internal/models"
	tele "gopkg.in/telebot.v3"
)

type stubNotificationStore struct {
	created []models.NotificationInput
	err     error
	readErr error
	offset  int
	limit   int
}

func (s *stubNotificationStore) Create(_ context.Context, input models.NotificationInput) (*models.Notification, error) {
	if s.err != nil {
		return nil, s.err
	}
	s.created = append(s.created, input)
	return &models.Notification{
		ID:       int64(len(s.created)),
		UserID:   input.UserID,
		Title:    input.Title,
		Message:  input.Message,
		Category: input.Category,
		Priority: input.Priority,
	}, nil
}

func (s *stubNotificationStore) ListForUser(_ context.Context, _ models.AccountID, _ bool, limit int, offset int) ([]models.Notification, int, error) {
	s.limit, s.offset = limit, offset
	return []models.Notification{}, 0, nil
}

func (s *stubNotificationStore) MarkRead(_ context.Context, id int64, userID models.AccountID) (*models.Notification, error) {
	if s.readErr != nil {
		return nil, s.readErr
	}
	return &models.Notification{ID: id, UserID: userID}, nil
}

type stubPusher struct {
	pushed []int64
	err    error
}

func (p *stubPusher) Push(_ context.Context, notification *models.Notification) error {
	p.pushed = append(p.pushed, notification.ID)
	return p.err
}

func TestNotifyPersistsThenPushes(t *testing.T) {
	store := &stubNotificationStore{}
	failing := &stubPusher{err: errors.New("socket closed")}
	working := &stubPusher{}
	service := NewNotificationService(store, failing, working)

	err := service.Notify(context.Background(), models.NotificationInput{UserID: 7, Title: " Booking confirmed "})
	if err != nil {
		t.Fatalf("Notify: %v", err)
	}
	if len(store.created) != 1 {
		t.Fatalf("expected one stored notification, got %d", len(store.created))
	}
	stored := store.created[0]
	if stored.Title != "Booking confirmed" || stored.Priority != models.PriorityNormal || stored.Category == "" {
		t.Fatalf("expected defaults applied, got %+v", stored)
	}
	if len(failing.pushed) != 1 || len(working.pushed) != 1 {
		t.Fatalf("expected both pushers called despite failure")
	}
}

func TestNotifyValidatesAndSurfacesStoreErrors(t *testing.T) {
	store := &stubNotificationStore{}
	service := NewNotificationService(store)

	if err := service.Notify(context.Background(), models.NotificationInput{UserID: 0, Title: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}

	store.err = errors.New("db down")
	if err := service.Notify(context.Background(), models.NotificationInput{UserID: 1, Title: "x"}); err == nil {
		t.Fatalf("expected store error")
	}
}

func TestListNotificationsPaginates(t *testing.T) {
	store := &stubNotificationStore{}
	service := NewNotificationService(store)
	caller := models.Caller{AccountID: 3, Role: models.RoleCoach}

	page, err := service.ListNotifications(context.Background(), caller, false, 3, 500)
	if err != nil {
		t.Fatalf("ListNotifications: %v", err)
	}
	if page.Limit != 20 || store.limit != 20 || store.offset != 40 {
		t.Fatalf("expected default limit and offset 40, got limit=%d offset=%d", store.limit, store.offset)
	}
}

func TestMarkReadMapsMissingRow(t *testing.T) {
	store := &stubNotificationStore{readErr: pgx.ErrNoRows}
	service := NewNotificationService(store)

	_, err := service.MarkRead(context.Background(), models.Caller{AccountID: 3, Role: models.RoleMember}, 12)
	if !errors.Is(err, ErrNotificationNotFound) || !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotificationNotFound, got %v", err)
	}
}

type stubTelegramSender struct {
	to   tele.Recipient
	what interface{}
}

func (s *stubTelegramSender) Send(to tele.Recipient, what interface{}, _ ...interface{}) (*tele.Message, error) {
	s.to, s.what = to, what
	return &tele.Message{}, nil
}

type stubTelegramLinks map[models.AccountID]int64

func (l stubTelegramLinks) ChatIDFor(_ context.Context, userID models.AccountID) (int64, error) {
	chatID, ok := l[userID]
	if !ok {
		return 0, pgx.ErrNoRows
	}
	return chatID, nil
}

func TestTelegramPusherSendsToLinkedChat(t *testing.T) {
	sender := &stubTelegramSender{}
	pusher := NewTelegramPusher(sender, stubTelegramLinks{5: 555})

	err := pusher.Push(context.Background(), &models.Notification{UserID: 5, Title: "<Reminder>", Message: "Soon & now"})
	if err != nil {
		t.Fatalf("Push: %v", err)
	}
	if sender.to.Recipient() != "555" {
		t.Fatalf("expected chat 555, got %q", sender.to.Recipient())
	}
	if sender.what != "<b>&lt;Reminder&gt;</b>\n\nSoon &amp; now" {
		t.Fatalf("unexpected message %q", sender.what)
	}

	unlinked := &stubTelegramSender{}
	if err := NewTelegramPusher(unlinked, stubTelegramLinks{}).Push(context.Background(), &models.Notification{UserID: 9}); err != nil {
		t.Fatalf("expected unlinked account to be skipped, got %v", err)
	}
	if unlinked.to != nil {
		t.Fatalf("expected no message for unlinked account")
	}
}
