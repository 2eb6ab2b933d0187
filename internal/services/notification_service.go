package services

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachBooking/internal/models"
)

type notificationStore interface {
	Create(ctx context.Context, input models.NotificationInput) (*models.Notification, error)
	ListForUser(ctx context.Context, userID models.AccountID, unreadOnly bool, limit int, offset int) ([]models.Notification, int, error)
	MarkRead(ctx context.Context, notificationID int64, userID models.AccountID) (*models.Notification, error)
}

// NotificationPusher delivers a stored notification to a live channel.
type NotificationPusher interface {
	Push(ctx context.Context, notification *models.Notification) error
}

// NotificationService stores every notification and then fans it out to
// the registered pushers. Push failures never fail Notify.
type NotificationService struct {
	store   notificationStore
	pushers []NotificationPusher
}

func NewNotificationService(store notificationStore, pushers ...NotificationPusher) *NotificationService {
	return &NotificationService{store: store, pushers: pushers}
}

func (s *NotificationService) AddPusher(pusher NotificationPusher) {
	if pusher != nil {
		s.pushers = append(s.pushers, pusher)
	}
}

func (s *NotificationService) Notify(ctx context.Context, input models.NotificationInput) error {
	input.Title = strings.TrimSpace(input.Title)
	input.Message = strings.TrimSpace(input.Message)
	if input.UserID <= 0 || input.Title == "" {
		return ErrInvalidInput
	}
	if input.Category == "" {
		input.Category = models.NotificationSession
	}
	if input.Priority == "" {
		input.Priority = models.PriorityNormal
	}

	notification, err := s.store.Create(ctx, input)
	if err != nil {
		return err
	}

	for _, pusher := range s.pushers {
		if err := pusher.Push(ctx, notification); err != nil {
			log.Printf("push notification %d to user %d: %v", notification.ID, notification.UserID, err)
		}
	}
	return nil
}

type NotificationPage struct {
	Notifications []models.Notification `json:"notifications"`
	Total         int                   `json:"total"`
	Page          int                   `json:"page"`
	Limit         int                   `json:"limit"`
}

func (s *NotificationService) ListNotifications(
	ctx context.Context,
	caller models.Caller,
	unreadOnly bool,
	page int,
	limit int,
) (*NotificationPage, error) {
	if caller.AccountID <= 0 {
		return nil, ErrForbidden
	}
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	notifications, total, err := s.store.ListForUser(ctx, caller.AccountID, unreadOnly, limit, (page-1)*limit)
	if err != nil {
		return nil, err
	}
	return &NotificationPage{Notifications: notifications, Total: total, Page: page, Limit: limit}, nil
}

func (s *NotificationService) MarkRead(
	ctx context.Context,
	caller models.Caller,
	notificationID int64,
) (*models.Notification, error) {
	if notificationID <= 0 {
		return nil, ErrInvalidInput
	}
	notification, err := s.store.MarkRead(ctx, notificationID, caller.AccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotificationNotFound
		}
		return nil, err
	}
	return notification, nil
}
