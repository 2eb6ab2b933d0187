package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachBooking/internal/models"
)

type calendarEventStore interface {
	Create(ctx context.Context, event models.CalendarEvent) (*models.CalendarEvent, error)
	Update(ctx context.Context, id uuid.UUID, patch models.CalendarEventPatch) (*models.CalendarEvent, error)
}

// CalendarService is the Postgres backed Calendar.
type CalendarService struct {
	events calendarEventStore
}

func NewCalendarService(events calendarEventStore) *CalendarService {
	return &CalendarService{events: events}
}

func (s *CalendarService) CreateEvent(ctx context.Context, event models.CalendarEvent) (uuid.UUID, error) {
	if event.OwnerID <= 0 || event.StartAt.IsZero() || !event.EndAt.After(event.StartAt) {
		return uuid.Nil, fmt.Errorf("calendar event: %w", ErrInvalidInput)
	}
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.Status == "" {
		event.Status = models.CalendarEventConfirmed
	}
	if event.Visibility == "" {
		event.Visibility = "private"
	}

	created, err := s.events.Create(ctx, event)
	if err != nil {
		return uuid.Nil, err
	}
	return created.ID, nil
}

func (s *CalendarService) UpdateEvent(ctx context.Context, id uuid.UUID, patch models.CalendarEventPatch) error {
	if patch.StartAt != nil && patch.EndAt != nil && !patch.EndAt.After(*patch.StartAt) {
		return fmt.Errorf("calendar event: %w", ErrInvalidInput)
	}
	_, err := s.events.Update(ctx, id, patch)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("calendar event %s: %w", id, ErrNotFound)
	}
	return err
}
