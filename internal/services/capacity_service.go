package services

import (
	"context"
	"time"

	"github.com/saeid-a/CoachBooking/internal/models"
)

type availabilityReader interface {
	ListActiveForDay(ctx context.Context, coachID models.AccountID, dayOfWeek int) ([]models.AvailabilityWindow, error)
}

type slotCounter interface {
	CountActiveForSlot(ctx context.Context, key models.SlotKey) (int, error)
}

type CapacityService struct {
	availability availabilityReader
	bookings     slotCounter
}

func NewCapacityService(availability availabilityReader, bookings slotCounter) *CapacityService {
	return &CapacityService{availability: availability, bookings: bookings}
}

// FindWindow returns the first active window of the coach on date's weekday
// that contains at, or nil when the time is not bookable.
func (s *CapacityService) FindWindow(
	ctx context.Context,
	coachID models.AccountID,
	date time.Time,
	at models.Clock,
) (*models.AvailabilityWindow, error) {
	windows, err := s.availability.ListActiveForDay(ctx, coachID, int(date.Weekday()))
	if err != nil {
		return nil, err
	}
	for i := range windows {
		if windows[i].IsActive && windows[i].Contains(at) {
			return &windows[i], nil
		}
	}
	return nil, nil
}

// CheckSlotCapacity returns max sessions per slot minus the active bookings at
// the exact slot. It is zero when no window matches and may be negative if the
// slot was overbooked; callers treat anything <= 0 as full. Never cached.
func (s *CapacityService) CheckSlotCapacity(
	ctx context.Context,
	coachID models.AccountID,
	date time.Time,
	requestedTime string,
) (int, error) {
	if coachID <= 0 || date.IsZero() {
		return 0, ErrInvalidInput
	}
	at, err := models.ParseClock(requestedTime)
	if err != nil {
		return 0, ErrInvalidInput
	}

	day := models.DateOnly(date)
	window, err := s.FindWindow(ctx, coachID, day, at)
	if err != nil {
		return 0, err
	}
	if window == nil {
		return 0, nil
	}

	count, err := s.bookings.CountActiveForSlot(ctx, models.NewSlotKey(coachID, day, at))
	if err != nil {
		return 0, err
	}
	return window.MaxSessionsPerSlot - count, nil
}
