package models

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidClock = errors.New("time must be formatted as HH:MM")

// Clock is a minute of the day in [0, 1440).
type Clock int

func ParseClock(value string) (Clock, error) {
	hours, minutes, ok := strings.Cut(strings.TrimSpace(value), ":")
	if !ok || len(hours) != 2 || len(minutes) != 2 {
		return 0, ErrInvalidClock
	}
	h, err := strconv.Atoi(hours)
	if err != nil || h < 0 || h > 23 {
		return 0, ErrInvalidClock
	}
	m, err := strconv.Atoi(minutes)
	if err != nil || m < 0 || m > 59 {
		return 0, ErrInvalidClock
	}
	return Clock(h*60 + m), nil
}

func ClockOf(t time.Time) Clock {
	return Clock(t.Hour()*60 + t.Minute())
}

func (c Clock) String() string {
	return fmt.Sprintf("%02d:%02d", int(c)/60, int(c)%60)
}

// On returns the instant the clock reads on the calendar day of date, in loc.
func (c Clock) On(date time.Time, loc *time.Location) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, int(c)/60, int(c)%60, 0, 0, loc)
}

// DateOnly normalises t to midnight UTC of its calendar day. Bookings store
// dates in a DATE column, so only the year, month and day survive.
func DateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

type AvailabilityWindow struct {
	ID                 int64     `json:"id"`
	CoachID            AccountID `json:"coach_id"`
	DayOfWeek          int       `json:"day_of_week"`
	StartTime          string    `json:"start_time"`
	EndTime            string    `json:"end_time"`
	IsActive           bool      `json:"is_active"`
	MaxSessionsPerSlot int       `json:"max_sessions_per_slot"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// Contains reports whether at falls inside the half-open [start, end) range.
// Windows with unparsable bounds contain nothing.
func (w AvailabilityWindow) Contains(at Clock) bool {
	start, err := ParseClock(w.StartTime)
	if err != nil {
		return false
	}
	end, err := ParseClock(w.EndTime)
	if err != nil {
		return false
	}
	return start <= at && at < end
}

func (w AvailabilityWindow) Validate() error {
	if w.CoachID <= 0 {
		return errors.New("coach_id must be positive")
	}
	if w.DayOfWeek < 0 || w.DayOfWeek > 6 {
		return errors.New("day_of_week must be between 0 and 6")
	}
	start, err := ParseClock(w.StartTime)
	if err != nil {
		return fmt.Errorf("start_time: %w", err)
	}
	end, err := ParseClock(w.EndTime)
	if err != nil {
		return fmt.Errorf("end_time: %w", err)
	}
	if end <= start {
		return errors.New("end_time must be after start_time")
	}
	if w.MaxSessionsPerSlot <= 0 {
		return errors.New("max_sessions_per_slot must be positive")
	}
	return nil
}

// SlotKey names one bookable (coach, date, time) slot.
type SlotKey struct {
	CoachID AccountID
	Date    time.Time
	Time    Clock
}

func NewSlotKey(coachID AccountID, date time.Time, at Clock) SlotKey {
	return SlotKey{CoachID: coachID, Date: DateOnly(date), Time: at}
}

func (k SlotKey) String() string {
	return fmt.Sprintf("slot:%d:%s:%s", k.CoachID, k.Date.Format(time.DateOnly), k.Time)
}
