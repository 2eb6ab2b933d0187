package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachBooking/internal/models"
	"github.com/saeid-a/CoachBooking/internal/repository"
)

type slotLocker interface {
	WithSlotLock(ctx context.Context, key models.SlotKey, fn func(tx repository.SlotTx) error) error
}

type bookingStore interface {
	GetByID(ctx context.Context, bookingID int64) (*models.Booking, error)
	List(ctx context.Context, filter repository.BookingListFilter) ([]models.Booking, error)
	Cancel(ctx context.Context, bookingID int64) (*models.Booking, error)
}

const DefaultBookingCancelReason = "Booking cancelled"

type BookingService struct {
	slots    slotLocker
	bookings bookingStore
	capacity *CapacityService
	sessions *SessionService
	identity *IdentityService
	effects  dispatcher
	loc      *time.Location
	now      func() time.Time
}

func NewBookingService(
	slots slotLocker,
	bookings bookingStore,
	capacity *CapacityService,
	sessions *SessionService,
	identity *IdentityService,
	notifier Notifier,
	messenger Messenger,
	loc *time.Location,
) *BookingService {
	if loc == nil {
		loc = time.UTC
	}
	return &BookingService{
		slots:    slots,
		bookings: bookings,
		capacity: capacity,
		sessions: sessions,
		identity: identity,
		effects:  dispatcher{calendar: sessions.effects.calendar, notifier: notifier, messenger: messenger},
		loc:      loc,
		now:      time.Now,
	}
}

type CreateBookingInput struct {
	CoachID         models.AccountID
	MemberAccountID models.AccountID
	Date            time.Time
	Time            string
	DurationMinutes int
	Notes           *string
	CreateGroupChat bool
}

// CreateBooking allocates one slot for a member. The capacity check, session
// insert and booking insert run under the slot lock in one transaction, so
// concurrent requests for the same slot can never exceed its capacity.
func (s *BookingService) CreateBooking(
	ctx context.Context,
	caller models.Caller,
	input CreateBookingInput,
) (*models.BookingDetail, error) {
	if input.CoachID <= 0 || input.MemberAccountID <= 0 || input.DurationMinutes <= 0 || input.Date.IsZero() {
		return nil, ErrInvalidInput
	}
	at, err := models.ParseClock(input.Time)
	if err != nil {
		return nil, ErrInvalidInput
	}
	if input.CoachID == input.MemberAccountID {
		return nil, ErrInvalidInput
	}
	if !canBookFor(caller, input.CoachID, input.MemberAccountID) {
		return nil, ErrForbidden
	}

	date := models.DateOnly(input.Date)
	scheduledAt := at.On(date, s.loc)
	if scheduledAt.Before(s.now().Add(-1 * time.Minute)) {
		return nil, ErrInvalidInput
	}

	coach, err := s.identity.coach(ctx, input.CoachID)
	if err != nil {
		return nil, err
	}
	member, err := s.identity.memberByAccount(ctx, input.MemberAccountID)
	if err != nil {
		return nil, err
	}

	window, err := s.capacity.FindWindow(ctx, input.CoachID, date, at)
	if err != nil {
		return nil, err
	}
	if window == nil {
		return nil, ErrInvalidSlot
	}

	key := models.NewSlotKey(input.CoachID, date, at)
	draft := sessionDraft{
		coach:           coach,
		member:          member,
		scheduledAt:     scheduledAt,
		durationMinutes: input.DurationMinutes,
		sessionType:     models.DefaultSessionType,
		memberNotes:     trimmedOrNil(input.Notes),
	}

	// Unlocked pre-check so a full slot is rejected without touching the
	// calendar. The authoritative check runs again under the lock.
	count, err := s.slotCount(ctx, key)
	if err != nil {
		return nil, err
	}
	if count >= window.MaxSessionsPerSlot {
		s.notifyRejected(ctx, coach, member, date, at)
		return nil, ErrSlotFull
	}

	// The calendar event is created before the lock is taken so the lock
	// is never held across a call outside the transaction.
	eventID, err := s.sessions.openCalendarEvent(ctx, draft)
	if err != nil {
		return nil, err
	}

	var (
		session *models.Session
		booking *models.Booking
	)
	err = s.slots.WithSlotLock(ctx, key, func(tx repository.SlotTx) error {
		session, booking = nil, nil

		count, err := tx.CountActiveBookings(ctx, key)
		if err != nil {
			return err
		}
		if count >= window.MaxSessionsPerSlot {
			return ErrSlotFull
		}

		session, err = s.sessions.insertScheduled(ctx, tx.CreateSession, draft, eventID)
		if err != nil {
			return err
		}

		sessionID := session.ID
		booking, err = tx.CreateBooking(ctx, repository.CreateBookingInput{
			CoachID:         input.CoachID,
			MemberID:        member.ID,
			RequestedDate:   date,
			RequestedTime:   at.String(),
			DurationMinutes: input.DurationMinutes,
			Notes:           draft.memberNotes,
			Status:          models.BookingConfirmed,
			SessionID:       &sessionID,
		})
		return err
	})
	if err != nil {
		s.effects.cancelCalendarEvent(ctx, eventID)
		switch {
		case errors.Is(err, ErrSlotFull):
			s.notifyRejected(ctx, coach, member, date, at)
			return nil, ErrSlotFull
		case repository.IsLockTimeout(err):
			return nil, ErrSlotBusy
		default:
			return nil, err
		}
	}

	s.notifyConfirmed(ctx, booking, session, coach, member)
	if input.CreateGroupChat {
		s.effects.createConversation(ctx, coach.UserID, models.ConversationInput{
			Type: models.ConversationGroup,
			Name: fmt.Sprintf(
				"%s & %s",
				models.CoachParty(coach).DisplayName("Coach"),
				models.MemberParty(member).DisplayName("Member"),
			),
			ParticipantIDs: []models.AccountID{coach.UserID, member.UserID},
		})
	}

	coachParty := models.CoachParty(coach)
	memberParty := models.MemberParty(member)
	return &models.BookingDetail{
		Booking: *booking,
		Coach:   &coachParty,
		Member:  &memberParty,
		Session: session,
	}, nil
}

func (s *BookingService) notifyRejected(
	ctx context.Context,
	coach *models.CoachProfile,
	member *models.MemberProfile,
	date time.Time,
	at models.Clock,
) {
	s.effects.notify(ctx, models.NotificationInput{
		UserID: member.UserID,
		Title:  "Slot unavailable",
		Message: fmt.Sprintf(
			"The %s slot on %s with %s is fully booked. Please pick another time.",
			at,
			date.Format(time.DateOnly),
			coachName(coach),
		),
		Category: models.NotificationBooking,
		Priority: models.PriorityHigh,
	})
}

// notifyConfirmed tells the member their booking is confirmed and the coach
// that a session landed in their calendar.
func (s *BookingService) notifyConfirmed(
	ctx context.Context,
	booking *models.Booking,
	session *models.Session,
	coach *models.CoachProfile,
	member *models.MemberProfile,
) {
	s.effects.notify(ctx, models.NotificationInput{
		UserID: member.UserID,
		Title:  "Booking confirmed",
		Message: fmt.Sprintf(
			"Your session with %s on %s at %s is confirmed.",
			coachName(coach),
			booking.RequestedDate.Format(time.DateOnly),
			booking.RequestedTime,
		),
		Category:    models.NotificationBooking,
		ActionURL:   stringPtr(fmt.Sprintf("/bookings/%d", booking.ID)),
		ActionLabel: stringPtr("View booking"),
	})
	s.sessions.notifyScheduled(ctx, session, coach, member, false)
}

// CancelBooking cancels the linked session first and the booking second, so
// a failure in between leaves a booking that can still be cancelled. A
// cancelled booking whose session is still scheduled is repaired by calling
// again. A booking whose session already completed cannot be cancelled; a
// session that was already cancelled on its own is left as is.
func (s *BookingService) CancelBooking(
	ctx context.Context,
	caller models.Caller,
	bookingID int64,
	reason *string,
) (*models.Booking, error) {
	booking, err := s.loadFor(ctx, caller, bookingID, canCancelBooking)
	if err != nil {
		return nil, err
	}

	cascaded := false
	if booking.SessionID != nil {
		cascaded, err = s.cancelLinkedSession(ctx, caller, booking, reason)
		if err != nil {
			return nil, err
		}
	}

	if booking.Status == models.BookingCancelled {
		if cascaded {
			return booking, nil
		}
		return nil, ErrInvalidStateTransition
	}

	cancelled, err := s.bookings.Cancel(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}
	return cancelled, nil
}

// cancelLinkedSession reports whether it moved the session to cancelled.
// A completed session, including one completed concurrently, rejects the
// whole cancellation before the booking row is touched.
func (s *BookingService) cancelLinkedSession(
	ctx context.Context,
	caller models.Caller,
	booking *models.Booking,
	reason *string,
) (bool, error) {
	sessionID := *booking.SessionID
	session, err := s.sessions.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			log.Printf("booking %d: linked session %d not found", booking.ID, sessionID)
			return false, nil
		}
		return false, err
	}

	switch session.Status {
	case models.SessionCompleted:
		return false, ErrInvalidStateTransition
	case models.SessionCancelled:
		return false, nil
	}

	cancelReason := DefaultBookingCancelReason
	if reason != nil && strings.TrimSpace(*reason) != "" {
		cancelReason = strings.TrimSpace(*reason)
	}

	// The booking's owner may always cancel its session, so the cascade
	// runs with the same caller.
	_, err = s.sessions.CancelSession(ctx, caller, sessionID, cancelReason)
	if err == nil {
		return true, nil
	}
	if !errors.Is(err, ErrInvalidStateTransition) {
		return false, err
	}

	// Lost a race with another transition; only a cancellation lets the
	// booking follow.
	current, reloadErr := s.sessions.sessions.GetByID(ctx, sessionID)
	if reloadErr != nil {
		return false, reloadErr
	}
	if current.Status != models.SessionCancelled {
		return false, ErrInvalidStateTransition
	}
	return false, nil
}

func (s *BookingService) FindBooking(
	ctx context.Context,
	caller models.Caller,
	bookingID int64,
) (*models.BookingDetail, error) {
	booking, err := s.loadFor(ctx, caller, bookingID, canViewBooking)
	if err != nil {
		return nil, err
	}

	detail := &models.BookingDetail{Booking: *booking}
	if coach, err := s.identity.coach(ctx, booking.CoachID); err == nil {
		party := models.CoachParty(coach)
		detail.Coach = &party
	}
	if member, err := s.identity.memberByProfile(ctx, booking.MemberID); err == nil {
		party := models.MemberParty(member)
		detail.Member = &party
	}
	if booking.SessionID != nil {
		session, err := s.sessions.sessions.GetByID(ctx, *booking.SessionID)
		if err != nil && !errors.Is(err, pgx.ErrNoRows) {
			return nil, err
		}
		detail.Session = session
	}

	return detail, nil
}

func (s *BookingService) ListBookings(
	ctx context.Context,
	caller models.Caller,
	status string,
) ([]models.Booking, error) {
	status = strings.TrimSpace(status)
	switch models.BookingStatus(status) {
	case "", models.BookingPending, models.BookingConfirmed, models.BookingCancelled:
	default:
		return nil, ErrInvalidInput
	}

	owner, ok := ownershipScope(caller)
	if !ok {
		return []models.Booking{}, nil
	}
	return s.bookings.List(ctx, repository.BookingListFilter{
		CoachID:  owner.CoachID,
		MemberID: owner.MemberID,
		Status:   status,
	})
}

func (s *BookingService) slotCount(ctx context.Context, key models.SlotKey) (int, error) {
	return s.capacity.bookings.CountActiveForSlot(ctx, key)
}

// CheckSlotCapacity is exposed here so handlers only need the booking service.
func (s *BookingService) CheckSlotCapacity(
	ctx context.Context,
	coachID models.AccountID,
	date time.Time,
	requestedTime string,
) (int, error) {
	return s.capacity.CheckSlotCapacity(ctx, coachID, date, requestedTime)
}

func (s *BookingService) loadFor(
	ctx context.Context,
	caller models.Caller,
	bookingID int64,
	allowed func(models.Caller, *models.Booking) bool,
) (*models.Booking, error) {
	if bookingID <= 0 {
		return nil, ErrInvalidInput
	}
	if caller.Role == models.RoleMember && !caller.HasMemberProfile() {
		return nil, ErrBookingNotFound
	}

	booking, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	if !allowed(caller, booking) {
		return nil, ErrForbidden
	}
	return booking, nil
}
