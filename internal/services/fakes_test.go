package services

import (
	"context"
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachBooking/internal/models"
	"github.com/saeid-a/CoachBooking/internal/repository"
)

// memoryBackend is an in-memory stand-in for Postgres plus the three
// collaborators. Slot locks are real mutexes so concurrency tests exercise
// the same serialisation the advisory lock provides.
type memoryBackend struct {
	mu sync.Mutex

	coaches  map[models.AccountID]*models.CoachProfile
	members  map[models.MemberProfileID]*models.MemberProfile
	windows  []models.AvailabilityWindow
	sessions map[int64]*models.Session
	bookings map[int64]*models.Booking
	events   map[uuid.UUID]models.CalendarEvent
	nextID   int64

	slotLocks sync.Map

	calendarErr      error
	notifyErr        error
	bookingInsertErr error
	sessionCancelErr error
	// beforeSessionCancel runs ahead of the conditional update, outside the lock.
	beforeSessionCancel func(id int64)
	notifications       []models.NotificationInput
	conversations       []models.ConversationInput
}

func newMemoryBackend() *memoryBackend {
	return &memoryBackend{
		coaches:  make(map[models.AccountID]*models.CoachProfile),
		members:  make(map[models.MemberProfileID]*models.MemberProfile),
		sessions: make(map[int64]*models.Session),
		bookings: make(map[int64]*models.Booking),
		events:   make(map[uuid.UUID]models.CalendarEvent),
	}
}

func (b *memoryBackend) id() int64 {
	b.nextID++
	return b.nextID
}

func (b *memoryBackend) addCoach(accountID models.AccountID, name string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.coaches[accountID] = &models.CoachProfile{ID: b.id(), UserID: accountID, FullName: &name}
}

func (b *memoryBackend) addMember(accountID models.AccountID, name string) models.MemberProfileID {
	b.mu.Lock()
	defer b.mu.Unlock()
	profileID := models.MemberProfileID(b.id() + 1000)
	b.members[profileID] = &models.MemberProfile{ID: profileID, UserID: accountID, FullName: &name}
	return profileID
}

func (b *memoryBackend) addWindow(coachID models.AccountID, day time.Weekday, start, end string, capacity int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.windows = append(b.windows, models.AvailabilityWindow{
		ID:                 b.id(),
		CoachID:            coachID,
		DayOfWeek:          int(day),
		StartTime:          start,
		EndTime:            end,
		IsActive:           true,
		MaxSessionsPerSlot: capacity,
	})
}

func (b *memoryBackend) notificationsFor(userID models.AccountID) []models.NotificationInput {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []models.NotificationInput
	for _, n := range b.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

func (b *memoryBackend) bookingStatus(id int64) models.BookingStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.bookings[id].Status
}

func (b *memoryBackend) sessionStatus(id int64) models.SessionStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[id].Status
}

func (b *memoryBackend) eventStatus(id uuid.UUID) models.CalendarEventStatus {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.events[id].Status
}

func (b *memoryBackend) countSlotLocked(key models.SlotKey) int {
	count := 0
	for _, booking := range b.bookings {
		if booking.CoachID == key.CoachID &&
			models.DateOnly(booking.RequestedDate).Equal(key.Date) &&
			booking.RequestedTime == key.Time.String() &&
			booking.Status.Occupies() {
			count++
		}
	}
	return count
}

// profiles

type memoryCoaches struct{ b *memoryBackend }

func (r memoryCoaches) GetByUserID(_ context.Context, userID models.AccountID) (*models.CoachProfile, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	coach, ok := r.b.coaches[userID]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *coach
	return &copied, nil
}

type memoryMembers struct{ b *memoryBackend }

func (r memoryMembers) GetByUserID(_ context.Context, userID models.AccountID) (*models.MemberProfile, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	for _, member := range r.b.members {
		if member.UserID == userID {
			copied := *member
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r memoryMembers) GetByID(_ context.Context, id models.MemberProfileID) (*models.MemberProfile, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	member, ok := r.b.members[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *member
	return &copied, nil
}

type memoryAvailability struct{ b *memoryBackend }

func (r memoryAvailability) ListActiveForDay(_ context.Context, coachID models.AccountID, day int) ([]models.AvailabilityWindow, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	var out []models.AvailabilityWindow
	for _, window := range r.b.windows {
		if window.CoachID == coachID && window.DayOfWeek == day && window.IsActive {
			out = append(out, window)
		}
	}
	return out, nil
}

// bookings

type memoryBookings struct{ b *memoryBackend }

func (r memoryBookings) CountActiveForSlot(_ context.Context, key models.SlotKey) (int, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	return r.b.countSlotLocked(key), nil
}

func (r memoryBookings) GetByID(_ context.Context, id int64) (*models.Booking, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	booking, ok := r.b.bookings[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *booking
	return &copied, nil
}

func (r memoryBookings) List(_ context.Context, filter repository.BookingListFilter) ([]models.Booking, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	out := make([]models.Booking, 0)
	for _, booking := range r.b.bookings {
		if filter.CoachID != nil && booking.CoachID != *filter.CoachID {
			continue
		}
		if filter.MemberID != nil && booking.MemberID != *filter.MemberID {
			continue
		}
		if filter.Status != "" && string(booking.Status) != filter.Status {
			continue
		}
		out = append(out, *booking)
	}
	slices.SortFunc(out, func(a, b models.Booking) int { return int(a.ID - b.ID) })
	return out, nil
}

func (r memoryBookings) Cancel(_ context.Context, id int64) (*models.Booking, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	booking, ok := r.b.bookings[id]
	if !ok || booking.Status == models.BookingCancelled {
		return nil, pgx.ErrNoRows
	}
	booking.Status = models.BookingCancelled
	copied := *booking
	return &copied, nil
}

// sessions

type memorySessions struct{ b *memoryBackend }

func (b *memoryBackend) newSessionLocked(input repository.CreateSessionInput) *models.Session {
	return &models.Session{
		ID:              b.id(),
		CoachID:         input.CoachID,
		MemberID:        input.MemberID,
		CalendarEventID: input.CalendarEventID,
		Type:            input.Type,
		DurationMinutes: input.DurationMinutes,
		ScheduledAt:     input.ScheduledAt,
		Status:          models.SessionScheduled,
		MemberNotes:     input.MemberNotes,
	}
}

func (r memorySessions) Create(_ context.Context, input repository.CreateSessionInput) (*models.Session, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	session := r.b.newSessionLocked(input)
	r.b.sessions[session.ID] = session
	copied := *session
	return &copied, nil
}

func (r memorySessions) GetByID(_ context.Context, id int64) (*models.Session, error) {
	return r.mutate(id, func(*models.Session) bool { return true })
}

func (r memorySessions) List(_ context.Context, filter repository.SessionListFilter) ([]models.Session, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	out := make([]models.Session, 0)
	for _, session := range r.b.sessions {
		if filter.CoachID != nil && session.CoachID != *filter.CoachID {
			continue
		}
		if filter.MemberID != nil && session.MemberID != *filter.MemberID {
			continue
		}
		if filter.Status != "" && string(session.Status) != filter.Status {
			continue
		}
		out = append(out, *session)
	}
	slices.SortFunc(out, func(a, b models.Session) int { return a.ScheduledAt.Compare(b.ScheduledAt) })
	if filter.Limit > 0 && len(out) > filter.Limit {
		out = out[:filter.Limit]
	}
	return out, nil
}

// mutate applies fn under the lock when the row exists; fn returning false
// means the precondition failed, reported as pgx.ErrNoRows like the SQL.
func (r memorySessions) mutate(id int64, fn func(*models.Session) bool) (*models.Session, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	session, ok := r.b.sessions[id]
	if !ok || !fn(session) {
		return nil, pgx.ErrNoRows
	}
	copied := *session
	return &copied, nil
}

func (r memorySessions) UpdateScheduled(_ context.Context, id int64, input repository.UpdateSessionInput) (*models.Session, error) {
	return r.mutate(id, func(s *models.Session) bool {
		if s.Status != models.SessionScheduled {
			return false
		}
		if input.ScheduledAt != nil {
			s.ScheduledAt = input.ScheduledAt.UTC()
			s.RemindedAt = nil
		}
		if input.DurationMinutes != nil {
			s.DurationMinutes = *input.DurationMinutes
		}
		if input.MemberNotes != nil {
			s.MemberNotes = input.MemberNotes
		}
		return true
	})
}

func (r memorySessions) Complete(_ context.Context, id int64, coachNotes *string, outcomes *string) (*models.Session, error) {
	return r.mutate(id, func(s *models.Session) bool {
		if s.Status != models.SessionScheduled {
			return false
		}
		now := time.Now()
		s.Status = models.SessionCompleted
		s.CompletedAt = &now
		if coachNotes != nil {
			s.CoachNotes = coachNotes
		}
		if outcomes != nil {
			s.Outcomes = outcomes
		}
		return true
	})
}

func (r memorySessions) Cancel(_ context.Context, id int64, reason string) (*models.Session, error) {
	if hook := r.b.beforeSessionCancel; hook != nil {
		hook(id)
	}
	if r.b.sessionCancelErr != nil {
		return nil, r.b.sessionCancelErr
	}
	return r.mutate(id, func(s *models.Session) bool {
		if s.Status != models.SessionScheduled {
			return false
		}
		now := time.Now()
		s.Status = models.SessionCancelled
		s.CancelledAt = &now
		s.CancellationReason = &reason
		return true
	})
}

func (r memorySessions) SetCoachNotes(_ context.Context, id int64, notes string) (*models.Session, error) {
	return r.mutate(id, func(s *models.Session) bool {
		s.CoachNotes = &notes
		return true
	})
}

func (r memorySessions) SetMemberNotes(_ context.Context, id int64, notes string) (*models.Session, error) {
	return r.mutate(id, func(s *models.Session) bool {
		s.MemberNotes = &notes
		return true
	})
}

func (r memorySessions) Rate(_ context.Context, id int64, rating int, feedback *string) (*models.Session, error) {
	return r.mutate(id, func(s *models.Session) bool {
		if s.Status != models.SessionCompleted || s.Rating != nil {
			return false
		}
		s.Rating = &rating
		s.RatingFeedback = feedback
		return true
	})
}

func (r memorySessions) ListDueReminders(_ context.Context, from time.Time, until time.Time, limit int) ([]models.Session, error) {
	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	out := make([]models.Session, 0)
	for _, session := range r.b.sessions {
		if session.Status != models.SessionScheduled || session.RemindedAt != nil {
			continue
		}
		if session.ScheduledAt.Before(from) || !session.ScheduledAt.Before(until) {
			continue
		}
		out = append(out, *session)
	}
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r memorySessions) MarkReminded(_ context.Context, id int64) (bool, error) {
	_, err := r.mutate(id, func(s *models.Session) bool {
		if s.RemindedAt != nil || s.Status != models.SessionScheduled {
			return false
		}
		now := time.Now()
		s.RemindedAt = &now
		return true
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

// slot lock

type memorySlots struct{ b *memoryBackend }

type memorySlotTx struct {
	b        *memoryBackend
	sessions []*models.Session
	bookings []*models.Booking
}

func (r memorySlots) WithSlotLock(ctx context.Context, key models.SlotKey, fn func(tx repository.SlotTx) error) error {
	lock, _ := r.b.slotLocks.LoadOrStore(key.String(), &sync.Mutex{})
	lock.(*sync.Mutex).Lock()
	defer lock.(*sync.Mutex).Unlock()

	tx := &memorySlotTx{b: r.b}
	if err := fn(tx); err != nil {
		return err
	}

	r.b.mu.Lock()
	defer r.b.mu.Unlock()
	for _, session := range tx.sessions {
		r.b.sessions[session.ID] = session
	}
	for _, booking := range tx.bookings {
		r.b.bookings[booking.ID] = booking
	}
	return nil
}

func (t *memorySlotTx) CountActiveBookings(_ context.Context, key models.SlotKey) (int, error) {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	return t.b.countSlotLocked(key), nil
}

func (t *memorySlotTx) CreateSession(_ context.Context, input repository.CreateSessionInput) (*models.Session, error) {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	session := t.b.newSessionLocked(input)
	t.sessions = append(t.sessions, session)
	copied := *session
	return &copied, nil
}

func (t *memorySlotTx) CreateBooking(_ context.Context, input repository.CreateBookingInput) (*models.Booking, error) {
	t.b.mu.Lock()
	defer t.b.mu.Unlock()
	if t.b.bookingInsertErr != nil {
		return nil, t.b.bookingInsertErr
	}
	booking := &models.Booking{
		ID:              t.b.id(),
		CoachID:         input.CoachID,
		MemberID:        input.MemberID,
		RequestedDate:   input.RequestedDate,
		RequestedTime:   input.RequestedTime,
		DurationMinutes: input.DurationMinutes,
		Notes:           input.Notes,
		Status:          input.Status,
		SessionID:       input.SessionID,
	}
	t.bookings = append(t.bookings, booking)
	copied := *booking
	return &copied, nil
}

// collaborators

type memoryCalendar struct{ b *memoryBackend }

func (c memoryCalendar) CreateEvent(_ context.Context, event models.CalendarEvent) (uuid.UUID, error) {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	if c.b.calendarErr != nil {
		return uuid.Nil, c.b.calendarErr
	}
	event.ID = uuid.New()
	c.b.events[event.ID] = event
	return event.ID, nil
}

func (c memoryCalendar) UpdateEvent(_ context.Context, id uuid.UUID, patch models.CalendarEventPatch) error {
	c.b.mu.Lock()
	defer c.b.mu.Unlock()
	event, ok := c.b.events[id]
	if !ok {
		return ErrNotFound
	}
	if patch.StartAt != nil {
		event.StartAt = *patch.StartAt
	}
	if patch.EndAt != nil {
		event.EndAt = *patch.EndAt
	}
	if patch.Status != nil {
		event.Status = *patch.Status
	}
	c.b.events[id] = event
	return nil
}

type memoryNotifier struct{ b *memoryBackend }

func (n memoryNotifier) Notify(_ context.Context, input models.NotificationInput) error {
	n.b.mu.Lock()
	defer n.b.mu.Unlock()
	if n.b.notifyErr != nil {
		return n.b.notifyErr
	}
	n.b.notifications = append(n.b.notifications, input)
	return nil
}

type memoryMessenger struct{ b *memoryBackend }

func (m memoryMessenger) CreateConversation(_ context.Context, _ models.AccountID, input models.ConversationInput) error {
	m.b.mu.Lock()
	defer m.b.mu.Unlock()
	m.b.conversations = append(m.b.conversations, input)
	return nil
}

// fixture

var fixtureNow = time.Date(2024, 1, 10, 8, 0, 0, 0, time.UTC)

// 2024-01-15 is a Monday.
var fixtureMonday = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)

const (
	fixtureCoach       models.AccountID = 10
	fixtureOtherCoach  models.AccountID = 11
	fixtureMemberOne   models.AccountID = 20
	fixtureMemberTwo   models.AccountID = 21
	fixtureAdmin       models.AccountID = 1
	fixtureNoProfileID models.AccountID = 30
)

type fixture struct {
	backend   *memoryBackend
	identity  *IdentityService
	capacity  *CapacityService
	sessions  *SessionService
	bookings  *BookingService
	memberOne models.MemberProfileID
	memberTwo models.MemberProfileID
}

func newFixture(capacity int) *fixture {
	backend := newMemoryBackend()
	backend.addCoach(fixtureCoach, "Casey Coach")
	backend.addCoach(fixtureOtherCoach, "Other Coach")
	memberOne := backend.addMember(fixtureMemberOne, "Morgan One")
	memberTwo := backend.addMember(fixtureMemberTwo, "Mika Two")
	backend.addWindow(fixtureCoach, time.Monday, "14:00", "15:00", capacity)

	identity := NewIdentityService(memoryCoaches{backend}, memoryMembers{backend})
	capacityService := NewCapacityService(memoryAvailability{backend}, memoryBookings{backend})
	sessions := NewSessionService(
		memorySessions{backend},
		identity,
		capacityService,
		memoryCalendar{backend},
		memoryNotifier{backend},
		time.UTC,
	)
	sessions.now = func() time.Time { return fixtureNow }
	bookings := NewBookingService(
		memorySlots{backend},
		memoryBookings{backend},
		capacityService,
		sessions,
		identity,
		memoryNotifier{backend},
		memoryMessenger{backend},
		time.UTC,
	)
	bookings.now = func() time.Time { return fixtureNow }

	return &fixture{
		backend:   backend,
		identity:  identity,
		capacity:  capacityService,
		sessions:  sessions,
		bookings:  bookings,
		memberOne: memberOne,
		memberTwo: memberTwo,
	}
}

func (f *fixture) admin() models.Caller {
	return models.Caller{AccountID: fixtureAdmin, Role: models.RoleAdmin}
}

func (f *fixture) coach() models.Caller {
	return models.Caller{AccountID: fixtureCoach, Role: models.RoleCoach}
}

func (f *fixture) otherCoach() models.Caller {
	return models.Caller{AccountID: fixtureOtherCoach, Role: models.RoleCoach}
}

func (f *fixture) member(accountID models.AccountID) models.Caller {
	caller, err := f.identity.ResolveCaller(context.Background(), accountID, models.RoleMember)
	if err != nil {
		panic(err)
	}
	return caller
}

func (f *fixture) book(accountID models.AccountID, at string) (*models.BookingDetail, error) {
	return f.bookings.CreateBooking(context.Background(), f.member(accountID), CreateBookingInput{
		CoachID:         fixtureCoach,
		MemberAccountID: accountID,
		Date:            fixtureMonday,
		Time:            at,
		DurationMinutes: 60,
	})
}
