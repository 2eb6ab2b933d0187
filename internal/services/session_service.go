package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachBooking/internal/models"
	"github.com/saeid-a/CoachBooking/internal/repository"
)

type sessionStore interface {
	Create(ctx context.Context, input repository.CreateSessionInput) (*models.Session, error)
	GetByID(ctx context.Context, sessionID int64) (*models.Session, error)
	List(ctx context.Context, filter repository.SessionListFilter) ([]models.Session, error)
	UpdateScheduled(ctx context.Context, sessionID int64, input repository.UpdateSessionInput) (*models.Session, error)
	Complete(ctx context.Context, sessionID int64, coachNotes *string, outcomes *string) (*models.Session, error)
	Cancel(ctx context.Context, sessionID int64, reason string) (*models.Session, error)
	SetCoachNotes(ctx context.Context, sessionID int64, notes string) (*models.Session, error)
	SetMemberNotes(ctx context.Context, sessionID int64, notes string) (*models.Session, error)
	Rate(ctx context.Context, sessionID int64, rating int, feedback *string) (*models.Session, error)
}

type windowFinder interface {
	FindWindow(ctx context.Context, coachID models.AccountID, date time.Time, at models.Clock) (*models.AvailabilityWindow, error)
}

type sessionInserter func(ctx context.Context, input repository.CreateSessionInput) (*models.Session, error)

type SessionService struct {
	sessions sessionStore
	identity *IdentityService
	windows  windowFinder
	effects  dispatcher
	loc      *time.Location
	now      func() time.Time
}

func NewSessionService(
	sessions sessionStore,
	identity *IdentityService,
	windows windowFinder,
	calendar Calendar,
	notifier Notifier,
	loc *time.Location,
) *SessionService {
	if loc == nil {
		loc = time.UTC
	}
	return &SessionService{
		sessions: sessions,
		identity: identity,
		windows:  windows,
		effects:  dispatcher{calendar: calendar, notifier: notifier},
		loc:      loc,
		now:      time.Now,
	}
}

const (
	DefaultSessionCancelReason = "Session cancelled"
	maxUpcomingSessions        = 50
)

type CreateSessionInput struct {
	CoachID         models.AccountID
	MemberID        models.MemberProfileID
	ScheduledAt     time.Time
	DurationMinutes int
	Type            string
	MemberNotes     *string
}

type UpdateSessionInput struct {
	ScheduledAt     *time.Time
	DurationMinutes *int
	MemberNotes     *string
}

type CompleteSessionInput struct {
	CoachNotes *string
	Outcomes   *string
}

type SessionQuery struct {
	Status    string
	Timeframe string
	Limit     int
}

// sessionDraft is everything createScheduled needs once both parties are known.
type sessionDraft struct {
	coach           *models.CoachProfile
	member          *models.MemberProfile
	scheduledAt     time.Time
	durationMinutes int
	sessionType     string
	memberNotes     *string
}

// CreateSession schedules a session directly, outside the booking flow.
// Only the coach it belongs to or an admin may do this.
func (s *SessionService) CreateSession(
	ctx context.Context,
	caller models.Caller,
	input CreateSessionInput,
) (*models.Session, error) {
	if input.CoachID <= 0 || input.MemberID <= 0 || input.DurationMinutes <= 0 || input.ScheduledAt.IsZero() {
		return nil, ErrInvalidInput
	}
	if !caller.IsAdmin() && !caller.IsCoach(input.CoachID) {
		return nil, ErrForbidden
	}
	if input.ScheduledAt.Before(s.now().Add(-1 * time.Minute)) {
		return nil, ErrInvalidInput
	}

	coach, err := s.identity.coach(ctx, input.CoachID)
	if err != nil {
		return nil, err
	}
	member, err := s.identity.memberByProfile(ctx, input.MemberID)
	if err != nil {
		return nil, err
	}

	local := input.ScheduledAt.In(s.loc)
	window, err := s.windows.FindWindow(ctx, input.CoachID, models.DateOnly(local), models.ClockOf(local))
	if err != nil {
		return nil, err
	}
	if window == nil {
		return nil, ErrInvalidSlot
	}

	session, err := s.createScheduled(ctx, s.sessions.Create, sessionDraft{
		coach:           coach,
		member:          member,
		scheduledAt:     input.ScheduledAt,
		durationMinutes: input.DurationMinutes,
		sessionType:     input.Type,
		memberNotes:     input.MemberNotes,
	})
	if err != nil {
		return nil, err
	}

	s.notifyScheduled(ctx, session, coach, member, true)
	return session, nil
}

// createScheduled creates the calendar event and then the session. A
// calendar failure aborts; an insert failure cancels the orphaned event.
func (s *SessionService) createScheduled(
	ctx context.Context,
	insert sessionInserter,
	draft sessionDraft,
) (*models.Session, error) {
	eventID, err := s.openCalendarEvent(ctx, draft)
	if err != nil {
		return nil, err
	}

	session, err := s.insertScheduled(ctx, insert, draft, eventID)
	if err != nil {
		s.effects.cancelCalendarEvent(ctx, eventID)
		return nil, err
	}
	return session, nil
}

func (s *SessionService) openCalendarEvent(ctx context.Context, draft sessionDraft) (uuid.UUID, error) {
	start := draft.scheduledAt.UTC()
	end := start.Add(time.Duration(draft.durationMinutes) * time.Minute)

	eventID, err := s.effects.calendar.CreateEvent(ctx, models.CalendarEvent{
		OwnerID: draft.coach.UserID,
		Title: fmt.Sprintf(
			"%s session: %s with %s",
			draft.typeOrDefault(),
			models.CoachParty(draft.coach).DisplayName("Coach"),
			models.MemberParty(draft.member).DisplayName("Member"),
		),
		Description: draft.memberNotes,
		StartAt:     start,
		EndAt:       end,
		AttendeeIDs: []models.AccountID{draft.coach.UserID, draft.member.UserID},
		Visibility:  "private",
		Status:      models.CalendarEventConfirmed,
	})
	if err != nil {
		return uuid.Nil, &CollaboratorError{Collaborator: "calendar", Err: err}
	}
	return eventID, nil
}

// insertScheduled writes the session row through insert, which may be bound
// to an open transaction.
func (s *SessionService) insertScheduled(
	ctx context.Context,
	insert sessionInserter,
	draft sessionDraft,
	eventID uuid.UUID,
) (*models.Session, error) {
	return insert(ctx, repository.CreateSessionInput{
		CoachID:         draft.coach.UserID,
		MemberID:        draft.member.ID,
		CalendarEventID: eventID,
		Type:            draft.typeOrDefault(),
		ScheduledAt:     draft.scheduledAt.UTC(),
		DurationMinutes: draft.durationMinutes,
		MemberNotes:     draft.memberNotes,
	})
}

func (d sessionDraft) typeOrDefault() string {
	if sessionType := strings.TrimSpace(d.sessionType); sessionType != "" {
		return sessionType
	}
	return models.DefaultSessionType
}

func (s *SessionService) notifyScheduled(
	ctx context.Context,
	session *models.Session,
	coach *models.CoachProfile,
	member *models.MemberProfile,
	includeMember bool,
) {
	when := session.ScheduledAt.In(s.loc).Format("Mon Jan 2 at 15:04")
	actionURL := stringPtr(fmt.Sprintf("/sessions/%d", session.ID))

	s.effects.notify(ctx, models.NotificationInput{
		UserID:      coach.UserID,
		Title:       "New session scheduled",
		Message:     fmt.Sprintf("%s booked a session on %s.", memberName(member), when),
		Category:    models.NotificationSession,
		ActionURL:   actionURL,
		ActionLabel: stringPtr("View session"),
	})
	if includeMember {
		s.effects.notify(ctx, models.NotificationInput{
			UserID:      member.UserID,
			Title:       "Session scheduled",
			Message:     fmt.Sprintf("Your session with %s is on %s.", coachName(coach), when),
			Category:    models.NotificationSession,
			ActionURL:   actionURL,
			ActionLabel: stringPtr("View session"),
		})
	}
}

func (s *SessionService) FindSession(ctx context.Context, caller models.Caller, sessionID int64) (*models.Session, error) {
	return s.loadFor(ctx, caller, sessionID, canViewSession)
}

// loadFor fetches a session and applies allowed. A member without a profile
// cannot own anything, so for them every session reads as missing.
func (s *SessionService) loadFor(
	ctx context.Context,
	caller models.Caller,
	sessionID int64,
	allowed func(models.Caller, *models.Session) bool,
) (*models.Session, error) {
	if sessionID <= 0 {
		return nil, ErrInvalidInput
	}
	if caller.Role == models.RoleMember && !caller.HasMemberProfile() {
		return nil, ErrSessionNotFound
	}

	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	if !allowed(caller, session) {
		return nil, ErrForbidden
	}
	return session, nil
}

func (s *SessionService) ListSessions(ctx context.Context, caller models.Caller, query SessionQuery) ([]models.Session, error) {
	owner, ok := ownershipScope(caller)
	if !ok {
		return []models.Session{}, nil
	}
	return s.list(ctx, owner, query)
}

func (s *SessionService) ListUpcomingSessions(ctx context.Context, caller models.Caller, limit int) ([]models.Session, error) {
	if limit <= 0 || limit > maxUpcomingSessions {
		limit = maxUpcomingSessions
	}
	return s.ListSessions(ctx, caller, SessionQuery{
		Status:    string(models.SessionScheduled),
		Timeframe: "upcoming",
		Limit:     limit,
	})
}

// ListSessionsByMember lists one member's sessions. A coach only sees the
// ones they run; a member only their own.
func (s *SessionService) ListSessionsByMember(
	ctx context.Context,
	caller models.Caller,
	memberID models.MemberProfileID,
	query SessionQuery,
) ([]models.Session, error) {
	if memberID <= 0 {
		return nil, ErrInvalidInput
	}
	owner, ok := ownershipScope(caller)
	if !ok {
		return []models.Session{}, nil
	}
	if owner.MemberID != nil && *owner.MemberID != memberID {
		return nil, ErrForbidden
	}
	owner.MemberID = &memberID
	return s.list(ctx, owner, query)
}

func (s *SessionService) ListSessionsByCoach(
	ctx context.Context,
	caller models.Caller,
	coachID models.AccountID,
	query SessionQuery,
) ([]models.Session, error) {
	if coachID <= 0 {
		return nil, ErrInvalidInput
	}
	owner, ok := ownershipScope(caller)
	if !ok {
		return []models.Session{}, nil
	}
	if owner.CoachID != nil && *owner.CoachID != coachID {
		return nil, ErrForbidden
	}
	owner.CoachID = &coachID
	return s.list(ctx, owner, query)
}

func (s *SessionService) list(ctx context.Context, owner scope, query SessionQuery) ([]models.Session, error) {
	status := strings.TrimSpace(query.Status)
	if status != "" && !validSessionStatus(models.SessionStatus(status)) {
		return nil, ErrInvalidInput
	}
	timeframe := strings.TrimSpace(query.Timeframe)
	if timeframe != "" && timeframe != "upcoming" && timeframe != "past" {
		return nil, ErrInvalidInput
	}

	return s.sessions.List(ctx, repository.SessionListFilter{
		CoachID:   owner.CoachID,
		MemberID:  owner.MemberID,
		Status:    status,
		Timeframe: timeframe,
		Limit:     query.Limit,
	})
}

func validSessionStatus(status models.SessionStatus) bool {
	switch status {
	case models.SessionScheduled, models.SessionCompleted, models.SessionCancelled:
		return true
	default:
		return false
	}
}

// UpdateSession reschedules or edits a scheduled session. Capacity is not
// rechecked; the coach owns their own calendar. The linked booking keeps its
// requested date and time, so slot capacity keeps counting the originally
// booked slot and the new time consumes none.
func (s *SessionService) UpdateSession(
	ctx context.Context,
	caller models.Caller,
	sessionID int64,
	input UpdateSessionInput,
) (*models.Session, error) {
	if input.ScheduledAt == nil && input.DurationMinutes == nil && input.MemberNotes == nil {
		return nil, ErrInvalidInput
	}
	if input.DurationMinutes != nil && *input.DurationMinutes <= 0 {
		return nil, ErrInvalidInput
	}
	if input.ScheduledAt != nil && input.ScheduledAt.IsZero() {
		return nil, ErrInvalidInput
	}

	session, err := s.loadFor(ctx, caller, sessionID, canManageSession)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionScheduled {
		return nil, ErrInvalidStateTransition
	}

	updated, err := s.sessions.UpdateScheduled(ctx, sessionID, repository.UpdateSessionInput{
		ScheduledAt:     input.ScheduledAt,
		DurationMinutes: input.DurationMinutes,
		MemberNotes:     input.MemberNotes,
	})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	start := updated.ScheduledAt
	end := updated.EndsAt()
	s.effects.updateCalendar(ctx, updated.CalendarEventID, models.CalendarEventPatch{
		StartAt:     &start,
		EndAt:       &end,
		Description: input.MemberNotes,
	})

	return updated, nil
}

func (s *SessionService) CompleteSession(
	ctx context.Context,
	caller models.Caller,
	sessionID int64,
	input CompleteSessionInput,
) (*models.Session, error) {
	session, err := s.loadFor(ctx, caller, sessionID, canManageSession)
	if err != nil {
		return nil, err
	}
	if !session.Status.CanTransition(models.SessionCompleted) {
		return nil, ErrInvalidStateTransition
	}

	completed, err := s.sessions.Complete(ctx, sessionID, trimmedOrNil(input.CoachNotes), trimmedOrNil(input.Outcomes))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	coach, member := s.parties(ctx, completed)
	if member != nil {
		s.effects.notify(ctx, models.NotificationInput{
			UserID:      member.UserID,
			Title:       "Session completed",
			Message:     fmt.Sprintf("How was your session with %s? Leave a rating.", coachName(coach)),
			Category:    models.NotificationRating,
			ActionURL:   stringPtr(fmt.Sprintf("/sessions/%d/rating", completed.ID)),
			ActionLabel: stringPtr("Rate session"),
		})
	}
	s.effects.notify(ctx, models.NotificationInput{
		UserID:   completed.CoachID,
		Title:    "Session marked complete",
		Message:  fmt.Sprintf("Session #%d was marked complete.", completed.ID),
		Category: models.NotificationSession,
		Priority: models.PriorityLow,
	})

	return completed, nil
}

// CancelSession moves a scheduled session to cancelled. An empty reason
// becomes DefaultSessionCancelReason.
func (s *SessionService) CancelSession(
	ctx context.Context,
	caller models.Caller,
	sessionID int64,
	reason string,
) (*models.Session, error) {
	session, err := s.loadFor(ctx, caller, sessionID, canCancelSession)
	if err != nil {
		return nil, err
	}
	if !session.Status.CanTransition(models.SessionCancelled) {
		return nil, ErrInvalidStateTransition
	}

	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = DefaultSessionCancelReason
	}

	cancelled, err := s.sessions.Cancel(ctx, sessionID, reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrInvalidStateTransition
		}
		return nil, err
	}

	s.effects.cancelCalendarEvent(ctx, cancelled.CalendarEventID)

	when := cancelled.ScheduledAt.In(s.loc).Format("Mon Jan 2 at 15:04")
	message := fmt.Sprintf("The session on %s was cancelled: %s", when, reason)
	s.effects.notify(ctx, models.NotificationInput{
		UserID:   cancelled.CoachID,
		Title:    "Session cancelled",
		Message:  message,
		Category: models.NotificationSession,
		Priority: models.PriorityHigh,
	})
	if _, member := s.parties(ctx, cancelled); member != nil {
		s.effects.notify(ctx, models.NotificationInput{
			UserID:   member.UserID,
			Title:    "Session cancelled",
			Message:  message,
			Category: models.NotificationSession,
			Priority: models.PriorityHigh,
		})
	}

	return cancelled, nil
}

func (s *SessionService) AddCoachNotes(
	ctx context.Context,
	caller models.Caller,
	sessionID int64,
	notes string,
) (*models.Session, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.loadFor(ctx, caller, sessionID, canManageSession); err != nil {
		return nil, err
	}

	session, err := s.sessions.SetCoachNotes(ctx, sessionID, notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

func (s *SessionService) AddMemberNotes(
	ctx context.Context,
	caller models.Caller,
	sessionID int64,
	notes string,
) (*models.Session, error) {
	notes = strings.TrimSpace(notes)
	if notes == "" {
		return nil, ErrInvalidInput
	}
	if _, err := s.loadFor(ctx, caller, sessionID, canActAsMember); err != nil {
		return nil, err
	}

	session, err := s.sessions.SetMemberNotes(ctx, sessionID, notes)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// RateSession records the member's 1-5 rating of a completed session. A
// session is rated at most once.
func (s *SessionService) RateSession(
	ctx context.Context,
	caller models.Caller,
	sessionID int64,
	rating int,
	feedback *string,
) (*models.Session, error) {
	if rating < 1 || rating > 5 {
		return nil, ErrInvalidInput
	}

	session, err := s.loadFor(ctx, caller, sessionID, canActAsMember)
	if err != nil {
		return nil, err
	}
	if session.Status != models.SessionCompleted {
		return nil, ErrInvalidStateTransition
	}
	if session.Rating != nil {
		return nil, ErrAlreadyRated
	}

	rated, err := s.sessions.Rate(ctx, sessionID, rating, trimmedOrNil(feedback))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAlreadyRated
		}
		return nil, err
	}

	_, member := s.parties(ctx, rated)
	s.effects.notify(ctx, models.NotificationInput{
		UserID:   rated.CoachID,
		Title:    "New session rating",
		Message:  fmt.Sprintf("%s rated your session %d/5.", memberName(member), rating),
		Category: models.NotificationRating,
	})

	return rated, nil
}

// parties loads both profiles for notification text. Lookup failures are
// logged and leave the corresponding profile nil.
func (s *SessionService) parties(ctx context.Context, session *models.Session) (*models.CoachProfile, *models.MemberProfile) {
	coach, err := s.identity.coach(ctx, session.CoachID)
	if err != nil {
		log.Printf("session %d: load coach %d: %v", session.ID, session.CoachID, err)
		coach = nil
	}
	member, err := s.identity.memberByProfile(ctx, session.MemberID)
	if err != nil {
		log.Printf("session %d: load member %d: %v", session.ID, session.MemberID, err)
		member = nil
	}
	return coach, member
}

func coachName(coach *models.CoachProfile) string {
	if coach == nil {
		return "your coach"
	}
	return models.CoachParty(coach).DisplayName("your coach")
}

func memberName(member *models.MemberProfile) string {
	if member == nil {
		return "A member"
	}
	return models.MemberParty(member).DisplayName("A member")
}

func trimmedOrNil(value *string) *string {
	if value == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
