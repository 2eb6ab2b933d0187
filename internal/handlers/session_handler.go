package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachBooking/internal/models"
	"github.com/saeid-a/CoachBooking/internal/services"
)

type SessionHandler struct {
	service sessionApplicationService
}

type sessionApplicationService interface {
	CreateSession(ctx context.Context, caller models.Caller, input services.CreateSessionInput) (*models.Session, error)
	FindSession(ctx context.Context, caller models.Caller, sessionID int64) (*models.Session, error)
	ListSessions(ctx context.Context, caller models.Caller, query services.SessionQuery) ([]models.Session, error)
	ListUpcomingSessions(ctx context.Context, caller models.Caller, limit int) ([]models.Session, error)
	ListSessionsByMember(ctx context.Context, caller models.Caller, memberID models.MemberProfileID, query services.SessionQuery) ([]models.Session, error)
	ListSessionsByCoach(ctx context.Context, caller models.Caller, coachID models.AccountID, query services.SessionQuery) ([]models.Session, error)
	UpdateSession(ctx context.Context, caller models.Caller, sessionID int64, input services.UpdateSessionInput) (*models.Session, error)
	CompleteSession(ctx context.Context, caller models.Caller, sessionID int64, input services.CompleteSessionInput) (*models.Session, error)
	CancelSession(ctx context.Context, caller models.Caller, sessionID int64, reason string) (*models.Session, error)
	AddCoachNotes(ctx context.Context, caller models.Caller, sessionID int64, notes string) (*models.Session, error)
	AddMemberNotes(ctx context.Context, caller models.Caller, sessionID int64, notes string) (*models.Session, error)
	RateSession(ctx context.Context, caller models.Caller, sessionID int64, rating int, feedback *string) (*models.Session, error)
}

func NewSessionHandler(service sessionApplicationService) *SessionHandler {
	return &SessionHandler{service: service}
}

type createSessionRequest struct {
	CoachID         int64   `json:"coach_id" validate:"required,gt=0"`
	MemberID        int64   `json:"member_id" validate:"required,gt=0"`
	ScheduledAt     string  `json:"scheduled_at" validate:"required,datetime=2006-01-02T15:04:05Z07:00"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0,lte=480"`
	Type            string  `json:"type" validate:"omitempty,max=50"`
	MemberNotes     *string `json:"member_notes" validate:"omitempty,max=2000"`
}

type updateSessionRequest struct {
	ScheduledAt     *string `json:"scheduled_at" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	DurationMinutes *int    `json:"duration_minutes" validate:"omitempty,gt=0,lte=480"`
	MemberNotes     *string `json:"member_notes" validate:"omitempty,max=2000"`
}

type completeSessionRequest struct {
	CoachNotes *string `json:"coach_notes" validate:"omitempty,max=5000"`
	Outcomes   *string `json:"outcomes" validate:"omitempty,max=5000"`
}

type cancelSessionRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

type sessionNotesRequest struct {
	Notes string `json:"notes" validate:"required,max=5000"`
}

type rateSessionRequest struct {
	Rating   int     `json:"rating" validate:"required,min=1,max=5"`
	Feedback *string `json:"feedback" validate:"omitempty,max=2000"`
}

func (h *SessionHandler) CreateSession(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	var req createSessionRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	scheduledAt, err := time.Parse(time.RFC3339, strings.TrimSpace(req.ScheduledAt))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_at must be RFC3339"})
	}

	session, err := h.service.CreateSession(c.Context(), caller, services.CreateSessionInput{
		CoachID:         models.AccountID(req.CoachID),
		MemberID:        models.MemberProfileID(req.MemberID),
		ScheduledAt:     scheduledAt,
		DurationMinutes: req.DurationMinutes,
		Type:            strings.TrimSpace(req.Type),
		MemberNotes:     req.MemberNotes,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) ListSessions(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	sessions, err := h.service.ListSessions(c.Context(), caller, sessionQueryFrom(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) ListUpcomingSessions(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	sessions, err := h.service.ListUpcomingSessions(c.Context(), caller, parsePositiveInt(c.Query("limit"), 0))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

// ListMemberSessions serves /members/:id/sessions; :id is the member profile id.
func (h *SessionHandler) ListMemberSessions(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	memberID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid member id"})
	}

	sessions, err := h.service.ListSessionsByMember(c.Context(), caller, models.MemberProfileID(memberID), sessionQueryFrom(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) ListCoachSessions(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	coachID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	sessions, err := h.service.ListSessionsByCoach(c.Context(), caller, models.AccountID(coachID), sessionQueryFrom(c))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"sessions": sessions})
}

func (h *SessionHandler) GetSession(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidSessionID(c)
	}

	session, err := h.service.FindSession(c.Context(), caller, sessionID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) UpdateSession(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidSessionID(c)
	}

	var req updateSessionRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	input := services.UpdateSessionInput{
		DurationMinutes: req.DurationMinutes,
		MemberNotes:     req.MemberNotes,
	}
	if req.ScheduledAt != nil {
		scheduledAt, err := time.Parse(time.RFC3339, strings.TrimSpace(*req.ScheduledAt))
		if err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "scheduled_at must be RFC3339"})
		}
		input.ScheduledAt = &scheduledAt
	}

	session, err := h.service.UpdateSession(c.Context(), caller, sessionID, input)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) CompleteSession(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidSessionID(c)
	}

	var req completeSessionRequest
	if len(c.Body()) > 0 {
		if ok, err := bindJSON(c, &req); !ok {
			return err
		}
	}

	session, err := h.service.CompleteSession(c.Context(), caller, sessionID, services.CompleteSessionInput{
		CoachNotes: req.CoachNotes,
		Outcomes:   req.Outcomes,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) CancelSession(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidSessionID(c)
	}

	var req cancelSessionRequest
	if len(c.Body()) > 0 {
		if ok, err := bindJSON(c, &req); !ok {
			return err
		}
	}

	session, err := h.service.CancelSession(c.Context(), caller, sessionID, strings.TrimSpace(req.Reason))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) AddCoachNotes(c *fiber.Ctx) error {
	return h.addNotes(c, h.service.AddCoachNotes)
}

func (h *SessionHandler) AddMemberNotes(c *fiber.Ctx) error {
	return h.addNotes(c, h.service.AddMemberNotes)
}

func (h *SessionHandler) addNotes(
	c *fiber.Ctx,
	add func(ctx context.Context, caller models.Caller, sessionID int64, notes string) (*models.Session, error),
) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidSessionID(c)
	}

	var req sessionNotesRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	session, err := add(c.Context(), caller, sessionID, req.Notes)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func (h *SessionHandler) RateSession(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	sessionID, ok := parseIDParam(c, "id")
	if !ok {
		return invalidSessionID(c)
	}

	var req rateSessionRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	session, err := h.service.RateSession(c.Context(), caller, sessionID, req.Rating, req.Feedback)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"session": session})
}

func sessionQueryFrom(c *fiber.Ctx) services.SessionQuery {
	return services.SessionQuery{
		Status:    strings.TrimSpace(c.Query("status")),
		Timeframe: strings.TrimSpace(c.Query("timeframe")),
		Limit:     min(parsePositiveInt(c.Query("limit"), defaultPageLimit), maxPageLimit),
	}
}

func invalidSessionID(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid session id"})
}
