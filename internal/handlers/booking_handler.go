package handlers

import (
	"context"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachBooking/internal/models"
	"github.com/saeid-a/CoachBooking/internal/services"
)

type bookingApplicationService interface {
	CreateBooking(ctx context.Context, caller models.Caller, input services.CreateBookingInput) (*models.BookingDetail, error)
	CancelBooking(ctx context.Context, caller models.Caller, bookingID int64, reason *string) (*models.Booking, error)
	FindBooking(ctx context.Context, caller models.Caller, bookingID int64) (*models.BookingDetail, error)
	ListBookings(ctx context.Context, caller models.Caller, status string) ([]models.Booking, error)
	CheckSlotCapacity(ctx context.Context, coachID models.AccountID, date time.Time, requestedTime string) (int, error)
}

type BookingHandler struct {
	service bookingApplicationService
}

func NewBookingHandler(service bookingApplicationService) *BookingHandler {
	return &BookingHandler{service: service}
}

type createBookingRequest struct {
	CoachID         int64   `json:"coach_id" validate:"required,gt=0"`
	MemberID        int64   `json:"member_id" validate:"omitempty,gt=0"`
	Date            string  `json:"date" validate:"required,datetime=2006-01-02"`
	Time            string  `json:"time" validate:"required,clock"`
	DurationMinutes int     `json:"duration_minutes" validate:"required,gt=0,lte=480"`
	Notes           *string `json:"notes" validate:"omitempty,max=2000"`
	CreateGroupChat bool    `json:"create_group_chat"`
}

type cancelBookingRequest struct {
	Reason *string `json:"reason" validate:"omitempty,max=500"`
}

// CreateBooking books a slot. Members book for themselves; coaches and
// admins pass member_id, the member's account id.
func (h *BookingHandler) CreateBooking(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	var req createBookingRequest
	if ok, err := bindJSON(c, &req); !ok {
		return err
	}

	memberAccountID := models.AccountID(req.MemberID)
	if caller.Role == models.RoleMember {
		if req.MemberID != 0 && memberAccountID != caller.AccountID {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}
		memberAccountID = caller.AccountID
	}
	if memberAccountID <= 0 {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "member_id is required"})
	}

	date, err := time.Parse(time.DateOnly, req.Date)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be formatted as YYYY-MM-DD"})
	}

	detail, err := h.service.CreateBooking(c.Context(), caller, services.CreateBookingInput{
		CoachID:         models.AccountID(req.CoachID),
		MemberAccountID: memberAccountID,
		Date:            date,
		Time:            req.Time,
		DurationMinutes: req.DurationMinutes,
		Notes:           req.Notes,
		CreateGroupChat: req.CreateGroupChat,
	})
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"booking": detail})
}

func (h *BookingHandler) ListBookings(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	bookings, err := h.service.ListBookings(c.Context(), caller, strings.TrimSpace(c.Query("status")))
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"bookings": bookings})
}

func (h *BookingHandler) GetBooking(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	detail, err := h.service.FindBooking(c.Context(), caller, bookingID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"booking": detail})
}

func (h *BookingHandler) CancelBooking(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	bookingID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid booking id"})
	}

	var req cancelBookingRequest
	if len(c.Body()) > 0 {
		if ok, err := bindJSON(c, &req); !ok {
			return err
		}
	}

	booking, err := h.service.CancelBooking(c.Context(), caller, bookingID, req.Reason)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"booking": booking})
}

// SlotCapacity answers GET /coaches/:id/capacity?date=YYYY-MM-DD&time=HH:MM.
func (h *BookingHandler) SlotCapacity(c *fiber.Ctx) error {
	coachID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid coach id"})
	}

	date, err := time.Parse(time.DateOnly, strings.TrimSpace(c.Query("date")))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "date must be formatted as YYYY-MM-DD"})
	}
	requestedTime := strings.TrimSpace(c.Query("time"))
	if _, err := models.ParseClock(requestedTime); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "time must be formatted as HH:MM"})
	}

	remaining, err := h.service.CheckSlotCapacity(c.Context(), models.AccountID(coachID), date, requestedTime)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"coach_id":  coachID,
		"date":      date.Format(time.DateOnly),
		"time":      requestedTime,
		"remaining": max(remaining, 0),
		"available": remaining > 0,
	})
}
