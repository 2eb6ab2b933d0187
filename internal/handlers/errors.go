package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachBooking/internal/services"
)

func mapServiceError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid request"})
	case errors.Is(err, services.ErrInvalidSlot):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Requested time is outside the coach's availability"})
	case errors.Is(err, services.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
	case errors.Is(err, services.ErrCoachNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Coach not found"})
	case errors.Is(err, services.ErrMemberNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Member not found"})
	case errors.Is(err, services.ErrBookingNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Booking not found"})
	case errors.Is(err, services.ErrSessionNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Session not found"})
	case errors.Is(err, services.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "Not found"})
	case errors.Is(err, services.ErrSlotFull):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Slot is fully booked"})
	case errors.Is(err, services.ErrSlotBusy):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"error": "Slot is busy, try again"})
	case errors.Is(err, services.ErrAlreadyRated):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Session already rated"})
	case errors.Is(err, services.ErrInvalidStateTransition):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"error": "Invalid state transition"})
	case errors.Is(err, services.ErrCollaboratorFailure):
		log.Printf("collaborator failure: %v", err)
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{"error": "Upstream service unavailable"})
	default:
		log.Printf("request %s %s failed: %v", c.Method(), c.Path(), err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}
}
