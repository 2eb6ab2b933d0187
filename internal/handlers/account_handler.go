package handlers

import (
	"context"
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/saeid-a/CoachBooking/internal/models"
)

type accountReader interface {
	GetByID(ctx context.Context, id models.AccountID) (*models.User, error)
}

type AccountHandler struct {
	users accountReader
}

func NewAccountHandler(users accountReader) *AccountHandler {
	return &AccountHandler{users: users}
}

// Me reports the account behind the token together with the resolved member
// profile id, which is what member-scoped routes expect.
func (h *AccountHandler) Me(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	user, err := h.users.GetByID(c.Context(), caller.AccountID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "User not found"})
		}
		log.Printf("load account %d: %v", caller.AccountID, err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
	}

	response := fiber.Map{
		"user": user,
		"role": caller.Role.String(),
	}
	if caller.HasMemberProfile() {
		response["member_profile_id"] = caller.MemberProfileID
	}
	return c.JSON(response)
}
