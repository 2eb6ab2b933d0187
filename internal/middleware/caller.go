package middleware

import (
	"context"
	"errors"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachBooking/internal/models"
)

// CallerLocalKey is the fiber local holding the resolved models.Caller.
const CallerLocalKey = "caller"

type callerResolver interface {
	ResolveCaller(ctx context.Context, accountID models.AccountID, role models.Role) (models.Caller, error)
}

// ResolveCaller turns the token locals into a models.Caller once per request.
// It must run after AuthRequired.
func ResolveCaller(resolver callerResolver) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userIDStr, _ := c.Locals("user_id").(string)
		accountID, err := strconv.ParseInt(userIDStr, 10, 64)
		if err != nil || accountID <= 0 {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "Invalid token"})
		}

		roleName, _ := c.Locals("role").(string)
		role, err := models.ParseRole(roleName)
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "Forbidden"})
		}

		caller, err := resolver.ResolveCaller(c.Context(), models.AccountID(accountID), role)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			log.Printf("resolve caller %d: %v", accountID, err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Internal server error"})
		}

		c.Locals(CallerLocalKey, caller)
		return c.Next()
	}
}

// CallerFrom returns the caller stored by ResolveCaller.
func CallerFrom(c *fiber.Ctx) (models.Caller, bool) {
	caller, ok := c.Locals(CallerLocalKey).(models.Caller)
	return caller, ok
}

// WithCaller stores caller directly; used by tests and internal routes.
func WithCaller(c *fiber.Ctx, caller models.Caller) {
	c.Locals(CallerLocalKey, caller)
}
