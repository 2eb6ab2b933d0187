package handlers

import (
	"context"
	"strconv"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/saeid-a/CoachBooking/internal/middleware"
	"github.com/saeid-a/CoachBooking/internal/models"
	"github.com/saeid-a/CoachBooking/internal/services"
	notifyws "github.com/saeid-a/CoachBooking/internal/websocket"
)

type notificationApplicationService interface {
	ListNotifications(ctx context.Context, caller models.Caller, unreadOnly bool, page int, limit int) (*services.NotificationPage, error)
	MarkRead(ctx context.Context, caller models.Caller, notificationID int64) (*models.Notification, error)
}

type NotificationHandler struct {
	service notificationApplicationService
	hub     *notifyws.Hub
}

func NewNotificationHandler(service notificationApplicationService, hub *notifyws.Hub) *NotificationHandler {
	return &NotificationHandler{service: service, hub: hub}
}

func (h *NotificationHandler) ListNotifications(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	page := parsePositiveInt(c.Query("page"), 1)
	limit := min(parsePositiveInt(c.Query("limit"), defaultPageLimit), maxPageLimit)
	unreadOnly, _ := strconv.ParseBool(c.Query("unread"))

	result, err := h.service.ListNotifications(c.Context(), caller, unreadOnly, page, limit)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{
		"notifications": result.Notifications,
		"pagination":    buildPaginationMeta(result.Page, result.Limit, result.Total),
	})
}

func (h *NotificationHandler) MarkRead(c *fiber.Ctx) error {
	caller, ok := callerOf(c)
	if !ok {
		return unauthorized(c)
	}

	notificationID, ok := parseIDParam(c, "id")
	if !ok {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "Invalid notification id"})
	}

	notification, err := h.service.MarkRead(c.Context(), caller, notificationID)
	if err != nil {
		return mapServiceError(c, err)
	}

	return c.JSON(fiber.Map{"notification": notification})
}

// RequireUpgrade rejects plain HTTP requests to the notification socket.
func (h *NotificationHandler) RequireUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	if _, ok := callerOf(c); !ok {
		return unauthorized(c)
	}
	return c.Next()
}

// Stream keeps one socket per browser tab. Stored notifications for the
// caller are pushed as they are created; clients acknowledge them over the
// same socket.
func (h *NotificationHandler) Stream() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		caller, ok := conn.Locals(middleware.CallerLocalKey).(models.Caller)
		if !ok {
			return
		}

		client := notifyws.NewClient(h.hub, conn, caller)
		h.hub.Register(client)
		go client.WritePump()
		client.ReadPump(h.service)
	})
}
