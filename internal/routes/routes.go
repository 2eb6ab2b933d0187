package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/saeid-a/CoachBooking/internal/config"
	"github.com/saeid-a/CoachBooking/internal/handlers"
	"github.com/saeid-a/CoachBooking/internal/middleware"
	"github.com/saeid-a/CoachBooking/internal/repository"
	"github.com/saeid-a/CoachBooking/internal/services"
	notifyws "github.com/saeid-a/CoachBooking/internal/websocket"
)

// Runtime exposes the long-lived pieces main has to start and stop.
type Runtime struct {
	Hub           *notifyws.Hub
	Notifications *services.NotificationService
	Reminders     *services.ReminderService
}

func RegisterRoutes(app *fiber.App, cfg *config.Config, db *pgxpool.Pool, loc *time.Location) *Runtime {
	userRepo := repository.NewUserRepository(db)
	coachProfileRepo := repository.NewCoachProfileRepository(db)
	memberProfileRepo := repository.NewMemberProfileRepository(db)
	availabilityRepo := repository.NewAvailabilityRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	calendarRepo := repository.NewCalendarEventRepository(db)
	notificationRepo := repository.NewNotificationRepository(db)
	conversationRepo := repository.NewConversationRepository(db)
	slotStore := repository.NewSlotStore(db, cfg.BookingLockTimeout)

	hub := notifyws.NewHub()
	go hub.Run()

	identityService := services.NewIdentityService(coachProfileRepo, memberProfileRepo)
	capacityService := services.NewCapacityService(availabilityRepo, bookingRepo)
	calendarService := services.NewCalendarService(calendarRepo)
	notificationService := services.NewNotificationService(notificationRepo, hub)
	chatService := services.NewChatService(db, conversationRepo)
	sessionService := services.NewSessionService(
		sessionRepo,
		identityService,
		capacityService,
		calendarService,
		notificationService,
		loc,
	)
	bookingService := services.NewBookingService(
		slotStore,
		bookingRepo,
		capacityService,
		sessionService,
		identityService,
		notificationService,
		chatService,
		loc,
	)
	reminderService := services.NewReminderService(
		sessionRepo,
		identityService,
		notificationService,
		cfg.ReminderLead,
		loc,
	)

	accountHandler := handlers.NewAccountHandler(userRepo)
	bookingHandler := handlers.NewBookingHandler(bookingService)
	sessionHandler := handlers.NewSessionHandler(sessionService)
	notificationHandler := handlers.NewNotificationHandler(notificationService, hub)
	conversationHandler := handlers.NewConversationHandler(chatService)

	app.Use(middleware.RequestID())

	api := app.Group("/api")
	authProtected := api.Group("/v1",
		middleware.AuthRequired(cfg.JWTSecret),
		middleware.ResolveCaller(identityService),
	)

	authProtected.Get("/me", accountHandler.Me)

	bookings := authProtected.Group("/bookings")
	bookings.Post("", middleware.BookingRateLimit(cfg.RateLimitPerMinute), bookingHandler.CreateBooking)
	bookings.Get("", bookingHandler.ListBookings)
	bookings.Get("/:id", bookingHandler.GetBooking)
	bookings.Post("/:id/cancel", bookingHandler.CancelBooking)

	coaches := authProtected.Group("/coaches")
	coaches.Get("/:id/capacity", bookingHandler.SlotCapacity)
	coaches.Get("/:id/sessions", sessionHandler.ListCoachSessions)

	members := authProtected.Group("/members")
	members.Get("/:id/sessions", sessionHandler.ListMemberSessions)

	sessions := authProtected.Group("/sessions")
	sessions.Post("", sessionHandler.CreateSession)
	sessions.Get("", sessionHandler.ListSessions)
	sessions.Get("/upcoming", sessionHandler.ListUpcomingSessions)
	sessions.Get("/:id", sessionHandler.GetSession)
	sessions.Patch("/:id", sessionHandler.UpdateSession)
	sessions.Post("/:id/complete", sessionHandler.CompleteSession)
	sessions.Post("/:id/cancel", sessionHandler.CancelSession)
	sessions.Post("/:id/coach-notes", sessionHandler.AddCoachNotes)
	sessions.Post("/:id/member-notes", sessionHandler.AddMemberNotes)
	sessions.Post("/:id/rating", sessionHandler.RateSession)

	notifications := authProtected.Group("/notifications")
	notifications.Get("", notificationHandler.ListNotifications)
	notifications.Post("/:id/read", notificationHandler.MarkRead)

	conversations := authProtected.Group("/conversations")
	conversations.Get("", conversationHandler.ListConversations)
	conversations.Post("", conversationHandler.StartConversation)

	authProtected.Get("/ws", notificationHandler.RequireUpgrade, notificationHandler.Stream())

	return &Runtime{
		Hub:           hub,
		Notifications: notificationService,
		Reminders:     reminderService,
	}
}
