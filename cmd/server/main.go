package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/saeid-a/CoachBooking/internal/bot"
	"github.com/saeid-a/CoachBooking/internal/config"
	"github.com/saeid-a/CoachBooking/internal/database"
	"github.com/saeid-a/CoachBooking/internal/repository"
	"github.com/saeid-a/CoachBooking/internal/routes"
	"github.com/saeid-a/CoachBooking/internal/services"
)

func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	loc, err := cfg.Location()
	if err != nil {
		log.Fatalf("Failed to load booking timezone: %v", err)
	}

	// 2. Connect to Database
	if cfg.DBUrl == "" {
		log.Fatal("DB_URL is required")
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := database.ConnectDB(ctx, cfg.DBUrl); err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer database.CloseDB()

	// 3. Setup Fiber
	app := fiber.New()

	// Middleware
	app.Use(cors.New())
	app.Use(logger.New())
	app.Use(recover.New())

	// Routes
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status": "ok",
		})
	})
	runtime := routes.RegisterRoutes(app, cfg, database.DB, loc)
	defer runtime.Hub.Stop()

	// 4. Background workers
	var telegram *bot.Bot
	if cfg.TelegramBotToken != "" {
		links := repository.NewTelegramLinkRepository(database.DB)
		telegram, err = bot.New(cfg.TelegramBotToken, links, cfg.JWTSecret)
		if err != nil {
			log.Printf("Telegram disabled: %v", err)
		} else {
			runtime.Notifications.AddPusher(services.NewTelegramPusher(telegram.Telegram(), links))
			go telegram.Start()
		}
	}

	if cfg.ReminderEnabled() {
		if err := runtime.Reminders.Start(cfg.ReminderCron); err != nil {
			log.Fatalf("Failed to start reminders: %v", err)
		}
	}

	// 5. Start Server
	go func() {
		log.Printf("Server starting on port %s", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Printf("Server stopped: %v", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	if cfg.ReminderEnabled() {
		runtime.Reminders.Stop(shutdownCtx)
	}
	if telegram != nil {
		telegram.Stop()
	}
}
