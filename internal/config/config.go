package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port               string
	DBUrl              string
	JWTSecret          string
	AppEnv             string
	BookingTimezone    string
	BookingLockTimeout time.Duration
	ReminderCron       string
	ReminderLead       time.Duration
	TelegramBotToken   string
	RateLimitPerMinute int
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	cfg := &Config{
		Port:               getEnv("PORT", "8080"),
		DBUrl:              getEnv("DB_URL", ""),
		JWTSecret:          jwtSecret,
		AppEnv:             normalizeEnv(getEnv("APP_ENV", "production")),
		BookingTimezone:    getEnv("BOOKING_TIMEZONE", "UTC"),
		BookingLockTimeout: getEnvDuration("BOOKING_LOCK_TIMEOUT", 5*time.Second),
		ReminderCron:       getEnv("REMINDER_CRON", "*/5 * * * *"),
		ReminderLead:       getEnvDuration("REMINDER_LEAD", time.Hour),
		TelegramBotToken:   getEnv("TELEGRAM_BOT_TOKEN", ""),
		RateLimitPerMinute: getEnvInt("RATE_LIMIT_PER_MINUTE", 30),
	}

	if _, err := cfg.Location(); err != nil {
		return nil, fmt.Errorf("BOOKING_TIMEZONE is invalid: %w", err)
	}

	return cfg, nil
}

// Location is the time zone booking dates and slot times are interpreted in.
func (c *Config) Location() (*time.Location, error) {
	if c == nil || c.BookingTimezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.BookingTimezone)
}

func (c *Config) ReminderEnabled() bool {
	return c != nil && strings.TrimSpace(c.ReminderCron) != "" && c.ReminderLead > 0
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || parsed <= 0 {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil || parsed < 0 {
		return fallback
	}
	return parsed
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
