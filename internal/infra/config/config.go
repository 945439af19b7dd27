package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig holds all configuration for the application.
type AppConfig struct {
	TelegramToken string
	DatabaseURL   string
	AdminChatID   int64 // Chat receiving call-list alerts and run summaries

	LogLevel    string
	Environment string

	CronSpecDaily    string // Daily progression run
	CronSpecFollowUp string // Hourly follow-up sweep
	Timezone         *time.Location

	BusinessHoursStart int // Inclusive, local hour
	BusinessHoursEnd   int // Exclusive, local hour
	FollowUpDwell      time.Duration
	SendDelay          time.Duration // Minimum gap between gateway calls in a run
	GraceWindow        time.Duration // Freshly imported cases are left alone this long

	RunBackfill bool // One-shot catch-up pass at startup; never leave enabled
}

// Load reads configuration from environment variables and .env file (if present).
func Load() (*AppConfig, error) {
	// godotenv.Load will not override existing env variables.
	_ = godotenv.Load()

	cfg := &AppConfig{}
	var err error

	cfg.TelegramToken = os.Getenv("TELEGRAM_TOKEN")
	if cfg.TelegramToken == "" {
		return nil, fmt.Errorf("TELEGRAM_TOKEN is not set")
	}

	cfg.DatabaseURL = os.Getenv("DATABASE_URL")
	if cfg.DatabaseURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is not set")
	}

	adminIDStr := os.Getenv("ADMIN_CHAT_ID")
	if adminIDStr == "" {
		return nil, fmt.Errorf("ADMIN_CHAT_ID is not set")
	}
	cfg.AdminChatID, err = strconv.ParseInt(adminIDStr, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid ADMIN_CHAT_ID: %w", err)
	}

	cfg.LogLevel = strings.ToLower(os.Getenv("LOG_LEVEL"))
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	cfg.Environment = strings.ToLower(os.Getenv("ENVIRONMENT"))
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}

	cfg.CronSpecDaily = os.Getenv("CRON_SPEC_DAILY")
	if cfg.CronSpecDaily == "" {
		cfg.CronSpecDaily = "0 9 * * *" // 09:00 local, daily
	}

	cfg.CronSpecFollowUp = os.Getenv("CRON_SPEC_FOLLOW_UP")
	if cfg.CronSpecFollowUp == "" {
		cfg.CronSpecFollowUp = "0 * * * *" // Hourly; the driver gates on business hours itself
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		cfg.Timezone = time.Local
	} else {
		cfg.Timezone, err = time.LoadLocation(tzName)
		if err != nil {
			return nil, fmt.Errorf("invalid TIMEZONE %q: %w", tzName, err)
		}
	}

	cfg.BusinessHoursStart, err = intEnv("BUSINESS_HOURS_START", 10)
	if err != nil {
		return nil, err
	}
	cfg.BusinessHoursEnd, err = intEnv("BUSINESS_HOURS_END", 19)
	if err != nil {
		return nil, err
	}
	if cfg.BusinessHoursStart >= cfg.BusinessHoursEnd {
		return nil, fmt.Errorf("BUSINESS_HOURS_START (%d) must be before BUSINESS_HOURS_END (%d)", cfg.BusinessHoursStart, cfg.BusinessHoursEnd)
	}

	dwellMinutes, err := intEnv("FOLLOW_UP_DWELL_MINUTES", 120)
	if err != nil {
		return nil, err
	}
	cfg.FollowUpDwell = time.Duration(dwellMinutes) * time.Minute

	delayMs, err := intEnv("SEND_DELAY_MS", 3000)
	if err != nil {
		return nil, err
	}
	cfg.SendDelay = time.Duration(delayMs) * time.Millisecond

	graceHours, err := intEnv("GRACE_WINDOW_HOURS", 48)
	if err != nil {
		return nil, err
	}
	cfg.GraceWindow = time.Duration(graceHours) * time.Hour

	cfg.RunBackfill = strings.EqualFold(os.Getenv("RUN_BACKFILL"), "true")

	return cfg, nil
}

func intEnv(name string, def int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	return v, nil
}
