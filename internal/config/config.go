package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

type RedisConfig struct {
	Address  string
	Password string
	DB       int
	LockTTL  time.Duration
}

type NotifyConfig struct {
	SendGridAPIKey   string
	SendGridFrom     string
	SendGridFromName string
	StaffEmail       string

	TwilioAccountSID string
	TwilioAuthToken  string
	TwilioFrom       string
	StaffPhone       string
}

// EmailEnabled reports whether staff emails can be sent.
func (n NotifyConfig) EmailEnabled() bool {
	return n.SendGridAPIKey != "" && n.SendGridFrom != "" && n.StaffEmail != ""
}

// SMSEnabled reports whether staff SMS can be sent.
func (n NotifyConfig) SMSEnabled() bool {
	return n.TwilioAccountSID != "" && n.TwilioAuthToken != "" && n.TwilioFrom != "" && n.StaffPhone != ""
}

type Config struct {
	Port            string
	Environment     string
	LogLevel        string
	DatabaseURL     string
	ShutdownTimeout time.Duration
	CORSOrigins     []string

	Redis  RedisConfig
	Notify NotifyConfig

	// SeedCourts are court ids inserted as Available at startup when missing.
	SeedCourts []string

	// PendingTTL of zero disables the stale pending expiry job.
	PendingTTL time.Duration
	ExpiryCron string
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("No .env file found")
	}

	cfg := &Config{
		Port:            getEnv("PORT", "8080"),
		Environment:     getEnv("ENVIRONMENT", "development"),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		DatabaseURL:     os.Getenv("DATABASE_URL"),
		ShutdownTimeout: time.Duration(getEnvAsInt("SHUTDOWN_TIMEOUT_SECONDS", 30)) * time.Second,
		CORSOrigins:     splitList(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		Redis: RedisConfig{
			Address:  os.Getenv("REDIS_ADDR"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvAsInt("REDIS_DB", 0),
			LockTTL:  time.Duration(getEnvAsInt("SLOT_LOCK_TTL_SECONDS", 10)) * time.Second,
		},
		Notify: NotifyConfig{
			SendGridAPIKey:   os.Getenv("SENDGRID_API_KEY"),
			SendGridFrom:     os.Getenv("SENDGRID_FROM_EMAIL"),
			SendGridFromName: getEnv("SENDGRID_FROM_NAME", "Court Booking"),
			StaffEmail:       os.Getenv("STAFF_NOTIFY_EMAIL"),
			TwilioAccountSID: os.Getenv("TWILIO_ACCOUNT_SID"),
			TwilioAuthToken:  os.Getenv("TWILIO_AUTH_TOKEN"),
			TwilioFrom:       os.Getenv("TWILIO_FROM_NUMBER"),
			StaffPhone:       os.Getenv("STAFF_NOTIFY_PHONE"),
		},
		SeedCourts: splitList(os.Getenv("SEED_COURTS")),
		PendingTTL: time.Duration(getEnvAsInt("PENDING_TTL_HOURS", 0)) * time.Hour,
		ExpiryCron: getEnv("EXPIRY_CRON", "@every 15m"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL not set")
	}
	if _, err := strconv.Atoi(c.Port); err != nil {
		return fmt.Errorf("PORT must be numeric, got %q", c.Port)
	}
	if c.ShutdownTimeout <= 0 {
		return fmt.Errorf("SHUTDOWN_TIMEOUT_SECONDS must be positive")
	}
	if c.PendingTTL < 0 {
		return fmt.Errorf("PENDING_TTL_HOURS must not be negative")
	}
	if c.PendingTTL > 0 {
		if _, err := cron.ParseStandard(c.ExpiryCron); err != nil {
			return fmt.Errorf("EXPIRY_CRON %q: %w", c.ExpiryCron, err)
		}
	}
	if c.Redis.Address != "" && c.Redis.LockTTL <= 0 {
		return fmt.Errorf("SLOT_LOCK_TTL_SECONDS must be positive when REDIS_ADDR is set")
	}
	return nil
}

// IsDevelopment selects human-readable console logging.
func (c *Config) IsDevelopment() bool {
	return c.Environment == "development"
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
		log.Warn().Str("key", key).Str("value", value).Msg("Ignoring non-numeric environment value")
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
