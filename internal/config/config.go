package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/ventanilla/servicedesk/internal/sla"
)

// Config aggregates runtime configuration for the service.
type Config struct {
	App      AppConfig
	Postgres PostgresConfig
	Redis    RedisConfig
	Logger   LoggerConfig
	Auth     AuthConfig
	SMTP     SMTPConfig
	Director DirectoryConfig
	Reminder ReminderConfig
	SLA      SLAConfig
}

// AppConfig controls server level behavior.
type AppConfig struct {
	Name                  string
	Env                   string
	Host                  string
	Port                  string
	Version               string
	RequestTimeoutSeconds int
}

// PostgresConfig holds DB connection values.
type PostgresConfig struct {
	DSN            string
	MaxConns       int32
	MinConns       int32
	RunMigrations  bool
	ConnMaxIdleSec int32
	ConnMaxLifeSec int32
}

// RedisConfig holds Redis connection values.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// LoggerConfig configures logging behavior.
type LoggerConfig struct {
	Level string
}

// AuthConfig defines how sessions are validated and roles derived. Admin
// membership is an email allow-list; manager detection is a case-insensitive
// substring test on the job title.
type AuthConfig struct {
	JWTSecret      string
	AdminEmails    []string
	ManagerKeyword string
}

// SMTPConfig holds outbound mail settings. Delivery is disabled when Host,
// User or Pass is missing.
type SMTPConfig struct {
	Host     string
	Port     int
	User     string
	Pass     string
	FromName string
}

// DirectoryConfig points at the corporate directory used to prefill
// assignment fields.
type DirectoryConfig struct {
	BaseURL         string
	AccessToken     string
	CacheTTLSeconds int
}

// ReminderConfig controls the pre-expiration reminder job.
type ReminderConfig struct {
	CronTokenHash   string
	LookaheadDays   int
	WorkerEnabled   bool
	IntervalMinutes int
}

// SLAConfig carries the non-working date set for the business-day calendar.
type SLAConfig struct {
	HolidayDates []string
}

// Load reads configuration from environment variables, applying defaults where possible.
func Load() (*Config, error) {
	_ = godotenv.Load()

	redisDB, err := strconv.Atoi(getEnv("REDIS_DB", "0"))
	if err != nil {
		return nil, fmt.Errorf("invalid REDIS_DB: %w", err)
	}

	cfg := &Config{
		App: AppConfig{
			Name:                  getEnv("APP_NAME", "servicedesk"),
			Env:                   getEnv("APP_ENV", "development"),
			Host:                  getEnv("APP_HOST", "0.0.0.0"),
			Port:                  getEnv("APP_PORT", "8080"),
			Version:               getEnv("APP_VERSION", "dev"),
			RequestTimeoutSeconds: getEnvAsInt("HTTP_REQUEST_TIMEOUT_SECONDS", 30),
		},
		Postgres: PostgresConfig{
			DSN:            os.Getenv("POSTGRES_DSN"),
			MaxConns:       int32(getEnvAsInt("POSTGRES_MAX_CONNS", 10)),
			MinConns:       int32(getEnvAsInt("POSTGRES_MIN_CONNS", 2)),
			RunMigrations:  getEnvAsBool("POSTGRES_RUN_MIGRATIONS", true),
			ConnMaxIdleSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_IDLE_SECONDS", 30)),
			ConnMaxLifeSec: int32(getEnvAsInt("POSTGRES_CONN_MAX_LIFE_SECONDS", 300)),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "127.0.0.1:6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       redisDB,
		},
		Logger: LoggerConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Auth: AuthConfig{
			JWTSecret:      getEnv("AUTH_JWT_SECRET", "dev-secret"),
			AdminEmails:    getEnvAsList("ADMIN_EMAILS"),
			ManagerKeyword: getEnv("MANAGER_KEYWORD", "gerente"),
		},
		SMTP: SMTPConfig{
			Host:     strings.TrimSpace(os.Getenv("SMTP_HOST")),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			User:     strings.TrimSpace(os.Getenv("SMTP_USER")),
			Pass:     strings.TrimSpace(os.Getenv("SMTP_PASS")),
			FromName: getEnv("SMTP_FROM_NAME", "Ventanilla Digital"),
		},
		Director: DirectoryConfig{
			BaseURL:         getEnv("DIRECTORY_BASE_URL", "https://graph.microsoft.com/v1.0"),
			AccessToken:     os.Getenv("DIRECTORY_ACCESS_TOKEN"),
			CacheTTLSeconds: getEnvAsInt("DIRECTORY_CACHE_TTL_SECONDS", 300),
		},
		Reminder: ReminderConfig{
			CronTokenHash:   os.Getenv("CRON_TOKEN_HASH"),
			LookaheadDays:   getEnvAsInt("REMINDER_LOOKAHEAD_DAYS", 1),
			WorkerEnabled:   getEnvAsBool("REMINDER_WORKER_ENABLED", false),
			IntervalMinutes: getEnvAsInt("REMINDER_INTERVAL_MINUTES", 60),
		},
		SLA: SLAConfig{
			HolidayDates: holidayDates(),
		},
	}

	return cfg, nil
}

// Addr returns the HTTP bind address.
func (a AppConfig) Addr() string {
	return fmt.Sprintf("%s:%s", a.Host, a.Port)
}

// RequestTimeout returns the configured request timeout duration.
func (a AppConfig) RequestTimeout() time.Duration {
	if a.RequestTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(a.RequestTimeoutSeconds) * time.Second
}

// Interval returns the reminder worker tick interval.
func (r ReminderConfig) Interval() time.Duration {
	if r.IntervalMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(r.IntervalMinutes) * time.Minute
}

func holidayDates() []string {
	if raw := os.Getenv("SLA_HOLIDAY_DATES"); raw != "" {
		return splitTrimmed(raw)
	}
	return sla.DefaultHolidays
}

func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsBool(key string, fallback bool) bool {
	val := os.Getenv(key)
	if val == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(val)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvAsList(key string) []string {
	return splitTrimmed(os.Getenv(key))
}

func splitTrimmed(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
