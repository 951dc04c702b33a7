package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"therapyspace/internal/pkg/logging"
)

const (
	defaultHTTPAddr         = ":8080"
	defaultDatabaseURL      = "file:therapyspace.db?cache=shared"
	defaultStorageBackend   = "sql"
	defaultUndoBackend      = "memory"
	defaultRedisAddr        = "localhost:6379"
	defaultJWTSecret        = "change-me-jwt-secret"
	defaultClientTokenTTL   = "720h"
	defaultCatalogDays      = "60"
	defaultAvailabilitySeed = "1"
	defaultSubmitDelay      = "1s"
	defaultUndoTTL          = "5s"
	defaultSessionTTL       = "30m"
	defaultSweepSchedule    = "@every 1m"
	defaultSubmitRate       = "30"
	defaultSubmitBurst      = "5"
)

const (
	StorageSQL   = "sql"
	StorageRedis = "redis"
	UndoMemory   = "memory"
	UndoRedis    = "redis"
)

type Config struct {
	AppEnv   string
	HTTPAddr string
	LogLevel string

	DatabaseURL    string
	StorageBackend string
	UndoBackend    string
	RedisAddr      string
	RedisPassword  string
	RedisDB        int

	JWTSecret      string
	ClientTokenTTL time.Duration

	// CatalogStartDate is the first day of the slot horizon; zero means today.
	CatalogStartDate time.Time
	CatalogDaysAhead int
	AvailabilitySeed int64

	SubmitDelay         time.Duration
	UndoTTL             time.Duration
	WizardSessionTTL    time.Duration
	SweepSchedule       string
	AllowGlobalBookings bool

	SubmitRatePerMinute int
	SubmitBurst         int
	CORSAllowedOrigins  string
}

func Load() (*Config, error) {
	cfg := &Config{}
	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = strings.TrimSpace(os.Getenv("ENV"))
	}
	if appEnv == "" {
		appEnv = "dev"
	}
	cfg.AppEnv = strings.ToLower(appEnv)

	cfg.HTTPAddr = strings.TrimSpace(getEnv("HTTP_ADDR", defaultHTTPAddr))
	cfg.LogLevel = strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	cfg.DatabaseURL = strings.TrimSpace(getEnv("DATABASE_URL", defaultDatabaseURL))
	cfg.StorageBackend = strings.ToLower(strings.TrimSpace(getEnv("STORAGE_BACKEND", defaultStorageBackend)))
	cfg.UndoBackend = strings.ToLower(strings.TrimSpace(getEnv("UNDO_BACKEND", defaultUndoBackend)))
	cfg.RedisAddr = strings.TrimSpace(getEnv("REDIS_ADDR", defaultRedisAddr))
	cfg.RedisPassword = os.Getenv("REDIS_PASSWORD")
	cfg.JWTSecret = strings.TrimSpace(getEnv("JWT_SECRET", defaultJWTSecret))
	cfg.SweepSchedule = strings.TrimSpace(getEnv("SWEEP_SCHEDULE", defaultSweepSchedule))
	cfg.AllowGlobalBookings = parseBoolEnv("ALLOW_GLOBAL_BOOKINGS", strconv.FormatBool(!logging.IsProdLike(cfg.AppEnv)))
	cfg.CORSAllowedOrigins = os.Getenv("CORS_ALLOWED_ORIGINS")

	var err error
	if cfg.RedisDB, err = parseIntEnv("REDIS_DB", "0"); err != nil {
		return nil, err
	}
	if cfg.ClientTokenTTL, err = parseDurationEnv("CLIENT_TOKEN_TTL", defaultClientTokenTTL); err != nil {
		return nil, err
	}
	if cfg.CatalogDaysAhead, err = parseIntEnv("CATALOG_DAYS_AHEAD", defaultCatalogDays); err != nil {
		return nil, err
	}
	seed, err := parseIntEnv("AVAILABILITY_SEED", defaultAvailabilitySeed)
	if err != nil {
		return nil, err
	}
	cfg.AvailabilitySeed = int64(seed)

	if raw := strings.TrimSpace(os.Getenv("CATALOG_START_DATE")); raw != "" {
		cfg.CatalogStartDate, err = time.Parse("2006-01-02", raw)
		if err != nil {
			return nil, fmt.Errorf("invalid CATALOG_START_DATE value %q: %w", raw, err)
		}
	}

	if cfg.SubmitDelay, err = parseDurationEnv("SUBMIT_DELAY", defaultSubmitDelay); err != nil {
		return nil, err
	}
	if cfg.UndoTTL, err = parseDurationEnv("UNDO_TTL", defaultUndoTTL); err != nil {
		return nil, err
	}
	if cfg.WizardSessionTTL, err = parseDurationEnv("WIZARD_SESSION_TTL", defaultSessionTTL); err != nil {
		return nil, err
	}
	if cfg.SubmitRatePerMinute, err = parseIntEnv("SUBMIT_RATE_PER_MINUTE", defaultSubmitRate); err != nil {
		return nil, err
	}
	if cfg.SubmitBurst, err = parseIntEnv("SUBMIT_BURST", defaultSubmitBurst); err != nil {
		return nil, err
	}

	if err := validateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UsesRedis reports whether any component needs a Redis client.
func (c *Config) UsesRedis() bool {
	return c.StorageBackend == StorageRedis || c.UndoBackend == UndoRedis
}

func validateConfig(cfg *Config) error {
	if cfg.HTTPAddr == "" {
		return fmt.Errorf("HTTP_ADDR must not be empty")
	}
	switch cfg.StorageBackend {
	case StorageSQL:
		if cfg.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL must be set when STORAGE_BACKEND=sql")
		}
	case StorageRedis:
	default:
		return fmt.Errorf("STORAGE_BACKEND must be one of: sql, redis")
	}
	if cfg.UndoBackend != UndoMemory && cfg.UndoBackend != UndoRedis {
		return fmt.Errorf("UNDO_BACKEND must be one of: memory, redis")
	}
	if cfg.UsesRedis() && cfg.RedisAddr == "" {
		return fmt.Errorf("REDIS_ADDR must be set when a redis backend is selected")
	}
	if cfg.ClientTokenTTL <= 0 {
		return fmt.Errorf("CLIENT_TOKEN_TTL must be > 0")
	}
	if cfg.CatalogDaysAhead < 0 {
		return fmt.Errorf("CATALOG_DAYS_AHEAD must be >= 0")
	}
	if cfg.SubmitDelay < 0 {
		return fmt.Errorf("SUBMIT_DELAY must be >= 0")
	}
	if cfg.UndoTTL <= 0 {
		return fmt.Errorf("UNDO_TTL must be > 0")
	}
	if cfg.WizardSessionTTL <= 0 {
		return fmt.Errorf("WIZARD_SESSION_TTL must be > 0")
	}
	if cfg.SweepSchedule == "" {
		return fmt.Errorf("SWEEP_SCHEDULE must not be empty")
	}
	if cfg.SubmitRatePerMinute < 0 || cfg.SubmitBurst < 0 {
		return fmt.Errorf("SUBMIT_RATE_PER_MINUTE and SUBMIT_BURST must be >= 0")
	}

	if logging.IsProdLike(cfg.AppEnv) {
		if isEmptyOrDefault(cfg.JWTSecret, defaultJWTSecret) {
			return fmt.Errorf("in prod/staging JWT_SECRET must be set and not default")
		}
		if cfg.AllowGlobalBookings {
			return fmt.Errorf("in prod/staging ALLOW_GLOBAL_BOOKINGS must be false")
		}
	}

	return nil
}

func isEmptyOrDefault(v, def string) bool {
	trimmed := strings.TrimSpace(v)
	return trimmed == "" || trimmed == def
}

func parseDurationEnv(name, fallback string) (time.Duration, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return d, nil
}

func parseIntEnv(name, fallback string) (int, error) {
	value := strings.TrimSpace(getEnv(name, fallback))
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid %s value %q: %w", name, value, err)
	}
	return n, nil
}

func parseBoolEnv(name, fallback string) bool {
	value := strings.ToLower(strings.TrimSpace(getEnv(name, fallback)))
	return value == "1" || value == "true" || value == "yes" || value == "on"
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}
