package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

const devJWTSecret = "dev-secret-change-in-production"

// Config holds the application configuration.
type Config struct {
	ServerPort  int
	Environment string
	LogLevel    string
	CORSOrigins []string

	Database DatabaseConfig

	JWTSecret string
	JWTExpiry time.Duration

	EventRetention         time.Duration
	EventRetentionSchedule string

	// StatsInterval is how often process and pool stats are sampled.
	StatsInterval time.Duration
}

// DatabaseConfig selects and parameterizes the SQL backend.
type DatabaseConfig struct {
	Driver   string // sqlite, mysql or postgres
	Path     string // sqlite file path
	URL      string // postgres connection string
	MaxConns int

	MySQLHost     string
	MySQLPort     int
	MySQLUser     string
	MySQLPassword string
	MySQLDatabase string
}

// Load loads configuration from environment variables or sets defaults.
func Load() (*Config, error) {
	port, err := strconv.Atoi(getEnv("PORT", "3000"))
	if err != nil {
		return nil, fmt.Errorf("invalid PORT: %w", err)
	}

	maxConns, err := strconv.Atoi(getEnv("DB_MAX_CONNS", "10"))
	if err != nil || maxConns <= 0 {
		return nil, fmt.Errorf("invalid DB_MAX_CONNS %q", getEnv("DB_MAX_CONNS", ""))
	}

	mysqlPort, err := strconv.Atoi(getEnv("MYSQL_PORT", "3306"))
	if err != nil {
		return nil, fmt.Errorf("invalid MYSQL_PORT: %w", err)
	}

	expiry, err := ParseDuration(getEnv("JWT_EXPIRY", "7d"))
	if err != nil {
		return nil, fmt.Errorf("invalid JWT_EXPIRY: %w", err)
	}

	retentionDays, err := strconv.Atoi(getEnv("EVENT_RETENTION_DAYS", "30"))
	if err != nil || retentionDays <= 0 {
		return nil, fmt.Errorf("invalid EVENT_RETENTION_DAYS %q", getEnv("EVENT_RETENTION_DAYS", ""))
	}

	schedule := getEnv("EVENT_RETENTION_SCHEDULE", "0 3 * * *")
	if _, err := cron.ParseStandard(schedule); err != nil {
		return nil, fmt.Errorf("invalid EVENT_RETENTION_SCHEDULE: %w", err)
	}

	statsInterval, err := ParseDuration(getEnv("STATS_INTERVAL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("invalid STATS_INTERVAL: %w", err)
	}

	cfg := &Config{
		ServerPort:  port,
		Environment: getEnv("APP_ENV", "development"),
		LogLevel:    getEnv("LOG_LEVEL", "info"),
		CORSOrigins: parseCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),
		Database: DatabaseConfig{
			Driver:        strings.ToLower(getEnv("DB_DRIVER", "sqlite")),
			Path:          getEnv("DATABASE_PATH", "./taskboard.db"),
			URL:           getEnv("DATABASE_URL", ""),
			MaxConns:      maxConns,
			MySQLHost:     getEnv("MYSQL_HOST", "localhost"),
			MySQLPort:     mysqlPort,
			MySQLUser:     getEnv("MYSQL_USER", "root"),
			MySQLPassword: getEnv("MYSQL_PASSWORD", ""),
			MySQLDatabase: getEnv("MYSQL_DATABASE", "taskboard"),
		},
		JWTSecret:              strings.TrimSpace(os.Getenv("JWT_SECRET")),
		JWTExpiry:              expiry,
		EventRetention:         time.Duration(retentionDays) * 24 * time.Hour,
		EventRetentionSchedule: schedule,
		StatsInterval:          statsInterval,
	}

	switch cfg.Database.Driver {
	case "sqlite", "mysql":
	case "postgres":
		if cfg.Database.URL == "" {
			return nil, errors.New("DATABASE_URL is required when DB_DRIVER=postgres")
		}
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", cfg.Database.Driver)
	}

	if cfg.JWTSecret == "" {
		if cfg.IsProduction() {
			return nil, errors.New("JWT_SECRET is required in production")
		}
		cfg.JWTSecret = devJWTSecret
	}

	return cfg, nil
}

// IsProduction reports whether APP_ENV is "production".
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// UsesDevSecret reports whether the built-in development JWT secret is active.
func (c *Config) UsesDevSecret() bool {
	return c.JWTSecret == devJWTSecret
}

// ParseDuration accepts Go durations plus a whole-day suffix ("7d").
func ParseDuration(s string) (time.Duration, error) {
	s = strings.TrimSpace(s)
	if days, ok := strings.CutSuffix(s, "d"); ok {
		n, err := strconv.Atoi(days)
		if err != nil || n <= 0 {
			return 0, fmt.Errorf("bad day count in %q", s)
		}
		return time.Duration(n) * 24 * time.Hour, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d <= 0 {
		return 0, fmt.Errorf("duration %q must be positive", s)
	}
	return d, nil
}

// Helper to get an environment variable with a default value.
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists && strings.TrimSpace(value) != "" {
		return strings.TrimSpace(value)
	}
	return fallback
}

func parseCSV(input string) []string {
	var out []string
	for _, part := range strings.Split(input, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	if len(out) == 0 {
		return []string{"*"}
	}
	return out
}
