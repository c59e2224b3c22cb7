package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // APP_TIMEZONE must resolve in minimal images

	"github.com/joho/godotenv"
)

// Source types
const (
	SourceAPI      = "api"
	SourcePostgres = "postgres"
)

type Config struct {
	App      AppConfig
	Source   SourceConfig
	Upstream UpstreamConfig
	Database DatabaseConfig
	Storage  StorageConfig
	Refresh  RefreshConfig
	View     ViewConfig
}

// AppConfig holds application configuration
type AppConfig struct {
	Port           int
	Env            string
	LogLevel       string
	Timezone       string
	AllowedOrigins []string
}

type SourceConfig struct {
	Type string
}

// UpstreamConfig points at the HR backend API
type UpstreamConfig struct {
	BaseURL      string
	Timeout      time.Duration
	ClientID     string
	ClientSecret string
	TokenURL     string
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	SSLMode  string
	MaxConns int32
}

type StorageConfig struct {
	BasePath     string
	BaseURL      string
	ExportMaxAge time.Duration
}

// RefreshConfig holds the live refresh intervals and working set limits
type RefreshConfig struct {
	Summary     time.Duration
	Activity    time.Duration
	Records     time.Duration
	ActiveTTL   time.Duration
	MaxActive   int
	LoadTimeout time.Duration
}

type ViewConfig struct {
	RosterPageSize int
	HourHeight     float64
}

func Load() (*Config, error) {
	// A missing .env is fine, the environment may already be set
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	config := &Config{}
	var err error

	// Application configuration
	appPort, err := getEnvInt("APP_PORT", 8080)
	if err != nil {
		return nil, err
	}

	config.App = AppConfig{
		Port:           appPort,
		Env:            getEnv("APP_ENV", "development"),
		LogLevel:       getEnv("LOG_LEVEL", "info"),
		Timezone:       getEnv("APP_TIMEZONE", "Asia/Jakarta"),
		AllowedOrigins: getEnvSlice("CORS_ALLOWED_ORIGINS"),
	}

	config.Source = SourceConfig{
		Type: strings.ToLower(getEnv("SOURCE_TYPE", SourceAPI)),
	}

	// Upstream configuration
	upstreamTimeout, err := getEnvDuration("UPSTREAM_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	config.Upstream = UpstreamConfig{
		BaseURL:      getEnv("UPSTREAM_BASE_URL", ""),
		Timeout:      upstreamTimeout,
		ClientID:     getEnv("UPSTREAM_CLIENT_ID", ""),
		ClientSecret: getEnv("UPSTREAM_CLIENT_SECRET", ""),
		TokenURL:     getEnv("UPSTREAM_TOKEN_URL", ""),
	}

	// Database configuration
	dbPort, err := getEnvInt("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	dbMaxConns, err := getEnvInt("DB_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}

	config.Database = DatabaseConfig{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     dbPort,
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", ""),
		Name:     getEnv("DB_NAME", "cmlabs-hris"),
		SSLMode:  getEnv("DB_SSL_MODE", "disable"),
		MaxConns: int32(dbMaxConns),
	}

	// Storage configuration
	exportMaxAge, err := getEnvDuration("EXPORT_MAX_AGE", 24*time.Hour)
	if err != nil {
		return nil, err
	}

	config.Storage = StorageConfig{
		BasePath:     getEnv("STORAGE_BASE_PATH", "./storage"),
		BaseURL:      getEnv("STORAGE_BASE_URL", fmt.Sprintf("http://localhost:%d/files", appPort)),
		ExportMaxAge: exportMaxAge,
	}

	// Refresh configuration
	if config.Refresh, err = loadRefresh(); err != nil {
		return nil, err
	}

	// View configuration
	rosterPageSize, err := getEnvInt("ROSTER_PAGE_SIZE", 100)
	if err != nil {
		return nil, err
	}
	hourHeight, err := strconv.ParseFloat(getEnv("HOUR_HEIGHT_PX", "40"), 64)
	if err != nil {
		return nil, fmt.Errorf("invalid HOUR_HEIGHT_PX: %w", err)
	}

	config.View = ViewConfig{
		RosterPageSize: rosterPageSize,
		HourHeight:     hourHeight,
	}

	// Validate required fields
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return config, nil
}

func loadRefresh() (RefreshConfig, error) {
	var (
		rc  RefreshConfig
		err error
	)
	if rc.Summary, err = getEnvDuration("REFRESH_SUMMARY_INTERVAL", 30*time.Second); err != nil {
		return rc, err
	}
	if rc.Activity, err = getEnvDuration("REFRESH_ACTIVITY_INTERVAL", 60*time.Second); err != nil {
		return rc, err
	}
	if rc.Records, err = getEnvDuration("REFRESH_RECORDS_INTERVAL", 60*time.Second); err != nil {
		return rc, err
	}
	if rc.ActiveTTL, err = getEnvDuration("WORKING_SET_TTL", 10*time.Minute); err != nil {
		return rc, err
	}
	if rc.LoadTimeout, err = getEnvDuration("WORKING_SET_LOAD_TIMEOUT", 30*time.Second); err != nil {
		return rc, err
	}
	if rc.MaxActive, err = getEnvInt("WORKING_SET_MAX", 32); err != nil {
		return rc, err
	}
	return rc, nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.App.Port <= 0 || c.App.Port > 65535 {
		return fmt.Errorf("APP_PORT must be between 1 and 65535")
	}
	if _, err := time.LoadLocation(c.App.Timezone); err != nil {
		return fmt.Errorf("APP_TIMEZONE is invalid: %w", err)
	}

	switch c.Source.Type {
	case SourceAPI:
		if c.Upstream.BaseURL == "" {
			return fmt.Errorf("UPSTREAM_BASE_URL is required when SOURCE_TYPE=%s", SourceAPI)
		}
		if c.Upstream.ClientID != "" && c.Upstream.TokenURL == "" {
			return fmt.Errorf("UPSTREAM_TOKEN_URL is required when UPSTREAM_CLIENT_ID is set")
		}
	case SourcePostgres:
		if c.Database.Password == "" {
			return fmt.Errorf("DB_PASSWORD is required when SOURCE_TYPE=%s", SourcePostgres)
		}
	default:
		return fmt.Errorf("SOURCE_TYPE must be %q or %q, got %q", SourceAPI, SourcePostgres, c.Source.Type)
	}

	for name, d := range map[string]time.Duration{
		"REFRESH_SUMMARY_INTERVAL":  c.Refresh.Summary,
		"REFRESH_ACTIVITY_INTERVAL": c.Refresh.Activity,
		"REFRESH_RECORDS_INTERVAL":  c.Refresh.Records,
	} {
		if d <= 0 {
			return fmt.Errorf("%s must be positive", name)
		}
	}
	if c.View.HourHeight <= 0 {
		return fmt.Errorf("HOUR_HEIGHT_PX must be positive")
	}
	if c.View.RosterPageSize <= 0 {
		return fmt.Errorf("ROSTER_PAGE_SIZE must be positive")
	}
	return nil
}

// Location returns the configured business timezone
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.App.Timezone)
	if err != nil {
		return time.Local
	}
	return loc
}

// SlogLevel maps LOG_LEVEL to a slog level, defaulting to info
func (c *Config) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(c.App.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// DatabaseURL returns the PostgreSQL connection string
func (c *Config) DatabaseURL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) (int, error) {
	value, err := strconv.Atoi(getEnv(key, strconv.Itoa(fallback)))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getEnvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value, err := time.ParseDuration(getEnv(key, fallback.String()))
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", key, err)
	}
	return value, nil
}

func getEnvSlice(env string) []string {
	value := getEnv(env, "")
	if value == "" {
		return []string{}
	}
	var result []string
	for _, v := range strings.Split(value, ",") {
		if v = strings.TrimSpace(v); v != "" {
			result = append(result, v)
		}
	}
	return result
}
