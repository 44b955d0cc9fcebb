package config

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

const (
	defaultSessionSecret = "dev_session_secret"
	defaultReportsSecret = "dev_reports_secret"
)

// Config is the full runtime configuration, read from the environment and an optional .env file.
type Config struct {
	Env           string
	Port          int
	APIPrefix     string
	InstituteName string

	Database  DatabaseConfig
	Redis     RedisConfig
	Session   SessionConfig
	CORS      CORSConfig
	Log       LogConfig
	Dashboard DashboardConfig
	Reports   ReportsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

// RedisConfig is optional. When disabled, sessions live in process memory and the dashboard
// is computed on every request.
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// Addr returns host:port.
func (r RedisConfig) Addr() string {
	return fmt.Sprintf("%s:%d", r.Host, r.Port)
}

// SessionConfig holds the password gate secrets. Password hashes are bcrypt.
type SessionConfig struct {
	Secret            string
	TTL               time.Duration
	AdminTTL          time.Duration
	SitePasswordHash  string
	AdminPasswordHash string
	VerifyTTL         time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheTTL        time.Duration
	DailyTargetDays int
}

// ReportsConfig configures report rendering and asynchronous exports.
type ReportsConfig struct {
	StorageDir        string
	SignedURLSecret   string
	SignedURLTTL      time.Duration
	CleanupInterval   time.Duration
	WorkerConcurrency int
	WorkerRetries     int
	CurrencySymbol    string
}

// Load reads configuration. Unparseable durations fall back to their defaults.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("read .env: %w", err)
		}
	}

	return &Config{
		Env:           v.GetString("ENV"),
		Port:          v.GetInt("PORT"),
		APIPrefix:     "/" + strings.Trim(v.GetString("API_PREFIX"), "/"),
		InstituteName: v.GetString("INSTITUTE_NAME"),
		Database:      databaseSection(v),
		Redis:         redisSection(v),
		Session:       sessionSection(v),
		CORS:          CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))},
		Log:           LogConfig{Level: v.GetString("LOG_LEVEL"), Format: v.GetString("LOG_FORMAT")},
		Dashboard:     dashboardSection(v),
		Reports:       reportsSection(v),
	}, nil
}

// Validate rejects settings that are only acceptable in development.
func (c *Config) Validate() error {
	var problems []string
	if c.Session.SitePasswordHash == "" {
		problems = append(problems, "SITE_PASSWORD_HASH is empty, nobody can log in")
	}
	if c.Session.AdminPasswordHash == "" {
		problems = append(problems, "ADMIN_PASSWORD_HASH is empty, the admin area is locked")
	}
	if c.Env == EnvProduction {
		if c.Session.Secret == defaultSessionSecret || len(c.Session.Secret) < 32 {
			problems = append(problems, "SESSION_SECRET must be set to at least 32 characters")
		}
		if c.Reports.SignedURLSecret == defaultReportsSecret {
			problems = append(problems, "REPORTS_SIGNED_URL_SECRET must be set")
		}
	}
	if len(problems) == 0 {
		return nil
	}
	return errors.New("invalid configuration: " + strings.Join(problems, "; "))
}

func databaseSection(v *viper.Viper) DatabaseConfig {
	return DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}
}

func redisSection(v *viper.Viper) RedisConfig {
	return RedisConfig{
		Enabled:  v.GetBool("REDIS_ENABLED"),
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}
}

func sessionSection(v *viper.Viper) SessionConfig {
	ttl := parseDuration(v.GetString("SESSION_TTL"), 12*time.Hour)
	return SessionConfig{
		Secret:            v.GetString("SESSION_SECRET"),
		TTL:               ttl,
		AdminTTL:          parseDuration(v.GetString("ADMIN_SESSION_TTL"), 2*time.Hour),
		SitePasswordHash:  v.GetString("SITE_PASSWORD_HASH"),
		AdminPasswordHash: v.GetString("ADMIN_PASSWORD_HASH"),
		VerifyTTL:         parseDuration(v.GetString("SESSION_VERIFY_TTL"), 30*time.Second),
	}
}

func dashboardSection(v *viper.Viper) DashboardConfig {
	days := v.GetInt("DAILY_TARGET_DAYS")
	if days <= 0 {
		days = 30
	}
	return DashboardConfig{
		CacheTTL:        parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
		DailyTargetDays: days,
	}
}

func reportsSection(v *viper.Viper) ReportsConfig {
	return ReportsConfig{
		StorageDir:        v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret:   v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:      parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval:   parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
		WorkerConcurrency: v.GetInt("REPORTS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("REPORTS_WORKER_RETRIES"),
		CurrencySymbol:    v.GetString("REPORTS_CURRENCY_SYMBOL"),
	}
}

var defaults = map[string]interface{}{
	"ENV":            EnvDevelopment,
	"PORT":           8080,
	"API_PREFIX":     "/api/v1",
	"INSTITUTE_NAME": "Computer Education Institute",

	"DB_HOST":           "localhost",
	"DB_PORT":           5432,
	"DB_USER":           "postgres",
	"DB_PASSWORD":       "postgres",
	"DB_NAME":           "institute",
	"DB_SSL_MODE":       "disable",
	"DB_MAX_OPEN_CONNS": 10,
	"DB_MAX_IDLE_CONNS": 5,

	"REDIS_ENABLED":  false,
	"REDIS_HOST":     "localhost",
	"REDIS_PORT":     6379,
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,

	"SESSION_SECRET":      defaultSessionSecret,
	"SESSION_TTL":         "12h",
	"ADMIN_SESSION_TTL":   "2h",
	"SESSION_VERIFY_TTL":  "30s",
	"SITE_PASSWORD_HASH":  "",
	"ADMIN_PASSWORD_HASH": "",

	"ALLOWED_ORIGINS": "",
	"LOG_LEVEL":       "info",
	"LOG_FORMAT":      "json",

	"DASHBOARD_CACHE_TTL": "5m",
	"DAILY_TARGET_DAYS":   30,

	"REPORTS_STORAGE_DIR":        "./exports",
	"REPORTS_SIGNED_URL_SECRET":  defaultReportsSecret,
	"REPORTS_SIGNED_URL_TTL":     "24h",
	"REPORTS_CLEANUP_INTERVAL":   "1h",
	"REPORTS_WORKER_CONCURRENCY": 1,
	"REPORTS_WORKER_RETRIES":     3,
	"REPORTS_CURRENCY_SYMBOL":    "₹",
}

func setDefaults(v *viper.Viper) {
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(strings.TrimSpace(raw)); err == nil && d > 0 {
		return d
	}
	return fallback
}

func splitAndTrim(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
