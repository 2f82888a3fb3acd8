package config

import (
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Application
	AppName           string
	AppEnv            string
	AppURL            string
	Port              string
	SupportEmail      string
	DefaultTimezone   string
	CORSAllowedOrigin string

	// Database (optional driver switch via ENV, default: sqlite)
	DBDriver     string
	DBConnection string

	// Security
	JWTSecret        string
	JWTExpiry        time.Duration
	OAuthStateExpiry time.Duration

	// Google (sign-in + calendar)
	GoogleClientID      string
	GoogleClientSecret  string
	GoogleRedirectURL   string // calendar connect callback
	GoogleCalendarID    string
	GoogleAPIBaseURL    string
	CalendarLookahead   time.Duration
	CalendarTokenBuffer time.Duration

	// Email
	EmailFrom    string
	ResendAPIKey string
	EmailLogOnly bool // log emails instead of sending them

	// Observability (optional)
	SentryDSN string

	// Storage (S3-compatible: MinIO, AWS S3, Cloudflare R2, DigitalOcean Spaces, etc.)
	S3Region        string
	S3Bucket        string
	S3AccessKey     string
	S3SecretKey     string
	S3Endpoint      string        // Optional: for S3-compatible services (MinIO, DO Spaces, R2, etc.)
	S3PresignExpiry time.Duration // Expiry of avatar links - default: 7 days
}

func Load() *Config {
	// Load .env file if it exists
	err := godotenv.Load()
	if err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	appURL := envRequired("APP_URL") // Required: base URL for OAuth redirects and email links

	cfg := &Config{
		// Application
		AppName:           envString("APP_NAME", "Finboard"),
		AppEnv:            envRequired("APP_ENV"), // Required: 'development' or 'production'
		AppURL:            appURL,
		Port:              envString("PORT", "8090"),
		SupportEmail:      envString("SUPPORT_EMAIL", "hello@example.com"),
		DefaultTimezone:   envString("DEFAULT_TIMEZONE", "America/Sao_Paulo"),
		CORSAllowedOrigin: envString("CORS_ALLOWED_ORIGIN", appURL),

		// Database
		DBDriver:     envString("DB_DRIVER", "sqlite"),
		DBConnection: envString("DB_CONNECTION", "./data/finboard.db"),

		// Security
		JWTSecret:        envRequired("JWT_SECRET"),
		JWTExpiry:        envDuration("JWT_EXPIRY", 168*time.Hour), // 7 days
		OAuthStateExpiry: envDuration("OAUTH_STATE_EXPIRY", 10*time.Minute),

		// Google
		GoogleClientID:      envString("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret:  envString("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURL:   envString("GOOGLE_REDIRECT_URL", appURL+"/api/integrations/google/callback"),
		GoogleCalendarID:    envString("GOOGLE_CALENDAR_ID", "primary"),
		GoogleAPIBaseURL:    envString("GOOGLE_API_BASE_URL", "https://www.googleapis.com/calendar/v3"),
		CalendarLookahead:   envDuration("CALENDAR_LOOKAHEAD", 180*24*time.Hour),
		CalendarTokenBuffer: envDuration("CALENDAR_TOKEN_BUFFER", 5*time.Minute),

		// Email (RESEND_API_KEY optional in development, required in production)
		EmailFrom:    envString("EMAIL_FROM", "noreply@example.com"),
		ResendAPIKey: envString("RESEND_API_KEY", ""),
		EmailLogOnly: envBool("EMAIL_LOG_ONLY", envString("APP_ENV", "development") == "development"),

		// Observability
		SentryDSN: envString("SENTRY_DSN", ""),

		// Storage (S3-compatible - required for avatar uploads)
		S3Region:        envRequired("S3_REGION"),
		S3Bucket:        envRequired("S3_BUCKET"),
		S3AccessKey:     envRequired("S3_ACCESS_KEY"),
		S3SecretKey:     envRequired("S3_SECRET_KEY"),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3PresignExpiry: envDuration("S3_PRESIGN_EXPIRY", 168*time.Hour),
	}

	// Production: validate required services
	if cfg.IsProduction() {
		validateProduction(cfg)
	}

	return cfg
}

// LoadDatabase reads only what command line tools need to reach the
// database, so they run without the server's required settings.
func LoadDatabase() *Config {
	err := godotenv.Load()
	if err != nil {
		slog.Debug("no .env file found, using environment variables")
	}

	return &Config{
		AppName:         envString("APP_NAME", "Finboard"),
		AppEnv:          envString("APP_ENV", "development"),
		DefaultTimezone: envString("DEFAULT_TIMEZONE", "America/Sao_Paulo"),
		DBDriver:        envString("DB_DRIVER", "sqlite"),
		DBConnection:    envString("DB_CONNECTION", "./data/finboard.db"),
	}
}

// validateProduction ensures all required services are configured for production deployments.
// Development allows email to run in log mode.
func validateProduction(cfg *Config) {
	if cfg.ResendAPIKey == "" && !cfg.EmailLogOnly {
		slog.Error("production deployment requires RESEND_API_KEY",
			"hint", "set APP_ENV=development for local testing with email log mode")
		os.Exit(1)
	}
}

func envString(key, def string) string {
	value := os.Getenv(key)
	if value == "" {
		value = def
	}
	return value
}

func envBool(key string, def bool) bool {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		slog.Warn("config invalid bool, using default", "key", key, "value", v, "default", def)
		return def
	}
	return b
}

func envDuration(key string, def time.Duration) time.Duration {
	v, ok := os.LookupEnv(key)
	if !ok || v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		slog.Warn("config invalid duration, using default", "key", key, "value", v, "default", def)
		return def
	}
	return d
}

func envRequired(key string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	slog.Error("config required env var missing", "key", key)
	os.Exit(1)
	return ""
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}

func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

// CalendarConfigured reports whether the Google OAuth client is set up.
func (c *Config) CalendarConfigured() bool {
	return c.GoogleClientID != "" && c.GoogleClientSecret != ""
}

// Sanitized returns a copy of the config with only public/safe fields.
// All secrets, credentials, and sensitive data are excluded.
func (c *Config) Sanitized() *Config {
	return &Config{
		AppName:           c.AppName,
		AppEnv:            c.AppEnv,
		AppURL:            c.AppURL,
		Port:              c.Port,
		SupportEmail:      c.SupportEmail,
		DefaultTimezone:   c.DefaultTimezone,
		CORSAllowedOrigin: c.CORSAllowedOrigin,

		EmailFrom: c.EmailFrom,

		GoogleClientID:   c.GoogleClientID,
		GoogleCalendarID: c.GoogleCalendarID,

		S3Endpoint: c.S3Endpoint, // Needed for CSP policies
	}
}
