// Package config provides application configuration loaded from environment
// variables with defaults and validation. It centralizes application settings
// such as server timeouts, logging, the database path, mail transport
// credentials, notification recipients, retry policy, and the bootstrap
// administrator account.
package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// CORSConfig defines Cross-Origin Resource Sharing settings.
type CORSConfig struct {
	AllowedOrigins []string
}

// SecurityConfig defines security-related settings such as HSTS.
type SecurityConfig struct {
	EnableHSTS bool
	HSTSMaxAge time.Duration
}

// SMTPConfig defines the mail transport connection settings.
type SMTPConfig struct {
	Host     string // SMTP_HOST
	Port     int    // SMTP_PORT
	Username string // SMTP_USERNAME
	Password string // SMTP_PASSWORD
	From     string // SMTP_FROM (sender address)
}

// NotifyConfig defines recipients and retry policy for the notification
// dispatcher. Two fixed internal recipient sets exist for finalization
// (one per scenario) plus a single redirect recipient with a hard-coded
// fallback.
type NotifyConfig struct {
	UpheldTo    []string // NOTIFY_UPHELD_TO
	UpheldCC    []string // NOTIFY_UPHELD_CC
	DismissedTo []string // NOTIFY_DISMISSED_TO
	DismissedCC []string // NOTIFY_DISMISSED_CC

	RedirectTo string   // NOTIFY_REDIRECT_TO (falls back to quality inbox)
	RedirectCC []string // NOTIFY_REDIRECT_CC

	// MaxAttempts caps the dispatch retry loop; BaseDelay is the wait
	// after the first failure and doubles after each subsequent one.
	MaxAttempts int           // NOTIFY_MAX_ATTEMPTS
	BaseDelay   time.Duration // NOTIFY_BASE_DELAY
}

// AdminConfig holds the bootstrap administrator credentials applied by the
// startup reconciliation step. Password is mandatory outside development.
type AdminConfig struct {
	Code     string // ADMIN_CODE
	Email    string // ADMIN_EMAIL
	Password string // ADMIN_PASSWORD
}

// Config holds all configuration values for the application.
type Config struct {
	// Server
	Port              string        // just the number
	ReadTimeout       time.Duration // e.g. 15s
	ReadHeaderTimeout time.Duration // e.g. 10s
	WriteTimeout      time.Duration // e.g. 20s
	IdleTimeout       time.Duration // e.g. 60s
	MaxHeaderBytes    int           // bytes
	GinMode           string        // debug|release|test

	// Environment / logging
	Env         string // development|production
	LogLevel    string // debug|info|warn|error|fatal|panic
	LogPretty   bool   // pretty console logs in dev
	APIBasePath string // base path for API routes

	// App
	DBPath string // SQLite path

	// Rate limiting
	RateRPS   float64 // tokens per second (>= 0)
	RateBurst int     // bucket size (>= 1)

	// Web protection
	CORS     CORSConfig
	Security SecurityConfig

	// Mail / notifications
	SMTP   SMTPConfig
	Notify NotifyConfig
	Admin  AdminConfig
}

// IsProduction reports whether the service runs in the production environment.
func (c Config) IsProduction() bool { return c.Env == "production" }

// MustLoad loads the configuration and panics if validation fails.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// Load reads configuration from environment variables,
// applies defaults, normalizes values, and validates the result.
func Load() (Config, error) {
	cfg := Config{
		// Server
		Port:              getenv("PORT", "8080"),
		ReadTimeout:       getdur("READ_TIMEOUT", 15*time.Second),
		ReadHeaderTimeout: getdur("READ_HEADER_TIMEOUT", 10*time.Second),
		WriteTimeout:      getdur("WRITE_TIMEOUT", 20*time.Second),
		IdleTimeout:       getdur("IDLE_TIMEOUT", 60*time.Second),
		MaxHeaderBytes:    getint("MAX_HEADER_BYTES", 1<<20),
		GinMode:           strings.ToLower(getenv("GIN_MODE", "release")),

		// Environment / logging
		Env:         strings.ToLower(getenv("APP_ENV", "development")),
		LogLevel:    strings.ToLower(getenv("LOG_LEVEL", "info")),
		LogPretty:   getbool("LOG_PRETTY", false),
		APIBasePath: normalizeBasePath(getenv("API_BASE_PATH", "/api/v1")),

		// App
		DBPath: getenv("DB_PATH", "sat.db"),

		// Rate limiting
		RateRPS:   getfloat("RATE_RPS", 5.0),
		RateBurst: getint("RATE_BURST", 10),

		// Web protection
		CORS: CORSConfig{
			AllowedOrigins: splitCSV(getenv("CORS_ALLOWED_ORIGINS", "")),
		},
		Security: SecurityConfig{
			EnableHSTS: getbool("ENABLE_HSTS", false),
			HSTSMaxAge: getdur("HSTS_MAX_AGE", 180*24*time.Hour),
		},

		// Mail transport
		SMTP: SMTPConfig{
			Host:     getenv("SMTP_HOST", "localhost"),
			Port:     getint("SMTP_PORT", 587),
			Username: getenv("SMTP_USERNAME", ""),
			Password: getenv("SMTP_PASSWORD", ""),
			From:     getenv("SMTP_FROM", "sat@maza.com.br"),
		},

		// Notification recipients and retry policy
		Notify: NotifyConfig{
			UpheldTo:    splitCSV(getenv("NOTIFY_UPHELD_TO", "ti@maza.com.br")),
			UpheldCC:    splitCSV(getenv("NOTIFY_UPHELD_CC", "marcos.zamarque@maza.com.br")),
			DismissedTo: splitCSV(getenv("NOTIFY_DISMISSED_TO", "joao.carvalho@maza.com.br")),
			DismissedCC: splitCSV(getenv("NOTIFY_DISMISSED_CC", "gabriel.moretti@maza.com.br")),
			RedirectTo:  getenv("NOTIFY_REDIRECT_TO", "ti@maza.com.br"),
			RedirectCC:  splitCSV(getenv("NOTIFY_REDIRECT_CC", "joao.carvalho@maza.com.br")),
			MaxAttempts: getint("NOTIFY_MAX_ATTEMPTS", 3),
			BaseDelay:   getdur("NOTIFY_BASE_DELAY", 2*time.Second),
		},

		// Bootstrap administrator
		Admin: AdminConfig{
			Code:     getenv("ADMIN_CODE", "00000001"),
			Email:    getenv("ADMIN_EMAIL", "admin@maza.com.br"),
			Password: getenv("ADMIN_PASSWORD", ""),
		},
	}

	// --- normalization ---
	if cfg.LogLevel == "warning" {
		cfg.LogLevel = "warn"
	}
	switch cfg.GinMode {
	case "debug", "release", "test":
	default:
		cfg.GinMode = "release"
	}

	// --- validation ---
	switch cfg.Env {
	case "development", "production":
	default:
		return cfg, errors.New("APP_ENV must be one of: development, production")
	}
	switch cfg.LogLevel {
	case "debug", "info", "warn", "error", "fatal", "panic":
	default:
		return cfg, errors.New("LOG_LEVEL must be one of: debug, info, warn, error, fatal, panic")
	}
	if strings.TrimSpace(cfg.Port) == "" {
		return cfg, errors.New("PORT must not be empty")
	}
	if cfg.ReadTimeout <= 0 || cfg.ReadHeaderTimeout <= 0 || cfg.WriteTimeout <= 0 || cfg.IdleTimeout <= 0 {
		return cfg, errors.New("timeouts must be positive durations")
	}
	if cfg.MaxHeaderBytes <= 0 {
		return cfg, errors.New("MAX_HEADER_BYTES must be > 0")
	}
	if strings.TrimSpace(cfg.DBPath) == "" {
		return cfg, errors.New("DB_PATH must not be empty")
	}
	if cfg.RateRPS < 0 {
		return cfg, errors.New("RATE_RPS must be >= 0")
	}
	if cfg.RateBurst < 1 {
		return cfg, errors.New("RATE_BURST must be >= 1")
	}
	if cfg.Security.HSTSMaxAge < 0 {
		return cfg, errors.New("HSTS_MAX_AGE must be >= 0")
	}
	if cfg.SMTP.Port < 1 || cfg.SMTP.Port > 65535 {
		return cfg, errors.New("SMTP_PORT must be a valid TCP port")
	}
	if cfg.Notify.MaxAttempts < 1 {
		return cfg, errors.New("NOTIFY_MAX_ATTEMPTS must be >= 1")
	}
	if cfg.Notify.BaseDelay <= 0 {
		return cfg, errors.New("NOTIFY_BASE_DELAY must be > 0")
	}
	if len(cfg.Notify.UpheldTo) == 0 || len(cfg.Notify.DismissedTo) == 0 {
		return cfg, errors.New("finalization recipient lists must not be empty")
	}
	if strings.TrimSpace(cfg.Admin.Code) == "" {
		return cfg, errors.New("ADMIN_CODE must not be empty")
	}
	// The bootstrap administrator must have an explicit password outside
	// development; the server refuses to start without one.
	if cfg.IsProduction() && strings.TrimSpace(cfg.Admin.Password) == "" {
		return cfg, errors.New("ADMIN_PASSWORD is required when APP_ENV=production")
	}

	return cfg, nil
}

// ---- helpers (no external deps) ----

func getenv(k, def string) string {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		return v
	}
	return def
}

func getfloat(k string, def float64) float64 {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return def
}

func getint(k string, def int) int {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func getbool(k string, def bool) bool {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "1", "true", "yes", "y", "on":
			return true
		case "0", "false", "no", "n", "off":
			return false
		}
	}
	return def
}

func getdur(k string, def time.Duration) time.Duration {
	if v, ok := os.LookupEnv(k); ok && v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return def
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		t := strings.TrimSpace(p)
		if t != "" {
			out = append(out, t)
		}
	}
	return out
}

// normalizeBasePath ensures leading '/' and strips trailing '/' (except root).
func normalizeBasePath(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return "/"
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	if len(p) > 1 && strings.HasSuffix(p, "/") {
		p = strings.TrimRight(p, "/")
	}
	return p
}
