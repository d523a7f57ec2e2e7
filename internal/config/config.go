// Package config handles application configuration and environment loading.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// MongoDBSettings holds the target-deployment settings the provisioning
// services consume.
type MongoDBSettings struct {
	URI                  string   // MongoDB connection string
	UsersDatabase        string   // database holding user documents (default "admin")
	DeveloperRoles       []string // underlying roles the developer role inherits
	ConsumerActions      []string // actions granted to collection consumer roles
	UseCaseTemplateID    string   // expected template ID for parent components
	UseCaseTemplateSubID string   // expected template ID for subcomponents
}

// AuthConfig holds authentication configuration for the adapter API.
type AuthConfig struct {
	IssuerURL      string   // OIDC issuer URL for token verification
	JWKSURL        string   // override JWKS URL (if no .well-known discovery)
	JWTSecret      string   // HS256 shared secret for local/dev auth
	Audience       string   // required JWT audience claim
	AllowedIssuers []string // accepted issuers (defaults to [IssuerURL])
}

// Enabled returns true when any token validation mechanism is configured.
func (a *AuthConfig) Enabled() bool {
	return a.IssuerURL != "" || a.JWKSURL != "" || a.JWTSecret != ""
}

// Config holds the configuration for the tech adapter HTTP API.
type Config struct {
	ListenAddr string // HTTP listen address (default ":8093")
	LogLevel   string // log level: debug, info, warn, error (default "info")
	Env        string // environment: "development" (default) or "production"

	// Rate limiting
	RateLimitRPS   float64 // sustained requests per second (default 50)
	RateLimitBurst int     // burst capacity (default 100)

	// CORS
	CORSAllowedOrigins []string // allowed origins (default: ["*"])

	MongoDB MongoDBSettings
	Auth    AuthConfig

	// Warnings collects non-fatal warnings generated during config loading.
	// They are logged by the caller after the logger is initialised.
	Warnings []string
}

// SlogLevel maps the LogLevel string to an slog.Level.
func (c *Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// IsProduction returns true when the adapter runs in production mode.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Env, "production")
}

// LoadFromEnv loads configuration from environment variables.
func LoadFromEnv() (*Config, error) {
	cfg := &Config{
		ListenAddr: os.Getenv("LISTEN_ADDR"),
		LogLevel:   os.Getenv("LOG_LEVEL"),
		Env:        os.Getenv("ENV"),
		MongoDB: MongoDBSettings{
			URI:                  os.Getenv("MONGODB_URI"),
			UsersDatabase:        os.Getenv("MONGODB_USERS_DATABASE"),
			DeveloperRoles:       splitCSV(os.Getenv("MONGODB_DEVELOPER_ROLES")),
			ConsumerActions:      splitCSV(os.Getenv("MONGODB_CONSUMER_ACTIONS")),
			UseCaseTemplateID:    os.Getenv("USE_CASE_TEMPLATE_ID"),
			UseCaseTemplateSubID: os.Getenv("USE_CASE_TEMPLATE_SUB_ID"),
		},
		Auth: AuthConfig{
			IssuerURL: os.Getenv("AUTH_ISSUER_URL"),
			JWKSURL:   os.Getenv("AUTH_JWKS_URL"),
			JWTSecret: os.Getenv("JWT_SECRET"),
			Audience:  os.Getenv("AUTH_AUDIENCE"),
		},
	}

	if v := os.Getenv("RATE_LIMIT_RPS"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.RateLimitRPS = f
		}
	}
	if v := os.Getenv("RATE_LIMIT_BURST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RateLimitBurst = n
		}
	}
	if v := os.Getenv("CORS_ALLOWED_ORIGINS"); v != "" {
		cfg.CORSAllowedOrigins = splitCSV(v)
	}
	if v := os.Getenv("AUTH_ALLOWED_ISSUERS"); v != "" {
		cfg.Auth.AllowedIssuers = splitCSV(v)
	}

	// Defaults
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":8093"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.RateLimitRPS == 0 {
		cfg.RateLimitRPS = 50
	}
	if cfg.RateLimitBurst == 0 {
		cfg.RateLimitBurst = 100
	}
	if len(cfg.CORSAllowedOrigins) == 0 {
		cfg.CORSAllowedOrigins = []string{"*"}
	}
	if cfg.MongoDB.UsersDatabase == "" {
		cfg.MongoDB.UsersDatabase = "admin"
	}
	if len(cfg.MongoDB.DeveloperRoles) == 0 {
		cfg.MongoDB.DeveloperRoles = []string{"readWrite", "dbAdmin"}
	}
	if len(cfg.MongoDB.ConsumerActions) == 0 {
		cfg.MongoDB.ConsumerActions = []string{"find", "listCollections", "listIndexes"}
	}
	if !cfg.Auth.Enabled() {
		cfg.Warnings = append(cfg.Warnings, "no auth configured: set JWT_SECRET or AUTH_ISSUER_URL/AUTH_JWKS_URL")
	}

	// Required settings
	if cfg.MongoDB.URI == "" {
		return nil, fmt.Errorf("MONGODB_URI must be set")
	}
	if cfg.MongoDB.UseCaseTemplateID == "" {
		return nil, fmt.Errorf("USE_CASE_TEMPLATE_ID must be set")
	}
	if cfg.MongoDB.UseCaseTemplateSubID == "" {
		return nil, fmt.Errorf("USE_CASE_TEMPLATE_SUB_ID must be set")
	}

	// Production mode: insecure defaults are fatal errors.
	if cfg.IsProduction() {
		if !cfg.Auth.Enabled() {
			return nil, fmt.Errorf("auth must be configured in production (set JWT_SECRET, AUTH_ISSUER_URL, or AUTH_JWKS_URL)")
		}
		if len(cfg.CORSAllowedOrigins) == 1 && cfg.CORSAllowedOrigins[0] == "*" {
			return nil, fmt.Errorf("CORS wildcard (*) is not allowed in production (ENV=production)")
		}
	}

	return cfg, nil
}

func splitCSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
