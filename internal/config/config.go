// internal/config/config.go
package config

import (
	"os"
	"strconv"
	"strings"
)

type Config struct {
	Port          string
	Environment   string
	DatabaseURL   string
	RedisURL      string
	JWTSecret     string
	JWTExpiry     int
	RefreshExpiry int

	// Database
	DBMaxConns     int
	AutoMigrate    bool
	MigrationsPath string

	// CORS
	AllowedOrigins []string

	// Email configuration
	EmailProvider  string // "smtp", "sendgrid" or "" to disable
	SMTPHost       string
	SMTPPort       int
	SMTPUser       string
	SMTPPassword   string
	SMTPUseTLS     bool
	SendGridAPIKey string
	EmailFrom      string
	EmailFromName  string

	// Frontend URL for email links
	FrontendURL string

	SeedData bool
}

func Load() *Config {
	return &Config{
		Port:          getEnv("API_PORT", "8080"),
		Environment:   getEnv("ENVIRONMENT", "development"),
		DatabaseURL:   getEnv("DATABASE_URL", ""),
		RedisURL:      getEnv("REDIS_URL", ""),
		JWTSecret:     getEnv("JWT_SECRET", "your-secret-key"),
		JWTExpiry:     getEnvInt("JWT_EXPIRY", 24),
		RefreshExpiry: getEnvInt("REFRESH_EXPIRY", 7),

		DBMaxConns:     getEnvInt("DB_MAX_CONNS", 25),
		AutoMigrate:    getEnvBool("AUTO_MIGRATE", true),
		MigrationsPath: getEnv("MIGRATIONS_PATH", "./internal/db/migrations"),

		AllowedOrigins: getEnvList("CORS_ALLOWED_ORIGINS", []string{"http://localhost:3000", "http://localhost:5173"}),

		EmailProvider:  strings.ToLower(getEnv("EMAIL_PROVIDER", "")),
		SMTPHost:       getEnv("SMTP_HOST", ""),
		SMTPPort:       getEnvInt("SMTP_PORT", 587),
		SMTPUser:       getEnv("SMTP_USER", ""),
		SMTPPassword:   getEnv("SMTP_PASSWORD", ""),
		SMTPUseTLS:     getEnvBool("SMTP_USE_TLS", false),
		SendGridAPIKey: getEnv("SENDGRID_API_KEY", ""),
		EmailFrom:      getEnv("EMAIL_FROM", "noreply@stickydesk.app"),
		EmailFromName:  getEnv("EMAIL_FROM_NAME", "Sticky Desk"),

		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		SeedData: getEnvBool("SEED_DATA", false),
	}
}

// UseDatabase reports whether a Postgres URL is configured. Without one the
// server runs on in-memory repositories.
func (c *Config) UseDatabase() bool {
	return c.DatabaseURL != ""
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		return value == "true" || value == "1" || value == "yes"
	}
	return defaultValue
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}
