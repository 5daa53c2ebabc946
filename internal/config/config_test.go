package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("JWT_EXPIRY", "")

	cfg := Load()
	assert.Equal(t, 24, cfg.JWTExpiry)
	assert.False(t, cfg.UseDatabase())
	assert.Equal(t, []string{"http://localhost:3000", "http://localhost:5173"}, cfg.AllowedOrigins)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost/desk")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("JWT_EXPIRY", "2")
	t.Setenv("AUTO_MIGRATE", "no")
	t.Setenv("EMAIL_PROVIDER", "SendGrid")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,https://b.example")

	cfg := Load()
	assert.True(t, cfg.UseDatabase())
	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 2, cfg.JWTExpiry)
	assert.False(t, cfg.AutoMigrate)
	assert.Equal(t, "sendgrid", cfg.EmailProvider)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
}

func TestInvalidIntFallsBack(t *testing.T) {
	t.Setenv("SMTP_PORT", "not-a-port")
	assert.Equal(t, 587, Load().SMTPPort)
}
