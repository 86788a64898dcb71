package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("APP_ENV", "dev")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 15*time.Minute, cfg.JWTAccessTTL)
	assert.Equal(t, "/static/uploads", cfg.StaticURLBase)
	assert.Equal(t, 5, cfg.SubmitRatePerMinute)
	assert.False(t, cfg.GoogleEnabled())
}

func TestLoad_ProdRequiresSecrets(t *testing.T) {
	t.Setenv("APP_ENV", "production")
	t.Setenv("COOKIE_SECURE", "true")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_SECRET")
}

func TestLoad_InvalidDuration(t *testing.T) {
	t.Setenv("JWT_ACCESS_TTL", "soon")

	_, err := Load()
	assert.ErrorContains(t, err, "JWT_ACCESS_TTL")
}

func TestLoad_SameSiteNoneNeedsSecure(t *testing.T) {
	t.Setenv("COOKIE_SAMESITE", "None")
	t.Setenv("COOKIE_SECURE", "false")

	_, err := Load()
	assert.ErrorContains(t, err, "COOKIE_SECURE")
}

func TestLoad_GoogleNeedsSecret(t *testing.T) {
	t.Setenv("GOOGLE_CLIENT_ID", "client")

	_, err := Load()
	assert.ErrorContains(t, err, "GOOGLE_CLIENT_SECRET")
}

func TestLoad_CORSOrigins(t *testing.T) {
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://workspots.app, ,https://admin.workspots.app")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, []string{"https://workspots.app", "https://admin.workspots.app"}, cfg.CORSAllowedOrigins)
}
