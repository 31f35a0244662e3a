package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("DOCBOOK_JWT_SECRET", "s3cret")

	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 15*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, "s3cret", cfg.JWT.Secret)
	assert.Equal(t, 24*time.Hour, cfg.JWT.TTL())
	assert.Equal(t, 30*time.Minute, cfg.Booking.SlotStep())
	assert.Equal(t, time.UTC, cfg.Booking.Location())
	assert.Equal(t, []string{"*"}, cfg.CORS.AllowedOrigins)
	assert.Equal(t, 50, cfg.Outbox.BatchSize)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := t.TempDir()
	yaml := `
server:
  port: 9000
database:
  host: db.internal
  max_open_conns: 40
jwt:
  secret: from-file
booking:
  timezone: Europe/Berlin
  require_availability: true
outbox:
  poll_interval: 5s
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0o600))

	t.Setenv("DOCBOOK_DATABASE_HOST", "db.override")
	t.Setenv("DOCBOOK_RATE_LIMIT_BURST", "99")

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, "db.override", cfg.Database.Host)
	assert.Equal(t, 40, cfg.Database.MaxOpenConns)
	assert.Equal(t, "from-file", cfg.JWT.Secret)
	assert.True(t, cfg.Booking.RequireAvailability)
	assert.Equal(t, "Europe/Berlin", cfg.Booking.Location().String())
	assert.Equal(t, 5*time.Second, cfg.Outbox.PollInterval)
	assert.Equal(t, 99, cfg.RateLimit.Burst)
	assert.Contains(t, cfg.Database.DSN(), "host=db.override")
}

func TestLoadRequiresSecret(t *testing.T) {
	t.Setenv("DOCBOOK_JWT_SECRET", "")

	_, err := Load(t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jwt.secret")
}

func TestValidateTimezone(t *testing.T) {
	cfg := &Config{
		JWT:     JWTConfig{Secret: "x", ExpiryHours: 1},
		Booking: BookingConfig{Timezone: "Mars/Olympus", SlotMinutes: 30},
	}
	assert.Error(t, cfg.Validate())
}
