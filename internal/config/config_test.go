package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"campuslink/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleConfig = `
version = 1

[server]
port = "9090"

[clock]
timezone = "Asia/Seoul"

[shuttle]
lead_window_minutes = 30
cooldown_seconds = 60
penalty_backend = "redis"

[[shuttle.routes]]
name = "station"
directions = ["to_campus", "to_station"]
weekday_times = ["08:10", "08:40"]
weekend_times = ["10:00"]
capacity = 45
`

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFile(t *testing.T) {
	cfg, err := config.Load(writeConfig(t, sampleConfig))
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, config.PenaltyBackendRedis, cfg.Shuttle.PenaltyBackend)
	require.Len(t, cfg.Shuttle.Routes, 1)
	route := cfg.Shuttle.Routes[0]
	assert.Equal(t, "station", route.Name)
	assert.Equal(t, []string{"to_campus", "to_station"}, route.Directions)
	assert.Equal(t, []string{"08:10", "08:40"}, route.WeekdayTimes)
	assert.Equal(t, 45, route.Capacity)

	// Defaults survive for keys the file leaves out
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://campus@db/campuslink")
	t.Setenv("PORT", "7000")
	t.Setenv("SHUTTLE_COOLDOWN_SECONDS", "120")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "postgres://campus@db/campuslink", cfg.Database.DSN)
	assert.Equal(t, "7000", cfg.Server.Port)
	assert.Equal(t, 120, cfg.Shuttle.CooldownSeconds)
}

func TestLoadRejectsMissingVersion(t *testing.T) {
	_, err := config.Load(writeConfig(t, "[server]\nport = \"1\"\n"))
	assert.ErrorIs(t, err, config.ErrConfigVersionMissing)
}

func TestLoadRejectsVersionMismatch(t *testing.T) {
	_, err := config.Load(writeConfig(t, "version = 7\n"))
	assert.ErrorIs(t, err, config.ErrConfigVersionMismatch)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown backend", func(c *config.Config) { c.Shuttle.PenaltyBackend = "disk" }},
		{"unknown mode", func(c *config.Config) { c.Server.Mode = "prod" }},
		{"no timezone", func(c *config.Config) { c.Clock.Timezone = "" }},
		{"zero lead window", func(c *config.Config) { c.Shuttle.LeadWindowMinutes = 0 }},
		{"route without directions", func(c *config.Config) {
			c.Shuttle.Routes = []config.ShuttleRoute{{Name: "station"}}
		}},
		{"duplicate route", func(c *config.Config) {
			r := config.ShuttleRoute{Name: "station", Directions: []string{"up"}}
			c.Shuttle.Routes = []config.ShuttleRoute{r, r}
		}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			cfg := config.Default()
			tt.mutate(cfg)
			assert.ErrorIs(t, cfg.Validate(), config.ErrInvalidConfig)
		})
	}

	assert.NoError(t, config.Default().Validate())
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := config.Load(filepath.Join("..", "..", "config.example.toml"))
	require.NoError(t, err)
	assert.Equal(t, config.PenaltyBackendMemory, cfg.Shuttle.PenaltyBackend)
	assert.Len(t, cfg.Shuttle.Routes, 2)
}
