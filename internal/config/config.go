package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

var (
	ErrConfigVersionMissing  = errors.New("config file is missing version field")
	ErrConfigVersionMismatch = errors.New("config file version mismatch")
	ErrInvalidConfig         = errors.New("invalid config")
)

// CurrentVersion is the version of the config file layout.
const CurrentVersion = 1

// Penalty backends for shuttle cancellation cooldowns.
const (
	PenaltyBackendMemory = "memory"
	PenaltyBackendRedis  = "redis"
)

// Config represents the entire application configuration.
type Config struct {
	Version  int      `koanf:"version"`
	Server   Server   `koanf:"server"`
	Database Database `koanf:"database"`
	Redis    Redis    `koanf:"redis"`
	Log      Log      `koanf:"log"`
	Clock    Clock    `koanf:"clock"`
	Shuttle  Shuttle  `koanf:"shuttle"`
}

// Server contains HTTP listener configuration.
type Server struct {
	Port string `koanf:"port"` // Listen port
	Mode string `koanf:"mode"` // gin mode (debug, release, test)
}

// Database contains PostgreSQL connection configuration.
type Database struct {
	DSN      string `koanf:"dsn"`       // PostgreSQL DSN
	LogLevel string `koanf:"log_level"` // gorm log level (silent, error, warn, info)
}

// Redis contains Redis connection configuration.
type Redis struct {
	Addr     string `koanf:"addr"`     // host:port
	Username string `koanf:"username"` // Redis username
	Password string `koanf:"password"` // Redis password
	DB       int    `koanf:"db"`       // Database index
}

// Log contains logger configuration.
type Log struct {
	Level       string `koanf:"level"`       // debug, info, warn, error
	Development bool   `koanf:"development"` // Human readable console output
}

// Clock pins the timezone that defines "today" for every day-boundary rule.
type Clock struct {
	Timezone string `koanf:"timezone"`
}

// Shuttle contains the reservation window rules and the timetable.
type Shuttle struct {
	LeadWindowMinutes int            `koanf:"lead_window_minutes"` // Booking opens this long before departure
	CooldownSeconds   int            `koanf:"cooldown_seconds"`    // Penalty after a cancellation
	PenaltyBackend    string         `koanf:"penalty_backend"`     // memory or redis
	Routes            []ShuttleRoute `koanf:"routes"`
}

// ShuttleRoute is one line of the shuttle timetable.
type ShuttleRoute struct {
	Name         string   `koanf:"name"`
	Directions   []string `koanf:"directions"`
	WeekdayTimes []string `koanf:"weekday_times"` // HH:MM departures Monday to Friday
	WeekendTimes []string `koanf:"weekend_times"` // HH:MM departures Saturday and Sunday
	Capacity     int      `koanf:"capacity"`      // 0 means unbounded
}

// Default returns the configuration used when no file overrides a value.
func Default() *Config {
	return &Config{
		Version: CurrentVersion,
		Server: Server{
			Port: "8080",
			Mode: "release",
		},
		Database: Database{
			DSN:      "host=localhost user=postgres password=postgres dbname=campuslink port=5432 sslmode=disable TimeZone=Asia/Seoul",
			LogLevel: "warn",
		},
		Redis: Redis{
			Addr: "localhost:6379",
		},
		Log: Log{
			Level: "info",
		},
		Clock: Clock{
			Timezone: "Asia/Seoul",
		},
		Shuttle: Shuttle{
			LeadWindowMinutes: 30,
			CooldownSeconds:   60,
			PenaltyBackend:    PenaltyBackendMemory,
		},
	}
}

// Load reads the TOML file at path on top of the defaults, then applies
// .env and environment overrides. An empty path skips the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		k := koanf.New(".")
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		cfg.Version = 0
		if err := k.Unmarshal("", cfg); err != nil {
			return nil, fmt.Errorf("error unmarshaling config: %w", err)
		}
		if err := checkVersion(cfg.Version); err != nil {
			return nil, err
		}
	}

	// Missing .env is normal outside local development
	_ = godotenv.Load()
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.DSN = v
	}
	if v := os.Getenv("REDIS_URL"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := os.Getenv("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := os.Getenv("PORT"); v != "" {
		cfg.Server.Port = v
	}
	if v := os.Getenv("CAMPUS_TIMEZONE"); v != "" {
		cfg.Clock.Timezone = v
	}
	if v := os.Getenv("SHUTTLE_PENALTY_BACKEND"); v != "" {
		cfg.Shuttle.PenaltyBackend = v
	}
	if v := os.Getenv("SHUTTLE_COOLDOWN_SECONDS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Shuttle.CooldownSeconds = n
		}
	}
}

// Validate checks values that would otherwise break the reservation rules.
func (c *Config) Validate() error {
	if c.Clock.Timezone == "" {
		return fmt.Errorf("%w: clock.timezone is required", ErrInvalidConfig)
	}
	if c.Shuttle.LeadWindowMinutes <= 0 {
		return fmt.Errorf("%w: shuttle.lead_window_minutes must be positive", ErrInvalidConfig)
	}
	if c.Shuttle.CooldownSeconds < 0 {
		return fmt.Errorf("%w: shuttle.cooldown_seconds must not be negative", ErrInvalidConfig)
	}
	switch c.Server.Mode {
	case "debug", "release", "test":
	default:
		return fmt.Errorf("%w: unknown server.mode %q", ErrInvalidConfig, c.Server.Mode)
	}
	switch c.Shuttle.PenaltyBackend {
	case PenaltyBackendMemory, PenaltyBackendRedis:
	default:
		return fmt.Errorf("%w: unknown shuttle.penalty_backend %q", ErrInvalidConfig, c.Shuttle.PenaltyBackend)
	}
	seen := make(map[string]bool, len(c.Shuttle.Routes))
	for _, r := range c.Shuttle.Routes {
		if r.Name == "" {
			return fmt.Errorf("%w: shuttle route without name", ErrInvalidConfig)
		}
		if seen[r.Name] {
			return fmt.Errorf("%w: duplicate shuttle route %q", ErrInvalidConfig, r.Name)
		}
		seen[r.Name] = true
		if len(r.Directions) == 0 {
			return fmt.Errorf("%w: shuttle route %q has no directions", ErrInvalidConfig, r.Name)
		}
		if r.Capacity < 0 {
			return fmt.Errorf("%w: shuttle route %q has negative capacity", ErrInvalidConfig, r.Name)
		}
	}
	return nil
}

func checkVersion(current int) error {
	if current == 0 {
		return ErrConfigVersionMissing
	}
	if current != CurrentVersion {
		return fmt.Errorf("%w (got: %d, expected: %d)", ErrConfigVersionMismatch, current, CurrentVersion)
	}
	return nil
}
