package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	AppEnv         string `envconfig:"APP_ENV" default:"development"`
	Port           string `envconfig:"PORT" default:"8080"`
	AllowedOrigins string `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:3000"`
	LogLevel       string `envconfig:"LOG_LEVEL" default:"info"`
	LogFormat      string `envconfig:"LOG_FORMAT" default:"text"`

	DBHost     string `envconfig:"DB_HOST" default:"localhost"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" default:"postgres"`
	DBPassword string `envconfig:"DB_PASS"`
	DBName     string `envconfig:"DB_NAME" default:"contentscore"`
	DBSSLMode  string `envconfig:"DB_SSLMODE" default:"disable"`
	DBMaxConns int    `envconfig:"DB_MAX_CONNS" default:"20"`

	// Empty disables the distributed lock, notification fan-out and the leaderboard cache.
	RedisURL string `envconfig:"REDIS_URL"`

	JWTSecret string `envconfig:"JWT_SECRET" required:"true"`
	// bcrypt hash of the key the posting subsystem sends in X-Internal-Key.
	InternalKeyHash string `envconfig:"INTERNAL_API_KEY_HASH" required:"true"`

	LockTimeout   time.Duration `envconfig:"LOCK_TIMEOUT" default:"5s"`
	LockTTL       time.Duration `envconfig:"LOCK_TTL" default:"30s"`
	RecomputeCron string        `envconfig:"RECOMPUTE_CRON" default:"5 0 * * *"`

	Scoring ScoringConfig `envconfig:"SCORING"`
}

// ScoringConfig holds the point constants. They are read once at startup.
type ScoringConfig struct {
	BasePoints       int    `envconfig:"BASE_POINTS" default:"10"`
	FirstPostBonus   int    `envconfig:"FIRST_POST_BONUS" default:"25"`
	StreakMultiplier int    `envconfig:"STREAK_MULTIPLIER" default:"2"`
	StreakWindowDays int    `envconfig:"STREAK_WINDOW_DAYS" default:"30"`
	WeeklyWindowDays int    `envconfig:"WEEKLY_WINDOW_DAYS" default:"7"`
	Timezone         string `envconfig:"TIMEZONE" default:"UTC"`
}

// Location resolves the reference zone used for every calendar-day comparison.
func (s ScoringConfig) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(s.Timezone)
	if err != nil {
		return nil, fmt.Errorf("invalid SCORING_TIMEZONE %q: %w", s.Timezone, err)
	}
	return loc, nil
}

func Load() (*Config, error) {
	// Don't fail if .env doesn't exist (might be prod env vars)
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.JWTSecret == "" || c.InternalKeyHash == "" {
		return errors.New("JWT_SECRET and INTERNAL_API_KEY_HASH must be set")
	}
	if c.DBMaxConns <= 0 {
		return errors.New("DB_MAX_CONNS must be > 0")
	}
	if c.LockTimeout <= 0 || c.LockTTL <= 0 {
		return errors.New("LOCK_TIMEOUT and LOCK_TTL must be > 0")
	}
	s := c.Scoring
	if s.BasePoints < 0 || s.FirstPostBonus < 0 || s.StreakMultiplier < 0 {
		return errors.New("scoring points must not be negative")
	}
	if s.StreakWindowDays < 1 || s.WeeklyWindowDays < 1 {
		return errors.New("SCORING_STREAK_WINDOW_DAYS and SCORING_WEEKLY_WINDOW_DAYS must be >= 1")
	}
	if _, err := s.Location(); err != nil {
		return err
	}
	return nil
}

// DatabaseDSN returns the Postgres connection string.
func (c *Config) DatabaseDSN() string {
	return fmt.Sprintf(
		"host=%s user=%s password=%s dbname=%s port=%d sslmode=%s TimeZone=UTC",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode,
	)
}

func (c *Config) IsDevelopment() bool {
	return c.AppEnv == "development"
}
