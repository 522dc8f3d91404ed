package config

import (
	"log"
	"sync"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all environment-driven settings for the service.
type Config struct {
	Port          string `env:"PORT" env-default:"8080"`
	Env           string `env:"GO_ENV" env-default:"development"`
	Domain        string `env:"DOMAIN" env-default:""`
	MongoURI      string `env:"MONGODB_URI"`
	MongoDB       string `env:"MONGODB_DB" env-default:"civicbridge"`
	RedisAddress  string `env:"REDIS_ADDRESS" env-default:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD" env-default:""`
	JWTSecret     string `env:"JWT_SECRET"`

	// Nominatim reverse-geocoding endpoint. Overridable for testing.
	NominatimBaseURL string `env:"NOMINATIM_BASE_URL" env-default:"https://nominatim.openstreetmap.org"`

	// Backfill policy: hard cap per listing request and pause between
	// consecutive provider calls (Nominatim allows ~1 req/sec).
	BackfillMaxPerRequest int `env:"BACKFILL_MAX_PER_REQUEST" env-default:"5"`
	BackfillPauseMs       int `env:"BACKFILL_PAUSE_MS" env-default:"1100"`

	// Per-user daily cap on issue submissions, enforced via Redis.
	IssueCreateDailyLimit int    `env:"ISSUE_CREATE_DAILY_LIMIT" env-default:"10"`
	IssueLimitKeyPrefix   string `env:"REDIS_ISSUE_LIMIT_PREFIX" env-default:"issue-limit"`
}

var (
	cfg     Config
	cfgOnce sync.Once
)

// Get loads the configuration from the environment once and returns it.
func Get() Config {
	cfgOnce.Do(func() {
		if err := cleanenv.ReadEnv(&cfg); err != nil {
			log.Fatalf("Failed to read configuration: %v", err)
		}
	})
	return cfg
}
