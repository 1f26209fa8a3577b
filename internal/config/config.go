// Package config reads runtime settings from the environment.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/neexbeast/routecost/internal/storage"
)

// Config holds every setting shared by the server and the CLI.
type Config struct {
	ClientID     string
	ClientSecret string

	DBDriver    string
	DBPath      string
	DatabaseURL string

	RedisURL        string
	GeocodeCacheTTL time.Duration

	BearerToken string
	Port        string
	HTTPTimeout time.Duration
}

// LoadDotEnv reads a .env file into the environment if one exists.
// Variables already set are not overridden.
func LoadDotEnv(path string) error {
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// Load reads the configuration from the environment and validates the store settings.
// Provider credentials are checked by RequireProvider, the bearer token by RequireBearer.
func Load() (Config, error) {
	cfg := Config{
		ClientID:     os.Getenv("NCP_CLIENT_ID"),
		ClientSecret: os.Getenv("NCP_CLIENT_SECRET"),
		DBDriver:     getEnv("DB_DRIVER", storage.DriverSQLite),
		DBPath:       getEnv("DB_PATH", storage.DefaultSQLitePath),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		RedisURL:     os.Getenv("REDIS_URL"),
		BearerToken:  os.Getenv("BEARER_TOKEN"),
		Port:         getEnv("PORT", "8080"),
	}

	var err error
	if cfg.GeocodeCacheTTL, err = durationEnv("GEOCODE_CACHE_TTL", 24*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.HTTPTimeout, err = durationEnv("HTTP_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}

	switch cfg.DBDriver {
	case storage.DriverSQLite:
	case storage.DriverPostgres:
		if cfg.DatabaseURL == "" {
			return Config{}, missing("DATABASE_URL")
		}
	default:
		return Config{}, fmt.Errorf("DB_DRIVER must be %q or %q, got %q", storage.DriverSQLite, storage.DriverPostgres, cfg.DBDriver)
	}

	return cfg, nil
}

// RequireProvider reports a missing provider credential.
func (c Config) RequireProvider() error {
	if c.ClientID == "" {
		return missing("NCP_CLIENT_ID")
	}
	if c.ClientSecret == "" {
		return missing("NCP_CLIENT_SECRET")
	}
	return nil
}

// RequireBearer reports a missing API token.
func (c Config) RequireBearer() error {
	if c.BearerToken == "" {
		return missing("BEARER_TOKEN")
	}
	return nil
}

// DSN returns the store location for the configured driver.
func (c Config) DSN() string {
	if c.DBDriver == storage.DriverPostgres {
		return c.DatabaseURL
	}
	return c.DBPath
}

func missing(key string) error {
	return fmt.Errorf("required environment variable %s not set", key)
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func durationEnv(key string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", key, err)
	}
	return d, nil
}
