// Package config loads the service configuration from the environment.
package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config is the environment-driven configuration surface.
type Config struct {
	Port        string `env:"PORT" env-default:"8080"`
	Environment string `env:"ENVIRONMENT" env-default:"development"`

	// DatabaseURL selects the metadata store: empty or "memory" uses the
	// in-memory repository, a postgres:// URL uses the pgx repository.
	DatabaseURL string `env:"DATABASE_URL" env-default:""`

	// StorageURL selects the blob store: "memory://", "file:///path", or
	// "s3://bucket?region=us-east-1&endpoint=...&path_style=true".
	StorageURL string `env:"STORAGE_URL" env-default:"memory://"`

	AWSAccessKeyID     string `env:"AWS_ACCESS_KEY_ID" env-default:""`
	AWSSecretAccessKey string `env:"AWS_SECRET_ACCESS_KEY" env-default:""`

	MaxUploads int `env:"MAX_UPLOADS" env-default:"6"`

	ConversionServiceURL string        `env:"CONVERSION_SERVICE_URL" env-default:"http://localhost:9090"`
	ConversionTimeout    time.Duration `env:"CONVERSION_SERVICE_TIMEOUT" env-default:"5s"`

	BreakerFailureThreshold int           `env:"BREAKER_FAILURE_THRESHOLD" env-default:"50"`
	BreakerWindowSize       int           `env:"BREAKER_WINDOW_SIZE" env-default:"10"`
	BreakerMinRequests      int           `env:"BREAKER_MIN_REQUESTS" env-default:"5"`
	BreakerCoolDown         time.Duration `env:"BREAKER_COOLDOWN" env-default:"30s"`
}

// Load reads the configuration from the environment.
func Load() (*Config, error) {
	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	if c.MaxUploads <= 0 {
		return fmt.Errorf("MAX_UPLOADS must be positive, got %d", c.MaxUploads)
	}
	if c.BreakerFailureThreshold <= 0 || c.BreakerFailureThreshold > 100 {
		return fmt.Errorf("BREAKER_FAILURE_THRESHOLD must be in (0, 100], got %d", c.BreakerFailureThreshold)
	}
	if c.DatabaseURL != "" && c.DatabaseURL != "memory" &&
		!strings.HasPrefix(c.DatabaseURL, "postgres://") &&
		!strings.HasPrefix(c.DatabaseURL, "postgresql://") {
		return fmt.Errorf("unsupported DATABASE_URL format (use 'memory' or 'postgresql://...')")
	}
	return nil
}

// UseMemoryDatabase reports whether the in-memory repository should be used.
func (c *Config) UseMemoryDatabase() bool {
	return c.DatabaseURL == "" || c.DatabaseURL == "memory"
}

// StorageBackend describes the parsed STORAGE_URL.
type StorageBackend struct {
	Type      string // "memory", "fs" or "s3"
	BaseDir   string // fs only
	Bucket    string // s3 only
	Region    string // s3 only
	Endpoint  string // s3 only, for MinIO and friends
	PathStyle bool   // s3 only
}

// ParseStorageURL resolves STORAGE_URL into a backend description.
func (c *Config) ParseStorageURL() (*StorageBackend, error) {
	raw := c.StorageURL
	switch {
	case raw == "" || raw == "memory" || raw == "memory://":
		return &StorageBackend{Type: "memory"}, nil
	case strings.HasPrefix(raw, "file://"):
		path := strings.TrimPrefix(raw, "file://")
		if path == "" {
			return nil, fmt.Errorf("filesystem path cannot be empty in STORAGE_URL")
		}
		return &StorageBackend{Type: "fs", BaseDir: path}, nil
	case strings.HasPrefix(raw, "s3://"):
		u, err := url.Parse(raw)
		if err != nil {
			return nil, fmt.Errorf("parse STORAGE_URL: %w", err)
		}
		if u.Host == "" {
			return nil, fmt.Errorf("s3 bucket cannot be empty in STORAGE_URL")
		}
		q := u.Query()
		return &StorageBackend{
			Type:      "s3",
			Bucket:    u.Host,
			Region:    q.Get("region"),
			Endpoint:  q.Get("endpoint"),
			PathStyle: q.Get("path_style") == "true",
		}, nil
	}
	return nil, fmt.Errorf("unsupported STORAGE_URL format: %s (use 'memory://', 'file://...', or 's3://...')", raw)
}
