// Package config loads application configuration from environment variables.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers understood by StorageDriver.
const (
	DriverMinio  = "minio"
	DriverMemory = "memory"
)

// DefaultPathExpiration is used when PATH_EXPIRATION_TIME is unset or unparsable.
const DefaultPathExpiration = 24 * time.Hour

// MaxPathExpiration is the longest lifetime an S3 presigned URL may have.
const MaxPathExpiration = 7 * 24 * time.Hour

// Config holds all runtime configuration for the service. It is built once at
// startup and never mutated afterwards.
type Config struct {
	Port      string
	AppEnv    string
	LogLevel  string
	JWTSecret string

	// Object storage (S3-compatible; "memory" keeps objects in process for local runs)
	StorageDriver    string
	StorageEndpoint  string
	StorageAccessKey string
	StorageSecretKey string
	StorageBucket    string
	StorageRegion    string
	StorageUseSSL    bool

	// Presigned access
	PathExpiration time.Duration
	ProxyPath      string // public path prefix the reverse proxy maps onto the store, e.g. "/api/media"
	RewriteDomain  string // optional public scheme+host substituted into issued URLs

	EventGatewayURL string
	MaxUploadBytes  int64
}

// Load reads configuration from a .env file (if present) and environment variables.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("no .env file found, reading from environment")
	}

	cfg := &Config{
		Port:      getEnv("PORT", "8080"),
		AppEnv:    getEnv("APP_ENV", "development"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		JWTSecret: getEnv("JWT_SECRET", "change_me_in_production"),

		StorageDriver:    getEnv("STORAGE_DRIVER", DriverMinio),
		StorageEndpoint:  getEnv("STORAGE_ENDPOINT", "localhost:9000"),
		StorageAccessKey: getEnv("STORAGE_ACCESS_KEY", "minioadmin"),
		StorageSecretKey: getEnv("STORAGE_SECRET_KEY", "minioadmin"),
		StorageBucket:    getEnv("STORAGE_BUCKET", "media-data"),
		StorageRegion:    getEnv("STORAGE_REGION", "eu-central-1"),
		StorageUseSSL:    getEnv("STORAGE_USE_SSL", "false") == "true",

		ProxyPath:     lookupEnv("PROXY_PATH", "/api/media"),
		RewriteDomain: getEnv("REWRITE_DOMAIN", ""),

		EventGatewayURL: getEnv("EVENT_GATEWAY_URL", "http://localhost:3500"),
	}

	cfg.PathExpiration = DefaultPathExpiration
	if raw := getEnv("PATH_EXPIRATION_TIME", ""); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil {
			slog.Warn("PATH_EXPIRATION_TIME is not a number, using the default",
				"value", raw, "default", DefaultPathExpiration)
		} else {
			cfg.PathExpiration = time.Duration(seconds) * time.Second
		}
	}

	var err error
	cfg.MaxUploadBytes, err = strconv.ParseInt(getEnv("MAX_UPLOAD_BYTES", "33554432"), 10, 64)
	if err != nil {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks value ranges that the storage layer would otherwise reject at request time.
func (c *Config) Validate() error {
	if c.PathExpiration < time.Second || c.PathExpiration > MaxPathExpiration {
		return fmt.Errorf("PATH_EXPIRATION_TIME must be between 1 and %d seconds", int(MaxPathExpiration.Seconds()))
	}
	if c.MaxUploadBytes <= 0 {
		return errors.New("MAX_UPLOAD_BYTES must be positive")
	}
	switch c.StorageDriver {
	case DriverMinio, DriverMemory:
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.StorageDriver)
	}
	if c.RewriteDomain != "" {
		u, err := url.Parse(c.RewriteDomain)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("REWRITE_DOMAIN must be an absolute http(s) URL, got %q", c.RewriteDomain)
		}
		// Only scheme and host replace the store's; a path would be dropped.
		if (u.Path != "" && u.Path != "/") || u.RawQuery != "" || u.Fragment != "" {
			return fmt.Errorf("REWRITE_DOMAIN must not carry a path or query, got %q", c.RewriteDomain)
		}
	}
	return nil
}

// IsProduction returns true when the app is running in production mode.
func (c *Config) IsProduction() bool {
	return c.AppEnv == "production"
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// lookupEnv differs from getEnv in that an explicitly empty value is kept.
func lookupEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}
