package config

import (
	"fmt"
	"time"

	pkgconfig "github.com/littleleg198602/MELODY4U/pkg/config"
)

// Config holds all configuration for the mix service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort int `env:"PORT" envDefault:"8787"`

	// S3-compatible object store. When the endpoint is unset but an account
	// ID is given, the R2 endpoint for that account is used.
	S3Endpoint        string `env:"S3_ENDPOINT"`
	S3AccountID       string `env:"S3_ACCOUNT_ID"`
	S3Bucket          string `env:"S3_BUCKET" envDefault:"melody4u"`
	S3AccessKeyID     string `env:"S3_ACCESS_KEY_ID"`
	S3SecretAccessKey string `env:"S3_SECRET_ACCESS_KEY"`
	S3UseSSL          bool   `env:"S3_USE_SSL" envDefault:"true"`

	// Mix pipeline
	FFmpegBinary  string        `env:"FFMPEG_BINARY" envDefault:"ffmpeg"`
	RenderTimeout time.Duration `env:"RENDER_TIMEOUT" envDefault:"10m"`

	// Kafka
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// CORS
	CORSOrigins []string `env:"CORS_ORIGINS" envDefault:"*" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load mix config: %w", err)
	}
	return cfg, nil
}

// StorageConfigured reports whether enough storage configuration is present
// to construct a store client. Missing credentials keep the service running
// with storage-backed endpoints disabled.
func (c *Config) StorageConfigured() bool {
	return c.S3AccessKeyID != "" && c.S3SecretAccessKey != "" && c.ResolvedS3Endpoint() != ""
}

// ResolvedS3Endpoint returns the configured endpoint, falling back to the
// account-scoped R2 endpoint when only an account ID is set.
func (c *Config) ResolvedS3Endpoint() string {
	if c.S3Endpoint != "" {
		return c.S3Endpoint
	}
	if c.S3AccountID != "" {
		return fmt.Sprintf("https://%s.r2.cloudflarestorage.com", c.S3AccountID)
	}
	return ""
}
