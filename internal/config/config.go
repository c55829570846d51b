package config

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/cloo-solutions/sophia/internal/domain"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Port  string `envconfig:"PORT" default:"8080"`
	Debug bool   `envconfig:"DEBUG" default:"false"`

	DatabaseURL string `envconfig:"DATABASE_URL" required:"true"`

	// Model endpoint (OpenRouter-compatible)
	APIKey     string        `envconfig:"API_KEY"`
	Model      string        `envconfig:"MODEL" default:"anthropic/claude-3.5-sonnet"`
	BaseURL    string        `envconfig:"BASE_URL" default:"https://openrouter.ai/api/v1"`
	MaxRetries int           `envconfig:"MAX_RETRIES" default:"3"`
	Timeout    time.Duration `envconfig:"TIMEOUT" default:"60s"`

	ChunkSize    int `envconfig:"CHUNK_SIZE" default:"800"`
	ChunkOverlap int `envconfig:"CHUNK_OVERLAP" default:"200"`

	OutputsDir string `envconfig:"OUTPUTS_DIR" default:"outputs"`
	HistoryDir string `envconfig:"HISTORY_DIR" default:"history"`

	// Optional S3 artifact mirror
	S3Endpoint  string `envconfig:"S3_ENDPOINT"`
	S3AccessKey string `envconfig:"S3_ACCESS_KEY_ID"`
	S3SecretKey string `envconfig:"S3_SECRET_ACCESS_KEY"`
	S3Bucket    string `envconfig:"S3_BUCKET" default:"sophia-artifacts"`
	S3Region    string `envconfig:"S3_REGION" default:"us-east-1"`

	// Bearer token protecting the HTTP API; empty disables auth (local use)
	APIToken string `envconfig:"API_TOKEN"`

	SentryDSN string `envconfig:"SENTRY_DSN"`
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("SOPHIA", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process config: %w", err)
	}

	return &cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	return cfg
}

// ValidateAPIKey applies the credential checks required before any model
// call is attempted.
func (c *Config) ValidateAPIKey() error {
	if c.APIKey == "" {
		return domain.ErrMissingAPIKey
	}
	if !strings.HasPrefix(c.APIKey, "sk-") {
		return domain.ErrInvalidAPIKey
	}
	return nil
}

func (c *Config) HasS3() bool {
	return c.S3Endpoint != "" && c.S3AccessKey != "" && c.S3SecretKey != ""
}
