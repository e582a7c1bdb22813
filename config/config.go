package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	AppName     = "telegram-classifieds-bot"
	EnvFileName = "config.env"
)

const (
	ListingStoreMemory = "memory"
	ListingStoreSQLite = "sqlite"

	BlobStoreFile  = "file"
	BlobStoreMinIO = "minio"
)

// Config holds all runtime settings. Values come from the environment,
// optionally pre-populated from config.env files by LoadEnvFile.
type Config struct {
	BotToken string `envconfig:"BOT_TOKEN" required:"true"`

	// Currency is appended to every price, e.g. "12345 ₽".
	Currency string `envconfig:"CURRENCY" default:"₽"`

	// SessionTimeout discards drafts after this much inactivity. Zero keeps
	// drafts until the user finishes or cancels.
	SessionTimeout time.Duration `envconfig:"SESSION_TIMEOUT" default:"0s"`

	ListingStore string `envconfig:"LISTING_STORE" default:"memory"`
	SQLiteDSN    string `envconfig:"SQLITE_DSN" default:":memory:"`

	BlobStore      string `envconfig:"BLOB_STORE" default:"file"`
	PhotosDir      string `envconfig:"PHOTOS_DIR" default:"photos"`
	MinIOEndpoint  string `envconfig:"MINIO_ENDPOINT"`
	MinIOAccessKey string `envconfig:"MINIO_ACCESS_KEY"`
	MinIOSecretKey string `envconfig:"MINIO_SECRET_KEY"`
	MinIOBucket    string `envconfig:"MINIO_BUCKET" default:"classifieds-photos"`
	MinIOUseSSL    bool   `envconfig:"MINIO_USE_SSL" default:"false"`
	MinIORegion    string `envconfig:"MINIO_REGION"`

	// NATSURL enables publishing committed listings when set.
	NATSURL     string `envconfig:"NATS_URL"`
	NATSSubject string `envconfig:"NATS_SUBJECT" default:"classifieds.listings.created"`

	// MetricsAddr enables the Prometheus /metrics endpoint when set.
	MetricsAddr string `envconfig:"METRICS_ADDR"`

	LogLevel string `envconfig:"LOG_LEVEL" default:"info"`
	LogFile  string `envconfig:"LOG_FILE" default:"telegram-classifieds-bot.log"`
}

// LoadEnvFile loads environment variables from the config file in the user's
// config directory and then from the working directory. Errors are ignored
// since the files may not exist. Variables already set are never overridden.
func LoadEnvFile() {
	if configBase, err := os.UserConfigDir(); err == nil {
		_ = godotenv.Load(filepath.Join(configBase, AppName, EnvFileName))
	}
	_ = godotenv.Load(EnvFileName)
}

// Load reads the configuration from the environment and validates it.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks option values that envconfig cannot express.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.BotToken) == "" {
		return fmt.Errorf("BOT_TOKEN is not set")
	}
	if strings.TrimSpace(c.Currency) == "" {
		return fmt.Errorf("CURRENCY must not be empty")
	}
	if c.SessionTimeout < 0 {
		return fmt.Errorf("SESSION_TIMEOUT must not be negative, got %s", c.SessionTimeout)
	}

	switch c.ListingStore {
	case ListingStoreMemory, ListingStoreSQLite:
	default:
		return fmt.Errorf("LISTING_STORE must be %q or %q, got %q", ListingStoreMemory, ListingStoreSQLite, c.ListingStore)
	}

	switch c.BlobStore {
	case BlobStoreFile:
		if c.PhotosDir == "" {
			return fmt.Errorf("PHOTOS_DIR must not be empty")
		}
	case BlobStoreMinIO:
		if c.MinIOEndpoint == "" || c.MinIOBucket == "" {
			return fmt.Errorf("MINIO_ENDPOINT and MINIO_BUCKET are required when BLOB_STORE=%s", BlobStoreMinIO)
		}
	default:
		return fmt.Errorf("BLOB_STORE must be %q or %q, got %q", BlobStoreFile, BlobStoreMinIO, c.BlobStore)
	}

	return nil
}
