package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
)

// Read policies accepted by STORE_READ_POLICY.
const (
	ReadPolicyBestEffort = "best_effort"
	ReadPolicyStrict     = "strict"
)

// Config represents the full application configuration surface.
type Config struct {
	Server   ServerConfig
	MongoDB  MongoDBConfig
	Snapshot SnapshotConfig
	Notify   NotifyConfig
	Log      LogConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
}

// MongoDBConfig holds settings for MongoDB. An empty URI is allowed and leaves
// the document store unavailable.
type MongoDBConfig struct {
	URI        string
	DBName     string
	Timeout    time.Duration
	ReadPolicy string
}

// SnapshotConfig holds scheduler settings for periodic KPI snapshots.
type SnapshotConfig struct {
	CronSchedule string
	Timezone     string
}

// NotifyConfig describes the optional webhook receiving KPI snapshots.
type NotifyConfig struct {
	WebhookURL string
	Token      string
	Timeout    time.Duration
}

// LogConfig holds logger options.
type LogConfig struct {
	Level string
}

// Load reads environment variables (optionally from the provided file) and
// materializes a Config instance.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("failed loading env file %s: %w", envFile, err)
			}
		}
	} else {
		// Missing .env files are fine when configuration comes from the environment.
		_ = godotenv.Load()
	}

	storeTimeout, err := getenvDuration("STORE_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	notifyTimeout, err := getenvDuration("NOTIFY_TIMEOUT", 15*time.Second)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", getenvWithDefault("PORT", "8000")),
		},
		MongoDB: MongoDBConfig{
			URI:        os.Getenv("DATABASE_URL"),
			DBName:     getenvWithDefault("DATABASE_NAME", "briquette"),
			Timeout:    storeTimeout,
			ReadPolicy: getenvWithDefault("STORE_READ_POLICY", ReadPolicyBestEffort),
		},
		Snapshot: SnapshotConfig{
			CronSchedule: os.Getenv("KPI_SNAPSHOT_CRON"),
			Timezone:     getenvWithDefault("TIMEZONE", "UTC"),
		},
		Notify: NotifyConfig{
			WebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
			Token:      os.Getenv("NOTIFY_TOKEN"),
			Timeout:    notifyTimeout,
		},
		Log: LogConfig{
			Level: getenvWithDefault("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that configuration values are usable.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	if c.MongoDB.DBName == "" {
		return errors.New("DATABASE_NAME must not be empty")
	}

	if c.MongoDB.Timeout <= 0 {
		return errors.New("STORE_TIMEOUT must be positive")
	}

	switch c.MongoDB.ReadPolicy {
	case ReadPolicyBestEffort, ReadPolicyStrict:
	default:
		return fmt.Errorf("STORE_READ_POLICY must be %q or %q", ReadPolicyBestEffort, ReadPolicyStrict)
	}

	if _, err := time.LoadLocation(c.Snapshot.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q is invalid: %w", c.Snapshot.Timezone, err)
	}

	if c.Snapshot.CronSchedule != "" {
		if _, err := cron.ParseStandard(c.Snapshot.CronSchedule); err != nil {
			return fmt.Errorf("KPI_SNAPSHOT_CRON %q is invalid: %w", c.Snapshot.CronSchedule, err)
		}
	}

	return nil
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getenvDuration(key string, fallback time.Duration) (time.Duration, error) {
	value := os.Getenv(key)
	if value == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		return 0, fmt.Errorf("%s %q is not a duration: %w", key, value, err)
	}
	return d, nil
}
