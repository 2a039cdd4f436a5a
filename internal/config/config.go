package config

import (
	"errors"
	"fmt"
	"os"
	"time"
	_ "time/tzdata"

	"github.com/joho/godotenv"
)

// Record source kinds accepted by RECORD_SOURCE.
const (
	SourceSeed   = "seed"
	SourceSheets = "sheets"
)

// Config represents the full application configuration surface.
type Config struct {
	Server    ServerConfig
	Source    SourceConfig
	Sheets    SheetsConfig
	Reporting ReportingConfig
	MongoDB   MongoDBConfig
	Notify    NotifyConfig
}

// ServerConfig holds HTTP server related options.
type ServerConfig struct {
	Port string
	Env  string
}

// SourceConfig selects where the initial record collection comes from.
type SourceConfig struct {
	Kind string
}

// SheetsConfig contains configuration required to interact with Google Sheets.
type SheetsConfig struct {
	CredentialsPath string
	SpreadsheetID   string
	RecordsRange    string
}

// ReportingConfig holds scheduler-related settings.
type ReportingConfig struct {
	CronSchedule string
	Timezone     string
}

// MongoDBConfig holds settings for MongoDB. An empty URI disables snapshots.
type MongoDBConfig struct {
	URI    string
	DBName string
}

// NotifyConfig holds the outbound webhook settings. An empty URL disables notifications.
type NotifyConfig struct {
	WebhookURL string
	Timeout    time.Duration
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
		// Ignore the returned error here; missing .env files are acceptable when
		// configuration comes from the environment directly.
		_ = godotenv.Load()
	}

	timeout, err := time.ParseDuration(getenvWithDefault("NOTIFY_TIMEOUT", "15s"))
	if err != nil {
		return nil, fmt.Errorf("NOTIFY_TIMEOUT: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Port: getenvWithDefault("APP_PORT", "8080"),
			Env:  getenvWithDefault("APP_ENV", "production"),
		},
		Source: SourceConfig{
			Kind: getenvWithDefault("RECORD_SOURCE", SourceSeed),
		},
		Sheets: SheetsConfig{
			CredentialsPath: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_PATH"),
			SpreadsheetID:   os.Getenv("GOOGLE_SHEET_DATABASE_ID"),
			RecordsRange:    getenvWithDefault("GOOGLE_SHEET_RECORDS_RANGE", "Variance!A:S"),
		},
		Reporting: ReportingConfig{
			CronSchedule: getenvWithDefault("REPORT_CRON_SCHEDULE", "0 18 * * 1-5"),
			Timezone:     getenvWithDefault("TIMEZONE", "Asia/Seoul"),
		},
		MongoDB: MongoDBConfig{
			URI:    os.Getenv("MONGODB_URI"),
			DBName: getenvWithDefault("MONGODB_DB_NAME", "variance"),
		},
		Notify: NotifyConfig{
			WebhookURL: os.Getenv("NOTIFY_WEBHOOK_URL"),
			Timeout:    timeout,
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate ensures that required configuration fields are populated.
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("config is nil")
	}

	if c.Server.Port == "" {
		return errors.New("APP_PORT must be provided")
	}

	switch c.Source.Kind {
	case SourceSeed:
	case SourceSheets:
		switch {
		case c.Sheets.CredentialsPath == "":
			return errors.New("GOOGLE_SHEETS_CREDENTIALS_PATH must be provided when RECORD_SOURCE=sheets")
		case c.Sheets.SpreadsheetID == "":
			return errors.New("GOOGLE_SHEET_DATABASE_ID must be provided when RECORD_SOURCE=sheets")
		case c.Sheets.RecordsRange == "":
			return errors.New("GOOGLE_SHEET_RECORDS_RANGE must not be empty")
		}
	default:
		return fmt.Errorf("RECORD_SOURCE must be %q or %q, got %q", SourceSeed, SourceSheets, c.Source.Kind)
	}

	if c.Reporting.CronSchedule == "" {
		return errors.New("REPORT_CRON_SCHEDULE must be provided")
	}

	if c.Reporting.Timezone == "" {
		return errors.New("TIMEZONE must be provided")
	}
	if _, err := time.LoadLocation(c.Reporting.Timezone); err != nil {
		return fmt.Errorf("TIMEZONE %q: %w", c.Reporting.Timezone, err)
	}

	if c.MongoDB.URI != "" && c.MongoDB.DBName == "" {
		return errors.New("MONGODB_DB_NAME must be provided when MONGODB_URI is set")
	}

	if c.Notify.Timeout <= 0 {
		return errors.New("NOTIFY_TIMEOUT must be positive")
	}

	return nil
}

// Development reports whether APP_ENV selects development mode.
func (c *Config) Development() bool {
	return c.Server.Env == "development"
}

func getenvWithDefault(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}
