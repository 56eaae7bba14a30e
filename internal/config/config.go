// Package config loads tool configuration from a YAML file and the
// environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// defaultConcurrency is applied when the config file does not set one.
const defaultConcurrency = 8

// Config holds the settings for a reconciliation run.
type Config struct {
	// User is the account whose repositories are scanned.
	User string `yaml:"user"`
	// Orgs are organization accounts scanned after the user, in order.
	Orgs []string `yaml:"orgs"`
	// DatabaseID is the destination Notion database. The
	// NOTION_DATABASE_ID environment variable takes precedence.
	DatabaseID string `yaml:"database_id"`
	// Concurrency bounds in-flight requests per stage.
	Concurrency int `yaml:"concurrency"`
	// HistoryPath is the SQLite file recording run reports. Defaults to
	// ~/.cache/ghnotion/history.db.
	HistoryPath string `yaml:"history_path"`

	// NotionToken comes from the NOTION_TOKEN environment variable,
	// never from the config file.
	NotionToken string `yaml:"-"`
}

// DefaultPath returns the default config file location:
// ~/.config/ghnotion/config.yml
func DefaultPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".config", "ghnotion", "config.yml"), nil
}

// DefaultHistoryPath returns the default history database location:
// ~/.cache/ghnotion/history.db
func DefaultHistoryPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(homeDir, ".cache", "ghnotion", "history.db"), nil
}

// Load reads the config file at path and applies environment overrides.
// A .env file in the working directory is loaded first if present.
func Load(path string) (*Config, error) {
	// Missing .env is fine; explicit env vars still apply.
	godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if dbID := os.Getenv("NOTION_DATABASE_ID"); dbID != "" {
		cfg.DatabaseID = dbID
	}
	cfg.NotionToken = os.Getenv("NOTION_TOKEN")

	if cfg.Concurrency < 1 {
		cfg.Concurrency = defaultConcurrency
	}
	if cfg.HistoryPath == "" {
		historyPath, err := DefaultHistoryPath()
		if err != nil {
			return nil, err
		}
		cfg.HistoryPath = historyPath
	}

	return &cfg, nil
}

// Validate checks that everything a run needs is present.
func (c *Config) Validate() error {
	if c.User == "" {
		return fmt.Errorf("config: user is required")
	}
	if c.DatabaseID == "" {
		return fmt.Errorf("config: database_id is required (or set NOTION_DATABASE_ID)")
	}
	if c.NotionToken == "" {
		return fmt.Errorf("config: NOTION_TOKEN environment variable is required")
	}
	return nil
}
