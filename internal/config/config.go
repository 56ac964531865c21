package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"gopkg.in/yaml.v3"
)

// DefaultBaseURL is the production API root the web client shipped with
const DefaultBaseURL = "https://shyness-app-backend.vercel.app/api"

// Config holds all configuration for the client
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	Query   QueryConfig   `yaml:"query"`
	Session SessionConfig `yaml:"session"`
	Log     LogConfig     `yaml:"log"`
}

// APIConfig holds REST endpoint configuration
type APIConfig struct {
	BaseURL string        `yaml:"base_url"`
	Timeout time.Duration `yaml:"timeout"`
}

// StorageConfig holds the location of persisted client state
type StorageConfig struct {
	Path string `yaml:"path"`
}

// QueryConfig holds data-fetching layer settings
type QueryConfig struct {
	Retry        int           `yaml:"retry"`
	RetryDelay   time.Duration `yaml:"retry_delay"`
	PollInterval time.Duration `yaml:"poll_interval"`
}

// SessionConfig holds session initialization settings
type SessionConfig struct {
	InitAttempts int           `yaml:"init_attempts"`
	InitDelay    time.Duration `yaml:"init_delay"`
	// AdminRecheck is how often a watched admin view revalidates its token
	AdminRecheck time.Duration `yaml:"admin_recheck"`
	// UserRecheck is the same for watched user pages
	UserRecheck time.Duration `yaml:"user_recheck"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level string `yaml:"level"`
}

// Default returns the configuration used when no file is present
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: DefaultBaseURL,
			Timeout: 30 * time.Second,
		},
		Storage: StorageConfig{
			Path: defaultStatePath(),
		},
		Query: QueryConfig{
			Retry:        3,
			RetryDelay:   time.Second,
			PollInterval: 30 * time.Second,
		},
		Session: SessionConfig{
			InitAttempts: 3,
			InitDelay:    time.Second,
			AdminRecheck: time.Minute,
			UserRecheck:  5 * time.Minute,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads configuration from a YAML file, then applies .env and
// environment overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// .env is optional; variables already set in the environment win
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg.applyEnv()
	cfg.fillDefaults()

	// Storage path may be written as ~/...
	expanded, err := homedir.Expand(cfg.Storage.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to expand storage path: %w", err)
	}
	cfg.Storage.Path = expanded

	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("SHYNESS_API_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("SHYNESS_STATE_PATH"); v != "" {
		c.Storage.Path = v
	}
	if v := os.Getenv("SHYNESS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
}

func (c *Config) fillDefaults() {
	def := Default()
	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	if c.API.Timeout <= 0 {
		c.API.Timeout = def.API.Timeout
	}
	if c.Storage.Path == "" {
		c.Storage.Path = def.Storage.Path
	}
	if c.Query.Retry < 0 {
		c.Query.Retry = 0
	}
	if c.Query.RetryDelay < 0 {
		c.Query.RetryDelay = 0
	}
	if c.Query.PollInterval <= 0 {
		c.Query.PollInterval = def.Query.PollInterval
	}
	if c.Session.InitAttempts <= 0 {
		c.Session.InitAttempts = def.Session.InitAttempts
	}
	if c.Session.AdminRecheck <= 0 {
		c.Session.AdminRecheck = def.Session.AdminRecheck
	}
	if c.Session.UserRecheck <= 0 {
		c.Session.UserRecheck = def.Session.UserRecheck
	}
	if c.Log.Level == "" {
		c.Log.Level = def.Log.Level
	}
}

func defaultStatePath() string {
	home, err := homedir.Dir()
	if err != nil {
		return filepath.Join(".shyness", "state.json")
	}
	return filepath.Join(home, ".shyness", "state.json")
}
