package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mitchellh/go-homedir"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	t.Setenv("SHYNESS_API_URL", "")
	t.Setenv("SHYNESS_STATE_PATH", "")
	t.Setenv("SHYNESS_LOG_LEVEL", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != DefaultBaseURL {
		t.Errorf("BaseURL = %q, want %q", cfg.API.BaseURL, DefaultBaseURL)
	}
	if cfg.Query.Retry != 3 {
		t.Errorf("Retry = %d, want 3", cfg.Query.Retry)
	}
	if cfg.Query.PollInterval != 30*time.Second {
		t.Errorf("PollInterval = %v, want 30s", cfg.Query.PollInterval)
	}
	if cfg.Session.InitAttempts != 3 {
		t.Errorf("InitAttempts = %d, want 3", cfg.Session.InitAttempts)
	}
	if cfg.Session.UserRecheck != 5*time.Minute {
		t.Errorf("UserRecheck = %v, want 5m", cfg.Session.UserRecheck)
	}
}

func TestLoad_FileThenEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
api:
  base_url: http://localhost:5000/api
  timeout: 5s
query:
  retry: 1
  poll_interval: 10s
log:
  level: debug
`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SHYNESS_API_URL", "")
	t.Setenv("SHYNESS_STATE_PATH", filepath.Join(dir, "state.json"))
	t.Setenv("SHYNESS_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.API.BaseURL != "http://localhost:5000/api" {
		t.Errorf("BaseURL = %q", cfg.API.BaseURL)
	}
	if cfg.API.Timeout != 5*time.Second {
		t.Errorf("Timeout = %v, want 5s", cfg.API.Timeout)
	}
	if cfg.Query.Retry != 1 {
		t.Errorf("Retry = %d, want 1", cfg.Query.Retry)
	}
	if cfg.Query.PollInterval != 10*time.Second {
		t.Errorf("PollInterval = %v, want 10s", cfg.Query.PollInterval)
	}
	// env overrides file
	if cfg.Log.Level != "warn" {
		t.Errorf("Log.Level = %q, want warn", cfg.Log.Level)
	}
	if cfg.Storage.Path != filepath.Join(dir, "state.json") {
		t.Errorf("Storage.Path = %q", cfg.Storage.Path)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("api: [unterminated"), 0o600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(path); err == nil {
		t.Fatal("Load() expected error for invalid YAML")
	}
}

func TestLoad_ExpandsHomeInStatePath(t *testing.T) {
	home, err := homedir.Dir()
	if err != nil {
		t.Skipf("no home directory: %v", err)
	}
	t.Setenv("SHYNESS_STATE_PATH", "~/.shyness-test/state.json")

	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := filepath.Join(home, ".shyness-test", "state.json"); cfg.Storage.Path != want {
		t.Errorf("Storage.Path = %q, want %q", cfg.Storage.Path, want)
	}
}
