package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/manav03panchal/birthdays/internal/validate"
)

func TestDefaultRuntimeConfig(t *testing.T) {
	cfg := DefaultRuntimeConfig()

	if cfg.Store.Backend != BackendLocal {
		t.Errorf("expected Store.Backend = local, got %q", cfg.Store.Backend)
	}
	if !strings.HasSuffix(cfg.Store.DBPath, filepath.Join(AppName, "birthdays.db")) {
		t.Errorf("unexpected Store.DBPath %q", cfg.Store.DBPath)
	}
	if cfg.Birthdays.EmptyName != validate.EmptyNameReject {
		t.Errorf("expected Birthdays.EmptyName = reject, got %q", cfg.Birthdays.EmptyName)
	}
	if cfg.Birthdays.DefaultName != "No Name" {
		t.Errorf("expected Birthdays.DefaultName = No Name, got %q", cfg.Birthdays.DefaultName)
	}
	if cfg.Notify.Hour != 9 || cfg.Notify.Minute != 0 {
		t.Errorf("expected alert time 09:00, got %02d:%02d", cfg.Notify.Hour, cfg.Notify.Minute)
	}
	if cfg.Greeting.Category != "birthday" {
		t.Errorf("expected Greeting.Category = birthday, got %q", cfg.Greeting.Category)
	}
	if cfg.Greeting.Key != "" {
		t.Errorf("greeting key must not have a default")
	}
	if cfg.Auth.TTL != 720*time.Hour {
		t.Errorf("expected Auth.TTL = 720h, got %v", cfg.Auth.TTL)
	}
	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("expected HTTP.Timeout = 30s, got %v", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.MaxRetries != 3 {
		t.Errorf("expected HTTP.MaxRetries = 3, got %d", cfg.HTTP.MaxRetries)
	}
	if cfg.Daemon.Addr != "127.0.0.1:9469" {
		t.Errorf("expected Daemon.Addr = 127.0.0.1:9469, got %q", cfg.Daemon.Addr)
	}
	if cfg.Daemon.ShutdownTimeout != 5*time.Second {
		t.Errorf("expected Daemon.ShutdownTimeout = 5s, got %v", cfg.Daemon.ShutdownTimeout)
	}
	if cfg.Daemon.PollInterval != 10*time.Second {
		t.Errorf("expected Daemon.PollInterval = 10s, got %v", cfg.Daemon.PollInterval)
	}
}

func TestGlobalConfigExists(t *testing.T) {
	if Global == nil {
		t.Fatal("Global config should not be nil")
	}
}

func TestConfigReset(t *testing.T) {
	Global.HTTP.Timeout = 1 * time.Second
	Global.Store.Backend = BackendRemote

	Global.Reset()

	if Global.HTTP.Timeout != 30*time.Second {
		t.Errorf("expected HTTP.Timeout = 30s after reset, got %v", Global.HTTP.Timeout)
	}
	if Global.Store.Backend != BackendLocal {
		t.Errorf("expected Store.Backend = local after reset, got %q", Global.Store.Backend)
	}
}

func TestConfigLoadFromEnv(t *testing.T) {
	t.Setenv("BIRTHDAYS_STORE", "REMOTE")
	t.Setenv("BIRTHDAYS_DB", InMemoryDB)
	t.Setenv("BIRTHDAYS_EMPTY_NAME", "default")
	t.Setenv("BIRTHDAYS_ALERT_HOUR", "7")
	t.Setenv("BIRTHDAYS_ALERT_MINUTE", "30")
	t.Setenv("BIRTHDAYS_TZ", "Europe/Berlin")
	t.Setenv("BIRTHDAYS_GREETING_KEY", "k-123")
	t.Setenv("BIRTHDAYS_AUTH_TTL", "1h")
	t.Setenv("BIRTHDAYS_HTTP_TIMEOUT", "60s")
	t.Setenv("BIRTHDAYS_HTTP_MAX_RETRIES", "5")
	t.Setenv("BIRTHDAYS_DAEMON_SHUTDOWN", "10s")
	t.Setenv("BIRTHDAYS_DAEMON_POLL", "1m")
	t.Setenv("BIRTHDAYS_LOG_JSON", "true")

	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv()

	if cfg.Store.Backend != BackendRemote {
		t.Errorf("expected Store.Backend = remote from env, got %q", cfg.Store.Backend)
	}
	if cfg.Store.DBPath != InMemoryDB {
		t.Errorf("expected Store.DBPath = :memory: from env, got %q", cfg.Store.DBPath)
	}
	if cfg.Birthdays.EmptyName != validate.EmptyNameDefault {
		t.Errorf("expected Birthdays.EmptyName = default from env, got %q", cfg.Birthdays.EmptyName)
	}
	if cfg.Notify.Hour != 7 || cfg.Notify.Minute != 30 {
		t.Errorf("expected alert time 07:30 from env, got %02d:%02d", cfg.Notify.Hour, cfg.Notify.Minute)
	}
	if cfg.Notify.Timezone != "Europe/Berlin" {
		t.Errorf("expected Notify.Timezone from env, got %q", cfg.Notify.Timezone)
	}
	if cfg.Greeting.Key != "k-123" {
		t.Errorf("expected Greeting.Key from env, got %q", cfg.Greeting.Key)
	}
	if cfg.Auth.TTL != time.Hour {
		t.Errorf("expected Auth.TTL = 1h from env, got %v", cfg.Auth.TTL)
	}
	if cfg.HTTP.Timeout != 60*time.Second {
		t.Errorf("expected HTTP.Timeout = 60s from env, got %v", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.MaxRetries != 5 {
		t.Errorf("expected HTTP.MaxRetries = 5 from env, got %d", cfg.HTTP.MaxRetries)
	}
	if cfg.Daemon.ShutdownTimeout != 10*time.Second {
		t.Errorf("expected Daemon.ShutdownTimeout = 10s from env, got %v", cfg.Daemon.ShutdownTimeout)
	}
	if cfg.Daemon.PollInterval != time.Minute {
		t.Errorf("expected Daemon.PollInterval = 1m from env, got %v", cfg.Daemon.PollInterval)
	}
	if !cfg.Log.JSON {
		t.Errorf("expected Log.JSON = true from env")
	}
}

func TestConfigLoadFromEnvInvalidValues(t *testing.T) {
	t.Setenv("BIRTHDAYS_HTTP_TIMEOUT", "invalid")
	t.Setenv("BIRTHDAYS_HTTP_MAX_RETRIES", "not-a-number")
	t.Setenv("BIRTHDAYS_ALERT_HOUR", "25")
	t.Setenv("BIRTHDAYS_EMPTY_NAME", "sometimes")
	t.Setenv("BIRTHDAYS_AUTH_TTL", "-1h")

	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv()

	if cfg.HTTP.Timeout != 30*time.Second {
		t.Errorf("expected HTTP.Timeout = 30s (default), got %v", cfg.HTTP.Timeout)
	}
	if cfg.HTTP.MaxRetries != 3 {
		t.Errorf("expected HTTP.MaxRetries = 3 (default), got %d", cfg.HTTP.MaxRetries)
	}
	if cfg.Notify.Hour != 9 {
		t.Errorf("expected Notify.Hour = 9 (default), got %d", cfg.Notify.Hour)
	}
	if cfg.Birthdays.EmptyName != validate.EmptyNameReject {
		t.Errorf("expected Birthdays.EmptyName = reject (default), got %q", cfg.Birthdays.EmptyName)
	}
	if cfg.Auth.TTL != 720*time.Hour {
		t.Errorf("expected Auth.TTL = 720h (default), got %v", cfg.Auth.TTL)
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	content := "BIRTHDAYS_TEST_DOTENV_A=from-file\nBIRTHDAYS_TEST_DOTENV_B=from-file\n"
	if err := os.WriteFile(file, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("BIRTHDAYS_TEST_DOTENV_B", "from-env")
	t.Cleanup(func() { os.Unsetenv("BIRTHDAYS_TEST_DOTENV_A") })

	loaded := LoadDotEnv(filepath.Join(dir, "missing.env"), file)
	if len(loaded) != 1 || loaded[0] != file {
		t.Fatalf("expected only %s to load, got %v", file, loaded)
	}
	if got := os.Getenv("BIRTHDAYS_TEST_DOTENV_A"); got != "from-file" {
		t.Errorf("expected value from .env, got %q", got)
	}
	if got := os.Getenv("BIRTHDAYS_TEST_DOTENV_B"); got != "from-env" {
		t.Errorf("real environment must win over .env, got %q", got)
	}
}

func TestValidate(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("defaults should validate: %v", err)
	}

	cfg.Store.Backend = "cloud"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown backend to fail")
	}

	cfg = DefaultRuntimeConfig()
	cfg.Store.Backend = BackendRemote
	if err := cfg.Validate(); err == nil {
		t.Error("expected remote backend without secret to fail")
	}
	cfg.Auth.Secret = "s3cret"
	if err := cfg.Validate(); err != nil {
		t.Errorf("remote backend with secret should validate: %v", err)
	}

	cfg = DefaultRuntimeConfig()
	cfg.Notify.Minute = 60
	if err := cfg.Validate(); err == nil {
		t.Error("expected minute 60 to fail")
	}

	cfg = DefaultRuntimeConfig()
	cfg.Notify.Timezone = "Mars/Olympus"
	if err := cfg.Validate(); err == nil {
		t.Error("expected unknown timezone to fail")
	}
}

func TestLocation(t *testing.T) {
	cfg := DefaultRuntimeConfig()
	loc, err := cfg.Location()
	if err != nil || loc != time.Local {
		t.Errorf("expected Local, got %v (%v)", loc, err)
	}

	cfg.Notify.Timezone = "UTC"
	loc, err = cfg.Location()
	if err != nil || loc != time.UTC {
		t.Errorf("expected UTC, got %v (%v)", loc, err)
	}
}

func TestHTTPRetryDelayValues(t *testing.T) {
	cfg := DefaultRuntimeConfig()

	expected := []time.Duration{
		0,
		5 * time.Second,
		30 * time.Second,
	}

	for i, expectedDuration := range expected {
		if cfg.HTTP.RetryDelays[i] != expectedDuration {
			t.Errorf("RetryDelays[%d]: expected %v, got %v",
				i, expectedDuration, cfg.HTTP.RetryDelays[i])
		}
	}
}
