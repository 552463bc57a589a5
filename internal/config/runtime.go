// Package config provides centralized configuration for birthdays runtime values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"

	"github.com/manav03panchal/birthdays/internal/validate"
)

// AppName is the application name used for XDG directories.
const AppName = "birthdays"

// Store backends.
const (
	BackendLocal  = "local"
	BackendRemote = "remote"
)

// InMemoryDB selects an in-memory database for either backend.
const InMemoryDB = ":memory:"

// RuntimeConfig holds all runtime configuration values.
type RuntimeConfig struct {
	Store     StoreConfig
	Birthdays BirthdaysConfig
	Notify    NotifyConfig
	Greeting  GreetingConfig
	Auth      AuthConfig
	HTTP      HTTPConfig
	Daemon    DaemonConfig
	Log       LogConfig
}

// StoreConfig selects and locates the entity store.
type StoreConfig struct {
	// Backend is "local" (SQLite) or "remote" (per-principal document store).
	// Default: local
	Backend string

	// DBPath is the SQLite file. It also holds device settings such as
	// webhooks when the remote backend is selected.
	// Default: $XDG_DATA_HOME/birthdays/birthdays.db
	DBPath string

	// RemoteDir is the document store directory.
	// Default: $XDG_DATA_HOME/birthdays/remote
	RemoteDir string
}

// BirthdaysConfig holds birthday record rules.
type BirthdaysConfig struct {
	// EmptyName decides whether unnamed birthdays are rejected or renamed.
	// Default: reject
	EmptyName validate.EmptyNamePolicy

	// DefaultName replaces an empty name under the default policy.
	// Default: "No Name"
	DefaultName string
}

// NotifyConfig holds alert scheduling configuration.
type NotifyConfig struct {
	// Hour and Minute are the local time at which alerts fire.
	// Default: 09:00
	Hour   int
	Minute int

	// Timezone is an IANA zone name or "Local".
	// Default: Local
	Timezone string

	// Title and Sound are copied onto every alert.
	Title string
	Sound string
}

// GreetingConfig locates the greeting message API.
type GreetingConfig struct {
	URL      string
	Host     string
	Key      string
	Category string
}

// AuthConfig holds principal token configuration.
type AuthConfig struct {
	// Secret signs and verifies session tokens.
	Secret string

	// TTL is the lifetime of issued tokens.
	// Default: 720h
	TTL time.Duration

	// Token is the session token of the current principal.
	Token string
}

// HTTPConfig holds webhook HTTP client configuration.
type HTTPConfig struct {
	// Timeout is the default HTTP request timeout.
	// Default: 30s
	Timeout time.Duration

	// MaxRetries is how many times a failed request is retried.
	// Default: 3
	MaxRetries int

	// RetryDelays are the delays before each attempt.
	// Default: [0s, 5s, 30s]
	RetryDelays []time.Duration
}

// DaemonConfig holds daemon-related configuration.
type DaemonConfig struct {
	// Addr is the listen address of the health and metrics server.
	// Default: 127.0.0.1:9469
	Addr string

	// ShutdownTimeout bounds graceful shutdown.
	// Default: 5s
	ShutdownTimeout time.Duration

	// PollInterval is how often the daemon checks the store for changes
	// committed by other processes. Zero or negative disables the check.
	// Default: 10s
	PollInterval time.Duration
}

// LogConfig holds logging configuration.
type LogConfig struct {
	// Level is debug, info, warn or error.
	// Default: info
	Level string

	// JSON switches to JSON log lines.
	JSON bool
}

// DefaultRuntimeConfig returns the default runtime configuration.
func DefaultRuntimeConfig() *RuntimeConfig {
	dataDir := filepath.Join(xdg.DataHome, AppName)
	return &RuntimeConfig{
		Store: StoreConfig{
			Backend:   BackendLocal,
			DBPath:    filepath.Join(dataDir, "birthdays.db"),
			RemoteDir: filepath.Join(dataDir, "remote"),
		},
		Birthdays: BirthdaysConfig{
			EmptyName:   validate.EmptyNameReject,
			DefaultName: "No Name",
		},
		Notify: NotifyConfig{
			Hour:     9,
			Minute:   0,
			Timezone: "Local",
			Title:    "Birthday Reminder",
			Sound:    "default",
		},
		Greeting: GreetingConfig{
			URL:      "https://ajith-messages.p.rapidapi.com/getMsgs",
			Host:     "ajith-messages.p.rapidapi.com",
			Category: "birthday",
		},
		Auth: AuthConfig{
			TTL: 720 * time.Hour,
		},
		HTTP: HTTPConfig{
			Timeout:    30 * time.Second,
			MaxRetries: 3,
			RetryDelays: []time.Duration{
				0,
				5 * time.Second,
				30 * time.Second,
			},
		},
		Daemon: DaemonConfig{
			Addr:            "127.0.0.1:9469",
			ShutdownTimeout: 5 * time.Second,
			PollInterval:    10 * time.Second,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Global holds the global runtime configuration instance.
// It is initialized with defaults and can be overridden via environment variables.
var Global = initGlobal()

func initGlobal() *RuntimeConfig {
	LoadDotEnv()
	cfg := DefaultRuntimeConfig()
	cfg.loadFromEnv()
	return cfg
}

// DotEnvFiles returns the .env files consulted at startup, in priority order.
func DotEnvFiles() []string {
	return []string{
		".env",
		filepath.Join(xdg.ConfigHome, AppName, ".env"),
	}
}

// LoadDotEnv loads every existing .env file. Variables already present in
// the environment are never overridden. It returns the files it loaded.
func LoadDotEnv(files ...string) []string {
	if len(files) == 0 {
		files = DotEnvFiles()
	}
	var loaded []string
	for _, f := range files {
		if _, err := os.Stat(f); err != nil {
			continue
		}
		if err := godotenv.Load(f); err == nil {
			loaded = append(loaded, f)
		}
	}
	return loaded
}

// loadFromEnv loads configuration overrides from environment variables.
// Unparseable values keep the current setting.
func (c *RuntimeConfig) loadFromEnv() {
	// Store
	if v := os.Getenv("BIRTHDAYS_STORE"); v != "" {
		c.Store.Backend = strings.ToLower(v)
	}
	if v := os.Getenv("BIRTHDAYS_DB"); v != "" {
		c.Store.DBPath = v
	}
	if v := os.Getenv("BIRTHDAYS_REMOTE_DIR"); v != "" {
		c.Store.RemoteDir = v
	}

	// Birthdays
	if v := os.Getenv("BIRTHDAYS_EMPTY_NAME"); v != "" {
		if p, err := validate.ParseEmptyNamePolicy(v); err == nil {
			c.Birthdays.EmptyName = p
		}
	}
	if v := os.Getenv("BIRTHDAYS_DEFAULT_NAME"); v != "" {
		c.Birthdays.DefaultName = v
	}

	// Notify
	if v := os.Getenv("BIRTHDAYS_ALERT_HOUR"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 23 {
			c.Notify.Hour = n
		}
	}
	if v := os.Getenv("BIRTHDAYS_ALERT_MINUTE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 && n <= 59 {
			c.Notify.Minute = n
		}
	}
	if v := os.Getenv("BIRTHDAYS_TZ"); v != "" {
		c.Notify.Timezone = v
	}

	// Greeting
	if v := os.Getenv("BIRTHDAYS_GREETING_URL"); v != "" {
		c.Greeting.URL = v
	}
	if v := os.Getenv("BIRTHDAYS_GREETING_HOST"); v != "" {
		c.Greeting.Host = v
	}
	if v := os.Getenv("BIRTHDAYS_GREETING_KEY"); v != "" {
		c.Greeting.Key = v
	}
	if v := os.Getenv("BIRTHDAYS_GREETING_CATEGORY"); v != "" {
		c.Greeting.Category = v
	}

	// Auth
	if v := os.Getenv("BIRTHDAYS_AUTH_SECRET"); v != "" {
		c.Auth.Secret = v
	}
	if v := os.Getenv("BIRTHDAYS_AUTH_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			c.Auth.TTL = d
		}
	}
	if v := os.Getenv("BIRTHDAYS_TOKEN"); v != "" {
		c.Auth.Token = v
	}

	// HTTP
	if v := os.Getenv("BIRTHDAYS_HTTP_TIMEOUT"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.HTTP.Timeout = d
		}
	}
	if v := os.Getenv("BIRTHDAYS_HTTP_MAX_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.HTTP.MaxRetries = n
		}
	}

	// Daemon
	if v := os.Getenv("BIRTHDAYS_DAEMON_ADDR"); v != "" {
		c.Daemon.Addr = v
	}
	if v := os.Getenv("BIRTHDAYS_DAEMON_SHUTDOWN"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Daemon.ShutdownTimeout = d
		}
	}
	if v := os.Getenv("BIRTHDAYS_DAEMON_POLL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.Daemon.PollInterval = d
		}
	}

	// Log
	if v := os.Getenv("BIRTHDAYS_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("BIRTHDAYS_LOG_JSON"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Log.JSON = b
		}
	}
}

// Validate reports the first setting that cannot be used.
func (c *RuntimeConfig) Validate() error {
	switch c.Store.Backend {
	case BackendLocal, BackendRemote:
	default:
		return fmt.Errorf("unknown store backend %q (want %s or %s)", c.Store.Backend, BackendLocal, BackendRemote)
	}
	if err := validate.InRange("alert hour", c.Notify.Hour, 0, 23); err != nil {
		return err
	}
	if err := validate.InRange("alert minute", c.Notify.Minute, 0, 59); err != nil {
		return err
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	if c.Store.Backend == BackendRemote && c.Auth.Secret == "" {
		return fmt.Errorf("the remote store needs BIRTHDAYS_AUTH_SECRET")
	}
	return nil
}

// Location resolves the alert timezone.
func (c *RuntimeConfig) Location() (*time.Location, error) {
	switch c.Notify.Timezone {
	case "", "Local":
		return time.Local, nil
	case "UTC":
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(c.Notify.Timezone)
	if err != nil {
		return nil, fmt.Errorf("unknown timezone %q: %w", c.Notify.Timezone, err)
	}
	return loc, nil
}

// ReloadFromEnv reloads configuration from environment variables.
func (c *RuntimeConfig) ReloadFromEnv() {
	c.loadFromEnv()
}

// Reset resets the configuration to defaults.
// This is primarily useful for testing.
func (c *RuntimeConfig) Reset() {
	defaults := DefaultRuntimeConfig()
	*c = *defaults
}
