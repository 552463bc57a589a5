// Package runtime wires configuration, the selected store and the output
// formatters into the context every command runs with.
package runtime

import (
	"context"
	"errors"
	"io"
	"time"

	"gorm.io/gorm"

	"github.com/manav03panchal/birthdays/internal/auth"
	"github.com/manav03panchal/birthdays/internal/config"
	"github.com/manav03panchal/birthdays/internal/daemon"
	"github.com/manav03panchal/birthdays/internal/greeting"
	"github.com/manav03panchal/birthdays/internal/logging"
	"github.com/manav03panchal/birthdays/internal/notify"
	"github.com/manav03panchal/birthdays/internal/output"
	"github.com/manav03panchal/birthdays/internal/scheduler"
	"github.com/manav03panchal/birthdays/internal/storage"
	"github.com/manav03panchal/birthdays/internal/storage/local"
	"github.com/manav03panchal/birthdays/internal/storage/remote"
)

// Context holds the application runtime context.
type Context struct {
	Config    *config.RuntimeConfig
	Store     storage.Store
	Formatter *output.Formatter

	// DB is the local SQLite database. It backs the local store and always
	// holds device settings.
	DB       *gorm.DB
	Webhooks *local.WebhookRepo

	// Principal is the user id from the session token, "" without one.
	Principal string

	// Debug mode
	Debug bool

	ctx     context.Context
	closers []io.Closer
}

// Options configures the runtime context.
type Options struct {
	// Config defaults to config.Global.
	Config    *config.RuntimeConfig
	Format    output.Format
	ColorMode output.ColorMode
	Debug     bool
	// Now is the store clock. Defaults to time.Now.
	Now func() time.Time
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		Config:    config.Global,
		Format:    output.FormatCLI,
		ColorMode: output.ColorAuto,
	}
}

// New validates the configuration and opens the configured store.
func New(opts Options) (*Context, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Global
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	formatter := output.NewFormatter()
	formatter.Format = opts.Format
	formatter.ColorMode = opts.ColorMode

	c := &Context{
		Config:    cfg,
		Formatter: formatter,
		Debug:     opts.Debug,
	}

	storeOpts := storage.Options{
		EmptyName:   cfg.Birthdays.EmptyName,
		DefaultName: cfg.Birthdays.DefaultName,
		Now:         opts.Now,
	}

	principal, err := c.principal()
	if err != nil {
		return nil, err
	}
	c.Principal = principal

	switch cfg.Store.Backend {
	case config.BackendRemote:
		db, err := local.OpenDB(cfg.Store.DBPath)
		if err != nil {
			return nil, err
		}
		c.DB = db
		c.closers = append(c.closers, closerFunc(func() error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.Close()
		}))

		store, err := remote.Open(remote.Options{
			Path:     cfg.Store.RemoteDir,
			InMemory: cfg.Store.RemoteDir == config.InMemoryDB,
		}, storeOpts)
		if err != nil {
			c.Close()
			return nil, err
		}
		c.Store = store

	default:
		store, err := local.Open(cfg.Store.DBPath, storeOpts)
		if err != nil {
			return nil, err
		}
		c.Store = store
		c.DB = store.DB()
	}
	c.closers = append([]io.Closer{c.Store}, c.closers...)
	c.Webhooks = local.NewWebhookRepo(c.DB)

	c.ctx = logging.NewRequestContext(context.Background())
	if c.Principal != "" {
		c.ctx = auth.WithPrincipal(c.ctx, c.Principal)
	}
	logging.DebugContext(c.ctx, "runtime ready",
		logging.KeyBackend, cfg.Store.Backend, logging.KeyOwner, c.Principal)
	return c, nil
}

// principal resolves the session token, if one is configured.
func (c *Context) principal() (string, error) {
	if c.Config.Auth.Token == "" {
		return "", nil
	}
	claims, err := c.JWT().Validate(c.Config.Auth.Token)
	if err != nil {
		return "", err
	}
	return claims.UserID, nil
}

// Context returns the request context: it carries the request id and,
// with a valid token, the principal.
func (c *Context) Context() context.Context {
	if c.ctx == nil {
		return context.Background()
	}
	return c.ctx
}

// WithContext replaces the base context, keeping the principal.
func (c *Context) WithContext(ctx context.Context) context.Context {
	ctx = logging.WithRequestID(ctx, logging.RequestIDFromContext(c.Context()))
	if c.Principal != "" {
		ctx = auth.WithPrincipal(ctx, c.Principal)
	}
	return ctx
}

// JWT returns the token manager for the configured secret.
func (c *Context) JWT() *auth.JWTManager {
	return auth.NewJWTManager(c.Config.Auth.Secret, c.Config.Auth.TTL)
}

// Dispatcher returns a webhook dispatcher using the configured HTTP
// client settings.
func (c *Context) Dispatcher() *notify.Dispatcher {
	client := notify.NewHTTPClient(notify.ClientOptions{
		Timeout:     c.Config.HTTP.Timeout,
		MaxRetries:  c.Config.HTTP.MaxRetries,
		RetryDelays: c.Config.HTTP.RetryDelays,
	})
	return notify.NewDispatcher(c.Webhooks, client)
}

// Greeting returns a greeting fetcher for the configured endpoint.
func (c *Context) Greeting() *greeting.Fetcher {
	g := c.Config.Greeting
	return greeting.New(greeting.Options{
		URL:      g.URL,
		Host:     g.Host,
		Key:      g.Key,
		Category: g.Category,
	})
}

// ScheduleOptions returns the configured alert time, title and sound.
func (c *Context) ScheduleOptions() scheduler.Options {
	opts := scheduler.DefaultOptions()
	opts.Hour = c.Config.Notify.Hour
	opts.Minute = c.Config.Notify.Minute
	if c.Config.Notify.Title != "" {
		opts.Title = c.Config.Notify.Title
	}
	if c.Config.Notify.Sound != "" {
		opts.Sound = c.Config.Notify.Sound
	}
	return opts
}

// Daemon builds the alert daemon over the store and webhooks.
func (c *Context) Daemon(version string) (*daemon.Daemon, error) {
	loc, err := c.Config.Location()
	if err != nil {
		return nil, err
	}
	return daemon.New(c.Store, c.Dispatcher(), daemon.Config{
		Addr:            c.Config.Daemon.Addr,
		ShutdownTimeout: c.Config.Daemon.ShutdownTimeout,
		PollInterval:    c.Config.Daemon.PollInterval,
		Version:         version,
		Location:        loc,
		Schedule:        c.ScheduleOptions(),
	}), nil
}

// Close closes the store and the settings database.
func (c *Context) Close() error {
	var errs []error
	for _, cl := range c.closers {
		if err := cl.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	c.closers = nil
	return errors.Join(errs...)
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.IsJSON()
}

// IsCLI returns true if output format is CLI.
func (c *Context) IsCLI() bool {
	return c.Formatter.Format == output.FormatCLI
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
