package daemon

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/manav03panchal/birthdays/internal/logging"
	"github.com/manav03panchal/birthdays/internal/notify"
	"github.com/manav03panchal/birthdays/internal/output"
	"github.com/manav03panchal/birthdays/internal/scheduler"
	"github.com/manav03panchal/birthdays/internal/storage"
)

// Config configures a Daemon.
type Config struct {
	// Addr is the HTTP listen address. Use port 0 for an ephemeral port.
	Addr string
	// ShutdownTimeout bounds the graceful HTTP shutdown.
	ShutdownTimeout time.Duration
	// PollInterval is how often a storage.Versioned store is checked for
	// commits by other processes. Zero or negative disables the check.
	PollInterval time.Duration
	// Version is reported by /healthz and the state file.
	Version string
	// StateDir holds the PID and state files. Empty means DefaultStateDir.
	StateDir string
	// Location alerts fire in.
	Location *time.Location
	// Schedule sets the alert time of day, title and sound.
	Schedule scheduler.Options
}

// Daemon keeps the alert schedule in step with the store and serves the
// health, metrics and alert endpoints.
type Daemon struct {
	cfg       Config
	store     storage.Store
	center    *scheduler.CronCenter
	scheduler *scheduler.Scheduler
	metrics   *Metrics
	health    *HealthChecker
	pidFile   *PIDFile
	now       func() time.Time

	mu   sync.RWMutex
	addr string
}

var (
	_ scheduler.Observer = (*Daemon)(nil)
	_ notify.Recorder    = (*Metrics)(nil)
)

// New creates a daemon over store. Firing alerts go to the enabled webhooks
// of dispatcher; with a nil dispatcher, or no webhooks enabled, they are
// logged.
func New(store storage.Store, dispatcher *notify.Dispatcher, cfg Config) *Daemon {
	if cfg.ShutdownTimeout <= 0 {
		cfg.ShutdownTimeout = 5 * time.Second
	}

	d := &Daemon{
		cfg:     cfg,
		store:   store,
		metrics: NewMetrics(),
		health:  NewHealthChecker(cfg.Version),
		pidFile: NewPIDFile(cfg.StateDir),
		now:     time.Now,
	}

	var deliverer scheduler.Deliverer = scheduler.LogDeliverer{}
	if dispatcher != nil {
		dispatcher.SetRecorder(d.metrics)
		deliverer = &notify.AlertDeliverer{Dispatcher: dispatcher, Fallback: scheduler.LogDeliverer{}}
	}

	d.center = scheduler.NewCronCenter(scheduler.CenterOptions{
		Location:    cfg.Location,
		Deliverer:   deliverer,
		OnDelivered: d.metrics.ObserveAlert,
	})
	opts := cfg.Schedule
	opts.Observer = d
	d.scheduler = scheduler.New(d.center, opts)

	d.health.SetPendingSource(d.center.Len)
	return d
}

// Metrics returns the daemon's metrics.
func (d *Daemon) Metrics() *Metrics {
	return d.metrics
}

// Health returns the daemon's health checker.
func (d *Daemon) Health() *HealthChecker {
	return d.health
}

// Center returns the notification center holding the pending alerts.
func (d *Daemon) Center() *scheduler.CronCenter {
	return d.center
}

// Addr returns the address the HTTP server listens on, or "" before Run
// has bound it.
func (d *Daemon) Addr() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.addr
}

// ObserveReschedule implements scheduler.Observer.
func (d *Daemon) ObserveReschedule(result scheduler.Result, took time.Duration) {
	d.metrics.ObserveReschedule(result, took)
	d.health.MarkRescheduled(d.now())
}

// Reload rebuilds the schedule from a fresh snapshot.
func (d *Daemon) Reload(ctx context.Context) error {
	ctx = logging.NewRequestContext(ctx)
	birthdays, err := d.store.ListAllBirthdays(ctx)
	if err != nil {
		logging.ErrorContext(ctx, "reload failed", logging.KeyError, err)
		return err
	}
	res := d.scheduler.Reschedule(ctx, birthdays)
	logging.InfoContext(ctx, "alerts reloaded", logging.KeyCount, len(res.Scheduled))
	return res.Err()
}

// watchExternal reloads whenever another process commits to the store. The
// store's own change events only cover writes made through this process.
func (d *Daemon) watchExternal(ctx context.Context) {
	v, ok := d.store.(storage.Versioned)
	if !ok || d.cfg.PollInterval <= 0 {
		return
	}
	last, err := v.DataVersion(ctx)
	if err != nil {
		logging.WarnContext(ctx, "store version unavailable", logging.KeyError, err)
	}
	d.center.Every(d.cfg.PollInterval, func() {
		cur, err := v.DataVersion(ctx)
		if err != nil {
			logging.WarnContext(ctx, "store version check failed", logging.KeyError, err)
			return
		}
		if cur == last {
			return
		}
		last = cur
		logging.DebugContext(ctx, "store changed outside the daemon", "version", cur)
		if err := d.Reload(ctx); err == nil {
			d.metrics.ObserveExternalChange()
		}
	})
	logging.DebugContext(ctx, "watching store for outside changes", logging.KeyDuration, d.cfg.PollInterval.String())
}

// Handler returns the daemon's HTTP routes.
func (d *Daemon) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", d.handleHealth)
	mux.Handle("GET /metrics", d.metrics.Handler())
	mux.HandleFunc("GET /alerts", d.handleAlerts)
	return mux
}

func (d *Daemon) handleHealth(w http.ResponseWriter, _ *http.Request) {
	status := d.health.Check()
	code := http.StatusOK
	if status.Status != StatusHealthy {
		code = http.StatusServiceUnavailable
	}
	writeJSON(w, code, status)
}

func (d *Daemon) handleAlerts(w http.ResponseWriter, _ *http.Request) {
	now := d.now()
	alerts := d.center.Pending()
	out := make([]*output.AlertOutput, len(alerts))
	for i, a := range alerts {
		out[i] = output.NewAlertOutput(a, now)
	}
	writeJSON(w, http.StatusOK, map[string]any{"alerts": out})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Warn("failed to write response", logging.KeyError, err)
	}
}

// Run starts the daemon in the foreground and blocks until ctx is done, a
// stop signal arrives, or the HTTP server fails. SIGHUP triggers Reload.
func (d *Daemon) Run(ctx context.Context) error {
	if pid := d.pidFile.RunningPID(); pid > 0 && pid != os.Getpid() {
		return fmt.Errorf("%w (pid %d)", ErrAlreadyRunning, pid)
	}

	ln, err := net.Listen("tcp", d.cfg.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", d.cfg.Addr, err)
	}
	d.mu.Lock()
	d.addr = ln.Addr().String()
	d.mu.Unlock()

	state := State{Addr: d.Addr(), StartedAt: d.now(), Version: d.cfg.Version}
	if err := d.pidFile.Acquire(state); err != nil {
		ln.Close()
		return err
	}
	defer func() {
		if err := d.pidFile.Release(); err != nil {
			logging.Warn("failed to remove daemon state", logging.KeyError, err)
		}
	}()

	d.watchExternal(ctx)
	d.center.Start()
	defer d.center.Stop()

	sub, err := d.scheduler.Attach(ctx, d.store)
	if err != nil {
		ln.Close()
		return err
	}
	defer sub.Cancel()

	srv := &http.Server{Handler: d.Handler(), ReadHeaderTimeout: 5 * time.Second}
	serveErr := make(chan error, 1)
	go func() { serveErr <- srv.Serve(ln) }()

	logging.InfoContext(ctx, "daemon started", "pid", os.Getpid(), logging.KeyURL, d.Addr())

	sigCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	sigs := NewSignalHandler()
	defer sigs.Stop()
	stopped := make(chan os.Signal, 1)
	go func() {
		stopped <- sigs.Run(sigCtx, func() { d.Reload(sigCtx) })
	}()

	var runErr error
	select {
	case err := <-serveErr:
		if !errors.Is(err, http.ErrServerClosed) {
			runErr = err
		}
	case sig := <-stopped:
		if sig != nil {
			logging.InfoContext(ctx, "received signal", "signal", sig.String())
		}
	}
	cancel()

	shutdownCtx, done := context.WithTimeout(context.Background(), d.cfg.ShutdownTimeout)
	defer done()
	if err := srv.Shutdown(shutdownCtx); err != nil && runErr == nil {
		runErr = err
	}

	logging.InfoContext(ctx, "daemon stopped")
	return runErr
}

// Status is what `daemon status` reports.
type Status struct {
	Running   bool          `json:"running"`
	PID       int           `json:"pid,omitempty"`
	Addr      string        `json:"addr,omitempty"`
	StartedAt time.Time     `json:"started_at,omitzero"`
	Uptime    string        `json:"uptime,omitempty"`
	Version   string        `json:"version,omitempty"`
	Health    *HealthStatus `json:"health,omitempty"`
}

// GetStatus reports whether a daemon is running from the state in
// stateDir, and queries its health endpoint when it is.
func GetStatus(ctx context.Context, stateDir string, client *http.Client) *Status {
	pf := NewPIDFile(stateDir)
	status := &Status{}

	pid := pf.RunningPID()
	if pid == 0 {
		return status
	}
	status.Running = true
	status.PID = pid

	state, err := pf.ReadState()
	if err != nil {
		return status
	}
	status.Addr = state.Addr
	status.StartedAt = state.StartedAt
	status.Version = state.Version
	status.Uptime = formatUptime(time.Since(state.StartedAt))

	if state.Addr != "" {
		if health, err := fetchHealth(ctx, client, state.Addr); err == nil {
			status.Health = health
		} else {
			logging.DebugContext(ctx, "health query failed", logging.KeyError, err)
		}
	}
	return status
}

func fetchHealth(ctx context.Context, client *http.Client, addr string) (*HealthStatus, error) {
	if client == nil {
		client = &http.Client{Timeout: 2 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://"+addr+"/healthz", nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var health HealthStatus
	if err := json.NewDecoder(resp.Body).Decode(&health); err != nil {
		return nil, err
	}
	return &health, nil
}

// formatUptime formats a duration as uptime.
func formatUptime(d time.Duration) string {
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	if d < 24*time.Hour {
		hours := int(d.Hours())
		minutes := int(d.Minutes()) % 60
		if minutes > 0 {
			return fmt.Sprintf("%dh %dm", hours, minutes)
		}
		return fmt.Sprintf("%dh", hours)
	}

	days := int(d.Hours() / 24)
	hours := int(d.Hours()) % 24
	if hours > 0 {
		return fmt.Sprintf("%dd %dh", days, hours)
	}
	return fmt.Sprintf("%dd", days)
}
