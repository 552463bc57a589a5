package daemon

import (
	"encoding/json"
	"maps"
	"runtime"
	"slices"
	"sync"
	"time"
)

// Health states reported by HealthChecker.
const (
	StatusHealthy   = "healthy"
	StatusUnhealthy = "unhealthy"
)

// HealthStatus represents the current health state of the daemon.
type HealthStatus struct {
	Status         string        `json:"status"`
	UptimeSeconds  int64         `json:"uptime_seconds"`
	MemoryMB       float64       `json:"memory_mb"`
	PendingAlerts  int           `json:"pending_alerts"`
	LastReschedule *time.Time    `json:"last_reschedule,omitempty"`
	LastCheck      time.Time     `json:"last_check"`
	Version        string        `json:"version,omitempty"`
	Goroutines     int           `json:"goroutines"`
	Checks         []CheckResult `json:"checks,omitempty"`
}

// CheckResult represents the result of a single health check.
type CheckResult struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// HealthChecker provides health status for the daemon.
type HealthChecker struct {
	mu             sync.RWMutex
	startTime      time.Time
	lastCheck      time.Time
	lastReschedule time.Time
	pending        func() int
	version        string
	checks         map[string]func() error
	now            func() time.Time
}

// NewHealthChecker creates a new health checker.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{
		startTime: time.Now(),
		version:   version,
		checks:    make(map[string]func() error),
		now:       time.Now,
	}
}

// SetPendingSource installs the function reporting how many alerts are
// pending.
func (h *HealthChecker) SetPendingSource(pending func() int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.pending = pending
}

// MarkRescheduled records when alerts were last rebuilt.
func (h *HealthChecker) MarkRescheduled(at time.Time) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.lastReschedule = at
}

// AddCheck adds a named health check. A check returning an error makes the
// daemon unhealthy.
func (h *HealthChecker) AddCheck(name string, check func() error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.checks[name] = check
}

// RemoveCheck removes a health check.
func (h *HealthChecker) RemoveCheck(name string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.checks, name)
}

// Check runs every check and returns the status.
func (h *HealthChecker) Check() *HealthStatus {
	h.mu.Lock()
	h.lastCheck = h.now()
	h.mu.Unlock()

	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.mu.RLock()
	defer h.mu.RUnlock()

	status := &HealthStatus{
		Status:        StatusHealthy,
		UptimeSeconds: int64(h.now().Sub(h.startTime).Seconds()),
		MemoryMB:      float64(memStats.Alloc) / 1024 / 1024,
		LastCheck:     h.lastCheck,
		Version:       h.version,
		Goroutines:    runtime.NumGoroutine(),
	}
	if h.pending != nil {
		status.PendingAlerts = h.pending()
	}
	if !h.lastReschedule.IsZero() {
		at := h.lastReschedule
		status.LastReschedule = &at
	}

	for _, name := range slices.Sorted(maps.Keys(h.checks)) {
		result := CheckResult{Name: name, Healthy: true}
		if err := h.checks[name](); err != nil {
			result.Healthy = false
			result.Error = err.Error()
			status.Status = StatusUnhealthy
		}
		status.Checks = append(status.Checks, result)
	}
	return status
}

// IsHealthy returns true if every check passes.
func (h *HealthChecker) IsHealthy() bool {
	return h.Check().Status == StatusHealthy
}

// JSON returns the health status as JSON.
func (h *HealthChecker) JSON() ([]byte, error) {
	return json.MarshalIndent(h.Check(), "", "  ")
}

// Uptime returns how long the daemon has been running.
func (h *HealthChecker) Uptime() time.Duration {
	return h.now().Sub(h.startTime)
}
