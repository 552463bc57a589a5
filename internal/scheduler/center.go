package scheduler

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/logging"
)

// Center holds pending alerts. It has no notion of updating an alert:
// callers remove everything and add the new set.
type Center interface {
	RemoveAllPending()
	Add(alert Alert) error
	Pending() []Alert
}

// Deliverer hands a firing alert to the user.
type Deliverer interface {
	Deliver(ctx context.Context, alert Alert) error
}

// DelivererFunc adapts a function to Deliverer.
type DelivererFunc func(ctx context.Context, alert Alert) error

// Deliver calls f.
func (f DelivererFunc) Deliver(ctx context.Context, alert Alert) error {
	return f(ctx, alert)
}

// LogDeliverer writes firing alerts to the log.
type LogDeliverer struct{}

// Deliver logs the alert.
func (LogDeliverer) Deliver(ctx context.Context, alert Alert) error {
	logging.InfoContext(ctx, alert.Title,
		logging.KeyAlertID, alert.ID,
		logging.KeyBirthdayID, alert.BirthdayID,
		"body", alert.Body,
	)
	return nil
}

// CenterOptions configures a CronCenter.
type CenterOptions struct {
	// Location alerts fire in. Defaults to time.Local.
	Location *time.Location
	// Deliverer receives firing alerts. Defaults to LogDeliverer.
	Deliverer Deliverer
	// OnDelivered is called after each delivery attempt.
	OnDelivered func(alert Alert, err error)
}

type pending struct {
	alert Alert
	entry cron.EntryID
}

// CronCenter is a Center backed by robfig/cron.
type CronCenter struct {
	cron *cron.Cron
	loc  *time.Location
	opts CenterOptions

	mu      sync.Mutex
	pending map[string]pending
}

var _ Center = (*CronCenter)(nil)

// NewCronCenter creates a stopped center.
func NewCronCenter(opts CenterOptions) *CronCenter {
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Deliverer == nil {
		opts.Deliverer = LogDeliverer{}
	}
	return &CronCenter{
		cron:    cron.New(cron.WithSeconds(), cron.WithLocation(opts.Location)),
		loc:     opts.Location,
		opts:    opts,
		pending: make(map[string]pending),
	}
}

// Location returns the location alerts fire in.
func (c *CronCenter) Location() *time.Location {
	return c.loc
}

// Start begins firing alerts.
func (c *CronCenter) Start() {
	c.cron.Start()
	logging.DebugLog("alert center started", logging.KeyCount, c.Len())
}

// Stop stops the cron loop and waits for running deliveries.
func (c *CronCenter) Stop() {
	ctx := c.cron.Stop()
	<-ctx.Done()
	logging.DebugLog("alert center stopped")
}

// Add registers an alert.
func (c *CronCenter) Add(alert Alert) error {
	if alert.ID == "" {
		return apperrors.NewValidationError("id", apperrors.ErrEmptyName, "Alerts need an identifier")
	}
	sched, err := alert.Trigger.Schedule()
	if err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.pending[alert.ID]; ok {
		return fmt.Errorf("alert %s is already pending", alert.ID)
	}
	entry := c.cron.Schedule(sched, cron.FuncJob(func() { c.fire(alert) }))
	c.pending[alert.ID] = pending{alert: alert, entry: entry}
	return nil
}

// Every runs job at a fixed interval while the center is started. A run is
// skipped while the previous one is still going. Jobs are not alerts:
// Pending, Len and RemoveAllPending ignore them.
func (c *CronCenter) Every(interval time.Duration, job func()) cron.EntryID {
	wrapped := cron.NewChain(cron.SkipIfStillRunning(cron.DiscardLogger)).Then(cron.FuncJob(job))
	return c.cron.Schedule(cron.Every(interval), wrapped)
}

// RemoveAllPending drops every pending alert.
func (c *CronCenter) RemoveAllPending() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for id, p := range c.pending {
		c.cron.Remove(p.entry)
		delete(c.pending, id)
	}
}

// Pending returns the pending alerts by trigger date, then name.
func (c *CronCenter) Pending() []Alert {
	c.mu.Lock()
	alerts := make([]Alert, 0, len(c.pending))
	for _, p := range c.pending {
		alerts = append(alerts, p.alert)
	}
	c.mu.Unlock()

	slices.SortFunc(alerts, func(a, b Alert) int {
		if a.Trigger.Month != b.Trigger.Month {
			return int(a.Trigger.Month) - int(b.Trigger.Month)
		}
		if a.Trigger.Day != b.Trigger.Day {
			return a.Trigger.Day - b.Trigger.Day
		}
		if n := strings.Compare(a.Name, b.Name); n != 0 {
			return n
		}
		return strings.Compare(a.ID, b.ID)
	})
	return alerts
}

// Len returns the number of pending alerts.
func (c *CronCenter) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.pending)
}

// NextRun returns the earliest firing after now, or the zero time when
// nothing is pending.
func (c *CronCenter) NextRun(now time.Time) time.Time {
	now = now.In(c.loc)
	var next time.Time
	for _, a := range c.Pending() {
		t := a.Trigger.Next(now)
		if t.IsZero() {
			continue
		}
		if next.IsZero() || t.Before(next) {
			next = t
		}
	}
	return next
}

func (c *CronCenter) fire(alert Alert) {
	ctx := logging.NewRequestContext(context.Background())
	err := c.opts.Deliverer.Deliver(ctx, alert)
	if err != nil {
		logging.ErrorContext(ctx, "alert delivery failed",
			logging.KeyAlertID, alert.ID, logging.KeyError, err)
	}
	if !alert.Trigger.Repeats {
		c.remove(alert.ID)
	}
	if c.opts.OnDelivered != nil {
		c.opts.OnDelivered(alert, err)
	}
}

func (c *CronCenter) remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.pending[id]; ok {
		c.cron.Remove(p.entry)
		delete(c.pending, id)
	}
}
