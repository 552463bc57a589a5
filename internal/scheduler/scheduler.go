// Package scheduler keeps one yearly alert per tracked birthday.
//
// Every change to the birthday collection clears all pending alerts and
// schedules the full set again; alerts are never patched in place.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/manav03panchal/birthdays/internal/event"
	"github.com/manav03panchal/birthdays/internal/logging"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/storage"
)

// Observer is told about every reschedule pass.
type Observer interface {
	ObserveReschedule(result Result, took time.Duration)
}

// Options configures a Scheduler.
type Options struct {
	Hour     int
	Minute   int
	Title    string
	Sound    string
	NewID    func() string
	Observer Observer
}

// DefaultOptions returns alerts at 09:00 with the default title and sound.
func DefaultOptions() Options {
	return Options{
		Hour:   DefaultHour,
		Minute: DefaultMinute,
		Title:  DefaultTitle,
		Sound:  DefaultSound,
	}
}

// Failure is one alert that could not be registered.
type Failure struct {
	BirthdayID string
	Name       string
	Err        error
}

func (f Failure) Error() string {
	return fmt.Sprintf("schedule %s (%s): %v", f.Name, f.BirthdayID, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Result describes one reschedule pass.
type Result struct {
	Scheduled []Alert
	Failures  []Failure
}

// Err joins the failures, or returns nil when every alert was registered.
func (r Result) Err() error {
	if len(r.Failures) == 0 {
		return nil
	}
	errs := make([]error, len(r.Failures))
	for i, f := range r.Failures {
		errs[i] = f
	}
	return errors.Join(errs...)
}

// Scheduler derives alerts from birthdays and registers them on a Center.
type Scheduler struct {
	center Center
	opts   Options

	mu     sync.Mutex
	last   Result
	passes int
}

// New creates a scheduler over center.
func New(center Center, opts Options) *Scheduler {
	if opts.Title == "" {
		opts.Title = DefaultTitle
	}
	if opts.Sound == "" {
		opts.Sound = DefaultSound
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	return &Scheduler{center: center, opts: opts}
}

// Center returns the center alerts are registered on.
func (s *Scheduler) Center() Center {
	return s.center
}

// Plan builds the alerts for birthdays without registering them.
// Every call assigns fresh alert identifiers.
func (s *Scheduler) Plan(birthdays []*model.Birthday) []Alert {
	alerts := make([]Alert, 0, len(birthdays))
	for _, b := range birthdays {
		if b == nil {
			continue
		}
		alerts = append(alerts, Alert{
			ID:         s.opts.NewID(),
			BirthdayID: b.ID,
			Name:       b.Name,
			Title:      s.opts.Title,
			Body:       AlertBody(b.Name),
			Sound:      s.opts.Sound,
			Trigger:    TriggerFor(b, s.opts.Hour, s.opts.Minute),
		})
	}
	return alerts
}

// Reschedule removes every pending alert and registers one per birthday.
// A failing alert is logged and reported in the result; the rest are still
// registered. Nothing is retried.
func (s *Scheduler) Reschedule(ctx context.Context, birthdays []*model.Birthday) Result {
	start := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	s.center.RemoveAllPending()

	var res Result
	for _, alert := range s.Plan(birthdays) {
		if err := s.center.Add(alert); err != nil {
			f := Failure{BirthdayID: alert.BirthdayID, Name: alert.Name, Err: err}
			logging.WarnContext(ctx, "alert not scheduled",
				logging.KeyBirthdayID, alert.BirthdayID, logging.KeyError, err)
			res.Failures = append(res.Failures, f)
			continue
		}
		res.Scheduled = append(res.Scheduled, alert)
	}

	s.last = res
	s.passes++

	took := time.Since(start)
	logging.DebugContext(ctx, "alerts rescheduled",
		logging.KeyCount, len(res.Scheduled),
		"failed", len(res.Failures),
		logging.KeyDuration, took.Milliseconds(),
	)
	if s.opts.Observer != nil {
		s.opts.Observer.ObserveReschedule(res, took)
	}
	return res
}

// Last returns the result of the most recent pass and how many passes ran.
func (s *Scheduler) Last() (Result, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last, s.passes
}

// Attach reschedules from every snapshot of the full birthday collection
// until ctx is done or the subscription is cancelled. A failed snapshot
// leaves the pending alerts as they were.
func (s *Scheduler) Attach(ctx context.Context, store storage.Store) (*event.Subscription, error) {
	return store.WatchBirthdays(ctx, "", func(birthdays []*model.Birthday, err error) {
		pass := logging.NewRequestContext(ctx)
		if err != nil {
			logging.ErrorContext(pass, "birthday snapshot failed", logging.KeyError, err)
			return
		}
		s.Reschedule(pass, birthdays)
	})
}
