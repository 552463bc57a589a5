package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/model"
)

// Default alert time of day.
const (
	DefaultHour   = 9
	DefaultMinute = 0
)

// specParser matches the parser cron.WithSeconds installs on a Cron.
var specParser = cron.NewParser(
	cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// Trigger is a calendar condition keyed on month and day. It carries no
// year, so a repeating trigger fires every year on that date.
type Trigger struct {
	Month   time.Month `json:"month"`
	Day     int        `json:"day"`
	Hour    int        `json:"hour"`
	Minute  int        `json:"minute"`
	Repeats bool       `json:"repeats"`
}

// TriggerFor derives the yearly trigger of a birthday at hour:minute.
//
// A February 29 birthday keeps its February 29 trigger; in non-leap years
// the cron schedule simply has no matching day and does not fire.
func TriggerFor(b *model.Birthday, hour, minute int) Trigger {
	return Trigger{
		Month:   b.Month(),
		Day:     b.Day(),
		Hour:    hour,
		Minute:  minute,
		Repeats: true,
	}
}

// Validate checks that the trigger names a real calendar slot.
func (t Trigger) Validate() error {
	if t.Month < time.January || t.Month > time.December {
		return apperrors.NewValidationErrorWithValue("month", fmt.Sprint(int(t.Month)), apperrors.ErrInvalidDate, "Month must be between 1 and 12")
	}
	// 2024 is a leap year, so February allows 29.
	maxDay := time.Date(2024, t.Month+1, 0, 0, 0, 0, 0, time.UTC).Day()
	if t.Day < 1 || t.Day > maxDay {
		return apperrors.NewValidationErrorWithValue("day", fmt.Sprint(t.Day), apperrors.ErrInvalidDate,
			fmt.Sprintf("%s has at most %d days", t.Month, maxDay))
	}
	if t.Hour < 0 || t.Hour > 23 {
		return apperrors.NewValidationErrorWithValue("hour", fmt.Sprint(t.Hour), apperrors.ErrInvalidDate, "Hour must be between 0 and 23")
	}
	if t.Minute < 0 || t.Minute > 59 {
		return apperrors.NewValidationErrorWithValue("minute", fmt.Sprint(t.Minute), apperrors.ErrInvalidDate, "Minute must be between 0 and 59")
	}
	return nil
}

// Spec renders the trigger as a six-field cron expression
// (seconds first), e.g. "0 0 9 15 3 *" for March 15 at 09:00.
func (t Trigger) Spec() string {
	return fmt.Sprintf("0 %d %d %d %d *", t.Minute, t.Hour, t.Day, int(t.Month))
}

// Schedule parses the trigger into a cron schedule.
func (t Trigger) Schedule() (cron.Schedule, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return specParser.Parse(t.Spec())
}

// Next returns the first firing strictly after the given time, in its
// location. It returns the zero time for an invalid trigger.
func (t Trigger) Next(after time.Time) time.Time {
	sched, err := t.Schedule()
	if err != nil {
		return time.Time{}
	}
	return sched.Next(after)
}

// String formats the trigger for display.
func (t Trigger) String() string {
	s := fmt.Sprintf("%s %d at %02d:%02d", t.Month, t.Day, t.Hour, t.Minute)
	if t.Repeats {
		s += " yearly"
	}
	return s
}
