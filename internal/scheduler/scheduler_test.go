package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/storage"
	"github.com/manav03panchal/birthdays/internal/storage/local"
)

func birthday(id, name string, year int, month time.Month, day int) *model.Birthday {
	return &model.Birthday{ID: id, Name: name, Date: time.Date(year, month, day, 0, 0, 0, 0, time.UTC), GroupID: "g"}
}

func newTestScheduler(t *testing.T) (*Scheduler, *CronCenter) {
	center := NewCronCenter(CenterOptions{Location: time.UTC})
	return New(center, DefaultOptions()), center
}

// =============================================================================
// Trigger Tests
// =============================================================================

func TestTriggerFor(t *testing.T) {
	b := birthday("b1", "Alice", 1990, time.March, 15)
	trig := TriggerFor(b, DefaultHour, DefaultMinute)

	assert.Equal(t, time.March, trig.Month)
	assert.Equal(t, 15, trig.Day)
	assert.Equal(t, 9, trig.Hour)
	assert.Equal(t, 0, trig.Minute)
	assert.True(t, trig.Repeats)
	assert.Equal(t, "0 0 9 15 3 *", trig.Spec())
}

func TestTriggerIgnoresYear(t *testing.T) {
	a := TriggerFor(birthday("a", "A", 1990, time.March, 15), 9, 0)
	b := TriggerFor(birthday("b", "B", 2011, time.March, 15), 9, 0)
	assert.Equal(t, a, b)
}

func TestTriggerNext(t *testing.T) {
	trig := Trigger{Month: time.March, Day: 15, Hour: 9, Repeats: true}

	tests := []struct {
		name  string
		after time.Time
		want  time.Time
	}{
		{"before_in_year", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)},
		{"same_day_before_time", time.Date(2024, 3, 15, 8, 59, 0, 0, time.UTC), time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)},
		{"same_day_after_time", time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC), time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)},
		{"after_in_year", time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), time.Date(2025, 3, 15, 9, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, trig.Next(tt.after))
		})
	}
}

func TestTriggerNextUsesLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*60*60)
	trig := Trigger{Month: time.July, Day: 4, Hour: 9, Repeats: true}

	next := trig.Next(time.Date(2024, 1, 1, 0, 0, 0, 0, tokyo))
	assert.Equal(t, time.Date(2024, 7, 4, 9, 0, 0, 0, tokyo), next)
	assert.Equal(t, "JST", next.Location().String())
}

func TestTriggerLeapDay(t *testing.T) {
	trig := TriggerFor(birthday("b", "Leap", 2000, time.February, 29), 9, 0)
	require.NoError(t, trig.Validate())

	next := trig.Next(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, time.Date(2028, 2, 29, 9, 0, 0, 0, time.UTC), next)
}

func TestTriggerValidate(t *testing.T) {
	tests := []struct {
		name string
		trig Trigger
	}{
		{"month_zero", Trigger{Month: 0, Day: 1}},
		{"month_13", Trigger{Month: 13, Day: 1}},
		{"day_zero", Trigger{Month: time.May, Day: 0}},
		{"april_31", Trigger{Month: time.April, Day: 31}},
		{"february_30", Trigger{Month: time.February, Day: 30}},
		{"hour_24", Trigger{Month: time.May, Day: 1, Hour: 24}},
		{"minute_60", Trigger{Month: time.May, Day: 1, Minute: 60}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.trig.Validate()
			assert.True(t, apperrors.IsValidationError(err), "got %v", err)
			assert.ErrorIs(t, err, apperrors.ErrInvalidDate)
			assert.True(t, tt.trig.Next(time.Now()).IsZero())
		})
	}
}

func TestTriggerString(t *testing.T) {
	trig := Trigger{Month: time.March, Day: 15, Hour: 9, Minute: 5, Repeats: true}
	assert.Equal(t, "March 15 at 09:05 yearly", trig.String())
}

// =============================================================================
// Alert Tests
// =============================================================================

func TestAlertBody(t *testing.T) {
	assert.Equal(t, "It's Alice's birthday today! Wish them all the best.", AlertBody("Alice"))
	assert.Equal(t, "It's someone's birthday today! Wish them all the best.", AlertBody(""))
	assert.Equal(t, "It's someone's birthday today! Wish them all the best.", AlertBody("   "))
}

func TestPlan(t *testing.T) {
	s, _ := newTestScheduler(t)
	birthdays := []*model.Birthday{
		birthday("b1", "Alice", 1990, time.March, 15),
		nil,
		birthday("b2", "", 1985, time.December, 1),
	}

	alerts := s.Plan(birthdays)
	require.Len(t, alerts, 2)

	assert.Equal(t, "b1", alerts[0].BirthdayID)
	assert.Equal(t, DefaultTitle, alerts[0].Title)
	assert.Equal(t, DefaultSound, alerts[0].Sound)
	assert.Equal(t, AlertBody("Alice"), alerts[0].Body)
	assert.Equal(t, AlertBody(""), alerts[1].Body)
	assert.NotEqual(t, alerts[0].ID, alerts[1].ID)

	again := s.Plan(birthdays)
	assert.NotEqual(t, alerts[0].ID, again[0].ID, "fresh ids per pass")
}

func TestPlanUsesConfiguredTime(t *testing.T) {
	s := New(NewCronCenter(CenterOptions{}), Options{Hour: 7, Minute: 30})
	alerts := s.Plan([]*model.Birthday{birthday("b1", "Alice", 1990, time.March, 15)})
	require.Len(t, alerts, 1)
	assert.Equal(t, "0 30 7 15 3 *", alerts[0].Trigger.Spec())
	assert.Equal(t, DefaultTitle, alerts[0].Title)
}

// =============================================================================
// Reschedule Tests
// =============================================================================

func TestRescheduleIsIdempotent(t *testing.T) {
	s, center := newTestScheduler(t)
	birthdays := []*model.Birthday{
		birthday("b1", "Alice", 1990, time.March, 15),
		birthday("b2", "Bob", 1985, time.July, 4),
	}

	first := s.Reschedule(context.Background(), birthdays)
	require.NoError(t, first.Err())
	second := s.Reschedule(context.Background(), birthdays)
	require.NoError(t, second.Err())

	pending := center.Pending()
	require.Len(t, pending, 2, "one alert per birthday, not two")
	perBirthday := map[string]int{}
	for _, a := range pending {
		perBirthday[a.BirthdayID]++
	}
	assert.Equal(t, map[string]int{"b1": 1, "b2": 1}, perBirthday)

	_, passes := s.Last()
	assert.Equal(t, 2, passes)
}

func TestRescheduleDropsRemovedBirthdays(t *testing.T) {
	s, center := newTestScheduler(t)
	alice := birthday("b1", "Alice", 1990, time.March, 15)
	bob := birthday("b2", "Bob", 1985, time.July, 4)

	s.Reschedule(context.Background(), []*model.Birthday{alice, bob})
	s.Reschedule(context.Background(), []*model.Birthday{bob})

	pending := center.Pending()
	require.Len(t, pending, 1)
	assert.Equal(t, "b2", pending[0].BirthdayID)

	s.Reschedule(context.Background(), nil)
	assert.Empty(t, center.Pending())
}

// failingCenter rejects alerts for selected birthdays.
type failingCenter struct {
	*CronCenter
	reject map[string]bool
	adds   int
}

func (c *failingCenter) Add(alert Alert) error {
	c.adds++
	if c.reject[alert.BirthdayID] {
		return errors.New("notification permission denied")
	}
	return c.CronCenter.Add(alert)
}

func TestRescheduleContinuesAfterFailure(t *testing.T) {
	center := &failingCenter{
		CronCenter: NewCronCenter(CenterOptions{Location: time.UTC}),
		reject:     map[string]bool{"b2": true},
	}
	s := New(center, DefaultOptions())

	res := s.Reschedule(context.Background(), []*model.Birthday{
		birthday("b1", "Alice", 1990, time.March, 15),
		birthday("b2", "Bob", 1985, time.July, 4),
		birthday("b3", "Carol", 1970, time.October, 9),
	})

	assert.Equal(t, 3, center.adds, "every alert is attempted once")
	assert.Len(t, res.Scheduled, 2)
	require.Len(t, res.Failures, 1)
	assert.Equal(t, "b2", res.Failures[0].BirthdayID)
	assert.ErrorContains(t, res.Err(), "permission denied")
	assert.Len(t, center.Pending(), 2)
}

func TestRescheduleReportsInvalidTrigger(t *testing.T) {
	center := NewCronCenter(CenterOptions{Location: time.UTC})
	s := New(center, Options{Hour: 25})

	res := s.Reschedule(context.Background(), []*model.Birthday{
		birthday("b1", "Alice", 1990, time.March, 15),
		birthday("b2", "Bob", 1985, time.July, 4),
	})

	require.Len(t, res.Failures, 2)
	for _, f := range res.Failures {
		assert.True(t, apperrors.IsValidationError(f.Err))
	}
	assert.Empty(t, res.Scheduled)
	assert.Zero(t, center.Len())
}

type recordingObserver struct {
	mu      sync.Mutex
	results []Result
}

func (o *recordingObserver) ObserveReschedule(r Result, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.results = append(o.results, r)
}

func TestRescheduleNotifiesObserver(t *testing.T) {
	obs := &recordingObserver{}
	opts := DefaultOptions()
	opts.Observer = obs
	s := New(NewCronCenter(CenterOptions{}), opts)

	s.Reschedule(context.Background(), []*model.Birthday{birthday("b1", "Alice", 1990, time.March, 15)})

	require.Len(t, obs.results, 1)
	assert.Len(t, obs.results[0].Scheduled, 1)
}

// =============================================================================
// Center Tests
// =============================================================================

func TestCronCenterAdd(t *testing.T) {
	center := NewCronCenter(CenterOptions{Location: time.UTC})

	alert := Alert{ID: "a1", BirthdayID: "b1", Trigger: Trigger{Month: time.March, Day: 15, Hour: 9, Repeats: true}}
	require.NoError(t, center.Add(alert))
	assert.Equal(t, 1, center.Len())

	t.Run("duplicate_id", func(t *testing.T) {
		assert.Error(t, center.Add(alert))
	})

	t.Run("missing_id", func(t *testing.T) {
		err := center.Add(Alert{Trigger: alert.Trigger})
		assert.True(t, apperrors.IsValidationError(err))
	})

	t.Run("invalid_trigger", func(t *testing.T) {
		err := center.Add(Alert{ID: "a2", Trigger: Trigger{Month: time.April, Day: 31}})
		assert.ErrorIs(t, err, apperrors.ErrInvalidDate)
	})

	assert.Equal(t, 1, center.Len())
	center.RemoveAllPending()
	assert.Equal(t, 0, center.Len())
}

func TestCronCenterEvery(t *testing.T) {
	center := NewCronCenter(CenterOptions{Location: time.UTC})

	var runs atomic.Int32
	center.Every(time.Second, func() { runs.Add(1) })
	assert.Zero(t, center.Len(), "jobs are not alerts")

	center.Start()
	t.Cleanup(center.Stop)
	require.Eventually(t, func() bool { return runs.Load() >= 1 }, 3*time.Second, 20*time.Millisecond)

	center.RemoveAllPending()
	n := runs.Load()
	require.Eventually(t, func() bool { return runs.Load() > n }, 3*time.Second, 20*time.Millisecond,
		"removing alerts leaves jobs running")
}

func TestCronCenterPendingOrder(t *testing.T) {
	center := NewCronCenter(CenterOptions{Location: time.UTC})
	for _, a := range []Alert{
		{ID: "3", Name: "Carol", Trigger: Trigger{Month: time.October, Day: 9}},
		{ID: "2", Name: "Bob", Trigger: Trigger{Month: time.March, Day: 15}},
		{ID: "1", Name: "Alice", Trigger: Trigger{Month: time.March, Day: 15}},
	} {
		require.NoError(t, center.Add(a))
	}

	var names []string
	for _, a := range center.Pending() {
		names = append(names, a.Name)
	}
	assert.Equal(t, []string{"Alice", "Bob", "Carol"}, names)
}

func TestCronCenterNextRun(t *testing.T) {
	center := NewCronCenter(CenterOptions{Location: time.UTC})
	now := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	assert.True(t, center.NextRun(now).IsZero())

	require.NoError(t, center.Add(Alert{ID: "1", Trigger: Trigger{Month: time.March, Day: 15, Hour: 9, Repeats: true}}))
	require.NoError(t, center.Add(Alert{ID: "2", Trigger: Trigger{Month: time.July, Day: 4, Hour: 9, Repeats: true}}))

	assert.Equal(t, time.Date(2024, 7, 4, 9, 0, 0, 0, time.UTC), center.NextRun(now))
}

func TestCronCenterFire(t *testing.T) {
	var delivered []Alert
	var observed atomic.Int32
	center := NewCronCenter(CenterOptions{
		Location: time.UTC,
		Deliverer: DelivererFunc(func(_ context.Context, a Alert) error {
			delivered = append(delivered, a)
			return nil
		}),
		OnDelivered: func(Alert, error) { observed.Add(1) },
	})

	yearly := Alert{ID: "yearly", Trigger: Trigger{Month: time.March, Day: 15, Hour: 9, Repeats: true}}
	once := Alert{ID: "once", Trigger: Trigger{Month: time.March, Day: 15, Hour: 9}}
	require.NoError(t, center.Add(yearly))
	require.NoError(t, center.Add(once))

	center.fire(yearly)
	center.fire(once)

	assert.Len(t, delivered, 2)
	assert.Equal(t, int32(2), observed.Load())

	pending := center.Pending()
	require.Len(t, pending, 1, "non-repeating alerts are removed after firing")
	assert.Equal(t, "yearly", pending[0].ID)
}

func TestCronCenterFireReportsError(t *testing.T) {
	deliveryErr := errors.New("webhook down")
	var got error
	center := NewCronCenter(CenterOptions{
		Deliverer:   DelivererFunc(func(context.Context, Alert) error { return deliveryErr }),
		OnDelivered: func(_ Alert, err error) { got = err },
	})

	center.fire(Alert{ID: "a", Trigger: Trigger{Month: time.March, Day: 15, Repeats: true}})
	assert.ErrorIs(t, got, deliveryErr)
}

func TestCronCenterStartStop(t *testing.T) {
	center := NewCronCenter(CenterOptions{})
	center.Start()
	require.NoError(t, center.Add(Alert{ID: "a", Trigger: Trigger{Month: time.March, Day: 15, Repeats: true}}))
	time.Sleep(10 * time.Millisecond)
	center.Stop()
	assert.Equal(t, 1, center.Len())
}

func TestLogDeliverer(t *testing.T) {
	assert.NoError(t, LogDeliverer{}.Deliver(context.Background(), Alert{ID: "a", Title: DefaultTitle}))
}

// =============================================================================
// Attach Tests
// =============================================================================

func TestAttachFollowsStore(t *testing.T) {
	store, err := local.Open(":memory:", storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s, center := newTestScheduler(t)
	sub, err := s.Attach(ctx, store)
	require.NoError(t, err)
	t.Cleanup(sub.Cancel)

	require.Eventually(t, func() bool { _, n := s.Last(); return n >= 1 }, time.Second, 5*time.Millisecond)
	assert.Empty(t, center.Pending())

	g, err := store.CreateGroup(ctx, "Family", "", "")
	require.NoError(t, err)
	alice, err := store.CreateBirthday(ctx, "Alice", time.Date(1990, 3, 15, 0, 0, 0, 0, time.UTC), "", g.ID)
	require.NoError(t, err)
	_, err = store.CreateBirthday(ctx, "Bob", time.Date(1985, 7, 4, 0, 0, 0, 0, time.UTC), "", g.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return center.Len() == 2 }, time.Second, 5*time.Millisecond)

	require.NoError(t, store.DeleteBirthday(ctx, alice.ID))
	require.Eventually(t, func() bool {
		pending := center.Pending()
		return len(pending) == 1 && pending[0].Name == "Bob"
	}, time.Second, 5*time.Millisecond)

	require.NoError(t, store.DeleteGroup(ctx, g.ID))
	require.Eventually(t, func() bool { return center.Len() == 0 }, time.Second, 5*time.Millisecond)
}
