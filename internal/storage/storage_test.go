package storage

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/event"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/validate"
)

func testOptions() Options {
	n := 0
	base := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	return Options{
		Now: func() time.Time {
			n++
			return base.Add(time.Duration(n) * time.Second)
		},
		NewID: func() string { return fmt.Sprintf("id-%02d", n) },
	}.WithDefaults()
}

// =============================================================================
// Options Tests
// =============================================================================

func TestWithDefaults(t *testing.T) {
	o := Options{}.WithDefaults()
	assert.Equal(t, validate.EmptyNameReject, o.EmptyName)
	assert.NotNil(t, o.Now)
	assert.NotNil(t, o.Bus)
	assert.Len(t, o.NewID(), 36)
}

func TestPrepareGroup(t *testing.T) {
	o := testOptions()

	g, err := o.PrepareGroup("u1", " Family ", "", "#ff00aa")
	require.NoError(t, err)
	assert.Equal(t, "Family", g.Name)
	assert.Equal(t, model.DefaultIcon, g.Icon)
	assert.Equal(t, "#FF00AA", g.Color)
	assert.Equal(t, "u1", g.OwnerID)
	assert.NotEmpty(t, g.ID)
	assert.Equal(t, g.CreatedAt, g.UpdatedAt)

	_, err = o.PrepareGroup("", "", "heart", "")
	assert.True(t, apperrors.IsValidationError(err))

	_, err = o.PrepareGroup("", "Work", "not-an-icon", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidIcon)

	_, err = o.PrepareGroup("", "Work", "heart", "red")
	assert.ErrorIs(t, err, apperrors.ErrInvalidColor)
}

func TestPrepareBirthday(t *testing.T) {
	o := testOptions()
	tokyo := time.FixedZone("JST", 9*3600)

	t.Run("civil_date", func(t *testing.T) {
		// 23:30 on July 4th in Tokyo is July 4th, whatever UTC says.
		b, err := o.PrepareBirthday("", "Alice", time.Date(2000, 7, 4, 23, 30, 0, 0, tokyo), "likes cake", "g1")
		require.NoError(t, err)
		assert.Equal(t, time.Date(2000, 7, 4, 0, 0, 0, 0, time.UTC), b.Date)
		assert.Equal(t, "likes cake", b.Comment)
		assert.Equal(t, "g1", b.GroupID)
	})

	t.Run("missing_group", func(t *testing.T) {
		_, err := o.PrepareBirthday("", "Alice", time.Now(), "", "")
		assert.ErrorIs(t, err, apperrors.ErrGroupRequired)
	})

	t.Run("zero_date", func(t *testing.T) {
		_, err := o.PrepareBirthday("", "Alice", time.Time{}, "", "g1")
		assert.ErrorIs(t, err, apperrors.ErrInvalidDate)
	})

	t.Run("empty_name_policy", func(t *testing.T) {
		_, err := o.PrepareBirthday("", "", time.Now(), "", "g1")
		assert.ErrorIs(t, err, apperrors.ErrEmptyName)

		lenient := o
		lenient.EmptyName = validate.EmptyNameDefault
		b, err := lenient.PrepareBirthday("", "", time.Now(), "", "g1")
		require.NoError(t, err)
		assert.Equal(t, model.DefaultBirthdayName, b.Name)
	})
}

// =============================================================================
// Ordering Tests
// =============================================================================

func TestSortGroups(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	groups := []*model.Group{
		{ID: "c", CreatedAt: t0.Add(time.Hour)},
		{ID: "b", CreatedAt: t0},
		{ID: "a", CreatedAt: t0},
	}
	SortGroups(groups)
	assert.Equal(t, "a", groups[0].ID)
	assert.Equal(t, "b", groups[1].ID)
	assert.Equal(t, "c", groups[2].ID)
}

func TestSortBirthdays(t *testing.T) {
	t0 := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	d1 := time.Date(1990, 3, 15, 0, 0, 0, 0, time.UTC)
	d2 := time.Date(1985, 12, 1, 0, 0, 0, 0, time.UTC)
	birthdays := []*model.Birthday{
		{ID: "late", Date: d1, CreatedAt: t0.Add(time.Minute)},
		{ID: "early", Date: d1, CreatedAt: t0},
		{ID: "oldest", Date: d2, CreatedAt: t0.Add(time.Hour)},
	}
	SortBirthdays(birthdays)
	assert.Equal(t, []string{"oldest", "early", "late"},
		[]string{birthdays[0].ID, birthdays[1].ID, birthdays[2].ID})
}

// =============================================================================
// Watch Tests
// =============================================================================

func TestWatch(t *testing.T) {
	bus := event.NewBus()
	t.Cleanup(bus.Close)

	var mu sync.Mutex
	source := []string{"a"}
	var seen [][]string

	ctx, cancel := context.WithCancel(context.Background())
	sub := Watch(ctx, bus, "", []event.Topic{event.TopicGroups},
		func(context.Context) ([]string, error) {
			mu.Lock()
			defer mu.Unlock()
			return append([]string(nil), source...), nil
		},
		func(items []string, err error) {
			require.NoError(t, err)
			mu.Lock()
			seen = append(seen, items)
			mu.Unlock()
		})

	count := func() int {
		mu.Lock()
		defer mu.Unlock()
		return len(seen)
	}

	require.Eventually(t, func() bool { return count() == 1 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	source = append(source, "b")
	mu.Unlock()
	bus.Publish(event.Event{Topic: event.TopicGroups})
	require.Eventually(t, func() bool { return count() == 2 }, time.Second, 5*time.Millisecond)

	mu.Lock()
	assert.Equal(t, []string{"a"}, seen[0])
	assert.Equal(t, []string{"a", "b"}, seen[1])
	mu.Unlock()

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(time.Second):
		t.Fatal("watch did not end with its context")
	}

	bus.Publish(event.Event{Topic: event.TopicGroups})
	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 2, count())
}
