// Package storagetest holds the behavior every storage.Store must show,
// written once and run against each backend.
package storagetest

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/storage"
	"github.com/manav03panchal/birthdays/internal/validate"
)

// Factory opens a fresh, empty store configured with opts and returns it
// with a context valid for calling it.
type Factory func(t *testing.T, opts storage.Options) (storage.Store, context.Context)

// Clock is a deterministic clock that advances one second per reading.
type Clock struct {
	mu  sync.Mutex
	now time.Time
}

// NewClock starts a clock at 2025-01-01 12:00 UTC.
func NewClock() *Clock {
	return &Clock{now: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

// Now returns the next instant.
func (c *Clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

// Options returns storage options using a fresh deterministic clock.
func Options() storage.Options {
	return storage.Options{Now: NewClock().Now}
}

const eventually = 2 * time.Second

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Run runs the whole contract against stores built by factory.
func Run(t *testing.T, factory Factory) {
	t.Run("CreateAndListGroups", func(t *testing.T) { testCreateAndListGroups(t, factory) })
	t.Run("GroupValidation", func(t *testing.T) { testGroupValidation(t, factory) })
	t.Run("GetGroup", func(t *testing.T) { testGetGroup(t, factory) })
	t.Run("EndToEnd", func(t *testing.T) { testEndToEnd(t, factory) })
	t.Run("BirthdayOrdering", func(t *testing.T) { testBirthdayOrdering(t, factory) })
	t.Run("CivilDates", func(t *testing.T) { testCivilDates(t, factory) })
	t.Run("UnknownGroup", func(t *testing.T) { testUnknownGroup(t, factory) })
	t.Run("BirthdayValidation", func(t *testing.T) { testBirthdayValidation(t, factory) })
	t.Run("EmptyNameDefault", func(t *testing.T) { testEmptyNameDefault(t, factory) })
	t.Run("DeleteGroupCascades", func(t *testing.T) { testDeleteGroupCascades(t, factory) })
	t.Run("NotFound", func(t *testing.T) { testNotFound(t, factory) })
	t.Run("WatchGroups", func(t *testing.T) { testWatchGroups(t, factory) })
	t.Run("WatchBirthdays", func(t *testing.T) { testWatchBirthdays(t, factory) })
	t.Run("WatchStopsOnCancel", func(t *testing.T) { testWatchStopsOnCancel(t, factory) })
	t.Run("ConcurrentWatchers", func(t *testing.T) { testConcurrentWatchers(t, factory) })
}

// =============================================================================
// Groups
// =============================================================================

func testCreateAndListGroups(t *testing.T, factory Factory) {
	s, ctx := factory(t, Options())

	family, err := s.CreateGroup(ctx, "Family", "heart", "#ff0000")
	require.NoError(t, err)
	assert.NotEmpty(t, family.ID)
	assert.Equal(t, "#FF0000", family.Color)

	work, err := s.CreateGroup(ctx, "Work", "", "")
	require.NoError(t, err)
	assert.NotEqual(t, family.ID, work.ID)
	assert.Equal(t, model.DefaultIcon, work.Icon)
	assert.Equal(t, model.DefaultColor, work.Color)

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, family.ID, groups[0].ID, "groups are listed in creation order")
	assert.Equal(t, "Family", groups[0].Name)
	assert.Equal(t, "heart", groups[0].Icon)
	assert.Equal(t, "#FF0000", groups[0].Color)
	assert.Equal(t, work.ID, groups[1].ID)
}

func testGroupValidation(t *testing.T, factory Factory) {
	s, ctx := factory(t, Options())

	_, err := s.CreateGroup(ctx, "  ", "heart", "")
	assert.True(t, apperrors.IsValidationError(err))
	_, err = s.CreateGroup(ctx, "Friends", "unicorn", "")
	assert.ErrorIs(t, err, apperrors.ErrInvalidIcon)
	_, err = s.CreateGroup(ctx, "Friends", "heart", "#12345")
	assert.ErrorIs(t, err, apperrors.ErrInvalidColor)

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	assert.Empty(t, groups, "nothing is stored on validation failure")
}

func testGetGroup(t *testing.T, factory Factory) {
	s, ctx := factory(t, Options())

	g, err := s.CreateGroup(ctx, "Family", "heart", "")
	require.NoError(t, err)

	got, err := s.GetGroup(ctx, g.ID)
	require.NoError(t, err)
	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, "Family", got.Name)

	_, err = s.GetGroup(ctx, "missing")
	assert.True(t, apperrors.IsNotFoundError(err))
}

// =============================================================================
// Birthdays
// =============================================================================

func testEndToEnd(t *testing.T, factory Factory) {
	s, ctx := factory(t, Options())

	family, err := s.CreateGroup(ctx, "Family", "heart", "#FF0000")
	require.NoError(t, err)

	alice, err := s.CreateBirthday(ctx, "Alice", date(2000, time.July, 4), "likes cake", family.ID)
	require.NoError(t, err)

	list, err := s.ListBirthdays(ctx, family.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "Alice", list[0].Name)
	assert.Equal(t, "likes cake", list[0].Comment)
	assert.Equal(t, family.ID, list[0].GroupID)

	got, err := s.GetBirthday(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	require.NoError(t, s.DeleteBirthday(ctx, alice.ID))

	list, err = s.ListBirthdays(ctx, family.ID)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func testBirthdayOrdering(t *testing.T, factory Factory) {
	s, ctx := factory(t, Options())

	g, err := s.CreateGroup(ctx, "Friends", "star", "")
	require.NoError(t, err)
	other, err := s.CreateGroup(ctx, "Work", "", "")
	require.NoError(t, err)

	names := []struct {
		name  string
		date  time.Time
		group string
	}{
		{"Carol", date(1995, time.December, 1), g.ID},
		{"Bob", date(1990, time.March, 15), g.ID},
		{"Dave", date(1990, time.March, 15), other.ID},
		{"Eve", date(1970, time.January, 2), other.ID},
	}
	for _, n := range names {
		_, err := s.CreateBirthday(ctx, n.name, n.date, "", n.group)
		require.NoError(t, err)
	}

	inGroup, err := s.ListBirthdays(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, inGroup, 2)
	assert.Equal(t, "Bob", inGroup[0].Name)
	assert.Equal(t, "Carol", inGroup[1].Name)

	all, err := s.ListAllBirthdays(ctx)
	require.NoError(t, err)
	require.Len(t, all, 4)
	got := make([]string, len(all))
	for i, b := range all {
		got[i] = b.Name
	}
	// Same date: Bob was created before Dave.
	assert.Equal(t, []string{"Eve", "Bob", "Dave", "Carol"}, got)
}

func testCivilDates(t *testing.T, factory Factory) {
	s, ctx := factory(t, Options())

	g, err := s.CreateGroup(ctx, "Family", "", "")
	require.NoError(t, err)

	// Late evening west of UTC is already the next day in UTC.
	la := time.FixedZone("PDT", -7*3600)
	b, err := s.CreateBirthday(ctx, "Alice", time.Date(1990, time.March, 15, 22, 0, 0, 0, la), "", g.ID)
	require.NoError(t, err)
	assert.Equal(t, time.March, b.Month())
	assert.Equal(t, 15, b.Day())

	list, err := s.ListAllBirthdays(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Date.Equal(date(1990, time.March, 15)), "stored %v", list[0].Date)
}

func testUnknownGroup(t *testing.T, factory Factory) {
	s, ctx := factory(t, Options())

	_, err := s.CreateBirthday(ctx, "Alice", date(2000, time.July, 4), "", "no-such-group")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFoundError(err), "got %v", err)
	assert.ErrorIs(t, err, apperrors.ErrGroupNotFound)

	all, err := s.ListAllBirthdays(ctx)
	require.NoError(t, err)
	assert.Empty(t, all, "nothing is stored for an unknown group")
}

func testBirthdayValidation(t *testing.T, factory Factory) {
	s, ctx := factory(t, Options())

	g, err := s.CreateGroup(ctx, "Family", "", "")
	require.NoError(t, err)

	_, err = s.CreateBirthday(ctx, "", date(2000, time.July, 4), "", g.ID)
	assert.ErrorIs(t, err, apperrors.ErrEmptyName)

	_, err = s.CreateBirthday(ctx, "Alice", date(2000, time.July, 4), "", "")
	assert.ErrorIs(t, err, apperrors.ErrGroupRequired)

	_, err = s.CreateBirthday(ctx, "Alice", time.Time{}, "", g.ID)
	assert.ErrorIs(t, err, apperrors.ErrInvalidDate)

	_, err = s.ListBirthdays(ctx, "")
	assert.ErrorIs(t, err, apperrors.ErrGroupRequired)

	all, err := s.ListAllBirthdays(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testEmptyNameDefault(t *testing.T, factory Factory) {
	opts := Options()
	opts.EmptyName = validate.EmptyNameDefault
	s, ctx := factory(t, opts)

	g, err := s.CreateGroup(ctx, "Family", "", "")
	require.NoError(t, err)

	b, err := s.CreateBirthday(ctx, "   ", date(2000, time.July, 4), "", g.ID)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultBirthdayName, b.Name)
}

func testDeleteGroupCascades(t *testing.T, factory Factory) {
	s, ctx := factory(t, Options())

	family, err := s.CreateGroup(ctx, "Family", "", "")
	require.NoError(t, err)
	work, err := s.CreateGroup(ctx, "Work", "", "")
	require.NoError(t, err)

	for i := 0; i < 3; i++ {
		_, err := s.CreateBirthday(ctx, fmt.Sprintf("Relative %d", i), date(1980+i, time.May, 1), "", family.ID)
		require.NoError(t, err)
	}
	colleague, err := s.CreateBirthday(ctx, "Colleague", date(1985, time.June, 1), "", work.ID)
	require.NoError(t, err)

	require.NoError(t, s.DeleteGroup(ctx, family.ID))

	groups, err := s.ListGroups(ctx)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, work.ID, groups[0].ID)

	all, err := s.ListAllBirthdays(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1, "only the other group's birthday survives")
	assert.Equal(t, colleague.ID, all[0].ID)

	left, err := s.ListBirthdays(ctx, family.ID)
	require.NoError(t, err)
	assert.Empty(t, left)
}

func testNotFound(t *testing.T, factory Factory) {
	s, ctx := factory(t, Options())

	err := s.DeleteGroup(ctx, "missing")
	assert.True(t, apperrors.IsNotFoundError(err))
	assert.ErrorIs(t, err, apperrors.ErrGroupNotFound)

	err = s.DeleteBirthday(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrBirthdayNotFound)

	_, err = s.GetBirthday(ctx, "missing")
	assert.ErrorIs(t, err, apperrors.ErrBirthdayNotFound)
}

// =============================================================================
// Watches
// =============================================================================

type snapshots[T any] struct {
	mu   sync.Mutex
	seen [][]T
}

func (s *snapshots[T]) add(items []T, err error) {
	if err != nil {
		return
	}
	s.mu.Lock()
	s.seen = append(s.seen, items)
	s.mu.Unlock()
}

func (s *snapshots[T]) last() ([]T, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.seen) == 0 {
		return nil, 0
	}
	return s.seen[len(s.seen)-1], len(s.seen)
}

func testWatchGroups(t *testing.T, factory Factory) {
	s, ctx := factory(t, Options())

	existing, err := s.CreateGroup(ctx, "Existing", "", "")
	require.NoError(t, err)

	var snaps snapshots[*model.Group]
	sub, err := s.WatchGroups(ctx, snaps.add)
	require.NoError(t, err)
	t.Cleanup(sub.Cancel)

	require.Eventually(t, func() bool {
		last, _ := snaps.last()
		return len(last) == 1 && last[0].ID == existing.ID
	}, eventually, 5*time.Millisecond, "initial snapshot")

	added, err := s.CreateGroup(ctx, "Added", "", "")
	require.NoError(t, err)
	require.Eventually(t, func() bool {
		last, _ := snaps.last()
		return len(last) == 2 && last[1].ID == added.ID
	}, eventually, 5*time.Millisecond, "snapshot after create")

	require.NoError(t, s.DeleteGroup(ctx, existing.ID))
	require.Eventually(t, func() bool {
		last, _ := snaps.last()
		return len(last) == 1 && last[0].ID == added.ID
	}, eventually, 5*time.Millisecond, "snapshot after delete")
}

func testWatchBirthdays(t *testing.T, factory Factory) {
	s, ctx := factory(t, Options())

	family, err := s.CreateGroup(ctx, "Family", "", "")
	require.NoError(t, err)
	work, err := s.CreateGroup(ctx, "Work", "", "")
	require.NoError(t, err)

	var inFamily, everyone snapshots[*model.Birthday]
	sub1, err := s.WatchBirthdays(ctx, family.ID, inFamily.add)
	require.NoError(t, err)
	t.Cleanup(sub1.Cancel)
	sub2, err := s.WatchBirthdays(ctx, "", everyone.add)
	require.NoError(t, err)
	t.Cleanup(sub2.Cancel)

	require.Eventually(t, func() bool {
		_, n1 := inFamily.last()
		_, n2 := everyone.last()
		return n1 >= 1 && n2 >= 1
	}, eventually, 5*time.Millisecond, "initial snapshots")

	_, err = s.CreateBirthday(ctx, "Alice", date(2000, time.July, 4), "", family.ID)
	require.NoError(t, err)
	_, err = s.CreateBirthday(ctx, "Bob", date(1999, time.January, 9), "", work.ID)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		last, _ := everyone.last()
		return len(last) == 2
	}, eventually, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		last, _ := inFamily.last()
		return len(last) == 1 && last[0].Name == "Alice"
	}, eventually, 5*time.Millisecond)

	// Deleting a group also refreshes birthday watchers.
	require.NoError(t, s.DeleteGroup(ctx, family.ID))
	require.Eventually(t, func() bool {
		last, _ := everyone.last()
		return len(last) == 1 && last[0].Name == "Bob"
	}, eventually, 5*time.Millisecond)
}

func testWatchStopsOnCancel(t *testing.T, factory Factory) {
	s, ctx := factory(t, Options())

	watchCtx, cancel := context.WithCancel(ctx)
	var snaps snapshots[*model.Group]
	sub, err := s.WatchGroups(watchCtx, snaps.add)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		_, n := snaps.last()
		return n == 1
	}, eventually, 5*time.Millisecond)

	cancel()
	select {
	case <-sub.Done():
	case <-time.After(eventually):
		t.Fatal("watch did not stop on context cancellation")
	}

	_, err = s.CreateGroup(ctx, "After", "", "")
	require.NoError(t, err)
	time.Sleep(50 * time.Millisecond)
	_, n := snaps.last()
	assert.Equal(t, 1, n, "no delivery after cancellation")
}

func testConcurrentWatchers(t *testing.T, factory Factory) {
	s, ctx := factory(t, Options())

	const watchers = 5
	all := make([]*snapshots[*model.Group], watchers)
	for i := range all {
		all[i] = &snapshots[*model.Group]{}
		sub, err := s.WatchGroups(ctx, all[i].add)
		require.NoError(t, err)
		t.Cleanup(sub.Cancel)
	}

	const groups = 10
	var wg sync.WaitGroup
	for i := 0; i < groups; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, err := s.CreateGroup(ctx, fmt.Sprintf("Group %d", i), "", "")
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	for i, snaps := range all {
		require.Eventually(t, func() bool {
			last, _ := snaps.last()
			return len(last) == groups
		}, eventually, 5*time.Millisecond, "watcher %d converges on the final collection", i)
	}
}
