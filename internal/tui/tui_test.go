package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/birthdays/internal/calendar"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/storage"
	"github.com/manav03panchal/birthdays/internal/storage/local"
)

var fixedNow = time.Date(2024, 3, 10, 12, 0, 0, 0, time.UTC)

func testGroups() []*model.Group {
	return []*model.Group{
		{ID: "g1", Name: "Family", Color: "#FF0000", CreatedAt: fixedNow},
		{ID: "g2", Name: "Work", CreatedAt: fixedNow.Add(time.Second)},
	}
}

func testBirthdays() []*model.Birthday {
	return []*model.Birthday{
		{ID: "b1", Name: "Alice", Date: time.Date(1990, 3, 10, 0, 0, 0, 0, time.UTC), GroupID: "g1", Comment: "cake"},
		{ID: "b2", Name: "Bob", Date: time.Date(1985, 3, 14, 0, 0, 0, 0, time.UTC), GroupID: "g1"},
		{ID: "b3", Name: "Carol", Date: time.Date(1970, 12, 1, 0, 0, 0, 0, time.UTC), GroupID: "g2"},
	}
}

func newTestModel() *WatchModel {
	return NewWatchModel(WatchConfig{Now: func() time.Time { return fixedNow }}, nil)
}

func loadedModel(t *testing.T) *WatchModel {
	t.Helper()
	m := newTestModel()
	m.Update(groupsMsg{groups: testGroups()})
	m.Update(birthdaysMsg{birthdays: testBirthdays()})
	return m
}

// =============================================================================
// Component Tests
// =============================================================================

func TestGroupsComponentView(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		view := NewGroupsComponent(nil, 80).View()
		assert.Contains(t, view, "Groups")
		assert.Contains(t, view, "No groups yet")
	})

	t.Run("with_counts", func(t *testing.T) {
		counts := calendar.CountByGroup(testGroups(), testBirthdays())
		view := NewGroupsComponent(counts, 80).View()
		assert.Contains(t, view, "Family")
		assert.Contains(t, view, "2 birthdays")
		assert.Contains(t, view, "Work")
		assert.Contains(t, view, "1 birthday")
	})
}

func TestUpcomingComponentView(t *testing.T) {
	t.Run("empty", func(t *testing.T) {
		view := NewUpcomingComponent(nil, nil, 80).View()
		assert.Contains(t, view, "No birthdays yet")
	})

	t.Run("entries", func(t *testing.T) {
		groups := map[string]*model.Group{"g1": testGroups()[0]}
		items := calendar.Upcoming(testBirthdays(), fixedNow, 2)
		view := NewUpcomingComponent(items, groups, 80).View()

		assert.Contains(t, view, "Alice")
		assert.Contains(t, view, "today")
		assert.Contains(t, view, "turns 34")
		assert.Contains(t, view, "Family")
		assert.Contains(t, view, `"cake"`)
		assert.Contains(t, view, "Bob")
		assert.Contains(t, view, "in 4 days")
		assert.NotContains(t, view, "Carol", "limited to two entries")
	})

	t.Run("unnamed", func(t *testing.T) {
		items := []calendar.Occurrence{{Birthday: &model.Birthday{ID: "x"}, Date: fixedNow}}
		view := NewUpcomingComponent(items, nil, 80).View()
		assert.Contains(t, view, "(no name)")
	})
}

func TestHelpBar(t *testing.T) {
	bar := HelpBar()
	assert.Contains(t, bar, "q")
	assert.Contains(t, bar, "quit")
	assert.Contains(t, bar, "refresh")
}

func TestPlural(t *testing.T) {
	assert.Equal(t, "0 birthdays", plural(0, "birthday"))
	assert.Equal(t, "1 birthday", plural(1, "birthday"))
	assert.Equal(t, "3 birthdays", plural(3, "birthday"))
}

func TestBoxWidth(t *testing.T) {
	assert.Equal(t, 76, boxWidth(80))
	assert.Equal(t, 20, boxWidth(10))
}

func TestDaysStyle(t *testing.T) {
	assert.Equal(t, StyleToday.Render("x"), DaysStyle(0).Render("x"))
	assert.Equal(t, StyleSoon.Render("x"), DaysStyle(3).Render("x"))
	assert.Equal(t, StyleSubtitle.Render("x"), DaysStyle(30).Render("x"))
}

func TestGroupStyle(t *testing.T) {
	assert.Contains(t, GroupStyle("").Render("Family"), "Family")
	assert.Contains(t, GroupStyle("#00FF00").Render("Family"), "Family")
}

// =============================================================================
// WatchModel Tests
// =============================================================================

func TestNewWatchModel(t *testing.T) {
	m := NewWatchModel(WatchConfig{}, nil)
	assert.Equal(t, 10, m.limit)
	assert.Equal(t, time.Minute, m.refreshInterval)
	assert.NotNil(t, m.now)
	assert.False(t, m.loaded)
	assert.Nil(t, m.waitCmd(), "no updates channel")
	assert.NotNil(t, m.Init())
}

func TestWatchModelSnapshots(t *testing.T) {
	m := loadedModel(t)

	assert.True(t, m.loaded)
	assert.Len(t, m.groups, 2)
	assert.Len(t, m.birthdays, 3)
	assert.Equal(t, fixedNow, m.lastUpdate)

	upcoming := m.Upcoming()
	require.Len(t, upcoming, 3)
	assert.Equal(t, "Alice", upcoming[0].Birthday.Name)
	assert.Equal(t, "Carol", upcoming[2].Birthday.Name)
}

func TestWatchModelSnapshotError(t *testing.T) {
	m := loadedModel(t)

	m.Update(birthdaysMsg{err: errors.New("database is locked")})
	assert.Len(t, m.birthdays, 3, "previous snapshot kept")
	assert.Contains(t, m.View(), "database is locked")

	m.Update(birthdaysMsg{birthdays: testBirthdays()[:1]})
	assert.NoError(t, m.err)
	assert.Len(t, m.birthdays, 1)
}

func TestWatchModelView(t *testing.T) {
	t.Run("loading", func(t *testing.T) {
		view := newTestModel().View()
		assert.Contains(t, view, "Birthdays")
		assert.Contains(t, view, "Sunday, March 10")
		assert.Contains(t, view, "Loading...")
	})

	t.Run("loaded", func(t *testing.T) {
		view := loadedModel(t).View()
		assert.NotContains(t, view, "Loading...")
		assert.Contains(t, view, "Family")
		assert.Contains(t, view, "Alice")
		assert.Contains(t, view, "Carol")
		assert.Contains(t, view, "Updated 12:00:00")
	})
}

func TestWatchModelKeys(t *testing.T) {
	t.Run("quit", func(t *testing.T) {
		for _, key := range []tea.KeyMsg{
			{Type: tea.KeyRunes, Runes: []rune("q")},
			{Type: tea.KeyCtrlC},
			{Type: tea.KeyEsc},
		} {
			_, cmd := newTestModel().Update(key)
			require.NotNil(t, cmd, key.String())
			assert.IsType(t, tea.QuitMsg{}, cmd(), key.String())
		}
	})

	t.Run("refresh", func(t *testing.T) {
		m := newTestModel()
		_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
		assert.Nil(t, cmd)
		assert.Contains(t, m.View(), "Refreshed")
	})
}

func TestWatchModelWindowSize(t *testing.T) {
	m := newTestModel()
	m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Equal(t, 120, m.width)
	assert.Equal(t, 40, m.height)
}

func TestWatchModelWaitCmd(t *testing.T) {
	updates := make(chan tea.Msg, 1)
	m := NewWatchModel(WatchConfig{}, updates)

	updates <- groupsMsg{groups: testGroups()}
	msg := m.waitCmd()()
	assert.IsType(t, groupsMsg{}, msg)

	_, cmd := m.Update(msg)
	assert.NotNil(t, cmd, "keeps waiting after a snapshot")

	close(updates)
	assert.IsType(t, closedMsg{}, m.waitCmd()())

	_, cmd = m.Update(closedMsg{})
	assert.Nil(t, cmd)
	assert.Nil(t, m.waitCmd())
}

// =============================================================================
// Subscribe Tests
// =============================================================================

func nextMsg(t *testing.T, updates <-chan tea.Msg) tea.Msg {
	t.Helper()
	select {
	case msg := <-updates:
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("no snapshot received")
		return nil
	}
}

func TestSubscribe(t *testing.T) {
	store, err := local.Open(":memory:", storage.Options{})
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	ctx := context.Background()
	updates, stop, err := Subscribe(ctx, store)
	require.NoError(t, err)

	var sawGroups, sawBirthdays bool
	for !sawGroups || !sawBirthdays {
		switch msg := nextMsg(t, updates).(type) {
		case groupsMsg:
			assert.Empty(t, msg.groups)
			sawGroups = true
		case birthdaysMsg:
			assert.Empty(t, msg.birthdays)
			sawBirthdays = true
		}
	}

	_, err = store.CreateGroup(ctx, "Family", "", "")
	require.NoError(t, err)

	msg, ok := nextMsg(t, updates).(groupsMsg)
	require.True(t, ok)
	require.Len(t, msg.groups, 1)
	assert.Equal(t, "Family", msg.groups[0].Name)

	stop()
	for range updates {
	}
}
