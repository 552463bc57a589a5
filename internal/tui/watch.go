package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/birthdays/internal/calendar"
	"github.com/manav03panchal/birthdays/internal/logging"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/storage"
)

// tickMsg is sent when the clock ticks.
type tickMsg time.Time

// groupsMsg carries a fresh group snapshot from the store.
type groupsMsg struct {
	groups []*model.Group
	err    error
}

// birthdaysMsg carries a fresh birthday snapshot from the store.
type birthdaysMsg struct {
	birthdays []*model.Birthday
	err       error
}

// closedMsg is sent once the update stream has ended.
type closedMsg struct{}

// WatchConfig holds configuration for the watch screen.
type WatchConfig struct {
	Store storage.Store
	// Limit caps the upcoming list. Zero means 10.
	Limit int
	// RefreshInterval is how often the clock redraws the screen so that
	// "days until" labels roll over at midnight. Zero means one minute.
	RefreshInterval time.Duration
	Now             func() time.Time
}

// WatchModel is the bubbletea model for the live watch screen. It never
// queries the store itself; snapshots arrive on the updates channel.
type WatchModel struct {
	// Data
	groups    []*model.Group
	birthdays []*model.Birthday
	loaded    bool

	updates <-chan tea.Msg

	// UI state
	width      int
	height     int
	err        error
	message    string
	messageExp time.Time
	lastUpdate time.Time

	// Configuration
	now             func() time.Time
	limit           int
	refreshInterval time.Duration
}

// NewWatchModel creates a watch model reading snapshots from updates.
func NewWatchModel(config WatchConfig, updates <-chan tea.Msg) *WatchModel {
	m := &WatchModel{
		updates:         updates,
		width:           80,
		now:             config.Now,
		limit:           config.Limit,
		refreshInterval: config.RefreshInterval,
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.limit <= 0 {
		m.limit = 10
	}
	if m.refreshInterval <= 0 {
		m.refreshInterval = time.Minute
	}
	return m
}

// Init implements tea.Model.
func (m *WatchModel) Init() tea.Cmd {
	return tea.Batch(m.waitCmd(), m.tickCmd())
}

// Update implements tea.Model.
func (m *WatchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "r":
			m.setMessage("Refreshed", 2*time.Second)
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, m.tickCmd()

	case groupsMsg:
		m.applySnapshot(msg.err, func() { m.groups = msg.groups })
		return m, m.waitCmd()

	case birthdaysMsg:
		m.applySnapshot(msg.err, func() { m.birthdays = msg.birthdays })
		return m, m.waitCmd()

	case closedMsg:
		m.updates = nil
		return m, nil
	}

	return m, nil
}

// applySnapshot keeps the previous data when a snapshot failed.
func (m *WatchModel) applySnapshot(err error, apply func()) {
	m.lastUpdate = m.now()
	if err != nil {
		m.err = err
		return
	}
	apply()
	m.loaded = true
	m.err = nil
}

// View implements tea.Model.
func (m *WatchModel) View() string {
	var sections []string

	now := m.now()
	header := StyleTitle.Render("Birthdays") + "  " + StyleSubtitle.Render(now.Format("Monday, January 2"))
	sections = append(sections, header)

	if m.err != nil {
		sections = append(sections, StyleError.Render(fmt.Sprintf("Error: %v", m.err)))
	}

	if !m.loaded {
		sections = append(sections, StyleMuted.Render("Loading..."))
	} else {
		sections = append(sections, NewGroupsComponent(calendar.CountByGroup(m.groups, m.birthdays), m.width).View())
		sections = append(sections, NewUpcomingComponent(m.Upcoming(), m.groupIndex(), m.width).View())
	}

	if m.message != "" && now.Before(m.messageExp) {
		sections = append(sections, StyleSuccess.Render(m.message))
	}
	if !m.lastUpdate.IsZero() {
		sections = append(sections, StyleMuted.Render("Updated "+m.lastUpdate.Format("15:04:05")))
	}

	sections = append(sections, HelpBar())

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// Upcoming returns the birthdays shown in the upcoming section.
func (m *WatchModel) Upcoming() []calendar.Occurrence {
	return calendar.Upcoming(m.birthdays, m.now(), m.limit)
}

func (m *WatchModel) groupIndex() map[string]*model.Group {
	idx := make(map[string]*model.Group, len(m.groups))
	for _, g := range m.groups {
		idx[g.ID] = g
	}
	return idx
}

// setMessage sets a temporary message.
func (m *WatchModel) setMessage(msg string, duration time.Duration) {
	m.message = msg
	m.messageExp = m.now().Add(duration)
}

// tickCmd returns a command that sends a tick message.
func (m *WatchModel) tickCmd() tea.Cmd {
	return tea.Tick(m.refreshInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

// waitCmd returns a command that blocks until the next snapshot.
func (m *WatchModel) waitCmd() tea.Cmd {
	updates := m.updates
	if updates == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-updates
		if !ok {
			return closedMsg{}
		}
		return msg
	}
}

// Subscribe watches the store's groups and birthdays and forwards every
// snapshot on the returned channel. The channel is closed by stop, which
// also ends both subscriptions.
func Subscribe(ctx context.Context, store storage.Store) (updates <-chan tea.Msg, stop func(), err error) {
	ctx, cancel := context.WithCancel(ctx)
	ch := make(chan tea.Msg, 4)

	send := func(msg tea.Msg) {
		select {
		case ch <- msg:
		case <-ctx.Done():
		}
	}

	groups, err := store.WatchGroups(ctx, func(groups []*model.Group, err error) {
		send(groupsMsg{groups: groups, err: err})
	})
	if err != nil {
		cancel()
		return nil, nil, err
	}
	birthdays, err := store.WatchBirthdays(ctx, "", func(birthdays []*model.Birthday, err error) {
		send(birthdaysMsg{birthdays: birthdays, err: err})
	})
	if err != nil {
		groups.Cancel()
		cancel()
		return nil, nil, err
	}

	stop = func() {
		cancel()
		groups.Cancel()
		birthdays.Cancel()
		<-groups.Done()
		<-birthdays.Done()
		close(ch)
	}
	return ch, stop, nil
}

// Run starts the watch screen and blocks until the user quits or ctx is
// done.
func Run(ctx context.Context, config WatchConfig) error {
	updates, stop, err := Subscribe(ctx, config.Store)
	if err != nil {
		return err
	}
	defer stop()

	logging.DebugContext(ctx, "watch screen started")
	p := tea.NewProgram(NewWatchModel(config, updates), tea.WithAltScreen(), tea.WithContext(ctx))
	_, err = p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}
