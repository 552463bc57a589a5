package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// =============================================================================
// Key Tests
// =============================================================================

func TestGroupSetGetKey(t *testing.T) {
	g := &Group{}
	g.SetKey("group:abc123")
	assert.Equal(t, "abc123", g.ID)
	assert.Equal(t, "group:abc123", g.GetKey())
}

func TestBirthdaySetGetKey(t *testing.T) {
	b := &Birthday{}
	b.SetKey("birthday:xyz")
	assert.Equal(t, "xyz", b.ID)
	assert.Equal(t, "birthday:xyz", b.GetKey())
}

// =============================================================================
// Icon and Color Tests
// =============================================================================

func TestIcons(t *testing.T) {
	assert.Len(t, Icons, 30)
	assert.Equal(t, DefaultIcon, Icons[0])
	assert.True(t, IsValidIcon("heart"))
	assert.True(t, IsValidIcon("music.note"))
	assert.False(t, IsValidIcon("Heart"))
	assert.False(t, IsValidIcon(""))
}

func TestIsValidColor(t *testing.T) {
	tests := []struct {
		color string
		valid bool
	}{
		{"#FF0000", true},
		{"#ff00aa", true},
		{"#123456", true},
		{"FF0000", false},
		{"#FF000", false},
		{"#GG0000", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.color, func(t *testing.T) {
			assert.Equal(t, tt.valid, IsValidColor(tt.color))
		})
	}
}

func TestParseAndFormatColor(t *testing.T) {
	v, err := ParseColor("#ff8000")
	require.NoError(t, err)
	assert.Equal(t, 0xFF8000, v)
	assert.Equal(t, "#FF8000", FormatColor(v))
	assert.Equal(t, "#00000A", FormatColor(10))

	_, err = ParseColor("red")
	assert.Error(t, err)
}

func TestGroupRGB(t *testing.T) {
	assert.Equal(t, 0xFF0000, (&Group{Color: DefaultColor}).RGB())
	assert.Equal(t, 0, (&Group{Color: "nope"}).RGB())
}

// =============================================================================
// Birthday Date Tests
// =============================================================================

func TestCivilDate(t *testing.T) {
	loc := time.FixedZone("UTC+14", 14*3600)
	in := time.Date(1990, time.March, 15, 23, 30, 0, 0, loc)

	got := CivilDate(in)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, 1990, got.Year())
	assert.Equal(t, time.March, got.Month())
	assert.Equal(t, 15, got.Day())
	assert.Equal(t, 0, got.Hour())
}

func TestBirthdayMonthDay(t *testing.T) {
	b := &Birthday{Date: time.Date(1990, time.March, 15, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, time.March, b.Month())
	assert.Equal(t, 15, b.Day())
	assert.False(t, b.IsLeapDay())
}

func TestNextOccurrence(t *testing.T) {
	b := &Birthday{Date: time.Date(2000, time.July, 4, 0, 0, 0, 0, time.UTC)}

	t.Run("later_this_year", func(t *testing.T) {
		from := time.Date(2026, time.June, 1, 15, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC), b.NextOccurrence(from))
	})

	t.Run("today_counts", func(t *testing.T) {
		from := time.Date(2026, time.July, 4, 23, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC), b.NextOccurrence(from))
	})

	t.Run("already_passed", func(t *testing.T) {
		from := time.Date(2026, time.July, 5, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2027, time.July, 4, 0, 0, 0, 0, time.UTC), b.NextOccurrence(from))
	})

	t.Run("leap_day_skips_common_years", func(t *testing.T) {
		leap := &Birthday{Date: time.Date(2000, time.February, 29, 0, 0, 0, 0, time.UTC)}
		assert.True(t, leap.IsLeapDay())
		from := time.Date(2025, time.March, 1, 0, 0, 0, 0, time.UTC)
		assert.Equal(t, time.Date(2028, time.February, 29, 0, 0, 0, 0, time.UTC), leap.NextOccurrence(from))
	})
}

func TestAgeOn(t *testing.T) {
	b := &Birthday{Date: time.Date(2000, time.July, 4, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 26, b.AgeOn(time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC)))

	noYear := &Birthday{Date: time.Date(1, time.July, 4, 0, 0, 0, 0, time.UTC)}
	assert.Equal(t, 0, noYear.AgeOn(time.Date(2026, time.July, 4, 0, 0, 0, 0, time.UTC)))
}

func TestIsLeapYear(t *testing.T) {
	assert.True(t, IsLeapYear(2000))
	assert.True(t, IsLeapYear(2028))
	assert.False(t, IsLeapYear(1900))
	assert.False(t, IsLeapYear(2026))
}

// =============================================================================
// Notification Tests
// =============================================================================

func TestNewNotification(t *testing.T) {
	n := NewNotification(NotifyBirthday, "Birthday Reminder", "It's Alice's birthday today!")
	assert.Equal(t, NotifyBirthday, n.Type)
	assert.NotNil(t, n.Fields)
	assert.False(t, n.Timestamp.IsZero())

	n.WithField("Date", "Jul 4").WithColor(0x00FF00)
	assert.Equal(t, "Jul 4", n.Fields["Date"])
	assert.Equal(t, 0x00FF00, n.Color)
	assert.Equal(t, "Birthday Reminder", n.TypeLabel())
}

func TestDefaultColorForType(t *testing.T) {
	assert.Equal(t, ColorBirthday, DefaultColorForType(NotifyBirthday))
	assert.Equal(t, ColorGreeting, DefaultColorForType(NotifyGreeting))
	assert.Equal(t, ColorInfo, DefaultColorForType(NotifyTest))
}

// =============================================================================
// Webhook Tests
// =============================================================================

func TestDetectWebhookType(t *testing.T) {
	assert.Equal(t, WebhookTypeDiscord, DetectWebhookType("https://discord.com/api/webhooks/1/abc"))
	assert.Equal(t, WebhookTypeSlack, DetectWebhookType("https://hooks.slack.com/services/T/B/X"))
	assert.Equal(t, WebhookTypeGeneric, DetectWebhookType("https://example.com/hook"))
}

func TestWebhookNameAndType(t *testing.T) {
	assert.True(t, IsValidWebhookName("family-chat"))
	assert.False(t, IsValidWebhookName("-bad"))
	assert.False(t, IsValidWebhookName(""))
	assert.True(t, IsValidWebhookType("slack"))
	assert.False(t, IsValidWebhookType("teams"))
}

func TestWebhookMaskedURL(t *testing.T) {
	w := NewWebhook("d", WebhookTypeDiscord, "https://discord.com/api/webhooks/123456/secret-token")
	assert.True(t, w.IsEnabled())
	assert.Equal(t, "https://discord.com/api/webhoo***", w.MaskedURL())
}
