package model

import (
	"time"
)

// NotificationType defines the type of notification.
type NotificationType string

// Notification types.
const (
	NotifyBirthday NotificationType = "birthday"
	NotifyGreeting NotificationType = "greeting"
	NotifyTest     NotificationType = "test"
)

// Notification is a message delivered to webhooks.
type Notification struct {
	Type      NotificationType  `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Color     int               `json:"color,omitempty"` // RGB for embeds
}

// NewNotification creates a new notification.
func NewNotification(t NotificationType, title, message string) *Notification {
	return &Notification{
		Type:      t,
		Title:     title,
		Message:   message,
		Fields:    make(map[string]string),
		Timestamp: time.Now(),
	}
}

// WithField adds a field to the notification.
func (n *Notification) WithField(key, value string) *Notification {
	if n.Fields == nil {
		n.Fields = make(map[string]string)
	}
	n.Fields[key] = value
	return n
}

// WithColor sets the embed color.
func (n *Notification) WithColor(color int) *Notification {
	n.Color = color
	return n
}

// Notification colors (Discord-compatible values).
const (
	ColorBirthday = 0xFF0000
	ColorGreeting = 0xFEE75C
	ColorInfo     = 0x5865F2
)

// DefaultColorForType returns the default color for a notification type.
func DefaultColorForType(t NotificationType) int {
	switch t {
	case NotifyBirthday:
		return ColorBirthday
	case NotifyGreeting:
		return ColorGreeting
	default:
		return ColorInfo
	}
}

// TypeLabel returns a human-readable label for the notification type.
func (n *Notification) TypeLabel() string {
	switch n.Type {
	case NotifyBirthday:
		return "Birthday Reminder"
	case NotifyGreeting:
		return "Birthday Greeting"
	case NotifyTest:
		return "Test Notification"
	default:
		return "Notification"
	}
}
