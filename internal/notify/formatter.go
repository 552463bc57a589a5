// Package notify delivers birthday notifications to webhooks.
package notify

import (
	"cmp"
	"slices"
	"time"

	"github.com/manav03panchal/birthdays/internal/model"
)

const (
	footerText  = "Birthdays"
	contentJSON = "application/json"
)

// Formatter formats notifications for a specific webhook type.
type Formatter interface {
	// Format converts a notification into the webhook-specific payload.
	Format(n *model.Notification) ([]byte, error)

	// ContentType returns the HTTP Content-Type for the payload.
	ContentType() string
}

// GetFormatter returns the formatter for a webhook type. Unknown types
// get the generic formatter.
func GetFormatter(webhookType string) Formatter {
	switch webhookType {
	case model.WebhookTypeDiscord:
		return &DiscordFormatter{}
	case model.WebhookTypeSlack:
		return &SlackFormatter{}
	default:
		return &GenericFormatter{}
	}
}

// FormatterFor returns the formatter for a configured webhook.
func FormatterFor(w *model.Webhook) Formatter {
	if w.Type == model.WebhookTypeGeneric && w.Template != "" {
		return NewGenericFormatter(w.Template)
	}
	return GetFormatter(w.Type)
}

type field struct {
	Name  string
	Value string
}

// sortedFields returns the notification fields ordered by name.
func sortedFields(n *model.Notification) []field {
	fields := make([]field, 0, len(n.Fields))
	for k, v := range n.Fields {
		fields = append(fields, field{Name: k, Value: v})
	}
	slices.SortFunc(fields, func(a, b field) int { return cmp.Compare(a.Name, b.Name) })
	return fields
}

func colorOf(n *model.Notification) int {
	if n.Color != 0 {
		return n.Color
	}
	return model.DefaultColorForType(n.Type)
}

func timestamp(n *model.Notification) string {
	return n.Timestamp.UTC().Format(time.RFC3339)
}
