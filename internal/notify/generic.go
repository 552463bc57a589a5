package notify

import (
	"bytes"
	"encoding/json"
	"text/template"

	"github.com/manav03panchal/birthdays/internal/model"
)

// GenericFormatter formats notifications for generic JSON webhooks.
type GenericFormatter struct {
	// Template is an optional text/template for the payload.
	Template string
}

// NewGenericFormatter creates a generic formatter with an optional template.
func NewGenericFormatter(tmpl string) *GenericFormatter {
	return &GenericFormatter{Template: tmpl}
}

type genericPayload struct {
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	Timestamp string            `json:"timestamp"`
	Color     int               `json:"color,omitempty"`
}

// Format converts a notification to the generic payload, or renders the
// custom template when one is set.
func (f *GenericFormatter) Format(n *model.Notification) ([]byte, error) {
	if f.Template != "" {
		return f.formatWithTemplate(n)
	}
	return json.Marshal(genericPayload{
		Type:      string(n.Type),
		Title:     n.Title,
		Message:   n.Message,
		Fields:    n.Fields,
		Timestamp: timestamp(n),
		Color:     colorOf(n),
	})
}

func (f *GenericFormatter) formatWithTemplate(n *model.Notification) ([]byte, error) {
	tmpl, err := ParseTemplate(f.Template)
	if err != nil {
		return nil, err
	}

	data := map[string]any{
		"Type":      string(n.Type),
		"Title":     n.Title,
		"Message":   n.Message,
		"Fields":    n.Fields,
		"Timestamp": n.Timestamp,
		"Color":     colorOf(n),
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// ContentType returns the content type for generic webhooks.
func (f *GenericFormatter) ContentType() string {
	return contentJSON
}

// ParseTemplate parses a generic webhook payload template.
func ParseTemplate(text string) (*template.Template, error) {
	return template.New("webhook").Option("missingkey=error").Parse(text)
}
