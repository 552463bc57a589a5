// Package validate provides the input rules shared by every birthdays store
// and by the CLI.
package validate

import (
	"fmt"
	"net"
	"net/url"
	"strings"
	"unicode/utf8"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/model"
)

const (
	// MaxGroupNameLength is the maximum length for a group name, in runes.
	MaxGroupNameLength = 64
	// MaxBirthdayNameLength is the maximum length for a birthday name, in runes.
	MaxBirthdayNameLength = 128
	// MaxCommentLength is the maximum length for a comment, in runes.
	MaxCommentLength = 1024
	// MaxURLLength is the maximum length for a URL.
	MaxURLLength = 2048
)

// EmptyNamePolicy decides what happens to a birthday created without a name.
type EmptyNamePolicy string

const (
	// EmptyNameReject fails with a ValidationError.
	EmptyNameReject EmptyNamePolicy = "reject"
	// EmptyNameDefault stores model.DefaultBirthdayName instead.
	EmptyNameDefault EmptyNamePolicy = "default"
)

// ParseEmptyNamePolicy parses "reject" or "default".
func ParseEmptyNamePolicy(s string) (EmptyNamePolicy, error) {
	switch p := EmptyNamePolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case EmptyNameReject, EmptyNameDefault:
		return p, nil
	case "":
		return EmptyNameReject, nil
	default:
		return "", fmt.Errorf("unknown empty-name policy %q (want reject or default)", s)
	}
}

// GroupName trims and checks a group name.
func GroupName(name string) (string, error) {
	name = SanitizeName(name)
	if name == "" {
		return "", apperrors.NewValidationError("name", apperrors.ErrEmptyName, "Give the group a name, e.g. 'Family'")
	}
	if utf8.RuneCountInString(name) > MaxGroupNameLength {
		return "", apperrors.NewValidationError("name", apperrors.ErrNameTooLong,
			fmt.Sprintf("Group names must be %d characters or fewer", MaxGroupNameLength))
	}
	return name, nil
}

// Icon checks an icon name, returning the default icon for "".
func Icon(icon string) (string, error) {
	icon = strings.TrimSpace(icon)
	if icon == "" {
		return model.DefaultIcon, nil
	}
	if !model.IsValidIcon(icon) {
		return "", apperrors.NewValidationErrorWithValue("icon", icon, apperrors.ErrInvalidIcon, "")
	}
	return icon, nil
}

// Color checks a #RRGGBB color, returning it upper-cased, or the default
// color for "".
func Color(color string) (string, error) {
	color = strings.TrimSpace(color)
	if color == "" {
		return model.DefaultColor, nil
	}
	if !model.IsValidColor(color) {
		return "", apperrors.NewValidationErrorWithValue("color", color, apperrors.ErrInvalidColor, "")
	}
	return model.NormalizeColor(color), nil
}

// BirthdayName trims a birthday name and applies the empty-name policy.
// Under EmptyNameDefault an empty name becomes fallback, or
// model.DefaultBirthdayName when fallback is "".
func BirthdayName(name string, policy EmptyNamePolicy, fallback string) (string, error) {
	name = SanitizeName(name)
	if name == "" {
		if policy == EmptyNameDefault {
			if fallback = SanitizeName(fallback); fallback != "" {
				return fallback, nil
			}
			return model.DefaultBirthdayName, nil
		}
		return "", apperrors.NewValidationError("name", apperrors.ErrEmptyName, "")
	}
	if utf8.RuneCountInString(name) > MaxBirthdayNameLength {
		return "", apperrors.NewValidationError("name", apperrors.ErrNameTooLong,
			fmt.Sprintf("Names must be %d characters or fewer", MaxBirthdayNameLength))
	}
	return name, nil
}

// Comment cleans a comment and checks its length. Empty is allowed.
func Comment(comment string) (string, error) {
	comment = SanitizeComment(comment)
	if utf8.RuneCountInString(comment) > MaxCommentLength {
		return "", apperrors.NewValidationError("comment", apperrors.ErrCommentTooLong,
			fmt.Sprintf("Comments must be %d characters or fewer", MaxCommentLength))
	}
	return comment, nil
}

// GroupID checks that a birthday names a group.
func GroupID(id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", apperrors.NewValidationError("groupId", apperrors.ErrGroupRequired, "")
	}
	return id, nil
}

// WebhookName validates a webhook name.
func WebhookName(name string) error {
	if !model.IsValidWebhookName(name) {
		return &apperrors.ValidationError{
			Field:      "name",
			Value:      name,
			Message:    "Invalid webhook name",
			Suggestion: "Use letters, numbers, dashes and underscores (max 50 characters)",
		}
	}
	return nil
}

func invalidURL(value, message, suggestion string) error {
	return &apperrors.ValidationError{
		Field:      "url",
		Value:      value,
		Message:    message,
		Suggestion: suggestion,
		Err:        apperrors.ErrInvalidURL,
	}
}

// URL validates a URL for use as a webhook endpoint.
func URL(rawURL string) error {
	if rawURL == "" {
		return invalidURL("", "URL cannot be empty", "Provide a valid URL")
	}
	if len(rawURL) > MaxURLLength {
		return invalidURL("", "URL too long", "URLs must be 2048 characters or fewer")
	}

	parsed, err := url.Parse(rawURL)
	if err != nil {
		return invalidURL(rawURL, "Invalid URL format", "Provide a valid URL starting with https://")
	}

	if parsed.Scheme != "https" && parsed.Scheme != "http" {
		return invalidURL(rawURL, "Invalid URL scheme", "URLs must use https:// (or http:// for localhost)")
	}

	hostname := parsed.Hostname()
	if hostname == "" {
		return invalidURL(rawURL, "Invalid URL: missing hostname", "Provide a valid URL like https://example.com/webhook")
	}

	isLocalhost := hostname == "localhost" || hostname == "127.0.0.1" || hostname == "::1"

	if parsed.Scheme == "http" && !isLocalhost {
		return invalidURL(rawURL, "HTTP not allowed for external URLs",
			"Use https:// for security. HTTP is only allowed for localhost.")
	}

	// SSRF protection
	if !isLocalhost {
		if err := checkInternalIP(hostname); err != nil {
			return err
		}
	}

	return nil
}

// checkInternalIP checks if a hostname resolves to an internal IP.
func checkInternalIP(hostname string) error {
	if ip := net.ParseIP(hostname); ip != nil {
		if isInternalIP(ip) {
			return invalidURL(hostname, "Internal IP addresses not allowed", "Webhook URLs must point to external services")
		}
		return nil
	}

	ips, err := net.LookupIP(hostname)
	if err != nil {
		// Unresolvable now; the send will fail later with a NetworkError.
		return nil
	}

	for _, ip := range ips {
		if isInternalIP(ip) {
			return invalidURL(hostname, "Hostname resolves to internal IP", "Webhook URLs must point to external services")
		}
	}

	return nil
}

var privateRanges = func() []*net.IPNet {
	cidrs := []string{
		"10.0.0.0/8",
		"172.16.0.0/12",
		"192.168.0.0/16",
		"127.0.0.0/8",
		"169.254.0.0/16",
		"fc00::/7",
		"fe80::/10",
		"::1/128",
	}
	nets := make([]*net.IPNet, 0, len(cidrs))
	for _, cidr := range cidrs {
		if _, n, err := net.ParseCIDR(cidr); err == nil {
			nets = append(nets, n)
		}
	}
	return nets
}()

// isInternalIP checks if an IP is in a private/internal range.
func isInternalIP(ip net.IP) bool {
	for _, network := range privateRanges {
		if network.Contains(ip) {
			return true
		}
	}
	return false
}

// InRange validates that an integer is within [lo, hi].
func InRange(field string, value, lo, hi int) error {
	if value < lo || value > hi {
		return &apperrors.ValidationError{
			Field:      field,
			Value:      fmt.Sprint(value),
			Message:    field + " out of range",
			Suggestion: fmt.Sprintf("Must be between %d and %d", lo, hi),
		}
	}
	return nil
}
