package errors

import "errors"

// Suggestions maps common errors to helpful suggestions.
var Suggestions = map[error]string{
	ErrEmptyName:          "Provide a non-empty name.",
	ErrNameTooLong:        "Use a shorter name (64 characters or fewer).",
	ErrCommentTooLong:     "Comments must be 1024 characters or fewer.",
	ErrInvalidIcon:        "Use 'birthdays group icons' to see the available icons.",
	ErrInvalidColor:       "Use hex color format like '#FF5733' or '#00FF00'.",
	ErrInvalidDate:        "Try formats like '1990-03-15', 'March 15 1990' or '15/03/1990'.",
	ErrInvalidURL:         "Provide a valid URL starting with https:// (or http:// for localhost).",
	ErrGroupRequired:      "Pass the group with --group <id>.",
	ErrGroupNotFound:      "Use 'birthdays group list' to see available groups.",
	ErrBirthdayNotFound:   "Use 'birthdays list' to see stored birthdays.",
	ErrWebhookNotFound:    "Use 'birthdays webhook list' to see configured webhooks.",
	ErrNotAuthenticated:   "Set BIRTHDAYS_TOKEN to a token from 'birthdays auth token <user-id>'.",
	ErrPrincipalMismatch:  "Only the owner of a record can change it.",
	ErrInvalidToken:       "Issue a new token with 'birthdays auth token <user-id>'.",
	ErrNetworkUnavailable: "Check your internet connection and try again.",
	ErrTimeout:            "The operation took too long. Try again or check your network connection.",
	ErrCommitFailed:       "Nothing was changed. Check the data directory and try again.",
	ErrStoreLocked:        "The remote store opens in one process at a time. Stop 'birthdays daemon run' first, or use BIRTHDAYS_STORE=local.",
}

// GetSuggestion returns a suggestion for an error, if available.
// An explicit suggestion on a ValidationError wins over the sentinel map.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	if ve, ok := AsValidationError(err); ok && ve.Suggestion != "" {
		return ve.Suggestion
	}

	for knownErr, suggestion := range Suggestions {
		if errors.Is(err, knownErr) {
			return suggestion
		}
	}

	return ""
}
