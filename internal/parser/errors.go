package parser

import (
	"fmt"
	"strings"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
)

// DateParseError represents a date parsing error with helpful suggestions.
type DateParseError struct {
	Input      string
	Field      string
	Message    string
	Examples   []string
	Suggestion string
}

func (e *DateParseError) Error() string {
	return fmt.Sprintf("invalid %s '%s': %s", e.Field, e.Input, e.Message)
}

// Unwrap lets errors.Is match apperrors.ErrInvalidDate.
func (e *DateParseError) Unwrap() error {
	return apperrors.ErrInvalidDate
}

// FormatWithExamples returns the error message with example inputs.
func (e *DateParseError) FormatWithExamples() string {
	var sb strings.Builder
	sb.WriteString(e.Error())

	if len(e.Examples) > 0 {
		sb.WriteString("\n\nValid examples:\n")
		for _, ex := range e.Examples {
			sb.WriteString("  - ")
			sb.WriteString(ex)
			sb.WriteString("\n")
		}
	}

	if e.Suggestion != "" {
		sb.WriteString("\n")
		sb.WriteString(e.Suggestion)
	}

	return sb.String()
}

// DateExamples lists accepted birthday date formats.
var DateExamples = []string{
	"1990-03-15",
	"1990/03/15",
	"15 March 1990",
	"March 15, 1990",
}

// MonthExamples lists accepted month formats.
var MonthExamples = []string{
	"2024-03",
	"2025-12",
}

// NewDateError creates a date parse error with standard examples.
func NewDateError(input string) *DateParseError {
	return &DateParseError{
		Input:      input,
		Field:      "date",
		Message:    "could not parse date",
		Examples:   DateExamples,
		Suggestion: "Use YYYY-MM-DD, or write the date out like '15 March 1990'.",
	}
}

// NewMonthError creates a month parse error with standard examples.
func NewMonthError(input string) *DateParseError {
	return &DateParseError{
		Input:      input,
		Field:      "month",
		Message:    "could not parse month",
		Examples:   MonthExamples,
		Suggestion: "Use YYYY-MM.",
	}
}

// ToValidationError converts the error into the application taxonomy.
func (e *DateParseError) ToValidationError() *apperrors.ValidationError {
	suggestion := e.Suggestion
	if suggestion == "" && len(e.Examples) > 0 {
		suggestion = fmt.Sprintf("Try: %s", strings.Join(e.Examples[:min(3, len(e.Examples))], ", "))
	}
	return apperrors.NewValidationErrorWithValue(e.Field, e.Input, apperrors.ErrInvalidDate, suggestion)
}
