// Package parser parses the date inputs accepted on the command line.
package parser

import (
	"strings"
	"time"

	"github.com/markusmobius/go-dateparser"

	"github.com/manav03panchal/birthdays/internal/model"
)

// dateLayouts are tried before natural language parsing.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006.01.02",
	"20060102",
	time.RFC3339,
}

// ParseDate parses a birthday date such as "1990-03-15", "15 March 1990" or
// "March 15, 1990". The result is a civil date: midnight UTC on the day the
// input names, whatever zone it was written in.
func ParseDate(input string, now time.Time) (time.Time, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return time.Time{}, NewDateError(input)
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, input); err == nil {
			return model.CivilDate(t), nil
		}
	}

	cfg := &dateparser.Configuration{
		CurrentTime: now,
	}
	result, err := dateparser.Parse(cfg, input)
	if err != nil || result.Time.IsZero() {
		return time.Time{}, NewDateError(input)
	}
	return model.CivilDate(result.Time), nil
}

// ParseMonth parses "YYYY-MM". An empty input means the month of now.
func ParseMonth(input string, now time.Time) (int, time.Month, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return now.Year(), now.Month(), nil
	}
	t, err := time.Parse("2006-01", input)
	if err != nil {
		return 0, 0, NewMonthError(input)
	}
	return t.Year(), t.Month(), nil
}
