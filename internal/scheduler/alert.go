package scheduler

import (
	"fmt"
	"strings"
)

// Alert defaults.
const (
	DefaultTitle = "Birthday Reminder"
	DefaultSound = "default"
)

// Alert is one scheduled birthday notification.
type Alert struct {
	ID         string  `json:"id"`
	BirthdayID string  `json:"birthdayId"`
	Name       string  `json:"name"`
	Title      string  `json:"title"`
	Body       string  `json:"body"`
	Sound      string  `json:"sound"`
	Trigger    Trigger `json:"trigger"`
}

// AlertBody returns the notification text for a birthday named name.
func AlertBody(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return "It's someone's birthday today! Wish them all the best."
	}
	return fmt.Sprintf("It's %s's birthday today! Wish them all the best.", name)
}
