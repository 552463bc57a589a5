// Package model defines the domain models for birthdays.
package model

import (
	"fmt"
	"strings"
)

// Model is the interface that all document-store models must implement.
type Model interface {
	// SetKey sets the database key for this model.
	SetKey(key string)
	// GetKey returns the database key for this model.
	GetKey() string
}

// Key prefixes for document-store keys.
const (
	PrefixGroup    = "group"
	PrefixBirthday = "birthday"
)

// GenerateGroupKey generates a database key for a group.
func GenerateGroupKey(id string) string {
	return fmt.Sprintf("%s:%s", PrefixGroup, id)
}

// GenerateBirthdayKey generates a database key for a birthday.
func GenerateBirthdayKey(id string) string {
	return fmt.Sprintf("%s:%s", PrefixBirthday, id)
}

// idFromKey strips the "<prefix>:" part of a key.
func idFromKey(prefix, key string) string {
	return strings.TrimPrefix(key, prefix+":")
}
