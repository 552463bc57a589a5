package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Group is a named, colored category of birthdays.
type Group struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"not null"`
	Icon      string    `json:"icon" gorm:"not null"`
	Color     string    `json:"color" gorm:"size:7;not null"`
	OwnerID   string    `json:"userId,omitempty" gorm:"index"`
	CreatedAt time.Time `json:"createdAt" gorm:"index"`
	UpdatedAt time.Time `json:"updatedAt"`

	// Birthdays only exists so the relational schema gets its cascading
	// foreign key; it is never loaded.
	Birthdays []Birthday `json:"-" gorm:"foreignKey:GroupID;constraint:OnDelete:CASCADE"`
}

// SetKey sets the database key for this group.
func (g *Group) SetKey(key string) {
	g.ID = idFromKey(PrefixGroup, key)
}

// GetKey returns the database key for this group.
func (g *Group) GetKey() string {
	return GenerateGroupKey(g.ID)
}

// RGB returns the group color as a 24-bit integer, or 0 if it is malformed.
func (g *Group) RGB() int {
	v, err := ParseColor(g.Color)
	if err != nil {
		return 0
	}
	return v
}

// DefaultIcon is used when a group is created without an icon.
const DefaultIcon = "figure.walk"

// DefaultColor is used when a group is created without a color.
const DefaultColor = "#FF0000"

// Icons is the fixed set of symbolic icon names a group may use.
var Icons = []string{
	"figure.walk", "figure.run", "figure.wave", "house", "car",
	"airplane", "bus", "bicycle", "bed.double", "bell",
	"bolt", "book", "bookmark", "camera", "cart",
	"clock", "cloud", "creditcard", "envelope", "flame",
	"gift", "globe", "heart", "key", "leaf",
	"lightbulb", "lock", "map", "music.note", "star",
}

// IsValidIcon reports whether name is in the icon set.
func IsValidIcon(name string) bool {
	for _, icon := range Icons {
		if icon == name {
			return true
		}
	}
	return false
}

// hexColorRegex validates hex color codes.
var hexColorRegex = regexp.MustCompile(`^#[0-9A-Fa-f]{6}$`)

// IsValidColor checks if a color string is a valid #RRGGBB code.
func IsValidColor(color string) bool {
	return hexColorRegex.MatchString(color)
}

// NormalizeColor upper-cases a valid color code.
func NormalizeColor(color string) string {
	return strings.ToUpper(color)
}

// ParseColor converts "#RRGGBB" into its integer value.
func ParseColor(color string) (int, error) {
	if !IsValidColor(color) {
		return 0, fmt.Errorf("invalid color %q", color)
	}
	v, err := strconv.ParseInt(color[1:], 16, 32)
	if err != nil {
		return 0, err
	}
	return int(v), nil
}

// FormatColor renders an integer RGB value as "#RRGGBB".
func FormatColor(rgb int) string {
	return fmt.Sprintf("#%06X", rgb&0xFFFFFF)
}
