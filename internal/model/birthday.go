package model

import "time"

// DefaultBirthdayName is stored for unnamed birthdays when the empty-name
// policy allows them.
const DefaultBirthdayName = "No Name"

// Birthday is a named date that belongs to exactly one group.
type Birthday struct {
	ID        string    `json:"id" gorm:"primaryKey;size:36"`
	Name      string    `json:"name" gorm:"not null"`
	Date      time.Time `json:"date" gorm:"not null;index"`
	Comment   string    `json:"comment"`
	GroupID   string    `json:"groupId" gorm:"size:36;not null;index"`
	OwnerID   string    `json:"userId,omitempty" gorm:"index"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// SetKey sets the database key for this birthday.
func (b *Birthday) SetKey(key string) {
	b.ID = idFromKey(PrefixBirthday, key)
}

// GetKey returns the database key for this birthday.
func (b *Birthday) GetKey() string {
	return GenerateBirthdayKey(b.ID)
}

// Month returns the month of the birthday.
func (b *Birthday) Month() time.Month {
	return b.Date.Month()
}

// Day returns the day of month of the birthday.
func (b *Birthday) Day() int {
	return b.Date.Day()
}

// IsLeapDay reports whether the birthday falls on February 29.
func (b *Birthday) IsLeapDay() bool {
	return b.Date.Month() == time.February && b.Date.Day() == 29
}

// NextOccurrence returns the first date on or after from (compared by
// calendar day in from's location) on which the birthday falls.
// Leap-day birthdays only occur in leap years.
func (b *Birthday) NextOccurrence(from time.Time) time.Time {
	loc := from.Location()
	today := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, loc)
	for year := from.Year(); ; year++ {
		if b.IsLeapDay() && !IsLeapYear(year) {
			continue
		}
		next := time.Date(year, b.Month(), b.Day(), 0, 0, 0, 0, loc)
		if !next.Before(today) {
			return next
		}
	}
}

// AgeOn returns the age turned on the given occurrence date.
// Birthdays without a meaningful year (year 1 or 0) return 0.
func (b *Birthday) AgeOn(occurrence time.Time) int {
	if b.Date.Year() <= 1 {
		return 0
	}
	age := occurrence.Year() - b.Date.Year()
	if age < 0 {
		return 0
	}
	return age
}

// CivilDate keeps t's own year, month and day at midnight UTC.
func CivilDate(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// IsLeapYear reports whether year has a February 29.
func IsLeapYear(year int) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}
