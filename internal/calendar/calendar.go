// Package calendar groups birthdays by calendar day for month views,
// per-group overviews and upcoming lists.
package calendar

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/manav03panchal/birthdays/internal/model"
)

// MonthDay is a day of the year without a year.
type MonthDay struct {
	Month time.Month
	Day   int
}

// Of returns the month and day of a birthday.
func Of(b *model.Birthday) MonthDay {
	return MonthDay{Month: b.Month(), Day: b.Day()}
}

// ParseMonthDay parses "MM-DD".
func ParseMonthDay(s string) (MonthDay, error) {
	t, err := time.Parse("01-02", s)
	if err != nil {
		// time.Parse rejects 02-29 without a leap year.
		if t, err2 := time.Parse("2006-01-02", "2024-"+s); err2 == nil {
			return MonthDay{Month: t.Month(), Day: t.Day()}, nil
		}
		return MonthDay{}, fmt.Errorf("day must look like MM-DD: %w", err)
	}
	return MonthDay{Month: t.Month(), Day: t.Day()}, nil
}

func (md MonthDay) String() string {
	return fmt.Sprintf("%02d-%02d", int(md.Month), md.Day)
}

// CountByDay counts birthdays per month and day.
func CountByDay(birthdays []*model.Birthday) map[MonthDay]int {
	counts := make(map[MonthDay]int)
	for _, b := range birthdays {
		counts[Of(b)]++
	}
	return counts
}

// On returns the birthdays falling on md, by name.
func On(birthdays []*model.Birthday, md MonthDay) []*model.Birthday {
	var out []*model.Birthday
	for _, b := range birthdays {
		if Of(b) == md {
			out = append(out, b)
		}
	}
	slices.SortStableFunc(out, func(a, b *model.Birthday) int { return cmp.Compare(a.Name, b.Name) })
	return out
}

// Cell is one day in a month grid. Day is 0 for padding cells.
type Cell struct {
	Day   int `json:"day"`
	Count int `json:"count"`
}

// Grid is a month laid out in weeks of seven cells.
type Grid struct {
	Year  int        `json:"year"`
	Month time.Month `json:"month"`
	Weeks [][]Cell   `json:"weeks"`
	Total int        `json:"total"`
}

// Month lays out year/month starting weeks on weekStart, with the number of
// birthdays on each day. February 29 birthdays only land in leap years.
func Month(year int, month time.Month, birthdays []*model.Birthday, weekStart time.Weekday) Grid {
	counts := CountByDay(birthdays)
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	days := first.AddDate(0, 1, -1).Day()

	g := Grid{Year: year, Month: month}
	offset := (int(first.Weekday()) - int(weekStart) + 7) % 7

	week := make([]Cell, 0, 7)
	for range offset {
		week = append(week, Cell{})
	}
	for day := 1; day <= days; day++ {
		c := Cell{Day: day, Count: counts[MonthDay{Month: month, Day: day}]}
		g.Total += c.Count
		week = append(week, c)
		if len(week) == 7 {
			g.Weeks = append(g.Weeks, week)
			week = make([]Cell, 0, 7)
		}
	}
	if len(week) > 0 {
		for len(week) < 7 {
			week = append(week, Cell{})
		}
		g.Weeks = append(g.Weeks, week)
	}
	return g
}

// GroupCount pairs a group with its number of birthdays.
type GroupCount struct {
	Group *model.Group `json:"group"`
	Count int          `json:"count"`
}

// CountByGroup counts birthdays per group, keeping the order of groups.
// Groups without birthdays count zero.
func CountByGroup(groups []*model.Group, birthdays []*model.Birthday) []GroupCount {
	per := make(map[string]int, len(groups))
	for _, b := range birthdays {
		per[b.GroupID]++
	}
	out := make([]GroupCount, len(groups))
	for i, g := range groups {
		out[i] = GroupCount{Group: g, Count: per[g.ID]}
	}
	return out
}

// Occurrence is the next time a birthday comes around.
type Occurrence struct {
	Birthday  *model.Birthday `json:"birthday"`
	Date      time.Time       `json:"date"`
	Age       int             `json:"age,omitempty"`
	DaysUntil int             `json:"daysUntil"`
}

// Upcoming returns the next occurrence of every birthday on or after from,
// soonest first. A positive limit truncates the list.
func Upcoming(birthdays []*model.Birthday, from time.Time, limit int) []Occurrence {
	today := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, from.Location())

	out := make([]Occurrence, 0, len(birthdays))
	for _, b := range birthdays {
		next := b.NextOccurrence(from)
		out = append(out, Occurrence{
			Birthday:  b,
			Date:      next,
			Age:       b.AgeOn(next),
			DaysUntil: daysBetween(today, next),
		})
	}
	slices.SortStableFunc(out, func(a, b Occurrence) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		return cmp.Compare(a.Birthday.Name, b.Birthday.Name)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

// daysBetween counts calendar days from a to b, both at local midnight.
func daysBetween(a, b time.Time) int {
	ua := time.Date(a.Year(), a.Month(), a.Day(), 0, 0, 0, 0, time.UTC)
	ub := time.Date(b.Year(), b.Month(), b.Day(), 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua).Hours() / 24)
}
