package storage

import (
	"cmp"
	"slices"

	"github.com/manav03panchal/birthdays/internal/model"
)

// SortGroups orders groups by creation time, then id.
func SortGroups(groups []*model.Group) {
	slices.SortStableFunc(groups, func(a, b *model.Group) int {
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

// SortBirthdays orders birthdays by date, then creation time, then id.
func SortBirthdays(birthdays []*model.Birthday) {
	slices.SortStableFunc(birthdays, func(a, b *model.Birthday) int {
		if c := a.Date.Compare(b.Date); c != 0 {
			return c
		}
		if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
}
