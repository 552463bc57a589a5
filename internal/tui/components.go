package tui

import (
	"fmt"
	"strings"

	"github.com/manav03panchal/birthdays/internal/calendar"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/output"
)

// GroupsComponent lists the groups with their birthday counts.
type GroupsComponent struct {
	Counts []calendar.GroupCount
	Width  int
}

// NewGroupsComponent creates a new groups component.
func NewGroupsComponent(counts []calendar.GroupCount, width int) *GroupsComponent {
	return &GroupsComponent{Counts: counts, Width: width}
}

// View renders the groups component.
func (gc *GroupsComponent) View() string {
	var content strings.Builder

	content.WriteString(StyleTitle.Render("Groups"))
	content.WriteString("\n")

	if len(gc.Counts) == 0 {
		content.WriteString(StyleMuted.Render("No groups yet"))
	}
	for i, c := range gc.Counts {
		if i > 0 {
			content.WriteString("\n")
		}
		content.WriteString(GroupStyle(c.Group.Color).Render(c.Group.Name))
		content.WriteString("  ")
		content.WriteString(StyleCount.Render(plural(c.Count, "birthday")))
	}

	return StyleGroupsBox.Width(boxWidth(gc.Width)).Render(content.String())
}

// UpcomingComponent lists the next birthdays in date order.
type UpcomingComponent struct {
	Items  []calendar.Occurrence
	Groups map[string]*model.Group
	Width  int
}

// NewUpcomingComponent creates a new upcoming component.
func NewUpcomingComponent(items []calendar.Occurrence, groups map[string]*model.Group, width int) *UpcomingComponent {
	return &UpcomingComponent{Items: items, Groups: groups, Width: width}
}

// View renders the upcoming component.
func (uc *UpcomingComponent) View() string {
	var content strings.Builder

	content.WriteString(StyleTitle.Render("Upcoming"))
	content.WriteString("\n")

	if len(uc.Items) == 0 {
		content.WriteString(StyleMuted.Render("No birthdays yet"))
	}
	today := false
	for i, occ := range uc.Items {
		if i > 0 {
			content.WriteString("\n")
		}
		if occ.DaysUntil == 0 {
			today = true
		}
		content.WriteString(uc.renderOccurrence(occ))
	}

	box := StyleUpcomingBox
	if today {
		box = StyleTodayBox
	}
	return box.Width(boxWidth(uc.Width)).Render(content.String())
}

func (uc *UpcomingComponent) renderOccurrence(occ calendar.Occurrence) string {
	var sb strings.Builder

	name := occ.Birthday.Name
	if name == "" {
		name = "(no name)"
	}
	sb.WriteString(StyleName.Render(name))
	sb.WriteString("  ")
	sb.WriteString(DaysStyle(occ.DaysUntil).Render(output.FormatDaysUntil(occ.DaysUntil)))

	detail := occ.Date.Format("Jan 2")
	if occ.Age > 0 {
		detail += fmt.Sprintf(", turns %d", occ.Age)
	}
	if g, ok := uc.Groups[occ.Birthday.GroupID]; ok {
		detail += " · " + g.Name
	}
	sb.WriteString("\n")
	sb.WriteString(StyleSubtitle.Render("  " + detail))

	if occ.Birthday.Comment != "" {
		sb.WriteString("\n")
		sb.WriteString(StyleComment.Render(fmt.Sprintf("  \"%s\"", occ.Birthday.Comment)))
	}
	return sb.String()
}

// HelpBar renders the help bar at the bottom.
func HelpBar() string {
	keys := []struct {
		key  string
		desc string
	}{
		{"r", "refresh"},
		{"q", "quit"},
	}

	var parts []string
	for _, k := range keys {
		parts = append(parts, StyleHelpKey.Render(k.key)+" "+StyleHelpDesc.Render(k.desc))
	}
	return StyleHelp.Render(strings.Join(parts, "  •  "))
}

func boxWidth(width int) int {
	return max(width-4, 20)
}

func plural(n int, word string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", word)
	}
	return fmt.Sprintf("%d %ss", n, word)
}

