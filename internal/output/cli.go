package output

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/charmbracelet/lipgloss"

	"github.com/manav03panchal/birthdays/internal/calendar"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/scheduler"
)

// Styles for CLI output.
var (
	colorPrimary = lipgloss.Color("#7C3AED") // Purple
	colorMuted   = lipgloss.Color("#6B7280") // Gray
	colorWarning = lipgloss.Color("#F59E0B") // Yellow
	colorError   = lipgloss.Color("#EF4444") // Red
	colorSuccess = lipgloss.Color("#10B981") // Green

	styleTitle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	styleSuccess = lipgloss.NewStyle().
			Foreground(colorSuccess)

	styleWarning = lipgloss.NewStyle().
			Foreground(colorWarning)

	styleError = lipgloss.NewStyle().
			Foreground(colorError)

	styleMuted = lipgloss.NewStyle().
			Foreground(colorMuted)

	styleBold = lipgloss.NewStyle().
			Bold(true)

	styleToday = lipgloss.NewStyle().
			Bold(true).
			Reverse(true)

	styleComment = lipgloss.NewStyle().
			Italic(true).
			Foreground(colorMuted)
)

// CLIFormatter provides CLI-specific formatting.
type CLIFormatter struct {
	*Formatter
}

// NewCLIFormatter creates a new CLI formatter.
func NewCLIFormatter(f *Formatter) *CLIFormatter {
	return &CLIFormatter{Formatter: f}
}

func (c *CLIFormatter) render(style lipgloss.Style, text string) string {
	if c.IsColorEnabled() {
		return style.Render(text)
	}
	return text
}

// Title prints a title.
func (c *CLIFormatter) Title(text string) {
	c.Println(c.render(styleTitle, text))
}

// Success prints a success message.
func (c *CLIFormatter) Success(text string) {
	c.Println(c.render(styleSuccess, "✓ "+text))
}

// Warning prints a warning message.
func (c *CLIFormatter) Warning(text string) {
	c.Println(c.render(styleWarning, "⚠ "+text))
}

// Error prints an error message.
func (c *CLIFormatter) Error(text string) {
	c.Println(c.render(styleError, "✗ "+text))
}

// Muted prints muted text.
func (c *CLIFormatter) Muted(text string) {
	c.Println(c.render(styleMuted, text))
}

// GroupName renders a group name in the group's own color.
func (c *CLIFormatter) GroupName(g *model.Group) string {
	if g == nil {
		return "?"
	}
	return c.render(lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(g.Color)), g.Name)
}

// Comment formats a birthday comment.
func (c *CLIFormatter) Comment(text string) string {
	return c.render(styleComment, text)
}

// =============================================================================
// Groups
// =============================================================================

// PrintGroupCreated prints a created group.
func (c *CLIFormatter) PrintGroupCreated(g *model.Group) {
	c.Success(fmt.Sprintf("Created group %s", c.GroupName(g)))
	c.Printf("  ID:    %s\n", g.ID)
	c.Printf("  Icon:  %s\n", g.Icon)
	c.Printf("  Color: %s\n", g.Color)
}

// PrintGroups prints groups with their birthday counts.
func (c *CLIFormatter) PrintGroups(groups []calendar.GroupCount) {
	if len(groups) == 0 {
		c.Muted("No groups yet.")
		c.Muted("Use 'birthdays group add <name>' to create one.")
		return
	}

	rows := make([]TableRow, len(groups))
	for i, gc := range groups {
		rows[i] = TableRow{Columns: []string{gc.Group.ID, gc.Group.Name, gc.Group.Icon, gc.Group.Color, fmt.Sprint(gc.Count)}}
	}
	c.PrintTable([]string{"ID", "NAME", "ICON", "COLOR", "BIRTHDAYS"}, rows)
}

// PrintGroup prints one group and its birthdays.
func (c *CLIFormatter) PrintGroup(g *model.Group, birthdays []*model.Birthday) {
	c.Printf("%s  %s\n", c.GroupName(g), c.render(styleMuted, g.Icon+" "+g.Color))
	c.Printf("  ID:      %s\n", g.ID)
	c.Printf("  Created: %s\n", FormatTime(g.CreatedAt))
	c.Println()
	c.PrintBirthdays(birthdays, nil)
}

// PrintIcons prints the icon catalogue.
func (c *CLIFormatter) PrintIcons(icons []string, defaultIcon string) {
	for _, icon := range icons {
		if icon == defaultIcon {
			c.Printf("%s %s\n", icon, c.render(styleMuted, "(default)"))
			continue
		}
		c.Println(icon)
	}
}

// =============================================================================
// Birthdays
// =============================================================================

// PrintBirthdayCreated prints a created birthday.
func (c *CLIFormatter) PrintBirthdayCreated(b *model.Birthday, g *model.Group) {
	c.Success(fmt.Sprintf("Added %s on %s", c.bold(b.Name), FormatBirthDate(b.Date)))
	c.Printf("  ID:    %s\n", b.ID)
	if g != nil {
		c.Printf("  Group: %s\n", c.GroupName(g))
	}
	if b.Comment != "" {
		c.Printf("  Note:  %s\n", c.Comment(b.Comment))
	}
}

func (c *CLIFormatter) bold(s string) string {
	return c.render(styleBold, s)
}

// PrintBirthdays prints birthdays in a table. groups, when given, maps
// group ids to groups for a GROUP column.
func (c *CLIFormatter) PrintBirthdays(birthdays []*model.Birthday, groups map[string]*model.Group) {
	if len(birthdays) == 0 {
		c.Muted("No birthdays.")
		return
	}

	headers := []string{"ID", "NAME", "DATE", "COMMENT"}
	if groups != nil {
		headers = append(headers, "GROUP")
	}
	rows := make([]TableRow, len(birthdays))
	for i, b := range birthdays {
		cols := []string{b.ID, b.Name, FormatBirthDate(b.Date), truncate(b.Comment, 40)}
		if groups != nil {
			name := b.GroupID
			if g, ok := groups[b.GroupID]; ok {
				name = g.Name
			}
			cols = append(cols, name)
		}
		rows[i] = TableRow{Columns: cols}
	}
	c.PrintTable(headers, rows)
}

// PrintDeleted prints a deletion confirmation.
func (c *CLIFormatter) PrintDeleted(entity, name string) {
	c.Success(fmt.Sprintf("Deleted %s %s", entity, name))
}

// =============================================================================
// Calendar
// =============================================================================

// PrintCalendar prints a month grid. Days with birthdays show the count;
// today is highlighted when it falls in the month.
func (c *CLIFormatter) PrintCalendar(g calendar.Grid, weekStart time.Weekday, today time.Time) {
	title := fmt.Sprintf("%s %d", g.Month, g.Year)
	c.Title(fmt.Sprintf("%*s", 14+utf8.RuneCountInString(title)/2, title))

	var head strings.Builder
	for i := range 7 {
		wd := time.Weekday((int(weekStart) + i) % 7)
		head.WriteString(fmt.Sprintf("%-4s", wd.String()[:2]))
	}
	c.Println(strings.TrimRight(head.String(), " "))

	isThisMonth := today.Year() == g.Year && today.Month() == g.Month
	for _, week := range g.Weeks {
		var line strings.Builder
		for _, cell := range week {
			line.WriteString(c.cell(cell, isThisMonth && cell.Day == today.Day()))
		}
		c.Println(strings.TrimRight(line.String(), " "))
	}

	c.Println()
	switch g.Total {
	case 0:
		c.Muted("No birthdays this month.")
	case 1:
		c.Muted("1 birthday this month.")
	default:
		c.Muted(fmt.Sprintf("%d birthdays this month.", g.Total))
	}
}

func (c *CLIFormatter) cell(cell calendar.Cell, today bool) string {
	if cell.Day == 0 {
		return "    "
	}
	day := fmt.Sprintf("%2d", cell.Day)
	if today {
		day = c.render(styleToday, day)
	}
	mark := " "
	switch {
	case cell.Count > 9:
		mark = "+"
	case cell.Count > 0:
		mark = fmt.Sprint(cell.Count)
	}
	if cell.Count > 0 {
		mark = c.render(styleWarning, mark)
	}
	return day + mark + " "
}

// PrintDay prints the birthdays on one day.
func (c *CLIFormatter) PrintDay(md calendar.MonthDay, birthdays []*model.Birthday) {
	c.Title(fmt.Sprintf("%s %d", md.Month, md.Day))
	if len(birthdays) == 0 {
		c.Muted("No birthdays on this day.")
		return
	}
	for _, b := range birthdays {
		c.Printf("  %s  %s\n", c.bold(b.Name), c.render(styleMuted, FormatBirthDate(b.Date)))
		if b.Comment != "" {
			c.Printf("    %s\n", c.Comment(b.Comment))
		}
	}
}

// PrintUpcoming prints upcoming birthdays.
func (c *CLIFormatter) PrintUpcoming(occ []calendar.Occurrence) {
	if len(occ) == 0 {
		c.Muted("No upcoming birthdays.")
		return
	}
	rows := make([]TableRow, len(occ))
	for i, o := range occ {
		age := ""
		if o.Age > 0 {
			age = fmt.Sprint(o.Age)
		}
		rows[i] = TableRow{Columns: []string{
			o.Birthday.Name,
			o.Date.Format("Mon Jan 2, 2006"),
			FormatDaysUntil(o.DaysUntil),
			age,
		}}
	}
	c.PrintTable([]string{"NAME", "NEXT", "WHEN", "TURNS"}, rows)
}

// =============================================================================
// Alerts
// =============================================================================

// PrintAlerts prints the alert schedule with each alert's next firing.
func (c *CLIFormatter) PrintAlerts(alerts []scheduler.Alert, now time.Time) {
	if len(alerts) == 0 {
		c.Muted("No alerts scheduled.")
		return
	}
	rows := make([]TableRow, len(alerts))
	for i, a := range alerts {
		next := "-"
		if t := a.Trigger.Next(now); !t.IsZero() {
			next = t.Format("2006-01-02 15:04 MST")
		}
		rows[i] = TableRow{Columns: []string{a.Name, a.Trigger.String(), next, a.Trigger.Spec()}}
	}
	c.PrintTable([]string{"NAME", "TRIGGER", "NEXT", "CRON"}, rows)
}

// =============================================================================
// Webhooks
// =============================================================================

// PrintWebhooks prints configured webhooks with masked URLs.
func (c *CLIFormatter) PrintWebhooks(webhooks []*model.Webhook) {
	if len(webhooks) == 0 {
		c.Muted("No webhooks configured.")
		c.Muted("Use 'birthdays webhook add <name> <url>' to add one.")
		return
	}
	rows := make([]TableRow, len(webhooks))
	for i, w := range webhooks {
		status := "enabled"
		if !w.Enabled {
			status = "disabled"
		}
		last := "never"
		if !w.LastUsed.IsZero() {
			last = FormatTime(w.LastUsed)
			if w.LastError != "" {
				last += " (failed)"
			}
		}
		rows[i] = TableRow{Columns: []string{w.Name, w.Type, status, w.MaskedURL(), last}}
	}
	c.PrintTable([]string{"NAME", "TYPE", "STATUS", "URL", "LAST USED"}, rows)
}

// =============================================================================
// Tables
// =============================================================================

// TableRow is one row of a table.
type TableRow struct {
	Columns []string
}

// PrintTable prints a simple table.
func (c *CLIFormatter) PrintTable(headers []string, rows []TableRow) {
	if len(rows) == 0 {
		return
	}

	widths := make([]int, len(headers))
	for i, h := range headers {
		widths[i] = utf8.RuneCountInString(h)
	}
	for _, row := range rows {
		for i, col := range row.Columns {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(col))
			}
		}
	}

	var headerLine strings.Builder
	for i, h := range headers {
		headerLine.WriteString(pad(h, widths[i]))
	}
	c.Println(c.render(styleBold, strings.TrimRight(headerLine.String(), " ")))

	if c.Format != FormatPlain {
		var sep strings.Builder
		for _, w := range widths {
			sep.WriteString(strings.Repeat("─", w) + "  ")
		}
		c.Println(strings.TrimRight(sep.String(), " "))
	}

	for _, row := range rows {
		var line strings.Builder
		for i, col := range row.Columns {
			if i < len(widths) {
				line.WriteString(pad(col, widths[i]))
			}
		}
		c.Println(strings.TrimRight(line.String(), " "))
	}
}

func pad(s string, width int) string {
	return s + strings.Repeat(" ", width-utf8.RuneCountInString(s)+2)
}

func truncate(s string, n int) string {
	s = strings.ReplaceAll(s, "\n", " ")
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n-1]) + "…"
}
