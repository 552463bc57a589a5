package output

import (
	"time"

	"github.com/manav03panchal/birthdays/internal/calendar"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/scheduler"
)

// JSONFormatter provides JSON-specific formatting.
type JSONFormatter struct {
	*Formatter
}

// NewJSONFormatter creates a new JSON formatter.
func NewJSONFormatter(f *Formatter) *JSONFormatter {
	return &JSONFormatter{Formatter: f}
}

// GroupOutput represents a group in JSON output.
type GroupOutput struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Icon      string `json:"icon"`
	Color     string `json:"color"`
	Birthdays *int   `json:"birthdays,omitempty"`
	CreatedAt string `json:"created_at"`
}

// NewGroupOutput creates a GroupOutput from a Group.
func NewGroupOutput(g *model.Group) *GroupOutput {
	return &GroupOutput{
		ID:        g.ID,
		Name:      g.Name,
		Icon:      g.Icon,
		Color:     g.Color,
		CreatedAt: g.CreatedAt.Format(time.RFC3339),
	}
}

// BirthdayOutput represents a birthday in JSON output.
type BirthdayOutput struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Date    string `json:"date"`
	Comment string `json:"comment,omitempty"`
	GroupID string `json:"group_id"`
}

// NewBirthdayOutput creates a BirthdayOutput from a Birthday.
func NewBirthdayOutput(b *model.Birthday) *BirthdayOutput {
	return &BirthdayOutput{
		ID:      b.ID,
		Name:    b.Name,
		Date:    FormatISODate(b.Date),
		Comment: b.Comment,
		GroupID: b.GroupID,
	}
}

func birthdayOutputs(birthdays []*model.Birthday) []*BirthdayOutput {
	out := make([]*BirthdayOutput, len(birthdays))
	for i, b := range birthdays {
		out[i] = NewBirthdayOutput(b)
	}
	return out
}

// GroupsResponse is the group list output.
type GroupsResponse struct {
	Groups []*GroupOutput `json:"groups"`
}

// GroupResponse is a single group with its birthdays.
type GroupResponse struct {
	Group     *GroupOutput      `json:"group"`
	Birthdays []*BirthdayOutput `json:"birthdays,omitempty"`
}

// BirthdaysResponse is the birthday list output.
type BirthdaysResponse struct {
	Birthdays []*BirthdayOutput `json:"birthdays"`
	Count     int               `json:"count"`
}

// CalendarResponse is the month grid output.
type CalendarResponse struct {
	Year  int               `json:"year"`
	Month int               `json:"month"`
	Days  map[string]int    `json:"days"`
	Weeks [][]calendar.Cell `json:"weeks"`
	Total int               `json:"total"`
}

// DayResponse lists the birthdays on one day.
type DayResponse struct {
	Day       string            `json:"day"`
	Birthdays []*BirthdayOutput `json:"birthdays"`
}

// UpcomingOutput is one upcoming birthday.
type UpcomingOutput struct {
	Birthday  *BirthdayOutput `json:"birthday"`
	Next      string          `json:"next"`
	DaysUntil int             `json:"days_until"`
	Turns     int             `json:"turns,omitempty"`
}

// AlertOutput is one scheduled alert.
type AlertOutput struct {
	ID         string `json:"id"`
	BirthdayID string `json:"birthday_id"`
	Name       string `json:"name"`
	Title      string `json:"title"`
	Body       string `json:"body"`
	Sound      string `json:"sound"`
	Cron       string `json:"cron"`
	Repeats    bool   `json:"repeats"`
	Next       string `json:"next,omitempty"`
}

// NewAlertOutput creates an AlertOutput, with the next firing after now.
func NewAlertOutput(a scheduler.Alert, now time.Time) *AlertOutput {
	out := &AlertOutput{
		ID:         a.ID,
		BirthdayID: a.BirthdayID,
		Name:       a.Name,
		Title:      a.Title,
		Body:       a.Body,
		Sound:      a.Sound,
		Cron:       a.Trigger.Spec(),
		Repeats:    a.Trigger.Repeats,
	}
	if next := a.Trigger.Next(now); !next.IsZero() {
		out.Next = next.Format(time.RFC3339)
	}
	return out
}

// WebhookOutput represents a webhook with its URL masked.
type WebhookOutput struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	URL       string `json:"url"`
	Enabled   bool   `json:"enabled"`
	LastUsed  string `json:"last_used,omitempty"`
	LastError string `json:"last_error,omitempty"`
}

// ErrorResponse represents an error in JSON.
type ErrorResponse struct {
	Status     string `json:"status"`
	Kind       string `json:"kind"`
	Error      string `json:"error"`
	Suggestion string `json:"suggestion,omitempty"`
}

// PrintGroups outputs groups with counts.
func (j *JSONFormatter) PrintGroups(groups []calendar.GroupCount) error {
	resp := GroupsResponse{Groups: make([]*GroupOutput, len(groups))}
	for i, gc := range groups {
		out := NewGroupOutput(gc.Group)
		n := gc.Count
		out.Birthdays = &n
		resp.Groups[i] = out
	}
	return j.JSON(resp)
}

// PrintGroup outputs one group with its birthdays.
func (j *JSONFormatter) PrintGroup(g *model.Group, birthdays []*model.Birthday) error {
	resp := GroupResponse{Group: NewGroupOutput(g)}
	if birthdays != nil {
		resp.Birthdays = birthdayOutputs(birthdays)
	}
	return j.JSON(resp)
}

// PrintBirthday outputs one birthday.
func (j *JSONFormatter) PrintBirthday(b *model.Birthday) error {
	return j.JSON(NewBirthdayOutput(b))
}

// PrintBirthdays outputs birthdays.
func (j *JSONFormatter) PrintBirthdays(birthdays []*model.Birthday) error {
	return j.JSON(BirthdaysResponse{Birthdays: birthdayOutputs(birthdays), Count: len(birthdays)})
}

// PrintCalendar outputs a month grid with per-day counts keyed "MM-DD".
func (j *JSONFormatter) PrintCalendar(g calendar.Grid) error {
	days := make(map[string]int)
	for _, week := range g.Weeks {
		for _, cell := range week {
			if cell.Count > 0 {
				days[calendar.MonthDay{Month: g.Month, Day: cell.Day}.String()] = cell.Count
			}
		}
	}
	return j.JSON(CalendarResponse{Year: g.Year, Month: int(g.Month), Days: days, Weeks: g.Weeks, Total: g.Total})
}

// PrintDay outputs the birthdays on one day.
func (j *JSONFormatter) PrintDay(md calendar.MonthDay, birthdays []*model.Birthday) error {
	return j.JSON(DayResponse{Day: md.String(), Birthdays: birthdayOutputs(birthdays)})
}

// PrintUpcoming outputs upcoming birthdays.
func (j *JSONFormatter) PrintUpcoming(occ []calendar.Occurrence) error {
	out := make([]*UpcomingOutput, len(occ))
	for i, o := range occ {
		out[i] = &UpcomingOutput{
			Birthday:  NewBirthdayOutput(o.Birthday),
			Next:      o.Date.Format("2006-01-02"),
			DaysUntil: o.DaysUntil,
			Turns:     o.Age,
		}
	}
	return j.JSON(map[string]any{"upcoming": out})
}

// PrintAlerts outputs the alert schedule.
func (j *JSONFormatter) PrintAlerts(alerts []scheduler.Alert, now time.Time) error {
	out := make([]*AlertOutput, len(alerts))
	for i, a := range alerts {
		out[i] = NewAlertOutput(a, now)
	}
	return j.JSON(map[string]any{"alerts": out})
}

// PrintWebhooks outputs webhooks.
func (j *JSONFormatter) PrintWebhooks(webhooks []*model.Webhook) error {
	out := make([]*WebhookOutput, len(webhooks))
	for i, w := range webhooks {
		o := &WebhookOutput{Name: w.Name, Type: w.Type, URL: w.MaskedURL(), Enabled: w.Enabled, LastError: w.LastError}
		if !w.LastUsed.IsZero() {
			o.LastUsed = w.LastUsed.Format(time.RFC3339)
		}
		out[i] = o
	}
	return j.JSON(map[string]any{"webhooks": out})
}

// PrintStatus outputs a bare status, e.g. {"status":"deleted","id":"..."}.
func (j *JSONFormatter) PrintStatus(status string, fields map[string]any) error {
	resp := map[string]any{"status": status}
	for k, v := range fields {
		resp[k] = v
	}
	return j.JSON(resp)
}

// PrintError outputs an error.
func (j *JSONFormatter) PrintError(kind, errMsg, suggestion string) error {
	return j.JSON(ErrorResponse{Status: "error", Kind: kind, Error: errMsg, Suggestion: suggestion})
}
