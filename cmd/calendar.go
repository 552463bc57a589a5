package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/birthdays/internal/calendar"
	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/parser"
)

// Calendar command flags.
var (
	calendarFlagDay   string
	upcomingFlagLimit int
)

// calendarWeekStarts is the first column of the month grid.
const calendarWeekStarts = time.Sunday

// defaultUpcomingLimit is how many birthdays upcoming shows by default.
const defaultUpcomingLimit = 10

// calendarCmd shows a month of birthdays.
var calendarCmd = &cobra.Command{
	Use:     "calendar [YYYY-MM]",
	Aliases: []string{"cal"},
	Short:   "Show a month with its birthdays",
	Long: `Show a month grid with the number of birthdays on each day, or the
birthdays of one day with --day.

Examples:
  birthdays calendar
  birthdays calendar 2025-12
  birthdays calendar --day 03-15`,
	Args: cobra.MaximumNArgs(1),
	RunE: runCalendar,
}

// upcomingCmd lists the next birthdays.
var upcomingCmd = &cobra.Command{
	Use:     "upcoming",
	Aliases: []string{"next", "up"},
	Short:   "List the next birthdays, soonest first",
	RunE:    runUpcoming,
}

func init() {
	calendarCmd.Flags().StringVarP(&calendarFlagDay, "day", "d", "",
		"Show the birthdays on one day (MM-DD)")
	upcomingCmd.Flags().IntVarP(&upcomingFlagLimit, "limit", "n", defaultUpcomingLimit,
		"Number of birthdays to show (0 for all)")

	rootCmd.AddCommand(calendarCmd)
	rootCmd.AddCommand(upcomingCmd)
}

func runCalendar(cmd *cobra.Command, args []string) error {
	birthdays, err := ctx.Store.ListAllBirthdays(ctx.Context())
	if err != nil {
		return err
	}

	if calendarFlagDay != "" {
		md, err := calendar.ParseMonthDay(calendarFlagDay)
		if err != nil {
			return apperrors.NewValidationError("day", err, "Use MM-DD, for example 03-15")
		}
		on := calendar.On(birthdays, md)
		if ctx.IsJSON() {
			return ctx.JSONFormatter().PrintDay(md, on)
		}
		ctx.CLIFormatter().PrintDay(md, on)
		return nil
	}

	today := now()
	month := ""
	if len(args) > 0 {
		month = args[0]
	}
	year, m, err := parser.ParseMonth(month, today)
	if err != nil {
		var derr *parser.DateParseError
		if errors.As(err, &derr) {
			return derr.ToValidationError()
		}
		return err
	}

	grid := calendar.Month(year, m, birthdays, calendarWeekStarts)
	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintCalendar(grid)
	}
	ctx.CLIFormatter().PrintCalendar(grid, calendarWeekStarts, today)
	return nil
}

func runUpcoming(cmd *cobra.Command, args []string) error {
	birthdays, err := ctx.Store.ListAllBirthdays(ctx.Context())
	if err != nil {
		return err
	}

	limit := upcomingFlagLimit
	if cmd.Flags().Lookup("limit") == nil {
		limit = defaultUpcomingLimit
	}
	occ := calendar.Upcoming(birthdays, now(), limit)

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintUpcoming(occ)
	}
	ctx.CLIFormatter().PrintUpcoming(occ)
	return nil
}
