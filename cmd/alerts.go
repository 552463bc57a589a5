package cmd

import (
	"github.com/spf13/cobra"

	"github.com/manav03panchal/birthdays/internal/scheduler"
)

// alertsCmd previews the alert schedule.
var alertsCmd = &cobra.Command{
	Use:   "alerts",
	Short: "Show the alerts the daemon schedules",
	Long: `Show one alert per birthday with its trigger and next firing, as
'birthdays daemon run' registers them.`,
	RunE: runAlerts,
}

func init() {
	rootCmd.AddCommand(alertsCmd)
}

func runAlerts(cmd *cobra.Command, args []string) error {
	loc, err := ctx.Config.Location()
	if err != nil {
		return err
	}

	c := ctx.Context()
	birthdays, err := ctx.Store.ListAllBirthdays(c)
	if err != nil {
		return err
	}

	// The center is never started: alerts are registered, not fired.
	center := scheduler.NewCronCenter(scheduler.CenterOptions{Location: loc})
	res := scheduler.New(center, ctx.ScheduleOptions()).Reschedule(c, birthdays)
	alerts := center.Pending()
	t := now()

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintAlerts(alerts, t)
	}
	cli := ctx.CLIFormatter()
	cli.PrintAlerts(alerts, t)
	for _, f := range res.Failures {
		cli.Warning(f.Error())
	}
	return nil
}
