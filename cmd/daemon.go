package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/birthdays/internal/daemon"
	"github.com/manav03panchal/birthdays/internal/output"
)

// daemonCmd represents the daemon command.
var daemonCmd = &cobra.Command{
	Use:     "daemon [command]",
	Aliases: []string{"d"},
	Short:   "Run or inspect the alert daemon",
	Long: `The daemon keeps one alert per birthday scheduled and delivers each
alert to the enabled webhooks on the day. It reloads everything on SIGHUP.

With the local store, changes made by other birthdays commands reach the
schedule within BIRTHDAYS_DAEMON_POLL (default 10s). The remote store opens
in one process at a time, so stop the daemon before changing it.

It serves /healthz, /metrics and /alerts on the configured address.

Examples:
  birthdays daemon run
  birthdays daemon status`,
	Annotations: map[string]string{skipRuntime: "true"},
	RunE:        runDaemonStatus,
}

// daemonRunCmd runs the daemon in the foreground.
var daemonRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the daemon in the foreground",
	Long: `Run the daemon in the foreground until interrupted.

Run it under your service manager (launchd, systemd) to keep it running.`,
	RunE: runDaemonRun,
}

// daemonStatusCmd shows daemon status.
var daemonStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show daemon status",
	RunE:  runDaemonStatus,
}

func init() {
	daemonCmd.AddCommand(daemonRunCmd)
	daemonCmd.AddCommand(daemonStatusCmd)

	rootCmd.AddCommand(daemonCmd)
}

// runDaemonRun opens the runtime itself. The daemon group skips it so that
// status never touches a store the running daemon holds.
func runDaemonRun(cmd *cobra.Command, args []string) error {
	f, err := newFormatter(cmd)
	if err != nil {
		return err
	}
	if ctx, err = newRuntime(f); err != nil {
		return err
	}

	d, err := ctx.Daemon(Version)
	if err != nil {
		return err
	}
	if f.Format == output.FormatCLI {
		output.NewCLIFormatter(f).Title(fmt.Sprintf("Starting birthdays daemon on %s", ctx.Config.Daemon.Addr))
	}
	return d.Run(ctx.WithContext(cmd.Context()))
}

func runDaemonStatus(cmd *cobra.Command, args []string) error {
	f, err := newFormatter(cmd)
	if err != nil {
		return err
	}
	status := daemon.GetStatus(cmd.Context(), "", nil)

	if f.IsJSON() {
		return f.JSON(status)
	}

	cli := output.NewCLIFormatter(f)
	cli.Title("Birthdays Daemon")
	if !status.Running {
		cli.Printf("  Status:    stopped\n")
		cli.Println("")
		cli.Muted("Start it with 'birthdays daemon run'.")
		return nil
	}

	cli.Printf("  Status:    running\n")
	cli.Printf("  PID:       %d\n", status.PID)
	if status.Addr != "" {
		cli.Printf("  Address:   %s\n", status.Addr)
	}
	if status.Uptime != "" {
		cli.Printf("  Uptime:    %s\n", status.Uptime)
	}
	if status.Version != "" {
		cli.Printf("  Version:   %s\n", status.Version)
	}
	if h := status.Health; h != nil {
		cli.Printf("  Health:    %s\n", h.Status)
		cli.Printf("  Alerts:    %d pending\n", h.PendingAlerts)
		if h.LastReschedule != nil {
			cli.Printf("  Scheduled: %s\n", h.LastReschedule.Local().Format(time.DateTime))
		}
	}
	return nil
}
