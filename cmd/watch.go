package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/birthdays/internal/tui"
)

var watchFlagLimit int

// watchCmd opens the live watch screen.
var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Watch groups and upcoming birthdays live",
	Long: `Open a screen that lists groups and upcoming birthdays and redraws
whenever the store changes. Press q to quit.`,
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().IntVarP(&watchFlagLimit, "limit", "n", defaultUpcomingLimit,
		"Number of upcoming birthdays to show")

	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	c, stop := signal.NotifyContext(ctx.WithContext(cmd.Context()), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return tui.Run(c, tui.WatchConfig{
		Store: ctx.Store,
		Limit: watchFlagLimit,
		Now:   now,
	})
}
