package cmd

import (
	"github.com/spf13/cobra"
)

// greetCmd fetches a birthday greeting.
var greetCmd = &cobra.Command{
	Use:   "greet",
	Short: "Fetch a birthday greeting to send",
	Long: `Fetch one greeting from the configured greeting service.

Examples:
  birthdays greet
  birthdays greet -f json`,
	RunE: runGreet,
}

func init() {
	rootCmd.AddCommand(greetCmd)
}

func runGreet(cmd *cobra.Command, args []string) error {
	text, ok, err := ctx.Greeting().Fetch(ctx.WithContext(cmd.Context()))
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().JSON(map[string]any{"greeting": text, "found": ok})
	}
	if !ok {
		ctx.CLIFormatter().Muted("No greeting available right now.")
		return nil
	}
	ctx.Formatter.Println(text)
	return nil
}
