package cmd

import (
	"errors"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/birthdays/internal/auth"
	"github.com/manav03panchal/birthdays/internal/config"
	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/output"
)

// authCmd represents the auth command.
var authCmd = &cobra.Command{
	Use:   "auth [command]",
	Short: "Manage session tokens for the remote store",
	Long: `The remote store keeps every user's records apart. Each command runs
as the user named by BIRTHDAYS_TOKEN, a token signed with
BIRTHDAYS_AUTH_SECRET.

Examples:
  export BIRTHDAYS_TOKEN=$(birthdays auth token alice -f plain)`,
	Annotations: map[string]string{skipRuntime: "true"},
}

// authTokenCmd issues a token.
var authTokenCmd = &cobra.Command{
	Use:   "token USER_ID",
	Short: "Issue a session token for a user",
	Args:  cobra.ExactArgs(1),
	RunE:  runAuthToken,
}

func init() {
	authCmd.AddCommand(authTokenCmd)
	rootCmd.AddCommand(authCmd)
}

func runAuthToken(cmd *cobra.Command, args []string) error {
	f, err := newFormatter(cmd)
	if err != nil {
		return err
	}

	cfg := config.Global.Auth
	token, err := auth.NewJWTManager(cfg.Secret, cfg.TTL).Generate(args[0])
	if err != nil {
		if errors.Is(err, auth.ErrMissingSecret) {
			return apperrors.NewValidationError("secret", err, "Set BIRTHDAYS_AUTH_SECRET to sign tokens")
		}
		return err
	}

	switch f.Format {
	case output.FormatJSON:
		return f.JSON(map[string]any{
			"user_id":    args[0],
			"token":      token,
			"expires_at": time.Now().Add(cfg.TTL).UTC(),
		})
	case output.FormatPlain:
		f.Println(token)
	default:
		cli := output.NewCLIFormatter(f)
		cli.Success("Issued token for " + args[0])
		cli.Println(token)
		cli.Muted("Export it as BIRTHDAYS_TOKEN to use the remote store.")
	}
	return nil
}
