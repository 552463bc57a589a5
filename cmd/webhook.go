package cmd

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/notify"
)

// Webhook command flags.
var (
	webhookAddFlagType     string
	webhookAddFlagTemplate string
	webhookRemoveFlagForce bool
	webhookTestFlagAll     bool
)

// webhookCmd represents the webhook command.
var webhookCmd = &cobra.Command{
	Use:     "webhook [command]",
	Aliases: []string{"w", "wh", "hook"},
	Short:   "Configure alert webhooks",
	Long: `Configure webhooks for Discord, Slack, or custom endpoints.

When the daemon fires a birthday alert it is posted to every enabled
webhook. Webhooks are stored on this device only.

Examples:
  birthdays webhook add discord https://discord.com/api/webhooks/...
  birthdays webhook add slack https://hooks.slack.com/services/...
  birthdays webhook list
  birthdays webhook test discord
  birthdays webhook disable slack
  birthdays webhook remove discord`,
	RunE: runWebhookList,
}

// webhookAddCmd adds a new webhook.
var webhookAddCmd = &cobra.Command{
	Use:   "add NAME URL",
	Short: "Add a new webhook",
	Long: `Add a webhook for receiving birthday alerts.

The webhook type is auto-detected from the URL:
  - Discord: discord.com/api/webhooks/...
  - Slack:   hooks.slack.com/services/...
  - Generic: Any other URL

Examples:
  birthdays webhook add discord https://discord.com/api/webhooks/123/abc
  birthdays webhook add my-webhook https://example.com/hook --type generic`,
	Args: cobra.ExactArgs(2),
	RunE: runWebhookAdd,
}

// webhookListCmd lists all webhooks.
var webhookListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all webhooks",
	RunE:  runWebhookList,
}

// webhookTestCmd tests a webhook.
var webhookTestCmd = &cobra.Command{
	Use:   "test [NAME]",
	Short: "Test a webhook by sending a test alert",
	Long: `Send a test alert to verify webhook configuration.

Examples:
  birthdays webhook test discord
  birthdays webhook test --all`,
	Args: cobra.MaximumNArgs(1),
	RunE: runWebhookTest,
}

// webhookRemoveCmd removes a webhook.
var webhookRemoveCmd = &cobra.Command{
	Use:     "remove NAME",
	Aliases: []string{"rm", "delete"},
	Short:   "Remove a webhook",
	Args:    cobra.ExactArgs(1),
	RunE:    runWebhookRemove,
}

// webhookEnableCmd enables a webhook.
var webhookEnableCmd = &cobra.Command{
	Use:   "enable NAME",
	Short: "Enable a webhook",
	Args:  cobra.ExactArgs(1),
	RunE:  runWebhookEnable,
}

// webhookDisableCmd disables a webhook.
var webhookDisableCmd = &cobra.Command{
	Use:   "disable NAME",
	Short: "Disable a webhook",
	Args:  cobra.ExactArgs(1),
	RunE:  runWebhookDisable,
}

func init() {
	webhookAddCmd.Flags().StringVarP(&webhookAddFlagType, "type", "t", "",
		"Webhook type: "+strings.Join(model.ValidWebhookTypes(), ", ")+" (auto-detected from URL if not specified)")
	webhookAddCmd.Flags().StringVar(&webhookAddFlagTemplate, "template", "",
		"Custom payload template (generic webhooks only)")

	webhookRemoveCmd.Flags().BoolVar(&webhookRemoveFlagForce, "force", false,
		"Skip confirmation")

	webhookTestCmd.Flags().BoolVarP(&webhookTestFlagAll, "all", "a", false,
		"Test all enabled webhooks")

	// Dynamic completion for webhook names
	webhookTestCmd.ValidArgsFunction = completeWebhookArgs
	webhookRemoveCmd.ValidArgsFunction = completeWebhookArgs
	webhookEnableCmd.ValidArgsFunction = completeWebhookArgs
	webhookDisableCmd.ValidArgsFunction = completeWebhookArgs

	webhookCmd.AddCommand(webhookAddCmd)
	webhookCmd.AddCommand(webhookListCmd)
	webhookCmd.AddCommand(webhookTestCmd)
	webhookCmd.AddCommand(webhookRemoveCmd)
	webhookCmd.AddCommand(webhookEnableCmd)
	webhookCmd.AddCommand(webhookDisableCmd)

	rootCmd.AddCommand(webhookCmd)
}

func runWebhookAdd(cmd *cobra.Command, args []string) error {
	name := args[0]
	webhookURL := args[1]
	c := ctx.Context()

	if !model.IsValidWebhookName(name) {
		return apperrors.NewValidationErrorWithValue("name", name, apperrors.ErrInvalidWebhookName,
			"Use letters, digits, dash and underscore, at most 50 characters")
	}
	if u, err := url.Parse(webhookURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return apperrors.NewValidationErrorWithValue("url", webhookURL, apperrors.ErrInvalidURL,
			"Use an http:// or https:// URL")
	}

	exists, err := ctx.Webhooks.Exists(c, name)
	if err != nil {
		return err
	}
	if exists {
		return apperrors.NewValidationErrorWithValue("name", name, apperrors.ErrWebhookExists,
			fmt.Sprintf("Remove it first with 'birthdays webhook remove %s'", name))
	}

	webhookType := webhookAddFlagType
	if webhookType == "" {
		webhookType = model.DetectWebhookType(webhookURL)
	}
	if !model.IsValidWebhookType(webhookType) {
		return apperrors.NewValidationErrorWithValue("type", webhookType, apperrors.ErrInvalidWebhookType,
			"Use one of: "+strings.Join(model.ValidWebhookTypes(), ", "))
	}

	webhook := model.NewWebhook(name, webhookType, webhookURL)
	if webhookAddFlagTemplate != "" {
		webhook.Template = webhookAddFlagTemplate
	}
	if err := ctx.Webhooks.Create(c, webhook); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().JSON(map[string]any{
			"name":       webhook.Name,
			"type":       webhook.Type,
			"url":        webhook.MaskedURL(),
			"enabled":    webhook.Enabled,
			"created_at": webhook.CreatedAt,
		})
	}

	cli := ctx.CLIFormatter()
	cli.Success("Added webhook: " + name)
	cli.Printf("  Type:   %s\n", webhook.Type)
	cli.Printf("  URL:    %s\n", webhook.MaskedURL())
	cli.Printf("  Status: enabled\n")
	cli.Println("")
	cli.Muted(fmt.Sprintf("Test with: birthdays webhook test %s", name))
	return nil
}

func runWebhookList(cmd *cobra.Command, args []string) error {
	webhooks, err := ctx.Webhooks.List(ctx.Context())
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintWebhooks(webhooks)
	}
	ctx.CLIFormatter().PrintWebhooks(webhooks)
	return nil
}

func runWebhookTest(cmd *cobra.Command, args []string) error {
	c, cancel := context.WithTimeout(ctx.WithContext(cmd.Context()), 30*time.Second)
	defer cancel()
	dispatcher := ctx.Dispatcher()

	var names []string
	switch {
	case webhookTestFlagAll:
		webhooks, err := ctx.Webhooks.ListEnabled(c)
		if err != nil {
			return err
		}
		if len(webhooks) == 0 {
			return apperrors.NewValidationError("webhook", apperrors.ErrNoWebhooks,
				"Add one with 'birthdays webhook add <name> <url>'")
		}
		for _, wh := range webhooks {
			names = append(names, wh.Name)
		}
	case len(args) == 1:
		names = args
	default:
		return apperrors.NewValidationError("webhook", apperrors.ErrWebhookNameRequired,
			"Name a webhook or pass --all")
	}

	results := make([]notify.DispatchResult, 0, len(names))
	for _, name := range names {
		if !ctx.IsJSON() {
			ctx.CLIFormatter().Muted(fmt.Sprintf("Sending test alert to %s...", name))
		}
		results = append(results, dispatcher.Test(c, name))
	}

	if ctx.IsJSON() {
		out := make([]map[string]any, len(results))
		for i, r := range results {
			out[i] = map[string]any{
				"webhook":     r.WebhookName,
				"success":     r.Success,
				"status_code": r.StatusCode,
				"attempts":    r.Attempts,
				"duration_ms": r.Duration.Milliseconds(),
				"error":       errorString(r.Error),
			}
		}
		return ctx.JSONFormatter().JSON(map[string]any{"results": out})
	}

	cli := ctx.CLIFormatter()
	var failed error
	for _, r := range results {
		if r.Success {
			cli.Success(fmt.Sprintf("%s: delivered in %dms", r.WebhookName, r.Duration.Milliseconds()))
			continue
		}
		cli.Error(fmt.Sprintf("%s: %s", r.WebhookName, errorString(r.Error)))
		if failed == nil {
			failed = r.Error
		}
	}
	return failed
}

func runWebhookRemove(cmd *cobra.Command, args []string) error {
	name := args[0]
	c := ctx.Context()

	if _, err := ctx.Webhooks.Get(c, name); err != nil {
		return err
	}
	if err := confirm(cmd, webhookRemoveFlagForce, fmt.Sprintf("Remove webhook %q?", name)); err != nil {
		return err
	}
	if err := ctx.Webhooks.Delete(c, name); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus("removed", map[string]any{"webhook": name})
	}
	ctx.CLIFormatter().PrintDeleted("webhook", name)
	return nil
}

func runWebhookEnable(cmd *cobra.Command, args []string) error {
	return setWebhookEnabled(args[0], true)
}

func runWebhookDisable(cmd *cobra.Command, args []string) error {
	return setWebhookEnabled(args[0], false)
}

func setWebhookEnabled(name string, enabled bool) error {
	c := ctx.Context()
	status := "enabled"
	var err error
	if enabled {
		err = ctx.Webhooks.Enable(c, name)
	} else {
		status = "disabled"
		err = ctx.Webhooks.Disable(c, name)
	}
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus(status, map[string]any{"webhook": name})
	}
	ctx.CLIFormatter().Success(fmt.Sprintf("Webhook %s %s", name, status))
	return nil
}

// errorString returns the error message or an empty string.
func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
