package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/birthdays/internal/runtime"
)

// withCompletionContext runs fn with a runtime context, opening one when
// completion runs before PersistentPreRunE.
func withCompletionContext(fn func(*runtime.Context) []string) ([]string, cobra.ShellCompDirective) {
	c := ctx
	if c == nil {
		var err error
		c, err = runtime.New(runtime.DefaultOptions())
		if err != nil {
			return nil, cobra.ShellCompDirectiveError
		}
		defer c.Close()
	}
	return fn(c), cobra.ShellCompDirectiveNoFileComp
}

// completeGroups returns a completion function for group ids.
func completeGroups(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	return withCompletionContext(func(c *runtime.Context) []string {
		groups, err := c.Store.ListGroups(c.Context())
		if err != nil {
			return nil
		}
		var completions []string
		for _, g := range groups {
			if strings.HasPrefix(g.ID, toComplete) {
				completions = append(completions, g.ID+"\t"+g.Name)
			}
		}
		return completions
	})
}

// completeGroupArgs completes the first argument with group ids.
func completeGroupArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return completeGroups(cmd, args, toComplete)
}

// completeBirthdayArgs completes the first argument with birthday ids.
func completeBirthdayArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return withCompletionContext(func(c *runtime.Context) []string {
		birthdays, err := c.Store.ListAllBirthdays(c.Context())
		if err != nil {
			return nil
		}
		var completions []string
		for _, b := range birthdays {
			if strings.HasPrefix(b.ID, toComplete) {
				completions = append(completions, b.ID+"\t"+b.Name)
			}
		}
		return completions
	})
}

// completeWebhookArgs completes the first argument with webhook names.
func completeWebhookArgs(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
	if len(args) > 0 {
		return nil, cobra.ShellCompDirectiveNoFileComp
	}
	return withCompletionContext(func(c *runtime.Context) []string {
		webhooks, err := c.Webhooks.List(c.Context())
		if err != nil {
			return nil
		}
		var names []string
		for _, wh := range webhooks {
			if strings.HasPrefix(wh.Name, toComplete) {
				names = append(names, wh.Name)
			}
		}
		return names
	})
}
