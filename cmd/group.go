package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/birthdays/internal/calendar"
	"github.com/manav03panchal/birthdays/internal/model"
)

// Group command flags.
var (
	groupAddFlagIcon     string
	groupAddFlagColor    string
	groupDeleteFlagForce bool
)

// groupCmd represents the group command.
var groupCmd = &cobra.Command{
	Use:     "group [command]",
	Aliases: []string{"g", "groups"},
	Short:   "Manage birthday groups",
	Long: `Groups sort birthdays, for example into Family, Friends and Work.
Every birthday belongs to exactly one group.

Examples:
  birthdays group add Family
  birthdays group add Work --icon gift --rgb #007AFF
  birthdays group list
  birthdays group show <group-id>
  birthdays group delete <group-id>`,
	RunE: runGroupList,
}

// groupAddCmd creates a group.
var groupAddCmd = &cobra.Command{
	Use:   "add NAME",
	Short: "Create a group",
	Args:  cobra.ExactArgs(1),
	RunE:  runGroupAdd,
}

// groupListCmd lists groups.
var groupListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List groups with their birthday counts",
	RunE:    runGroupList,
}

// groupShowCmd shows one group.
var groupShowCmd = &cobra.Command{
	Use:               "show ID",
	Short:             "Show a group and its birthdays",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeGroupArgs,
	RunE:              runGroupShow,
}

// groupDeleteCmd deletes a group.
var groupDeleteCmd = &cobra.Command{
	Use:               "delete ID",
	Aliases:           []string{"rm", "remove"},
	Short:             "Delete a group and all of its birthdays",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeGroupArgs,
	RunE:              runGroupDelete,
}

// groupIconsCmd lists the icons a group may use.
var groupIconsCmd = &cobra.Command{
	Use:   "icons",
	Short: "List the available group icons",
	RunE:  runGroupIcons,
}

func init() {
	groupAddCmd.Flags().StringVarP(&groupAddFlagIcon, "icon", "i", "",
		fmt.Sprintf("Group icon (default %s, see 'birthdays group icons')", model.DefaultIcon))
	groupAddCmd.Flags().StringVarP(&groupAddFlagColor, "rgb", "c", "",
		fmt.Sprintf("Group color as #RRGGBB (default %s)", model.DefaultColor))
	groupDeleteCmd.Flags().BoolVar(&groupDeleteFlagForce, "force", false,
		"Skip confirmation")

	groupCmd.AddCommand(groupAddCmd)
	groupCmd.AddCommand(groupListCmd)
	groupCmd.AddCommand(groupShowCmd)
	groupCmd.AddCommand(groupDeleteCmd)
	groupCmd.AddCommand(groupIconsCmd)

	rootCmd.AddCommand(groupCmd)
}

func runGroupAdd(cmd *cobra.Command, args []string) error {
	g, err := ctx.Store.CreateGroup(ctx.Context(), args[0], groupAddFlagIcon, groupAddFlagColor)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintGroup(g, nil)
	}
	ctx.CLIFormatter().PrintGroupCreated(g)
	return nil
}

func runGroupList(cmd *cobra.Command, args []string) error {
	c := ctx.Context()
	groups, err := ctx.Store.ListGroups(c)
	if err != nil {
		return err
	}
	birthdays, err := ctx.Store.ListAllBirthdays(c)
	if err != nil {
		return err
	}
	counts := calendar.CountByGroup(groups, birthdays)

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintGroups(counts)
	}
	ctx.CLIFormatter().PrintGroups(counts)
	return nil
}

func runGroupShow(cmd *cobra.Command, args []string) error {
	c := ctx.Context()
	g, err := ctx.Store.GetGroup(c, args[0])
	if err != nil {
		return err
	}
	birthdays, err := ctx.Store.ListBirthdays(c, g.ID)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintGroup(g, birthdays)
	}
	ctx.CLIFormatter().PrintGroup(g, birthdays)
	return nil
}

func runGroupDelete(cmd *cobra.Command, args []string) error {
	c := ctx.Context()
	g, err := ctx.Store.GetGroup(c, args[0])
	if err != nil {
		return err
	}
	birthdays, err := ctx.Store.ListBirthdays(c, g.ID)
	if err != nil {
		return err
	}

	question := fmt.Sprintf("Delete group %q?", g.Name)
	if n := len(birthdays); n > 0 {
		question = fmt.Sprintf("Delete group %q and its %d birthdays?", g.Name, n)
	}
	if err := confirm(cmd, groupDeleteFlagForce, question); err != nil {
		return err
	}

	if err := ctx.Store.DeleteGroup(c, g.ID); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus("deleted", map[string]any{
			"group":     g.ID,
			"birthdays": len(birthdays),
		})
	}
	ctx.CLIFormatter().PrintDeleted("group", g.Name)
	return nil
}

func runGroupIcons(cmd *cobra.Command, args []string) error {
	if ctx.IsJSON() {
		return ctx.JSONFormatter().JSON(map[string]any{
			"icons":   model.Icons,
			"default": model.DefaultIcon,
		})
	}
	ctx.CLIFormatter().PrintIcons(model.Icons, model.DefaultIcon)
	return nil
}
