package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/logging"
	"github.com/manav03panchal/birthdays/internal/model"
	"github.com/manav03panchal/birthdays/internal/parser"
	"github.com/manav03panchal/birthdays/internal/storage"
)

// Birthday command flags.
var (
	addFlagGroup    string
	addFlagComment  string
	listFlagGroup   string
	deleteFlagForce bool
)

// addCmd adds a birthday.
var addCmd = &cobra.Command{
	Use:   "add NAME DATE",
	Short: "Add a birthday to a group",
	Long: `Add a birthday to a group.

DATE is the date of birth, for example 1990-03-15, "15 March 1990" or
"March 15, 1990".

Examples:
  birthdays add "Ada Lovelace" 1815-12-10 --group <group-id>
  birthdays add Grandma "2 May 1941" -g <group-id> --comment "Call, don't text"`,
	Args: cobra.ExactArgs(2),
	RunE: runAdd,
}

// listCmd lists birthdays.
var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List birthdays",
	Long: `List every birthday, or only those of one group.

Examples:
  birthdays list
  birthdays list --group <group-id>`,
	RunE: runList,
}

// deleteCmd deletes a birthday.
var deleteCmd = &cobra.Command{
	Use:               "delete ID",
	Aliases:           []string{"rm", "remove"},
	Short:             "Delete a birthday",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completeBirthdayArgs,
	RunE:              runDelete,
}

func init() {
	addCmd.Flags().StringVarP(&addFlagGroup, "group", "g", "", "Group id (required)")
	addCmd.Flags().StringVarP(&addFlagComment, "comment", "c", "", "Free-text note")
	_ = addCmd.MarkFlagRequired("group")
	_ = addCmd.RegisterFlagCompletionFunc("group", completeGroups)

	listCmd.Flags().StringVarP(&listFlagGroup, "group", "g", "", "Only list this group")
	_ = listCmd.RegisterFlagCompletionFunc("group", completeGroups)

	deleteCmd.Flags().BoolVar(&deleteFlagForce, "force", false, "Skip confirmation")

	rootCmd.AddCommand(addCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(deleteCmd)
}

func runAdd(cmd *cobra.Command, args []string) error {
	date, err := parser.ParseDate(args[1], now())
	if err != nil {
		var derr *parser.DateParseError
		if errors.As(err, &derr) {
			return derr.ToValidationError()
		}
		return err
	}

	c := ctx.Context()
	b, err := ctx.Store.CreateBirthday(c, args[0], date, addFlagComment, addFlagGroup)
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintBirthday(b)
	}

	g, err := birthdayGroup(c, ctx.Store, b)
	if err != nil {
		return err
	}
	ctx.CLIFormatter().PrintBirthdayCreated(b, g)
	return nil
}

// birthdayGroup looks up the group of b for display. A group deleted in the
// meantime yields nil so the birthday prints without it.
func birthdayGroup(c context.Context, store storage.Store, b *model.Birthday) (*model.Group, error) {
	g, err := store.GetGroup(c, b.GroupID)
	if apperrors.IsNotFoundError(err) {
		logging.DebugContext(c, "group of new birthday is gone", "group", b.GroupID, logging.KeyError, err)
		return nil, nil
	}
	return g, err
}

func runList(cmd *cobra.Command, args []string) error {
	c := ctx.Context()

	var birthdays []*model.Birthday
	var err error
	if listFlagGroup != "" {
		if _, err := ctx.Store.GetGroup(c, listFlagGroup); err != nil {
			return err
		}
		birthdays, err = ctx.Store.ListBirthdays(c, listFlagGroup)
	} else {
		birthdays, err = ctx.Store.ListAllBirthdays(c)
	}
	if err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintBirthdays(birthdays)
	}

	var groups map[string]*model.Group
	if listFlagGroup == "" {
		all, err := ctx.Store.ListGroups(c)
		if err != nil {
			return err
		}
		groups = make(map[string]*model.Group, len(all))
		for _, g := range all {
			groups[g.ID] = g
		}
	}
	ctx.CLIFormatter().PrintBirthdays(birthdays, groups)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	c := ctx.Context()
	b, err := ctx.Store.GetBirthday(c, args[0])
	if err != nil {
		return err
	}

	if err := confirm(cmd, deleteFlagForce, fmt.Sprintf("Delete the birthday of %q?", b.Name)); err != nil {
		return err
	}
	if err := ctx.Store.DeleteBirthday(c, b.ID); err != nil {
		return err
	}

	if ctx.IsJSON() {
		return ctx.JSONFormatter().PrintStatus("deleted", map[string]any{"birthday": b.ID})
	}
	ctx.CLIFormatter().PrintDeleted("birthday of", b.Name)
	return nil
}
