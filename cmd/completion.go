// Package cmd provides the CLI commands for Birthdays.
//
// This software is a derivative work based on Zeit (https://github.com/mrusme/zeit)
// Original work copyright (c) マリウス (mrusme)
// Modifications copyright (c) Manav Panchal
//
// Licensed under the SEGV License, Version 1.0
// See LICENSE file for full license text.
package cmd

import (
	"github.com/spf13/cobra"
)

// completionCmd represents the completion command.
var completionCmd = &cobra.Command{
	Use:   "completion [bash|zsh|fish|powershell]",
	Short: "Generate shell completion scripts",
	Long: `Generate a completion script for your shell.

Besides commands and flags, the scripts complete group ids for --group and
'group show|delete', birthday ids for 'delete', and webhook names for the
webhook commands, read from your store as you type.

Bash:
  $ source <(birthdays completion bash)
  $ birthdays completion bash > ~/.local/share/bash-completion/completions/birthdays

Zsh:
  $ birthdays completion zsh > "${fpath[1]}/_birthdays"
  # compinit must be enabled; start a new shell afterwards.

Fish:
  $ birthdays completion fish > ~/.config/fish/completions/birthdays.fish

PowerShell:
  PS> birthdays completion powershell | Out-String | Invoke-Expression
`,
	DisableFlagsInUseLine: true,
	ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
	Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
	RunE: func(cmd *cobra.Command, args []string) error {
		w := cmd.OutOrStdout()
		switch args[0] {
		case "bash":
			return rootCmd.GenBashCompletionV2(w, true)
		case "zsh":
			return rootCmd.GenZshCompletion(w)
		case "fish":
			return rootCmd.GenFishCompletion(w, true)
		case "powershell":
			return rootCmd.GenPowerShellCompletionWithDesc(w)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(completionCmd)
}
