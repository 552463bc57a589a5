package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/manav03panchal/birthdays/internal/runtime"
)

// confirm asks a yes/no question on the terminal. With force it succeeds
// without asking. Without a terminal it fails with ErrConfirmationRequired,
// and a declined prompt fails with ErrAborted.
func confirm(cmd *cobra.Command, force bool, question string) error {
	if force {
		return nil
	}

	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !term.IsTerminal(int(in.Fd())) {
		return runtime.ErrConfirmationRequired
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "%s [y/N] ", question)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return runtime.ErrAborted
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return nil
	default:
		return runtime.ErrAborted
	}
}
