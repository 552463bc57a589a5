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
	"errors"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/manav03panchal/birthdays/internal/config"
	apperrors "github.com/manav03panchal/birthdays/internal/errors"
	"github.com/manav03panchal/birthdays/internal/logging"
	"github.com/manav03panchal/birthdays/internal/output"
	"github.com/manav03panchal/birthdays/internal/runtime"
)

// Version information (set at build time via ldflags).
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
)

// Global flags.
var (
	flagFormat string
	flagColor  string
	flagDebug  bool
)

// ctx is the shared runtime context.
var ctx *runtime.Context

// skipRuntime marks commands that run without opening a store.
const skipRuntime = "skip-runtime"

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:   "birthdays",
	Short: "Keep track of birthdays and get reminded on the day",
	Long: `Birthdays keeps the birthdays of the people you care about, sorted
into groups, and reminds you on the day.

Examples:
  birthdays group add Family --icon heart --rgb #FF2D55
  birthdays add "Ada Lovelace" 1815-12-10 --group <group-id>
  birthdays upcoming
  birthdays calendar 2025-12
  birthdays daemon run`,
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		f, err := newFormatter(cmd)
		if err != nil {
			return err
		}
		initLogging()

		if !needsRuntime(cmd) {
			return nil
		}

		ctx, err = newRuntime(f)
		return err
	},
	PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
		if ctx != nil {
			err := ctx.Close()
			ctx = nil
			return err
		}
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		// Default behavior: show what is coming up
		return runUpcoming(cmd, args)
	},
}

// needsRuntime reports whether cmd, or any command above it, needs the store.
func needsRuntime(cmd *cobra.Command) bool {
	switch cmd.Name() {
	case "completion", "help":
		return false
	}
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations[skipRuntime] != "" {
			return false
		}
	}
	return true
}

// newFormatter builds a formatter from the global flags, writing to the
// command's output.
func newFormatter(cmd *cobra.Command) (*output.Formatter, error) {
	format, err := output.ParseFormat(flagFormat)
	if err != nil {
		return nil, err
	}
	colorMode, err := output.ParseColorMode(flagColor)
	if err != nil {
		return nil, err
	}
	f := output.NewFormatter()
	f.Writer = cmd.OutOrStdout()
	f.Format = format
	f.ColorMode = colorMode
	return f, nil
}

// newRuntime opens the runtime context with the output settings of f.
func newRuntime(f *output.Formatter) (*runtime.Context, error) {
	opts := runtime.DefaultOptions()
	opts.Format = f.Format
	opts.ColorMode = f.ColorMode
	opts.Debug = flagDebug

	c, err := runtime.New(opts)
	if err != nil {
		return nil, err
	}
	c.Formatter.Writer = f.Writer
	return c, nil
}

func initLogging() {
	if flagDebug {
		logging.InitDebug()
		return
	}
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(config.Global.Log.Level)
	cfg.JSON = config.Global.Log.JSON
	logging.Init(cfg)
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() error {
	err := rootCmd.Execute()
	if err != nil && ctx != nil {
		ctx.Close()
		ctx = nil
	}
	return err
}

func init() {
	// Global flags
	rootCmd.PersistentFlags().StringVarP(&flagFormat, "format", "f", "cli",
		"Output format: cli, json, plain")
	rootCmd.PersistentFlags().StringVar(&flagColor, "color", "auto",
		"Color output: auto, always, never")
	rootCmd.PersistentFlags().BoolVar(&flagDebug, "debug", false,
		"Enable debug output")

	rootCmd.AddCommand(versionCmd)
}

// versionCmd shows version information.
var versionCmd = &cobra.Command{
	Use:         "version",
	Short:       "Print version information",
	Annotations: map[string]string{skipRuntime: "true"},
	Run: func(cmd *cobra.Command, args []string) {
		cmd.Printf("birthdays %s\n", Version)
		cmd.Printf("  commit: %s\n", Commit)
		cmd.Printf("  built: %s\n", BuildTime)
		cmd.Println("")
		cmd.Println("Based on Zeit (https://github.com/mrusme/zeit)")
		cmd.Println("Licensed under SEGV License v1.0")
	},
}

// now returns the current time in the configured time zone.
func now() time.Time {
	loc, err := ctx.Config.Location()
	if err != nil {
		return time.Now()
	}
	return time.Now().In(loc)
}

// Die reports err in the selected output format and exits with the code
// for its kind.
func Die(err error) {
	code := runtime.ExitCode(err)
	logging.DebugLog("command failed",
		logging.KeyError, apperrors.RootCause(err), "chain", apperrors.Chain(err), "exit", code)
	if errors.Is(err, runtime.ErrAborted) {
		os.Stderr.WriteString("Cancelled.\n")
		os.Exit(code)
	}

	format, ferr := output.ParseFormat(flagFormat)
	if ferr != nil {
		format = output.FormatCLI
	}
	colorMode, cerr := output.ParseColorMode(flagColor)
	if cerr != nil {
		colorMode = output.ColorAuto
	}
	w := os.Stderr
	if format == output.FormatJSON {
		w = os.Stdout
	}
	runtime.ReportError(w, format, colorMode, err)
	os.Exit(code)
}
