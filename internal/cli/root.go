// Package cli is the priotodo command tree: the API server and the clients
// that talk to it.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/priotodo/internal/config"
	"github.com/Makepad-fr/priotodo/internal/ui"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	ConfigPath string
	ServerURL  string
	Format     string // "text" | "json" | "yaml"
	Verbose    bool

	// Config is loaded before any subcommand runs.
	Config *config.Config
}

// Theme returns the configured output theme.
func (o *RootOptions) Theme() ui.Theme {
	if o.Config == nil {
		return ui.NewTheme(config.DefaultTheme)
	}
	return ui.NewTheme(o.Config.UI.Theme)
}

// NewRootCommand creates the root command.
func NewRootCommand() *cobra.Command {
	return newRootCommand(&RootOptions{})
}

func newRootCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "priotodo",
		Short: "priotodo - prioritised todo list",
		Long: `A small todo list where every item has a positive integer priority.

Run "priotodo serve" to start the HTTP API, then use ls, add, rm, missing
or the interactive tui against it.`,
		Args:          usageArgs(cobra.NoArgs),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			cfg, err := config.Load(opts.ConfigPath)
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to load config", err)
			}
			if opts.ServerURL != "" {
				cfg.Client.URL = opts.ServerURL
			}
			if opts.Verbose {
				cfg.Log.Level = "debug"
			}
			opts.Config = cfg
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return NewExitError(ExitCommandError, "no command given")
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return WrapExitError(ExitCommandError, "invalid flags", err)
	})

	// Global flags
	cmd.PersistentFlags().StringVar(&opts.ConfigPath, "config", "", "config file (TOML)")
	cmd.PersistentFlags().StringVar(&opts.ServerURL, "server", "", "server URL (overrides client.url)")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", FormatText, "output format (text|json|yaml)")
	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")

	cmd.AddCommand(NewServeCommand(opts))
	cmd.AddCommand(NewListCommand(opts))
	cmd.AddCommand(NewAddCommand(opts))
	cmd.AddCommand(NewRemoveCommand(opts))
	cmd.AddCommand(NewMissingCommand(opts))
	cmd.AddCommand(NewTUICommand(opts))

	return cmd
}

// Execute runs the command tree with args and returns the process exit code.
// Errors are printed to stderr.
func Execute(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	opts := &RootOptions{}
	cmd := newRootCommand(opts)
	cmd.SetArgs(args)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		fmt.Fprintln(stderr, opts.Theme().Fail(err.Error()))
	}
	return GetExitCode(err)
}

// usageArgs turns argument validation failures into usage errors.
func usageArgs(validate cobra.PositionalArgs) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := validate(cmd, args); err != nil {
			return WrapExitError(ExitCommandError, "usage: "+cmd.UseLine(), err)
		}
		return nil
	}
}
