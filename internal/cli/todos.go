package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Makepad-fr/priotodo/internal/client"
	"github.com/Makepad-fr/priotodo/internal/tui"
	"github.com/Makepad-fr/priotodo/internal/ui"
)

// NewListCommand creates the ls command.
func NewListCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "ls",
		Aliases: []string{"list"},
		Short:   "List todos by priority",
		Args:    usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			items, err := c.List(cmd.Context())
			if err != nil {
				return clientError(tui.MsgFetchFailed, err)
			}
			return output(cmd, opts).Print(items, func(t ui.Theme) string {
				return t.List(items)
			})
		},
	}
}

// NewAddCommand creates the add command.
func NewAddCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "add <priority> <text...>",
		Short: "Add a todo",
		Long: `Add a todo. The text may span several arguments.

Example:
  priotodo add 1 write report
  priotodo add 2 "buy milk"`,
		Args: usageArgs(cobra.MinimumNArgs(2)),
		RunE: func(cmd *cobra.Command, args []string) error {
			priority, err := strconv.Atoi(args[0])
			text := strings.TrimSpace(strings.Join(args[1:], " "))
			if err != nil || priority <= 0 || text == "" {
				return NewExitError(ExitCommandError, tui.MsgInvalidForm)
			}

			c, err := newClient(opts)
			if err != nil {
				return err
			}
			item, err := c.Add(cmd.Context(), text, priority)
			if err != nil {
				return clientError(tui.MsgAddFailed, err)
			}
			return output(cmd, opts).Print(item, func(t ui.Theme) string {
				return t.OK("added " + t.ItemLine(item))
			})
		},
	}
}

// NewRemoveCommand creates the rm command.
func NewRemoveCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a todo by id",
		Args:    usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.Atoi(args[0])
			if err != nil {
				return NewExitError(ExitCommandError, "Invalid ID")
			}

			c, err := newClient(opts)
			if err != nil {
				return err
			}
			if err := c.Delete(cmd.Context(), id); err != nil {
				return clientError(tui.MsgDeleteFailed, err)
			}
			const msg = "Todo deleted successfully"
			return output(cmd, opts).Print(map[string]string{"message": msg}, func(t ui.Theme) string {
				return t.OK(fmt.Sprintf("%s (#%d)", msg, id))
			})
		},
	}
}

// NewMissingCommand creates the missing command.
func NewMissingCommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "missing",
		Short: "Show unused priorities between 1 and the highest in use",
		Args:  usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			missing, err := c.MissingPriorities(cmd.Context())
			if err != nil {
				return clientError(tui.MsgMissingFailed, err)
			}
			return output(cmd, opts).Print(missing, func(t ui.Theme) string {
				return t.MissingLine(missing)
			})
		},
	}
}

// NewTUICommand creates the tui command.
func NewTUICommand(opts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Interactive todo list",
		Long: `Open the interactive client.

Keys: a add, tab switch field, enter submit, esc cancel, d delete,
m missing priorities, r refresh, / filter, q quit.`,
		Args: usageArgs(cobra.NoArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := newClient(opts)
			if err != nil {
				return err
			}
			if err := tui.Run(cmd.Context(), c, opts.Theme(), opts.Config.Client.Timeout.Duration); err != nil {
				return WrapExitError(ExitFailure, "tui failed", err)
			}
			return nil
		},
	}
}

func newClient(opts *RootOptions) (*client.Client, error) {
	c, err := client.New(opts.Config.Client.URL, opts.Config.Client.Timeout.Duration)
	if err != nil {
		return nil, WrapExitError(ExitCommandError, "invalid server url", err)
	}
	return c, nil
}

func output(cmd *cobra.Command, opts *RootOptions) *OutputFormatter {
	return &OutputFormatter{
		Format: opts.Format,
		Writer: cmd.OutOrStdout(),
		Theme:  opts.Theme(),
	}
}

// clientError maps a client failure to an exit code. The server's own
// message is kept; transport failures get fallback.
func clientError(fallback string, err error) error {
	var ae *client.APIError
	if errors.As(err, &ae) {
		code := ExitFailure
		if ae.Status == http.StatusBadRequest {
			code = ExitCommandError
		}
		msg := ae.Message
		if msg == "" {
			msg = fallback
		}
		return NewExitError(code, msg)
	}
	return WrapExitError(ExitFailure, fallback, err)
}
