// Package summarycmd implements the `teamflow summary` command.
package summarycmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
)

// Command implements `teamflow summary`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	group bool
}

// New creates the summary command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "summary <friend-id>",
		Short: "Summarize a chat history with the configured summarizer",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}

	c.cmd.Flags().BoolVar(&c.group, "group", false, "Treat the argument as a group id")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	svc, err := c.ctx.Connect(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	var text string
	if c.group {
		text, err = svc.SummarizeGroupChat(cmd.Context(), args[0])
	} else {
		text, err = svc.SummarizeChat(cmd.Context(), args[0])
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), text)
	return nil
}
