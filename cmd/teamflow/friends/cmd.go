// Package friendscmd implements the `teamflow friends` command.
package friendscmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
)

// Command implements `teamflow friends`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the friends command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "friends",
		Short: "List your friends with presence",
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	svc, err := c.ctx.Connect(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	friends, err := svc.Friends(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(friends) == 0 {
		fmt.Fprintln(out, "No friends yet. Send someone a message to connect.")
		return nil
	}

	for _, f := range friends {
		presence, err := svc.Presence(cmd.Context(), f.ID)
		if err != nil {
			presence = "unknown"
		}
		fmt.Fprintf(out, "  %s (id: %s) | %s\n", f.Name, f.ID, presence)
	}
	return nil
}
