// Package groupscmd implements the `teamflow groups` command.
package groupscmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
)

// Command implements `teamflow groups`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the groups command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "groups",
		Short: "List the group chats you belong to",
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

	groups, err := svc.Groups(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(groups) == 0 {
		fmt.Fprintln(out, "No groups yet. Create one with `teamflow addgroup`.")
		return nil
	}

	for _, g := range groups {
		fmt.Fprintf(out, "  %s (id: %s, %d members)\n", g.Name, g.ID, len(g.Members))
	}
	return nil
}
