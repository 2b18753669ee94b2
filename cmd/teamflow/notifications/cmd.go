// Package notificationscmd implements the `teamflow notifications` command.
package notificationscmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
)

// Command implements `teamflow notifications`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	limit int
}

// New creates the notifications command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "notifications",
		Short: "List your notifications, newest first",
		RunE:  c.run,
	}

	c.cmd.Flags().IntVar(&c.limit, "limit", 20, "Maximum number of notifications to show")

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

	notes, err := svc.Notifications(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(notes) == 0 {
		fmt.Fprintln(out, "No notifications.")
		return nil
	}

	if c.limit > 0 && len(notes) > c.limit {
		notes = notes[:c.limit]
	}
	for _, n := range notes {
		fmt.Fprintf(out, "  [%s] %s\n", n.Timestamp.Format("2006-01-02 15:04"), n.Text)
	}
	return nil
}
