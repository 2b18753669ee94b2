// Package chatscmd implements the `teamflow chats` command.
package chatscmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
)

// Command implements `teamflow chats`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the chats command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "chats",
		Short: "List conversations with unread counts, most recent first",
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

	convs, err := svc.Conversations(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(convs) == 0 {
		fmt.Fprintln(out, "No conversations yet.")
		return nil
	}

	for _, conv := range convs {
		unread := ""
		if conv.UnreadCount > 0 {
			unread = fmt.Sprintf(" (%d unread)", conv.UnreadCount)
		}
		last := conv.LastMessage
		if last == "" {
			last = "<no messages>"
		}
		fmt.Fprintf(out, "  %s (id: %s)%s\n      %s\n", conv.Name, conv.FriendID, unread, last)
	}
	return nil
}
