// Package chatcmd implements the `teamflow chat` command.
package chatcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
	"github.com/go-ports/teamflow/internal/derive"
	"github.com/go-ports/teamflow/internal/models"
)

// Command implements `teamflow chat`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	group      bool
	search     string
	clear      bool
	keepUnread bool
}

// New creates the chat command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "chat <friend-id>",
		Short: "Show a chat history; opening it marks inbound messages seen",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.BoolVar(&c.group, "group", false, "Treat the argument as a group id")
	f.StringVar(&c.search, "search", "", "Case-insensitive substring match on message text")
	f.BoolVar(&c.clear, "clear", false, "Delete the full chat history instead of showing it")
	f.BoolVar(&c.keepUnread, "keep-unread", false, "Do not mark inbound messages as seen")

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

	id := args[0]
	out := cmd.OutOrStdout()

	if c.clear {
		var removed int
		if c.group {
			removed, err = svc.ClearGroupChat(cmd.Context(), id)
		} else {
			removed, err = svc.ClearChat(cmd.Context(), id)
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Cleared %d messages.\n", removed)
		return nil
	}

	var msgs []models.Message
	if c.group {
		msgs, err = svc.GroupMessages(cmd.Context(), id)
	} else {
		msgs, err = svc.Messages(cmd.Context(), id)
	}
	if err != nil {
		return err
	}

	if !c.group && !c.keepUnread {
		if _, err := svc.MarkSeen(cmd.Context(), id); err != nil {
			return err
		}
	}

	msgs = derive.FilterMessages(msgs, c.search)
	if len(msgs) == 0 {
		fmt.Fprintln(out, "No messages.")
		return nil
	}

	me := svc.Session().UserID
	for _, m := range msgs {
		who := m.SenderID
		if m.SenderID == me {
			who = "me"
		}
		fmt.Fprintf(out, "  [%s] %s: %s\n", m.Timestamp.Format("2006-01-02 15:04"), who, m.Text)
	}
	return nil
}
