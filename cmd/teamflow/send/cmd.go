// Package sendcmd implements the `teamflow send` command.
package sendcmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
	"github.com/go-ports/teamflow/internal/mutate"
)

// Command implements `teamflow send`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	group bool
}

// New creates the send command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "send <friend-id> <message...>",
		Short: "Send a chat message",
		Args:  cobra.MinimumNArgs(2),
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

	id := args[0]
	text := strings.Join(args[1:], " ")
	out := cmd.OutOrStdout()

	var msgID string
	if c.group {
		msgID, err = svc.SendGroupMessage(cmd.Context(), id, text)
	} else {
		msgID, err = svc.SendMessage(cmd.Context(), id, text)
	}
	if err != nil {
		var partial *mutate.PartialError
		if errors.As(err, &partial) {
			fmt.Fprintf(out, "Message %s was stored but the friend link failed; it will heal on the next send.\n", partial.ID)
		}
		return err
	}

	fmt.Fprintf(out, "Sent (id: %s)\n", msgID)
	return nil
}
