// Package subtaskcmd implements the `teamflow subtask` command.
package subtaskcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
)

// Command implements `teamflow subtask`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	add    string
	toggle int
}

// New creates the subtask command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "subtask <task-id>",
		Short: "Add or toggle a subtask; progress is recomputed",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.add, "add", "", "Append an unchecked subtask with this name")
	f.IntVar(&c.toggle, "toggle", -1, "Flip the checked state of the subtask at this index")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, args []string) error {
	if c.add == "" && c.toggle < 0 {
		return fmt.Errorf("pass --add <name> or --toggle <index>")
	}
	if c.add != "" && c.toggle >= 0 {
		return fmt.Errorf("use either --add or --toggle, not both")
	}

	svc, err := c.ctx.Connect(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	taskID := args[0]
	out := cmd.OutOrStdout()

	if c.add != "" {
		t, err := svc.AddSubtask(cmd.Context(), taskID, c.add)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Added %q to %s (progress: %.0f%%)\n", c.add, t.Title, t.Progress)
		return nil
	}

	t, err := svc.ToggleSubtask(cmd.Context(), taskID, c.toggle)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Toggled subtask %d on %s (progress: %.0f%%)\n", c.toggle, t.Title, t.Progress)
	return nil
}
