// Package taskcmd implements the `teamflow task` command.
package taskcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
)

// Command implements `teamflow task`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the task command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "task <id>",
		Short: "Show one task with its subtask checklist",
		Args:  cobra.ExactArgs(1),
		RunE:  c.run,
	}
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

	t, found, err := svc.Task(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if !found {
		return fmt.Errorf("task %q not found", args[0])
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "\n%s (%.0f%%)\n", t.Title, t.Progress)
	if t.Description != "" {
		fmt.Fprintf(out, "%s\n", t.Description)
	}
	if !t.DueDate.IsZero() {
		fmt.Fprintf(out, "Due: %s\n", t.DueDate.Format("2006-01-02"))
	}

	if len(t.Team) > 0 {
		fmt.Fprintln(out, "\nTeam:")
		for _, m := range t.Team {
			fmt.Fprintf(out, "  %s (id: %s)\n", m.Name, m.ID)
		}
	}

	if len(t.Subtasks) == 0 {
		fmt.Fprintln(out, "\nNo subtasks.")
		return nil
	}
	fmt.Fprintln(out, "\nSubtasks:")
	for i, st := range t.Subtasks {
		mark := " "
		if st.Checked {
			mark = "x"
		}
		fmt.Fprintf(out, "  [%s] %d. %s\n", mark, i, st.Name)
	}
	return nil
}
