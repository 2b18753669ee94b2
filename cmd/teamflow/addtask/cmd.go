// Package addtaskcmd implements the `teamflow addtask` command.
package addtaskcmd

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
	"github.com/go-ports/teamflow/internal/mutate"
)

// Command implements `teamflow addtask`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	title       string
	description string
	due         string
	team        string
	retry       string
}

// New creates the addtask command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "addtask",
		Short: "Create a task and notify its team",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.title, "title", "", "Task title (required)")
	f.StringVar(&c.description, "description", "", "Longer description")
	f.StringVar(&c.due, "due", "", "Due date, YYYY-MM-DD")
	f.StringVar(&c.team, "team", "", "Comma-separated user ids to assign")
	f.StringVar(&c.retry, "retry", "", "Re-run a partially failed creation for this task id")

	_ = c.cmd.MarkFlagRequired("title")

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

	in := mutate.TaskInput{
		Title:       c.title,
		Description: c.description,
		Team:        svc.ResolveMembers(cmd.Context(), splitCSV(c.team)),
	}
	if c.due != "" {
		t, err := time.Parse("2006-01-02", c.due)
		if err != nil {
			return fmt.Errorf("invalid --due %q: expected YYYY-MM-DD", c.due)
		}
		in.DueDate = t
	}

	out := cmd.OutOrStdout()

	if c.retry != "" {
		if err := svc.RetryCreateTask(cmd.Context(), c.retry, in); err != nil {
			return err
		}
		fmt.Fprintf(out, "Retried: %s (id: %s)\n", c.title, c.retry)
		return nil
	}

	id, err := svc.CreateTask(cmd.Context(), in)
	if err != nil {
		var partial *mutate.PartialError
		if errors.As(err, &partial) {
			fmt.Fprintf(out, "Task %s was only partially created (failed at %s).\n", partial.ID, partial.Step)
			fmt.Fprintf(out, "Re-run with --retry %s to finish the fan-out.\n", partial.ID)
		}
		return err
	}

	fmt.Fprintf(out, "Created: %s (id: %s)\n", c.title, id)
	return nil
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
