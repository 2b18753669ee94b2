// Package schedulecmd implements the `teamflow schedule` command.
package schedulecmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
)

// Command implements `teamflow schedule`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	date string
}

// New creates the schedule command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "schedule",
		Short: "List tasks due on a calendar day",
		RunE:  c.run,
	}

	c.cmd.Flags().StringVar(&c.date, "date", "", "Day to show, YYYY-MM-DD (default: today)")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	day := time.Now()
	if c.date != "" {
		parsed, err := time.Parse("2006-01-02", c.date)
		if err != nil {
			return fmt.Errorf("invalid --date %q: expected YYYY-MM-DD", c.date)
		}
		day = parsed
	}

	svc, err := c.ctx.Connect(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	tasks, err := svc.Schedule(cmd.Context(), day)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(tasks) == 0 {
		fmt.Fprintf(out, "Nothing due on %s.\n", day.Format("2006-01-02"))
		return nil
	}

	fmt.Fprintf(out, "\nDue %s (%d)\n", day.Format("2006-01-02"), len(tasks))
	for _, t := range tasks {
		fmt.Fprintf(out, "  [%3.0f%%] %s (id: %s)\n", t.Progress, t.Title, t.ID)
	}
	return nil
}
