// Package taskscmd implements the `teamflow tasks` command.
package taskscmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
	"github.com/go-ports/teamflow/internal/derive"
	"github.com/go-ports/teamflow/internal/models"
)

// Command implements `teamflow tasks`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	search    string
	tag       string
	ongoing   bool
	completed bool
}

// New creates the tasks command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "tasks",
		Short: "List your tasks, newest first",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.search, "search", "", "Case-insensitive substring match on titles")
	f.StringVar(&c.tag, "tag", "", "Filter tag: app, web, or latest (overrides --search)")
	f.BoolVar(&c.ongoing, "ongoing", false, "Show only ongoing tasks")
	f.BoolVar(&c.completed, "completed", false, "Show only completed tasks")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	if c.ongoing && c.completed {
		return fmt.Errorf("use either --ongoing or --completed, not both")
	}

	svc, err := c.ctx.Connect(cmd.Context())
	if err != nil {
		return err
	}
	defer svc.Close()

	tasks, err := svc.Tasks(cmd.Context())
	if err != nil {
		return err
	}

	query := c.search
	if c.tag != "" {
		// A filter tag replaces the free-text search, matching the board behaviour.
		query = c.tag
	}
	tasks = derive.FilterTasks(tasks, query)

	ongoing, completed := derive.PartitionTasks(tasks)
	out := cmd.OutOrStdout()

	if len(tasks) == 0 {
		fmt.Fprintln(out, "No tasks found.")
		return nil
	}

	if !c.completed {
		fmt.Fprintf(out, "\nOngoing (%d)\n", len(ongoing))
		for _, t := range ongoing {
			printTask(out, t)
		}
	}
	if !c.ongoing {
		fmt.Fprintf(out, "\nCompleted (%d)\n", len(completed))
		for _, t := range completed {
			printTask(out, t)
		}
	}
	return nil
}

func printTask(out io.Writer, t models.Task) {
	due := ""
	if !t.DueDate.IsZero() {
		due = " | due " + t.DueDate.Format("2006-01-02")
	}
	fmt.Fprintf(out, "  [%3.0f%%] %s (id: %s)%s\n", t.Progress, t.Title, t.ID, due)
}
