// Package addgroupcmd implements the `teamflow addgroup` command.
package addgroupcmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
	"github.com/go-ports/teamflow/internal/mutate"
)

// Command implements `teamflow addgroup`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	name    string
	members string
	retry   string
}

// New creates the addgroup command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "addgroup",
		Short: "Create a group chat and notify its members",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.name, "name", "", "Group name (required)")
	f.StringVar(&c.members, "members", "", "Comma-separated member user ids (required)")
	f.StringVar(&c.retry, "retry", "", "Re-run a partially failed creation for this group id")

	_ = c.cmd.MarkFlagRequired("name")
	_ = c.cmd.MarkFlagRequired("members")

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

	members := splitCSV(c.members)
	out := cmd.OutOrStdout()

	if c.retry != "" {
		if err := svc.RetryCreateGroup(cmd.Context(), c.retry, c.name, members); err != nil {
			return err
		}
		fmt.Fprintf(out, "Retried: %s (id: %s)\n", c.name, c.retry)
		return nil
	}

	id, err := svc.CreateGroup(cmd.Context(), c.name, members)
	if err != nil {
		var partial *mutate.PartialError
		if errors.As(err, &partial) {
			fmt.Fprintf(out, "Group %s was only partially created (failed at %s).\n", partial.ID, partial.Step)
			fmt.Fprintf(out, "Re-run with --retry %s to finish the fan-out.\n", partial.ID)
		}
		return err
	}

	fmt.Fprintf(out, "Created: %s (id: %s)\n", c.name, id)
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
