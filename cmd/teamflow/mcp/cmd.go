// Package mcpcmd implements the `teamflow mcp` command.
package mcpcmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
	internalmcp "github.com/go-ports/teamflow/internal/mcp"
)

// Command implements `teamflow mcp`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command
}

// New creates the mcp command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "mcp",
		Short: "Start the Teamflow MCP server (stdio transport)",
		RunE:  c.run,
	}
	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	if c.ctx.UserID == "" {
		return fmt.Errorf("no user set: pass --user or set TEAMFLOW_USER")
	}
	return internalmcp.Serve(cmd.Context(), c.ctx.DataHome, c.ctx.UserID)
}
