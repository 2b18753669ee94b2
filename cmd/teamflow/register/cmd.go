// Package registercmd implements the `teamflow register` command.
package registercmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
	"github.com/go-ports/teamflow/internal/models"
	"github.com/go-ports/teamflow/internal/service"
)

// Command implements `teamflow register`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	name   string
	email  string
	avatar string
	admin  bool
	id     string
}

// New creates the register command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "register",
		Short: "Create a user account",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.name, "name", "", "Display name (required)")
	f.StringVar(&c.email, "email", "", "Email address (required)")
	f.StringVar(&c.avatar, "avatar", "", "Avatar URL")
	f.BoolVar(&c.admin, "admin", false, "Register as an admin account")
	f.StringVar(&c.id, "id", "", "Explicit user id (generated when omitted)")

	_ = c.cmd.MarkFlagRequired("name")
	_ = c.cmd.MarkFlagRequired("email")

	return c
}

// Cmd returns the cobra command.
func (c *Command) Cmd() *cobra.Command { return c.cmd }

func (c *Command) run(cmd *cobra.Command, _ []string) error {
	svc, err := service.New(c.ctx.DataHome)
	if err != nil {
		return err
	}
	defer svc.Close()

	role := models.RoleUser
	if c.admin {
		role = models.RoleAdmin
	}

	id, err := svc.Register(cmd.Context(), models.User{
		ID:     c.id,
		Name:   c.name,
		Email:  c.email,
		Avatar: c.avatar,
		Role:   role,
	})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Registered %s (id: %s)\n", c.name, id)
	fmt.Fprintf(out, "Use --user %s (or export TEAMFLOW_USER=%s) for subsequent commands.\n", id, id)
	return nil
}
