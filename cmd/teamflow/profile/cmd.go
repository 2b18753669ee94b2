// Package profilecmd implements the `teamflow profile` command.
package profilecmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
	"github.com/go-ports/teamflow/internal/store"
)

// Command implements `teamflow profile`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	name   string
	email  string
	avatar string
	touch  bool
}

// New creates the profile command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "profile",
		Short: "Show or update your profile",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.StringVar(&c.name, "name", "", "New display name")
	f.StringVar(&c.email, "email", "", "New email address")
	f.StringVar(&c.avatar, "avatar", "", "New avatar URL")
	f.BoolVar(&c.touch, "touch", false, "Stamp last-active to now")

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

	edits := store.Record{}
	if c.name != "" {
		edits["name"] = c.name
	}
	if c.email != "" {
		edits["email"] = c.email
	}
	if c.avatar != "" {
		edits["avatar"] = c.avatar
	}
	if len(edits) > 0 {
		if err := svc.UpdateProfile(cmd.Context(), edits); err != nil {
			return err
		}
	}
	if c.touch {
		if err := svc.Heartbeat(cmd.Context()); err != nil {
			return err
		}
	}

	u, err := svc.CurrentUser(cmd.Context())
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s <%s> (id: %s, role: %s)\n", u.Name, u.Email, u.ID, u.Role)
	if u.CompanyID != "" {
		fmt.Fprintf(out, "Company: %s\n", u.CompanyID)
	}
	fmt.Fprintf(out, "Tasks: %d | Groups: %d | Friends: %d\n", len(u.TaskIDs), len(u.GroupIDs), len(u.Friends))
	return nil
}
