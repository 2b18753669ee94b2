// Package companycmd implements the `teamflow company` command.
package companycmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/go-ports/teamflow/cmd/teamflow/shared"
	"github.com/go-ports/teamflow/internal/models"
)

// Command implements `teamflow company`.
type Command struct {
	ctx *shared.Context
	cmd *cobra.Command

	save    bool
	name    string
	address string
	website string
	about   string
}

// New creates the company command.
func New(ctx *shared.Context) *Command {
	c := &Command{ctx: ctx}
	c.cmd = &cobra.Command{
		Use:   "company",
		Short: "Show or save your company record (admins only for saving)",
		RunE:  c.run,
	}

	f := c.cmd.Flags()
	f.BoolVar(&c.save, "save", false, "Create or update the company record")
	f.StringVar(&c.name, "name", "", "Company name (required with --save)")
	f.StringVar(&c.address, "address", "", "Company address")
	f.StringVar(&c.website, "website", "", "Company website")
	f.StringVar(&c.about, "about", "", "Company description")

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

	out := cmd.OutOrStdout()

	if c.save {
		id, err := svc.SaveCompany(cmd.Context(), models.Company{
			Name:    c.name,
			Address: c.address,
			Website: c.website,
			About:   c.about,
		})
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "Saved company (id: %s)\n", id)
		return nil
	}

	company, found, err := svc.Company(cmd.Context())
	if err != nil {
		return err
	}
	if !found {
		fmt.Fprintln(out, "No company linked. Admins can create one with --save --name <name>.")
		return nil
	}

	fmt.Fprintf(out, "%s (id: %s)\n", company.Name, company.ID)
	if company.Address != "" {
		fmt.Fprintf(out, "Address: %s\n", company.Address)
	}
	if company.Website != "" {
		fmt.Fprintf(out, "Website: %s\n", company.Website)
	}
	if company.About != "" {
		fmt.Fprintf(out, "About: %s\n", company.About)
	}
	return nil
}
