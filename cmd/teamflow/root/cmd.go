// Package rootcmd wires the root cobra.Command for the teamflow CLI binary.
package rootcmd

import (
	"os"

	"github.com/spf13/cobra"

	addgroupcmd "github.com/go-ports/teamflow/cmd/teamflow/addgroup"
	addtaskcmd "github.com/go-ports/teamflow/cmd/teamflow/addtask"
	chatcmd "github.com/go-ports/teamflow/cmd/teamflow/chat"
	chatscmd "github.com/go-ports/teamflow/cmd/teamflow/chats"
	companycmd "github.com/go-ports/teamflow/cmd/teamflow/company"
	configcmd "github.com/go-ports/teamflow/cmd/teamflow/config"
	friendscmd "github.com/go-ports/teamflow/cmd/teamflow/friends"
	groupscmd "github.com/go-ports/teamflow/cmd/teamflow/groups"
	mcpcmd "github.com/go-ports/teamflow/cmd/teamflow/mcp"
	notificationscmd "github.com/go-ports/teamflow/cmd/teamflow/notifications"
	profilecmd "github.com/go-ports/teamflow/cmd/teamflow/profile"
	registercmd "github.com/go-ports/teamflow/cmd/teamflow/register"
	schedulecmd "github.com/go-ports/teamflow/cmd/teamflow/schedule"
	sendcmd "github.com/go-ports/teamflow/cmd/teamflow/send"
	"github.com/go-ports/teamflow/cmd/teamflow/shared"
	subtaskcmd "github.com/go-ports/teamflow/cmd/teamflow/subtask"
	summarycmd "github.com/go-ports/teamflow/cmd/teamflow/summary"
	taskcmd "github.com/go-ports/teamflow/cmd/teamflow/task"
	taskscmd "github.com/go-ports/teamflow/cmd/teamflow/tasks"
)

// New creates and returns the root cobra.Command for the teamflow CLI.
func New() *cobra.Command {
	ctx := &shared.Context{}

	root := &cobra.Command{
		Use:           "teamflow",
		Short:         "Teamflow — shared tasks and team chat from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          func(cmd *cobra.Command, _ []string) error { return cmd.Help() },
	}

	root.PersistentFlags().StringVar(
		&ctx.DataHome, "home", "",
		"Override data home directory (default: $TEAMFLOW_HOME env → persisted config → ~/.teamflow)",
	)
	root.PersistentFlags().StringVar(
		&ctx.UserID, "user", os.Getenv("TEAMFLOW_USER"),
		"Acting user id (default: $TEAMFLOW_USER)",
	)

	root.AddCommand(
		registercmd.New(ctx).Cmd(),
		profilecmd.New(ctx).Cmd(),
		taskscmd.New(ctx).Cmd(),
		addtaskcmd.New(ctx).Cmd(),
		taskcmd.New(ctx).Cmd(),
		subtaskcmd.New(ctx).Cmd(),
		schedulecmd.New(ctx).Cmd(),
		friendscmd.New(ctx).Cmd(),
		chatscmd.New(ctx).Cmd(),
		chatcmd.New(ctx).Cmd(),
		sendcmd.New(ctx).Cmd(),
		groupscmd.New(ctx).Cmd(),
		addgroupcmd.New(ctx).Cmd(),
		notificationscmd.New(ctx).Cmd(),
		companycmd.New(ctx).Cmd(),
		summarycmd.New(ctx).Cmd(),
		configcmd.New(ctx).Cmd(),
		mcpcmd.New(ctx).Cmd(),
	)

	return root
}
