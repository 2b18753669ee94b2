// Package shared holds the context passed to all CLI commands.
package shared

import (
	"context"
	"fmt"

	"github.com/go-ports/teamflow/internal/service"
)

// Context carries global CLI state (flags set on the root command).
type Context struct {
	// DataHome overrides the data home directory.
	// When empty, resolution falls through to TEAMFLOW_HOME env var → persisted config → ~/.teamflow.
	DataHome string

	// UserID identifies the acting user. Defaults to the TEAMFLOW_USER env var.
	UserID string
}

// Connect opens the service and signs in as the configured user.
// The caller owns the returned service and must Close it.
func (c *Context) Connect(ctx context.Context) (*service.Service, error) {
	if c.UserID == "" {
		return nil, fmt.Errorf("no user set: pass --user or set TEAMFLOW_USER")
	}
	svc, err := service.New(c.DataHome)
	if err != nil {
		return nil, err
	}
	if err := svc.SignIn(ctx, c.UserID); err != nil {
		_ = svc.Close()
		return nil, err
	}
	return svc, nil
}
