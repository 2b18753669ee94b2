// Package session carries the authenticated identity supplied by the
// external auth collaborator. It is passed explicitly into every reader and
// mutation instead of being read from ambient global state.
package session

import "github.com/go-ports/teamflow/internal/models"

// Session identifies the current user for the duration of a run. Admin is
// the role capability, resolved once from the user record rather than
// re-derived per call site.
type Session struct {
	UserID string
	Admin  bool
}

// FromUser builds a session from a resolved user record.
func FromUser(u models.User) Session {
	return Session{UserID: u.ID, Admin: u.Role == models.RoleAdmin}
}

// Anonymous reports whether no user is signed in. Readers and views treat
// an anonymous session as a no-op: log and return.
func (s Session) Anonymous() bool {
	return s.UserID == ""
}
