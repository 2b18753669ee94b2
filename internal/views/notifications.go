package views

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-ports/teamflow/internal/models"
	"github.com/go-ports/teamflow/internal/session"
	"github.com/go-ports/teamflow/internal/store"
)

// NotificationFeed maintains the notifications addressed to the session
// user, newest first. Notifications carry no read flag; membership in the
// receiver filter is the whole contract.
type NotificationFeed struct {
	st    store.Store
	query store.Query

	mu     sync.Mutex
	notes  []models.Notification
	closed bool

	unsub   func()
	changed notifier
}

// NewNotificationFeed registers the receiver-filtered subscription. An
// anonymous session yields an inert, empty feed.
func NewNotificationFeed(ctx context.Context, st store.Store, sess session.Session) (*NotificationFeed, error) {
	v := &NotificationFeed{changed: newNotifier()}
	if sess.Anonymous() {
		slog.Warn("views: notification feed without a signed-in user")
		return v, nil
	}
	v.st = st
	v.query = store.Query{
		Wheres:  []store.Where{{Field: "receiverIds", Op: store.OpArrayContains, Value: sess.UserID}},
		OrderBy: "timestamp",
		Desc:    true,
	}
	unsub, err := st.Subscribe(ctx, models.CollectionNotifications, v.query, v.applySnapshot)
	if err != nil {
		return nil, fmt.Errorf("NewNotificationFeed: %w", err)
	}
	v.unsub = unsub
	return v, nil
}

func (v *NotificationFeed) applySnapshot(docs []store.Document) {
	notes, err := store.DecodeAll[models.Notification](docs)
	if err != nil {
		slog.Warn("views: notification snapshot decode failed", "err", err)
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.notes = notes
	v.changed.notify()
}

// Notifications returns the current feed, newest first.
func (v *NotificationFeed) Notifications() []models.Notification {
	v.mu.Lock()
	defer v.mu.Unlock()
	out := make([]models.Notification, len(v.notes))
	copy(out, v.notes)
	return out
}

// Refresh re-runs the receiver-filtered query once and rebuilds the feed.
// Meant for foreground resume, where the process may have missed commits.
func (v *NotificationFeed) Refresh(ctx context.Context) error {
	if v.st == nil {
		return nil
	}
	docs, err := v.st.QueryDocuments(ctx, models.CollectionNotifications, v.query)
	if err != nil {
		return fmt.Errorf("NotificationFeed.Refresh: %w", err)
	}
	v.applySnapshot(docs)
	return nil
}

// Updates signals after snapshot merges; ticks are coalesced.
func (v *NotificationFeed) Updates() <-chan struct{} { return v.changed.C() }

// Close releases the subscription. No callback runs after Close returns.
func (v *NotificationFeed) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	if v.unsub != nil {
		v.unsub()
		v.unsub = nil
	}
}
