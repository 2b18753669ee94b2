package views

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-ports/teamflow/internal/derive"
	"github.com/go-ports/teamflow/internal/models"
	"github.com/go-ports/teamflow/internal/mutate"
	"github.com/go-ports/teamflow/internal/session"
	"github.com/go-ports/teamflow/internal/store"
)

// MessageView maintains the message list of one open chat, direct or group,
// with a local search filter layered on top.
type MessageView struct {
	sess       session.Session
	st         store.Store
	ops        *mutate.Ops
	chatID     string // empty for group chats
	collection string

	mu     sync.Mutex
	msgs   []models.Message
	search string
	closed bool

	unsub   func()
	changed notifier
}

// NewMessageView opens a direct chat with the given friend and registers
// the message subscription.
func NewMessageView(ctx context.Context, st store.Store, ops *mutate.Ops, sess session.Session, friendID string) (*MessageView, error) {
	chatID := models.ChatID(sess.UserID, friendID)
	return newMessageView(ctx, st, ops, sess, chatID, models.MessagesCollection(chatID))
}

// NewGroupMessageView opens a group chat.
func NewGroupMessageView(ctx context.Context, st store.Store, ops *mutate.Ops, sess session.Session, groupID string) (*MessageView, error) {
	return newMessageView(ctx, st, ops, sess, "", models.GroupMessagesCollection(groupID))
}

func newMessageView(ctx context.Context, st store.Store, ops *mutate.Ops, sess session.Session, chatID, collection string) (*MessageView, error) {
	v := &MessageView{
		sess:       sess,
		st:         st,
		ops:        ops,
		chatID:     chatID,
		collection: collection,
		changed:    newNotifier(),
	}
	if sess.Anonymous() {
		slog.Warn("views: message view without a signed-in user")
		return v, nil
	}
	unsub, err := st.Subscribe(ctx, collection, store.Query{OrderBy: "timestamp"}, v.applySnapshot)
	if err != nil {
		return nil, fmt.Errorf("NewMessageView: subscribe %s: %w", collection, err)
	}
	v.unsub = unsub
	return v, nil
}

func (v *MessageView) applySnapshot(docs []store.Document) {
	msgs, err := store.DecodeAll[models.Message](docs)
	if err != nil {
		slog.Warn("views: message snapshot decode failed", "collection", v.collection, "err", err)
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.msgs = msgs
	v.changed.notify()
}

// Messages returns the current list, oldest first, filtered by the search
// text when one is set.
func (v *MessageView) Messages() []models.Message {
	v.mu.Lock()
	msgs := make([]models.Message, len(v.msgs))
	copy(msgs, v.msgs)
	search := v.search
	v.mu.Unlock()
	return derive.FilterMessages(msgs, search)
}

// Unread returns the count of sent messages addressed to the session user.
func (v *MessageView) Unread() int {
	v.mu.Lock()
	defer v.mu.Unlock()
	return derive.UnreadCount(v.msgs, v.sess.UserID)
}

// SetSearch sets the case-insensitive substring filter over message text.
func (v *MessageView) SetSearch(query string) {
	v.mu.Lock()
	v.search = query
	v.mu.Unlock()
	v.changed.notify()
}

// MarkSeen issues the batched mark-seen write for a direct chat. Group
// chats carry no read state and are a no-op.
func (v *MessageView) MarkSeen(ctx context.Context) (int, error) {
	if v.chatID == "" || v.sess.Anonymous() {
		return 0, nil
	}
	return v.ops.MarkSeen(ctx, v.sess, v.chatID)
}

// Refresh re-reads the chat once and rebuilds the list. Meant for
// foreground resume, where the process may have missed commits.
func (v *MessageView) Refresh(ctx context.Context) error {
	if v.sess.Anonymous() {
		return nil
	}
	docs, err := v.st.QueryDocuments(ctx, v.collection, store.Query{OrderBy: "timestamp"})
	if err != nil {
		return fmt.Errorf("MessageView.Refresh %s: %w", v.collection, err)
	}
	v.applySnapshot(docs)
	return nil
}

// Updates signals after snapshot merges; ticks are coalesced.
func (v *MessageView) Updates() <-chan struct{} { return v.changed.C() }

// Close releases the subscription. No callback runs after Close returns.
func (v *MessageView) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	if v.unsub != nil {
		v.unsub()
		v.unsub = nil
	}
}
