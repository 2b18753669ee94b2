package views

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-ports/teamflow/internal/derive"
	"github.com/go-ports/teamflow/internal/models"
	"github.com/go-ports/teamflow/internal/mutate"
	"github.com/go-ports/teamflow/internal/readers"
	"github.com/go-ports/teamflow/internal/session"
	"github.com/go-ports/teamflow/internal/store"
)

// ConversationList maintains the per-friend conversation entries for the
// messages screen. It holds one message subscription per friend; each
// callback is authoritative for its friend only, and the aggregate list is
// rebuilt by merging the latest known entry per friend id.
type ConversationList struct {
	sess session.Session
	st   store.Store
	ops  *mutate.Ops

	mu      sync.Mutex
	entries map[string]models.Conversation
	chats   map[string]string // friend id -> message collection
	closed  bool

	unsubs  []func()
	changed notifier
}

// NewConversationList resolves the session user's friends and registers a
// message subscription per friend. An anonymous session yields an inert,
// empty list.
func NewConversationList(ctx context.Context, st store.Store, rd *readers.Readers, ops *mutate.Ops, sess session.Session) (*ConversationList, error) {
	v := &ConversationList{
		sess:    sess,
		st:      st,
		ops:     ops,
		entries: make(map[string]models.Conversation),
		chats:   make(map[string]string),
		changed: newNotifier(),
	}
	if sess.Anonymous() {
		slog.Warn("views: conversation list without a signed-in user")
		return v, nil
	}

	u, found, err := rd.User(ctx, sess.UserID)
	if err != nil {
		return nil, fmt.Errorf("NewConversationList: %w", err)
	}
	if !found {
		return v, nil
	}

	friends := rd.ResolveUsers(ctx, u.Friends)
	for _, friend := range friends {
		v.entries[friend.ID] = models.Conversation{
			FriendID: friend.ID,
			Name:     friend.Name,
			Avatar:   friend.Avatar,
		}
	}

	for _, friend := range friends {
		friendID := friend.ID
		chatID := models.ChatID(sess.UserID, friendID)
		v.chats[friendID] = models.MessagesCollection(chatID)
		unsub, err := st.Subscribe(ctx, models.MessagesCollection(chatID), store.Query{OrderBy: "timestamp"},
			func(docs []store.Document) {
				v.applySnapshot(friendID, docs)
			})
		if err != nil {
			v.Close()
			return nil, fmt.Errorf("NewConversationList: subscribe %s: %w", chatID, err)
		}
		v.unsubs = append(v.unsubs, unsub)
	}
	return v, nil
}

// applySnapshot rebuilds one friend's entry from that chat's full message
// list. Snapshots always win over optimistic local state.
func (v *ConversationList) applySnapshot(friendID string, docs []store.Document) {
	msgs, err := store.DecodeAll[models.Message](docs)
	if err != nil {
		slog.Warn("views: conversation snapshot decode failed", "friend", friendID, "err", err)
		return
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	entry := v.entries[friendID]
	entry.FriendID = friendID
	entry.LastMessage = ""
	entry.LastMessageTime = time.Time{}
	if len(msgs) > 0 {
		last := msgs[len(msgs)-1]
		entry.LastMessage = last.Text
		entry.LastMessageTime = last.Timestamp
	}
	entry.UnreadCount = derive.UnreadCount(msgs, v.sess.UserID)
	v.entries[friendID] = entry
	v.changed.notify()
}

// Conversations returns the current list sorted by recency.
func (v *ConversationList) Conversations() []models.Conversation {
	v.mu.Lock()
	convs := make([]models.Conversation, 0, len(v.entries))
	for _, e := range v.entries {
		convs = append(convs, e)
	}
	v.mu.Unlock()
	return derive.SortConversations(convs)
}

// Open marks a chat opened: the local unread count drops to zero
// immediately, then the batched mark-seen write is issued. The next
// authoritative snapshot re-derives the count, so a failed batch
// self-corrects instead of trusting the optimistic zero indefinitely.
func (v *ConversationList) Open(ctx context.Context, friendID string) error {
	v.mu.Lock()
	if entry, ok := v.entries[friendID]; ok {
		entry.UnreadCount = 0
		v.entries[friendID] = entry
		v.changed.notify()
	}
	v.mu.Unlock()

	if _, err := v.ops.MarkSeen(ctx, v.sess, models.ChatID(v.sess.UserID, friendID)); err != nil {
		return fmt.Errorf("ConversationList.Open %s: %w", friendID, err)
	}
	return nil
}

// Refresh re-reads every friend's chat once and rebuilds the entries. Meant
// for foreground resume, where the process may have missed commits.
func (v *ConversationList) Refresh(ctx context.Context) error {
	for friendID, collection := range v.chats {
		docs, err := v.st.QueryDocuments(ctx, collection, store.Query{OrderBy: "timestamp"})
		if err != nil {
			return fmt.Errorf("ConversationList.Refresh %s: %w", friendID, err)
		}
		v.applySnapshot(friendID, docs)
	}
	return nil
}

// Updates signals after snapshot merges; ticks are coalesced.
func (v *ConversationList) Updates() <-chan struct{} { return v.changed.C() }

// Close releases every subscription. No callback runs after Close returns.
func (v *ConversationList) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	for _, unsub := range v.unsubs {
		unsub()
	}
	v.unsubs = nil
}
