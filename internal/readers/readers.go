// Package readers implements one-shot entity reads: point lookups that
// report misses without erroring, collection queries projected into typed
// records, and fan-out joins over denormalized id lists.
package readers

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/go-ports/teamflow/internal/derive"
	"github.com/go-ports/teamflow/internal/models"
	"github.com/go-ports/teamflow/internal/session"
	"github.com/go-ports/teamflow/internal/store"
)

// Readers resolves entities from the store on behalf of a session.
type Readers struct {
	store       store.Store
	fanoutLimit int
}

// New returns Readers over st. fanoutLimit bounds the number of concurrent
// per-id reads in a join; values below 1 fall back to 1.
func New(st store.Store, fanoutLimit int) *Readers {
	if fanoutLimit < 1 {
		fanoutLimit = 1
	}
	return &Readers{store: st, fanoutLimit: fanoutLimit}
}

// ---------------------------------------------------------------------------
// Point lookups
// ---------------------------------------------------------------------------

// User fetches a single user. A miss is (zero, false, nil).
func (r *Readers) User(ctx context.Context, id string) (models.User, bool, error) {
	return getAs[models.User](ctx, r.store, models.CollectionUsers, id)
}

// Task fetches a single task.
func (r *Readers) Task(ctx context.Context, id string) (models.Task, bool, error) {
	return getAs[models.Task](ctx, r.store, models.CollectionTasks, id)
}

// Company fetches a single company.
func (r *Readers) Company(ctx context.Context, id string) (models.Company, bool, error) {
	return getAs[models.Company](ctx, r.store, models.CollectionCompanies, id)
}

// Group fetches a single group.
func (r *Readers) Group(ctx context.Context, id string) (models.Group, bool, error) {
	return getAs[models.Group](ctx, r.store, models.CollectionGroups, id)
}

func getAs[T any](ctx context.Context, st store.Store, collection, id string) (T, bool, error) {
	var zero T
	fields, found, err := st.GetDocument(ctx, collection, id)
	if err != nil {
		return zero, false, fmt.Errorf("readers: get %s/%s: %w", collection, id, err)
	}
	if !found {
		return zero, false, nil
	}
	fields["id"] = id
	v, err := store.Decode[T](fields)
	if err != nil {
		return zero, false, fmt.Errorf("readers: decode %s/%s: %w", collection, id, err)
	}
	return v, true, nil
}

// ---------------------------------------------------------------------------
// Session-scoped lists
// ---------------------------------------------------------------------------

// TasksFor returns the tasks referenced by the session user's task-id list.
// Anonymous sessions read nothing.
func (r *Readers) TasksFor(ctx context.Context, sess session.Session) ([]models.Task, error) {
	if sess.Anonymous() {
		slog.Warn("readers: TasksFor without a signed-in user")
		return nil, nil
	}
	u, found, err := r.User(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return resolveEach(ctx, r.fanoutLimit, u.TaskIDs, func(ctx context.Context, id string) (models.Task, bool, error) {
		return r.Task(ctx, id)
	}), nil
}

// GroupsFor returns the groups the session user belongs to.
func (r *Readers) GroupsFor(ctx context.Context, sess session.Session) ([]models.Group, error) {
	if sess.Anonymous() {
		slog.Warn("readers: GroupsFor without a signed-in user")
		return nil, nil
	}
	u, found, err := r.User(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}
	return resolveEach(ctx, r.fanoutLimit, u.GroupIDs, func(ctx context.Context, id string) (models.Group, bool, error) {
		return r.Group(ctx, id)
	}), nil
}

// ResolveUsers resolves a list of user ids with one read per id, bounded by
// the fan-out limit. A failed or missing sub-fetch is logged and skipped;
// the returned subset keeps the input order.
func (r *Readers) ResolveUsers(ctx context.Context, ids []string) []models.User {
	return resolveEach(ctx, r.fanoutLimit, ids, func(ctx context.Context, id string) (models.User, bool, error) {
		return r.User(ctx, id)
	})
}

// Notifications returns notifications addressed to the session user,
// newest first.
func (r *Readers) Notifications(ctx context.Context, sess session.Session) ([]models.Notification, error) {
	if sess.Anonymous() {
		slog.Warn("readers: Notifications without a signed-in user")
		return nil, nil
	}
	docs, err := r.store.QueryDocuments(ctx, models.CollectionNotifications, store.Query{
		Wheres:  []store.Where{{Field: "receiverIds", Op: store.OpArrayContains, Value: sess.UserID}},
		OrderBy: "timestamp",
		Desc:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("readers: Notifications: %w", err)
	}
	return store.DecodeAll[models.Notification](docs)
}

// Messages returns all messages of a direct chat, oldest first.
func (r *Readers) Messages(ctx context.Context, chatID string) ([]models.Message, error) {
	docs, err := r.store.QueryDocuments(ctx, models.MessagesCollection(chatID), store.Query{
		OrderBy: "timestamp",
	})
	if err != nil {
		return nil, fmt.Errorf("readers: Messages %s: %w", chatID, err)
	}
	return store.DecodeAll[models.Message](docs)
}

// GroupMessages returns all messages of a group, oldest first.
func (r *Readers) GroupMessages(ctx context.Context, groupID string) ([]models.Message, error) {
	docs, err := r.store.QueryDocuments(ctx, models.GroupMessagesCollection(groupID), store.Query{
		OrderBy: "timestamp",
	})
	if err != nil {
		return nil, fmt.Errorf("readers: GroupMessages %s: %w", groupID, err)
	}
	return store.DecodeAll[models.Message](docs)
}

// Conversations builds the per-friend conversation list for the session
// user: friend profile plus last message and unread count, sorted by
// recency. One message-collection scan per friend.
func (r *Readers) Conversations(ctx context.Context, sess session.Session) ([]models.Conversation, error) {
	if sess.Anonymous() {
		slog.Warn("readers: Conversations without a signed-in user")
		return nil, nil
	}
	u, found, err := r.User(ctx, sess.UserID)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, nil
	}

	convs := resolveEach(ctx, r.fanoutLimit, u.Friends, func(ctx context.Context, friendID string) (models.Conversation, bool, error) {
		friend, ok, err := r.User(ctx, friendID)
		if err != nil || !ok {
			return models.Conversation{}, ok, err
		}
		msgs, err := r.Messages(ctx, models.ChatID(sess.UserID, friendID))
		if err != nil {
			return models.Conversation{}, false, err
		}
		conv := models.Conversation{
			FriendID: friendID,
			Name:     friend.Name,
			Avatar:   friend.Avatar,
		}
		if len(msgs) > 0 {
			last := msgs[len(msgs)-1]
			conv.LastMessage = last.Text
			conv.LastMessageTime = last.Timestamp
		}
		conv.UnreadCount = derive.UnreadCount(msgs, sess.UserID)
		return conv, true, nil
	})

	return derive.SortConversations(convs), nil
}

// ---------------------------------------------------------------------------
// Fan-out helper
// ---------------------------------------------------------------------------

// resolveEach runs fetch once per id with bounded concurrency. Failures and
// misses are logged and skipped; results keep the input order.
func resolveEach[T any](ctx context.Context, limit int, ids []string, fetch func(ctx context.Context, id string) (T, bool, error)) []T {
	type slot struct {
		value T
		ok    bool
	}
	slots := make([]slot, len(ids))
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup

	for i, id := range ids {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int, id string) {
			defer wg.Done()
			defer func() { <-sem }()
			v, ok, err := fetch(ctx, id)
			if err != nil {
				slog.Warn("readers: fan-out fetch failed", "id", id, "err", err)
				return
			}
			if !ok {
				slog.Warn("readers: fan-out fetch missed", "id", id)
				return
			}
			slots[i] = slot{value: v, ok: true}
		}(i, id)
	}
	wg.Wait()

	out := make([]T, 0, len(ids))
	for _, s := range slots {
		if s.ok {
			out = append(out, s.value)
		}
	}
	return out
}
