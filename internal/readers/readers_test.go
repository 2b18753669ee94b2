package readers_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/teamflow/internal/db"
	"github.com/go-ports/teamflow/internal/models"
	"github.com/go-ports/teamflow/internal/mutate"
	"github.com/go-ports/teamflow/internal/readers"
	"github.com/go-ports/teamflow/internal/session"
)

func openTestReaders(t *testing.T) (*readers.Readers, *mutate.Ops, *db.DB) {
	t.Helper()
	d, err := db.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("openTestReaders: %v", err)
	}
	t.Cleanup(func() { _ = d.Close() })
	return readers.New(d, 4), mutate.New(d), d
}

func register(t *testing.T, ops *mutate.Ops, users ...models.User) {
	t.Helper()
	for _, u := range users {
		if err := ops.RegisterUser(context.Background(), u); err != nil {
			t.Fatalf("register %s: %v", u.ID, err)
		}
	}
}

func TestUser_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	r, ops, _ := openTestReaders(t)
	register(t, ops, models.User{ID: "alice", Name: "Alice", Email: "alice@x"})

	u, found, err := r.User(ctx, "alice")
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.IsTrue)
	c.Assert(u.ID, qt.Equals, "alice")
	c.Assert(u.Name, qt.Equals, "Alice")

	// A miss is reported, not an error.
	_, found, err = r.User(ctx, "nobody")
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.IsFalse)
}

func TestTasksFor_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	r, ops, _ := openTestReaders(t)
	register(t, ops, models.User{ID: "alice", Name: "Alice"})
	sess := session.Session{UserID: "alice"}

	id1, err := ops.CreateTask(ctx, sess, mutate.TaskInput{Title: "first"})
	c.Assert(err, qt.IsNil)
	id2, err := ops.CreateTask(ctx, sess, mutate.TaskInput{Title: "second"})
	c.Assert(err, qt.IsNil)

	tasks, err := r.TasksFor(ctx, sess)
	c.Assert(err, qt.IsNil)
	c.Assert(tasks, qt.HasLen, 2)

	// Results keep the membership-list order.
	c.Assert(tasks[0].ID, qt.Equals, id1)
	c.Assert(tasks[1].ID, qt.Equals, id2)
}

func TestTasksFor_AnonymousReadsNothing(t *testing.T) {
	c := qt.New(t)
	r, _, _ := openTestReaders(t)

	tasks, err := r.TasksFor(context.Background(), session.Session{})
	c.Assert(err, qt.IsNil)
	c.Assert(tasks, qt.HasLen, 0)
}

func TestGroupsFor_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	r, ops, _ := openTestReaders(t)
	register(t, ops,
		models.User{ID: "alice", Name: "Alice"},
		models.User{ID: "bob", Name: "Bob"},
	)

	id, err := ops.CreateGroup(ctx, session.Session{UserID: "alice"}, "devs", []string{"bob"})
	c.Assert(err, qt.IsNil)

	// Both the creator and the member see the group.
	for _, userID := range []string{"alice", "bob"} {
		groups, err := r.GroupsFor(ctx, session.Session{UserID: userID})
		c.Assert(err, qt.IsNil)
		c.Assert(groups, qt.HasLen, 1)
		c.Assert(groups[0].ID, qt.Equals, id)
		c.Assert(groups[0].Name, qt.Equals, "devs")
	}
}

func TestResolveUsers_SkipsMisses(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	r, ops, _ := openTestReaders(t)
	register(t, ops,
		models.User{ID: "alice", Name: "Alice"},
		models.User{ID: "bob", Name: "Bob"},
	)

	// Misses are skipped and the input order is preserved.
	users := r.ResolveUsers(ctx, []string{"bob", "ghost", "alice"})
	c.Assert(users, qt.HasLen, 2)
	c.Assert(users[0].ID, qt.Equals, "bob")
	c.Assert(users[1].ID, qt.Equals, "alice")
}

func TestNotifications_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	r, ops, d := openTestReaders(t)
	register(t, ops,
		models.User{ID: "alice", Name: "Alice"},
		models.User{ID: "bob", Name: "Bob"},
		models.User{ID: "carol", Name: "Carol"},
	)
	alice := session.Session{UserID: "alice"}

	// Two clock ticks apart so ordering is deterministic.
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	clock := base
	opsAt := mutate.NewAt(d, func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})

	_, err := opsAt.CreateTask(ctx, alice, mutate.TaskInput{
		Title: "older",
		Team:  []models.TeamMember{{ID: "bob", Name: "Bob"}},
	})
	c.Assert(err, qt.IsNil)
	_, err = opsAt.CreateTask(ctx, alice, mutate.TaskInput{
		Title: "newer",
		Team:  []models.TeamMember{{ID: "bob", Name: "Bob"}, {ID: "carol", Name: "Carol"}},
	})
	c.Assert(err, qt.IsNil)

	c.Run("receiver sees newest first", func(c *qt.C) {
		notes, err := r.Notifications(ctx, session.Session{UserID: "bob"})
		c.Assert(err, qt.IsNil)
		c.Assert(notes, qt.HasLen, 2)
		c.Assert(notes[0].Text, qt.Contains, "newer")
		c.Assert(notes[1].Text, qt.Contains, "older")
	})

	c.Run("non-receivers see nothing", func(c *qt.C) {
		notes, err := r.Notifications(ctx, alice)
		c.Assert(err, qt.IsNil)
		c.Assert(notes, qt.HasLen, 0)
	})
}

func TestMessages_OldestFirst(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	r, ops, d := openTestReaders(t)
	register(t, ops,
		models.User{ID: "alice", Name: "Alice"},
		models.User{ID: "bob", Name: "Bob"},
	)

	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	opsAt := mutate.NewAt(d, func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})
	for _, text := range []string{"one", "two", "three"} {
		_, err := opsAt.SendMessage(ctx, session.Session{UserID: "alice"}, "bob", text)
		c.Assert(err, qt.IsNil)
	}

	msgs, err := r.Messages(ctx, models.ChatID("alice", "bob"))
	c.Assert(err, qt.IsNil)
	c.Assert(msgs, qt.HasLen, 3)
	c.Assert(msgs[0].Text, qt.Equals, "one")
	c.Assert(msgs[2].Text, qt.Equals, "three")
}

func TestConversations_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	r, ops, d := openTestReaders(t)
	register(t, ops,
		models.User{ID: "alice", Name: "Alice"},
		models.User{ID: "bob", Name: "Bob"},
		models.User{ID: "carol", Name: "Carol", Avatar: "carol.png"},
	)
	alice := session.Session{UserID: "alice"}

	clock := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	opsAt := mutate.NewAt(d, func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})

	_, err := opsAt.SendMessage(ctx, session.Session{UserID: "bob"}, "alice", "hi from bob")
	c.Assert(err, qt.IsNil)
	_, err = opsAt.SendMessage(ctx, session.Session{UserID: "carol"}, "alice", "hi from carol")
	c.Assert(err, qt.IsNil)
	_, err = opsAt.SendMessage(ctx, session.Session{UserID: "carol"}, "alice", "still there?")
	c.Assert(err, qt.IsNil)

	convs, err := r.Conversations(ctx, alice)
	c.Assert(err, qt.IsNil)
	c.Assert(convs, qt.HasLen, 2)

	// Most recent conversation first, with friend profile, last message
	// text and the count of inbound messages not yet seen.
	c.Assert(convs[0].FriendID, qt.Equals, "carol")
	c.Assert(convs[0].Name, qt.Equals, "Carol")
	c.Assert(convs[0].Avatar, qt.Equals, "carol.png")
	c.Assert(convs[0].LastMessage, qt.Equals, "still there?")
	c.Assert(convs[0].UnreadCount, qt.Equals, 2)
	c.Assert(convs[1].FriendID, qt.Equals, "bob")
	c.Assert(convs[1].UnreadCount, qt.Equals, 1)

	// Marking the chat seen zeroes the count.
	_, err = ops.MarkSeen(ctx, alice, models.ChatID("alice", "carol"))
	c.Assert(err, qt.IsNil)
	convs, err = r.Conversations(ctx, alice)
	c.Assert(err, qt.IsNil)
	c.Assert(convs[0].UnreadCount, qt.Equals, 0)
}
