package models_test

import (
	"strings"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/teamflow/internal/models"
)

// ---------------------------------------------------------------------------
// ChatID
// ---------------------------------------------------------------------------

func TestChatID_HappyPath(t *testing.T) {
	c := qt.New(t)

	cases := []struct {
		name string
		a, b string
		want string
	}{
		{"already sorted", "alice", "bob", "alice_bob"},
		{"reversed input", "bob", "alice", "alice_bob"},
		{"same user twice", "alice", "alice", "alice_alice"},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			c.Assert(models.ChatID(tc.a, tc.b), qt.Equals, tc.want)
		})
	}
}

func TestChatID_OrderIndependent(t *testing.T) {
	c := qt.New(t)
	c.Assert(models.ChatID("u1", "u2"), qt.Equals, models.ChatID("u2", "u1"))
}

// ---------------------------------------------------------------------------
// Collection helpers
// ---------------------------------------------------------------------------

func TestMessagesCollection_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Assert(models.MessagesCollection("alice_bob"), qt.Equals, "chats/alice_bob/messages")
	c.Assert(models.GroupMessagesCollection("g1"), qt.Equals, "groups/g1/messages")
}

// ---------------------------------------------------------------------------
// NewID
// ---------------------------------------------------------------------------

func TestNewID_HappyPath(t *testing.T) {
	c := qt.New(t)

	a := models.NewID()
	b := models.NewID()
	c.Assert(a, qt.Not(qt.Equals), b)
	c.Assert(a, qt.HasLen, 26)
	// ULIDs are stored lowercased so ids sort consistently as strings.
	c.Assert(a, qt.Equals, strings.ToLower(a))
}

// ---------------------------------------------------------------------------
// Group.Member
// ---------------------------------------------------------------------------

func TestGroupMember_HappyPath(t *testing.T) {
	c := qt.New(t)
	g := models.Group{Name: "devs", Members: []string{"u1", "u2"}}

	c.Assert(g.Member("u1"), qt.IsTrue)
	c.Assert(g.Member("u3"), qt.IsFalse)
	c.Assert(models.Group{}.Member("u1"), qt.IsFalse)
}
