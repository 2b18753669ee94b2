package store_test

import (
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/teamflow/internal/store"
)

func doc(id string, fields store.Record) store.Document {
	return store.Document{ID: id, Fields: fields}
}

// ---------------------------------------------------------------------------
// Query.Matches
// ---------------------------------------------------------------------------

func TestQueryMatches_HappyPath(t *testing.T) {
	c := qt.New(t)

	fields := store.Record{
		"status":      "sent",
		"progress":    float64(40),
		"receiverIds": []any{"u1", "u2"},
	}

	cases := []struct {
		name  string
		where store.Where
		want  bool
	}{
		{"equality hit", store.Eq("status", "sent"), true},
		{"equality miss", store.Eq("status", "seen"), false},
		{"not-equal", store.Where{Field: "status", Op: store.OpNotEqual, Value: "seen"}, true},
		{"numeric less", store.Where{Field: "progress", Op: store.OpLess, Value: 100}, true},
		{"numeric greater-or-equal", store.Where{Field: "progress", Op: store.OpGreaterOrEqual, Value: 40}, true},
		{"in hit", store.Where{Field: "status", Op: store.OpIn, Value: []string{"sent", "seen"}}, true},
		{"in miss", store.Where{Field: "status", Op: store.OpIn, Value: []string{"seen"}}, false},
		{"array-contains hit", store.Where{Field: "receiverIds", Op: store.OpArrayContains, Value: "u2"}, true},
		{"array-contains miss", store.Where{Field: "receiverIds", Op: store.OpArrayContains, Value: "u3"}, false},
		{"array-contains on scalar field", store.Where{Field: "status", Op: store.OpArrayContains, Value: "sent"}, false},
		{"unknown operator never matches", store.Where{Field: "status", Op: "like", Value: "sent"}, false},
		{"missing field does not equal", store.Eq("nope", "sent"), false},
	}

	for _, tc := range cases {
		c.Run(tc.name, func(c *qt.C) {
			q := store.Query{Wheres: []store.Where{tc.where}}
			c.Assert(q.Matches(fields), qt.Equals, tc.want)
		})
	}
}

func TestQueryMatches_AllConditionsRequired(t *testing.T) {
	c := qt.New(t)

	q := store.Query{Wheres: []store.Where{
		store.Eq("status", "sent"),
		store.Eq("receiverId", "u1"),
	}}
	c.Assert(q.Matches(store.Record{"status": "sent", "receiverId": "u1"}), qt.IsTrue)
	c.Assert(q.Matches(store.Record{"status": "sent", "receiverId": "u2"}), qt.IsFalse)
}

// ---------------------------------------------------------------------------
// Query.Apply
// ---------------------------------------------------------------------------

func TestQueryApply_HappyPath(t *testing.T) {
	c := qt.New(t)

	docs := []store.Document{
		doc("a", store.Record{"timestamp": "2024-01-02", "status": "sent"}),
		doc("b", store.Record{"timestamp": "2024-01-01", "status": "sent"}),
		doc("c", store.Record{"timestamp": "2024-01-03", "status": "seen"}),
	}

	c.Run("filter then ascending order", func(c *qt.C) {
		q := store.Query{
			Wheres:  []store.Where{store.Eq("status", "sent")},
			OrderBy: "timestamp",
		}
		got := q.Apply(docs)
		c.Assert(got, qt.HasLen, 2)
		c.Assert(got[0].ID, qt.Equals, "b")
		c.Assert(got[1].ID, qt.Equals, "a")
	})

	c.Run("descending order with limit", func(c *qt.C) {
		q := store.Query{OrderBy: "timestamp", Desc: true, Limit: 2}
		got := q.Apply(docs)
		c.Assert(got, qt.HasLen, 2)
		c.Assert(got[0].ID, qt.Equals, "c")
		c.Assert(got[1].ID, qt.Equals, "a")
	})

	c.Run("input slice is not modified", func(c *qt.C) {
		q := store.Query{OrderBy: "timestamp", Desc: true}
		_ = q.Apply(docs)
		c.Assert(docs[0].ID, qt.Equals, "a")
	})

	c.Run("empty query returns everything in scan order", func(c *qt.C) {
		got := store.Query{}.Apply(docs)
		c.Assert(got, qt.HasLen, 3)
		c.Assert(got[0].ID, qt.Equals, "a")
	})
}

// ---------------------------------------------------------------------------
// ApplyUpdate / ArrayUnion
// ---------------------------------------------------------------------------

func TestApplyUpdate_HappyPath(t *testing.T) {
	c := qt.New(t)

	c.Run("plain fields overwrite", func(c *qt.C) {
		got := store.ApplyUpdate(
			store.Record{"name": "old", "email": "a@b.c"},
			store.Record{"name": "new"},
		)
		c.Assert(got["name"], qt.Equals, "new")
		c.Assert(got["email"], qt.Equals, "a@b.c")
	})

	c.Run("nil existing starts fresh", func(c *qt.C) {
		got := store.ApplyUpdate(nil, store.Record{"name": "new"})
		c.Assert(got["name"], qt.Equals, "new")
	})

	c.Run("array union appends only missing values", func(c *qt.C) {
		got := store.ApplyUpdate(
			store.Record{"taskId": []any{"t1"}},
			store.Record{"taskId": store.Union("t1", "t2")},
		)
		c.Assert(got["taskId"], qt.DeepEquals, []any{"t1", "t2"})
	})

	c.Run("array union is idempotent", func(c *qt.C) {
		once := store.ApplyUpdate(nil, store.Record{"friends": store.Union("u2")})
		twice := store.ApplyUpdate(once, store.Record{"friends": store.Union("u2")})
		c.Assert(twice["friends"], qt.DeepEquals, []any{"u2"})
	})

	c.Run("array union on absent field creates the list", func(c *qt.C) {
		got := store.ApplyUpdate(store.Record{}, store.Record{"groupId": store.Union("g1")})
		c.Assert(got["groupId"], qt.DeepEquals, []any{"g1"})
	})
}

// ---------------------------------------------------------------------------
// Encode / Decode
// ---------------------------------------------------------------------------

func TestDecodeAll_InjectsDocumentID(t *testing.T) {
	c := qt.New(t)

	type entity struct {
		ID   string `json:"id"`
		Name string `json:"name"`
	}

	got, err := store.DecodeAll[entity]([]store.Document{
		doc("x1", store.Record{"name": "alpha"}),
		doc("x2", store.Record{"name": "beta"}),
	})
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.HasLen, 2)
	c.Assert(got[0].ID, qt.Equals, "x1")
	c.Assert(got[1].Name, qt.Equals, "beta")
}

func TestEncodeValue_HappyPath(t *testing.T) {
	c := qt.New(t)

	type sub struct {
		Name    string `json:"name"`
		Checked bool   `json:"checked"`
	}

	got, err := store.EncodeValue([]sub{{Name: "a", Checked: true}})
	c.Assert(err, qt.IsNil)

	list, ok := got.([]any)
	c.Assert(ok, qt.IsTrue)
	c.Assert(list, qt.HasLen, 1)
	first, ok := list[0].(map[string]any)
	c.Assert(ok, qt.IsTrue)
	c.Assert(first["name"], qt.Equals, "a")
	c.Assert(first["checked"], qt.Equals, true)
}
