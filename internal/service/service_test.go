package service_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"

	"github.com/go-ports/teamflow/internal/models"
	"github.com/go-ports/teamflow/internal/mutate"
	"github.com/go-ports/teamflow/internal/service"
	"github.com/go-ports/teamflow/internal/store"
)

func openTestService(t *testing.T) *service.Service {
	t.Helper()
	svc, err := service.New(t.TempDir())
	if err != nil {
		t.Fatalf("openTestService: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestRegisterAndSignIn_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc := openTestService(t)

	// An empty id is generated at registration.
	id, err := svc.Register(ctx, models.User{Name: "Alice", Email: "alice@x", Role: models.RoleAdmin})
	c.Assert(err, qt.IsNil)
	c.Assert(id, qt.Not(qt.Equals), "")
	c.Assert(svc.Session().UserID, qt.Equals, id)
	c.Assert(svc.Session().Admin, qt.IsTrue)

	u, err := svc.CurrentUser(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(u.Name, qt.Equals, "Alice")

	// A fresh service over the same home signs back in.
	svc2, err := service.New(svc.DataHome)
	c.Assert(err, qt.IsNil)
	defer svc2.Close()
	c.Assert(svc2.SignIn(ctx, id), qt.IsNil)
}

func TestSignIn_FailurePath(t *testing.T) {
	c := qt.New(t)
	svc := openTestService(t)

	err := svc.SignIn(context.Background(), "nobody")
	c.Assert(err, qt.ErrorMatches, `SignIn: unknown user "nobody"`)
}

func TestTaskFlow_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc := openTestService(t)

	_, err := svc.Register(ctx, models.User{ID: "alice", Name: "Alice"})
	c.Assert(err, qt.IsNil)

	due := time.Date(2026, 9, 15, 0, 0, 0, 0, time.UTC)
	id, err := svc.CreateTask(ctx, mutate.TaskInput{Title: "Quarterly report", DueDate: due})
	c.Assert(err, qt.IsNil)

	tasks, err := svc.Tasks(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(tasks, qt.HasLen, 1)
	c.Assert(tasks[0].ID, qt.Equals, id)

	task, err := svc.AddSubtask(ctx, id, "draft")
	c.Assert(err, qt.IsNil)
	c.Assert(task.Subtasks, qt.HasLen, 1)
	task, err = svc.ToggleSubtask(ctx, id, 0)
	c.Assert(err, qt.IsNil)
	c.Assert(task.Progress, qt.Equals, float64(100))

	// The schedule matches by calendar day, any time of day.
	day, err := svc.Schedule(ctx, due.Add(14*time.Hour))
	c.Assert(err, qt.IsNil)
	c.Assert(day, qt.HasLen, 1)
	day, err = svc.Schedule(ctx, due.AddDate(0, 0, 1))
	c.Assert(err, qt.IsNil)
	c.Assert(day, qt.HasLen, 0)
}

func TestChatFlow_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc := openTestService(t)

	_, err := svc.Register(ctx, models.User{ID: "alice", Name: "Alice"})
	c.Assert(err, qt.IsNil)
	_, err = svc.Register(ctx, models.User{ID: "bob", Name: "Bob"})
	c.Assert(err, qt.IsNil)

	// Registration signs in as the new user, so bob sends first.
	_, err = svc.SendMessage(ctx, "alice", "hi alice")
	c.Assert(err, qt.IsNil)

	c.Assert(svc.SignIn(ctx, "alice"), qt.IsNil)

	friends, err := svc.Friends(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(friends, qt.HasLen, 1)
	c.Assert(friends[0].ID, qt.Equals, "bob")

	convs, err := svc.Conversations(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(convs, qt.HasLen, 1)
	c.Assert(convs[0].UnreadCount, qt.Equals, 1)

	n, err := svc.MarkSeen(ctx, "bob")
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 1)

	msgs, err := svc.Messages(ctx, "bob")
	c.Assert(err, qt.IsNil)
	c.Assert(msgs, qt.HasLen, 1)
	c.Assert(msgs[0].Status, qt.Equals, models.StatusSeen)

	n, err = svc.ClearChat(ctx, "bob")
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 1)
}

func TestGroupFlow_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc := openTestService(t)

	_, err := svc.Register(ctx, models.User{ID: "bob", Name: "Bob"})
	c.Assert(err, qt.IsNil)
	_, err = svc.Register(ctx, models.User{ID: "alice", Name: "Alice"})
	c.Assert(err, qt.IsNil)

	groupID, err := svc.CreateGroup(ctx, "devs", []string{"bob"})
	c.Assert(err, qt.IsNil)

	groups, err := svc.Groups(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(groups, qt.HasLen, 1)
	c.Assert(groups[0].Member("bob"), qt.IsTrue)

	_, err = svc.SendGroupMessage(ctx, groupID, "kickoff at 3")
	c.Assert(err, qt.IsNil)
	msgs, err := svc.GroupMessages(ctx, groupID)
	c.Assert(err, qt.IsNil)
	c.Assert(msgs, qt.HasLen, 1)

	// Bob got the membership notification; alice created the group.
	c.Assert(svc.SignIn(ctx, "bob"), qt.IsNil)
	notes, err := svc.Notifications(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(notes, qt.HasLen, 1)
	c.Assert(notes[0].GroupID, qt.Equals, groupID)

	n, err := svc.ClearGroupChat(ctx, groupID)
	c.Assert(err, qt.IsNil)
	c.Assert(n, qt.Equals, 1)
}

func TestCompanyFlow_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc := openTestService(t)

	_, err := svc.Register(ctx, models.User{ID: "alice", Name: "Alice", Role: models.RoleAdmin})
	c.Assert(err, qt.IsNil)

	_, found, err := svc.Company(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.IsFalse)

	id, err := svc.SaveCompany(ctx, models.Company{Name: "Acme"})
	c.Assert(err, qt.IsNil)

	company, found, err := svc.Company(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(found, qt.IsTrue)
	c.Assert(company.ID, qt.Equals, id)
	c.Assert(company.Name, qt.Equals, "Acme")
	c.Assert(company.OwnerID, qt.Equals, "alice")
}

func TestPresence_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc := openTestService(t)

	_, err := svc.Register(ctx, models.User{ID: "alice", Name: "Alice"})
	c.Assert(err, qt.IsNil)

	status, err := svc.Presence(ctx, "alice")
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, "Offline")

	c.Assert(svc.Heartbeat(ctx), qt.IsNil)
	status, err = svc.Presence(ctx, "alice")
	c.Assert(err, qt.IsNil)
	c.Assert(status, qt.Equals, "Online")
}

func TestUpdateProfile_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	svc := openTestService(t)

	_, err := svc.Register(ctx, models.User{ID: "alice", Name: "Alice"})
	c.Assert(err, qt.IsNil)

	err = svc.UpdateProfile(ctx, store.Record{"name": "Alice B", "avatar": "a.png"})
	c.Assert(err, qt.IsNil)

	u, err := svc.CurrentUser(ctx)
	c.Assert(err, qt.IsNil)
	c.Assert(u.Name, qt.Equals, "Alice B")
	c.Assert(u.Avatar, qt.Equals, "a.png")
}

func TestSummarizeChat_HappyPath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{
			"candidates": []map[string]any{{
				"content": map[string]any{
					"parts": []map[string]any{{"text": "They planned the launch."}},
				},
			}},
		})
	}))
	defer srv.Close()

	home := t.TempDir()
	cfgYAML := fmt.Sprintf("summarizer:\n  provider: gemini\n  model: gemini-2.0-flash\n  base_url: %s\n  api_key: k\n", srv.URL)
	err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte(cfgYAML), 0o600)
	c.Assert(err, qt.IsNil)

	svc, err := service.New(home)
	c.Assert(err, qt.IsNil)
	defer svc.Close()

	_, err = svc.Register(ctx, models.User{ID: "bob", Name: "Bob"})
	c.Assert(err, qt.IsNil)
	_, err = svc.Register(ctx, models.User{ID: "alice", Name: "Alice"})
	c.Assert(err, qt.IsNil)
	_, err = svc.SendMessage(ctx, "bob", "launch monday?")
	c.Assert(err, qt.IsNil)

	got, err := svc.SummarizeChat(ctx, "bob")
	c.Assert(err, qt.IsNil)
	c.Assert(got, qt.Equals, "They planned the launch.")
}

func TestSummarizeChat_FailurePath(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()

	c.Run("no summarizer configured", func(c *qt.C) {
		svc := openTestService(t)
		_, err := svc.Register(ctx, models.User{ID: "alice", Name: "Alice"})
		c.Assert(err, qt.IsNil)

		_, err = svc.SummarizeChat(ctx, "bob")
		c.Assert(err, qt.ErrorMatches, "summarize: no summarizer configured")
	})

	c.Run("no messages", func(c *qt.C) {
		home := t.TempDir()
		cfgYAML := "summarizer:\n  provider: gemini\n  api_key: k\n"
		err := os.WriteFile(filepath.Join(home, "config.yaml"), []byte(cfgYAML), 0o600)
		c.Assert(err, qt.IsNil)

		svc, err := service.New(home)
		c.Assert(err, qt.IsNil)
		defer svc.Close()
		_, err = svc.Register(ctx, models.User{ID: "alice", Name: "Alice"})
		c.Assert(err, qt.IsNil)

		_, err = svc.SummarizeChat(ctx, "bob")
		c.Assert(err, qt.ErrorMatches, "summarize: no messages to summarize")
	})
}
