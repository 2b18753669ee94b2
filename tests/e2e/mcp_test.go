// Package e2e_test — MCP server end-to-end tests.
//
// Each test wires the real MCP server in-process via the mcp-go
// InProcessTransport, backed by a fresh service.Service rooted at a
// temporary directory.  No binary needs to be compiled; the full stack
// (service → db → mutate → mcp handler → mcp-go server → in-process client)
// is exercised within a single test process.
package e2e_test

import (
	"context"
	"encoding/json"
	"testing"

	qt "github.com/frankban/quicktest"
	mcpclient "github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/go-ports/teamflow/internal/checkers"
	internalmcp "github.com/go-ports/teamflow/internal/mcp"
	"github.com/go-ports/teamflow/internal/models"
	"github.com/go-ports/teamflow/internal/service"
)

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// newMCPClient creates an in-process MCP client backed by a fresh service
// rooted at c.TB.TempDir().  Two users are registered and the session is
// bound to alice; cleanup is registered on c automatically.
func newMCPClient(c *qt.C) *mcpclient.Client {
	c.TB.Helper()

	svc, err := service.New(c.TB.TempDir())
	c.Assert(err, qt.IsNil)
	c.TB.Cleanup(func() { _ = svc.Close() })

	_, err = svc.Register(context.Background(), models.User{ID: "bob", Name: "Bob", Email: "bob@x"})
	c.Assert(err, qt.IsNil)
	_, err = svc.Register(context.Background(), models.User{ID: "alice", Name: "Alice", Email: "alice@x"})
	c.Assert(err, qt.IsNil)

	cl, err := mcpclient.NewInProcessClient(internalmcp.NewServer(svc))
	c.Assert(err, qt.IsNil)
	c.TB.Cleanup(func() { _ = cl.Close() })

	c.Assert(cl.Start(context.Background()), qt.IsNil)

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{Name: "e2e-test", Version: "0.0.1"}
	_, err = cl.Initialize(context.Background(), initReq)
	c.Assert(err, qt.IsNil)

	return cl
}

// callTool invokes the named MCP tool and returns the text of the first
// content item.  All errors are surfaced as immediate assertion failures via c.
func callTool(c *qt.C, cl *mcpclient.Client, name string, args map[string]any) string {
	req := mcp.CallToolRequest{}
	req.Params.Name = name
	req.Params.Arguments = args

	result, err := cl.CallTool(context.Background(), req)
	c.Assert(err, qt.IsNil)
	c.Assert(result.Content, qt.HasLen, 1)

	tc, ok := mcp.AsTextContent(result.Content[0])
	c.Assert(ok, qt.IsTrue)

	return tc.Text
}

// ---------------------------------------------------------------------------
// ListTools
// ---------------------------------------------------------------------------

func TestMCPListTools_HappyPath(t *testing.T) {
	c := qt.New(t)
	cl := newMCPClient(c)

	result, err := cl.ListTools(context.Background(), mcp.ListToolsRequest{})
	c.Assert(err, qt.IsNil)
	c.Assert(result.Tools, qt.HasLen, 5)

	names := make([]string, len(result.Tools))
	for i, tool := range result.Tools {
		names[i] = tool.Name
	}
	c.Assert(names, qt.Contains, "task_list")
	c.Assert(names, qt.Contains, "task_create")
	c.Assert(names, qt.Contains, "chat_send")
	c.Assert(names, qt.Contains, "chat_conversations")
	c.Assert(names, qt.Contains, "chat_summary")
}

// ---------------------------------------------------------------------------
// task_create / task_list
// ---------------------------------------------------------------------------

func TestMCPTaskCreate_HappyPath(t *testing.T) {
	c := qt.New(t)
	cl := newMCPClient(c)

	text := callTool(c, cl, "task_create", map[string]any{
		"title":       "Ship the release",
		"description": "cut, tag, announce",
		"due_date":    "2026-09-15",
		"team":        []string{"bob"},
	})

	c.Assert(text, checkers.JSONPathEquals("$.action"), "created")

	var created map[string]any
	c.Assert(json.Unmarshal([]byte(text), &created), qt.IsNil)
	c.Assert(created["id"], qt.IsNotNil)
}

func TestMCPTaskCreate_FailurePath(t *testing.T) {
	c := qt.New(t)
	cl := newMCPClient(c)

	c.Run("malformed due date", func(c *qt.C) {
		req := mcp.CallToolRequest{}
		req.Params.Name = "task_create"
		req.Params.Arguments = map[string]any{
			"title":    "bad date",
			"due_date": "15/09/2026",
		}
		result, err := cl.CallTool(context.Background(), req)
		c.Assert(err, qt.IsNil)
		c.Assert(result.IsError, qt.IsTrue)
	})

	c.Run("empty title", func(c *qt.C) {
		req := mcp.CallToolRequest{}
		req.Params.Name = "task_create"
		req.Params.Arguments = map[string]any{"title": "   "}
		result, err := cl.CallTool(context.Background(), req)
		c.Assert(err, qt.IsNil)
		c.Assert(result.IsError, qt.IsTrue)
	})
}

func TestMCPTaskList_HappyPath(t *testing.T) {
	c := qt.New(t)
	cl := newMCPClient(c)

	callTool(c, cl, "task_create", map[string]any{"title": "web redesign"})
	callTool(c, cl, "task_create", map[string]any{"title": "app rewrite"})

	c.Run("all tasks", func(c *qt.C) {
		text := callTool(c, cl, "task_list", map[string]any{})
		c.Assert(text, checkers.JSONPathEquals("$.total"), float64(2))
		c.Assert(text, checkers.JSONPathEquals("$.showing"), float64(2))
	})

	c.Run("search narrows showing but not total", func(c *qt.C) {
		text := callTool(c, cl, "task_list", map[string]any{"search": "WEB"})
		c.Assert(text, checkers.JSONPathEquals("$.total"), float64(2))
		c.Assert(text, checkers.JSONPathEquals("$.showing"), float64(1))
	})

	c.Run("completed filter is empty for fresh tasks", func(c *qt.C) {
		text := callTool(c, cl, "task_list", map[string]any{"status": "completed"})
		c.Assert(text, checkers.JSONPathEquals("$.showing"), float64(0))
	})
}

func TestMCPTaskList_Empty_HappyPath(t *testing.T) {
	c := qt.New(t)
	cl := newMCPClient(c)

	text := callTool(c, cl, "task_list", map[string]any{})
	c.Assert(text, checkers.JSONPathEquals("$.total"), float64(0))
}

// ---------------------------------------------------------------------------
// chat_send / chat_conversations
// ---------------------------------------------------------------------------

func TestMCPChatSend_HappyPath(t *testing.T) {
	c := qt.New(t)
	cl := newMCPClient(c)

	text := callTool(c, cl, "chat_send", map[string]any{
		"friend_id": "bob",
		"message":   "hello from the tool",
	})

	c.Assert(text, checkers.JSONPathEquals("$.action"), "sent")
	c.Assert(text, checkers.JSONPathEquals("$.chat_id"), "alice_bob")
}

func TestMCPChatConversations_HappyPath(t *testing.T) {
	c := qt.New(t)
	cl := newMCPClient(c)

	callTool(c, cl, "chat_send", map[string]any{
		"friend_id": "bob",
		"message":   "ping",
	})

	text := callTool(c, cl, "chat_conversations", map[string]any{})
	c.Assert(text, checkers.JSONPathEquals("$.total"), float64(1))

	var resp map[string]any
	c.Assert(json.Unmarshal([]byte(text), &resp), qt.IsNil)
	convs := resp["conversations"].([]any)
	first := convs[0].(map[string]any)
	c.Assert(first["friend_id"], qt.Equals, "bob")
	c.Assert(first["last_message"], qt.Equals, "ping")

	// Own outbound messages never count as unread.
	c.Assert(first["unread"], qt.Equals, float64(0))
}

func TestMCPChatSummary_FailurePath(t *testing.T) {
	c := qt.New(t)
	cl := newMCPClient(c)

	// No summarizer is configured in a fresh home.
	req := mcp.CallToolRequest{}
	req.Params.Name = "chat_summary"
	req.Params.Arguments = map[string]any{"friend_id": "bob"}
	result, err := cl.CallTool(context.Background(), req)
	c.Assert(err, qt.IsNil)
	c.Assert(result.IsError, qt.IsTrue)
}

// ---------------------------------------------------------------------------
// Failure path — unknown tool
// ---------------------------------------------------------------------------

func TestMCPCallTool_FailurePath(t *testing.T) {
	c := qt.New(t)
	cl := newMCPClient(c)

	c.Run("unknown tool name returns error", func(c *qt.C) {
		req := mcp.CallToolRequest{}
		req.Params.Name = "nonexistent_tool"
		req.Params.Arguments = make(map[string]any)

		_, err := cl.CallTool(context.Background(), req)
		c.Assert(err, qt.IsNotNil)
	})
}
