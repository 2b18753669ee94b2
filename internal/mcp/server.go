// Package mcp provides the stdio MCP server exposing task and chat tools.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/go-ports/teamflow/internal/buildinfo"
	"github.com/go-ports/teamflow/internal/derive"
	"github.com/go-ports/teamflow/internal/models"
	"github.com/go-ports/teamflow/internal/mutate"
	"github.com/go-ports/teamflow/internal/service"
)

const taskListDescription = `List the signed-in user's tasks with progress derived from their subtask checklists. Supports optional substring search on titles and an ongoing/completed filter.` //nolint:lll

const taskCreateDescription = `Create a shared task, assign it to the given team members, and notify them. The task id is returned; identical input twice creates two distinct tasks.` //nolint:lll

const chatSendDescription = `Send a direct chat message to another user. The two participants are linked as friends on first contact.`

const chatConversationsDescription = `List conversation summaries for every friend: latest message, its time, and the count of inbound messages not yet seen. Sorted most recent first.` //nolint:lll

const chatSummaryDescription = `Summarize the direct-chat history with a friend in two to three lines using the configured summarizer.`

// NewServer creates and registers all tools on a new MCP server.
// It is intentionally separate from Serve so that tests and other callers can
// obtain a fully configured server without committing to the stdio transport.
func NewServer(svc *service.Service) *mcpserver.MCPServer {
	s := mcpserver.NewMCPServer("teamflow", buildinfo.Version)
	registerTools(s, svc)
	return s
}

// Serve starts the stdio MCP server as userID, blocking until stdin closes.
func Serve(ctx context.Context, dataHome, userID string) error {
	svc, err := service.New(dataHome)
	if err != nil {
		return fmt.Errorf("mcp: init service: %w", err)
	}
	defer svc.Close()

	if err := svc.SignIn(ctx, userID); err != nil {
		return fmt.Errorf("mcp: %w", err)
	}

	// Keep the user's presence fresh for as long as the server runs.
	hbCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go svc.RunHeartbeat(hbCtx)

	return mcpserver.ServeStdio(NewServer(svc))
}

// registerTools wires all five MCP tools into the server.
func registerTools(s *mcpserver.MCPServer, svc *service.Service) {
	s.AddTool(mcp.NewTool("task_list",
		mcp.WithDescription(taskListDescription),
		mcp.WithString("search",
			mcp.Description("Case-insensitive substring match on task titles."),
		),
		mcp.WithString("status",
			mcp.Description("Filter: ongoing (progress < 100), completed, or all (default)."),
			mcp.Enum("ongoing", "completed", "all"),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleTaskList(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("task_create",
		mcp.WithDescription(taskCreateDescription),
		mcp.WithString("title",
			mcp.Description("Task title."),
			mcp.Required(),
		),
		mcp.WithString("description",
			mcp.Description("Longer free-form description."),
		),
		mcp.WithString("due_date",
			mcp.Description("Due date, YYYY-MM-DD."),
		),
		mcp.WithArray("team",
			mcp.Description("User ids of the assigned team members."),
			mcp.WithStringItems(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleTaskCreate(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("chat_send",
		mcp.WithDescription(chatSendDescription),
		mcp.WithString("friend_id",
			mcp.Description("Receiver's user id."),
			mcp.Required(),
		),
		mcp.WithString("message",
			mcp.Description("Message text."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleChatSend(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("chat_conversations",
		mcp.WithDescription(chatConversationsDescription),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleChatConversations(ctx, svc, req)
	})

	s.AddTool(mcp.NewTool("chat_summary",
		mcp.WithDescription(chatSummaryDescription),
		mcp.WithString("friend_id",
			mcp.Description("Friend's user id."),
			mcp.Required(),
		),
	), func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return handleChatSummary(ctx, svc, req)
	})
}

// ---------------------------------------------------------------------------
// Tool handlers
// ---------------------------------------------------------------------------

func handleTaskList(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tasks, err := svc.Tasks(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	total := len(tasks)

	if search := req.GetString("search", ""); search != "" {
		tasks = derive.FilterTasks(tasks, search)
	}
	switch req.GetString("status", "all") {
	case "ongoing":
		tasks, _ = derive.PartitionTasks(tasks)
	case "completed":
		_, tasks = derive.PartitionTasks(tasks)
	}

	clean := make([]map[string]any, 0, len(tasks))
	for _, t := range tasks {
		clean = append(clean, map[string]any{
			"id":       t.ID,
			"title":    t.Title,
			"progress": t.Progress,
			"due":      formatDay(t.DueDate),
			"team":     len(t.Team),
			"subtasks": len(t.Subtasks),
		})
	}
	return jsonResult(map[string]any{
		"total":   total,
		"showing": len(clean),
		"tasks":   clean,
	})
}

func handleTaskCreate(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in := mutate.TaskInput{
		Title:       req.GetString("title", ""),
		Description: req.GetString("description", ""),
		Team:        svc.ResolveMembers(ctx, req.GetStringSlice("team", make([]string, 0))),
	}
	if due := req.GetString("due_date", ""); due != "" {
		t, err := time.Parse("2006-01-02", due)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid due_date %q: expected YYYY-MM-DD", due)), nil
		}
		in.DueDate = t
	}

	id, err := svc.CreateTask(ctx, in)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"id":     id,
		"action": "created",
	})
}

func handleChatSend(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	friendID := req.GetString("friend_id", "")
	msgID, err := svc.SendMessage(ctx, friendID, req.GetString("message", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"id":      msgID,
		"chat_id": models.ChatID(svc.Session().UserID, friendID),
		"action":  "sent",
	})
}

func handleChatConversations(ctx context.Context, svc *service.Service, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	convs, err := svc.Conversations(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	clean := make([]map[string]any, 0, len(convs))
	for _, c := range convs {
		clean = append(clean, map[string]any{
			"friend_id":    c.FriendID,
			"name":         c.Name,
			"last_message": c.LastMessage,
			"last_time":    formatTime(c.LastMessageTime),
			"unread":       c.UnreadCount,
		})
	}
	return jsonResult(map[string]any{
		"total":         len(clean),
		"conversations": clean,
	})
}

func handleChatSummary(ctx context.Context, svc *service.Service, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text, err := svc.SummarizeChat(ctx, req.GetString("friend_id", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(map[string]any{
		"summary": text,
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}

func formatDay(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format("2006-01-02")
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
