// Package service implements the SyncService orchestrator that wires together
// configuration, database, readers, mutations, views, and the summarizer.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/go-ports/teamflow/internal/config"
	"github.com/go-ports/teamflow/internal/db"
	"github.com/go-ports/teamflow/internal/derive"
	"github.com/go-ports/teamflow/internal/models"
	"github.com/go-ports/teamflow/internal/mutate"
	"github.com/go-ports/teamflow/internal/readers"
	"github.com/go-ports/teamflow/internal/session"
	"github.com/go-ports/teamflow/internal/store"
	"github.com/go-ports/teamflow/internal/summary"
	"github.com/go-ports/teamflow/internal/views"
)

// Service orchestrates all sync operations for one data home.
type Service struct {
	DataHome string
	Config   *config.TeamflowConfig

	database *db.DB
	reads    *readers.Readers
	ops      *mutate.Ops

	sess       session.Session
	summarizer summary.Provider
	summaryOK  bool
	mu         sync.Mutex
}

// New initialises a Service rooted at dataHome.
// If dataHome is empty it is resolved via config.GetDataHome.
func New(dataHome string) (*Service, error) {
	if dataHome == "" {
		dataHome = config.GetDataHome()
	}

	if err := os.MkdirAll(dataHome, 0o755); err != nil {
		return nil, fmt.Errorf("service.New: create data home: %w", err)
	}

	cfg, err := config.Load(filepath.Join(dataHome, "config.yaml"))
	if err != nil {
		return nil, fmt.Errorf("service.New: load config: %w", err)
	}

	database, err := db.Open(filepath.Join(dataHome, "teamflow.db"))
	if err != nil {
		return nil, fmt.Errorf("service.New: open db: %w", err)
	}

	return &Service{
		DataHome: dataHome,
		Config:   cfg,
		database: database,
		reads:    readers.New(database, cfg.Sync.FanoutLimit),
		ops:      mutate.New(database),
	}, nil
}

// Close releases all resources held by the service.
func (s *Service) Close() error {
	return s.database.Close()
}

// Store exposes the underlying document store.
func (s *Service) Store() store.Store {
	return s.database
}

// ---------------------------------------------------------------------------
// Session
// ---------------------------------------------------------------------------

// SignIn loads the user record and binds the service to that session.
func (s *Service) SignIn(ctx context.Context, userID string) error {
	u, found, err := s.reads.User(ctx, userID)
	if err != nil {
		return fmt.Errorf("SignIn: %w", err)
	}
	if !found {
		return fmt.Errorf("SignIn: unknown user %q", userID)
	}
	s.sess = session.FromUser(u)
	return nil
}

// Session returns the current session; zero value when not signed in.
func (s *Service) Session() session.Session {
	return s.sess
}

// CurrentUser returns the signed-in user's record.
func (s *Service) CurrentUser(ctx context.Context) (models.User, error) {
	u, found, err := s.reads.User(ctx, s.sess.UserID)
	if err != nil {
		return models.User{}, err
	}
	if !found {
		return models.User{}, fmt.Errorf("CurrentUser: user %q not found", s.sess.UserID)
	}
	return u, nil
}

// Register creates or merges the user record and signs in as that user.
func (s *Service) Register(ctx context.Context, u models.User) (string, error) {
	if u.ID == "" {
		u.ID = models.NewID()
	}
	if err := s.ops.RegisterUser(ctx, u); err != nil {
		return "", err
	}
	if err := s.SignIn(ctx, u.ID); err != nil {
		return "", err
	}
	return u.ID, nil
}

// UpdateProfile applies partial profile edits to the signed-in user.
func (s *Service) UpdateProfile(ctx context.Context, fields store.Record) error {
	return s.ops.UpdateProfile(ctx, s.sess, fields)
}

// Heartbeat stamps the signed-in user's lastActive field.
func (s *Service) Heartbeat(ctx context.Context) error {
	return s.ops.Heartbeat(ctx, s.sess)
}

// RunHeartbeat stamps lastActive immediately and then on every interval tick
// until ctx is cancelled. Tick failures are logged and do not stop the loop.
func (s *Service) RunHeartbeat(ctx context.Context) {
	interval := time.Duration(s.Config.Sync.HeartbeatInterval) * time.Second
	if err := s.Heartbeat(ctx); err != nil {
		slog.Warn("heartbeat", "err", err)
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.Heartbeat(ctx); err != nil {
				slog.Warn("heartbeat", "err", err)
			}
		}
	}
}

// Presence renders a friend's last-activity as a human-readable status.
func (s *Service) Presence(ctx context.Context, userID string) (string, error) {
	u, found, err := s.reads.User(ctx, userID)
	if err != nil {
		return "", err
	}
	if !found {
		return "", fmt.Errorf("Presence: unknown user %q", userID)
	}
	window := time.Duration(s.Config.Sync.OnlineWindowSecs) * time.Second
	return derive.LastSeen(u.LastActive, time.Now(), window), nil
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

// Tasks returns the signed-in user's tasks, newest first.
func (s *Service) Tasks(ctx context.Context) ([]models.Task, error) {
	tasks, err := s.reads.TasksFor(ctx, s.sess)
	if err != nil {
		return nil, err
	}
	return derive.SortByCreated(tasks), nil
}

// Task fetches one task by id.
func (s *Service) Task(ctx context.Context, id string) (models.Task, bool, error) {
	return s.reads.Task(ctx, id)
}

// CreateTask creates a task and fans it out to every participant.
func (s *Service) CreateTask(ctx context.Context, in mutate.TaskInput) (string, error) {
	return s.ops.CreateTask(ctx, s.sess, in)
}

// RetryCreateTask re-runs a partially failed creation for the same task id.
func (s *Service) RetryCreateTask(ctx context.Context, taskID string, in mutate.TaskInput) error {
	return s.ops.RetryCreateTask(ctx, s.sess, taskID, in)
}

// AddSubtask appends an unchecked subtask and returns the updated task.
func (s *Service) AddSubtask(ctx context.Context, taskID, name string) (models.Task, error) {
	return s.ops.AddSubtask(ctx, s.sess, taskID, name)
}

// ToggleSubtask flips one subtask's checked state and returns the updated task.
func (s *Service) ToggleSubtask(ctx context.Context, taskID string, index int) (models.Task, error) {
	return s.ops.ToggleSubtask(ctx, s.sess, taskID, index)
}

// Schedule returns the user's tasks due on the given calendar day.
func (s *Service) Schedule(ctx context.Context, day time.Time) ([]models.Task, error) {
	tasks, err := s.reads.TasksFor(ctx, s.sess)
	if err != nil {
		return nil, err
	}
	return derive.TasksOn(tasks, day), nil
}

// TaskBoard opens a live task-board view for the signed-in user.
func (s *Service) TaskBoard(ctx context.Context) (*views.TaskBoard, error) {
	return views.NewTaskBoard(ctx, s.database, s.sess)
}

// ---------------------------------------------------------------------------
// Chat
// ---------------------------------------------------------------------------

// Friends resolves the signed-in user's friend list to user records.
func (s *Service) Friends(ctx context.Context) ([]models.User, error) {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}
	return s.reads.ResolveUsers(ctx, u.Friends), nil
}

// ResolveMembers resolves user ids to team-member snapshots, preserving
// order and skipping ids that do not resolve.
func (s *Service) ResolveMembers(ctx context.Context, ids []string) []models.TeamMember {
	users := s.reads.ResolveUsers(ctx, ids)
	members := make([]models.TeamMember, len(users))
	for i, u := range users {
		members[i] = models.TeamMember{ID: u.ID, Name: u.Name, Avatar: u.Avatar}
	}
	return members
}

// Conversations returns the per-friend conversation summaries, most recent first.
func (s *Service) Conversations(ctx context.Context) ([]models.Conversation, error) {
	return s.reads.Conversations(ctx, s.sess)
}

// Messages returns the direct-chat history with a friend, oldest first.
func (s *Service) Messages(ctx context.Context, friendID string) ([]models.Message, error) {
	return s.reads.Messages(ctx, models.ChatID(s.sess.UserID, friendID))
}

// SendMessage sends a direct message and links both participants as friends.
func (s *Service) SendMessage(ctx context.Context, friendID, text string) (string, error) {
	return s.ops.SendMessage(ctx, s.sess, friendID, text)
}

// MarkSeen flips every unseen inbound message in the chat to seen.
// Returns the number of messages updated.
func (s *Service) MarkSeen(ctx context.Context, friendID string) (int, error) {
	return s.ops.MarkSeen(ctx, s.sess, models.ChatID(s.sess.UserID, friendID))
}

// ClearChat deletes the full direct-chat history with a friend.
func (s *Service) ClearChat(ctx context.Context, friendID string) (int, error) {
	return s.ops.ClearChat(ctx, s.sess, models.ChatID(s.sess.UserID, friendID))
}

// ConversationList opens a live conversation-list view.
func (s *Service) ConversationList(ctx context.Context) (*views.ConversationList, error) {
	return views.NewConversationList(ctx, s.database, s.reads, s.ops, s.sess)
}

// MessageView opens a live direct-chat view with a friend.
func (s *Service) MessageView(ctx context.Context, friendID string) (*views.MessageView, error) {
	return views.NewMessageView(ctx, s.database, s.ops, s.sess, friendID)
}

// ---------------------------------------------------------------------------
// Groups
// ---------------------------------------------------------------------------

// Groups returns the groups the signed-in user belongs to.
func (s *Service) Groups(ctx context.Context) ([]models.Group, error) {
	return s.reads.GroupsFor(ctx, s.sess)
}

// CreateGroup creates a group chat and fans it out to every member.
func (s *Service) CreateGroup(ctx context.Context, name string, memberIDs []string) (string, error) {
	return s.ops.CreateGroup(ctx, s.sess, name, memberIDs)
}

// RetryCreateGroup re-runs a partially failed creation for the same group id.
func (s *Service) RetryCreateGroup(ctx context.Context, groupID, name string, memberIDs []string) error {
	return s.ops.RetryCreateGroup(ctx, s.sess, groupID, name, memberIDs)
}

// GroupMessages returns a group's chat history, oldest first.
func (s *Service) GroupMessages(ctx context.Context, groupID string) ([]models.Message, error) {
	return s.reads.GroupMessages(ctx, groupID)
}

// SendGroupMessage posts a message to a group chat.
func (s *Service) SendGroupMessage(ctx context.Context, groupID, text string) (string, error) {
	return s.ops.SendGroupMessage(ctx, s.sess, groupID, text)
}

// ClearGroupChat deletes a group's full chat history.
func (s *Service) ClearGroupChat(ctx context.Context, groupID string) (int, error) {
	return s.ops.ClearGroupChat(ctx, s.sess, groupID)
}

// GroupMessageView opens a live group-chat view.
func (s *Service) GroupMessageView(ctx context.Context, groupID string) (*views.MessageView, error) {
	return views.NewGroupMessageView(ctx, s.database, s.ops, s.sess, groupID)
}

// ---------------------------------------------------------------------------
// Notifications / company
// ---------------------------------------------------------------------------

// Notifications returns the signed-in user's notifications, newest first.
func (s *Service) Notifications(ctx context.Context) ([]models.Notification, error) {
	return s.reads.Notifications(ctx, s.sess)
}

// NotificationFeed opens a live notification view.
func (s *Service) NotificationFeed(ctx context.Context) (*views.NotificationFeed, error) {
	return views.NewNotificationFeed(ctx, s.database, s.sess)
}

// Company returns the signed-in user's company record, if linked.
func (s *Service) Company(ctx context.Context) (models.Company, bool, error) {
	u, err := s.CurrentUser(ctx)
	if err != nil {
		return models.Company{}, false, err
	}
	if u.CompanyID == "" {
		return models.Company{}, false, nil
	}
	return s.reads.Company(ctx, u.CompanyID)
}

// SaveCompany creates or updates the admin's company record.
func (s *Service) SaveCompany(ctx context.Context, in models.Company) (string, error) {
	return s.ops.SaveCompany(ctx, s.sess, in)
}

// ---------------------------------------------------------------------------
// Summaries
// ---------------------------------------------------------------------------

// summaryProvider returns the Provider, lazily initialising it (thread-safe).
// Returns nil when no summarizer is configured.
func (s *Service) summaryProvider() (summary.Provider, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.summaryOK {
		return s.summarizer, nil
	}
	p, err := summary.NewProvider(s.Config)
	if err != nil {
		return nil, err
	}
	s.summarizer = p
	s.summaryOK = true
	return p, nil
}

// SummarizeChat condenses the direct-chat history with a friend.
func (s *Service) SummarizeChat(ctx context.Context, friendID string) (string, error) {
	msgs, err := s.Messages(ctx, friendID)
	if err != nil {
		return "", err
	}
	return s.summarize(ctx, msgs)
}

// SummarizeGroupChat condenses a group's chat history.
func (s *Service) SummarizeGroupChat(ctx context.Context, groupID string) (string, error) {
	msgs, err := s.GroupMessages(ctx, groupID)
	if err != nil {
		return "", err
	}
	return s.summarize(ctx, msgs)
}

func (s *Service) summarize(ctx context.Context, msgs []models.Message) (string, error) {
	p, err := s.summaryProvider()
	if err != nil {
		return "", fmt.Errorf("summarize: %w", err)
	}
	if p == nil {
		return "", fmt.Errorf("summarize: no summarizer configured")
	}
	if len(msgs) == 0 {
		return "", fmt.Errorf("summarize: no messages to summarize")
	}
	texts := make([]string, len(msgs))
	for i, m := range msgs {
		texts[i] = m.Text
	}
	return p.Summarize(ctx, texts)
}
