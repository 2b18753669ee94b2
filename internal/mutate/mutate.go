// Package mutate implements the write paths: every operation performs its
// primary write followed by its dependent writes. There is no cross-document
// transaction; each step is idempotent so a failed sequence is retried
// forward rather than rolled back.
package mutate

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-ports/teamflow/internal/derive"
	"github.com/go-ports/teamflow/internal/models"
	"github.com/go-ports/teamflow/internal/session"
	"github.com/go-ports/teamflow/internal/store"
)

// Validation failures surfaced before any write is issued.
var (
	ErrEmptyTitle   = errors.New("task title is required")
	ErrEmptyName    = errors.New("name is required")
	ErrEmptyMessage = errors.New("message text is required")
	ErrNoMembers    = errors.New("at least one member is required")
	ErrNotSignedIn  = errors.New("no signed-in user")
)

// PartialError reports a dependent-write sequence that failed after its
// primary write succeeded. The primary document exists; re-running the
// operation for the same id completes the remaining idempotent steps.
type PartialError struct {
	Op   string // "create task", "create group", "send message"
	ID   string // id of the primary document
	Step string // the step that failed
	Err  error
}

func (e *PartialError) Error() string {
	return fmt.Sprintf("%s %s: step %q failed: %v", e.Op, e.ID, e.Step, e.Err)
}

func (e *PartialError) Unwrap() error { return e.Err }

// Ops performs mutations against the store. now is injectable for tests.
type Ops struct {
	store store.Store
	now   func() time.Time
}

// New returns Ops over st using the wall clock.
func New(st store.Store) *Ops {
	return &Ops{store: st, now: func() time.Time { return time.Now().UTC() }}
}

// NewAt returns Ops with a caller-supplied clock.
func NewAt(st store.Store, now func() time.Time) *Ops {
	return &Ops{store: st, now: now}
}

// ---------------------------------------------------------------------------
// Tasks
// ---------------------------------------------------------------------------

// TaskInput is the caller-supplied data for task creation.
type TaskInput struct {
	Title       string
	Description string
	DueDate     time.Time
	Team        []models.TeamMember
}

// CreateTask writes the task document, adds the task id to every
// participant's and the creator's task-id list, then writes a notification.
// The three writes have independent failure modes; on a step failure the
// returned *PartialError names the step and RetryCreateTask can re-run the
// sequence for the same task id. Creation is not deduplicated: identical
// input twice yields two distinct tasks.
func (o *Ops) CreateTask(ctx context.Context, sess session.Session, in TaskInput) (string, error) {
	if sess.Anonymous() {
		return "", ErrNotSignedIn
	}
	if strings.TrimSpace(in.Title) == "" {
		return "", ErrEmptyTitle
	}
	taskID := models.NewID()
	return taskID, o.runCreateTask(ctx, sess, taskID, in)
}

// RetryCreateTask re-runs the creation sequence for a task id returned by a
// failed CreateTask. Every step is idempotent: the task doc is set under
// the same id, memberships use array-union, and the notification has a
// deterministic id.
func (o *Ops) RetryCreateTask(ctx context.Context, sess session.Session, taskID string, in TaskInput) error {
	if sess.Anonymous() {
		return ErrNotSignedIn
	}
	if strings.TrimSpace(in.Title) == "" {
		return ErrEmptyTitle
	}
	return o.runCreateTask(ctx, sess, taskID, in)
}

func (o *Ops) runCreateTask(ctx context.Context, sess session.Session, taskID string, in TaskInput) error {
	task := models.Task{
		ID:          taskID,
		Title:       strings.TrimSpace(in.Title),
		Description: in.Description,
		Progress:    0,
		Team:        in.Team,
		DueDate:     in.DueDate,
		CreatedAt:   o.now(),
	}
	fields, err := store.Encode(task)
	if err != nil {
		return fmt.Errorf("CreateTask: %w", err)
	}
	if err := o.store.SetDocument(ctx, models.CollectionTasks, taskID, fields, false); err != nil {
		return &PartialError{Op: "create task", ID: taskID, Step: "write task", Err: err}
	}

	memberIDs := make([]string, 0, len(in.Team)+1)
	receiverIDs := make([]string, 0, len(in.Team))
	for _, m := range in.Team {
		memberIDs = append(memberIDs, m.ID)
		if m.ID != sess.UserID {
			receiverIDs = append(receiverIDs, m.ID)
		}
	}
	if !contains(memberIDs, sess.UserID) {
		memberIDs = append(memberIDs, sess.UserID)
	}

	for _, id := range memberIDs {
		err := o.store.UpdateDocument(ctx, models.CollectionUsers, id, store.Record{
			"taskId": store.Union(taskID),
		})
		if err != nil {
			return &PartialError{Op: "create task", ID: taskID, Step: "assign " + id, Err: err}
		}
	}

	note := models.Notification{
		SenderID:    sess.UserID,
		ReceiverIDs: receiverIDs,
		TaskID:      taskID,
		Text:        "You have been assigned a new task: " + task.Title,
		Timestamp:   o.now(),
	}
	noteFields, err := store.Encode(note)
	if err != nil {
		return fmt.Errorf("CreateTask: %w", err)
	}
	// Deterministic notification id keeps the retry path duplicate-free.
	if err := o.store.SetDocument(ctx, models.CollectionNotifications, "task-"+taskID, noteFields, false); err != nil {
		return &PartialError{Op: "create task", ID: taskID, Step: "notify", Err: err}
	}
	return nil
}

// AddSubtask appends a subtask and persists the recomputed progress in the
// same write, keeping the progress invariant on every path.
func (o *Ops) AddSubtask(ctx context.Context, sess session.Session, taskID, name string) (models.Task, error) {
	if sess.Anonymous() {
		return models.Task{}, ErrNotSignedIn
	}
	if strings.TrimSpace(name) == "" {
		return models.Task{}, ErrEmptyName
	}
	task, err := o.loadTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	task.Subtasks = append(task.Subtasks, models.Subtask{
		Name:      strings.TrimSpace(name),
		Checked:   false,
		CreaterID: sess.UserID,
	})
	return o.saveSubtasks(ctx, task)
}

// ToggleSubtask flips the checked state of the subtask at index and persists
// the recomputed progress in the same write.
func (o *Ops) ToggleSubtask(ctx context.Context, sess session.Session, taskID string, index int) (models.Task, error) {
	if sess.Anonymous() {
		return models.Task{}, ErrNotSignedIn
	}
	task, err := o.loadTask(ctx, taskID)
	if err != nil {
		return models.Task{}, err
	}
	if index < 0 || index >= len(task.Subtasks) {
		return models.Task{}, fmt.Errorf("ToggleSubtask %s: index %d out of range [0, %d)", taskID, index, len(task.Subtasks))
	}
	task.Subtasks[index].Checked = !task.Subtasks[index].Checked
	return o.saveSubtasks(ctx, task)
}

func (o *Ops) loadTask(ctx context.Context, taskID string) (models.Task, error) {
	fields, found, err := o.store.GetDocument(ctx, models.CollectionTasks, taskID)
	if err != nil {
		return models.Task{}, fmt.Errorf("load task %s: %w", taskID, err)
	}
	if !found {
		return models.Task{}, fmt.Errorf("load task %s: %w", taskID, store.ErrNotFound)
	}
	fields["id"] = taskID
	return store.Decode[models.Task](fields)
}

func (o *Ops) saveSubtasks(ctx context.Context, task models.Task) (models.Task, error) {
	task.Progress = derive.Progress(task.Subtasks)
	subFields, err := store.EncodeValue(task.Subtasks)
	if err != nil {
		return models.Task{}, fmt.Errorf("save subtasks %s: %w", task.ID, err)
	}
	err = o.store.UpdateDocument(ctx, models.CollectionTasks, task.ID, store.Record{
		"subtasks": subFields,
		"progress": task.Progress,
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("save subtasks %s: %w", task.ID, err)
	}
	return task, nil
}

// ---------------------------------------------------------------------------
// Chat
// ---------------------------------------------------------------------------

// SendMessage writes the message as sent, then adds each participant to the
// other's friends list. The membership writes are array-union and therefore
// safe to re-run; a failure after the message write returns *PartialError.
func (o *Ops) SendMessage(ctx context.Context, sess session.Session, receiverID, text string) (string, error) {
	if sess.Anonymous() {
		return "", ErrNotSignedIn
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}
	chatID := models.ChatID(sess.UserID, receiverID)
	msg := models.Message{
		SenderID:   sess.UserID,
		ReceiverID: receiverID,
		Text:       strings.TrimSpace(text),
		Timestamp:  o.now(),
		Status:     models.StatusSent,
	}
	fields, err := store.Encode(msg)
	if err != nil {
		return "", fmt.Errorf("SendMessage: %w", err)
	}
	msgID, err := o.store.AddDocument(ctx, models.MessagesCollection(chatID), fields)
	if err != nil {
		return "", fmt.Errorf("SendMessage: %w", err)
	}

	err = o.store.UpdateDocument(ctx, models.CollectionUsers, sess.UserID, store.Record{
		"friends": store.Union(receiverID),
	})
	if err != nil {
		return msgID, &PartialError{Op: "send message", ID: msgID, Step: "friend " + sess.UserID, Err: err}
	}
	err = o.store.UpdateDocument(ctx, models.CollectionUsers, receiverID, store.Record{
		"friends": store.Union(sess.UserID),
	})
	if err != nil {
		return msgID, &PartialError{Op: "send message", ID: msgID, Step: "friend " + receiverID, Err: err}
	}
	return msgID, nil
}

// SendGroupMessage appends a message to the group's message collection.
// Group messages carry no receiver and no read state.
func (o *Ops) SendGroupMessage(ctx context.Context, sess session.Session, groupID, text string) (string, error) {
	if sess.Anonymous() {
		return "", ErrNotSignedIn
	}
	if strings.TrimSpace(text) == "" {
		return "", ErrEmptyMessage
	}
	msg := models.Message{
		SenderID:  sess.UserID,
		GroupID:   groupID,
		Text:      strings.TrimSpace(text),
		Timestamp: o.now(),
	}
	fields, err := store.Encode(msg)
	if err != nil {
		return "", fmt.Errorf("SendGroupMessage: %w", err)
	}
	id, err := o.store.AddDocument(ctx, models.GroupMessagesCollection(groupID), fields)
	if err != nil {
		return "", fmt.Errorf("SendGroupMessage: %w", err)
	}
	return id, nil
}

// MarkSeen flips every sent message addressed to the session user in the
// chat to seen, in one batched write. Returns the number of messages
// updated.
func (o *Ops) MarkSeen(ctx context.Context, sess session.Session, chatID string) (int, error) {
	if sess.Anonymous() {
		return 0, ErrNotSignedIn
	}
	collection := models.MessagesCollection(chatID)
	docs, err := o.store.QueryDocuments(ctx, collection, store.Query{Wheres: []store.Where{
		store.Eq("status", models.StatusSent),
		store.Eq("receiverId", sess.UserID),
	}})
	if err != nil {
		return 0, fmt.Errorf("MarkSeen %s: %w", chatID, err)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	ops := make([]store.WriteOp, 0, len(docs))
	for _, d := range docs {
		ops = append(ops, store.WriteOp{
			Kind:       store.WriteUpdate,
			Collection: collection,
			ID:         d.ID,
			Fields:     store.Record{"status": models.StatusSeen},
		})
	}
	if err := o.store.BatchWrite(ctx, ops); err != nil {
		return 0, fmt.Errorf("MarkSeen %s: %w", chatID, err)
	}
	return len(ops), nil
}

// ClearChat deletes every message of a direct chat in one batched write.
// The batch is atomic but unbounded in size.
func (o *Ops) ClearChat(ctx context.Context, sess session.Session, chatID string) (int, error) {
	return o.clearCollection(ctx, sess, models.MessagesCollection(chatID))
}

// ClearGroupChat deletes every message of a group in one batched write.
func (o *Ops) ClearGroupChat(ctx context.Context, sess session.Session, groupID string) (int, error) {
	return o.clearCollection(ctx, sess, models.GroupMessagesCollection(groupID))
}

func (o *Ops) clearCollection(ctx context.Context, sess session.Session, collection string) (int, error) {
	if sess.Anonymous() {
		return 0, ErrNotSignedIn
	}
	docs, err := o.store.QueryDocuments(ctx, collection, store.Query{})
	if err != nil {
		return 0, fmt.Errorf("clear %s: %w", collection, err)
	}
	if len(docs) == 0 {
		return 0, nil
	}
	ops := make([]store.WriteOp, 0, len(docs))
	for _, d := range docs {
		ops = append(ops, store.WriteOp{Kind: store.WriteDelete, Collection: collection, ID: d.ID})
	}
	if err := o.store.BatchWrite(ctx, ops); err != nil {
		return 0, fmt.Errorf("clear %s: %w", collection, err)
	}
	return len(ops), nil
}

// ---------------------------------------------------------------------------
// Groups
// ---------------------------------------------------------------------------

// CreateGroup writes the group document, adds the group id to every
// member's group list, then writes a notification. Same retry-forward
// contract as CreateTask.
func (o *Ops) CreateGroup(ctx context.Context, sess session.Session, name string, memberIDs []string) (string, error) {
	if sess.Anonymous() {
		return "", ErrNotSignedIn
	}
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptyName
	}
	if len(memberIDs) == 0 {
		return "", ErrNoMembers
	}
	groupID := models.NewID()
	return groupID, o.runCreateGroup(ctx, sess, groupID, name, memberIDs)
}

// RetryCreateGroup re-runs the creation sequence for a group id returned by
// a failed CreateGroup.
func (o *Ops) RetryCreateGroup(ctx context.Context, sess session.Session, groupID, name string, memberIDs []string) error {
	if sess.Anonymous() {
		return ErrNotSignedIn
	}
	return o.runCreateGroup(ctx, sess, groupID, name, memberIDs)
}

func (o *Ops) runCreateGroup(ctx context.Context, sess session.Session, groupID, name string, memberIDs []string) error {
	members := memberIDs
	if !contains(members, sess.UserID) {
		members = append(append([]string{}, memberIDs...), sess.UserID)
	}
	group := models.Group{ID: groupID, Name: strings.TrimSpace(name), Members: members}
	fields, err := store.Encode(group)
	if err != nil {
		return fmt.Errorf("CreateGroup: %w", err)
	}
	if err := o.store.SetDocument(ctx, models.CollectionGroups, groupID, fields, false); err != nil {
		return &PartialError{Op: "create group", ID: groupID, Step: "write group", Err: err}
	}

	for _, id := range members {
		err := o.store.UpdateDocument(ctx, models.CollectionUsers, id, store.Record{
			"groupId": store.Union(groupID),
		})
		if err != nil {
			return &PartialError{Op: "create group", ID: groupID, Step: "member " + id, Err: err}
		}
	}

	receivers := make([]string, 0, len(members))
	for _, id := range members {
		if id != sess.UserID {
			receivers = append(receivers, id)
		}
	}
	note := models.Notification{
		SenderID:    sess.UserID,
		ReceiverIDs: receivers,
		GroupID:     groupID,
		Text:        "You have been added to the group " + group.Name,
		Timestamp:   o.now(),
	}
	noteFields, err := store.Encode(note)
	if err != nil {
		return fmt.Errorf("CreateGroup: %w", err)
	}
	if err := o.store.SetDocument(ctx, models.CollectionNotifications, "group-"+groupID, noteFields, false); err != nil {
		return &PartialError{Op: "create group", ID: groupID, Step: "notify", Err: err}
	}
	return nil
}

// ---------------------------------------------------------------------------
// Users and companies
// ---------------------------------------------------------------------------

// RegisterUser creates the user document written at signup, or merges the
// profile fields into an existing one.
func (o *Ops) RegisterUser(ctx context.Context, u models.User) error {
	if u.ID == "" {
		return ErrNotSignedIn
	}
	if strings.TrimSpace(u.Name) == "" {
		return ErrEmptyName
	}
	if u.Role == "" {
		u.Role = models.RoleUser
	}
	fields, err := store.Encode(u)
	if err != nil {
		return fmt.Errorf("RegisterUser: %w", err)
	}
	if err := o.store.SetDocument(ctx, models.CollectionUsers, u.ID, fields, true); err != nil {
		return fmt.Errorf("RegisterUser: %w", err)
	}
	return nil
}

// UpdateProfile merges name/avatar edits into the user document. Team
// snapshots on existing tasks are deliberately left stale.
func (o *Ops) UpdateProfile(ctx context.Context, sess session.Session, fields store.Record) error {
	if sess.Anonymous() {
		return ErrNotSignedIn
	}
	if err := o.store.UpdateDocument(ctx, models.CollectionUsers, sess.UserID, fields); err != nil {
		return fmt.Errorf("UpdateProfile: %w", err)
	}
	return nil
}

// Heartbeat stamps the session user's lastActive for presence.
func (o *Ops) Heartbeat(ctx context.Context, sess session.Session) error {
	if sess.Anonymous() {
		return ErrNotSignedIn
	}
	err := o.store.UpdateDocument(ctx, models.CollectionUsers, sess.UserID, store.Record{
		"lastActive": o.now().Format(time.RFC3339Nano),
	})
	if err != nil {
		return fmt.Errorf("Heartbeat: %w", err)
	}
	return nil
}

// SaveCompany creates the company on first save and sets the owner's
// companyId; subsequent saves update the company in place. Only admins may
// save company info.
func (o *Ops) SaveCompany(ctx context.Context, sess session.Session, in models.Company) (string, error) {
	if sess.Anonymous() {
		return "", ErrNotSignedIn
	}
	if !sess.Admin {
		return "", fmt.Errorf("SaveCompany: admin role required")
	}
	if strings.TrimSpace(in.Name) == "" {
		return "", ErrEmptyName
	}

	u, found, err := o.store.GetDocument(ctx, models.CollectionUsers, sess.UserID)
	if err != nil {
		return "", fmt.Errorf("SaveCompany: %w", err)
	}
	companyID := ""
	if found {
		companyID, _ = u["companyId"].(string)
	}

	if companyID != "" {
		err := o.store.UpdateDocument(ctx, models.CollectionCompanies, companyID, store.Record{
			"name":    strings.TrimSpace(in.Name),
			"address": in.Address,
			"website": in.Website,
			"about":   in.About,
		})
		if err != nil {
			return "", fmt.Errorf("SaveCompany: %w", err)
		}
		return companyID, nil
	}

	in.ID = models.NewID()
	in.OwnerID = sess.UserID
	fields, err := store.Encode(in)
	if err != nil {
		return "", fmt.Errorf("SaveCompany: %w", err)
	}
	if err := o.store.SetDocument(ctx, models.CollectionCompanies, in.ID, fields, false); err != nil {
		return "", fmt.Errorf("SaveCompany: %w", err)
	}
	err = o.store.UpdateDocument(ctx, models.CollectionUsers, sess.UserID, store.Record{
		"companyId": in.ID,
	})
	if err != nil {
		return in.ID, &PartialError{Op: "save company", ID: in.ID, Step: "link owner", Err: err}
	}
	return in.ID, nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
