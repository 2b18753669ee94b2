package views

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

// TaskBoard maintains the session user's task lists for the home screen:
// ongoing and completed partitions with search text and filter tags layered
// on top. Two subscriptions feed it: the user document carries the
// denormalized task-id list and the tasks collection carries the tasks.
// The latest payload of each is authoritative for its query.
type TaskBoard struct {
	sess session.Session
	st   store.Store

	mu      sync.Mutex
	taskIDs map[string]bool
	tasks   []models.Task
	search  string
	tag     string
	closed  bool

	unsubs  []func()
	changed notifier
}

// NewTaskBoard registers the user and task subscriptions. An anonymous
// session yields an inert, empty board.
func NewTaskBoard(ctx context.Context, st store.Store, sess session.Session) (*TaskBoard, error) {
	v := &TaskBoard{
		sess:    sess,
		st:      st,
		taskIDs: make(map[string]bool),
		changed: newNotifier(),
	}
	if sess.Anonymous() {
		slog.Warn("views: task board without a signed-in user")
		return v, nil
	}

	userUnsub, err := st.Subscribe(ctx, models.CollectionUsers,
		store.Query{Wheres: []store.Where{store.Eq("id", sess.UserID)}},
		v.applyUserSnapshot)
	if err != nil {
		return nil, fmt.Errorf("NewTaskBoard: subscribe user: %w", err)
	}
	v.unsubs = append(v.unsubs, userUnsub)

	taskUnsub, err := st.Subscribe(ctx, models.CollectionTasks, store.Query{}, v.applyTaskSnapshot)
	if err != nil {
		v.Close()
		return nil, fmt.Errorf("NewTaskBoard: subscribe tasks: %w", err)
	}
	v.unsubs = append(v.unsubs, taskUnsub)
	return v, nil
}

func (v *TaskBoard) applyUserSnapshot(docs []store.Document) {
	users, err := store.DecodeAll[models.User](docs)
	if err != nil {
		slog.Warn("views: user snapshot decode failed", "err", err)
		return
	}
	ids := make(map[string]bool)
	for _, u := range users {
		for _, id := range u.TaskIDs {
			ids[id] = true
		}
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.taskIDs = ids
	v.changed.notify()
}

func (v *TaskBoard) applyTaskSnapshot(docs []store.Document) {
	tasks, err := store.DecodeAll[models.Task](docs)
	if err != nil {
		slog.Warn("views: task snapshot decode failed", "err", err)
		return
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.closed {
		return
	}
	v.tasks = tasks
	v.changed.notify()
}

// SetSearch sets the free-text title filter.
func (v *TaskBoard) SetSearch(query string) {
	v.mu.Lock()
	v.search = query
	v.mu.Unlock()
	v.changed.notify()
}

// SetFilterTag selects one of the app/web/latest filter tags. Selecting a
// title tag also overwrites the search text with the tag, matching the
// observed screen behaviour; pass "" to clear.
func (v *TaskBoard) SetFilterTag(tag string) {
	v.mu.Lock()
	v.tag = tag
	switch tag {
	case "app", "web":
		v.search = tag
	case "":
		v.search = ""
	}
	v.mu.Unlock()
	v.changed.notify()
}

// Ongoing returns the filtered tasks with progress below 100, newest first.
func (v *TaskBoard) Ongoing() []models.Task {
	ongoing, _ := v.partitions()
	return ongoing
}

// Completed returns the filtered tasks with progress 100, newest first.
func (v *TaskBoard) Completed() []models.Task {
	_, completed := v.partitions()
	return completed
}

func (v *TaskBoard) partitions() (ongoing, completed []models.Task) {
	v.mu.Lock()
	mine := make([]models.Task, 0, len(v.tasks))
	for _, t := range v.tasks {
		if v.taskIDs[t.ID] {
			mine = append(mine, t)
		}
	}
	search := v.search
	v.mu.Unlock()

	mine = derive.SortByCreated(mine)
	mine = derive.FilterTasks(mine, search)
	return derive.PartitionTasks(mine)
}

// Refresh re-runs both backing queries once and rebuilds the board. Meant
// for foreground resume, where the process may have missed commits.
func (v *TaskBoard) Refresh(ctx context.Context) error {
	if v.sess.Anonymous() {
		return nil
	}
	userDocs, err := v.st.QueryDocuments(ctx, models.CollectionUsers,
		store.Query{Wheres: []store.Where{store.Eq("id", v.sess.UserID)}})
	if err != nil {
		return fmt.Errorf("TaskBoard.Refresh: query user: %w", err)
	}
	taskDocs, err := v.st.QueryDocuments(ctx, models.CollectionTasks, store.Query{})
	if err != nil {
		return fmt.Errorf("TaskBoard.Refresh: query tasks: %w", err)
	}
	v.applyUserSnapshot(userDocs)
	v.applyTaskSnapshot(taskDocs)
	return nil
}

// Updates signals after snapshot merges; ticks are coalesced.
func (v *TaskBoard) Updates() <-chan struct{} { return v.changed.C() }

// Close releases every subscription. No callback runs after Close returns.
func (v *TaskBoard) Close() {
	v.mu.Lock()
	v.closed = true
	v.mu.Unlock()
	for _, unsub := range v.unsubs {
		unsub()
	}
	v.unsubs = nil
}
