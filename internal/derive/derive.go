// Package derive holds the pure calculators that turn entity lists plus
// local UI parameters into view projections. No I/O, no clocks except
// those passed in.
package derive

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-ports/teamflow/internal/models"
)

// Progress returns the task completion percentage derived from the subtask
// list: 0 when the list is empty, else 100 * checked / total. The value is
// a float and deliberately not rounded.
func Progress(subtasks []models.Subtask) float64 {
	if len(subtasks) == 0 {
		return 0
	}
	checked := 0
	for _, st := range subtasks {
		if st.Checked {
			checked++
		}
	}
	return 100 * float64(checked) / float64(len(subtasks))
}

// UnreadCount counts messages addressed to userID that are still in the
// sent state.
func UnreadCount(messages []models.Message, userID string) int {
	n := 0
	for _, m := range messages {
		if m.Status == models.StatusSent && m.ReceiverID == userID && m.SenderID != userID {
			n++
		}
	}
	return n
}

// SortConversations orders conversations descending by last-message time.
// Entries with no last message sort after all entries with one, then by
// friend id so the order is deterministic. The input is not modified.
func SortConversations(convs []models.Conversation) []models.Conversation {
	out := make([]models.Conversation, len(convs))
	copy(out, convs)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		aHas, bHas := !a.LastMessageTime.IsZero(), !b.LastMessageTime.IsZero()
		switch {
		case aHas && bHas:
			return a.LastMessageTime.After(b.LastMessageTime)
		case aHas != bHas:
			return aHas
		default:
			return a.FriendID < b.FriendID
		}
	})
	return out
}

// FilterTasks returns the tasks whose title contains query,
// case-insensitively. An empty query matches everything.
func FilterTasks(tasks []models.Task, query string) []models.Task {
	if strings.TrimSpace(query) == "" {
		return tasks
	}
	q := strings.ToLower(query)
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if strings.Contains(strings.ToLower(t.Title), q) {
			out = append(out, t)
		}
	}
	return out
}

// FilterMessages returns the messages whose text contains query,
// case-insensitively. An empty query matches everything.
func FilterMessages(messages []models.Message, query string) []models.Message {
	if strings.TrimSpace(query) == "" {
		return messages
	}
	q := strings.ToLower(query)
	out := make([]models.Message, 0, len(messages))
	for _, m := range messages {
		if strings.Contains(strings.ToLower(m.Text), q) {
			out = append(out, m)
		}
	}
	return out
}

// PartitionTasks splits tasks into ongoing (progress < 100) and completed
// (progress == 100) lists, preserving input order.
func PartitionTasks(tasks []models.Task) (ongoing, completed []models.Task) {
	for _, t := range tasks {
		if t.Progress >= 100 {
			completed = append(completed, t)
		} else {
			ongoing = append(ongoing, t)
		}
	}
	return ongoing, completed
}

// SortByCreated orders tasks newest first. The input is not modified.
func SortByCreated(tasks []models.Task) []models.Task {
	out := make([]models.Task, len(tasks))
	copy(out, tasks)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

// TasksOn returns the tasks due on the given calendar day, in input order.
func TasksOn(tasks []models.Task, day time.Time) []models.Task {
	y, m, d := day.Date()
	out := make([]models.Task, 0, len(tasks))
	for _, t := range tasks {
		if t.DueDate.IsZero() {
			continue
		}
		ty, tm, td := t.DueDate.Date()
		if ty == y && tm == m && td == d {
			out = append(out, t)
		}
	}
	return out
}

// LastSeen renders a presence label from the last-active timestamp:
// "Online" within the window, a coarse time-ago string after it, and
// "Offline" when the timestamp is missing.
func LastSeen(lastActive, now time.Time, onlineWindow time.Duration) string {
	if lastActive.IsZero() {
		return "Offline"
	}
	elapsed := now.Sub(lastActive)
	if elapsed < onlineWindow {
		return "Online"
	}
	minutes := int(elapsed.Minutes())
	hours := int(elapsed.Hours())
	days := hours / 24
	switch {
	case minutes < 60:
		return fmt.Sprintf("%d minute%s ago", minutes, plural(minutes))
	case hours < 24:
		return fmt.Sprintf("%d hour%s ago", hours, plural(hours))
	case days < 30:
		return fmt.Sprintf("%d day%s ago", days, plural(days))
	default:
		months := days / 30
		return fmt.Sprintf("%d month%s ago", months, plural(months))
	}
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
