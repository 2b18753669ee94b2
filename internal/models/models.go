// Package models defines the core entity types held in the document store.
package models

import (
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// Collection names in the document store.
const (
	CollectionUsers         = "users"
	CollectionCompanies     = "companies"
	CollectionTasks         = "tasks"
	CollectionGroups        = "groups"
	CollectionNotifications = "notifications"
)

// Message status values. A message is created as sent and flipped to seen
// by the receiver's mark-seen batch; there is no edited or failed state.
const (
	StatusSent = "sent"
	StatusSeen = "seen"
)

// User roles.
const (
	RoleAdmin = "admin"
	RoleUser  = "user"
)

// TaskFilterTags lists the filter tags recognised by the task board.
var TaskFilterTags = []string{"app", "web", "latest"}

// User is a member account. TaskIDs, GroupIDs and Friends are denormalized
// membership lists maintained by array-union writes.
type User struct {
	ID         string    `json:"id,omitempty"`
	Name       string    `json:"name"`
	Email      string    `json:"email"`
	Avatar     string    `json:"avatar,omitempty"`
	Role       string    `json:"role"`
	CompanyID  string    `json:"companyId,omitempty"`
	TaskIDs    []string  `json:"taskId,omitempty"`
	GroupIDs   []string  `json:"groupId,omitempty"`
	Friends    []string  `json:"friends,omitempty"`
	LastActive time.Time `json:"lastActive,omitzero"`
}

// Company is created on the first admin save and updated in place.
type Company struct {
	ID      string `json:"id,omitempty"`
	Name    string `json:"name"`
	Address string `json:"address,omitempty"`
	Website string `json:"website,omitempty"`
	About   string `json:"about,omitempty"`
	OwnerID string `json:"ownerId"`
}

// TeamMember is a denormalized snapshot of a participant stored on a task.
// It is not kept in sync with later profile edits.
type TeamMember struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar,omitempty"`
}

// Subtask is one checklist entry on a task.
type Subtask struct {
	Name      string `json:"name"`
	Checked   bool   `json:"checked"`
	CreaterID string `json:"createrId"`
}

// Task is a shared unit of work. Progress is derived from the subtask list
// and must be recomputed on every subtask mutation; a task with
// Progress == 100 is considered complete.
type Task struct {
	ID          string       `json:"id,omitempty"`
	Title       string       `json:"title"`
	Description string       `json:"description,omitempty"`
	Progress    float64      `json:"progress"`
	Team        []TeamMember `json:"team,omitempty"`
	DueDate     time.Time    `json:"dueDate,omitzero"`
	Subtasks    []Subtask    `json:"subtasks,omitempty"`
	CreatedAt   time.Time    `json:"createdAt,omitzero"`
}

// Message is a chat message stored under the chat's message collection.
// GroupID is set only for group messages, which carry no receiver and no
// read state.
type Message struct {
	ID         string    `json:"id,omitempty"`
	SenderID   string    `json:"senderId"`
	ReceiverID string    `json:"receiverId,omitempty"`
	GroupID    string    `json:"groupId,omitempty"`
	Text       string    `json:"message"`
	Timestamp  time.Time `json:"timestamp"`
	Status     string    `json:"status,omitempty"`
}

// Group is a named chat with a flat member list.
type Group struct {
	ID      string   `json:"id,omitempty"`
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// Notification is an append-only fan-out record; there is no read flag.
type Notification struct {
	ID          string    `json:"id,omitempty"`
	SenderID    string    `json:"senderId"`
	ReceiverIDs []string  `json:"receiverIds"`
	TaskID      string    `json:"taskId,omitempty"`
	GroupID     string    `json:"groupId,omitempty"`
	Text        string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
}

// Conversation is the derived per-friend entry shown on the messages screen.
type Conversation struct {
	FriendID        string
	Name            string
	Avatar          string
	LastMessage     string
	LastMessageTime time.Time
	UnreadCount     int
}

// ---------------------------------------------------------------------------
// helpers
// ---------------------------------------------------------------------------

// NewID returns a new lexicographically sortable document id.
func NewID() string {
	return strings.ToLower(ulid.Make().String())
}

// ChatID derives the direct-chat identifier for two participants. It is
// order-independent: both participants resolve the same chat document.
func ChatID(a, b string) string {
	ids := []string{a, b}
	sort.Strings(ids)
	return strings.Join(ids, "_")
}

// MessagesCollection returns the message collection name for a direct chat.
func MessagesCollection(chatID string) string {
	return "chats/" + chatID + "/messages"
}

// GroupMessagesCollection returns the message collection name for a group.
func GroupMessagesCollection(groupID string) string {
	return CollectionGroups + "/" + groupID + "/messages"
}

// Member reports whether the group contains the given user.
func (g Group) Member(userID string) bool {
	for _, m := range g.Members {
		if m == userID {
			return true
		}
	}
	return false
}
