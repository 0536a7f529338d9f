package internal

import (
	"encoding/json"
	"fmt"
	"time"
)

// Task statuses accepted by the backend.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Task priorities accepted by the backend.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// User represents an account on the backend.
type User struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	IsActive  bool   `json:"is_active"`
	CreatedAt string `json:"created_at,omitempty"`
	UpdatedAt string `json:"updated_at,omitempty"`
}

// Task represents a single task item. Timestamps are ISO strings as sent by
// the backend; DueDate may be empty.
type Task struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
	Priority    string `json:"priority"`
	DueDate     string `json:"due_date,omitempty"`
	UserID      string `json:"user_id"`
	CreatedAt   string `json:"created_at"`
	UpdatedAt   string `json:"updated_at"`
}

// TaskCreate is the payload for creating a task. The server assigns the id.
type TaskCreate struct {
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status,omitempty"`
	Priority    string `json:"priority,omitempty"`
	DueDate     string `json:"due_date,omitempty"`
}

// TaskPatch is a partial task update. Nil fields are left untouched both in
// the request body and in the optimistic local merge.
type TaskPatch struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
	Priority    *string `json:"priority,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
}

// Apply merges the patch into a copy of the given task.
func (p TaskPatch) Apply(t Task) Task {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Status != nil {
		t.Status = *p.Status
	}
	if p.Priority != nil {
		t.Priority = *p.Priority
	}
	if p.DueDate != nil {
		t.DueDate = *p.DueDate
	}
	return t
}

// Conversation represents a chat conversation header.
type Conversation struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	UserID    string `json:"user_id,omitempty"`
	CreatedAt string `json:"created_at"`
	UpdatedAt string `json:"updated_at"`
	IsActive  bool   `json:"is_active,omitempty"`
}

// UpdatedTime parses the conversation's updated_at timestamp. Unparseable
// timestamps sort last.
func (c Conversation) UpdatedTime() time.Time {
	t, err := time.Parse(time.RFC3339, c.UpdatedAt)
	if err != nil {
		return time.Time{}
	}
	return t
}

// ChatMessage represents a single message inside a conversation.
type ChatMessage struct {
	ID             string `json:"id"`
	ConversationID string `json:"conversation_id"`
	Role           string `json:"role"` // "user", "assistant" or "system"
	Content        string `json:"content"`
	Timestamp      string `json:"timestamp"`
	MessageType    string `json:"message_type,omitempty"`
}

// apiEnvelope is the {success, message, data} wrapper the auth and task
// endpoints use. Chat endpoints return bare objects instead.
type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

type loginData struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

type userData struct {
	User User `json:"user"`
}

type taskData struct {
	Task Task `json:"task"`
}

type tasksData struct {
	Tasks      []Task `json:"tasks"`
	TotalCount int    `json:"total_count"`
	Limit      int    `json:"limit"`
	Offset     int    `json:"offset"`
}

// ValidateStatus checks a task status value.
func ValidateStatus(s string) error {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return nil
	}
	return fmt.Errorf("invalid status: %s (expected pending, in-progress or completed)", s)
}

// ValidatePriority checks a task priority value.
func ValidatePriority(p string) error {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return nil
	}
	return fmt.Errorf("invalid priority: %s (expected low, medium or high)", p)
}
