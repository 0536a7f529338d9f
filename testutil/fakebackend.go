// Package testutil provides shared test fixtures, most importantly an
// in-memory fake of the backend REST API.
package testutil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/taskdeck/taskdeck/internal"
)

// FakeBackend is an in-memory implementation of the backend REST surface,
// served over httptest. Tests point a Client at URL() and drive state
// through the exported knobs.
type FakeBackend struct {
	mu sync.Mutex

	server *httptest.Server

	users     map[string]internal.User // keyed by email
	passwords map[string]string        // email -> password
	tokens    map[string]string        // token -> email
	tasks     map[string]internal.Task
	taskOrder []string

	conversations map[string]internal.Conversation
	convOrder     []string
	messages      map[string][]internal.ChatMessage

	// FailMutations makes PUT/PATCH/DELETE on tasks fail with a 500.
	FailMutations bool

	// RejectTokens makes every authenticated endpoint answer 401.
	RejectTokens bool

	// FailMeCount makes GET /auth/me answer 500 that many times, then
	// behave normally. Used to simulate transient validation failures.
	FailMeCount int

	// MutateHook, when set, runs while a task PUT/PATCH/DELETE is being
	// handled, before the response is written. Tests use it to observe
	// client-side state mid-request.
	MutateHook func()
}

// NewFakeBackend starts the fake server. Callers must Close it.
func NewFakeBackend() *FakeBackend {
	fb := &FakeBackend{
		users:         make(map[string]internal.User),
		passwords:     make(map[string]string),
		tokens:        make(map[string]string),
		tasks:         make(map[string]internal.Task),
		conversations: make(map[string]internal.Conversation),
		messages:      make(map[string][]internal.ChatMessage),
	}
	fb.server = httptest.NewServer(http.HandlerFunc(fb.handle))
	return fb
}

// URL returns the base URL of the fake server.
func (fb *FakeBackend) URL() string {
	return fb.server.URL
}

// Close shuts the server down. After Close, requests fail as network errors.
func (fb *FakeBackend) Close() {
	fb.server.Close()
}

// SeedUser registers a user directly and returns it.
func (fb *FakeBackend) SeedUser(email, password string) internal.User {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	user := internal.User{
		ID:        uuid.NewString(),
		Email:     email,
		IsActive:  true,
		CreatedAt: now(),
		UpdatedAt: now(),
	}
	fb.users[email] = user
	fb.passwords[email] = password
	return user
}

// IssueToken mints a valid token for a seeded user.
func (fb *FakeBackend) IssueToken(email string) string {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	token := uuid.NewString()
	fb.tokens[token] = email
	return token
}

// SeedTask inserts a task directly and returns it.
func (fb *FakeBackend) SeedTask(title, status, priority string) internal.Task {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	task := internal.Task{
		ID:        uuid.NewString(),
		Title:     title,
		Status:    status,
		Priority:  priority,
		CreatedAt: now(),
		UpdatedAt: now(),
	}
	fb.tasks[task.ID] = task
	fb.taskOrder = append(fb.taskOrder, task.ID)
	return task
}

// SeedConversation inserts a conversation with the given updated_at stamp.
func (fb *FakeBackend) SeedConversation(title, updatedAt string) internal.Conversation {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	conv := internal.Conversation{
		ID:        uuid.NewString(),
		Title:     title,
		CreatedAt: updatedAt,
		UpdatedAt: updatedAt,
		IsActive:  true,
	}
	fb.conversations[conv.ID] = conv
	fb.convOrder = append(fb.convOrder, conv.ID)
	return conv
}

// Task returns the current server-side copy of a task.
func (fb *FakeBackend) Task(id string) (internal.Task, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	t, ok := fb.tasks[id]
	return t, ok
}

// TokenValid reports whether the token is still accepted.
func (fb *FakeBackend) TokenValid(token string) bool {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	_, ok := fb.tokens[token]
	return ok
}

func now() string {
	return time.Now().UTC().Format(time.RFC3339)
}

func (fb *FakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	path := r.URL.Path
	switch {
	case path == "/api/v1/auth/login" && r.Method == http.MethodPost:
		fb.handleLogin(w, r)
	case path == "/api/v1/auth/register" && r.Method == http.MethodPost:
		fb.handleRegister(w, r)
	case path == "/api/v1/auth/logout" && r.Method == http.MethodPost:
		fb.handleLogout(w, r)
	case path == "/api/v1/auth/me" && r.Method == http.MethodGet:
		fb.handleMe(w, r)
	case path == "/api/v1/tasks/" || path == "/api/v1/tasks":
		fb.handleTasks(w, r)
	case strings.HasPrefix(path, "/api/v1/tasks/"):
		fb.handleTask(w, r, strings.TrimPrefix(path, "/api/v1/tasks/"))
	case path == "/api/v1/chat/conversations":
		fb.handleConversations(w, r)
	case strings.HasPrefix(path, "/api/v1/chat/conversations/"):
		fb.handleConversation(w, r, strings.TrimPrefix(path, "/api/v1/chat/conversations/"))
	default:
		writeError(w, http.StatusNotFound, "Not Found")
	}
}

func (fb *FakeBackend) authenticate(r *http.Request) (internal.User, bool) {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.RejectTokens {
		return internal.User{}, false
	}
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return internal.User{}, false
	}
	email, ok := fb.tokens[strings.TrimPrefix(header, "Bearer ")]
	if !ok {
		return internal.User{}, false
	}
	user, ok := fb.users[email]
	return user, ok
}

func (fb *FakeBackend) handleLogin(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	fb.mu.Lock()
	user, ok := fb.users[body.Email]
	password := fb.passwords[body.Email]
	fb.mu.Unlock()

	if !ok || password != body.Password {
		writeError(w, http.StatusUnauthorized, "Invalid credentials")
		return
	}

	token := fb.IssueToken(body.Email)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Login successful",
		"data":    map[string]interface{}{"user": user, "token": token},
	})
}

func (fb *FakeBackend) handleRegister(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Email     string `json:"email"`
		Password  string `json:"password"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeError(w, http.StatusBadRequest, "Malformed request body")
		return
	}

	fb.mu.Lock()
	if _, exists := fb.users[body.Email]; exists {
		fb.mu.Unlock()
		writeError(w, http.StatusBadRequest, "Email already registered")
		return
	}
	fb.mu.Unlock()

	user := fb.SeedUser(body.Email, body.Password)
	user.FirstName = body.FirstName
	user.LastName = body.LastName
	fb.mu.Lock()
	fb.users[body.Email] = user
	fb.mu.Unlock()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Registration successful",
		"data":    map[string]interface{}{"user": user},
	})
}

func (fb *FakeBackend) handleLogout(w http.ResponseWriter, r *http.Request) {
	if _, ok := fb.authenticate(r); !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	header := r.Header.Get("Authorization")
	fb.mu.Lock()
	delete(fb.tokens, strings.TrimPrefix(header, "Bearer "))
	fb.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Logged out",
	})
}

func (fb *FakeBackend) handleMe(w http.ResponseWriter, r *http.Request) {
	fb.mu.Lock()
	if fb.FailMeCount > 0 {
		fb.FailMeCount--
		fb.mu.Unlock()
		writeError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	fb.mu.Unlock()

	user, ok := fb.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"data":    map[string]interface{}{"user": user},
	})
}

func (fb *FakeBackend) handleTasks(w http.ResponseWriter, r *http.Request) {
	user, ok := fb.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	switch r.Method {
	case http.MethodGet:
		status := r.URL.Query().Get("status")
		priority := r.URL.Query().Get("priority")

		fb.mu.Lock()
		var tasks []internal.Task
		for _, id := range fb.taskOrder {
			t, ok := fb.tasks[id]
			if !ok {
				continue
			}
			if status != "" && t.Status != status {
				continue
			}
			if priority != "" && t.Priority != priority {
				continue
			}
			tasks = append(tasks, t)
		}
		fb.mu.Unlock()

		if tasks == nil {
			tasks = []internal.Task{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data": map[string]interface{}{
				"tasks":       tasks,
				"total_count": len(tasks),
			},
		})

	case http.MethodPost:
		var req internal.TaskCreate
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Malformed request body")
			return
		}
		if strings.TrimSpace(req.Title) == "" {
			writeError(w, http.StatusBadRequest, "Title is required")
			return
		}
		task := internal.Task{
			ID:          uuid.NewString(),
			Title:       req.Title,
			Description: req.Description,
			Status:      defaultString(req.Status, internal.StatusPending),
			Priority:    defaultString(req.Priority, internal.PriorityMedium),
			DueDate:     req.DueDate,
			UserID:      user.ID,
			CreatedAt:   now(),
			UpdatedAt:   now(),
		}
		fb.mu.Lock()
		fb.tasks[task.ID] = task
		fb.taskOrder = append(fb.taskOrder, task.ID)
		fb.mu.Unlock()

		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Task created successfully",
			"data":    map[string]interface{}{"task": task},
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func (fb *FakeBackend) handleTask(w http.ResponseWriter, r *http.Request, id string) {
	if _, ok := fb.authenticate(r); !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	fb.mu.Lock()
	task, exists := fb.tasks[id]
	failMutations := fb.FailMutations
	mutateHook := fb.MutateHook
	fb.mu.Unlock()

	if !exists {
		writeError(w, http.StatusNotFound, "Task not found")
		return
	}

	if r.Method != http.MethodGet && mutateHook != nil {
		mutateHook()
	}

	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"data":    map[string]interface{}{"task": task},
		})

	case http.MethodPut, http.MethodPatch:
		if failMutations {
			writeError(w, http.StatusInternalServerError, "Update failed")
			return
		}
		var patch internal.TaskPatch
		if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
			writeError(w, http.StatusBadRequest, "Malformed request body")
			return
		}
		updated := patch.Apply(task)
		updated.UpdatedAt = now()
		fb.mu.Lock()
		fb.tasks[id] = updated
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Task updated successfully",
			"data":    map[string]interface{}{"task": updated},
		})

	case http.MethodDelete:
		if failMutations {
			writeError(w, http.StatusInternalServerError, "Delete failed")
			return
		}
		fb.mu.Lock()
		delete(fb.tasks, id)
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"success": true,
			"message": "Task deleted successfully",
		})

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func (fb *FakeBackend) handleConversations(w http.ResponseWriter, r *http.Request) {
	user, ok := fb.authenticate(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	switch r.Method {
	case http.MethodGet:
		fb.mu.Lock()
		var conversations []internal.Conversation
		for _, id := range fb.convOrder {
			if c, ok := fb.conversations[id]; ok {
				conversations = append(conversations, c)
			}
		}
		fb.mu.Unlock()
		if conversations == nil {
			conversations = []internal.Conversation{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"conversations": conversations})

	case http.MethodPost:
		var body struct {
			InitialMessage string `json:"initial_message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Malformed request body")
			return
		}
		conv := internal.Conversation{
			ID:        uuid.NewString(),
			Title:     truncate(body.InitialMessage, 40),
			UserID:    user.ID,
			CreatedAt: now(),
			UpdatedAt: now(),
			IsActive:  true,
		}
		fb.mu.Lock()
		fb.conversations[conv.ID] = conv
		fb.convOrder = append(fb.convOrder, conv.ID)
		fb.messages[conv.ID] = []internal.ChatMessage{{
			ID:             uuid.NewString(),
			ConversationID: conv.ID,
			Role:           "user",
			Content:        body.InitialMessage,
			Timestamp:      now(),
			MessageType:    "text",
		}}
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"conversation": conv})

	default:
		writeError(w, http.StatusMethodNotAllowed, "Method Not Allowed")
	}
}

func (fb *FakeBackend) handleConversation(w http.ResponseWriter, r *http.Request, rest string) {
	if _, ok := fb.authenticate(r); !ok {
		writeError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}

	parts := strings.Split(rest, "/")
	id := parts[0]

	fb.mu.Lock()
	_, exists := fb.conversations[id]
	fb.mu.Unlock()
	if !exists {
		writeError(w, http.StatusNotFound, "Conversation not found")
		return
	}

	switch {
	case len(parts) == 1 && r.Method == http.MethodDelete:
		fb.mu.Lock()
		delete(fb.conversations, id)
		delete(fb.messages, id)
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})

	case len(parts) == 2 && parts[1] == "messages" && r.Method == http.MethodGet:
		fb.mu.Lock()
		messages := append([]internal.ChatMessage(nil), fb.messages[id]...)
		fb.mu.Unlock()
		if messages == nil {
			messages = []internal.ChatMessage{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"messages": messages})

	case len(parts) == 2 && parts[1] == "chat" && r.Method == http.MethodPost:
		var body struct {
			Message string `json:"message"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			writeError(w, http.StatusBadRequest, "Malformed request body")
			return
		}
		userMsg := internal.ChatMessage{
			ID:             uuid.NewString(),
			ConversationID: id,
			Role:           "user",
			Content:        body.Message,
			Timestamp:      now(),
			MessageType:    "text",
		}
		reply := internal.ChatMessage{
			ID:             uuid.NewString(),
			ConversationID: id,
			Role:           "assistant",
			Content:        "Echo: " + body.Message,
			Timestamp:      now(),
			MessageType:    "text",
		}
		fb.mu.Lock()
		fb.messages[id] = append(fb.messages[id], userMsg, reply)
		conv := fb.conversations[id]
		conv.UpdatedAt = now()
		fb.conversations[id] = conv
		fb.mu.Unlock()
		writeJSON(w, http.StatusOK, map[string]interface{}{"response": reply})

	default:
		writeError(w, http.StatusNotFound, "Not Found")
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func defaultString(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
