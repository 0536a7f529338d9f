package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"sort"
	"strconv"
	"sync"
)

// MaxConversations caps the local conversation list to the most recent
// entries.
const MaxConversations = 20

// ConversationStore maintains the local conversation list and talks to the
// chat endpoints. The list invariant: unique by id, sorted by updated_at
// descending, at most MaxConversations entries.
type ConversationStore struct {
	mu            sync.Mutex
	client        *Client
	conversations []Conversation
}

// NewConversationStore creates an empty store backed by the given client.
// The client should carry the longer chat timeout.
func NewConversationStore(client *Client) *ConversationStore {
	return &ConversationStore{client: client}
}

// Conversations returns a copy of the normalized local list.
func (cs *ConversationStore) Conversations() []Conversation {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	out := make([]Conversation, len(cs.conversations))
	copy(out, cs.conversations)
	return out
}

// Load fetches the conversation list and normalizes it.
func (cs *ConversationStore) Load(ctx context.Context) error {
	data, err := cs.client.Get(ctx, "/api/v1/chat/conversations", nil)
	if err != nil {
		return err
	}

	var payload struct {
		Conversations []Conversation `json:"conversations"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return &APIError{Status: 200, Message: fmt.Sprintf("malformed conversations response: %v", err)}
	}

	cs.mu.Lock()
	cs.conversations = normalizeConversations(payload.Conversations)
	cs.mu.Unlock()
	return nil
}

// Create starts a new conversation from an initial message and inserts it
// into the local list.
func (cs *ConversationStore) Create(ctx context.Context, initialMessage string) (*Conversation, error) {
	body := map[string]string{"initial_message": initialMessage}
	data, err := cs.client.Post(ctx, "/api/v1/chat/conversations", body)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Conversation Conversation `json:"conversation"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &APIError{Status: 200, Message: fmt.Sprintf("malformed conversation response: %v", err)}
	}

	cs.mu.Lock()
	cs.conversations = normalizeConversations(append(cs.conversations, payload.Conversation))
	cs.mu.Unlock()
	return &payload.Conversation, nil
}

// Delete removes a conversation on the server, then locally.
func (cs *ConversationStore) Delete(ctx context.Context, id string) error {
	if _, err := cs.client.Delete(ctx, "/api/v1/chat/conversations/"+id); err != nil {
		return err
	}

	cs.mu.Lock()
	kept := cs.conversations[:0]
	for _, c := range cs.conversations {
		if c.ID != id {
			kept = append(kept, c)
		}
	}
	cs.conversations = kept
	cs.mu.Unlock()
	return nil
}

// Messages fetches a page of messages for a conversation.
func (cs *ConversationStore) Messages(ctx context.Context, id string, limit, offset int) ([]ChatMessage, error) {
	params := url.Values{}
	if limit <= 0 {
		limit = 50
	}
	params.Set("limit", strconv.Itoa(limit))
	params.Set("offset", strconv.Itoa(offset))

	data, err := cs.client.Get(ctx, "/api/v1/chat/conversations/"+id+"/messages", params)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Messages []ChatMessage `json:"messages"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &APIError{Status: 200, Message: fmt.Sprintf("malformed messages response: %v", err)}
	}
	return payload.Messages, nil
}

// Send posts a message to a conversation and returns the assistant response.
func (cs *ConversationStore) Send(ctx context.Context, id, message string) (*ChatMessage, error) {
	body := map[string]interface{}{"message": message, "stream": false}
	data, err := cs.client.Post(ctx, "/api/v1/chat/conversations/"+id+"/chat", body)
	if err != nil {
		return nil, err
	}

	var payload struct {
		Response ChatMessage `json:"response"`
	}
	if err := json.Unmarshal(data, &payload); err != nil {
		return nil, &APIError{Status: 200, Message: fmt.Sprintf("malformed chat response: %v", err)}
	}
	return &payload.Response, nil
}

// normalizeConversations deduplicates by id through a map (last inserted
// wins), sorts by updated_at descending and keeps the MaxConversations most
// recent.
func normalizeConversations(conversations []Conversation) []Conversation {
	byID := make(map[string]Conversation, len(conversations))
	order := make([]string, 0, len(conversations))
	for _, c := range conversations {
		if _, seen := byID[c.ID]; !seen {
			order = append(order, c.ID)
		}
		byID[c.ID] = c
	}

	unique := make([]Conversation, 0, len(byID))
	for _, id := range order {
		unique = append(unique, byID[id])
	}

	sort.SliceStable(unique, func(i, j int) bool {
		return unique[i].UpdatedTime().After(unique[j].UpdatedTime())
	})

	if len(unique) > MaxConversations {
		unique = unique[:MaxConversations]
	}
	return unique
}
