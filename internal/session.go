package internal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
)

// SessionState is the auth resolution state.
type SessionState int

const (
	// StateUnresolved means no validation round-trip has completed yet.
	StateUnresolved SessionState = iota

	// StateAuthenticated means the backend confirmed the stored token.
	StateAuthenticated

	// StateUnauthenticated means there is no usable session.
	StateUnauthenticated
)

func (s SessionState) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return "unresolved"
	}
}

// RegisterRequest is the payload for account creation.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Session owns the current-user state and the token lifecycle. It holds only
// a derived view of the token; the raw string lives in the TokenStore.
type Session struct {
	mu     sync.Mutex
	client *Client
	tokens TokenStore
	user   *User
	state  SessionState
}

// NewSession creates an unresolved session.
func NewSession(client *Client, tokens TokenStore) *Session {
	return &Session{
		client: client,
		tokens: tokens,
		state:  StateUnresolved,
	}
}

// State returns the current resolution state.
func (s *Session) State() SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// IsAuthenticated reports whether the session resolved to a valid user.
func (s *Session) IsAuthenticated() bool {
	return s.State() == StateAuthenticated
}

// User returns the cached user, or nil.
func (s *Session) User() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.user
}

// HasToken reports whether a token is persisted locally, valid or not.
func (s *Session) HasToken() bool {
	token, err := s.tokens.Get()
	return err == nil && token != ""
}

// Invalidate resets the session to unauthenticated. Wired to the client's
// auth-lost hook so a mid-flight 401 tears the session down without the
// transport knowing anything about navigation.
func (s *Session) Invalidate() {
	s.settle(StateUnauthenticated, nil)
}

// Bootstrap resolves the session once at startup. With no stored token it
// settles unauthenticated without a network call. With a token it validates
// against /auth/me: an authentication rejection clears the token, while a
// network failure settles unauthenticated but keeps the token so a later
// attempt can retry with possibly-valid credentials.
func (s *Session) Bootstrap(ctx context.Context) {
	token, err := s.tokens.Get()
	if err != nil || token == "" {
		s.settle(StateUnauthenticated, nil)
		return
	}

	user, err := s.fetchMe(ctx)
	if err != nil {
		if IsAuthError(err) {
			if delErr := s.tokens.Delete(); delErr != nil {
				LogWarn("Failed to delete rejected token: %v", delErr)
			}
		} else {
			LogWarn("Auth check failed but keeping token for retry: %v", err)
		}
		s.settle(StateUnauthenticated, nil)
		return
	}

	s.settle(StateAuthenticated, user)
}

// Login authenticates with the backend, stores the returned token and
// resolves the session. Any failure, including a logically-failed 200
// response, resets the session to unauthenticated.
func (s *Session) Login(ctx context.Context, email, password string) (*User, error) {
	body := map[string]string{"email": email, "password": password}
	data, err := s.client.Post(ctx, "/api/v1/auth/login", body)
	if err != nil {
		s.settle(StateUnauthenticated, nil)
		return nil, err
	}

	var env apiEnvelope
	if err := unmarshalEnvelope(data, &env); err != nil {
		s.settle(StateUnauthenticated, nil)
		return nil, err
	}
	if !env.Success {
		s.settle(StateUnauthenticated, nil)
		if env.Message == "" {
			env.Message = "Login failed"
		}
		return nil, &APIError{Status: 200, Message: env.Message}
	}

	var payload loginData
	if err := unmarshalData(env.Data, &payload); err != nil {
		s.settle(StateUnauthenticated, nil)
		return nil, err
	}
	if payload.Token != "" {
		if err := s.tokens.Set(payload.Token); err != nil {
			s.settle(StateUnauthenticated, nil)
			return nil, err
		}
	}

	user := payload.User
	s.settle(StateAuthenticated, &user)
	return &user, nil
}

// Register creates the account and immediately logs in with the same
// credentials. Failure at either step resets the session.
func (s *Session) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	data, err := s.client.Post(ctx, "/api/v1/auth/register", req)
	if err != nil {
		s.settle(StateUnauthenticated, nil)
		return nil, err
	}

	var env apiEnvelope
	if err := unmarshalEnvelope(data, &env); err != nil {
		s.settle(StateUnauthenticated, nil)
		return nil, err
	}
	if !env.Success {
		s.settle(StateUnauthenticated, nil)
		if env.Message == "" {
			env.Message = "Registration failed"
		}
		return nil, &APIError{Status: 200, Message: env.Message}
	}

	return s.Login(ctx, req.Email, req.Password)
}

// Logout calls the backend best-effort, then unconditionally clears the
// local token and resets the session. Logout never leaves a dangling local
// session.
func (s *Session) Logout(ctx context.Context) error {
	var remoteErr error
	if s.HasToken() {
		if _, err := s.client.Post(ctx, "/api/v1/auth/logout", nil); err != nil {
			LogWarn("Server logout failed: %v", err)
			remoteErr = err
		}
	}

	if err := s.tokens.Delete(); err != nil {
		return err
	}
	s.settle(StateUnauthenticated, nil)
	return remoteErr
}

// CurrentUser fetches and refreshes the cached user. Unlike Bootstrap, any
// failure here clears the token and resets the session.
func (s *Session) CurrentUser(ctx context.Context) (*User, error) {
	user, err := s.fetchMe(ctx)
	if err != nil {
		if delErr := s.tokens.Delete(); delErr != nil {
			LogWarn("Failed to delete token: %v", delErr)
		}
		s.settle(StateUnauthenticated, nil)
		return nil, err
	}

	s.settle(StateAuthenticated, user)
	return user, nil
}

func (s *Session) fetchMe(ctx context.Context) (*User, error) {
	data, err := s.client.Get(ctx, "/api/v1/auth/me", nil)
	if err != nil {
		return nil, err
	}

	var env apiEnvelope
	if err := unmarshalEnvelope(data, &env); err != nil {
		return nil, err
	}
	if !env.Success {
		return nil, &AuthError{Status: 200, Message: "Not authenticated"}
	}

	var payload userData
	if err := unmarshalData(env.Data, &payload); err != nil {
		return nil, err
	}
	return &payload.User, nil
}

func (s *Session) settle(state SessionState, user *User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = state
	s.user = user
}

func unmarshalEnvelope(data []byte, env *apiEnvelope) error {
	if err := json.Unmarshal(data, env); err != nil {
		return &APIError{Status: 200, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	return nil
}

func unmarshalData(data []byte, v interface{}) error {
	if len(data) == 0 {
		return &APIError{Status: 200, Message: "empty response payload"}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &APIError{Status: 200, Message: fmt.Sprintf("malformed response payload: %v", err)}
	}
	return nil
}
