package internal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	// DefaultRequestTimeout applies to auth and task calls.
	DefaultRequestTimeout = 10 * time.Second

	// DefaultChatTimeout applies to chat calls, which may wait on the model.
	DefaultChatTimeout = 60 * time.Second
)

// Client talks to the backend REST API. It attaches the stored bearer token
// to every request and normalizes failures into the typed errors in
// errors.go. On a 401 it deletes the stored token and fires the auth-lost
// hook; it never performs navigation itself.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenStore
	onAuthLost func()
}

// NewClient creates a client for baseURL with the given timeout.
func NewClient(baseURL string, tokens TokenStore, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultRequestTimeout
	}
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		tokens:     tokens,
	}
}

// OnAuthLost registers a hook invoked when the backend rejects the stored
// token with a 401. The hook must not block.
func (c *Client) OnAuthLost(fn func()) {
	c.onAuthLost = fn
}

// errorBody is the error shape the backend returns; detail is preferred
// over message.
type errorBody struct {
	Detail  string `json:"detail"`
	Message string `json:"message"`
}

// Request performs an HTTP request against the backend and returns the raw
// response body. body is JSON-encoded when non-nil; params become the query
// string.
func (c *Client) Request(ctx context.Context, method, path string, body interface{}, params url.Values) (json.RawMessage, error) {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, &SetupError{Err: err}
		}
		reader = bytes.NewReader(data)
	}

	endpoint := c.baseURL + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &SetupError{Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())

	// Attach the bearer token if one is stored. Requests without a token
	// proceed unauthenticated; the backend answers 401.
	token, err := c.tokens.Get()
	if err != nil {
		return nil, &SetupError{Err: err}
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	LogDebug("%s %s", method, endpoint)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}

	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return data, nil
	}

	message := errorMessage(data, resp)

	if resp.StatusCode == http.StatusUnauthorized {
		// The stored token is invalid. Drop it and signal the session layer.
		if err := c.tokens.Delete(); err != nil {
			LogWarn("Failed to delete invalid token: %v", err)
		}
		if c.onAuthLost != nil {
			c.onAuthLost()
		}
		return nil, &AuthError{Status: resp.StatusCode, Message: message}
	}
	if resp.StatusCode == http.StatusForbidden {
		return nil, &AuthError{Status: resp.StatusCode, Message: message}
	}

	return nil, &APIError{Status: resp.StatusCode, Message: message}
}

// errorMessage extracts the best human-readable message from an error
// response: detail, then message, then the HTTP status text.
func errorMessage(data []byte, resp *http.Response) string {
	var body errorBody
	if err := json.Unmarshal(data, &body); err == nil {
		if body.Detail != "" {
			return body.Detail
		}
		if body.Message != "" {
			return body.Message
		}
	}
	if text := http.StatusText(resp.StatusCode); text != "" {
		return text
	}
	return fmt.Sprintf("request failed with status %d", resp.StatusCode)
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, path string, params url.Values) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, path, nil, params)
}

// Post issues a POST request with a JSON body.
func (c *Client) Post(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPost, path, body, nil)
}

// Put issues a PUT request with a JSON body.
func (c *Client) Put(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPut, path, body, nil)
}

// Patch issues a PATCH request with a JSON body.
func (c *Client) Patch(ctx context.Context, path string, body interface{}) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPatch, path, body, nil)
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, path string) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodDelete, path, nil, nil)
}
