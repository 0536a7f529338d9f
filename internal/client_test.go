package internal_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal"
	"github.com/taskdeck/taskdeck/testutil"
)

func TestClientAttachesBearerToken(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	user := backend.SeedUser("alice@example.com", "pw")
	token := backend.IssueToken(user.Email)

	tokens := internal.NewMemTokenStore()
	require.NoError(t, tokens.Set(token))

	client := internal.NewClient(backend.URL(), tokens, time.Second)
	data, err := client.Get(context.Background(), "/api/v1/auth/me", nil)
	require.NoError(t, err)

	var resp struct {
		Success bool `json:"success"`
		Data    struct {
			User internal.User `json:"user"`
		} `json:"data"`
	}
	require.NoError(t, json.Unmarshal(data, &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, user.Email, resp.Data.User.Email)
}

func TestClientUnauthorizedDeletesTokenAndSignals(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.RejectTokens = true

	tokens := internal.NewMemTokenStore()
	require.NoError(t, tokens.Set("stale-token"))

	client := internal.NewClient(backend.URL(), tokens, time.Second)
	var authLost bool
	client.OnAuthLost(func() { authLost = true })

	_, err := client.Get(context.Background(), "/api/v1/auth/me", nil)
	require.Error(t, err)
	assert.True(t, internal.IsAuthError(err))

	var authErr *internal.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)

	stored, _ := tokens.Get()
	assert.Empty(t, stored, "401 must delete the stored token")
	assert.True(t, authLost, "401 must fire the auth-lost hook")
}

func TestClientErrorMessagePrefersDetail(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	user := backend.SeedUser("alice@example.com", "pw")
	tokens := internal.NewMemTokenStore()
	require.NoError(t, tokens.Set(backend.IssueToken(user.Email)))

	client := internal.NewClient(backend.URL(), tokens, time.Second)
	_, err := client.Get(context.Background(), "/api/v1/tasks/no-such-id", nil)
	require.Error(t, err)

	var apiErr *internal.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Task not found", apiErr.Message)
}

func TestClientValidationError(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	user := backend.SeedUser("alice@example.com", "pw")
	tokens := internal.NewMemTokenStore()
	require.NoError(t, tokens.Set(backend.IssueToken(user.Email)))

	client := internal.NewClient(backend.URL(), tokens, time.Second)
	_, err := client.Post(context.Background(), "/api/v1/tasks/", internal.TaskCreate{Title: "   "})
	require.Error(t, err)

	var apiErr *internal.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Title is required", apiErr.Message)
	assert.False(t, internal.IsAuthError(err))
}

func TestClientNetworkError(t *testing.T) {
	backend := testutil.NewFakeBackend()
	url := backend.URL()
	backend.Close()

	client := internal.NewClient(url, internal.NewMemTokenStore(), time.Second)
	_, err := client.Get(context.Background(), "/api/v1/tasks/", nil)
	require.Error(t, err)
	assert.True(t, internal.IsNetworkError(err))
	assert.False(t, internal.IsAuthError(err))
}

func TestClientRequestWithoutTokenIsUnauthenticated(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	client := internal.NewClient(backend.URL(), internal.NewMemTokenStore(), time.Second)
	_, err := client.Get(context.Background(), "/api/v1/tasks/", nil)
	require.Error(t, err)
	assert.True(t, internal.IsAuthError(err))
}

func TestClientTrimsTrailingSlash(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	user := backend.SeedUser("alice@example.com", "pw")
	tokens := internal.NewMemTokenStore()
	require.NoError(t, tokens.Set(backend.IssueToken(user.Email)))

	client := internal.NewClient(backend.URL()+"/", tokens, time.Second)
	_, err := client.Get(context.Background(), "/api/v1/auth/me", nil)
	assert.NoError(t, err)
}
