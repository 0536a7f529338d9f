package internal_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskdeck/taskdeck/internal"
	"github.com/taskdeck/taskdeck/testutil"
)

func newSession(t *testing.T, backend *testutil.FakeBackend) (*internal.Session, *internal.MemTokenStore) {
	t.Helper()
	tokens := internal.NewMemTokenStore()
	client := internal.NewClient(backend.URL(), tokens, time.Second)
	session := internal.NewSession(client, tokens)
	client.OnAuthLost(session.Invalidate)
	return session, tokens
}

func TestSessionLogin(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.SeedUser("alice@example.com", "hunter2")

	session, tokens := newSession(t, backend)
	require.Equal(t, internal.StateUnresolved, session.State())

	user, err := session.Login(context.Background(), "alice@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.True(t, session.IsAuthenticated())
	require.NotNil(t, session.User())
	assert.Equal(t, "alice@example.com", session.User().Email)

	stored, err := tokens.Get()
	require.NoError(t, err)
	assert.NotEmpty(t, stored)
	assert.True(t, backend.TokenValid(stored))
}

func TestSessionLoginBadPassword(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.SeedUser("alice@example.com", "hunter2")

	session, tokens := newSession(t, backend)
	_, err := session.Login(context.Background(), "alice@example.com", "wrong")
	require.Error(t, err)
	assert.True(t, internal.IsAuthError(err))
	assert.Contains(t, err.Error(), "Invalid credentials")

	assert.Equal(t, internal.StateUnauthenticated, session.State())
	stored, _ := tokens.Get()
	assert.Empty(t, stored)
}

func TestSessionRegisterLogsIn(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	session, tokens := newSession(t, backend)
	user, err := session.Register(context.Background(), internal.RegisterRequest{
		Email:     "bob@example.com",
		Password:  "secret",
		FirstName: "Bob",
	})
	require.NoError(t, err)
	assert.Equal(t, "bob@example.com", user.Email)
	assert.True(t, session.IsAuthenticated())

	stored, _ := tokens.Get()
	assert.True(t, backend.TokenValid(stored))
}

func TestSessionRegisterDuplicateEmail(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.SeedUser("bob@example.com", "pw")

	session, _ := newSession(t, backend)
	_, err := session.Register(context.Background(), internal.RegisterRequest{
		Email:    "bob@example.com",
		Password: "pw",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Email already registered")
	assert.False(t, session.IsAuthenticated())
}

func TestSessionBootstrapWithoutToken(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()

	session, _ := newSession(t, backend)
	session.Bootstrap(context.Background())
	assert.Equal(t, internal.StateUnauthenticated, session.State())
	assert.False(t, session.HasToken())
}

func TestSessionBootstrapWithValidToken(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	user := backend.SeedUser("alice@example.com", "pw")

	session, tokens := newSession(t, backend)
	require.NoError(t, tokens.Set(backend.IssueToken(user.Email)))

	session.Bootstrap(context.Background())
	assert.True(t, session.IsAuthenticated())
	require.NotNil(t, session.User())
	assert.Equal(t, user.Email, session.User().Email)
}

func TestSessionBootstrapRejectedTokenIsCleared(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.RejectTokens = true

	session, tokens := newSession(t, backend)
	require.NoError(t, tokens.Set("stale"))

	session.Bootstrap(context.Background())
	assert.Equal(t, internal.StateUnauthenticated, session.State())
	stored, _ := tokens.Get()
	assert.Empty(t, stored, "definitive rejection must clear the token")
}

func TestSessionBootstrapNetworkFailureKeepsToken(t *testing.T) {
	backend := testutil.NewFakeBackend()
	url := backend.URL()
	backend.Close()

	tokens := internal.NewMemTokenStore()
	require.NoError(t, tokens.Set("maybe-valid"))
	client := internal.NewClient(url, tokens, time.Second)
	session := internal.NewSession(client, tokens)

	session.Bootstrap(context.Background())
	assert.Equal(t, internal.StateUnauthenticated, session.State())

	stored, _ := tokens.Get()
	assert.Equal(t, "maybe-valid", stored, "network failure must not clear the token")
}

func TestSessionCurrentUserNetworkFailureClearsToken(t *testing.T) {
	// Unlike Bootstrap, an explicit refresh treats every failure as fatal
	// to the session.
	backend := testutil.NewFakeBackend()
	url := backend.URL()
	backend.Close()

	tokens := internal.NewMemTokenStore()
	require.NoError(t, tokens.Set("maybe-valid"))
	client := internal.NewClient(url, tokens, time.Second)
	session := internal.NewSession(client, tokens)

	_, err := session.CurrentUser(context.Background())
	require.Error(t, err)
	assert.Equal(t, internal.StateUnauthenticated, session.State())

	stored, _ := tokens.Get()
	assert.Empty(t, stored)
}

func TestSessionLogoutAlwaysClearsLocally(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	backend.SeedUser("alice@example.com", "pw")

	session, tokens := newSession(t, backend)
	_, err := session.Login(context.Background(), "alice@example.com", "pw")
	require.NoError(t, err)

	require.NoError(t, session.Logout(context.Background()))
	assert.Equal(t, internal.StateUnauthenticated, session.State())
	stored, _ := tokens.Get()
	assert.Empty(t, stored)
}

func TestSessionLogoutServerFailureStillClears(t *testing.T) {
	backend := testutil.NewFakeBackend()
	url := backend.URL()
	backend.Close()

	tokens := internal.NewMemTokenStore()
	require.NoError(t, tokens.Set("some-token"))
	client := internal.NewClient(url, tokens, time.Second)
	session := internal.NewSession(client, tokens)

	err := session.Logout(context.Background())
	assert.Error(t, err, "remote failure is reported")

	stored, _ := tokens.Get()
	assert.Empty(t, stored, "local token must be gone regardless")
	assert.Equal(t, internal.StateUnauthenticated, session.State())
}

func TestSessionInvalidateOnMidFlight401(t *testing.T) {
	backend := testutil.NewFakeBackend()
	defer backend.Close()
	user := backend.SeedUser("alice@example.com", "pw")

	tokens := internal.NewMemTokenStore()
	require.NoError(t, tokens.Set(backend.IssueToken(user.Email)))
	client := internal.NewClient(backend.URL(), tokens, time.Second)
	session := internal.NewSession(client, tokens)
	client.OnAuthLost(session.Invalidate)

	session.Bootstrap(context.Background())
	require.True(t, session.IsAuthenticated())

	// The backend starts rejecting the token; the next request tears the
	// session down through the auth-lost hook.
	backend.RejectTokens = true
	_, err := client.Get(context.Background(), "/api/v1/tasks/", nil)
	require.Error(t, err)
	assert.Equal(t, internal.StateUnauthenticated, session.State())
	assert.False(t, session.HasToken())
}
