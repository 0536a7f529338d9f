package internal

import (
	"context"
	"time"
)

// GuardState is the access decision for protected commands.
type GuardState int

const (
	// GuardLoading means the session is still unresolved.
	GuardLoading GuardState = iota

	// GuardAllowed means protected content may be shown.
	GuardAllowed

	// GuardRedirecting means the caller must send the user to login.
	GuardRedirecting
)

func (g GuardState) String() string {
	switch g {
	case GuardAllowed:
		return "allowed"
	case GuardRedirecting:
		return "redirecting"
	default:
		return "loading"
	}
}

// DefaultGraceWindow is how long the guard waits before evicting a session
// whose token could not be validated over the network.
const DefaultGraceWindow = time.Second

// Guard gates protected commands on auth resolution. An unauthenticated
// session with no local token is turned away immediately. If a token is
// still present the resolution may have failed on a transient network
// problem, so the guard waits a grace window and re-validates before giving
// up rather than evicting a possibly-valid session.
type Guard struct {
	session *Session
	grace   time.Duration
}

// NewGuard creates a guard with the default grace window.
func NewGuard(session *Session) *Guard {
	return &Guard{session: session, grace: DefaultGraceWindow}
}

// SetGraceWindow overrides the grace window. Used by tests.
func (g *Guard) SetGraceWindow(d time.Duration) {
	g.grace = d
}

// State returns the decision for the current session state without
// resolving or waiting.
func (g *Guard) State() GuardState {
	switch g.session.State() {
	case StateUnresolved:
		return GuardLoading
	case StateAuthenticated:
		return GuardAllowed
	default:
		return GuardRedirecting
	}
}

// Resolve drives the session to a decision. It never returns GuardLoading:
// an unresolved session is bootstrapped first.
func (g *Guard) Resolve(ctx context.Context) (GuardState, error) {
	if g.session.State() == StateUnresolved {
		g.session.Bootstrap(ctx)
	}
	if g.session.IsAuthenticated() {
		return GuardAllowed, nil
	}

	// No token left means the rejection was definitive.
	if !g.session.HasToken() {
		return GuardRedirecting, nil
	}

	LogInfo("Session unresolved with token present, waiting %s before re-check", g.grace)
	select {
	case <-time.After(g.grace):
	case <-ctx.Done():
		return GuardRedirecting, ctx.Err()
	}

	g.session.Bootstrap(ctx)
	if g.session.IsAuthenticated() {
		return GuardAllowed, nil
	}
	return GuardRedirecting, nil
}
