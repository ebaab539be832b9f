package session

import (
	"context"
	"errors"
	"time"

	"github.com/vicoolz/palimpseste/internal/tree"
)

var (
	// ErrNotReady is returned while the provider cannot be reached.
	ErrNotReady = errors.New("session provider not ready")
	// ErrInvalidCredentials is returned when sign-in is refused.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AuthEvent names a session transition.
type AuthEvent string

const (
	EventInitialSession AuthEvent = "INITIAL_SESSION"
	EventSignedIn       AuthEvent = "SIGNED_IN"
	EventSignedOut      AuthEvent = "SIGNED_OUT"
	EventTokenRefreshed AuthEvent = "TOKEN_REFRESHED"
)

// User is the provider's view of an account.
type User struct {
	ID       string         `json:"id"`
	Email    string         `json:"email,omitempty"`
	Metadata map[string]any `json:"user_metadata,omitempty"`
}

// Tree converts u into the record stored under the user key.
func (u User) Tree() tree.Tree {
	t := tree.Tree{"id": u.ID}
	if u.Email != "" {
		t["email"] = u.Email
	}
	if len(u.Metadata) > 0 {
		meta := make(tree.Tree, len(u.Metadata))
		for k, v := range u.Metadata {
			meta[k] = v
		}
		t["metadata"] = meta
	}
	return t
}

// Session is an authenticated session.
type Session struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	ExpiresAt    time.Time `json:"expires_at"`
	User         User      `json:"user"`
}

// Expired reports whether the access token is past its expiry at now.
func (s *Session) Expired(now time.Time) bool {
	return s == nil || (!s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt))
}

// AuthCallback receives session transitions. sess is nil on sign-out.
type AuthCallback func(event AuthEvent, sess *Session)

// Client is the surface the bootstrap sequencer consumes.
type Client interface {
	// OnAuthStateChange registers cb and returns a function removing it.
	OnAuthStateChange(cb AuthCallback) func()
	// GetSession returns the current session, or nil when signed out.
	GetSession(ctx context.Context) (*Session, error)
}

// SDK locates the provider and builds clients for it.
type SDK interface {
	// Available returns nil once the provider can be used.
	Available(ctx context.Context) error
	NewClient(url, key string) (Client, error)
}
