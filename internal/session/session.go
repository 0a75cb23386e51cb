// Package session implements the server-side session records backing the
// authentication cookie. A session is an opaque token mapped to a small
// record; the two-factor login flow parks a pending user on the record until
// the emailed code is verified.
package session

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

// CookieName is the cookie carrying the opaque session token.
const CookieName = "taskboard_session"

// ErrNotFound is returned when a token does not resolve to a live session.
var ErrNotFound = errors.New("session not found")

// Session is the server-side record keyed by the cookie token.
//
// UserID is zero until login completes. PendingUserID is set by the
// credential step of the two-factor flow and cleared on verification.
type Session struct {
	Token         string    `json:"token"`
	UserID        uint      `json:"user_id"`
	PendingUserID uint      `json:"pending_user_id"`
	CreatedAt     time.Time `json:"created_at"`
}

// Authenticated reports whether the session completed the login flow.
func (s *Session) Authenticated() bool {
	return s != nil && s.UserID != 0
}

// AwaitingCode reports whether the session holds a pending two-factor login.
func (s *Session) AwaitingCode() bool {
	return s != nil && s.UserID == 0 && s.PendingUserID != 0
}

// Store persists session records.
type Store interface {
	// Create allocates a fresh session with a new token.
	Create(ctx context.Context) (*Session, error)
	// Get resolves a token; ErrNotFound when missing or expired.
	Get(ctx context.Context, token string) (*Session, error)
	// Save persists the record and refreshes its TTL.
	Save(ctx context.Context, s *Session) error
	// Destroy removes the record. Destroying an unknown token is not an error.
	Destroy(ctx context.Context, token string) error
}

func newToken() string {
	return uuid.NewString()
}
