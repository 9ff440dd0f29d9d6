// Package session keeps per-visitor state (the shopping bag) outside the process.
package session

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// Store persists the bag snapshot of each session.
type Store interface {
	// LoadBag returns the raw bag snapshot, or nil when the session holds none.
	LoadBag(ctx context.Context, sessionID string) ([]byte, error)
	SaveBag(ctx context.Context, sessionID string, bag []byte) error
	ClearBag(ctx context.Context, sessionID string) error
}

// ErrNoSession is returned when a request carries no session identifier.
var ErrNoSession = errors.New("no session")

type contextKey struct{}

// NewID returns a random session identifier.
func NewID() string {
	return uuid.NewString()
}

// WithID stores a session identifier in the context.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IDFromContext returns the session identifier of the request.
func IDFromContext(ctx context.Context) (string, error) {
	id, ok := ctx.Value(contextKey{}).(string)
	if !ok || id == "" {
		return "", ErrNoSession
	}
	return id, nil
}

// ValidID reports whether id looks like an identifier issued by NewID.
func ValidID(id string) bool {
	parsed, err := uuid.Parse(id)
	return err == nil && parsed.String() == id
}

type userKey struct{}

// WithUsername stores the authenticated username in the context.
func WithUsername(ctx context.Context, username string) context.Context {
	return context.WithValue(ctx, userKey{}, username)
}

// UsernameFromContext returns the authenticated username, or "" for a guest.
func UsernameFromContext(ctx context.Context) string {
	username, _ := ctx.Value(userKey{}).(string)
	return username
}
