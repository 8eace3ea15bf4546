// Package session keeps the editors of the HTTP server, one per open mind
// map, addressed by a random UUID.
//
// Sessions live in memory only and expire after a period of inactivity:
// every successful [Store.Get] pushes the expiry forward by the store's TTL.
// Expired sessions are removed lazily on access and in bulk by
// [Store.Cleanup], which [RunJanitor] calls periodically. Removing a session
// closes its editor so event subscribers are released.
//
// # Usage
//
//	store := session.NewMemoryStore(session.DefaultTTL)
//	sess, err := store.Create(ctx, editor.New())
//	...
//	sess, err = store.Get(ctx, sess.ID)
//	if errors.Is(err, session.ErrNotFound) {
//	    // unknown or expired
//	}
package session

import (
	"context"
	"errors"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/axonote/pkg/editor"
)

// Sentinel errors for session operations.
var (
	// ErrNotFound is returned when a session does not exist or has expired.
	ErrNotFound = errors.New("session not found")

	// ErrInvalidID is returned for ids that are not UUIDs.
	ErrInvalidID = errors.New("invalid session id")
)

// DefaultTTL is how long an idle session is kept.
const DefaultTTL = 2 * time.Hour

// Session binds an editor to an id.
type Session struct {
	ID        string         `json:"id"`
	Editor    *editor.Editor `json:"-"`
	CreatedAt time.Time      `json:"created_at"`
	ExpiresAt time.Time      `json:"expires_at"`
}

// IsExpired reports whether the session's expiry lies in the past.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// Store is the interface of session registries.
type Store interface {
	// Create registers ed under a fresh id.
	Create(ctx context.Context, ed *editor.Editor) (*Session, error)

	// Get returns the session and refreshes its expiry. Unknown and expired
	// sessions yield ErrNotFound.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes the session and closes its editor. Deleting an unknown
	// session returns ErrNotFound.
	Delete(ctx context.Context, id string) error

	// Cleanup removes every expired session and returns how many it removed.
	Cleanup(ctx context.Context) (int, error)
}

// NewID returns a random session id.
func NewID() string { return uuid.NewString() }

// ValidateID checks that id is a UUID.
func ValidateID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return ErrInvalidID
	}
	return nil
}

// RunJanitor calls store.Cleanup every interval until ctx is done.
func RunJanitor(ctx context.Context, store Store, interval time.Duration, logger *log.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := store.Cleanup(ctx)
			if err != nil {
				logger.Warn("session cleanup failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Debug("expired sessions removed", "count", n)
			}
		}
	}
}
