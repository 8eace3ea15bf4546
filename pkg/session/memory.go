package session

import (
	"context"
	"sync"
	"time"

	"github.com/matzehuels/axonote/pkg/editor"
)

// MemoryStore keeps sessions in a map.
type MemoryStore struct {
	mu       sync.Mutex
	ttl      time.Duration
	sessions map[string]*Session
	now      func() time.Time
}

// NewMemoryStore creates a store whose sessions expire after ttl of
// inactivity. A non-positive ttl selects DefaultTTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &MemoryStore{ttl: ttl, sessions: make(map[string]*Session), now: time.Now}
}

// Create registers ed under a new UUID.
func (s *MemoryStore) Create(_ context.Context, ed *editor.Editor) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	sess := &Session{ID: NewID(), Editor: ed, CreatedAt: now, ExpiresAt: now.Add(s.ttl)}
	s.sessions[sess.ID] = sess
	return sess, nil
}

// Get returns the session and slides its expiry forward.
func (s *MemoryStore) Get(_ context.Context, id string) (*Session, error) {
	if err := ValidateID(id); err != nil {
		return nil, ErrNotFound
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	now := s.now()
	if now.After(sess.ExpiresAt) {
		s.remove(id)
		return nil, ErrNotFound
	}
	sess.ExpiresAt = now.Add(s.ttl)
	return sess, nil
}

// Delete removes the session and closes its editor.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	s.remove(id)
	return nil
}

// Cleanup removes expired sessions.
func (s *MemoryStore) Cleanup(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	now := s.now()
	n := 0
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			s.remove(id)
			n++
		}
	}
	return n, nil
}

// Len returns the number of stored sessions, expired ones included.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Close removes every session.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id := range s.sessions {
		s.remove(id)
	}
	return nil
}

func (s *MemoryStore) remove(id string) {
	if sess := s.sessions[id]; sess != nil && sess.Editor != nil {
		sess.Editor.Close()
	}
	delete(s.sessions, id)
}

var _ Store = (*MemoryStore)(nil)
