// Package session keeps refresh tokens in process memory.
//
// Entries do not survive a restart and are not shared between instances;
// running more than one replica requires a durable keyed store instead.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/gofrs/uuid"
)

var (
	ErrNotFound = errors.New("session not found")
	ErrExpired  = errors.New("session expired")
)

type Session struct {
	UserID    uuid.UUID
	ExpiresAt time.Time
}

// Store maps refresh tokens to sessions. A single mutex serialises every
// access so a concurrent logout and refresh of one token observe a
// consistent entry.
type Store struct {
	mu       sync.Mutex
	sessions map[string]Session
	now      func() time.Time
}

func NewStore() *Store {
	return &Store{
		sessions: make(map[string]Session),
		now:      time.Now,
	}
}

func (s *Store) Save(token string, userID uuid.UUID, expiresAt time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[token] = Session{UserID: userID, ExpiresAt: expiresAt}
}

// Lookup returns the owner of token. An expired entry is evicted and
// reported as ErrExpired; later lookups of it report ErrNotFound.
func (s *Store) Lookup(token string) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[token]
	if !ok {
		return uuid.Nil, ErrNotFound
	}

	if s.now().After(sess.ExpiresAt) {
		delete(s.sessions, token)
		return uuid.Nil, ErrExpired
	}

	return sess.UserID, nil
}

// Delete is idempotent.
func (s *Store) Delete(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, token)
}

// Sweep evicts every expired entry and returns how many were removed.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for token, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			delete(s.sessions, token)
			removed++
		}
	}

	return removed
}

func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.sessions)
}

// RunJanitor sweeps the store every interval until ctx is done.
func (s *Store) RunJanitor(ctx context.Context, interval time.Duration, log *slog.Logger) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 {
				log.Debug("expired sessions evicted", slog.Int("count", n))
			}
		}
	}
}
