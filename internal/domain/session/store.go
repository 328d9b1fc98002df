package session

import (
	"context"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/okian/enso/pkg/logger"
	"github.com/okian/enso/pkg/metrics"
)

const (
	defaultTTL             = 30 * time.Minute
	defaultMaxSessions     = 10000
	defaultMaxPoints       = 20000
	defaultJanitorInterval = time.Minute
	anonymousPlayer        = "anonymous"
)

// Store keeps live sessions by id.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	closed   bool

	ttl             time.Duration
	maxSessions     int
	maxPoints       int
	janitorInterval time.Duration
	now             func() time.Time
	newID           func() string

	stop    chan struct{}
	done    chan struct{}
	once    sync.Once
	started atomic.Bool

	logger logger.Logger
}

// NewStore creates an empty store.
func NewStore(opts ...Option) *Store {
	s := &Store{
		sessions:        make(map[string]*Session),
		ttl:             defaultTTL,
		maxSessions:     defaultMaxSessions,
		maxPoints:       defaultMaxPoints,
		janitorInterval: defaultJanitorInterval,
		now:             time.Now,
		newID:           uuid.NewString,
		stop:            make(chan struct{}),
		done:            make(chan struct{}),
		logger:          logger.Get().Named("session"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create opens a new session for player.
func (s *Store) Create(player string) (*Session, error) {
	player = strings.TrimSpace(player)
	if player == "" {
		player = anonymousPlayer
	}
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, ErrClosed
	}
	if len(s.sessions) >= s.maxSessions {
		s.sweepLocked(now)
		if len(s.sessions) >= s.maxSessions {
			return nil, ErrCapacity
		}
	}
	sess := newSession(s.newID(), player, now, s.maxPoints)
	s.sessions[sess.ID] = sess
	metrics.RecordSessionCreated()
	metrics.UpdateSessionsActive(len(s.sessions))
	return sess, nil
}

// Get returns a live session and refreshes its idle timer.
func (s *Store) Get(id string) (*Session, error) {
	now := s.now()
	s.mu.RLock()
	sess, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok || s.expired(sess, now) {
		return nil, ErrNotFound
	}
	sess.touch(now)
	return sess, nil
}

// End terminates a session, discarding its best score.
func (s *Store) End(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	metrics.UpdateSessionsActive(len(s.sessions))
	return nil
}

// Count returns the number of sessions held, including expired ones not yet
// swept.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Sweep evicts expired sessions and returns how many were removed.
func (s *Store) Sweep() int {
	now := s.now()
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.sweepLocked(now)
}

func (s *Store) sweepLocked(now time.Time) int {
	removed := 0
	for id, sess := range s.sessions {
		if s.expired(sess, now) {
			delete(s.sessions, id)
			removed++
			metrics.RecordSessionExpired()
		}
	}
	if removed > 0 {
		metrics.UpdateSessionsActive(len(s.sessions))
	}
	return removed
}

func (s *Store) expired(sess *Session, now time.Time) bool {
	return now.Sub(sess.idleSince()) > s.ttl
}

// Start runs the janitor until ctx is done or Close is called.
func (s *Store) Start(ctx context.Context) {
	if !s.started.CompareAndSwap(false, true) {
		return
	}
	go func() {
		defer close(s.done)
		ticker := time.NewTicker(s.janitorInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stop:
				return
			case <-ticker.C:
				if n := s.Sweep(); n > 0 {
					s.logger.Debug(ctx, "expired sessions evicted", logger.Int("count", n))
				}
			}
		}
	}()
}

// Close stops the janitor and rejects new sessions. It waits for the
// janitor only if Start was called.
func (s *Store) Close(ctx context.Context) error {
	s.once.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.stop)
	})
	if !s.started.Load() {
		return nil
	}
	select {
	case <-s.done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
