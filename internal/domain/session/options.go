package session

import "time"

// Option configures a Store.
type Option func(*Store)

// WithTTL sets the idle time after which a session expires.
func WithTTL(ttl time.Duration) Option {
	return func(s *Store) {
		if ttl > 0 {
			s.ttl = ttl
		}
	}
}

// WithMaxSessions bounds the number of live sessions.
func WithMaxSessions(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxSessions = n
		}
	}
}

// WithMaxPathPoints bounds gestures recorded through Begin/Extend.
func WithMaxPathPoints(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.maxPoints = n
		}
	}
}

// WithJanitorInterval sets how often expired sessions are swept.
func WithJanitorInterval(d time.Duration) Option {
	return func(s *Store) {
		if d > 0 {
			s.janitorInterval = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator replaces the uuid based session id generator.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) {
		if gen != nil {
			s.newID = gen
		}
	}
}
