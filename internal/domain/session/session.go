// Package session holds per-player game state: the session best score, the
// last judged attempt and the gesture currently being drawn.
package session

import (
	"sync"
	"time"

	"github.com/okian/enso/internal/domain/geometry"
	"github.com/okian/enso/internal/domain/model"
)

// Session is one play session. BestScore lives and dies with it.
type Session struct {
	ID        string
	Player    string
	CreatedAt time.Time

	mu        sync.Mutex
	best      float64
	attempts  int
	last      *model.Attempt
	lastSeen  time.Time
	maxPoints int

	drawing bool
	gesture geometry.Path
}

func newSession(id, player string, now time.Time, maxPoints int) *Session {
	return &Session{
		ID:        id,
		Player:    player,
		CreatedAt: now,
		lastSeen:  now,
		maxPoints: maxPoints,
	}
}

// Best returns the best score of the session, 0 before any scored attempt.
func (s *Session) Best() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.best
}

// Offer sets the best score iff score is strictly greater than it.
func (s *Session) Offer(score float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.offerLocked(score)
}

func (s *Session) offerLocked(score float64) bool {
	if !(score > s.best) {
		return false
	}
	s.best = score
	return true
}

// Apply offers the attempt's score and records it as the last attempt under
// a single lock, filling in Best and Improved.
func (s *Session) Apply(a model.Attempt) model.Attempt {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.Improved = a.Verdict.Scored() && s.offerLocked(a.Verdict.Score)
	a.Best = s.best
	s.recordLocked(a)
	return a
}

// Record stores a as the last attempt.
func (s *Session) Record(a model.Attempt) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recordLocked(a)
}

func (s *Session) recordLocked(a model.Attempt) {
	s.attempts++
	s.last = &a
}

// Last returns the most recent attempt.
func (s *Session) Last() (model.Attempt, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return model.Attempt{}, false
	}
	return *s.last, true
}

// Attempts returns the number of judged attempts.
func (s *Session) Attempts() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.attempts
}

// Begin starts a new gesture, discarding any previous one.
func (s *Session) Begin(p geometry.Point) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawing = true
	s.gesture = append(make(geometry.Path, 0, 64), p)
}

// Extend appends p to the gesture in progress. It reports false when no
// gesture is in progress or the gesture is already at its point limit.
func (s *Session) Extend(p geometry.Point) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drawing {
		return false
	}
	if s.maxPoints > 0 && len(s.gesture) >= s.maxPoints {
		return false
	}
	s.gesture = append(s.gesture, p)
	return true
}

// Finish ends the gesture in progress and hands over its path.
func (s *Session) Finish() (geometry.Path, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.drawing {
		return nil, false
	}
	path := s.gesture
	s.drawing = false
	s.gesture = nil
	return path, true
}

// Reset drops the gesture in progress. The best score is kept.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.drawing = false
	s.gesture = nil
}

// Drawing reports whether a gesture is in progress.
func (s *Session) Drawing() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drawing
}

func (s *Session) touch(now time.Time) {
	s.mu.Lock()
	s.lastSeen = now
	s.mu.Unlock()
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}
