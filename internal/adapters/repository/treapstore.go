package repository

import (
	"context"
	"errors"
	"math"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/okian/enso/internal/domain/model"
	"github.com/okian/enso/internal/domain/types"
	"github.com/okian/enso/pkg/metrics"
)

// Ordering: score DESC, then session id ASC. "less" means ranks earlier, so
// an in-order walk yields the leaderboard from best to worst. Ranks are
// dense: equal scores share a rank and the next score takes rank+1.

// Scores are fixed point so equal displayed scores compare equal.
const scoreScale = 1e9

type scoreFP int64

func toFixedPoint(x float64) scoreFP { return scoreFP(math.Round(x * scoreScale)) }

func toFloat(x scoreFP) float64 { return float64(x) / scoreScale }

// record is the stored best of one session.
type record struct {
	score     scoreFP
	player    string
	attemptID string
	at        time.Time
}

type node struct {
	id    string
	score scoreFP
	prio  uint64
	left  *node
	right *node
	size  int
}

func nsize(n *node) int {
	if n == nil {
		return 0
	}
	return n.size
}

func fix(n *node) {
	if n != nil {
		n.size = 1 + nsize(n.left) + nsize(n.right)
	}
}

func less(aScore scoreFP, aID string, bScore scoreFP, bID string) bool {
	if aScore != bScore {
		return aScore > bScore
	}
	return aID < bID
}

func rotateRight(y *node) *node {
	x := y.left
	y.left = x.right
	x.right = y
	fix(y)
	fix(x)
	return x
}

func rotateLeft(x *node) *node {
	y := x.right
	x.right = y.left
	y.left = x
	fix(x)
	fix(y)
	return y
}

func insert(n, fresh *node) *node {
	if n == nil {
		return fresh
	}
	if less(fresh.score, fresh.id, n.score, n.id) {
		n.left = insert(n.left, fresh)
		if n.left.prio > n.prio {
			n = rotateRight(n)
		}
	} else {
		n.right = insert(n.right, fresh)
		if n.right.prio > n.prio {
			n = rotateLeft(n)
		}
	}
	fix(n)
	return n
}

func deleteNode(n *node, id string, score scoreFP) *node {
	if n == nil {
		return nil
	}
	switch {
	case score == n.score && id == n.id:
		if n.left == nil {
			return n.right
		}
		if n.right == nil {
			return n.left
		}
		if n.left.prio > n.right.prio {
			n = rotateRight(n)
			n.right = deleteNode(n.right, id, score)
		} else {
			n = rotateLeft(n)
			n.left = deleteNode(n.left, id, score)
		}
	case less(score, id, n.score, n.id):
		n.left = deleteNode(n.left, id, score)
	default:
		n.right = deleteNode(n.right, id, score)
	}
	fix(n)
	return n
}

// walk visits nodes in rank order until visit returns false.
func walk(n *node, visit func(*node) bool) bool {
	if n == nil {
		return true
	}
	return walk(n.left, visit) && visit(n) && walk(n.right, visit)
}

// TreapStore is an in-memory Store backed by a size-augmented treap.
type TreapStore struct {
	mu       sync.RWMutex
	root     *node
	byID     map[string]record
	priority func() uint64

	metricsUpdateInterval time.Duration

	wg       sync.WaitGroup
	stopChan chan struct{}
	stopOnce sync.Once
}

// NewTreapStore constructs a treap store and starts its metrics updater.
func NewTreapStore(ctx context.Context, opts ...Option) *TreapStore {
	s := &TreapStore{
		byID:                  make(map[string]record),
		priority:              rand.Uint64,
		metricsUpdateInterval: 5 * time.Second,
		stopChan:              make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	metrics.UpdateLeaderboardSize(0)
	s.startMetricsUpdater(ctx)
	return s
}

// Close stops the background metrics updater.
func (s *TreapStore) Close() error {
	s.stopOnce.Do(func() { close(s.stopChan) })
	s.wg.Wait()
	return nil
}

// UpdateBest implements Store.UpdateBest with O(log n) expected time.
func (s *TreapStore) UpdateBest(ctx context.Context, pub model.Publication) (bool, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardLatency("update", float64(time.Since(start).Microseconds())/1000)
	}()

	if err := pub.Validate(); err != nil {
		metrics.RecordErrorByComponent("repository", "invalid_entry")
		return false, errors.Join(ErrInvalidEntry, err)
	}

	ns := toFixedPoint(pub.Score)
	s.mu.Lock()
	if old, ok := s.byID[pub.SessionID]; ok {
		if ns <= old.score {
			s.mu.Unlock()
			return false, nil
		}
		s.root = deleteNode(s.root, pub.SessionID, old.score)
	}
	s.byID[pub.SessionID] = record{score: ns, player: pub.Player, attemptID: pub.AttemptID, at: pub.At}
	s.root = insert(s.root, &node{id: pub.SessionID, score: ns, prio: s.priority(), size: 1})
	count := len(s.byID)
	s.mu.Unlock()

	metrics.UpdateLeaderboardSize(count)
	return true, nil
}

// Rank returns the dense rank of a session.
func (s *TreapStore) Rank(ctx context.Context, sessionID string) (types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardLatency("rank", float64(time.Since(start).Microseconds())/1000)
	}()

	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.byID[sessionID]
	if !ok {
		metrics.RecordErrorByComponent("repository", "not_found")
		return types.Entry{}, ErrNotFound
	}

	// Only scores strictly above rec.score affect the rank, so the walk
	// stops at the first node with an equal score.
	rank := 0
	prev := scoreFP(math.MaxInt64)
	walk(s.root, func(n *node) bool {
		if n.score <= rec.score {
			return false
		}
		if n.score != prev {
			rank++
			prev = n.score
		}
		return true
	})
	return s.entry(sessionID, rec, rank+1), nil
}

// TopN returns the top N entries ordered by score desc.
func (s *TreapStore) TopN(ctx context.Context, n int) ([]types.Entry, error) {
	start := time.Now()
	defer func() {
		metrics.RecordLeaderboardLatency("top", float64(time.Since(start).Microseconds())/1000)
	}()

	if n < 1 {
		metrics.RecordErrorByComponent("repository", "invalid_limit")
		return nil, ErrInvalidLimit
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]types.Entry, 0, min(n, len(s.byID)))
	rank := 0
	prev := scoreFP(math.MaxInt64)
	walk(s.root, func(nd *node) bool {
		if len(out) >= n {
			return false
		}
		if nd.score != prev {
			rank++
			prev = nd.score
		}
		out = append(out, s.entry(nd.id, s.byID[nd.id], rank))
		return true
	})
	return out, nil
}

func (s *TreapStore) entry(id string, rec record, rank int) types.Entry {
	score := toFloat(rec.score)
	return types.Entry{
		Rank:      rank,
		SessionID: id,
		Player:    rec.player,
		Score:     score,
		Percent:   types.Percent(score),
	}
}

// Count returns the number of sessions on the leaderboard.
func (s *TreapStore) Count(ctx context.Context) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func (s *TreapStore) startMetricsUpdater(ctx context.Context) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(s.metricsUpdateInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-s.stopChan:
				return
			case <-ticker.C:
				metrics.UpdateLeaderboardSize(s.Count(ctx))
			}
		}
	}()
}
