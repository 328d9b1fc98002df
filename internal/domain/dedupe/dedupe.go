// Package dedupe makes attempt submission idempotent: a retried attempt id
// gets the verdict judged the first time instead of being judged again.
package dedupe

import (
	"container/list"
	"context"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"

	"github.com/okian/enso/internal/domain/model"
)

const defaultMaxSize = 50000

// JudgeFunc produces the attempt for a key seen for the first time.
type JudgeFunc func() (model.Attempt, error)

// Replayer remembers judged attempts by key.
type Replayer interface {
	// Do returns the stored attempt for key with replayed=true, or runs judge
	// and stores its result. Concurrent calls for the same key run judge
	// once. Failed judgements are not stored.
	Do(ctx context.Context, key string, judge JudgeFunc) (a model.Attempt, replayed bool, err error)

	// Forget drops key so the next Do judges again.
	Forget(ctx context.Context, key string)

	Size() int64
}

type entry struct {
	key     string
	attempt model.Attempt
}

// inMemoryReplayer keeps at most maxSize attempts and evicts the oldest
// first. maxSize <= 0 means unbounded.
type inMemoryReplayer struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	order   *list.List // front is newest
	maxSize int
	size    atomic.Int64
	flight  singleflight.Group
}

// NewInMemoryReplayer creates a replayer with configuration options.
func NewInMemoryReplayer(opts ...Option) Replayer {
	r := &inMemoryReplayer{
		entries: make(map[string]*list.Element),
		order:   list.New(),
		maxSize: defaultMaxSize,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *inMemoryReplayer) Do(ctx context.Context, key string, judge JudgeFunc) (model.Attempt, bool, error) {
	if a, ok := r.lookup(key); ok {
		return a, true, nil
	}

	leader := false
	v, err, _ := r.flight.Do(key, func() (any, error) {
		if a, ok := r.lookup(key); ok {
			return a, nil
		}
		leader = true
		a, err := judge()
		if err != nil {
			return nil, err
		}
		r.store(key, a)
		return a, nil
	})
	if err != nil {
		return model.Attempt{}, false, err
	}
	return v.(model.Attempt), !leader, nil
}

func (r *inMemoryReplayer) lookup(key string) (model.Attempt, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	el, ok := r.entries[key]
	if !ok {
		return model.Attempt{}, false
	}
	return el.Value.(*entry).attempt, true
}

func (r *inMemoryReplayer) store(key string, a model.Attempt) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[key]; ok {
		return
	}
	if r.maxSize > 0 && r.order.Len() >= r.maxSize {
		r.evictOldest()
	}
	r.entries[key] = r.order.PushFront(&entry{key: key, attempt: a})
	r.size.Add(1)
}

// evictOldest must be called with r.mu held.
func (r *inMemoryReplayer) evictOldest() {
	el := r.order.Back()
	if el == nil {
		return
	}
	r.order.Remove(el)
	delete(r.entries, el.Value.(*entry).key)
	r.size.Add(-1)
}

func (r *inMemoryReplayer) Forget(ctx context.Context, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if el, ok := r.entries[key]; ok {
		r.order.Remove(el)
		delete(r.entries, key)
		r.size.Add(-1)
	}
}

func (r *inMemoryReplayer) Size() int64 {
	return r.size.Load()
}

// Key scopes an attempt id to its session.
func Key(sessionID, attemptID string) string {
	return sessionID + "/" + attemptID
}
