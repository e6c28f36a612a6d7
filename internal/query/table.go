package query

import (
	"context"
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// slot is one cache entry. All fields are guarded by Cache.mu.
type slot[T any] struct {
	data       *library.Envelope[T]
	err        error
	optimistic bool
	invalid    bool
	fetchedAt  time.Time
	lastUsed   time.Time

	// generation is bumped on every invalidation and cache edit. A fetch only
	// stores its result when the generation it started with is still current.
	generation uint64

	fetching         bool
	prefetch         bool
	flightGeneration uint64
	flightKey        string
	flightFn         func() (interface{}, error)
	cancel           context.CancelFunc

	observers int
	waiters   int
}

func (s *slot[T]) stale(now time.Time, staleTime time.Duration) bool {
	return s.data == nil || s.invalid || now.Sub(s.fetchedAt) >= staleTime
}

func (s *slot[T]) status(now time.Time, staleTime time.Duration) Status {
	switch {
	case s.data == nil:
		return StatusPending
	case s.fetching:
		return StatusStaleRefetching
	case s.optimistic:
		return StatusOptimistic
	case s.stale(now, staleTime):
		return StatusStale
	default:
		return StatusConfirmed
	}
}

// current reports whether a fetch for the slot's current generation is running.
func (s *slot[T]) current() bool {
	return s.fetching && s.flightGeneration == s.generation
}

func (s *slot[T]) idle(now time.Time, gcTime time.Duration) bool {
	return s.observers == 0 && s.waiters == 0 && !s.fetching && now.Sub(s.lastUsed) >= gcTime
}

// table holds the slots of one resource kind.
type table[K comparable, T any] struct {
	cache     *Cache
	slots     map[K]*slot[T]
	staleTime time.Duration
	name      func(K) string
	load      func(ctx context.Context, key K) (*library.Envelope[T], error)
	clone     func(*library.Envelope[T]) *library.Envelope[T]
}

func (t *table[K, T]) get(ctx context.Context, key K) (*library.Envelope[T], error) {
	t.restore(ctx, key)

	c := t.cache
	c.mu.Lock()

	s := t.slotLocked(key)
	now := c.now()
	s.lastUsed = now

	if s.data != nil {
		if s.stale(now, t.staleTime) {
			t.startLocked(key, s, false)
		}

		data := t.clone(s.data)
		c.mu.Unlock()

		return data, nil
	}

	ch, err := t.joinLocked(key, s)
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}

	return t.await(ctx, s, ch)
}

func (t *table[K, T]) fetch(ctx context.Context, key K) (*library.Envelope[T], error) {
	c := t.cache
	c.mu.Lock()

	s := t.slotLocked(key)
	s.lastUsed = c.now()

	ch, err := t.joinLocked(key, s)
	c.mu.Unlock()

	if err != nil {
		return nil, err
	}

	return t.await(ctx, s, ch)
}

// slotLocked returns the slot for key, creating it.
func (t *table[K, T]) slotLocked(key K) *slot[T] {
	t.cache.collectLocked()

	s, ok := t.slots[key]
	if !ok {
		s = &slot[T]{lastUsed: t.cache.now()}
		t.slots[key] = s
	}

	return s
}

// startLocked starts a fetch for the slot's current generation unless one is
// already running. A running fetch of an older generation is left to finish
// but its result will be discarded.
func (t *table[K, T]) startLocked(key K, s *slot[T], prefetch bool) {
	c := t.cache
	if c.closed || s.current() {
		return
	}

	c.seq++

	ctx, cancel := context.WithCancel(context.Background())
	generation := s.generation
	flightKey := t.name(key) + "#" + strconv.FormatUint(c.seq, 10)

	s.fetching = true
	s.prefetch = prefetch
	s.flightGeneration = generation
	s.flightKey = flightKey
	s.cancel = cancel
	s.flightFn = func() (interface{}, error) {
		defer cancel()

		return t.run(ctx, key, s, generation, flightKey)
	}

	c.logDebug("fetching", map[string]interface{}{"key": t.name(key), "prefetch": prefetch})

	c.group.DoChan(flightKey, s.flightFn)
}

// joinLocked registers a waiter on the current fetch, starting one if needed.
func (t *table[K, T]) joinLocked(key K, s *slot[T]) (<-chan singleflight.Result, error) {
	if t.cache.closed {
		return nil, ErrCacheClosed
	}

	t.startLocked(key, s, false)
	s.waiters++

	return t.cache.group.DoChan(s.flightKey, s.flightFn), nil
}

// await waits for a fetch result. A waiter that gives up may abandon the fetch
// when nobody else is interested in it.
func (t *table[K, T]) await(ctx context.Context, s *slot[T], ch <-chan singleflight.Result) (*library.Envelope[T], error) {
	select {
	case res := <-ch:
		t.leave(s)

		if res.Err != nil {
			return nil, res.Err
		}

		envelope, _ := res.Val.(*library.Envelope[T])

		return t.clone(envelope), nil
	case <-ctx.Done():
		t.leave(s)

		return nil, ctx.Err()
	}
}

func (t *table[K, T]) leave(s *slot[T]) {
	c := t.cache
	c.mu.Lock()
	defer c.mu.Unlock()

	s.waiters--
	abandonLocked(s)
}

// abandonLocked cancels a fetch nobody is interested in any more. Prefetches are kept.
func abandonLocked[T any](s *slot[T]) {
	if s.fetching && !s.prefetch && s.observers == 0 && s.waiters == 0 && s.cancel != nil {
		s.cancel()
	}
}

// run performs the fetch and stores the result if it is still wanted.
func (t *table[K, T]) run(ctx context.Context, key K, s *slot[T], generation uint64, flightKey string) (interface{}, error) {
	envelope, err := t.loadWithRetry(ctx, key)

	c := t.cache
	c.mu.Lock()

	prefetch := false

	if s.flightKey == flightKey {
		prefetch = s.prefetch
		s.fetching = false
		s.prefetch = false
		s.cancel = nil
	}

	if t.slots[key] != s || s.generation != generation {
		c.mu.Unlock()
		c.logDebug("discarding superseded result", map[string]interface{}{"key": t.name(key)})

		if err != nil {
			return nil, err
		}

		return envelope, nil
	}

	if err != nil {
		// Nobody is looking at a failed prefetch; the next reader fetches again.
		if !errors.Is(err, context.Canceled) && (!prefetch || s.observers > 0) {
			s.err = err
		}

		c.mu.Unlock()

		return nil, err
	}

	s.data = envelope
	s.err = nil
	s.optimistic = false
	s.invalid = false
	s.fetchedAt = c.now()
	c.mu.Unlock()

	t.persist(key, envelope)

	return envelope, nil
}

func (t *table[K, T]) loadWithRetry(ctx context.Context, key K) (*library.Envelope[T], error) {
	c := t.cache

	for attempt := 0; ; attempt++ {
		envelope, err := t.load(ctx, key)
		if err == nil {
			return envelope, nil
		}

		if attempt >= c.retry || !retryable(err) || ctx.Err() != nil {
			return nil, err
		}

		c.logDebug("retrying fetch", map[string]interface{}{"key": t.name(key), "error": err.Error()})

		if c.retryDelay > 0 {
			timer := time.NewTimer(c.retryDelay)

			select {
			case <-ctx.Done():
				timer.Stop()

				return nil, ctx.Err()
			case <-timer.C:
			}
		}
	}
}

// restore seeds a missing slot from the persistent backend. Restored data starts stale.
func (t *table[K, T]) restore(ctx context.Context, key K) {
	c := t.cache
	if c.backend == nil {
		return
	}

	c.mu.Lock()
	_, ok := t.slots[key]
	c.mu.Unlock()

	if ok {
		return
	}

	entry, err := c.backend.Get(ctx, t.name(key))
	if err != nil {
		return
	}

	var envelope library.Envelope[T]

	err = json.Unmarshal(entry.Data, &envelope)
	if err != nil {
		c.logWarn("ignoring unreadable cache entry", map[string]interface{}{"key": t.name(key), "error": err.Error()})

		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := t.slots[key]; ok {
		return
	}

	t.slots[key] = &slot[T]{
		data:      &envelope,
		invalid:   true,
		fetchedAt: entry.StoredAt,
		lastUsed:  c.now(),
	}
}

func (t *table[K, T]) persist(key K, envelope *library.Envelope[T]) {
	c := t.cache
	if c.backend == nil {
		return
	}

	data, err := json.Marshal(envelope)
	if err != nil {
		c.logWarn("encoding cache entry", map[string]interface{}{"key": t.name(key), "error": err.Error()})

		return
	}

	now := c.now()

	err = c.backend.Set(context.Background(), t.name(key), &library.CacheEntry{
		Data:      data,
		StoredAt:  now,
		ExpiresAt: now.Add(c.persistTTL),
	})
	if err != nil {
		c.logWarn("writing cache entry", map[string]interface{}{"key": t.name(key), "error": err.Error()})
	}
}

func (t *table[K, T]) invalidateLocked(key K, s *slot[T]) {
	// Already invalidated and refetching for the current generation.
	if s.invalid && s.current() {
		return
	}

	s.invalid = true
	s.err = nil
	s.generation++

	if s.observers > 0 {
		t.startLocked(key, s, false)
	}
}

func (t *table[K, T]) invalidateAllLocked() {
	for key, s := range t.slots {
		t.invalidateLocked(key, s)
	}
}

func (t *table[K, T]) removeLocked(key K) {
	s, ok := t.slots[key]
	if !ok {
		return
	}

	if s.cancel != nil && s.waiters == 0 {
		s.cancel()
	}

	delete(t.slots, key)
}

func (t *table[K, T]) clearLocked() {
	for key := range t.slots {
		t.removeLocked(key)
	}
}

func (t *table[K, T]) collectLocked(now time.Time) {
	for key, s := range t.slots {
		if s.idle(now, t.cache.gcTime) {
			delete(t.slots, key)
		}
	}
}
