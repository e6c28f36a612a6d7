package query

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// ListResult is what an observer currently shows.
type ListResult struct {
	Key    ListKey
	Data   *library.ListEnvelope
	Err    error
	Status Status

	// IsLoading is set while the first fetch for Key runs.
	IsLoading bool

	// IsFetching is set while any fetch for Key runs, including background refetches.
	IsFetching bool

	// IsPlaceholderData is set when Data belongs to the previously observed key
	// because Key has no data yet.
	IsPlaceholderData bool
}

// ListObserver follows one list key at a time, the way a paginated view does.
// While a new key loads, the last data shown is kept as a placeholder.
type ListObserver struct {
	cache *Cache

	mu       sync.Mutex
	key      ListKey
	slot     *slot[library.BookList]
	previous *library.ListEnvelope
	closed   bool
}

// Observe starts observing key. Observed entries are refetched as soon as they
// are invalidated, and their fetches are abandoned once nobody observes them.
func (c *Cache) Observe(ctx context.Context, key ListKey) *ListObserver {
	o := &ListObserver{cache: c}
	o.SetKey(ctx, key)

	return o
}

// Key returns the observed key.
func (o *ListObserver) Key() ListKey {
	o.mu.Lock()
	defer o.mu.Unlock()

	return o.key
}

// SetKey moves the observer to key. A fetch for the previous key that nobody
// else is waiting for is abandoned.
func (o *ListObserver) SetKey(ctx context.Context, key ListKey) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed || (o.slot != nil && o.key == key) {
		return
	}

	c := o.cache
	c.lists.restore(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()

	if old := o.slot; old != nil {
		old.observers--
		if old.data != nil {
			o.previous = library.CloneList(old.data)
		}

		abandonLocked(old)
	}

	o.key = key
	o.slot = nil

	// A slot left in an error state, by a failed prefetch for instance, is
	// fetched again when a view moves onto it.
	s := o.attachLocked()
	if s.err != nil || s.stale(c.now(), c.lists.staleTime) {
		s.err = nil
		c.lists.startLocked(key, s, false)
	}
}

// Result returns the current state and refetches in the background when the
// data is stale. A failed fetch is not retried here; SetKey or Refetch do that.
func (o *ListObserver) Result() ListResult {
	o.mu.Lock()
	defer o.mu.Unlock()

	c := o.cache
	c.mu.Lock()
	defer c.mu.Unlock()

	s := o.attachLocked()
	now := c.now()
	s.lastUsed = now

	if !o.closed && s.stale(now, c.lists.staleTime) && s.err == nil {
		c.lists.startLocked(o.key, s, false)
	}

	result := ListResult{
		Key:        o.key,
		Err:        s.err,
		Status:     s.status(now, c.lists.staleTime),
		IsFetching: s.fetching,
	}

	switch {
	case s.data != nil:
		result.Data = library.CloneList(s.data)
		o.previous = library.CloneList(s.data)
	case o.previous != nil:
		result.Data = library.CloneList(o.previous)
		result.IsPlaceholderData = true
		result.IsLoading = s.fetching
	default:
		result.IsLoading = s.fetching
	}

	return result
}

// Wait blocks until the fetch in flight for the observed key has finished and
// returns the resulting state.
func (o *ListObserver) Wait(ctx context.Context) (ListResult, error) {
	o.mu.Lock()

	c := o.cache
	c.mu.Lock()

	s := o.attachLocked()

	var ch <-chan singleflight.Result

	// Joined under the lock so the flight cannot finish, and be started again
	// by the group, in between.
	if s.fetching {
		s.waiters++
		ch = c.group.DoChan(s.flightKey, s.flightFn)
	}

	c.mu.Unlock()
	o.mu.Unlock()

	if ch != nil {
		_, _ = c.lists.await(ctx, s, ch)
	}

	if ctx.Err() != nil {
		return ListResult{}, ctx.Err()
	}

	return o.Result(), nil
}

// Refetch starts a fetch for the observed key even if its data is fresh.
func (o *ListObserver) Refetch() {
	o.mu.Lock()
	defer o.mu.Unlock()

	c := o.cache
	c.mu.Lock()
	defer c.mu.Unlock()

	s := o.attachLocked()
	s.err = nil
	s.invalid = true
	s.generation++
	c.lists.startLocked(o.key, s, false)
}

// Close stops observing.
func (o *ListObserver) Close() {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.closed {
		return
	}

	o.closed = true

	c := o.cache
	c.mu.Lock()
	defer c.mu.Unlock()

	if o.slot != nil {
		o.slot.observers--
		abandonLocked(o.slot)
		o.slot = nil
	}
}

// attachLocked returns the observed slot, re-registering if the cache dropped it.
// Callers hold o.mu and c.mu.
func (o *ListObserver) attachLocked() *slot[library.BookList] {
	c := o.cache
	if o.slot != nil && c.lists.slots[o.key] == o.slot {
		return o.slot
	}

	s := c.lists.slotLocked(o.key)
	if !o.closed {
		s.observers++
		o.slot = s
	}

	return s
}
