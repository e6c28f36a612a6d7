// Package query keeps list and detail results of the books API in memory,
// serves them stale-while-revalidate and applies post-write cache edits.
package query

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/feildrixliemdra/library-admin/internal/constants"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// ErrCacheClosed is returned by reads on a closed cache.
var ErrCacheClosed = errors.New("query cache closed")

// Status is the lifecycle state of a cache entry.
type Status string

// Entry statuses.
const (
	StatusPending         Status = "pending"
	StatusConfirmed       Status = "confirmed"
	StatusOptimistic      Status = "optimistic"
	StatusStale           Status = "stale"
	StatusStaleRefetching Status = "stale-refetching"
)

// ListKey identifies one list result slot.
type ListKey struct {
	Page  int
	Limit int
	Title string
}

// NewListKey creates a key.
func NewListKey(page, limit int, title string) ListKey {
	return ListKey{Page: page, Limit: limit, Title: title}
}

// Params converts the key to repository list parameters.
func (k ListKey) Params() *library.ListParams {
	return library.NewListParams(k.Page, k.Limit).WithTitle(k.Title)
}

// String returns the key used for persistent backends and flight tracking.
func (k ListKey) String() string {
	return "books:list:page=" + strconv.Itoa(k.Page) + ":limit=" + strconv.Itoa(k.Limit) + ":title=" + k.Title
}

func detailKey(id string) string {
	return "books:detail:" + id
}

// Cache is the query cache. Create one per application (or per test) with NewCache
// and Close it on shutdown.
type Cache struct {
	books   library.BooksClient
	backend library.Cache
	logger  library.Logger

	staleTime       time.Duration
	detailStaleTime time.Duration
	gcTime          time.Duration
	retry           int
	retryDelay      time.Duration
	persistTTL      time.Duration
	now             func() time.Time

	group singleflight.Group

	mu      sync.Mutex
	lists   *table[ListKey, library.BookList]
	details *table[string, library.Book]
	seq     uint64
	closed  bool
}

// Option configures a Cache.
type Option func(*Cache)

// WithBackend writes confirmed results through to a persistent cache.
func WithBackend(backend library.Cache) Option {
	return func(c *Cache) {
		c.backend = backend
	}
}

// WithLogger sets the logger.
func WithLogger(logger library.Logger) Option {
	return func(c *Cache) {
		c.logger = logger
	}
}

// WithStaleTime sets how long list results are served without a refetch.
func WithStaleTime(d time.Duration) Option {
	return func(c *Cache) {
		c.staleTime = d
	}
}

// WithDetailStaleTime sets how long book details are served without a refetch.
func WithDetailStaleTime(d time.Duration) Option {
	return func(c *Cache) {
		c.detailStaleTime = d
	}
}

// WithGCTime sets how long unobserved entries are kept.
func WithGCTime(d time.Duration) Option {
	return func(c *Cache) {
		c.gcTime = d
	}
}

// WithRetry sets the number of automatic read retries and the delay between them.
func WithRetry(count int, delay time.Duration) Option {
	return func(c *Cache) {
		c.retry = count
		c.retryDelay = delay
	}
}

// WithPersistTTL sets the lifetime of entries written to the backend.
func WithPersistTTL(d time.Duration) Option {
	return func(c *Cache) {
		c.persistTTL = d
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// NewCache creates a cache reading through books.
func NewCache(books library.BooksClient, opts ...Option) *Cache {
	c := &Cache{
		books:           books,
		staleTime:       constants.ListStaleTime,
		detailStaleTime: constants.DetailStaleTime,
		gcTime:          constants.GCTime,
		retry:           constants.ReadRetryMax,
		retryDelay:      constants.DefaultRetryWaitMin,
		persistTTL:      constants.PersistTTL,
		now:             time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.lists = &table[ListKey, library.BookList]{
		cache:     c,
		slots:     make(map[ListKey]*slot[library.BookList]),
		staleTime: c.staleTime,
		name:      ListKey.String,
		load: func(ctx context.Context, key ListKey) (*library.ListEnvelope, error) {
			return c.books.List(ctx, key.Params())
		},
		clone: library.CloneList,
	}

	c.details = &table[string, library.Book]{
		cache:     c,
		slots:     make(map[string]*slot[library.Book]),
		staleTime: c.detailStaleTime,
		name:      detailKey,
		load: func(ctx context.Context, id string) (*library.BookEnvelope, error) {
			return c.books.Get(ctx, id)
		},
		clone: cloneBook,
	}

	return c
}

// List returns the result for key. Fresh data is returned as is; stale data is
// returned immediately while a background refetch runs; without data the call
// waits for the fetch.
func (c *Cache) List(ctx context.Context, key ListKey) (*library.ListEnvelope, error) {
	return c.lists.get(ctx, key)
}

// Fetch fetches key from the API, joining a fetch of the same generation that is
// already in flight.
func (c *Cache) Fetch(ctx context.Context, key ListKey) (*library.ListEnvelope, error) {
	return c.lists.fetch(ctx, key)
}

// Book returns the detail for id with the same stale-while-revalidate rules as List.
func (c *Cache) Book(ctx context.Context, id string) (*library.BookEnvelope, error) {
	if id == "" {
		return nil, library.ErrBookIDRequired
	}

	return c.details.get(ctx, id)
}

// Prefetch warms key in the background unless it is fresh or already loading.
// Prefetches are never abandoned for lack of observers.
func (c *Cache) Prefetch(ctx context.Context, key ListKey) {
	c.lists.restore(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()

	s := c.lists.slotLocked(key)
	now := c.now()
	s.lastUsed = now

	if s.fetching || !s.stale(now, c.lists.staleTime) {
		return
	}

	c.lists.startLocked(key, s, true)
}

// PrefetchAdjacent warms the pages before and after page and returns the keys it
// asked for. The next page is skipped when the cached result for page shows it is
// the last one.
func (c *Cache) PrefetchAdjacent(ctx context.Context, page, limit int, title string) []ListKey {
	var keys []ListKey

	if page > 1 {
		keys = append(keys, NewListKey(page-1, limit, title))
	}

	totalPage := -1

	c.mu.Lock()
	if s, ok := c.lists.slots[NewListKey(page, limit, title)]; ok && s.data != nil && s.data.Data != nil {
		totalPage = s.data.Data.Pagination.TotalPage
	}
	c.mu.Unlock()

	if totalPage < 0 || page+1 <= totalPage {
		keys = append(keys, NewListKey(page+1, limit, title))
	}

	for _, key := range keys {
		c.Prefetch(ctx, key)
	}

	return keys
}

// Wait blocks until the fetch in flight for key, if any, has finished.
func (c *Cache) Wait(ctx context.Context, key ListKey) error {
	c.mu.Lock()

	s, ok := c.lists.slots[key]
	if !ok || !s.fetching {
		c.mu.Unlock()

		return nil
	}

	s.waiters++
	ch := c.group.DoChan(s.flightKey, s.flightFn)
	c.mu.Unlock()

	_, _ = c.lists.await(ctx, s, ch)

	return ctx.Err()
}

// Peek returns the cached result for key without fetching.
func (c *Cache) Peek(key ListKey) (*library.ListEnvelope, Status) {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.lists.slots[key]
	if !ok {
		return nil, StatusPending
	}

	return library.CloneList(s.data), s.status(c.now(), c.lists.staleTime)
}

// Status returns the status of key.
func (c *Cache) Status(key ListKey) Status {
	_, status := c.Peek(key)

	return status
}

// BookStatus returns the status of the detail entry for id.
func (c *Cache) BookStatus(id string) Status {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.details.slots[id]
	if !ok {
		return StatusPending
	}

	return s.status(c.now(), c.details.staleTime)
}

// Keys returns the list keys currently cached.
func (c *Cache) Keys() []ListKey {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]ListKey, 0, len(c.lists.slots))
	for key := range c.lists.slots {
		keys = append(keys, key)
	}

	return keys
}

// Invalidate marks key stale. The next access refetches it; observed entries refetch now.
func (c *Cache) Invalidate(key ListKey) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.lists.slots[key]; ok {
		c.lists.invalidateLocked(key, s)
	}
}

// InvalidateLists marks every list entry stale.
func (c *Cache) InvalidateLists() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lists.invalidateAllLocked()
}

// InvalidateBook marks the detail entry for id stale.
func (c *Cache) InvalidateBook(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.details.slots[id]; ok {
		c.details.invalidateLocked(id, s)
	}
}

// InvalidateTag implements library.Revalidator. The books tag covers every list and detail entry.
func (c *Cache) InvalidateTag(_ context.Context, tag string) {
	if tag != library.BooksTag {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.lists.invalidateAllLocked()
	c.details.invalidateAllLocked()
}

// UpdateLists applies edit to a copy of every cached list result. Results the
// edit reports as changed replace the cached data and are marked optimistic.
// It returns the number of entries changed.
func (c *Cache) UpdateLists(edit func(key ListKey, envelope *library.ListEnvelope) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	changed := 0

	for key, s := range c.lists.slots {
		if s.data == nil || s.data.Data == nil {
			continue
		}

		next := library.CloneList(s.data)
		if !edit(key, next) {
			continue
		}

		s.data = next
		s.optimistic = true
		s.generation++
		changed++
	}

	return changed
}

// UpdateBook applies edit to a copy of the cached detail for id.
func (c *Cache) UpdateBook(id string, edit func(book *library.Book)) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	s, ok := c.details.slots[id]
	if !ok || s.data == nil || s.data.Data == nil {
		return false
	}

	next := cloneBook(s.data)
	edit(next.Data)

	s.data = next
	s.optimistic = true
	s.generation++

	return true
}

// RemoveBook drops the cached detail for id.
func (c *Cache) RemoveBook(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.details.removeLocked(id)
}

// Clear drops every entry, abandoning fetches in flight.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lists.clearLocked()
	c.details.clearLocked()
}

// Close clears the cache and stops it from starting new fetches.
func (c *Cache) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.lists.clearLocked()
	c.details.clearLocked()
	c.closed = true
}

func (c *Cache) collectLocked() {
	now := c.now()
	c.lists.collectLocked(now)
	c.details.collectLocked(now)
}

func (c *Cache) logDebug(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Debug(msg, fields)
	}
}

func (c *Cache) logWarn(msg string, fields map[string]interface{}) {
	if c.logger != nil {
		c.logger.Warn(msg, fields)
	}
}

// retryable reports whether a failed read is worth repeating. Client errors
// other than timeouts and rate limits will fail the same way again.
func retryable(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}

	status := library.StatusCode(err)
	if status == http.StatusRequestTimeout || status == http.StatusTooManyRequests {
		return true
	}

	return status < 400 || status >= 500
}

func cloneBook(envelope *library.BookEnvelope) *library.BookEnvelope {
	out := envelope.Clone()
	if out != nil && out.Data != nil {
		book := *out.Data
		if book.CreatedAt != nil {
			createdAt := *book.CreatedAt
			book.CreatedAt = &createdAt
		}

		if book.UpdatedAt != nil {
			updatedAt := *book.UpdatedAt
			book.UpdatedAt = &updatedAt
		}

		out.Data = &book
	}

	return out
}
