package query

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/feildrixliemdra/library-admin/pkg/library"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.now = c.now.Add(d)
}

// fakeBooks is an in-memory books API. A list call takes its snapshot first and
// then blocks on hold, so a held call returns data as of when it started.
type fakeBooks struct {
	mu        sync.Mutex
	books     []library.Book
	listCalls map[ListKey]int
	getCalls  map[string]int
	cancelled int
	hold      chan struct{}
	failures  []error
	writeErr  error
	nextID    int
}

func newFakeBooks(n int) *fakeBooks {
	f := &fakeBooks{
		listCalls: make(map[ListKey]int),
		getCalls:  make(map[string]int),
	}

	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i := 1; i <= n; i++ {
		updatedAt := base.Add(-time.Duration(i) * time.Hour)
		f.books = append(f.books, library.Book{
			ID:                fmt.Sprintf("b%d", i),
			ISBN:              fmt.Sprintf("978-0-00-%06d", i),
			Title:             fmt.Sprintf("Book %d", i),
			Author:            "Author",
			Publisher:         "Publisher",
			YearOfPublication: 2000,
			Category:          "novel",
			UpdatedAt:         &updatedAt,
		})
	}

	return f
}

func (f *fakeBooks) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.hold = make(chan struct{})
}

func (f *fakeBooks) Release() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.hold != nil {
		close(f.hold)
		f.hold = nil
	}
}

func (f *fakeBooks) FailNext(errs ...error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.failures = append(f.failures, errs...)
}

func (f *fakeBooks) ListCalls(key ListKey) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.listCalls[key]
}

func (f *fakeBooks) TotalListCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	total := 0
	for _, n := range f.listCalls {
		total += n
	}

	return total
}

func (f *fakeBooks) Cancelled() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.cancelled
}

func (f *fakeBooks) Rename(id, title string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i := range f.books {
		if f.books[i].ID == id {
			f.books[i].Title = title
		}
	}
}

func (f *fakeBooks) List(ctx context.Context, params *library.ListParams) (*library.ListEnvelope, error) {
	f.mu.Lock()

	key := NewListKey(params.Page, params.Limit, params.Title)
	f.listCalls[key]++

	var err error
	if len(f.failures) > 0 {
		err, f.failures = f.failures[0], f.failures[1:]
	}

	envelope := f.pageLocked(key)
	hold := f.hold
	f.mu.Unlock()

	if hold != nil {
		select {
		case <-hold:
		case <-ctx.Done():
			f.mu.Lock()
			f.cancelled++
			f.mu.Unlock()

			return nil, ctx.Err()
		}
	}

	if err != nil {
		return nil, err
	}

	return envelope, nil
}

func (f *fakeBooks) pageLocked(key ListKey) *library.ListEnvelope {
	var matched []library.Book

	for _, book := range f.books {
		if key.Title == "" || strings.Contains(strings.ToLower(book.Title), strings.ToLower(key.Title)) {
			matched = append(matched, book)
		}
	}

	limit := key.Limit
	if limit <= 0 {
		limit = 10
	}

	page := max(key.Page, 1)
	start := min((page-1)*limit, len(matched))
	end := min(start+limit, len(matched))

	books := append([]library.Book(nil), matched[start:end]...)

	return &library.ListEnvelope{
		Success: true,
		Message: "ok",
		Data: &library.BookList{
			Books: books,
			Pagination: library.Pagination{
				Page:      page,
				Limit:     limit,
				TotalPage: (len(matched) + limit - 1) / limit,
				TotalItem: len(matched),
			},
		},
	}
}

func (f *fakeBooks) Get(_ context.Context, id string) (*library.BookEnvelope, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.getCalls[id]++

	for _, book := range f.books {
		if book.ID == id {
			b := book

			return &library.BookEnvelope{Success: true, Message: "ok", Data: &b}, nil
		}
	}

	return nil, library.NewAPIError(http.StatusNotFound, "404 Not Found", "application/json", []byte(`{"success":false,"message":"Book not found"}`))
}

func (f *fakeBooks) Create(_ context.Context, request *library.CreateBookRequest) (*library.Envelope[library.CreateBookResponse], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return nil, f.writeErr
	}

	f.nextID++
	id := fmt.Sprintf("new-%d", f.nextID)
	now := time.Now()

	book := library.Book{
		ID:                id,
		ISBN:              request.ISBN,
		Title:             request.Title,
		Author:            request.Author,
		Publisher:         request.Publisher,
		YearOfPublication: request.YearOfPublication,
		Category:          request.Category,
		UpdatedAt:         &now,
	}
	f.books = append([]library.Book{book}, f.books...)

	return &library.Envelope[library.CreateBookResponse]{
		Success: true,
		Message: "created",
		Data:    &library.CreateBookResponse{ID: id},
	}, nil
}

func (f *fakeBooks) Update(_ context.Context, id string, request *library.UpdateBookRequest) (*library.Envelope[any], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return nil, f.writeErr
	}

	for i := range f.books {
		if f.books[i].ID == id {
			book := f.books[i]
			request.ApplyTo(&book)
			f.books = append(f.books[:i], f.books[i+1:]...)
			f.books = append([]library.Book{book}, f.books...)

			return &library.Envelope[any]{Success: true, Message: "updated"}, nil
		}
	}

	return nil, library.NewAPIError(http.StatusNotFound, "404 Not Found", "application/json", []byte(`{"success":false,"message":"Book not found"}`))
}

func (f *fakeBooks) Remove(_ context.Context, id string) (*library.Envelope[any], error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.writeErr != nil {
		return nil, f.writeErr
	}

	for i := range f.books {
		if f.books[i].ID == id {
			f.books = append(f.books[:i], f.books[i+1:]...)

			return &library.Envelope[any]{Success: true, Message: "deleted"}, nil
		}
	}

	return nil, library.NewAPIError(http.StatusNotFound, "404 Not Found", "application/json", []byte(`{"success":false,"message":"Book not found"}`))
}

func newTestCache(t *testing.T, books library.BooksClient, clock *fakeClock, opts ...Option) *Cache {
	t.Helper()

	opts = append([]Option{WithClock(clock.Now), WithRetry(1, 0)}, opts...)
	cache := NewCache(books, opts...)
	t.Cleanup(cache.Close)

	return cache
}

func bookIDs(envelope *library.ListEnvelope) []string {
	ids := make([]string, 0, len(envelope.Data.Books))
	for _, book := range envelope.Data.Books {
		ids = append(ids, book.ID)
	}

	return ids
}

func (c *Cache) waitersFor(key ListKey) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	if s, ok := c.lists.slots[key]; ok {
		return s.waiters
	}

	return 0
}
