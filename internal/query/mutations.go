package query

import (
	"context"
	"time"

	"github.com/feildrixliemdra/library-admin/internal/notify"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// Action labels passed to the error notifier.
const (
	ActionCreateBook = "create book"
	ActionUpdateBook = "update book"
	ActionDeleteBook = "delete book"
)

// ErrorNotifier shows a failed write to the user.
type ErrorNotifier interface {
	ShowError(err error, action string) notify.ErrorInfo
}

// Mutations wraps book writes with cache edits and error notifications.
type Mutations struct {
	books    library.BooksClient
	cache    *Cache
	notifier ErrorNotifier
	now      func() time.Time
}

// NewMutations creates the orchestrator. notifier may be nil.
func NewMutations(books library.BooksClient, cache *Cache, notifier ErrorNotifier) *Mutations {
	return &Mutations{
		books:    books,
		cache:    cache,
		notifier: notifier,
		now:      time.Now,
	}
}

// CreateBook creates a book and invalidates every cached list. The new book's
// page is left for the refetch to work out.
func (m *Mutations) CreateBook(ctx context.Context, request *library.CreateBookRequest) (*library.Envelope[library.CreateBookResponse], error) {
	envelope, err := m.books.Create(ctx, request)
	if err != nil {
		return nil, m.fail(err, ActionCreateBook)
	}

	m.cache.InvalidateTag(ctx, library.BooksTag)

	return envelope, nil
}

// UpdateBook updates a book, moves it to the head of every cached page that holds
// it and invalidates the lists.
func (m *Mutations) UpdateBook(ctx context.Context, id string, request *library.UpdateBookRequest) (*library.Envelope[any], error) {
	envelope, err := m.books.Update(ctx, id, request)
	if err != nil {
		return nil, m.fail(err, ActionUpdateBook)
	}

	now := m.now().UTC()

	m.cache.UpdateLists(func(_ ListKey, list *library.ListEnvelope) bool {
		return MoveToHead(list.Data, id, request, now)
	})

	m.cache.UpdateBook(id, func(book *library.Book) {
		request.ApplyTo(book)
		book.UpdatedAt = laterOf(book.UpdatedAt, now)
	})

	m.cache.InvalidateTag(ctx, library.BooksTag)

	return envelope, nil
}

// DeleteBook deletes a book, removes it from every cached page and invalidates the lists.
func (m *Mutations) DeleteBook(ctx context.Context, id string) (*library.Envelope[any], error) {
	envelope, err := m.books.Remove(ctx, id)
	if err != nil {
		return nil, m.fail(err, ActionDeleteBook)
	}

	m.cache.UpdateLists(func(_ ListKey, list *library.ListEnvelope) bool {
		return RemoveBook(list.Data, id)
	})

	m.cache.RemoveBook(id)
	m.cache.InvalidateTag(ctx, library.BooksTag)

	return envelope, nil
}

func (m *Mutations) fail(err error, action string) error {
	if m.notifier != nil {
		m.notifier.ShowError(err, action)
	}

	return err
}

// MoveToHead merges request into the book with id and moves it to position 0
// with UpdatedAt set to now, or later if the book already carried a later time.
// It reports whether the book was on the page.
func MoveToHead(list *library.BookList, id string, request *library.UpdateBookRequest, now time.Time) bool {
	idx := list.IndexOf(id)
	if idx < 0 {
		return false
	}

	book := list.Books[idx]
	request.ApplyTo(&book)
	book.UpdatedAt = laterOf(book.UpdatedAt, now)

	copy(list.Books[1:idx+1], list.Books[:idx])
	list.Books[0] = book

	return true
}

// RemoveBook drops the book with id and decrements the total, never below zero.
// It reports whether the book was on the page.
func RemoveBook(list *library.BookList, id string) bool {
	idx := list.IndexOf(id)
	if idx < 0 {
		return false
	}

	list.Books = append(list.Books[:idx], list.Books[idx+1:]...)
	list.Pagination.TotalItem = max(0, list.Pagination.TotalItem-1)

	return true
}

func laterOf(previous *time.Time, now time.Time) *time.Time {
	if previous != nil && previous.After(now) {
		t := *previous

		return &t
	}

	return &now
}
