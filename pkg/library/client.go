package library

import (
	"context"
	"time"
)

// BooksClient maps book operations onto the REST API.
type BooksClient interface {
	List(ctx context.Context, params *ListParams) (*ListEnvelope, error)
	Get(ctx context.Context, id string) (*BookEnvelope, error)
	Create(ctx context.Context, request *CreateBookRequest) (*Envelope[CreateBookResponse], error)
	Update(ctx context.Context, id string, request *UpdateBookRequest) (*Envelope[any], error)
	Remove(ctx context.Context, id string) (*Envelope[any], error)
}

// Revalidator marks cached data associated with a tag as stale.
type Revalidator interface {
	InvalidateTag(ctx context.Context, tag string)
}

// RevalidatorFunc adapts a function to the Revalidator interface.
type RevalidatorFunc func(ctx context.Context, tag string)

// InvalidateTag calls f(ctx, tag).
func (f RevalidatorFunc) InvalidateTag(ctx context.Context, tag string) {
	f(ctx, tag)
}

// BooksTag is the cache tag every book read is associated with.
const BooksTag = "books"

// BooksPath is the collection path of the books API.
const BooksPath = "/v1/books"

// Client is the library API client.
type Client interface {
	Books() BooksClient
}

// Logger interface for logging.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Config represents client configuration for building a library.Client.
type Config struct {
	// APIHost is the base URL of the library API, e.g. "https://library.example.com".
	APIHost string

	// HTTP settings
	HTTPTimeout time.Duration
	UserAgent   string

	// Retry settings for idempotent reads. Writes are never retried.
	RetryMax     int
	RetryWaitMin time.Duration
	RetryWaitMax time.Duration

	// Revalidator is notified with BooksTag after successful writes.
	Revalidator Revalidator

	// Interceptors run around every request.
	Interceptors *InterceptorChain

	// Debug enables request/response logging.
	Debug bool

	// Logger for debugging
	Logger Logger
}
