package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/feildrixliemdra/library-admin/internal/http"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// BooksClient implements library.BooksClient.
type BooksClient struct {
	httpClient  *http.Client
	revalidator library.Revalidator
}

// NewBooksClient creates a new books client.
func NewBooksClient(httpClient *http.Client) *BooksClient {
	return &BooksClient{
		httpClient: httpClient,
	}
}

// NewBooksClientWithRevalidator creates a books client that marks the books tag stale after writes.
func NewBooksClientWithRevalidator(httpClient *http.Client, revalidator library.Revalidator) *BooksClient {
	return &BooksClient{
		httpClient:  httpClient,
		revalidator: revalidator,
	}
}

// List implements library.BooksClient.List.
func (c *BooksClient) List(ctx context.Context, params *library.ListParams) (*library.ListEnvelope, error) {
	var queryParams url.Values
	if params != nil {
		queryParams = params.ToValues()
	}

	resp, err := c.httpClient.Get(ctx, library.BooksPath, queryParams)
	if err != nil {
		return nil, fmt.Errorf("listing books: %w", err)
	}

	envelope, err := decodeEnvelope[library.BookList](resp)
	if err != nil {
		return nil, fmt.Errorf("parsing books list: %w", err)
	}

	return envelope, nil
}

// Get implements library.BooksClient.Get.
func (c *BooksClient) Get(ctx context.Context, id string) (*library.BookEnvelope, error) {
	if id == "" {
		return nil, library.ErrBookIDRequired
	}

	resp, err := c.httpClient.Get(ctx, bookPath(id), nil)
	if err != nil {
		return nil, fmt.Errorf("getting book: %w", err)
	}

	envelope, err := decodeEnvelope[library.Book](resp)
	if err != nil {
		return nil, fmt.Errorf("parsing book: %w", err)
	}

	return envelope, nil
}

// Create implements library.BooksClient.Create.
func (c *BooksClient) Create(ctx context.Context, request *library.CreateBookRequest) (*library.Envelope[library.CreateBookResponse], error) {
	resp, err := c.httpClient.Post(ctx, library.BooksPath, request)
	if err != nil {
		return nil, fmt.Errorf("creating book: %w", err)
	}

	c.revalidate(ctx)

	envelope, err := decodeEnvelope[library.CreateBookResponse](resp)
	if err != nil {
		return nil, fmt.Errorf("parsing book create response: %w", err)
	}

	return envelope, nil
}

// Update implements library.BooksClient.Update.
func (c *BooksClient) Update(ctx context.Context, id string, request *library.UpdateBookRequest) (*library.Envelope[any], error) {
	if id == "" {
		return nil, library.ErrBookIDRequired
	}

	resp, err := c.httpClient.Put(ctx, bookPath(id), request)
	if err != nil {
		return nil, fmt.Errorf("updating book: %w", err)
	}

	c.revalidate(ctx)

	envelope, err := decodeEnvelope[any](resp)
	if err != nil {
		return nil, fmt.Errorf("parsing book update response: %w", err)
	}

	return envelope, nil
}

// Remove implements library.BooksClient.Remove.
func (c *BooksClient) Remove(ctx context.Context, id string) (*library.Envelope[any], error) {
	if id == "" {
		return nil, library.ErrBookIDRequired
	}

	resp, err := c.httpClient.Delete(ctx, bookPath(id))
	if err != nil {
		return nil, fmt.Errorf("deleting book: %w", err)
	}

	c.revalidate(ctx)

	envelope, err := decodeEnvelope[any](resp)
	if err != nil {
		return nil, fmt.Errorf("parsing book delete response: %w", err)
	}

	return envelope, nil
}

func (c *BooksClient) revalidate(ctx context.Context) {
	if c.revalidator != nil {
		c.revalidator.InvalidateTag(ctx, library.BooksTag)
	}
}

func bookPath(id string) string {
	return library.BooksPath + "/" + url.PathEscape(id)
}

// decodeEnvelope parses a JSON envelope. A response without a JSON body yields an
// envelope with NoBody set instead of an error.
func decodeEnvelope[T any](resp *http.Response) (*library.Envelope[T], error) {
	if resp.NoBody() || len(resp.Body) == 0 {
		return &library.Envelope[T]{Success: true, NoBody: true}, nil
	}

	var envelope library.Envelope[T]

	err := json.Unmarshal(resp.Body, &envelope)
	if err != nil {
		return nil, err
	}

	return &envelope, nil
}
