package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	internalhttp "github.com/feildrixliemdra/library-admin/internal/http"
	"github.com/feildrixliemdra/library-admin/pkg/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingRevalidator struct {
	mu   sync.Mutex
	tags []string
}

func (r *recordingRevalidator) InvalidateTag(_ context.Context, tag string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.tags = append(r.tags, tag)
}

func (r *recordingRevalidator) Tags() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	return append([]string(nil), r.tags...)
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body interface{}) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(body))
}

func TestBooksClient_List(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name          string
		params        *library.ListParams
		expectedQuery string
	}{
		{
			name:          "no parameters",
			params:        nil,
			expectedQuery: "",
		},
		{
			name:          "page and limit",
			params:        library.NewListParams(2, 10),
			expectedQuery: "limit=10&page=2",
		},
		{
			name:          "title filter",
			params:        library.NewListParams(1, 10).WithTitle("dune messiah"),
			expectedQuery: "limit=10&page=1&title=dune+messiah",
		},
		{
			name:          "zero values omitted",
			params:        &library.ListParams{Title: "dune"},
			expectedQuery: "title=dune",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/v1/books", r.URL.Path)
				assert.Equal(t, "GET", r.Method)
				assert.Equal(t, tt.expectedQuery, r.URL.RawQuery)

				writeJSON(t, w, http.StatusOK, map[string]interface{}{
					"success": true,
					"message": "ok",
					"data": map[string]interface{}{
						"books": []map[string]interface{}{
							{"id": "b1", "title": "Dune", "isbn": "978-0441013593", "year_of_publication": 1965, "category": "science-fiction"},
						},
						"pagination": map[string]interface{}{"page": 2, "limit": 10, "total_page": 3, "total_item": 21},
					},
				})
			}))
			defer server.Close()

			books := NewBooksClient(internalhttp.NewClient(server.URL))

			envelope, err := books.List(context.Background(), tt.params)
			require.NoError(t, err)
			require.NotNil(t, envelope.Data)
			assert.True(t, envelope.Success)
			require.Len(t, envelope.Data.Books, 1)
			assert.Equal(t, "b1", envelope.Data.Books[0].ID)
			assert.Equal(t, 1965, envelope.Data.Books[0].YearOfPublication)
			assert.Equal(t, 21, envelope.Data.Pagination.TotalItem)
			assert.Equal(t, 3, envelope.Data.Pagination.TotalPage)
		})
	}
}

func TestBooksClient_Get(t *testing.T) {
	t.Parallel()

	updatedAt := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/books/b1", r.URL.Path)
		assert.Equal(t, "GET", r.Method)

		writeJSON(t, w, http.StatusOK, library.BookEnvelope{
			Success: true,
			Message: "ok",
			Data: &library.Book{
				ID:        "b1",
				Title:     "Dune",
				Author:    "Frank Herbert",
				UpdatedAt: &updatedAt,
			},
		})
	}))
	defer server.Close()

	books := NewBooksClient(internalhttp.NewClient(server.URL))

	envelope, err := books.Get(context.Background(), "b1")
	require.NoError(t, err)
	require.NotNil(t, envelope.Data)
	assert.Equal(t, "Frank Herbert", envelope.Data.Author)
	require.NotNil(t, envelope.Data.UpdatedAt)
	assert.True(t, updatedAt.Equal(*envelope.Data.UpdatedAt))
}

func TestBooksClient_Get_NotFound(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusNotFound, map[string]interface{}{"success": false, "message": "Book not found"})
	}))
	defer server.Close()

	books := NewBooksClient(internalhttp.NewClient(server.URL))

	envelope, err := books.Get(context.Background(), "missing")
	require.Error(t, err)
	assert.Nil(t, envelope)
	assert.True(t, library.IsNotFound(err))
	assert.Contains(t, err.Error(), "getting book")
	assert.Contains(t, err.Error(), "Book not found")
}

func TestBooksClient_Get_RequiresID(t *testing.T) {
	t.Parallel()

	books := NewBooksClient(internalhttp.NewClient("http://127.0.0.1:0"))

	_, err := books.Get(context.Background(), "")
	require.ErrorIs(t, err, library.ErrBookIDRequired)
}

func TestBooksClient_Create(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/books", r.URL.Path)
		assert.Equal(t, "POST", r.Method)

		var body map[string]interface{}

		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Dune", body["title"])
		assert.InDelta(t, 1965, body["year_of_publication"], 0)
		assert.NotContains(t, body, "image_url")

		writeJSON(t, w, http.StatusCreated, map[string]interface{}{
			"success": true,
			"message": "created",
			"data":    map[string]string{"id": "new-id"},
		})
	}))
	defer server.Close()

	revalidator := &recordingRevalidator{}
	books := NewBooksClientWithRevalidator(internalhttp.NewClient(server.URL), revalidator)

	envelope, err := books.Create(context.Background(), &library.CreateBookRequest{
		ISBN:              "978-0441013593",
		Title:             "Dune",
		Author:            "Frank Herbert",
		Publisher:         "Ace",
		YearOfPublication: 1965,
		Category:          "science-fiction",
	})
	require.NoError(t, err)
	require.NotNil(t, envelope.Data)
	assert.Equal(t, "new-id", envelope.Data.ID)
	assert.Equal(t, []string{library.BooksTag}, revalidator.Tags())
}

func TestBooksClient_Create_ValidationError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, http.StatusUnprocessableEntity, map[string]interface{}{
			"success": false,
			"message": "Validation failed",
			"errors":  []map[string]string{{"field": "isbn", "message": "ISBN must be at least 10 characters"}},
		})
	}))
	defer server.Close()

	revalidator := &recordingRevalidator{}
	books := NewBooksClientWithRevalidator(internalhttp.NewClient(server.URL), revalidator)

	_, err := books.Create(context.Background(), &library.CreateBookRequest{ISBN: "1"})
	require.Error(t, err)
	assert.True(t, library.IsValidation(err))
	assert.Empty(t, revalidator.Tags())
}

func TestBooksClient_Update(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/books/b1", r.URL.Path)
		assert.Equal(t, "PUT", r.Method)

		var body map[string]interface{}

		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, map[string]interface{}{"title": "Dune Messiah"}, body)

		writeJSON(t, w, http.StatusOK, map[string]interface{}{"success": true, "message": "updated"})
	}))
	defer server.Close()

	revalidator := &recordingRevalidator{}
	books := NewBooksClientWithRevalidator(internalhttp.NewClient(server.URL), revalidator)

	title := "Dune Messiah"
	envelope, err := books.Update(context.Background(), "b1", &library.UpdateBookRequest{Title: &title})
	require.NoError(t, err)
	assert.True(t, envelope.Success)
	assert.Equal(t, "updated", envelope.Message)
	assert.Nil(t, envelope.Data)
	assert.Equal(t, []string{library.BooksTag}, revalidator.Tags())
}

func TestBooksClient_Remove(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/books/b%2F1", r.URL.EscapedPath())
		assert.Equal(t, "DELETE", r.Method)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	revalidator := &recordingRevalidator{}
	books := NewBooksClientWithRevalidator(internalhttp.NewClient(server.URL), revalidator)

	envelope, err := books.Remove(context.Background(), "b/1")
	require.NoError(t, err)
	assert.True(t, envelope.NoBody)
	assert.Equal(t, []string{library.BooksTag}, revalidator.Tags())
}

func TestBooksClient_NonJSONSuccess(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("deleted"))
	}))
	defer server.Close()

	books := NewBooksClient(internalhttp.NewClient(server.URL))

	envelope, err := books.Remove(context.Background(), "b1")
	require.NoError(t, err)
	assert.True(t, envelope.NoBody)
	assert.Nil(t, envelope.Data)
}
