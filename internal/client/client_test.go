package client_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	. "github.com/feildrixliemdra/library-admin/internal/client"
	"github.com/feildrixliemdra/library-admin/pkg/library"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("requires config", func(t *testing.T) {
		t.Parallel()

		_, err := New(nil)
		require.ErrorIs(t, err, library.ErrConfigRequired)
	})

	t.Run("requires API host", func(t *testing.T) {
		t.Parallel()

		_, err := New(&library.Config{})
		require.ErrorIs(t, err, library.ErrAPIHostRequired)
	})

	t.Run("creates client with retries and timeout", func(t *testing.T) {
		t.Parallel()

		client, err := New(&library.Config{
			APIHost:     "https://library.example.com",
			HTTPTimeout: 5 * time.Second,
			RetryMax:    1,
			UserAgent:   "library-admin/test",
		})
		require.NoError(t, err)
		assert.NotNil(t, client.Books())
		assert.Equal(t, "https://library.example.com", client.BaseURL())
	})
}

func TestClient_BooksUsesConfiguredHost(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/books", r.URL.Path)
		assert.Equal(t, "library-admin/test", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"success":true,"message":"ok","data":{"books":[],"pagination":{"page":1,"limit":10,"total_page":0,"total_item":0}}}`))
	}))
	defer server.Close()

	client, err := New(&library.Config{APIHost: server.URL, UserAgent: "library-admin/test"})
	require.NoError(t, err)

	envelope, err := client.Books().List(context.Background(), library.NewListParams(1, 10))
	require.NoError(t, err)
	require.NotNil(t, envelope.Data)
	assert.Empty(t, envelope.Data.Books)
	assert.Equal(t, 1, envelope.Data.Pagination.Page)
}
