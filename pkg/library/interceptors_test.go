package library_test

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feildrixliemdra/library-admin/pkg/library"
)

type recordingLogger struct {
	mu       sync.Mutex
	messages []string
}

func (l *recordingLogger) record(level, msg string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.messages = append(l.messages, level+": "+msg)
}

func (l *recordingLogger) Debug(msg string, _ map[string]interface{}) { l.record("debug", msg) }
func (l *recordingLogger) Info(msg string, _ map[string]interface{})  { l.record("info", msg) }
func (l *recordingLogger) Warn(msg string, _ map[string]interface{})  { l.record("warn", msg) }
func (l *recordingLogger) Error(msg string, _ map[string]interface{}) { l.record("error", msg) }

func TestInterceptorChain(t *testing.T) {
	t.Parallel()

	chain := library.NewInterceptorChain()
	assert.True(t, chain.Empty())

	var order []string

	for _, name := range []string{"first", "second"} {
		chain.AddRequestInterceptor(func(_ context.Context, req *library.Request) error {
			order = append(order, name)
			req.Headers.Set("X-Last", name)

			return nil
		})
	}

	assert.False(t, chain.Empty())

	req := &library.Request{Method: http.MethodGet, Path: "/v1/books", Headers: make(http.Header)}
	require.NoError(t, chain.ExecuteRequestInterceptors(context.Background(), req))

	assert.Equal(t, []string{"first", "second"}, order)
	assert.Equal(t, "second", req.Headers.Get("X-Last"))
}

func TestInterceptorChain_StopsOnError(t *testing.T) {
	t.Parallel()

	chain := library.NewInterceptorChain()
	boom := errors.New("boom")
	called := false

	chain.AddRequestInterceptor(func(context.Context, *library.Request) error { return boom })
	chain.AddRequestInterceptor(func(context.Context, *library.Request) error {
		called = true

		return nil
	})

	err := chain.ExecuteRequestInterceptors(context.Background(), &library.Request{})
	require.ErrorIs(t, err, boom)
	assert.False(t, called)

	chain.AddResponseInterceptor(func(context.Context, *library.Request, *library.Response) error { return boom })
	err = chain.ExecuteResponseInterceptors(context.Background(), &library.Request{}, &library.Response{})
	require.ErrorIs(t, err, boom)
}

func TestOperation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		method   string
		path     string
		expected string
	}{
		{http.MethodGet, "/v1/books", "GET /v1/books"},
		{http.MethodPost, "/v1/books/", "POST /v1/books"},
		{http.MethodGet, "/v1/books/b1", "GET /v1/books/{id}"},
		{http.MethodDelete, "/v1/books/b%2F2", "DELETE /v1/books/{id}"},
		{http.MethodGet, "/api/imagekit/auth", "GET /api/imagekit/auth"},
	}

	for _, tt := range tests {
		t.Run(tt.expected, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tt.expected, library.Operation(tt.method, tt.path))
		})
	}
}

func TestLoggingInterceptors(t *testing.T) {
	t.Parallel()

	logger := &recordingLogger{}
	ctx := context.Background()
	list := &library.Request{Method: http.MethodGet, Path: "/v1/books"}
	detail := &library.Request{Method: http.MethodGet, Path: "/v1/books/b1"}

	require.NoError(t, library.LoggingInterceptor(logger)(ctx, list))

	after := library.LoggingResponseInterceptor(logger)
	require.NoError(t, after(ctx, list, &library.Response{StatusCode: http.StatusOK}))
	require.NoError(t, after(ctx, detail, &library.Response{StatusCode: http.StatusNotFound, Error: errors.New("not found")}))
	require.NoError(t, after(ctx, detail, &library.Response{StatusCode: http.StatusInternalServerError}))
	require.NoError(t, after(ctx, detail, &library.Response{Error: errors.New("connection refused")}))

	assert.Equal(t, []string{
		"debug: API Request",
		"debug: API Response",
		"warn: API Response Rejected",
		"error: API Response Error",
		"error: API Request Failed",
	}, logger.messages)
}

func TestRateLimitInterceptor(t *testing.T) {
	t.Parallel()

	t.Run("honours context", func(t *testing.T) {
		t.Parallel()

		limit, err := library.RateLimitInterceptor(1, 1)
		require.NoError(t, err)

		require.NoError(t, limit(context.Background(), &library.Request{}))

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		require.Error(t, limit(ctx, &library.Request{}))
	})

	t.Run("allows burst", func(t *testing.T) {
		t.Parallel()

		limit, err := library.RateLimitInterceptor(0.5, 3)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), time.Second)
		defer cancel()

		for range 3 {
			require.NoError(t, limit(ctx, &library.Request{}))
		}
	})

	t.Run("rejects non-positive rates", func(t *testing.T) {
		t.Parallel()

		for _, rps := range []float64{0, -1} {
			limit, err := library.RateLimitInterceptor(rps, 1)
			require.ErrorIs(t, err, library.ErrInvalidRateLimit)
			assert.Nil(t, limit)
		}
	})
}

func TestMetricsCollector(t *testing.T) {
	t.Parallel()

	collector := library.NewMetricsCollector()
	chain := library.NewInterceptorChain()
	collector.Install(chain)

	ctx := context.Background()

	calls := []struct {
		method string
		path   string
		status int
	}{
		{http.MethodGet, "/v1/books", http.StatusOK},
		{http.MethodGet, "/v1/books", http.StatusInternalServerError},
		{http.MethodGet, "/v1/books/b1", http.StatusOK},
		{http.MethodGet, "/v1/books/b2", http.StatusNotFound},
	}

	for _, call := range calls {
		req := &library.Request{Method: call.method, Path: call.path}
		require.NoError(t, chain.ExecuteRequestInterceptors(ctx, req))
		require.NoError(t, chain.ExecuteResponseInterceptors(ctx, req, &library.Response{StatusCode: call.status}))
	}

	assert.Equal(t, []string{"GET /v1/books", "GET /v1/books/{id}"}, collector.Operations())

	for _, operation := range collector.Operations() {
		metrics := collector.GetMetrics(operation)
		require.NotNil(t, metrics)
		assert.Equal(t, int64(2), metrics.TotalRequests)
		assert.Equal(t, int64(1), metrics.TotalErrors)
	}

	assert.Nil(t, collector.GetMetrics("DELETE /v1/books/{id}"))
}
