package library

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// Request is the view of an outgoing API call that interceptors see.
type Request struct {
	Method   string
	Path     string
	Headers  http.Header
	Body     []byte
	Metadata map[string]interface{}
}

// Response is the view of a finished API call that interceptors see.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	Error      error
}

// RequestInterceptor runs before a request is sent. An error aborts the request.
type RequestInterceptor func(ctx context.Context, req *Request) error

// ResponseInterceptor runs after a response (or a transport failure) is received.
type ResponseInterceptor func(ctx context.Context, req *Request, resp *Response) error

// InterceptorChain runs interceptors in the order they were added.
type InterceptorChain struct {
	requestInterceptors  []RequestInterceptor
	responseInterceptors []ResponseInterceptor
}

// NewInterceptorChain creates an empty chain.
func NewInterceptorChain() *InterceptorChain {
	return &InterceptorChain{}
}

// AddRequestInterceptor appends a request interceptor.
func (c *InterceptorChain) AddRequestInterceptor(interceptor RequestInterceptor) {
	c.requestInterceptors = append(c.requestInterceptors, interceptor)
}

// AddResponseInterceptor appends a response interceptor.
func (c *InterceptorChain) AddResponseInterceptor(interceptor ResponseInterceptor) {
	c.responseInterceptors = append(c.responseInterceptors, interceptor)
}

// Empty reports whether the chain has no interceptors.
func (c *InterceptorChain) Empty() bool {
	return c == nil || (len(c.requestInterceptors) == 0 && len(c.responseInterceptors) == 0)
}

// ExecuteRequestInterceptors runs the request interceptors, stopping at the first error.
func (c *InterceptorChain) ExecuteRequestInterceptors(ctx context.Context, req *Request) error {
	for _, interceptor := range c.requestInterceptors {
		err := interceptor(ctx, req)
		if err != nil {
			return fmt.Errorf("request interceptor failed: %w", err)
		}
	}

	return nil
}

// ExecuteResponseInterceptors runs the response interceptors, stopping at the first error.
func (c *InterceptorChain) ExecuteResponseInterceptors(ctx context.Context, req *Request, resp *Response) error {
	for _, interceptor := range c.responseInterceptors {
		err := interceptor(ctx, req, resp)
		if err != nil {
			return fmt.Errorf("response interceptor failed: %w", err)
		}
	}

	return nil
}

// Operation names the books API operation behind method and path, with the
// book identifier folded away: "GET /v1/books/{id}".
func Operation(method, path string) string {
	route, _ := splitBookPath(path)

	return method + " " + route
}

// splitBookPath returns the route template of path and the book id it addresses, if any.
func splitBookPath(path string) (string, string) {
	path = strings.TrimSuffix(path, "/")

	rest, ok := strings.CutPrefix(path, BooksPath+"/")
	if !ok || rest == "" || strings.Contains(rest, "/") {
		return path, ""
	}

	return BooksPath + "/{id}", rest
}

func requestFields(req *Request) map[string]interface{} {
	fields := map[string]interface{}{
		"method": req.Method,
		"path":   req.Path,
	}

	if _, id := splitBookPath(req.Path); id != "" {
		fields["book_id"] = id
	}

	return fields
}

// LoggingInterceptor logs every outgoing call at debug level.
func LoggingInterceptor(logger Logger) RequestInterceptor {
	return func(_ context.Context, req *Request) error {
		logger.Debug("API Request", requestFields(req))

		return nil
	}
}

// LoggingResponseInterceptor logs outcomes: transport failures and 5xx as errors,
// other 4xx as warnings, the rest at debug level.
func LoggingResponseInterceptor(logger Logger) ResponseInterceptor {
	return func(_ context.Context, req *Request, resp *Response) error {
		fields := requestFields(req)
		fields["status_code"] = resp.StatusCode

		switch {
		case resp.Error != nil && resp.StatusCode == 0:
			fields["error"] = resp.Error.Error()
			logger.Error("API Request Failed", fields)
		case resp.StatusCode >= http.StatusInternalServerError:
			logger.Error("API Response Error", fields)
		case resp.StatusCode >= http.StatusBadRequest:
			logger.Warn("API Response Rejected", fields)
		default:
			logger.Debug("API Response", fields)
		}

		return nil
	}
}

// RateLimitInterceptor delays requests so no more than requestsPerSecond are
// sent on average, allowing bursts of up to burst requests.
func RateLimitInterceptor(requestsPerSecond float64, burst int) (RequestInterceptor, error) {
	if requestsPerSecond <= 0 {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRateLimit, requestsPerSecond)
	}

	limiter := rate.NewLimiter(rate.Limit(requestsPerSecond), max(burst, 1))

	return func(ctx context.Context, _ *Request) error {
		return limiter.Wait(ctx)
	}, nil
}

// Metrics holds call statistics for one operation.
type Metrics struct {
	TotalRequests   int64
	TotalErrors     int64
	TotalLatency    time.Duration
	AverageLatency  time.Duration
	LastRequestTime time.Time
}

// MetricsCollector aggregates call statistics per operation (see Operation).
type MetricsCollector struct {
	mu      sync.Mutex
	metrics map[string]*Metrics
	now     func() time.Time
}

// NewMetricsCollector creates an empty collector.
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		metrics: make(map[string]*Metrics),
		now:     time.Now,
	}
}

// GetMetrics returns a snapshot of the metrics for operation, or nil.
func (m *MetricsCollector) GetMetrics(operation string) *Metrics {
	m.mu.Lock()
	defer m.mu.Unlock()

	if metrics, ok := m.metrics[operation]; ok {
		snapshot := *metrics

		return &snapshot
	}

	return nil
}

// Operations returns the operations seen so far, sorted.
func (m *MetricsCollector) Operations() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	operations := make([]string, 0, len(m.metrics))
	for operation := range m.metrics {
		operations = append(operations, operation)
	}

	sort.Strings(operations)

	return operations
}

// Install adds the collector's interceptors to chain.
func (m *MetricsCollector) Install(chain *InterceptorChain) {
	chain.AddRequestInterceptor(m.start)
	chain.AddResponseInterceptor(m.finish)
}

func (m *MetricsCollector) start(_ context.Context, req *Request) error {
	if req.Metadata == nil {
		req.Metadata = make(map[string]interface{})
	}

	req.Metadata["start_time"] = m.now()

	return nil
}

func (m *MetricsCollector) finish(_ context.Context, req *Request, resp *Response) error {
	operation := Operation(req.Method, req.Path)
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	metrics, ok := m.metrics[operation]
	if !ok {
		metrics = &Metrics{}
		m.metrics[operation] = metrics
	}

	metrics.TotalRequests++
	metrics.LastRequestTime = now

	if startTime, ok := req.Metadata["start_time"].(time.Time); ok {
		metrics.TotalLatency += now.Sub(startTime)
		metrics.AverageLatency = metrics.TotalLatency / time.Duration(metrics.TotalRequests)
	}

	if resp.Error != nil || resp.StatusCode >= http.StatusBadRequest {
		metrics.TotalErrors++
	}

	return nil
}
