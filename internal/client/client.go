package client

import (
	"github.com/feildrixliemdra/library-admin/internal/constants"
	"github.com/feildrixliemdra/library-admin/internal/http"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// Client implements the library.Client interface.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     library.Logger

	books library.BooksClient
}

// createHTTPClientOptions builds HTTP client options from config.
func createHTTPClientOptions(config *library.Config) []http.Option {
	var httpOpts []http.Option

	if config.Logger != nil {
		httpOpts = append(httpOpts, http.WithLogger(config.Logger))
	}

	if config.Debug {
		httpOpts = append(httpOpts, http.WithDebug(true))
	}

	if config.UserAgent != "" {
		httpOpts = append(httpOpts, http.WithUserAgent(config.UserAgent))
	}

	if config.HTTPTimeout > 0 {
		httpOpts = append(httpOpts, http.WithTimeout(config.HTTPTimeout))
	}

	if config.Interceptors != nil {
		httpOpts = append(httpOpts, http.WithInterceptors(config.Interceptors))
	}

	if config.RetryMax > 0 {
		retryWaitMin := constants.DefaultRetryWaitMin
		retryWaitMax := constants.DefaultRetryWaitMax

		if config.RetryWaitMin > 0 {
			retryWaitMin = config.RetryWaitMin
		}

		if config.RetryWaitMax > 0 {
			retryWaitMax = config.RetryWaitMax
		}

		httpOpts = append(httpOpts, http.WithRetryConfig(config.RetryMax, retryWaitMin, retryWaitMax))
	}

	return httpOpts
}

// New creates a new library API client. The API host must already be normalized.
func New(config *library.Config) (*Client, error) {
	if config == nil {
		return nil, library.ErrConfigRequired
	}

	if config.APIHost == "" {
		return nil, library.ErrAPIHostRequired
	}

	httpClient := http.NewClient(config.APIHost, createHTTPClientOptions(config)...)

	client := &Client{
		httpClient: httpClient,
		baseURL:    config.APIHost,
		logger:     config.Logger,
	}

	client.books = NewBooksClientWithRevalidator(httpClient, config.Revalidator)

	return client, nil
}

// Books implements library.Client.Books.
func (c *Client) Books() library.BooksClient {
	return c.books
}

// BaseURL returns the API host the client talks to.
func (c *Client) BaseURL() string {
	return c.baseURL
}
