// Package libraryclient provides the main entry point for creating library API clients.
package libraryclient

import (
	"fmt"
	"strings"

	"github.com/feildrixliemdra/library-admin/internal/client"
	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// New creates a new library API client.
func New(config *library.Config) (library.Client, error) {
	if config == nil {
		return nil, library.ErrConfigRequired
	}

	apiHost := NormalizeHost(config.APIHost)
	if apiHost == "" {
		return nil, library.ErrAPIHostRequired
	}

	config.APIHost = apiHost

	c, err := client.New(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create new client: %w", err)
	}

	return c, nil
}

// NewWithHost creates a new client with just an API host.
func NewWithHost(host string) (library.Client, error) {
	return New(&library.Config{
		APIHost: host,
	})
}

// NormalizeHost trims whitespace and trailing slashes and defaults the scheme to https.
func NormalizeHost(host string) string {
	host = strings.TrimRight(strings.TrimSpace(host), "/")
	if host == "" {
		return ""
	}

	if !strings.HasPrefix(host, "http://") && !strings.HasPrefix(host, "https://") {
		host = "https://" + host
	}

	return host
}
