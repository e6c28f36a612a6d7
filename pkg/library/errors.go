package library

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the library API.
//
// Error renders "HTTP <code> <status text> <json body>" so the status and the
// structured body survive when the error is flattened to a string.
type APIError struct {
	StatusCode int          `json:"status_code"      yaml:"status_code"`
	Status     string       `json:"status"           yaml:"status"`
	Message    string       `json:"message"          yaml:"message"`
	Body       []byte       `json:"-"                yaml:"-"`
	Errors     []FieldError `json:"errors,omitempty" yaml:"errors,omitempty"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	prefix := fmt.Sprintf("HTTP %d %s", e.StatusCode, e.Status)

	body := bytes.TrimSpace(e.Body)
	if json.Valid(body) && len(body) > 0 && body[0] == '{' {
		return prefix + " " + string(body)
	}

	if e.Message != "" && e.Message != prefix {
		return prefix + ": " + e.Message
	}

	return prefix
}

// ErrorBody is the error envelope returned on failed calls.
type ErrorBody struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	Errors  []FieldError `json:"errors,omitempty"`
}

// NewAPIError builds an APIError from a raw response. The message is taken from
// the JSON "message" field, then the plain-text body, then the status line.
func NewAPIError(statusCode int, status string, contentType string, body []byte) *APIError {
	statusText := strings.TrimSpace(strings.TrimPrefix(status, fmt.Sprintf("%d", statusCode)))
	if statusText == "" {
		statusText = http.StatusText(statusCode)
	}

	apiErr := &APIError{
		StatusCode: statusCode,
		Status:     statusText,
		Message:    fmt.Sprintf("HTTP %d %s", statusCode, statusText),
		Body:       body,
	}

	if strings.Contains(contentType, "application/json") {
		var errBody ErrorBody

		err := json.Unmarshal(body, &errBody)
		if err == nil {
			if errBody.Message != "" {
				apiErr.Message = errBody.Message
			}

			apiErr.Errors = errBody.Errors
		}

		return apiErr
	}

	text := strings.TrimSpace(string(body))
	if text != "" {
		apiErr.Message = text
	}

	return apiErr
}

// DecodeBody parses the embedded JSON error body, if there is one.
func (e *APIError) DecodeBody() (*ErrorBody, bool) {
	if len(bytes.TrimSpace(e.Body)) == 0 {
		return nil, false
	}

	var errBody ErrorBody

	err := json.Unmarshal(e.Body, &errBody)
	if err != nil {
		return nil, false
	}

	return &errBody, true
}

// NetworkError wraps a failure to reach the API at all.
type NetworkError struct {
	Method string
	URL    string
	Err    error
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	return fmt.Sprintf("network error: %s %s: %v", e.Method, e.URL, e.Err)
}

// Unwrap returns the underlying transport error.
func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Static errors that can be wrapped with context.
var (
	ErrConfigRequired        = errors.New("config is required")
	ErrAPIHostRequired       = errors.New("API host is required")
	ErrBookIDRequired        = errors.New("book ID is required")
	ErrEmptyUpdate           = errors.New("update request has no fields set")
	ErrCacheDisabled         = errors.New("cache disabled")
	ErrKeyNotFound           = errors.New("key not found")
	ErrEntryExpired          = errors.New("entry expired")
	ErrUnsupportedCacheType  = errors.New("unsupported cache type")
	ErrNATSConfigRequired    = errors.New("NATS configuration required for NATS cache")
	ErrRedisConfigRequired   = errors.New("redis configuration required for redis cache")
	ErrUnexpectedContentType = errors.New("unexpected content type")
	ErrInvalidRateLimit      = errors.New("rate limit must be positive")
)

// StatusCode returns the HTTP status carried by err, or 0.
func StatusCode(err error) int {
	apiErr := &APIError{}
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}

	return 0
}

// IsNotFound checks if the error is a 404 from the API.
func IsNotFound(err error) bool {
	return StatusCode(err) == http.StatusNotFound
}

// IsValidation checks if the error is a 422 from the API.
func IsValidation(err error) bool {
	return StatusCode(err) == http.StatusUnprocessableEntity
}

// IsNetwork checks if the error is a connectivity failure.
func IsNetwork(err error) bool {
	netErr := &NetworkError{}

	return errors.As(err, &netErr)
}
