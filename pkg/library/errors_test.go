package library_test

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feildrixliemdra/library-admin/pkg/library"
)

func TestNewAPIError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name            string
		status          int
		statusLine      string
		contentType     string
		body            string
		expectedMessage string
		expectedErrors  []library.FieldError
		expectedError   string
	}{
		{
			name:            "json message",
			status:          http.StatusNotFound,
			statusLine:      "404 Not Found",
			contentType:     "application/json",
			body:            `{"success":false,"message":"Book not found"}`,
			expectedMessage: "Book not found",
			expectedError:   `HTTP 404 Not Found {"success":false,"message":"Book not found"}`,
		},
		{
			name:            "json field errors",
			status:          http.StatusUnprocessableEntity,
			statusLine:      "422 Unprocessable Entity",
			contentType:     "application/json; charset=utf-8",
			body:            `{"success":false,"message":"Validation failed","errors":[{"field":"isbn","message":"ISBN already exists"}]}`,
			expectedMessage: "Validation failed",
			expectedErrors:  []library.FieldError{{Field: "isbn", Message: "ISBN already exists"}},
			expectedError:   `HTTP 422 Unprocessable Entity {"success":false,"message":"Validation failed","errors":[{"field":"isbn","message":"ISBN already exists"}]}`,
		},
		{
			name:            "plain text",
			status:          http.StatusBadGateway,
			statusLine:      "502 Bad Gateway",
			contentType:     "text/plain",
			body:            "upstream unavailable\n",
			expectedMessage: "upstream unavailable",
			expectedError:   "HTTP 502 Bad Gateway: upstream unavailable",
		},
		{
			name:            "empty body",
			status:          http.StatusInternalServerError,
			statusLine:      "",
			contentType:     "",
			body:            "",
			expectedMessage: "HTTP 500 Internal Server Error",
			expectedError:   "HTTP 500 Internal Server Error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			apiErr := library.NewAPIError(tt.status, tt.statusLine, tt.contentType, []byte(tt.body))

			assert.Equal(t, tt.status, apiErr.StatusCode)
			assert.Equal(t, tt.expectedMessage, apiErr.Message)
			assert.Equal(t, tt.expectedErrors, apiErr.Errors)
			assert.Equal(t, tt.expectedError, apiErr.Error())
		})
	}
}

func TestAPIError_DecodeBody(t *testing.T) {
	t.Parallel()

	apiErr := library.NewAPIError(http.StatusBadRequest, "400 Bad Request", "application/json", []byte(`{"message":"bad"}`))

	body, ok := apiErr.DecodeBody()
	require.True(t, ok)
	assert.Equal(t, "bad", body.Message)

	_, ok = library.NewAPIError(http.StatusBadRequest, "", "text/plain", []byte("bad")).DecodeBody()
	assert.False(t, ok)

	_, ok = library.NewAPIError(http.StatusBadRequest, "", "", nil).DecodeBody()
	assert.False(t, ok)
}

func TestErrorHelpers(t *testing.T) {
	t.Parallel()

	notFound := fmt.Errorf("getting book: %w", library.NewAPIError(http.StatusNotFound, "", "", nil))
	invalid := fmt.Errorf("creating book: %w", library.NewAPIError(http.StatusUnprocessableEntity, "", "", nil))
	network := fmt.Errorf("listing books: %w", &library.NetworkError{Method: http.MethodGet, URL: "http://localhost/v1/books", Err: errors.New("connection refused")})

	assert.Equal(t, http.StatusNotFound, library.StatusCode(notFound))
	assert.Equal(t, 0, library.StatusCode(network))

	assert.True(t, library.IsNotFound(notFound))
	assert.False(t, library.IsNotFound(invalid))

	assert.True(t, library.IsValidation(invalid))
	assert.False(t, library.IsValidation(notFound))

	assert.True(t, library.IsNetwork(network))
	assert.False(t, library.IsNetwork(context.Canceled))
}

func TestNetworkError(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := &library.NetworkError{Method: http.MethodGet, URL: "http://localhost/v1/books", Err: cause}

	assert.Equal(t, "network error: GET http://localhost/v1/books: connection refused", err.Error())
	require.ErrorIs(t, err, cause)
}
