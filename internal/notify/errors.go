// Package notify classifies errors from the library API into user-facing
// messages and renders them as notifications.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"

	"github.com/feildrixliemdra/library-admin/pkg/library"
)

// Kind is the class an error is sorted into.
type Kind string

// Error kinds.
const (
	KindNetwork     Kind = "network"
	KindValidation  Kind = "validation"
	KindBadRequest  Kind = "bad-request"
	KindNotFound    Kind = "not-found"
	KindServerError Kind = "server-error"
)

// ErrorInfo is the user-facing classification of an error.
type ErrorInfo struct {
	Title            string               `json:"title"                       yaml:"title"`
	Description      string               `json:"description"                 yaml:"description"`
	Kind             Kind                 `json:"kind"                        yaml:"kind"`
	ValidationErrors []library.FieldError `json:"validation_errors,omitempty" yaml:"validation_errors,omitempty"`
}

var (
	statusPattern = regexp.MustCompile(`HTTP (\d+)`)
	bodyPattern   = regexp.MustCompile(`(\{.*\})`)
)

// ParseError classifies err. Raw error text is never used as the description.
func ParseError(err error) ErrorInfo {
	if err == nil {
		return ErrorInfo{
			Title:       "Unexpected Error",
			Description: "An unexpected error occurred. Please try again.",
			Kind:        KindServerError,
		}
	}

	if isNetworkError(err) {
		return ErrorInfo{
			Title:       "Connection Error",
			Description: "Unable to connect to the server. Please check your internet connection and try again.",
			Kind:        KindNetwork,
		}
	}

	apiErr := &library.APIError{}
	if errors.As(err, &apiErr) {
		body, _ := apiErr.DecodeBody()

		return classify(apiErr.StatusCode, body)
	}

	// Errors that crossed a string boundary still carry "HTTP <code> ... {json}".
	msg := err.Error()

	statusMatch := statusPattern.FindStringSubmatch(msg)
	bodyMatch := bodyPattern.FindStringSubmatch(msg)

	if statusMatch != nil && bodyMatch != nil {
		status, convErr := strconv.Atoi(statusMatch[1])
		if convErr == nil {
			var body library.ErrorBody

			if json.Unmarshal([]byte(bodyMatch[1]), &body) != nil {
				return classify(status, nil)
			}

			return classify(status, &body)
		}
	}

	return ErrorInfo{
		Title:       "Something went wrong",
		Description: "An unexpected error occurred. Please try again.",
		Kind:        KindServerError,
	}
}

func classify(status int, body *library.ErrorBody) ErrorInfo {
	switch status {
	case http.StatusUnprocessableEntity:
		info := ErrorInfo{
			Title:            "Validation Error",
			Description:      userMessage(body, status),
			Kind:             KindValidation,
			ValidationErrors: []library.FieldError{},
		}
		if body != nil && body.Errors != nil {
			info.ValidationErrors = body.Errors
		}

		return info
	case http.StatusBadRequest:
		return ErrorInfo{Title: "Invalid Input", Description: userMessage(body, status), Kind: KindBadRequest}
	case http.StatusNotFound:
		return ErrorInfo{Title: "Not Found", Description: userMessage(body, status), Kind: KindNotFound}
	case http.StatusInternalServerError:
		return ErrorInfo{
			Title:       "Server Error",
			Description: "Something went wrong on our end. Please try again later.",
			Kind:        KindServerError,
		}
	default:
		return ErrorInfo{Title: "Request Failed", Description: userMessage(body, status), Kind: KindBadRequest}
	}
}

// userMessage prefers the API's own message and falls back to a per-status text.
func userMessage(body *library.ErrorBody, status int) string {
	if body != nil && body.Message != "" {
		return body.Message
	}

	switch status {
	case http.StatusBadRequest:
		return "The request contains invalid data. Please check your input and try again."
	case http.StatusNotFound:
		return "The requested resource was not found."
	case http.StatusUnprocessableEntity:
		return "Please check the form for validation errors."
	case http.StatusInternalServerError:
		return "An internal server error occurred. Please try again later."
	default:
		return "Something went wrong. Please try again."
	}
}

func isNetworkError(err error) bool {
	if library.IsNetwork(err) || errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return true
	}

	var netErr net.Error

	return errors.As(err, &netErr)
}

// FieldError returns the message for field, if the list has one.
func FieldError(validationErrors []library.FieldError, field string) (string, bool) {
	for _, fieldErr := range validationErrors {
		if fieldErr.Field == field && fieldErr.Message != "" {
			return fieldErr.Message, true
		}
	}

	return "", false
}
