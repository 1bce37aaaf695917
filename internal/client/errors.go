package client

import (
	"errors"
	"fmt"
)

// Sentinel errors for client operations.
// Use errors.Is() to check for these errors in calling code.
var (
	// ErrTransport indicates the request never produced a usable response:
	// connection failure, unreadable body, or a body that is not JSON.
	ErrTransport = errors.New("transport failure")

	// ErrMalformed indicates a JSON response that lacks required fields or
	// carries them with the wrong type.
	ErrMalformed = errors.New("malformed response")
)

// APIError is a response the service rejected, either with a non-2xx status
// or with a falsy "ok" field. Message is the service's "error" or "message"
// text and may be empty.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api error: status %d", e.StatusCode)
	}
	return fmt.Sprintf("api error: status %d: %s", e.StatusCode, e.Message)
}

// errorBody is the failure shape shared by every endpoint.
type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// text prefers "error" over "message".
func (b errorBody) text() string {
	if b.Error != "" {
		return b.Error
	}
	return b.Message
}
