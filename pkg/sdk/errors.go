package sdk

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthorized matches any APIError carrying a 401.
	ErrUnauthorized = errors.New("smarttask: unauthorized")
	// ErrNotFound matches any APIError carrying a 404.
	ErrNotFound = errors.New("smarttask: not found")
	// ErrEmptyBody is returned when a call that must yield an entity gets
	// a 2xx response without a body.
	ErrEmptyBody = errors.New("smarttask: empty response body")
)

// APIError is returned for every non-2xx response.
type APIError struct {
	StatusCode int
	Method     string
	Path       string
	Message    string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("smarttask: %s %s: %d %s", e.Method, e.Path, e.StatusCode, msg)
}

// Is lets errors.Is match the status sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	}
	return false
}

// UserMessage is the text shown to people: the server's message when it sent
// one, otherwise the status text.
func (e *APIError) UserMessage() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}
