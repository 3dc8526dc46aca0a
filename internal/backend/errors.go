package backend

import (
	"errors"
	"net/http"
	"strings"
)

// FetchError is returned for any non-2xx backend response.
// Message is the response body text, or a fallback when the body is empty.
type FetchError struct {
	Status  int
	Message string
}

func (e *FetchError) Error() string {
	return e.Message
}

func newFetchError(status int, body []byte, fallback string) *FetchError {
	msg := strings.TrimSpace(string(body))
	if msg == "" {
		msg = fallback
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	return &FetchError{Status: status, Message: msg}
}

// StatusOf returns the HTTP status carried by err, or 0
func StatusOf(err error) int {
	var fe *FetchError
	if errors.As(err, &fe) {
		return fe.Status
	}
	return 0
}
