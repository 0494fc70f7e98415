// ABOUTME: Typed errors returned by resource services
// ABOUTME: Distinguishes network failures from HTTP errors and local validation
package api

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrNotLoggedIn is returned by commands that need a token when none is held.
var ErrNotLoggedIn = errors.New("not logged in")

// Error is an HTTP or network failure. Status 0 means the request never got a reply.
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Status == 0 {
		return fmt.Sprintf("network error: %s", e.Message)
	}
	return e.Message
}

func statusOf(err error) (int, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Status, true
	}
	return 0, false
}

// IsNetwork reports a request that never reached the server.
func IsNetwork(err error) bool {
	s, ok := statusOf(err)
	return ok && s == 0
}

func IsNotFound(err error) bool {
	s, ok := statusOf(err)
	return ok && s == http.StatusNotFound
}

func IsConflict(err error) bool {
	s, ok := statusOf(err)
	return ok && s == http.StatusConflict
}

func IsUnauthorized(err error) bool {
	s, ok := statusOf(err)
	return ok && s == http.StatusUnauthorized
}

func IsForbidden(err error) bool {
	s, ok := statusOf(err)
	return ok && s == http.StatusForbidden
}
