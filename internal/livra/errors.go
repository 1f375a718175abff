package livra

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel errors matched by StatusError.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError reports a non-2xx backend response.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	RequestID  string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("api %s %s returned status %d (request %s)", e.Method, e.Path, e.StatusCode, e.RequestID)
}

// Is lets callers use errors.Is with ErrNotFound and ErrUnauthorized.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.StatusCode == http.StatusNotFound
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	}
	return false
}
