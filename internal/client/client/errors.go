package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnavailable matches every failure that means "the server is down":
	// no response at all, or a 5xx status.
	ErrUnavailable = errors.New("server unavailable")
	// ErrNoResponse is a transport failure or timeout: no HTTP response was
	// received. It also matches ErrUnavailable.
	ErrNoResponse = fmt.Errorf("%w: no response", ErrUnavailable)
	// ErrUnauthorized matches 401 and 403 responses.
	ErrUnauthorized = errors.New("unauthorized")
)

// StatusError is returned for any non-2xx response.
type StatusError struct {
	StatusCode int
	Status     string
	Body       []byte
}

func (e *StatusError) Error() string {
	if e.Status != "" {
		return "unexpected status: " + e.Status
	}
	return fmt.Sprintf("unexpected status: %d", e.StatusCode)
}

// Is maps the status onto the package sentinels.
func (e *StatusError) Is(target error) bool {
	switch target {
	case ErrUnauthorized:
		return e.StatusCode == http.StatusUnauthorized || e.StatusCode == http.StatusForbidden
	case ErrUnavailable:
		return e.StatusCode >= http.StatusInternalServerError
	}
	return false
}

// StatusCode extracts the HTTP status carried by err, if any.
func StatusCode(err error) (int, bool) {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode, true
	}
	return 0, false
}

// HasResponse reports whether err carries an HTTP response, as opposed to
// a transport failure.
func HasResponse(err error) bool {
	_, ok := StatusCode(err)
	return ok
}
