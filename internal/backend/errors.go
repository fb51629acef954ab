package backend

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
)

// ErrUnauthorized reports a 401 from any backend endpoint. Callers
// use it to tear down the admin session.
var ErrUnauthorized = errors.New("backend: unauthorized")

// APIError is a definitive rejection from the backend: an HTTP
// response arrived and it was not a success. Never retried.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("backend: server error (%d): %s", e.Status, e.Message)
	}
	return fmt.Sprintf("backend: server error (%d)", e.Status)
}

// IsTransient reports whether an error is a transport-class failure
// worth retrying: connection refused, DNS failure and the like. HTTP
// rejections, timeouts and cancellations are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return false
	}
	var ue *url.Error
	if errors.As(err, &ue) {
		return !ue.Timeout()
	}
	var ne net.Error
	if errors.As(err, &ne) {
		return !ne.Timeout()
	}
	return false
}
