package gateway

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when the API answers 404 for an entity.
var ErrNotFound = errors.New("not found")

// NetworkError indicates the request never produced a usable answer: the
// transport failed, the request timed out, or the server returned a 5xx.
// It is the only failure worth retrying.
type NetworkError struct {
	Method string
	Path   string
	Status int
	Err    error
}

func (e *NetworkError) Error() string {
	if e.Status != 0 {
		return fmt.Sprintf("network failure on %s %s: status %d: %v",
			e.Method, e.Path, e.Status, e.Err)
	}
	return fmt.Sprintf("network failure on %s %s: %v", e.Method, e.Path, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// AuthError indicates that the session credential was rejected (401).
type AuthError struct {
	Path    string
	Message string
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("auth error on %s: %s", e.Path, e.Message)
}

// StatusError is any other non-2xx answer.
type StatusError struct {
	Method string
	Path   string
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d on %s %s: %s",
		e.Status, e.Method, e.Path, e.Body)
}

// DecodeError indicates a response whose shape or content is not acceptable:
// neither a list nor a paginated envelope, or an entity failing validation.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decoding response from %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// IsNetworkError reports whether err (or any error in its chain) is a
// NetworkError.
func IsNetworkError(err error) bool {
	var netErr *NetworkError
	return errors.As(err, &netErr)
}

// IsAuthError reports whether err (or any error in its chain) is an AuthError.
func IsAuthError(err error) bool {
	var authErr *AuthError
	return errors.As(err, &authErr)
}

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
