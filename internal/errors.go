package internal

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrResponseSent    = errors.New("infuse: response already sent")
	ErrSessionAttached = errors.New("infuse: session already attached")
	ErrNoViewEngine    = errors.New("infuse: no view engine configured")
	ErrServiceType     = errors.New("infuse: service has unexpected type")
	ErrInvalidRoute    = errors.New("infuse: invalid route definition")
	ErrRouteCache      = errors.New("infuse: route cache is unreadable")
	ErrNoSessionStore  = errors.New("infuse: session store not opened")
)

// HTTPError asks the application to answer with a specific status.
// Handlers and middleware return it; the message is shown to API clients and,
// outside production, on the error page.
type HTTPError struct {
	Err     error
	Message string
	Code    int
}

func (e *HTTPError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.Code)
}

func (e *HTTPError) Unwrap() error { return e.Err }

// NewHTTPError creates an HTTPError with the given status and message.
func NewHTTPError(code int, message string) *HTTPError {
	return &HTTPError{Code: code, Message: message}
}

// Wrap attaches the underlying cause, kept for logs only.
func (e *HTTPError) Wrap(err error) *HTTPError {
	e.Err = err
	return e
}

func ErrBadRequest(message string) *HTTPError {
	return NewHTTPError(http.StatusBadRequest, message)
}

func ErrUnauthorized(message string) *HTTPError {
	return NewHTTPError(http.StatusUnauthorized, message)
}

func ErrForbidden(message string) *HTTPError {
	return NewHTTPError(http.StatusForbidden, message)
}

func ErrNotFound(message string) *HTTPError {
	return NewHTTPError(http.StatusNotFound, message)
}

func ErrInternal(message string) *HTTPError {
	return NewHTTPError(http.StatusInternalServerError, message)
}

func ErrServiceUnavailable(message string) *HTTPError {
	return NewHTTPError(http.StatusServiceUnavailable, message)
}

// AsHTTPError finds an HTTPError in err's chain. It returns nil if there is none.
func AsHTTPError(err error) *HTTPError {
	var he *HTTPError
	if errors.As(err, &he) {
		return he
	}
	return nil
}

// UnknownServiceError reports a registry lookup of an identifier nobody registered.
// Kind is the registry: "service", "middleware", "session driver", "view engine",
// "handler" or "command".
type UnknownServiceError struct {
	Kind string
	Name string
}

func (e *UnknownServiceError) Error() string {
	return fmt.Sprintf("infuse: unknown %s %q", e.Kind, e.Name)
}

// SessionStartError reports that the session store could not provide a session.
type SessionStartError struct {
	Err    error
	Driver string
}

func (e *SessionStartError) Error() string {
	return fmt.Sprintf("infuse: start session (driver %q): %v", e.Driver, e.Err)
}

func (e *SessionStartError) Unwrap() error { return e.Err }

// MiddlewareError reports a failure returned by a middleware module.
type MiddlewareError struct {
	Err    error
	Module string
}

func (e *MiddlewareError) Error() string {
	return fmt.Sprintf("infuse: middleware %q: %v", e.Module, e.Err)
}

func (e *MiddlewareError) Unwrap() error { return e.Err }

// PanicError carries a value recovered from a panic during request handling.
type PanicError struct {
	Value any
	Stack []byte
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("infuse: panic: %v", e.Value)
}

// Unwrap exposes the panic value when it is an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}
