package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/Makepad-fr/destinai/internal/model"
)

var (
	// ErrUnauthorized means the session is missing or expired. Callers must
	// send the user back to login and stop processing the response.
	ErrUnauthorized = errors.New("unauthorized")
	ErrRateLimited  = errors.New("rate limited")
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidCode  = errors.New("invalid or expired code")
	// ErrUnavailable covers transport failures, unexpected statuses and
	// malformed bodies.
	ErrUnavailable = errors.New("service unavailable")
	// ErrBadResults means the recommendation response did not carry exactly
	// model.DestinationCount destinations.
	ErrBadResults = errors.New("unexpected recommendation count")
)

// Error is a non-2xx response. Kind is the sentinel it unwraps to.
type Error struct {
	Status int
	Body   model.APIError
	Kind   error
}

func newError(status int, body model.APIError) *Error {
	return &Error{Status: status, Body: body, Kind: kindFor(status)}
}

func kindFor(status int) error {
	switch status {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusTooManyRequests:
		return ErrRateLimited
	case http.StatusBadRequest:
		return ErrInvalidInput
	default:
		return ErrUnavailable
	}
}

func (e *Error) Error() string {
	if e.Body.Message != "" {
		return fmt.Sprintf("api: status %d: %s", e.Status, e.Body.Message)
	}
	return fmt.Sprintf("api: status %d", e.Status)
}

func (e *Error) Unwrap() error { return e.Kind }

// AsError returns the *Error in err's chain, if any.
func AsError(err error) (*Error, bool) {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %v", op, ErrUnavailable, err)
}
