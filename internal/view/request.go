// Package view holds the screen state shared by the terminal UI and the
// plain CLI: request phases, paging, per-item guards and save states.
// Nothing here does I/O; every transition is a plain method on state the
// caller owns.
package view

import (
	"errors"

	"github.com/Makepad-fr/destinai/internal/api"
)

// Phase of a page-level request.
type Phase int

const (
	Idle Phase = iota
	Loading
	Loaded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Loading:
		return "loading"
	case Loaded:
		return "loaded"
	case Failed:
		return "error"
	default:
		return "idle"
	}
}

// Variant tells the renderer how to style the status line.
type Variant string

const (
	Info  Variant = "info"
	Error Variant = "error"
)

// Request drives one view through idle → loading → loaded | error.
type Request struct {
	Phase   Phase
	Status  string
	Variant Variant
}

// Begin enters Loading. Inputs must stay disabled until Succeed or Fail.
func (r *Request) Begin(status string) {
	r.Phase = Loading
	r.Status = status
	r.Variant = Info
}

func (r *Request) Succeed(status string) {
	r.Phase = Loaded
	r.Status = status
	r.Variant = Info
}

func (r *Request) Fail(status string) {
	r.Phase = Failed
	r.Status = status
	r.Variant = Error
}

// Invalid reports a client-side validation problem without touching Phase.
func (r *Request) Invalid(status string) {
	r.Status = status
	r.Variant = Error
}

// Busy reports whether inputs must be disabled.
func (r Request) Busy() bool { return r.Phase == Loading }

// User-facing messages.
const (
	MsgUnavailable   = "Service is temporarily unavailable. Please try again later."
	MsgRateLimited   = "Please wait before requesting another code."
	MsgCheckInput    = "Check your input and try again."
	MsgInvalidCode   = "Invalid or expired code."
	MsgBadResults    = "We couldn't load your results. Please try again."
	MsgIncomplete    = "Please answer all questions before submitting."
	MsgNoteFailed    = "Could not save note."
	MsgDeleteFailed  = "Could not delete favorite."
	MsgEmptyFavorite = "No favorites yet."
)

// Message maps an API error to the fixed string shown to the user.
// Unauthorized is not handled here: callers redirect to login instead.
func Message(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, api.ErrInvalidCode):
		return MsgInvalidCode
	case errors.Is(err, api.ErrRateLimited):
		return MsgRateLimited
	case errors.Is(err, api.ErrInvalidInput):
		return MsgCheckInput
	case errors.Is(err, api.ErrBadResults):
		return MsgBadResults
	default:
		return MsgUnavailable
	}
}

// LoadMessage is Message for full-view loads (favorites list, results),
// which only tell a bad recommendation count apart from everything else.
func LoadMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, api.ErrBadResults):
		return MsgBadResults
	default:
		return MsgUnavailable
	}
}

// Unauthorized reports whether err must end the session.
func Unauthorized(err error) bool {
	return errors.Is(err, api.ErrUnauthorized)
}
