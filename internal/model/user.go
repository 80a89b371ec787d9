package model

import "github.com/google/uuid"

type User struct {
	ID    uuid.UUID `json:"id"`
	Email string    `json:"email"`
}

// Session is the body of GET /api/auth/session.
type Session struct {
	Authenticated bool  `json:"authenticated"`
	User          *User `json:"user"`
}

// APIError is the error body every /api endpoint returns on failure.
// Reason is an optional machine-readable code; older servers omit it.
type APIError struct {
	Error       string            `json:"error"`
	Message     string            `json:"message"`
	Reason      string            `json:"reason,omitempty"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}
