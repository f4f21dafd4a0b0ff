package models

import "errors"

// Common errors
var (
	// Router errors
	ErrRouterNotFound     = errors.New("router not found")
	ErrUnsupportedDialect = errors.New("only RouterOS v7 REST API is supported")

	// Poll errors
	ErrAuthFailed        = errors.New("authentication failed")
	ErrRouterUnreachable = errors.New("router unreachable")
	ErrRunInProgress     = errors.New("a poll run is already in progress")

	// Database errors
	ErrDatabaseConnection = errors.New("database connection error")
	ErrRecordNotFound     = errors.New("record not found")
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
}

// IsNotFound checks if an error is a "not found" type error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrRouterNotFound) ||
		errors.Is(err, ErrRecordNotFound)
}

// IsPermanent reports whether a poll failure is a configuration problem
// rather than a transient network condition. Permanent failures need an
// operator, not a retry.
func IsPermanent(err error) bool {
	return errors.Is(err, ErrUnsupportedDialect)
}
