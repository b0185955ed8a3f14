package service

import "errors"

var (
	ErrNotFound     = errors.New("aspirasi not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// ValidationError reports bad input; Msg is safe to show to callers.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func invalid(msg string) error {
	return &ValidationError{Msg: msg}
}

// unauthorizedError is ErrUnauthorized with a caller-facing message.
type unauthorizedError struct {
	msg string
}

func (e *unauthorizedError) Error() string { return e.msg }
func (e *unauthorizedError) Unwrap() error { return ErrUnauthorized }

func unauthorized(msg string) error {
	return &unauthorizedError{msg: msg}
}
