package app

import "errors"

// ErrNotFound and related errors describe validation and runtime failures.
var (
	ErrNotFound      = errors.New("not found")
	ErrInvalidInput  = errors.New("invalid input")
	ErrListNotFound  = errors.New("list not found")
	ErrCardNotFound  = errors.New("card not found")
	ErrNotConfigured = errors.New("board api not configured")
)

// ServerMessage returns the backend-supplied message carried by err, or
// fallback when err has none.
func ServerMessage(err error, fallback string) string {
	var sm interface{ ServerMessage() string }
	if errors.As(err, &sm) {
		if msg := sm.ServerMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
