package restapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/evanschultz/boardwalk/internal/app"
)

// APIError is a non-2xx response from the backend. Message is empty when the
// body carried no message or error field.
type APIError struct {
	StatusCode int
	Message    string
	Method     string
	Path       string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s %s: %d: %s", e.Method, e.Path, e.StatusCode, msg)
}

// Is maps 404 responses onto app.ErrNotFound.
func (e *APIError) Is(target error) bool {
	return target == app.ErrNotFound && e.StatusCode == http.StatusNotFound
}

// ServerMessage returns the message the backend attached to the failure.
func (e *APIError) ServerMessage() string {
	return e.Message
}

func newAPIError(method, path string, status int, body []byte) *APIError {
	msg := ""
	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err == nil {
		msg = strings.TrimSpace(env.Message)
		if msg == "" {
			msg = strings.TrimSpace(env.Error)
		}
	}
	return &APIError{StatusCode: status, Message: msg, Method: method, Path: path}
}
