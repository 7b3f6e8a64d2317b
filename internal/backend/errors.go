package backend

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// RequestError is the one failure shape all accessors return for transport
// failures and non-2xx responses. StatusCode is 0 when the request never
// reached the backend.
type RequestError struct {
	StatusCode int
	Message    string
	cause      error
}

func (e *RequestError) Error() string {
	if e.StatusCode == 0 {
		return fmt.Sprintf("backend request failed: %s", e.Message)
	}
	return fmt.Sprintf("backend request failed [%d]: %s", e.StatusCode, e.Message)
}

func (e *RequestError) Unwrap() error {
	return e.cause
}

// NewRequestError builds a ready-made backend verdict, mostly useful in
// tests and for callers that synthesize backend-shaped failures.
func NewRequestError(statusCode int, message string) *RequestError {
	return &RequestError{
		StatusCode: statusCode,
		Message:    message,
	}
}

// newRequestError extracts the most useful message available: a structured
// error/message field, then raw body text, then the HTTP status text.
func newRequestError(statusCode int, body []byte) *RequestError {
	message := ""

	var structured struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &structured); err == nil {
		if structured.Error != "" {
			message = structured.Error
		} else if structured.Message != "" {
			message = structured.Message
		}
	}

	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(statusCode)
	}

	return &RequestError{
		StatusCode: statusCode,
		Message:    message,
	}
}
