package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx answer from the backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend status %d: %s", e.Status, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	var payload struct {
		Error   interface{} `json:"error"`
		Message string      `json:"message"`
	}
	msg := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		switch v := payload.Error.(type) {
		case string:
			msg = v
		case map[string]interface{}:
			if m, ok := v["message"].(string); ok {
				msg = m
			}
		}
		if msg == "" {
			msg = payload.Message
		}
	}
	if strings.TrimSpace(msg) == "" {
		msg = http.StatusText(status)
	}
	if msg == "" {
		msg = "request failed"
	}
	return &APIError{Status: status, Message: msg}
}

// IsUnauthorized reports whether err means the bearer token was refused.
func IsUnauthorized(err error) bool {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status == http.StatusUnauthorized || apiErr.Status == http.StatusForbidden
	}
	return false
}

// IsNotFound reports a 404 from the backend.
func IsNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound
}

// Message extracts a user-facing message, falling back to def for
// transport-level failures.
func Message(err error, def string) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return def
}
