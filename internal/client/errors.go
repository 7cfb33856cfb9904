package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrNetwork wraps transport failures: the loyalty API did not answer.
var ErrNetwork = errors.New("loyalty API unreachable")

// APIError is a non-2xx answer from the loyalty API.
type APIError struct {
	Status  int
	Body    []byte
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("loyalty API returned %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("loyalty API returned %d: %s", e.Status, e.Message)
}

func newAPIError(status int, body []byte) *APIError {
	return &APIError{Status: status, Body: body, Message: errorMessage(body)}
}

// errorMessage pulls a human readable message out of an error body. Spring
// answers carry "message" and "error"; plain text bodies are used as-is.
func errorMessage(body []byte) string {
	if gjson.ValidBytes(body) {
		r := gjson.ParseBytes(body)
		if r.IsObject() {
			for _, key := range []string{"message", "error", "detail"} {
				if v := r.Get(key); v.Exists() && v.String() != "" {
					return v.String()
				}
			}
			return ""
		}
		if r.Type == gjson.String {
			return r.Str
		}
	}
	return strings.TrimSpace(string(body))
}

// StatusOf returns the HTTP status of an APIError, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsNotFound(err error) bool {
	return StatusOf(err) == http.StatusNotFound
}
