package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

// Error is a non-2xx response from the backend.
//
// The backend answers failures either with {"message": "..."} or with a map of
// field name to message for validation failures ({"username": "Username already exists"}).
type Error struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if len(e.Fields) > 0 {
		keys := make([]string, 0, len(e.Fields))
		for k := range e.Fields {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
		}
		return strings.Join(parts, "; ")
	}
	if txt := http.StatusText(e.Status); txt != "" {
		return fmt.Sprintf("request failed: %d %s", e.Status, txt)
	}
	return fmt.Sprintf("request failed: status %d", e.Status)
}

// TransportError means no response was received.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func decodeError(status int, body []byte) *Error {
	out := &Error{Status: status}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		out.Message = strings.TrimSpace(string(body))
		if len(out.Message) > 200 || strings.HasPrefix(out.Message, "<") {
			out.Message = ""
		}
		return out
	}
	for k, v := range raw {
		s, ok := v.(string)
		if !ok {
			continue
		}
		if k == "message" || k == "error" {
			if out.Message == "" {
				out.Message = s
			}
			continue
		}
		if out.Fields == nil {
			out.Fields = map[string]string{}
		}
		out.Fields[k] = s
	}
	return out
}

// AsError unwraps a backend error.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

func hasStatus(err error, status int) bool {
	e, ok := AsError(err)
	return ok && e.Status == status
}

func IsUnauthorized(err error) bool { return hasStatus(err, http.StatusUnauthorized) }

func IsForbidden(err error) bool { return hasStatus(err, http.StatusForbidden) }

func IsNotFound(err error) bool { return hasStatus(err, http.StatusNotFound) }

// IsValidation reports a 400 carrying field-level messages.
func IsValidation(err error) bool {
	e, ok := AsError(err)
	return ok && e.Status == http.StatusBadRequest && len(e.Fields) > 0
}

// IsConflict reports a business-rule rejection: a 409, or a 400 without field errors
// (e.g. deleting a category that still has tasks).
func IsConflict(err error) bool {
	e, ok := AsError(err)
	if !ok {
		return false
	}
	if e.Status == http.StatusConflict {
		return true
	}
	return e.Status == http.StatusBadRequest && len(e.Fields) == 0
}

func IsTransport(err error) bool {
	var t *TransportError
	return errors.As(err, &t)
}

// FieldErrors returns server-side field errors, or nil.
func FieldErrors(err error) map[string]string {
	if e, ok := AsError(err); ok && len(e.Fields) > 0 {
		out := make(map[string]string, len(e.Fields))
		for k, v := range e.Fields {
			out[k] = v
		}
		return out
	}
	return nil
}

// MessageOr returns the server-supplied message, or fallback when there is none.
func MessageOr(err error, fallback string) string {
	if e, ok := AsError(err); ok && e.Message != "" {
		return e.Message
	}
	return fallback
}
