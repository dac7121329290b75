// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// APIError is a non-2xx response from the backend.
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Details    map[string]any
	RequestID  string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("API error (%d %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("API error (%d): %s", e.StatusCode, e.Message)
}

// StatusCode returns the HTTP status carried by err, or 0 when err is not
// an *APIError.
func StatusCode(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}

// Message returns the text to show the user for err: the backend's message
// for API errors, the error string otherwise.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return err.Error()
}

// errorPayload covers the error shapes the backend produces: the service's
// own {success, error_code, message, details} envelope and framework-level
// {detail} or {error} bodies.
type errorPayload struct {
	ErrorCode string          `json:"error_code"`
	Message   string          `json:"message"`
	Error     string          `json:"error"`
	Detail    json.RawMessage `json:"detail"`
	Details   map[string]any  `json:"details"`
}

// maxPlainMessage bounds how much of a non-JSON body is used as a message.
const maxPlainMessage = 200

// parseAPIError extracts a best-effort message from body.
func parseAPIError(status int, body []byte) *APIError {
	e := &APIError{StatusCode: status}

	var p errorPayload
	if err := json.Unmarshal(body, &p); err == nil {
		e.Code = p.ErrorCode
		e.Details = p.Details
		switch {
		case p.Message != "":
			e.Message = p.Message
		case len(p.Detail) > 0:
			e.Message = detailMessage(p.Detail)
		case p.Error != "":
			e.Message = p.Error
		}
	} else {
		text := strings.TrimSpace(string(body))
		if text != "" && !strings.HasPrefix(text, "<") && len(text) <= maxPlainMessage {
			e.Message = text
		}
	}

	if e.Message == "" {
		e.Message = http.StatusText(status)
	}
	return e
}

// detailMessage renders a {detail} field, which is either a string or a list
// of validation errors with a msg field.
func detailMessage(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var items []struct {
		Msg string `json:"msg"`
		Loc []any  `json:"loc"`
	}
	if err := json.Unmarshal(raw, &items); err == nil {
		msgs := make([]string, 0, len(items))
		for _, it := range items {
			if it.Msg == "" {
				continue
			}
			if n := len(it.Loc); n > 0 {
				msgs = append(msgs, fmt.Sprintf("%v: %s", it.Loc[n-1], it.Msg))
			} else {
				msgs = append(msgs, it.Msg)
			}
		}
		return strings.Join(msgs, "; ")
	}
	return ""
}
