package api

import (
	"encoding/json"
	"errors"
	"strings"
)

var (
	// ErrUnauthenticated is returned before any request is sent when no
	// access token can be obtained.
	ErrUnauthenticated = errors.New("no authentication token")

	// ErrNoResponse marks failures where the backend never answered.
	ErrNoResponse = errors.New("no response from server")
)

// Error is a failed backend call.
type Error struct {
	Op     string // upload, profile, clean, audit, download, features
	Status int    // HTTP status; 0 when no response arrived
	Detail string // server-supplied message, if any
	Err    error
}

func (e *Error) Error() string {
	switch {
	case e.Detail != "":
		return e.Detail
	case e.Status == 0:
		return ErrNoResponse.Error()
	default:
		return e.Op + " failed"
	}
}

func (e *Error) Unwrap() error { return e.Err }

// errorBody covers the shapes the backend uses for failures:
// {"detail": "..."}, {"detail": [...]} and {"success": false, "error": "..."}.
type errorBody struct {
	Detail json.RawMessage `json:"detail"`
	Error  string          `json:"error"`
}

// parseDetail extracts the most specific message from a failure body.
func parseDetail(body []byte) string {
	var b errorBody
	if err := json.Unmarshal(body, &b); err != nil {
		return ""
	}
	if len(b.Detail) > 0 && string(b.Detail) != "null" {
		var s string
		if err := json.Unmarshal(b.Detail, &s); err == nil {
			return s
		}
		return strings.TrimSpace(string(b.Detail))
	}
	return b.Error
}
