package core

// # Error Codes Reference
//
// User-facing messages carry a code that users can quote to support.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File size must be less than 10MB
//	FILE002 - Unsupported type: File type must be CSV, XLS, or XLSX
//	FILE004 - No file: No file was selected
//	FILE006 - Too many files: Only one file can be uploaded at a time
//
// # Authentication Errors (AUTH001-AUTH099)
//
//	AUTH001 - Not signed in: no access token could be obtained
//	AUTH002 - Invalid credentials: email or password rejected
//	AUTH003 - Confirmation required: sign-up needs email confirmation
//	AUTH004 - Identity unavailable: the identity service did not answer
//
// # Network Errors (NET001-NET099)
//
//	NET001 - No response: the backend did not answer
//
// # Upload Errors (UPL001-UPL099)
//
//	UPL001 - Upload failed: backend reported success=false
//	UPL002 - System busy: Too many uploads in progress
//	UPL003 - Session expired: Upload not found
//	UPL004 - Request cancelled
//	UPL005 - Request timeout
//
// # Flow Errors
//
//	PRF001 - Failed to load profile data
//	CLN001 - Failed to process data
//	CLN002 - Failed to load feature suggestions
//	DL001  - Failed to download file
//
// # Server Errors (HTTPxxx)
//
// Backend error responses keep the server's detail as their message (or
// "<op> failed" without one), under the code HTTP followed by the status.
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: An unexpected error occurred
//
// Sentinel errors are matched with errors.Is first, in table order. Any
// remaining error is matched against errorPatterns case-insensitively using
// strings.Contains; the first match wins.

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/JonMunkholm/datacleanser/internal/api"
	"github.com/JonMunkholm/datacleanser/internal/auth"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorSentinel struct {
	err error
	msg UserMessage
}

// Order matters. Auth errors come first, then flow errors, then transport
// errors: a profile failure caused by a dead backend reads as a profile
// failure.
var errorSentinels = []errorSentinel{
	{api.ErrUnauthenticated, UserMessage{
		Message: "You are not signed in",
		Action:  "Sign in and try again",
		Code:    "AUTH001",
	}},
	{auth.ErrInvalidCredentials, UserMessage{
		Message: "Invalid email or password",
		Action:  "Check your credentials and try again",
		Code:    "AUTH002",
	}},
	{auth.ErrConfirmationRequired, UserMessage{
		Message: "Check your email to confirm your account",
		Action:  "Follow the confirmation link, then sign in",
		Code:    "AUTH003",
	}},
	{auth.ErrIdentityUnavailable, UserMessage{
		Message: "Sign-in service is unavailable",
		Action:  "Please try again in a few moments",
		Code:    "AUTH004",
	}},
	{ErrProfileLoad, UserMessage{
		Message: "Failed to load profile data",
		Action:  "Try again from the upload page",
		Code:    "PRF001",
	}},
	{ErrProcessData, UserMessage{
		Message: "Failed to process data",
		Action:  "Try again from the upload page",
		Code:    "CLN001",
	}},
	{ErrFeatures, UserMessage{
		Message: "Failed to load feature suggestions",
		Action:  "Reload the page to try again",
		Code:    "CLN002",
	}},
	{ErrDownload, UserMessage{
		Message: "Failed to download file",
		Action:  "Please try again",
		Code:    "DL001",
	}},
	{ErrUploadFailed, UserMessage{
		Message: "Upload failed",
		Action:  "Check the file and upload it again",
		Code:    "UPL001",
	}},
	{ErrTooManyUploads, UserMessage{
		Message: "System is busy processing other uploads",
		Action:  "Please wait a moment and try again",
		Code:    "UPL002",
	}},
	{api.ErrNoResponse, UserMessage{
		Message: "No response from server",
		Action:  "Check that the backend is running and try again",
		Code:    "NET001",
	}},
}

// detailed flow failures show the backend's detail, when it sent one, under
// their own code.
var detailed = map[error]bool{
	ErrProfileLoad:  true,
	ErrProcessData:  true,
	ErrFeatures:     true,
	ErrDownload:     true,
	ErrUploadFailed: true,
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
var errorPatterns = []errorPattern{
	{
		pattern: "upload not found",
		msg: UserMessage{
			Message: "Upload session not found",
			Action:  "The upload may have expired. Please start a new upload",
			Code:    "UPL003",
		},
	},
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "UPL004",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try uploading a smaller file or check your connection",
			Code:    "UPL005",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when nothing matches (ERR000). Support should
// check the logs for the original error.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Validation errors keep their own message. A flow failure keeps its code
// but shows the backend's detail when the backend sent one; a bare backend
// error is reported under its HTTP status.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var ve *ValidationError
	if errors.As(err, &ve) {
		return UserMessage{Message: ve.Message, Action: ve.Action, Code: ve.Code}
	}

	var ae *api.Error
	hasDetail := errors.As(err, &ae) && ae.Detail != ""

	for _, s := range errorSentinels {
		if errors.Is(err, s.err) {
			msg := s.msg
			if hasDetail && detailed[s.err] {
				msg.Message = ae.Detail
			}
			return msg
		}
	}

	if ae != nil && ae.Status != 0 {
		return UserMessage{
			Message: ae.Error(),
			Action:  "Please try again",
			Code:    "HTTP" + strconv.Itoa(ae.Status),
		}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to something more specific than
// the ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user message.
type UserError struct {
	Technical error       // Original technical error for logging
	User      UserMessage // User-friendly message for display
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err to a UserError. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
