package core

// # Error Codes Reference
//
// User-facing errors carry a code so operators can trace a report back to
// a log line.
//
// # Credential Errors (AUTH001-AUTH099)
//
//	AUTH001 - Token missing: No auth token was sent
//	          Action: Send the token in the "auth" form field
//	AUTH002 - Token invalid: The token is not registered
//	          Action: Ask an operator to register the token
//
// # Entity Errors (ENT001-ENT099)
//
//	ENT001 - Not found: The addressed record does not exist
//	ENT002 - Constraint: Duplicate id, unknown reference or out-of-range value
//	         Patterns: "duplicate key", "violates foreign key", "violates check"
//
// # Import Errors (ROW001-ROW099, BAT001-BAT099)
//
//	ROW001 - Malformed field: A value could not be parsed
//	BAT001 - Batch rejected: The import could not be started
//	BAT002 - System busy: Too many imports in progress
//
// # Infrastructure Errors (DB001-DB099, REQ001-REQ099)
//
//	DB001 - Connection refused
//	DB002 - Connection reset
//	DB003 - Timeout
//	REQ001 - Request cancelled
//	REQ002 - Request timed out
//	RATE001 - Too many requests
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check the logs for the original error.

import (
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// sentinelMessages is checked with errors.Is before any pattern match.
// Order matters: a batch error wraps the credential error that caused it,
// and the credential code is the more useful one.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrMissingCredential, UserMessage{
		Message: "Auth token not provided",
		Action:  "Send the token in the \"auth\" form field",
		Code:    "AUTH001",
	}},
	{ErrInvalidCredential, UserMessage{
		Message: "Auth token is not valid",
		Action:  "Ask an operator to register the token",
		Code:    "AUTH002",
	}},
	{ErrNotFound, UserMessage{
		Message: "Record not found",
		Action:  "Check the id and try again",
		Code:    "ENT001",
	}},
	{ErrConstraint, UserMessage{
		Message: "The change violates a data constraint",
		Action:  "Check for duplicate ids, unknown references or out-of-range values",
		Code:    "ENT002",
	}},
	{ErrMalformedInput, UserMessage{
		Message: "A value could not be parsed",
		Action:  "Use plain integers for ids and decimal degrees for coordinates",
		Code:    "ROW001",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "System is busy processing other imports",
		Action:  "Please wait a moment and try again",
		Code:    "BAT002",
	}},
	{ErrBatchOpen, UserMessage{
		Message: "The import could not be started",
		Action:  "Check the uploaded file and try again",
		Code:    "BAT001",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user
// messages for errors that did not come through a sentinel, e.g. raw
// driver errors. The first matching pattern wins.
var errorPatterns = []errorPattern{
	{
		pattern: "duplicate key",
		msg:     UserMessage{Message: "A record with this id already exists", Action: "Use a different id", Code: "ENT002"},
	},
	{
		pattern: "violates foreign key",
		msg:     UserMessage{Message: "Referenced record does not exist", Action: "Create the referenced record first", Code: "ENT002"},
	},
	{
		pattern: "violates check",
		msg:     UserMessage{Message: "A value is out of range", Action: "Latitude must be within [-90, 90] and longitude within [-180, 180]", Code: "ENT002"},
	},
	{
		pattern: "connection refused",
		msg:     UserMessage{Message: "Unable to connect to database", Action: "Please try again in a few moments", Code: "DB001"},
	},
	{
		pattern: "connection reset",
		msg:     UserMessage{Message: "Database connection was interrupted", Action: "Please try again", Code: "DB002"},
	},
	{
		pattern: "context canceled",
		msg:     UserMessage{Message: "Request was cancelled", Action: "Please try again", Code: "REQ001"},
	},
	{
		pattern: "context deadline exceeded",
		msg:     UserMessage{Message: "Request timed out", Action: "Try a smaller file or check your connection", Code: "REQ002"},
	},
	{
		pattern: "timeout",
		msg:     UserMessage{Message: "Operation timed out", Action: "Please try again later", Code: "DB003"},
	},
	{
		pattern: "rate limit",
		msg:     UserMessage{Message: "Too many requests", Action: "Please wait a moment before trying again", Code: "RATE001"},
	},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// Sentinel errors are matched first, then the text patterns.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, s := range sentinelMessages {
		if errors.Is(err, s.err) {
			return s.msg
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

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// UserError pairs a technical error with its user-facing message.
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
