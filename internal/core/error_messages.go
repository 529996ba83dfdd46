// Package core error codes reference.
//
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis. Domain errors are matched first with errors.Is; anything
// else falls through to case-insensitive pattern matching on the error text.
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL001 - Field validation: One or more fields are invalid
//	VAL002 - Invalid number: Budget is not a whole number
//	VAL003 - Required field: Required field is empty
//	VAL004 - Missing column: Required column is missing from CSV
//	VAL006 - Invalid enum: Value is not in the allowed list
//
// # Import File Errors (CSV001-CSV099)
//
//	CSV001 - Empty file: The uploaded file has no rows
//	CSV002 - Too many rows: The file exceeds the row limit
//	CSV003 - Malformed CSV: The file could not be read as CSV
//	CSV004 - Invalid rows: One or more rows failed validation, nothing imported
//
// # Buyer Errors (BUY001-BUY099)
//
//	BUY001 - Not found: Buyer does not exist or belongs to another user
//	BUY002 - Conflict: Buyer was changed since it was loaded
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key
//	DB003 - Foreign key
//	DB004 - Connection refused
//	DB005 - Connection reset
//	DB006 - Timeout
//	DB007 - Deadlock
//	DB010 - Storage failure (any other persistence error)
//
// # Request Errors
//
//	FILE001 - File too large
//	FILE004 - No file provided
//	REQ001  - Request cancelled
//	REQ002  - Request timed out
//	RATE001 - Too many requests
//	RATE002 - Too many imports running
//	AUTH001 - No active session
//
// # Default Error (ERR000)
//
// Fallback when nothing matches. Check application logs for the original
// technical error, correlated by request_id.
package core

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

// sentinelMessages is checked in order with errors.Is before any pattern.
// ErrForbidden is deliberately absent: it wraps ErrNotFound and must render
// identically.
var sentinelMessages = []struct {
	err error
	msg UserMessage
}{
	{ErrConflict, UserMessage{
		Message: "This buyer was changed by someone else",
		Action:  "Reload the buyer and apply your edit again",
		Code:    "BUY002",
	}},
	{ErrNotFound, UserMessage{
		Message: "Buyer not found",
		Action:  "Check the link or return to the buyer list",
		Code:    "BUY001",
	}},
	{ErrValidation, UserMessage{
		Message: "One or more fields are invalid",
		Action:  "Correct the highlighted fields and submit again",
		Code:    "VAL001",
	}},
	{ErrBatchInvalid, UserMessage{
		Message: "Some rows in the file are invalid, nothing was imported",
		Action:  "Fix the listed rows and upload the file again",
		Code:    "CSV004",
	}},
	{ErrEmptyInput, UserMessage{
		Message: "The uploaded file has no rows",
		Action:  "Upload a CSV with a header row and at least one buyer",
		Code:    "CSV001",
	}},
	{ErrBatchTooLarge, UserMessage{
		Message: "The file has too many rows",
		Action:  "Split the file into files of at most 200 data rows",
		Code:    "CSV002",
	}},
	{ErrMalformedCSV, UserMessage{
		Message: "The file could not be read as CSV",
		Action:  "Save the file as comma-separated UTF-8 and try again",
		Code:    "CSV003",
	}},
	{ErrRateLimited, UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
	{ErrTooManyImports, UserMessage{
		Message: "The server is busy with other imports",
		Action:  "Please retry the import in a few seconds",
		Code:    "RATE002",
	}},
	{ErrUnauthenticated, UserMessage{
		Message: "You are not signed in",
		Action:  "Start a session and try again",
		Code:    "AUTH001",
	}},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error text (case-insensitive) to user messages.
// The first matching pattern wins, so specific patterns come first.
var errorPatterns = []errorPattern{
	// Database constraint errors
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Retry the request; a new ID will be generated",
			Code:    "DB001",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Reload the buyer list and try again",
			Code:    "DB003",
		},
	},

	// Database connection errors
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB004",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB005",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB007",
		},
	},

	// Request lifecycle
	{
		pattern: "context canceled",
		msg: UserMessage{
			Message: "Request was cancelled",
			Action:  "Please try again",
			Code:    "REQ001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "Request timed out",
			Action:  "Try a smaller file or check your connection",
			Code:    "REQ002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
		},
	},

	// Validation text produced outside the validator
	{
		pattern: "must be a whole number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Budgets must be whole numbers without currency symbols",
			Code:    "VAL002",
		},
	},
	{
		pattern: "is required",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Ensure all required columns have values",
			Code:    "VAL003",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column is missing from CSV",
			Action:  "Include fullName, phone, city, propertyType, purpose, timeline and source",
			Code:    "VAL004",
		},
	},
	{
		pattern: "must be one of",
		msg: UserMessage{
			Message: "Value is not in the allowed list",
			Action:  "Check the allowed values for this field",
			Code:    "VAL006",
		},
	},

	// Request body
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "request body too large",
		msg: UserMessage{
			Message: "File exceeds maximum upload size",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a CSV file to upload",
			Code:    "FILE004",
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

// persistenceMessage covers storage failures that match no specific pattern.
var persistenceMessage = UserMessage{
	Message: "The change could not be saved",
	Action:  "Please try again; nothing was partially saved",
	Code:    "DB010",
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
//
// Example:
//
//	msg := MapError(fmt.Errorf("update: %w", ErrConflict))
//	// msg.Code == "BUY002"
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

	var pe *PersistenceError
	if errors.As(err, &pe) {
		return persistenceMessage
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

// IsUserFacing reports whether err maps to something more specific than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
