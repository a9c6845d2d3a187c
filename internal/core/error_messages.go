package core

// # Error Codes Reference
//
// Users quote these codes to support. Codes are grouped by family:
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - No products: The products file contained no usable rows
//	         Action: Check that the file has a header row and rows with an Id and SKU
//	         Patterns: "no products found"
//
//	IMP002 - System busy: Too many imports in progress
//	         Action: Please wait a moment and try again
//	         Patterns: "too many concurrent imports"
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: An input file exceeds the size limit
//	          Action: Split the export into smaller files
//	          Patterns: "file too large"
//
//	FILE002 - No file: A required file was not provided
//	          Action: Attach the products, product media and managed content exports
//	          Patterns: "no file provided"
//
//	FILE003 - Unsupported source: The file location is not supported
//	          Action: Use a local path, file:// or s3:// location
//	          Patterns: "unsupported source scheme"
//
//	FILE004 - File not found: The file location does not exist
//	          Action: Check the path or object key
//	          Patterns: "no such file", "nosuchkey"
//
// # Request Errors (REQ001-REQ099)
//
//	REQ001 - Request cancelled
//	         Patterns: "context canceled"
//
//	REQ002 - Request timed out
//	         Patterns: "context deadline exceeded"
//
//	REQ003 - Rate limited
//	         Patterns: "rate limit"
//
//	REQ004 - Malformed upload
//	         Patterns: "invalid multipart form"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Connection refused       Patterns: "connection refused"
//	DB002 - Connection reset         Patterns: "connection reset"
//	DB003 - Timeout                  Patterns: "timeout"
//	DB004 - Deadlock                 Patterns: "deadlock"
//	DB005 - Lookup failed            Patterns: "lookup existing entries"
//	DB006 - Save failed              Patterns: "upsert catalog"
//
// # Default Error (ERR000)
//
// Returned when nothing matches. Check the application logs for the
// technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the first
// match wins, so request and connection patterns sit ahead of the generic
// database ones they are usually wrapped in.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// =========================================================================
	// Import Errors
	// =========================================================================
	{
		pattern: "no products found",
		msg: UserMessage{
			Message: "The products file contained no usable rows",
			Action:  "Check that the file has a header row and rows with an Id and SKU",
			Code:    "IMP001",
		},
	},
	{
		pattern: "too many concurrent imports",
		msg: UserMessage{
			Message: "System is busy processing other imports",
			Action:  "Please wait a moment and try again",
			Code:    "IMP002",
		},
	},

	// =========================================================================
	// File Errors
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "An input file exceeds the size limit",
			Action:  "Split the export into smaller files",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "A required file was not provided",
			Action:  "Attach the products, product media and managed content exports",
			Code:    "FILE002",
		},
	},
	{
		pattern: "unsupported source scheme",
		msg: UserMessage{
			Message: "The file location is not supported",
			Action:  "Use a local path, file:// or s3:// location",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no such file",
		msg: UserMessage{
			Message: "The file does not exist",
			Action:  "Check the path or object key",
			Code:    "FILE004",
		},
	},
	{
		pattern: "nosuchkey",
		msg: UserMessage{
			Message: "The file does not exist",
			Action:  "Check the path or object key",
			Code:    "FILE004",
		},
	},

	// =========================================================================
	// Request Errors
	// =========================================================================
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
			Action:  "Try smaller files or try again later",
			Code:    "REQ002",
		},
	},
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "REQ003",
		},
	},
	{
		pattern: "invalid multipart form",
		msg: UserMessage{
			Message: "The upload could not be read",
			Action:  "Send the exports as multipart/form-data file fields",
			Code:    "REQ004",
		},
	},

	// =========================================================================
	// Database Errors
	// =========================================================================
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Try smaller files or try again later",
			Code:    "DB003",
		},
	},
	{
		pattern: "deadlock",
		msg: UserMessage{
			Message: "Database was busy with conflicting operations",
			Action:  "Please try again",
			Code:    "DB004",
		},
	},
	{
		pattern: "lookup existing entries",
		msg: UserMessage{
			Message: "Could not read the current catalog",
			Action:  "Please try again or contact support",
			Code:    "DB005",
		},
	},
	{
		pattern: "upsert catalog",
		msg: UserMessage{
			Message: "Could not save the catalog; no products were changed",
			Action:  "Please try again or contact support",
			Code:    "DB006",
		},
	},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message. It returns
// the first matching pattern or the ERR000 fallback, and a zero UserMessage
// for a nil error.
//
//	msg := MapError(fmt.Errorf("upsert catalog: %w", err))
//	// msg.Code == "DB006"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())

	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}

	return defaultMessage
}

// FormatUserError renders err as "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err matches a known pattern rather than the
// ERR000 fallback.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
