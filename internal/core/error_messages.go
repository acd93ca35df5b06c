package core

// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When users encounter errors, they can quote the error code to support staff
// for faster diagnosis.
//
// # Dataset Errors (DS, SES, HIS, COL, FLT, MIS, CEL)
//
//	DS001  - No dataset: No dataset has been loaded yet
//	         Patterns: "no dataset loaded"
//	SES001 - Session not found: The session expired or never existed
//	         Patterns: "session not found"
//	SES002 - Too many sessions: The server is at its session limit
//	         Patterns: "too many active sessions"
//	HIS001 - Nothing to undo: Already at the first snapshot
//	         Patterns: "nothing to undo"
//	COL001 - Column not found: The column no longer exists
//	         Patterns: "column not found", "unknown column"
//	FLT001 - Empty result: The filter removed every row
//	         Patterns: "empty result"
//	MIS001 - Unknown strategy: The missing-value strategy is not recognized
//	         Patterns: "missing-value strategy"
//	MIS002 - Nothing pending: No upload awaits missing-value handling
//	         Patterns: "awaiting missing-value"
//	CEL001 - Invalid cell: The value does not fit the column
//	         Patterns: "invalid cell value", "row out of range"
//
// # Analysis Errors (ANA, MET)
//
//	ANA001 - Too few columns: Correlation needs two numeric columns
//	         Patterns: "numeric columns"
//	ANA002 - Not numeric: The chosen column is not numeric
//	         Patterns: "not numeric"
//	ANA003 - Bad request: An analysis parameter is invalid
//	         Patterns: "invalid pivot", "unknown chart", "unknown aggregation", "unknown correlation"
//	MET001 - Metric failed: The custom metric raised an error
//	         Patterns: "metric evaluation"
//
// # File Errors (FILE001-FILE005)
//
//	FILE001 - File too large: File exceeds the size or row limit
//	          Patterns: "file too large", "too many rows"
//	FILE002 - Invalid CSV: File is not a valid CSV
//	          Patterns: "invalid csv"
//	FILE003 - Encoding error: File contains invalid characters
//	          Patterns: "encoding error"
//	FILE004 - No file: No file was selected
//	          Patterns: "no file provided"
//	FILE005 - Empty file: The uploaded file is empty
//	          Patterns: "empty file"
//
// # Upload Errors (UPL002-UPL005)
//
//	UPL002 - System busy: Too many uploads in progress
//	         Patterns: "too many uploads"
//	UPL004 - Request cancelled
//	         Patterns: "context canceled"
//	UPL005 - Request timeout
//	         Patterns: "context deadline exceeded"
//
// # Rate Limiting (RATE001) and Default (ERR000)
//
//	RATE001 - Too many requests
//	          Patterns: "rate limit"
//	ERR000  - Unknown error: check the application logs for the technical error
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns should be
// defined before general ones.

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"` // What happened (user-friendly)
	Action  string `json:"action"`  // What to do about it
	Code    string `json:"code"`    // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var (
	msgColumnNotFound = UserMessage{
		Message: "That column no longer exists",
		Action:  "Refresh the page to see the current columns",
		Code:    "COL001",
	}
	msgInvalidCell = UserMessage{
		Message: "The value does not fit this column",
		Action:  "Numeric columns accept numbers only; leave the cell empty to clear it",
		Code:    "CEL001",
	}
	msgFileTooLarge = UserMessage{
		Message: "File exceeds the maximum size or row limit",
		Action:  "Split the file into smaller chunks",
		Code:    "FILE001",
	}
	msgBadAnalysis = UserMessage{
		Message: "The analysis request is invalid",
		Action:  "Check the selected options and try again",
		Code:    "ANA003",
	}
)

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// Order matters: the first match wins.
var errorPatterns = []errorPattern{
	// Metric failures wrap arbitrary causes, so they are matched first.
	{
		pattern: "metric evaluation",
		msg: UserMessage{
			Message: "The custom metric could not be evaluated",
			Action:  "Check the expression and column names",
			Code:    "MET001",
		},
	},

	// =========================================================================
	// Dataset session
	// =========================================================================
	{
		pattern: "no dataset loaded",
		msg: UserMessage{
			Message: "No dataset has been loaded yet",
			Action:  "Upload a CSV file to get started",
			Code:    "DS001",
		},
	},
	{
		pattern: "session not found",
		msg: UserMessage{
			Message: "Your session has expired",
			Action:  "Reload the page and upload the file again",
			Code:    "SES001",
		},
	},
	{
		pattern: "too many active sessions",
		msg: UserMessage{
			Message: "The server is at its session limit",
			Action:  "Please try again in a few minutes",
			Code:    "SES002",
		},
	},
	{
		pattern: "nothing to undo",
		msg: UserMessage{
			Message: "Nothing to undo",
			Action:  "You are already at the original dataset",
			Code:    "HIS001",
		},
	},
	{pattern: "column not found", msg: msgColumnNotFound},
	{pattern: "unknown column", msg: msgColumnNotFound},
	{
		pattern: "empty result",
		msg: UserMessage{
			Message: "No rows match these filters",
			Action:  "Widen the ranges or select more values",
			Code:    "FLT001",
		},
	},
	{
		pattern: "awaiting missing-value",
		msg: UserMessage{
			Message: "There is no upload waiting for missing-value handling",
			Action:  "Upload a CSV file first",
			Code:    "MIS002",
		},
	},
	{
		pattern: "missing-value strategy",
		msg: UserMessage{
			Message: "Unknown missing-value strategy",
			Action:  "Choose one of the listed options",
			Code:    "MIS001",
		},
	},
	{pattern: "invalid cell value", msg: msgInvalidCell},
	{pattern: "row out of range", msg: msgInvalidCell},

	// =========================================================================
	// Analysis
	// =========================================================================
	{
		pattern: "numeric columns",
		msg: UserMessage{
			Message: "At least two numeric columns are needed",
			Action:  "Load a dataset with more numeric columns",
			Code:    "ANA001",
		},
	},
	{
		pattern: "not numeric",
		msg: UserMessage{
			Message: "The selected column is not numeric",
			Action:  "Pick a numeric column",
			Code:    "ANA002",
		},
	},
	{pattern: "invalid pivot", msg: msgBadAnalysis},
	{pattern: "unknown chart", msg: msgBadAnalysis},
	{pattern: "unknown aggregation", msg: msgBadAnalysis},
	{pattern: "unknown correlation", msg: msgBadAnalysis},

	// =========================================================================
	// File Errors (FILE001-FILE005)
	// =========================================================================
	{pattern: "file too large", msg: msgFileTooLarge},
	{pattern: "too many rows", msg: msgFileTooLarge},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Ensure every row has no more fields than the header",
			Code:    "FILE002",
		},
	},
	{
		pattern: "encoding error",
		msg: UserMessage{
			Message: "File contains invalid characters",
			Action:  "Save file as UTF-8 encoding",
			Code:    "FILE003",
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
		pattern: "empty file",
		msg: UserMessage{
			Message: "The uploaded file is empty",
			Action:  "Please upload a CSV file with a header row",
			Code:    "FILE005",
		},
	},

	// =========================================================================
	// Upload Errors
	// =========================================================================
	{
		pattern: "too many uploads",
		msg: UserMessage{
			Message: "System is busy processing other uploads",
			Action:  "Please wait a moment and try again",
			Code:    "UPL002",
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
			Action:  "Try a smaller file or check your connection",
			Code:    "UPL005",
		},
	},

	// =========================================================================
	// Rate Limiting (RATE001)
	// =========================================================================
	{
		pattern: "rate limit",
		msg: UserMessage{
			Message: "Too many requests",
			Action:  "Please wait a moment before trying again",
			Code:    "RATE001",
		},
	},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
// It returns the first matching pattern, or ERR000 when nothing matches.
//
// Example:
//
//	msg := MapError(ErrNoHistory)
//	// msg.Code == "HIS001"
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

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
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
