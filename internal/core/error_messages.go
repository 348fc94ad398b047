// Package core provides the listing domain logic.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// API error bodies carry the code so that clients can quote it.
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Duplicate key: A record with this ID already exists
//	        Patterns: "duplicate key"
//
//	DB002 - Unique constraint: This value must be unique but already exists
//	        Patterns: "unique constraint", "violates unique"
//
//	DB003 - Foreign key: Referenced record does not exist
//	        Patterns: "foreign key constraint", "violates foreign key"
//
//	DB004 - Connection refused: Unable to connect to database
//	        Patterns: "connection refused"
//
//	DB005 - Connection reset: Database connection was interrupted
//	        Patterns: "connection reset"
//
//	DB006 - Timeout: Operation timed out
//	        Patterns: "timeout"
//
//	DB007 - Deadlock: Database was busy with conflicting operations
//	        Patterns: "deadlock"
//
//	DB008 - Not null: A required column was left empty
//	        Patterns: "violates not-null"
//
//	DB009 - Check constraint: A value is outside the allowed range
//	        Patterns: "violates check"
//
// # Not Found Errors (NF001-NF099)
//
//	NF001 - Not found: The requested record does not exist
//	        Patterns: "not found"
//
// # Validation Errors (VAL001-VAL099)
//
//	VAL002 - Invalid number: Invalid number format detected
//	VAL003 - Required field: Required field is empty
//	VAL004 - Missing column: Required column is missing from the file
//	VAL007 - Invalid range: A value is outside its allowed range
//	VAL008 - Invalid request: The request body could not be decoded
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: File exceeds the configured size limit
//	FILE002 - Invalid CSV: File is not a valid delimited file
//	FILE003 - Encoding error: File contains invalid characters
//	FILE005 - Empty file: The file has no header or data rows
//	FILE006 - Unsupported type: The file extension is not imported
//	FILE007 - Invalid spreadsheet: The workbook could not be read
//
// # Ingestion Errors (ING001-ING099)
//
//	ING001 - Busy: An ingestion run is already in progress
//	ING002 - Stopping: The ingestion scheduler is shutting down
//
// # Auth Errors (AUTH001-AUTH099)
//
//	AUTH001 - Bad credentials: Username or password is wrong
//	AUTH002 - Token: Missing, malformed or expired bearer token
//
// # Rate Limiting (RATE001-RATE099)
//
//	RATE001 - Rate limited: Too many requests
//
// # Default Error (ERR000)
//
// Fallback when no specific pattern matches.
//
// # Pattern Matching
//
// Error patterns are matched case-insensitively using strings.Contains.
// The first matching pattern wins, so more specific patterns come first.
package core

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

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns maps technical error patterns (case-insensitive) to user messages.
// The first matching pattern wins, so order matters.
var errorPatterns = []errorPattern{
	// =========================================================================
	// Database Constraint Errors
	// =========================================================================
	{
		pattern: "duplicate key",
		msg: UserMessage{
			Message: "A record with this ID already exists",
			Action:  "Use a different identifier or update the existing record",
			Code:    "DB001",
		},
	},
	{
		pattern: "unique constraint",
		msg: UserMessage{
			Message: "This value must be unique but already exists",
			Action:  "Check for duplicate entries",
			Code:    "DB002",
		},
	},
	{
		pattern: "violates unique",
		msg: UserMessage{
			Message: "A duplicate value was found",
			Action:  "Review your data for duplicate key values",
			Code:    "DB002",
		},
	},
	{
		pattern: "foreign key constraint",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Check that estate_type_id, offer_id and city_part_id refer to existing rows",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates foreign key",
		msg: UserMessage{
			Message: "Referenced record does not exist",
			Action:  "Check that estate_type_id, offer_id and city_part_id refer to existing rows",
			Code:    "DB003",
		},
	},
	{
		pattern: "violates not-null",
		msg: UserMessage{
			Message: "A required column was left empty",
			Action:  "Provide a value for every required field",
			Code:    "DB008",
		},
	},
	{
		pattern: "violates check",
		msg: UserMessage{
			Message: "A value is outside the allowed range",
			Action:  "Correct the value and try again",
			Code:    "DB009",
		},
	},

	// =========================================================================
	// Database Connection Errors
	// =========================================================================
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
		pattern: "timeout",
		msg: UserMessage{
			Message: "Operation timed out",
			Action:  "Please try again later",
			Code:    "DB006",
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

	// =========================================================================
	// Ingestion and Auth
	// =========================================================================
	{
		pattern: "ingestion run already in progress",
		msg: UserMessage{
			Message: "An ingestion run is already in progress",
			Action:  "Wait for the current run to finish",
			Code:    "ING001",
		},
	},
	{
		pattern: "scheduler is shutting down",
		msg: UserMessage{
			Message: "Ingestion is shutting down",
			Action:  "Retry after the service has restarted",
			Code:    "ING002",
		},
	},
	{
		pattern: "invalid credentials",
		msg: UserMessage{
			Message: "Bad username or password",
			Action:  "Check your credentials and try again",
			Code:    "AUTH001",
		},
	},
	{
		pattern: "token",
		msg: UserMessage{
			Message: "Missing or invalid access token",
			Action:  "Log in again to obtain a new token",
			Code:    "AUTH002",
		},
	},

	// =========================================================================
	// Not Found
	// =========================================================================
	{
		pattern: "not found",
		msg: UserMessage{
			Message: "The requested record does not exist",
			Action:  "Verify the identifiers in your request",
			Code:    "NF001",
		},
	},

	// =========================================================================
	// Validation Errors
	// =========================================================================
	{
		pattern: "invalid number",
		msg: UserMessage{
			Message: "Invalid number format detected",
			Action:  "Use plain decimal numbers",
			Code:    "VAL002",
		},
	},
	{
		pattern: "required field",
		msg: UserMessage{
			Message: "Required field is empty",
			Action:  "Ensure all required fields have values",
			Code:    "VAL003",
		},
	},
	{
		pattern: "missing required column",
		msg: UserMessage{
			Message: "Required column is missing from the file",
			Action:  "Include status, price, bed, bath, acre_lot and house_size columns",
			Code:    "VAL004",
		},
	},
	{
		pattern: "invalid range",
		msg: UserMessage{
			Message: "A value is outside its allowed range",
			Action:  "Check the limits of the field and try again",
			Code:    "VAL007",
		},
	},
	{
		pattern: "invalid request body",
		msg: UserMessage{
			Message: "The request body could not be decoded",
			Action:  "Send a valid JSON document",
			Code:    "VAL008",
		},
	},

	// =========================================================================
	// File Errors
	// =========================================================================
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "invalid csv",
		msg: UserMessage{
			Message: "File is not a valid delimited file",
			Action:  "Ensure the file uses consistent columns",
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
		pattern: "empty file",
		msg: UserMessage{
			Message: "The file is empty",
			Action:  "Provide a file with a header and data rows",
			Code:    "FILE005",
		},
	},
	{
		pattern: "unsupported file type",
		msg: UserMessage{
			Message: "The file type is not imported",
			Action:  "Use .csv, .tsv or .xlsx files",
			Code:    "FILE006",
		},
	},
	{
		pattern: "invalid spreadsheet",
		msg: UserMessage{
			Message: "The workbook could not be read",
			Action:  "Re-save the workbook as .xlsx",
			Code:    "FILE007",
		},
	},

	// =========================================================================
	// Rate Limiting
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
// It returns the first matching pattern, or the ERR000 fallback.
//
// Example:
//
//	err := errors.New("duplicate key violation")
//	msg := MapError(err)
//	// msg.Code == "DB001"
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

// IsUserFacing checks if an error matches a known pattern and should be shown to users.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}
