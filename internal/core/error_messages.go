package core

// error_messages.go maps pipeline errors to user-facing messages with codes
// for support reference.
//
// # Configuration Errors (CFG001-CFG099)
//
//	CFG001 - Mapping file missing or unreadable
//	         Action: Check MAPPING_PATH and the file contents
//	CFG002 - Snapshot not found in any configured directory
//	         Action: Check SNAPSHOT_DIRS or the database table
//	CFG003 - Snapshot unreadable
//	         Action: Regenerate the snapshot file
//
// # Mapping Warnings (MAP001-MAP099)
//
//	MAP001 - Stage not found
//	MAP002 - Sub-stage not found, showing stage total
//	MAP003 - Series not found, showing sub-stage total
//	MAP004 - Column missing from data, showing parent total
//
// # Filter Errors (FLT001-FLT099)
//
//	FLT001 - No year selected
//	         Action: Select at least one year
//	FLT002 - Text filter on a column that does not accept one, ignored
//
// # Export Errors (EXP001-EXP099)
//
//	EXP001 - Export conversion failed, placeholder file returned
//
// # Dataset Errors (DS001-DS099)
//
//	DS001 - Unknown dataset
//
// # Default Error (ERR000)
//
// Sentinel errors are matched first with errors.Is; anything else falls back
// to case-insensitive substring patterns. The first match wins.

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

var (
	msgMappingMissing = UserMessage{
		Message: "The column mapping could not be loaded",
		Action:  "Check MAPPING_PATH and the mapping file contents",
		Code:    "CFG001",
	}
	msgSnapshotMissing = UserMessage{
		Message: "No snapshot was found for this dataset",
		Action:  "Check SNAPSHOT_DIRS or the configured database table",
		Code:    "CFG002",
	}
	msgSnapshotUnreadable = UserMessage{
		Message: "The snapshot file could not be read",
		Action:  "Regenerate the snapshot file",
		Code:    "CFG003",
	}
	msgNoYear = UserMessage{
		Message: "No year selected",
		Action:  "Select at least one year to see results",
		Code:    "FLT001",
	}
	msgConversion = UserMessage{
		Message: "The export could not be generated",
		Action:  "Try again with fewer rows or contact support",
		Code:    "EXP001",
	}
	msgUnknownDataset = UserMessage{
		Message: "Unknown dataset",
		Action:  "Choose one of the available aggregation levels",
		Code:    "DS001",
	}
)

// warningMessages maps mapping fallbacks to informational messages.
var warningMessages = map[FallbackReason]UserMessage{
	FallbackStageNotFound: {
		Message: "The selected stage is not available",
		Action:  "Choose another stage",
		Code:    "MAP001",
	},
	FallbackSubStageNotFound: {
		Message: "The selected sub-stage is not available; showing the stage total",
		Action:  "Choose another sub-stage for more detail",
		Code:    "MAP002",
	},
	FallbackSeriesNotFound: {
		Message: "The selected series is not available; showing the sub-stage total",
		Action:  "Choose another series for more detail",
		Code:    "MAP003",
	},
	FallbackColumnMissing: {
		Message: "The selected level has no data in this snapshot; showing the level above",
		Action:  "Choose a broader selection",
		Code:    "MAP004",
	},
}

// textFilterIgnoredMessage reports a text filter dropped because col does not accept one (FLT002).
func textFilterIgnoredMessage(col string) UserMessage {
	return UserMessage{
		Message: fmt.Sprintf("Text search is not available on %s and was ignored", col),
		Action:  "Search one of the name or code columns instead",
		Code:    "FLT002",
	}
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catches errors that did not wrap a sentinel.
var errorPatterns = []errorPattern{
	{pattern: "mapping", msg: msgMappingMissing},
	{pattern: "snapshot not found", msg: msgSnapshotMissing},
	{pattern: "parquet", msg: msgSnapshotUnreadable},
	{pattern: "csv", msg: msgSnapshotUnreadable},
	{pattern: "no year selected", msg: msgNoYear},
	{pattern: "conversion", msg: msgConversion},
	{pattern: "unknown dataset", msg: msgUnknownDataset},
}

// defaultMessage is returned when no pattern matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts an error to a user-friendly message.
//
// Example:
//
//	_, err := Filter(rs, spec)
//	msg := MapError(err)
//	// msg.Code == "FLT001"
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	var w *MappingWarning
	if errors.As(err, &w) {
		if msg, ok := warningMessages[w.Reason]; ok {
			return msg
		}
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, ErrFilterPrecondition):
		return msgNoYear
	case errors.Is(err, ErrConversion):
		return msgConversion
	case errors.Is(err, ErrUnknownDataset):
		return msgUnknownDataset
	case errors.Is(err, ErrMissingConfiguration):
		if strings.Contains(errStr, "mapping") {
			return msgMappingMissing
		}
		return msgSnapshotMissing
	}

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
