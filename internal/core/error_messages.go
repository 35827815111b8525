package core

// error_messages.go maps technical errors onto user-facing messages with a
// stable code that can be quoted in support requests.
//
// # Encoding Errors (ENC001-ENC099)
//
//	ENC001 - Encoding undetermined: no supported encoding fits the file
//	         Action: Re-export as UTF-8 or pass --encoding explicitly
//	ENC002 - Unknown encoding: the requested encoding name is not supported
//	         Action: Use utf-8, utf-8-sig, utf-16le, utf-16be or windows-1252
//
// # Record Errors (ROW001-ROW099, SCH, HDR, MAP)
//
//	ROW001 - Field count mismatch: a record has more or fewer fields than the header
//	         Action: The record was skipped; inspect the file for broken quoting
//	SCH001 - Schema invalid: at least one record does not match the header
//	         Action: Run inspect to list malformed records, fix them and retry
//	HDR001 - Header mismatch: the files being compared have different headers
//	         Action: Supply a field mapping file
//	MAP001 - Missing mapping target: a mapping names a field the header lacks
//	         Action: Check the spelling of the old field name
//	MAP002 - Invalid mapping line: a mapping line is not "old,new"
//	         Action: Fix the line named in the message
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File not found
//	FILE002 - Empty file: no header record
//	FILE003 - Output exists: refusing to overwrite
//	FILE004 - Path not allowed: outside the configured data root
//	FILE005 - Unknown output format
//
// # Operation Errors (OPS001-OPS099)
//
//	OPS001 - Field not found in header
//	OPS002 - Empty value list for delete
//	OPS003 - Empty field list for select
//	OPS004 - None of the selected fields exist
//	OPS005 - No input files
//
// # History Errors (DB001-DB099)
//
//	DB001 - Connection refused
//	DB002 - History table missing
//
// # Rate Limiting (RATE001)
//
//	RATE001 - Too many concurrent operations
//
// # HTTP-only codes
//
// These are assigned by the web package, not by MapError.
//
//	REQ001  - Malformed request body or query parameter
//	AUTH001 - Missing API key
//	AUTH002 - Invalid API key
//
// # Default Error (ERR000)
//
// Fallback when nothing matches; the original error is in the logs.
//
// Classification tries errors.Is against the sentinel table first, then
// falls back to case-insensitive substring patterns for errors that only
// arrive as text (driver and OS errors). The first match wins.

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/JonMunkholm/datops/internal/charset"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string `json:"message"`
	Action  string `json:"action"`
	Code    string `json:"code"`
}

type errorClass struct {
	target error
	msg    UserMessage
}

// errorClasses is checked in order with errors.Is.
var errorClasses = []errorClass{
	{ErrEncodingUndetermined, UserMessage{
		Message: "The file's character encoding could not be determined",
		Action:  "Re-export the file as UTF-8 or pass --encoding explicitly",
		Code:    "ENC001",
	}},
	{charset.ErrUnknownEncoding, UserMessage{
		Message: "Unknown encoding name",
		Action:  "Use utf-8, utf-8-sig, utf-16le, utf-16be or windows-1252",
		Code:    "ENC002",
	}},
	{ErrSchemaInvalid, UserMessage{
		Message: "The file has records that do not match its header",
		Action:  "Run inspect to list malformed records, fix them and retry",
		Code:    "SCH001",
	}},
	{ErrFieldCountMismatch, UserMessage{
		Message: "A record has a different number of fields than the header",
		Action:  "The record was skipped; check the file for broken quoting",
		Code:    "ROW001",
	}},
	{ErrHeaderMismatch, UserMessage{
		Message: "The files have different headers",
		Action:  "Supply a field mapping file to compare them",
		Code:    "HDR001",
	}},
	{ErrMissingMappingTarget, UserMessage{
		Message: "A mapping names a field that is not in the header",
		Action:  "Check the spelling of the old field name",
		Code:    "MAP001",
	}},
	{ErrInvalidMapping, UserMessage{
		Message: "A mapping line is not in old,new form",
		Action:  "Fix the line named in the message",
		Code:    "MAP002",
	}},
	{fs.ErrNotExist, UserMessage{
		Message: "File not found",
		Action:  "Check the path and try again",
		Code:    "FILE001",
	}},
	{ErrEmptyFile, UserMessage{
		Message: "The file is empty",
		Action:  "Provide a file with at least a header record",
		Code:    "FILE002",
	}},
	{ErrOutputExists, UserMessage{
		Message: "The output file already exists",
		Action:  "Remove it, choose another output directory or pass --overwrite",
		Code:    "FILE003",
	}},
	{ErrPathNotAllowed, UserMessage{
		Message: "The path is outside the data directory",
		Action:  "Use a path relative to the data directory",
		Code:    "FILE004",
	}},
	{ErrFieldNotFound, UserMessage{
		Message: "The field is not in the file's header",
		Action:  "Check the field name against the header (inspect shows it)",
		Code:    "OPS001",
	}},
	{ErrEmptyValueList, UserMessage{
		Message: "No values were given to delete",
		Action:  "Pass at least one value",
		Code:    "OPS002",
	}},
	{ErrEmptySelection, UserMessage{
		Message: "No fields were given to select",
		Action:  "Pass at least one field name",
		Code:    "OPS003",
	}},
	{ErrNoFieldsSelected, UserMessage{
		Message: "None of the requested fields exist in the file",
		Action:  "Check the field names against the header",
		Code:    "OPS004",
	}},
	{ErrNoInputs, UserMessage{
		Message: "No input files were given",
		Action:  "Pass at least one file",
		Code:    "OPS005",
	}},
	{ErrTooManyOperations, UserMessage{
		Message: "The system is busy with other operations",
		Action:  "Please wait a moment and try again",
		Code:    "RATE001",
	}},
	{context.DeadlineExceeded, UserMessage{
		Message: "The operation timed out",
		Action:  "Try a smaller file or try again later",
		Code:    "ERR001",
	}},
	{context.Canceled, UserMessage{
		Message: "The operation was cancelled",
		Action:  "Start it again when ready",
		Code:    "ERR002",
	}},
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns catch errors that only arrive as text.
var errorPatterns = []errorPattern{
	{"unknown output format", UserMessage{
		Message: "Unknown output format",
		Action:  "Use csv, tsv, dat or xlsx",
		Code:    "FILE005",
	}},
	{"connection refused", UserMessage{
		Message: "Unable to connect to the history database",
		Action:  "Check DATABASE_URL or unset it to run without history",
		Code:    "DB001",
	}},
	{"datops_runs\" does not exist", UserMessage{
		Message: "The history table is missing",
		Action:  "Restart the server so it can create the table",
		Code:    "DB002",
	}},
	{"rate limit", UserMessage{
		Message: "Too many requests",
		Action:  "Please wait a moment before trying again",
		Code:    "RATE001",
	}},
}

// defaultMessage is returned when nothing matches (ERR000).
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the logs",
	Code:    "ERR000",
}

// MapError converts a technical error to a user-friendly message.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	for _, c := range errorClasses {
		if errors.Is(err, c.target) {
			return c.msg
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

// FormatUserError renders "Message (Code: XXX). Action".
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

// UserError pairs a technical error with its user-facing message.
type UserError struct {
	Technical error
	User      UserMessage
}

func (e *UserError) Error() string {
	return e.User.Message
}

func (e *UserError) Unwrap() error {
	return e.Technical
}

// NewUserError maps err. Returns nil if err is nil.
func NewUserError(err error) *UserError {
	if err == nil {
		return nil
	}
	return &UserError{
		Technical: err,
		User:      MapError(err),
	}
}
