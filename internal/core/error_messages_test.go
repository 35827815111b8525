package core

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"

	"github.com/JonMunkholm/datops/internal/charset"
	"github.com/JonMunkholm/datops/internal/dat"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode string
	}{
		{
			name:     "nil error returns empty",
			err:      nil,
			wantCode: "",
		},
		{
			name:     "wrapped encoding failure",
			err:      &FileError{Path: "a.dat", Err: fmt.Errorf("%w: empty file", charset.ErrUndetermined)},
			wantCode: "ENC001",
		},
		{
			name:     "unknown encoding name",
			err:      fmt.Errorf("open: %w", charset.ErrUnknownEncoding),
			wantCode: "ENC002",
		},
		{
			name:     "field count error",
			err:      &dat.FieldCountError{Line: 4, Expected: 3, Actual: 2},
			wantCode: "ROW001",
		},
		{
			name:     "schema invalid wins over the row error it wraps",
			err:      fmt.Errorf("%w: %w", ErrSchemaInvalid, &dat.FieldCountError{Line: 4}),
			wantCode: "SCH001",
		},
		{
			name:     "header mismatch",
			err:      &HeaderMismatchError{A: dat.Header{"a"}, B: dat.Header{"b"}},
			wantCode: "HDR001",
		},
		{
			name:     "missing file",
			err:      &FileError{Path: "x", Err: os.ErrNotExist},
			wantCode: "FILE001",
		},
		{
			name:     "output exists",
			err:      fmt.Errorf("write: %w", ErrOutputExists),
			wantCode: "FILE003",
		},
		{
			name:     "empty selection",
			err:      ErrEmptySelection,
			wantCode: "OPS003",
		},
		{
			name:     "limiter saturated",
			err:      ErrTooManyOperations,
			wantCode: "RATE001",
		},
		{
			name:     "deadline",
			err:      fmt.Errorf("compare: %w", context.DeadlineExceeded),
			wantCode: "ERR001",
		},
		{
			name:     "text-only driver error",
			err:      errors.New("dial tcp 127.0.0.1:5432: CONNECTION REFUSED"),
			wantCode: "DB001",
		},
		{
			name:     "unknown format text",
			err:      errors.New(`unknown output format "json"`),
			wantCode: "FILE005",
		},
		{
			name:     "unknown error returns default",
			err:      errors.New("some random internal error"),
			wantCode: "ERR000",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	result := FormatUserError(ErrEmptyValueList)

	expected := "No values were given to delete (Code: OPS002). Pass at least one value"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
	if FormatUserError(nil) != "" {
		t.Error("FormatUserError(nil) should be empty")
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil error is not user facing", nil, false},
		{"known sentinel is user facing", ErrNoFieldsSelected, true},
		{"unknown error is not user facing", errors.New("random internal error xyz"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsUserFacing(tt.err); got != tt.want {
				t.Errorf("IsUserFacing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewUserError(t *testing.T) {
	if got := NewUserError(nil); got != nil {
		t.Errorf("NewUserError(nil) = %v, want nil", got)
	}

	techErr := &FileError{Path: "b.dat", Err: ErrEmptyFile}
	userErr := NewUserError(techErr)

	if userErr.Error() != "The file is empty" {
		t.Errorf("Error() = %q, want user message", userErr.Error())
	}
	if !errors.Is(userErr, ErrEmptyFile) {
		t.Error("Unwrap() should expose the original error chain")
	}
}
