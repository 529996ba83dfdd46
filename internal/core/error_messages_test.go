package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMapError(t *testing.T) {
	tests := []struct {
		name        string
		err         error
		wantCode    string
		wantMessage string
	}{
		{
			name:        "nil error returns empty",
			err:         nil,
			wantCode:    "",
			wantMessage: "",
		},
		{
			name:        "wrapped conflict",
			err:         fmt.Errorf("update buyer: %w", ErrConflict),
			wantCode:    "BUY002",
			wantMessage: "This buyer was changed by someone else",
		},
		{
			name:        "not found",
			err:         ErrNotFound,
			wantCode:    "BUY001",
			wantMessage: "Buyer not found",
		},
		{
			name:        "forbidden renders as not found",
			err:         ErrForbidden,
			wantCode:    "BUY001",
			wantMessage: "Buyer not found",
		},
		{
			name:        "validation errors",
			err:         ValidationErrors{{Field: "phone", Message: "must be 10 to 15 digits"}},
			wantCode:    "VAL001",
			wantMessage: "One or more fields are invalid",
		},
		{
			name:        "batch invalid",
			err:         ErrBatchInvalid,
			wantCode:    "CSV004",
			wantMessage: "Some rows in the file are invalid, nothing was imported",
		},
		{
			name:        "empty input with detail",
			err:         fmt.Errorf("%w: header has no data rows", ErrEmptyInput),
			wantCode:    "CSV001",
			wantMessage: "The uploaded file has no rows",
		},
		{
			name:        "too many rows",
			err:         fmt.Errorf("%w: more than 200 data rows", ErrBatchTooLarge),
			wantCode:    "CSV002",
			wantMessage: "The file has too many rows",
		},
		{
			name:        "malformed csv",
			err:         fmt.Errorf("%w: bare quote", ErrMalformedCSV),
			wantCode:    "CSV003",
			wantMessage: "The file could not be read as CSV",
		},
		{
			name:        "rate limited",
			err:         ErrRateLimited,
			wantCode:    "RATE001",
			wantMessage: "Too many requests",
		},
		{
			name:        "import gate full",
			err:         ErrTooManyImports,
			wantCode:    "RATE002",
			wantMessage: "The server is busy with other imports",
		},
		{
			name:        "unauthenticated",
			err:         ErrUnauthenticated,
			wantCode:    "AUTH001",
			wantMessage: "You are not signed in",
		},
		{
			name:        "duplicate key inside persistence error",
			err:         persistence("create buyer", errors.New("ERROR: duplicate key value violates unique constraint \"buyers_pkey\"")),
			wantCode:    "DB001",
			wantMessage: "A record with this ID already exists",
		},
		{
			name:        "foreign key maps correctly",
			err:         errors.New("insert or update on table \"buyer_history\" violates foreign key constraint"),
			wantCode:    "DB003",
			wantMessage: "Referenced record does not exist",
		},
		{
			name:        "connection refused",
			err:         errors.New("dial tcp 127.0.0.1:5432: connect: connection refused"),
			wantCode:    "DB004",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "connection reset is case insensitive",
			err:         errors.New("read: CONNECTION RESET by peer"),
			wantCode:    "DB005",
			wantMessage: "Database connection was interrupted",
		},
		{
			name:        "deadlock",
			err:         errors.New("ERROR: deadlock detected"),
			wantCode:    "DB007",
			wantMessage: "Database was busy with conflicting operations",
		},
		{
			name:        "context canceled",
			err:         context.Canceled,
			wantCode:    "REQ001",
			wantMessage: "Request was cancelled",
		},
		{
			name:        "deadline exceeded beats generic timeout",
			err:         context.DeadlineExceeded,
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
		},
		{
			name:        "generic timeout",
			err:         errors.New("i/o timeout"),
			wantCode:    "DB006",
			wantMessage: "Operation timed out",
		},
		{
			name:        "body too large",
			err:         errors.New("http: request body too large"),
			wantCode:    "FILE001",
			wantMessage: "File exceeds maximum upload size",
		},
		{
			name:        "no file provided",
			err:         errors.New("no file provided"),
			wantCode:    "FILE004",
			wantMessage: "No file was selected",
		},
		{
			name:        "opaque persistence failure",
			err:         persistence("list buyers", errors.New("pgx: something odd")),
			wantCode:    "DB010",
			wantMessage: "The change could not be saved",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some completely unknown error xyz123"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			if got.Code != tt.wantCode {
				t.Errorf("MapError() code = %q, want %q", got.Code, tt.wantCode)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("MapError() message = %q, want %q", got.Message, tt.wantMessage)
			}
		})
	}
}

func TestFormatUserError(t *testing.T) {
	if got := FormatUserError(nil); got != "" {
		t.Errorf("FormatUserError(nil) = %q, want empty", got)
	}

	got := FormatUserError(ErrConflict)
	if !strings.Contains(got, "(Code: BUY002)") {
		t.Errorf("FormatUserError() = %q, missing code", got)
	}
	if !strings.HasSuffix(got, "Reload the buyer and apply your edit again") {
		t.Errorf("FormatUserError() = %q, missing action", got)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		err  error
		want bool
	}{
		{nil, false},
		{ErrNotFound, true},
		{errors.New("duplicate key"), true},
		{errors.New("unknown error"), false},
	}
	for _, tt := range tests {
		if got := IsUserFacing(tt.err); got != tt.want {
			t.Errorf("IsUserFacing(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}

func TestPersistence_PassesDomainErrorsThrough(t *testing.T) {
	for _, err := range []error{ErrNotFound, ErrForbidden, ErrConflict, context.Canceled} {
		if got := persistence("op", err); got != err {
			t.Errorf("persistence(%v) = %v, want unchanged", err, got)
		}
	}

	wrapped := persistence("op", errors.New("disk full"))
	var pe *PersistenceError
	if !errors.As(wrapped, &pe) || pe.Op != "op" {
		t.Fatalf("persistence() = %v, want *PersistenceError", wrapped)
	}
	if persistence("op", nil) != nil {
		t.Error("persistence(nil) should be nil")
	}
}
