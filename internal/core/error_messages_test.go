package core

import (
	"errors"
	"fmt"
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
			name:        "missing credential",
			err:         ErrMissingCredential,
			wantCode:    "AUTH001",
			wantMessage: "Auth token not provided",
		},
		{
			name:        "invalid credential wrapped",
			err:         fmt.Errorf("import stops: %w", ErrInvalidCredential),
			wantCode:    "AUTH002",
			wantMessage: "Auth token is not valid",
		},
		{
			name:        "batch open prefers the credential cause",
			err:         batchOpen(ErrMissingCredential),
			wantCode:    "AUTH001",
			wantMessage: "Auth token not provided",
		},
		{
			name:        "batch open without known cause",
			err:         batchOpen(errors.New("bad multipart body")),
			wantCode:    "BAT001",
			wantMessage: "The import could not be started",
		},
		{
			name:        "not found",
			err:         NotFound(KindStop, 7),
			wantCode:    "ENT001",
			wantMessage: "Record not found",
		},
		{
			name:        "constraint",
			err:         Constraint("line %d does not exist", 4),
			wantCode:    "ENT002",
			wantMessage: "The change violates a data constraint",
		},
		{
			name:        "malformed",
			err:         Malformed("Latitude", "abc"),
			wantCode:    "ROW001",
			wantMessage: "A value could not be parsed",
		},
		{
			name:        "raw duplicate key text",
			err:         errors.New("ERROR: duplicate key value violates unique constraint"),
			wantCode:    "ENT002",
			wantMessage: "A record with this id already exists",
		},
		{
			name:        "connection refused maps correctly",
			err:         errors.New("dial tcp: connection refused"),
			wantCode:    "DB001",
			wantMessage: "Unable to connect to database",
		},
		{
			name:        "deadline before generic timeout",
			err:         errors.New("context deadline exceeded (timeout)"),
			wantCode:    "REQ002",
			wantMessage: "Request timed out",
		},
		{
			name:        "unknown error returns default",
			err:         errors.New("some random internal error"),
			wantCode:    "ERR000",
			wantMessage: "An unexpected error occurred",
		},
		{
			name:        "case insensitive matching",
			err:         errors.New("DUPLICATE KEY value violates"),
			wantCode:    "ENT002",
			wantMessage: "A record with this id already exists",
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
	result := FormatUserError(ErrMissingCredential)

	expected := "Auth token not provided (Code: AUTH001). Send the token in the \"auth\" form field"
	if result != expected {
		t.Errorf("FormatUserError() = %q, want %q", result, expected)
	}
}

func TestIsUserFacing(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil error is not user facing", err: nil, want: false},
		{name: "sentinel is user facing", err: NotFound(KindLine, 1), want: true},
		{name: "unknown error is not user facing", err: errors.New("random internal error xyz"), want: false},
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
	t.Run("nil error returns nil", func(t *testing.T) {
		if got := NewUserError(nil); got != nil {
			t.Errorf("NewUserError(nil) = %v, want nil", got)
		}
	})

	t.Run("wraps technical error with user message", func(t *testing.T) {
		techErr := NotFound(KindVehicle, 3)
		userErr := NewUserError(techErr)

		if userErr.Error() != "Record not found" {
			t.Errorf("Error() = %q, want user message", userErr.Error())
		}
		if !errors.Is(userErr, ErrNotFound) {
			t.Error("Unwrap() should expose the sentinel")
		}
	})
}
