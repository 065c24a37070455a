package clierror

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
)

func TestExitCodes(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		got      int
		expected int
	}{
		{"ExitSuccess", ExitSuccess, 0},
		{"ExitGeneral", ExitGeneral, 1},
		{"ExitAuth", ExitAuth, 2},
		{"ExitInvalid", ExitInvalid, 3},
		{"ExitNotFound", ExitNotFound, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.expected {
				t.Errorf("%s = %d, want %d", tt.name, tt.got, tt.expected)
			}
		})
	}
}

func TestFromHTTP(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name     string
		status   int
		title    string
		token    string
		wantCode string
		wantExit int
	}{
		{"missing token", 403, "This request requires authorization", "Missing", CodeNotAuthenticated, ExitAuth},
		{"bad signature", 403, "This request requires authorization", "Invalid", CodeNotAuthenticated, ExitAuth},
		{"expired", 403, "This request requires authorization", "Expired", CodeTokenExpired, ExitAuth},
		{"revoked", 403, "This request requires authorization", "NotFound", CodeTokenRevoked, ExitAuth},
		{"not admin", 403, "This request requires admin permissions", "Ok", CodeNotAuthorized, ExitAuth},
		{"not owner", 403, "Could not update entity: forbidden", "", CodeNotAuthorized, ExitAuth},
		{"not found", 404, "Could not get entity: not found", "", CodeNotFound, ExitNotFound},
		{"validation", 422, "Could not create entity: name is required: invalid", "", CodeInvalidRequest, ExitInvalid},
		{"bad json", 400, "Could not create entity: request body must be a JSON object", "", CodeInvalidRequest, ExitInvalid},
		{"server error", 500, "Internal server error", "", CodeInternalError, ExitGeneral},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := FromHTTP(tt.status, tt.title, tt.token)
			if err.Code != tt.wantCode {
				t.Errorf("Code = %q, want %q", err.Code, tt.wantCode)
			}
			if err.ExitCode != tt.wantExit {
				t.Errorf("ExitCode = %d, want %d", err.ExitCode, tt.wantExit)
			}
		})
	}

	if !FromHTTP(503, "", "").Retryable {
		t.Error("5xx errors should be retryable")
	}
}

func TestNotAuthenticatedKeepsTitle(t *testing.T) {
	t.Parallel()
	err := FromHTTP(403, "This request requires authorization", "Missing")
	if err.Message != "This request requires authorization" {
		t.Errorf("Message = %q", err.Message)
	}
	if !strings.Contains(err.Hint, "TODO_TOKEN") {
		t.Errorf("Hint should mention TODO_TOKEN, got %q", err.Hint)
	}
}

func TestInternalError(t *testing.T) {
	t.Parallel()
	if got := InternalError(nil).Message; got != "an unexpected internal error occurred" {
		t.Errorf("Message = %q", got)
	}
	if got := InternalError(errors.New("disk full")).Message; !strings.Contains(got, "disk full") {
		t.Errorf("Message should wrap cause, got %q", got)
	}
}

func TestNewWithHint(t *testing.T) {
	t.Parallel()
	err := New(ExitGeneral, CodeInternalError, "export failed").WithHint("Check the output path")
	if err.Error() != "export failed" || err.Hint != "Check the output path" {
		t.Errorf("unexpected error: %+v", err)
	}
}

func TestFormatError(t *testing.T) {
	t.Parallel()
	err := NotFound("Could not get entity: not found")

	t.Run("table", func(t *testing.T) {
		out := FormatError(err, "table")
		if !strings.HasPrefix(out, "Error [NOT_FOUND]: Could not get entity: not found") {
			t.Errorf("unexpected output: %q", out)
		}
		if !strings.Contains(out, "\nHint: ") {
			t.Errorf("hint line missing: %q", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		var decoded map[string]any
		if e := json.Unmarshal([]byte(FormatError(err, "json")), &decoded); e != nil {
			t.Fatalf("invalid JSON: %v", e)
		}
		if decoded["code"] != CodeNotFound {
			t.Errorf("code = %v", decoded["code"])
		}
		if _, ok := decoded["ExitCode"]; ok {
			t.Error("exit code must not be serialized")
		}
	})
}
