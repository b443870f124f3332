package cli

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/felixgeelhaar/smarttask/pkg/domain/auth"
	"github.com/felixgeelhaar/smarttask/pkg/domain/task"
	"github.com/felixgeelhaar/smarttask/pkg/sdk"
)

func TestCLIError(t *testing.T) {
	t.Run("Error with cause", func(t *testing.T) {
		cause := errors.New("root cause")
		e := NewCLIError("something failed", "try this", cause)
		if e.Error() != "something failed: root cause" {
			t.Fatalf("unexpected: %s", e.Error())
		}
		if e.ExitCode != 1 {
			t.Fatalf("expected exit code 1, got %d", e.ExitCode)
		}
	})

	t.Run("Error without cause", func(t *testing.T) {
		e := NewCLIError("something failed", "try this", nil)
		if e.Error() != "something failed" {
			t.Fatalf("unexpected: %s", e.Error())
		}
	})

	t.Run("Unwrap returns cause", func(t *testing.T) {
		cause := errors.New("root")
		e := NewCLIError("msg", "", cause)
		if !errors.Is(e, cause) {
			t.Fatal("errors.Is should match wrapped cause")
		}
	})
}

func TestMapError(t *testing.T) {
	_, statusErr := task.ParseStatus("done-ish")
	tests := []struct {
		name     string
		err      error
		wantMsg  string
		wantHint string
		wantExit int
	}{
		{name: "not logged in", err: errNotLoggedIn, wantMsg: "not logged in", wantHint: "Run 'smarttask login'", wantExit: ExitUnauthorized},
		{
			name:     "unauthorized response",
			err:      &sdk.APIError{StatusCode: http.StatusUnauthorized, Message: "Full authentication is required"},
			wantMsg:  "session expired or invalid credentials",
			wantHint: "Run 'smarttask login'",
			wantExit: ExitUnauthorized,
		},
		{name: "missing credentials", err: auth.ErrMissingCredentials, wantMsg: "username and password are required", wantExit: 1},
		{name: "blank title", err: task.ErrTitleRequired, wantMsg: "task title is required", wantExit: 1},
		{name: "invalid status", err: statusErr, wantMsg: "done-ish", wantHint: "PENDING, IN_PROGRESS, COMPLETED, CANCELLED", wantExit: 1},
		{name: "not found", err: &sdk.APIError{StatusCode: http.StatusNotFound}, wantMsg: "task not found", wantExit: 1},
		{name: "server message", err: &sdk.APIError{StatusCode: http.StatusBadRequest, Message: "Title is required"}, wantMsg: "Title is required", wantExit: 1},
		{name: "wrapped", err: fmt.Errorf("ctx: %w", errNotLoggedIn), wantMsg: "not logged in", wantExit: ExitUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MapError(tt.err)
			var cliErr *CLIError
			if !errors.As(got, &cliErr) {
				t.Fatalf("expected CLIError, got %T", got)
			}
			if !strings.Contains(cliErr.Message, tt.wantMsg) {
				t.Fatalf("message = %q, want it to contain %q", cliErr.Message, tt.wantMsg)
			}
			if tt.wantHint != "" && !strings.Contains(cliErr.Hint, tt.wantHint) {
				t.Fatalf("hint = %q, want it to contain %q", cliErr.Hint, tt.wantHint)
			}
			if cliErr.ExitCode != tt.wantExit {
				t.Fatalf("exit code = %d, want %d", cliErr.ExitCode, tt.wantExit)
			}
			if !errors.Is(got, tt.err) {
				t.Fatal("mapped error should wrap the original")
			}
		})
	}
}

func TestMapError_PassThrough(t *testing.T) {
	if MapError(nil) != nil {
		t.Fatal("nil should map to nil")
	}
	plain := errors.New("disk full")
	if got := MapError(plain); got != plain {
		t.Fatalf("unmapped error changed: %v", got)
	}
	existing := NewCLIError("already mapped", "hint", nil)
	if got := MapError(existing); got != existing {
		t.Fatal("CLIError should pass through unchanged")
	}
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, 0},
		{"plain", errors.New("boom"), 1},
		{"unauthorized", MapError(errNotLoggedIn), ExitUnauthorized},
		{"wrapped cli error", fmt.Errorf("outer: %w", NewCLIError("x", "", nil)), 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExitCode(tt.err); got != tt.want {
				t.Fatalf("ExitCode = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestAuthError(t *testing.T) {
	cause := &sdk.APIError{StatusCode: http.StatusUnauthorized, Message: "Invalid username or password"}
	err := authError("Invalid username or password", "Check your username and password", cause)
	var cliErr *CLIError
	if !errors.As(err, &cliErr) {
		t.Fatalf("expected CLIError, got %T", err)
	}
	if cliErr.Message != "Invalid username or password" || cliErr.ExitCode != ExitUnauthorized {
		t.Fatalf("unexpected error: %+v", cliErr)
	}
	if cliErr.Hint != "Check your username and password" {
		t.Fatalf("hint = %q", cliErr.Hint)
	}
}
