package cli

import (
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/smarttask/pkg/domain/auth"
	"github.com/felixgeelhaar/smarttask/pkg/domain/task"
	"github.com/felixgeelhaar/smarttask/pkg/sdk"
)

// ExitUnauthorized is the exit status for a missing or rejected session.
const ExitUnauthorized = 2

// errNotLoggedIn is returned before any request is made when no session is
// stored.
var errNotLoggedIn = errors.New("not logged in")

// CLIError wraps domain errors with user-facing messages and actionable hints.
type CLIError struct {
	Message  string
	Hint     string
	Err      error
	ExitCode int
}

func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a CLIError with a default exit code of 1.
func NewCLIError(msg, hint string, err error) *CLIError {
	return &CLIError{
		Message:  msg,
		Hint:     hint,
		Err:      err,
		ExitCode: 1,
	}
}

func joinValues[T fmt.Stringer](values []T) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = v.String()
	}
	return strings.Join(parts, ", ")
}

// MapError converts known errors into CLIErrors with actionable hints.
// Unmapped errors are returned as-is.
func MapError(err error) error {
	if err == nil {
		return nil
	}

	var cliErr *CLIError
	if errors.As(err, &cliErr) {
		return err
	}

	switch {
	case errors.Is(err, errNotLoggedIn):
		e := NewCLIError("not logged in", "Run 'smarttask login'", err)
		e.ExitCode = ExitUnauthorized
		return e
	case errors.Is(err, sdk.ErrUnauthorized):
		e := NewCLIError("session expired or invalid credentials", "Run 'smarttask login'", err)
		e.ExitCode = ExitUnauthorized
		return e
	case errors.Is(err, auth.ErrMissingCredentials):
		return NewCLIError("username and password are required", "Pass --username and --password or answer the prompts", err)
	case errors.Is(err, task.ErrTitleRequired):
		return NewCLIError("task title is required", `Example: smarttask tasks add "Write report"`, err)
	case errors.Is(err, task.ErrInvalidStatus):
		return NewCLIError(err.Error(), "Valid statuses: "+joinValues(task.AllStatuses()), err)
	case errors.Is(err, task.ErrInvalidPriority):
		return NewCLIError(err.Error(), "Valid priorities: "+joinValues(task.AllPriorities()), err)
	case errors.Is(err, task.ErrInvalidCategory):
		return NewCLIError(err.Error(), "Valid categories: "+joinValues(task.AllCategories()), err)
	case errors.Is(err, sdk.ErrNotFound):
		return NewCLIError("task not found", "Run 'smarttask tasks list' to see task ids", err)
	}

	var apiErr *sdk.APIError
	if errors.As(err, &apiErr) {
		return NewCLIError(apiErr.UserMessage(), "", err)
	}

	return err
}
