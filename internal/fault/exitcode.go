package fault

import (
	"errors"
	"fmt"
)

// Exit codes used by the controller and the CLI.
const (
	ExitSuccess = 0 // explicit success
	ExitFailure = 1 // ExitAndFail and uncaught faults
	ExitUsage   = 2 // invalid flags or configuration
)

// ErrTerminateReturned is raised when the captured termination primitive
// returns to Exit. It indicates a broken controller, not a user error.
var ErrTerminateReturned = errors.New("fault: terminate returned control to Exit")

// ExitError is an error that carries the exit code Run should use.
type ExitError struct {
	Code    int
	Message string
}

func (e *ExitError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("exit status %d", e.Code)
}

// Exitf returns an *ExitError with a formatted message.
func Exitf(code int, format string, args ...any) error {
	return &ExitError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ExitCodeName returns a human-readable name for an exit code.
func ExitCodeName(code int) string {
	switch code {
	case ExitSuccess:
		return "success"
	case ExitFailure:
		return "failure"
	case ExitUsage:
		return "usage"
	default:
		return "unknown"
	}
}

// exitCodeOf maps a Run result to the code and message handed to Exit.
func exitCodeOf(err error) (int, string) {
	if err == nil {
		return ExitSuccess, ""
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, exitErr.Message
	}
	return ExitFailure, err.Error()
}
