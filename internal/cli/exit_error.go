package cli

import (
	"errors"
	"fmt"
)

// Exit codes
const (
	ExitFailure = 1
	ExitUsage   = 2
)

// ExitError is an error that carries an explicit process exit code.
type ExitError struct {
	code   int
	msg    string
	cause  error
	silent bool
}

func (e *ExitError) Error() string {
	if e.cause == nil {
		return e.msg
	}
	if e.msg == "" {
		return e.cause.Error()
	}
	return fmt.Sprintf("%s: %v", e.msg, e.cause)
}

func (e *ExitError) ExitCode() int { return e.code }

func (e *ExitError) Unwrap() error { return e.cause }

// NewExitError creates an ExitError with a message.
func NewExitError(code int, format string, args ...any) error {
	return &ExitError{code: normalize(code), msg: fmt.Sprintf(format, args...)}
}

// WrapExit creates an ExitError wrapping cause.
func WrapExit(code int, msg string, cause error) error {
	if cause == nil {
		return &ExitError{code: normalize(code), msg: msg}
	}
	return &ExitError{code: normalize(code), msg: msg, cause: cause}
}

// Reported wraps an error that was already shown to the user, so main only
// sets the exit code.
func Reported(code int, cause error) error {
	return &ExitError{code: normalize(code), cause: cause, silent: true}
}

// ExitCodeOf extracts an exit code from any error, defaulting to 1.
func ExitCodeOf(err error) int {
	if err == nil {
		return 0
	}
	var ee *ExitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return ExitFailure
}

// IsReported reports whether err was already shown to the user.
func IsReported(err error) bool {
	var ee *ExitError
	return errors.As(err, &ee) && ee.silent
}

func normalize(code int) int {
	if code <= 0 {
		return ExitFailure
	}
	return code
}
