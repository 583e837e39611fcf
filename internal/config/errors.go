package config

import (
	"errors"
	"fmt"
)

// Error marks a configuration problem that aborts before any scanning
// starts: bad root path, unknown profile, malformed thresholds. CLI
// collaborators map it to exit code 2.
type Error struct {
	msg   string
	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %v", e.msg, e.cause)
	}
	return e.msg
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Errorf builds a configuration error.
func Errorf(format string, args ...interface{}) *Error {
	return &Error{msg: fmt.Sprintf(format, args...)}
}

// WrapError marks an underlying error as a configuration error.
func WrapError(msg string, cause error) *Error {
	return &Error{msg: msg, cause: cause}
}

// IsConfigError reports whether err is (or wraps) a configuration
// error.
func IsConfigError(err error) bool {
	var ce *Error
	return errors.As(err, &ce)
}
