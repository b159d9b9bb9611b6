package machine

import (
	"errors"
	"fmt"
)

// RecoverableError marks host-code failures the driver is allowed to convert
// into diagnostics (construction, property setting, registration, naming).
// Anything else host code returns is treated as fatal and propagated as-is.
type RecoverableError struct {
	msg string
}

func (e *RecoverableError) Error() string {
	return e.msg
}

// Recoverable builds a RecoverableError.
func Recoverable(format string, args ...any) error {
	return &RecoverableError{msg: fmt.Sprintf(format, args...)}
}

// IsRecoverable reports whether err is, or wraps, a RecoverableError.
func IsRecoverable(err error) bool {
	var re *RecoverableError
	return errors.As(err, &re)
}
