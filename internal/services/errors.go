package services

import (
	"errors"
	"fmt"
)

var (
	ErrStopNotFound       = errors.New("stop not found in the route")
	ErrNoAssignment       = errors.New("no stop is assigned to this roll number")
	ErrDuplicateStudent   = errors.New("a student with this roll number already exists")
	ErrIncorrectPassword  = errors.New("incorrect current password")
	ErrInvalidCredentials = errors.New("invalid identifier or password")
)

// ValidationError is a missing or malformed input. Field names the offending
// input using its JSON name; Message is safe to show to the user.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func newValidationError(field, format string, args ...interface{}) *ValidationError {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is, or wraps, a *ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
