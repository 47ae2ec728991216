package services

import (
	"errors"
	"fmt"
)

// ValidationError marks caller mistakes that map to a 400 response. The
// message is safe to show to the caller.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func validationErrorf(format string, args ...any) error {
	return &ValidationError{Message: fmt.Sprintf(format, args...)}
}

// IsValidationError reports whether err is, or wraps, a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// ErrInvalidCredentials is returned on a failed login. The same error
// covers unknown email and wrong password so the response does not leak
// which accounts exist.
var ErrInvalidCredentials = errors.New("invalid email or password")
