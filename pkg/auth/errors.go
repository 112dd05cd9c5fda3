package auth

import "errors"

var (
	// ErrTokenRequired is returned when no bearer credential is present
	ErrTokenRequired = errors.New("token required")
	// ErrAccessDenied is returned for malformed tokens or bad signatures
	ErrAccessDenied = errors.New("access denied")
	// ErrTokenExpired is returned when a well-signed token is past its expiry
	ErrTokenExpired = errors.New("token expired")
	// ErrLoginAgain is returned when a token is no longer the user's current
	// one (revoked by logout or a newer issuance)
	ErrLoginAgain = errors.New("login again")
	// ErrInvalidCredentials is returned for an unknown email or wrong password
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// ValidationError describes a rejected input field with a human-readable
// reason. It always maps to a 400 response.
type ValidationError struct {
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// NewValidationError creates a validation error with the given reason
func NewValidationError(reason string) *ValidationError {
	return &ValidationError{Reason: reason}
}

// IsValidation reports whether err is a validation error
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
