package auth

import "errors"

var (
	// ErrRateLimited rejects a login attempt while the lockout window for
	// the submitted username is still open.
	ErrRateLimited = errors.New("auth: too many failed login attempts")
	// ErrInvalidCredentials covers both unknown-user and wrong-password,
	// on purpose: the two must be indistinguishable to the client.
	ErrInvalidCredentials = errors.New("auth: invalid username or password")

	ErrDuplicateUsername = errors.New("auth: username already exists")
	ErrDuplicateEmail    = errors.New("auth: email already exists")

	ErrAuthenticationRequired = errors.New("auth: authentication required")
	ErrAuthorizationDenied    = errors.New("auth: insufficient permissions")
)

type (
	// ValidationError carries a message that is safe to render back to
	// the user who submitted the form.
	ValidationError struct {
		Field   string
		Message string
	}
)

func (e ValidationError) Error() string {
	return "auth: " + e.Message
}

func invalidInput(field, message string) error {
	return ValidationError{Field: field, Message: message}
}

// UserMessage maps an error from this package to the message shown to the
// user. Anything outside the taxonomy comes back as a generic failure so
// storage details never leak to the client.
func UserMessage(err error) string {
	var verr ValidationError
	switch {
	case errors.As(err, &verr):
		return verr.Message
	case errors.Is(err, ErrRateLimited):
		return "Too many failed login attempts. Please try again in 15 minutes."
	case errors.Is(err, ErrInvalidCredentials):
		return "Invalid username or password."
	case errors.Is(err, ErrDuplicateUsername):
		return "Username already exists."
	case errors.Is(err, ErrDuplicateEmail):
		return "Email already exists."
	case errors.Is(err, ErrAuthenticationRequired):
		return "Please log in to access this page."
	case errors.Is(err, ErrAuthorizationDenied):
		return "You do not have permission to access this page."
	}
	return "An unexpected error occurred. Please try again later."
}

// Recoverable reports whether err belongs to the user-correctable part of
// the taxonomy, as opposed to a storage failure.
func Recoverable(err error) bool {
	var verr ValidationError
	return errors.As(err, &verr) ||
		errors.Is(err, ErrRateLimited) ||
		errors.Is(err, ErrInvalidCredentials) ||
		errors.Is(err, ErrDuplicateUsername) ||
		errors.Is(err, ErrDuplicateEmail) ||
		errors.Is(err, ErrAuthenticationRequired) ||
		errors.Is(err, ErrAuthorizationDenied)
}
