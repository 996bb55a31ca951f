package common

import "errors"

// Errors shared by the service and transport layers. Wrap them with
// fmt.Errorf("%w: ...") to add detail; classify with errors.Is.
var (
	// client input
	ErrValidation = errors.New("validation error")

	// session and account
	ErrUnauthenticated    = errors.New("not authorized")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrDuplicateUser      = errors.New("user already exists")

	// resource access
	ErrNotFound  = errors.New("not found")
	ErrForbidden = errors.New("forbidden")

	// character progression
	ErrMaxLevelReached = errors.New("character is already at max level")
)
