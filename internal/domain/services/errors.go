package services

import "errors"

var (
	// ErrUserNotEnabled is returned when a freshly provisioned account
	// exists but is not yet authorized to proceed. The caller should
	// route to the authorization-error path, not the authentication one.
	ErrUserNotEnabled = errors.New("user account is not enabled")
)
