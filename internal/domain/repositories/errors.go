package repositories

import "errors"

// Domain-specific repository errors
var (
	// ErrUserNotFound is returned when a user cannot be found
	ErrUserNotFound = errors.New("user not found")

	// ErrRoleNotFound is returned when a role cannot be found
	ErrRoleNotFound = errors.New("role not found")

	// ErrDuplicateUsername is returned when creating a user whose username
	// is already taken
	ErrDuplicateUsername = errors.New("username already exists")

	// ErrInvalidUsername is returned when creating a user with an empty
	// username
	ErrInvalidUsername = errors.New("username must not be empty")

	// ErrDuplicateRole is returned when creating a role whose normalized
	// name collides with an existing role
	ErrDuplicateRole = errors.New("role already exists")

	// ErrDuplicateLogin is returned when an external login linkage is
	// already claimed by another user
	ErrDuplicateLogin = errors.New("external login already linked")
)
