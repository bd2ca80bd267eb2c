package app

import "errors"

var (
	// ErrInvalidCredentials is returned for every login failure. The message
	// is shown to end users and must not enable account enumeration.
	ErrInvalidCredentials = errors.New("Incorrect username or password")

	// ErrNoSession is returned when a presented token cannot establish a
	// session, whatever the underlying reason.
	ErrNoSession = errors.New("Could not validate credentials")

	ErrEmailAndPasswordRequired = errors.New("email and password required")
	ErrEmailAlreadyExists       = errors.New("Email already registered")
	ErrEmailRequired            = errors.New("email required")
	ErrInvalidRole              = errors.New("invalid role")
	ErrUserNotFound             = errors.New("User not found")
	ErrCannotChangeOwnRole      = errors.New("cannot change own role")
	ErrCannotDeactivateSelf     = errors.New("cannot deactivate own admin account")
)
