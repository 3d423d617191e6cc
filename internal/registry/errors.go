package registry

import "errors"

var (
	// ErrNotFound is returned by Delete when no record matches the upn.
	ErrNotFound = errors.New("user not found")
	// ErrAlreadyExists is returned by Create when the upn is already registered.
	ErrAlreadyExists = errors.New("user already exists")
	// ErrLockTimeout is returned when the registry file lock could not be
	// acquired within the configured bound. Transient: callers may retry.
	ErrLockTimeout = errors.New("timed out acquiring registry file lock")
)
