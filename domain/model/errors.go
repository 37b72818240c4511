package model

import "errors"

var (
	// ErrInvalidCredentials covers both unknown usernames and digest
	// mismatches; callers must not be able to tell which check failed.
	ErrInvalidCredentials = errors.New("invalid username or password")

	// ErrSessionInvalid covers both unknown tokens and idle-expired
	// sessions; callers must not be able to tell which.
	ErrSessionInvalid = errors.New("session invalid")

	ErrSessionTableFull = errors.New("session table full")

	ErrPumpAlreadyRunning = errors.New("pump already running")
	ErrDurationTooLarge   = errors.New("duration exceeds maximum")

	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
	ErrLastAdmin    = errors.New("cannot remove the last admin")

	ErrUsersFileNotFound = errors.New("users file not found")
	ErrStateNotFound     = errors.New("pump state file not found")
	ErrCorruptedFile     = errors.New("storage file corrupted")
)
