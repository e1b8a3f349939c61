package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is the base of every "entity absent for the given id" error.
	ErrNotFound = errors.New("not found")
	// ErrUserNotFound is returned when no user matches the requested id.
	ErrUserNotFound = fmt.Errorf("user %w", ErrNotFound)
	// ErrTaskNotFound is returned when no task matches the requested id.
	ErrTaskNotFound = fmt.Errorf("task %w", ErrNotFound)

	// ErrInvalidInput marks a missing or malformed required field.
	ErrInvalidInput = errors.New("invalid input")
	// ErrAlreadyExists is returned when a unique username or email is taken.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidCredentials indicates that provided login credentials are incorrect.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
