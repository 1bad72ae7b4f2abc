package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound indicates the requested entity was not found.
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists indicates a uniqueness rule was violated.
	ErrAlreadyExists = errors.New("already exists")
	// ErrInvalidInput indicates the payload failed validation.
	ErrInvalidInput = errors.New("invalid input")
	// ErrUnauthenticated indicates no caller identity was supplied.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates the caller lacks the role or ownership required.
	ErrForbidden = errors.New("forbidden")
	// ErrConflict indicates the entity is in a state that does not allow the operation.
	ErrConflict = errors.New("conflict")

	// ErrFarmNotFound is returned when the caller's account owns no farm.
	ErrFarmNotFound = fmt.Errorf("no farm registered for this account: %w", ErrNotFound)
)
