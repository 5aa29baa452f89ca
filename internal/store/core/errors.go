package core

import "errors"

var (
	// ErrNotFound indica que el registro no existe (o fue eliminado).
	ErrNotFound = errors.New("store: not found")

	// ErrDuplicateEmail indica conflicto de unicidad en el alta.
	ErrDuplicateEmail = errors.New("store: email already registered")
)
