package models

import "errors"

var (
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")

	// ErrNotFound indicates a center could not be located.
	ErrNotFound = errors.New("not found")

	// ErrDuplicateName indicates a center with the same name is already registered.
	ErrDuplicateName = errors.New("center name already registered")

	// ErrUnfairExchange indicates the two sides of an exchange are worth different points
	// and the emergency override does not apply.
	ErrUnfairExchange = errors.New("exchange point totals differ")

	// ErrInsufficientResource indicates a center does not hold enough of a resource type.
	ErrInsufficientResource = errors.New("insufficient resource")
)
