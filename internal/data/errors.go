package data

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when no document matches a lookup.
	ErrNotFound = errors.New("document not found")
	// ErrDuplicate is returned when a write violates a unique index.
	ErrDuplicate = errors.New("duplicate key")
	// ErrMissingField is returned by the decoders when a stored document
	// lacks a required field.
	ErrMissingField = errors.New("missing required field")
)

func missingField(entity, key string) error {
	return fmt.Errorf("%s: %w %q", entity, ErrMissingField, key)
}
