package repository

import "errors"

var (
	// ErrNotFound is returned by mutations that matched no row.
	ErrNotFound = errors.New("record not found")
	// ErrDuplicate is returned when a unique constraint rejects a write.
	ErrDuplicate = errors.New("duplicate record")
	// ErrInvalidGeometry is returned when PostGIS rejects a geometry.
	ErrInvalidGeometry = errors.New("invalid geometry")
)
