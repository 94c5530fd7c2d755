package model

import "errors"

var (
	// ErrNotFound is returned when a requested entity does not exist.
	ErrNotFound = errors.New("not found")
	// ErrInvalidCoordinate is returned for latitude/longitude outside the
	// valid domain. It is a caller contract violation and is never clamped.
	ErrInvalidCoordinate = errors.New("coordinate out of valid range")
	// ErrStaleState is returned when a publish attempt carries a sample
	// older than the already published state. The attempt is abandoned.
	ErrStaleState = errors.New("stale publish state")
)
