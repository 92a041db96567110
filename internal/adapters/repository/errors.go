package repository

import "errors"

// Sentinel kinds for window store errors.
var (
	ErrInvalidCapacity = errors.New("window capacity must be positive")
)
