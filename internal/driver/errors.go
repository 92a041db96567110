package driver

import "errors"

// Sentinel kinds for driver errors.
var (
	ErrSourceFailed = errors.New("line source failed")
)
