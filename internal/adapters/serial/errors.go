package serial

import "errors"

// Sentinel kinds for byte-stream errors.
var (
	ErrTransport       = errors.New("transport failure")
	ErrTimeout         = errors.New("read timeout")
	ErrInvalidEncoding = errors.New("invalid utf-8 encoding")
	ErrLineTooLong     = errors.New("line exceeds maximum length")
	ErrClosed          = errors.New("source closed")
)
