package queue

import "errors"

// Sentinel kinds for enqueue failures.
var (
	ErrFull   = errors.New("publication queue full")
	ErrClosed = errors.New("publication queue closed")
)
