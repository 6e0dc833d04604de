package queue

import "errors"

// Sentinel kinds for queue errors.
var (
	ErrClosed    = errors.New("queue closed")
	ErrFull      = errors.New("queue full")
	ErrDuplicate = errors.New("task already pending")
)
