package cache

import "errors"

// Sentinel kinds for cache errors.
var (
	ErrEmptyKey     = errors.New("cache: key cannot be empty")
	ErrBackend      = errors.New("cache: backend failure")
	ErrCodec        = errors.New("cache: payload encoding failed")
	ErrInvalidTable = errors.New("cache: invalid table name")
)
