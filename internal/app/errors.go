package app

import "errors"

// Sentinel kinds for service errors. The HTTP layer maps them onto status
// codes: ErrInvalidInput → 400, ErrNotConfigured and ErrStoreQuery → 500.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrNotConfigured = errors.New("profile store is not configured")
	ErrStoreQuery    = errors.New("profile store query failed")
)
