package repository

import "errors"

// Sentinel kinds for profile store errors.
var (
	ErrInvalidLimit     = errors.New("invalid leaderboard limit")
	ErrInvalidField     = errors.New("invalid filter field")
	ErrConnectionClosed = errors.New("postgres: connection pool is closed")
	ErrMigrationFailed  = errors.New("postgres: migration failed")
)
