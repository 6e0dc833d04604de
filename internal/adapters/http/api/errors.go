package api

import "errors"

// ErrMissingMux is returned by Register when given a nil mux.
var ErrMissingMux = errors.New("mux is nil")

// Error titles used in the "error" field of error bodies.
const (
	titleMethodNotAllowed = "Method not allowed"
	titleInvalidCountry   = "Invalid country parameter"
	titleInvalidLevel     = "Invalid level parameter"
	titleInvalidLocation  = "Invalid location parameter"
	titleConfiguration    = "Server configuration error"
	titleDatabase         = "Database error"
	titleInternal         = "Internal server error"
)
