package geo

import "errors"

// Sentinel kinds for provider errors. Callers recover from all of them.
var (
	ErrProviderStatus = errors.New("geo: provider returned non-OK status")
	ErrProviderDecode = errors.New("geo: provider response could not be decoded")
	ErrNoResult       = errors.New("geo: provider found no address")
	ErrRateLimited    = errors.New("geo: rate limit wait exceeded")
	ErrInvalidRequest = errors.New("geo: invalid provider request")
	ErrNotRoutable    = errors.New("geo: address is not publicly routable")
)
