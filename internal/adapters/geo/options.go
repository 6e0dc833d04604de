package geo

import (
	"net/http"
	"time"
)

// Provider defaults.
const (
	DefaultNominatimURL = "https://nominatim.openstreetmap.org"
	DefaultIPAPIURL     = "https://ipapi.co"
	DefaultUserAgent    = "RacketRank/1.0"
	DefaultTimeout      = 10 * time.Second
	// DefaultRatePerSecond follows the public Nominatim usage policy.
	DefaultRatePerSecond = 1.0
)

// Option configures a provider client.
type Option func(*clientConfig)

type clientConfig struct {
	baseURL    string
	userAgent  string
	timeout    time.Duration
	ratePerSec float64
	httpClient *http.Client
}

// WithBaseURL points the client at another provider instance.
func WithBaseURL(u string) Option {
	return func(c *clientConfig) {
		if u != "" {
			c.baseURL = u
		}
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(c *clientConfig) {
		if ua != "" {
			c.userAgent = ua
		}
	}
}

// WithTimeout bounds each call, rate limiter wait included.
func WithTimeout(d time.Duration) Option {
	return func(c *clientConfig) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithRatePerSecond sets the client-side request rate. Only the reverse
// geocoder is rate limited.
func WithRatePerSecond(r float64) Option {
	return func(c *clientConfig) {
		if r > 0 {
			c.ratePerSec = r
		}
	}
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *clientConfig) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

func newClientConfig(baseURL string, opts []Option) clientConfig {
	c := clientConfig{
		baseURL:    baseURL,
		userAgent:  DefaultUserAgent,
		timeout:    DefaultTimeout,
		ratePerSec: DefaultRatePerSecond,
		httpClient: &http.Client{},
	}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}
