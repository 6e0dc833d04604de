package geo

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/okian/racketrank/internal/domain/location"
)

const nominatimProvider = "nominatim"

type nominatimResponse struct {
	Error   string `json:"error"`
	Address struct {
		Town     string `json:"town"`
		Province string `json:"province"`
		Country  string `json:"country"`
	} `json:"address"`
}

// NominatimClient reverse geocodes coordinates.
type NominatimClient struct {
	cfg     clientConfig
	limiter *rate.Limiter
}

// NewNominatimClient creates a client for DefaultNominatimURL unless
// WithBaseURL says otherwise.
func NewNominatimClient(opts ...Option) *NominatimClient {
	cfg := newClientConfig(DefaultNominatimURL, opts)
	return &NominatimClient{
		cfg:     cfg,
		limiter: rate.NewLimiter(rate.Limit(cfg.ratePerSec), 1),
	}
}

// Reverse returns the address at c. Fields map as town → district,
// province → city, country → country; values are returned raw.
func (n *NominatimClient) Reverse(ctx context.Context, c location.Coordinates) (addr Address, err error) {
	start := time.Now()
	defer func() { recordCall(nominatimProvider, start, err) }()

	ctx, cancel := context.WithTimeout(ctx, n.cfg.timeout)
	defer cancel()

	if err := n.limiter.Wait(ctx); err != nil {
		return Address{}, fmt.Errorf("%w: %v", ErrRateLimited, err)
	}

	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", c.LatText())
	q.Set("lon", c.LngText())
	q.Set("addressdetails", "1")
	endpoint := strings.TrimRight(n.cfg.baseURL, "/") + "/reverse?" + q.Encode()

	var resp nominatimResponse
	if err := getJSON(ctx, n.cfg.httpClient, endpoint, n.cfg.userAgent, &resp); err != nil {
		return Address{}, err
	}
	if resp.Error != "" {
		return Address{}, fmt.Errorf("%w: %s", ErrNoResult, resp.Error)
	}

	return Address{
		District: strings.TrimSpace(resp.Address.Town),
		City:     strings.TrimSpace(resp.Address.Province),
		Country:  strings.TrimSpace(resp.Address.Country),
	}, nil
}
