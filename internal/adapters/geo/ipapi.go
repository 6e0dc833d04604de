package geo

import (
	"context"
	"fmt"
	"net/netip"
	"net/url"
	"strings"
	"time"
)

const ipapiProvider = "ipapi"

type ipapiResponse struct {
	Error       bool   `json:"error"`
	Reason      string `json:"reason"`
	City        string `json:"city"`
	Region      string `json:"region"`
	CountryName string `json:"country_name"`
}

// IPAPIClient locates a requester by IP address.
type IPAPIClient struct {
	cfg clientConfig
}

// NewIPAPIClient creates a client for DefaultIPAPIURL unless WithBaseURL
// says otherwise.
func NewIPAPIClient(opts ...Option) *IPAPIClient {
	return &IPAPIClient{cfg: newClientConfig(DefaultIPAPIURL, opts)}
}

// Locate returns the address for ip. Only public addresses are looked up:
// the provider's self lookup would locate this server, not the requester,
// so empty, private and loopback addresses fail with ErrNotRoutable
// without a request. Fields map as city → district, region → city,
// country_name → country.
func (p *IPAPIClient) Locate(ctx context.Context, ip string) (addr Address, err error) {
	target, ok := publicAddr(ip)
	if !ok {
		return Address{}, fmt.Errorf("%w: %q", ErrNotRoutable, ip)
	}

	start := time.Now()
	defer func() { recordCall(ipapiProvider, start, err) }()

	ctx, cancel := context.WithTimeout(ctx, p.cfg.timeout)
	defer cancel()

	var resp ipapiResponse
	if err := getJSON(ctx, p.cfg.httpClient, p.endpoint(target), p.cfg.userAgent, &resp); err != nil {
		return Address{}, err
	}
	if resp.Error {
		return Address{}, fmt.Errorf("%w: %s", ErrNoResult, resp.Reason)
	}

	return Address{
		District: strings.TrimSpace(resp.City),
		City:     strings.TrimSpace(resp.Region),
		Country:  strings.TrimSpace(resp.CountryName),
	}, nil
}

func (p *IPAPIClient) endpoint(addr netip.Addr) string {
	return strings.TrimRight(p.cfg.baseURL, "/") + "/" + url.PathEscape(addr.String()) + "/json/"
}

func publicAddr(ip string) (netip.Addr, bool) {
	a, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return netip.Addr{}, false
	}
	a = a.Unmap()
	return a, a.IsGlobalUnicast() && !a.IsPrivate() && !a.IsLoopback()
}
