// Package geo contains the clients for the external location providers: a
// Nominatim-compatible reverse geocoder and an ipapi-compatible IP locator.
package geo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/okian/racketrank/pkg/metrics"
)

// maxBodyBytes caps how much of a provider response is read.
const maxBodyBytes = 1 << 20

// Address holds the provider fields mapped onto district, city and country.
// Empty means the provider did not report the field.
type Address struct {
	District string
	City     string
	Country  string
}

// getJSON performs a GET request and decodes a JSON body into dst.
func getJSON(ctx context.Context, hc *http.Client, rawURL, userAgent string, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodyBytes))
		return fmt.Errorf("%w: %d", ErrProviderStatus, resp.StatusCode)
	}

	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", ErrProviderDecode, err)
	}
	return nil
}

// recordCall classifies err into a provider outcome label.
func recordCall(provider string, start time.Time, err error) {
	outcome := metrics.OutcomeOK
	switch {
	case err == nil:
	case errors.Is(err, ErrRateLimited):
		outcome = metrics.OutcomeRateLimited
	case errors.Is(err, context.DeadlineExceeded):
		outcome = metrics.OutcomeTimeout
	default:
		outcome = metrics.OutcomeError
	}
	metrics.RecordProviderCall(provider, outcome, time.Since(start).Seconds())
}
