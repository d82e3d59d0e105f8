// Package vpncheck verifies that the caller's traffic leaves through the
// expected country, which is how a VPN connection is usually confirmed.
package vpncheck

import (
	"context"
	"fmt"
	"strings"

	"github.com/lc/myip/internal/geoip"
	"github.com/lc/myip/internal/log"
	"github.com/lc/myip/pkg/api"
)

// DefaultCountry is checked when no country is given.
const DefaultCountry = "US"

// Fetcher returns the caller's current record. *client.Client satisfies it.
type Fetcher interface {
	Lookup(ctx context.Context) (api.IPRecord, error)
}

// Result is the outcome of a check.
type Result struct {
	Expected  string       `json:"expected"`
	Record    api.IPRecord `json:"record"`
	Connected bool         `json:"connected"`
	// Local is set when an offline database was consulted successfully.
	Local *LocalCheck `json:"local,omitempty"`
}

// LocalCheck is what the local geoip database says about the same address.
type LocalCheck struct {
	Country string `json:"country"`
	// Agrees reports whether the local country matches the service's.
	Agrees bool `json:"agrees"`
}

// Checker compares the service's location against an expected country.
type Checker struct {
	fetcher Fetcher
	geo     geoip.CountryLookup
}

// New returns a Checker. geo may be nil to skip the offline cross-check.
func New(f Fetcher, geo geoip.CountryLookup) *Checker {
	return &Checker{fetcher: f, geo: geo}
}

// Check fetches the current record and reports whether its country equals
// expected, ignoring case. An empty expected means DefaultCountry.
func (c *Checker) Check(ctx context.Context, expected string) (Result, error) {
	expected = NormalizeCountry(expected)
	res := Result{Expected: expected}

	rec, err := c.fetcher.Lookup(ctx)
	if err != nil {
		return res, fmt.Errorf("checking VPN status: %w", err)
	}
	res.Record = rec
	res.Connected = strings.EqualFold(strings.TrimSpace(rec.Location.Country), expected)

	if c.geo != nil && rec.IP != "" {
		country, err := c.geo.Country(rec.IP)
		if err != nil {
			log.Warnf("vpncheck: local geoip lookup for %s failed: %v", rec.IP, err)
			return res, nil
		}
		res.Local = &LocalCheck{
			Country: country,
			Agrees:  strings.EqualFold(country, rec.Location.Country),
		}
	}
	return res, nil
}

// NormalizeCountry upper-cases an ISO country code, defaulting to
// DefaultCountry.
func NormalizeCountry(code string) string {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return DefaultCountry
	}
	return code
}
