// Package geoip answers "which country is this address in" from a local
// MaxMind database (GeoLite2-Country or GeoLite2-City).
package geoip

import (
	"errors"
	"fmt"
	"net/netip"
	"strings"

	"github.com/oschwald/maxminddb-golang/v2"
)

var (
	// ErrNotOpen is returned by lookups on a nil or closed DB.
	ErrNotOpen = errors.New("geoip database is not open")
	// ErrNotFound is returned when the address has no country record.
	ErrNotFound = errors.New("address not found in geoip database")
)

// CountryLookup resolves an address to an ISO 3166-1 alpha-2 country code.
type CountryLookup interface {
	Country(ip string) (string, error)
}

var _ CountryLookup = (*DB)(nil)

// DB is a read-only MaxMind database.
type DB struct {
	r    *maxminddb.Reader
	path string
}

// Open memory-maps the database at path.
func Open(path string) (*DB, error) {
	if strings.TrimSpace(path) == "" {
		return nil, errors.New("geoip database path cannot be empty")
	}
	r, err := maxminddb.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open geo database %s: %w", path, err)
	}
	return &DB{r: r, path: path}, nil
}

// Path returns the file the database was opened from.
func (d *DB) Path() string { return d.path }

// Country returns the upper-case ISO country code for ip.
func (d *DB) Country(ip string) (string, error) {
	if d == nil || d.r == nil {
		return "", ErrNotOpen
	}
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil {
		return "", fmt.Errorf("invalid IP address: %q", ip)
	}

	res := d.r.Lookup(addr.Unmap())
	if err := res.Err(); err != nil {
		return "", fmt.Errorf("geoip lookup for %s: %w", addr, err)
	}
	if !res.Found() {
		return "", fmt.Errorf("%w: %s", ErrNotFound, addr)
	}

	var code string
	if err := res.DecodePath(&code, "country", "iso_code"); err != nil {
		return "", fmt.Errorf("geoip decode for %s: %w", addr, err)
	}
	if code == "" {
		return "", fmt.Errorf("%w: %s has no country", ErrNotFound, addr)
	}
	return strings.ToUpper(code), nil
}

// Close unmaps the database. Lookups after Close return ErrNotOpen.
func (d *DB) Close() error {
	if d == nil || d.r == nil {
		return nil
	}
	err := d.r.Close()
	d.r = nil
	return err
}
