package dnsresolver

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/netip"
	"strconv"

	"go.uber.org/multierr"
)

// Dialer connects to hosts over one address family only.
type Dialer struct {
	// Network is "tcp4" or "tcp6".
	Network  string
	Resolver NetIPResolver
	Dialer   *net.Dialer
}

// NewDialer returns a Dialer pinned to network ("tcp4" or "tcp6"). A nil
// resolver means net.DefaultResolver.
func NewDialer(network string, r NetIPResolver) *Dialer {
	if r == nil {
		r = net.DefaultResolver
	}
	return &Dialer{Network: network, Resolver: r, Dialer: &net.Dialer{}}
}

// DialContext resolves addr's host for the pinned family and tries each
// address in order. The network requested by the caller is ignored.
func (d *Dialer) DialContext(ctx context.Context, _, addr string) (net.Conn, error) {
	ipNet, err := lookupNetwork(d.Network)
	if err != nil {
		return nil, err
	}
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, err
	}
	port, err := strconv.ParseUint(portStr, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("invalid port %q: %w", portStr, err)
	}

	ips, err := d.Resolver.LookupNetIP(ctx, ipNet, host)
	if err != nil {
		return nil, err
	}

	var errs error
	for _, ip := range ips {
		// A mapped answer such as ::ffff:a.b.c.d is not reachable over tcp6.
		if !familyMatches(ipNet, ip) {
			continue
		}
		target := netip.AddrPortFrom(ip.Unmap(), uint16(port)).String()
		conn, err := d.Dialer.DialContext(ctx, d.Network, target)
		if err == nil {
			return conn, nil
		}
		errs = multierr.Append(errs, err)
		if ctx.Err() != nil {
			break
		}
	}
	if errs == nil {
		errs = fmt.Errorf("%w for %s over %s", ErrNoRecords, host, d.Network)
	}
	return nil, errs
}

// PinnedHTTPClient returns an HTTP client whose connections only use network
// ("tcp4" or "tcp6"). Keep-alives are disabled so every request observes the
// path it was asked about. Requests are bounded by their context, not a
// client-wide timeout.
func PinnedHTTPClient(network string, r NetIPResolver) *http.Client {
	tr := http.DefaultTransport.(*http.Transport).Clone()
	tr.DialContext = NewDialer(network, r).DialContext
	tr.DisableKeepAlives = true
	return &http.Client{Transport: tr}
}

func lookupNetwork(network string) (string, error) {
	switch network {
	case "tcp4":
		return "ip4", nil
	case "tcp6":
		return "ip6", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}
}
