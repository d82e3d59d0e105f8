package dnsresolver

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"net/netip"
	"strings"
	"sync"
	"time"

	"github.com/miekg/dns"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrNoRecords is returned when no DNS records are found for a hostname.
	ErrNoRecords = errors.New("no records found")
	// ErrEmptyMsg is returned when the DNS response message is empty.
	ErrEmptyMsg = errors.New("empty message")
	// ErrEmptyHostname is returned when an empty hostname is provided.
	ErrEmptyHostname = errors.New("empty hostname")
	// ErrUnknownNetwork is returned for networks other than ip, ip4 and ip6.
	ErrUnknownNetwork = errors.New("unknown network")
	// ErrFamilyMismatch is returned when an IP literal does not belong to
	// the requested family.
	ErrFamilyMismatch = errors.New("address family mismatch")
)

var _defaultResolver = "1.1.1.1:53"

var (
	_ NetIPResolver = (*Client)(nil)
)

// NetIPResolver is the lookup surface shared by *Client and *net.Resolver.
type NetIPResolver interface {
	// LookupNetIP resolves host for network "ip", "ip4" or "ip6".
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// Exchanger defines the interface for DNS message exchange.
type Exchanger interface {
	ExchangeContext(ctx context.Context, m *dns.Msg, a string) (r *dns.Msg, rtt time.Duration, err error)
}

// Client resolves hostnames against explicit DNS servers.
type Client struct {
	Client    Exchanger
	Timeout   time.Duration
	Resolvers []string
	Retries   uint

	mu sync.Mutex
}

// Opt is a function option for configuring the Client.
type Opt func(r *Client)

// New creates a new Client with the given timeout and optional configurations.
func New(timeout time.Duration, opts ...Opt) *Client {
	res := &Client{
		Client: &dns.Client{
			Timeout: timeout,
		},
		Timeout: timeout,
	}

	for _, o := range opts {
		o(res)
	}

	return res
}

// WithResolvers returns an option to set custom DNS resolvers.
// If not provided, the default resolver (1.1.1.1:53) will be used.
func WithResolvers(resolvers []string) Opt {
	return func(r *Client) {
		r.Resolvers = resolvers
	}
}

// WithTimeout returns an option to set a custom timeout for DNS queries.
// This overrides the timeout provided to New.
func WithTimeout(timeout time.Duration) Opt {
	return func(r *Client) {
		r.Timeout = timeout
	}
}

// WithRetries sets how many extra attempts each query gets.
func WithRetries(n uint) Opt {
	return func(r *Client) {
		r.Retries = n
	}
}

// LookupNetIP resolves host to addresses of the given network: "ip4" asks
// for A records, "ip6" for AAAA, "ip" for both concurrently. IP literals are
// returned as-is if they match the family.
func (r *Client) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	qtypes, err := qtypesFor(network)
	if err != nil {
		return nil, err
	}

	host = strings.TrimSpace(host)
	if host == "" {
		return nil, ErrEmptyHostname
	}

	// if host is an IP, return it as is.
	if ip, err := netip.ParseAddr(strings.Trim(host, "[]")); err == nil {
		if !familyMatches(network, ip) {
			return nil, fmt.Errorf("%w: %s is not %s", ErrFamilyMismatch, ip, network)
		}
		return []netip.Addr{ip}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	return r.lookupIPs(ctx, host, qtypes)
}

// lookupIPs resolves every qtype concurrently.
// It returns every address that succeeded, or an aggregated
// error if *all* queries fail.
func (r *Client) lookupIPs(ctx context.Context, host string, qtypes []uint16) ([]netip.Addr, error) {
	var (
		grp  errgroup.Group
		ips  []netip.Addr
		errs error
	)

	for _, qt := range qtypes {
		grp.Go(func() error {
			addrs, err := r.lookup(ctx, host, qt)
			r.mu.Lock()
			defer r.mu.Unlock()

			if err != nil {
				errs = multierr.Append(errs, err) // collect but don't cancel peer
				return nil
			}
			ips = append(ips, addrs...)
			return nil
		})
	}
	_ = grp.Wait()

	if len(ips) == 0 {
		return nil, fmt.Errorf("dns lookup for %q: %w", host, errs)
	}
	return ips, nil
}

// lookup resolves qtype (A or AAAA) for host and returns the parsed
// answers. It retries r.Retries additional times before giving up.
func (r *Client) lookup(ctx context.Context, host string, qtype uint16) ([]netip.Addr, error) {
	var lastErr error
	for attempt := uint(0); attempt <= r.Retries; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// Fresh request each attempt: ExchangeContext mutates *dns.Msg
		req := &dns.Msg{}
		req.SetQuestion(dns.Fqdn(host), qtype)

		resp, _, err := r.Client.ExchangeContext(ctx, req, r.getResolver())
		if err != nil {
			lastErr = err
			continue
		}
		if resp == nil {
			return nil, ErrEmptyMsg
		}

		ips, err := parseIPs(resp, qtype)
		if err != nil {
			lastErr = err
			continue
		}
		return ips, nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("dns lookup failed for %q", host)
	}
	return nil, lastErr
}

// parseIPs extracts the answers matching qtype. CNAME chains are followed by
// the recursive server, so only the final A/AAAA records matter here.
func parseIPs(resp *dns.Msg, qtype uint16) ([]netip.Addr, error) {
	if resp == nil {
		return nil, ErrEmptyMsg
	}

	var ips []netip.Addr
	for _, rr := range resp.Answer {
		switch record := rr.(type) {
		case *dns.A:
			if qtype != dns.TypeA {
				continue
			}
			if ip, ok := netip.AddrFromSlice(record.A.To4()); ok {
				ips = append(ips, ip)
			}
		case *dns.AAAA:
			if qtype != dns.TypeAAAA {
				continue
			}
			if ip, ok := netip.AddrFromSlice(record.AAAA.To16()); ok {
				ips = append(ips, ip)
			}
		}
	}

	if len(ips) == 0 {
		return nil, ErrNoRecords
	}

	return ips, nil
}

// getResolver returns a random resolver from the list of resolvers.
func (r *Client) getResolver() string {
	if len(r.Resolvers) == 0 {
		return _defaultResolver
	}

	n, err := rand.Int(rand.Reader, big.NewInt(int64(len(r.Resolvers))))
	if err != nil {
		return r.Resolvers[0]
	}

	return r.Resolvers[n.Int64()]
}

func qtypesFor(network string) ([]uint16, error) {
	switch network {
	case "ip4":
		return []uint16{dns.TypeA}, nil
	case "ip6":
		return []uint16{dns.TypeAAAA}, nil
	case "ip":
		return []uint16{dns.TypeA, dns.TypeAAAA}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownNetwork, network)
	}
}

func familyMatches(network string, ip netip.Addr) bool {
	switch network {
	case "ip4":
		return ip.Is4() || ip.Is4In6()
	case "ip6":
		return ip.Is6() && !ip.Is4In6()
	default:
		return true
	}
}
