// Package dualstack asks two single-stack endpoints for the caller's address,
// one reachable only over IPv4 and one only over IPv6, and merges the answers.
//
// Both requests run concurrently, each bounded by its own timeout. A failure
// on one side is recorded on that side's Lookup and never affects the other.
// Resolve does not return an error: an absent address is the failure signal,
// and callers that need a hard failure check AddressPair.Empty or
// AddressPair.Err.
package dualstack

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"

	"github.com/lc/myip/internal/log"
	"github.com/lc/myip/pkg/client"
)

const (
	// DefaultIPv4URL answers only over IPv4.
	DefaultIPv4URL = "https://ipv4.myip.foo/ip"
	// DefaultIPv6URL answers only over IPv6.
	DefaultIPv6URL = "https://ipv6.myip.foo/ip"
	// DefaultTimeout bounds each request individually.
	DefaultTimeout = 5 * time.Second
)

// Family is an IP address family.
type Family int

const (
	IPv4 Family = iota + 1
	IPv6
)

func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// Network returns the dial network pinned to the family.
func (f Family) Network() string {
	if f == IPv6 {
		return "tcp6"
	}
	return "tcp4"
}

// Lookup is the settled outcome of one single-stack request.
type Lookup struct {
	Family  Family
	Address string
	Err     error
	Elapsed time.Duration
}

// OK reports whether the lookup produced an address.
func (l Lookup) OK() bool {
	return l.Err == nil && l.Address != ""
}

// AddressPair holds one Lookup per family. Either, both or neither may be
// present.
type AddressPair struct {
	IPv4 Lookup
	IPv6 Lookup
}

// V4 returns the IPv4 address and whether it is present.
func (p AddressPair) V4() (string, bool) { return p.IPv4.Address, p.IPv4.OK() }

// V6 returns the IPv6 address and whether it is present.
func (p AddressPair) V6() (string, bool) { return p.IPv6.Address, p.IPv6.OK() }

// Empty reports whether neither address is present.
func (p AddressPair) Empty() bool {
	return !p.IPv4.OK() && !p.IPv6.OK()
}

// Err combines the errors of the failed lookups. It is nil when both
// succeeded.
func (p AddressPair) Err() error {
	return multierr.Combine(p.IPv4.Err, p.IPv6.Err)
}

// MarshalJSON encodes an absent address as null, never as "".
func (p AddressPair) MarshalJSON() ([]byte, error) {
	out := struct {
		IPv4 *string `json:"ipv4"`
		IPv6 *string `json:"ipv6"`
	}{}
	if v, ok := p.V4(); ok {
		out.IPv4 = &v
	}
	if v, ok := p.V6(); ok {
		out.IPv6 = &v
	}
	return json.Marshal(out)
}

// Getter fetches a plain-text body. *client.Client satisfies it.
type Getter interface {
	Text(ctx context.Context, rawURL string) (string, error)
}

var _ Getter = (*client.Client)(nil)

// Resolver resolves the caller's IPv4 and IPv6 addresses.
type Resolver struct {
	ipv4URL string
	ipv6URL string
	timeout time.Duration
	ipv4    Getter
	ipv6    Getter
}

// Opt is a function option for configuring the Resolver.
type Opt func(r *Resolver)

// New returns a Resolver using the public endpoints, a 5s per-request timeout
// and the default HTTP client for both families.
func New(opts ...Opt) *Resolver {
	r := &Resolver{
		ipv4URL: DefaultIPv4URL,
		ipv6URL: DefaultIPv6URL,
		timeout: DefaultTimeout,
	}
	for _, o := range opts {
		o(r)
	}
	if r.ipv4 == nil {
		r.ipv4 = client.New("")
	}
	if r.ipv6 == nil {
		r.ipv6 = client.New("")
	}
	return r
}

// WithEndpoints sets the single-stack endpoint URLs. Empty values keep the
// defaults.
func WithEndpoints(ipv4URL, ipv6URL string) Opt {
	return func(r *Resolver) {
		if ipv4URL != "" {
			r.ipv4URL = ipv4URL
		}
		if ipv6URL != "" {
			r.ipv6URL = ipv6URL
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Opt {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

// WithGetters sets the client used for each family, typically HTTP clients
// pinned to tcp4 and tcp6. A nil getter keeps the default.
func WithGetters(ipv4, ipv6 Getter) Opt {
	return func(r *Resolver) {
		r.ipv4 = ipv4
		r.ipv6 = ipv6
	}
}

// Resolve queries both endpoints concurrently and returns once both have
// settled. Each request is cancelled after the configured timeout without
// affecting the other. Cancelling ctx cancels both.
func (r *Resolver) Resolve(ctx context.Context) AddressPair {
	var (
		grp  errgroup.Group
		pair AddressPair
	)

	// Each goroutine owns one field of pair; Wait orders both writes before
	// the return.
	grp.Go(func() error {
		pair.IPv4 = r.fetch(ctx, IPv4, r.ipv4, r.ipv4URL)
		return nil
	})
	grp.Go(func() error {
		pair.IPv6 = r.fetch(ctx, IPv6, r.ipv6, r.ipv6URL)
		return nil
	})
	_ = grp.Wait()

	if pair.Empty() {
		log.Warnf("dualstack: no address for either family: %v", pair.Err())
	}
	return pair
}

func (r *Resolver) fetch(ctx context.Context, fam Family, g Getter, rawURL string) Lookup {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	addr, err := g.Text(ctx, rawURL)
	l := Lookup{Family: fam, Elapsed: time.Since(start)}
	addr = strings.TrimSpace(addr)
	if err == nil && addr == "" {
		err = client.ErrEmptyBody
	}
	if err != nil {
		l.Err = fmt.Errorf("%s lookup via %s: %w", fam, rawURL, err)
		log.Debugf("dualstack: %v (after %s)", l.Err, l.Elapsed)
		return l
	}

	l.Address = addr
	log.Debugf("dualstack: %s is %s (%s)", fam, addr, l.Elapsed)
	return l
}
