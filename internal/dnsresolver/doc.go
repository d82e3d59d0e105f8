// Package dnsresolver resolves endpoint hostnames per address family.
//
// # Lookups
//
// Client queries explicit DNS servers with github.com/miekg/dns:
//
//	resolver := dnsresolver.New(5*time.Second,
//		dnsresolver.WithResolvers([]string{"1.1.1.1:53", "8.8.8.8:53"}),
//		dnsresolver.WithRetries(1),
//	)
//	v6, err := resolver.LookupNetIP(ctx, "ip6", "ipv6.myip.foo")
//
// The network argument follows net.Resolver.LookupNetIP: "ip4" asks for A
// records, "ip6" for AAAA, and "ip" for both. With "ip" both queries run
// concurrently; whatever succeeds is returned, and the errors are aggregated
// with go.uber.org/multierr only when every query fails.
//
// # Family-pinned dialing
//
// Dialer and PinnedHTTPClient connect over tcp4 or tcp6 only, using any
// NetIPResolver (a *Client, or net.DefaultResolver):
//
//	hc := dnsresolver.PinnedHTTPClient("tcp6", resolver)
//
// A hostname with no address in the pinned family fails to dial instead of
// silently falling back to the other family.
//
// # Errors
//   - ErrNoRecords: no records of the requested type
//   - ErrEmptyMsg: empty DNS response received
//   - ErrEmptyHostname: empty hostname provided
//   - ErrUnknownNetwork: network other than ip/ip4/ip6 (tcp4/tcp6 for dialing)
//   - ErrFamilyMismatch: an IP literal of the other family was requested
package dnsresolver
