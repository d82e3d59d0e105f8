package dnsresolver

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"net/netip"
	"testing"

	"github.com/stretchr/testify/suite"
)

type staticResolver struct {
	addrs   map[string][]netip.Addr
	err     error
	network string
}

func (r *staticResolver) LookupNetIP(_ context.Context, network, host string) ([]netip.Addr, error) {
	r.network = network
	if r.err != nil {
		return nil, r.err
	}
	return r.addrs[host], nil
}

type DialerTestSuite struct {
	suite.Suite
	srv *httptest.Server
}

func (s *DialerTestSuite) SetupTest() {
	s.srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "203.0.113.5")
	}))
}

func (s *DialerTestSuite) TearDownTest() {
	s.srv.Close()
}

func (s *DialerTestSuite) port() string {
	_, port, err := net.SplitHostPort(s.srv.Listener.Addr().String())
	s.Require().NoError(err)
	return port
}

func (s *DialerTestSuite) TestPinnedClientUsesFamilyLookup() {
	r := &staticResolver{addrs: map[string][]netip.Addr{
		"ipv4.myip.test": {netip.MustParseAddr("127.0.0.1")},
	}}
	hc := PinnedHTTPClient("tcp4", r)

	resp, err := hc.Get("http://ipv4.myip.test:" + s.port() + "/ip")
	s.Require().NoError(err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	s.Require().NoError(err)
	s.Equal("203.0.113.5", string(body))
	s.Equal("ip4", r.network)
}

func (s *DialerTestSuite) TestNoAddressInFamily() {
	r := &staticResolver{addrs: map[string][]netip.Addr{}}
	d := NewDialer("tcp6", r)

	_, err := d.DialContext(context.Background(), "tcp", "ipv4only.myip.test:"+s.port())

	s.ErrorIs(err, ErrNoRecords)
	s.Equal("ip6", r.network)
}

func (s *DialerTestSuite) TestSkipsOtherFamilyAnswers() {
	r := &staticResolver{addrs: map[string][]netip.Addr{
		"mapped.myip.test": {netip.MustParseAddr("::ffff:127.0.0.1")},
	}}

	_, err := NewDialer("tcp6", r).DialContext(context.Background(), "tcp", "mapped.myip.test:"+s.port())
	s.ErrorIs(err, ErrNoRecords)

	r.addrs["v4.myip.test"] = []netip.Addr{netip.MustParseAddr("2001:db8::1"), netip.MustParseAddr("127.0.0.1")}

	conn, err := NewDialer("tcp4", r).DialContext(context.Background(), "tcp", "v4.myip.test:"+s.port())
	s.Require().NoError(err)
	s.NoError(conn.Close())
}

func (s *DialerTestSuite) TestLookupErrorPropagates() {
	r := &staticResolver{err: ErrEmptyMsg}
	d := NewDialer("tcp4", r)

	_, err := d.DialContext(context.Background(), "tcp", "myip.test:80")

	s.ErrorIs(err, ErrEmptyMsg)
}

func (s *DialerTestSuite) TestBadInput() {
	d := NewDialer("tcp4", &staticResolver{})

	_, err := d.DialContext(context.Background(), "tcp", "missing-port")
	s.Error(err)

	_, err = d.DialContext(context.Background(), "tcp", "myip.test:http")
	s.ErrorContains(err, "invalid port")

	_, err = NewDialer("udp", &staticResolver{}).DialContext(context.Background(), "tcp", "myip.test:80")
	s.ErrorIs(err, ErrUnknownNetwork)
}

func (s *DialerTestSuite) TestDefaultResolver() {
	d := NewDialer("tcp4", nil)
	s.Equal(net.DefaultResolver, d.Resolver)
}

func TestDialerSuite(t *testing.T) {
	suite.Run(t, new(DialerTestSuite))
}
