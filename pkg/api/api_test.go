package api_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/suite"

	"github.com/lc/myip/pkg/api"
)

type APITestSuite struct {
	suite.Suite
}

func (s *APITestSuite) TestDecodeIPRecord() {
	body := `{
		"ip": "203.0.113.5",
		"type": "IPv4",
		"hostname": "host.example.net",
		"connectionType": "residential",
		"location": {
			"country": "NL",
			"city": "Amsterdam",
			"region": "North Holland",
			"postalCode": "1012",
			"timezone": "Europe/Amsterdam",
			"latitude": "52.37400",
			"longitude": 4.88969
		},
		"network": {"asn": 1136, "isp": "KPN B.V."},
		"cloudflare": {"colo": "AMS", "ray": "8f1e2d3c4b5a6978-AMS"}
	}`

	var rec api.IPRecord
	s.Require().NoError(json.Unmarshal([]byte(body), &rec))

	s.Equal("203.0.113.5", rec.IP)
	s.Equal(api.TypeIPv4, rec.Type)
	s.Equal("host.example.net", rec.Hostname)
	s.Equal(api.Residential, rec.ConnectionType)
	s.Equal("Amsterdam, NL", rec.Location.Place())
	s.Equal(api.FlexString("52.37400"), rec.Location.Latitude)
	s.Equal(api.FlexString("4.88969"), rec.Location.Longitude)
	s.Equal("1136", rec.Network.ASN.String())
	s.Equal("KPN B.V.", rec.Network.ISP)
	s.Equal("AMS", rec.Cloudflare.Colo)
}

func (s *APITestSuite) TestDecodeConnectionInfo() {
	testCases := []struct {
		name     string
		body     string
		expected api.ConnectionInfo
	}{
		{
			name: "numeric asn",
			body: `{"ip":"198.51.100.7","connectionType":"datacenter","provider":"Hetzner","asn":24940}`,
			expected: api.ConnectionInfo{
				IP: "198.51.100.7", ConnectionType: api.Datacenter, Provider: "Hetzner", ASN: "24940",
			},
		},
		{
			name: "string asn",
			body: `{"ip":"198.51.100.7","connectionType":"vpn","provider":"Mullvad","asn":"AS39351"}`,
			expected: api.ConnectionInfo{
				IP: "198.51.100.7", ConnectionType: api.VPN, Provider: "Mullvad", ASN: "AS39351",
			},
		},
		{
			name:     "missing fields",
			body:     `{"ip":"198.51.100.7","asn":null}`,
			expected: api.ConnectionInfo{IP: "198.51.100.7"},
		},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			var got api.ConnectionInfo
			s.Require().NoError(json.Unmarshal([]byte(tc.body), &got))
			s.Equal(tc.expected, got)
		})
	}
}

func (s *APITestSuite) TestFlexStringRejectsObjects() {
	var f api.FlexString
	s.Error(json.Unmarshal([]byte(`{"n":1}`), &f))
}

func (s *APITestSuite) TestConnectionTypeExitCodes() {
	testCases := []struct {
		in       api.ConnectionType
		exitCode int
		label    string
	}{
		{in: api.Residential, exitCode: 0, label: "Residential"},
		{in: api.Datacenter, exitCode: 1, label: "Datacenter"},
		{in: api.VPN, exitCode: 2, label: "VPN"},
		{in: api.Tor, exitCode: 2, label: "Tor"},
		{in: "VPN ", exitCode: 2, label: "VPN"},
		{in: "", exitCode: 3, label: "Unknown"},
		{in: "satellite", exitCode: 3, label: "Unknown"},
	}

	for _, tc := range testCases {
		s.Run(string(tc.in), func() {
			s.Equal(tc.exitCode, tc.in.ExitCode())
			s.Equal(tc.label, tc.in.Label())
			s.NotEmpty(tc.in.Verdict())
		})
	}
}

func (s *APITestSuite) TestPlace() {
	s.Equal("Berlin, DE", api.Location{City: "Berlin", Country: "DE"}.Place())
	s.Equal("DE", api.Location{Country: "DE"}.Place())
	s.Equal("Berlin", api.Location{City: "Berlin"}.Place())
	s.Equal("", api.Location{}.Place())
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APITestSuite))
}
