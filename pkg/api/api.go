// Package api holds the wire types returned by the myip.foo API.
// Values are decoded verbatim and otherwise unvalidated; the service is the
// authority on geolocation, ASN and connection classification.
package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// Address families reported in IPRecord.Type.
const (
	TypeIPv4 = "IPv4"
	TypeIPv6 = "IPv6"
)

// IPRecord is the response of GET /api.
type IPRecord struct {
	IP             string         `json:"ip"`
	Type           string         `json:"type"`
	Hostname       string         `json:"hostname,omitempty"`
	ConnectionType ConnectionType `json:"connectionType,omitempty"`
	Location       Location       `json:"location"`
	Network        Network        `json:"network"`
	Cloudflare     Cloudflare     `json:"cloudflare"`
}

// Location is the service's geolocation of the caller's address.
type Location struct {
	Country    string     `json:"country"`
	City       string     `json:"city"`
	Region     string     `json:"region"`
	PostalCode string     `json:"postalCode"`
	Timezone   string     `json:"timezone"`
	Latitude   FlexString `json:"latitude"`
	Longitude  FlexString `json:"longitude"`
}

// Place renders "city, country" the way the console output and alerts show it.
func (l Location) Place() string {
	switch {
	case l.City == "":
		return l.Country
	case l.Country == "":
		return l.City
	}
	return l.City + ", " + l.Country
}

// Network describes the autonomous system announcing the address.
type Network struct {
	ASN FlexString `json:"asn"`
	ISP string     `json:"isp"`
}

// Cloudflare identifies the edge location that served the request.
type Cloudflare struct {
	Colo string `json:"colo"`
	Ray  string `json:"ray"`
}

// ConnectionInfo is the response of GET /api/connection-type.
type ConnectionInfo struct {
	IP             string         `json:"ip"`
	ConnectionType ConnectionType `json:"connectionType"`
	Provider       string         `json:"provider"`
	ASN            FlexString     `json:"asn"`
}

// FlexString accepts a JSON string or number. The service reports ASNs and
// coordinates as either, depending on the endpoint.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case bytes.Equal(b, []byte("null")):
		*f = ""
		return nil
	case len(b) > 0 && b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*f = FlexString(n.String())
	return nil
}

// String returns the raw value.
func (f FlexString) String() string { return string(f) }

// ConnectionType is the service's best-effort classification of where a
// request came from.
type ConnectionType string

// Known connection classifications.
const (
	Residential ConnectionType = "residential"
	VPN         ConnectionType = "vpn"
	Datacenter  ConnectionType = "datacenter"
	Tor         ConnectionType = "tor"
	Unknown     ConnectionType = "unknown"
)

// ExitCodeError is the process exit code used when the classification could
// not be fetched at all.
const ExitCodeError = 99

// Normalize maps empty and unrecognised values to Unknown.
func (c ConnectionType) Normalize() ConnectionType {
	switch v := ConnectionType(strings.ToLower(strings.TrimSpace(string(c)))); v {
	case Residential, VPN, Datacenter, Tor:
		return v
	default:
		return Unknown
	}
}

// ExitCode is the process exit status scripts branch on.
func (c ConnectionType) ExitCode() int {
	switch c.Normalize() {
	case Residential:
		return 0
	case Datacenter:
		return 1
	case VPN, Tor:
		return 2
	default:
		return 3
	}
}

// Verdict is the one-line human summary of the classification.
func (c ConnectionType) Verdict() string {
	switch c.Normalize() {
	case Residential:
		return "Residential connection (likely home/mobile ISP)"
	case Datacenter:
		return "Datacenter connection (hosting provider/VPS)"
	case VPN:
		return "VPN/Proxy detected"
	case Tor:
		return "Tor exit node detected"
	default:
		return "Connection type unknown"
	}
}

// Label is the short form used in summaries.
func (c ConnectionType) Label() string {
	switch c.Normalize() {
	case Residential:
		return "Residential"
	case VPN:
		return "VPN"
	case Datacenter:
		return "Datacenter"
	case Tor:
		return "Tor"
	default:
		return "Unknown"
	}
}
