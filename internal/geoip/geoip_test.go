package geoip

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/suite"
)

const testDB = "testdata/country-test.mmdb"

type GeoIPTestSuite struct {
	suite.Suite
}

func (s *GeoIPTestSuite) TestCountry() {
	db, err := Open(testDB)
	s.Require().NoError(err)
	defer db.Close()
	s.Equal(testDB, db.Path())

	testCases := []struct {
		name     string
		ip       string
		expected string
		err      error
	}{
		{name: "found", ip: "81.2.69.142", expected: "GB"},
		{name: "trimmed input", ip: " 81.2.69.1\n", expected: "GB"},
		{name: "upper-cased", ip: "203.0.113.5", expected: "NL"},
		{name: "mapped IPv4", ip: "::ffff:203.0.113.5", expected: "NL"},
		{name: "not in database", ip: "8.8.8.8", err: ErrNotFound},
		{name: "record without country", ip: "198.51.100.7", err: ErrNotFound},
	}

	for _, tc := range testCases {
		s.Run(tc.name, func() {
			code, err := db.Country(tc.ip)
			if tc.err != nil {
				s.ErrorIs(err, tc.err)
				s.Empty(code)
				return
			}
			s.Require().NoError(err)
			s.Equal(tc.expected, code)
		})
	}
}

func (s *GeoIPTestSuite) TestCountryBadInput() {
	db, err := Open(testDB)
	s.Require().NoError(err)
	defer db.Close()

	_, err = db.Country("not-an-ip")
	s.ErrorContains(err, "invalid IP address")

	// The fixture is IPv4-only.
	_, err = db.Country("2001:db8::1")
	s.Error(err)
	s.NotErrorIs(err, ErrNotFound)

	s.Require().NoError(db.Close())
	_, err = db.Country("81.2.69.142")
	s.ErrorIs(err, ErrNotOpen)
}

func (s *GeoIPTestSuite) TestOpenErrors() {
	_, err := Open(" ")
	s.ErrorContains(err, "cannot be empty")

	_, err = Open(filepath.Join(s.T().TempDir(), "missing.mmdb"))
	s.ErrorContains(err, "failed to open geo database")

	junk := filepath.Join(s.T().TempDir(), "junk.mmdb")
	s.Require().NoError(os.WriteFile(junk, []byte("definitely not a maxmind database"), 0o600))
	_, err = Open(junk)
	s.Error(err)
}

func (s *GeoIPTestSuite) TestNilAndClosed() {
	var db *DB
	_, err := db.Country("203.0.113.5")
	s.ErrorIs(err, ErrNotOpen)
	s.NoError(db.Close())

	closed := &DB{path: "x.mmdb"}
	_, err = closed.Country("203.0.113.5")
	s.ErrorIs(err, ErrNotOpen)
	s.NoError(closed.Close())
	s.Equal("x.mmdb", closed.Path())
}

func TestGeoIPSuite(t *testing.T) {
	suite.Run(t, new(GeoIPTestSuite))
}
