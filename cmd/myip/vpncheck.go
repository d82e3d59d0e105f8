package main

import (
	"github.com/spf13/cobra"

	"github.com/lc/myip/internal/geoip"
	"github.com/lc/myip/internal/log"
	"github.com/lc/myip/internal/vpncheck"
)

func (a *app) vpnCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "vpn-check [country]",
		Short: "Verify the connection exits through the expected country",
		Long: `Verify the connection exits through the expected country.

The country is an ISO 3166-1 alpha-2 code and defaults to US. When a MaxMind
database is configured (geoip.database or MYIP_GEOIP_DB) the reported address
is also looked up locally. Exits 0 when connected, 1 otherwise.`,
		Example: "myip vpn-check NL",
		Args:    cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			expected := vpncheck.DefaultCountry
			if len(args) == 1 {
				expected = args[0]
			}

			var geo geoip.CountryLookup
			if path := a.cfg.GeoIP.Database; path != "" {
				db, err := geoip.Open(path)
				if err != nil {
					log.Warnf("vpn-check: skipping local lookup: %v", err)
				} else {
					defer db.Close()
					geo = db
				}
			}

			res, err := vpncheck.New(a.apiClient(), geo).Check(cmd.Context(), expected)
			if err != nil {
				return err
			}

			w := cmd.OutOrStdout()
			if a.jsonOut {
				if err := printJSON(w, res); err != nil {
					return err
				}
			} else {
				renderVPNCheck(w, res)
			}
			if !res.Connected {
				return exitStatus(1)
			}
			return nil
		},
	}
}
