package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/lc/myip/pkg/api"
)

func (a *app) lookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup",
		Short: "Show your IP address with location and network details",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rec, err := a.apiClient().Lookup(cmd.Context())
			if err != nil {
				return fmt.Errorf("fetching IP info: %w", err)
			}
			w := cmd.OutOrStdout()
			if a.jsonOut {
				return printJSON(w, rec)
			}
			renderRecord(w, rec)
			return nil
		},
	}
}

func (a *app) plainCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "plain",
		Short: "Print only your IP address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ip, err := a.apiClient().Plain(cmd.Context())
			if err != nil {
				return err
			}
			if a.jsonOut {
				return printJSON(cmd.OutOrStdout(), map[string]string{"ip": ip})
			}
			fmt.Fprintln(cmd.OutOrStdout(), ip)
			return nil
		},
	}
}

func (a *app) connectionTypeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "connection-type",
		Aliases: []string{"conn"},
		Short:   "Detect whether the connection is residential, VPN, datacenter or Tor",
		Long: `Detect whether the connection is residential, VPN, datacenter or Tor.

Exit codes:
  0   residential
  1   datacenter
  2   VPN/proxy or Tor (older myip scripts exited 3 for Tor)
  3   unknown
  99  the classification could not be fetched`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			info, err := a.apiClient().ConnectionType(cmd.Context())
			if err != nil {
				color.New(color.FgRed).Fprintf(cmd.ErrOrStderr(), "❌ Error: %v\n", err)
				return exitStatus(api.ExitCodeError)
			}
			w := cmd.OutOrStdout()
			if a.jsonOut {
				if err := printJSON(w, info); err != nil {
					return err
				}
			} else {
				renderConnection(w, info)
			}
			if code := info.ConnectionType.ExitCode(); code != 0 {
				return exitStatus(code)
			}
			return nil
		},
	}
}
