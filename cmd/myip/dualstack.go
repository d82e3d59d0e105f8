package main

import (
	"github.com/spf13/cobra"

	"github.com/lc/myip/internal/dualstack"
	"github.com/lc/myip/internal/log"
	"github.com/lc/myip/pkg/api"
)

func (a *app) dualStackCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dual-stack",
		Short: "Check IPv4 and IPv6 connectivity independently",
		Long: `Check IPv4 and IPv6 connectivity independently.

Both families are asked concurrently through endpoints that only answer over
one of them, so a dual-stack browser-style preference cannot hide either
address. Exits 1 only when neither family answered.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			pair := a.dualStack().Resolve(ctx)

			var info *api.IPRecord
			if rec, err := a.apiClient().Lookup(ctx); err != nil {
				log.Debugf("dual-stack: full info unavailable: %v", err)
			} else {
				info = &rec
			}

			w := cmd.OutOrStdout()
			if a.jsonOut {
				err := printJSON(w, struct {
					Addresses dualstack.AddressPair `json:"addresses"`
					Info      *api.IPRecord         `json:"info"`
				}{pair, info})
				if err != nil {
					return err
				}
			} else {
				renderDualStack(w, pair, info)
			}

			if pair.Empty() {
				return exitStatus(1)
			}
			return nil
		},
	}
}
