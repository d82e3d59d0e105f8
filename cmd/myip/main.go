// Command `myip` is a client for the myip.foo "what is my IP" API.
//
// Usage:
//
//	myip lookup                 - Full record: address, location, network, edge
//	myip plain                  - Just the address
//	myip connection-type        - Residential/VPN/datacenter/Tor classification
//	myip dual-stack             - IPv4 and IPv6 addresses, checked independently
//	myip vpn-check [country]    - Verify traffic leaves through a country (default US)
//	myip watch [--once]         - Alert on Slack/Discord when the address changes
//
// Exit codes: connection-type exits 0 residential, 1 datacenter, 2 VPN or Tor,
// 3 unknown and 99 on error. vpn-check exits 0 when connected. dual-stack exits
// 1 only when neither family answered.
//
// Configuration is read from ~/.myip/config.yaml; SLACK_WEBHOOK,
// DISCORD_WEBHOOK, MYIP_API_URL and MYIP_GEOIP_DB override it, and a .env
// file in the working directory is loaded first.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/lc/myip/internal/buildinfo"
	"github.com/lc/myip/internal/config"
	"github.com/lc/myip/internal/dnsresolver"
	"github.com/lc/myip/internal/dualstack"
	"github.com/lc/myip/internal/filesys"
	"github.com/lc/myip/internal/log"
	"github.com/lc/myip/pkg/client"
)

// exitStatus ends the process with a specific code without printing an error.
type exitStatus int

func (e exitStatus) Error() string { return fmt.Sprintf("exit status %d", int(e)) }

type app struct {
	cfgPath  string
	logLevel string
	jsonOut  bool

	cfg *config.Config
}

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a := &app{}
	root := a.rootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)

	err := root.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	var st exitStatus
	if errors.As(err, &st) {
		return int(st)
	}
	color.New(color.FgRed).Fprintf(stderr, "❌ Error: %v\n", err)
	return 1
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "myip",
		Short: "myip.foo API client",
		Long: `myip queries the myip.foo API for your public IP address, its location
and network, and how the connection is classified (residential, VPN,
datacenter or Tor).`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			return a.setup()
		},
	}
	root.PersistentFlags().StringVar(&a.cfgPath, "config", "", "config file (default ~/.myip/config.yaml)")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	root.PersistentFlags().BoolVar(&a.jsonOut, "json", false, "print results as JSON")

	root.AddCommand(
		a.lookupCmd(),
		a.plainCmd(),
		a.connectionTypeCmd(),
		a.dualStackCmd(),
		a.vpnCheckCmd(),
		a.watchCmd(),
		versionCmd(),
	)
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		// version works without a readable config.
		PersistentPreRun: func(*cobra.Command, []string) {},
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "version: %s\n", buildinfo.Version)
			fmt.Fprintf(cmd.OutOrStdout(), "commit: %s\n", buildinfo.Commit)
		},
	}
}

func (a *app) setup() error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.Warnf("loading .env: %v", err)
	}
	if a.logLevel != "" {
		if err := log.SetLevel(a.logLevel); err != nil {
			return err
		}
	}

	p := config.New()
	if a.cfgPath != "" {
		p = config.NewWithPath(filesys.OS(), a.cfgPath)
	}
	cfg, err := p.Load()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	a.cfg = cfg
	return nil
}

// ---- clients ----

func (a *app) apiClient() *client.Client {
	return a.apiClientTimeout(a.cfg.API.Timeout)
}

// apiClientTimeout is apiClient with its own request timeout.
func (a *app) apiClientTimeout(d time.Duration) *client.Client {
	return client.New(a.cfg.API.BaseURL,
		client.WithHTTPClient(&http.Client{Timeout: d}),
	)
}

func (a *app) dualStack() *dualstack.Resolver {
	ds := a.cfg.DualStack
	opts := []dualstack.Opt{
		dualstack.WithEndpoints(ds.IPv4URL, ds.IPv6URL),
		dualstack.WithTimeout(ds.Timeout),
	}
	if ds.PinFamily {
		r := a.netResolver()
		opts = append(opts, dualstack.WithGetters(
			client.New("", client.WithHTTPClient(dnsresolver.PinnedHTTPClient(dualstack.IPv4.Network(), r))),
			client.New("", client.WithHTTPClient(dnsresolver.PinnedHTTPClient(dualstack.IPv6.Network(), r))),
		))
	}
	return dualstack.New(opts...)
}

// netResolver uses the system resolver unless DNS servers are configured.
func (a *app) netResolver() dnsresolver.NetIPResolver {
	if len(a.cfg.DNS.Resolvers) == 0 {
		return net.DefaultResolver
	}
	return dnsresolver.New(a.cfg.DNS.Timeout,
		dnsresolver.WithResolvers(a.cfg.DNS.Resolvers),
		dnsresolver.WithRetries(a.cfg.DNS.Retries),
	)
}
