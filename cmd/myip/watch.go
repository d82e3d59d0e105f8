package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/lc/myip/internal/filesys"
	"github.com/lc/myip/internal/log"
	"github.com/lc/myip/internal/metrics"
	"github.com/lc/myip/internal/monitor"
	"github.com/lc/myip/internal/notify"
)

func (a *app) watchCmd() *cobra.Command {
	var (
		once        bool
		interval    time.Duration
		metricsAddr string
	)
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Alert when your public IP address changes",
		Long: `Alert when your public IP address changes.

The last seen address is kept in monitor.cache_path. On a change every
configured channel is alerted (SLACK_WEBHOOK, DISCORD_WEBHOOK). With --once a
single check runs, which suits cron:

  */5 * * * * myip watch --once`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			mc := a.cfg.Monitor
			mon := monitor.New(
				a.apiClientTimeout(mc.FetchTimeout),
				monitor.NewCache(filesys.OS(), mc.CachePath),
				monitor.WithNotifiers(notify.Configured(mc.SlackWebhook, mc.DiscordWebhook, nil)...),
				monitor.WithFetchTimeout(mc.FetchTimeout),
			)
			w := cmd.OutOrStdout()
			ctx := cmd.Context()

			if once {
				rep, err := mon.Check(ctx)
				if perr := a.printReport(w, rep, err); perr != nil {
					return perr
				}
				if err != nil {
					return exitStatus(1)
				}
				return nil
			}

			if interval <= 0 {
				interval = mc.Interval
			}
			if metricsAddr != "" {
				stop := serveMetrics(metricsAddr)
				defer stop()
			}

			mon.Run(ctx, interval, func(rep monitor.Report, err error) {
				if perr := a.printReport(w, rep, err); perr != nil {
					log.Errorf("watch: printing report: %v", perr)
				}
			})

			st := mon.Stats()
			log.Infof("watch: %d checks, %d failures, %d changes, %d alerts sent, %d failed",
				st.Checks.Load(), st.Failures.Load(), st.Changes.Load(),
				st.AlertsSent.Load(), st.AlertsFailed.Load())
			return nil
		},
	}
	cmd.Flags().BoolVar(&once, "once", false, "run a single check and exit")
	cmd.Flags().DurationVar(&interval, "interval", 0, "time between checks (default monitor.interval)")
	cmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address, e.g. :9090")
	return cmd
}

func (a *app) printReport(w io.Writer, rep monitor.Report, err error) error {
	if a.jsonOut {
		return printJSON(w, toReportJSON(rep, err))
	}
	renderReport(w, rep, err)
	return nil
}

// serveMetrics exposes /metrics until the returned func is called.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Infof("watch: serving metrics on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Errorf("watch: metrics server: %v", err)
		}
	}()

	return func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Errorf("watch: metrics shutdown on %s: %v", addr, err)
		}
	}
}
