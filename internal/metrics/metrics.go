// Package metrics exposes Prometheus counters for the address watcher.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	ChecksTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "myip_checks_total",
		Help: "Total number of address checks",
	})
	CheckFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "myip_check_failures_total",
		Help: "Checks that could not fetch the current address",
	})
	ChangesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "myip_changes_total",
		Help: "Detected address changes",
	})
	FetchDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "myip_fetch_duration_ms",
		Help:    "Address fetch duration in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000, 10000},
	})
	AlertsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "myip_alerts_total",
		Help: "Change alerts by channel and result",
	}, []string{"channel", "result"})
	LastCheckTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "myip_last_check_timestamp_seconds",
		Help: "Unix time of the last successful check",
	})
)

func init() {
	prometheus.MustRegister(ChecksTotal)
	prometheus.MustRegister(CheckFailuresTotal)
	prometheus.MustRegister(ChangesTotal)
	prometheus.MustRegister(FetchDurationMs)
	prometheus.MustRegister(AlertsTotal)
	prometheus.MustRegister(LastCheckTimestamp)
}

// AlertResult labels the outcome of one alert delivery.
func AlertResult(err error) string {
	if err != nil {
		return "failed"
	}
	return "sent"
}

func Handler() http.Handler { return promhttp.Handler() }
