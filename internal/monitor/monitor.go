// Package monitor watches the caller's public address and alerts when it
// changes. The last seen record is kept in a small cache file so a check run
// from cron behaves the same as the long-running watch loop.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"

	"github.com/lc/myip/internal/log"
	"github.com/lc/myip/internal/metrics"
	"github.com/lc/myip/internal/notify"
	"github.com/lc/myip/pkg/api"
)

// DefaultFetchTimeout bounds fetching the current record.
const DefaultFetchTimeout = 10 * time.Second

// ErrNoAddress is returned when the service answers without an address.
var ErrNoAddress = errors.New("response has no ip")

// Status classifies a successful check.
type Status int

const (
	// StatusInitial means there was no previous record to compare with.
	StatusInitial Status = iota + 1
	StatusUnchanged
	StatusChanged
)

func (s Status) String() string {
	switch s {
	case StatusInitial:
		return "initial"
	case StatusUnchanged:
		return "unchanged"
	case StatusChanged:
		return "changed"
	default:
		return "unknown"
	}
}

// Fetcher returns the caller's current record. *client.Client satisfies it.
type Fetcher interface {
	Lookup(ctx context.Context) (api.IPRecord, error)
}

// Report is the result of one check.
type Report struct {
	RunID     string
	Status    Status
	Previous  string
	Current   api.IPRecord
	Alerts    notify.Outcomes
	CheckedAt time.Time
	Elapsed   time.Duration
	// CacheErr is set when the new record could not be saved.
	CacheErr error
}

// Stats counts what the monitor has done since it was created.
type Stats struct {
	Checks       atomic.Int64
	Failures     atomic.Int64
	Changes      atomic.Int64
	AlertsSent   atomic.Int64
	AlertsFailed atomic.Int64
}

// Monitor compares the current address with the cached one.
type Monitor struct {
	fetcher      Fetcher
	cache        *Cache
	notifiers    []notify.Notifier
	fetchTimeout time.Duration
	now          func() time.Time

	stats Stats
}

// Opt is a function option for configuring the Monitor.
type Opt func(m *Monitor)

// New returns a Monitor reading the current record from f and remembering it
// in cache.
func New(f Fetcher, cache *Cache, opts ...Opt) *Monitor {
	m := &Monitor{
		fetcher:      f,
		cache:        cache,
		fetchTimeout: DefaultFetchTimeout,
		now:          time.Now,
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// WithNotifiers sets the channels alerted on a change.
func WithNotifiers(ns ...notify.Notifier) Opt {
	return func(m *Monitor) {
		m.notifiers = ns
	}
}

// WithFetchTimeout bounds fetching the current record.
func WithFetchTimeout(d time.Duration) Opt {
	return func(m *Monitor) {
		if d > 0 {
			m.fetchTimeout = d
		}
	}
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Opt {
	return func(m *Monitor) {
		m.now = now
	}
}

// Stats returns the live counters.
func (m *Monitor) Stats() *Stats { return &m.stats }

// Check fetches the current record and compares it with the cached one. On
// a change every notifier is alerted. After a successful fetch the current
// record always replaces the cache; a failed fetch leaves it untouched.
func (m *Monitor) Check(ctx context.Context) (Report, error) {
	rep := Report{RunID: uuid.NewString(), CheckedAt: m.now()}
	m.stats.Checks.Inc()
	metrics.ChecksTotal.Inc()

	start := time.Now()
	fctx, cancel := context.WithTimeout(ctx, m.fetchTimeout)
	rec, err := m.fetcher.Lookup(fctx)
	cancel()
	rep.Elapsed = time.Since(start)
	metrics.FetchDurationMs.Observe(float64(rep.Elapsed.Milliseconds()))

	if err == nil && rec.IP == "" {
		err = ErrNoAddress
	}
	if err != nil {
		m.stats.Failures.Inc()
		metrics.CheckFailuresTotal.Inc()
		log.Warnf("monitor[%s]: failed to fetch IP: %v", rep.RunID, err)
		return rep, fmt.Errorf("fetching current address: %w", err)
	}
	rep.Current = rec

	prev, ok := m.cache.Load()
	switch {
	case !ok:
		rep.Status = StatusInitial
		log.Infof("monitor[%s]: initial IP recorded: %s", rep.RunID, rec.IP)
	case prev.IP == rec.IP:
		rep.Status = StatusUnchanged
		rep.Previous = prev.IP
		log.Debugf("monitor[%s]: IP unchanged: %s", rep.RunID, rec.IP)
	default:
		rep.Status = StatusChanged
		rep.Previous = prev.IP
		m.stats.Changes.Inc()
		metrics.ChangesTotal.Inc()
		log.Infof("monitor[%s]: IP changed: %s -> %s", rep.RunID, prev.IP, rec.IP)
		rep.Alerts = m.alert(ctx, notify.Change{
			Previous:   prev.IP,
			Current:    rec,
			DetectedAt: rep.CheckedAt,
		})
	}

	if err := m.cache.Save(rec); err != nil {
		rep.CacheErr = err
		log.Errorf("monitor[%s]: saving cache: %v", rep.RunID, err)
	}
	metrics.LastCheckTimestamp.Set(float64(rep.CheckedAt.Unix()))
	return rep, nil
}

func (m *Monitor) alert(ctx context.Context, ch notify.Change) notify.Outcomes {
	if len(m.notifiers) == 0 {
		return nil
	}
	out := notify.Fanout(ctx, ch, m.notifiers...)
	for _, o := range out {
		if o.Err != nil {
			m.stats.AlertsFailed.Inc()
		} else {
			m.stats.AlertsSent.Inc()
		}
		metrics.AlertsTotal.WithLabelValues(o.Channel, metrics.AlertResult(o.Err)).Inc()
	}
	return out
}

// Run checks immediately and then every interval until ctx is done. Each
// result is handed to fn, which may be nil.
func (m *Monitor) Run(ctx context.Context, interval time.Duration, fn func(Report, error)) {
	log.Infof("monitor: starting, interval %s", interval)
	defer log.Info("monitor: stopped")

	if ctx.Err() != nil {
		return
	}
	m.runOnce(ctx, fn)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if ctx.Err() != nil {
				return
			}
			m.runOnce(ctx, fn)
		case <-ctx.Done():
			return
		}
	}
}

func (m *Monitor) runOnce(ctx context.Context, fn func(Report, error)) {
	rep, err := m.Check(ctx)
	if fn != nil {
		fn(rep, err)
	}
}
