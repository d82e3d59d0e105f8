package monitor

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/suite"

	"github.com/lc/myip/internal/filesys"
	"github.com/lc/myip/internal/metrics"
	"github.com/lc/myip/internal/mocks"
	"github.com/lc/myip/internal/notify"
	"github.com/lc/myip/pkg/api"
)

type mockFetcher struct {
	mock.Mock
}

func (m *mockFetcher) Lookup(ctx context.Context) (api.IPRecord, error) {
	args := m.Called(ctx)
	return args.Get(0).(api.IPRecord), args.Error(1)
}

type recordingNotifier struct {
	name string
	err  error

	mu      sync.Mutex
	changes []notify.Change
}

func (n *recordingNotifier) Name() string { return n.name }

func (n *recordingNotifier) Notify(_ context.Context, ch notify.Change) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.changes = append(n.changes, ch)
	return n.err
}

func rec(ip string) api.IPRecord {
	return api.IPRecord{
		IP:       ip,
		Type:     api.TypeIPv4,
		Location: api.Location{City: "Berlin", Country: "DE"},
		Network:  api.Network{ISP: "Example ISP"},
	}
}

type MonitorTestSuite struct {
	suite.Suite
	dir     string
	cache   *Cache
	fetcher *mockFetcher
	slack   *recordingNotifier
	discord *recordingNotifier
	mon     *Monitor
	now     time.Time
}

func (s *MonitorTestSuite) SetupTest() {
	s.dir = s.T().TempDir()
	s.cache = NewCache(filesys.OS(), filepath.Join(s.dir, "state", "myip_current.json"))
	s.fetcher = new(mockFetcher)
	s.slack = &recordingNotifier{name: "slack"}
	s.discord = &recordingNotifier{name: "discord", err: errors.New("bad webhook")}
	s.now = time.Date(2026, 5, 4, 10, 0, 0, 0, time.UTC)
	s.mon = New(s.fetcher, s.cache,
		WithNotifiers(s.slack, s.discord),
		WithFetchTimeout(time.Second),
		WithClock(func() time.Time { return s.now }),
	)
}

func (s *MonitorTestSuite) TestInitialThenUnchanged() {
	s.fetcher.On("Lookup", mock.Anything).Return(rec("203.0.113.5"), nil).Twice()

	first, err := s.mon.Check(context.Background())
	s.Require().NoError(err)
	s.Equal(StatusInitial, first.Status)
	s.Empty(first.Previous)
	s.NotEmpty(first.RunID)

	cached, ok := s.cache.Load()
	s.Require().True(ok)
	s.Equal("203.0.113.5", cached.IP)

	second, err := s.mon.Check(context.Background())
	s.Require().NoError(err)
	s.Equal(StatusUnchanged, second.Status)
	s.Equal("203.0.113.5", second.Previous)
	s.NotEqual(first.RunID, second.RunID)
	s.Empty(s.slack.changes)
	s.EqualValues(2, s.mon.Stats().Checks.Load())
}

func (s *MonitorTestSuite) TestChangeAlertsEveryChannel() {
	s.Require().NoError(s.cache.Save(rec("198.51.100.7")))
	s.fetcher.On("Lookup", mock.Anything).Return(rec("203.0.113.5"), nil).Once()
	changesBefore := testutil.ToFloat64(metrics.ChangesTotal)
	sentBefore := testutil.ToFloat64(metrics.AlertsTotal.WithLabelValues("slack", "sent"))

	rep, err := s.mon.Check(context.Background())

	s.Require().NoError(err)
	s.Equal(StatusChanged, rep.Status)
	s.Equal("198.51.100.7", rep.Previous)
	s.Require().Len(rep.Alerts, 2)
	s.Equal(1, rep.Alerts.Sent())
	s.Error(rep.Alerts.Err())

	s.Require().Len(s.slack.changes, 1)
	s.Require().Len(s.discord.changes, 1)
	ch := s.slack.changes[0]
	s.Equal("198.51.100.7", ch.Previous)
	s.Equal("203.0.113.5", ch.Current.IP)
	s.Equal(s.now, ch.DetectedAt)

	st := s.mon.Stats()
	s.EqualValues(1, st.Changes.Load())
	s.EqualValues(1, st.AlertsSent.Load())
	s.EqualValues(1, st.AlertsFailed.Load())
	s.Equal(changesBefore+1, testutil.ToFloat64(metrics.ChangesTotal))
	s.Equal(sentBefore+1, testutil.ToFloat64(metrics.AlertsTotal.WithLabelValues("slack", "sent")))

	cached, ok := s.cache.Load()
	s.Require().True(ok)
	s.Equal("203.0.113.5", cached.IP)
}

func (s *MonitorTestSuite) TestFetchFailureKeepsCache() {
	s.Require().NoError(s.cache.Save(rec("198.51.100.7")))
	s.fetcher.On("Lookup", mock.Anything).Return(api.IPRecord{}, errors.New("HTTP error! status: 502 Bad Gateway")).Once()

	_, err := s.mon.Check(context.Background())

	s.Require().Error(err)
	s.Contains(err.Error(), "fetching current address")
	cached, ok := s.cache.Load()
	s.Require().True(ok)
	s.Equal("198.51.100.7", cached.IP)
	s.EqualValues(1, s.mon.Stats().Failures.Load())
	s.Empty(s.slack.changes)
}

func (s *MonitorTestSuite) TestEmptyAddressIsFailure() {
	s.fetcher.On("Lookup", mock.Anything).Return(api.IPRecord{}, nil).Once()

	_, err := s.mon.Check(context.Background())

	s.ErrorIs(err, ErrNoAddress)
	_, ok := s.cache.Load()
	s.False(ok)
}

func (s *MonitorTestSuite) TestCorruptCacheIsInitial() {
	s.Require().NoError(os.MkdirAll(filepath.Dir(s.cache.Path()), 0o755))
	s.Require().NoError(os.WriteFile(s.cache.Path(), []byte("{not json"), 0o600))
	s.fetcher.On("Lookup", mock.Anything).Return(rec("203.0.113.5"), nil).Once()

	rep, err := s.mon.Check(context.Background())

	s.Require().NoError(err)
	s.Equal(StatusInitial, rep.Status)
	s.Empty(s.slack.changes)
}

func (s *MonitorTestSuite) TestCacheSaveFailureReported() {
	fsys := new(mocks.MockOsFS)
	fsys.On("ReadFile", "/cache/myip.json").Return(nil, os.ErrNotExist)
	fsys.On("MkdirAll", "/cache", os.FileMode(0o755)).Return(os.ErrPermission)
	mon := New(s.fetcher, NewCache(fsys, "/cache/myip.json"))
	s.fetcher.On("Lookup", mock.Anything).Return(rec("203.0.113.5"), nil).Once()

	rep, err := mon.Check(context.Background())

	s.Require().NoError(err)
	s.Equal(StatusInitial, rep.Status)
	s.ErrorIs(rep.CacheErr, os.ErrPermission)
}

func (s *MonitorTestSuite) TestRunUntilCancelled() {
	s.fetcher.On("Lookup", mock.Anything).Return(rec("203.0.113.5"), nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var statuses []Status
	done := make(chan struct{})
	go func() {
		defer close(done)
		s.mon.Run(ctx, 10*time.Millisecond, func(rep Report, err error) {
			s.NoError(err)
			statuses = append(statuses, rep.Status)
			if len(statuses) == 3 {
				cancel()
			}
		})
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		s.FailNow("Run did not stop after cancel")
	}
	s.Len(statuses, 3)
	s.Equal(StatusInitial, statuses[0])
	s.Equal(StatusUnchanged, statuses[1])
	s.Equal(int64(0), s.mon.Stats().Failures.Load())
}

func (s *MonitorTestSuite) TestRunSkipsChecksOnceCancelled() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	before := testutil.ToFloat64(metrics.CheckFailuresTotal)

	called := false
	s.mon.Run(ctx, time.Millisecond, func(Report, error) { called = true })

	s.False(called)
	s.fetcher.AssertNotCalled(s.T(), "Lookup", mock.Anything)
	s.Equal(int64(0), s.mon.Stats().Checks.Load())
	s.Equal(before, testutil.ToFloat64(metrics.CheckFailuresTotal))
}

func (s *MonitorTestSuite) TestStatusString() {
	s.Equal("initial", StatusInitial.String())
	s.Equal("unchanged", StatusUnchanged.String())
	s.Equal("changed", StatusChanged.String())
	s.Equal("unknown", Status(0).String())
}

func TestMonitorSuite(t *testing.T) {
	suite.Run(t, new(MonitorTestSuite))
}
