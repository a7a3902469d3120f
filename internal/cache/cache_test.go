package cache

import (
	"context"
	stderrors "errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sales-dashboard/internal/config"
	"sales-dashboard/internal/errors"
	"sales-dashboard/internal/models"
	"sales-dashboard/internal/observability"
)

type stubSource struct {
	mu    sync.Mutex
	calls atomic.Int32
	sets  []*models.RecordSet
	errs  []error
	delay time.Duration
}

func (s *stubSource) Key() string { return "stub:0000000000000001" }

func (s *stubSource) Load(context.Context) (*models.RecordSet, error) {
	n := int(s.calls.Add(1)) - 1
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if n < len(s.errs) && s.errs[n] != nil {
		return nil, s.errs[n]
	}
	if n < len(s.sets) {
		return s.sets[n], nil
	}
	return s.sets[len(s.sets)-1], nil
}

func recordSet(n int) *models.RecordSet {
	set := &models.RecordSet{Columns: models.AllColumns(), LoadedAt: time.Now(), Source: "stub"}
	for i := range n {
		set.Records = append(set.Records, models.Record{
			OrderID:     int64(i + 1),
			OrderDate:   time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
			TotalDue:    decimal.NewFromInt(10),
			StateName:   "A",
			ProductName: "X",
		})
	}
	return set
}

func newTestCache(src *stubSource, ttl time.Duration) (*Cache, *observability.CacheMetrics) {
	metrics := observability.NewCacheMetrics(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return New(src, config.CacheConfig{TTL: ttl, MaxEntries: 2}, metrics, logger), metrics
}

func TestCache_HitWithinTTL(t *testing.T) {
	src := &stubSource{sets: []*models.RecordSet{recordSet(2)}}
	c, metrics := newTestCache(src, time.Minute)

	first, err := c.Get(context.Background())
	require.NoError(t, err)
	second, err := c.Get(context.Background())
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), src.calls.Load())
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Hits))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.Misses))
}

func TestCache_ReloadAfterTTL(t *testing.T) {
	src := &stubSource{sets: []*models.RecordSet{recordSet(1), recordSet(3)}}
	c, _ := newTestCache(src, 50*time.Millisecond)

	first, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, first.Len())

	time.Sleep(120 * time.Millisecond)

	second, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, second.Len())
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_FailureIsNotCached(t *testing.T) {
	boom := errors.DataSourceUnavailable(stderrors.New("connection refused"))
	src := &stubSource{
		sets: []*models.RecordSet{nil, recordSet(2)},
		errs: []error{boom},
	}
	c, metrics := newTestCache(src, time.Minute)

	set, err := c.Get(context.Background())
	require.Error(t, err)
	assert.Nil(t, set)
	assert.True(t, errors.IsDataSourceUnavailable(err))
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.LoadFailures))

	set, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_EmptyResultIsNotCached(t *testing.T) {
	src := &stubSource{sets: []*models.RecordSet{recordSet(0), recordSet(1)}}
	c, _ := newTestCache(src, time.Minute)

	set, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, set.Len())

	set, err = c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, set.Len())
	assert.Equal(t, int32(2), src.calls.Load())
}

func TestCache_ConcurrentMissesShareLoad(t *testing.T) {
	src := &stubSource{sets: []*models.RecordSet{recordSet(5)}, delay: 50 * time.Millisecond}
	c, _ := newTestCache(src, time.Minute)

	var wg sync.WaitGroup
	results := make([]*models.RecordSet, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			set, err := c.Get(context.Background())
			assert.NoError(t, err)
			results[i] = set
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), src.calls.Load())
	for _, set := range results {
		assert.Same(t, results[0], set)
	}
}

func TestCache_Invalidate(t *testing.T) {
	src := &stubSource{sets: []*models.RecordSet{recordSet(1), recordSet(2)}}
	c, _ := newTestCache(src, time.Minute)

	_, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, c.Stats()["cached"])

	c.Invalidate()
	assert.Equal(t, false, c.Stats()["cached"])

	set, err := c.Get(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, set.Len())
}

func TestCache_Stats(t *testing.T) {
	src := &stubSource{sets: []*models.RecordSet{recordSet(3)}}
	c, _ := newTestCache(src, time.Minute)

	_, err := c.Get(context.Background())
	require.NoError(t, err)

	stats := c.Stats()
	assert.Equal(t, src.Key(), stats["key"])
	assert.Equal(t, "1m0s", stats["ttl"])
	assert.Equal(t, 3, stats["records"])
	assert.Empty(t, stats["missing_columns"])
}
