// Package collector runs the fetch-record-analyze cycle that every
// surface (TUI, daemon, metrics exporter) is built on.
package collector

import (
	"context"
	"time"

	"github.com/j-veylop/claude-watch/internal/cache"
	"github.com/j-veylop/claude-watch/internal/forecast"
	"github.com/j-veylop/claude-watch/internal/history"
	"github.com/j-veylop/claude-watch/internal/logger"
	"github.com/j-veylop/claude-watch/internal/metrics"
	"github.com/j-veylop/claude-watch/internal/models"
	"github.com/j-veylop/claude-watch/internal/notify"
)

// Fetcher fetches a fresh usage snapshot from the API.
type Fetcher interface {
	FetchUsage(ctx context.Context) (*models.UsageSnapshot, error)
}

// Recorder receives each sample for long-term aggregation. Optional.
type Recorder interface {
	Record(at time.Time, fiveHour, sevenDay float64) error
}

// Collector wires the fetch path together: cache in front of the API
// client, history and archive behind it, threshold checks at the end.
type Collector struct {
	fetcher       Fetcher
	cache         *cache.Cache
	store         *history.Store
	archive       Recorder
	engine        *notify.Engine
	thresholds    []int
	ttl           time.Duration
	lookbackHours int
}

// Options configures optional collaborators.
type Options struct {
	Archive    Recorder
	Engine     *notify.Engine
	Thresholds []int
}

// New creates a collector.
func New(fetcher Fetcher, c *cache.Cache, store *history.Store, ttl time.Duration, lookbackHours int, opts Options) *Collector {
	return &Collector{
		fetcher:       fetcher,
		cache:         c,
		store:         store,
		archive:       opts.Archive,
		engine:        opts.Engine,
		thresholds:    opts.Thresholds,
		ttl:           ttl,
		lookbackHours: lookbackHours,
	}
}

// Cycle performs one fetch-record-check iteration and returns the snapshot
// it worked with. In silent mode a failed fetch degrades to stale cache
// data (possibly nil) instead of an error.
func (c *Collector) Cycle(ctx context.Context, silent bool) (*models.UsageSnapshot, error) {
	snapshot, err := c.cache.Fetch(ctx, c.timedFetch, c.ttl, silent)
	if err != nil {
		return nil, err
	}
	if snapshot == nil {
		return nil, nil
	}

	if err := c.store.Record(snapshot); err != nil {
		logger.Error("failed to record history sample", "error", err)
	}
	if c.archive != nil {
		if err := c.archive.Record(time.Now(), snapshot.SessionUtilization(), snapshot.WeeklyUtilization()); err != nil {
			logger.Error("failed to archive sample", "error", err)
		}
	}

	metrics.ObserveRate(forecast.HourlyRate(c.store.Load(), c.lookbackHours))

	if c.engine != nil {
		c.engine.Check(snapshot, c.thresholds)
	}

	return snapshot, nil
}

// Run repeats Cycle on a fixed cadence until ctx is cancelled. Iterations
// are strictly sequential: a slow fetch delays the next tick rather than
// overlapping it.
func (c *Collector) Run(ctx context.Context, interval time.Duration) error {
	if _, err := c.Cycle(ctx, true); err != nil {
		logger.Error("collector cycle failed", "error", err)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if _, err := c.Cycle(ctx, true); err != nil {
				logger.Error("collector cycle failed", "error", err)
			}
		}
	}
}

// Forecast recomputes the forecast from the given snapshot and the current
// history.
func (c *Collector) Forecast(snapshot *models.UsageSnapshot) *models.Forecast {
	return forecast.Calculate(snapshot, c.store.Load(), c.lookbackHours)
}

// History exposes the backing store for read-side surfaces.
func (c *Collector) History() *history.Store {
	return c.store
}

func (c *Collector) timedFetch(ctx context.Context) (*models.UsageSnapshot, error) {
	start := time.Now()
	snapshot, err := c.fetcher.FetchUsage(ctx)
	if err != nil {
		metrics.ObserveFetchError()
		return nil, err
	}
	metrics.ObserveFetch(snapshot, time.Since(start))
	return snapshot, nil
}
