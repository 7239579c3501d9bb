// Package metrics exposes usage gauges and fetch counters in Prometheus
// format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/j-veylop/claude-watch/internal/models"
)

var (
	sessionPercent = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "claude_usage",
		Name:      "session_percent",
		Help:      "Current 5-hour session usage percentage",
	})

	weeklyPercent = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "claude_usage",
		Name:      "weekly_percent",
		Help:      "Current 7-day weekly usage percentage",
	})

	weeklyModelPercent = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "claude_usage",
		Name:      "weekly_model_percent",
		Help:      "Current 7-day usage percentage per model family",
	}, []string{"model"})

	lastFetchTimestamp = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "claude_usage",
		Name:      "last_fetch_timestamp",
		Help:      "Unix timestamp of the last successful fetch",
	})

	fetchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "claude_usage",
		Name:      "fetch_duration_seconds",
		Help:      "Duration of usage API fetches in seconds",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	})

	fetchesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "claude_usage",
		Name:      "api_calls_total",
		Help:      "Total number of usage API calls made",
	})

	fetchErrorsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "claude_usage",
		Name:      "fetch_errors_total",
		Help:      "Total number of failed usage fetches",
	})

	ratePerHour = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "claude_usage",
		Name:      "session_rate_per_hour",
		Help:      "Estimated session usage velocity in percentage points per hour",
	})
)

func init() {
	prometheus.MustRegister(
		sessionPercent,
		weeklyPercent,
		weeklyModelPercent,
		lastFetchTimestamp,
		fetchDuration,
		fetchesTotal,
		fetchErrorsTotal,
		ratePerHour,
	)
}

// ObserveFetch records a successful fetch and updates the usage gauges.
func ObserveFetch(snapshot *models.UsageSnapshot, duration time.Duration) {
	fetchesTotal.Inc()
	fetchDuration.Observe(duration.Seconds())
	lastFetchTimestamp.SetToCurrentTime()

	sessionPercent.Set(snapshot.SessionUtilization())
	weeklyPercent.Set(snapshot.WeeklyUtilization())
	if snapshot.SevenDaySonnet != nil {
		weeklyModelPercent.WithLabelValues("sonnet").Set(snapshot.SevenDaySonnet.Utilization)
	}
	if snapshot.SevenDayOpus != nil {
		weeklyModelPercent.WithLabelValues("opus").Set(snapshot.SevenDayOpus.Utilization)
	}
}

// ObserveFetchError records a failed fetch.
func ObserveFetchError() {
	fetchesTotal.Inc()
	fetchErrorsTotal.Inc()
}

// ObserveRate updates the velocity gauge from the latest estimate.
func ObserveRate(est *models.RateEstimate) {
	if est == nil {
		return
	}
	ratePerHour.Set(est.RatePerHour)
}
