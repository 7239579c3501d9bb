// Package forecast turns usage history into rate estimates, time-to-limit
// projections, and severity-ranked recommendations.
package forecast

import (
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/j-veylop/claude-watch/internal/models"
	"github.com/j-veylop/claude-watch/internal/stats"
)

const (
	// DefaultLookbackHours bounds the window feeding the rate estimate.
	DefaultLookbackHours = 4

	// minSpanHours rejects windows too short for a meaningful slope.
	minSpanHours = 0.1
	// minIntervalHours skips near-duplicate samples when computing the
	// per-interval rate spread.
	minIntervalHours = 0.05

	// goodQualityPoints is the sample count separating good from limited
	// rate estimates.
	goodQualityPoints = 5

	// projectionHorizonHours: depletion beyond this is reported as "not
	// projected".
	projectionHorizonHours = 100
	// weeklyHorizonDays is the same cutoff for the weekly projection.
	weeklyHorizonDays = 30
)

// HourlyRate estimates the session usage velocity from history inside the
// lookback window. Returns nil when fewer than two usable samples exist or
// the samples span less than minSpanHours.
//
// The rate is the end-to-end slope between the first and last sample, not a
// regression fit: robust to noisy intermediate points, sensitive to endpoint
// outliers. The spread of consecutive-pair rates supplies the dispersion
// estimate.
func HourlyRate(history []models.HistoryEntry, lookbackHours int) *models.RateEstimate {
	if lookbackHours <= 0 {
		lookbackHours = DefaultLookbackHours
	}
	cutoff := time.Now().UTC().Add(-time.Duration(lookbackHours) * time.Hour)

	type sample struct {
		at    time.Time
		value float64
	}
	var filtered []sample
	for i := range history {
		if history[i].FiveHour == nil || !history[i].Timestamp.After(cutoff) {
			continue
		}
		filtered = append(filtered, sample{at: history[i].Timestamp, value: *history[i].FiveHour})
	}
	if len(filtered) < 2 {
		return nil
	}

	// Deltas are order-sensitive; the store does not guarantee sorted
	// entries, so sort here.
	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].at.Before(filtered[j].at)
	})

	first, last := filtered[0], filtered[len(filtered)-1]
	hoursElapsed := last.at.Sub(first.at).Hours()
	if hoursElapsed < minSpanHours {
		return nil
	}

	rate := (last.value - first.value) / hoursElapsed

	var intervalRates []float64
	for i := 1; i < len(filtered); i++ {
		dt := filtered[i].at.Sub(filtered[i-1].at).Hours()
		if dt > minIntervalHours {
			intervalRates = append(intervalRates, (filtered[i].value-filtered[i-1].value)/dt)
		}
	}

	return &models.RateEstimate{
		RatePerHour:   rate,
		RateStd:       sampleStddev(intervalRates),
		HoursAnalyzed: hoursElapsed,
		DataPoints:    len(filtered),
	}
}

// sampleStddev returns the sample standard deviation, or 0 for fewer than
// two values.
func sampleStddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))

	variance := 0.0
	for _, v := range values {
		d := v - mean
		variance += d * d
	}
	variance /= float64(len(values) - 1)
	return math.Sqrt(variance)
}

// Calculate produces the full forecast for the current snapshot. It never
// fails: insufficient history leaves the session/weekly projections nil, and
// the recommendations list always contains at least one entry.
func Calculate(snapshot *models.UsageSnapshot, history []models.HistoryEntry, lookbackHours int) *models.Forecast {
	session := snapshot.SessionUtilization()
	weekly := snapshot.WeeklyUtilization()
	sessionRemaining := 100 - session
	weeklyRemaining := 100 - weekly

	fc := &models.Forecast{
		Current: models.CurrentUsage{
			SessionUsed:      session,
			SessionRemaining: sessionRemaining,
			WeeklyUsed:       weekly,
			WeeklyRemaining:  weeklyRemaining,
		},
	}

	if est := HourlyRate(history, lookbackHours); est != nil && est.RatePerHour > 0 {
		rate := est.RatePerHour
		hoursToLimit := sessionRemaining / rate

		// Faster assumed depletion shortens the estimate; the optimistic
		// rate is floored so a large spread cannot blow up the division.
		conservativeRate := rate + est.RateStd
		hoursConservative := sessionRemaining / conservativeRate
		optimisticRate := math.Max(0.1, rate-est.RateStd)
		hoursOptimistic := sessionRemaining / optimisticRate

		quality := models.QualityLimited
		if est.DataPoints >= goodQualityPoints {
			quality = models.QualityGood
		}

		fc.Session = &models.SessionForecast{
			RatePerHour:       round2(rate),
			HoursToLimit:      hoursWithinHorizon(hoursToLimit),
			HoursConservative: hoursWithinHorizon(hoursConservative),
			HoursOptimistic:   hoursWithinHorizon(hoursOptimistic),
			DataQuality:       quality,
		}

		switch {
		case hoursToLimit < 1:
			fc.Recommendations = append(fc.Recommendations, models.Recommendation{
				Severity: models.SeverityCritical,
				Message:  "Session limit imminent - consider pausing or reducing usage",
			})
		case hoursToLimit < 2:
			fc.Recommendations = append(fc.Recommendations, models.Recommendation{
				Severity: models.SeverityWarning,
				Message:  fmt.Sprintf("Session limit approaching in ~%.0fh - plan accordingly", hoursToLimit),
			})
		}
	}

	// The last 24h of maximum-minus-minimum on the weekly series is a
	// coarse proxy for the daily delta, not a true derivative.
	if day := stats.Period(history, 24, models.FieldSevenDay); day.Count >= 2 {
		dailyChange := day.Max - day.Min
		if dailyChange > 0 {
			daysToLimit := weeklyRemaining / dailyChange
			projection := weekly + dailyChange*7

			fc.Weekly = &models.WeeklyForecast{
				DailyRate:        round1(dailyChange),
				DaysToLimit:      daysWithinHorizon(daysToLimit),
				WeeklyProjection: round1(math.Min(100, projection)),
				OnTrack:          projection <= 85,
			}

			switch {
			case projection > 95:
				fc.Recommendations = append(fc.Recommendations, models.Recommendation{
					Severity: models.SeverityWarning,
					Message:  fmt.Sprintf("Weekly usage trending high - projected to hit %.0f%%", projection),
				})
			case projection <= 60:
				fc.Recommendations = append(fc.Recommendations, models.Recommendation{
					Severity: models.SeverityInfo,
					Message:  "Weekly usage is efficient - plenty of capacity remaining",
				})
			}
		}
	}

	// Absolute-level rules apply regardless of any rate estimate.
	switch {
	case session >= 90:
		fc.Recommendations = append(fc.Recommendations, models.Recommendation{
			Severity: models.SeverityCritical,
			Message:  "Session limit nearly reached - wait for reset or reduce intensity",
		})
	case session >= 75:
		fc.Recommendations = append(fc.Recommendations, models.Recommendation{
			Severity: models.SeverityWarning,
			Message:  "High session usage - consider pacing your requests",
		})
	}
	if weekly >= 85 {
		fc.Recommendations = append(fc.Recommendations, models.Recommendation{
			Severity: models.SeverityWarning,
			Message:  "Weekly limit approaching - prioritize critical tasks",
		})
	}

	if len(fc.Recommendations) == 0 {
		fc.Recommendations = append(fc.Recommendations, models.Recommendation{
			Severity: models.SeverityInfo,
			Message:  "Usage is within healthy limits",
		})
	}

	return fc
}

// hoursWithinHorizon rounds to one decimal, or reports nil for projections
// at or beyond the 100-hour horizon.
func hoursWithinHorizon(hours float64) *float64 {
	if hours >= projectionHorizonHours {
		return nil
	}
	v := round1(hours)
	return &v
}

func daysWithinHorizon(days float64) *float64 {
	if days >= weeklyHorizonDays {
		return nil
	}
	v := round1(days)
	return &v
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
