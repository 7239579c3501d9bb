// Package models defines data structures and domain types.
package models

// Severity ranks a recommendation.
type Severity string

const (
	SeverityInfo     Severity = "info"
	SeverityWarning  Severity = "warning"
	SeverityCritical Severity = "critical"
)

// DataQuality is a coarse confidence label for a rate estimate.
type DataQuality string

const (
	// QualityGood means the estimate is backed by at least 5 samples.
	QualityGood DataQuality = "good"
	// QualityLimited means the estimate rests on fewer than 5 samples.
	QualityLimited DataQuality = "limited"
)

// RateEstimate is a usage velocity derived from recent history.
type RateEstimate struct {
	RatePerHour   float64 `json:"rate_per_hour"`
	RateStd       float64 `json:"rate_std"`
	HoursAnalyzed float64 `json:"hours_analyzed"`
	DataPoints    int     `json:"data_points"`
}

// CurrentUsage summarizes used/remaining percentages at forecast time.
type CurrentUsage struct {
	SessionUsed      float64 `json:"session_used"`
	SessionRemaining float64 `json:"session_remaining"`
	WeeklyUsed       float64 `json:"weekly_used"`
	WeeklyRemaining  float64 `json:"weekly_remaining"`
}

// SessionForecast projects the 5-hour window forward at the current rate.
// Hour fields are nil when depletion is not projected within 100 hours.
type SessionForecast struct {
	RatePerHour       float64     `json:"rate_per_hour"`
	HoursToLimit      *float64    `json:"hours_to_limit"`
	HoursConservative *float64    `json:"hours_conservative"`
	HoursOptimistic   *float64    `json:"hours_optimistic"`
	DataQuality       DataQuality `json:"data_quality"`
}

// WeeklyForecast projects the 7-day window using the last 24h of change.
// DaysToLimit is nil when depletion is not projected within 30 days.
type WeeklyForecast struct {
	DailyRate        float64  `json:"daily_rate"`
	DaysToLimit      *float64 `json:"days_to_limit"`
	WeeklyProjection float64  `json:"weekly_projection"`
	OnTrack          bool     `json:"on_track"`
}

// Recommendation is one actionable item emitted by the forecast engine.
type Recommendation struct {
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// Forecast is the full output of the forecast engine. Session and Weekly are
// nil when there is not enough history to project them; Recommendations is
// never empty.
type Forecast struct {
	Current         CurrentUsage     `json:"current"`
	Session         *SessionForecast `json:"session,omitempty"`
	Weekly          *WeeklyForecast  `json:"weekly,omitempty"`
	Recommendations []Recommendation `json:"recommendations"`
}

// HasCritical reports whether any recommendation is critical.
func (f *Forecast) HasCritical() bool {
	for _, r := range f.Recommendations {
		if r.Severity == SeverityCritical {
			return true
		}
	}
	return false
}
