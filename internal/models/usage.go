// Package models defines data structures and domain types.
package models

import "time"

// WindowUsage represents utilization of a single rolling quota window.
type WindowUsage struct {
	Utilization float64   `json:"utilization"`
	ResetsAt    time.Time `json:"resets_at,omitzero"`
}

// ExtraUsage represents the optional pay-as-you-go overflow allowance.
type ExtraUsage struct {
	Enabled     bool    `json:"enabled"`
	Utilization float64 `json:"utilization"`
}

// UsageSnapshot is a point-in-time read of quota consumption across all
// rolling windows. Immutable once fetched.
type UsageSnapshot struct {
	FiveHour       WindowUsage  `json:"five_hour"`
	SevenDay       WindowUsage  `json:"seven_day"`
	SevenDaySonnet *WindowUsage `json:"seven_day_sonnet,omitempty"`
	SevenDayOpus   *WindowUsage `json:"seven_day_opus,omitempty"`
	Extra          *ExtraUsage  `json:"extra_usage,omitempty"`
}

// SessionUtilization returns the 5-hour window utilization.
func (s *UsageSnapshot) SessionUtilization() float64 {
	return s.FiveHour.Utilization
}

// WeeklyUtilization returns the 7-day window utilization.
func (s *UsageSnapshot) WeeklyUtilization() float64 {
	return s.SevenDay.Utilization
}

// MaxUtilization returns the higher of the session and weekly utilization,
// which is the value notification thresholds are checked against.
func (s *UsageSnapshot) MaxUtilization() float64 {
	if s.FiveHour.Utilization > s.SevenDay.Utilization {
		return s.FiveHour.Utilization
	}
	return s.SevenDay.Utilization
}
