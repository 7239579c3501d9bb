// Package models defines data structures and domain types.
package models

import "time"

// Field names for history entry metrics, used by the stats and forecast
// packages to select which series to analyze.
const (
	FieldFiveHour       = "five_hour"
	FieldSevenDay       = "seven_day"
	FieldSevenDaySonnet = "seven_day_sonnet"
	FieldSevenDayOpus   = "seven_day_opus"
)

// HistoryEntry is one persisted usage sample. Metric fields are pointers
// because the API may omit any of them; a nil value is excluded from all
// aggregations rather than treated as zero.
type HistoryEntry struct {
	Timestamp      time.Time `json:"timestamp"`
	FiveHour       *float64  `json:"five_hour"`
	SevenDay       *float64  `json:"seven_day"`
	SevenDaySonnet *float64  `json:"seven_day_sonnet"`
	SevenDayOpus   *float64  `json:"seven_day_opus"`
}

// Field returns the named metric value, or nil if it was not recorded.
func (e *HistoryEntry) Field(name string) *float64 {
	switch name {
	case FieldFiveHour:
		return e.FiveHour
	case FieldSevenDay:
		return e.SevenDay
	case FieldSevenDaySonnet:
		return e.SevenDaySonnet
	case FieldSevenDayOpus:
		return e.SevenDayOpus
	default:
		return nil
	}
}

// EntryFromSnapshot builds a history entry from a snapshot, stamped with the
// given time. Optional windows map to nil when absent.
func EntryFromSnapshot(s *UsageSnapshot, at time.Time) HistoryEntry {
	entry := HistoryEntry{
		Timestamp: at.UTC(),
		FiveHour:  ptr(s.FiveHour.Utilization),
		SevenDay:  ptr(s.SevenDay.Utilization),
	}
	if s.SevenDaySonnet != nil {
		entry.SevenDaySonnet = ptr(s.SevenDaySonnet.Utilization)
	}
	if s.SevenDayOpus != nil {
		entry.SevenDayOpus = ptr(s.SevenDayOpus.Utilization)
	}
	return entry
}

func ptr(v float64) *float64 { return &v }
