package models

import (
	"encoding/json"
	"testing"
	"time"
)

func TestUsageSnapshot_Utilization(t *testing.T) {
	s := &UsageSnapshot{
		FiveHour: WindowUsage{Utilization: 42},
		SevenDay: WindowUsage{Utilization: 67},
	}

	if s.SessionUtilization() != 42 {
		t.Errorf("Expected session 42, got %v", s.SessionUtilization())
	}
	if s.WeeklyUtilization() != 67 {
		t.Errorf("Expected weekly 67, got %v", s.WeeklyUtilization())
	}
	if s.MaxUtilization() != 67 {
		t.Errorf("Expected max 67, got %v", s.MaxUtilization())
	}

	s.FiveHour.Utilization = 90
	if s.MaxUtilization() != 90 {
		t.Errorf("Expected max 90 after session rose, got %v", s.MaxUtilization())
	}
}

func TestUsageSnapshot_Unmarshal(t *testing.T) {
	raw := `{
		"five_hour": {"utilization": 42.5, "resets_at": "2026-08-30T12:00:00Z"},
		"seven_day": {"utilization": 61.0},
		"seven_day_sonnet": {"utilization": 30.0},
		"extra_usage": {"enabled": true, "utilization": 5.0}
	}`

	var s UsageSnapshot
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		t.Fatalf("Failed to unmarshal: %v", err)
	}

	if s.FiveHour.Utilization != 42.5 {
		t.Errorf("Expected session 42.5, got %v", s.FiveHour.Utilization)
	}
	if s.SevenDaySonnet == nil || s.SevenDaySonnet.Utilization != 30.0 {
		t.Errorf("Expected sonnet window, got %+v", s.SevenDaySonnet)
	}
	if s.SevenDayOpus != nil {
		t.Errorf("Expected absent opus window to stay nil, got %+v", s.SevenDayOpus)
	}
	if s.Extra == nil || !s.Extra.Enabled {
		t.Errorf("Expected extra usage parsed, got %+v", s.Extra)
	}
	want := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	if !s.FiveHour.ResetsAt.Equal(want) {
		t.Errorf("Expected resets_at %v, got %v", want, s.FiveHour.ResetsAt)
	}
	if !s.SevenDay.ResetsAt.IsZero() {
		t.Errorf("Expected zero resets_at when omitted, got %v", s.SevenDay.ResetsAt)
	}
}
