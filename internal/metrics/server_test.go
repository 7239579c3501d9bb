package metrics

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/j-veylop/claude-watch/internal/models"
)

func TestHealthz(t *testing.T) {
	srv := NewServer("127.0.0.1:0")

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("Failed to decode health response: %v", err)
	}
	if body["status"] != "ok" {
		t.Errorf("Expected status ok, got %q", body["status"])
	}
	if body["version"] == "" {
		t.Error("Expected a version in the health response")
	}
}

func TestMetricsEndpoint(t *testing.T) {
	snapshot := &models.UsageSnapshot{
		FiveHour: models.WindowUsage{Utilization: 37.5},
		SevenDay: models.WindowUsage{Utilization: 52.0},
		SevenDayOpus: &models.WindowUsage{Utilization: 12.0},
	}
	ObserveFetch(snapshot, 150*time.Millisecond)
	ObserveRate(&models.RateEstimate{RatePerHour: 4.2})

	srv := NewServer("127.0.0.1:0")
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	srv.httpServer.Handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d", rec.Code)
	}

	body := rec.Body.String()
	for _, want := range []string{
		"claude_usage_session_percent 37.5",
		"claude_usage_weekly_percent 52",
		`claude_usage_weekly_model_percent{model="opus"} 12`,
		"claude_usage_session_rate_per_hour 4.2",
		"claude_usage_api_calls_total",
		"claude_usage_fetch_duration_seconds_bucket",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("Expected metric %q in output", want)
		}
	}
}

func TestObserveRate_NilIgnored(t *testing.T) {
	// Must not panic.
	ObserveRate(nil)
}
