package notify

import (
	"path/filepath"
	"testing"

	"github.com/j-veylop/claude-watch/internal/models"
)

// recordingSink captures notifications and reports a configurable outcome.
type recordingSink struct {
	sent []Notification
	fail bool
}

func (s *recordingSink) Send(n Notification) bool {
	s.sent = append(s.sent, n)
	return !s.fail
}

func newTestEngine(t *testing.T) (*Engine, *recordingSink) {
	t.Helper()
	sink := &recordingSink{}
	return NewEngine(filepath.Join(t.TempDir(), "state.json"), sink), sink
}

func snapshotAt(session, weekly float64) *models.UsageSnapshot {
	return &models.UsageSnapshot{
		FiveHour: models.WindowUsage{Utilization: session},
		SevenDay: models.WindowUsage{Utilization: weekly},
	}
}

func TestCheck_FiresOnCrossing(t *testing.T) {
	engine, sink := newTestEngine(t)

	result := engine.Check(snapshotAt(85, 40), []int{80, 90})
	if !result.Dispatched {
		t.Fatal("Expected a dispatch at 85% against threshold 80")
	}
	if result.Threshold != 80 {
		t.Errorf("Expected threshold 80, got %d", result.Threshold)
	}
	if result.Urgency != UrgencyWarning {
		t.Errorf("Expected warning urgency, got %s", result.Urgency)
	}
	if len(sink.sent) != 1 {
		t.Fatalf("Expected 1 notification, got %d", len(sink.sent))
	}
	if sink.sent[0].Title != "Claude Usage WARNING: 85%" {
		t.Errorf("Unexpected title %q", sink.sent[0].Title)
	}
}

func TestCheck_OncePerExcursion(t *testing.T) {
	engine, sink := newTestEngine(t)

	// Usage trace crossing 80, then 90, then dropping below the reset
	// band and crossing 80 again.
	trace := []float64{85, 85, 95, 95, 40, 85}
	dispatched := 0
	for _, usage := range trace {
		if engine.Check(snapshotAt(usage, 30), []int{80, 90}).Dispatched {
			dispatched++
		}
	}

	if dispatched != 3 {
		t.Errorf("Expected 3 dispatches across the excursion, got %d", dispatched)
	}
	if len(sink.sent) != 3 {
		t.Fatalf("Expected 3 notifications, got %d", len(sink.sent))
	}
	if sink.sent[0].Threshold != 80 || sink.sent[1].Threshold != 90 || sink.sent[2].Threshold != 80 {
		t.Errorf("Unexpected threshold sequence: %d, %d, %d",
			sink.sent[0].Threshold, sink.sent[1].Threshold, sink.sent[2].Threshold)
	}
}

func TestCheck_HighestNewThresholdWins(t *testing.T) {
	engine, sink := newTestEngine(t)

	// A jump straight past every threshold fires only the highest.
	result := engine.Check(snapshotAt(97, 40), []int{80, 90, 95})
	if !result.Dispatched {
		t.Fatal("Expected a dispatch")
	}
	if result.Threshold != 95 {
		t.Errorf("Expected highest threshold 95, got %d", result.Threshold)
	}
	if result.Urgency != UrgencyCritical {
		t.Errorf("Expected critical urgency, got %s", result.Urgency)
	}

	// The skipped thresholds were absorbed; dropping to 85 stays quiet.
	if engine.Check(snapshotAt(85, 40), []int{80, 90, 95}).Dispatched {
		t.Error("Expected absorbed thresholds not to fire on the way down")
	}
	if len(sink.sent) != 1 {
		t.Errorf("Expected 1 notification total, got %d", len(sink.sent))
	}
}

func TestCheck_ResetBand(t *testing.T) {
	engine, _ := newTestEngine(t)
	thresholds := []int{80, 90}

	if !engine.Check(snapshotAt(85, 30), thresholds).Dispatched {
		t.Fatal("Expected initial dispatch")
	}

	// 60 is below the 80 threshold but above the reset band of 50.
	if engine.Check(snapshotAt(60, 30), thresholds).Reset {
		t.Error("Expected no re-arm above the reset band")
	}
	if engine.Check(snapshotAt(85, 30), thresholds).Dispatched {
		t.Error("Expected no second dispatch without a re-arm")
	}

	result := engine.Check(snapshotAt(45, 30), thresholds)
	if !result.Reset {
		t.Error("Expected re-arm below the reset band")
	}

	if !engine.Check(snapshotAt(85, 30), thresholds).Dispatched {
		t.Error("Expected a dispatch after re-arming")
	}
}

func TestCheck_ResetBandFollowsLowThreshold(t *testing.T) {
	engine, _ := newTestEngine(t)
	thresholds := []int{40, 90}

	if !engine.Check(snapshotAt(45, 10), thresholds).Dispatched {
		t.Fatal("Expected dispatch at 45% against threshold 40")
	}

	// With a minimum threshold of 40 the reset band drops to 40 as well.
	if engine.Check(snapshotAt(42, 10), thresholds).Reset {
		t.Error("Expected no re-arm at 42%")
	}
	if !engine.Check(snapshotAt(35, 10), thresholds).Reset {
		t.Error("Expected re-arm below 40%")
	}
}

func TestCheck_FailedSendRetriesNextCheck(t *testing.T) {
	engine, sink := newTestEngine(t)
	sink.fail = true

	if engine.Check(snapshotAt(85, 30), []int{80}).Dispatched {
		t.Error("Expected no dispatch recorded for a failed send")
	}

	sink.fail = false
	if !engine.Check(snapshotAt(85, 30), []int{80}).Dispatched {
		t.Error("Expected the failed send retried on the next check")
	}
	if len(sink.sent) != 2 {
		t.Errorf("Expected 2 send attempts, got %d", len(sink.sent))
	}
}

func TestCheck_UsesMaxOfSessionAndWeekly(t *testing.T) {
	engine, sink := newTestEngine(t)

	result := engine.Check(snapshotAt(30, 92), []int{90})
	if !result.Dispatched {
		t.Fatal("Expected the weekly window to trigger the threshold")
	}
	if result.Urgency != UrgencyHigh {
		t.Errorf("Expected high urgency at threshold 90, got %s", result.Urgency)
	}
	if sink.sent[0].Weekly != 92 {
		t.Errorf("Expected weekly 92 in the notification, got %v", sink.sent[0].Weekly)
	}
}

func TestCheck_NoThresholds(t *testing.T) {
	engine, sink := newTestEngine(t)
	if engine.Check(snapshotAt(99, 99), nil).Dispatched {
		t.Error("Expected no dispatch with no thresholds configured")
	}
	if len(sink.sent) != 0 {
		t.Errorf("Expected no notifications, got %d", len(sink.sent))
	}
}

func TestUrgencyFor(t *testing.T) {
	tests := []struct {
		threshold int
		want      Urgency
	}{
		{80, UrgencyWarning},
		{89, UrgencyWarning},
		{90, UrgencyHigh},
		{94, UrgencyHigh},
		{95, UrgencyCritical},
		{99, UrgencyCritical},
	}
	for _, tt := range tests {
		if got := urgencyFor(tt.threshold); got != tt.want {
			t.Errorf("urgencyFor(%d) = %s, want %s", tt.threshold, got, tt.want)
		}
	}
}

func TestFanout_AnySuccessCounts(t *testing.T) {
	dead := &recordingSink{fail: true}
	live := &recordingSink{}
	f := Fanout{dead, live}

	if !f.Send(Notification{Title: "t"}) {
		t.Error("Expected success when one sink delivers")
	}
	if len(dead.sent) != 1 || len(live.sent) != 1 {
		t.Error("Expected every sink attempted")
	}

	allDead := Fanout{&recordingSink{fail: true}}
	if allDead.Send(Notification{}) {
		t.Error("Expected failure when no sink delivers")
	}
}
