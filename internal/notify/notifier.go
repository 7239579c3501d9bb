package notify

import (
	"fmt"
	"sort"
	"time"

	"github.com/gen2brain/beeep"

	"github.com/j-veylop/claude-watch/internal/logger"
	"github.com/j-veylop/claude-watch/internal/models"
)

// Urgency ranks a dispatched notification.
type Urgency string

const (
	UrgencyWarning  Urgency = "warning"
	UrgencyHigh     Urgency = "high"
	UrgencyCritical Urgency = "critical"
)

// Notification is what gets handed to a dispatch sink. Payload formatting
// for specific channels is the sink's concern.
type Notification struct {
	Title     string
	Message   string
	Urgency   Urgency
	Threshold int
	Session   float64
	Weekly    float64
}

// Sink delivers a notification and reports success. A failed send leaves
// the state machine untouched so the next check retries.
type Sink interface {
	Send(n Notification) bool
}

// DesktopSink sends desktop notifications via beeep.
type DesktopSink struct{}

// Send delivers a desktop notification. Critical urgency uses an alert.
func (DesktopSink) Send(n Notification) bool {
	var err error
	if n.Urgency == UrgencyCritical || n.Urgency == UrgencyHigh {
		err = beeep.Alert(n.Title, n.Message, "")
	} else {
		err = beeep.Notify(n.Title, n.Message, "")
	}
	if err != nil {
		logger.Warn("desktop notification failed", "error", err)
		return false
	}
	return true
}

// Result describes the outcome of a threshold check.
type Result struct {
	Dispatched bool
	Threshold  int
	Urgency    Urgency
	Reset      bool
}

// Engine drives the threshold state machine against a dispatch sink.
type Engine struct {
	statePath string
	sink      Sink
}

// NewEngine creates an engine persisting state at statePath.
func NewEngine(statePath string, sink Sink) *Engine {
	return &Engine{statePath: statePath, sink: sink}
}

// Check compares the snapshot against the configured thresholds and
// dispatches at most one notification for the highest newly-crossed
// threshold. Guarantees: one notification per threshold per excursion,
// re-arming once usage drops below the reset band, and retry of failed
// sends on the next check.
func (e *Engine) Check(snapshot *models.UsageSnapshot, thresholds []int) Result {
	if len(thresholds) == 0 {
		return Result{}
	}

	current := snapshot.MaxUtilization()
	state := LoadState(e.statePath)

	sorted := append([]int(nil), thresholds...)
	sort.Sort(sort.Reverse(sort.IntSlice(sorted)))

	var exceeded []int
	for _, t := range sorted {
		if current >= float64(t) {
			exceeded = append(exceeded, t)
		}
	}

	minThreshold := sorted[len(sorted)-1]
	resetBand := min(50, minThreshold)

	var result Result

	if current < float64(resetBand) && state.Mode() == Elevated {
		logger.Info("usage dropped below reset band, re-arming thresholds",
			"usage", current, "reset_band", resetBand)
		state.Fired = nil
		if err := SaveState(e.statePath, state); err != nil {
			logger.Error("failed to save notify state", "error", err)
		}
		result.Reset = true
	}

	var newlyExceeded []int
	for _, t := range exceeded {
		if !state.HasFired(t) {
			newlyExceeded = append(newlyExceeded, t)
		}
	}
	if len(newlyExceeded) == 0 {
		return result
	}

	// sorted descending, so the first newly-exceeded is the highest
	highest := newlyExceeded[0]
	urgency := urgencyFor(highest)

	n := Notification{
		Title: fmt.Sprintf("Claude Usage %s: %.0f%%", severityText(urgency), current),
		Message: fmt.Sprintf("Session: %.0f%% | Weekly: %.0f%%",
			snapshot.SessionUtilization(), snapshot.WeeklyUtilization()),
		Urgency:   urgency,
		Threshold: highest,
		Session:   snapshot.SessionUtilization(),
		Weekly:    snapshot.WeeklyUtilization(),
	}

	if !e.sink.Send(n) {
		logger.Warn("notification dispatch failed, will retry next check", "threshold", highest)
		return result
	}

	// Absorb every currently-exceeded threshold, including any skipped
	// between checks, so each fires at most once per excursion.
	state.Fired = exceeded
	now := time.Now().UTC()
	state.LastNotifiedAt = &now
	if err := SaveState(e.statePath, state); err != nil {
		logger.Error("failed to save notify state", "error", err)
	}

	result.Dispatched = true
	result.Threshold = highest
	result.Urgency = urgency
	return result
}

func urgencyFor(threshold int) Urgency {
	switch {
	case threshold >= 95:
		return UrgencyCritical
	case threshold >= 90:
		return UrgencyHigh
	default:
		return UrgencyWarning
	}
}

func severityText(u Urgency) string {
	switch u {
	case UrgencyCritical:
		return "CRITICAL"
	case UrgencyHigh:
		return "HIGH"
	default:
		return "WARNING"
	}
}
