// Package notify implements the edge-triggered threshold notification
// engine and its persisted state machine.
package notify

import (
	"encoding/json"
	"os"
	"slices"
	"time"

	"github.com/j-veylop/claude-watch/internal/fsutil"
	"github.com/j-veylop/claude-watch/internal/logger"
)

// Mode is the notification state machine's phase.
type Mode int

const (
	// Quiescent means no threshold has fired in the current excursion.
	Quiescent Mode = iota
	// Elevated means at least one threshold has fired and will not fire
	// again until usage drops below the reset band.
	Elevated
)

// State tracks which thresholds have already fired during the current
// excursion above the reset band. Empty Fired set = quiescent.
type State struct {
	Fired          []int      `json:"last_thresholds"`
	LastNotifiedAt *time.Time `json:"last_notified_at"`
}

// Mode returns the current phase.
func (s *State) Mode() Mode {
	if len(s.Fired) == 0 {
		return Quiescent
	}
	return Elevated
}

// HasFired reports whether threshold t already fired this excursion.
func (s *State) HasFired(t int) bool {
	return slices.Contains(s.Fired, t)
}

// LoadState reads the persisted state. Missing or corrupt files yield a
// fresh quiescent state.
func LoadState(path string) *State {
	data, err := os.ReadFile(path)
	if err != nil {
		return &State{}
	}
	var s State
	if err := json.Unmarshal(data, &s); err != nil {
		logger.Warn("notify state unreadable, resetting", "path", path, "error", err)
		return &State{}
	}
	return &s
}

// SaveState persists the state with restrictive permissions.
func SaveState(path string, s *State) error {
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return err
	}
	return fsutil.WriteFileAtomic(path, data, 0o600)
}
