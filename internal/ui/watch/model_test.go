package watch

import (
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/claude-watch/internal/cache"
	"github.com/j-veylop/claude-watch/internal/collector"
	"github.com/j-veylop/claude-watch/internal/history"
	"github.com/j-veylop/claude-watch/internal/models"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	dir := t.TempDir()
	store := history.New(filepath.Join(dir, "history.json"), 180)
	col := collector.New(nil, cache.New(filepath.Join(dir, "cache.json")), store, time.Minute, 4, collector.Options{})
	return New(col, time.Minute)
}

func testData() dataMsg {
	return dataMsg{
		snapshot: &models.UsageSnapshot{
			FiveHour: models.WindowUsage{Utilization: 42.5, ResetsAt: time.Now().Add(2 * time.Hour)},
			SevenDay: models.WindowUsage{Utilization: 61.0},
		},
		forecast: &models.Forecast{
			Current: models.CurrentUsage{SessionUsed: 42.5, WeeklyUsed: 61.0},
			Recommendations: []models.Recommendation{
				{Severity: models.SeverityInfo, Message: "Usage is within healthy limits"},
			},
		},
		series: []float64{10, 20, 30, 42.5},
	}
}

func TestModel_Init(t *testing.T) {
	m := newTestModel(t)
	if m.Init() == nil {
		t.Error("Init returned nil")
	}
}

func TestModel_View_WaitingState(t *testing.T) {
	m := newTestModel(t)
	view := m.View()
	if !strings.Contains(view, "Waiting for first snapshot") {
		t.Errorf("Expected waiting placeholder, got %q", view)
	}
}

func TestModel_Update_Data(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(testData())
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "Current Usage") {
		t.Error("Expected usage section after data arrives")
	}
	if !strings.Contains(view, "42.5%") {
		t.Errorf("Expected session percentage rendered, got:\n%s", view)
	}
	if !strings.Contains(view, "Usage is within healthy limits") {
		t.Error("Expected recommendation rendered")
	}
	if !strings.Contains(view, "Trend") {
		t.Error("Expected trend section with enough series points")
	}
	if m.lastUpdated.IsZero() {
		t.Error("Expected last-updated timestamp set")
	}
}

func TestModel_Update_FetchErrorKeepsData(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(testData())
	m = updated.(Model)

	updated, _ = m.Update(dataMsg{err: errFake})
	m = updated.(Model)

	view := m.View()
	if !strings.Contains(view, "Fetch failed") {
		t.Error("Expected fetch error surfaced")
	}
	if !strings.Contains(view, "Showing last known data") {
		t.Error("Expected stale-data note")
	}
	if !strings.Contains(view, "42.5%") {
		t.Error("Expected previous snapshot still rendered")
	}
}

func TestModel_Update_Quit(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
	if cmd == nil {
		t.Fatal("Expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("Expected tea.Quit on q")
	}
}

func TestModel_Update_WindowSize(t *testing.T) {
	m := newTestModel(t)

	updated, _ := m.Update(tea.WindowSizeMsg{Width: 30, Height: 20})
	m = updated.(Model)
	if m.width != 30 {
		t.Errorf("Expected width 30, got %d", m.width)
	}

	updated, _ = m.Update(testData())
	m = updated.(Model)
	for _, line := range strings.Split(m.View(), "\n") {
		// Styled output may carry escape sequences; rough sanity check on
		// the plain-text lines only.
		if !strings.Contains(line, "\x1b") && len([]rune(line)) > 31 {
			t.Errorf("Line exceeds terminal width: %q", line)
		}
	}
}

var errFake = &fakeError{}

type fakeError struct{}

func (*fakeError) Error() string { return "connection refused" }
