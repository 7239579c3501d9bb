// Package watch implements the live terminal dashboard.
package watch

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/j-veylop/claude-watch/internal/collector"
	"github.com/j-veylop/claude-watch/internal/logger"
	"github.com/j-veylop/claude-watch/internal/models"
	"github.com/j-veylop/claude-watch/internal/stats"
)

type (
	tickMsg time.Time

	dataMsg struct {
		snapshot *models.UsageSnapshot
		forecast *models.Forecast
		series   []float64
		err      error
	}

	historyChangedMsg struct{}
)

// Model is the Bubble Tea model for the watch dashboard.
type Model struct {
	collector *collector.Collector
	interval  time.Duration

	width  int
	height int

	snapshot    *models.UsageSnapshot
	forecast    *models.Forecast
	series      []float64
	lastUpdated time.Time
	fetchErr    error
	refreshing  bool

	sessionBar progress.Model
	weeklyBar  progress.Model
	spin       spinner.Model

	watcher *fsnotify.Watcher
}

// New creates the dashboard model. A watcher on the history file keeps the
// view current when a separate collector process is doing the fetching.
func New(col *collector.Collector, interval time.Duration) Model {
	newBar := func() progress.Model {
		return progress.New(
			progress.WithScaledGradient("#51cf66", "#ff6b6b"),
			progress.WithWidth(30),
			progress.WithoutPercentage(),
		)
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot

	m := Model{
		collector:  col,
		interval:   interval,
		sessionBar: newBar(),
		weeklyBar:  newBar(),
		spin:       sp,
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warn("history watch unavailable", "error", err)
		return m
	}
	if err := watcher.Add(col.History().Path()); err != nil {
		// The file may not exist until the first sample lands.
		logger.Debug("history file not watchable yet", "error", err)
		_ = watcher.Close()
		return m
	}
	m.watcher = watcher
	return m
}

// Init starts the refresh loop.
func (m Model) Init() tea.Cmd {
	return tea.Batch(m.refreshCmd(), m.tickCmd(), m.watchCmd(), m.spin.Tick)
}

// Update handles messages.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			if m.watcher != nil {
				_ = m.watcher.Close()
			}
			return m, tea.Quit
		case "r":
			if !m.refreshing {
				m.refreshing = true
				return m, m.refreshCmd()
			}
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		cmds := []tea.Cmd{m.tickCmd()}
		if !m.refreshing {
			m.refreshing = true
			cmds = append(cmds, m.refreshCmd())
		}
		return m, tea.Batch(cmds...)

	case dataMsg:
		m.refreshing = false
		m.fetchErr = msg.err
		if msg.snapshot != nil {
			m.snapshot = msg.snapshot
			m.forecast = msg.forecast
			m.series = msg.series
			m.lastUpdated = time.Now()
		}

	case historyChangedMsg:
		// Another process wrote a sample; recompute the read side without
		// a network fetch.
		if m.snapshot != nil {
			m.forecast = m.collector.Forecast(m.snapshot)
			m.series = sessionSeries(m.collector)
		}
		return m, m.watchCmd()

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m Model) tickCmd() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) refreshCmd() tea.Cmd {
	col := m.collector
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
		defer cancel()

		snapshot, err := col.Cycle(ctx, false)
		if err != nil {
			return dataMsg{err: err}
		}
		return dataMsg{
			snapshot: snapshot,
			forecast: col.Forecast(snapshot),
			series:   sessionSeries(col),
		}
	}
}

func (m Model) watchCmd() tea.Cmd {
	if m.watcher == nil {
		return nil
	}
	watcher := m.watcher
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-watcher.Events:
				if !ok {
					return nil
				}
				if ev.Op.Has(fsnotify.Write) || ev.Op.Has(fsnotify.Create) {
					return historyChangedMsg{}
				}
			case err, ok := <-watcher.Errors:
				if !ok {
					return nil
				}
				logger.Debug("history watch error", "error", err)
			}
		}
	}
}

func sessionSeries(col *collector.Collector) []float64 {
	period := stats.Period(col.History().Load(), 24, models.FieldFiveHour)
	return period.Values
}
