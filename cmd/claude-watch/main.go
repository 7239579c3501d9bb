// Package main is the entry point for the claude-watch command.
// It wires configuration, the API client, and storage together, then
// dispatches to one of the subcommands (TUI, one-shot reports, daemon).
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/j-veylop/claude-watch/internal/api"
	"github.com/j-veylop/claude-watch/internal/archive"
	"github.com/j-veylop/claude-watch/internal/cache"
	"github.com/j-veylop/claude-watch/internal/collector"
	"github.com/j-veylop/claude-watch/internal/config"
	"github.com/j-veylop/claude-watch/internal/history"
	"github.com/j-veylop/claude-watch/internal/logger"
	"github.com/j-veylop/claude-watch/internal/metrics"
	"github.com/j-veylop/claude-watch/internal/models"
	"github.com/j-veylop/claude-watch/internal/notify"
	"github.com/j-veylop/claude-watch/internal/stats"
	"github.com/j-veylop/claude-watch/internal/ui/watch"
	"github.com/j-veylop/claude-watch/internal/version"
	"github.com/j-veylop/claude-watch/internal/webhook"
)

func main() {
	cmd := "watch"
	args := os.Args[1:]
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	switch cmd {
	case "-v", "--version", "version":
		fmt.Println(version.Info())
		return
	case "-h", "--help", "help":
		printUsage()
		return
	}

	if err := run(cmd, args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run contains the main application logic, separated for cleaner error handling.
func run(cmd string, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	for _, problem := range cfg.Validate() {
		fmt.Fprintf(os.Stderr, "Warning: %s\n", problem)
	}

	app, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer app.Close()

	switch cmd {
	case "watch":
		return app.runWatch()
	case "forecast":
		jsonOut := hasFlag(args, "--json")
		return app.runForecast(jsonOut)
	case "stats":
		return app.runStats()
	case "check":
		return app.runCheck()
	case "daemon":
		return app.runDaemon()
	case "serve":
		return app.runServe()
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// app bundles the long-lived collaborators every subcommand needs.
type app struct {
	cfg       *config.Config
	collector *collector.Collector
	store     *history.Store
	archive   *archive.DB
}

func newApp(cfg *config.Config) (*app, error) {
	client := api.NewClient(&api.CredentialStore{})
	store := history.New(cfg.HistoryPath, cfg.RetentionDays)
	usageCache := cache.New(cfg.CachePath)

	db, err := archive.New(cfg.ArchivePath)
	if err != nil {
		// The JSON history is the durable record; the archive only adds
		// long-horizon reporting, so a broken database is not fatal.
		logger.Error("failed to open usage archive", "path", cfg.ArchivePath, "error", err)
		db = nil
	}
	if db != nil {
		cutoff := time.Now().AddDate(0, 0, -cfg.RetentionDays)
		if pruned, err := db.PruneBefore(cutoff); err != nil {
			logger.Error("failed to prune usage archive", "error", err)
		} else if pruned > 0 {
			logger.Info("pruned archive buckets", "count", pruned, "cutoff", cutoff.Format(time.DateOnly))
		}
	}

	sinks := notify.Fanout{notify.DesktopSink{}}
	if cfg.WebhookURL != "" {
		sinks = append(sinks, webhook.NewSender(cfg.WebhookURL, cfg.WebhookSecret))
	}
	engine := notify.NewEngine(cfg.NotifyStatePath, sinks)

	opts := collector.Options{
		Engine:     engine,
		Thresholds: cfg.Thresholds,
	}
	if db != nil {
		opts.Archive = db
	}

	return &app{
		cfg:       cfg,
		collector: collector.New(client, usageCache, store, cfg.CacheTTL, cfg.LookbackHours, opts),
		store:     store,
		archive:   db,
	}, nil
}

func (a *app) Close() {
	if a.archive != nil {
		if err := a.archive.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: error closing archive: %v\n", err)
		}
	}
}

// runWatch starts the full-screen TUI.
func (a *app) runWatch() error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	p := tea.NewProgram(
		watch.New(a.collector, a.cfg.RefreshInterval),
		tea.WithAltScreen(),
	)

	go func() {
		<-sigChan
		p.Send(tea.Quit())
	}()

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}
	return nil
}

// runForecast prints a one-shot forecast, as text or JSON.
func (a *app) runForecast(jsonOut bool) error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snapshot, err := a.collector.Cycle(ctx, false)
	if err != nil {
		return err
	}
	fc := a.collector.Forecast(snapshot)

	if jsonOut {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(fc)
	}

	printForecast(fc)
	return nil
}

func printForecast(fc *models.Forecast) {
	fmt.Printf("Session: %.1f%% used, %.1f%% remaining\n", fc.Current.SessionUsed, fc.Current.SessionRemaining)
	fmt.Printf("Weekly:  %.1f%% used, %.1f%% remaining\n", fc.Current.WeeklyUsed, fc.Current.WeeklyRemaining)

	if s := fc.Session; s != nil {
		fmt.Printf("\nSession rate: %.1f%%/hour (%s data)\n", s.RatePerHour, s.DataQuality)
		if s.HoursToLimit != nil {
			fmt.Printf("Time to session limit: %.1fh", *s.HoursToLimit)
			if s.HoursConservative != nil && s.HoursOptimistic != nil {
				fmt.Printf(" (%.1fh-%.1fh)", *s.HoursConservative, *s.HoursOptimistic)
			}
			fmt.Println()
		} else {
			fmt.Println("Session limit not reached at current rate")
		}
	}

	if w := fc.Weekly; w != nil {
		fmt.Printf("\nDaily rate: %.1f%%/day\n", w.DailyRate)
		fmt.Printf("Projected end of week: %.1f%%", w.WeeklyProjection)
		if w.OnTrack {
			fmt.Println(" (on track)")
		} else {
			fmt.Println(" (over budget)")
		}
		if w.DaysToLimit != nil {
			fmt.Printf("Days to weekly limit: %.1f\n", *w.DaysToLimit)
		}
	}

	fmt.Println()
	for _, r := range fc.Recommendations {
		fmt.Printf("[%s] %s\n", r.Severity, r.Message)
	}
}

// runStats prints usage statistics from the recorded history.
func (a *app) runStats() error {
	entries := a.store.Load()
	if len(entries) == 0 {
		fmt.Println("No usage history recorded yet. Run claude-watch to start collecting.")
		return nil
	}

	for _, period := range []struct {
		label string
		hours int
	}{
		{"Last 24 hours", 24},
		{"Last 7 days", 7 * 24},
		{"Last 30 days", 30 * 24},
	} {
		ps := stats.Period(entries, period.hours, models.FieldFiveHour)
		if ps.Count == 0 {
			continue
		}
		fmt.Printf("%s (%d samples)\n", period.label, ps.Count)
		fmt.Printf("  min %.1f%%  max %.1f%%  avg %.1f%%  now %.1f%%\n", ps.Min, ps.Max, ps.Avg, ps.Current)
		fmt.Printf("  %s\n\n", stats.Sparkline(ps.Values, 40))
	}

	peaks := stats.DailyPeaks(entries, models.FieldFiveHour)
	if peaks.PeakDay != "" {
		fmt.Printf("Busiest day:  %s (avg %.1f%%)\n", peaks.PeakDay, peaks.PeakDayAvg)
	}
	if peaks.PeakHour >= 0 {
		fmt.Printf("Busiest hour: %02d:00 (avg %.1f%%)\n", peaks.PeakHour, peaks.PeakHourAvg)
	}

	printHeatmap(entries)
	a.printArchiveStats()
	return nil
}

// heatRamp shades a heatmap cell by quartile of utilization.
var heatRamp = []rune("░▒▓█")

func printHeatmap(entries []models.HistoryEntry) {
	hm := stats.BuildHeatmap(entries, models.FieldFiveHour)

	sampled := false
	for d := 0; d < 7 && !sampled; d++ {
		for h := 0; h < 24; h++ {
			if hm.Count[d][h] > 0 {
				sampled = true
				break
			}
		}
	}
	if !sampled {
		return
	}

	fmt.Println("\nActivity heatmap (hours 00-23):")
	for d := 0; d < 7; d++ {
		row := make([]rune, 24)
		for h := 0; h < 24; h++ {
			if hm.Count[d][h] == 0 {
				row[h] = '·'
				continue
			}
			idx := int(hm.Avg[d][h] / 25)
			if idx >= len(heatRamp) {
				idx = len(heatRamp) - 1
			}
			row[h] = heatRamp[idx]
		}
		fmt.Printf("  %s %s\n", time.Weekday(d).String()[:3], string(row))
	}
}

// printArchiveStats reports long-horizon patterns from the SQLite archive.
// The archive accumulates 5-minute buckets beyond the JSON history window,
// so it is the only source for month-scale trends.
func (a *app) printArchiveStats() {
	if a.archive == nil {
		return
	}

	times, fiveHour, _, err := a.archive.Series(30)
	if err != nil || len(fiveHour) == 0 {
		return
	}
	fmt.Printf("\nArchive, last 30 days (%d buckets since %s)\n",
		len(fiveHour), times[0].Local().Format("Jan 2"))
	fmt.Printf("  %s\n", stats.Sparkline(fiveHour, 40))

	if patterns, err := a.archive.WeekdayPatterns(); err == nil && len(patterns) > 0 {
		fmt.Println("  By weekday:")
		for _, p := range patterns {
			fmt.Printf("    %s  session %.1f%%  weekly %.1f%%  (%d buckets)\n",
				time.Weekday(p.DayOfWeek).String()[:3], p.FiveHourAvg, p.SevenDayAvg, p.Occurrences)
		}
	}
	if patterns, err := a.archive.HourlyPatterns(); err == nil && len(patterns) > 0 {
		values := make([]float64, 24)
		for _, p := range patterns {
			values[p.Hour] = p.FiveHourAvg
		}
		fmt.Printf("  By hour (00-23): %s\n", stats.Sparkline(values, 24))
	}
}

// runCheck performs a single fetch-and-notify cycle, for cron use.
func (a *app) runCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	snapshot, err := a.collector.Cycle(ctx, false)
	if err != nil {
		return err
	}
	fmt.Printf("Session %.1f%%, weekly %.1f%%\n", snapshot.SessionUtilization(), snapshot.WeeklyUtilization())
	return nil
}

// runDaemon runs the collect loop in the foreground until signalled,
// logging to the configured log file.
func (a *app) runDaemon() error {
	logger.UseFile(a.cfg.LogPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info("daemon starting", "version", version.Version, "interval", a.cfg.RefreshInterval)
	err := a.collector.Run(ctx, a.cfg.RefreshInterval)
	logger.Info("daemon stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// runServe runs the collect loop with the Prometheus exporter attached.
func (a *app) runServe() error {
	logger.UseFile(a.cfg.LogPath)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := metrics.NewServer(a.cfg.MetricsAddr)
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()
	logger.Info("metrics exporter listening", "addr", a.cfg.MetricsAddr)

	collectErr := a.collector.Run(ctx, a.cfg.RefreshInterval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
	if err := <-errCh; err != nil {
		return err
	}
	if errors.Is(collectErr, context.Canceled) {
		return nil
	}
	return collectErr
}

func hasFlag(args []string, name string) bool {
	for _, a := range args {
		if a == name {
			return true
		}
	}
	return false
}

// printUsage prints the command-line usage information.
func printUsage() {
	fmt.Println(`claude-watch - Claude usage monitor with forecasting and notifications

Usage:
  claude-watch [command]

Commands:
  watch       Full-screen usage dashboard (default)
  forecast    Print a usage forecast (--json for machine output)
  stats       Print usage statistics from recorded history
  check       Fetch once, record history, and fire threshold notifications
  daemon      Run the collector loop in the foreground
  serve       Run the collector loop with a Prometheus /metrics endpoint
  version     Show version information

Flags:
  -h, --help      Show this help message
  -v, --version   Show version information

Keyboard Shortcuts (watch):
  r               Refresh data
  q, Ctrl+C       Quit

Environment Variables:
  CLAUDE_WATCH_TOKEN             OAuth token override (default: Claude Code credentials)
  CLAUDE_WATCH_CACHE_TTL         Cache freshness window in seconds (default: 60)
  CLAUDE_WATCH_HISTORY_DAYS      History retention in days (default: 180)
  CLAUDE_WATCH_REFRESH_INTERVAL  Poll interval (default: 60s)
  CLAUDE_WATCH_THRESHOLDS        Notification thresholds (default: 80,90,95)
  CLAUDE_WATCH_WEBHOOK_URL       Slack/Discord/generic webhook for notifications
  CLAUDE_WATCH_METRICS_ADDR      Prometheus exporter address (default: 127.0.0.1:9845)

Configuration:
  The application looks for .env files in the following locations:
  - Current directory
  - ~/.config/claude-watch/.env
  - ~/.claude/.env`)
}
