// Package config contains everything related to configuration
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	HistoryPath     string
	CachePath       string
	NotifyStatePath string
	ArchivePath     string
	LogPath         string

	CacheTTL        time.Duration
	RetentionDays   int
	RefreshInterval time.Duration
	LookbackHours   int

	Thresholds []int

	WebhookURL    string
	WebhookSecret string

	MetricsAddr string
}

// Default values
const (
	defaultCacheTTL        = 60 * time.Second
	defaultRetentionDays   = 180
	defaultRefreshInterval = 60 * time.Second
	defaultLookbackHours   = 4
	defaultMetricsAddr     = "127.0.0.1:9845"
)

var defaultThresholds = []int{80, 90, 95}

// Load reads configuration from .env files and environment variables.
// Invalid values fall back to defaults; Validate reports them afterwards.
func Load() (*Config, error) {
	for _, path := range envPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	dataDir := defaultDataDir()

	cfg := &Config{
		HistoryPath:     getEnvString("CLAUDE_WATCH_HISTORY_PATH", filepath.Join(dataDir, ".usage_history.json")),
		CachePath:       getEnvString("CLAUDE_WATCH_CACHE_PATH", filepath.Join(dataDir, ".usage_cache.json")),
		NotifyStatePath: getEnvString("CLAUDE_WATCH_NOTIFY_STATE_PATH", filepath.Join(dataDir, ".notify_state.json")),
		ArchivePath:     getEnvString("CLAUDE_WATCH_ARCHIVE_PATH", filepath.Join(dataDir, "usage_archive.db")),
		LogPath:         getEnvString("CLAUDE_WATCH_LOG_PATH", filepath.Join(dataDir, "claude-watch.log")),
		CacheTTL:        getEnvSeconds("CLAUDE_WATCH_CACHE_TTL", defaultCacheTTL),
		RetentionDays:   getEnvInt("CLAUDE_WATCH_HISTORY_DAYS", defaultRetentionDays),
		RefreshInterval: getEnvDuration("CLAUDE_WATCH_REFRESH_INTERVAL", defaultRefreshInterval),
		LookbackHours:   getEnvInt("CLAUDE_WATCH_LOOKBACK_HOURS", defaultLookbackHours),
		Thresholds:      getEnvThresholds("CLAUDE_WATCH_THRESHOLDS", defaultThresholds),
		WebhookURL:      getEnvString("CLAUDE_WATCH_WEBHOOK_URL", ""),
		WebhookSecret:   getEnvString("CLAUDE_WATCH_WEBHOOK_SECRET", ""),
		MetricsAddr:     getEnvString("CLAUDE_WATCH_METRICS_ADDR", defaultMetricsAddr),
	}

	if err := ensureDir(filepath.Dir(cfg.HistoryPath)); err != nil {
		return nil, err
	}
	if err := ensureDir(filepath.Dir(cfg.ArchivePath)); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration and returns human-readable problems.
// Callers are expected to warn and continue; invalid fields are reset to
// their defaults here rather than aborting.
func (c *Config) Validate() []string {
	var problems []string

	if c.CacheTTL <= 0 {
		problems = append(problems, fmt.Sprintf("cache TTL must be positive, got %s; using %s", c.CacheTTL, defaultCacheTTL))
		c.CacheTTL = defaultCacheTTL
	}
	if c.RetentionDays <= 0 {
		problems = append(problems, fmt.Sprintf("history retention must be positive, got %d days; using %d", c.RetentionDays, defaultRetentionDays))
		c.RetentionDays = defaultRetentionDays
	}
	if c.RefreshInterval < time.Second {
		problems = append(problems, fmt.Sprintf("refresh interval %s is below 1s; using %s", c.RefreshInterval, defaultRefreshInterval))
		c.RefreshInterval = defaultRefreshInterval
	}
	if c.LookbackHours <= 0 {
		problems = append(problems, fmt.Sprintf("lookback hours must be positive, got %d; using %d", c.LookbackHours, defaultLookbackHours))
		c.LookbackHours = defaultLookbackHours
	}
	if len(c.Thresholds) == 0 {
		problems = append(problems, "no notification thresholds configured; using 80,90,95")
		c.Thresholds = append([]int(nil), defaultThresholds...)
	}
	for _, t := range c.Thresholds {
		if t < 1 || t > 100 {
			problems = append(problems, fmt.Sprintf("threshold %d%% is outside 1-100; using 80,90,95", t))
			c.Thresholds = append([]int(nil), defaultThresholds...)
			break
		}
	}
	sort.Ints(c.Thresholds)
	if c.WebhookURL != "" && !strings.HasPrefix(c.WebhookURL, "http") {
		problems = append(problems, fmt.Sprintf("webhook URL %q is not an HTTP/HTTPS URL; webhooks disabled", c.WebhookURL))
		c.WebhookURL = ""
	}

	return problems
}

// envPaths returns a list of paths to check for .env files.
func envPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", "claude-watch", ".env"),
			filepath.Join(home, ".claude", ".env"),
		)
	}

	return paths
}

// defaultDataDir returns the directory holding persisted state, shared with
// the Claude Code credential store.
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".claude")
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt retrieves an integer environment variable or returns the default.
// Unparseable values silently fall back to the default.
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}

// getEnvSeconds retrieves a duration expressed as an integer number of
// seconds, or returns the default on parse failure.
func getEnvSeconds(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the
// default. Accepts values like "30s", "1m", or bare seconds.
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvThresholds parses a comma-separated list of integer percentages.
func getEnvThresholds(key string, defaultValue []int) []int {
	value := os.Getenv(key)
	if value == "" {
		return append([]int(nil), defaultValue...)
	}
	var out []int
	for _, part := range strings.Split(value, ",") {
		n, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			return append([]int(nil), defaultValue...)
		}
		out = append(out, n)
	}
	return out
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
