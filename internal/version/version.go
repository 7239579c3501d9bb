// Package version provides build version information.
package version

import "fmt"

// Set via -ldflags at build time.
var (
	Version = "dev"
	Commit  = "unknown"
	Date    = "unknown"
)

// Info returns a human-readable version string.
func Info() string {
	return fmt.Sprintf("claude-watch %s (commit %s, built %s)", Version, Commit, Date)
}

// UserAgent returns the User-Agent header value for API requests.
func UserAgent() string {
	return "claude-watch/" + Version
}
