package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"

	"github.com/j-veylop/claude-watch/internal/logger"
)

// oauthTokenPattern matches the token alphabet Claude Code issues.
var oauthTokenPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{20,}$`)

// credentialsFile mirrors the on-disk layout written by Claude Code.
type credentialsFile struct {
	ClaudeAiOauth struct {
		AccessToken string `json:"accessToken"`
	} `json:"claudeAiOauth"`
}

// CredentialStore reads OAuth tokens from the locations Claude Code
// writes them to. On macOS the Keychain is tried first, then the
// credentials file under ~/.claude (or %APPDATA%\.claude on Windows).
// The CLAUDE_WATCH_TOKEN environment variable overrides both.
type CredentialStore struct {
	// Path overrides the default credentials file location when set.
	Path string
}

var _ TokenProvider = (*CredentialStore)(nil)

// CredentialsPath returns the platform-specific credentials file path.
func CredentialsPath() string {
	if runtime.GOOS == "windows" {
		if base := os.Getenv("APPDATA"); base != "" {
			return filepath.Join(base, ".claude", ".credentials.json")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".claude", ".credentials.json")
}

// Token returns a validated OAuth access token.
func (s *CredentialStore) Token() (string, error) {
	if token := os.Getenv("CLAUDE_WATCH_TOKEN"); token != "" {
		return token, validateToken(token)
	}

	path := s.Path
	if path == "" {
		if runtime.GOOS == "darwin" {
			if token, err := keychainToken(); err == nil && token != "" {
				return token, validateToken(token)
			}
		}
		path = CredentialsPath()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("credentials not found at %s; log in with Claude Code first", path)
		}
		return "", fmt.Errorf("reading credentials: %w", err)
	}

	var creds credentialsFile
	if err := json.Unmarshal(data, &creds); err != nil {
		return "", fmt.Errorf("parsing credentials file: %w", err)
	}
	token := creds.ClaudeAiOauth.AccessToken
	if token == "" {
		return "", errors.New("no access token found in credentials")
	}
	logger.Debug("loaded credentials", "path", path, "token", MaskToken(token))
	return token, validateToken(token)
}

// keychainToken pulls the Claude Code credentials blob out of the macOS
// Keychain via the security command.
func keychainToken() (string, error) {
	out, err := exec.Command("security", "find-generic-password", "-s", "Claude Code-credentials", "-w").Output()
	if err != nil {
		return "", err
	}
	var creds credentialsFile
	if err := json.Unmarshal([]byte(strings.TrimSpace(string(out))), &creds); err != nil {
		return "", err
	}
	return creds.ClaudeAiOauth.AccessToken, nil
}

func validateToken(token string) error {
	if len(token) < 20 {
		return errors.New("access token is too short")
	}
	if !oauthTokenPattern.MatchString(token) {
		return errors.New("access token contains invalid characters")
	}
	return nil
}

// MaskToken shortens a token for log output, keeping the first eight and
// last four characters.
func MaskToken(token string) string {
	if token == "" {
		return "<empty>"
	}
	if len(token) <= 12 {
		return strings.Repeat("*", len(token))
	}
	return token[:8] + "..." + token[len(token)-4:]
}
