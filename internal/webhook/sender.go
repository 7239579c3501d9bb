// Package webhook delivers threshold-breach notifications to Slack,
// Discord, or generic HTTP endpoints.
package webhook

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/j-veylop/claude-watch/internal/logger"
	"github.com/j-veylop/claude-watch/internal/notify"
	"github.com/j-veylop/claude-watch/internal/retry"
	"github.com/j-veylop/claude-watch/internal/version"
)

// Kind identifies the webhook payload format.
type Kind string

const (
	KindSlack   Kind = "slack"
	KindDiscord Kind = "discord"
	KindGeneric Kind = "generic"
)

// DetectKind guesses the payload format from the URL.
func DetectKind(url string) Kind {
	lower := strings.ToLower(url)
	if strings.Contains(lower, "hooks.slack.com") {
		return KindSlack
	}
	if strings.Contains(lower, "discord.com/api/webhooks") ||
		strings.Contains(lower, "discordapp.com/api/webhooks") {
		return KindDiscord
	}
	return KindGeneric
}

// Sender posts notifications to a webhook URL. It implements notify.Sink.
type Sender struct {
	url        string
	secret     string
	kind       Kind
	httpClient *http.Client
}

// NewSender creates a sender. The payload format is auto-detected from the
// URL. secret enables HMAC-SHA256 signing of generic payloads.
func NewSender(url, secret string) *Sender {
	return &Sender{
		url:        url,
		secret:     secret,
		kind:       DetectKind(url),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

var _ notify.Sink = (*Sender)(nil)

// Send posts the notification, retrying transient failures.
func (s *Sender) Send(n notify.Notification) bool {
	payload, err := s.payload(n)
	if err != nil {
		logger.Error("failed to encode webhook payload", "error", err)
		return false
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	_, err = retry.Do(ctx, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, s.post(ctx, payload)
	}, retry.Options{})
	if err != nil {
		logger.Error("webhook delivery failed", "url", s.url, "error", err)
		return false
	}
	return true
}

func (s *Sender) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", version.UserAgent())

	if s.secret != "" && s.kind == KindGeneric {
		mac := hmac.New(sha256.New, []byte(s.secret))
		mac.Write(payload)
		req.Header.Set("X-Claude-Watch-Signature", "sha256="+hex.EncodeToString(mac.Sum(nil)))
		req.Header.Set("X-Claude-Watch-Timestamp", strconv.FormatInt(time.Now().Unix(), 10))
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("webhook request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &httpStatusError{code: resp.StatusCode}
	}
	return nil
}

// httpStatusError lets the retry layer classify webhook HTTP failures.
type httpStatusError struct {
	code int
}

func (e *httpStatusError) Error() string {
	return fmt.Sprintf("webhook returned status %d", e.code)
}

func (e *httpStatusError) StatusCode() int { return e.code }

func (s *Sender) payload(n notify.Notification) ([]byte, error) {
	switch s.kind {
	case KindSlack:
		return json.Marshal(slackPayload(n))
	case KindDiscord:
		return json.Marshal(discordPayload(n))
	default:
		return json.Marshal(genericPayload(n))
	}
}

func genericPayload(n notify.Notification) map[string]any {
	return map[string]any{
		"event":              "threshold_breach",
		"timestamp":          time.Now().UTC().Format(time.RFC3339),
		"threshold_breached": n.Threshold,
		"usage": map[string]any{
			"session": map[string]any{"utilization": n.Session},
			"weekly":  map[string]any{"utilization": n.Weekly},
		},
		"source": "claude-watch",
	}
}

func slackPayload(n notify.Notification) map[string]any {
	color, emoji := "#FFCC00", ":bell:"
	switch n.Urgency {
	case notify.UrgencyCritical:
		color, emoji = "#FF0000", ":rotating_light:"
	case notify.UrgencyHigh:
		color, emoji = "#FF6600", ":warning:"
	}

	return map[string]any{
		"attachments": []any{map[string]any{
			"color": color,
			"blocks": []any{
				map[string]any{
					"type": "header",
					"text": map[string]any{
						"type":  "plain_text",
						"text":  fmt.Sprintf("%s %s (%d%% threshold breached)", emoji, n.Title, n.Threshold),
						"emoji": true,
					},
				},
				map[string]any{
					"type": "section",
					"fields": []any{
						map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Session Usage:*\n%.1f%%", n.Session)},
						map[string]any{"type": "mrkdwn", "text": fmt.Sprintf("*Weekly Usage:*\n%.1f%%", n.Weekly)},
					},
				},
			},
		}},
	}
}

func discordPayload(n notify.Notification) map[string]any {
	color := 0xFFCC00
	switch n.Urgency {
	case notify.UrgencyCritical:
		color = 0xFF0000
	case notify.UrgencyHigh:
		color = 0xFF6600
	}

	return map[string]any{
		"embeds": []any{map[string]any{
			"title":       n.Title,
			"description": fmt.Sprintf("**%d%%** threshold breached", n.Threshold),
			"color":       color,
			"fields": []any{
				map[string]any{"name": "Session Usage", "value": fmt.Sprintf("%.1f%%", n.Session), "inline": true},
				map[string]any{"name": "Weekly Usage", "value": fmt.Sprintf("%.1f%%", n.Weekly), "inline": true},
			},
			"footer":    map[string]any{"text": "claude-watch"},
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}},
	}
}
