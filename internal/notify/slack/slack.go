// Package slack posts triage cards and confirmations via the Slack Web API.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/linnemanlabs/go-core/log"
)

const (
	defaultAPIURL = "https://slack.com/api/chat.postMessage"
	httpTimeout   = 10 * time.Second
)

// Poster sends messages to Slack channels with the configured bot token.
type Poster struct {
	token  string
	apiURL string
	client *http.Client
	logger log.Logger
}

// New creates a new Poster. If token is empty, posts are no-ops.
func New(token string, logger log.Logger) *Poster {
	if logger == nil {
		logger = log.Nop()
	}
	return &Poster{
		token:  token,
		apiURL: defaultAPIURL,
		client: &http.Client{Timeout: httpTimeout},
		logger: logger,
	}
}

type postMessage struct {
	Channel string           `json:"channel"`
	Text    string           `json:"text,omitempty"`
	Blocks  []map[string]any `json:"blocks,omitempty"`
}

type apiResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error,omitempty"`
}

// PostCard posts a block card to the channel. On failure it retries once as
// a plain-text message before giving up; the caller logs and drops the
// returned error, per the accepted-event policy.
func (p *Poster) PostCard(ctx context.Context, channel, fallbackText string, blocks []map[string]any) error {
	if p.token == "" {
		return nil
	}

	err := p.post(ctx, postMessage{Channel: channel, Text: fallbackText, Blocks: blocks})
	if err == nil {
		return nil
	}
	p.logger.Warn(ctx, "card post failed, retrying as plain text", "channel", channel, "error", err)

	if err := p.post(ctx, postMessage{Channel: channel, Text: fallbackText}); err != nil {
		return fmt.Errorf("slack: plain-text fallback: %w", err)
	}
	return nil
}

// PostText posts a plain-text message, used for action confirmations.
func (p *Poster) PostText(ctx context.Context, channel, text string) error {
	if p.token == "" {
		return nil
	}
	return p.post(ctx, postMessage{Channel: channel, Text: text})
}

func (p *Poster) post(ctx context.Context, msg postMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("slack: marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.apiURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.token)

	resp, err := p.client.Do(req) //nolint:gosec // G704: apiURL is from trusted config, not user input
	if err != nil {
		return fmt.Errorf("slack: post message: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("slack: api returned %d: %s", resp.StatusCode, string(respBody))
	}

	var out apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return fmt.Errorf("slack: decode response: %w", err)
	}
	if !out.OK {
		return fmt.Errorf("slack: api error: %s", out.Error)
	}
	return nil
}
