package ingestapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/linnemanlabs/triago/internal/card"
)

// logTokenRe locates the "log" keyword case-insensitively; matching by byte
// offset on the original text avoids case folds that change byte length.
var logTokenRe = regexp.MustCompile(`(?i)log`)

// chatEvent is a mention delivered by the chat-platform adapter: free text
// plus an optional attached file to download.
type chatEvent struct {
	Channel string `json:"channel"`
	Text    string `json:"text"`
	FileURL string `json:"file_url"`
}

func (a *API) handleEvent(w http.ResponseWriter, r *http.Request) {
	var evt chatEvent
	if err := json.NewDecoder(r.Body).Decode(&evt); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	channel := a.channelOr(evt.Channel)
	ctx := r.Context()

	var resp map[string]any

	switch {
	case evt.FileURL != "":
		content, err := a.fetchFile(ctx, evt.FileURL)
		if err != nil {
			a.logger.Error(ctx, err, "file fetch failed", "channel", channel)
			if perr := a.poster.PostText(ctx, channel, "⚠️ Could not build the triage card."); perr != nil {
				a.logger.Error(ctx, perr, "apology post failed", "channel", channel)
			}
			resp = map[string]any{"ok": false}
			break
		}
		resp = map[string]any{"ok": true, "card_id": a.triageAndPost(ctx, channel, content)}

	case logTokenRe.MatchString(evt.Text):
		// triage everything after the first "log" token
		loc := logTokenRe.FindStringIndex(evt.Text)
		payload := strings.TrimSpace(evt.Text[loc[1]:])
		if payload != "" {
			resp = map[string]any{"ok": true, "card_id": a.triageAndPost(ctx, channel, payload)}
			break
		}
		fallthrough

	default:
		if err := a.poster.PostCard(ctx, channel, fallbackText, card.Nudge()); err != nil {
			a.logger.Error(ctx, err, "nudge post failed", "channel", channel)
		}
		resp = map[string]any{"ok": true, "nudged": true}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(resp)
}

// fetchFile downloads an attached file with the bot token, bounded by the
// fetch client's timeout.
func (a *API) fetchFile(ctx context.Context, url string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", fmt.Errorf("ingestapi: create file request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+a.botToken)

	resp, err := a.fetchClient.Do(req) //nolint:gosec // G704: url comes from the chat platform event, scoped by the bot token
	if err != nil {
		return "", fmt.Errorf("ingestapi: fetch file: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ingestapi: file fetch returned %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1024*1024))
	if err != nil {
		return "", fmt.Errorf("ingestapi: read file: %w", err)
	}
	return string(data), nil
}
