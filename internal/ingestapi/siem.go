package ingestapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/oklog/ulid/v2"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/triago/internal/card"
)

// siemEvent is the webhook body pushed by SIEM/forwarder integrations.
// Every field is optional; text derivation is best-effort.
type siemEvent struct {
	Source   string         `json:"source"`
	Severity string         `json:"severity"`
	Rule     string         `json:"rule"`
	Message  string         `json:"message"`
	Raw      map[string]any `json:"raw"`
	Lines    []string       `json:"lines"`
}

func (a *API) handleSIEM(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, `{"error":"read body"}`, http.StatusBadRequest)
		return
	}

	// An empty or unusable body still gets a best-effort card; the mock and
	// heuristic tiers handle empty text. Only authorization failures reject.
	cardID := a.triageAndPost(r.Context(), a.defaultChannel, deriveText(body))

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(attribute.String("triago.card.id", cardID))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":      true,
		"card_id": cardID,
	})
}

// deriveText extracts triageable text from a webhook body, in priority
// order: lines joined by newline, message, raw.message, raw.log, the raw
// object stringified, the whole body stringified. A malformed body degrades
// to treating its bytes as the text rather than rejecting.
func deriveText(body []byte) string {
	var evt siemEvent
	if err := json.Unmarshal(body, &evt); err != nil {
		return string(body)
	}

	switch {
	case len(evt.Lines) > 0:
		return strings.Join(evt.Lines, "\n")
	case evt.Message != "":
		return evt.Message
	case evt.Raw != nil:
		if s, ok := evt.Raw["message"].(string); ok && s != "" {
			return s
		}
		if s, ok := evt.Raw["log"].(string); ok && s != "" {
			return s
		}
		return fmt.Sprintf("%v", evt.Raw)
	default:
		return string(body)
	}
}

// triageAndPost runs the pipeline over text, registers the card, and posts
// it. Post failures are logged and dropped; the card ID is returned either way.
func (a *API) triageAndPost(ctx context.Context, channel, text string) string {
	v := a.pipeline.Run(ctx, text)

	cardID := ulid.Make().String()
	if a.store != nil {
		a.store.Put(cardID, channel, v)
	}

	if err := a.poster.PostCard(ctx, channel, fallbackText, card.Render(v)); err != nil {
		a.logger.Error(ctx, err, "failed to post card", "card_id", cardID, "channel", channel)
	}
	return cardID
}
