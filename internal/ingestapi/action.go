package ingestapi

import (
	"context"
	"encoding/json"
	"net/http"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/linnemanlabs/triago/internal/card"
)

// actionRequest is a button click delivered by the chat-platform adapter.
type actionRequest struct {
	Action  string `json:"action"`
	Channel string `json:"channel"`
	CardID  string `json:"card_id"`
}

var knownActions = map[string]bool{
	card.ActionEscalate: true,
	card.ActionAck:      true,
	card.ActionLower:    true,
	card.ActionWhy:      true,
}

// handleAction acknowledges the click to the transport first, then posts the
// confirmation asynchronously. Repeat invocations re-post the same
// confirmation rather than erroring.
func (a *API) handleAction(w http.ResponseWriter, r *http.Request) {
	var req actionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid payload"}`, http.StatusBadRequest)
		return
	}
	if !knownActions[req.Action] {
		http.Error(w, `{"error":"unknown action"}`, http.StatusBadRequest)
		return
	}

	span := trace.SpanFromContext(r.Context())
	span.SetAttributes(
		attribute.String("triago.action", req.Action),
		attribute.String("triago.card.id", req.CardID),
	)

	channel := a.channelOr(req.Channel)

	// ack before any further processing
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	_ = json.NewEncoder(w).Encode(map[string]any{"ok": true})

	go func(ctx context.Context) {
		if err := a.actions.Handle(ctx, req.Action, req.CardID, channel); err != nil {
			a.logger.Error(ctx, err, "action handling failed", "action", req.Action, "card_id", req.CardID)
		}
	}(context.WithoutCancel(r.Context()))
}
