// Package actions drives the lifecycle of rendered alert cards through human
// responses. Escalate, acknowledge and lower-severity are independent,
// order-free, idempotent-in-effect annotations; why is a side query that
// posts a justification without touching card state.
package actions

import (
	"context"
	"fmt"
	"strings"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/triago/internal/card"
	"github.com/linnemanlabs/triago/internal/triage"
)

// Poster is the outbound transport for confirmations.
type Poster interface {
	PostText(ctx context.Context, channel, text string) error
}

// Handler processes card actions: record, then confirm to the channel.
type Handler struct {
	store  *Store
	poster Poster
	logger log.Logger
}

// NewHandler creates an action handler over the given store and transport.
func NewHandler(store *Store, poster Poster, logger log.Logger) *Handler {
	if logger == nil {
		logger = log.Nop()
	}
	return &Handler{store: store, poster: poster, logger: logger}
}

var confirmations = map[string]string{
	card.ActionEscalate: "\U0001f6a8 Escalation noted. Paging the on-call rotation.",
	card.ActionAck:      "\U0001f440 Acknowledged. Card marked as seen.",
	card.ActionLower:    "⬇️ Severity lowered. Verdict kept for audit.",
}

// Handle records the action and posts its confirmation. Repeating an action
// re-posts the same confirmation; it never errors on repeats. Unknown action
// names are rejected before anything is recorded.
func (h *Handler) Handle(ctx context.Context, action, cardID, channel string) error {
	if action == card.ActionWhy {
		return h.why(ctx, cardID, channel)
	}

	text, ok := confirmations[action]
	if !ok {
		return fmt.Errorf("actions: unknown action %q", action)
	}

	h.store.Append(cardID, action)
	h.logger.Info(ctx, "card action", "action", action, "card_id", cardID)

	if err := h.poster.PostText(ctx, channel, text); err != nil {
		return fmt.Errorf("actions: confirm %s: %w", action, err)
	}
	return nil
}

// why posts a short natural-language justification of the verdict, derived
// from the stored card. A card we no longer know gets an honest shrug.
func (h *Handler) why(ctx context.Context, cardID, channel string) error {
	rec, ok := h.store.Get(cardID)
	if !ok || rec.Verdict == nil {
		if err := h.poster.PostText(ctx, channel, "❓ I no longer have the verdict behind this card."); err != nil {
			return fmt.Errorf("actions: why: %w", err)
		}
		return nil
	}
	if err := h.poster.PostText(ctx, channel, Explain(rec.Verdict)); err != nil {
		return fmt.Errorf("actions: why: %w", err)
	}
	return nil
}

// Explain builds the justification text for a verdict.
func Explain(v *triage.Verdict) string {
	var b strings.Builder
	fmt.Fprintf(&b, "❓ *Why %s/%s:* %s.", strings.ToUpper(string(v.Severity)), v.Category, v.Summary)
	switch v.Tier {
	case triage.TierModel:
		b.WriteString(" Classified by the model backend from the log summary and retrieved evidence.")
	case triage.TierMock:
		b.WriteString(" Classified deterministically from detector counts; no model backend was used.")
	case triage.TierHeuristic:
		b.WriteString(" Derived directly from raw text after the full pipeline was unavailable.")
	}
	if len(v.Evidence) > 0 {
		fmt.Fprintf(&b, " Supporting evidence: %s", strings.Join(v.Evidence, "; "))
	}
	fmt.Fprintf(&b, " (confidence %.2f)", v.Confidence)
	return b.String()
}
