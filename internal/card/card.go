// Package card renders triage verdicts as Slack Block Kit alert cards with
// the four human-response buttons. Rendering is pure and never fails; a
// verdict with no evidence renders an explicit placeholder and an unknown
// severity renders a generic marker.
package card

import (
	"fmt"
	"strings"

	"github.com/linnemanlabs/triago/internal/logparse"
	"github.com/linnemanlabs/triago/internal/triage"
)

// Block is one Slack Block Kit block.
type Block = map[string]any

// Action identifiers carried in button values. The ingest API routes these
// back to the action handlers.
const (
	ActionEscalate = "escalate"
	ActionAck      = "ack"
	ActionLower    = "lower"
	ActionWhy      = "why"
)

var sevEmoji = map[logparse.Severity]string{
	logparse.SevCritical: "\U0001f534", // red circle
	logparse.SevHigh:     "\U0001f7e0", // orange circle
	logparse.SevMedium:   "\U0001f7e1", // yellow circle
	logparse.SevLow:      "\U0001f7e2", // green circle
}

// Render builds the alert card for a verdict. The same verdict always
// produces a structurally identical card.
func Render(v *triage.Verdict) []Block {
	emoji, ok := sevEmoji[v.Severity]
	if !ok {
		emoji = "❗" // generic marker for unrecognized severity
	}
	header := fmt.Sprintf("%s TRIAGO – %s (conf %.2f)", emoji, strings.ToUpper(string(v.Severity)), v.Confidence)

	var actions []string
	for _, a := range v.RecommendedActions {
		actions = append(actions, "• "+a)
	}

	ev := "(no evidence)"
	if len(v.Evidence) > 0 {
		var lines []string
		for _, e := range v.Evidence {
			lines = append(lines, "– "+e)
		}
		ev = strings.Join(lines, "\n")
	}

	return []Block{
		{"type": "header", "text": Block{"type": "plain_text", "text": header}},
		{"type": "section", "text": Block{
			"type": "mrkdwn",
			"text": fmt.Sprintf("*Category:* `%s`\n*Summary:* %s", v.Category, v.Summary),
		}},
		{"type": "divider"},
		{"type": "section", "text": Block{
			"type": "mrkdwn",
			"text": "*Recommended actions:*\n" + strings.Join(actions, "\n"),
		}},
		{"type": "context", "elements": []Block{
			{"type": "mrkdwn", "text": "*Evidence:*\n" + ev},
		}},
		buttonsBlock(),
		{"type": "context", "elements": []Block{
			{"type": "mrkdwn", "text": fmt.Sprintf("Needs human review: *%t*", v.NeedsHumanReview)},
		}},
	}
}

// Nudge builds the help card posted when a mention carries neither a file
// nor inline log text.
func Nudge() []Block {
	return []Block{
		{"type": "section", "text": Block{
			"type": "mrkdwn",
			"text": "Send `@Triago log <lines>` or upload a log file to get a triage card.",
		}},
		buttonsBlock(),
	}
}

// buttonsBlock returns the fixed four-action row every card carries.
func buttonsBlock() Block {
	return Block{"type": "actions", "elements": []Block{
		button("\U0001f6a8 Escalate", ActionEscalate),
		button("\U0001f440 Acknowledge", ActionAck),
		button("⬇️ Lower severity", ActionLower),
		button("❓ Why?", ActionWhy),
	}}
}

func button(label, value string) Block {
	return Block{
		"type":      "button",
		"text":      Block{"type": "plain_text", "text": label},
		"value":     value,
		"action_id": "btn_" + value,
	}
}
