package triage

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"

	"github.com/linnemanlabs/triago/internal/logparse"
)

// Input carries everything a classifier tier needs about one log block.
type Input struct {
	Summary  string
	Baseline logparse.Severity
	Evidence []string
}

// Classifier is one strategy in the ordered fallback chain. A tier that
// cannot produce a trustworthy verdict returns an error and the orchestrator
// falls through to the next tier.
type Classifier interface {
	Name() Tier
	Classify(ctx context.Context, in *Input) (*Verdict, error)
}

// ChatProvider is the interface for the live classification backend.
type ChatProvider interface {
	Chat(ctx context.Context, preamble, message string) (string, error)
}

const systemPrompt = "You are a security triage assistant. " +
	"Only use provided log summary and evidence. " +
	"Return STRICT JSON matching the schema keys: severity, category, summary, " +
	"recommended_actions, needs_human_review, confidence, evidence."

// verdictSchema validates the backend's response before it is trusted.
// A response that parses but violates the schema falls back, never renders.
const verdictSchema = `{
  "type": "object",
  "required": ["severity", "category", "summary", "recommended_actions"],
  "properties": {
    "severity": {"enum": ["low", "medium", "high", "critical"]},
    "category": {"enum": ["auth", "injection", "misconfig", "llm_misuse", "network", "other"]},
    "summary": {"type": "string"},
    "recommended_actions": {"type": "array", "items": {"type": "string"}, "minItems": 1},
    "needs_human_review": {"type": "boolean"},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1},
    "evidence": {"type": "array", "items": {"type": "string"}}
  }
}`

// ModelClassifier asks the configured chat backend for a structured verdict.
type ModelClassifier struct {
	provider ChatProvider
	schema   *gojsonschema.Schema
}

// NewModelClassifier creates the model tier over the given backend.
func NewModelClassifier(provider ChatProvider) (*ModelClassifier, error) {
	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(verdictSchema))
	if err != nil {
		return nil, fmt.Errorf("triage: compile verdict schema: %w", err)
	}
	return &ModelClassifier{provider: provider, schema: schema}, nil
}

// Name returns the tier identifier.
func (m *ModelClassifier) Name() Tier { return TierModel }

// Classify sends the structured prompt and requires a strict JSON verdict in
// return. Parse and validation failures are returned, not swallowed.
func (m *ModelClassifier) Classify(ctx context.Context, in *Input) (*Verdict, error) {
	text, err := m.provider.Chat(ctx, systemPrompt, buildPrompt(in))
	if err != nil {
		return nil, fmt.Errorf("triage: model call: %w", err)
	}

	raw := strings.TrimSpace(text)
	res, err := m.schema.Validate(gojsonschema.NewStringLoader(raw))
	if err != nil {
		return nil, fmt.Errorf("triage: model response is not JSON: %w", err)
	}
	if !res.Valid() {
		var probs []string
		for _, e := range res.Errors() {
			probs = append(probs, e.String())
		}
		return nil, fmt.Errorf("triage: model response failed schema: %s", strings.Join(probs, "; "))
	}

	v := Verdict{NeedsHumanReview: true, Confidence: 0.6}
	if err := json.Unmarshal([]byte(raw), &v); err != nil {
		return nil, fmt.Errorf("triage: unmarshal model verdict: %w", err)
	}
	v.Tier = TierModel
	if err := v.Validate(); err != nil {
		return nil, fmt.Errorf("triage: model verdict invalid: %w", err)
	}
	return &v, nil
}

func buildPrompt(in *Input) string {
	return fmt.Sprintf(`LOG SUMMARY
%s

BASELINE SEVERITY: %s

EVIDENCE (RAG snippets):
%s

Now produce JSON with fields: severity (low|medium|high|critical), category, summary, recommended_actions (list of 3-5), needs_human_review (bool), confidence (0-1), evidence (list of short strings).`,
		in.Summary, in.Baseline, strings.Join(in.Evidence, "\n---\n"))
}
