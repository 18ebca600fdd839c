package triage

import (
	"context"
	"strings"

	"github.com/linnemanlabs/triago/internal/logparse"
)

// MockClassifier is the deterministic middle tier. It never calls out and
// never fails, so the pipeline always has a verdict when its upstream
// stages succeed.
type MockClassifier struct{}

// Name returns the tier identifier.
func (MockClassifier) Name() Tier { return TierMock }

// Classify maps the baseline severity and summary substrings onto a fixed
// verdict shape: high/critical baselines become high, everything else medium,
// confidence pinned at 0.72, evidence capped at three snippets.
func (MockClassifier) Classify(_ context.Context, in *Input) (*Verdict, error) {
	sev := logparse.SevMedium
	if in.Baseline == logparse.SevHigh || in.Baseline == logparse.SevCritical {
		sev = logparse.SevHigh
	}

	cat := CatOther
	switch {
	case strings.Contains(in.Summary, "failed_logins"):
		cat = CatAuth
	case strings.Contains(in.Summary, "suspicious_paths"):
		cat = CatInjection
	}

	evidence := in.Evidence
	if len(evidence) > 3 {
		evidence = evidence[:3]
	}

	return &Verdict{
		Severity: sev,
		Category: cat,
		Summary:  "Auto triage: " + in.Summary,
		RecommendedActions: []string{
			"Enforce MFA; lock suspicious accounts",
			"Rate-limit login endpoint; block abusive IP",
			"Rotate keys / revoke tokens; invalidate sessions",
		},
		NeedsHumanReview: true,
		Confidence:       0.72,
		Evidence:         evidence,
		Tier:             TierMock,
	}, nil
}
