package triage

import (
	"regexp"
	"strings"

	"github.com/linnemanlabs/triago/internal/logparse"
)

var heuristicIPRe = regexp.MustCompile(`(\d{1,3}\.){3}\d{1,3}`)

// HeuristicVerdict derives a verdict from raw text alone, with no dependency
// on the extractor, index, or any backend. It is the bottom of the fallback
// chain: when the full pipeline throws, this still produces a card. The
// ruleset is deliberately simpler and distinct from the extractor's.
func HeuristicVerdict(raw string) *Verdict {
	lower := strings.ToLower(raw)

	sev := logparse.SevLow
	cat := CatOther
	summary := "Log anomaly"
	actions := []string{"Review logs"}

	if strings.Contains(lower, "login failed") || strings.Contains(lower, "failed login") {
		sev = logparse.SevHigh
		cat = CatAuth
		summary = "Detected auth pattern"
		actions = []string{"Block abusive IP", "Enable MFA", "Review IAM events"}
	}
	if strings.Contains(lower, "union select") || strings.Contains(lower, " or 1=1") || strings.Contains(lower, "injection") {
		sev = logparse.SevCritical
		cat = CatInjection
		summary = "Detected injection pattern"
		actions = []string{"Block source IP", "Sanitize inputs", "Review DB logs"}
	}

	conf := 0.6
	if sev == logparse.SevHigh || sev == logparse.SevCritical {
		conf = 0.9
	}

	var evidence []string
	if ip := heuristicIPRe.FindString(raw); ip != "" {
		evidence = []string{ip}
	}

	return &Verdict{
		Severity:           sev,
		Category:           cat,
		Summary:            summary,
		RecommendedActions: actions,
		NeedsHumanReview:   true,
		Confidence:         conf,
		Evidence:           evidence,
		Tier:               TierHeuristic,
	}
}
