package triage

import (
	"fmt"

	"github.com/linnemanlabs/triago/internal/logparse"
)

// Category classifies what kind of security concern a verdict describes.
type Category string

const (
	CatAuth      Category = "auth"
	CatInjection Category = "injection"
	CatMisconfig Category = "misconfig"
	CatLLMMisuse Category = "llm_misuse"
	CatNetwork   Category = "network"
	CatOther     Category = "other"
)

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	switch c {
	case CatAuth, CatInjection, CatMisconfig, CatLLMMisuse, CatNetwork, CatOther:
		return true
	}
	return false
}

// Tier identifies which classifier strategy produced a verdict.
type Tier string

const (
	// TierModel means the live classification backend produced the verdict.
	TierModel Tier = "model"

	// TierMock means the deterministic mock produced the verdict.
	TierMock Tier = "mock"

	// TierHeuristic means the whole pipeline attempt failed and the verdict
	// was re-derived directly from raw text.
	TierHeuristic Tier = "heuristic"
)

// Verdict is the structured outcome of a triage run.
type Verdict struct {
	Severity           logparse.Severity `json:"severity"`
	Category           Category          `json:"category"`
	Summary            string            `json:"summary"`
	RecommendedActions []string          `json:"recommended_actions"`
	NeedsHumanReview   bool              `json:"needs_human_review"`
	Confidence         float64           `json:"confidence"`
	Evidence           []string          `json:"evidence"`
	Tier               Tier              `json:"tier,omitempty"`
}

// Validate checks the invariants every verdict must hold before rendering.
func (v *Verdict) Validate() error {
	if !v.Severity.Valid() {
		return fmt.Errorf("invalid severity %q", v.Severity)
	}
	if !v.Category.Valid() {
		return fmt.Errorf("invalid category %q", v.Category)
	}
	if v.Confidence < 0 || v.Confidence > 1 {
		return fmt.Errorf("confidence %v out of [0,1]", v.Confidence)
	}
	if len(v.RecommendedActions) == 0 {
		return fmt.Errorf("recommended_actions is empty")
	}
	return nil
}
