package triage

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/linnemanlabs/triago/internal/kb"
	"github.com/linnemanlabs/triago/internal/logparse"
)

func testIndex(t *testing.T) *kb.Index {
	t.Helper()
	dir := t.TempDir()
	store := kb.NewFileStore(filepath.Join(dir, "index.json"))
	ix := kb.New(store, kb.FallbackEmbedder{}, filepath.Join(dir, "no-kb"), nil)
	if err := ix.Build(context.Background()); err != nil {
		t.Fatalf("build test index: %v", err)
	}
	return ix
}

// brokenIndex returns an index whose store path is a directory, so every
// search fails.
func brokenIndex(t *testing.T) *kb.Index {
	t.Helper()
	dir := t.TempDir()
	return kb.New(kb.NewFileStore(dir), kb.FallbackEmbedder{}, "", nil)
}

func TestPipeline_MockTier_EndToEnd(t *testing.T) {
	t.Parallel()

	p := NewPipeline(testIndex(t), []Classifier{MockClassifier{}}, nil, Hooks{})

	raw := strings.Repeat("failed login for user alice from 203.0.113.7\n", 25)
	v := p.Run(context.Background(), raw)

	if v.Tier != TierMock {
		t.Fatalf("tier = %q, want mock", v.Tier)
	}
	if v.Severity != logparse.SevHigh {
		t.Errorf("severity = %q, want high (baseline high maps to high)", v.Severity)
	}
	if v.Category != CatAuth {
		t.Errorf("category = %q, want auth", v.Category)
	}
	if len(v.Evidence) == 0 {
		t.Error("expected evidence from the populated index")
	}
}

func TestPipeline_ModelTierFailure_FallsToMock(t *testing.T) {
	t.Parallel()

	model, err := NewModelClassifier(scriptedChat{err: errors.New("backend down")})
	if err != nil {
		t.Fatal(err)
	}

	var tierErrs []Tier
	p := NewPipeline(testIndex(t), []Classifier{model, MockClassifier{}}, nil, Hooks{
		OnTierError: func(tier Tier) { tierErrs = append(tierErrs, tier) },
	})

	v := p.Run(context.Background(), "failed login\nfailed login\nfailed login")

	if v.Tier != TierMock {
		t.Fatalf("tier = %q, want mock after model failure", v.Tier)
	}
	if len(tierErrs) != 1 || tierErrs[0] != TierModel {
		t.Errorf("tier errors = %v, want [model]", tierErrs)
	}
}

func TestPipeline_ModelTierSuccess(t *testing.T) {
	t.Parallel()

	model, err := NewModelClassifier(scriptedChat{text: `{
		"severity": "critical",
		"category": "injection",
		"summary": "active SQL injection",
		"recommended_actions": ["block ip", "sanitize inputs", "review db logs"],
		"confidence": 0.95
	}`})
	if err != nil {
		t.Fatal(err)
	}

	p := NewPipeline(testIndex(t), []Classifier{model, MockClassifier{}}, nil, Hooks{})
	v := p.Run(context.Background(), "GET /q?x=union select 1")

	if v.Tier != TierModel {
		t.Fatalf("tier = %q, want model", v.Tier)
	}
	if v.Severity != logparse.SevCritical || v.Category != CatInjection {
		t.Errorf("got %q/%q, want critical/injection", v.Severity, v.Category)
	}
}

func TestPipeline_IndexFailure_HeuristicFromRawText(t *testing.T) {
	t.Parallel()

	p := NewPipeline(brokenIndex(t), []Classifier{MockClassifier{}}, nil, Hooks{})

	v := p.Run(context.Background(), "failed login for bob from 203.0.113.9")

	if v.Tier != TierHeuristic {
		t.Fatalf("tier = %q, want heuristic when the pipeline attempt fails", v.Tier)
	}
	if v.Category != CatAuth {
		t.Errorf("category = %q, want auth re-derived from raw text", v.Category)
	}
	if !v.NeedsHumanReview {
		t.Error("heuristic verdicts must need human review")
	}
}

func TestPipeline_HooksFire(t *testing.T) {
	t.Parallel()

	var completed int
	var searched int
	p := NewPipeline(testIndex(t), []Classifier{MockClassifier{}}, nil, Hooks{
		OnComplete: func(tier Tier, severity string, duration float64) {
			completed++
			if tier != TierMock {
				t.Errorf("OnComplete tier = %q, want mock", tier)
			}
			if duration < 0 {
				t.Errorf("OnComplete duration = %v, want >= 0", duration)
			}
		},
		OnSearch: func(duration float64) { searched++ },
	})

	p.Run(context.Background(), "nothing here")

	if completed != 1 {
		t.Errorf("OnComplete fired %d times, want 1", completed)
	}
	if searched != 1 {
		t.Errorf("OnSearch fired %d times, want 1", searched)
	}
}

func TestPipeline_NeverReturnsNil(t *testing.T) {
	t.Parallel()

	for _, raw := range []string{"", "\n\n", "anything"} {
		p := NewPipeline(testIndex(t), []Classifier{MockClassifier{}}, nil, Hooks{})
		if v := p.Run(context.Background(), raw); v == nil {
			t.Fatalf("Run(%q) returned nil verdict", raw)
		}
	}
}
