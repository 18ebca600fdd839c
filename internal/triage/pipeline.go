package triage

import (
	"context"
	"fmt"
	"time"

	"github.com/linnemanlabs/go-core/log"

	"github.com/linnemanlabs/triago/internal/kb"
	"github.com/linnemanlabs/triago/internal/logparse"
)

const evidenceK = 3

// Hooks decouples the pipeline from its instrumentation. Nil funcs are skipped.
type Hooks struct {
	// OnComplete fires once per Run with the producing tier, final severity
	// and total duration in seconds.
	OnComplete func(tier Tier, severity string, duration float64)

	// OnTierError fires when a classifier tier fails and the orchestrator
	// falls through.
	OnTierError func(tier Tier)

	// OnSearch fires after each evidence lookup with its duration in seconds.
	OnSearch func(duration float64)
}

// Pipeline runs the full triage chain: extract, score, summarize, retrieve
// evidence, then classify through the ordered tier list. Run never fails;
// any error inside the chain abandons the attempt wholesale and re-derives
// the verdict from raw text with the heuristic tier.
type Pipeline struct {
	index  *kb.Index
	tiers  []Classifier
	logger log.Logger
	hooks  Hooks
}

// NewPipeline creates a pipeline over the given evidence index and ordered
// classifier tiers. The tier list must end with a tier that cannot fail.
func NewPipeline(index *kb.Index, tiers []Classifier, logger log.Logger, hooks Hooks) *Pipeline {
	if logger == nil {
		logger = log.Nop()
	}
	return &Pipeline{index: index, tiers: tiers, logger: logger, hooks: hooks}
}

// Run triages one block of raw log text and always returns a verdict.
func (p *Pipeline) Run(ctx context.Context, raw string) *Verdict {
	start := time.Now()

	v, err := p.attempt(ctx, raw)
	if err != nil {
		p.logger.Warn(ctx, "pipeline attempt failed, re-deriving from raw text", "error", err)
		v = HeuristicVerdict(raw)
	}

	if p.hooks.OnComplete != nil {
		p.hooks.OnComplete(v.Tier, string(v.Severity), time.Since(start).Seconds())
	}

	p.logger.Info(ctx, "triage complete",
		"tier", v.Tier,
		"severity", v.Severity,
		"category", v.Category,
		"confidence", v.Confidence,
	)
	return v
}

// attempt runs the full chain end to end. An error anywhere means the whole
// attempt is discarded; there are no per-stage retries.
func (p *Pipeline) attempt(ctx context.Context, raw string) (*Verdict, error) {
	parsed := logparse.Extract(raw)
	baseline := logparse.BaselineSeverity(parsed)
	summary := logparse.Summarize(parsed)

	searchStart := time.Now()
	evidence, err := p.index.Search(ctx, summary, evidenceK)
	if err != nil {
		return nil, fmt.Errorf("evidence search: %w", err)
	}
	if p.hooks.OnSearch != nil {
		p.hooks.OnSearch(time.Since(searchStart).Seconds())
	}

	in := &Input{Summary: summary, Baseline: baseline, Evidence: evidence}

	var lastErr error
	for _, tier := range p.tiers {
		v, err := tier.Classify(ctx, in)
		if err != nil {
			lastErr = err
			p.logger.Warn(ctx, "classifier tier failed", "tier", tier.Name(), "error", err)
			if p.hooks.OnTierError != nil {
				p.hooks.OnTierError(tier.Name())
			}
			continue
		}
		return v, nil
	}
	return nil, fmt.Errorf("all classifier tiers failed: %w", lastErr)
}
