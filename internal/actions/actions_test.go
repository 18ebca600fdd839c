package actions

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/linnemanlabs/triago/internal/logparse"
	"github.com/linnemanlabs/triago/internal/triage"
)

// recordingPoster captures posted texts.
type recordingPoster struct {
	mu    sync.Mutex
	texts []string
	err   error
}

func (p *recordingPoster) PostText(_ context.Context, _, text string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.texts = append(p.texts, text)
	return nil
}

func (p *recordingPoster) posted() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.texts...)
}

func testVerdict() *triage.Verdict {
	return &triage.Verdict{
		Severity:           logparse.SevHigh,
		Category:           triage.CatAuth,
		Summary:            "credential stuffing burst",
		RecommendedActions: []string{"block ip"},
		NeedsHumanReview:   true,
		Confidence:         0.72,
		Evidence:           []string{"203.0.113.7"},
		Tier:               triage.TierMock,
	}
}

func TestStore_PutGetAppend(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Put("card-1", "C123", testVerdict())
	s.Append("card-1", "ack")
	s.Append("card-1", "escalate")

	rec, ok := s.Get("card-1")
	if !ok {
		t.Fatal("expected record")
	}
	if rec.Channel != "C123" {
		t.Errorf("channel = %q, want C123", rec.Channel)
	}
	if len(rec.Actions) != 2 {
		t.Fatalf("actions = %d, want 2", len(rec.Actions))
	}
	if rec.Actions[0].Action != "ack" || rec.Actions[1].Action != "escalate" {
		t.Errorf("action log = %v, want [ack escalate]", rec.Actions)
	}
}

func TestStore_GetReturnsCopy(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Put("card-1", "C123", testVerdict())

	rec, _ := s.Get("card-1")
	rec.Actions = append(rec.Actions, Entry{Action: "tampered"})

	fresh, _ := s.Get("card-1")
	if len(fresh.Actions) != 0 {
		t.Error("mutating a returned record must not affect the store")
	}
}

func TestStore_AppendUnknownCardTolerated(t *testing.T) {
	t.Parallel()

	s := NewStore()
	s.Append("never-seen", "ack") // must not panic
	if _, ok := s.Get("never-seen"); ok {
		t.Error("append must not create records")
	}
}

func TestHandle_ConfirmsEachAction(t *testing.T) {
	t.Parallel()

	tests := []struct {
		action string
		want   string
	}{
		{"escalate", "Escalation noted"},
		{"ack", "Acknowledged"},
		{"lower", "Severity lowered"},
	}

	for _, tt := range tests {
		t.Run(tt.action, func(t *testing.T) {
			t.Parallel()

			store := NewStore()
			store.Put("card-1", "C123", testVerdict())
			poster := &recordingPoster{}
			h := NewHandler(store, poster, nil)

			if err := h.Handle(context.Background(), tt.action, "card-1", "C123"); err != nil {
				t.Fatalf("Handle: %v", err)
			}

			got := poster.posted()
			if len(got) != 1 || !strings.Contains(got[0], tt.want) {
				t.Errorf("posted = %v, want one message containing %q", got, tt.want)
			}

			rec, _ := store.Get("card-1")
			if len(rec.Actions) != 1 || rec.Actions[0].Action != tt.action {
				t.Errorf("action log = %v, want [%s]", rec.Actions, tt.action)
			}
		})
	}
}

func TestHandle_RepeatRepostsSameConfirmation(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Put("card-1", "C123", testVerdict())
	poster := &recordingPoster{}
	h := NewHandler(store, poster, nil)

	for range 3 {
		if err := h.Handle(context.Background(), "ack", "card-1", "C123"); err != nil {
			t.Fatalf("repeat Handle: %v", err)
		}
	}

	got := poster.posted()
	if len(got) != 3 {
		t.Fatalf("posted = %d messages, want 3", len(got))
	}
	if got[0] != got[1] || got[1] != got[2] {
		t.Error("repeat invocations must re-post the same confirmation")
	}
}

func TestHandle_ActionsAreIndependent(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Put("card-1", "C123", testVerdict())
	h := NewHandler(store, &recordingPoster{}, nil)

	// any order, nothing disables anything else
	for _, a := range []string{"lower", "escalate", "ack", "escalate"} {
		if err := h.Handle(context.Background(), a, "card-1", "C123"); err != nil {
			t.Fatalf("Handle(%s): %v", a, err)
		}
	}

	rec, _ := store.Get("card-1")
	if len(rec.Actions) != 4 {
		t.Errorf("action log = %d entries, want 4", len(rec.Actions))
	}
}

func TestHandle_UnknownAction(t *testing.T) {
	t.Parallel()

	h := NewHandler(NewStore(), &recordingPoster{}, nil)
	if err := h.Handle(context.Background(), "self-destruct", "card-1", "C123"); err == nil {
		t.Fatal("expected error for unknown action")
	}
}

func TestHandle_PosterFailureSurfaced(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Put("card-1", "C123", testVerdict())
	h := NewHandler(store, &recordingPoster{err: errors.New("transport down")}, nil)

	if err := h.Handle(context.Background(), "ack", "card-1", "C123"); err == nil {
		t.Fatal("expected error when confirmation post fails")
	}
}

func TestWhy_ExplainsStoredVerdict(t *testing.T) {
	t.Parallel()

	store := NewStore()
	store.Put("card-1", "C123", testVerdict())
	poster := &recordingPoster{}
	h := NewHandler(store, poster, nil)

	if err := h.Handle(context.Background(), "why", "card-1", "C123"); err != nil {
		t.Fatalf("Handle(why): %v", err)
	}

	got := poster.posted()
	if len(got) != 1 {
		t.Fatalf("posted = %d messages, want 1", len(got))
	}
	for _, want := range []string{"HIGH", "auth", "credential stuffing burst", "203.0.113.7", "0.72"} {
		if !strings.Contains(got[0], want) {
			t.Errorf("explanation %q missing %q", got[0], want)
		}
	}

	// why is a side query, not a state transition
	rec, _ := store.Get("card-1")
	if len(rec.Actions) != 0 {
		t.Errorf("why must not alter the action log, got %v", rec.Actions)
	}
}

func TestWhy_UnknownCard(t *testing.T) {
	t.Parallel()

	poster := &recordingPoster{}
	h := NewHandler(NewStore(), poster, nil)

	if err := h.Handle(context.Background(), "why", "gone", "C123"); err != nil {
		t.Fatalf("Handle(why): %v", err)
	}
	got := poster.posted()
	if len(got) != 1 || !strings.Contains(got[0], "no longer have") {
		t.Errorf("posted = %v, want the honest unknown-card reply", got)
	}
}

func TestExplain_MentionsTier(t *testing.T) {
	t.Parallel()

	v := testVerdict()
	v.Tier = triage.TierHeuristic
	if got := Explain(v); !strings.Contains(got, "raw text") {
		t.Errorf("Explain = %q, want heuristic derivation mentioned", got)
	}

	v.Tier = triage.TierModel
	if got := Explain(v); !strings.Contains(got, "model backend") {
		t.Errorf("Explain = %q, want model backend mentioned", got)
	}
}
