package actions

import (
	"sync"
	"time"

	"github.com/linnemanlabs/triago/internal/triage"
)

// Entry is one human action recorded against a card.
type Entry struct {
	Action string    `json:"action"`
	At     time.Time `json:"at"`
}

// Record tracks a rendered card: the verdict behind it, where it was posted,
// and every action taken so far. Actions are audit annotations, not mutually
// exclusive dispositions, so the log only ever grows.
type Record struct {
	CardID  string          `json:"card_id"`
	Channel string          `json:"channel"`
	Verdict *triage.Verdict `json:"verdict"`
	Actions []Entry         `json:"actions"`
}

// Store holds card records in memory. Cards are immutable once rendered;
// only the action log changes.
type Store struct {
	mu      sync.RWMutex
	records map[string]*Record // card ID -> record
}

// NewStore initializes an empty in-memory Store.
func NewStore() *Store {
	return &Store{records: make(map[string]*Record)}
}

// Put registers a freshly rendered card.
func (s *Store) Put(cardID, channel string, v *triage.Verdict) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[cardID] = &Record{CardID: cardID, Channel: channel, Verdict: v}
}

// Get retrieves a card record by ID. Returns a copy.
func (s *Store) Get(cardID string) (*Record, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[cardID]
	if !ok {
		return nil, false
	}
	cp := *r
	cp.Actions = append([]Entry(nil), r.Actions...)
	return &cp, true
}

// Append records an action against a card. Unknown cards are tolerated: the
// card may have been posted before a restart, and the action must still be
// confirmed to the user.
func (s *Store) Append(cardID, action string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[cardID]
	if !ok {
		return
	}
	r.Actions = append(r.Actions, Entry{Action: action, At: time.Now()})
}
