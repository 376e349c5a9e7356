package model

import (
	"encoding"
	"fmt"
	"time"
)

// State represents the scheduling stage of a card.
type State int

const (
	StateNew        State = iota + 1 // never reviewed
	StateLearning                    // failed before graduating
	StateReview                      // graduated, spaced by ease factor
	StateRelearning                  // failed after graduating
)

var (
	stateNames = [...]string{
		StateNew:        "new",
		StateLearning:   "learning",
		StateReview:     "review",
		StateRelearning: "relearning",
	}
	stateByName = map[string]State{
		"new":        StateNew,
		"learning":   StateLearning,
		"review":     StateReview,
		"relearning": StateRelearning,
	}
)

// Compile-time interface checks.
var (
	_ fmt.Stringer             = State(0)
	_ encoding.TextMarshaler   = State(0)
	_ encoding.TextUnmarshaler = (*State)(nil)
)

// IsValid reports whether s is a known state.
func (s State) IsValid() bool {
	return s >= StateNew && s <= StateRelearning
}

// String returns the storage name of the state ("new", "learning", ...).
// For invalid values it returns "State(n)".
func (s State) String() string {
	if s.IsValid() {
		return stateNames[s]
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// MarshalText implements encoding.TextMarshaler.
func (s State) MarshalText() ([]byte, error) {
	if !s.IsValid() {
		return nil, fmt.Errorf("invalid state: %d", int(s))
	}
	return []byte(stateNames[s]), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (s *State) UnmarshalText(text []byte) error {
	v, ok := stateByName[string(text)]
	if !ok {
		return fmt.Errorf("invalid state: %q", text)
	}
	*s = v
	return nil
}

// Quality is a recall rating in the SM-2 0..5 domain. The review UI only
// emits QualityForgot and QualityKnown; the algorithm accepts the full range.
type Quality int

const (
	QualityForgot Quality = 2 // "don't know"
	QualityKnown  Quality = 4 // "know"
)

// IsValid reports whether q is within the 0..5 domain.
func (q Quality) IsValid() bool {
	return q >= 0 && q <= 5
}

// Success reports whether q counts as a successful recall.
func (q Quality) Success() bool {
	return q >= 3
}

// ReviewItem is the persisted scheduling state for one card in one set.
// (SetID, CardID) form the store key and are immutable after creation.
type ReviewItem struct {
	CardID      string
	SetID       string
	EaseFactor  float64 // >= 1.3 always
	Interval    int     // days until next review, 0 before first review
	Repetitions int     // consecutive successes, reset on failure
	LastReview  *time.Time
	NextReview  *time.Time
	State       State
}

// Due reports whether the item should be reviewed at the given time.
// An absent next-review time means due now.
func (it ReviewItem) Due(now time.Time) bool {
	return it.NextReview == nil || !it.NextReview.After(now)
}

// Clone returns a deep copy of the item. Pointer fields are copied by value.
func (it ReviewItem) Clone() ReviewItem {
	out := it
	if it.LastReview != nil {
		v := *it.LastReview
		out.LastReview = &v
	}
	if it.NextReview != nil {
		v := *it.NextReview
		out.NextReview = &v
	}
	return out
}
