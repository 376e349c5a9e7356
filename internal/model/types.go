// Package model defines shared data structures.
package model

import (
	"fmt"
	"time"
)

// Card is a single flashcard definition. The front text doubles as the
// stable card id within its set.
type Card struct {
	ID    string
	Front string
	Back  string
}

// FlashcardSet is an ordered list of cards with a stable set id.
type FlashcardSet struct {
	ID    string
	Cards []Card
}

// CardByID returns the card with the given id, if present.
func (s FlashcardSet) CardByID(id string) (Card, bool) {
	for _, c := range s.Cards {
		if c.ID == id {
			return c, true
		}
	}
	return Card{}, false
}

// SRSSettings controls scheduling for one review session.
type SRSSettings struct {
	NewCardsPerDay     int // cap on new cards per session
	ReviewsPerDay      int // cap on due review/relearning cards per session
	GraduatingInterval int // days assigned on first success
	EasyInterval       int // days assigned on first success at MaxQuality
	MaxQuality         int // highest rating the UI emits (easy path threshold)
}

// DefaultSRSSettings returns the default scheduling settings.
func DefaultSRSSettings() SRSSettings {
	return SRSSettings{
		NewCardsPerDay:     20,
		ReviewsPerDay:      100,
		GraduatingInterval: 1,
		EasyInterval:       4,
		MaxQuality:         4,
	}
}

// Validate rejects malformed settings. Input settings are never clamped.
func (s SRSSettings) Validate() error {
	if s.NewCardsPerDay < 0 {
		return fmt.Errorf("new cards per day must be >= 0, got %d", s.NewCardsPerDay)
	}
	if s.ReviewsPerDay < 0 {
		return fmt.Errorf("reviews per day must be >= 0, got %d", s.ReviewsPerDay)
	}
	if s.GraduatingInterval < 1 {
		return fmt.Errorf("graduating interval must be >= 1 day, got %d", s.GraduatingInterval)
	}
	if s.EasyInterval < 1 {
		return fmt.Errorf("easy interval must be >= 1 day, got %d", s.EasyInterval)
	}
	if s.MaxQuality < 3 || s.MaxQuality > 5 {
		return fmt.Errorf("max quality must be within 3..5, got %d", s.MaxQuality)
	}
	return nil
}

// SetStats summarizes persisted scheduling state for one set.
type SetStats struct {
	SetID     string
	Total     int
	New       int
	Learning  int // learning + relearning
	ReviewDue int
	Logged    int // review log rows for the set
}

// SessionSummary reports a finished review session.
type SessionSummary struct {
	SessionID string
	SetID     string
	Reviewed  int
	Correct   int
	Incorrect int
	StartedAt time.Time
	EndedAt   time.Time
}

// ReviewLogEntry is an immutable record of a single rating.
type ReviewLogEntry struct {
	SessionID  string
	SetID      string
	CardID     string
	Quality    Quality
	Interval   int
	EaseFactor float64
	State      State
	ReviewedAt time.Time
}
