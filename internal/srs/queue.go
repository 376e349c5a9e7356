package srs

import (
	"sort"
	"time"

	"github.com/verte-zerg/tuicards/internal/model"
)

type queueEntry struct {
	cardID string
	next   *time.Time
	pos    int // card order in the set definition, tie-break
}

// SelectDue returns the ordered card ids to review this session.
//
// Due review/relearning cards come first, then due new cards. Each group is
// ordered by next-review time ascending (absent sorts earliest) with ties
// broken by card order in the set definition, so the result is deterministic
// for a fixed store state and clock. New cards are capped at
// NewCardsPerDay, the rest at ReviewsPerDay. A card missing from items is
// treated as new and due.
func SelectDue(set model.FlashcardSet, items map[string]model.ReviewItem, settings model.SRSSettings, now time.Time) []string {
	var newCards, reviews []queueEntry
	for pos, card := range set.Cards {
		item, ok := items[card.ID]
		if !ok {
			newCards = append(newCards, queueEntry{cardID: card.ID, pos: pos})
			continue
		}
		if !item.Due(now) {
			continue
		}
		entry := queueEntry{cardID: card.ID, next: item.NextReview, pos: pos}
		if item.State == model.StateNew {
			newCards = append(newCards, entry)
		} else {
			reviews = append(reviews, entry)
		}
	}

	sortQueue(reviews)
	sortQueue(newCards)
	reviews = capQueue(reviews, settings.ReviewsPerDay)
	newCards = capQueue(newCards, settings.NewCardsPerDay)

	out := make([]string, 0, len(reviews)+len(newCards))
	for _, e := range reviews {
		out = append(out, e.cardID)
	}
	for _, e := range newCards {
		out = append(out, e.cardID)
	}
	return out
}

func sortQueue(entries []queueEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		switch {
		case a.next == nil && b.next == nil:
			return a.pos < b.pos
		case a.next == nil:
			return true
		case b.next == nil:
			return false
		case a.next.Equal(*b.next):
			return a.pos < b.pos
		default:
			return a.next.Before(*b.next)
		}
	})
}

func capQueue(entries []queueEntry, limit int) []queueEntry {
	if limit < 0 || len(entries) <= limit {
		return entries
	}
	return entries[:limit]
}
